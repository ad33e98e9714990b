package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rfw-verification/internal/domain"
	"github.com/couchcryptid/rfw-verification/internal/pipeline"
	"github.com/couchcryptid/rfw-verification/internal/verify"
)

const sweepYAML = `
configurations:
  - label: lightning-forested
    start_date: "20060101"
    end_date: 20151231
    offices: [OTX, PDT]
    cause: lightning
    forested: "yes"
    danger_index: ERC_PERC>=90
    duration_hours: 12
    size_percentile: 75
  - start_date: "20100101"
    end_date: "20101231"
  - label: bad-index
    start_date: "20100101"
    end_date: "20101231"
    danger_index: ERC_PERC
`

func TestParseSweep(t *testing.T) {
	sweep, err := pipeline.ParseSweep([]byte(sweepYAML))
	require.NoError(t, err)
	require.Len(t, sweep, 3)

	first := sweep[0]
	assert.Equal(t, "lightning-forested", first.Label)
	require.NoError(t, first.Err)
	assert.Equal(t, domain.NewDate(2006, time.January, 1), first.Options.Start)
	assert.Equal(t, domain.NewDate(2015, time.December, 31), first.Options.End)
	assert.Equal(t, []string{"OTX", "PDT"}, first.Options.Offices)
	assert.Equal(t, domain.CauseLightning, first.Options.Cause)
	assert.Equal(t, "yes", first.Options.Forested)
	assert.Equal(t, &verify.DangerIndexFilter{Index: "ERC_PERC", Operator: ">=", Threshold: 90}, first.Options.DangerIndex)
	assert.Equal(t, 12, first.Options.DurationHours)
	require.NotNil(t, first.Options.SizePercentile)
	assert.Equal(t, 75, *first.Options.SizePercentile)
	assert.NoError(t, first.Options.Validate())

	assert.Equal(t, "config-2", sweep[1].Label)
	assert.Nil(t, sweep[1].Options.SizePercentile)

	var cfgErr *verify.ConfigurationError
	assert.ErrorAs(t, sweep[2].Err, &cfgErr)
}

func TestParseSweep_Errors(t *testing.T) {
	tests := map[string]string{
		"not yaml":         "configurations: [",
		"empty":            "configurations: []",
		"bad date":         "configurations:\n  - start_date: June\n",
		"duplicate labels": "configurations:\n  - label: a\n  - label: a\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := pipeline.ParseSweep([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestLoadSweep(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sweep.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sweepYAML), 0o600))

	sweep, err := pipeline.LoadSweep(path)
	require.NoError(t, err)
	assert.Len(t, sweep, 3)

	_, err = pipeline.LoadSweep(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
