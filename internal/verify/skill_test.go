package verify

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSkillScore(t *testing.T) {
	tests := []struct {
		name                         string
		forecast, reference, perfect float64
		want                         float64
	}{
		{"pod", 0.6, 0.3, 1, 0.4286},
		{"far improves toward zero", 0.2, 0.6, 0, 0.6667},
		{"far worse than reference", 0.8, 0.6, 0, -0.3333},
		{"no skill", 0.4, 0.4, 1, 0},
		{"perfect", 1, 0.25, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := skillScore(tt.name, tt.forecast, tt.reference, tt.perfect)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-4)
		})
	}

	t.Run("reference equals perfect", func(t *testing.T) {
		_, err := skillScore("far_ss", 0.3, 0, 0)
		var refErr *DegenerateReferenceError
		require.True(t, errors.As(err, &refErr))
		assert.Equal(t, "far_ss", refErr.Score)
	})
}

func TestScore(t *testing.T) {
	table := ContingencyTable{Hits: 3, Misses: 2, FalseAlarms: 5}
	forecast, err := table.Statistics()
	require.NoError(t, err)

	climo := ClimatologySummary{
		Median:     Statistics{Bias: 0.8, POD: 0.3, FAR: 0.75, SR: 0.25, CSI: 0.15},
		MedianHits: 1,
	}

	s, err := Score(forecast, table, climo)
	require.NoError(t, err)
	require.NotNil(t, s.PODSS)
	assert.InDelta(t, (0.6-0.3)/(1-0.3), *s.PODSS, 1e-9)
	assert.InDelta(t, (1.6-0.8)/(1-0.8), *s.BiasSS, 1e-9)
	assert.InDelta(t, (0.625-0.75)/(0-0.75), *s.FARSS, 1e-9)
	assert.InDelta(t, (0.375-0.25)/(1-0.25), *s.SRSS, 1e-9)
	assert.InDelta(t, (0.3-0.15)/(1-0.15), *s.CSISS, 1e-9)
	assert.InDelta(t, 2.0/9.0, *s.ETS, 1e-9)
}

func TestScore_DegenerateReference(t *testing.T) {
	table := ContingencyTable{Hits: 2, Misses: 2}
	forecast, err := table.Statistics()
	require.NoError(t, err)

	climo := ClimatologySummary{
		Median:     Statistics{Bias: 0.5, POD: 1, FAR: 0, SR: 1, CSI: 0.5},
		MedianHits: 4,
	}

	s, err := Score(forecast, table, climo)
	require.Error(t, err)

	var refErr *DegenerateReferenceError
	require.True(t, errors.As(err, &refErr))
	for _, name := range []string{"pod_ss", "far_ss", "sr_ss", "ets"} {
		assert.Contains(t, err.Error(), name)
	}

	assert.Nil(t, s.PODSS)
	assert.Nil(t, s.FARSS)
	assert.Nil(t, s.SRSS)
	assert.Nil(t, s.ETS)
	require.NotNil(t, s.BiasSS)
	require.NotNil(t, s.CSISS)

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"pod_ss":null`)
	assert.NotContains(t, string(out), "NaN")
}
