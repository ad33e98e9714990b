package verify

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

func date(t *testing.T, v int) domain.Date {
	t.Helper()
	d, err := domain.DateFromInt(v)
	require.NoError(t, err)
	return d
}

func fire(t *testing.T, disc int, zone, office string, cause int, forested bool, acres float64, idx map[string]float64) domain.EventRecord {
	t.Helper()
	return domain.EventRecord{
		DiscoveryDate: date(t, disc),
		Zone:          zone,
		Office:        office,
		CauseCode:     cause,
		Forested:      forested,
		SizeAcres:     acres,
		DangerIndices: idx,
	}
}

func warning(t *testing.T, flat int, zone, office string, hours float64) domain.WarningRecord {
	t.Helper()
	issued := date(t, flat).Time().Add(12 * time.Hour)
	return domain.WarningRecord{
		Office:   office,
		Zone:     zone,
		Issued:   issued,
		Expired:  issued.Add(time.Duration(hours * float64(time.Hour))),
		FlatDate: date(t, flat),
		Days:     1,
	}
}

func pct(p int) *int { return &p }

func baseOptions(t *testing.T) FilterOptions {
	return FilterOptions{Start: date(t, 20100101), End: date(t, 20101231)}
}

func testRecords(t *testing.T) domain.Records {
	return domain.Records{
		Warnings: []domain.WarningRecord{
			warning(t, 20100601, "WAZ675", "OTX", 4),
			warning(t, 20100601, "WAZ675", "OTX", 10),
			warning(t, 20100715, "ORZ610", "PDT", 6),
			warning(t, 20100820, "IDZ401", "BOI", 20),
			warning(t, 20110601, "WAZ675", "OTX", 12),
		},
		Events: []domain.EventRecord{
			fire(t, 20100601, "WAZ675", "OTX", 1, true, 10, map[string]float64{domain.IndexEnergyRelease: 95}),
			fire(t, 20100601, "WAZ675", "OTX", 1, true, 300, map[string]float64{domain.IndexEnergyRelease: 97}),
			fire(t, 20100716, "ORZ610", "PDT", 5, false, 2, map[string]float64{domain.IndexEnergyRelease: 60}),
			fire(t, 20100901, "IDZ401", "BOI", 13, true, 50, nil),
			fire(t, 20090601, "WAZ675", "OTX", 1, true, 5000, map[string]float64{domain.IndexEnergyRelease: 99}),
		},
	}
}

func TestFilter_DateRangeAndDedup(t *testing.T) {
	res, err := Filter(testRecords(t), baseOptions(t))
	require.NoError(t, err)

	assert.Equal(t, 4, res.WarningsRetained)
	assert.Equal(t, 4, res.EventsRetained)
	want := NewKeySet(
		domain.OccurrenceKey{Date: date(t, 20100601), Zone: "WAZ675"},
		domain.OccurrenceKey{Date: date(t, 20100715), Zone: "ORZ610"},
		domain.OccurrenceKey{Date: date(t, 20100820), Zone: "IDZ401"},
	)
	assert.Empty(t, cmp.Diff(want, res.WarningKeys))
	assert.Equal(t, 3, res.EventKeys.Len())
	assert.Nil(t, res.ZoneThresholds)
}

func TestFilter_Options(t *testing.T) {
	erc90, err := ParseDangerIndexFilter("ERC_PERC>=90")
	require.NoError(t, err)
	erc60, err := ParseDangerIndexFilter("ERC_PERC=60")
	require.NoError(t, err)

	tests := []struct {
		name     string
		opts     func(*FilterOptions)
		warnings int
		events   int
	}{
		{"offices", func(o *FilterOptions) { o.Offices = []string{"OTX", "PDT"} }, 3, 3},
		{"zones", func(o *FilterOptions) { o.Zones = []string{"IDZ401"} }, 1, 1},
		{"lightning", func(o *FilterOptions) { o.Cause = domain.CauseLightning }, 4, 2},
		{"human", func(o *FilterOptions) { o.Cause = domain.CauseHuman }, 4, 1},
		{"forested", func(o *FilterOptions) { o.Forested = "yes" }, 4, 3},
		{"not forested", func(o *FilterOptions) { o.Forested = "no" }, 4, 1},
		{"danger index at or above", func(o *FilterOptions) { o.DangerIndex = erc90 }, 4, 2},
		{"danger index equal", func(o *FilterOptions) { o.DangerIndex = erc60 }, 4, 1},
		{"six hour bucket", func(o *FilterOptions) { o.DurationHours = 6 }, 2, 4},
		{"twelve hour bucket", func(o *FilterOptions) { o.DurationHours = 12 }, 1, 4},
		{"twenty four hour bucket", func(o *FilterOptions) { o.DurationHours = 24 }, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions(t)
			tt.opts(&opts)
			res, err := Filter(testRecords(t), opts)
			require.NoError(t, err)
			assert.Equal(t, tt.warnings, res.WarningsRetained)
			assert.Equal(t, tt.events, res.EventsRetained)
		})
	}
}

func TestFilter_DurationBuckets(t *testing.T) {
	var records domain.Records
	for _, hours := range []float64{0, 6, 6.5, 12, 18, 18.5, 24, 30} {
		records.Warnings = append(records.Warnings, warning(t, 20100601, "WAZ675", "OTX", hours))
	}

	tests := []struct {
		bucket   int
		retained int
	}{
		{6, 1},  // 6h only: a 0h warning is outside (0,6]
		{12, 2}, // 6.5h, 12h
		{18, 1}, // 18h: 12h belongs to the lower bucket
		{24, 2}, // 18.5h, 24h
	}
	for _, tt := range tests {
		t.Run(strconv.Itoa(tt.bucket), func(t *testing.T) {
			opts := baseOptions(t)
			opts.DurationHours = tt.bucket
			res, err := Filter(records, opts)
			require.NoError(t, err)
			assert.Equal(t, tt.retained, res.WarningsRetained)
		})
	}
}

func TestFilter_SizePercentile(t *testing.T) {
	records := domain.Records{
		Events: []domain.EventRecord{
			fire(t, 20100601, "Z1", "OTX", 1, true, 1, nil),
			fire(t, 20100602, "Z1", "OTX", 1, true, 2, nil),
			fire(t, 20100603, "Z1", "OTX", 1, true, 3, nil),
			fire(t, 20100604, "Z1", "OTX", 1, true, 4, nil),
			fire(t, 20100605, "Z1", "OTX", 1, true, 5, nil),
			fire(t, 20100601, "Z2", "OTX", 1, true, 100, nil),
			fire(t, 20100602, "Z2", "OTX", 1, true, 200, nil),
			// Outside the date range but still part of the zone's population.
			fire(t, 20090601, "Z2", "OTX", 1, true, 300, nil),
		},
	}

	opts := baseOptions(t)
	opts.SizePercentile = pct(50)
	res, err := Filter(records, opts)
	require.NoError(t, err)

	assert.Equal(t, map[string]float64{"Z1": 3, "Z2": 200}, res.ZoneThresholds)
	want := NewKeySet(
		domain.OccurrenceKey{Date: date(t, 20100603), Zone: "Z1"},
		domain.OccurrenceKey{Date: date(t, 20100604), Zone: "Z1"},
		domain.OccurrenceKey{Date: date(t, 20100605), Zone: "Z1"},
		domain.OccurrenceKey{Date: date(t, 20100602), Zone: "Z2"},
	)
	assert.Empty(t, cmp.Diff(want, res.EventKeys))

	for _, e := range records.Events {
		if !inRange(e.DiscoveryDate, opts.Start, opts.End) {
			continue
		}
		kept := res.EventKeys.Contains(e.Key())
		assert.Equal(t, e.SizeAcres >= res.ZoneThresholds[e.Zone], kept, "event %s", e.Key())
	}
}

func TestFilter_SizePercentileAfterCategoryFilters(t *testing.T) {
	records := domain.Records{
		Events: []domain.EventRecord{
			fire(t, 20100601, "Z1", "OTX", 1, true, 10, nil),
			fire(t, 20100602, "Z1", "OTX", 1, true, 20, nil),
			fire(t, 20100603, "Z1", "OTX", 7, true, 1000, nil),
		},
	}
	opts := baseOptions(t)
	opts.Cause = domain.CauseLightning
	opts.SizePercentile = pct(100)

	res, err := Filter(records, opts)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.ZoneThresholds["Z1"])
	assert.Equal(t, 1, res.EventKeys.Len())
}

func TestFilter_SizePercentileAfterDangerIndex(t *testing.T) {
	high := map[string]float64{domain.IndexEnergyRelease: 95}
	low := map[string]float64{domain.IndexEnergyRelease: 40}
	records := domain.Records{
		Events: []domain.EventRecord{
			fire(t, 20100601, "Z1", "OTX", 1, true, 10, high),
			fire(t, 20100602, "Z1", "OTX", 1, true, 30, high),
			// Excluded by the index before thresholds are computed.
			fire(t, 20100603, "Z1", "OTX", 1, true, 5000, low),
		},
	}
	opts := baseOptions(t)
	opts.DangerIndex = &DangerIndexFilter{Index: domain.IndexEnergyRelease, Operator: ">=", Threshold: 90}
	opts.SizePercentile = pct(50)

	res, err := Filter(records, opts)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.ZoneThresholds["Z1"])
	assert.Empty(t, cmp.Diff(NewKeySet(domain.OccurrenceKey{Date: date(t, 20100602), Zone: "Z1"}), res.EventKeys))
}

func TestFilter_EmptyResultIsValid(t *testing.T) {
	opts := FilterOptions{Start: date(t, 19990101), End: date(t, 19991231)}
	res, err := Filter(testRecords(t), opts)
	require.NoError(t, err)
	assert.Zero(t, res.WarningKeys.Len())
	assert.Zero(t, res.EventKeys.Len())
}

func TestFilter_ConfigurationErrors(t *testing.T) {
	tests := []struct {
		name   string
		opts   func(*FilterOptions)
		option string
	}{
		{"start after end", func(o *FilterOptions) { o.Start, o.End = o.End, o.Start }, "date range"},
		{"missing dates", func(o *FilterOptions) { o.Start = domain.Date{} }, "date range"},
		{"unknown cause", func(o *FilterOptions) { o.Cause = domain.CauseUnknown }, "cause"},
		{"bad forested", func(o *FilterOptions) { o.Forested = "maybe" }, "forested"},
		{"unknown index", func(o *FilterOptions) {
			o.DangerIndex = &DangerIndexFilter{Index: "KBDI", Operator: ">=", Threshold: 1}
		}, "danger index"},
		{"unsupported operator", func(o *FilterOptions) {
			o.DangerIndex = &DangerIndexFilter{Index: domain.IndexEnergyRelease, Operator: "<", Threshold: 1}
		}, "danger index"},
		{"duration bucket", func(o *FilterOptions) { o.DurationHours = 8 }, "duration"},
		{"percentile range", func(o *FilterOptions) { o.SizePercentile = pct(101) }, "size percentile"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := baseOptions(t)
			tt.opts(&opts)
			_, err := Filter(testRecords(t), opts)
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Equal(t, tt.option, cfgErr.Option)
		})
	}
}

func TestParseDangerIndexFilter(t *testing.T) {
	tests := []struct {
		in   string
		want DangerIndexFilter
	}{
		{"ERC_PERC>=90", DangerIndexFilter{Index: "ERC_PERC", Operator: ">=", Threshold: 90}},
		{"BI_PERC <= 20.5", DangerIndexFilter{Index: "BI_PERC", Operator: "<=", Threshold: 20.5}},
		{"FM100_PERC==50", DangerIndexFilter{Index: "FM100_PERC", Operator: "==", Threshold: 50}},
		{"FM1000_PERC=10", DangerIndexFilter{Index: "FM1000_PERC", Operator: "=", Threshold: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDangerIndexFilter(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}

	for _, bad := range []string{"ERC_PERC", ">=90", "ERC_PERC>=high", "ERC_PERC<90"} {
		_, err := ParseDangerIndexFilter(bad)
		assert.Error(t, err, bad)
	}
}
