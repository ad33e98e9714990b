package verify

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

// Comparison operators accepted by the danger index filter.
const (
	OpLessOrEqual    = "<="
	OpEqual          = "=="
	OpGreaterOrEqual = ">="
)

// durationBuckets maps a bucket label to its half-open (lower, upper] hour range.
var durationBuckets = map[int][2]float64{
	6:  {0, 6},
	12: {6, 12},
	18: {12, 18},
	24: {18, 24},
}

// DangerIndexFilter keeps fires whose named index compares to Threshold.
type DangerIndexFilter struct {
	Index     string  `json:"index"`
	Operator  string  `json:"operator"`
	Threshold float64 `json:"threshold"`
}

// ParseDangerIndexFilter parses the compact form "ERC_PERC>=90".
func ParseDangerIndexFilter(s string) (*DangerIndexFilter, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, "<>=")
	if i <= 0 {
		return nil, configErrorf("danger index", "%q is not of the form INDEX>=THRESHOLD", s)
	}
	var op string
	for _, candidate := range []string{OpLessOrEqual, OpGreaterOrEqual, OpEqual, "="} {
		if strings.HasPrefix(s[i:], candidate) {
			op = candidate
			break
		}
	}
	if op == "" {
		return nil, configErrorf("danger index", "%q has no <=, == or >= comparison", s)
	}
	threshold, err := strconv.ParseFloat(strings.TrimSpace(s[i+len(op):]), 64)
	if err != nil {
		return nil, configErrorf("danger index", "threshold in %q: %v", s, err)
	}
	return &DangerIndexFilter{
		Index:     strings.TrimSpace(s[:i]),
		Operator:  op,
		Threshold: threshold,
	}, nil
}

func (f DangerIndexFilter) String() string {
	return fmt.Sprintf("%s%s%g", f.Index, f.Operator, f.Threshold)
}

func (f DangerIndexFilter) match(v float64) bool {
	switch f.Operator {
	case OpLessOrEqual:
		return v <= f.Threshold
	case OpGreaterOrEqual:
		return v >= f.Threshold
	default:
		return v == f.Threshold
	}
}

// FilterOptions selects the warnings and fires that take part in a run.
// Start and End are required; every other zero value means "no filter".
type FilterOptions struct {
	Start          domain.Date        `json:"start_date"`
	End            domain.Date        `json:"end_date"`
	Offices        []string           `json:"offices,omitempty"`
	Zones          []string           `json:"zones,omitempty"`
	Cause          domain.Cause       `json:"cause,omitempty"`
	Forested       string             `json:"forested,omitempty"`
	DangerIndex    *DangerIndexFilter `json:"danger_index,omitempty"`
	DurationHours  int                `json:"duration_hours,omitempty"`
	SizePercentile *int               `json:"size_percentile,omitempty"`
}

// Validate checks every option before any record is touched.
func (o FilterOptions) Validate() error {
	if o.Start.IsZero() || o.End.IsZero() {
		return configErrorf("date range", "start and end dates are required")
	}
	if o.Start.After(o.End) {
		return configErrorf("date range", "start %s is after end %s", o.Start, o.End)
	}
	switch o.Cause {
	case "", domain.CauseLightning, domain.CauseHuman:
	default:
		return configErrorf("cause", "%q is not lightning or human", o.Cause)
	}
	switch o.Forested {
	case "", "yes", "no":
	default:
		return configErrorf("forested", "%q is not yes or no", o.Forested)
	}
	if f := o.DangerIndex; f != nil {
		if !slices.Contains(domain.DangerIndexNames, f.Index) {
			return configErrorf("danger index", "unknown index %q", f.Index)
		}
		switch f.Operator {
		case OpLessOrEqual, OpEqual, "=", OpGreaterOrEqual:
		default:
			return configErrorf("danger index", "unsupported operator %q", f.Operator)
		}
	}
	if o.DurationHours != 0 {
		if _, ok := durationBuckets[o.DurationHours]; !ok {
			return configErrorf("duration", "%d is not one of 6, 12, 18, 24 hours", o.DurationHours)
		}
	}
	if p := o.SizePercentile; p != nil && (*p < 0 || *p > 100) {
		return configErrorf("size percentile", "%d is outside 0-100", *p)
	}
	return nil
}

// normalize folds the "=" spelling of the equality operator into "==".
func (o FilterOptions) normalize() FilterOptions {
	if o.DangerIndex != nil && o.DangerIndex.Operator == "=" {
		f := *o.DangerIndex
		f.Operator = OpEqual
		o.DangerIndex = &f
	}
	return o
}

// FilterResult is the reduced, deduplicated input to matching.
type FilterResult struct {
	WarningKeys KeySet
	EventKeys   KeySet

	// ZoneThresholds holds the per-zone size threshold when a size
	// percentile was requested.
	ZoneThresholds map[string]float64

	WarningsRetained int
	EventsRetained   int
}

// Filter applies opts to the records and reduces the survivors to unique
// occurrence keys.
//
// Fires are filtered by office, zone, cause, forest cover and danger index,
// then by size percentile, then by date range. The size percentile is
// computed per zone over fires that passed the category filters but have not
// yet been bounded by date, so thresholds reflect the full record for the
// requested category. Warnings are filtered by office, zone, duration and
// date range.
func Filter(records domain.Records, opts FilterOptions) (FilterResult, error) {
	if err := opts.Validate(); err != nil {
		return FilterResult{}, err
	}
	opts = opts.normalize()

	events := filterEvents(records.Events, opts)
	var thresholds map[string]float64
	if opts.SizePercentile != nil {
		thresholds = zoneSizeThresholds(events, float64(*opts.SizePercentile))
		events = keepEvents(events, func(e domain.EventRecord) bool {
			threshold, ok := thresholds[e.Zone]
			return ok && e.SizeAcres >= threshold
		})
	}
	events = keepEvents(events, func(e domain.EventRecord) bool {
		return inRange(e.DiscoveryDate, opts.Start, opts.End)
	})

	warnings := filterWarnings(records.Warnings, opts)

	res := FilterResult{
		WarningKeys:      make(KeySet, len(warnings)),
		EventKeys:        make(KeySet, len(events)),
		ZoneThresholds:   thresholds,
		WarningsRetained: len(warnings),
		EventsRetained:   len(events),
	}
	for _, w := range warnings {
		res.WarningKeys.Add(w.Key())
	}
	for _, e := range events {
		res.EventKeys.Add(e.Key())
	}
	return res, nil
}

func filterEvents(in []domain.EventRecord, opts FilterOptions) []domain.EventRecord {
	out := slices.Clone(in)
	if len(opts.Offices) > 0 {
		out = keepEvents(out, func(e domain.EventRecord) bool { return slices.Contains(opts.Offices, e.Office) })
	}
	if len(opts.Zones) > 0 {
		out = keepEvents(out, func(e domain.EventRecord) bool { return slices.Contains(opts.Zones, e.Zone) })
	}
	if opts.Cause != "" {
		out = keepEvents(out, func(e domain.EventRecord) bool { return e.Cause() == opts.Cause })
	}
	if opts.Forested != "" {
		want := opts.Forested == "yes"
		out = keepEvents(out, func(e domain.EventRecord) bool { return e.Forested == want })
	}
	if f := opts.DangerIndex; f != nil {
		out = keepEvents(out, func(e domain.EventRecord) bool {
			v, ok := e.DangerIndex(f.Index)
			return ok && f.match(v)
		})
	}
	return out
}

func filterWarnings(in []domain.WarningRecord, opts FilterOptions) []domain.WarningRecord {
	out := slices.Clone(in)
	if len(opts.Offices) > 0 {
		out = keepWarnings(out, func(w domain.WarningRecord) bool { return slices.Contains(opts.Offices, w.Office) })
	}
	if len(opts.Zones) > 0 {
		out = keepWarnings(out, func(w domain.WarningRecord) bool { return slices.Contains(opts.Zones, w.Zone) })
	}
	if opts.DurationHours != 0 {
		bucket := durationBuckets[opts.DurationHours]
		out = keepWarnings(out, func(w domain.WarningRecord) bool {
			h := w.Duration().Hours()
			return h > bucket[0] && h <= bucket[1]
		})
	}
	return keepWarnings(out, func(w domain.WarningRecord) bool {
		return inRange(w.FlatDate, opts.Start, opts.End)
	})
}

// zoneSizeThresholds computes the p-th percentile fire size of every zone
// present in events.
func zoneSizeThresholds(events []domain.EventRecord, p float64) map[string]float64 {
	sizes := make(map[string][]float64)
	for _, e := range events {
		sizes[e.Zone] = append(sizes[e.Zone], e.SizeAcres)
	}
	thresholds := make(map[string]float64, len(sizes))
	for zone, s := range sizes {
		thresholds[zone] = percentile(s, p)
	}
	return thresholds
}

func keepEvents(in []domain.EventRecord, keep func(domain.EventRecord) bool) []domain.EventRecord {
	return slices.DeleteFunc(in, func(e domain.EventRecord) bool { return !keep(e) })
}

func keepWarnings(in []domain.WarningRecord, keep func(domain.WarningRecord) bool) []domain.WarningRecord {
	return slices.DeleteFunc(in, func(w domain.WarningRecord) bool { return !keep(w) })
}

func inRange(d, start, end domain.Date) bool {
	return !d.Before(start) && !d.After(end)
}
