package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

// Config holds the engine settings shared by every run of a sweep.
type Config struct {
	ToleranceDays int
	Climatology   ClimatologyConfig
}

// Verifier runs the full verification of one set of filter options:
// filter, match, score the forecast, build the climatology, then score skill.
type Verifier struct {
	matcher Matcher
	climo   *ClimatologyGenerator
	logger  *slog.Logger
}

// NewVerifier validates cfg and builds the matcher and climatology generator.
func NewVerifier(cfg Config, logger *slog.Logger) (*Verifier, error) {
	matcher, err := NewMatcher(cfg.ToleranceDays)
	if err != nil {
		return nil, err
	}
	climo, err := NewClimatologyGenerator(cfg.Climatology, matcher)
	if err != nil {
		return nil, err
	}
	return &Verifier{matcher: matcher, climo: climo, logger: logger}, nil
}

// Forecast is the real warnings' contingency table and ratios.
type Forecast struct {
	Table      ContingencyTable `json:"table"`
	Exact      int              `json:"exact_matches"`
	Lagged     int              `json:"lagged_matches"`
	Statistics Statistics       `json:"statistics"`
}

// Result is the outcome of one verification run.
type Result struct {
	RunID       string        `json:"run_id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Options     FilterOptions `json:"options"`

	WarningsRetained int                `json:"warnings_retained"`
	EventsRetained   int                `json:"events_retained"`
	WarningKeys      int                `json:"warning_keys"`
	EventKeys        int                `json:"event_keys"`
	ZoneThresholds   map[string]float64 `json:"zone_thresholds,omitempty"`

	Forecast    Forecast           `json:"forecast"`
	Climatology ClimatologySummary `json:"climatology"`
	Skill       SkillScores        `json:"skill"`
}

// Run verifies the records selected by opts.
//
// A *ConfigurationError or *DegenerateInputError returns a nil result. A
// *DegenerateReferenceError returns the result with the affected skill
// scores left undefined.
func (v *Verifier) Run(ctx context.Context, records domain.Records, opts FilterOptions) (*Result, error) {
	filtered, err := Filter(records, opts)
	if err != nil {
		return nil, err
	}

	m := v.matcher.Match(filtered.WarningKeys, filtered.EventKeys)
	stats, err := m.Table.Statistics()
	if err != nil {
		return nil, fmt.Errorf("forecast: %w", err)
	}

	res := &Result{
		RunID:            uuid.NewString(),
		GeneratedAt:      domain.Now().UTC(),
		Options:          opts,
		WarningsRetained: filtered.WarningsRetained,
		EventsRetained:   filtered.EventsRetained,
		WarningKeys:      filtered.WarningKeys.Len(),
		EventKeys:        filtered.EventKeys.Len(),
		ZoneThresholds:   filtered.ZoneThresholds,
		Forecast: Forecast{
			Table:      m.Table,
			Exact:      m.Exact,
			Lagged:     m.Lagged,
			Statistics: stats,
		},
	}

	v.logger.Debug("forecast matched",
		"run_id", res.RunID,
		"hits", m.Table.Hits,
		"misses", m.Table.Misses,
		"false_alarms", m.Table.FalseAlarms,
	)

	res.Climatology, err = v.climo.Generate(ctx, filtered.WarningKeys, filtered.EventKeys, stats.POD)
	if err != nil {
		return nil, fmt.Errorf("climatology: %w", err)
	}

	res.Skill, err = Score(stats, m.Table, res.Climatology)
	if err != nil {
		v.logger.Warn("skill scores undefined", "run_id", res.RunID, "error", err)
		return res, err
	}
	return res, nil
}

// Report statuses.
const (
	StatusOK            = "ok"
	StatusInvalid       = "invalid"
	StatusIndeterminate = "indeterminate"
)

// Report is the published outcome of one labelled configuration, including
// configurations that failed.
type Report struct {
	Label   string        `json:"label"`
	Options FilterOptions `json:"options"`
	Status  string        `json:"status"`
	Error   string        `json:"error,omitempty"`
	Result  *Result       `json:"result,omitempty"`
}

// NewReport classifies the outcome of Run. Configuration errors are invalid;
// degenerate inputs and references are indeterminate. Any other error is
// returned unchanged since it is not a property of the configuration.
func NewReport(label string, opts FilterOptions, res *Result, err error) (Report, error) {
	r := Report{Label: label, Options: opts, Status: StatusOK, Result: res}
	if err == nil {
		return r, nil
	}

	var cfgErr *ConfigurationError
	var inputErr *DegenerateInputError
	var refErr *DegenerateReferenceError
	switch {
	case errors.As(err, &cfgErr):
		r.Status = StatusInvalid
	case errors.As(err, &inputErr), errors.As(err, &refErr):
		r.Status = StatusIndeterminate
	default:
		return Report{}, err
	}
	r.Error = err.Error()
	return r, nil
}
