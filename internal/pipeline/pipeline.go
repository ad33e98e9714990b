package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"

	"github.com/couchcryptid/rfw-verification/internal/domain"
	"github.com/couchcryptid/rfw-verification/internal/observability"
	"github.com/couchcryptid/rfw-verification/internal/verify"
)

// Runner verifies one configuration against loaded records.
type Runner interface {
	Run(ctx context.Context, records domain.Records, opts verify.FilterOptions) (*verify.Result, error)
}

// ReportLoader writes a sweep's reports to the destination.
type ReportLoader interface {
	LoadBatch(ctx context.Context, reports []verify.Report) error
}

const (
	initialBackoff     = 200 * time.Millisecond
	maxBackoff         = 5 * time.Second
	maxPublishAttempts = 5
)

// Pipeline loads records once and verifies every configuration of a sweep
// against them.
type Pipeline struct {
	store   domain.RecordStore
	runner  Runner
	loader  ReportLoader
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool

	mu     sync.RWMutex
	latest []verify.Report
}

// New creates a Pipeline with the given stages and observability.
func New(store domain.RecordStore, runner Runner, loader ReportLoader, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		store:   store,
		runner:  runner,
		loader:  loader,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once records have been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("records have not been loaded yet")
	}
	return nil
}

// LatestReports returns the reports of the last completed sweep.
func (p *Pipeline) LatestReports() []verify.Report {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Run verifies each configuration and publishes one report per configuration.
// Invalid and indeterminate configurations are reported, not returned as
// errors. An error is returned only when records cannot be loaded, a run
// fails for a reason outside its configuration, or publishing gives up.
func (p *Pipeline) Run(ctx context.Context, sweep []Sweep) ([]verify.Report, error) {
	p.logger.Info("pipeline started", "configurations", len(sweep))
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	records, err := p.store.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	p.metrics.RecordsLoaded.WithLabelValues("warnings").Set(float64(len(records.Warnings)))
	p.metrics.RecordsLoaded.WithLabelValues("events").Set(float64(len(records.Events)))
	p.ready.Store(true)

	if p.logger.Enabled(ctx, slog.LevelDebug) {
		s := verify.Summarize(records)
		p.logger.Debug("records loaded",
			"warnings", s.Warnings,
			"events", s.Events,
			"events_by_cause", s.EventsByCause,
			"events_by_forested", s.EventsByForested,
			"events_by_office", s.EventsByOffice,
			"events_by_year", s.EventsByYear,
			"acres_by_cause", s.AcresByCause,
			"warnings_by_office", s.WarningsByOffice,
			"warnings_by_year", s.WarningsByYear,
			"warnings_with_lead", s.WarningsWithLead,
			"median_lead_hours", s.MedianLeadHours,
		)
	}

	reports := make([]verify.Report, 0, len(sweep))
	for _, cfg := range sweep {
		report, err := p.verify(ctx, records, cfg)
		if err != nil {
			return nil, fmt.Errorf("configuration %q: %w", cfg.Label, err)
		}
		reports = append(reports, report)
	}

	p.mu.Lock()
	p.latest = reports
	p.mu.Unlock()

	if err := p.publish(ctx, reports); err != nil {
		return reports, err
	}
	p.logger.Info("pipeline finished", "reports", len(reports))
	return reports, nil
}

func (p *Pipeline) verify(ctx context.Context, records domain.Records, cfg Sweep) (verify.Report, error) {
	start := time.Now()

	var res *verify.Result
	err := cfg.Err
	if err == nil {
		res, err = p.runner.Run(ctx, records, cfg.Options)
	}
	report, err := verify.NewReport(cfg.Label, cfg.Options, res, err)
	if err != nil {
		return verify.Report{}, err
	}

	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.metrics.VerificationRuns.WithLabelValues(report.Status).Inc()
	if res != nil {
		p.metrics.ClimatologyRepetitions.Add(float64(res.Climatology.Repetitions))
	}

	attrs := []any{"label", cfg.Label, "status", report.Status}
	if res != nil {
		attrs = append(attrs,
			"run_id", res.RunID,
			"hits", res.Forecast.Table.Hits,
			"misses", res.Forecast.Table.Misses,
			"false_alarms", res.Forecast.Table.FalseAlarms,
		)
	}
	if report.Error != "" {
		attrs = append(attrs, "error", report.Error)
		p.logger.Warn("configuration not verified", attrs...)
	} else {
		p.logger.Info("configuration verified", attrs...)
	}
	return report, nil
}

// publish writes the reports, retrying with exponential backoff.
func (p *Pipeline) publish(ctx context.Context, reports []verify.Report) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxPublishAttempts; attempt++ {
		if err = p.loader.LoadBatch(ctx, reports); err == nil {
			p.metrics.ReportsPublished.Add(float64(len(reports)))
			return nil
		}
		p.metrics.PublishErrors.Inc()
		p.logger.Error("publish reports failed", "error", err, "attempt", attempt, "reports", len(reports))

		if attempt == maxPublishAttempts || !retry.SleepWithContext(ctx, backoff) {
			break
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("publish reports: %w", err)
}
