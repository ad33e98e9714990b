package verify

import (
	"context"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

const (
	DefaultRepetitions = 100
	DefaultStartYear   = 2006
	DefaultEndYear     = 2015

	// maxShiftDays bounds the random date offset; zero is never drawn so a
	// reference warning never lands on the real warning's date.
	maxShiftDays = 15
)

// RandomSource is the part of *rand.Rand the generator draws from.
type RandomSource interface {
	IntN(n int) int
}

// ClimatologyConfig controls the randomized reference forecast.
type ClimatologyConfig struct {
	Repetitions int
	StartYear   int
	EndYear     int

	// Seed fixes every repetition's random draws. Zero picks a random seed;
	// the seed actually used is reported in the summary.
	Seed uint64

	// Workers bounds how many repetitions run at once. Zero uses GOMAXPROCS.
	Workers int
}

// ClimatologyGenerator builds a no-skill reference by resampling the real
// warning dates into random days and years and matching the result against
// the real fires.
type ClimatologyGenerator struct {
	cfg       ClimatologyConfig
	matcher   Matcher
	leapYears []int
	newSource func(seed uint64, rep int) RandomSource
}

// NewClimatologyGenerator validates cfg and fills in defaults.
func NewClimatologyGenerator(cfg ClimatologyConfig, matcher Matcher) (*ClimatologyGenerator, error) {
	if cfg.Repetitions == 0 {
		cfg.Repetitions = DefaultRepetitions
	}
	if cfg.StartYear == 0 && cfg.EndYear == 0 {
		cfg.StartYear, cfg.EndYear = DefaultStartYear, DefaultEndYear
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Repetitions < 0 {
		return nil, configErrorf("climatology repetitions", "%d is negative", cfg.Repetitions)
	}
	if cfg.StartYear > cfg.EndYear {
		return nil, configErrorf("climatology years", "start %d is after end %d", cfg.StartYear, cfg.EndYear)
	}
	if cfg.Workers < 0 {
		return nil, configErrorf("climatology workers", "%d is negative", cfg.Workers)
	}

	var leap []int
	for y := cfg.StartYear; y <= cfg.EndYear; y++ {
		if domain.IsLeapYear(y) {
			leap = append(leap, y)
		}
	}

	return &ClimatologyGenerator{
		cfg:       cfg,
		matcher:   matcher,
		leapYears: leap,
		newSource: pcgSource,
	}, nil
}

func pcgSource(seed uint64, rep int) RandomSource {
	return rand.New(rand.NewPCG(seed, uint64(rep)))
}

// ClimatologySample is one resampled reference forecast.
type ClimatologySample struct {
	Table      ContingencyTable
	Statistics Statistics
}

// ClimatologySummary aggregates every sample of one generation.
type ClimatologySummary struct {
	Repetitions int    `json:"repetitions"`
	Seed        uint64 `json:"seed"`
	StartYear   int    `json:"start_year"`
	EndYear     int    `json:"end_year"`

	// Median holds the median of each ratio across samples.
	Median Statistics `json:"median"`

	MedianHits        float64 `json:"median_hits"`
	MedianMisses      float64 `json:"median_misses"`
	MedianFalseAlarms float64 `json:"median_false_alarms"`

	// Outperformed counts the samples whose POD the forecast beats, i.e.
	// (forecast POD - sample POD) / (1 - sample POD) > 0.
	Outperformed int `json:"outperformed"`
}

// Generate runs the configured number of repetitions against the real
// warning and event keys. forecastPOD is the real forecast's POD, used for
// the outperformance count.
func (g *ClimatologyGenerator) Generate(ctx context.Context, warnings, events KeySet, forecastPOD float64) (ClimatologySummary, error) {
	seed := g.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	// Draw order must not depend on map iteration for seeded runs to repeat.
	ordered := warnings.Sorted()
	samples := make([]ClimatologySample, g.cfg.Repetitions)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.Workers)
	for i := range samples {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			s, err := g.run(ordered, events, g.newSource(seed, i))
			if err != nil {
				return fmt.Errorf("climatology repetition %d: %w", i, err)
			}
			samples[i] = s
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return ClimatologySummary{}, err
	}

	return summarize(samples, forecastPOD, seed, g.cfg), nil
}

func (g *ClimatologyGenerator) run(warnings []domain.OccurrenceKey, events KeySet, rng RandomSource) (ClimatologySample, error) {
	shifted, err := g.Sample(warnings, rng)
	if err != nil {
		return ClimatologySample{}, err
	}
	m := g.matcher.Match(shifted, events)
	stats, err := m.Table.Statistics()
	if err != nil {
		return ClimatologySample{}, err
	}
	return ClimatologySample{Table: m.Table, Statistics: stats}, nil
}

// Sample resamples each warning key: the date moves by a random non-zero
// offset in [-15, 15] days and then into a random year of the configured
// span. A shifted Feb 29 is only placed in a leap year. Keys that collide
// after resampling collapse into one.
func (g *ClimatologyGenerator) Sample(warnings []domain.OccurrenceKey, rng RandomSource) (KeySet, error) {
	out := make(KeySet, len(warnings))
	span := g.cfg.EndYear - g.cfg.StartYear + 1
	for _, k := range warnings {
		d := k.Date.AddDays(drawOffset(rng))
		year := g.cfg.StartYear + rng.IntN(span)
		if d.IsLeapDay() && !domain.IsLeapYear(year) {
			if len(g.leapYears) == 0 {
				return nil, configErrorf("climatology years", "%d-%d has no leap year to place %s", g.cfg.StartYear, g.cfg.EndYear, k)
			}
			year = g.leapYears[rng.IntN(len(g.leapYears))]
		}
		out.Add(domain.OccurrenceKey{Date: d.WithYear(year), Zone: k.Zone})
	}
	return out, nil
}

// drawOffset returns a uniform day offset from {-15..-1, 1..15}.
func drawOffset(rng RandomSource) int {
	n := rng.IntN(2*maxShiftDays) - maxShiftDays
	if n >= 0 {
		n++
	}
	return n
}

func summarize(samples []ClimatologySample, forecastPOD float64, seed uint64, cfg ClimatologyConfig) ClimatologySummary {
	medianOf := func(field func(ClimatologySample) float64) float64 {
		v := make([]float64, len(samples))
		for i, s := range samples {
			v[i] = field(s)
		}
		return median(v)
	}

	outperformed := 0
	for _, s := range samples {
		// A sample with POD 1 cannot be outperformed.
		if s.Statistics.POD < 1 && (forecastPOD-s.Statistics.POD)/(1-s.Statistics.POD) > 0 {
			outperformed++
		}
	}

	return ClimatologySummary{
		Repetitions: len(samples),
		Seed:        seed,
		StartYear:   cfg.StartYear,
		EndYear:     cfg.EndYear,
		Median: Statistics{
			Bias: medianOf(func(s ClimatologySample) float64 { return s.Statistics.Bias }),
			POD:  medianOf(func(s ClimatologySample) float64 { return s.Statistics.POD }),
			FAR:  medianOf(func(s ClimatologySample) float64 { return s.Statistics.FAR }),
			SR:   medianOf(func(s ClimatologySample) float64 { return s.Statistics.SR }),
			CSI:  medianOf(func(s ClimatologySample) float64 { return s.Statistics.CSI }),
		},
		MedianHits:        medianOf(func(s ClimatologySample) float64 { return float64(s.Table.Hits) }),
		MedianMisses:      medianOf(func(s ClimatologySample) float64 { return float64(s.Table.Misses) }),
		MedianFalseAlarms: medianOf(func(s ClimatologySample) float64 { return float64(s.Table.FalseAlarms) }),
		Outperformed:      outperformed,
	}
}
