package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/rfw-verification/internal/domain"
	"github.com/couchcryptid/rfw-verification/internal/verify"
)

// Record sources and report sinks.
const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"

	SinkStdout = "stdout"
	SinkKafka  = "kafka"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	RecordSource string
	WarningsPath string
	FiresPath    string
	SQLitePath   string

	// Filter is the single configuration verified when no sweep file is set.
	Filter    verify.FilterOptions
	SweepFile string

	Engine verify.Config

	ReportSink       string
	KafkaBrokers     []string
	KafkaReportTopic string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	filter, err := parseFilter()
	if err != nil {
		return nil, err
	}

	engine, err := parseEngine()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RecordSource: sharedcfg.EnvOrDefault("RECORD_SOURCE", SourceJSON),
		WarningsPath: sharedcfg.EnvOrDefault("WARNINGS_PATH", "data/RFWs_Northwest.json"),
		FiresPath:    sharedcfg.EnvOrDefault("FIRES_PATH", "data/Fires_Northwest.json"),
		SQLitePath:   sharedcfg.EnvOrDefault("SQLITE_PATH", "data/rfw.db"),

		Filter:    filter,
		SweepFile: os.Getenv("SWEEP_FILE"),
		Engine:    engine,

		ReportSink:       sharedcfg.EnvOrDefault("REPORT_SINK", SinkStdout),
		KafkaBrokers:     sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaReportTopic: sharedcfg.EnvOrDefault("KAFKA_REPORT_TOPIC", "rfw-verification-reports"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	switch cfg.RecordSource {
	case SourceJSON, SourceSQLite:
	default:
		return nil, fmt.Errorf("invalid RECORD_SOURCE %q: must be json or sqlite", cfg.RecordSource)
	}
	switch cfg.ReportSink {
	case SinkStdout, SinkKafka:
	default:
		return nil, fmt.Errorf("invalid REPORT_SINK %q: must be stdout or kafka", cfg.ReportSink)
	}
	if cfg.ReportSink == SinkKafka {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaReportTopic == "" {
			return nil, errors.New("KAFKA_REPORT_TOPIC is required")
		}
	}

	return cfg, nil
}

func parseFilter() (verify.FilterOptions, error) {
	var opts verify.FilterOptions

	start, err := domain.ParseDate(sharedcfg.EnvOrDefault("START_DATE", "20060101"))
	if err != nil {
		return opts, errors.New("invalid START_DATE")
	}
	end, err := domain.ParseDate(sharedcfg.EnvOrDefault("END_DATE", "20151231"))
	if err != nil {
		return opts, errors.New("invalid END_DATE")
	}
	opts.Start, opts.End = start, end

	opts.Offices = parseList(os.Getenv("OFFICES"))
	opts.Zones = parseList(os.Getenv("ZONES"))
	opts.Cause = domain.Cause(strings.ToLower(os.Getenv("CAUSE")))
	opts.Forested = strings.ToLower(os.Getenv("FORESTED"))

	if s := os.Getenv("DANGER_INDEX"); s != "" {
		f, err := verify.ParseDangerIndexFilter(s)
		if err != nil {
			return opts, fmt.Errorf("invalid DANGER_INDEX: %w", err)
		}
		opts.DangerIndex = f
	}
	if s := os.Getenv("DURATION_HOURS"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, errors.New("invalid DURATION_HOURS")
		}
		opts.DurationHours = n
	}
	if s := os.Getenv("SIZE_PERCENTILE"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return opts, errors.New("invalid SIZE_PERCENTILE")
		}
		opts.SizePercentile = &n
	}

	if err := opts.Validate(); err != nil {
		return opts, fmt.Errorf("invalid filter: %w", err)
	}
	return opts, nil
}

func parseEngine() (verify.Config, error) {
	var cfg verify.Config
	var err error

	if cfg.ToleranceDays, err = parseInt("MATCH_TOLERANCE_DAYS", verify.DefaultToleranceDays, 0); err != nil {
		return cfg, err
	}
	if cfg.Climatology.Repetitions, err = parseInt("CLIMO_REPETITIONS", verify.DefaultRepetitions, 1); err != nil {
		return cfg, err
	}
	if cfg.Climatology.StartYear, err = parseInt("CLIMO_START_YEAR", verify.DefaultStartYear, 1); err != nil {
		return cfg, err
	}
	if cfg.Climatology.EndYear, err = parseInt("CLIMO_END_YEAR", verify.DefaultEndYear, 1); err != nil {
		return cfg, err
	}
	if cfg.Climatology.Workers, err = parseInt("CLIMO_WORKERS", 0, 0); err != nil {
		return cfg, err
	}
	if cfg.Climatology.StartYear > cfg.Climatology.EndYear {
		return cfg, errors.New("invalid CLIMO_START_YEAR: after CLIMO_END_YEAR")
	}

	if s := os.Getenv("CLIMO_SEED"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return cfg, errors.New("invalid CLIMO_SEED")
		}
		cfg.Climatology.Seed = seed
	}
	return cfg, nil
}

// parseInt reads an integer variable that must be at least minimum.
func parseInt(key string, fallback, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s: must be an integer >= %d", key, minimum)
	}
	return n, nil
}

// parseList splits a comma-separated list, trimming whitespace.
func parseList(s string) []string {
	var items []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
