package verify

import "fmt"

// ConfigurationError reports an invalid or contradictory filter or engine
// option. Nothing is computed when it is returned.
type ConfigurationError struct {
	Option string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Option, e.Reason)
}

func configErrorf(option, format string, args ...any) error {
	return &ConfigurationError{Option: option, Reason: fmt.Sprintf(format, args...)}
}

// DegenerateInputError reports a contingency ratio whose denominator is zero,
// e.g. POD when no events are in scope. The run is indeterminate.
type DegenerateInputError struct {
	Ratio string
	Table ContingencyTable
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("%s undefined for hits=%d misses=%d false_alarms=%d",
		e.Ratio, e.Table.Hits, e.Table.Misses, e.Table.FalseAlarms)
}

// DegenerateReferenceError reports a skill score whose reference equals the
// perfect value, leaving the transform with a zero denominator.
type DegenerateReferenceError struct {
	Score     string
	Reference float64
}

func (e *DegenerateReferenceError) Error() string {
	return fmt.Sprintf("%s undefined: reference %g leaves no room for improvement", e.Score, e.Reference)
}
