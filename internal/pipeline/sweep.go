package pipeline

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/rfw-verification/internal/domain"
	"github.com/couchcryptid/rfw-verification/internal/verify"
)

// Sweep is one labelled configuration of a sweep.
type Sweep struct {
	Label   string
	Options verify.FilterOptions

	// Err is set when the entry could not be turned into options. The
	// configuration is reported as invalid without being run.
	Err error
}

type sweepFile struct {
	Configurations []sweepEntry `yaml:"configurations"`
}

type sweepEntry struct {
	Label          string      `yaml:"label"`
	Start          domain.Date `yaml:"start_date"`
	End            domain.Date `yaml:"end_date"`
	Offices        []string    `yaml:"offices"`
	Zones          []string    `yaml:"zones"`
	Cause          string      `yaml:"cause"`
	Forested       string      `yaml:"forested"`
	DangerIndex    string      `yaml:"danger_index"`
	DurationHours  int         `yaml:"duration_hours"`
	SizePercentile *int        `yaml:"size_percentile"`
}

// LoadSweep reads a YAML sweep file:
//
//	configurations:
//	  - label: lightning-forested
//	    start_date: "20060101"
//	    end_date: "20151231"
//	    cause: lightning
//	    forested: "yes"
//	    danger_index: ERC_PERC>=90
//
// Entries without a label are named by position. Labels must be unique.
func LoadSweep(path string) ([]Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sweep file: %w", err)
	}
	return ParseSweep(data)
}

// ParseSweep decodes the YAML form read by LoadSweep.
func ParseSweep(data []byte) ([]Sweep, error) {
	var file sweepFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sweep file: %w", err)
	}
	if len(file.Configurations) == 0 {
		return nil, errors.New("parse sweep file: no configurations")
	}

	seen := make(map[string]bool, len(file.Configurations))
	out := make([]Sweep, len(file.Configurations))
	for i, e := range file.Configurations {
		label := e.Label
		if label == "" {
			label = "config-" + strconv.Itoa(i+1)
		}
		if seen[label] {
			return nil, fmt.Errorf("parse sweep file: duplicate label %q", label)
		}
		seen[label] = true
		out[i] = e.sweep(label)
	}
	return out, nil
}

func (e sweepEntry) sweep(label string) Sweep {
	s := Sweep{
		Label: label,
		Options: verify.FilterOptions{
			Start:          e.Start,
			End:            e.End,
			Offices:        e.Offices,
			Zones:          e.Zones,
			Cause:          domain.Cause(e.Cause),
			Forested:       e.Forested,
			DurationHours:  e.DurationHours,
			SizePercentile: e.SizePercentile,
		},
	}
	if e.DangerIndex != "" {
		s.Options.DangerIndex, s.Err = verify.ParseDangerIndexFilter(e.DangerIndex)
	}
	return s
}
