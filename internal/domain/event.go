package domain

import (
	"context"
	"strings"
	"time"
)

// Cause is the ignition cause category of a fire.
type Cause string

const (
	CauseLightning Cause = "lightning"
	CauseHuman     Cause = "human"
	CauseUnknown   Cause = "unknown"
)

// Danger index names carried on fire records, each a percentile (0-100)
// relative to the station's climatology.
const (
	IndexBurningIndex    = "BI_PERC"
	IndexEnergyRelease   = "ERC_PERC"
	IndexFuelMoisture100 = "FM100_PERC"
	IndexFuelMoisture1K  = "FM1000_PERC"
)

// DangerIndexNames lists the recognized danger index names.
var DangerIndexNames = []string{
	IndexBurningIndex,
	IndexEnergyRelease,
	IndexFuelMoisture100,
	IndexFuelMoisture1K,
}

// CauseFromCode maps a statistical cause code to its category:
// 1 is lightning, 2 through 12 are human causes, everything else
// (13 = missing/undetermined) is unknown.
func CauseFromCode(code int) Cause {
	switch {
	case code == 1:
		return CauseLightning
	case code >= 2 && code <= 12:
		return CauseHuman
	default:
		return CauseUnknown
	}
}

// EventRecord is an observed fire occurrence.
type EventRecord struct {
	ID            string             `json:"id,omitempty"`
	DiscoveryDate Date               `json:"discovery_date"`
	Zone          string             `json:"zone"`
	Office        string             `json:"office"`
	CauseCode     int                `json:"cause_code"`
	Forested      bool               `json:"forested"`
	SizeAcres     float64            `json:"size_acres"`
	DangerIndices map[string]float64 `json:"danger_indices,omitempty"`
}

// Cause returns the category derived from the record's cause code.
func (e EventRecord) Cause() Cause {
	return CauseFromCode(e.CauseCode)
}

// DangerIndex returns the named index value, if the record carries one.
func (e EventRecord) DangerIndex(name string) (float64, bool) {
	v, ok := e.DangerIndices[name]
	return v, ok
}

// Key reduces the record to its (date, zone) occurrence key.
func (e EventRecord) Key() OccurrenceKey {
	return OccurrenceKey{Date: e.DiscoveryDate, Zone: e.Zone}
}

// WarningRecord is an issued Red Flag Warning, already flattened to the
// single calendar day in FlatDate.
type WarningRecord struct {
	Office         string    `json:"office"`
	Zone           string    `json:"zone"`
	State          string    `json:"state,omitempty"`
	Status         string    `json:"status,omitempty"`
	Issued         time.Time `json:"issued"`
	Expired        time.Time `json:"expired"`
	InitialIssued  time.Time `json:"initial_issued"`
	InitialExpired time.Time `json:"initial_expired"`
	FlatDate       Date      `json:"flat_date"`
	Days           int       `json:"days"`
}

// Duration is the time between issuance and expiration.
func (w WarningRecord) Duration() time.Duration {
	return w.Expired.Sub(w.Issued)
}

// LeadTime is how long before this issuance the warning was first issued.
func (w WarningRecord) LeadTime() time.Duration {
	if w.InitialIssued.IsZero() {
		return 0
	}
	return w.Issued.Sub(w.InitialIssued)
}

// Key reduces the record to its (date, zone) occurrence key.
func (w WarningRecord) Key() OccurrenceKey {
	return OccurrenceKey{Date: w.FlatDate, Zone: w.Zone}
}

// OccurrenceKey is the spatio-temporal comparison unit shared by warnings
// and events.
type OccurrenceKey struct {
	Date Date   `json:"date"`
	Zone string `json:"zone"`
}

// Compare orders keys by date, then zone.
func (k OccurrenceKey) Compare(o OccurrenceKey) int {
	if c := k.Date.Compare(o.Date); c != 0 {
		return c
	}
	return strings.Compare(k.Zone, o.Zone)
}

func (k OccurrenceKey) String() string {
	return k.Date.String() + "/" + k.Zone
}

// Records is the raw input to a verification run.
type Records struct {
	Warnings []WarningRecord
	Events   []EventRecord
}

// RecordStore supplies warning and event records.
type RecordStore interface {
	LoadRecords(ctx context.Context) (Records, error)
}
