package domain

import (
	"slices"
	"time"
)

const (
	// PhenomenonFireWeather and SignificanceWarning identify a Red Flag
	// Warning among NWS valid time event codes (FW.W).
	PhenomenonFireWeather = "FW"
	SignificanceWarning   = "W"
)

// NorthwestOffices are the forecast offices covered by the default dataset.
var NorthwestOffices = []string{"MSO", "PIH", "BOI", "SEW", "MFR", "PQR", "PDT", "OTX"}

// WarningProduct is a warning as exported from the product archive, before
// reduction and flattening.
type WarningProduct struct {
	Office         string
	Phenomenon     string
	Significance   string
	Zone           string
	State          string
	Status         string
	Issued         time.Time
	Expired        time.Time
	InitialIssued  time.Time
	InitialExpired time.Time
}

// ReduceProducts keeps Red Flag Warnings issued by one of offices. An empty
// office list keeps every office.
func ReduceProducts(products []WarningProduct, offices []string) []WarningProduct {
	out := make([]WarningProduct, 0, len(products))
	for _, p := range products {
		if p.Phenomenon != PhenomenonFireWeather || p.Significance != SignificanceWarning {
			continue
		}
		if len(offices) > 0 && !slices.Contains(offices, p.Office) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FlattenWarning expands a warning product into one record per calendar day
// it is in effect. A warning that expires no later than the first midnight
// after issuance belongs to its issuance date only; otherwise every date from
// the issuance date through the expiration date is covered.
func FlattenWarning(p WarningProduct) []WarningRecord {
	issuedOn := DateOf(p.Issued)
	nextMidnight := issuedOn.AddDays(1).Time()

	if !p.Expired.After(nextMidnight) {
		return []WarningRecord{p.record(issuedOn, 1)}
	}

	expiredOn := DateOf(p.Expired)
	var days []Date
	for d := issuedOn; !d.After(expiredOn); d = d.AddDays(1) {
		days = append(days, d)
	}

	out := make([]WarningRecord, 0, len(days))
	for _, d := range days {
		out = append(out, p.record(d, len(days)))
	}
	return out
}

// FlattenAll flattens every product, preserving input order.
func FlattenAll(products []WarningProduct) []WarningRecord {
	var out []WarningRecord
	for _, p := range products {
		out = append(out, FlattenWarning(p)...)
	}
	return out
}

func (p WarningProduct) record(on Date, days int) WarningRecord {
	return WarningRecord{
		Office:         p.Office,
		Zone:           p.Zone,
		State:          p.State,
		Status:         p.Status,
		Issued:         p.Issued,
		Expired:        p.Expired,
		InitialIssued:  p.InitialIssued,
		InitialExpired: p.InitialExpired,
		FlatDate:       on,
		Days:           days,
	}
}
