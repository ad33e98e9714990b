package verify

import "github.com/couchcryptid/rfw-verification/internal/domain"

// Summary describes the loaded records before any filtering.
type Summary struct {
	Warnings int `json:"warnings"`
	Events   int `json:"events"`

	EventsByCause    map[domain.Cause]int     `json:"events_by_cause"`
	EventsByForested map[string]int           `json:"events_by_forested"`
	EventsByOffice   map[string]int           `json:"events_by_office"`
	EventsByYear     map[int]int              `json:"events_by_year"`
	AcresByCause     map[domain.Cause]float64 `json:"acres_by_cause"`

	WarningsByOffice map[string]int `json:"warnings_by_office"`
	WarningsByYear   map[int]int    `json:"warnings_by_year"`

	// Lead time is only known for warnings carrying an initial issuance.
	WarningsWithLead int     `json:"warnings_with_lead"`
	MedianLeadHours  float64 `json:"median_lead_hours"`
}

// Summarize counts records by category.
func Summarize(records domain.Records) Summary {
	s := Summary{
		Warnings:         len(records.Warnings),
		Events:           len(records.Events),
		EventsByCause:    make(map[domain.Cause]int),
		EventsByForested: make(map[string]int),
		EventsByOffice:   make(map[string]int),
		EventsByYear:     make(map[int]int),
		AcresByCause:     make(map[domain.Cause]float64),
		WarningsByOffice: make(map[string]int),
		WarningsByYear:   make(map[int]int),
	}
	for _, e := range records.Events {
		c := e.Cause()
		s.EventsByCause[c]++
		s.EventsByForested[forestedLabel(e.Forested)]++
		s.EventsByOffice[e.Office]++
		s.EventsByYear[e.DiscoveryDate.Year]++
		s.AcresByCause[c] += e.SizeAcres
	}
	var leads []float64
	for _, w := range records.Warnings {
		s.WarningsByOffice[w.Office]++
		s.WarningsByYear[w.FlatDate.Year]++
		if !w.InitialIssued.IsZero() {
			leads = append(leads, w.LeadTime().Hours())
		}
	}
	if len(leads) > 0 {
		s.WarningsWithLead = len(leads)
		s.MedianLeadHours = median(leads)
	}
	return s
}

// forestedLabel matches the "yes"/"no" values of the forested filter.
func forestedLabel(forested bool) string {
	if forested {
		return "yes"
	}
	return "no"
}
