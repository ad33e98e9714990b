package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/rfw-verification/internal/domain"
)

// flexString accepts a JSON string or number. The exports are inconsistent
// about quoting dates and cause codes.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("want string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// warningJSON is a warning in the flattened export format. FLAT_DATE is
// absent in the reduced, not yet flattened, format.
type warningJSON struct {
	ObjectID    *int       `json:"OBJECTID,omitempty"`
	Office      string     `json:"WFO"`
	Zone        string     `json:"NWS_UGC"`
	State       string     `json:"STATE"`
	Status      string     `json:"STATUS"`
	Issued      flexString `json:"ISSUED"`
	Expired     flexString `json:"EXPIRED"`
	InitIssued  flexString `json:"INIT_ISS"`
	InitExpired flexString `json:"INIT_EXP"`
	FlatDate    flexString `json:"FLAT_DATE,omitempty"`
	Days        string     `json:"RFW_DAYS,omitempty"`
}

// productJSON is one feature of the raw warning archive export.
type productJSON struct {
	Attributes struct {
		Office       string     `json:"WFO"`
		Phenomenon   string     `json:"PHENOM"`
		Significance string     `json:"SIG"`
		Zone         string     `json:"NWS_UGC"`
		State        string     `json:"calc_state"`
		Status       string     `json:"STATUS"`
		Issued       flexString `json:"ISSUED"`
		Expired      flexString `json:"EXPIRED"`
		InitIssued   flexString `json:"INIT_ISS"`
		InitExpired  flexString `json:"INIT_EXP"`
	} `json:"attributes"`
}

type archiveJSON struct {
	Features []productJSON `json:"features"`
}

type fireJSON struct {
	ObjectID  flexString `json:"OBJECTID"`
	DiscDate  flexString `json:"DISC_DATE"`
	Zone      string     `json:"UGC_ZONE"`
	Office    string     `json:"WFO"`
	Cause     flexString `json:"STAT_CAUSE"`
	Forested  string     `json:"FORESTED"`
	SizeAcres float64    `json:"SIZE_AC"`
	BI        *float64   `json:"BI_PERC"`
	ERC       *float64   `json:"ERC_PERC"`
	FM100     *float64   `json:"FM100_PERC"`
	FM1000    *float64   `json:"FM1000_PERC"`
}

type timestamps struct {
	issued, expired, initIssued, initExpired time.Time
}

func parseTimestamps(issued, expired, initIssued, initExpired flexString) (timestamps, error) {
	var ts timestamps
	var err error
	if ts.issued, err = domain.ParseTimestamp(string(issued)); err != nil {
		return ts, fmt.Errorf("ISSUED: %w", err)
	}
	if ts.expired, err = domain.ParseTimestamp(string(expired)); err != nil {
		return ts, fmt.Errorf("EXPIRED: %w", err)
	}
	if ts.initIssued, err = optionalTimestamp(initIssued); err != nil {
		return ts, fmt.Errorf("INIT_ISS: %w", err)
	}
	if ts.initExpired, err = optionalTimestamp(initExpired); err != nil {
		return ts, fmt.Errorf("INIT_EXP: %w", err)
	}
	return ts, nil
}

func optionalTimestamp(s flexString) (time.Time, error) {
	if strings.TrimSpace(string(s)) == "" {
		return time.Time{}, nil
	}
	return domain.ParseTimestamp(string(s))
}

func (w warningJSON) product() (domain.WarningProduct, error) {
	ts, err := parseTimestamps(w.Issued, w.Expired, w.InitIssued, w.InitExpired)
	if err != nil {
		return domain.WarningProduct{}, err
	}
	return domain.WarningProduct{
		Office:         w.Office,
		Phenomenon:     domain.PhenomenonFireWeather,
		Significance:   domain.SignificanceWarning,
		Zone:           w.Zone,
		State:          w.State,
		Status:         w.Status,
		Issued:         ts.issued,
		Expired:        ts.expired,
		InitialIssued:  ts.initIssued,
		InitialExpired: ts.initExpired,
	}, nil
}

// records converts one JSON warning into flattened records. A warning
// without FLAT_DATE is flattened here.
func (w warningJSON) records() ([]domain.WarningRecord, error) {
	p, err := w.product()
	if err != nil {
		return nil, err
	}
	if w.FlatDate == "" {
		return domain.FlattenWarning(p), nil
	}
	flat, err := domain.ParseDate(string(w.FlatDate))
	if err != nil {
		return nil, fmt.Errorf("FLAT_DATE: %w", err)
	}
	return []domain.WarningRecord{{
		Office:         p.Office,
		Zone:           p.Zone,
		State:          p.State,
		Status:         p.Status,
		Issued:         p.Issued,
		Expired:        p.Expired,
		InitialIssued:  p.InitialIssued,
		InitialExpired: p.InitialExpired,
		FlatDate:       flat,
		Days:           parseDays(w.Days),
	}}, nil
}

func fromRecord(id int, r domain.WarningRecord) warningJSON {
	return warningJSON{
		ObjectID:    &id,
		Office:      r.Office,
		Zone:        r.Zone,
		State:       r.State,
		Status:      r.Status,
		Issued:      flexString(domain.FormatTimestamp(r.Issued)),
		Expired:     flexString(domain.FormatTimestamp(r.Expired)),
		InitIssued:  flexString(domain.FormatTimestamp(r.InitialIssued)),
		InitExpired: flexString(domain.FormatTimestamp(r.InitialExpired)),
		FlatDate:    flexString(r.FlatDate.String()),
		Days:        formatDays(r.Days),
	}
}

// parseDays reads the leading count of "1 day" / "3 days"; anything else is 1.
func parseDays(s string) int {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 1
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func formatDays(n int) string {
	if n <= 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}

func (p productJSON) product() (domain.WarningProduct, error) {
	a := p.Attributes
	ts, err := parseTimestamps(a.Issued, a.Expired, a.InitIssued, a.InitExpired)
	if err != nil {
		return domain.WarningProduct{}, err
	}
	return domain.WarningProduct{
		Office:         a.Office,
		Phenomenon:     a.Phenomenon,
		Significance:   a.Significance,
		Zone:           a.Zone,
		State:          a.State,
		Status:         a.Status,
		Issued:         ts.issued,
		Expired:        ts.expired,
		InitialIssued:  ts.initIssued,
		InitialExpired: ts.initExpired,
	}, nil
}

func (f fireJSON) record() (domain.EventRecord, error) {
	disc, err := domain.ParseDate(string(f.DiscDate))
	if err != nil {
		return domain.EventRecord{}, fmt.Errorf("DISC_DATE: %w", err)
	}
	cause := 0
	if s := strings.TrimSpace(string(f.Cause)); s != "" {
		// Codes are sometimes exported as floats ("1.0").
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return domain.EventRecord{}, fmt.Errorf("STAT_CAUSE %q: %w", s, err)
		}
		cause = int(v)
	}

	indices := make(map[string]float64, 4)
	put := func(name string, v *float64) {
		if v != nil {
			indices[name] = *v
		}
	}
	put(domain.IndexBurningIndex, f.BI)
	put(domain.IndexEnergyRelease, f.ERC)
	put(domain.IndexFuelMoisture100, f.FM100)
	put(domain.IndexFuelMoisture1K, f.FM1000)

	return domain.EventRecord{
		ID:            string(f.ObjectID),
		DiscoveryDate: disc,
		Zone:          f.Zone,
		Office:        f.Office,
		CauseCode:     cause,
		Forested:      strings.EqualFold(strings.TrimSpace(f.Forested), "yes"),
		SizeAcres:     f.SizeAcres,
		DangerIndices: indices,
	}, nil
}
