package verify

import "github.com/couchcryptid/rfw-verification/internal/domain"

// DefaultToleranceDays credits a warning for a fire on the same day or the
// day after.
const DefaultToleranceDays = 1

// ContingencyTable counts the outcomes of matching warnings against fires.
// Correct negatives are not tracked.
type ContingencyTable struct {
	Hits        int `json:"hits"`
	Misses      int `json:"misses"`
	FalseAlarms int `json:"false_alarms"`
}

// MatchResult is a contingency table plus the keys left unmatched on each side.
type MatchResult struct {
	Table             ContingencyTable
	Exact             int
	Lagged            int
	UnmatchedWarnings KeySet
	UnmatchedEvents   KeySet
}

// Matcher pairs warning keys with event keys in the same zone.
//
// A warning dated T is credited for a fire dated T+lag for lag in
// 0..ToleranceDays. Same-day matches are taken first over the whole set;
// each later lag only sees keys no earlier pass consumed, so every key
// contributes to at most one outcome and the nearest match wins.
type Matcher struct {
	ToleranceDays int
}

// NewMatcher returns a Matcher with the given tolerance window. A negative
// tolerance is rejected.
func NewMatcher(toleranceDays int) (Matcher, error) {
	if toleranceDays < 0 {
		return Matcher{}, configErrorf("match tolerance", "%d days is negative", toleranceDays)
	}
	return Matcher{ToleranceDays: toleranceDays}, nil
}

// Match computes hits, misses and false alarms. The inputs are not modified.
func (m Matcher) Match(warnings, events KeySet) MatchResult {
	w := warnings.Clone()
	e := events.Clone()

	res := MatchResult{}
	for lag := 0; lag <= m.ToleranceDays; lag++ {
		for k := range w {
			target := domain.OccurrenceKey{Date: k.Date.AddDays(lag), Zone: k.Zone}
			if !e.Contains(target) {
				continue
			}
			w.Remove(k)
			e.Remove(target)
			if lag == 0 {
				res.Exact++
			} else {
				res.Lagged++
			}
		}
	}

	res.Table = ContingencyTable{
		Hits:        res.Exact + res.Lagged,
		Misses:      e.Len(),
		FalseAlarms: w.Len(),
	}
	res.UnmatchedWarnings = w
	res.UnmatchedEvents = e
	return res
}
