package verify

import "errors"

// SkillScores normalize the forecast ratios against the climatology medians.
// A nil score is undefined for this run.
type SkillScores struct {
	BiasSS *float64 `json:"bias_ss"`
	PODSS  *float64 `json:"pod_ss"`
	FARSS  *float64 `json:"far_ss"`
	SRSS   *float64 `json:"sr_ss"`
	CSISS  *float64 `json:"csi_ss"`

	// ETS is the equitable threat score computed from the forecast counts
	// and the median climatology hits.
	ETS *float64 `json:"ets"`
}

// Score computes every skill score as (forecast - reference) / (perfect -
// reference), where perfect is 0 for FAR and 1 otherwise. Each score with a
// zero denominator is left nil and reported as a *DegenerateReferenceError;
// the errors are joined so the defined scores are still usable.
func Score(forecast Statistics, table ContingencyTable, climo ClimatologySummary) (SkillScores, error) {
	var errs []error
	score := func(name string, f, r, perfect float64) *float64 {
		v, err := skillScore(name, f, r, perfect)
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		return &v
	}

	ref := climo.Median
	s := SkillScores{
		BiasSS: score("bias_ss", forecast.Bias, ref.Bias, 1),
		PODSS:  score("pod_ss", forecast.POD, ref.POD, 1),
		FARSS:  score("far_ss", forecast.FAR, ref.FAR, 0),
		SRSS:   score("sr_ss", forecast.SR, ref.SR, 1),
		CSISS:  score("csi_ss", forecast.CSI, ref.CSI, 1),
	}

	ets, err := equitableThreatScore(table, climo.MedianHits)
	if err != nil {
		errs = append(errs, err)
	} else {
		s.ETS = &ets
	}

	return s, errors.Join(errs...)
}

func skillScore(name string, forecast, reference, perfect float64) (float64, error) {
	if perfect == reference {
		return 0, &DegenerateReferenceError{Score: name, Reference: reference}
	}
	return (forecast - reference) / (perfect - reference), nil
}

// equitableThreatScore is (H - Hr) / (H + M + F - Hr) where Hr is the
// reference hit count.
func equitableThreatScore(t ContingencyTable, refHits float64) (float64, error) {
	den := float64(t.Hits+t.Misses+t.FalseAlarms) - refHits
	if den == 0 {
		return 0, &DegenerateReferenceError{Score: "ets", Reference: refHits}
	}
	return (float64(t.Hits) - refHits) / den, nil
}
