package verify

// Statistics are the categorical verification ratios of one contingency table.
type Statistics struct {
	Bias float64 `json:"bias"`
	POD  float64 `json:"pod"`
	FAR  float64 `json:"far"`
	SR   float64 `json:"sr"`
	CSI  float64 `json:"csi"`
}

// Bias is (hits + false alarms) / (hits + misses): warned days per fire day.
func (t ContingencyTable) Bias() (float64, error) {
	return t.ratio("bias", t.Hits+t.FalseAlarms, t.Hits+t.Misses)
}

// POD is the probability of detection, hits / (hits + misses).
func (t ContingencyTable) POD() (float64, error) {
	return t.ratio("pod", t.Hits, t.Hits+t.Misses)
}

// FAR is the false alarm ratio, false alarms / (hits + false alarms).
func (t ContingencyTable) FAR() (float64, error) {
	return t.ratio("far", t.FalseAlarms, t.Hits+t.FalseAlarms)
}

// SR is the success ratio, hits / (hits + false alarms), i.e. 1 - FAR.
func (t ContingencyTable) SR() (float64, error) {
	return t.ratio("sr", t.Hits, t.Hits+t.FalseAlarms)
}

// CSI is the critical success index (threat score),
// hits / (hits + misses + false alarms).
func (t ContingencyTable) CSI() (float64, error) {
	return t.ratio("csi", t.Hits, t.Hits+t.Misses+t.FalseAlarms)
}

// Statistics computes every ratio, failing with a *DegenerateInputError on
// the first zero denominator.
func (t ContingencyTable) Statistics() (Statistics, error) {
	var s Statistics
	var err error
	if s.Bias, err = t.Bias(); err != nil {
		return Statistics{}, err
	}
	if s.POD, err = t.POD(); err != nil {
		return Statistics{}, err
	}
	if s.FAR, err = t.FAR(); err != nil {
		return Statistics{}, err
	}
	if s.SR, err = t.SR(); err != nil {
		return Statistics{}, err
	}
	if s.CSI, err = t.CSI(); err != nil {
		return Statistics{}, err
	}
	return s, nil
}

func (t ContingencyTable) ratio(name string, num, den int) (float64, error) {
	if den == 0 {
		return 0, &DegenerateInputError{Ratio: name, Table: t}
	}
	return float64(num) / float64(den), nil
}
