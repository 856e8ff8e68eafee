// Package fit estimates per-observation log-likelihoods by Inverse
// Binomial Sampling over a parallel worker pool and drives the outer
// optimizer over the model's free parameters.
package fit

// SuccessFrequencyTracker accumulates the IBS state of one observation:
// sampling continues until RequiredSuccessCount sampled moves have matched
// the observed one, and every failed attempt k within a round contributes
// ExptFactor / (R * k) to L. Once done, no further trials modify it.
type SuccessFrequencyTracker struct {
	AttemptCount         int
	SuccessCount         int
	RequiredSuccessCount int
	L                    float64
	ExptFactor           float64
}

// NewSuccessFrequencyTracker starts a tracker on its first attempt with a
// required count of one.
func NewSuccessFrequencyTracker(exptFactor float64) *SuccessFrequencyTracker {
	return &SuccessFrequencyTracker{
		AttemptCount:         1,
		RequiredSuccessCount: 1,
		ExptFactor:           exptFactor,
	}
}

// IsDone reports whether the required successes have been recorded.
func (t *SuccessFrequencyTracker) IsDone() bool {
	return t.SuccessCount == t.RequiredSuccessCount
}

// ReportSuccess records one trial outcome. Failures accrue loss and bump
// the attempt count; a success advances the round and resets the attempt
// count unless the tracker just finished.
func (t *SuccessFrequencyTracker) ReportSuccess(success bool) {
	if success {
		t.SuccessCount++
		if !t.IsDone() {
			t.AttemptCount = 1
		}
		return
	}
	t.L += t.ExptFactor / float64(t.RequiredSuccessCount*t.AttemptCount)
	t.AttemptCount++
}

// Clone returns an independent deep copy.
func (t *SuccessFrequencyTracker) Clone() *SuccessFrequencyTracker {
	c := *t
	return &c
}
