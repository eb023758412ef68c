package types

// mainlyThreshold is the confidence boundary used by IsMainlyAffirmative.
const mainlyThreshold = 0.50

// Prediction is the confidence pair produced by one model run.
type Prediction struct {
	// Confidence that the image matches the challenge.
	// example: 0.93
	AffirmativeConfidence float32 `json:"affirmative_confidence" example:"0.93"`
	// Confidence that the image does not match the challenge.
	// example: 0.07
	NegativeConfidence float32 `json:"negative_confidence" example:"0.07"`
}

// IsMainlyAffirmative reports whether the affirmative score reaches the
// threshold while the negative score stays below it.
func (p Prediction) IsMainlyAffirmative() bool {
	return p.AffirmativeConfidence >= mainlyThreshold && p.NegativeConfidence < mainlyThreshold
}
