package ml

// Scorer scores a feature vector. Value is a probability-like score in
// [0, 1] where above 0.5 reads bullish; Confidence is the scorer's own
// estimate of how much to trust the value.
type Scorer interface {
	Score(features []float64) (value, confidence float64, err error)
	Name() string
}

// ModelRegistry provides the scoring ensemble. Model training and
// persistence live outside the engine; the registry only needs to hand
// back ready-to-use scorers.
type ModelRegistry interface {
	LoadEnsemble() ([]Scorer, error)
}

// StaticRegistry is a ModelRegistry over a fixed set of scorers
type StaticRegistry struct {
	scorers []Scorer
}

// NewStaticRegistry creates a registry that always returns the given scorers
func NewStaticRegistry(scorers ...Scorer) *StaticRegistry {
	return &StaticRegistry{scorers: scorers}
}

// LoadEnsemble returns the configured scorers
func (r *StaticRegistry) LoadEnsemble() ([]Scorer, error) {
	return r.scorers, nil
}
