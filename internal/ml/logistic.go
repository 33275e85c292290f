package ml

import (
	"errors"
	"fmt"
	"math"
)

// LogisticScorer is a standardized logistic model over the feature
// vector. It is the default ensemble member; registries backed by
// externally trained artifacts can replace it without touching the
// generator.
type LogisticScorer struct {
	name    string
	weights []float64
	bias    float64
	means   []float64
	stds    []float64
}

// NewLogisticScorer creates a scorer from model parameters. Means and
// stds standardize incoming features before applying the weights.
func NewLogisticScorer(name string, weights []float64, bias float64, means, stds []float64) (*LogisticScorer, error) {
	if len(weights) == 0 {
		return nil, errors.New("empty weight vector")
	}
	if len(means) != len(weights) || len(stds) != len(weights) {
		return nil, errors.New("means and stds must match weight vector length")
	}
	return &LogisticScorer{
		name:    name,
		weights: weights,
		bias:    bias,
		means:   means,
		stds:    stds,
	}, nil
}

// Name returns the scorer name
func (s *LogisticScorer) Name() string {
	return s.name
}

// Score computes the logistic probability for the feature vector. The
// confidence is the distance of the probability from the 0.5 decision
// boundary, rescaled to [0.5, 1].
func (s *LogisticScorer) Score(features []float64) (float64, float64, error) {
	if len(features) != len(s.weights) {
		return 0, 0, fmt.Errorf("feature vector length %d does not match model dimension %d",
			len(features), len(s.weights))
	}

	z := s.bias
	for i, f := range features {
		std := s.stds[i]
		if std == 0 {
			std = 1
		}
		z += s.weights[i] * (f - s.means[i]) / std
	}

	value := sigmoid(z)
	confidence := 0.5 + math.Abs(value-0.5)
	return value, confidence, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
