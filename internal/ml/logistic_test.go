package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogisticScorerValidation(t *testing.T) {
	_, err := NewLogisticScorer("m", nil, 0, nil, nil)
	assert.Error(t, err)

	_, err = NewLogisticScorer("m", []float64{1, 2}, 0, []float64{0}, []float64{1})
	assert.Error(t, err)

	s, err := NewLogisticScorer("m", []float64{1, 2}, 0, []float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, "m", s.Name())
}

func TestScoreNeutralModel(t *testing.T) {
	s, err := NewLogisticScorer("neutral", []float64{0, 0}, 0, []float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)

	value, confidence, err := s.Score([]float64{5, -3})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, value, 1e-9)
	assert.InDelta(t, 0.5, confidence, 1e-9)
}

func TestScoreDirectionAndConfidence(t *testing.T) {
	s, err := NewLogisticScorer("up", []float64{1}, 0, []float64{0}, []float64{1})
	require.NoError(t, err)

	value, confidence, err := s.Score([]float64{3})
	require.NoError(t, err)
	assert.Greater(t, value, 0.5)
	// confidence rescales boundary distance to [0.5, 1]
	assert.InDelta(t, 0.5+(value-0.5), confidence, 1e-9)

	down, _, err := s.Score([]float64{-3})
	require.NoError(t, err)
	assert.Less(t, down, 0.5)
}

func TestScoreStandardizesFeatures(t *testing.T) {
	// mean 10, std 2: raw feature 10 standardizes to 0
	s, err := NewLogisticScorer("std", []float64{1}, 0, []float64{10}, []float64{2})
	require.NoError(t, err)

	value, _, err := s.Score([]float64{10})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, value, 1e-9)
}

func TestScoreDimensionMismatch(t *testing.T) {
	s, err := NewLogisticScorer("m", []float64{1, 2}, 0, []float64{0, 0}, []float64{1, 1})
	require.NoError(t, err)

	_, _, err = s.Score([]float64{1})
	assert.Error(t, err)
}

func TestStaticRegistry(t *testing.T) {
	s, err := NewLogisticScorer("m", []float64{1}, 0, []float64{0}, []float64{1})
	require.NoError(t, err)

	scorers, err := NewStaticRegistry(s).LoadEnsemble()
	require.NoError(t, err)
	require.Len(t, scorers, 1)
	assert.Equal(t, "m", scorers[0].Name())
}
