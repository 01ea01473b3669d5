package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tripbites/tournament-ranking/models"
)

func TestNormalizeWinRate(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeWinRate(0, 0))
	assert.Equal(t, 0.0, NormalizeWinRate(3, 0))
	assert.Equal(t, 10.0, NormalizeWinRate(7, 7))
	assert.Equal(t, 5.0, NormalizeWinRate(5, 10))
	assert.Equal(t, 0.0, NormalizeWinRate(0, 4))
}

func TestNormalizeAIResponseAvg(t *testing.T) {
	assert.Equal(t, 0.0, NormalizeAIResponseAvg(0))
	assert.Equal(t, 2.0, NormalizeAIResponseAvg(1))
	assert.Equal(t, 10.0, NormalizeAIResponseAvg(5))
	assert.Equal(t, 10.0, NormalizeAIResponseAvg(NeutralAIAverage))
	assert.Equal(t, 7.0, NormalizeAIResponseAvg(3.5))
}

func TestComputeCompositeScore(t *testing.T) {
	tests := []struct {
		name string
		in   models.ScoreBreakdown
		want float64
	}{
		{"all ten", models.ScoreBreakdown{UserScore: 10, Tournament: 10, AIQuestions: 10, Sentiment: 10}, 10},
		{"mixed", models.ScoreBreakdown{UserScore: 8, Tournament: 6, AIQuestions: 4, Sentiment: 10}, 7.0},
		{"all zero", models.ScoreBreakdown{}, 0},
		{"user only", models.ScoreBreakdown{UserScore: 5}, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ComputeCompositeScore(tt.in, DefaultWeights))
		})
	}
}

func TestComputeCompositeScore_WeightsNotNormalized(t *testing.T) {
	w := models.RankingWeights{UserScore: 1, Tournament: 1, AIQuestions: 1, Sentiment: 1}
	got := ComputeCompositeScore(models.ScoreBreakdown{UserScore: 10, Tournament: 10, AIQuestions: 10, Sentiment: 10}, w)
	assert.Equal(t, 40.0, got)
}

func TestDefaultWeightsSumToOne(t *testing.T) {
	assert.InDelta(t, 1.0, DefaultWeights.Sum(), 1e-9)
}

func TestRoundTenth(t *testing.T) {
	assert.Equal(t, 0.3, RoundTenth(0.25))
	assert.Equal(t, -0.3, RoundTenth(-0.25))
	assert.Equal(t, 1.2, RoundTenth(1.234))
}

func TestMeanAndClamp(t *testing.T) {
	_, ok := Mean(nil)
	assert.False(t, ok)

	m, ok := Mean([]float64{1, 2, 3, 4})
	assert.True(t, ok)
	assert.Equal(t, 2.5, m)

	assert.Equal(t, 0.0, Clamp(-3))
	assert.Equal(t, 10.0, Clamp(11))
	assert.Equal(t, 6.5, Clamp(6.5))
	assert.Equal(t, NeutralSentiment, Clamp(math.NaN()))
}
