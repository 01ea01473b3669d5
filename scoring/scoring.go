// Package scoring blends user ratings, tournament results, AI follow-up
// answers and sentiment into one 0..10 composite score.
package scoring

import (
	"math"

	"github.com/tripbites/tournament-ranking/models"
)

// NeutralAIAverage is used in place of an answer mean when an entry has no
// numeric AI answers. It is on the 1..5 answer scale.
const NeutralAIAverage = 5.0

// NeutralSentiment is the sentiment score used when analysis is unavailable.
const NeutralSentiment = 5.0

// DefaultWeights sum to 1.
var DefaultWeights = models.RankingWeights{
	UserScore:   0.40,
	Tournament:  0.25,
	AIQuestions: 0.20,
	Sentiment:   0.15,
}

// NormalizeWinRate maps wins onto 0..10 relative to the best performer.
func NormalizeWinRate(wins, maxWins int) float64 {
	if maxWins == 0 {
		return 0
	}
	return float64(wins) / float64(maxWins) * 10
}

// NormalizeAIResponseAvg maps a 1..5 answer mean onto 0..10. Zero stays zero;
// callers with no answers should pass NeutralAIAverage instead.
func NormalizeAIResponseAvg(avg float64) float64 {
	if avg == 0 {
		return 0
	}
	return avg * 2
}

// ComputeCompositeScore is the weighted sum of b rounded to one decimal,
// halves away from zero. Weights are not normalized.
func ComputeCompositeScore(b models.ScoreBreakdown, w models.RankingWeights) float64 {
	sum := b.UserScore*w.UserScore +
		b.Tournament*w.Tournament +
		b.AIQuestions*w.AIQuestions +
		b.Sentiment*w.Sentiment
	return RoundTenth(sum)
}

func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// Mean returns the arithmetic mean of values and false when there are none.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values)), true
}

// Clamp bounds v to 0..10.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return NeutralSentiment
	case v < 0:
		return 0
	case v > 10:
		return 10
	default:
		return v
	}
}
