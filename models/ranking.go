package models

import "time"

// ScoreBreakdown holds the four 0..10 components behind a composite score.
type ScoreBreakdown struct {
	UserScore   float64 `json:"user_score"`
	Tournament  float64 `json:"tournament"`
	AIQuestions float64 `json:"ai_questions"`
	Sentiment   float64 `json:"sentiment"`
}

type RankingWeights struct {
	UserScore   float64 `json:"user_score"`
	Tournament  float64 `json:"tournament"`
	AIQuestions float64 `json:"ai_questions"`
	Sentiment   float64 `json:"sentiment"`
}

func (w RankingWeights) Sum() float64 {
	return w.UserScore + w.Tournament + w.AIQuestions + w.Sentiment
}

type RankingEntry struct {
	EntryID        string         `json:"entry_id"`
	Title          string         `json:"title"`
	RestaurantName *string        `json:"restaurant_name,omitempty"`
	Rank           int            `json:"rank"`
	CompositeScore float64        `json:"composite_score"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Comment        string         `json:"comment"`
}

// RankingSnapshot is the persisted result of one ranking run for a trip.
// A new snapshot replaces the previous one.
type RankingSnapshot struct {
	TripID      string         `json:"trip_id" db:"trip_id"`
	Rankings    []RankingEntry `json:"rankings" db:"rankings"`
	Weights     RankingWeights `json:"weights" db:"weights"`
	GeneratedAt time.Time      `json:"generated_at" db:"generated_at"`
}
