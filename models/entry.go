package models

// Entry is a logged food experience competing within a trip.
type Entry struct {
	ID             string   `json:"id" db:"id"`
	TripID         string   `json:"trip_id" db:"trip_id"`
	Title          string   `json:"title" db:"title"`
	RestaurantName *string  `json:"restaurant_name,omitempty" db:"restaurant_name"`
	AvgScore       *float64 `json:"avg_score,omitempty" db:"avg_score"` // 0..10, nil when unrated
	RatingCount    int      `json:"rating_count" db:"rating_count"`
}

// AIAnswer is one response to an AI follow-up question about an entry.
type AIAnswer struct {
	EntryID      string   `json:"entry_id" db:"entry_id"`
	QuestionID   string   `json:"question_id" db:"question_id"`
	Question     string   `json:"question" db:"question"`
	NumericValue *float64 `json:"numeric_value,omitempty" db:"numeric_value"` // 1..5
	TextValue    *string  `json:"text_value,omitempty" db:"text_value"`
}

type Review struct {
	EntryID string `json:"entry_id" db:"entry_id"`
	Body    string `json:"body" db:"body"`
}

// Trip is the ranking context.
type Trip struct {
	ID       string `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	IsPublic bool   `json:"is_public" db:"is_public"`
}
