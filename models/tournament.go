package models

import "time"

// TournamentStatus mirrors the tournament_status column.
type TournamentStatus string

const (
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
	StatusCanceled  TournamentStatus = "canceled"
)

// Tournament is one bracket over a trip's entries. Every voter plays an
// independent copy of the same seeding; nothing here changes after creation.
type Tournament struct {
	ID           string           `json:"id" db:"id"`
	TripID       string           `json:"trip_id" db:"trip_id"`
	CreatedBy    string           `json:"created_by" db:"created_by"`
	Status       TournamentStatus `json:"status" db:"status"`
	TotalRounds  int              `json:"total_rounds" db:"total_rounds"`
	TotalEntries int              `json:"total_entries" db:"total_entries"`
	BracketSize  int              `json:"bracket_size" db:"bracket_size"`
	SeededOrder  []string         `json:"seeded_order" db:"seeded_order"`
	CreatedAt    time.Time        `json:"created_at" db:"created_at"`
}

// EntrantResult is one entry's cross-user win tally.
type EntrantResult struct {
	EntryID string `json:"entry_id"`
	Wins    int    `json:"wins"`
}
