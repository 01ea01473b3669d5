package models

import "time"

type VoteKind string

const (
	VoteDecided VoteKind = "decided"
	VoteBye     VoteKind = "bye"
)

// Vote is one user's append-only decision for one match. A bye vote has
// Kind VoteBye, no EntryB, and WinnerID equal to EntryA.
type Vote struct {
	ID           string    `json:"id" db:"id"`
	TournamentID string    `json:"tournament_id" db:"tournament_id"`
	VoterID      string    `json:"voter_id" db:"voter_id"`
	Kind         VoteKind  `json:"kind" db:"kind"`
	Round        int       `json:"round" db:"round"`
	MatchOrder   int       `json:"match_order" db:"match_order"`
	EntryA       string    `json:"entry_a" db:"entry_a"`
	EntryB       *string   `json:"entry_b,omitempty" db:"entry_b"`
	WinnerID     string    `json:"winner_id" db:"winner_id"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (v Vote) IsBye() bool {
	return v.Kind == VoteBye
}

// Answers reports whether v is a structurally valid record for m.
func (v Vote) Answers(m Match) bool {
	if v.Round != m.Round || v.MatchOrder != m.MatchOrder || v.EntryA != m.EntryA {
		return false
	}
	if m.IsBye() {
		return v.IsBye() && v.WinnerID == m.EntryA
	}
	if v.IsBye() || v.EntryB == nil || *v.EntryB != *m.EntryB {
		return false
	}
	return m.Has(v.WinnerID)
}
