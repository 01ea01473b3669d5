package models

// Match is one pairing within a round. EntryB is nil for a bye.
type Match struct {
	Round      int     `json:"round"`
	MatchOrder int     `json:"match_order"`
	EntryA     string  `json:"entry_a"`
	EntryB     *string `json:"entry_b,omitempty"`
}

func (m Match) IsBye() bool {
	return m.EntryB == nil
}

// Has reports whether id is one of the match's entrants.
func (m Match) Has(id string) bool {
	if id == m.EntryA {
		return true
	}
	return m.EntryB != nil && *m.EntryB == id
}
