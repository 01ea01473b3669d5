package brackets

import (
	"fmt"

	"github.com/tripbites/tournament-ranking/models"
)

// RoundProgress counts how far a voter has got through one round.
type RoundProgress struct {
	Round    int `json:"round"`
	Matches  int `json:"matches"`
	Resolved int `json:"resolved"`
	Byes     int `json:"byes"`
}

// State is a voter's position in a bracket: either awaiting a vote on
// Match in Round, or complete with a Champion.
type State struct {
	Round      int             `json:"round"`
	Match      *models.Match   `json:"current_match"`
	IsComplete bool            `json:"is_complete"`
	Champion   *string         `json:"champion,omitempty"`
	Progress   []RoundProgress `json:"progress"`
}

// ComputeCurrentState replays the bracket from the seeded order using the
// voter's votes in append order. It keeps no state between calls.
//
// The first match of the earliest unfinished round without a matching
// vote is current, byes included; a bye still resolves to EntryA when
// winners are collected. Votes whose pairing does not match the replayed
// match are ignored.
func ComputeCurrentState(t *models.Tournament, votes []models.Vote) (State, error) {
	st, _, err := replay(t, votes)
	return st, err
}

// AcceptedVotes returns the votes that resolve a match in the replay, in
// bracket order. A later vote for an already answered match and a vote
// whose pairing matches no replayed match are both dropped.
func AcceptedVotes(t *models.Tournament, votes []models.Vote) ([]models.Vote, error) {
	_, accepted, err := replay(t, votes)
	return accepted, err
}

func replay(t *models.Tournament, votes []models.Vote) (State, []models.Vote, error) {
	if t == nil {
		return State{}, nil, fmt.Errorf("nil tournament")
	}
	rounds, err := CalculateRounds(t.BracketSize)
	if err != nil {
		return State{}, nil, err
	}
	if t.TotalRounds != rounds {
		return State{}, nil, fmt.Errorf("tournament %s: total rounds %d does not match bracket size %d", t.ID, t.TotalRounds, t.BracketSize)
	}

	matches, err := GenerateRound1(t.SeededOrder, t.BracketSize)
	if err != nil {
		return State{}, nil, fmt.Errorf("tournament %s: %w", t.ID, err)
	}

	byRound := make(map[int][]models.Vote, rounds)
	for _, v := range votes {
		byRound[v.Round] = append(byRound[v.Round], v)
	}

	accepted := make([]models.Vote, 0, len(votes))
	progress := make([]RoundProgress, rounds)
	for i := range progress {
		progress[i] = RoundProgress{Round: i + 1, Matches: t.BracketSize >> (i + 1)}
	}

	for r := 1; r <= rounds; r++ {
		p := &progress[r-1]
		for _, m := range matches {
			if m.IsBye() {
				p.Byes++
			}
		}

		winners := make([]string, 0, len(matches))
		for i := range matches {
			m := matches[i]
			v := findAnswer(byRound[r], m)
			if v == nil {
				return State{Round: r, Match: &m, Progress: progress}, accepted, nil
			}
			p.Resolved++
			accepted = append(accepted, *v)
			if m.IsBye() {
				winners = append(winners, m.EntryA)
			} else {
				winners = append(winners, v.WinnerID)
			}
		}

		if r == rounds {
			champion := winners[0]
			return State{Round: rounds, IsComplete: true, Champion: &champion, Progress: progress}, accepted, nil
		}
		if matches, err = GenerateNextRound(r+1, winners); err != nil {
			return State{}, nil, fmt.Errorf("tournament %s: %w", t.ID, err)
		}
	}

	return State{Round: rounds, IsComplete: true, Progress: progress}, accepted, nil
}

func findAnswer(votes []models.Vote, m models.Match) *models.Vote {
	for i := range votes {
		if votes[i].Answers(m) {
			return &votes[i]
		}
	}
	return nil
}
