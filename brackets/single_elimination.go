package brackets

import (
	"errors"
	"fmt"
	"math/bits"
	"sort"

	"github.com/tripbites/tournament-ranking/models"
)

// MaxBracketSize caps participation; entries seeded below this line never
// enter round one.
const MaxBracketSize = 32

var (
	ErrEntrantCountTooLow = errors.New("a tournament needs at least 2 entries")
	ErrInvalidBracketSize = errors.New("bracket size must be a power of two between 2 and 32")
	ErrOddWinnerCount     = errors.New("cannot pair an odd number of winners")
)

var bracketSizes = []int{4, 8, 16, MaxBracketSize}

// CalculateBracketSize returns the smallest of 4, 8, 16, 32 that holds count
// entrants. Counts above 32 are capped.
func CalculateBracketSize(count int) (int, error) {
	if count < 2 {
		return 0, fmt.Errorf("%w (found %d)", ErrEntrantCountTooLow, count)
	}
	for _, size := range bracketSizes {
		if count <= size {
			return size, nil
		}
	}
	return MaxBracketSize, nil
}

// CalculateRounds returns log2(bracketSize).
func CalculateRounds(bracketSize int) (int, error) {
	if bracketSize < 2 || bracketSize > MaxBracketSize || bits.OnesCount(uint(bracketSize)) != 1 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidBracketSize, bracketSize)
	}
	return bits.TrailingZeros(uint(bracketSize)), nil
}

// SeedEntries orders entries by average score, highest first. Unscored
// entries go last; ties and unscored entries keep their input order.
func SeedEntries(entries []models.Entry) []models.Entry {
	seeded := make([]models.Entry, len(entries))
	copy(seeded, entries)

	sort.SliceStable(seeded, func(i, j int) bool {
		a, b := seeded[i].AvgScore, seeded[j].AvgScore
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a > *b
		}
	})
	return seeded
}

func SeededIDs(entries []models.Entry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}

// GenerateRound1 fills bracketSize slots from the front of seededIDs and
// pairs slot i with slot bracketSize-1-i. Empty slots sit at the back, so
// the top seeds are the ones drawing byes.
func GenerateRound1(seededIDs []string, bracketSize int) ([]models.Match, error) {
	if _, err := CalculateRounds(bracketSize); err != nil {
		return nil, err
	}
	if len(seededIDs) < 2 {
		return nil, fmt.Errorf("%w (found %d)", ErrEntrantCountTooLow, len(seededIDs))
	}

	slots := make([]*string, bracketSize)
	for i := 0; i < bracketSize && i < len(seededIDs); i++ {
		id := seededIDs[i]
		slots[i] = &id
	}

	half := bracketSize / 2
	matches := make([]models.Match, 0, half)
	for i := 0; i < half; i++ {
		top, bottom := slots[i], slots[bracketSize-1-i]
		if top == nil {
			return nil, fmt.Errorf("slot %d is empty: %d entries cannot fill a bracket of %d", i, len(seededIDs), bracketSize)
		}
		matches = append(matches, models.Match{
			Round:      1,
			MatchOrder: i,
			EntryA:     *top,
			EntryB:     bottom,
		})
	}
	return matches, nil
}

// GenerateNextRound pairs winners in order: 0 vs 1, 2 vs 3, and so on.
func GenerateNextRound(round int, winnerIDs []string) ([]models.Match, error) {
	if len(winnerIDs) == 0 || len(winnerIDs)%2 != 0 {
		return nil, fmt.Errorf("%w: round %d has %d", ErrOddWinnerCount, round, len(winnerIDs))
	}

	matches := make([]models.Match, 0, len(winnerIDs)/2)
	for i := 0; i < len(winnerIDs); i += 2 {
		b := winnerIDs[i+1]
		matches = append(matches, models.Match{
			Round:      round,
			MatchOrder: i / 2,
			EntryA:     winnerIDs[i],
			EntryB:     &b,
		})
	}
	return matches, nil
}
