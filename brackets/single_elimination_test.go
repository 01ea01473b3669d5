package brackets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripbites/tournament-ranking/models"
)

func ptr[T any](v T) *T { return &v }

func TestCalculateBracketSize(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{2, 4}, {3, 4}, {4, 4},
		{5, 8}, {8, 8},
		{9, 16}, {16, 16},
		{17, 32}, {32, 32},
		{33, 32}, {100, 32},
	}
	for _, tt := range tests {
		got, err := CalculateBracketSize(tt.count)
		require.NoError(t, err, "count %d", tt.count)
		assert.Equal(t, tt.want, got, "count %d", tt.count)
	}

	for _, n := range []int{-1, 0, 1} {
		_, err := CalculateBracketSize(n)
		assert.ErrorIs(t, err, ErrEntrantCountTooLow, "count %d", n)
	}
}

func TestCalculateRounds(t *testing.T) {
	for size, want := range map[int]int{4: 2, 8: 3, 16: 4, 32: 5} {
		got, err := CalculateRounds(size)
		require.NoError(t, err)
		assert.Equal(t, want, got, "size %d", size)
	}

	for _, size := range []int{0, 3, 12, 64} {
		_, err := CalculateRounds(size)
		assert.ErrorIs(t, err, ErrInvalidBracketSize, "size %d", size)
	}
}

func TestSeedEntries(t *testing.T) {
	entries := []models.Entry{
		{ID: "low", AvgScore: ptr(3.0)},
		{ID: "none1"},
		{ID: "high", AvgScore: ptr(9.5)},
		{ID: "none2"},
		{ID: "mid", AvgScore: ptr(6.0)},
		{ID: "mid2", AvgScore: ptr(6.0)},
	}

	seeded := SeedEntries(entries)
	assert.Equal(t, []string{"high", "mid", "mid2", "low", "none1", "none2"}, SeededIDs(seeded))
	assert.Equal(t, "low", entries[0].ID, "input must not be reordered")

	again := SeedEntries(entries)
	assert.Equal(t, SeededIDs(seeded), SeededIDs(again))
}

func TestGenerateRound1_FourEntries(t *testing.T) {
	matches, err := GenerateRound1([]string{"a", "b", "c", "d"}, 4)
	require.NoError(t, err)

	assert.Equal(t, []models.Match{
		{Round: 1, MatchOrder: 0, EntryA: "a", EntryB: ptr("d")},
		{Round: 1, MatchOrder: 1, EntryA: "b", EntryB: ptr("c")},
	}, matches)
}

func TestGenerateRound1_ByesGoToTopSeeds(t *testing.T) {
	matches, err := GenerateRound1([]string{"a", "b", "c", "d", "e"}, 8)
	require.NoError(t, err)
	require.Len(t, matches, 4)

	for i, id := range []string{"a", "b", "c"} {
		assert.Equal(t, id, matches[i].EntryA)
		assert.True(t, matches[i].IsBye(), "seed %s should draw a bye", id)
	}
	assert.Equal(t, "d", matches[3].EntryA)
	require.NotNil(t, matches[3].EntryB)
	assert.Equal(t, "e", *matches[3].EntryB)
}

func TestGenerateRound1_Coverage(t *testing.T) {
	for n := 2; n <= 40; n++ {
		ids := make([]string, n)
		for i := range ids {
			ids[i] = string(rune('A' + i))
		}
		size, err := CalculateBracketSize(n)
		require.NoError(t, err)

		matches, err := GenerateRound1(ids, size)
		require.NoError(t, err, "n=%d", n)
		assert.Len(t, matches, size/2)

		seen := map[string]int{}
		byes := 0
		for _, m := range matches {
			seen[m.EntryA]++
			if m.IsBye() {
				byes++
			} else {
				seen[*m.EntryB]++
			}
		}

		participating := min(n, MaxBracketSize)
		assert.Len(t, seen, participating, "n=%d", n)
		for id, c := range seen {
			assert.Equal(t, 1, c, "entry %s appears %d times (n=%d)", id, c, n)
		}
		assert.Equal(t, size-participating, byes, "n=%d", n)
	}
}

func TestGenerateRound1_Invalid(t *testing.T) {
	_, err := GenerateRound1([]string{"a"}, 4)
	assert.ErrorIs(t, err, ErrEntrantCountTooLow)

	_, err = GenerateRound1([]string{"a", "b"}, 6)
	assert.ErrorIs(t, err, ErrInvalidBracketSize)

	_, err = GenerateRound1([]string{"a", "b"}, 8)
	assert.Error(t, err, "two entries cannot fill the top half of an 8 bracket")
}

func TestGenerateNextRound(t *testing.T) {
	matches, err := GenerateNextRound(2, []string{"a", "b", "c", "d"})
	require.NoError(t, err)
	assert.Equal(t, []models.Match{
		{Round: 2, MatchOrder: 0, EntryA: "a", EntryB: ptr("b")},
		{Round: 2, MatchOrder: 1, EntryA: "c", EntryB: ptr("d")},
	}, matches)

	matches, err = GenerateNextRound(3, []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []models.Match{{Round: 3, MatchOrder: 0, EntryA: "x", EntryB: ptr("y")}}, matches)

	_, err = GenerateNextRound(2, []string{"x", "y", "z"})
	assert.ErrorIs(t, err, ErrOddWinnerCount)
	_, err = GenerateNextRound(2, nil)
	assert.ErrorIs(t, err, ErrOddWinnerCount)
}
