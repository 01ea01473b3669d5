package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/tripbites/tournament-ranking/models"
)

// ErrDuplicateVote means the voter already has a vote for that match.
var ErrDuplicateVote = errors.New("a vote for this match already exists")

// VoteRepository is the append-only vote log. Rows are never updated or
// deleted; seq preserves insertion order.
type VoteRepository interface {
	Append(ctx context.Context, v *models.Vote) error
	ListByVoter(ctx context.Context, tournamentID, voterID string) ([]models.Vote, error)
	ListByTournaments(ctx context.Context, tournamentIDs []string) ([]models.Vote, error)
}

type postgresVoteRepository struct {
	db *sql.DB
}

func NewPostgresVoteRepository(db *sql.DB) VoteRepository {
	return &postgresVoteRepository{db: db}
}

const voteColumns = `id, tournament_id, voter_id, is_bye, round, match_order, entry_a, entry_b, winner_id, created_at`

func (r *postgresVoteRepository) Append(ctx context.Context, v *models.Vote) error {
	query := `
		INSERT INTO votes (
			id, tournament_id, voter_id, is_bye, round, match_order, entry_a, entry_b, winner_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		v.ID, v.TournamentID, v.VoterID, v.IsBye(), v.Round, v.MatchOrder, v.EntryA, v.EntryB, v.WinnerID,
	).Scan(&v.CreatedAt)
	if err != nil {
		if code, constraint, ok := pqCode(err); ok {
			switch {
			case code == pqForeignKeyViolation && constraint == "votes_tournament_id_fkey":
				return ErrTournamentNotFound
			case code == pqUniqueViolation && constraint == "votes_one_per_match":
				return fmt.Errorf("%w: round %d match %d", ErrDuplicateVote, v.Round, v.MatchOrder)
			}
		}
		return fmt.Errorf("failed to append vote to tournament %s: %w", v.TournamentID, err)
	}
	return nil
}

func (r *postgresVoteRepository) ListByVoter(ctx context.Context, tournamentID, voterID string) ([]models.Vote, error) {
	query := `SELECT ` + voteColumns + ` FROM votes WHERE tournament_id = $1 AND voter_id = $2 ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, voterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes of %s in tournament %s: %w", voterID, tournamentID, err)
	}
	return scanVotes(rows)
}

func (r *postgresVoteRepository) ListByTournaments(ctx context.Context, tournamentIDs []string) ([]models.Vote, error) {
	if len(tournamentIDs) == 0 {
		return []models.Vote{}, nil
	}
	query := `SELECT ` + voteColumns + ` FROM votes WHERE tournament_id = ANY($1) ORDER BY seq ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(tournamentIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list votes for %d tournaments: %w", len(tournamentIDs), err)
	}
	return scanVotes(rows)
}

func scanVotes(rows *sql.Rows) ([]models.Vote, error) {
	defer rows.Close()

	votes := make([]models.Vote, 0)
	for rows.Next() {
		var (
			v     models.Vote
			isBye bool
			b     sql.NullString
		)
		if err := rows.Scan(
			&v.ID, &v.TournamentID, &v.VoterID, &isBye, &v.Round, &v.MatchOrder, &v.EntryA, &b, &v.WinnerID, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		v.Kind = models.VoteDecided
		if isBye {
			v.Kind = models.VoteBye
		}
		if b.Valid {
			v.EntryB = &b.String
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during vote rows iteration: %w", err)
	}
	return votes, nil
}
