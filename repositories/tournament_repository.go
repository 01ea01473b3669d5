package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/tripbites/tournament-ranking/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrActiveTournamentExists = errors.New("an active tournament already exists for this trip")
	ErrTournamentInvalidTrip  = errors.New("invalid trip reference")
)

const activeTournamentIndex = "tournaments_one_active_per_trip"

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id string) (*models.Tournament, error)
	// GetActiveByTrip returns the most recent active tournament of a trip.
	GetActiveByTrip(ctx context.Context, tripID string) (*models.Tournament, error)
	ListByTrip(ctx context.Context, tripID string) ([]models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `id, trip_id, created_by, status, total_rounds, total_entries, bracket_size, seeded_order, created_at`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			id, trip_id, created_by, status, total_rounds, total_entries, bracket_size, seeded_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		t.ID, t.TripID, t.CreatedBy, t.Status, t.TotalRounds, t.TotalEntries, t.BracketSize, pq.Array(t.SeededOrder),
	).Scan(&t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id string) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresTournamentRepository) GetActiveByTrip(ctx context.Context, tripID string) (*models.Tournament, error) {
	query := `
		SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE trip_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tripID, models.StatusActive))
}

func (r *postgresTournamentRepository) ListByTrip(ctx context.Context, tripID string) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE trip_id = $1 ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments for trip %s: %w", tripID, err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(
			&t.ID, &t.TripID, &t.CreatedBy, &t.Status, &t.TotalRounds, &t.TotalEntries,
			&t.BracketSize, pq.Array(&t.SeededOrder), &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tournament: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) scanOne(row *sql.Row) (*models.Tournament, error) {
	t := &models.Tournament{}
	err := row.Scan(
		&t.ID, &t.TripID, &t.CreatedBy, &t.Status, &t.TotalRounds, &t.TotalEntries,
		&t.BracketSize, pq.Array(&t.SeededOrder), &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	code, constraint, ok := pqCode(err)
	if !ok {
		return err
	}
	switch code {
	case pqUniqueViolation:
		if constraint == activeTournamentIndex {
			return ErrActiveTournamentExists
		}
	case pqForeignKeyViolation:
		if constraint == "tournaments_trip_id_fkey" {
			return ErrTournamentInvalidTrip
		}
	}
	return err
}
