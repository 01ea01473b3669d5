package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tripbites/tournament-ranking/models"
)

type TripRepository interface {
	IsMember(ctx context.Context, tripID, userID string) (bool, error)
	// ListRankable returns public trips with at least minEntries entries.
	ListRankable(ctx context.Context, minEntries int) ([]models.Trip, error)
}

type postgresTripRepository struct {
	db *sql.DB
}

func NewPostgresTripRepository(db *sql.DB) TripRepository {
	return &postgresTripRepository{db: db}
}

func (r *postgresTripRepository) IsMember(ctx context.Context, tripID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM trip_members WHERE trip_id = $1 AND user_id = $2)`
	var ok bool
	if err := r.db.QueryRowContext(ctx, query, tripID, userID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check membership of %s in trip %s: %w", userID, tripID, err)
	}
	return ok, nil
}

func (r *postgresTripRepository) ListRankable(ctx context.Context, minEntries int) ([]models.Trip, error) {
	query := `
		SELECT t.id, t.name, t.is_public
		FROM trips t
		JOIN entries e ON e.trip_id = t.id
		WHERE t.is_public
		GROUP BY t.id
		HAVING COUNT(e.id) >= $1
		ORDER BY t.id`

	rows, err := r.db.QueryContext(ctx, query, minEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to list rankable trips: %w", err)
	}
	defer rows.Close()

	trips := make([]models.Trip, 0)
	for rows.Next() {
		var t models.Trip
		if err := rows.Scan(&t.ID, &t.Name, &t.IsPublic); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, t)
	}
	return trips, rows.Err()
}
