package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tripbites/tournament-ranking/models"
)

// EntryRepository is the entrant and review-text source.
type EntryRepository interface {
	ListByTrip(ctx context.Context, tripID string) ([]models.Entry, error)
	ListReviewsByTrip(ctx context.Context, tripID string) ([]models.Review, error)
}

type postgresEntryRepository struct {
	db *sql.DB
}

func NewPostgresEntryRepository(db *sql.DB) EntryRepository {
	return &postgresEntryRepository{db: db}
}

// ListByTrip returns the trip's entries with their rating aggregates, oldest
// entry first so that unscored entries seed in a stable order.
func (r *postgresEntryRepository) ListByTrip(ctx context.Context, tripID string) ([]models.Entry, error) {
	query := `
		SELECT e.id, e.trip_id, e.title, e.restaurant_name,
		       AVG(rt.score)::float8 AS avg_score, COUNT(rt.id) AS rating_count
		FROM entries e
		LEFT JOIN entry_ratings rt ON rt.entry_id = e.id
		WHERE e.trip_id = $1
		GROUP BY e.id
		ORDER BY e.created_at ASC, e.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries for trip %s: %w", tripID, err)
	}
	defer rows.Close()

	entries := make([]models.Entry, 0)
	for rows.Next() {
		var (
			e          models.Entry
			restaurant sql.NullString
			avg        sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.TripID, &e.Title, &restaurant, &avg, &e.RatingCount); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		if restaurant.Valid {
			e.RestaurantName = &restaurant.String
		}
		if avg.Valid {
			e.AvgScore = &avg.Float64
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during entry rows iteration: %w", err)
	}
	return entries, nil
}

func (r *postgresEntryRepository) ListReviewsByTrip(ctx context.Context, tripID string) ([]models.Review, error) {
	query := `
		SELECT rv.entry_id, rv.body
		FROM entry_reviews rv
		JOIN entries e ON e.id = rv.entry_id
		WHERE e.trip_id = $1 AND rv.body <> ''
		ORDER BY rv.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for trip %s: %w", tripID, err)
	}
	defer rows.Close()

	reviews := make([]models.Review, 0)
	for rows.Next() {
		var rv models.Review
		if err := rows.Scan(&rv.EntryID, &rv.Body); err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}
