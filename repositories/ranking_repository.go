package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tripbites/tournament-ranking/models"
)

var ErrSnapshotNotFound = errors.New("ranking snapshot not found")

type RankingRepository interface {
	// ReplaceSnapshot deletes every stored ranking of the trip and inserts s
	// in the same transaction.
	ReplaceSnapshot(ctx context.Context, s *models.RankingSnapshot) error
	GetLatest(ctx context.Context, tripID string) (*models.RankingSnapshot, error)
}

type postgresRankingRepository struct {
	db *sql.DB
}

func NewPostgresRankingRepository(db *sql.DB) RankingRepository {
	return &postgresRankingRepository{db: db}
}

func (r *postgresRankingRepository) ReplaceSnapshot(ctx context.Context, s *models.RankingSnapshot) error {
	rankings, err := json.Marshal(s.Rankings)
	if err != nil {
		return fmt.Errorf("failed to encode rankings: %w", err)
	}
	weights, err := json.Marshal(s.Weights)
	if err != nil {
		return fmt.Errorf("failed to encode weights: %w", err)
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := deleteSnapshots(ctx, tx, s.TripID); err != nil {
			return err
		}
		query := `
			INSERT INTO ranking_snapshots (trip_id, rankings, weights, generated_at)
			VALUES ($1, $2, $3, $4)`
		result, err := tx.ExecContext(ctx, query, s.TripID, rankings, weights, s.GeneratedAt)
		if err != nil {
			return fmt.Errorf("failed to insert ranking snapshot for trip %s: %w", s.TripID, err)
		}
		return checkAffectedRows(result, fmt.Errorf("ranking snapshot for trip %s was not inserted", s.TripID))
	})
}

func deleteSnapshots(ctx context.Context, exec SQLExecutor, tripID string) error {
	if _, err := exec.ExecContext(ctx, `DELETE FROM ranking_snapshots WHERE trip_id = $1`, tripID); err != nil {
		return fmt.Errorf("failed to delete ranking snapshots for trip %s: %w", tripID, err)
	}
	return nil
}

func (r *postgresRankingRepository) GetLatest(ctx context.Context, tripID string) (*models.RankingSnapshot, error) {
	query := `
		SELECT trip_id, rankings, weights, generated_at
		FROM ranking_snapshots
		WHERE trip_id = $1
		ORDER BY generated_at DESC
		LIMIT 1`

	var (
		s                 models.RankingSnapshot
		rankings, weights []byte
	)
	err := r.db.QueryRowContext(ctx, query, tripID).Scan(&s.TripID, &rankings, &weights, &s.GeneratedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get ranking snapshot for trip %s: %w", tripID, err)
	}
	if err := json.Unmarshal(rankings, &s.Rankings); err != nil {
		return nil, fmt.Errorf("failed to decode rankings: %w", err)
	}
	if err := json.Unmarshal(weights, &s.Weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights: %w", err)
	}
	return &s, nil
}
