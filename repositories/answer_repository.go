package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/tripbites/tournament-ranking/models"
)

type AnswerRepository interface {
	// ListByTrip returns every AI follow-up answer of the trip joined to
	// the entry that owns its question.
	ListByTrip(ctx context.Context, tripID string) ([]models.AIAnswer, error)
}

type postgresAnswerRepository struct {
	db *sql.DB
}

func NewPostgresAnswerRepository(db *sql.DB) AnswerRepository {
	return &postgresAnswerRepository{db: db}
}

func (r *postgresAnswerRepository) ListByTrip(ctx context.Context, tripID string) ([]models.AIAnswer, error) {
	query := `
		SELECT q.entry_id, q.id, q.question, a.numeric_value, a.text_value
		FROM ai_answers a
		JOIN ai_questions q ON q.id = a.question_id
		JOIN entries e ON e.id = q.entry_id
		WHERE e.trip_id = $1
		ORDER BY a.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tripID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ai answers for trip %s: %w", tripID, err)
	}
	defer rows.Close()

	answers := make([]models.AIAnswer, 0)
	for rows.Next() {
		var (
			a   models.AIAnswer
			num sql.NullFloat64
			txt sql.NullString
		)
		if err := rows.Scan(&a.EntryID, &a.QuestionID, &a.Question, &num, &txt); err != nil {
			return nil, fmt.Errorf("failed to scan ai answer: %w", err)
		}
		if num.Valid {
			a.NumericValue = &num.Float64
		}
		if txt.Valid {
			a.TextValue = &txt.String
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
