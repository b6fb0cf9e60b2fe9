package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"

	"study-ai/internal/models"
	"study-ai/internal/quiz"
)

const defaultAttemptLimit = 20

// AttemptStore keeps the history of completed quizzes.
type AttemptStore struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewAttemptStore(db *sqlx.DB) *AttemptStore {
	return &AttemptStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Record stores a finished quiz. Aborted sessions should never reach here.
func (s *AttemptStore) Record(ctx context.Context, topic string, kind models.ArtifactKind, res quiz.Result) (*models.QuizAttempt, error) {
	if res.Total <= 0 {
		return nil, quiz.ErrNoQuestions
	}
	attempt := &models.QuizAttempt{
		ID:         ulid.Make().String(),
		Topic:      topic,
		Kind:       kind,
		Score:      res.Score,
		Total:      res.Total,
		Percentage: res.Percentage,
		Band:       res.Band.String(),
		FinishedAt: s.now(),
	}
	if _, err := s.db.NamedExecContext(ctx, `
		INSERT INTO quiz_attempts (id, topic, kind, score, total, percentage, band, finished_at)
		VALUES (:id, :topic, :kind, :score, :total, :percentage, :band, :finished_at);
	`, attempt); err != nil {
		return nil, fmt.Errorf("insert quiz attempt: %w", err)
	}
	return attempt, nil
}

// List returns a topic's most recent attempts first. limit <= 0 uses a default.
func (s *AttemptStore) List(ctx context.Context, topic string, limit int) ([]models.QuizAttempt, error) {
	if limit <= 0 {
		limit = defaultAttemptLimit
	}
	attempts := []models.QuizAttempt{}
	if err := s.db.SelectContext(ctx, &attempts, `
		SELECT id, topic, kind, score, total, percentage, band, finished_at
		FROM quiz_attempts
		WHERE topic = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?;
	`, topic, limit); err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	return attempts, nil
}
