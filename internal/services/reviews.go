package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	fsrs "github.com/open-spaced-repetition/go-fsrs"

	"study-ai/internal/models"
)

// ReviewService schedules flashcard reviews with FSRS. Cards are keyed by
// topic and question text, since the artifact files carry no IDs.
type ReviewService struct {
	db     *sqlx.DB
	params fsrs.Parameters
	now    func() time.Time
}

func NewReviewService(db *sqlx.DB) *ReviewService {
	return &ReviewService{
		db:     db,
		params: fsrs.DefaultParam(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Review applies a learner's rating to a card, creating its schedule on first sight.
func (s *ReviewService) Review(ctx context.Context, topic string, card models.FlashcardRecord, rating models.Rating) (_ *models.CardReview, _ *models.ReviewLog, err error) {
	fsrsRating, ok := rating.FSRS()
	if !ok {
		return nil, nil, fmt.Errorf("rating %s not supported", rating)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	review := &models.CardReview{}
	err = tx.GetContext(ctx, review, `
		SELECT topic, question, answer, due, stability, difficulty, elapsed_days,
		       scheduled_days, reps, lapses, state, last_review
		FROM card_reviews
		WHERE topic = ? AND question = ?;
	`, topic, card.Question)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		review = &models.CardReview{Topic: topic, Question: card.Question}
		err = nil
	case err != nil:
		return nil, nil, fmt.Errorf("load card review: %w", err)
	}
	review.Answer = card.Answer

	now := s.now()
	scheduling := s.params.Repeat(review.ToFSRSCard(), now)
	info, ok := scheduling[fsrsRating]
	if !ok {
		return nil, nil, fmt.Errorf("rating %d not supported", fsrsRating)
	}
	review.ApplyFSRSCard(info.Card)

	if _, err = tx.NamedExecContext(ctx, `
		INSERT INTO card_reviews (topic, question, answer, due, stability, difficulty, elapsed_days,
		                          scheduled_days, reps, lapses, state, last_review)
		VALUES (:topic, :question, :answer, :due, :stability, :difficulty, :elapsed_days,
		        :scheduled_days, :reps, :lapses, :state, :last_review)
		ON CONFLICT(topic, question) DO UPDATE SET
			answer = excluded.answer,
			due = excluded.due,
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			elapsed_days = excluded.elapsed_days,
			scheduled_days = excluded.scheduled_days,
			reps = excluded.reps,
			lapses = excluded.lapses,
			state = excluded.state,
			last_review = excluded.last_review;
	`, review); err != nil {
		return nil, nil, fmt.Errorf("upsert card review: %w", err)
	}

	log := &models.ReviewLog{
		Topic:         topic,
		Question:      card.Question,
		Rating:        int(info.ReviewLog.Rating),
		ScheduledDays: int(info.ReviewLog.ScheduledDays),
		ElapsedDays:   int(info.ReviewLog.ElapsedDays),
		State:         int(info.ReviewLog.State),
		ReviewedAt:    now,
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO review_logs (topic, question, rating, scheduled_days, elapsed_days, state, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?);
	`, log.Topic, log.Question, log.Rating, log.ScheduledDays, log.ElapsedDays, log.State, log.ReviewedAt); err != nil {
		return nil, nil, fmt.Errorf("insert review log: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit review: %w", err)
	}
	return review, log, nil
}

// DueOrder reorders a deck for a review session: cards due by now first
// (most overdue leading), then cards never reviewed in deck order, then the
// rest by due date. It also returns how many cards need attention now.
func (s *ReviewService) DueOrder(ctx context.Context, topic string, cards []models.FlashcardRecord, now time.Time) ([]models.FlashcardRecord, int, error) {
	var reviews []models.CardReview
	if err := s.db.SelectContext(ctx, &reviews, `
		SELECT topic, question, answer, due, stability, difficulty, elapsed_days,
		       scheduled_days, reps, lapses, state, last_review
		FROM card_reviews
		WHERE topic = ?;
	`, topic); err != nil {
		return nil, 0, fmt.Errorf("list card reviews: %w", err)
	}
	dueAt := make(map[string]time.Time, len(reviews))
	for _, r := range reviews {
		if r.Due.Valid {
			dueAt[r.Question] = r.Due.Time
		}
	}

	var due, unseen, later []models.FlashcardRecord
	for _, card := range cards {
		at, ok := dueAt[card.Question]
		switch {
		case !ok:
			unseen = append(unseen, card)
		case !at.After(now):
			due = append(due, card)
		default:
			later = append(later, card)
		}
	}
	byDue := func(cs []models.FlashcardRecord) {
		sort.SliceStable(cs, func(i, j int) bool {
			return dueAt[cs[i].Question].Before(dueAt[cs[j].Question])
		})
	}
	byDue(due)
	byDue(later)

	ordered := make([]models.FlashcardRecord, 0, len(cards))
	ordered = append(ordered, due...)
	ordered = append(ordered, unseen...)
	ordered = append(ordered, later...)
	return ordered, len(due) + len(unseen), nil
}
