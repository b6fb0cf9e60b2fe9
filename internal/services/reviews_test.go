package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-ai/internal/models"
)

func TestReviewSchedulesCard(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	svc := NewReviewService(conn)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	card := models.FlashcardRecord{Question: "What is ATP?", Answer: "Energy currency"}

	review, log, err := svc.Review(ctx, "bio", card, models.RatingEasy)
	require.NoError(t, err)
	require.True(t, review.Due.Valid)
	assert.True(t, review.Due.Time.After(now), "easy pushes the due date forward")
	assert.Equal(t, 1, review.Reps)
	assert.Equal(t, "Energy currency", review.Answer)
	assert.Equal(t, "bio", log.Topic)
	assert.Equal(t, now, log.ReviewedAt)

	firstDue := review.Due.Time
	now = firstDue.Add(time.Hour)
	review, _, err = svc.Review(ctx, "bio", card, models.RatingHard)
	require.NoError(t, err)
	assert.Equal(t, 2, review.Reps)
	assert.True(t, review.Due.Time.After(now))

	var rows, logs int
	require.NoError(t, conn.Get(&rows, `SELECT COUNT(*) FROM card_reviews`))
	require.NoError(t, conn.Get(&logs, `SELECT COUNT(*) FROM review_logs`))
	assert.Equal(t, 1, rows)
	assert.Equal(t, 2, logs)
}

func TestReviewRejectsMissingRating(t *testing.T) {
	svc := NewReviewService(openTestDB(t))
	_, _, err := svc.Review(context.Background(), "bio", models.FlashcardRecord{Question: "q", Answer: "a"}, models.RatingNone)
	assert.Error(t, err)
}

func TestDueOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewReviewService(openTestDB(t))
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }

	deck := []models.FlashcardRecord{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
		{Question: "q4", Answer: "a4"},
	}
	// q2 is reviewed hard (due sooner), q4 easy (due later); q1 and q3 are unseen.
	_, _, err := svc.Review(ctx, "bio", deck[1], models.RatingHard)
	require.NoError(t, err)
	_, _, err = svc.Review(ctx, "bio", deck[3], models.RatingEasy)
	require.NoError(t, err)

	ordered, due, err := svc.DueOrder(ctx, "bio", deck, start)
	require.NoError(t, err)
	assert.Equal(t, 2, due, "only unseen cards need attention right after reviewing")
	assert.Equal(t, []string{"q1", "q3", "q2", "q4"}, questions(ordered))

	later := start.AddDate(1, 0, 0)
	ordered, due, err = svc.DueOrder(ctx, "bio", deck, later)
	require.NoError(t, err)
	assert.Equal(t, 4, due)
	assert.Equal(t, []string{"q2", "q4", "q1", "q3"}, questions(ordered))

	ordered, _, err = svc.DueOrder(ctx, "chem", deck, start)
	require.NoError(t, err)
	assert.Equal(t, deck, ordered, "other topics do not share schedules")
}

func TestDueOrderDatabaseError(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT (.+) FROM card_reviews").WithArgs("bio").WillReturnError(errBoom)
	svc := NewReviewService(sqlx.NewDb(mockDB, "sqlite"))

	_, _, err = svc.DueOrder(context.Background(), "bio", nil, time.Now())
	assert.ErrorIs(t, err, errBoom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRollsBackOnFailure(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT (.+) FROM card_reviews").WillReturnRows(sqlmock.NewRows([]string{"topic"}))
	mock.ExpectExec("INSERT INTO card_reviews").WillReturnError(errBoom)
	mock.ExpectRollback()

	svc := NewReviewService(sqlx.NewDb(mockDB, "sqlite"))
	_, _, err = svc.Review(context.Background(), "bio", models.FlashcardRecord{Question: "q", Answer: "a"}, models.RatingEasy)
	assert.ErrorIs(t, err, errBoom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func questions(cards []models.FlashcardRecord) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Question
	}
	return out
}
