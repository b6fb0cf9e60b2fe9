package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"study-ai/internal/models"
	"study-ai/internal/parser"
)

type progressEvent struct {
	step    string
	message string
	current int
	total   int
}

func TestIngestWritesEveryArtifact(t *testing.T) {
	ctx := context.Background()
	topics := newTestTopics(t)
	gen := &fakeGenerator{outputs: map[models.ArtifactKind]string{
		models.ArtifactFlashcards: "Q: What is ATP?\nA: Energy currency\n---\nQ: Where is DNA?\nA: Nucleus",
	}}
	svc := NewIngestionService(topics, fakeExtractor{text: "cells make energy", pages: 4}, gen, zaptest.NewLogger(t),
		IngestionOptions{Concurrency: 3})

	var events []progressEvent
	res, err := svc.Ingest(ctx, writePDF(t), "Cell Biology", func(step, message string, current, total int) {
		events = append(events, progressEvent{step, message, current, total})
	})
	require.NoError(t, err)

	assert.Equal(t, "Cell_Biology", res.Topic.Name)
	assert.Equal(t, 4, res.Topic.PageCount)
	assert.Equal(t, models.GeneratedKinds, res.Artifacts)
	assert.ElementsMatch(t, models.GeneratedKinds, gen.calls)

	raw, err := topics.Load("Cell_Biology", models.ArtifactRaw)
	require.NoError(t, err)
	assert.Equal(t, "cells make energy", raw)

	for _, kind := range models.GeneratedKinds {
		assert.FileExists(t, filepath.Join(topics.Root(), "Cell_Biology", kind.FileName()))
	}
	cards, err := topics.Load("Cell_Biology", models.ArtifactFlashcards)
	require.NoError(t, err)
	assert.Len(t, parser.ParseFlashcards(cards), 2)

	require.NotEmpty(t, events)
	assert.Equal(t, "extract", events[0].step)
	last := events[len(events)-1]
	assert.Equal(t, "complete", last.step)
	assert.Equal(t, last.total, last.current)
	assert.Equal(t, len(models.GeneratedKinds)+1, last.total)
}

func TestIngestTruncatesInput(t *testing.T) {
	gen := &fakeGenerator{}
	svc := NewIngestionService(newTestTopics(t), fakeExtractor{text: "héllo world", pages: 1}, gen, nil,
		IngestionOptions{MaxInputChars: 5})

	_, err := svc.Ingest(context.Background(), writePDF(t), "t", nil)
	require.NoError(t, err)
	for _, in := range gen.inputs {
		assert.Equal(t, "héllo", in)
	}
}

func TestIngestFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("no generator", func(t *testing.T) {
		svc := NewIngestionService(newTestTopics(t), fakeExtractor{}, nil, nil, IngestionOptions{})
		_, err := svc.Ingest(ctx, writePDF(t), "t", nil)
		assert.ErrorIs(t, err, ErrAIUnavailable)
	})

	t.Run("missing pdf", func(t *testing.T) {
		svc := NewIngestionService(newTestTopics(t), fakeExtractor{}, &fakeGenerator{}, nil, IngestionOptions{})
		_, err := svc.Ingest(ctx, filepath.Join(t.TempDir(), "nope.pdf"), "t", nil)
		assert.Error(t, err)
	})

	t.Run("extraction error", func(t *testing.T) {
		svc := NewIngestionService(newTestTopics(t), fakeExtractor{err: errBoom}, &fakeGenerator{}, nil, IngestionOptions{})
		_, err := svc.Ingest(ctx, writePDF(t), "t", nil)
		assert.ErrorIs(t, err, errBoom)
	})

	t.Run("generation error keeps raw text", func(t *testing.T) {
		topics := newTestTopics(t)
		gen := &fakeGenerator{fail: map[models.ArtifactKind]error{models.ArtifactMCQ: errBoom}}
		svc := NewIngestionService(topics, fakeExtractor{text: "x", pages: 1}, gen, nil, IngestionOptions{Concurrency: 1})

		_, err := svc.Ingest(ctx, writePDF(t), "t", nil)
		assert.ErrorIs(t, err, errBoom)
		assert.Contains(t, err.Error(), "generate mcq")

		raw, loadErr := topics.Load("t", models.ArtifactRaw)
		require.NoError(t, loadErr)
		assert.Equal(t, "x", raw)
	})
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "abc", truncateRunes("abc", 0))
	assert.Equal(t, "abc", truncateRunes("abc", 3))
	assert.Equal(t, "ab", truncateRunes("abc", 2))
	assert.Equal(t, "日本", truncateRunes("日本語", 2))
}
