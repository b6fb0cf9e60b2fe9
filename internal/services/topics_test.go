package services

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"study-ai/internal/models"
)

func TestSanitizeTopic(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Cell Biology", "Cell_Biology"},
		{"  chapter-3 ", "chapter-3"},
		{"../../etc/passwd", "etcpasswd"},
		{"Math: Ch. 1!", "Math_Ch_1"},
	}
	for _, tt := range tests {
		got, err := SanitizeTopic(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := SanitizeTopic("   ")
	assert.ErrorIs(t, err, ErrInvalidTopic)
	_, err = SanitizeTopic("???")
	assert.ErrorIs(t, err, ErrInvalidTopic)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Cell Biology", DisplayName("Cell_Biology"))
}

func TestTopicStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestTopics(t)

	topic, err := store.Create(ctx, "Cell Biology", "/tmp/in/cells.pdf", 12)
	require.NoError(t, err)
	assert.Equal(t, "Cell_Biology", topic.Name)
	assert.Equal(t, "cells.pdf", topic.SourcePDF)

	require.NoError(t, store.Save(topic.Name, models.ArtifactFlashcards, "Q: a\nA: b"))
	got, err := store.Load(topic.Name, models.ArtifactFlashcards)
	require.NoError(t, err)
	assert.Equal(t, "Q: a\nA: b", got)
	assert.FileExists(t, filepath.Join(store.Root(), "Cell_Biology", "flashcards.txt"))

	kinds, err := store.Artifacts(topic.Name)
	require.NoError(t, err)
	assert.Equal(t, []models.ArtifactKind{models.ArtifactFlashcards}, kinds)

	_, err = store.Load(topic.Name, models.ArtifactMCQ)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	_, err = store.Load("missing", models.ArtifactMCQ)
	assert.ErrorIs(t, err, ErrTopicNotFound)

	assert.ErrorIs(t, store.Save("missing", models.ArtifactMCQ, "x"), ErrTopicNotFound)
	assert.Error(t, store.Save(topic.Name, models.ArtifactKind("bogus"), "x"))
}

func TestTopicStoreCreateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestTopics(t)

	_, err := store.Create(ctx, "bio", "a.pdf", 1)
	require.NoError(t, err)
	require.NoError(t, store.Save("bio", models.ArtifactSummary, "keep me"))

	_, err = store.Create(ctx, "bio", "b.pdf", 2)
	require.NoError(t, err)

	got, err := store.Load("bio", models.ArtifactSummary)
	require.NoError(t, err)
	assert.Equal(t, "keep me", got)

	topics, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	assert.Equal(t, "b.pdf", topics[0].SourcePDF)
	assert.Equal(t, 2, topics[0].PageCount)
}

func TestTopicStoreListIncludesUnindexedDirs(t *testing.T) {
	ctx := context.Background()
	store := newTestTopics(t)

	topics, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics, "missing output dir lists nothing")

	_, err = store.Create(ctx, "zoology", "z.pdf", 3)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), "algebra"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(store.Root(), uploadsDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "stray.txt"), nil, 0o644))

	topics, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 2)
	assert.Equal(t, "algebra", topics[0].Name)
	assert.Empty(t, topics[0].SourcePDF)
	assert.Equal(t, "zoology", topics[1].Name)
	assert.Equal(t, 3, topics[1].PageCount)
}

func TestStoreUpload(t *testing.T) {
	store := newTestTopics(t)
	path, err := store.StoreUpload("lecture.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)

	assert.Equal(t, ".pdf", filepath.Ext(path))
	assert.Equal(t, filepath.Join(store.Root(), uploadsDir), filepath.Dir(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data))
}

func TestStoreUploadRemovesPartialFile(t *testing.T) {
	store := newTestTopics(t)
	src := io.MultiReader(strings.NewReader("%PDF-1.4 partial"), iotest.ErrReader(errBoom))

	_, err := store.StoreUpload("lecture.pdf", src)
	require.ErrorIs(t, err, errBoom)

	entries, err := os.ReadDir(filepath.Join(store.Root(), uploadsDir))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
