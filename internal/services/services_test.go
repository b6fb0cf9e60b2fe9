package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"study-ai/internal/db"
	"study-ai/internal/models"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := db.Open(filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newTestTopics(t *testing.T) *TopicStore {
	t.Helper()
	return NewTopicStore(openTestDB(t), filepath.Join(t.TempDir(), "output"))
}

// fakeGenerator returns canned text per kind and records what it was asked for.
type fakeGenerator struct {
	mu      sync.Mutex
	outputs map[models.ArtifactKind]string
	fail    map[models.ArtifactKind]error
	calls   []models.ArtifactKind
	inputs  []string
}

func (g *fakeGenerator) Generate(ctx context.Context, kind models.ArtifactKind, text string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, kind)
	g.inputs = append(g.inputs, text)
	if err := g.fail[kind]; err != nil {
		return "", err
	}
	if out, ok := g.outputs[kind]; ok {
		return out, nil
	}
	return "generated " + string(kind), nil
}

type fakeExtractor struct {
	text  string
	pages int
	err   error
}

func (f fakeExtractor) ExtractText(string) (Extraction, error) {
	if f.err != nil {
		return Extraction{}, f.err
	}
	return Extraction{Text: f.text, Pages: f.pages}, nil
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notes.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o644))
	return path
}

var errBoom = errors.New("boom")

func lines(s string) []string {
	return strings.Split(strings.TrimSpace(s), "\n")
}
