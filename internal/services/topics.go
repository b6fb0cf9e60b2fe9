package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"study-ai/internal/models"
)

var (
	ErrTopicNotFound    = errors.New("topic not found")
	ErrArtifactNotFound = errors.New("artifact not found")
	ErrInvalidTopic     = errors.New("invalid topic name")
)

// uploadsDir holds PDFs received over HTTP. It is skipped when listing topics.
const uploadsDir = ".uploads"

// TopicStore keeps each topic's artifacts as text files under root/<topic>/
// and indexes topic metadata in SQLite. The directories are the source of
// truth; a topic created by hand still lists.
type TopicStore struct {
	db   *sqlx.DB
	root string
}

func NewTopicStore(db *sqlx.DB, root string) *TopicStore {
	return &TopicStore{db: db, root: root}
}

// SanitizeTopic maps spaces to underscores and drops anything outside [A-Za-z0-9_-].
func SanitizeTopic(name string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == ' ':
			b.WriteRune('_')
		case r == '_' || r == '-',
			r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	topic := strings.Trim(b.String(), "_")
	if topic == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTopic, name)
	}
	return topic, nil
}

// DisplayName renders a stored topic name for people.
func DisplayName(topic string) string {
	return strings.ReplaceAll(topic, "_", " ")
}

func (s *TopicStore) Root() string { return s.root }

func (s *TopicStore) Dir(topic string) string {
	return filepath.Join(s.root, topic)
}

// Create makes the topic directory and records its metadata. Creating an
// existing topic refreshes the metadata and keeps the files.
func (s *TopicStore) Create(ctx context.Context, name, sourcePDF string, pages int) (*models.Topic, error) {
	topic, err := SanitizeTopic(name)
	if err != nil {
		return nil, err
	}
	dir := s.Dir(topic)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure topic dir: %w", err)
	}

	t := &models.Topic{
		Name:      topic,
		Dir:       dir,
		SourcePDF: filepath.Base(sourcePDF),
		PageCount: pages,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.db.NamedExecContext(ctx, `
		INSERT INTO topics (name, dir, source_pdf, page_count, created_at)
		VALUES (:name, :dir, :source_pdf, :page_count, :created_at)
		ON CONFLICT(name) DO UPDATE SET
			dir = excluded.dir,
			source_pdf = excluded.source_pdf,
			page_count = excluded.page_count;
	`, t); err != nil {
		return nil, fmt.Errorf("upsert topic: %w", err)
	}
	return t, nil
}

func (s *TopicStore) Exists(topic string) bool {
	info, err := os.Stat(s.Dir(topic))
	return err == nil && info.IsDir()
}

// Save writes one artifact, replacing any previous version.
func (s *TopicStore) Save(topic string, kind models.ArtifactKind, content string) error {
	if !kind.Valid() {
		return fmt.Errorf("unknown artifact %q", kind)
	}
	if !s.Exists(topic) {
		return fmt.Errorf("%w: %s", ErrTopicNotFound, topic)
	}
	path := filepath.Join(s.Dir(topic), kind.FileName())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", kind.FileName(), err)
	}
	return nil
}

func (s *TopicStore) Load(topic string, kind models.ArtifactKind) (string, error) {
	if !kind.Valid() {
		return "", fmt.Errorf("unknown artifact %q", kind)
	}
	if !s.Exists(topic) {
		return "", fmt.Errorf("%w: %s", ErrTopicNotFound, topic)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(topic), kind.FileName()))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s/%s", ErrArtifactNotFound, topic, kind.FileName())
		}
		return "", fmt.Errorf("read %s: %w", kind.FileName(), err)
	}
	return string(data), nil
}

// Artifacts lists the artifact kinds present for a topic in a stable order.
func (s *TopicStore) Artifacts(topic string) ([]models.ArtifactKind, error) {
	if !s.Exists(topic) {
		return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, topic)
	}
	var kinds []models.ArtifactKind
	for _, kind := range append([]models.ArtifactKind{models.ArtifactRaw}, models.GeneratedKinds...) {
		if _, err := os.Stat(filepath.Join(s.Dir(topic), kind.FileName())); err == nil {
			kinds = append(kinds, kind)
		}
	}
	return kinds, nil
}

// List returns every topic directory, sorted by name, with indexed metadata where available.
func (s *TopicStore) List(ctx context.Context) ([]models.Topic, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Topic{}, nil
		}
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	topics := make([]models.Topic, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		t, err := s.get(ctx, entry.Name())
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	sort.Slice(topics, func(i, j int) bool { return topics[i].Name < topics[j].Name })
	return topics, nil
}

func (s *TopicStore) get(ctx context.Context, name string) (models.Topic, error) {
	var t models.Topic
	err := s.db.GetContext(ctx, &t, `
		SELECT name, dir, source_pdf, page_count, created_at
		FROM topics WHERE name = ?;
	`, name)
	switch {
	case err == nil:
		return t, nil
	case errors.Is(err, sql.ErrNoRows):
		t = models.Topic{Name: name, Dir: s.Dir(name)}
		if info, statErr := os.Stat(t.Dir); statErr == nil {
			t.CreatedAt = info.ModTime().UTC()
		}
		return t, nil
	default:
		return models.Topic{}, fmt.Errorf("get topic %s: %w", name, err)
	}
}

// StoreUpload copies an uploaded PDF under the uploads directory and returns its path.
func (s *TopicStore) StoreUpload(original string, src io.Reader) (string, error) {
	dir := filepath.Join(s.root, uploadsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("ensure upload dir: %w", err)
	}

	storedPath := filepath.Join(dir, uuid.NewString()+filepath.Ext(original))
	out, err := os.Create(storedPath)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(storedPath)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(storedPath)
		return "", fmt.Errorf("close file: %w", err)
	}
	return storedPath, nil
}
