package services

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"study-ai/internal/models"
)

// ProgressCallback is called during document processing to report progress.
// Calls are serialized even when artifacts are generated concurrently.
type ProgressCallback func(step, message string, current, total int)

// TextExtractor pulls plain text out of a document on disk.
type TextExtractor interface {
	ExtractText(path string) (Extraction, error)
}

type IngestionOptions struct {
	// Concurrency bounds simultaneous generation requests; values below 1 mean 1.
	Concurrency int
	// MaxInputChars truncates the text sent for generation; 0 disables it.
	MaxInputChars int
}

// IngestionService coordinates PDF parsing, artifact generation, and persistence.
type IngestionService struct {
	topics *TopicStore
	pdf    TextExtractor
	ai     Generator
	log    *zap.Logger
	opts   IngestionOptions
}

func NewIngestionService(topics *TopicStore, pdf TextExtractor, ai Generator, log *zap.Logger, opts IngestionOptions) *IngestionService {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IngestionService{topics: topics, pdf: pdf, ai: ai, log: log, opts: opts}
}

type IngestResult struct {
	Topic     *models.Topic
	Artifacts []models.ArtifactKind
}

// Ingest extracts pdfPath, stores the raw text under topic, then generates
// and stores every study artifact. Artifacts saved before a failure are kept.
func (s *IngestionService) Ingest(ctx context.Context, pdfPath, topic string, progress ProgressCallback) (*IngestResult, error) {
	if s.ai == nil {
		return nil, ErrAIUnavailable
	}
	if info, err := os.Stat(pdfPath); err != nil || info.IsDir() {
		return nil, fmt.Errorf("pdf %s is not a readable file", pdfPath)
	}

	report := serialize(progress)
	total := len(models.GeneratedKinds) + 1

	report("extract", "Extracting text from PDF...", 0, total)
	extraction, err := s.pdf.ExtractText(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	t, err := s.topics.Create(ctx, topic, pdfPath, extraction.Pages)
	if err != nil {
		return nil, err
	}
	if err := s.topics.Save(t.Name, models.ArtifactRaw, extraction.Text); err != nil {
		return nil, err
	}
	report("extract", "Text extracted and saved", 1, total)
	s.log.Info("extracted pdf text",
		zap.String("topic", t.Name),
		zap.Int("pages", extraction.Pages),
		zap.Int("chars", len(extraction.Text)),
	)

	text := truncateRunes(extraction.Text, s.opts.MaxInputChars)

	var (
		mu   sync.Mutex
		done = 1
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, kind := range models.GeneratedKinds {
		g.Go(func() error {
			mu.Lock()
			report("generate", fmt.Sprintf("Generating %s...", kind.Title()), done, total)
			mu.Unlock()

			content, err := s.ai.Generate(gctx, kind, text)
			if err != nil {
				return fmt.Errorf("generate %s: %w", kind, err)
			}
			if err := s.topics.Save(t.Name, kind, content); err != nil {
				return err
			}

			mu.Lock()
			done++
			report("generate", fmt.Sprintf("%s completed", kind.Title()), done, total)
			mu.Unlock()
			s.log.Debug("saved artifact", zap.String("topic", t.Name), zap.String("kind", string(kind)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("ingestion failed", zap.String("topic", t.Name), zap.Error(err))
		return nil, err
	}

	report("complete", fmt.Sprintf("Successfully processed '%s'", t.Name), total, total)
	return &IngestResult{Topic: t, Artifacts: append([]models.ArtifactKind(nil), models.GeneratedKinds...)}, nil
}

// serialize makes a nil-safe callback whose calls never overlap.
func serialize(progress ProgressCallback) ProgressCallback {
	if progress == nil {
		return func(string, string, int, int) {}
	}
	var mu sync.Mutex
	return func(step, message string, current, total int) {
		mu.Lock()
		defer mu.Unlock()
		progress(step, message, current, total)
	}
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}
	return s
}
