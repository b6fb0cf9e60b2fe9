package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"study-ai/internal/models"
	"study-ai/internal/services"
)

const maxMultipartMemory = 8 << 20 // 8 MB

// Ingester runs the PDF to study artifacts pipeline.
type Ingester interface {
	Ingest(ctx context.Context, pdfPath, topic string, progress services.ProgressCallback) (*services.IngestResult, error)
}

type Options struct {
	CORSOrigins []string
}

type Server struct {
	router    chi.Router
	topics    *services.TopicStore
	attempts  *services.AttemptStore
	ingestion Ingester
	jobs      *JobManager
	log       *zap.Logger
	running   sync.WaitGroup
}

// NewServer wires the HTTP API. ingestion may be nil when no AI provider is
// configured; uploads are then refused.
func NewServer(
	topics *services.TopicStore,
	attempts *services.AttemptStore,
	ingestion Ingester,
	log *zap.Logger,
	opts Options,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		topics:    topics,
		attempts:  attempts,
		ingestion: ingestion,
		jobs:      NewJobManager(),
		log:       log,
	}
	s.routes(opts)
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Wait blocks until every background ingestion job has finished.
func (s *Server) Wait() {
	s.running.Wait()
}

func (s *Server) routes(opts Options) {
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.requestLogger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	r.Route("/api", func(r chi.Router) {
		r.With(middleware.Timeout(30*time.Second)).Group(func(r chi.Router) {
			r.Get("/health", s.handleHealth)
			r.Get("/topics", s.handleListTopics)
			r.Route("/topics/{topic}", func(r chi.Router) {
				r.Get("/artifacts/{kind}", s.handleArtifact)
				r.Get("/records/{kind}", s.handleRecords)
				r.Get("/attempts", s.handleAttempts)
			})
			r.Get("/documents/jobs/{jobID}", s.handleJobStatus)
		})
		r.Post("/documents/jobs", s.handleCreateJob)
	})
	s.router = r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"aiAvailable": s.ingestion != nil,
	})
}

type topicResponse struct {
	models.Topic
	DisplayName string                `json:"displayName"`
	Artifacts   []models.ArtifactKind `json:"artifacts"`
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.topics.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]topicResponse, 0, len(topics))
	for _, t := range topics {
		kinds, err := s.topics.Artifacts(t.Name)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if kinds == nil {
			kinds = []models.ArtifactKind{}
		}
		out = append(out, topicResponse{Topic: t, DisplayName: services.DisplayName(t.Name), Artifacts: kinds})
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": out})
}

func (s *Server) loadArtifact(w http.ResponseWriter, r *http.Request) (string, models.ArtifactKind, string, bool) {
	topic := chi.URLParam(r, "topic")
	if clean, err := services.SanitizeTopic(topic); err != nil || clean != topic {
		writeError(w, http.StatusNotFound, services.ErrTopicNotFound.Error())
		return "", "", "", false
	}
	kind := models.ArtifactKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		writeError(w, http.StatusBadRequest, "unknown artifact kind")
		return "", "", "", false
	}
	content, err := s.topics.Load(topic, kind)
	if err != nil {
		writeServiceError(w, err)
		return "", "", "", false
	}
	return topic, kind, content, true
}

func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request) {
	topic, kind, content, ok := s.loadArtifact(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"topic":   topic,
		"kind":    kind,
		"content": content,
	})
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	topic, kind, content, ok := s.loadArtifact(w, r)
	if !ok {
		return
	}
	records, err := services.ParseArtifact(kind, content)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"topic":   topic,
		"kind":    kind,
		"records": records,
	})
}

func (s *Server) handleAttempts(w http.ResponseWriter, r *http.Request) {
	topic := chi.URLParam(r, "topic")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	attempts, err := s.attempts.List(r.Context(), topic, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	if s.ingestion == nil {
		writeError(w, http.StatusServiceUnavailable, services.ErrAIUnavailable.Error())
		return
	}
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	topic, err := services.SanitizeTopic(r.FormValue("topic"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "please enter a topic name")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file uploaded")
		return
	}
	defer file.Close()

	storedPath, err := s.topics.StoreUpload(header.Filename, file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	jobID, snapshot := s.jobs.CreateJob(topic, header.Filename)
	s.running.Add(1)
	go s.runJob(context.Background(), jobID, storedPath, topic)

	writeJSON(w, http.StatusAccepted, snapshot)
}

func (s *Server) runJob(ctx context.Context, jobID, pdfPath, topic string) {
	defer s.running.Done()
	defer func() {
		_ = os.Remove(pdfPath)
	}()

	s.jobs.MarkProcessing(jobID)
	progress := func(step, message string, current, total int) {
		s.jobs.UpdateProgress(jobID, step, message, current, total)
	}

	res, err := s.ingestion.Ingest(ctx, pdfPath, topic, progress)
	if err != nil {
		s.log.Error("ingestion job failed", zap.String("job", jobID), zap.String("topic", topic), zap.Error(err))
		s.jobs.MarkFailed(jobID, err.Error())
		return
	}

	kinds := make([]string, len(res.Artifacts))
	for i, kind := range res.Artifacts {
		kinds[i] = string(kind)
	}
	s.jobs.MarkComplete(jobID, IngestResult{Topic: res.Topic.Name, Pages: res.Topic.PageCount, Artifacts: kinds})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.GetJob(chi.URLParam(r, "jobID"))
	if !ok {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrTopicNotFound), errors.Is(err, services.ErrArtifactNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNotStructured):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": strings.TrimSpace(message)})
}
