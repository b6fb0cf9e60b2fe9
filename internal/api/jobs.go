package api

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusComplete   = "complete"
	JobStatusFailed     = "failed"
)

// IngestJob tracks one uploaded PDF through extraction and generation.
type IngestJob struct {
	ID        string        `json:"jobId"`
	Status    string        `json:"status"`
	Topic     string        `json:"topic"`
	FileName  string        `json:"fileName"`
	Step      string        `json:"step,omitempty"`
	Message   string        `json:"message,omitempty"`
	Current   int           `json:"current"`
	Total     int           `json:"total"`
	Percent   int           `json:"percent"`
	Result    *IngestResult `json:"result,omitempty"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// IngestResult is what a finished job reports back to the frontend.
type IngestResult struct {
	Topic     string   `json:"topic"`
	Pages     int      `json:"pages"`
	Artifacts []string `json:"artifacts"`
}

type JobManager struct {
	mu   sync.RWMutex
	jobs map[string]*IngestJob
}

func NewJobManager() *JobManager {
	return &JobManager{
		jobs: make(map[string]*IngestJob),
	}
}

func (m *JobManager) CreateJob(topic, fileName string) (string, *IngestJob) {
	now := time.Now().UTC()
	job := &IngestJob{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Topic:     topic,
		FileName:  fileName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	return job.ID, job.clone()
}

func (m *JobManager) GetJob(id string) (*IngestJob, bool) {
	m.mu.RLock()
	job, ok := m.jobs[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

func (m *JobManager) MarkProcessing(id string) {
	m.withJob(id, func(job *IngestJob) {
		job.Status = JobStatusProcessing
		job.Message = "Starting"
	})
}

func (m *JobManager) UpdateProgress(id, step, message string, current, total int) {
	m.withJob(id, func(job *IngestJob) {
		job.Status = JobStatusProcessing
		job.Step = step
		job.Message = message
		job.Current = current
		job.Total = total
		job.Percent = percent(current, total)
	})
}

func (m *JobManager) MarkComplete(id string, result IngestResult) {
	m.withJob(id, func(job *IngestJob) {
		job.Status = JobStatusComplete
		job.Step = "complete"
		job.Message = "Processing complete"
		job.Percent = 100
		job.Result = &result
		job.Error = ""
	})
}

func (m *JobManager) MarkFailed(id string, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		msg = "processing error"
	}
	m.withJob(id, func(job *IngestJob) {
		job.Status = JobStatusFailed
		job.Step = "error"
		job.Message = msg
		job.Error = msg
	})
}

func (m *JobManager) withJob(id string, fn func(job *IngestJob)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return
	}
	fn(job)
	job.UpdatedAt = time.Now().UTC()
}

func (job *IngestJob) clone() *IngestJob {
	if job == nil {
		return nil
	}
	copyJob := *job
	if job.Result != nil {
		res := *job.Result
		res.Artifacts = append([]string(nil), job.Result.Artifacts...)
		copyJob.Result = &res
	}
	return &copyJob
}

func percent(current, total int) int {
	if total <= 0 || current <= 0 {
		return 0
	}
	if current >= total {
		return 100
	}
	return int((float64(current) / float64(total)) * 100)
}
