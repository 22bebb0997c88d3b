package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/FocuswithJustin/sermonrefs/core/errors"
	"github.com/FocuswithJustin/sermonrefs/internal/importer"
	"github.com/FocuswithJustin/sermonrefs/internal/logging"
	"github.com/FocuswithJustin/sermonrefs/internal/validation"
)

// JobStatus represents the current state of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// ImportRequest is the body of POST /import.
type ImportRequest struct {
	// Format is lines, osis or zefania; empty detects it from Content.
	Format      string `json:"format,omitempty"`
	Translation string `json:"translation,omitempty"`
	Content     string `json:"content"`
}

// ImportResult summarises a finished import job.
type ImportResult struct {
	Format      importer.Format `json:"format"`
	Translation string          `json:"translation"`
	Parsed      int             `json:"parsed"`
	Imported    int             `json:"imported"`
	Skipped     int             `json:"skipped"`
	Duration    string          `json:"duration"`
}

// Job represents an asynchronous import job.
type Job struct {
	ID          string        `json:"id"`
	Status      JobStatus     `json:"status"`
	Progress    int           `json:"progress"` // 0-100
	Result      *ImportResult `json:"result,omitempty"`
	Error       string        `json:"error,omitempty"`
	CreatedAt   string        `json:"created_at"`
	UpdatedAt   string        `json:"updated_at"`
	CompletedAt string        `json:"completed_at,omitempty"`
	Format      string        `json:"format,omitempty"`
	Translation string        `json:"translation,omitempty"`

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// JobStore keeps jobs in memory.
type JobStore struct {
	jobs map[string]*Job
	mu   sync.RWMutex
}

// NewJobStore creates an empty job store.
func NewJobStore() *JobStore {
	return &JobStore{jobs: make(map[string]*Job)}
}

// Create registers a pending job for req.
func (s *JobStore) Create(req ImportRequest) *Job {
	ctx, cancel := context.WithCancel(context.Background())
	now := timestamp()

	job := &Job{
		ID:          uuid.NewString(),
		Status:      JobStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Format:      req.Format,
		Translation: req.Translation,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()
	return job
}

// Get returns a snapshot of the job with id.
func (s *JobStore) Get(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// List returns snapshots of all jobs, oldest first.
func (s *JobStore) List() []Job {
	s.mu.RLock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b Job) int {
		if c := strings.Compare(a.CreatedAt, b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Update moves a job to status. Jobs already in a terminal status are left alone.
func (s *JobStore) Update(id string, status JobStatus, progress int, result *ImportResult, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return apperrors.NewNotFound("job", id)
	}
	if job.Status.Done() {
		return nil
	}

	job.Status = status
	job.Progress = progress
	job.UpdatedAt = timestamp()
	if result != nil {
		job.Result = result
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	if status.Done() {
		job.CompletedAt = job.UpdatedAt
		job.cancel()
		close(job.done)
	}
	return nil
}

// Cancel stops a pending or running job.
func (s *JobStore) Cancel(id string) error {
	s.mu.RLock()
	job, ok := s.jobs[id]
	var (
		status   JobStatus
		progress int
	)
	if ok {
		status, progress = job.Status, job.Progress
	}
	s.mu.RUnlock()

	if !ok {
		return apperrors.NewNotFound("job", id)
	}
	if status.Done() {
		return &apperrors.ValidationError{Field: "status", Value: string(status), Message: "job cannot be cancelled"}
	}

	job.cancel()
	return s.Update(id, JobStatusCancelled, progress, nil, "Job cancelled by user")
}

// CancelAll stops every unfinished job.
func (s *JobStore) CancelAll() {
	for _, job := range s.List() {
		if !job.Status.Done() {
			_ = s.Cancel(job.ID)
		}
	}
}

// Wait blocks until the job reaches a terminal status or ctx ends.
func (s *JobStore) Wait(ctx context.Context, id string) (Job, error) {
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return Job{}, apperrors.NewNotFound("job", id)
	}

	select {
	case <-job.done:
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
	snap, _ := s.Get(id)
	return snap, nil
}

// runImport parses and stores req in the background, reporting progress
// to WebSocket clients.
func (s *Server) runImport(job *Job, req ImportRequest) {
	go func() {
		start := time.Now()
		ctx := job.ctx

		fail := func(err error) {
			logging.Warn("import job failed", "job_id", job.ID, "error", err)
			_ = s.jobs.Update(job.ID, JobStatusFailed, 100, nil, err.Error())
			s.hub.BroadcastError("import", err.Error())
		}

		_ = s.jobs.Update(job.ID, JobStatusRunning, 10, nil, "")
		s.hub.BroadcastProgress("import", "parse", "parsing "+job.ID, 10)

		format, err := importer.ParseFormat(req.Format)
		if err != nil {
			fail(err)
			return
		}
		res, err := s.importer.Import(ctx, format, strings.NewReader(req.Content), req.Translation)
		if err != nil {
			fail(err)
			return
		}
		if res.Translation == "" {
			res.Translation = s.cfg.Translation
		}

		if ctx.Err() != nil {
			return
		}
		_ = s.jobs.Update(job.ID, JobStatusRunning, 50, nil, "")
		s.hub.BroadcastProgress("import", "store", fmt.Sprintf("storing %d verses", len(res.Verses)), 50)

		n, err := s.store.Put(ctx, res.Translation, res.Verses)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			fail(err)
			return
		}

		s.counts.Invalidate()

		result := &ImportResult{
			Format:      res.Format,
			Translation: res.Translation,
			Parsed:      len(res.Verses),
			Imported:    n,
			Skipped:     res.Skipped,
			Duration:    time.Since(start).Round(time.Millisecond).String(),
		}
		_ = s.jobs.Update(job.ID, JobStatusCompleted, 100, result, "")
		s.hub.BroadcastComplete("import", fmt.Sprintf("imported %d verses into %s", n, res.Translation), map[string]any{
			"job_id":   job.ID,
			"imported": n,
		})
	}()
}

// handleImport handles POST /import by starting an import job.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	var req ImportRequest
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		respondError(w, http.StatusBadRequest, "MISSING_PARAMS", "content is required")
		return
	}
	if _, err := importer.ParseFormat(req.Format); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := validation.ValidateText("content", []byte(req.Content)); err != nil {
		respondErr(w, r, err)
		return
	}

	job := s.jobs.Create(req)
	logging.InfoContext(r.Context(), "import job created", "job_id", job.ID, "format", req.Format, "bytes", len(req.Content))
	s.runImport(job, req)

	snap, _ := s.jobs.Get(job.ID)
	respond(w, http.StatusAccepted, snap)
}

// handleJobs handles GET /jobs.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobs.List()
	respondList(w, jobs, len(jobs))
}

// handleJob handles GET /jobs/{id}.
func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.jobs.Get(r.PathValue("id"))
	if !ok {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Job not found")
		return
	}
	respond(w, http.StatusOK, job)
}

// handleCancelJob handles DELETE /jobs/{id}.
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request) {
	if err := s.jobs.Cancel(r.PathValue("id")); err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
			return
		}
		respondError(w, http.StatusConflict, "CANCEL_FAILED", err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]string{"message": "Job cancelled"})
}
