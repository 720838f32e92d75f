package studio

import (
	"context"
	"sync"
	"time"

	"github.com/toonana/toonana/errors"
)

// JobStatus is the full status record the editor polls for.
type JobStatus struct {
	JobID           string    `json:"job_id"`
	EntryID         string    `json:"entry_id"`
	Style           string    `json:"style"`
	Stage           Stage     `json:"stage"`
	UpdatedAt       time.Time `json:"updated_at"`
	StoryboardText  string    `json:"storyboard_text,omitempty"`
	PanelImagePaths []string  `json:"panel_image_paths,omitempty"`
}

// Registry tracks live and recently finished jobs. Reads return copies;
// the registry owns the canonical records.
type Registry struct {
	mu       sync.Mutex
	jobs     map[string]*JobStatus
	cancels  map[string]context.CancelFunc
	watchers []func(JobStatus)
}

func NewRegistry() *Registry {
	return &Registry{
		jobs:    make(map[string]*JobStatus),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Create registers a new job in the queued stage.
func (r *Registry) Create(jobID, entryID, style string, cancel context.CancelFunc) JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	status := &JobStatus{
		JobID:     jobID,
		EntryID:   entryID,
		Style:     style,
		Stage:     StageQueued(),
		UpdatedAt: time.Now().UTC(),
	}
	r.jobs[jobID] = status
	r.cancels[jobID] = cancel
	return *status
}

// Get returns a snapshot of a job's status, or ErrJobNotFound.
func (r *Registry) Get(jobID string) (JobStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.jobs[jobID]
	if !ok {
		return JobStatus{}, errors.Wrapf(errors.ErrJobNotFound, "job %s", jobID)
	}
	return *status, nil
}

// SetStage advances a job's stage. Once a job is terminal further
// updates are dropped, so a cancelled pipeline cannot overwrite the
// failed record it already published.
func (r *Registry) SetStage(jobID string, stage Stage) {
	r.update(jobID, func(status *JobStatus) {
		if status.Stage.Terminal() {
			return
		}
		status.Stage = stage
	})
}

// SetStoryboardText publishes partial drafting output so the UI can show
// text as it streams.
func (r *Registry) SetStoryboardText(jobID, text string) {
	r.update(jobID, func(status *JobStatus) {
		status.StoryboardText = text
	})
}

// SetPanelImages records the saved image paths for a finished render.
func (r *Registry) SetPanelImages(jobID string, paths []string) {
	r.update(jobID, func(status *JobStatus) {
		status.PanelImagePaths = append([]string(nil), paths...)
	})
}

// Cancel signals a job's pipeline to stop. The pipeline publishes the
// final failed stage itself.
func (r *Registry) Cancel(jobID string) error {
	r.mu.Lock()
	cancel, ok := r.cancels[jobID]
	r.mu.Unlock()

	if !ok {
		return errors.Wrapf(errors.ErrJobNotFound, "job %s", jobID)
	}
	cancel()
	return nil
}

// Finish drops the cancel handle once a pipeline goroutine exits. The
// status record stays queryable.
func (r *Registry) Finish(jobID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, jobID)
}

// Watch registers a callback invoked with a status snapshot after every
// update. Callbacks must not block.
func (r *Registry) Watch(fn func(JobStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers = append(r.watchers, fn)
}

// ActiveCount returns the number of jobs that can still be cancelled.
func (r *Registry) ActiveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

func (r *Registry) update(jobID string, mutate func(*JobStatus)) {
	r.mu.Lock()
	status, ok := r.jobs[jobID]
	if !ok {
		r.mu.Unlock()
		return
	}
	mutate(status)
	status.UpdatedAt = time.Now().UTC()
	snapshot := *status
	watchers := append([]func(JobStatus){}, r.watchers...)
	r.mu.Unlock()

	for _, fn := range watchers {
		fn(snapshot)
	}
}
