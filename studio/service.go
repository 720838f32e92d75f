package studio

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/journal"
	"github.com/toonana/toonana/logger"
	"github.com/toonana/toonana/studio/provider"
)

// Service creates and tracks comic generation jobs. One goroutine runs
// per job; its lifecycle is bounded by the service's base context and
// the per-job cancel handle kept in the registry.
type Service struct {
	registry  *Registry
	store     *journal.Store
	text      provider.TextGenerator
	renderer  provider.ImageRenderer
	imagesDir string
	style     string

	baseCtx context.Context
	wg      sync.WaitGroup
}

// NewService wires the studio. baseCtx bounds all job pipelines; cancel
// it to stop every running job.
func NewService(baseCtx context.Context, store *journal.Store, text provider.TextGenerator, renderer provider.ImageRenderer, imagesDir, defaultStyle string) *Service {
	return &Service{
		registry:  NewRegistry(),
		store:     store,
		text:      text,
		renderer:  renderer,
		imagesDir: imagesDir,
		style:     defaultStyle,
		baseCtx:   baseCtx,
	}
}

// Registry exposes the job registry for status watchers.
func (s *Service) Registry() *Registry {
	return s.registry
}

// CreateJob validates the entry and starts a generation pipeline.
// Returns ErrJobCreation when no job could be started; no job is
// registered in that case.
func (s *Service) CreateJob(ctx context.Context, entryID, style string) (JobStatus, error) {
	entry, err := s.store.Get(ctx, entryID)
	if err != nil {
		return JobStatus{}, errors.Wrapf(errors.ErrJobCreation, "load entry %s: %v", entryID, err)
	}
	if entry.Body == "" {
		return JobStatus{}, errors.Wrapf(errors.ErrJobCreation, "entry %s has an empty body", entryID)
	}

	if style == "" {
		style = s.style
	}

	jobID := uuid.NewString()
	jobCtx, cancel := context.WithCancel(s.baseCtx)
	status := s.registry.Create(jobID, entryID, style, cancel)

	logger.Infow("generation job created",
		logger.FieldJobID, jobID,
		logger.FieldEntryID, entryID,
		logger.FieldStyle, style)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		s.run(jobCtx, jobID, entry, style)
	}()

	return status, nil
}

// Status returns a snapshot of a job, or ErrJobNotFound.
func (s *Service) Status(jobID string) (JobStatus, error) {
	return s.registry.Get(jobID)
}

// Cancel stops a running job. The pipeline publishes the terminal failed
// stage itself once it unwinds.
func (s *Service) Cancel(jobID string) error {
	if err := s.registry.Cancel(jobID); err != nil {
		return err
	}
	logger.Infow("generation job cancelled", logger.FieldJobID, jobID)
	return nil
}

// Shutdown waits for running pipelines to unwind, up to ctx's deadline.
// Callers cancel the base context first.
func (s *Service) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "studio shutdown")
	}
}
