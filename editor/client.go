package editor

import (
	"context"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/studio"
)

// JobClient is the editor's view of the generation backend. Implemented
// by StudioClient in-process; tests substitute fakes.
type JobClient interface {
	// CreateJob starts generation for an entry. Errors wrap
	// errors.ErrJobCreation; no job exists when an error is returned.
	CreateJob(ctx context.Context, entryID, style string) (studio.JobStatus, error)

	// JobStatus fetches the current status snapshot. Errors wrap
	// errors.ErrJobQuery; the job itself may still be running.
	JobStatus(ctx context.Context, jobID string) (studio.JobStatus, error)

	// CancelJob asks the backend to stop a job.
	CancelJob(ctx context.Context, jobID string) error
}

// StudioClient adapts the in-process studio service to JobClient.
type StudioClient struct {
	service *studio.Service
}

func NewStudioClient(service *studio.Service) *StudioClient {
	return &StudioClient{service: service}
}

func (c *StudioClient) CreateJob(ctx context.Context, entryID, style string) (studio.JobStatus, error) {
	return c.service.CreateJob(ctx, entryID, style)
}

func (c *StudioClient) JobStatus(ctx context.Context, jobID string) (studio.JobStatus, error) {
	if err := ctx.Err(); err != nil {
		return studio.JobStatus{}, errors.Wrap(errors.ErrJobQuery, err.Error())
	}

	status, err := c.service.Status(jobID)
	if err != nil {
		return studio.JobStatus{}, errors.Wrapf(errors.ErrJobQuery, "job %s: %v", jobID, err)
	}
	return status, nil
}

func (c *StudioClient) CancelJob(_ context.Context, jobID string) error {
	return c.service.Cancel(jobID)
}
