package editor

import (
	"context"
	"sync"
	"time"

	"github.com/toonana/toonana/errors"
	"github.com/toonana/toonana/studio"
)

// DefaultPollInterval matches config's editor.poll_interval_ms default.
const DefaultPollInterval = 450 * time.Millisecond

// PollerState is the lifecycle of one polling run.
type PollerState int

const (
	StateIdle PollerState = iota
	StatePolling
	StateStopped
)

func (s PollerState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StopReason says why a polling run ended.
type StopReason int

const (
	StopNone StopReason = iota
	// StopTerminal: the job reached done or failed.
	StopTerminal
	// StopCancelled: Cancel was called or the start context ended.
	StopCancelled
	// StopError: a status query failed; the backend job may still run.
	StopError
)

func (r StopReason) String() string {
	switch r {
	case StopTerminal:
		return "terminal"
	case StopCancelled:
		return "cancelled"
	case StopError:
		return "error"
	default:
		return "none"
	}
}

// Update is one observed status, already reduced for display.
type Update struct {
	Status  studio.JobStatus
	Display DisplayState
}

// Poller drives the status poll loop for a single job at a time. One
// goroutine per run issues the queries, so at most one query is ever in
// flight, and a response arriving after cancellation is discarded.
//
// Callbacks run on the poll goroutine and must not call back into the
// poller.
type Poller struct {
	client   JobClient
	interval time.Duration
	onUpdate func(Update)
	onStop   func(StopReason, error)

	mu     sync.Mutex
	state  PollerState
	reason StopReason
	cancel context.CancelFunc
}

// NewPoller builds an idle poller. A non-positive interval falls back to
// DefaultPollInterval. onUpdate and onStop may be nil.
func NewPoller(client JobClient, interval time.Duration, onUpdate func(Update), onStop func(StopReason, error)) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		client:   client,
		interval: interval,
		onUpdate: onUpdate,
		onStop:   onStop,
	}
}

// Start begins polling jobID. Fails if a run is already in progress; a
// stopped poller can be started again for another job.
func (p *Poller) Start(ctx context.Context, jobID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StatePolling {
		return errors.New("poller is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.state = StatePolling
	p.reason = StopNone
	p.cancel = cancel

	go p.loop(runCtx, jobID)
	return nil
}

// Cancel stops the current run and returns immediately, without waiting
// for an in-flight query; cancellation must not be held up by a slow or
// hung backend. The loop discards any response that lands afterwards,
// so no update is applied after Cancel. Cancelling an idle or stopped
// poller is a no-op.
func (p *Poller) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StatePolling {
		return
	}
	p.cancel()
}

// State returns the current lifecycle state and, once stopped, why.
func (p *Poller) State() (PollerState, StopReason) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.reason
}

func (p *Poller) loop(ctx context.Context, jobID string) {
	timer := time.NewTimer(0) // first query goes out immediately
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.finish(StopCancelled, nil)
			return
		case <-timer.C:
		}

		status, err := p.client.JobStatus(ctx, jobID)

		// A response that lands after cancellation is stale; drop it
		// without observing either the status or the error.
		if ctx.Err() != nil {
			p.finish(StopCancelled, nil)
			return
		}

		if err != nil {
			p.finish(StopError, errors.Wrapf(errors.ErrJobQuery, "poll job %s: %v", jobID, err))
			return
		}

		if p.onUpdate != nil {
			p.onUpdate(Update{Status: status, Display: ReduceStage(status.Stage)})
		}

		if status.Stage.Terminal() {
			p.finish(StopTerminal, nil)
			return
		}

		timer.Reset(p.interval)
	}
}

func (p *Poller) finish(reason StopReason, err error) {
	p.mu.Lock()
	p.state = StateStopped
	p.reason = reason
	p.cancel = nil
	p.mu.Unlock()

	if p.onStop != nil {
		p.onStop(reason, err)
	}
}
