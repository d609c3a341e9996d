package jobclient

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Sumatoshi-tech/dendrotime/pkg/progress"
)

// Default polling timings.
const (
	DefaultPollInterval = 200 * time.Millisecond
	DefaultFinishGrace  = 500 * time.Millisecond
)

// Handler receives each snapshot. Calls are sequential, so at most one
// snapshot per job is processed at a time.
type Handler func(ctx context.Context, snap *progress.Snapshot) error

// Poller fetches job progress at a fixed interval.
type Poller struct {
	client      *Client
	logger      *slog.Logger
	interval    time.Duration
	finishGrace time.Duration
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithFinishGrace sets the delay between the finished snapshot and the stop request.
func WithFinishGrace(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d >= 0 {
			p.finishGrace = d
		}
	}
}

// WithPollerLogger sets the poller logger.
func WithPollerLogger(logger *slog.Logger) PollerOption {
	return func(p *Poller) {
		p.logger = logger
	}
}

// NewPoller creates a poller backed by client.
func NewPoller(client *Client, opts ...PollerOption) *Poller {
	p := &Poller{
		client:      client,
		logger:      client.logger,
		interval:    DefaultPollInterval,
		finishGrace: DefaultFinishGrace,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run polls jobID until the job finishes, the context ends, or a request or
// the handler fails. Failed requests are not retried. After a finished
// snapshot the job is released with a stop request.
func (p *Poller) Run(ctx context.Context, jobID int64, handle Handler) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		done, err := p.poll(ctx, jobID, handle)
		if err != nil {
			return err
		}

		if done {
			return p.release(ctx, jobID)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Poller) poll(ctx context.Context, jobID int64, handle Handler) (bool, error) {
	snap, err := p.client.Progress(ctx, jobID)
	if err != nil {
		return false, fmt.Errorf("poll job %d: %w", jobID, err)
	}

	if snap == nil {
		return false, nil
	}

	err = handle(ctx, snap)
	if err != nil {
		return false, fmt.Errorf("handle snapshot of job %d: %w", jobID, err)
	}

	return snap.Finished(), nil
}

func (p *Poller) release(ctx context.Context, jobID int64) error {
	p.logger.InfoContext(ctx, "job finished", "job", jobID)

	timer := time.NewTimer(p.finishGrace)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	err := p.client.Stop(ctx, jobID)
	if err != nil {
		return fmt.Errorf("stop job %d: %w", jobID, err)
	}

	return nil
}
