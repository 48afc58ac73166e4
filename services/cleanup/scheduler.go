package cleanup

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tech-arch1tect/authcore/services/logging"
	"github.com/tech-arch1tect/authcore/services/metrics"
	"go.uber.org/zap"
)

var ErrAlreadyRunning = errors.New("cleanup scheduler already running")

// Purger deletes expired refresh tokens and those revoked more than
// retention ago.
type Purger interface {
	Cleanup(ctx context.Context, retention time.Duration) (int64, error)
}

type Scheduler struct {
	purger    Purger
	interval  time.Duration
	retention time.Duration
	logger    *logging.Service
	metrics   *metrics.Recorder

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	pass   sync.Mutex
}

func NewScheduler(purger Purger, interval, retention time.Duration, logger *logging.Service, recorder *metrics.Recorder) *Scheduler {
	return &Scheduler{
		purger:    purger,
		interval:  interval,
		retention: retention,
		logger:    logger,
		metrics:   recorder,
	}
}

// Start launches the ticker loop. A zero interval disables the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.interval <= 0 {
		s.logger.Info("refresh token cleanup disabled")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return ErrAlreadyRunning
	}

	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.loop(loopCtx, s.done)

	s.logger.Info("started refresh token cleanup scheduler",
		zap.Duration("interval", s.interval),
		zap.Duration("retention", s.retention))

	return nil
}

func (s *Scheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Stop cancels the loop, not a running pass.
			_, _ = s.RunOnce(context.WithoutCancel(ctx))
		}
	}
}

// Stop cancels the loop and waits for an in-flight pass, or for ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()

	select {
	case <-done:
		s.logger.Info("stopped refresh token cleanup scheduler")
		return nil
	case <-ctx.Done():
		s.logger.Warn("cleanup pass still running at shutdown", zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

// RunOnce performs a single cleanup pass. Passes never overlap.
func (s *Scheduler) RunOnce(ctx context.Context) (int64, error) {
	s.pass.Lock()
	defer s.pass.Unlock()

	started := time.Now()
	deleted, err := s.purger.Cleanup(ctx, s.retention)
	if err != nil {
		s.metrics.CleanupFailed()
		s.logger.Error("refresh token cleanup failed", zap.Error(err))
		return 0, err
	}

	took := time.Since(started)
	s.metrics.CleanupCompleted(deleted, took)
	s.logger.Debug("refresh token cleanup pass finished",
		zap.Int64("deleted", deleted),
		zap.Duration("took", took))

	return deleted, nil
}
