package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/roster"
)

// Syncer is satisfied by *roster.Service.
type Syncer interface {
	Sync(ctx context.Context) (roster.SyncResult, error)
}

// Scheduler re-syncs the roster periodically. Failures are logged and the next tick retries.
type Scheduler struct {
	syncer   Syncer
	interval time.Duration
	logger   core.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(syncer Syncer, interval time.Duration, logger core.Logger) *Scheduler {
	return &Scheduler{syncer: syncer, interval: interval, logger: logger}
}

// Start runs the scheduler until ctx is done or Stop is called.
// It does nothing when the interval is not positive or when it is already running.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	s.logger.Info(fmt.Sprintf("scheduler started: syncing every %v", s.interval))
}

// Stop ends the loop and waits for it to exit. A sync in flight keeps running until it
// commits or times out; use roster.Service.Wait to wait for it.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error(fmt.Sprintf("scheduled sync panicked: %v", r))
		}
	}()
	if _, err := s.syncer.Sync(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn(fmt.Sprintf("scheduled sync failed: %v", err))
	}
}
