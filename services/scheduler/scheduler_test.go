package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/classboard/core/roster"
	"github.com/trezcool/classboard/tests"
)

type countingSyncer struct {
	calls int32
	err   error
}

func (c *countingSyncer) Sync(context.Context) (roster.SyncResult, error) {
	atomic.AddInt32(&c.calls, 1)
	return roster.SyncResult{}, c.err
}

func TestScheduler(t *testing.T) {
	syncer := &countingSyncer{err: errors.New("source unreachable")}
	logger := testutil.NewLogger()
	s := New(syncer, 10*time.Millisecond, logger)

	s.Start(context.Background())
	s.Start(context.Background()) // no-op
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&syncer.calls) >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	calls := atomic.LoadInt32(&syncer.calls)
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, atomic.LoadInt32(&syncer.calls), "syncs ran after Stop()")
	assert.GreaterOrEqual(t, logger.Count("WARN"), 2)
}

func TestScheduler_disabled(t *testing.T) {
	syncer := new(countingSyncer)
	s := New(syncer, 0, testutil.NewLogger())
	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()
	assert.Zero(t, atomic.LoadInt32(&syncer.calls))
}

func TestScheduler_contextCancel(t *testing.T) {
	syncer := new(countingSyncer)
	s := New(syncer, 5*time.Millisecond, testutil.NewLogger())
	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() { s.Stop(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop() did not return after the context was cancelled")
	}
}
