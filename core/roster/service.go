package roster

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/settings"
)

const (
	TestsLabel      = "Tests"
	AttendanceLabel = "Attendance"
)

type (
	// Fetcher retrieves one source table.
	Fetcher interface {
		FetchTable(ctx context.Context, sourceID, label string) (Table, error)
	}

	// SourceProvider returns the source identifiers to sync from. It is read on every sync.
	SourceProvider interface {
		Get(ctx context.Context) (settings.SourceConfig, error)
	}

	// SnapshotLoader returns a previously saved snapshot, or core.ErrKeyNotFound.
	SnapshotLoader interface {
		Load(ctx context.Context) (Snapshot, error)
	}

	SyncResult struct {
		RunID    string        `json:"runId"`
		Snapshot Snapshot      `json:"snapshot"`
		Warnings []string      `json:"warnings"`
		Orphans  []Orphan      `json:"orphans"`
		Duration time.Duration `json:"duration"`
	}

	ServiceInterface interface {
		Sync(ctx context.Context) (SyncResult, error)
		Snapshot() Snapshot
		Status() Status
		Subscribe(fn Subscriber) func()
	}

	Service struct {
		store   *Store
		fetcher Fetcher
		sources SourceProvider
		logger  core.Logger
		timeout time.Duration
		opts    Options
		now     func() time.Time
		group   singleflight.Group
		running sync.WaitGroup
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(store *Store, fetcher Fetcher, sources SourceProvider, logger core.Logger, conf *core.Config) *Service {
	timeout := conf.Sync.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		store:   store,
		fetcher: fetcher,
		sources: sources,
		logger:  logger,
		timeout: timeout,
		opts:    Options{Strict: conf.Sync.Strict},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (svc *Service) Snapshot() Snapshot { return svc.store.Snapshot() }

func (svc *Service) Status() Status { return svc.store.Status() }

func (svc *Service) Subscribe(fn Subscriber) func() { return svc.store.Subscribe(fn) }

// Restore replaces the initial snapshot with the last persisted one, if any.
func (svc *Service) Restore(ctx context.Context, loader SnapshotLoader) error {
	snap, err := loader.Load(ctx)
	if err != nil {
		if errors.Cause(err) == core.ErrKeyNotFound {
			return nil
		}
		return errors.Wrap(err, "loading snapshot")
	}
	svc.store.restore(snap)
	return nil
}

// Sync fetches both sources, normalizes them and commits the new snapshot.
// Calls made while a sync is in flight join it and share its result.
// On failure the previous snapshot is kept.
func (svc *Service) Sync(ctx context.Context) (SyncResult, error) {
	ch := svc.group.DoChan("sync", func() (interface{}, error) {
		svc.running.Add(1)
		defer svc.running.Done()

		// the run outlives the caller that started it; it is bounded by the sync timeout only
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), svc.timeout)
		defer cancel()
		return svc.run(runCtx)
	})

	select {
	case <-ctx.Done():
		return SyncResult{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return SyncResult{}, res.Err
		}
		r := res.Val.(SyncResult)
		r.Snapshot = r.Snapshot.Clone()
		return r, nil
	}
}

// Wait blocks until the sync in flight, if any, has committed or failed.
// Callers that gave up waiting in Sync do not stop the run.
func (svc *Service) Wait() { svc.running.Wait() }

func (svc *Service) run(ctx context.Context) (SyncResult, error) {
	runID := uuid.NewString()
	start := time.Now()
	svc.store.begin(runID)

	res, err := svc.fetchAndNormalize(ctx)
	took := time.Since(start)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			err = errors.Wrapf(ErrSyncTimeout, "after %v (%v)", svc.timeout, err)
		}
		svc.store.fail(runID, err, took)
		svc.logger.Error(fmt.Sprintf("sync %s failed: %v", runID, err), err)
		return SyncResult{}, err
	}

	res.RunID = runID
	res.Duration = took
	res.Snapshot = svc.store.commit(runID, res.Snapshot, res.Warnings, took)
	svc.logger.Info(fmt.Sprintf(
		"sync %s: %d students, %d tests, %d attendance entries in %v",
		runID, len(res.Snapshot.Students), len(res.Snapshot.Tests), len(res.Snapshot.Attendance), took,
	))
	for _, w := range res.Warnings {
		svc.logger.Warn(fmt.Sprintf("sync %s: %s", runID, w))
	}
	return res, nil
}

func (svc *Service) fetchAndNormalize(ctx context.Context) (SyncResult, error) {
	sc, err := svc.sources.Get(ctx)
	if err != nil {
		return SyncResult{}, errors.Wrap(err, "getting source config")
	}

	var testsTbl, attendanceTbl Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		testsTbl, err = svc.fetcher.FetchTable(gctx, sc.TestsSourceID, TestsLabel)
		return err
	})
	g.Go(func() (err error) {
		attendanceTbl, err = svc.fetcher.FetchTable(gctx, sc.AttendanceSourceID, AttendanceLabel)
		return err
	})
	if err = g.Wait(); err != nil {
		return SyncResult{}, errors.Wrap(err, "data sync failed")
	}

	tests, err := NormalizeTests(testsTbl, svc.opts)
	if err != nil {
		return SyncResult{}, errors.Wrap(err, "normalizing tests")
	}
	attendance, err := NormalizeAttendance(attendanceTbl, svc.opts)
	if err != nil {
		return SyncResult{}, errors.Wrap(err, "normalizing attendance")
	}
	students := NormalizeStudents(attendanceTbl)

	var warnings []string
	for _, tbl := range []Table{testsTbl, attendanceTbl} {
		for _, issue := range tbl.Issues {
			warnings = append(warnings, fmt.Sprintf("%s: %s", tbl.Label, issue))
		}
	}

	// sample data only replaces an empty source; rows that were all filtered out stay empty
	if len(testsTbl.Rows) == 0 {
		tests = SampleTests()
		warnings = append(warnings, "Tests source has no rows, using sample tests")
	} else if len(tests) == 0 {
		warnings = append(warnings, fmt.Sprintf("Tests: none of the %d rows has a name", len(testsTbl.Rows)))
	}
	if len(attendanceTbl.Rows) == 0 {
		attendance = SampleAttendance()
		students = SampleStudents()
		warnings = append(warnings, "Attendance source has no rows, using sample attendance and students")
	} else if len(attendance) == 0 {
		warnings = append(warnings, fmt.Sprintf("Attendance: none of the %d rows has a name", len(attendanceTbl.Rows)))
	}

	now := svc.now()
	snap := Snapshot{
		Students:     students,
		Tests:        tests,
		Attendance:   attendance,
		LastSyncedAt: &now,
	}

	orphans := ValidateJoin(snap)
	for _, o := range orphans {
		warnings = append(warnings, o.String())
	}
	return SyncResult{Snapshot: snap, Warnings: warnings, Orphans: orphans}, nil
}
