package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/core/roster"
)

func TestSyncRecorder(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	r, err := NewSyncRecorder(reg)
	require.NoError(t, err)

	synced := time.Unix(1744100000, 0)
	snap := roster.SampleSnapshot()
	snap.LastSyncedAt = &synced

	r.Handle(roster.Event{Kind: roster.SyncStarted, RunID: "r1"})
	assert.Equal(t, 1.0, testutil.ToFloat64(r.inProgress))

	r.Handle(roster.Event{Kind: roster.SyncSucceeded, RunID: "r1", Snapshot: snap, Duration: time.Second, Warnings: []string{"w"}})
	r.Handle(roster.Event{
		Kind:     roster.SyncFailed,
		RunID:    "r2",
		Err:      errors.Wrap(&roster.FetchError{Kind: roster.AccessDenied, Label: "Tests", Status: 404}, "data sync failed"),
		Duration: 2 * time.Second,
	})

	assert.Equal(t, 0.0, testutil.ToFloat64(r.inProgress))
	assert.Equal(t, float64(synced.Unix()), testutil.ToFloat64(r.lastOK))
	assert.Equal(t, float64(len(snap.Students)), testutil.ToFloat64(r.rows.WithLabelValues("students")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.warnings))

	want := `
# HELP classboard_sync_runs_total Finished roster syncs by result and failure kind.
# TYPE classboard_sync_runs_total counter
classboard_sync_runs_total{kind="",result="success"} 1
classboard_sync_runs_total{kind="AccessDenied",result="failure"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(want), "classboard_sync_runs_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(r.duration))
}

func TestNewSyncRecorder_twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewSyncRecorder(reg)
	require.NoError(t, err)
	_, err = NewSyncRecorder(reg)
	assert.Error(t, err)
}
