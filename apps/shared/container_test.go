package shared

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/classboard/core"
	"github.com/trezcool/classboard/core/roster"
	"github.com/trezcool/classboard/storage/database"
	"github.com/trezcool/classboard/tests"
)

func TestOpenKVRepository(t *testing.T) {
	ctx := context.Background()
	engines := []core.DatabaseConfig{
		{Engine: database.EngineInMem},
		{Engine: database.EngineSQLite, Path: ":memory:"},
	}
	for _, dbConf := range engines {
		t.Run(dbConf.Engine, func(t *testing.T) {
			conf := testutil.NewConfig()
			conf.Database = dbConf

			kv, closeKV, err := OpenKVRepository(ctx, conf)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeKV()) }()

			require.NoError(t, kv.Set(ctx, "k", []byte("v")))
			entry, err := kv.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, []byte("v"), entry.Value)
		})
	}
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	c, err := New(ctx, testutil.NewConfig(), testutil.NewLogger())
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	assert.Equal(t, roster.SampleSnapshot(), c.Roster.Snapshot())

	sc, err := c.Settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tests-sheet", sc.TestsSourceID)

	// a saved snapshot is restored by any service reading the same store
	synced := roster.Snapshot{Students: []roster.Student{{StudentID: "S001", StudentName: "A"}}}
	require.NoError(t, c.Persister.Save(ctx, synced))
	restored := roster.NewService(roster.NewStore(roster.Snapshot{}), nil, c.Settings, c.Logger, c.Conf)
	require.NoError(t, restored.Restore(ctx, c.Persister))
	assert.Equal(t, synced.Students, restored.Snapshot().Students)
}

func TestNewLogger(t *testing.T) {
	conf := testutil.NewConfig()
	logger, sync, err := NewLogger(conf)
	require.NoError(t, err)
	assert.NotNil(t, logger)
	_ = sync()
}

func TestContainer_Close_waitsForSync(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		if strings.Contains(r.URL.Path, "/tests-sheet/") {
			_, _ = w.Write([]byte("No,Name,Total\n5,Shwe Sin Phoo,98\n"))
			return
		}
		_, _ = w.Write([]byte("No,Name,Date,Attendance,Mark\n5,Shwe Sin Phoo,2025-04-07,Class,30\n"))
	}))
	defer srv.Close()

	conf := testutil.NewConfig()
	conf.Database = core.DatabaseConfig{Engine: database.EngineSQLite, Path: filepath.Join(t.TempDir(), "classboard.db")}
	conf.Sheets.BaseURL = srv.URL + "/d"
	conf.Sync.Timeout = 5 * time.Second

	c, err := New(context.Background(), conf, testutil.NewLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _, _ = c.Roster.Sync(ctx) }()
	<-started
	cancel() // the caller gives up, the run goes on

	time.AfterFunc(30*time.Millisecond, func() { close(release) })
	require.NoError(t, c.Close())

	// the run committed and was persisted before the store closed
	kv, closeKV, err := OpenKVRepository(context.Background(), conf)
	require.NoError(t, err)
	defer func() { _ = closeKV() }()

	entry, err := kv.Get(context.Background(), core.KeySnapshot)
	require.NoError(t, err)
	var snap roster.Snapshot
	require.NoError(t, json.Unmarshal(entry.Value, &snap))
	if assert.Len(t, snap.Students, 1) {
		assert.Equal(t, "Shwe Sin Phoo", snap.Students[0].StudentName)
	}
}
