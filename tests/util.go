package testutil

import (
	"fmt"
	"sync"
	"testing"

	"github.com/trezcool/classboard/core"
	inmemdb "github.com/trezcool/classboard/storage/database/inmem"
)

// Logger records log lines instead of printing them.
type Logger struct {
	mu    sync.Mutex
	Lines []string
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger { return new(Logger) }

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Lines = append(l.Lines, fmt.Sprintf("%s: %s", level, msg))
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }

// Count returns how many lines were logged at level.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, line := range l.Lines {
		if len(line) > len(level) && line[:len(level)] == level {
			n++
		}
	}
	return n
}

// NewKVRepository returns an empty in-memory KV store.
func NewKVRepository(t *testing.T) core.KVRepository {
	db, err := inmemdb.Open()
	if err != nil {
		t.Fatalf("NewKVRepository() failed: %v", err)
	}
	return inmemdb.NewKVRepository(db)
}

// NewConfig returns the config used by tests: in-memory storage, no external services.
func NewConfig() *core.Config {
	return &core.Config{
		AppName:          "Classboard",
		Env:              "TEST",
		TestMode:         true,
		DefaultFromEmail: "noreply@classboard.test",
		InstructorEmail:  "instructor@classboard.test",
		Database:         core.DatabaseConfig{Engine: "inmem"},
		Sheets: core.SheetsConfig{
			TestsSourceID:      "tests-sheet",
			AttendanceSourceID: "attendance-sheet",
		},
		AI: core.AIConfig{Language: "Myanmar"},
	}
}
