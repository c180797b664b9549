package roster

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

type EventKind string

const (
	SyncStarted   EventKind = "started"
	SyncSucceeded EventKind = "succeeded"
	SyncFailed    EventKind = "failed"
)

type (
	// Event is delivered to subscribers on every sync state change.
	Event struct {
		Kind     EventKind
		RunID    string
		Snapshot Snapshot // the committed snapshot, SyncSucceeded only
		Err      error    // SyncFailed only
		Duration time.Duration
		Warnings []string
	}

	// StatusError is the user-visible form of the last sync failure.
	StatusError struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}

	Status struct {
		Loading      bool         `json:"loading"`
		LastSyncedAt *time.Time   `json:"lastSyncedAt"`
		LastError    *StatusError `json:"lastError"`
		LastRunID    string       `json:"lastRunId"`
		Warnings     []string     `json:"warnings"`
	}

	Subscriber func(Event)

	// Store holds the current snapshot. Readers get deep copies; the sync Service is the only writer.
	Store struct {
		mu     sync.RWMutex
		snap   Snapshot
		status Status

		subsMu sync.Mutex
		subs   map[int]Subscriber
		nextID int
	}
)

func NewStore(initial Snapshot) *Store {
	s := &Store{
		snap: initial.Clone(),
		subs: make(map[int]Subscriber),
	}
	s.snap.Loading = false
	s.status.LastSyncedAt = copyTime(initial.LastSyncedAt)
	return s
}

// Snapshot returns a deep copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.LastSyncedAt = copyTime(s.status.LastSyncedAt)
	if s.status.LastError != nil {
		e := *s.status.LastError
		st.LastError = &e
	}
	st.Warnings = append([]string(nil), s.status.Warnings...)
	return st
}

// Subscribe registers fn for sync events and returns a function that removes it.
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) publish(ev Event) {
	s.subsMu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}

func (s *Store) begin(runID string) {
	s.mu.Lock()
	s.snap.Loading = true
	s.status.Loading = true
	s.status.LastRunID = runID
	s.mu.Unlock()

	s.publish(Event{Kind: SyncStarted, RunID: runID})
}

func (s *Store) commit(runID string, snap Snapshot, warnings []string, took time.Duration) Snapshot {
	s.mu.Lock()
	s.snap = snap.Clone()
	s.snap.Loading = false
	s.status.Loading = false
	s.status.LastSyncedAt = copyTime(snap.LastSyncedAt)
	s.status.LastError = nil
	s.status.Warnings = append([]string(nil), warnings...)
	committed := s.snap.Clone()
	s.mu.Unlock()

	s.publish(Event{Kind: SyncSucceeded, RunID: runID, Snapshot: committed.Clone(), Duration: took, Warnings: warnings})
	return committed
}

func (s *Store) fail(runID string, err error, took time.Duration) {
	s.mu.Lock()
	s.snap.Loading = false
	s.status.Loading = false
	s.status.LastError = statusError(err)
	s.mu.Unlock()

	s.publish(Event{Kind: SyncFailed, RunID: runID, Err: err, Duration: took})
}

// restore replaces the snapshot outside of a sync, at startup.
func (s *Store) restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.Clone()
	s.snap.Loading = false
	s.status.LastSyncedAt = copyTime(snap.LastSyncedAt)
}

func statusError(err error) *StatusError {
	return &StatusError{Kind: ErrorKind(err), Message: err.Error()}
}

// ErrorKind classifies a sync failure: a FetchErrorKind, "ParseError", "Timeout" or "Internal".
func ErrorKind(err error) string {
	if fe, ok := AsFetchError(err); ok {
		return string(fe.Kind)
	} else if _, ok := asRowError(err); ok {
		return "ParseError"
	} else if errors.Is(err, ErrSyncTimeout) {
		return "Timeout"
	}
	return "Internal"
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
