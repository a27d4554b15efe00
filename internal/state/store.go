package state

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/five82/wrldshot/internal/events"
	"github.com/five82/wrldshot/internal/session"
)

const defaultTraceLimit = 200

// TraceLine is one progress trace message.
type TraceLine struct {
	At   time.Time
	Text string
}

// ReplaySummary reports the startup replay.
type ReplaySummary struct {
	Done    bool
	Files   int
	Failed  int
	Renamed int
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	WorldID     string
	HasWorld    bool
	Recent      []string // newest first
	WatchedFile string
	Replay      ReplaySummary
	Trace       []TraceLine
	LastFault   error
	Faults      int
	LastUpdated time.Time
}

// WorldURL returns the page of the current world, or "" when unknown.
func (s Snapshot) WorldURL() string {
	if !s.HasWorld {
		return ""
	}
	return events.WorldURL(s.WorldID)
}

// Store coordinates concurrent updates to the snapshot. It is the bridge
// between tail goroutines and the UI.
type Store struct {
	mu         sync.RWMutex
	snapshot   Snapshot
	traceLimit int
	watchers   []chan struct{}
}

var _ session.Bridge = (*Store)(nil)

// OnContextChanged records the world of the live session.
func (s *Store) OnContextChanged(worldID string) {
	s.update(func(snap *Snapshot) {
		snap.WorldID = worldID
		snap.HasWorld = true
	})
}

// OnRenamed replaces the recently renamed list.
func (s *Store) OnRenamed(newestFirst []string) {
	s.update(func(snap *Snapshot) {
		snap.Recent = slices.Clone(newestFirst)
	})
}

// SetWatchedFile records the file the live tail is reading. A new file
// starts a new session, so the world and recent list are cleared.
func (s *Store) SetWatchedFile(path string) {
	s.update(func(snap *Snapshot) {
		snap.WatchedFile = path
		snap.WorldID = ""
		snap.HasWorld = false
		snap.Recent = nil
	})
}

// SetReplay records the outcome of the startup replay.
func (s *Store) SetReplay(r ReplaySummary) {
	s.update(func(snap *Snapshot) {
		snap.Replay = r
	})
}

// ReportFault records an unexpected failure so the UI can surface it.
func (s *Store) ReportFault(err error) {
	if err == nil {
		return
	}
	s.update(func(snap *Snapshot) {
		snap.LastFault = err
		snap.Faults++
	})
}

// AddTrace appends a progress line, dropping the oldest beyond the limit.
func (s *Store) AddTrace(text string) {
	text = strings.TrimRight(text, "\r\n")
	if text == "" {
		return
	}
	s.update(func(snap *Snapshot) {
		limit := s.traceLimit
		if limit <= 0 {
			limit = defaultTraceLimit
		}
		snap.Trace = append(snap.Trace, TraceLine{At: time.Now(), Text: text})
		if over := len(snap.Trace) - limit; over > 0 {
			snap.Trace = slices.Delete(snap.Trace, 0, over)
		}
	})
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Recent = slices.Clone(s.snapshot.Recent)
	snap.Trace = slices.Clone(s.snapshot.Trace)
	if s.snapshot.LastFault != nil {
		snap.LastFault = fmt.Errorf("%w", s.snapshot.LastFault)
	}
	return snap
}

// Changes returns a channel that receives a value after updates. Bursts of
// updates coalesce into a single signal.
func (s *Store) Changes() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snapshot)
	s.snapshot.LastUpdated = time.Now()
	watchers := s.watchers
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// TraceWriter adapts the store to an io.Writer so log output lands in the
// trace. Each written chunk may hold several newline-separated lines.
type TraceWriter struct {
	Store *Store
}

func (w TraceWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		w.Store.AddTrace(line)
	}
	return len(p), nil
}
