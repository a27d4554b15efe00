package monitor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/five82/wrldshot/internal/logtail"
	"github.com/five82/wrldshot/internal/session"
)

// DefaultPattern matches the application's log file names.
const DefaultPattern = "output_log_*.txt"

var (
	// ErrWatchSetup reports that the directory watch could not be installed.
	ErrWatchSetup = errors.New("watch log directory")
	// ErrTailPanic reports a panic while processing a log file. The tail
	// that hit it is stopped; the monitor keeps running.
	ErrTailPanic = errors.New("log tail panicked")
)

// Options configure a Monitor.
type Options struct {
	Dir          string
	Pattern      string        // empty uses DefaultPattern
	PollInterval time.Duration // live-mode EOF backoff; zero uses logtail default
	Processor    *session.Processor

	OnLive  func(path string) // called when a live tail starts reading
	OnError func(error)       // non-fatal failures; nil logs them
	Logf    func(format string, args ...any)
}

// Monitor replays existing log files and hands off the live tail to each
// newly created one. At most one live tail runs at a time.
type Monitor struct {
	opts Options

	mu      sync.Mutex
	current *handle
	tails   sync.WaitGroup
}

// handle is the single active live tail.
type handle struct {
	path   string
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Monitor. It does not touch the filesystem.
func New(opts Options) *Monitor {
	if opts.Pattern == "" {
		opts.Pattern = DefaultPattern
	}
	if opts.Processor == nil {
		opts.Processor = session.NewProcessor(nil, nil, 0)
	}
	return &Monitor{opts: opts}
}

// Matches reports whether name (a path or base name) is a log file.
func (m *Monitor) Matches(name string) bool {
	ok, err := doublestar.Match(m.opts.Pattern, filepath.Base(name))
	return err == nil && ok
}

// Discover lists existing log files in the directory, in name order.
func (m *Monitor) Discover() ([]string, error) {
	names, err := doublestar.Glob(os.DirFS(m.opts.Dir), m.opts.Pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("list log files: %w", err)
	}
	slices.Sort(names)
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, filepath.Join(m.opts.Dir, filepath.FromSlash(name)))
	}
	return paths, nil
}

// ReplayResult summarises a startup replay.
type ReplayResult struct {
	Files  []string
	Failed int
	Stats  session.Stats
}

// Replay runs a historical session over every existing log file, one after
// another, without notifications. Failures are reported and skipped.
func (m *Monitor) Replay(ctx context.Context) ReplayResult {
	var result ReplayResult
	paths, err := m.Discover()
	if err != nil {
		m.report(err)
		return result
	}
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		stats, err := m.ReplayFile(ctx, path)
		if err != nil {
			result.Failed++
			m.report(err)
			continue
		}
		result.Files = append(result.Files, path)
		result.Stats = addStats(result.Stats, stats)
	}
	return result
}

// ReplayFile runs one historical session over path and blocks until the
// file has been read to its current end.
func (m *Monitor) ReplayFile(ctx context.Context, path string) (session.Stats, error) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	var openErr error
	lines := logtail.Tail(ctx, path, logtail.Options{
		Mode: logtail.Historical,
		OnError: func(err error) {
			if errors.Is(err, logtail.ErrOpen) {
				openErr = err
				return
			}
			m.report(err)
		},
	})
	stats, err := m.process(ctx, path, lines, false)
	if err != nil {
		stop()
	}
	drain(lines)
	if err != nil {
		return stats, err
	}
	if openErr != nil {
		return stats, openErr
	}
	m.logf("replayed %s: %d lines, %d renamed, %d skipped", filepath.Base(path), stats.Lines, stats.Renamed, stats.Skipped)
	return stats, nil
}

// FollowLatest starts a live tail on the newest existing log file, if any.
// It reports whether a tail was started.
func (m *Monitor) FollowLatest(ctx context.Context) bool {
	paths, err := m.Discover()
	if err != nil {
		m.report(err)
		return false
	}
	if len(paths) == 0 {
		return false
	}
	m.Handoff(ctx, paths[len(paths)-1])
	return true
}

// Watch installs the directory watch and hands off to every newly created
// log file until ctx is cancelled. known lists the files that existed
// before; once the watch is in place, the newest file missing from known
// is handed off so a log created in between is not lost. It returns an
// ErrWatchSetup error when the watch cannot be installed; otherwise it
// returns nil after all tails stop.
func (m *Monitor) Watch(ctx context.Context, known []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatchSetup, err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(m.opts.Dir); err != nil {
		return fmt.Errorf("%w %s: %v", ErrWatchSetup, m.opts.Dir, err)
	}
	m.logf("watching %s for %s", m.opts.Dir, m.opts.Pattern)

	defer m.Stop()
	m.catchUp(ctx, known)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) || !m.Matches(event.Name) {
				continue
			}
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				continue
			}
			if m.Current() == event.Name {
				continue
			}
			m.logf("new log file %s", filepath.Base(event.Name))
			m.Handoff(ctx, event.Name)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.report(fmt.Errorf("watcher: %w", err))
		}
	}
}

// catchUp hands off to the newest log file that is not in known.
func (m *Monitor) catchUp(ctx context.Context, known []string) {
	paths, err := m.Discover()
	if err != nil {
		m.report(err)
		return
	}
	if len(paths) == 0 {
		return
	}
	newest := paths[len(paths)-1]
	if slices.Contains(known, newest) || newest == m.Current() {
		return
	}
	m.logf("new log file %s", filepath.Base(newest))
	m.Handoff(ctx, newest)
}

// Handoff cancels the current live tail, if any, and starts a new one on
// path. It returns without waiting: the new tail waits for the previous one
// to finish before it begins reading. A tail superseded before it starts
// still waits for its predecessor before it reports done, so tails never
// overlap however fast handoffs arrive.
func (m *Monitor) Handoff(ctx context.Context, path string) {
	tailCtx, cancel := context.WithCancel(ctx)
	next := &handle{path: path, cancel: cancel, done: make(chan struct{})}

	m.mu.Lock()
	prev := m.current
	m.current = next
	m.mu.Unlock()

	if prev != nil {
		prev.cancel()
	}

	m.tails.Add(1)
	go func() {
		defer m.tails.Done()
		defer close(next.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				m.report(fmt.Errorf("%w on %s: %v", ErrTailPanic, filepath.Base(path), r))
			}
		}()

		if prev != nil {
			// prev is already cancelled, so this only waits for it to exit.
			<-prev.done
		}
		if tailCtx.Err() != nil {
			return
		}
		m.live(tailCtx, path)
	}()
}

func (m *Monitor) live(ctx context.Context, path string) {
	ctx, stop := context.WithCancel(ctx)
	defer stop()

	if m.opts.OnLive != nil {
		m.opts.OnLive(path)
	}
	m.logf("tailing %s", filepath.Base(path))
	lines := logtail.Tail(ctx, path, logtail.Options{
		Mode:         logtail.Live,
		PollInterval: m.opts.PollInterval,
		OnError:      m.report,
	})
	stats, err := m.process(ctx, path, lines, true)
	if err != nil {
		m.report(err)
		stop()
	}
	// Wait for the reader to release the file before reporting done.
	drain(lines)
	m.logf("stopped tailing %s: %d lines, %d renamed", filepath.Base(path), stats.Lines, stats.Renamed)
}

// process runs the session over lines. A panic in the processor, renamer or
// bridge comes back as an ErrTailPanic error.
func (m *Monitor) process(ctx context.Context, path string, lines <-chan logtail.Line, notify bool) (stats session.Stats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w on %s: %v", ErrTailPanic, filepath.Base(path), r)
		}
	}()
	return m.opts.Processor.Run(ctx, path, lines, notify), nil
}

// Current returns the path of the active live tail, or "".
func (m *Monitor) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return ""
	}
	return m.current.path
}

// Stop cancels the live tail and waits for every tail goroutine to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cur := m.current
	m.current = nil
	m.mu.Unlock()
	if cur != nil {
		cur.cancel()
	}
	m.tails.Wait()
}

func (m *Monitor) report(err error) {
	if m.opts.OnError != nil {
		m.opts.OnError(err)
		return
	}
	m.logf("%v", err)
}

func (m *Monitor) logf(format string, args ...any) {
	if m.opts.Logf != nil {
		m.opts.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

func drain(lines <-chan logtail.Line) {
	for range lines {
	}
}

func addStats(a, b session.Stats) session.Stats {
	a.Lines += b.Lines
	a.Joins += b.Joins
	a.Screenshots += b.Screenshots
	a.Renamed += b.Renamed
	a.Skipped += b.Skipped
	a.Failed += b.Failed
	a.Uncorrelated += b.Uncorrelated
	return a
}
