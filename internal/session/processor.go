package session

import (
	"context"
	"log"
	"time"

	"github.com/five82/wrldshot/internal/events"
	"github.com/five82/wrldshot/internal/logtail"
	"github.com/five82/wrldshot/internal/rename"
)

// Renamer moves a screenshot to its world-tagged name.
type Renamer interface {
	Rename(path, worldID string) rename.Result
}

// Bridge receives session updates destined for a UI. Implementations must
// hand the data over to their own goroutine or lock; they are called from
// the tail goroutine.
type Bridge interface {
	OnContextChanged(worldID string)
	OnRenamed(newestFirst []string)
}

// Entry describes one successful rename for the journal.
type Entry struct {
	ID         string
	Source     string
	Target     string
	WorldID    string
	LogFile    string
	Historical bool
	At         time.Time
}

// Journal persists successful renames.
type Journal interface {
	Record(ctx context.Context, e Entry) error
}

// Stats summarises one Run.
type Stats struct {
	Lines        int
	Joins        int
	Screenshots  int
	Renamed      int
	Skipped      int
	Failed       int
	Uncorrelated int // screenshots seen before any join
}

// Processor drives sessions from tailed lines.
type Processor struct {
	Renamer     Renamer
	Bridge      Bridge  // optional
	Journal     Journal // optional
	RecentLimit int
	Logf        func(format string, args ...any) // nil uses log.Printf
}

// NewProcessor returns a Processor using the filesystem rename engine.
func NewProcessor(bridge Bridge, journal Journal, recentLimit int) *Processor {
	return &Processor{
		Renamer:     rename.Func(rename.Rename),
		Bridge:      bridge,
		Journal:     journal,
		RecentLimit: recentLimit,
	}
}

// Run consumes lines for logFile until the channel closes or ctx is
// cancelled. Bridge notifications are only sent when notify is true. The
// session state is discarded when Run returns.
func (p *Processor) Run(ctx context.Context, logFile string, lines <-chan logtail.Line, notify bool) Stats {
	s := New(logFile, p.RecentLimit)
	var stats Stats
	for {
		if ctx.Err() != nil {
			return stats
		}
		select {
		case <-ctx.Done():
			return stats
		case line, ok := <-lines:
			if !ok {
				return stats
			}
			stats.Lines++
			ev, ok := events.Classify(line.Text)
			if !ok {
				continue
			}
			p.apply(ctx, s, ev, notify, &stats)
		}
	}
}

func (p *Processor) apply(ctx context.Context, s *Session, ev events.Event, notify bool, stats *Stats) {
	switch ev.Kind {
	case events.WorldJoined:
		stats.Joins++
		s.setWorld(ev.WorldID)
		p.logf("joined world %s", ev.WorldID)
		if notify && p.Bridge != nil {
			p.Bridge.OnContextChanged(ev.WorldID)
		}

	case events.ScreenshotTaken:
		stats.Screenshots++
		p.logf("screenshot taken to %s", ev.Path)
		worldID, ok := s.World()
		if !ok {
			stats.Uncorrelated++
			p.logf("no world joined yet in %s; leaving %s untouched", s.LogFile, ev.Path)
			return
		}

		res := p.Renamer.Rename(ev.Path, worldID)
		switch res.Status {
		case rename.Renamed:
			stats.Renamed++
			p.logf("moved %s to %s", ev.Path, res.NewPath)
			s.push(res.NewPath)
			p.record(ctx, s, res, worldID, notify)
			if notify && p.Bridge != nil {
				p.Bridge.OnRenamed(s.Recent())
			}
		case rename.Skipped:
			stats.Skipped++
			p.logf("screenshot %s no longer exists; skipping", ev.Path)
		default:
			stats.Failed++
			p.logf("rename failed: %v", res.Err)
		}
	}
}

func (p *Processor) record(ctx context.Context, s *Session, res rename.Result, worldID string, notify bool) {
	if p.Journal == nil {
		return
	}
	entry := Entry{
		Source:     res.Source,
		Target:     res.NewPath,
		WorldID:    worldID,
		LogFile:    s.LogFile,
		Historical: !notify,
		At:         time.Now(),
	}
	// The move already happened; record it even if the tail is being cancelled.
	if err := p.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
		p.logf("journal write failed: %v", err)
	}
}

func (p *Processor) logf(format string, args ...any) {
	if p.Logf != nil {
		p.Logf(format, args...)
		return
	}
	log.Printf(format, args...)
}

// MultiBridge forwards every notification to each bridge in order.
type MultiBridge []Bridge

func (m MultiBridge) OnContextChanged(worldID string) {
	for _, b := range m {
		b.OnContextChanged(worldID)
	}
}

func (m MultiBridge) OnRenamed(newestFirst []string) {
	for _, b := range m {
		b.OnRenamed(newestFirst)
	}
}
