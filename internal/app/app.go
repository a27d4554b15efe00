package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/five82/wrldshot/internal/config"
	"github.com/five82/wrldshot/internal/history"
	"github.com/five82/wrldshot/internal/hub"
	"github.com/five82/wrldshot/internal/mcpserver"
	"github.com/five82/wrldshot/internal/monitor"
	"github.com/five82/wrldshot/internal/prefs"
	"github.com/five82/wrldshot/internal/server"
	"github.com/five82/wrldshot/internal/session"
	"github.com/five82/wrldshot/internal/shell"
	"github.com/five82/wrldshot/internal/state"
	"github.com/five82/wrldshot/internal/ui"
)

// Options configure the wrldshot application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses ~/.config/wrldshot/prefs.toml
	Headless   bool   // no TUI; log to stderr and run until ctx is cancelled
	NoReplay   bool   // skip the startup replay regardless of config
}

// Run boots the monitor, its network surfaces and, unless headless, the
// TUI. It returns when the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.NoReplay {
		cfg.ReplayOnStart = false
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	store := &state.Store{}
	restoreLog, err := redirectLog(cfg, opts.Headless)
	if err != nil {
		return err
	}
	defer restoreLog()
	logf := traceLogf(store)

	journal, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logf("history disabled: %v", err)
	} else {
		defer journal.Close()
	}

	h := hub.New()
	defer h.Close()

	var (
		sessionJournal session.Journal
		apiHistory     server.HistorySource
		mcpHistory     mcpserver.HistorySource
	)
	if journal != nil {
		sessionJournal, apiHistory, mcpHistory = journal, journal, journal
	}

	proc := session.NewProcessor(session.MultiBridge{store, h}, sessionJournal, cfg.RecentLimit)
	proc.Logf = logf
	mon := monitor.New(monitor.Options{
		Dir:          cfg.LogDir,
		Pattern:      cfg.LogPattern,
		PollInterval: cfg.PollInterval,
		Processor:    proc,
		OnLive:       store.SetWatchedFile,
		OnError: func(err error) {
			logf("%v", err)
			store.ReportFault(err)
		},
		Logf: logf,
	})

	var wg sync.WaitGroup
	goSafe(&wg, store, "monitor", func() error {
		return runMonitor(ctx, cfg, mon, store, logf)
	})
	if cfg.APIBind != "" {
		srv := server.New(cfg.APIBind, store, apiHistory, h)
		goSafe(&wg, store, "status api", func() error {
			return srv.Start(ctx, func(addr string) { log.Printf("status api listening on %s", addr) })
		})
	}
	if cfg.MCPBind != "" {
		svc := mcpserver.New(store, mcpHistory)
		goSafe(&wg, store, "mcp", func() error {
			return svc.Serve(ctx, cfg.MCPBind)
		})
	}

	var runErr error
	if opts.Headless {
		<-ctx.Done()
	} else {
		prefsPath := opts.PrefsPath
		runErr = ui.Run(ctx, ui.Options{
			Store:  store,
			Opener: shell.Opener{},
			Prefs:  prefs.Load(prefsPath),
			SavePrefs: func(p prefs.Prefs) error {
				return prefs.Save(prefsPath, p)
			},
		})
	}

	cancel()
	wg.Wait()
	mon.Stop()
	return runErr
}

// runMonitor replays existing logs, resumes the newest one and then watches
// for new files. When the directory watch cannot be installed it falls back
// to polling the directory.
func runMonitor(ctx context.Context, cfg config.Config, mon *monitor.Monitor, store *state.Store, logf func(string, ...any)) error {
	summary := state.ReplaySummary{Done: true}
	if cfg.ReplayOnStart {
		res := mon.Replay(ctx)
		summary.Files = len(res.Files)
		summary.Failed = res.Failed
		summary.Renamed = res.Stats.Renamed
		logf("replay finished: %d files, %d renamed, %d failed", summary.Files, summary.Renamed, summary.Failed)
	}
	store.SetReplay(summary)
	if ctx.Err() != nil {
		return nil
	}

	seen, err := mon.Discover()
	if err != nil {
		logf("list log directory: %v", err)
	}
	if cfg.FollowLatest {
		mon.FollowLatest(ctx)
	}

	err = mon.Watch(ctx, seen)
	if errors.Is(err, monitor.ErrWatchSetup) {
		store.ReportFault(err)
		logf("%v; polling every %s instead", err, cfg.PollInterval)
		pollDirectory(ctx, mon, cfg.PollInterval, seen)
		return nil
	}
	return err
}

// goSafe runs fn on its own goroutine. Errors and panics are logged and
// recorded on the store instead of taking the process down.
func goSafe(wg *sync.WaitGroup, store *state.Store, name string, fn func() error) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("%s panicked: %v", name, r)
				log.Print(err)
				store.ReportFault(err)
			}
		}()
		if err := fn(); err != nil {
			log.Printf("%s: %v", name, err)
			store.ReportFault(fmt.Errorf("%s: %w", name, err))
		}
	}()
}

// traceLogf logs through the standard logger and mirrors the message into
// the store's trace.
func traceLogf(store *state.Store) func(string, ...any) {
	trace := log.New(state.TraceWriter{Store: store}, "", 0)
	return func(format string, args ...any) {
		log.Printf(format, args...)
		trace.Printf(format, args...)
	}
}

// redirectLog points the standard logger at the trace log file while the
// TUI owns the terminal. The returned func restores the previous output.
func redirectLog(cfg config.Config, headless bool) (func(), error) {
	prev := log.Writer()
	if headless {
		return func() {}, nil
	}
	path := cfg.TraceLogPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(prev)
		_ = f.Close()
	}, nil
}
