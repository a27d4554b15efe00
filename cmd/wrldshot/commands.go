package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/five82/wrldshot/internal/app"
	"github.com/five82/wrldshot/internal/client"
	"github.com/five82/wrldshot/internal/config"
	"github.com/five82/wrldshot/internal/history"
	"github.com/five82/wrldshot/internal/monitor"
	"github.com/five82/wrldshot/internal/session"
)

type rootFlags struct {
	configPath string
	headless   bool
	noReplay   bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "wrldshot",
		Short: "Tag VRChat screenshots with the world they were taken in",
		Long: `wrldshot follows the VRChat output logs, remembers which world you joined
and renames every screenshot to <name>_wrld_<id><ext> as it is taken.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			headless := flags.headless || !term.IsTerminal(int(os.Stdout.Fd()))
			return app.Run(cmd.Context(), app.Options{
				ConfigPath: flags.configPath,
				Headless:   headless,
				NoReplay:   flags.noReplay,
			})
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")
	root.Flags().BoolVar(&flags.headless, "headless", false, "run without the terminal UI, logging to stderr")
	root.Flags().BoolVar(&flags.noReplay, "no-replay", false, "skip replaying existing log files at startup")

	root.AddCommand(newReplayCmd(flags), newStatusCmd(flags), newHistoryCmd(flags))
	return root
}

func newReplayCmd(flags *rootFlags) *cobra.Command {
	var noJournal bool
	cmd := &cobra.Command{
		Use:   "replay FILE...",
		Short: "Rename the screenshots recorded in existing log files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			var journal session.Journal
			if !noJournal {
				store, err := history.Open(cfg.HistoryPath())
				if err != nil {
					return err
				}
				defer store.Close()
				journal = store
			}
			out := cmd.OutOrStdout()
			proc := session.NewProcessor(nil, journal, cfg.RecentLimit)
			proc.Logf = quietLogf
			mon := monitor.New(monitor.Options{
				Dir:       cfg.LogDir,
				Pattern:   cfg.LogPattern,
				Processor: proc,
				OnError:   func(err error) { fmt.Fprintf(cmd.ErrOrStderr(), "%v\n", err) },
				Logf:      quietLogf,
			})
			return replayFiles(cmd.Context(), out, mon, args)
		},
	}
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record renames in the history database")
	return cmd
}

func replayFiles(ctx context.Context, out io.Writer, mon *monitor.Monitor, paths []string) error {
	failed := 0
	var total session.Stats
	for _, path := range paths {
		stats, err := mon.ReplayFile(ctx, path)
		if err != nil {
			failed++
			fmt.Fprintf(out, "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(out, "%s: %d lines, %d screenshots, %d renamed, %d skipped, %d failed\n",
			filepath.Base(path), stats.Lines, stats.Screenshots, stats.Renamed, stats.Skipped, stats.Failed)
		total.Renamed += stats.Renamed
	}
	fmt.Fprintf(out, "%d renamed across %d files\n", total.Renamed, len(paths)-failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be read", failed, len(paths))
	}
	return nil
}

func newStatusCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the world and recent screenshots of a running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr == "" {
				cfg, err := config.Load(flags.configPath)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if cfg.APIBind == "" {
					return fmt.Errorf("status api is disabled in config")
				}
				addr = cfg.APIBind
			}
			c, err := client.New(addr)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			status, err := c.FetchStatus(ctx)
			if err != nil {
				return fmt.Errorf("query %s: %w", c.BaseURL(), err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "world:    %s\n", status.Label())
			if status.WorldURL != "" {
				fmt.Fprintf(out, "page:     %s\n", status.WorldURL)
			}
			if status.WatchedFile != "" {
				fmt.Fprintf(out, "log:      %s\n", status.WatchedFile)
			}
			if status.LastFault != "" {
				fmt.Fprintf(out, "fault:    %s (%d total)\n", status.LastFault, status.Faults)
			}
			if len(status.Recent) == 0 {
				fmt.Fprintln(out, "recent:   none")
				return nil
			}
			fmt.Fprintln(out, "recent:")
			for _, p := range status.Recent {
				fmt.Fprintf(out, "  %s\n", p)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "status api address (default from config api_bind)")
	return cmd
}

func newHistoryCmd(flags *rootFlags) *cobra.Command {
	var (
		limit  int
		worlds bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled renames, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(flags.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return err
			}
			defer store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			if worlds {
				counts, err := store.CountByWorld(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "WORLD\tSCREENSHOTS")
				for _, c := range counts {
					fmt.Fprintf(tw, "wrld_%s\t%d\n", c.WorldID, c.Count)
				}
				return nil
			}

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "WHEN\tWORLD\tFILE\tMODE")
			for _, e := range entries {
				mode := "live"
				if e.Historical {
					mode = "replay"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
					e.At.Local().Format("2006-01-02 15:04:05"), shortWorld(e.WorldID), filepath.Base(e.Target), mode)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().BoolVar(&worlds, "worlds", false, "show screenshot counts per world instead")
	return cmd
}

// shortWorld keeps the first group of a world id for compact tables.
func shortWorld(id string) string {
	if id == "" {
		return "?"
	}
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func quietLogf(string, ...any) {}
