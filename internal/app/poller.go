package app

import (
	"context"
	"log"
	"slices"
	"time"
)

const (
	defaultPollInterval = 5 * time.Second
	maxBackoff          = 30 * time.Second
)

// directory is the part of monitor.Monitor the fallback poller drives.
type directory interface {
	Discover() ([]string, error)
	Handoff(ctx context.Context, path string)
}

// pollDirectory stands in for the fsnotify watch when it cannot be
// installed. Every interval it lists the log directory and hands the live
// tail to the newest file not in seen. Listing failures back off
// exponentially. It returns when ctx is cancelled.
func pollDirectory(ctx context.Context, dir directory, interval time.Duration, seen []string) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	known := make(map[string]struct{}, len(seen))
	for _, p := range seen {
		known[p] = struct{}{}
	}

	failures := 0
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		paths, err := dir.Discover()
		if err != nil {
			failures++
			log.Printf("log directory poll failed: %v", err)
		} else {
			failures = 0
			if newest, ok := newestUnseen(paths, known); ok {
				log.Printf("new log file %s", newest)
				dir.Handoff(ctx, newest)
			}
		}
		timer.Reset(calculateBackoff(failures, interval))
	}
}

// newestUnseen records every path in known and returns the lexically last
// one that was not there before.
func newestUnseen(paths []string, known map[string]struct{}) (string, bool) {
	var fresh []string
	for _, p := range paths {
		if _, ok := known[p]; ok {
			continue
		}
		known[p] = struct{}{}
		fresh = append(fresh, p)
	}
	if len(fresh) == 0 {
		return "", false
	}
	return slices.Max(fresh), true
}

// calculateBackoff doubles base for each consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	if failures <= 0 {
		return base
	}
	d := base
	for i := 0; i < failures; i++ {
		d *= 2
		if d >= maxBackoff {
			return maxBackoff
		}
	}
	return d
}
