package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second},
		{"many failures capped", 100, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestNewestUnseen(t *testing.T) {
	known := map[string]struct{}{"/l/output_log_1.txt": {}}

	if _, ok := newestUnseen([]string{"/l/output_log_1.txt"}, known); ok {
		t.Fatal("no new files expected")
	}
	got, ok := newestUnseen([]string{"/l/output_log_1.txt", "/l/output_log_3.txt", "/l/output_log_2.txt"}, known)
	if !ok || got != "/l/output_log_3.txt" {
		t.Fatalf("newestUnseen = %q, %v", got, ok)
	}
	if _, ok := newestUnseen([]string{"/l/output_log_2.txt"}, known); ok {
		t.Fatal("files are only new once")
	}
}

type fakeDirectory struct {
	mu       sync.Mutex
	listings [][]string
	calls    int
	handoffs chan string
}

func (f *fakeDirectory) Discover() ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.listings) {
		return f.listings[len(f.listings)-1], nil
	}
	if f.listings[i] == nil {
		return nil, errors.New("directory gone")
	}
	return f.listings[i], nil
}

func (f *fakeDirectory) Handoff(_ context.Context, path string) {
	f.handoffs <- path
}

func TestPollDirectory_HandsOffToNewFiles(t *testing.T) {
	dir := &fakeDirectory{
		listings: [][]string{
			{"/l/output_log_1.txt"},
			nil,
			{"/l/output_log_1.txt", "/l/output_log_2.txt"},
		},
		handoffs: make(chan string, 4),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// The failed listing backs off to 2ms before the third poll.
		pollDirectory(ctx, dir, time.Millisecond, []string{"/l/output_log_1.txt"})
	}()

	select {
	case got := <-dir.handoffs:
		if got != "/l/output_log_2.txt" {
			t.Fatalf("handoff = %q", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no handoff after a new file appeared")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop on cancel")
	}
	select {
	case extra := <-dir.handoffs:
		t.Fatalf("unexpected extra handoff %q", extra)
	default:
	}
}
