package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/five82/wrldshot/internal/logtail"
	"github.com/five82/wrldshot/internal/rename"
)

const worldA = "11111111-1111-1111-1111-111111111111"
const worldB = "22222222-2222-2222-2222-222222222222"

type fakeBridge struct {
	mu       sync.Mutex
	contexts []string
	renamed  [][]string
}

func (b *fakeBridge) OnContextChanged(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.contexts = append(b.contexts, id)
}

func (b *fakeBridge) OnRenamed(list []string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.renamed = append(b.renamed, list)
}

type fakeJournal struct {
	entries []Entry
	err     error
}

func (j *fakeJournal) Record(_ context.Context, e Entry) error {
	j.entries = append(j.entries, e)
	return j.err
}

// recordingRenamer pretends every rename succeeds and remembers the calls.
type recordingRenamer struct {
	calls  [][2]string
	status rename.Status
}

func (r *recordingRenamer) Rename(path, worldID string) rename.Result {
	r.calls = append(r.calls, [2]string{path, worldID})
	switch r.status {
	case rename.Skipped:
		return rename.Result{Status: rename.Skipped, Source: path}
	case rename.Failed:
		return rename.Result{Status: rename.Failed, Source: path, Err: errors.New("boom")}
	}
	newPath, _ := rename.NewPath(path, worldID)
	return rename.Result{Status: rename.Renamed, Source: path, NewPath: newPath}
}

func feed(lines ...string) <-chan logtail.Line {
	ch := make(chan logtail.Line, len(lines))
	for i, l := range lines {
		ch <- logtail.Line{Text: l, Source: "output_log_test.txt", Offset: int64(i)}
	}
	close(ch)
	return ch
}

func joinLine(id string) string { return "[Behaviour] Joining wrld_" + id + ":1~private" }
func shotLine(p string) string { return "[VRC Camera] Took screenshot to: " + p }

func quiet(string, ...any) {}

func TestSession_RecentIsBoundedNewestFirst(t *testing.T) {
	s := New("log", 0)
	for i := 1; i <= 8; i++ {
		s.push(fmt.Sprintf("shot%d.png", i))
	}
	want := []string{"shot8.png", "shot7.png", "shot6.png", "shot5.png", "shot4.png"}
	if got := s.Recent(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Recent() = %v, want %v", got, want)
	}

	// Returned slice is a copy.
	got := s.Recent()
	got[0] = "mutated"
	if s.Recent()[0] != "shot8.png" {
		t.Fatal("Recent() should return a copy")
	}
}

func TestSession_CustomLimit(t *testing.T) {
	s := New("log", 2)
	s.push("a")
	s.push("b")
	s.push("c")
	if got := s.Recent(); !reflect.DeepEqual(got, []string{"c", "b"}) {
		t.Fatalf("Recent() = %v, want [c b]", got)
	}
}

func TestProcessor_ScreenshotBeforeJoinIsIgnored(t *testing.T) {
	renamer := &recordingRenamer{}
	bridge := &fakeBridge{}
	p := &Processor{Renamer: renamer, Bridge: bridge, Logf: quiet}

	stats := p.Run(context.Background(), "log", feed(shotLine("a.png")), true)

	if len(renamer.calls) != 0 {
		t.Fatalf("renamer called %d times, want 0", len(renamer.calls))
	}
	if stats.Uncorrelated != 1 || stats.Renamed != 0 {
		t.Fatalf("stats = %+v, want 1 uncorrelated and no renames", stats)
	}
	if len(bridge.contexts) != 0 || len(bridge.renamed) != 0 {
		t.Fatalf("bridge notified: %+v", bridge)
	}
}

func TestProcessor_JoinThenScreenshotRenamesOnDisk(t *testing.T) {
	dir := t.TempDir()
	shot := filepath.Join(dir, "b.png")
	if err := os.WriteFile(shot, []byte("png"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	bridge := &fakeBridge{}
	journal := &fakeJournal{}
	p := NewProcessor(bridge, journal, 0)
	p.Logf = quiet

	stats := p.Run(context.Background(), "output_log_1.txt", feed(joinLine(worldA), shotLine(shot)), true)

	want := filepath.Join(dir, "b_wrld_"+worldA+".png")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("renamed file missing: %v", err)
	}
	if stats.Renamed != 1 {
		t.Fatalf("stats.Renamed = %d, want 1", stats.Renamed)
	}
	if !reflect.DeepEqual(bridge.contexts, []string{worldA}) {
		t.Fatalf("contexts = %v, want [%s]", bridge.contexts, worldA)
	}
	if len(bridge.renamed) != 1 || !reflect.DeepEqual(bridge.renamed[0], []string{want}) {
		t.Fatalf("renamed notifications = %v, want exactly one with %s", bridge.renamed, want)
	}
	if len(journal.entries) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(journal.entries))
	}
	e := journal.entries[0]
	if e.Source != shot || e.Target != want || e.WorldID != worldA || e.LogFile != "output_log_1.txt" || e.Historical {
		t.Fatalf("journal entry = %+v", e)
	}
}

func TestProcessor_LatestJoinWins(t *testing.T) {
	renamer := &recordingRenamer{}
	p := &Processor{Renamer: renamer, Logf: quiet}

	p.Run(context.Background(), "log", feed(
		joinLine(worldA),
		shotLine("/pics/one.png"),
		joinLine(worldB),
		shotLine("/pics/two.png"),
	), false)

	want := [][2]string{{"/pics/one.png", worldA}, {"/pics/two.png", worldB}}
	if !reflect.DeepEqual(renamer.calls, want) {
		t.Fatalf("calls = %v, want %v", renamer.calls, want)
	}
}

func TestProcessor_MalformedJoinUsesEmptyID(t *testing.T) {
	renamer := &recordingRenamer{}
	p := &Processor{Renamer: renamer, Logf: quiet}

	p.Run(context.Background(), "log", feed("Joining wrld_garbage", shotLine("/pics/x.png")), false)

	if len(renamer.calls) != 1 || renamer.calls[0][1] != "" {
		t.Fatalf("calls = %v, want one call with empty world id", renamer.calls)
	}
}

func TestProcessor_HistoricalDoesNotNotify(t *testing.T) {
	bridge := &fakeBridge{}
	journal := &fakeJournal{}
	p := &Processor{Renamer: &recordingRenamer{}, Bridge: bridge, Journal: journal, Logf: quiet}

	p.Run(context.Background(), "log", feed(joinLine(worldA), shotLine("/pics/a.png")), false)

	if len(bridge.contexts) != 0 || len(bridge.renamed) != 0 {
		t.Fatalf("historical run notified bridge: %+v", bridge)
	}
	if len(journal.entries) != 1 || !journal.entries[0].Historical {
		t.Fatalf("journal = %+v, want one historical entry", journal.entries)
	}
}

func TestProcessor_SkippedAndFailedDoNotNotify(t *testing.T) {
	for _, status := range []rename.Status{rename.Skipped, rename.Failed} {
		t.Run(status.String(), func(t *testing.T) {
			bridge := &fakeBridge{}
			p := &Processor{Renamer: &recordingRenamer{status: status}, Bridge: bridge, Logf: quiet}

			stats := p.Run(context.Background(), "log", feed(joinLine(worldA), shotLine("/pics/a.png")), true)

			if len(bridge.renamed) != 0 {
				t.Fatalf("OnRenamed called %d times, want 0", len(bridge.renamed))
			}
			if stats.Skipped+stats.Failed != 1 {
				t.Fatalf("stats = %+v", stats)
			}
		})
	}
}

func TestProcessor_NotifiesBoundedNewestFirstList(t *testing.T) {
	bridge := &fakeBridge{}
	p := &Processor{Renamer: &recordingRenamer{}, Bridge: bridge, Logf: quiet}

	lines := []string{joinLine(worldA)}
	for i := 1; i <= 7; i++ {
		lines = append(lines, shotLine(fmt.Sprintf("/pics/%d.png", i)))
	}
	p.Run(context.Background(), "log", feed(lines...), true)

	if len(bridge.renamed) != 7 {
		t.Fatalf("OnRenamed called %d times, want 7", len(bridge.renamed))
	}
	last := bridge.renamed[len(bridge.renamed)-1]
	var want []string
	for i := 7; i >= 3; i-- {
		want = append(want, fmt.Sprintf("/pics/%d_wrld_%s.png", i, worldA))
	}
	if !reflect.DeepEqual(last, want) {
		t.Fatalf("last list = %v, want %v", last, want)
	}
}

func TestProcessor_JournalErrorIsNotFatal(t *testing.T) {
	journal := &fakeJournal{err: errors.New("disk full")}
	p := &Processor{Renamer: &recordingRenamer{}, Journal: journal, Logf: quiet}

	stats := p.Run(context.Background(), "log", feed(joinLine(worldA), shotLine("/a.png"), shotLine("/b.png")), false)
	if stats.Renamed != 2 {
		t.Fatalf("stats.Renamed = %d, want 2", stats.Renamed)
	}
}

func TestProcessor_StopsOnCancel(t *testing.T) {
	lines := make(chan logtail.Line)
	ctx, cancel := context.WithCancel(context.Background())
	p := &Processor{Renamer: &recordingRenamer{}, Logf: quiet}

	done := make(chan Stats)
	go func() { done <- p.Run(ctx, "log", lines, true) }()

	lines <- logtail.Line{Text: joinLine(worldA)}
	cancel()

	select {
	case stats := <-done:
		if stats.Joins != 1 {
			t.Fatalf("stats.Joins = %d, want 1", stats.Joins)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestMultiBridge_ForwardsToEach(t *testing.T) {
	a, b := &fakeBridge{}, &fakeBridge{}
	m := MultiBridge{a, b}
	m.OnContextChanged(worldA)
	m.OnRenamed([]string{"x.png"})

	for i, fb := range []*fakeBridge{a, b} {
		if !reflect.DeepEqual(fb.contexts, []string{worldA}) {
			t.Fatalf("bridge %d contexts = %v", i, fb.contexts)
		}
		if len(fb.renamed) != 1 || fb.renamed[0][0] != "x.png" {
			t.Fatalf("bridge %d renamed = %v", i, fb.renamed)
		}
	}
}
