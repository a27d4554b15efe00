package logtail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Mode selects how Tail behaves when it reaches the end of the file.
type Mode int

const (
	// Historical replays the file up to its current end and then stops.
	Historical Mode = iota
	// Live keeps polling for appended data until the context is cancelled.
	Live
)

func (m Mode) String() string {
	switch m {
	case Historical:
		return "historical"
	case Live:
		return "live"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// DefaultPollInterval is the live-mode wait between end-of-file retries.
const DefaultPollInterval = 5 * time.Second

const (
	lineBuffer   = 64
	readBufSize  = 64 * 1024
	maxLineBytes = 1024 * 1024
)

var (
	// ErrOpen reports that the log file could not be opened; the tail ends.
	ErrOpen = errors.New("open log")
	// ErrRead reports a failed read attempt; it is handled like end-of-file.
	ErrRead = errors.New("read log")
)

// Line is a single text line read from a log file.
type Line struct {
	Text   string
	Source string
	Offset int64 // byte offset of the first byte of the line
}

// Options configure a Tail call.
type Options struct {
	Mode         Mode
	Offset       int64
	PollInterval time.Duration // zero uses DefaultPollInterval
	OnError      func(error)   // nil discards errors
}

// Tail reads path from opts.Offset and delivers complete lines on the
// returned channel. The channel is closed when the tail ends: at end-of-file
// in Historical mode, on cancellation in Live mode, or right away when the
// file cannot be opened. A Tail is not restartable; call it again to reopen.
func Tail(ctx context.Context, path string, opts Options) <-chan Line {
	out := make(chan Line, lineBuffer)
	go func() {
		defer close(out)
		t := tailer{
			path: path,
			opts: opts,
			out:  out,
		}
		t.run(ctx)
	}()
	return out
}

type tailer struct {
	path     string
	opts     Options
	out      chan<- Line
	partial  []byte
	skipping bool  // inside a line that exceeded maxLineBytes
	start    int64 // offset of the partial line
	pos      int64 // offset after the last byte consumed
}

func (t *tailer) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	// os.Open shares read and write access on every platform, so the
	// writer keeps appending while we hold the handle.
	file, err := os.Open(t.path)
	if err != nil {
		t.report(fmt.Errorf("%w %s: %v", ErrOpen, t.path, err))
		return
	}
	defer func() { _ = file.Close() }()

	if t.opts.Offset > 0 {
		if _, err := file.Seek(t.opts.Offset, io.SeekStart); err != nil {
			t.report(fmt.Errorf("%w %s: seek %d: %v", ErrOpen, t.path, t.opts.Offset, err))
			return
		}
	}
	t.pos = t.opts.Offset
	t.start = t.opts.Offset

	reader := bufio.NewReaderSize(file, readBufSize)
	for {
		if ctx.Err() != nil {
			return
		}

		chunk, err := reader.ReadSlice('\n')
		t.pos += int64(len(chunk))
		if t.skipping {
			// Discard the rest of an oversized line, newline included.
			t.start = t.pos
			if err == nil {
				t.skipping = false
				continue
			}
		} else if len(chunk) > 0 {
			t.partial = append(t.partial, chunk...)
		}
		if err == nil {
			if !t.emit(ctx) {
				return
			}
			continue
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			if len(t.partial) > maxLineBytes {
				t.report(fmt.Errorf("%w %s: line at offset %d exceeds %d bytes", ErrRead, t.path, t.start, maxLineBytes))
				t.partial = t.partial[:0]
				t.skipping = true
			}
			continue
		}
		if !errors.Is(err, io.EOF) {
			t.report(fmt.Errorf("%w %s: %v", ErrRead, t.path, err))
		}

		// Nothing more to read for this attempt.
		if t.opts.Mode != Live {
			if len(t.partial) > 0 {
				t.emit(ctx)
			}
			return
		}
		if !t.wait(ctx) {
			return
		}
	}
}

// emit sends the buffered line and resets the buffer. It reports false when
// the context was cancelled before the line could be delivered.
func (t *tailer) emit(ctx context.Context) bool {
	line := Line{
		Text:   trimEOL(t.partial),
		Source: t.path,
		Offset: t.start,
	}
	t.partial = t.partial[:0]
	t.start = t.pos

	select {
	case t.out <- line:
		return true
	case <-ctx.Done():
		return false
	}
}

func (t *tailer) wait(ctx context.Context) bool {
	interval := t.opts.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (t *tailer) report(err error) {
	if t.opts.OnError != nil {
		t.opts.OnError(err)
	}
}

func trimEOL(b []byte) string {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		n--
		if n > 0 && b[n-1] == '\r' {
			n--
		}
	}
	return string(b[:n])
}
