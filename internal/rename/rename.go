// Package rename tags screenshot files with the world they were taken in.
package rename

import (
	"errors"
	"fmt"
	"os"
	"regexp"
)

// Status is the outcome of a rename attempt.
type Status int

const (
	Renamed Status = iota
	Skipped        // source no longer exists
	Failed
)

func (s Status) String() string {
	switch s {
	case Renamed:
		return "renamed"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrMove wraps filesystem failures while moving a file.
	ErrMove = errors.New("move screenshot")
	// ErrNoExtension is returned for paths without a final extension.
	ErrNoExtension = errors.New("screenshot path has no extension")
	// ErrTargetExists is wrapped with ErrMove when the tagged name is taken.
	ErrTargetExists = errors.New("target already exists")
)

var extPattern = regexp.MustCompile(`^(.+)(\.\w+)$`)

// Result describes what Rename did. NewPath is set for Renamed, Err for Failed.
type Result struct {
	Status  Status
	Source  string
	NewPath string
	Err     error
}

// NewPath splices "_wrld_<worldID>" in front of the last extension of path.
// It reports false when path has no extension to splice before.
func NewPath(path, worldID string) (string, bool) {
	m := extPattern.FindStringSubmatch(path)
	if m == nil {
		return "", false
	}
	return m[1] + "_wrld_" + worldID + m[2], true
}

// Rename moves path to its tagged name. A missing source is Skipped, which
// makes repeated calls for the same screenshot harmless. An existing file at
// the tagged name is never replaced; that is a Failed result. Errors never
// escape as panics; they come back as a Failed result.
func Rename(path, worldID string) Result {
	res := Result{Source: path}

	target, ok := NewPath(path, worldID)
	if !ok {
		res.Status = Failed
		res.Err = fmt.Errorf("%w: %s", ErrNoExtension, path)
		return res
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			res.Status = Skipped
			return res
		}
		res.Status = Failed
		res.Err = fmt.Errorf("%w %s: %v", ErrMove, path, err)
		return res
	}

	if _, err := os.Lstat(target); err == nil {
		// A concurrent rename of the same source also lands here.
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			res.Status = Skipped
			return res
		}
		res.Status = Failed
		res.Err = fmt.Errorf("%w %s -> %s: %w", ErrMove, path, target, ErrTargetExists)
		return res
	}

	if err := os.Rename(path, target); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Lost the race with another rename of the same file.
			res.Status = Skipped
			return res
		}
		res.Status = Failed
		res.Err = fmt.Errorf("%w %s -> %s: %v", ErrMove, path, target, err)
		return res
	}

	res.Status = Renamed
	res.NewPath = target
	return res
}

// Func adapts a plain function to the Renamer interface used by sessions.
type Func func(path, worldID string) Result

// Rename calls f.
func (f Func) Rename(path, worldID string) Result { return f(path, worldID) }
