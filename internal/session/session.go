// Package session correlates world joins with screenshots for one log file.
//
// A Processor consumes tailed lines, keeps the latest joined world in a
// per-file Session and renames each screenshot with that world id. Sessions
// are never carried across files: a screenshot logged before the first join
// in a file is left untouched.
package session

import "slices"

// DefaultRecentLimit caps the recently renamed list.
const DefaultRecentLimit = 5

// Session is the correlation state for one tail of one log file. It is
// owned by the goroutine running the tail and is never shared.
type Session struct {
	LogFile string

	worldID  string
	hasWorld bool
	recent   []string // newest first
	limit    int
}

// New creates an empty session for logFile. limit <= 0 uses DefaultRecentLimit.
func New(logFile string, limit int) *Session {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return &Session{LogFile: logFile, limit: limit}
}

// World returns the latest joined world id. The boolean is false until the
// first join event; the id itself may be empty for a malformed join line.
func (s *Session) World() (string, bool) {
	return s.worldID, s.hasWorld
}

// Recent returns a copy of the renamed paths, newest first.
func (s *Session) Recent() []string {
	return slices.Clone(s.recent)
}

func (s *Session) setWorld(id string) {
	s.worldID = id
	s.hasWorld = true
}

// push records a renamed path, evicting the oldest entry beyond the limit.
func (s *Session) push(path string) {
	s.recent = slices.Insert(s.recent, 0, path)
	if len(s.recent) > s.limit {
		s.recent = s.recent[:s.limit]
	}
}
