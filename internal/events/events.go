// Package events classifies log lines into correlation events.
package events

import (
	"fmt"
	"regexp"
	"strings"
)

// Kind identifies the event a line carries.
type Kind int

const (
	// None marks lines that carry no event.
	None Kind = iota
	// WorldJoined is the context event: the user entered a world.
	WorldJoined
	// ScreenshotTaken is the action event: a screenshot file was written.
	ScreenshotTaken
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case WorldJoined:
		return "world_joined"
	case ScreenshotTaken:
		return "screenshot_taken"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Markers gating the pattern match.
const (
	JoinMarker       = "Joining wrld_"
	ScreenshotMarker = "Took screenshot to: "
)

var (
	joinPattern       = regexp.MustCompile(`Joining wrld_(\w+-\w+-\w+-\w+-\w+)`)
	screenshotPattern = regexp.MustCompile(`Took screenshot to: (.+)`)
)

// Event is a classified log line. WorldID is set for WorldJoined and Path
// for ScreenshotTaken.
type Event struct {
	Kind    Kind
	WorldID string
	Path    string
}

// Classify returns the event carried by line. The boolean is false for lines
// that match neither marker. A join line whose id is malformed still yields
// a WorldJoined event with an empty WorldID.
func Classify(line string) (Event, bool) {
	switch {
	case strings.Contains(line, JoinMarker):
		return Event{Kind: WorldJoined, WorldID: submatch(joinPattern, line)}, true
	case strings.Contains(line, ScreenshotMarker):
		return Event{Kind: ScreenshotTaken, Path: submatch(screenshotPattern, line)}, true
	default:
		return Event{}, false
	}
}

func submatch(re *regexp.Regexp, line string) string {
	m := re.FindStringSubmatch(line)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// WorldURL returns the public page for a world id, or "" when id is empty.
func WorldURL(id string) string {
	if strings.TrimSpace(id) == "" {
		return ""
	}
	return "https://vrchat.com/home/world/wrld_" + id
}
