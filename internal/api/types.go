// Package api defines the JSON payloads served by the wrldshot status API.
package api

import "time"

// StatusResponse mirrors the payload returned by /api/status and the first
// websocket message.
type StatusResponse struct {
	World       string       `json:"world"`
	HasWorld    bool         `json:"hasWorld"`
	WorldURL    string       `json:"worldUrl,omitempty"`
	Recent      []string     `json:"recent"`
	WatchedFile string       `json:"watchedFile"`
	Replay      ReplayStatus `json:"replay"`
	Faults      int          `json:"faults"`
	LastFault   string       `json:"lastFault,omitempty"`
	Subscribers int          `json:"subscribers"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// ReplayStatus summarises the startup replay.
type ReplayStatus struct {
	Done    bool `json:"done"`
	Files   int  `json:"files"`
	Failed  int  `json:"failed"`
	Renamed int  `json:"renamed"`
}

// HistoryResponse mirrors /api/history.
type HistoryResponse struct {
	Items  []HistoryEntry `json:"items"`
	Worlds []WorldCount   `json:"worlds"`
}

// HistoryEntry is one journaled rename in transport-friendly form.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Target     string    `json:"target"`
	World      string    `json:"world"`
	LogFile    string    `json:"logFile"`
	Historical bool      `json:"historical"`
	RenamedAt  time.Time `json:"renamedAt"`
}

// WorldCount reports how many screenshots were tagged with a world.
type WorldCount struct {
	World string `json:"world"`
	Count int    `json:"count"`
}

// Label returns a compact display name for the world of a status.
func (s StatusResponse) Label() string {
	switch {
	case !s.HasWorld:
		return "no world"
	case s.World == "":
		return "unknown world"
	default:
		return "wrld_" + s.World
	}
}
