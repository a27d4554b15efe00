// Package server exposes the live session over HTTP and websockets.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/five82/wrldshot/internal/api"
	"github.com/five82/wrldshot/internal/history"
	"github.com/five82/wrldshot/internal/hub"
	"github.com/five82/wrldshot/internal/state"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 500
	shutdownTimeout     = 3 * time.Second
)

// StatusSource provides the current session snapshot.
type StatusSource interface {
	Snapshot() state.Snapshot
}

// HistorySource provides journaled renames.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
	CountByWorld(ctx context.Context) ([]history.WorldCount, error)
}

// Server holds the Gin engine and its data sources.
type Server struct {
	engine  *gin.Engine
	status  StatusSource
	history HistorySource // optional
	hub     *hub.Hub
	addr    string
}

// New creates a server that will listen on addr.
func New(addr string, status StatusSource, hist HistorySource, h *hub.Hub) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	s := &Server{
		engine:  engine,
		status:  status,
		history: hist,
		hub:     h,
		addr:    addr,
	}
	s.setupRoutes()
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		snap := s.status.Snapshot()
		c.JSON(http.StatusOK, gin.H{
			"status":       "ok",
			"watched_file": snap.WatchedFile,
			"faults":       snap.Faults,
		})
	})
	s.engine.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.statusResponse())
	})
	s.engine.GET("/api/history", s.handleHistory)
	s.engine.GET("/ws", s.handleWebSocket)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history disabled"})
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	ctx := c.Request.Context()
	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		log.Printf("history query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	counts, err := s.history.CountByWorld(ctx)
	if err != nil {
		log.Printf("history count failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, HistoryResponse(entries, counts))
}

func (s *Server) statusResponse() api.StatusResponse {
	resp := StatusResponse(s.status.Snapshot())
	if s.hub != nil {
		resp.Subscribers = s.hub.Subscribers()
	}
	return resp
}

// Start listens on the configured address and serves until ctx is
// cancelled. The bound address is reported through ready when non-nil.
func (s *Server) Start(ctx context.Context, ready func(addr string)) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	if ready != nil {
		ready(ln.Addr().String())
	}

	srv := &http.Server{Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	if s.hub != nil {
		// Ends websocket write loops so Shutdown does not wait on them.
		s.hub.Close()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// StatusResponse converts a snapshot into its wire form.
func StatusResponse(snap state.Snapshot) api.StatusResponse {
	resp := api.StatusResponse{
		World:       snap.WorldID,
		HasWorld:    snap.HasWorld,
		WorldURL:    snap.WorldURL(),
		Recent:      snap.Recent,
		WatchedFile: snap.WatchedFile,
		Replay: api.ReplayStatus{
			Done:    snap.Replay.Done,
			Files:   snap.Replay.Files,
			Failed:  snap.Replay.Failed,
			Renamed: snap.Replay.Renamed,
		},
		Faults:    snap.Faults,
		UpdatedAt: snap.LastUpdated,
	}
	if resp.Recent == nil {
		resp.Recent = []string{}
	}
	if snap.LastFault != nil {
		resp.LastFault = snap.LastFault.Error()
	}
	return resp
}

// HistoryResponse converts journal rows into their wire form.
func HistoryResponse(entries []history.Entry, counts []history.WorldCount) api.HistoryResponse {
	resp := api.HistoryResponse{
		Items:  make([]api.HistoryEntry, 0, len(entries)),
		Worlds: make([]api.WorldCount, 0, len(counts)),
	}
	for _, e := range entries {
		resp.Items = append(resp.Items, api.HistoryEntry{
			ID:         e.ID,
			Source:     e.Source,
			Target:     e.Target,
			World:      e.WorldID,
			LogFile:    e.LogFile,
			Historical: e.Historical,
			RenamedAt:  e.At,
		})
	}
	for _, c := range counts {
		resp.Worlds = append(resp.Worlds, api.WorldCount{World: c.WorldID, Count: c.Count})
	}
	return resp
}
