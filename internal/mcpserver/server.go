// Package mcpserver exposes the live session to MCP clients over SSE.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/five82/wrldshot/internal/history"
	"github.com/five82/wrldshot/internal/state"
)

const (
	serverName     = "wrldshot"
	serverVersion  = "0.1.0"
	defaultLimit   = 5
	maxLimit       = 100
	shutdownPeriod = 2 * time.Second
)

// StatusSource provides the current session snapshot.
type StatusSource interface {
	Snapshot() state.Snapshot
}

// HistorySource provides journaled renames.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Service registers the wrldshot tools on an MCP server.
type Service struct {
	server  *server.MCPServer
	status  StatusSource
	history HistorySource // optional
}

// New builds the MCP server and registers its tools.
func New(status StatusSource, hist HistorySource) *Service {
	s := &Service{status: status, history: hist}
	s.server = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)
	s.server.AddTool(currentWorldTool(), s.handleCurrentWorld)
	s.server.AddTool(recentScreenshotsTool(), s.handleRecentScreenshots)
	return s
}

// MCPServer returns the underlying server.
func (s *Service) MCPServer() *server.MCPServer { return s.server }

// Serve runs the SSE transport on addr until ctx is cancelled.
func (s *Service) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	sse := server.NewSSEServer(s.server,
		server.WithBaseURL("http://"+ln.Addr().String()),
	)
	httpServer := &http.Server{Handler: sse, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()
	log.Printf("mcp: serving SSE on %s", ln.Addr())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer cancel()
	// SSE streams never finish on their own.
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		_ = httpServer.Close()
	}
	return nil
}

func currentWorldTool() mcp.Tool {
	return mcp.NewTool("current_world",
		mcp.WithDescription("Report the VRChat world of the live session, its web page, and the log file being followed."),
	)
}

func recentScreenshotsTool() mcp.Tool {
	return mcp.NewTool("recent_screenshots",
		mcp.WithDescription("List screenshots that were renamed with their world id, newest first."),
		mcp.WithNumber("limit",
			mcp.Description(fmt.Sprintf("Maximum number of entries (default %d, max %d)", defaultLimit, maxLimit)),
		),
	)
}

type worldPayload struct {
	World       string   `json:"world,omitempty"`
	Joined      bool     `json:"joined"`
	URL         string   `json:"url,omitempty"`
	WatchedFile string   `json:"watchedFile,omitempty"`
	Recent      []string `json:"recent"`
}

func (s *Service) handleCurrentWorld(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.status.Snapshot()
	payload := worldPayload{
		World:       snap.WorldID,
		Joined:      snap.HasWorld,
		URL:         snap.WorldURL(),
		WatchedFile: snap.WatchedFile,
		Recent:      snap.Recent,
	}
	if payload.Recent == nil {
		payload.Recent = []string{}
	}
	return jsonResult(payload)
}

type screenshotPayload struct {
	Path      string    `json:"path"`
	Source    string    `json:"source,omitempty"`
	World     string    `json:"world,omitempty"`
	RenamedAt time.Time `json:"renamedAt,omitzero"`
}

func (s *Service) handleRecentScreenshots(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", defaultLimit)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}
	limit = min(limit, maxLimit)

	if s.history == nil {
		// Without a journal only the live session list is known.
		snap := s.status.Snapshot()
		items := make([]screenshotPayload, 0, len(snap.Recent))
		for _, p := range snap.Recent {
			if len(items) == limit {
				break
			}
			items = append(items, screenshotPayload{Path: p, World: snap.WorldID})
		}
		return jsonResult(items)
	}

	entries, err := s.history.Recent(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("history query failed: %v", err)), nil
	}
	items := make([]screenshotPayload, 0, len(entries))
	for _, e := range entries {
		items = append(items, screenshotPayload{
			Path:      e.Target,
			Source:    e.Source,
			World:     e.WorldID,
			RenamedAt: e.At,
		})
	}
	return jsonResult(items)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
