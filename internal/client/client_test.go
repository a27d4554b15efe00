package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/five82/wrldshot/internal/api"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != defaultAPIBind {
		t.Fatalf("url = %q, want http://%s", u.String(), defaultAPIBind)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://[::1"); err == nil {
		t.Fatal("expected error for malformed bind")
	}
}

func TestClient_FetchesStatusAndHistory(t *testing.T) {
	t.Parallel()

	var gotLimit, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(api.StatusResponse{World: "abc", HasWorld: true, Recent: []string{"x.png"}})
		case "/api/history":
			gotLimit = r.URL.Query().Get("limit")
			_ = json.NewEncoder(w).Encode(api.HistoryResponse{
				Items:  []api.HistoryEntry{{ID: "1", World: "abc"}},
				Worlds: []api.WorldCount{{World: "abc", Count: 1}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	status, err := c.FetchStatus(ctx)
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if status.World != "abc" || !status.HasWorld || len(status.Recent) != 1 {
		t.Fatalf("FetchStatus payload = %#v", status)
	}
	if status.Label() != "wrld_abc" {
		t.Fatalf("Label() = %q", status.Label())
	}

	hist, err := c.FetchHistory(ctx, 3)
	if err != nil {
		t.Fatalf("FetchHistory returned error: %v", err)
	}
	if gotLimit != "3" {
		t.Fatalf("limit query = %q, want 3", gotLimit)
	}
	if len(hist.Items) != 1 || hist.Worlds[0].Count != 1 {
		t.Fatalf("FetchHistory payload = %#v", hist)
	}
	if !strings.HasPrefix(gotUserAgent, "wrldshot/") {
		t.Fatalf("User-Agent = %q", gotUserAgent)
	}
}

func TestClient_ReportsHTTPErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	c, err := New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = c.FetchStatus(context.Background())
	if err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("FetchStatus error = %v, want status 503", err)
	}
}

func TestClient_NilReceiver(t *testing.T) {
	var c *Client
	if _, err := c.FetchStatus(context.Background()); err == nil {
		t.Fatal("expected error from nil client")
	}
	if _, err := c.FetchHistory(context.Background(), 1); err == nil {
		t.Fatal("expected error from nil client")
	}
}
