package shell

import (
	"context"
	"path/filepath"
	"testing"
)

type call struct {
	name string
	args []string
}

func recorder(calls *[]call) Runner {
	return func(_ context.Context, name string, args ...string) error {
		*calls = append(*calls, call{name: name, args: args})
		return nil
	}
}

func TestOpener_CommandPerPlatform(t *testing.T) {
	cases := map[string]string{
		"windows": "explorer",
		"darwin":  "open",
		"linux":   "xdg-open",
		"freebsd": "xdg-open",
	}
	for goos, want := range cases {
		var calls []call
		o := Opener{GOOS: goos, Run: recorder(&calls)}
		if err := o.OpenURL(context.Background(), "https://vrchat.com/home/world/wrld_x"); err != nil {
			t.Fatalf("%s: OpenURL returned error: %v", goos, err)
		}
		if len(calls) != 1 || calls[0].name != want {
			t.Fatalf("%s: calls = %+v, want %s", goos, calls, want)
		}
		if calls[0].args[0] != "https://vrchat.com/home/world/wrld_x" {
			t.Fatalf("%s: args = %v", goos, calls[0].args)
		}
	}
}

func TestOpener_OpenFolderUsesParentDir(t *testing.T) {
	var calls []call
	o := Opener{GOOS: "linux", Run: recorder(&calls)}
	shot := filepath.Join("pics", "2024", "shot_wrld_x.png")
	if err := o.OpenFolder(context.Background(), shot); err != nil {
		t.Fatalf("OpenFolder returned error: %v", err)
	}
	if got := calls[0].args[0]; got != filepath.Join("pics", "2024") {
		t.Fatalf("folder = %q", got)
	}
}

func TestOpener_RejectsEmptyTargets(t *testing.T) {
	var calls []call
	o := Opener{Run: recorder(&calls)}
	if err := o.OpenURL(context.Background(), " "); err == nil {
		t.Fatal("OpenURL accepted empty url")
	}
	if err := o.OpenFolder(context.Background(), ""); err == nil {
		t.Fatal("OpenFolder accepted empty path")
	}
	if len(calls) != 0 {
		t.Fatalf("runner should not be called: %+v", calls)
	}
}

func TestOpener_MissingBinaryFails(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	o := Opener{GOOS: "linux"}
	if err := o.OpenURL(context.Background(), "https://example.com"); err == nil {
		t.Fatal("expected error when xdg-open is missing")
	}
}
