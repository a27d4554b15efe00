// Package shell hands URLs and folders to the desktop's default handler.
package shell

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Runner starts an external command without waiting for it to exit.
type Runner func(ctx context.Context, name string, args ...string) error

// Opener launches the platform file browser or web browser.
type Opener struct {
	GOOS string // empty uses runtime.GOOS
	Run  Runner // nil starts a real process
}

// OpenURL opens u in the default browser.
func (o Opener) OpenURL(ctx context.Context, u string) error {
	if strings.TrimSpace(u) == "" {
		return fmt.Errorf("open url: empty url")
	}
	name, args := o.command(u)
	return o.run(ctx, name, args...)
}

// OpenFolder opens the directory holding path in the file browser.
func (o Opener) OpenFolder(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("open folder: empty path")
	}
	name, args := o.command(filepath.Dir(path))
	return o.run(ctx, name, args...)
}

func (o Opener) command(target string) (string, []string) {
	goos := o.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	switch goos {
	case "windows":
		return "explorer", []string{target}
	case "darwin":
		return "open", []string{target}
	default:
		return "xdg-open", []string{target}
	}
}

func (o Opener) run(ctx context.Context, name string, args ...string) error {
	if o.Run != nil {
		return o.Run(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", name, err)
	}
	// Reap in the background; the handler may outlive this call.
	go func() { _ = cmd.Wait() }()
	return nil
}
