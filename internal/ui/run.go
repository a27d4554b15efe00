package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
)

// Run shows the UI until the user quits or ctx is cancelled. Store changes
// are forwarded to the model as they happen.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen(), tea.WithContext(ctx))

	if opts.Store != nil {
		changes := opts.Store.Changes()
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-changes:
					p.Send(snapshotMsg{snap: opts.Store.Snapshot()})
				}
			}
		}()
	}

	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
