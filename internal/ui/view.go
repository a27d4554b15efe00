package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	stateIdle   = "idle"
	stateReplay = "replay"
	stateLive   = "live"
	stateFault  = "fault"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return "wrldshot starting..."
	}
	sections := []string{m.renderHeader(), m.renderRecent()}
	if !m.prefs.HideTrace {
		sections = append(sections, m.renderTraceTitle(), m.trace.View())
	}
	sections = append(sections, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) monitorState() string {
	switch {
	case m.snapshot.LastFault != nil:
		return stateFault
	case m.snapshot.WatchedFile != "":
		return stateLive
	case !m.snapshot.Replay.Done:
		return stateReplay
	default:
		return stateIdle
	}
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	state := m.monitorState()
	compact := m.width < 100

	parts := []string{
		styles.Logo.Render("wrldshot"),
		styles.StateBadge(state).Render(strings.ToUpper(state)),
	}

	switch {
	case !m.snapshot.HasWorld:
		parts = append(parts, styles.MutedText.Render("no world yet"))
	case m.snapshot.WorldID == "":
		parts = append(parts, styles.WarningText.Render("unrecognised world id"))
	default:
		parts = append(parts, styles.AccentText.Render("wrld_"+m.snapshot.WorldID))
	}

	if file := m.snapshot.WatchedFile; file != "" {
		name := filepath.Base(file)
		if compact {
			name = truncateMiddle(name, 24)
		}
		parts = append(parts, styles.FaintText.Render("log")+" "+styles.Text.Render(name))
	}

	if r := m.snapshot.Replay; r.Done && !compact {
		parts = append(parts, styles.MutedText.Render(
			fmt.Sprintf("replayed %d files, %d renamed", r.Files, r.Renamed)))
	}

	if m.snapshot.Faults > 0 {
		parts = append(parts, styles.DangerText.Render(fmt.Sprintf("faults %d", m.snapshot.Faults)))
	}

	return styles.Header.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m Model) renderRecent() string {
	styles := m.theme.Styles()
	lines := []string{styles.Title.Render(fmt.Sprintf("Recent screenshots (%d)", len(m.snapshot.Recent)))}

	if len(m.snapshot.Recent) == 0 {
		lines = append(lines, styles.FaintText.Render("  nothing renamed in this session"))
		return strings.Join(lines, "\n")
	}

	nameWidth := max(m.width-4, 10)
	for i, path := range m.snapshot.Recent {
		name := truncateMiddle(filepath.Base(path), nameWidth)
		if i == m.cursor {
			lines = append(lines, styles.Selected.Width(m.width).Render("> "+name))
			continue
		}
		lines = append(lines, styles.Text.Render("  "+name))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderTraceTitle() string {
	return m.theme.Styles().Title.Render("Trace")
}

func (m Model) renderTraceLines() string {
	styles := m.theme.Styles()
	var b strings.Builder
	for i, line := range m.snapshot.Trace {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(styles.FaintText.Render(line.At.Format("15:04:05")))
		b.WriteString(" ")
		b.WriteString(styles.Text.Render(line.Text))
	}
	return b.String()
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()
	status := ""
	switch {
	case m.flash != "" && m.flashErr:
		status = styles.DangerText.Render(m.flash)
	case m.flash != "":
		status = styles.SuccessText.Render(m.flash)
	case m.snapshot.LastFault != nil:
		status = styles.DangerText.Render(m.snapshot.LastFault.Error())
	}
	return styles.Footer.Render(status) + "\n" + styles.Footer.Render(m.help.View(m.keys))
}

// truncateMiddle keeps the start and the end of s, favouring the end.
func truncateMiddle(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 {
		return ""
	}
	if len(r) <= limit {
		return s
	}
	if limit <= 5 {
		return string(r[:limit])
	}
	endLen := (limit - 3) * 2 / 3
	startLen := limit - 3 - endLen
	return string(r[:startLen]) + "..." + string(r[len(r)-endLen:])
}
