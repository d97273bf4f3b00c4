package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the status bar: connection phase, instance and the
// most recent error.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bar := newStrip(m.theme.Surface)
	compact := m.width < 100

	phase := m.playback.Phase.String()
	parts := []string{
		bar.text("webhelper", styles.Logo),
		styles.KindStyle(phase).Render(strings.ToUpper(phase)),
	}

	if m.playback.Connected {
		inst := m.playback.Instance
		scheme := "http"
		if inst.Secure {
			scheme = "https"
		}
		parts = append(parts,
			bar.pair("port", styles.MutedText, strconv.Itoa(inst.Port), styles.Text)+bar.gap(1)+
				bar.text(scheme, styles.FaintText))
		if id := m.playback.SessionID; id != "" && m.width >= wideHeader {
			parts = append(parts, bar.pair("session", styles.MutedText, shortID(id), styles.FaintText))
		}
	} else {
		parts = append(parts, bar.text("Searching for the companion...", styles.WarningText.Bold(true)))
	}

	// Identical long-poll replies leave the clock alone.
	if changed := m.snapshot.StatusChanged; !changed.IsZero() {
		parts = append(parts, bar.pair("changed", styles.FaintText, changed.Format("15:04:05"), styles.MutedText))
	}

	if err := m.lastError(); err != "" {
		limit := 80
		if compact {
			limit = 40
		}
		parts = append(parts, bar.pair("ERROR", styles.DangerText, truncate(err, limit), styles.DangerText.Bold(false)))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		Render(strings.Join(parts, bar.gap(2)))
}

const wideHeader = 140

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// lastError prefers a failed command over the engine's last notification.
func (m Model) lastError() string {
	if m.commandErr != nil {
		return m.commandErr.Error()
	}
	if m.snapshot.LastError != nil {
		return m.snapshot.LastError.Error()
	}
	return ""
}

// renderCommandBar renders the per-view key hints.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bar := newStrip(m.theme.Surface)

	type cmd struct{ key, desc string }
	commands := []cmd{
		{"Space", "Play/Pause"},
		{"←/→", "Seek"},
	}
	switch m.currentView {
	case ViewLogs:
		followLabel := "Pause"
		if !m.logFollow {
			followLabel = "Follow"
		}
		commands = append(commands, cmd{"f", followLabel}, cmd{"j/k", "Scroll"})
	case ViewEvents:
		commands = append(commands, cmd{"j/k", "Scroll"})
	}
	commands = append(commands, cmd{"1/2/3", "Views"}, cmd{"?", "More"})

	colon := bar.punct(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bar.text(c.key, styles.AccentText)+colon+bar.text(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bar.text("T", styles.AccentText)+colon+bar.text(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).Render(strings.Join(segments, bar.gap(2)))
}

// renderBox frames content with a title line and a rounded border.
func (m Model) renderBox(title, content string, width, height int) string {
	styles := m.theme.Styles()
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.BorderFocus)).
		Padding(0, 1).
		Width(max(width-2, 0)).
		Height(max(height-3, 0))
	return styles.AccentText.Bold(true).Render(" "+title) + "\n" + box.Render(content)
}
