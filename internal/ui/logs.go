package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/webhelper/internal/logtail"
)

type logBatchMsg struct {
	lines []string
}

type logErrorMsg struct {
	err error
}

func (m Model) logPath() string {
	if m.config == nil {
		return ""
	}
	return m.config.Log.File
}

func (m Model) logTitle() string {
	title := "Logs"
	if path := m.logPath(); path != "" {
		title += " " + truncateMiddle(path, 50)
	}
	if m.logErr != nil {
		title += " (" + m.logErr.Error() + ")"
	}
	return title
}

// fetchLogs tails the configured log file.
func (m Model) fetchLogs() tea.Cmd {
	path := m.logPath()
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.ReadFile(path, logFetchLimit)
		if err != nil {
			return logErrorMsg{err: err}
		}
		return logBatchMsg{lines: lines}
	}
}

// updateLogViewport re-renders the tailed lines with level colors.
func (m *Model) updateLogViewport() {
	if !m.ready {
		return
	}
	styles := m.theme.Styles()
	rendered := make([]string, 0, len(m.logLines))
	for _, line := range m.logLines {
		rendered = append(rendered, m.levelStyle(logtail.Level(line), styles).Render(line))
	}
	if len(rendered) == 0 {
		rendered = append(rendered, styles.MutedText.Render("Log is empty"))
	}
	m.logViewport.SetContent(strings.Join(rendered, "\n"))
	if m.logFollow {
		m.logViewport.GotoBottom()
	}
}

func (m Model) levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "WARN":
		return styles.WarningText
	case "ERROR":
		return styles.DangerText.Bold(false)
	case "DEBUG":
		return styles.FaintText
	default:
		return styles.Text
	}
}
