package ui

import (
	"strings"

	"github.com/five82/webhelper/internal/player"
	"github.com/five82/webhelper/internal/state"
)

// updateEventsViewport re-renders the notification history, newest last.
func (m *Model) updateEventsViewport() {
	if !m.ready {
		return
	}
	atBottom := m.eventsViewport.AtBottom()
	lines := make([]string, 0, len(m.snapshot.Events))
	for _, rec := range m.snapshot.Events {
		lines = append(lines, m.formatRecord(rec))
	}
	if len(lines) == 0 {
		lines = append(lines, m.theme.Styles().MutedText.Render("No notifications yet"))
	}
	m.eventsViewport.SetContent(strings.Join(lines, "\n"))
	if atBottom {
		m.eventsViewport.GotoBottom()
	}
}

func (m Model) formatRecord(rec state.Record) string {
	styles := m.theme.Styles()
	kind := string(rec.Kind)
	line := styles.FaintText.Render(rec.At.Format("15:04:05")) + " " +
		styles.KindStyle(kind).Render(kind)

	var detail string
	switch rec.Kind {
	case player.EventSeek:
		detail = formatClock(rec.Position)
	case player.EventTrackWillChange:
		detail = rec.Track
	case player.EventError:
		detail = rec.Err
	}
	if detail != "" {
		line += " " + styles.Text.Render(truncate(detail, m.width-30))
	}
	return line
}
