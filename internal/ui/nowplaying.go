package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderNowPlaying renders the current track, the simulated position and
// the player flags.
func (m Model) renderNowPlaying() string {
	styles := m.theme.Styles()
	st := m.playback.Status

	if st == nil {
		lines := []string{
			styles.WarningText.Render("Waiting for the companion"),
			styles.MutedText.Render("phase: " + m.playback.Phase.String()),
		}
		if err := m.lastError(); err != "" {
			lines = append(lines, styles.DangerText.Render(err))
		}
		return strings.Join(lines, "\n")
	}

	badge := styles.WarningText.Render("❚❚ Paused")
	if st.Playing {
		badge = styles.SuccessText.Render("▶ Playing")
	}

	track := st.Track
	if track == nil {
		return badge + "\n\n" + styles.MutedText.Render("No track loaded")
	}

	title := track.Title()
	if title == "" {
		title = track.URI()
	}
	var byline []string
	if artist := track.Artist(); artist != "" {
		byline = append(byline, artist)
	}
	if album := track.Album(); album != "" {
		byline = append(byline, album)
	}

	bar := m.progress.ViewAs(progressRatio(m.playback.Position, track.Length))
	clock := fmt.Sprintf("%s / %s", formatClock(m.playback.Position), formatClock(track.Length))

	flags := fmt.Sprintf("shuffle %s · repeat %s · volume %d%%",
		onOff(st.Shuffle), onOff(st.Repeat), int(st.Volume*100+0.5))

	lines := []string{
		badge,
		"",
		styles.Text.Bold(true).Render(truncate(title, m.width-6)),
		styles.AccentText.Render(strings.Join(byline, " · ")),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center, bar, "  ", styles.MutedText.Render(clock)),
		"",
		styles.MutedText.Render(flags),
		styles.FaintText.Render(truncateMiddle(track.URI(), m.width-6)),
	}
	return strings.Join(lines, "\n")
}
