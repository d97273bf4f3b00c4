package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// strip draws runs of text on one surface color. lipgloss resets the
// background after every styled run, so the gaps between runs are painted
// explicitly.
type strip struct {
	blank lipgloss.Style
	bg    lipgloss.Color
}

func newStrip(color string) strip {
	bg := lipgloss.Color(color)
	return strip{blank: lipgloss.NewStyle().Background(bg), bg: bg}
}

// text renders value word by word so inner spaces keep the surface color.
func (s strip) text(value string, style lipgloss.Style) string {
	if value == "" {
		return ""
	}
	fg := style.Background(s.bg)
	words := strings.Split(value, " ")
	for i, w := range words {
		if w != "" {
			words[i] = fg.Render(w)
		}
	}
	return strings.Join(words, s.gap(1))
}

func (s strip) gap(n int) string {
	if n <= 0 {
		return ""
	}
	return s.blank.Render(strings.Repeat(" ", n))
}

// pair renders a label followed by its value.
func (s strip) pair(label string, labelStyle lipgloss.Style, value string, valueStyle lipgloss.Style) string {
	return s.text(label, labelStyle) + s.gap(1) + s.text(value, valueStyle)
}

func (s strip) punct(p string) string {
	return s.blank.Render(p)
}
