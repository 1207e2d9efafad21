package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/fora/internal/navigation"
)

// renderHeader returns a consistently styled header with an optional muted subtitle.
// Width is used to guide truncation via helpers.
func renderHeader(title, subtitle string, width int) string {
	title = truncateEnd(title, width-2)
	subtitle = truncateEnd(subtitle, width-2)
	rows := []string{HeaderStyle.Render(title)}
	if subtitle != "" {
		rows = append(rows, renderMuted(subtitle))
	}
	return lipgloss.JoinVertical(lipgloss.Top, rows...)
}

// renderInputFrame draws a rounded bordered container around a rendered input view.
func renderInputFrame(inputView string, focused bool, contentWidth int) string {
	borderColor := MutedColor
	if focused {
		borderColor = AccentColor
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(contentWidth + 4).
		Render(inputView)
}

// renderCentered centers the provided content within the given width/height box.
func renderCentered(width, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func renderMuted(text string) string {
	return lipgloss.NewStyle().Foreground(MutedColor).Render(text)
}

func renderHelp(text string) string {
	return HelpStyle.Render(text)
}

// renderBreadcrumbs numbers the stack elements so that 1–9 can jump to
// them. Leading crumbs are elided when the trail does not fit.
func renderBreadcrumbs(elems []navigation.Element, width int) string {
	if len(elems) == 0 {
		return ""
	}
	parts := make([]string, len(elems))
	for i, e := range elems {
		label := truncateEnd(e.Label(), 32)
		if i < 9 {
			label = fmt.Sprintf("%d %s", i+1, label)
		}
		if i == len(elems)-1 {
			parts[i] = CrumbActiveStyle.Render(label)
		} else {
			parts[i] = CrumbStyle.Render(label)
		}
	}
	sep := SeparatorStyle.Render(" › ")
	for start := 0; start < len(parts); start++ {
		trail := strings.Join(parts[start:], sep)
		if start > 0 {
			trail = renderMuted("…") + sep + trail
		}
		if lipgloss.Width(trail) <= width || start == len(parts)-1 {
			return trail
		}
	}
	return ""
}

// renderToggle draws a checkbox-style flag of the search form.
func renderToggle(label string, on, focused bool) string {
	box := "[ ]"
	if on {
		box = "[x]"
	}
	text := box + " " + label
	if focused {
		return SelectedItemStyle.Render(text)
	}
	return ModalTextStyle.Render(text)
}
