package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/runoshun/taskstream/internal/domain"
)

const (
	titlePlaceholder = "Generating task..."
	minCardWidth     = 20
	// border (2) + padding (2)
	cardChrome = 4
)

// escapeNewlines replaces newline characters with spaces for single-line display.
func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return s
}

// truncate shortens s to fit width display cells.
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// renderCard renders one task as a bordered card of the given outer width.
func renderCard(t domain.Task, width int, s Styles) string {
	width = max(width, minCardWidth)
	inner := width - cardChrome

	icon := s.StatusStyle(t.Status).Render(StatusIcon(t.Status))
	titleWidth := inner - runewidth.StringWidth(StatusIcon(t.Status)) - 1

	var title string
	if t.Title == "" {
		title = s.CardPlaceholder.Render(truncate(titlePlaceholder, titleWidth))
	} else {
		title = s.CardTitle.Render(truncate(escapeNewlines(t.Title), titleWidth))
	}

	lines := []string{icon + " " + title}

	switch {
	case t.Status == domain.StatusStreaming:
		lines = append(lines, s.CardDesc.Width(inner).Render(t.Description+s.Caret.Render("▍")))
	case t.Description != "":
		lines = append(lines, s.CardDesc.Width(inner).Render(t.Description))
	}

	if tags := renderTags(t.Tags, inner, s); tags != "" {
		lines = append(lines, tags)
	}

	return s.CardStyle(t.Status).Width(width - 2).Render(strings.Join(lines, "\n"))
}

// renderTags lays tags out on one line, dropping those that do not fit.
func renderTags(tags []string, width int, s Styles) string {
	var parts []string
	used := 0
	for _, tag := range tags {
		tag = escapeNewlines(tag)
		if tag == "" {
			continue
		}
		rendered := s.Tag.Render(tag)
		w := lipgloss.Width(rendered)
		if len(parts) > 0 {
			w++
		}
		if used+w > width {
			break
		}
		parts = append(parts, rendered)
		used += w
	}
	return strings.Join(parts, " ")
}

// renderCards renders the whole collection, one card per task.
func renderCards(tasks domain.Collection, width int, s Styles) string {
	cards := make([]string, 0, len(tasks))
	for _, t := range tasks {
		cards = append(cards, renderCard(t, width, s))
	}
	return strings.Join(cards, "\n")
}
