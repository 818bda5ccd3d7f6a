// Package textview renders the sections overview for a terminal.
package textview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/overview"
)

const (
	// NoResultsText is shown when a search resolves to nothing.
	NoResultsText = "No results found."
	// UnavailableText marks a section whose fetch failed.
	UnavailableText = "unavailable"
	previewLength   = 120
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	sectionStyle = lipgloss.NewStyle().Italic(true).Bold(true).Foreground(lipgloss.Color("204"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	linkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	cardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Render returns the terminal rendering of whichever mode v is in.
func Render(v overview.View) string {
	if v.Mode == overview.ModeSearch {
		return renderSearch(v)
	}
	return renderSections(v)
}

func renderSearch(v overview.View) string {
	var b strings.Builder
	b.WriteString(headingStyle.Render("Search Results"))
	b.WriteString("\n\n")
	if v.NoResults {
		b.WriteString(mutedStyle.Render(NoResultsText))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(grid(v.Results))
	b.WriteString("\n")
	return b.String()
}

func renderSections(v overview.View) string {
	blocks := make([]string, 0, len(v.Sections))
	for _, sv := range v.Sections {
		var b strings.Builder
		b.WriteString(sectionStyle.Render(sv.Section.String() + " →"))
		b.WriteString(" ")
		b.WriteString(linkStyle.Render(sv.Section.Path()))
		b.WriteString("\n")

		switch {
		case !sv.Results.Loaded:
			b.WriteString(mutedStyle.Render(UnavailableText))
			b.WriteString("\n")
		case sv.Layout == content.LayoutGrid:
			b.WriteString(grid(sv.Results.Items))
			b.WriteString("\n")
		default:
			b.WriteString(list(sv.Results.Items))
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

// grid lays items out side by side as bordered cards.
func grid(items []content.Item) string {
	if len(items) == 0 {
		return ""
	}
	cards := make([]string, 0, len(items))
	for _, it := range items {
		lines := []string{titleStyle.Render(it.Title)}
		if names := it.AuthorNames(); names != "" {
			lines = append(lines, mutedStyle.Render(names))
		}
		if src := it.ImageURL(); src != "" {
			lines = append(lines, linkStyle.Render(src))
		}
		cards = append(cards, cardStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func list(items []content.Item) string {
	var b strings.Builder
	for _, it := range items {
		b.WriteString("• ")
		b.WriteString(titleStyle.Render(it.Title))
		if names := it.AuthorNames(); names != "" {
			b.WriteString(" ")
			b.WriteString(mutedStyle.Render("by " + names))
		}
		b.WriteString("\n")
		if preview := it.Body.Preview(previewLength); preview != "" {
			b.WriteString("  ")
			b.WriteString(preview)
			b.WriteString("\n")
		}
	}
	return b.String()
}
