package mcp

import (
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/overview"
)

const (
	// NoResultsText is returned when a search matches nothing.
	NoResultsText = "No results found."
	previewLength = 160
)

func writeSection(sb *strings.Builder, section content.Section, results overview.Results) {
	fmt.Fprintf(sb, "## %s\n", section)
	fmt.Fprintf(sb, "Path: %s\n\n", section.Path())

	switch {
	case !results.Loaded:
		sb.WriteString("_Section unavailable._\n")
	case len(results.Items) == 0:
		sb.WriteString("_No published items._\n")
	default:
		writeItems(sb, results.Items)
	}
}

func writeItems(sb *strings.Builder, items []content.Item) {
	for i, it := range items {
		fmt.Fprintf(sb, "### %d. %s\n", i+1, it.Title)
		if names := it.AuthorNames(); names != "" {
			fmt.Fprintf(sb, "**By:** %s\n", names)
		}
		if it.Issue != nil && it.Issue.Title != "" {
			fmt.Fprintf(sb, "**Issue:** %s\n", it.Issue.Title)
		}
		if it.Slug.Current != "" {
			fmt.Fprintf(sb, "**Path:** %s\n", it.Path())
		}
		if src := it.ImageURL(); src != "" {
			fmt.Fprintf(sb, "**Image:** %s\n", src)
		}
		if preview := it.Body.Preview(previewLength); preview != "" {
			fmt.Fprintf(sb, "\n%s\n", preview)
		}
		sb.WriteString("\n")
	}
}
