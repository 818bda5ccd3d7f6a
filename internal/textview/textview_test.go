package textview

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/overview"
)

func item(title string) content.Item {
	return content.Item{
		Title:   title,
		Authors: []content.Author{{Name: "June Hale"}},
		Body:    content.Body{{Children: []content.Span{{Text: "Opening line."}}}},
	}
}

func TestRender_SearchWithMatches(t *testing.T) {
	out := Render(overview.View{
		Mode:    overview.ModeSearch,
		Query:   "Moon",
		Results: []content.Item{item("Moon River"), item("Blue Moon")},
	})

	assert.Contains(t, out, "Search Results")
	assert.Contains(t, out, "Moon River")
	assert.Contains(t, out, "Blue Moon")
	assert.NotContains(t, out, NoResultsText)
}

func TestRender_SearchWithoutMatches(t *testing.T) {
	out := Render(overview.View{Mode: overview.ModeSearch, Query: "Zzzznomatch", NoResults: true})

	assert.Contains(t, out, "Search Results")
	assert.Contains(t, out, NoResultsText)
}

func TestRender_Sections(t *testing.T) {
	s := overview.NewState().
		SectionResolved(content.Art, []content.Item{item("Still Life")}).
		SectionResolved(content.Fiction, []content.Item{item("Night Train")}).
		SectionResolved(content.Features, nil)
	out := Render(s.View())

	for _, section := range content.All() {
		assert.Contains(t, out, section.Path())
	}
	assert.Contains(t, out, "Still Life")
	assert.Contains(t, out, "• ")
	assert.Contains(t, out, "Night Train")
	assert.Contains(t, out, "Opening line.")
	// Poetry never resolved.
	assert.Equal(t, 1, strings.Count(out, UnavailableText))
	assert.Less(t, strings.Index(out, "/sections/Art"), strings.Index(out, "/sections/Poetry"))
}
