// Package templates provides the HTML components of the sections page.
// Components are written in .templ files; the *_templ.go files next to them
// are produced by `templ generate`.
package templates

import (
	"fmt"
	"strings"

	"github.com/a-h/templ"

	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/overview"
)

const (
	// ResultsID is the element id swapped by live search.
	ResultsID = "sectionContainer"
	// NoResultsText is shown when a search resolves to nothing.
	NoResultsText = "No results found."
	// previewLength caps body previews in text lists.
	previewLength = 180
)

// PageData contains data for the sections page.
type PageData struct {
	View overview.View
	// DebounceMillis delays live search requests while typing.
	DebounceMillis int64
}

// List renders items with the renderer for the layout.
func List(layout content.Layout, items []content.Item) templ.Component {
	if layout == content.LayoutGrid {
		return ImageGrid(items)
	}
	return TextList(items)
}

// Results renders whichever mode the view is in.
func Results(v overview.View) templ.Component {
	if v.Mode == overview.ModeSearch {
		return SearchResults(v)
	}
	return Sections(v)
}

func searchTrigger(debounceMillis int64) string {
	triggers := []string{"input changed", "search"}
	if debounceMillis > 0 {
		triggers[0] = fmt.Sprintf("input changed delay:%dms", debounceMillis)
	}
	return strings.Join(triggers, ", ")
}
