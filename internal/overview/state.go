// Package overview holds the state of the sections overview page and the
// controller that fills it from the content source.
package overview

import (
	"strings"

	"github.com/abdul-hamid-achik/masthead/internal/content"
	"github.com/abdul-hamid-achik/masthead/internal/query"
)

// Mode is the display mode of the page.
type Mode int

const (
	// ModeBrowse shows every section's results.
	ModeBrowse Mode = iota
	// ModeSearch shows only the filtered results.
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "browse"
}

// Results is a result sequence that has either resolved or not. An
// unresolved sequence is distinct from a resolved empty one.
type Results struct {
	Items  []content.Item
	Loaded bool
}

func resolved(items []content.Item) Results {
	n := min(len(items), query.Limit)
	capped := make([]content.Item, n)
	copy(capped, items[:n])
	return Results{Items: capped, Loaded: true}
}

// State is everything the page displays. Transitions return a new State and
// leave the receiver untouched.
type State struct {
	Query string
	// Token identifies the latest issued search fetch.
	Token    uint64
	Filtered Results
	Sections map[content.Section]Results
}

// NewState returns the state of a freshly mounted page.
func NewState() State {
	return State{Sections: make(map[content.Section]Results)}
}

// SearchChanged records a new search query and issues the token that its
// fetch must carry. Filtered results stay as they are until a response for
// the new token arrives.
func (s State) SearchChanged(q string) (State, uint64) {
	s.Query = q
	s.Token++
	return s, s.Token
}

// SectionResolved stores a section's results.
func (s State) SectionResolved(section content.Section, items []content.Item) State {
	sections := make(map[content.Section]Results, len(s.Sections)+1)
	for k, v := range s.Sections {
		sections[k] = v
	}
	sections[section] = resolved(items)
	s.Sections = sections
	return s
}

// SearchResolved stores a search response. Responses whose token is not the
// latest issued are discarded and reported with false.
func (s State) SearchResolved(token uint64, items []content.Item) (State, bool) {
	if token != s.Token {
		return s, false
	}
	s.Filtered = resolved(items)
	return s, true
}

// Mode is ModeSearch whenever the trimmed query is non-empty.
func (s State) Mode() Mode {
	if strings.TrimSpace(s.Query) != "" {
		return ModeSearch
	}
	return ModeBrowse
}

// Section returns the results of one section.
func (s State) Section(section content.Section) Results {
	return s.Sections[section]
}

// SectionView is one section block of the browse view.
type SectionView struct {
	Section content.Section
	Layout  content.Layout
	Results Results
}

// View is the display decision derived from a State.
type View struct {
	Mode  Mode
	Query string

	// Search mode.
	Results   []content.Item
	NoResults bool

	// Browse mode, in page order.
	Sections []SectionView
}

// View derives what the page shows.
func (s State) View() View {
	v := View{Mode: s.Mode(), Query: s.Query}

	if v.Mode == ModeSearch {
		if s.Filtered.Loaded && len(s.Filtered.Items) > 0 {
			v.Results = s.Filtered.Items
		} else {
			v.NoResults = true
		}
		return v
	}

	for _, section := range content.All() {
		v.Sections = append(v.Sections, SectionView{
			Section: section,
			Layout:  section.Layout(),
			Results: s.Sections[section],
		})
	}
	return v
}
