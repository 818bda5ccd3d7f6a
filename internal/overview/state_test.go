package overview

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/masthead/internal/content"
)

func items(titles ...string) []content.Item {
	out := make([]content.Item, len(titles))
	for i, title := range titles {
		out[i] = content.Item{Title: title, Slug: content.Slug{Current: fmt.Sprintf("item-%d", i)}}
	}
	return out
}

func TestState_ModeFollowsTrimmedQuery(t *testing.T) {
	tests := []struct {
		query string
		want  Mode
	}{
		{"", ModeBrowse},
		{"   ", ModeBrowse},
		{"\t\n", ModeBrowse},
		{"Moon", ModeSearch},
		{"  Moon ", ModeSearch},
	}
	for _, tt := range tests {
		s, _ := NewState().SearchChanged(tt.query)
		assert.Equal(t, tt.want, s.Mode(), "query %q", tt.query)
	}
}

func TestState_BlankQueryShowsSectionsRegardlessOfFiltered(t *testing.T) {
	s, token := NewState().SearchChanged("Moon")
	s, ok := s.SearchResolved(token, items("Moon River"))
	require.True(t, ok)

	s, _ = s.SearchChanged("  ")
	s = s.SectionResolved(content.Art, items("Still Life"))

	v := s.View()
	assert.Equal(t, ModeBrowse, v.Mode)
	assert.Nil(t, v.Results)
	assert.False(t, v.NoResults)
	require.Len(t, v.Sections, 4)

	got := make([]content.Section, len(v.Sections))
	for i, sv := range v.Sections {
		got[i] = sv.Section
	}
	assert.Equal(t, content.All(), got)

	assert.True(t, v.Sections[0].Results.Loaded)
	assert.Equal(t, content.LayoutGrid, v.Sections[0].Layout)
	for _, sv := range v.Sections[1:] {
		assert.False(t, sv.Results.Loaded, sv.Section)
		assert.Equal(t, content.LayoutList, sv.Layout, sv.Section)
	}
}

func TestState_SearchView(t *testing.T) {
	s, token := NewState().SearchChanged("Moon")

	v := s.View()
	assert.Equal(t, ModeSearch, v.Mode)
	assert.True(t, v.NoResults, "unresolved search shows the no-results indicator")

	s, ok := s.SearchResolved(token, items("Moon River", "Blue Moon"))
	require.True(t, ok)
	v = s.View()
	assert.False(t, v.NoResults)
	assert.Len(t, v.Results, 2)
	assert.Nil(t, v.Sections)

	s, token = s.SearchChanged("Zzzznomatch")
	s, ok = s.SearchResolved(token, []content.Item{})
	require.True(t, ok)
	v = s.View()
	assert.True(t, v.NoResults)
	assert.Empty(t, v.Results)
}

func TestState_SearchResolvedDropsStaleToken(t *testing.T) {
	s, first := NewState().SearchChanged("M")
	s, second := s.SearchChanged("Mo")
	assert.Greater(t, second, first)

	s, ok := s.SearchResolved(second, items("Moon"))
	require.True(t, ok)

	s, ok = s.SearchResolved(first, items("Mars", "Mercury"))
	assert.False(t, ok)
	assert.Equal(t, "Moon", s.Filtered.Items[0].Title)
	assert.Len(t, s.Filtered.Items, 1)
}

func TestState_ResultsCapped(t *testing.T) {
	s := NewState().SectionResolved(content.Fiction, items("a", "b", "c", "d", "e"))
	assert.Len(t, s.Section(content.Fiction).Items, 3)

	s, token := s.SearchChanged("x")
	s, _ = s.SearchResolved(token, items("a", "b", "c", "d"))
	assert.Len(t, s.Filtered.Items, 3)
}

func TestState_NilItemsResolveEmpty(t *testing.T) {
	s := NewState().SectionResolved(content.Poetry, nil)
	r := s.Section(content.Poetry)
	assert.True(t, r.Loaded)
	assert.NotNil(t, r.Items)
	assert.Empty(t, r.Items)
}

func TestState_TransitionsDoNotMutateReceiver(t *testing.T) {
	before := NewState().SectionResolved(content.Art, items("a"))
	after := before.SectionResolved(content.Fiction, items("b"))

	_, ok := before.Sections[content.Fiction]
	assert.False(t, ok)
	_, ok = after.Sections[content.Fiction]
	assert.True(t, ok)

	changed, _ := before.SearchChanged("q")
	assert.Equal(t, "", before.Query)
	assert.Equal(t, uint64(0), before.Token)
	assert.Equal(t, "q", changed.Query)
}
