package content

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrUnknownSection is returned by ParseSection for names outside the fixed set.
var ErrUnknownSection = errors.New("unknown section")

// Section is an editorial category used to group content.
type Section string

// The fixed sections, in page order.
const (
	Art      Section = "Art"
	Fiction  Section = "Fiction"
	Features Section = "Features"
	Poetry   Section = "Poetry"
)

// Layout selects the renderer used for a section.
type Layout int

const (
	// LayoutList renders a text-forward list.
	LayoutList Layout = iota
	// LayoutGrid renders an image-forward grid.
	LayoutGrid
)

func (l Layout) String() string {
	switch l {
	case LayoutGrid:
		return "grid"
	default:
		return "list"
	}
}

// All returns the fixed sections in the order they appear on the page.
func All() []Section {
	return []Section{Art, Fiction, Features, Poetry}
}

// ParseSection resolves a section name case-insensitively.
func ParseSection(name string) (Section, error) {
	name = strings.TrimSpace(name)
	for _, s := range All() {
		if strings.EqualFold(string(s), name) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSection, name)
}

// Layout returns the renderer for the section.
func (s Section) Layout() Layout {
	if s == Art {
		return LayoutGrid
	}
	return LayoutList
}

// Path is the link target of the section's full page.
func (s Section) Path() string {
	return "/sections/" + url.PathEscape(string(s))
}

func (s Section) String() string {
	return string(s)
}
