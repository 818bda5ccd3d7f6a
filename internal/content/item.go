// Package content defines the published works rendered on the sections page.
package content

import (
	"strings"
	"unicode/utf8"
)

// Slug is a CMS slug object.
type Slug struct {
	Current string `json:"current"`
}

// Ref is a projected reference to an issue or a section.
type Ref struct {
	Title string `json:"title"`
	Slug  Slug   `json:"slug"`
}

// Author is a projected author reference.
type Author struct {
	Name string `json:"name"`
}

// Asset is an image asset as returned by the CMS.
type Asset struct {
	ID  string `json:"_id"`
	URL string `json:"url"`
}

// Image wraps an image asset reference.
type Image struct {
	Asset *Asset `json:"asset"`
}

// URL returns the asset URL, or "" when the asset did not resolve.
func (i *Image) URL() string {
	if i == nil || i.Asset == nil {
		return ""
	}
	return i.Asset.URL
}

// Item is one published work: an article, poem, story, or art piece.
type Item struct {
	Title     string   `json:"title"`
	Authors   []Author `json:"authors"`
	Issue     *Ref     `json:"issue,omitempty"`
	Sections  []Ref    `json:"sections"`
	Slug      Slug     `json:"slug"`
	Body      Body     `json:"body,omitempty"`
	MainImage *Image   `json:"mainImage,omitempty"`
	// Images is only projected by the Art section query.
	Images []Image `json:"images,omitempty"`
}

// AuthorNames joins the author names for display.
func (it Item) AuthorNames() string {
	names := make([]string, 0, len(it.Authors))
	for _, a := range it.Authors {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// ImageURL returns the main image URL, falling back to the first
// supplementary image.
func (it Item) ImageURL() string {
	if u := it.MainImage.URL(); u != "" {
		return u
	}
	for i := range it.Images {
		if u := it.Images[i].URL(); u != "" {
			return u
		}
	}
	return ""
}

// Path is the link target for the item's own page.
func (it Item) Path() string {
	return "/content/" + it.Slug.Current
}

// Span is an inline run of text inside a block.
type Span struct {
	Type string `json:"_type,omitempty"`
	Text string `json:"text"`
}

// Block is a Portable Text block. Non-text blocks have no children.
type Block struct {
	Type     string `json:"_type,omitempty"`
	Style    string `json:"style,omitempty"`
	Children []Span `json:"children,omitempty"`
}

// Body is the structured rich text of an item.
type Body []Block

// PlainText joins the text of every block, one paragraph per block.
func (b Body) PlainText() string {
	paragraphs := make([]string, 0, len(b))
	for _, block := range b {
		var sb strings.Builder
		for _, span := range block.Children {
			sb.WriteString(span.Text)
		}
		if p := strings.TrimSpace(sb.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// Preview returns at most n runes of the plain text, cut at a word boundary
// and suffixed with an ellipsis when truncated.
func (b Body) Preview(n int) string {
	text := strings.Join(strings.Fields(b.PlainText()), " ")
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}

	runes := []rune(text)
	cut := string(runes[:n])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,.;:") + "…"
}
