package query

import (
	"github.com/abdul-hamid-achik/masthead/internal/content"
)

// Parameter names bound by the builders.
const (
	ParamSearch  = "searchQuery"
	ParamSection = "section"
)

// Projection variants.
const (
	VariantStandard = "standard"
	VariantArt      = "art"
)

var (
	fieldTitle     = Field{Name: "title"}
	fieldAuthors   = Field{Name: "authors", Expr: "authors[]->{name}"}
	fieldIssue     = Field{Name: "issue", Expr: "issue->{title, slug}"}
	fieldSections  = Field{Name: "sections", Expr: "sections[]->{title, slug}"}
	fieldSlug      = Field{Name: "slug"}
	fieldBody      = Field{Name: "body"}
	fieldMainImage = Field{Name: "mainImage", Expr: "mainImage{asset->{_id, url}}"}
	fieldImages    = Field{Name: "images", Expr: "images[]{asset->{_id, url}}"}
)

// StandardProjection is used by search and by every section without its own
// variant.
func StandardProjection() Projection {
	return Projection{
		Variant: VariantStandard,
		Fields: []Field{
			fieldTitle, fieldAuthors, fieldIssue, fieldSections,
			fieldSlug, fieldBody, fieldMainImage,
		},
	}
}

// ArtProjection lists slug before sections, drops the body, and adds the
// supplementary images.
func ArtProjection() Projection {
	return Projection{
		Variant: VariantArt,
		Fields: []Field{
			fieldTitle, fieldAuthors, fieldIssue, fieldSlug,
			fieldSections, fieldMainImage, fieldImages,
		},
	}
}

// sectionProjections maps sections with their own field set to a
// constructor for it.
var sectionProjections = map[content.Section]func() Projection{
	content.Art: ArtProjection,
}

// ProjectionFor returns the field set used for the section.
func ProjectionFor(section content.Section) Projection {
	if build, ok := sectionProjections[section]; ok {
		return build()
	}
	return StandardProjection()
}

// BuildSearch selects items whose title or any author name matches q,
// newest first, capped at Limit. q is bound verbatim as $searchQuery.
func BuildSearch(q string) Descriptor {
	return Descriptor{
		Type:       DocumentType,
		Filter:     "title match $" + ParamSearch + " || authors[]->name match $" + ParamSearch,
		Params:     map[string]any{ParamSearch: q},
		Order:      PublishedDesc,
		Limit:      Limit,
		Projection: StandardProjection(),
	}
}

// BuildSection selects items listing the section among their sections,
// newest first, capped at Limit.
func BuildSection(section content.Section) Descriptor {
	return Descriptor{
		Type:       DocumentType,
		Filter:     "$" + ParamSection + " in sections[]->title",
		Params:     map[string]any{ParamSection: string(section)},
		Order:      PublishedDesc,
		Limit:      Limit,
		Projection: ProjectionFor(section),
	}
}

// BuildPing is a minimal query used to check that the CMS answers.
func BuildPing() Descriptor {
	return Descriptor{
		Type:  DocumentType,
		Limit: 1,
	}
}
