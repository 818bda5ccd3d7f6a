package query

import (
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/masthead/internal/content"
)

func TestBuildSection_CapAndOrder(t *testing.T) {
	for _, s := range content.All() {
		d := BuildSection(s)

		assert.Equal(t, Limit, d.Limit, s)
		assert.Equal(t, 3, d.Limit, s)
		assert.Equal(t, PublishedDesc, d.Order, s)
		assert.Equal(t, DocumentType, d.Type, s)
		assert.Equal(t, string(s), d.Params[ParamSection], s)

		groq := d.GROQ()
		assert.True(t, strings.HasSuffix(groq, "[0...3]"), groq)
		assert.Contains(t, groq, "| order(publishedAt desc)")
	}
}

func TestBuildSection_ArtVariant(t *testing.T) {
	art := BuildSection(content.Art)
	assert.Equal(t, VariantArt, art.Projection.Variant)
	assert.True(t, art.HasField("images"))
	assert.False(t, art.HasField("body"))
	assert.Equal(t,
		[]string{"title", "authors", "issue", "slug", "sections", "mainImage", "images"},
		art.Projection.Names())

	for _, s := range []content.Section{content.Fiction, content.Features, content.Poetry} {
		d := BuildSection(s)
		assert.Equal(t, VariantStandard, d.Projection.Variant, s)
		assert.False(t, d.HasField("images"), s)
		assert.True(t, d.HasField("body"), s)
		assert.Equal(t,
			[]string{"title", "authors", "issue", "sections", "slug", "body", "mainImage"},
			d.Projection.Names(), s)
	}
}

func TestBuildSection_UnknownNameUsesStandard(t *testing.T) {
	d := BuildSection(content.Section("Reviews"))
	assert.Equal(t, VariantStandard, d.Projection.Variant)
	assert.Equal(t, "Reviews", d.Params[ParamSection])
}

func TestBuildSection_Idempotent(t *testing.T) {
	a := BuildSection(content.Fiction)
	b := BuildSection(content.Fiction)
	assert.True(t, reflect.DeepEqual(a, b))
	assert.Equal(t, a.GROQ(), b.GROQ())

	// Mutating one result must not leak into the next build.
	a.Projection.Fields[0].Name = "mutated"
	c := BuildSection(content.Fiction)
	assert.Equal(t, "title", c.Projection.Fields[0].Name)
}

func TestBuildSearch(t *testing.T) {
	d := BuildSearch("Moon")

	assert.Equal(t, 3, d.Limit)
	assert.Equal(t, PublishedDesc, d.Order)
	assert.Equal(t, "Moon", d.Params[ParamSearch])
	assert.Contains(t, d.Filter, "title match $searchQuery")
	assert.Contains(t, d.Filter, "authors[]->name match $searchQuery")
	assert.Equal(t, VariantStandard, d.Projection.Variant)
	assert.False(t, d.HasField("images"))
}

func TestBuildSearch_InputNeverInQueryText(t *testing.T) {
	inputs := []string{
		`Moon`,
		`" || true || "`,
		`"] | order(_id) {password}[0...1000`,
		"",
		"   ",
	}
	for _, in := range inputs {
		d := BuildSearch(in)
		groq := d.GROQ()
		if strings.TrimSpace(in) != "" {
			assert.NotContains(t, groq, in)
		}
		assert.Equal(t, BuildSearch("x").GROQ(), groq, "query text must not depend on input")
		assert.Equal(t, in, d.Params[ParamSearch])
	}
}

func TestDescriptor_GROQ(t *testing.T) {
	d := BuildSection(content.Poetry)
	want := `*[_type == "contentItem" && ($section in sections[]->title)] | order(publishedAt desc) ` +
		`{title, authors[]->{name}, issue->{title, slug}, sections[]->{title, slug}, slug, body, mainImage{asset->{_id, url}}}[0...3]`
	assert.Equal(t, want, d.GROQ())

	art := BuildSection(content.Art)
	assert.Contains(t, art.GROQ(), "slug, sections[]->{title, slug}, mainImage{asset->{_id, url}}, images[]{asset->{_id, url}}}")

	assert.Equal(t, `*[_type == "contentItem"][0...1]`, BuildPing().GROQ())
}

func TestDescriptor_EncodedParams(t *testing.T) {
	d := BuildSearch(`say "hi"`)
	params, err := d.EncodedParams()
	require.NoError(t, err)
	assert.Equal(t, `"say \"hi\""`, params[ParamSearch])
	assert.Equal(t, []string{ParamSearch}, d.ParamNames())

	bad := Descriptor{Params: map[string]any{"ch": make(chan int)}}
	_, err = bad.EncodedParams()
	assert.Error(t, err)
}
