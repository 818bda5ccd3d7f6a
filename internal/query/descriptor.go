// Package query builds structured content queries for the CMS.
//
// A Descriptor never carries user input inside its query text. Every value
// that comes from a caller is bound as a named parameter and sent alongside
// the query, so search text cannot change the shape of the query.
package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const (
	// DocumentType is the CMS document type for published works.
	DocumentType = "contentItem"
	// Limit caps every result sequence.
	Limit = 3
	// PublishedDesc orders newest first.
	PublishedDesc = "publishedAt desc"
)

// Field is one projected attribute. Expr is the GROQ projection for the
// field; an empty Expr projects the attribute by name.
type Field struct {
	Name string
	Expr string
}

func (f Field) groq() string {
	if f.Expr == "" {
		return f.Name
	}
	return f.Expr
}

// Projection is an ordered field set tagged with a variant name.
type Projection struct {
	Variant string
	Fields  []Field
}

// Names returns the projected attribute names in order.
func (p Projection) Names() []string {
	names := make([]string, len(p.Fields))
	for i, f := range p.Fields {
		names[i] = f.Name
	}
	return names
}

// Descriptor describes which records to retrieve, how to filter, order, and
// cap them, and which attributes to project.
type Descriptor struct {
	Type string
	// Filter is a GROQ boolean expression referencing only $-parameters.
	Filter     string
	Params     map[string]any
	Order      string
	Limit      int
	Projection Projection
}

// HasField reports whether the projection includes the named attribute.
func (d Descriptor) HasField(name string) bool {
	for _, f := range d.Projection.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// GROQ renders the query text.
func (d Descriptor) GROQ() string {
	var sb strings.Builder

	sb.WriteString(`*[_type == "`)
	sb.WriteString(d.Type)
	sb.WriteString(`"`)
	if d.Filter != "" {
		sb.WriteString(" && (")
		sb.WriteString(d.Filter)
		sb.WriteString(")")
	}
	sb.WriteString("]")

	if d.Order != "" {
		sb.WriteString(" | order(")
		sb.WriteString(d.Order)
		sb.WriteString(")")
	}

	if len(d.Projection.Fields) > 0 {
		fields := make([]string, len(d.Projection.Fields))
		for i, f := range d.Projection.Fields {
			fields[i] = f.groq()
		}
		sb.WriteString(" {")
		sb.WriteString(strings.Join(fields, ", "))
		sb.WriteString("}")
	}

	if d.Limit > 0 {
		fmt.Fprintf(&sb, "[0...%d]", d.Limit)
	}

	return sb.String()
}

// EncodedParams returns each parameter JSON-encoded, keyed by name without
// the leading "$".
func (d Descriptor) EncodedParams() (map[string]string, error) {
	out := make(map[string]string, len(d.Params))
	for name, value := range d.Params {
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode param $%s: %w", name, err)
		}
		out[name] = string(raw)
	}
	return out, nil
}

// ParamNames returns the parameter names in sorted order.
func (d Descriptor) ParamNames() []string {
	names := make([]string, 0, len(d.Params))
	for name := range d.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
