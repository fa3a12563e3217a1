// Package schema holds the document-family definitions (DocSpecs) that tell
// the normalizers which columns play which role.
//
// DocSpecs are built once at startup into an immutable [Registry]: the builtin
// families, optionally patched by an externally supplied override document.
// The registry is passed explicitly to whatever needs it; there is no
// package-level mutable table.
package schema

import (
	"slices"
	"strings"
)

// Kind selects the normalizer strategy for a document family.
type Kind string

const (
	KindFCSS    Kind = "fcss"
	KindSRS     Kind = "srs"
	KindSSG     Kind = "ssg"
	KindGeneric Kind = "generic"
)

// Kinds lists every known normalizer tag.
var Kinds = []Kind{KindFCSS, KindSRS, KindSSG, KindGeneric}

// ParseKind maps a tag to a Kind. The second result is false for unknown tags.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	return k, slices.Contains(Kinds, k)
}

// IDPolicy decides what happens to a row whose composite ID has a blank
// component.
type IDPolicy string

const (
	// IDPolicySkip drops the row (logged).
	IDPolicySkip IDPolicy = "skip"
	// IDPolicyPartial keeps the row under an ID with a placeholder for each
	// blank component (logged).
	IDPolicyPartial IDPolicy = "partial"
)

// TraceColumns names the columns holding parent and child references.
type TraceColumns struct {
	Parents  []string `yaml:"parents"`
	Children []string `yaml:"children"`
}

// SectionDetection configures header-row classification.
type SectionDetection struct {
	TypeColumn          string   `yaml:"type_column"`
	HeaderTypes         []string `yaml:"header_types"`
	ObjectNumberColumn  string   `yaml:"object_number_column"`
	TextColumns         []string `yaml:"text_columns"`
	ObjectNumberHeaders bool     `yaml:"object_number_headers"` // dashless object number + text => header
}

// IsHeaderType reports whether a type_column value is in the header vocabulary.
func (s SectionDetection) IsHeaderType(value string) bool {
	value = strings.TrimSpace(value)
	for _, h := range s.HeaderTypes {
		if strings.EqualFold(h, value) {
			return true
		}
	}
	return false
}

// Inference configures how missing section context is filled in.
type Inference struct {
	InheritSectionContext bool     `yaml:"inherit_section_context"`
	InferFromReqID        bool     `yaml:"infer_from_req_id"`
	InferFromObjectNumber bool     `yaml:"infer_from_object_number"`
	InferFromText         bool     `yaml:"infer_from_text"`
	AutoObjectNumber      bool     `yaml:"auto_object_number"`
	ObjectNumberColumn    string   `yaml:"object_number_column"`
	SectionTitleColumn    string   `yaml:"section_title_column"`
	SectionNumberColumn   string   `yaml:"section_number_column"`
	SectionTypeColumn     string   `yaml:"section_type_column"`
	SectionAliasColumns   []string `yaml:"section_alias_columns"`
}

// DocSpec describes one document family's column roles and inference rules.
type DocSpec struct {
	DocType          string            `validate:"required"`
	Normalizer       Kind              `validate:"required,oneof=fcss srs ssg generic"`
	RequiredColumns  []string          `validate:"dive,required"`
	OptionalColumns  []string          `validate:"dive,required"`
	IDColumns        []string          `validate:"min=1,dive,required"`
	AliasColumns     []string          `validate:"dive,required"`
	TextColumns      []string          `validate:"dive,required"`
	Trace            TraceColumns
	SectionDetection *SectionDetection // nil: no header detection, no inheritance
	Inference        Inference
	Aliases          []string `validate:"dive,required"`
	ObjectTypeColumn string
	SkipObjectTypes  []string
	MissingIDPolicy  IDPolicy `validate:"omitempty,oneof=skip partial"`
	IDPadWidth       int      `validate:"gte=0,lte=12"`
}

// Composite reports whether the Req_ID is built from several columns.
func (d DocSpec) Composite() bool {
	return len(d.IDColumns) > 1
}

// Policy returns the effective missing-ID policy.
func (d DocSpec) Policy() IDPolicy {
	if d.MissingIDPolicy == "" {
		return IDPolicySkip
	}
	return d.MissingIDPolicy
}

// ObjectNumberColumn returns the column holding the object number, preferring
// the section detection setting.
func (d DocSpec) ObjectNumberColumn() string {
	if d.SectionDetection != nil && d.SectionDetection.ObjectNumberColumn != "" {
		return d.SectionDetection.ObjectNumberColumn
	}
	return d.Inference.ObjectNumberColumn
}

// Clone returns a deep copy so callers can never mutate registry state.
func (d DocSpec) Clone() DocSpec {
	c := d
	c.RequiredColumns = slices.Clone(d.RequiredColumns)
	c.OptionalColumns = slices.Clone(d.OptionalColumns)
	c.IDColumns = slices.Clone(d.IDColumns)
	c.AliasColumns = slices.Clone(d.AliasColumns)
	c.TextColumns = slices.Clone(d.TextColumns)
	c.Trace.Parents = slices.Clone(d.Trace.Parents)
	c.Trace.Children = slices.Clone(d.Trace.Children)
	c.Inference.SectionAliasColumns = slices.Clone(d.Inference.SectionAliasColumns)
	c.Aliases = slices.Clone(d.Aliases)
	c.SkipObjectTypes = slices.Clone(d.SkipObjectTypes)
	if d.SectionDetection != nil {
		sd := *d.SectionDetection
		sd.HeaderTypes = slices.Clone(d.SectionDetection.HeaderTypes)
		sd.TextColumns = slices.Clone(d.SectionDetection.TextColumns)
		c.SectionDetection = &sd
	}
	return c
}
