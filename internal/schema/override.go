package schema

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Override is a partial DocSpec read from an external schema document.
// Only the fields present in the document replace the base definition; a
// list written as [] clears the base list.
type Override struct {
	DocType          string                    `yaml:"doc_type"`
	Normalizer       string                    `yaml:"normalizer"`
	RequiredColumns  []string                  `yaml:"required_columns"`
	OptionalColumns  []string                  `yaml:"optional_columns"`
	IDColumns        []string                  `yaml:"id_columns"`
	AliasColumns     []string                  `yaml:"alias_columns"`
	TextColumns      []string                  `yaml:"text_columns"`
	Trace            *TraceColumns             `yaml:"trace_columns"`
	SectionDetection *SectionDetectionOverride `yaml:"section_detection"`
	Inference        *InferenceOverride        `yaml:"inference"`
	Aliases          []string                  `yaml:"aliases"`
	ObjectTypeColumn string                    `yaml:"object_type_column"`
	SkipObjectTypes  []string                  `yaml:"skip_object_types"`
	MissingIDPolicy  string                    `yaml:"missing_id_policy"`
	IDPadWidth       *int                      `yaml:"id_pad_width"`
}

// SectionDetectionOverride is the partial form of SectionDetection.
type SectionDetectionOverride struct {
	TypeColumn          string   `yaml:"type_column"`
	HeaderTypes         []string `yaml:"header_types"`
	ObjectNumberColumn  string   `yaml:"object_number_column"`
	TextColumns         []string `yaml:"text_columns"`
	ObjectNumberHeaders *bool    `yaml:"object_number_headers"`
}

// InferenceOverride is the partial form of Inference.
type InferenceOverride struct {
	InheritSectionContext *bool    `yaml:"inherit_section_context"`
	InferFromReqID        *bool    `yaml:"infer_from_req_id"`
	InferFromObjectNumber *bool    `yaml:"infer_from_object_number"`
	InferFromText         *bool    `yaml:"infer_from_text"`
	AutoObjectNumber      *bool    `yaml:"auto_object_number"`
	ObjectNumberColumn    string   `yaml:"object_number_column"`
	SectionTitleColumn    string   `yaml:"section_title_column"`
	SectionNumberColumn   string   `yaml:"section_number_column"`
	SectionTypeColumn     string   `yaml:"section_type_column"`
	SectionAliasColumns   []string `yaml:"section_alias_columns"`
}

// Merge applies an override to a base DocSpec and validates the result.
// The base is not modified.
func Merge(base DocSpec, o Override) (DocSpec, error) {
	merged := base.Clone()

	patch := DocSpec{
		RequiredColumns:  slices.Clone(o.RequiredColumns),
		OptionalColumns:  slices.Clone(o.OptionalColumns),
		IDColumns:        slices.Clone(o.IDColumns),
		AliasColumns:     slices.Clone(o.AliasColumns),
		TextColumns:      slices.Clone(o.TextColumns),
		Aliases:          slices.Clone(o.Aliases),
		ObjectTypeColumn: o.ObjectTypeColumn,
		SkipObjectTypes:  slices.Clone(o.SkipObjectTypes),
		MissingIDPolicy:  IDPolicy(o.MissingIDPolicy),
	}
	if o.Normalizer != "" {
		kind, ok := ParseKind(o.Normalizer)
		if !ok {
			return DocSpec{}, &InvalidSpecError{
				DocType: base.DocType,
				Reason:  fmt.Sprintf("unknown normalizer %q", o.Normalizer),
			}
		}
		patch.Normalizer = kind
	}
	if o.Trace != nil {
		patch.Trace = TraceColumns{
			Parents:  slices.Clone(o.Trace.Parents),
			Children: slices.Clone(o.Trace.Children),
		}
	}
	if o.Inference != nil {
		patch.Inference = Inference{
			ObjectNumberColumn:  o.Inference.ObjectNumberColumn,
			SectionTitleColumn:  o.Inference.SectionTitleColumn,
			SectionNumberColumn: o.Inference.SectionNumberColumn,
			SectionTypeColumn:   o.Inference.SectionTypeColumn,
			SectionAliasColumns: slices.Clone(o.Inference.SectionAliasColumns),
		}
	}

	if err := mergo.Merge(&merged, patch, mergo.WithOverride); err != nil {
		return DocSpec{}, fmt.Errorf("merge %s: %w", base.DocType, err)
	}

	// Explicit empty lists clear the base value; mergo skips empty sources.
	clearIfEmpty(&merged.RequiredColumns, o.RequiredColumns)
	clearIfEmpty(&merged.OptionalColumns, o.OptionalColumns)
	clearIfEmpty(&merged.AliasColumns, o.AliasColumns)
	clearIfEmpty(&merged.TextColumns, o.TextColumns)
	clearIfEmpty(&merged.Aliases, o.Aliases)
	clearIfEmpty(&merged.SkipObjectTypes, o.SkipObjectTypes)
	if o.Trace != nil {
		clearIfEmpty(&merged.Trace.Parents, o.Trace.Parents)
		clearIfEmpty(&merged.Trace.Children, o.Trace.Children)
	}

	if o.Inference != nil {
		inf := o.Inference
		setBool(&merged.Inference.InheritSectionContext, inf.InheritSectionContext)
		setBool(&merged.Inference.InferFromReqID, inf.InferFromReqID)
		setBool(&merged.Inference.InferFromObjectNumber, inf.InferFromObjectNumber)
		setBool(&merged.Inference.InferFromText, inf.InferFromText)
		setBool(&merged.Inference.AutoObjectNumber, inf.AutoObjectNumber)
		clearIfEmpty(&merged.Inference.SectionAliasColumns, inf.SectionAliasColumns)
	}

	if o.SectionDetection != nil {
		sd, err := mergeDetection(merged.SectionDetection, *o.SectionDetection)
		if err != nil {
			return DocSpec{}, fmt.Errorf("merge %s section_detection: %w", base.DocType, err)
		}
		merged.SectionDetection = sd
	}

	if o.IDPadWidth != nil {
		merged.IDPadWidth = *o.IDPadWidth
	}

	if err := Validate(merged); err != nil {
		return DocSpec{}, err
	}
	return merged, nil
}

func mergeDetection(base *SectionDetection, o SectionDetectionOverride) (*SectionDetection, error) {
	sd := SectionDetection{
		TypeColumn:         "Requirement Type",
		HeaderTypes:        slices.Clone(DefaultHeaderTypes),
		ObjectNumberColumn: "Object Number",
	}
	if base != nil {
		sd = *base
		sd.HeaderTypes = slices.Clone(base.HeaderTypes)
		sd.TextColumns = slices.Clone(base.TextColumns)
	}

	patch := SectionDetection{
		TypeColumn:         o.TypeColumn,
		HeaderTypes:        slices.Clone(o.HeaderTypes),
		ObjectNumberColumn: o.ObjectNumberColumn,
		TextColumns:        slices.Clone(o.TextColumns),
	}
	if err := mergo.Merge(&sd, patch, mergo.WithOverride); err != nil {
		return nil, err
	}
	clearIfEmpty(&sd.HeaderTypes, o.HeaderTypes)
	clearIfEmpty(&sd.TextColumns, o.TextColumns)
	setBool(&sd.ObjectNumberHeaders, o.ObjectNumberHeaders)
	return &sd, nil
}

func clearIfEmpty(dst *[]string, src []string) {
	if src != nil && len(src) == 0 {
		*dst = nil
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

// Document is an external schema document: a version label and a set of
// per-family overrides.
type Document struct {
	Version   string
	Overrides []Override
}

type rawDocument struct {
	Version   string    `yaml:"version"`
	Documents yaml.Node `yaml:"documents"`
}

// DecodeDocument reads a YAML schema document.
func DecodeDocument(r io.Reader) (Document, error) {
	var raw rawDocument
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return Document{}, nil
		}
		return Document{}, fmt.Errorf("decode schema document: %w", err)
	}

	overrides, err := DecodeOverrides(&raw.Documents)
	if err != nil {
		return Document{}, err
	}
	return Document{Version: raw.Version, Overrides: overrides}, nil
}

// DecodeOverrides decodes the documents section of a schema document. Both
// a list of entries carrying doc_type and a mapping keyed by doc type are
// accepted.
func DecodeOverrides(node *yaml.Node) ([]Override, error) {
	if node == nil || node.Kind == 0 {
		return nil, nil
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	switch node.Kind {
	case yaml.SequenceNode:
		var list []Override
		if err := node.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode schema documents: %w", err)
		}
		return list, nil

	case yaml.MappingNode:
		list := make([]Override, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			var o Override
			if err := value.Decode(&o); err != nil {
				return nil, fmt.Errorf("decode schema document %q: %w", key.Value, err)
			}
			if o.DocType == "" {
				o.DocType = key.Value
			}
			list = append(list, o)
		}
		return list, nil

	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("decode schema documents: expected a list or mapping at line %d", node.Line)
}
