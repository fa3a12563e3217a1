// Package normalize turns the raw rows of one document into canonical
// records.
//
// Each normalizer kind is a strategy over one shared row loop; the kinds
// differ only in their capabilities:
//
//	fcss     text concatenation; header detection from the DocSpec
//	srs      duplicate Req_ID merge; text concatenation
//	ssg      first text column only; guideline header vocabulary from the DocSpec
//	generic  text concatenation; any DocSpec
package normalize

import (
	"log/slog"

	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/schema"
	"github.com/JonMunkholm/reqtrace/internal/trace"
)

// Document identifies the input being normalized.
type Document struct {
	Name            string
	Type            string // canonical doc_type
	Level           string
	SkipObjectTypes []string // per-input additions to the DocSpec skip list
}

// Env carries the run-scoped collaborators a normalizer needs.
type Env struct {
	Harvester *trace.Harvester
	Logger    *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e Env) harvester() *trace.Harvester {
	if e.Harvester != nil {
		return e.Harvester
	}
	return trace.NewHarvester()
}

// Normalizer converts one document frame into records.
type Normalizer interface {
	Kind() schema.Kind
	Normalize(env Env, frame record.Frame, spec schema.DocSpec, doc Document) ([]record.Record, Stats)
}

// capabilities select the family-specific behavior of the shared loop.
type capabilities struct {
	mergeDuplicates bool
	concatText      bool
}

type strategy struct {
	kind schema.Kind
	caps capabilities
}

func (s strategy) Kind() schema.Kind { return s.kind }

func (s strategy) Normalize(env Env, frame record.Frame, spec schema.DocSpec, doc Document) ([]record.Record, Stats) {
	p := newPass(env, frame, spec, doc, s.caps)
	return p.run()
}

var strategies = map[schema.Kind]strategy{
	schema.KindFCSS:    {kind: schema.KindFCSS, caps: capabilities{concatText: true}},
	schema.KindSRS:     {kind: schema.KindSRS, caps: capabilities{mergeDuplicates: true, concatText: true}},
	schema.KindSSG:     {kind: schema.KindSSG},
	schema.KindGeneric: {kind: schema.KindGeneric, caps: capabilities{concatText: true}},
}

// For returns the normalizer for a kind. Unknown kinds get the generic
// normalizer.
func For(kind schema.Kind) Normalizer {
	if s, ok := strategies[kind]; ok {
		return s
	}
	return strategies[schema.KindGeneric]
}
