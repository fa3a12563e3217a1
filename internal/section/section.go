// Package section infers section and heading context for requirement rows.
//
// Inference is an ordered fold: each row's Facts are stepped against the
// running Context, producing the row's Outcome and the Context for the next
// row. Rows are seen strictly top to bottom with no lookahead. The Context
// is a plain value owned by the caller; start each document from the zero
// Context.
package section

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/reqid"
	"github.com/JonMunkholm/reqtrace/internal/schema"
)

// DefaultHeaderType labels a header row whose own type is unknown.
const DefaultHeaderType = "header"

// sectionIDPattern matches Req_IDs that are bare section numbers: "4", "4.1", "4.1.2.".
var sectionIDPattern = regexp.MustCompile(`^\d+(\.\d+)*\.?$`)

// numberedTextPattern matches text opening with a section number followed by
// a separator: "3.1.2 Hydraulics", "4-1. Pumps".
var numberedTextPattern = regexp.MustCompile(`^(\d+(?:[.\-]\d+)*[A-Za-z]?)[.\-\s]+(.*)$`)

// maxTextTitle bounds un-numbered text used as an inferred title.
const maxTextTitle = 150

// Context is the running section state of one document.
type Context struct {
	Title        string
	Number       string
	Type         string
	ObjectNumber string // object number of the last header
	Headers      int    // headers seen so far
	SinceHeader  int    // non-header rows since the last header
}

// InSection reports whether a header has been seen.
func (c Context) InSection() bool {
	return c.Headers > 0
}

// Facts are the section-relevant values read from one row.
type Facts struct {
	ReqID        string
	TypeValue    string // value of section_detection.type_column
	ObjectNumber string
	Text         string // first non-blank detection text column
	Title        string // explicit section fields
	Number       string
	SectionType  string
}

// Outcome is the section context assigned to one row.
type Outcome struct {
	IsHeader     bool
	Title        string
	Number       string
	Type         string
	ObjectNumber string
	Inferred     bool
}

// Engine classifies rows and fills in missing context for one family.
type Engine struct {
	detection *schema.SectionDetection
	inference schema.Inference
	objectCol string
	textCols  []string
}

// New returns an Engine for the DocSpec. A spec without section_detection
// yields an engine that never detects headers and never inherits; Req_ID
// derivation still applies when infer_from_req_id is set.
func New(spec schema.DocSpec) *Engine {
	e := &Engine{
		detection: spec.SectionDetection,
		inference: spec.Inference,
		objectCol: spec.ObjectNumberColumn(),
		textCols:  spec.TextColumns,
	}
	if e.detection != nil && len(e.detection.TextColumns) > 0 {
		e.textCols = e.detection.TextColumns
	}
	return e
}

// Facts reads a row's section-relevant values.
func (e *Engine) Facts(row record.RawRow, reqID string) Facts {
	inf := e.inference
	f := Facts{
		ReqID:        reqID,
		ObjectNumber: row.Get(e.objectCol),
		Text:         row.First(e.textCols...),
		Title:        row.Get(inf.SectionTitleColumn),
		Number:       row.Get(inf.SectionNumberColumn),
		SectionType:  row.Get(inf.SectionTypeColumn),
	}
	if e.detection != nil {
		f.TypeValue = row.Get(e.detection.TypeColumn)
	}

	for _, col := range inf.SectionAliasColumns {
		v := row.Get(col)
		if v == "" {
			continue
		}
		name := strings.ToLower(col)
		switch {
		case strings.Contains(name, "title"):
			f.Title = first(f.Title, v)
		case strings.Contains(name, "number"):
			f.Number = first(f.Number, v)
		case strings.Contains(name, "type"):
			f.SectionType = first(f.SectionType, v)
		default:
			f.Title = first(f.Title, v)
		}
	}
	return f
}

// IsHeader classifies a row. A non-blank type_column value is authoritative;
// otherwise the object-number and Req_ID heuristics apply when enabled.
func (e *Engine) IsHeader(f Facts) bool {
	sd := e.detection
	if sd == nil {
		return false
	}
	if sd.TypeColumn != "" && f.TypeValue != "" {
		return sd.IsHeaderType(f.TypeValue)
	}
	if sd.ObjectNumberHeaders && f.ObjectNumber != "" && f.Text != "" &&
		!strings.Contains(f.ObjectNumber, "-") {
		return true
	}
	return e.inference.InferFromReqID && sectionIDPattern.MatchString(f.ReqID)
}

// Step advances the fold by one row.
func (e *Engine) Step(ctx Context, f Facts) (Context, Outcome) {
	if e.IsHeader(f) {
		return e.header(ctx, f)
	}
	return e.requirement(ctx, f)
}

func (e *Engine) header(ctx Context, f Facts) (Context, Outcome) {
	number := first(f.Number, f.ObjectNumber)
	if number == "" && sectionIDPattern.MatchString(f.ReqID) {
		number = f.ReqID
	}
	out := Outcome{
		IsHeader:     true,
		Title:        first(f.Title, f.Text),
		Number:       number,
		Type:         first(f.SectionType, f.TypeValue, DefaultHeaderType),
		ObjectNumber: f.ObjectNumber,
	}

	ctx.Title = out.Title
	ctx.Number = out.Number
	ctx.Type = out.Type
	ctx.ObjectNumber = first(f.ObjectNumber, number)
	ctx.Headers++
	ctx.SinceHeader = 0
	return ctx, out
}

func (e *Engine) requirement(ctx Context, f Facts) (Context, Outcome) {
	out := Outcome{
		Title:        f.Title,
		Number:       f.Number,
		Type:         f.SectionType,
		ObjectNumber: f.ObjectNumber,
	}
	inf := e.inference
	// Rows carrying their own title or number keep them as-is.
	explicit := f.Title != "" || f.Number != ""

	if e.detection != nil {
		ctx.SinceHeader++
		if !explicit && inf.InheritSectionContext && ctx.InSection() {
			out.Title = out.fill(out.Title, ctx.Title)
			out.Number = out.fill(out.Number, ctx.Number)
			out.Type = out.fill(out.Type, ctx.Type)
		}
	}

	if !explicit && inf.InferFromObjectNumber {
		out.Number = out.fill(out.Number, f.ObjectNumber)
	}

	if !explicit && inf.InferFromText && f.Text != "" {
		number, title := splitNumberedText(f.Text)
		out.Number = out.fill(out.Number, number)
		out.Title = out.fill(out.Title, title)
	}

	if inf.InferFromReqID && f.ReqID != "" {
		section, object := reqid.SplitSection(f.ReqID)
		if !explicit {
			out.Number = out.fill(out.Number, section)
		}
		out.ObjectNumber = first(out.ObjectNumber, object)
	}

	if e.detection != nil && inf.AutoObjectNumber && ctx.InSection() && ctx.ObjectNumber != "" {
		out.ObjectNumber = first(out.ObjectNumber, fmt.Sprintf("%s-%d", ctx.ObjectNumber, ctx.SinceHeader))
	}
	return ctx, out
}

// splitNumberedText reads a leading section number ("1.2.3 Title",
// "4-1. Title") off requirement text. Text without one is taken as a title
// when short.
func splitNumberedText(text string) (number, title string) {
	if m := numberedTextPattern.FindStringSubmatch(text); m != nil {
		return m[1], strings.TrimSpace(m[2])
	}
	if len(text) < maxTextTitle {
		return "", text
	}
	return "", ""
}

// fill returns current when set, otherwise candidate, marking the outcome
// inferred when the candidate is used.
func (o *Outcome) fill(current, candidate string) string {
	if current != "" || candidate == "" {
		return current
	}
	o.Inferred = true
	return candidate
}

// Fold runs the engine over a document's facts from the zero Context.
func (e *Engine) Fold(facts []Facts) []Outcome {
	var ctx Context
	out := make([]Outcome, len(facts))
	for i, f := range facts {
		ctx, out[i] = e.Step(ctx, f)
	}
	return out
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
