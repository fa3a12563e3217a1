package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/reqid"
	"github.com/JonMunkholm/reqtrace/internal/schema"
	"github.com/JonMunkholm/reqtrace/internal/section"
	"github.com/JonMunkholm/reqtrace/internal/trace"
)

// defaultObjectTypeColumn is used for per-input skip lists when the DocSpec
// names no object type column.
const defaultObjectTypeColumn = "Object Type"

// pass is one normalization of one document.
type pass struct {
	log       *slog.Logger
	harvester *trace.Harvester
	frame     record.Frame
	spec      schema.DocSpec
	doc       Document
	caps      capabilities

	engine   *section.Engine
	ctx      section.Context
	idOpts   reqid.Options
	skipCol  string
	skip     map[string]bool
	attrCols []string
	merged   map[string]int // folded Req_ID -> index in out
	out      []record.Record
	stats    Stats
}

func newPass(env Env, frame record.Frame, spec schema.DocSpec, doc Document, caps capabilities) *pass {
	p := &pass{
		log:       env.logger(),
		harvester: env.harvester(),
		frame:     frame,
		spec:      spec,
		doc:       doc,
		caps:      caps,
		engine:    section.New(spec),
		idOpts: reqid.Options{
			Columns:      spec.IDColumns,
			AllowPartial: spec.Policy() == schema.IDPolicyPartial,
			PadWidth:     spec.IDPadWidth,
		},
		merged: make(map[string]int),
		stats:  Stats{Rows: len(frame.Rows)},
	}
	p.skipCol, p.skip = skipList(spec, doc)
	p.attrCols = attributeColumns(frame, spec)
	return p
}

func (p *pass) run() ([]record.Record, Stats) {
	for i, row := range p.frame.Rows {
		p.row(i, row)
	}
	for i := range p.out {
		p.out[i].Render()
	}
	p.stats.Produced = len(p.out)
	p.stats.log(p.log, p.doc)
	return p.out, p.stats
}

func (p *pass) row(i int, row record.RawRow) {
	if row.Empty() {
		p.stats.BlankRows++
		return
	}

	if objType := row.Get(p.skipCol); objType != "" && p.skip[strings.ToLower(objType)] {
		p.stats.SkippedObjectType++
		p.log.Debug("skipping row by object type", "row", i, "object_type", objType)
		return
	}

	id, idErr := reqid.Normalize(idValues(row, p.spec.IDColumns), p.idOpts)
	facts := p.engine.Facts(row, id.ID)
	isHeader := p.engine.IsHeader(facts)

	if idErr != nil && !isHeader {
		p.stats.MissingID++
		code := ""
		var w *reqid.IDResolutionWarning
		if errors.As(idErr, &w) {
			code = w.Code
		}
		p.log.Warn("skipping row without usable id",
			"row", i,
			"code", code,
			"error", idErr,
		)
		return
	}
	if id.Partial {
		p.stats.PartialID++
		p.log.Warn("keeping row with partial id",
			"row", i,
			"req_id", id.ID,
			"code", reqid.CodeIncomplete,
			"missing", strings.Join(id.Missing, ", "),
		)
	}

	var outcome section.Outcome
	p.ctx, outcome = p.engine.Step(p.ctx, facts)

	rec := record.Record{
		ReqID:           id.ID,
		Aliases:         p.aliases(row, id),
		DocName:         p.doc.Name,
		DocType:         p.doc.Type,
		Level:           p.doc.Level,
		SectionTitle:    outcome.Title,
		SectionNumber:   outcome.Number,
		SectionType:     outcome.Type,
		SectionInferred: outcome.Inferred,
		IsSectionHeader: outcome.IsHeader,
		ObjectNumber:    outcome.ObjectNumber,
		RequirementText: p.text(row),
		Attributes:      p.attributes(row),
		Provenance:      record.Provenance{DocName: p.doc.Name, Row: i},
	}

	if outcome.IsHeader {
		p.stats.Headers++
		if rec.ReqID == "" {
			rec.ReqID = placeholderID(outcome, p.stats.Headers)
		} else {
			p.harvester.Observe(rec.ReqID, rec.Aliases...)
		}
		p.out = append(p.out, rec)
		return
	}

	links := p.harvester.Harvest(row, p.spec)
	rec.ParentReqIDs = links.Parents
	rec.ChildReqIDs = links.Children

	if p.caps.mergeDuplicates {
		key := strings.ToUpper(rec.ReqID)
		if pos, ok := p.merged[key]; ok {
			p.merge(&p.out[pos], rec)
			return
		}
		p.merged[key] = len(p.out)
	}

	p.harvester.Observe(rec.ReqID, rec.Aliases...)
	p.out = append(p.out, rec)
}

// placeholderID names a header row that has no ID of its own.
func placeholderID(o section.Outcome, n int) string {
	if o.ObjectNumber != "" {
		return o.ObjectNumber
	}
	return fmt.Sprintf("SECTION_%d", n)
}

func idValues(row record.RawRow, columns []string) []string {
	values := make([]string, len(columns))
	for i, c := range columns {
		values[i] = row.Get(c)
	}
	return values
}

// aliases combines the extra IDs of a multi-ID cell with the alias columns.
func (p *pass) aliases(row record.RawRow, id reqid.Result) []string {
	var out []string
	out = trace.Union(out, id.Aliases...)
	for _, col := range p.spec.AliasColumns {
		for _, a := range reqid.ParseIDList(row.Get(col), p.spec.IDPadWidth) {
			if !strings.EqualFold(a, id.ID) {
				out = trace.Union(out, a)
			}
		}
	}
	return out
}

func (p *pass) text(row record.RawRow) string {
	if !p.caps.concatText {
		return row.First(p.spec.TextColumns...)
	}
	values := make([]string, len(p.spec.TextColumns))
	for i, c := range p.spec.TextColumns {
		values[i] = row.Get(c)
	}
	return record.JoinDistinct(values...)
}

func (p *pass) attributes(row record.RawRow) []record.Attribute {
	if len(p.attrCols) == 0 {
		return nil
	}
	attrs := make([]record.Attribute, len(p.attrCols))
	for i, c := range p.attrCols {
		attrs[i] = record.Attribute{Name: c, Value: row.Get(c)}
	}
	return attrs
}

// attributeColumns lists the optional columns present in the frame that do
// not already have a dedicated field.
func attributeColumns(frame record.Frame, spec schema.DocSpec) []string {
	owned := make(map[string]bool)
	for _, group := range [][]string{spec.IDColumns, spec.TextColumns, spec.AliasColumns, spec.Trace.Parents, spec.Trace.Children} {
		for _, c := range group {
			owned[record.HeaderKey(c)] = true
		}
	}

	idx := frame.Index()
	var cols []string
	for _, c := range spec.OptionalColumns {
		key := record.HeaderKey(c)
		if owned[key] {
			continue
		}
		if _, ok := idx[key]; ok {
			owned[key] = true
			cols = append(cols, c)
		}
	}
	return cols
}

func skipList(spec schema.DocSpec, doc Document) (string, map[string]bool) {
	col := spec.ObjectTypeColumn
	if col == "" && len(doc.SkipObjectTypes) > 0 {
		col = defaultObjectTypeColumn
	}
	skip := make(map[string]bool)
	for _, group := range [][]string{spec.SkipObjectTypes, doc.SkipObjectTypes} {
		for _, t := range group {
			if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
				skip[t] = true
			}
		}
	}
	return col, skip
}
