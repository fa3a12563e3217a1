package normalize

import (
	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/trace"
)

// merge folds a later row that re-declares an existing Req_ID into the
// record created for the first row. Trace lists and aliases are unioned,
// optional values combined, and blank section fields filled. A differing
// requirement text keeps the first and is logged.
func (p *pass) merge(dst *record.Record, src record.Record) {
	p.stats.MergedDuplicates++

	newAliases := make([]string, 0, len(src.Aliases))
	for _, a := range src.Aliases {
		before := len(dst.Aliases)
		dst.Aliases = trace.Union(dst.Aliases, a)
		if len(dst.Aliases) > before {
			newAliases = append(newAliases, a)
		}
	}
	p.harvester.Observe(dst.ReqID, newAliases...)

	dst.ParentReqIDs = trace.Union(dst.ParentReqIDs, src.ParentReqIDs...)
	dst.ChildReqIDs = trace.Union(dst.ChildReqIDs, src.ChildReqIDs...)

	for i := range dst.Attributes {
		if i < len(src.Attributes) {
			dst.Attributes[i].Value = record.AppendDistinct(dst.Attributes[i].Value, src.Attributes[i].Value)
		}
	}

	if dst.SectionTitle == "" {
		dst.SectionTitle = src.SectionTitle
	}
	if dst.SectionNumber == "" {
		dst.SectionNumber = src.SectionNumber
	}
	if dst.SectionType == "" {
		dst.SectionType = src.SectionType
	}
	if dst.ObjectNumber == "" {
		dst.ObjectNumber = src.ObjectNumber
	}

	switch {
	case dst.RequirementText == "":
		dst.RequirementText = src.RequirementText
	case src.RequirementText != "" && src.RequirementText != dst.RequirementText:
		p.stats.TextConflicts++
		p.log.Warn("duplicate id with differing text, keeping first",
			"req_id", dst.ReqID,
			"row", src.Provenance.Row,
			"first_row", dst.Provenance.Row,
		)
	}
}
