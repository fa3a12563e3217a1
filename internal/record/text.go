package record

import "strings"

// AttributeSeparator joins distinct values of one column or several text
// columns into a single string.
const AttributeSeparator = " | "

// Render rebuilds CombinedText from the record's fields.
//
// The text only ever describes this one record: its own ID, section context,
// optional column values, trace lists and requirement text.
func (r *Record) Render() {
	if r.IsSectionHeader {
		r.CombinedText = r.renderHeader()
		return
	}
	r.CombinedText = r.renderRequirement()
}

func (r *Record) renderHeader() string {
	section := r.ObjectNumber
	if section == "" {
		section = r.SectionNumber
	}
	if section == "" {
		section = "N/A"
	}

	lines := []string{
		"Section: " + section,
		"Title: " + r.SectionTitle,
		"Document: " + r.docLabel(),
		"Level: " + r.Level,
	}
	return strings.Join(lines, "\n")
}

func (r *Record) renderRequirement() string {
	lines := []string{
		"Requirement ID: " + r.ReqID,
		"Document: " + r.docLabel(),
		"Level: " + r.Level,
	}
	if r.SectionTitle != "" {
		lines = append(lines, "Section Title: "+r.SectionTitle)
	}
	if r.SectionNumber != "" {
		lines = append(lines, "Section Number: "+r.SectionNumber)
	}
	if len(r.Aliases) > 0 {
		lines = append(lines, "Aliases: "+strings.Join(r.Aliases, IDSeparator))
	}
	for _, a := range r.Attributes {
		if a.Value != "" {
			lines = append(lines, a.Name+": "+a.Value)
		}
	}
	lines = append(lines,
		"Parent Requirements: "+orNone(r.ParentReqIDs),
		"Child Requirements: "+orNone(r.ChildReqIDs),
	)
	if r.RequirementText != "" {
		lines = append(lines, "", "Requirement Text:", r.RequirementText)
	}
	return strings.Join(lines, "\n")
}

func (r *Record) docLabel() string {
	return r.DocName + " (" + r.DocType + ")"
}

func orNone(ids []string) string {
	if len(ids) == 0 {
		return "<none>"
	}
	return strings.Join(ids, IDSeparator)
}

// JoinDistinct joins the non-blank values with AttributeSeparator, dropping
// exact repeats while keeping first-seen order.
func JoinDistinct(values ...string) string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return strings.Join(out, AttributeSeparator)
}

// AppendDistinct adds value to a list previously built by JoinDistinct,
// skipping it when any part of joined already equals it.
func AppendDistinct(joined, value string) string {
	return JoinDistinct(append(strings.Split(joined, AttributeSeparator), value)...)
}
