// Package record defines the canonical requirement record and the raw row
// shapes the normalizers consume.
//
// A Record is created once by a normalizer and appended to the unified table.
// The only later mutations are the duplicate merge performed by the srs
// normalizer and the trace reconciliation sweep run by the orchestrator.
package record

import (
	"strconv"
	"strings"
)

// Canonical column names, in export order.
const (
	ColReqID           = "Req_ID"
	ColAliases         = "Aliases"
	ColDocName         = "Doc_Name"
	ColDocType         = "Doc_Type"
	ColLevel           = "Level"
	ColParentReqIDs    = "Parent_Req_IDs"
	ColChildReqIDs     = "Child_Req_IDs"
	ColSectionTitle    = "Section_Title"
	ColSectionNumber   = "Section_Number"
	ColSectionType     = "Section_Type"
	ColSectionInferred = "Section_Inferred"
	ColIsSectionHeader = "Is_Section_Header"
	ColCombinedText    = "Combined_Text"
	ColObjectNumber    = "Object_Number"
	ColRequirementText = "Requirement_Text"
)

// Columns lists every exported column in order. The first thirteen are the
// canonical columns consumed by export collaborators.
var Columns = []string{
	ColReqID,
	ColAliases,
	ColDocName,
	ColDocType,
	ColLevel,
	ColParentReqIDs,
	ColChildReqIDs,
	ColSectionTitle,
	ColSectionNumber,
	ColSectionType,
	ColSectionInferred,
	ColIsSectionHeader,
	ColCombinedText,
	ColObjectNumber,
	ColRequirementText,
}

// IDSeparator joins ID lists in flat (CSV/SQL) output.
const IDSeparator = ", "

// Attribute is an optional column value carried through to Combined_Text.
type Attribute struct {
	Name  string
	Value string
}

// Provenance records where a record came from.
type Provenance struct {
	DocName string
	Row     int // 0-based data row index within the input
}

// Record is one normalized requirement (or section header).
type Record struct {
	ReqID           string
	Aliases         []string
	DocName         string
	DocType         string
	Level           string
	ParentReqIDs    []string // Deduplicated, first-seen order
	ChildReqIDs     []string // Deduplicated, first-seen order
	SectionTitle    string
	SectionNumber   string
	SectionType     string
	SectionInferred bool
	IsSectionHeader bool
	CombinedText    string

	ObjectNumber    string
	RequirementText string
	Attributes      []Attribute
	Provenance      Provenance
}

// Values returns the record flattened in Columns order.
func (r Record) Values() []string {
	return []string{
		r.ReqID,
		strings.Join(r.Aliases, IDSeparator),
		r.DocName,
		r.DocType,
		r.Level,
		strings.Join(r.ParentReqIDs, IDSeparator),
		strings.Join(r.ChildReqIDs, IDSeparator),
		r.SectionTitle,
		r.SectionNumber,
		r.SectionType,
		strconv.FormatBool(r.SectionInferred),
		strconv.FormatBool(r.IsSectionHeader),
		r.CombinedText,
		r.ObjectNumber,
		r.RequirementText,
	}
}

// Attr returns the value of a named attribute, or "".
func (r Record) Attr(name string) string {
	key := HeaderKey(name)
	for _, a := range r.Attributes {
		if HeaderKey(a.Name) == key {
			return a.Value
		}
	}
	return ""
}
