package schema

// BuiltinVersion identifies the builtin table when no override document
// supplies its own version.
const BuiltinVersion = "builtin-2025-11"

// DefaultHeaderTypes is the header vocabulary of the DOORS-style families.
var DefaultHeaderTypes = []string{"header", "heading", "section header"}

// Builtin returns fresh copies of the builtin document families.
func Builtin() []DocSpec {
	return []DocSpec{
		fcssSpec(),
		cssSpec(),
		csrdSpec(),
		fcsrdSpec(),
		srsSpec(),
		fsrdSpec(),
		scdSpec(),
		ssgSpec(),
	}
}

// defaultInference mirrors the zero-config behavior of a family with
// section detection: inherit context, read explicit section columns when
// the export carries them.
func defaultInference() Inference {
	return Inference{
		InheritSectionContext: true,
		ObjectNumberColumn:    "Object Number",
		SectionTitleColumn:    "Section_Title",
		SectionNumberColumn:   "Section_Number",
		SectionTypeColumn:     "Section_Type",
	}
}

func doorsDetection(text ...string) *SectionDetection {
	return &SectionDetection{
		TypeColumn:          "Requirement Type",
		HeaderTypes:         append([]string(nil), DefaultHeaderTypes...),
		ObjectNumberColumn:  "Object Number",
		TextColumns:         text,
		ObjectNumberHeaders: true,
	}
}

func fcssSpec() DocSpec {
	return DocSpec{
		DocType:         "FCSS",
		Normalizer:      KindFCSS,
		RequiredColumns: []string{"Requirement ID", "Object Number", "FCSS Requirement"},
		OptionalColumns: []string{
			"Requirement Type",
			"Safety",
			"Implementation Allocation",
			"Derived Requirement",
			"Source ID",
			"Reference Model",
			"Rationale",
			"Programmatic Requirement",
			"OLE Title",
			"OLE Title 2",
			"Design Implementation Note",
			"Design Implementation Note 2",
			"In-links (Control System Requirements)",
			"Out-links (FSRD)",
		},
		IDColumns:   []string{"Requirement ID"},
		TextColumns: []string{"FCSS Requirement"},
		Trace: TraceColumns{
			Parents:  []string{"Out-links (FSRD)"},
			Children: []string{"In-links (Control System Requirements)"},
		},
		SectionDetection: doorsDetection("FCSS Requirement"),
		Inference:        defaultInference(),
	}
}

func cssSpec() DocSpec {
	return DocSpec{
		DocType:         "CSS",
		Normalizer:      KindFCSS,
		RequiredColumns: []string{"Requirement ID", "Object Number", "CSS"},
		OptionalColumns: []string{
			"Requirement Type",
			"Safety",
			"System Review Status",
			"Derived",
			"Derived Rationale",
			"Rework Category",
			"Allocations",
			"Allocations2",
			"OLE Title",
			"Rationale",
			"Decomposed Requirement",
			"Compare-Diff-Object Text",
			"Acceptable Verification Methods",
			"Verification Level",
			"Verification Type",
			"Verification Standard",
			"Rework Category3",
			"Comments",
			"In-links (Control System Requirements)",
			"Out-links (All modules)",
		},
		IDColumns:   []string{"Requirement ID"},
		TextColumns: []string{"CSS"},
		Trace: TraceColumns{
			Parents:  []string{"Out-links (All modules)"},
			Children: []string{"In-links (Control System Requirements)"},
		},
		SectionDetection: doorsDetection("CSS"),
		Inference:        defaultInference(),
	}
}

var csrdText = []string{"Requirement Text", "Derived Requirement", "Derived Reqt Freighter"}

var csrdOptional = []string{
	"Derived Reqt Freighter",
	"Requirement Type",
	"Safety",
	"Derived Reqt Rationale",
	"Derived Reqt Rationale2",
	"Derived Reqt Freighter Rationale",
	"Export Formatting",
	"Applicable Model",
	"Column1",
	"OLE Title",
	"SRS Reqs - SC",
	"RCN",
}

func csrdSpec() DocSpec {
	parents := []string{
		"Out-links (Product Specification)",
		"Out-links (Product Specification)3",
		"Out-links (Controller_PS)",
	}
	optional := append(append([]string(nil), csrdOptional...), parents...)
	return DocSpec{
		DocType:          "CSRD",
		Normalizer:       KindGeneric,
		RequiredColumns:  []string{"Requirement ID", "Object Number", "Derived Requirement"},
		OptionalColumns:  append(optional, "Requirement Text"),
		IDColumns:        []string{"Requirement ID"},
		TextColumns:      append([]string(nil), csrdText...),
		Trace:            TraceColumns{Parents: parents},
		SectionDetection: doorsDetection(csrdText...),
		Inference:        defaultInference(),
	}
}

func fcsrdSpec() DocSpec {
	parents := []string{
		"Out-links (Product Specification)",
		"Out-links (FSRD)",
		"Out-links (CSS)",
	}
	optional := append(append([]string(nil), csrdOptional...), parents...)
	return DocSpec{
		DocType:          "FCSRD",
		Normalizer:       KindGeneric,
		RequiredColumns:  []string{"Requirement ID", "Object Number", "Derived Requirement"},
		OptionalColumns:  append(optional, "Requirement Text"),
		IDColumns:        []string{"Requirement ID"},
		TextColumns:      append([]string(nil), csrdText...),
		Trace:            TraceColumns{Parents: parents},
		SectionDetection: doorsDetection(csrdText...),
		Inference:        defaultInference(),
		Aliases:          []string{"CCSRD"},
	}
}

func srsSpec() DocSpec {
	return DocSpec{
		DocType:         "SRS",
		Normalizer:      KindSRS,
		RequiredColumns: []string{"SRS Section", "Req't No", "Requirement Text"},
		OptionalColumns: []string{
			"Traceability Doc Reqd #",
			"Trace Source",
			"CSRD/SSG Requirement Text",
			"Parent CSS ID",
			"Parent CSS Requirement",
			"FCSS-mapped CSS Requirement",
			"CSS Requirement Text",
		},
		IDColumns:   []string{"SRS Section", "Req't No"},
		TextColumns: []string{"Requirement Text"},
		Trace: TraceColumns{
			Parents: []string{"Traceability Doc Reqd #", "Parent CSS ID"},
		},
		Inference: Inference{
			InferFromReqID:      true,
			ObjectNumberColumn:  "Req't No",
			SectionNumberColumn: "SRS Section",
		},
	}
}

func fsrdSpec() DocSpec {
	const text = "Boeing 777-8F CACTCS System Requirements Document HSER41191-201"
	return DocSpec{
		DocType:         "FSRD",
		Normalizer:      KindGeneric,
		RequiredColumns: []string{"ID", "Object Number", text},
		OptionalColumns: []string{
			"Requirement Type",
			"Programmatic Requirement",
			"Safety",
			"Rationale",
			"Discrete Control Architecture",
			"Design Implementation Note",
			"Derived Requirement",
			"Allocation",
			"In-links (All modules)",
			"Out-links (All modules)",
		},
		IDColumns:   []string{"ID"},
		TextColumns: []string{text},
		Trace: TraceColumns{
			Parents:  []string{"Out-links (All modules)"},
			Children: []string{"In-links (All modules)"},
		},
		SectionDetection: doorsDetection(text),
		Inference:        defaultInference(),
	}
}

func scdSpec() DocSpec {
	return DocSpec{
		DocType:         "SCD",
		Normalizer:      KindGeneric,
		RequiredColumns: []string{"Object Identifier", "Object Number", "Requirement Text"},
		OptionalColumns: []string{
			"Object Type",
			"System Arch",
			"Rationale for Derived Requirement",
			"RSC -8F",
			"RSC Rationale -8F",
			"Programmatic Requirement (-8F)",
			"Part Allocation (Lower Level)",
			"Functional Allocation",
			"Comments/Notes",
			"Change Rationale",
			"Cardinal Rqmt",
			"Assumptions/Rationale",
			"Allocations",
			"Allocation",
			"Applicable Model",
			"Part Number Applicability",
			"In-links (SRD)",
			"In-links (All modules)",
		},
		IDColumns:   []string{"Object Identifier"},
		TextColumns: []string{"Requirement Text"},
		Trace: TraceColumns{
			Children: []string{"In-links (SRD)", "In-links (All modules)"},
		},
		SectionDetection: doorsDetection("Requirement Text"),
		Inference:        defaultInference(),
	}
}

func ssgSpec() DocSpec {
	const text = "Systems/Software Guidelines (SSG)"
	return DocSpec{
		DocType:         "SSG",
		Normalizer:      KindSSG,
		RequiredColumns: []string{"ID", text},
		OptionalColumns: []string{"Object Type", "OLE Title", "Export Formatting"},
		IDColumns:       []string{"ID"},
		TextColumns:     []string{text},
		SectionDetection: &SectionDetection{
			TypeColumn:  "Object Type",
			HeaderTypes: []string{"heading", "section", "chapter"},
			TextColumns: []string{text},
		},
		Inference: Inference{
			InheritSectionContext: true,
		},
		ObjectTypeColumn: "Object Type",
		SkipObjectTypes:  []string{"info", "title"},
	}
}
