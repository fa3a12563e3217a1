package normalize

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/schema"
	"github.com/JonMunkholm/reqtrace/internal/trace"
)

// ============================================================================
// Helpers
// ============================================================================

func resolve(t *testing.T, docType string) schema.DocSpec {
	t.Helper()
	spec, err := schema.Default().Resolve(docType)
	require.NoError(t, err)
	return spec
}

func testEnv(buf *bytes.Buffer) Env {
	return Env{
		Harvester: trace.NewHarvester(),
		Logger:    slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

func run(t *testing.T, env Env, docType string, header []string, rows ...[]string) ([]record.Record, Stats) {
	t.Helper()
	spec := resolve(t, docType)
	doc := Document{Name: docType + "-doc", Type: spec.DocType, Level: "System"}
	return For(spec.Normalizer).Normalize(env, record.NewFrame(header, rows), spec, doc)
}

func ids(records []record.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ReqID
	}
	return out
}

// ============================================================================
// Dispatch Tests
// ============================================================================

func TestFor(t *testing.T) {
	for _, k := range schema.Kinds {
		if got := For(k).Kind(); got != k {
			t.Errorf("For(%q).Kind() = %q", k, got)
		}
	}
	if got := For("unknown").Kind(); got != schema.KindGeneric {
		t.Errorf("For(unknown).Kind() = %q, want generic", got)
	}
}

// ============================================================================
// FCSS Tests
// ============================================================================

func TestFCSS_HeaderByType(t *testing.T) {
	var buf bytes.Buffer
	recs, stats := run(t, testEnv(&buf), "FCSS",
		[]string{"Requirement_ID", "Object Number", "FCSS Requirement", "Requirement_Type"},
		[]string{"FCSS-001", "4", "Hydraulics", "Heading"},
	)

	require.Len(t, recs, 1)
	assert.Equal(t, "FCSS-001", recs[0].ReqID)
	assert.True(t, recs[0].IsSectionHeader)
	assert.False(t, recs[0].SectionInferred)
	assert.Equal(t, 1, stats.Headers)
}

func TestFCSS_InheritsAndRenders(t *testing.T) {
	var buf bytes.Buffer
	recs, _ := run(t, testEnv(&buf), "FCSS",
		[]string{"Requirement ID", "Object_Number", "FCSS Requirement", "Requirement Type", "Safety", "Out-links (FSRD)"},
		[]string{"", "4.1", "Hydraulics", "Heading", "", ""},
		[]string{"FCSS-002", "", "The pump shall start.", "", "Yes", "FSRD-10; FSRD-11"},
	)

	require.Len(t, recs, 2)
	header, req := recs[0], recs[1]

	assert.Equal(t, "4.1", header.ReqID, "header without id takes its object number")
	assert.Equal(t, "Section: 4.1\nTitle: Hydraulics\nDocument: FCSS-doc (FCSS)\nLevel: System", header.CombinedText)

	assert.Equal(t, "4.1", req.SectionNumber)
	assert.Equal(t, "Hydraulics", req.SectionTitle)
	assert.True(t, req.SectionInferred)
	assert.Equal(t, []string{"FSRD-10", "FSRD-11"}, req.ParentReqIDs)
	assert.Equal(t, "Yes", req.Attr("Safety"))
	assert.Contains(t, req.CombinedText, "Parent Requirements: FSRD-10, FSRD-11")
	assert.Contains(t, req.CombinedText, "Safety: Yes")
	assert.NotContains(t, req.CombinedText, "Hydraulics\n\nRequirement Text", "header text must not leak into requirement body")
	assert.True(t, strings.HasSuffix(req.CombinedText, "Requirement Text:\nThe pump shall start."))
}

func TestFCSS_PlaceholderHeaderAndMissingID(t *testing.T) {
	var buf bytes.Buffer
	recs, stats := run(t, testEnv(&buf), "FCSS",
		[]string{"Requirement ID", "Object Number", "FCSS Requirement", "Requirement Type"},
		[]string{"", "", "Introduction", "Heading"},
		[]string{"", "1-1", "orphan text", ""},
		[]string{"", "", "", ""},
		[]string{"FCSS-3", "1-2", "kept", ""},
	)

	assert.Equal(t, []string{"SECTION_1", "FCSS-3"}, ids(recs))
	assert.Equal(t, 1, stats.MissingID)
	assert.Equal(t, 1, stats.BlankRows)
	assert.Equal(t, 2, stats.Produced)
	assert.Contains(t, buf.String(), "skipping row without usable id")
	assert.Contains(t, buf.String(), "code=ID001")
}

func TestFCSS_MultiIDCellAliases(t *testing.T) {
	var buf bytes.Buffer
	env := testEnv(&buf)
	recs, _ := run(t, env, "FCSS",
		[]string{"Requirement ID", "Object Number", "FCSS Requirement"},
		[]string{"FCSS-7, fcss-7a", "2-1", "text"},
	)

	require.Len(t, recs, 1)
	assert.Equal(t, "FCSS-7", recs[0].ReqID)
	assert.Equal(t, []string{"FCSS-7A"}, recs[0].Aliases)

	id, ok := env.Harvester.Resolve("FCSS-7A")
	assert.True(t, ok)
	assert.Equal(t, "FCSS-7", id)
}

func TestFCSS_NoDuplicateMerge(t *testing.T) {
	var buf bytes.Buffer
	recs, stats := run(t, testEnv(&buf), "FCSS",
		[]string{"Requirement ID", "Object Number", "FCSS Requirement"},
		[]string{"FCSS-1", "1-1", "a"},
		[]string{"FCSS-1", "1-2", "b"},
	)
	assert.Len(t, recs, 2)
	assert.Zero(t, stats.MergedDuplicates)
}

// ============================================================================
// SRS Tests
// ============================================================================

func TestSRS_MergesDuplicateKeys(t *testing.T) {
	var buf bytes.Buffer
	recs, stats := run(t, testEnv(&buf), "SRS",
		[]string{"SRS_Section", "Req't No", "Requirement Text", "Parent CSS ID", "Trace Source"},
		[]string{"2", "3", "The unit shall vent.", "CSS-10", "Review A"},
		[]string{"2", "3", "The unit shall vent.", "CSS-11", "Review B"},
		[]string{"2", "4", "The unit shall seal.", "CSS-10", ""},
	)

	require.Len(t, recs, 2)
	assert.Equal(t, []string{"2-3", "2-4"}, ids(recs))
	assert.Equal(t, []string{"CSS-10", "CSS-11"}, recs[0].ParentReqIDs)
	assert.Equal(t, "Review A | Review B", recs[0].Attr("Trace Source"))
	assert.Equal(t, "2", recs[0].SectionNumber)
	assert.Equal(t, "3", recs[0].ObjectNumber)
	assert.False(t, recs[0].IsSectionHeader)
	assert.Equal(t, 1, stats.MergedDuplicates)
	assert.Contains(t, recs[0].CombinedText, "Parent Requirements: CSS-10, CSS-11")
}

func TestSRS_MergeKeepsOptionalValuesDistinct(t *testing.T) {
	var buf bytes.Buffer
	recs, stats := run(t, testEnv(&buf), "SRS",
		[]string{"SRS Section", "Req't No", "Requirement Text", "Trace Source"},
		[]string{"2", "3", "The unit shall vent.", "X"},
		[]string{"2", "3", "The unit shall vent.", "Y"},
		[]string{"2", "3", "The unit shall vent.", "X"},
		[]string{"2", "3", "The unit shall vent.", "Y"},
	)

	require.Len(t, recs, 1)
	assert.Equal(t, "X | Y", recs[0].Attr("Trace Source"))
	assert.Equal(t, 3, stats.MergedDuplicates)
}

func TestSRS_ConflictingTextKeepsFirst(t *testing.T) {
	var buf bytes.Buffer
	recs, stats := run(t, testEnv(&buf), "SRS",
		[]string{"SRS Section", "Req't No", "Requirement Text"},
		[]string{"5", "1", "first"},
		[]string{"5", "1", "second"},
	)

	require.Len(t, recs, 1)
	assert.Equal(t, "first", recs[0].RequirementText)
	assert.Equal(t, 1, stats.TextConflicts)
	assert.Contains(t, buf.String(), "duplicate id with differing text")
}

func TestSRS_MissingComponentPolicy(t *testing.T) {
	header := []string{"SRS Section", "Req't No", "Requirement Text"}
	rows := [][]string{
		{"2", "", "no local number"},
		{"2", "1", "complete"},
	}

	t.Run("skip", func(t *testing.T) {
		var buf bytes.Buffer
		recs, stats := run(t, testEnv(&buf), "SRS", header, rows...)
		assert.Equal(t, []string{"2-1"}, ids(recs))
		assert.Equal(t, 1, stats.MissingID)
		assert.Contains(t, buf.String(), "code=ID002")
	})

	t.Run("partial", func(t *testing.T) {
		var buf bytes.Buffer
		spec := resolve(t, "SRS")
		spec.MissingIDPolicy = schema.IDPolicyPartial
		doc := Document{Name: "SRS", Type: "SRS"}

		recs, stats := For(spec.Normalizer).Normalize(testEnv(&buf), record.NewFrame(header, rows), spec, doc)
		assert.Equal(t, []string{"2-_", "2-1"}, ids(recs))
		assert.Equal(t, 1, stats.PartialID)
		assert.Contains(t, buf.String(), "keeping row with partial id")
	})
}

// ============================================================================
// SSG Tests
// ============================================================================

func TestSSG_SkipListAndFirstText(t *testing.T) {
	var buf bytes.Buffer
	spec := resolve(t, "SSG")
	spec.TextColumns = append(spec.TextColumns, "OLE Title")
	doc := Document{Name: "SSG", Type: "SSG", Level: "Guideline", SkipObjectTypes: []string{"Figure"}}

	frame := record.NewFrame(
		[]string{"ID", "Systems/Software Guidelines (SSG)", "Object Type", "OLE Title"},
		[][]string{
			{"SSG-1", "Document title", "Title", ""},
			{"SSG-2", "Design", "Heading", ""},
			{"SSG-3", "Use checked arithmetic.", "Guideline", "diagram"},
			{"SSG-4", "", "figure", "fig 1"},
			{"SSG-5", "Info row", "INFO", ""},
		},
	)

	recs, stats := For(spec.Normalizer).Normalize(testEnv(&buf), frame, spec, doc)

	assert.Equal(t, []string{"SSG-2", "SSG-3"}, ids(recs))
	assert.Equal(t, 3, stats.SkippedObjectType)
	assert.True(t, recs[0].IsSectionHeader)
	assert.Equal(t, "Use checked arithmetic.", recs[1].RequirementText, "ssg keeps only the first text column")
	assert.Equal(t, "Design", recs[1].SectionTitle)
	assert.True(t, recs[1].SectionInferred)
}

// ============================================================================
// Generic Tests
// ============================================================================

func TestGeneric_ConcatenatesText(t *testing.T) {
	var buf bytes.Buffer
	recs, _ := run(t, testEnv(&buf), "FCSRD",
		[]string{"Requirement ID", "Object Number", "Derived Requirement", "Requirement Text", "Out-links (CSS)"},
		[]string{"CSRD-1", "3-1", "Derived text", "Main text", "CSS-4"},
	)

	require.Len(t, recs, 1)
	assert.Equal(t, "Main text | Derived text", recs[0].RequirementText)
	assert.Equal(t, []string{"CSS-4"}, recs[0].ParentReqIDs)
}

func TestGeneric_AdHocDocType(t *testing.T) {
	spec := schema.DocSpec{
		DocType:      "ICD",
		Normalizer:   schema.KindGeneric,
		IDColumns:    []string{"Signal"},
		AliasColumns: []string{"Legacy"},
		TextColumns:  []string{"Description"},
		Trace:        schema.TraceColumns{Parents: []string{"Source"}},
	}
	var buf bytes.Buffer
	frame := record.NewFrame(
		[]string{"Signal", "Legacy", "Description", "Source"},
		[][]string{{"SIG-1", "OLD-1, SIG-1", "Pressure", "FSRD-9"}},
	)

	recs, _ := For(spec.Normalizer).Normalize(testEnv(&buf), frame, spec, Document{Name: "ICD", Type: "ICD"})

	want := []record.Record{{
		ReqID:           "SIG-1",
		Aliases:         []string{"OLD-1"},
		DocName:         "ICD",
		DocType:         "ICD",
		ParentReqIDs:    []string{"FSRD-9"},
		RequirementText: "Pressure",
		Provenance:      record.Provenance{DocName: "ICD"},
	}}
	if diff := cmp.Diff(want, recs, cmpIgnoreText); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

// ============================================================================
// Properties
// ============================================================================

func TestNormalize_Idempotent(t *testing.T) {
	header := []string{"Requirement ID", "Object Number", "FCSS Requirement", "Requirement Type", "Out-links (FSRD)"}
	rows := [][]string{
		{"", "1", "General", "Heading", ""},
		{"FCSS-1", "1-1", "a", "", "FSRD-1"},
		{"FCSS-2", "", "b", "", "FSRD-2, FSRD-1"},
	}

	var b1, b2 bytes.Buffer
	first, _ := run(t, testEnv(&b1), "FCSS", header, rows...)
	second, _ := run(t, testEnv(&b2), "FCSS", header, rows...)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second run differs (-first +second):\n%s", diff)
	}
}

func TestNormalize_ZeroRecordsWarns(t *testing.T) {
	var buf bytes.Buffer
	recs, _ := run(t, testEnv(&buf), "FCSS",
		[]string{"Requirement ID", "Object Number", "FCSS Requirement"},
	)
	assert.Empty(t, recs)
	assert.Contains(t, buf.String(), "normalization produced no records")
}

var cmpIgnoreText = cmp.FilterPath(func(p cmp.Path) bool {
	return p.Last().String() == ".CombinedText"
}, cmp.Ignore())
