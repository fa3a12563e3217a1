package normalize

import (
	"log/slog"
)

// Stats counts what happened to the rows of one document.
type Stats struct {
	Rows              int // data rows in the frame
	Produced          int // records emitted
	Headers           int
	BlankRows         int
	MissingID         int
	PartialID         int
	SkippedObjectType int
	MergedDuplicates  int
	TextConflicts     int
}

// Skipped returns the number of non-blank rows that produced nothing.
func (s Stats) Skipped() int {
	return s.MissingID + s.SkippedObjectType
}

func (s Stats) attrs() []any {
	fields := []struct {
		key string
		n   int
	}{
		{"headers", s.Headers},
		{"blank_rows", s.BlankRows},
		{"missing_id", s.MissingID},
		{"partial_id", s.PartialID},
		{"skipped_object_type", s.SkippedObjectType},
		{"merged_duplicates", s.MergedDuplicates},
		{"text_conflicts", s.TextConflicts},
	}
	attrs := []any{"rows", s.Rows, "produced", s.Produced}
	for _, f := range fields {
		if f.n != 0 {
			attrs = append(attrs, f.key, f.n)
		}
	}
	return attrs
}

func (s Stats) log(logger *slog.Logger, doc Document) {
	attrs := append([]any{"doc_name", doc.Name, "doc_type", doc.Type}, s.attrs()...)
	if s.Produced == 0 {
		logger.Warn("normalization produced no records", attrs...)
		return
	}
	logger.Debug("normalization complete", attrs...)
}
