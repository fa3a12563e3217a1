package core

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/schema"
)

// SchemaValidationError reports required columns absent from an input.
// It is fatal for that input only.
type SchemaValidationError struct {
	DocName string
	DocType string
	Missing []string
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s (%s): missing required columns: %s",
		e.DocName, e.DocType, strings.Join(e.Missing, ", "))
}

// ValidateColumns checks that the frame carries every required column of
// the DocSpec. Column names match case-insensitively with '_' and spaces
// treated alike.
func ValidateColumns(frame record.Frame, spec schema.DocSpec, docName string) error {
	idx := frame.Index()
	var missing []string

	for _, col := range spec.RequiredColumns {
		if _, ok := idx[record.HeaderKey(col)]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		return &SchemaValidationError{DocName: docName, DocType: spec.DocType, Missing: missing}
	}
	return nil
}
