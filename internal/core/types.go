package core

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/reqtrace/internal/normalize"
	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/schema"
	"github.com/JonMunkholm/reqtrace/internal/trace"
)

// Input describes one configured document.
type Input struct {
	Path            string
	DocName         string
	DocType         string // doc_type or alias, resolved through the registry
	Level           string
	SheetName       string
	SkipObjectTypes []string
	Notes           string
}

// Source supplies the rows of an input. Implementations own file formats,
// encodings and header discovery.
type Source interface {
	Read(ctx context.Context, in Input, spec schema.DocSpec) (record.Frame, error)
}

// Source errors. Implementations wrap these so failures map to catalogue
// codes.
var (
	ErrInputNotFound     = errors.New("input not found")
	ErrUnsupportedFormat = errors.New("unsupported input format")
	ErrUnreadableInput   = errors.New("unreadable input")
)

// Failure records an input that contributed nothing to the run.
type Failure struct {
	Input Input
	Code  string
	Err   error
}

// DocumentSummary records an input that was normalized.
type DocumentSummary struct {
	Input   Input
	DocName string
	DocType string // canonical doc_type
	Stats   normalize.Stats
}

// Result is the outcome of one run: the unified record table plus what
// happened to each input.
type Result struct {
	RunID         uuid.UUID
	SchemaVersion string
	StartedAt     time.Time
	Duration      time.Duration

	Records   []record.Record // unified table, input order then row order
	Documents []DocumentSummary
	Failures  []Failure

	Rewritten int // trace tokens resolved by the reconciliation sweep
	Dangling  []trace.DanglingReference
}

// Failed reports whether any input was skipped.
func (r *Result) Failed() bool {
	return len(r.Failures) > 0
}
