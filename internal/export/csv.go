package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/reqtrace/internal/core"
	"github.com/JonMunkholm/reqtrace/internal/record"
)

// CSVWriter writes the unified table as one CSV file with the canonical
// columns in order.
type CSVWriter struct {
	Path string
}

// NewCSVWriter returns a CSVWriter for path. Missing parent directories are
// created on write.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{Path: path}
}

func (w *CSVWriter) Target() string { return "csv" }

func (w *CSVWriter) Write(ctx context.Context, res *core.Result) error {
	if err := os.MkdirAll(filepath.Dir(w.Path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("create %s: %w", w.Path, err)
	}

	if err := WriteCSV(ctx, f, res.Records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes a header row and one row per record.
func WriteCSV(ctx context.Context, w io.Writer, records []record.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(record.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range records {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		if err := cw.Write(r.Values()); err != nil {
			return fmt.Errorf("write %s: %w", r.ReqID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ContextCheckInterval is how often (in records) writers check cancellation.
var ContextCheckInterval = 500
