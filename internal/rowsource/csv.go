// Package rowsource reads requirement exports from disk into record frames.
package rowsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/reqtrace/internal/core"
	"github.com/JonMunkholm/reqtrace/internal/logging"
	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/schema"
)

// MaxHeaderSearchRows bounds how far into a file the header row is searched
// for. Exports often carry a title block above the real header.
var MaxHeaderSearchRows = 20

// ContextCheckInterval is how often (in rows) cancellation is checked.
var ContextCheckInterval = 100

// delimiters maps supported extensions to their field separator.
var delimiters = map[string]rune{
	".csv": ',',
	".txt": ',',
	".tsv": '\t',
}

// FileSource reads delimited text exports. It implements core.Source.
type FileSource struct{}

// NewFileSource returns a FileSource.
func NewFileSource() *FileSource {
	return &FileSource{}
}

var _ core.Source = (*FileSource)(nil)

// Read opens in.Path, locates the header row and returns the frame.
// Workbook formats are rejected with core.ErrUnsupportedFormat; a sheet_name
// on a delimited file is ignored.
func (s *FileSource) Read(ctx context.Context, in core.Input, spec schema.DocSpec) (record.Frame, error) {
	logger := logging.FromContext(ctx)

	ext := strings.ToLower(filepath.Ext(in.Path))
	comma, ok := delimiters[ext]
	if !ok {
		return record.Frame{}, fmt.Errorf("%w: %q (export the sheet as CSV)", core.ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(in.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return record.Frame{}, fmt.Errorf("%w: %s", core.ErrInputNotFound, in.Path)
		}
		return record.Frame{}, fmt.Errorf("%w: %v", core.ErrUnreadableInput, err)
	}
	defer f.Close()

	if in.SheetName != "" {
		logger.Debug("sheet_name ignored for delimited input", "path", in.Path, "sheet_name", in.SheetName)
	}

	counter := wrap(f)
	rows, err := readAll(ctx, counter, comma)
	if err != nil {
		return record.Frame{}, err
	}

	frame := FrameFromRows(rows, spec.RequiredColumns)
	logger.Debug("input read",
		"path", in.Path,
		"bytes", counter.bytesRead,
		"columns", len(frame.Columns),
		"rows", len(frame.Rows),
	)
	return frame, nil
}

// Parse reads delimited rows from r, cleaning BOM and invalid UTF-8 first.
func Parse(ctx context.Context, r io.Reader, comma rune) ([][]string, error) {
	return readAll(ctx, wrap(r), comma)
}

func readAll(ctx context.Context, r io.Reader, comma rune) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		if len(rows)%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		row, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrUnreadableInput, err)
		}
		rows = append(rows, row)
	}
}

// FrameFromRows picks the header row and builds a frame from what follows.
// The header is the first row among the first MaxHeaderSearchRows that holds
// every required column; failing that, the first non-empty row, so a missing
// column surfaces in validation rather than as an empty file.
func FrameFromRows(rows [][]string, required []string) record.Frame {
	idx := findHeader(rows, required)
	if idx < 0 {
		return record.Frame{}
	}
	return record.NewFrame(rows[idx], rows[idx+1:])
}

func findHeader(rows [][]string, required []string) int {
	limit := min(MaxHeaderSearchRows, len(rows))

	first := -1
	for i := 0; i < limit; i++ {
		if isEmptyRow(rows[i]) {
			continue
		}
		if first < 0 {
			first = i
		}
		if len(required) > 0 && hasColumns(rows[i], required) {
			return i
		}
	}
	if first < 0 && len(rows) > limit {
		for i := limit; i < len(rows); i++ {
			if !isEmptyRow(rows[i]) {
				return i
			}
		}
	}
	return first
}

func hasColumns(row []string, required []string) bool {
	have := make(map[string]bool, len(row))
	for _, cell := range row {
		have[record.HeaderKey(cell)] = true
	}
	for _, col := range required {
		if !have[record.HeaderKey(col)] {
			return false
		}
	}
	return true
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

