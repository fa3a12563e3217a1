package record

// RawRow is one spreadsheet row as a column-name to value mapping.
// Keys are stored as HeaderKey values; use Get to look a column up by any
// spelling of its name.
type RawRow map[string]string

// NewRawRow builds a RawRow from display names. Values are cleaned with
// CleanCell.
func NewRawRow(values map[string]string) RawRow {
	row := make(RawRow, len(values))
	for name, v := range values {
		row[HeaderKey(name)] = CleanCell(v)
	}
	return row
}

// Get returns the cleaned value of a column, or "" when the column is absent.
func (r RawRow) Get(column string) string {
	if column == "" {
		return ""
	}
	return r[HeaderKey(column)]
}

// Has reports whether the row carries the column at all (even if blank).
func (r RawRow) Has(column string) bool {
	_, ok := r[HeaderKey(column)]
	return ok
}

// First returns the first non-blank value among columns.
func (r RawRow) First(columns ...string) string {
	for _, c := range columns {
		if v := r.Get(c); v != "" {
			return v
		}
	}
	return ""
}

// Empty reports whether every cell in the row is blank.
func (r RawRow) Empty() bool {
	for _, v := range r {
		if v != "" {
			return false
		}
	}
	return true
}

// Frame is the ordered content of one input: its header and data rows.
type Frame struct {
	Columns []string // Cleaned header names, in file order
	Rows    []RawRow // Data rows, in file order
}

// NewFrame builds a Frame from a header row and positional data rows.
// Short rows are padded with blanks; cells beyond the header are dropped.
func NewFrame(header []string, rows [][]string) Frame {
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = CleanHeader(h)
	}

	out := Frame{Columns: cols, Rows: make([]RawRow, 0, len(rows))}
	for _, cells := range rows {
		row := make(RawRow, len(cols))
		for i, col := range cols {
			if col == "" {
				continue
			}
			key := HeaderKey(col)
			v := ""
			if i < len(cells) {
				v = CleanCell(cells[i])
			}
			// First occurrence wins when a header repeats.
			if _, dup := row[key]; dup {
				continue
			}
			row[key] = v
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// HeaderIndex maps header keys to their position in the frame.
type HeaderIndex map[string]int

// Index returns the HeaderIndex of the frame's columns.
func (f Frame) Index() HeaderIndex {
	idx := make(HeaderIndex, len(f.Columns))
	for i, c := range f.Columns {
		key := HeaderKey(c)
		if _, ok := idx[key]; !ok {
			idx[key] = i
		}
	}
	return idx
}

// HasColumn reports whether the frame header contains the column.
func (f Frame) HasColumn(column string) bool {
	_, ok := f.Index()[HeaderKey(column)]
	return ok
}
