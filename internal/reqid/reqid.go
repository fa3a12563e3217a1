// Package reqid canonicalizes requirement identifiers.
//
// Raw ID cells come in many shapes: padded and unpadded numbers, stray
// whitespace, several IDs in one cell, or an ID spread over several columns.
// Normalize turns the id_columns values of one row into a single Req_ID plus
// aliases; ParseIDList splits alias and trace cells into token lists.
package reqid

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// Delimiter joins the components of a composite ID.
	Delimiter = "-"
	// Placeholder stands in for a blank component of a partial composite ID.
	Placeholder = "_"
	// ListSeparator joins ID lists back into a single cell.
	ListSeparator = ", "
)

// Warning codes, matching the orchestrator's error catalogue.
const (
	CodeBlank      = "ID001"
	CodeIncomplete = "ID002"
)

var (
	tokenPattern  = regexp.MustCompile(`^([A-Za-z]+)-(\d+)([A-Za-z]*)$`)
	spacePattern  = regexp.MustCompile(`\s+`)
	listSeparator = strings.NewReplacer("\r\n", ",", "\n", ",", "\r", ",", ";", ",")
)

// IDResolutionWarning reports a row whose id_columns could not produce a
// complete identifier. It is non-fatal: the caller skips the row or keeps a
// partial ID depending on the family's policy.
type IDResolutionWarning struct {
	Code    string
	Missing []string // blank id_columns, for composite IDs
}

func (w *IDResolutionWarning) Error() string {
	if w.Code == CodeIncomplete {
		return fmt.Sprintf("incomplete composite id: blank %s", strings.Join(w.Missing, ", "))
	}
	return "blank requirement id"
}

// Clean trims a value and collapses internal whitespace runs to one space.
func Clean(s string) string {
	return spacePattern.ReplaceAllString(strings.TrimSpace(s), " ")
}

// NormalizeToken canonicalizes one ID token. Tokens shaped PREFIX-NUMBER
// with an optional letter suffix get an upper-case prefix and suffix, and
// the number is zero-padded to padWidth digits when padWidth > 0. Other
// tokens are only cleaned.
//
//	"fcss-001"  -> "FCSS-001"
//	"SSG-34", 5 -> "SSG-00034"
//	"2.1.4"     -> "2.1.4"
func NormalizeToken(token string, padWidth int) string {
	cleaned := Clean(token)
	if cleaned == "" {
		return ""
	}

	m := tokenPattern.FindStringSubmatch(spacePattern.ReplaceAllString(cleaned, ""))
	if m == nil {
		return cleaned
	}

	prefix, num, suffix := strings.ToUpper(m[1]), m[2], strings.ToUpper(m[3])
	if padWidth > 0 {
		num = strings.TrimLeft(num, "0")
		if num == "" {
			num = "0"
		}
		if len(num) < padWidth {
			num = strings.Repeat("0", padWidth-len(num)) + num
		}
	}
	return prefix + "-" + num + suffix
}

// SplitRaw splits a cell on commas, semicolons and newlines, returning the
// trimmed non-blank pieces.
func SplitRaw(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(listSeparator.Replace(raw), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseIDList splits a cell into canonical tokens, dropping blanks and
// repeats while keeping first-seen order.
func ParseIDList(raw string, padWidth int) []string {
	tokens := SplitRaw(raw)
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tokens))
	ids := make([]string, 0, len(tokens))
	for _, t := range tokens {
		id := NormalizeToken(t, padWidth)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// JoinIDs renders an ID list as a single cell.
func JoinIDs(ids []string) string {
	return strings.Join(ids, ListSeparator)
}

// Options controls Normalize.
type Options struct {
	Columns      []string // id_columns names, parallel to the values
	AllowPartial bool     // keep incomplete composite IDs with placeholders
	PadWidth     int
}

// Result is a resolved identifier.
type Result struct {
	ID      string
	Aliases []string
	Partial bool     // composite ID built with placeholders
	Missing []string // blank columns of a partial ID
}

// Normalize resolves the id_columns values of one row.
//
// A single column may hold several IDs; the first becomes the Req_ID and the
// rest aliases. Composite IDs join the cleaned components with Delimiter.
// A blank single ID, or a composite whose components are all blank, yields
// an IDResolutionWarning with CodeBlank. A composite with only some blank
// components yields CodeIncomplete unless opts.AllowPartial is set.
func Normalize(values []string, opts Options) (Result, error) {
	if len(values) <= 1 {
		raw := ""
		if len(values) == 1 {
			raw = values[0]
		}
		ids := ParseIDList(raw, opts.PadWidth)
		if len(ids) == 0 {
			return Result{}, &IDResolutionWarning{Code: CodeBlank}
		}
		return Result{ID: ids[0], Aliases: ids[1:]}, nil
	}

	parts := make([]string, len(values))
	var missing []string
	for i, v := range values {
		parts[i] = Clean(v)
		if parts[i] == "" {
			missing = append(missing, columnName(opts.Columns, i))
		}
	}

	switch {
	case len(missing) == len(values):
		return Result{}, &IDResolutionWarning{Code: CodeBlank}
	case len(missing) > 0 && !opts.AllowPartial:
		return Result{}, &IDResolutionWarning{Code: CodeIncomplete, Missing: missing}
	}

	for i, p := range parts {
		if p == "" {
			parts[i] = Placeholder
		}
	}
	return Result{
		ID:      strings.Join(parts, Delimiter),
		Partial: len(missing) > 0,
		Missing: missing,
	}, nil
}

func columnName(columns []string, i int) string {
	if i < len(columns) && columns[i] != "" {
		return columns[i]
	}
	return fmt.Sprintf("component %d", i+1)
}

// SplitSection derives section and object candidates from a Req_ID. A
// leading alphabetic token is treated as a document prefix; the last
// remaining token is the object and anything before it the section.
//
//	"SRS-4.1-7" -> ("4.1", "7")
//	"2-3"       -> ("2", "3")
//	"FCSS-001"  -> ("", "001")
func SplitSection(id string) (section, object string) {
	var tokens []string
	for _, t := range strings.Split(id, Delimiter) {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}
	if len(tokens) == 0 {
		return "", ""
	}

	rest := tokens
	if len(tokens) > 1 && isAlpha(tokens[0]) {
		rest = tokens[1:]
	}
	if len(rest) == 1 {
		return "", rest[0]
	}
	return strings.Join(rest[:len(rest)-1], Delimiter), rest[len(rest)-1]
}

func isAlpha(s string) bool {
	for _, r := range s {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return s != ""
}
