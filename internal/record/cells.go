package record

// cells.go provides cleanup helpers for spreadsheet cells and headers.
//
// Requirement exports come out of DOORS/Excel with the usual artifacts:
//   - Excel formula prefixes (="value")
//   - Surrounding quotes and stray whitespace
//   - Headers that repeat themselves ("Name NAME") after a flattening export
//   - Inconsistent spelling of the same header ("Requirement ID" vs "Requirement_ID")
//
// HeaderKey is the single lookup key used everywhere a column name is matched.

import "strings"

// CleanCell removes common spreadsheet artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes one pair of surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	if len(s) >= 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`) &&
		!strings.Contains(s[1:len(s)-1], `"`) {
		s = s[1 : len(s)-1]
	}

	return strings.TrimSpace(s)
}

// CleanHeader collapses noisy header names produced by flattened exports.
// A header made of one phrase repeated ("Name NAME", "LOID LOID LOID") becomes
// that phrase, and adjacent duplicate words are dropped.
func CleanHeader(name string) string {
	tokens := strings.Fields(CleanCell(name))
	if len(tokens) == 0 {
		return ""
	}

	n := len(tokens)
	for size := 1; size <= n/2; size++ {
		if n%size != 0 {
			continue
		}
		if repeatsChunk(tokens, size) {
			return CleanHeader(strings.Join(tokens[:size], " "))
		}
	}

	cleaned := make([]string, 0, n)
	for _, tok := range tokens {
		if len(cleaned) > 0 && strings.EqualFold(cleaned[len(cleaned)-1], tok) {
			continue
		}
		cleaned = append(cleaned, tok)
	}
	return strings.Join(cleaned, " ")
}

// repeatsChunk reports whether tokens is the first size tokens repeated.
func repeatsChunk(tokens []string, size int) bool {
	for i := size; i < len(tokens); i++ {
		if !strings.EqualFold(tokens[i], tokens[i%size]) {
			return false
		}
	}
	return true
}

// HeaderKey returns the lookup key for a column name.
// Matching is case-insensitive and treats underscores and whitespace runs as a
// single space, so "Requirement_ID", "requirement id" and "Requirement  ID"
// all share one key.
func HeaderKey(name string) string {
	name = strings.ReplaceAll(CleanHeader(name), "_", " ")
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
