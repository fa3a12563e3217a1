// Package trace harvests parent/child links between requirements.
//
// Resolution is deferred. While documents are normalized, every Req_ID and
// alias is recorded in an append-only alias map and each trace token is
// resolved against whatever the map holds at that point. Once every input
// has been processed, Reconcile sweeps the unified table and resolves the
// tokens that named records created later in the run. Tokens that never
// resolve are kept verbatim.
package trace

import (
	"strings"

	"github.com/JonMunkholm/reqtrace/internal/record"
	"github.com/JonMunkholm/reqtrace/internal/reqid"
	"github.com/JonMunkholm/reqtrace/internal/schema"
)

// Harvester owns the run-wide alias map. It is not safe for concurrent use.
type Harvester struct {
	canonical map[string]string // folded token -> canonical Req_ID
}

// NewHarvester returns an empty harvester for one run.
func NewHarvester() *Harvester {
	return &Harvester{canonical: make(map[string]string)}
}

// Observe records a canonical Req_ID and its aliases. The first record to
// claim a token keeps it; later claims are ignored.
func (h *Harvester) Observe(id string, aliases ...string) {
	if id == "" {
		return
	}
	h.claim(id, id)
	for _, a := range aliases {
		h.claim(a, id)
	}
}

func (h *Harvester) claim(token, id string) {
	key := fold(token)
	if key == "" {
		return
	}
	if _, ok := h.canonical[key]; !ok {
		h.canonical[key] = id
	}
}

// Resolve maps a token to its canonical Req_ID. The second result is false
// when the token has not been observed.
func (h *Harvester) Resolve(token string) (string, bool) {
	id, ok := h.canonical[fold(token)]
	return id, ok
}

// Len returns the number of tokens in the alias map.
func (h *Harvester) Len() int {
	return len(h.canonical)
}

// Links are the trace references harvested from one row.
type Links struct {
	Parents  []string
	Children []string
}

// Harvest reads the trace columns of a row, resolving every token already
// known to the alias map.
func (h *Harvester) Harvest(row record.RawRow, spec schema.DocSpec) Links {
	return Links{
		Parents:  h.harvest(row, spec.Trace.Parents, spec.IDPadWidth),
		Children: h.harvest(row, spec.Trace.Children, spec.IDPadWidth),
	}
}

func (h *Harvester) harvest(row record.RawRow, columns []string, pad int) []string {
	var out []string
	for _, col := range columns {
		for _, tok := range reqid.ParseIDList(row.Get(col), pad) {
			out = Union(out, h.resolveOrKeep(tok))
		}
	}
	return out
}

func (h *Harvester) resolveOrKeep(token string) string {
	if id, ok := h.Resolve(token); ok {
		return id
	}
	return token
}

// Union appends ids to set, skipping blanks and any id already present
// ignoring case. The first spelling seen is kept.
func Union(set []string, ids ...string) []string {
	for _, id := range ids {
		if id == "" || contains(set, id) {
			continue
		}
		set = append(set, id)
	}
	return set
}

func contains(set []string, id string) bool {
	for _, s := range set {
		if strings.EqualFold(s, id) {
			return true
		}
	}
	return false
}

func fold(token string) string {
	return strings.ToUpper(reqid.Clean(token))
}
