package trace

import (
	"fmt"

	"github.com/JonMunkholm/reqtrace/internal/record"
)

// CodeDangling is the catalogue code of an unresolved reference.
const CodeDangling = "TRC001"

// Direction tells which trace list a reference came from.
type Direction string

const (
	Parent Direction = "parent"
	Child  Direction = "child"
)

// DanglingReference is a trace token that named no record in the run. It is
// expected in partial runs and never fails anything; the token stays in the
// output verbatim.
type DanglingReference struct {
	From      string // Req_ID of the record holding the reference
	DocName   string
	Direction Direction
	Token     string
}

func (d DanglingReference) Error() string {
	return fmt.Sprintf("%s reference %q from %s (%s) did not resolve", d.Direction, d.Token, d.From, d.DocName)
}

// Report summarizes a reconciliation sweep.
type Report struct {
	Rewritten int // tokens replaced by a canonical Req_ID
	Dangling  []DanglingReference
}

// Reconcile resolves every trace token in records against the final alias
// map, in place. Lists are re-deduplicated after rewriting because two
// aliases of one requirement collapse to the same Req_ID.
func (h *Harvester) Reconcile(records []record.Record) Report {
	var rep Report
	for i := range records {
		r := &records[i]
		r.ParentReqIDs = h.reconcile(r, Parent, r.ParentReqIDs, &rep)
		r.ChildReqIDs = h.reconcile(r, Child, r.ChildReqIDs, &rep)
	}
	return rep
}

func (h *Harvester) reconcile(r *record.Record, dir Direction, ids []string, rep *Report) []string {
	if len(ids) == 0 {
		return ids
	}
	out := make([]string, 0, len(ids))
	for _, tok := range ids {
		id, ok := h.Resolve(tok)
		if !ok {
			rep.Dangling = append(rep.Dangling, DanglingReference{
				From:      r.ReqID,
				DocName:   r.DocName,
				Direction: dir,
				Token:     tok,
			})
			out = Union(out, tok)
			continue
		}
		if id != tok {
			rep.Rewritten++
		}
		out = Union(out, id)
	}
	return out
}

// Edge is one child-to-parent link. Child lists are flipped so every edge
// reads the same way.
type Edge struct {
	Child   string
	Parent  string
	DocName string // document that declared the link
}

// Edges flattens the trace lists of records into distinct edges, in record
// order.
func Edges(records []record.Record) []Edge {
	type key struct{ child, parent string }
	seen := make(map[key]bool)
	var out []Edge

	add := func(child, parent, doc string) {
		k := key{fold(child), fold(parent)}
		if child == "" || parent == "" || seen[k] {
			return
		}
		seen[k] = true
		out = append(out, Edge{Child: child, Parent: parent, DocName: doc})
	}

	for _, r := range records {
		if r.ReqID == "" {
			continue
		}
		for _, p := range r.ParentReqIDs {
			add(r.ReqID, p, r.DocName)
		}
		for _, c := range r.ChildReqIDs {
			add(c, r.ReqID, r.DocName)
		}
	}
	return out
}
