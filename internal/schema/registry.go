package schema

import (
	"fmt"
	"sort"
	"strings"
)

// UnknownDocTypeError is returned when a doc type matches neither a
// registered doc_type nor any alias.
type UnknownDocTypeError struct {
	DocType   string
	Available []string
}

func (e *UnknownDocTypeError) Error() string {
	return fmt.Sprintf("unknown doc type %q (available: %s)", e.DocType, strings.Join(e.Available, ", "))
}

// DuplicateDocTypeError is returned when two definitions claim the same
// doc_type or alias.
type DuplicateDocTypeError struct {
	Name     string
	Existing string
}

func (e *DuplicateDocTypeError) Error() string {
	if strings.EqualFold(e.Name, e.Existing) {
		return fmt.Sprintf("duplicate doc type %q", e.Name)
	}
	return fmt.Sprintf("doc type name %q already used by %q", e.Name, e.Existing)
}

// Registry is an immutable set of DocSpecs keyed by doc_type and alias.
// It is safe for concurrent reads; there are no writers after construction.
type Registry struct {
	version string
	specs   []DocSpec      // sorted by DocType
	index   map[string]int // lookup key -> position in specs
}

// NewRegistry validates the specs and builds a registry. Doc types and
// aliases are matched case-insensitively; any collision is rejected.
func NewRegistry(version string, specs ...DocSpec) (*Registry, error) {
	r := &Registry{
		version: version,
		specs:   make([]DocSpec, 0, len(specs)),
		index:   make(map[string]int, len(specs)),
	}

	sorted := make([]DocSpec, len(specs))
	for i, s := range specs {
		sorted[i] = s.Clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DocType < sorted[j].DocType
	})

	owner := make(map[string]string)
	for _, spec := range sorted {
		if err := Validate(spec); err != nil {
			return nil, err
		}
		key := lookupKey(spec.DocType)
		if prev, ok := owner[key]; ok {
			return nil, &DuplicateDocTypeError{Name: spec.DocType, Existing: prev}
		}
		owner[key] = spec.DocType

		pos := len(r.specs)
		r.specs = append(r.specs, spec)
		r.index[key] = pos
	}

	for pos, spec := range r.specs {
		for _, alias := range spec.Aliases {
			key := lookupKey(alias)
			if key == lookupKey(spec.DocType) {
				continue
			}
			if prev, ok := owner[key]; ok {
				return nil, &DuplicateDocTypeError{Name: alias, Existing: prev}
			}
			owner[key] = spec.DocType
			r.index[key] = pos
		}
	}

	return r, nil
}

// Default builds the registry of builtin families.
func Default() *Registry {
	r, err := NewRegistry(BuiltinVersion, Builtin()...)
	if err != nil {
		panic(fmt.Sprintf("schema: invalid builtin table: %v", err))
	}
	return r
}

// Version returns the schema version the registry was built from.
func (r *Registry) Version() string {
	return r.version
}

// Resolve returns a copy of the DocSpec registered under docTypeOrAlias.
func (r *Registry) Resolve(docTypeOrAlias string) (DocSpec, error) {
	pos, ok := r.index[lookupKey(docTypeOrAlias)]
	if !ok {
		return DocSpec{}, &UnknownDocTypeError{DocType: docTypeOrAlias, Available: r.DocTypes()}
	}
	return r.specs[pos].Clone(), nil
}

// All returns copies of every registered DocSpec, sorted by doc type.
func (r *Registry) All() []DocSpec {
	out := make([]DocSpec, len(r.specs))
	for i, s := range r.specs {
		out[i] = s.Clone()
	}
	return out
}

// DocTypes returns the registered doc types, sorted.
func (r *Registry) DocTypes() []string {
	out := make([]string, len(r.specs))
	for i, s := range r.specs {
		out[i] = s.DocType
	}
	return out
}

// Len returns the number of registered families.
func (r *Registry) Len() int {
	return len(r.specs)
}

// WithOverrides returns a new registry in which each override is merged
// onto the family it names (by doc_type or alias), or added as a new family
// when it names none. The receiver is left untouched.
func (r *Registry) WithOverrides(version string, overrides []Override) (*Registry, error) {
	if version == "" {
		version = r.version
	}

	specs := r.All()
	seen := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		name := strings.TrimSpace(o.DocType)
		if name == "" {
			return nil, &InvalidSpecError{Reason: "override without doc_type"}
		}

		target := -1
		if pos, ok := r.index[lookupKey(name)]; ok {
			target = pos
		}

		key := lookupKey(name)
		if target >= 0 {
			key = lookupKey(specs[target].DocType)
		}
		if seen[key] {
			return nil, &DuplicateDocTypeError{Name: name, Existing: name}
		}
		seen[key] = true

		if target >= 0 {
			merged, err := Merge(specs[target], o)
			if err != nil {
				return nil, err
			}
			specs[target] = merged
			continue
		}

		created, err := Merge(newSpec(name), o)
		if err != nil {
			return nil, err
		}
		specs = append(specs, created)
	}

	return NewRegistry(version, specs...)
}

// newSpec is the base an override starts from when it defines a family the
// registry does not know.
func newSpec(docType string) DocSpec {
	kind, ok := ParseKind(docType)
	if !ok {
		kind = KindGeneric
	}
	return DocSpec{
		DocType:    docType,
		Normalizer: kind,
		Inference: Inference{
			InheritSectionContext: true,
			ObjectNumberColumn:    "Object Number",
		},
	}
}

func lookupKey(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}
