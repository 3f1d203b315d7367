// Package typeregistry catalogs user-defined records, tagged unions,
// refinement predicates, and field metadata discovered from StructDef
// statements. Codegen and the C-ABI emitter both query it: codegen for the
// recursive-field (boxed_fields) fixed point, the C-ABI emitter for JSON
// Schema generation used by its to-json/from-json glue.
package typeregistry

import (
	"fmt"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// FieldKey identifies one field of one variant of one tagged union, the unit
// the recursive-boxing fixed point operates over.
type FieldKey struct {
	Enum, Variant, Field intern.Symbol
}

// Record describes a plain record type (struct with positional/named
// fields, no variants).
type Record struct {
	Name   intern.Symbol
	Fields []ast.FieldDecl
}

// Union describes a tagged-union type.
type Union struct {
	Name     intern.Symbol
	Variants []ast.VariantDecl
}

// Registry is the catalog of all record and union declarations seen in a
// program, plus the derived boxed_fields set.
type Registry struct {
	interner *intern.Interner
	records  map[intern.Symbol]*Record
	unions   map[intern.Symbol]*Union
	boxed    map[FieldKey]bool
}

// New returns an empty Registry.
func New(in *intern.Interner) *Registry {
	return &Registry{
		interner: in,
		records:  make(map[intern.Symbol]*Record),
		unions:   make(map[intern.Symbol]*Union),
		boxed:    make(map[FieldKey]bool),
	}
}

// Build scans stmts for StructDefStmt declarations and populates the
// registry, then computes the recursive-field fixed point so BoxedFields is
// ready to query.
func Build(in *intern.Interner, stmts []ast.Stmt) *Registry {
	r := New(in)
	r.collect(stmts)
	r.computeBoxedFields()
	return r
}

func (r *Registry) collect(stmts []ast.Stmt) {
	for _, s := range stmts {
		switch v := s.(type) {
		case ast.StructDefStmt:
			if len(v.Variants) > 0 {
				r.unions[v.Name] = &Union{Name: v.Name, Variants: v.Variants}
			} else {
				r.records[v.Name] = &Record{Name: v.Name, Fields: v.Fields}
			}
		case ast.FunctionDefStmt:
			r.collect(v.Body)
		case ast.IfStmt:
			r.collect(v.Then)
			r.collect(v.Else)
		case ast.WhileStmt:
			r.collect(v.Body)
		case ast.RepeatStmt:
			r.collect(v.Body)
		case ast.ZoneStmt:
			r.collect(v.Body)
		}
	}
}

// Record looks up a record by name.
func (r *Registry) Record(name intern.Symbol) (*Record, bool) {
	rec, ok := r.records[name]
	return rec, ok
}

// Union looks up a tagged union by name.
func (r *Registry) Union(name intern.Symbol) (*Union, bool) {
	u, ok := r.unions[name]
	return u, ok
}

// IsBoxed reports whether (enum, variant, field) requires heap indirection
// because it transitively references its enclosing union.
func (r *Registry) IsBoxed(key FieldKey) bool {
	return r.boxed[key]
}

// SyncedFields returns the names of record fields declared as backed by a
// replicated store, in declaration order. Codegen's discovery pass consults
// this to decide which variables get remote-get reads and commit-wrapped
// writes.
func (r *Registry) SyncedFields(name intern.Symbol) []intern.Symbol {
	rec, ok := r.records[name]
	if !ok {
		return nil
	}
	var out []intern.Symbol
	for _, f := range rec.Fields {
		if f.Synced {
			out = append(out, f.Name)
		}
	}
	return out
}

// HasSyncedFields reports whether name declares at least one replicated
// field.
func (r *Registry) HasSyncedFields(name intern.Symbol) bool {
	return len(r.SyncedFields(name)) > 0
}

// computeBoxedFields runs a fixed point over variant-field -> type edges: a
// field is boxed if its declared type names the enclosing union directly,
// or names a record/union that (transitively) contains a field referencing
// the enclosing union. Codegen inserts the heap indirection at
// construction and the matching dereference at destructuring for every
// field this marks.
func (r *Registry) computeBoxedFields() {
	changed := true
	for changed {
		changed = false
		for _, u := range r.unions {
			for _, variant := range u.Variants {
				for _, field := range variant.Fields {
					key := FieldKey{Enum: u.Name, Variant: variant.Name, Field: field.Name}
					if r.boxed[key] {
						continue
					}
					if r.typeReaches(field.Type, u.Name, map[intern.Symbol]bool{}) {
						r.boxed[key] = true
						changed = true
					}
				}
			}
		}
	}
}

// typeReaches reports whether t can, directly or through a record/union it
// names, contain a value of type target. visited guards against infinite
// recursion through mutually-referential declarations.
func (r *Registry) typeReaches(t ast.TypeExpr, target intern.Symbol, visited map[intern.Symbol]bool) bool {
	switch v := t.(type) {
	case ast.NamedType:
		if v.Name == target {
			return true
		}
		if visited[v.Name] {
			return false
		}
		visited[v.Name] = true
		if rec, ok := r.records[v.Name]; ok {
			for _, f := range rec.Fields {
				if r.typeReaches(f.Type, target, visited) {
					return true
				}
			}
		}
		if u, ok := r.unions[v.Name]; ok {
			for _, variant := range u.Variants {
				for _, f := range variant.Fields {
					if r.typeReaches(f.Type, target, visited) {
						return true
					}
				}
			}
		}
		return false
	case ast.GenericType:
		for _, p := range v.Params {
			if r.typeReaches(p, target, visited) {
				return true
			}
		}
		return false
	case ast.RefinementType:
		return r.typeReaches(v.Base, target, visited)
	default:
		return false
	}
}

// TypeName renders a TypeExpr into a human-readable name, used by
// diagnostics, by codegen's lowered-type bookkeeping, and by the C-ABI
// emitter's type mapping.
func (r *Registry) TypeName(t ast.TypeExpr) string {
	switch v := t.(type) {
	case ast.PrimitiveType:
		return r.interner.MustResolve(v.Name)
	case ast.NamedType:
		return r.interner.MustResolve(v.Name)
	case ast.GenericType:
		base := r.interner.MustResolve(v.Base)
		out := base
		for i, p := range v.Params {
			if i == 0 {
				out += " of "
			} else {
				out += ", "
			}
			out += r.TypeName(p)
		}
		return out
	case ast.FunctionType:
		return "Function"
	case ast.RefinementType:
		return fmt.Sprintf("%s (refined)", r.TypeName(v.Base))
	default:
		return "?"
	}
}
