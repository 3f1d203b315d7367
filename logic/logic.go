// Package logic states the contract the dependent-type logic kernel must
// satisfy; the kernel itself (elaboration, unification, proof search)
// lives in a separate subsystem. This
// package exists so compiler.Pipeline and the statement lowerer have a
// stable interface to call against and a test double to run against in
// this repository.
package logic

import (
	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
)

// DischargeError reports that a theorem did not elaborate. It is always
// fatal to the compilation and carries the theorem's source span.
type DischargeError struct {
	Theorem string
	Span    ast.Span
	Reason  string
}

func (e *DischargeError) Error() string {
	return "theorem " + e.Theorem + " did not discharge: " + e.Reason
}

// Kernel is the external collaborator invoked for TheoremStmt discharge and
// for elaborating a refinement predicate attached to a TypeExpr. The real
// implementation is a dependent-type checker; this module only depends on
// the shape of the contract.
type Kernel interface {
	// Discharge attempts to prove prop, returning a *DischargeError when it
	// cannot. compiler.Pipeline never calls a nil Kernel: withDefaults
	// substitutes Stub when Options.Kernel is nil, and callers that have no
	// kernel available (tests) use Stub directly.
	Discharge(name string, prop ast.LogicExpr, span ast.Span) error

	// CheckPredicate evaluates a refinement predicate against a bound
	// value's logical representation, reporting whether the check can be
	// proven statically. Nothing in this module calls it: the interpreter
	// and codegen do not consult it when handling refinement checks.
	CheckPredicate(pred ast.LogicExpr, bound ast.Expr) (bool, error)
}

// Stub is a Kernel that defers every discharge and predicate check to
// runtime: Discharge always succeeds (the theorem is assumed, not proven)
// and CheckPredicate always reports "cannot decide statically". It exists
// so the rest of the pipeline can run end-to-end in this repository
// without the real kernel, matching how the AST/codegen/interpreter are
// specified to treat the kernel as an opaque external collaborator.
type Stub struct{}

func (Stub) Discharge(string, ast.LogicExpr, ast.Span) error { return nil }

func (Stub) CheckPredicate(ast.LogicExpr, ast.Expr) (bool, error) { return false, nil }
