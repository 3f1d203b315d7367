package interp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
)

// A closure captures the values of its free variables at construction
// time; reassigning the outer variable afterward must not change what the
// closure later computes.
func TestClosureCapturesFreeVariablesAtConstruction(t *testing.T) {
	in := intern.New()
	it := interp.New(in, nil)
	base := in.Intern("base")
	f := in.Intern("f")
	x := in.Intern("x")
	result := in.Intern("result")

	stmts := []ast.Stmt{
		ast.LetStmt{Var: base, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 10}}},
		ast.LetStmt{Var: f, Value: ast.ClosureExpr{
			Params: []intern.Symbol{x},
			Body:   ast.BinaryExpr{Op: ast.Add, Left: ast.IdentExpr{Name: base}, Right: ast.IdentExpr{Name: x}},
		}},
		ast.SetStmt{Var: base, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 100}}},
		ast.LetStmt{Var: result, Value: ast.CallIndirectExpr{
			Callee: ast.IdentExpr{Name: f},
			Args:   []ast.Expr{ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
		}},
		ast.ReturnStmt{Value: ast.IdentExpr{Name: result}},
	}

	val, err := it.ExecTopLevel(context.Background(), stmts)
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue(11), val, "the closure must see base as it was when constructed")
}

// Capture is a deep clone: mutating a captured list through the outer
// binding must not leak into the closure's view of it.
func TestClosureCaptureDeepClonesCollections(t *testing.T) {
	in := intern.New()
	it := interp.New(in, nil)
	xs := in.Intern("xs")
	f := in.Intern("f")
	result := in.Intern("result")

	stmts := []ast.Stmt{
		ast.LetStmt{Var: xs, Value: ast.ListExpr{Elements: []ast.Expr{
			ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}},
		}}},
		ast.LetStmt{Var: f, Value: ast.ClosureExpr{
			Body: ast.LengthExpr{Object: ast.IdentExpr{Name: xs}},
		}},
		ast.CollectionMutateStmt{Op: ast.CollPush, Collection: ast.IdentExpr{Name: xs}, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 2}}},
		ast.LetStmt{Var: result, Value: ast.CallIndirectExpr{Callee: ast.IdentExpr{Name: f}}},
		ast.ReturnStmt{Value: ast.IdentExpr{Name: result}},
	}

	val, err := it.ExecTopLevel(context.Background(), stmts)
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue(1), val, "the captured list is an independent deep clone")
}

// A closure parameter shadows an outer binding of the same name, so the
// parameter's name is not a free variable and must not be captured.
func TestClosureParameterIsNotCaptured(t *testing.T) {
	in := intern.New()
	it := interp.New(in, nil)
	x := in.Intern("x")
	f := in.Intern("f")
	result := in.Intern("result")

	stmts := []ast.Stmt{
		ast.LetStmt{Var: x, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 5}}},
		ast.LetStmt{Var: f, Value: ast.ClosureExpr{
			Params: []intern.Symbol{x},
			Body:   ast.IdentExpr{Name: x},
		}},
		ast.LetStmt{Var: result, Value: ast.CallIndirectExpr{
			Callee: ast.IdentExpr{Name: f},
			Args:   []ast.Expr{ast.LiteralExpr{Value: ast.IntLiteral{Value: 9}}},
		}},
		ast.ReturnStmt{Value: ast.IdentExpr{Name: result}},
	}

	val, err := it.ExecTopLevel(context.Background(), stmts)
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue(9), val)
}
