package expr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/expr"
	_ "github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/stmt" // installs codegen.LowerBlock
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func TestClosureWithExpressionBody(t *testing.T) {
	in := intern.New()
	ctx := codegen.NewContext(in, typeregistry.New(in))
	x := in.Intern("x")
	c := ast.ClosureExpr{
		Params: []intern.Symbol{x},
		Body:   ast.BinaryExpr{Op: ast.Add, Left: ast.IdentExpr{Name: x}, Right: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
	}
	out := expr.Lower(ctx, c)
	assert.Equal(t, "func(x any) any { return (x + 1) }", out)
}

func TestClosureWithBlockBodyLowersStatements(t *testing.T) {
	in := intern.New()
	ctx := codegen.NewContext(in, typeregistry.New(in))
	x := in.Intern("x")
	c := ast.ClosureExpr{
		Params: []intern.Symbol{x},
		Block: []ast.Stmt{
			ast.ShowStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern("show")},
			ast.ReturnStmt{Value: ast.IdentExpr{Name: x}},
		},
	}
	out := expr.Lower(ctx, c)
	assert.Contains(t, out, "LogosShow(x")
	assert.Contains(t, out, "return x")
}

func TestNonCopyIdentifierCallArgumentIsCloned(t *testing.T) {
	in := intern.New()
	ctx := codegen.NewContext(in, typeregistry.New(in))
	name := in.Intern("name")
	ctx.MarkString(name)
	call := ast.CallExpr{Function: in.Intern("greet"), Args: []ast.Expr{ast.IdentExpr{Name: name}}}
	assert.Equal(t, "greet(LogosClone(name))", expr.Lower(ctx, call))
}

func TestCopyIdentifierCallArgumentPassesPlain(t *testing.T) {
	in := intern.New()
	ctx := codegen.NewContext(in, typeregistry.New(in))
	n := in.Intern("n")
	ctx.DeclareVar(n, "int64", false)
	call := ast.CallExpr{Function: in.Intern("double"), Args: []ast.Expr{ast.IdentExpr{Name: n}}}
	assert.Equal(t, "double(n)", expr.Lower(ctx, call))
}

func TestSyncedVariableFieldReadLowersToRemoteGet(t *testing.T) {
	in := intern.New()
	ctx := codegen.NewContext(in, typeregistry.New(in))
	p := in.Intern("p")
	ctx.SyncedVars[p] = true
	access := ast.FieldAccessExpr{Object: ast.IdentExpr{Name: p}, Field: in.Intern("score")}
	assert.Equal(t, `LogosSyncedGet(p, "score")`, expr.Lower(ctx, access))
}
