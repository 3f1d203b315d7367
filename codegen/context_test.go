package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func TestDiscoverCollectsAsyncFunctionsAcrossNesting(t *testing.T) {
	in := intern.New()
	outer := in.Intern("outer")
	inner := in.Intern("fetchThing")

	stmts := []ast.Stmt{
		ast.FunctionDefStmt{
			Name: outer,
			Body: []ast.Stmt{
				ast.IfStmt{
					Cond: ast.IdentExpr{Name: in.Intern("cond")},
					Then: []ast.Stmt{
						ast.FunctionDefStmt{Name: inner, Async: true},
					},
				},
			},
		},
	}

	ctx := codegen.NewContext(in, typeregistry.New(in))
	codegen.Discover(ctx, stmts)

	assert.False(t, ctx.IsAsync(outer))
	assert.True(t, ctx.IsAsync(inner))
}

func TestScopeUndoRestoresShadowedDeclarations(t *testing.T) {
	in := intern.New()
	x := in.Intern("x")

	ctx := codegen.NewContext(in, typeregistry.New(in))
	ctx.DeclareVar(x, "int64", false)
	assert.Equal(t, "int64", ctx.LoweredType(x))

	ctx.PushScope()
	ctx.DeclareVar(x, "string", true)
	assert.Equal(t, "string", ctx.LoweredType(x))
	assert.True(t, ctx.IsMutable(x))
	ctx.PopScope()

	assert.Equal(t, "int64", ctx.LoweredType(x), "popping the inner scope restores the outer binding")
	assert.False(t, ctx.IsMutable(x), "the inner scope's mutability must not leak to the outer binding")
}

func TestMarkStringIsScopedLikeDeclareVar(t *testing.T) {
	in := intern.New()
	s := in.Intern("s")

	ctx := codegen.NewContext(in, typeregistry.New(in))
	ctx.PushScope()
	ctx.MarkString(s)
	assert.True(t, ctx.StringVars[s])
	ctx.PopScope()
	assert.False(t, ctx.StringVars[s])
}
