package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func TestDiscoverMarksWrittenSymbolsMutable(t *testing.T) {
	in := intern.New()
	a := in.Intern("a")
	b := in.Intern("b")
	c := in.Intern("c")
	d := in.Intern("d")
	untouched := in.Intern("untouched")

	stmts := []ast.Stmt{
		ast.SetStmt{Var: a, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
		ast.SetFieldStmt{Object: ast.IdentExpr{Name: b}, Field: in.Intern("f"), Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 2}}},
		ast.SetIndexStmt{Collection: ast.IdentExpr{Name: c}, Index: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 3}}},
		ast.CollectionMutateStmt{Op: ast.CollPush, Collection: ast.IdentExpr{Name: d}, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 4}}},
		ast.ShowStmt{Object: ast.IdentExpr{Name: untouched}, To: in.Intern("show")},
	}

	ctx := codegen.NewContext(in, typeregistry.New(in))
	codegen.Discover(ctx, stmts)

	assert.True(t, ctx.Mutable[a])
	assert.True(t, ctx.Mutable[b])
	assert.True(t, ctx.Mutable[c])
	assert.True(t, ctx.Mutable[d])
	assert.False(t, ctx.Mutable[untouched])
}

func TestDiscoverMarksPipeTypedLets(t *testing.T) {
	in := intern.New()
	jobs := in.Intern("jobs")
	count := in.Intern("count")

	stmts := []ast.Stmt{
		ast.LetStmt{Var: jobs, Type: ast.GenericType{Base: in.Intern("Pipe"), Params: []ast.TypeExpr{ast.PrimitiveType{Name: in.Intern("Int")}}}},
		ast.LetStmt{Var: count, Type: ast.PrimitiveType{Name: in.Intern("Int")}, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 0}}},
	}

	ctx := codegen.NewContext(in, typeregistry.New(in))
	codegen.Discover(ctx, stmts)

	assert.True(t, ctx.PipeVars[jobs])
	assert.False(t, ctx.PipeVars[count])
}

func TestDiscoverMarksSyncedRecordLets(t *testing.T) {
	in := intern.New()
	profile := in.Intern("Profile")
	plain := in.Intern("Plain")
	defs := []ast.Stmt{
		ast.StructDefStmt{Name: profile, Fields: []ast.FieldDecl{
			{Name: in.Intern("score"), Type: ast.PrimitiveType{Name: in.Intern("Int")}, Synced: true},
		}},
		ast.StructDefStmt{Name: plain, Fields: []ast.FieldDecl{
			{Name: in.Intern("n"), Type: ast.PrimitiveType{Name: in.Intern("Int")}},
		}},
	}
	reg := typeregistry.Build(in, defs)

	p := in.Intern("p")
	q := in.Intern("q")
	stmts := []ast.Stmt{
		ast.LetStmt{Var: p, Type: ast.NamedType{Name: profile}, Value: ast.IdentExpr{Name: in.Intern("input")}},
		ast.LetStmt{Var: q, Type: ast.NamedType{Name: plain}, Value: ast.IdentExpr{Name: in.Intern("input")}},
	}

	ctx := codegen.NewContext(in, reg)
	codegen.Discover(ctx, stmts)

	assert.True(t, ctx.SyncedVars[p])
	assert.False(t, ctx.SyncedVars[q], "a record with no synced fields stays a plain local")
}
