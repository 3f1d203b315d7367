package stmt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/stmt"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func TestConcurrentWithoutDepsEmitsSingleJoin(t *testing.T) {
	in := intern.New()
	c := ast.ConcurrentStmt{Tasks: []ast.TaskStmt{
		{Body: []ast.Stmt{ast.CallStmt{Function: in.Intern("f")}}},
		{Body: []ast.Stmt{ast.CallStmt{Function: in.Intern("g")}}},
	}}
	out := stmt.Lower(newCtx(in), []ast.Stmt{c})
	assert.Contains(t, out, "LogosJoin(")
	assert.Contains(t, out, "f()")
	assert.Contains(t, out, "g()")
}

func TestConcurrentWithIntraBlockDepDowngradesToSequential(t *testing.T) {
	in := intern.New()
	x := in.Intern("x")
	c := ast.ConcurrentStmt{Tasks: []ast.TaskStmt{
		{Body: []ast.Stmt{ast.LetStmt{Var: x, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}}}},
		{Body: []ast.Stmt{ast.ShowStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern("show")}}},
	}}
	out := stmt.Lower(newCtx(in), []ast.Stmt{c})
	assert.NotContains(t, out, "LogosJoin", "a later task reading an earlier task's write must run sequentially")
	assert.Contains(t, out, "const x = 1")
	assert.Contains(t, out, "LogosShow(x")
}

func TestConcurrentAllLetTasksDestructureIntoTupleBinding(t *testing.T) {
	in := intern.New()
	a := in.Intern("a")
	b := in.Intern("b")
	c := ast.ConcurrentStmt{Tasks: []ast.TaskStmt{
		{Body: []ast.Stmt{ast.LetStmt{Var: a, Value: ast.CallExpr{Function: in.Intern("f")}}}},
		{Body: []ast.Stmt{ast.LetStmt{Var: b, Value: ast.CallExpr{Function: in.Intern("g")}}}},
	}}
	out := stmt.Lower(newCtx(in), []ast.Stmt{c})
	assert.Contains(t, out, "a, b := LogosJoin(")
	assert.Contains(t, out, "return f()")
	assert.Contains(t, out, "return g()")
}

func TestConcurrentSharedVariableClonedIntoAllTasksButLast(t *testing.T) {
	in := intern.New()
	data := in.Intern("data")
	show := in.Intern("show")
	c := ast.ConcurrentStmt{Tasks: []ast.TaskStmt{
		{Body: []ast.Stmt{ast.ShowStmt{Object: ast.IdentExpr{Name: data}, To: show}}},
		{Body: []ast.Stmt{ast.ShowStmt{Object: ast.LengthExpr{Object: ast.IdentExpr{Name: data}}, To: show}}},
	}}
	out := stmt.Lower(newCtx(in), []ast.Stmt{c})
	assert.Equal(t, 1, countOccurrences(out, "data := LogosClone(data)"), "only the non-final tasks clone the shared variable")
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}

func TestParallelTwoTasksUsesForkJoin(t *testing.T) {
	in := intern.New()
	p := ast.ParallelStmt{Tasks: []ast.TaskStmt{
		{Body: []ast.Stmt{ast.CallStmt{Function: in.Intern("f")}}},
		{Body: []ast.Stmt{ast.CallStmt{Function: in.Intern("g")}}},
	}}
	out := stmt.Lower(newCtx(in), []ast.Stmt{p})
	assert.Contains(t, out, "LogosForkJoin(")
}

func TestParallelThreeTasksUsesThreadJoin(t *testing.T) {
	in := intern.New()
	p := ast.ParallelStmt{Tasks: []ast.TaskStmt{
		{Body: []ast.Stmt{ast.CallStmt{Function: in.Intern("f")}}},
		{Body: []ast.Stmt{ast.CallStmt{Function: in.Intern("g")}}},
		{Body: []ast.Stmt{ast.CallStmt{Function: in.Intern("h")}}},
	}}
	out := stmt.Lower(newCtx(in), []ast.Stmt{p})
	assert.Contains(t, out, "LogosThreadJoin(")
}

func TestSendToLocalPipeUsesSenderHalf(t *testing.T) {
	in := intern.New()
	ctx := newCtx(in)
	jobs := in.Intern("jobs")
	results := in.Intern("results")
	stmts := []ast.Stmt{
		ast.LetStmt{Var: jobs, Type: ast.GenericType{Base: in.Intern("Pipe"), Params: []ast.TypeExpr{ast.PrimitiveType{Name: in.Intern("Int")}}}},
		ast.SendStmt{Pipe: jobs, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 7}}},
		ast.ReceiveStmt{Pipe: jobs, Target: in.Intern("job")},
		ast.SendStmt{Pipe: results, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 8}}},
	}
	codegen.Discover(ctx, stmts)
	out := stmt.Lower(ctx, stmts)
	assert.Contains(t, out, "jobs_tx, jobs_rx := LogosNewPipe()")
	assert.Contains(t, out, "jobs_tx <- 7")
	assert.Contains(t, out, "job = <-jobs_rx")
	assert.Contains(t, out, "results <- 8", "a pipe that was never locally declared sends under its plain name")
}

func TestInspectArmBindsBoxedFieldWithDerefClone(t *testing.T) {
	in := intern.New()
	list := in.Intern("List")
	cons := in.Intern("Cons")
	head := in.Intern("head")
	tail := in.Intern("tail")
	defs := []ast.Stmt{
		ast.StructDefStmt{
			Name: list,
			Variants: []ast.VariantDecl{
				{Name: cons, Fields: []ast.FieldDecl{
					{Name: head, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
					{Name: tail, Type: ast.NamedType{Name: list}},
				}},
			},
		},
	}
	reg := typeregistry.Build(in, defs)
	ctx := codegen.NewContext(in, reg)

	xs := in.Intern("xs")
	h := in.Intern("h")
	rest := in.Intern("rest")
	stmts := []ast.Stmt{
		ast.LetStmt{Var: xs, Type: ast.NamedType{Name: list}, Value: ast.IdentExpr{Name: in.Intern("input")}},
		ast.InspectStmt{
			Subject: ast.IdentExpr{Name: xs},
			Arms: []ast.InspectArm{
				{VariantName: cons, Bindings: []intern.Symbol{h, rest}, Body: []ast.Stmt{
					ast.ShowStmt{Object: ast.IdentExpr{Name: h}, To: in.Intern("show")},
				}},
			},
		},
	}
	out := stmt.Lower(ctx, stmts)
	assert.Contains(t, out, "case ListCons:")
	assert.Contains(t, out, "h := v.head")
	assert.Contains(t, out, "rest := LogosClone(*v.tail)", "a boxed field's binding must dereference and clone")
}

func TestPolicyDefLowersToGuardMethods(t *testing.T) {
	in := intern.New()
	p := ast.PolicyDefStmt{
		SubjectType: in.Intern("User"),
		Rules: []ast.PolicyRule{
			{
				Name: in.Intern("admin"),
				Condition: ast.PolicyCondAnd{
					Left:  ast.PolicyFieldEquals{Field: in.Intern("role"), Value: "admin", IsStringLiteral: true},
					Right: ast.PolicyFieldBool{Field: in.Intern("active"), Value: true},
				},
			},
			{
				Name:       in.Intern("edit"),
				Capability: true,
				Condition: ast.PolicyCondOr{
					Left:  ast.PolicyPredicateRef{Name: in.Intern("admin")},
					Right: ast.PolicyObjectFieldEquals{SubjectField: in.Intern("id"), ObjectField: in.Intern("owner")},
				},
			},
		},
	}
	out := stmt.Lower(newCtx(in), []ast.Stmt{p})
	assert.Contains(t, out, "func (v User) admin() bool {")
	assert.Contains(t, out, `((v.role == "admin") && (v.active == true))`)
	assert.Contains(t, out, "func (v User) edit(obj any) bool {")
	assert.Contains(t, out, `(v.admin() || LogosFieldEquals(v.id, obj, "owner"))`)
}

func TestSetFieldOnSyncedVariableWrapsInCommit(t *testing.T) {
	in := intern.New()
	profile := in.Intern("Profile")
	score := in.Intern("score")
	defs := []ast.Stmt{
		ast.StructDefStmt{
			Name:   profile,
			Fields: []ast.FieldDecl{{Name: score, Type: ast.PrimitiveType{Name: in.Intern("Int")}, Synced: true}},
		},
	}
	reg := typeregistry.Build(in, defs)
	ctx := codegen.NewContext(in, reg)

	p := in.Intern("p")
	stmts := []ast.Stmt{
		ast.LetStmt{Var: p, Type: ast.NamedType{Name: profile}, Value: ast.IdentExpr{Name: in.Intern("input")}},
		ast.SetFieldStmt{Object: ast.IdentExpr{Name: p}, Field: score, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 10}}},
	}
	codegen.Discover(ctx, stmts)
	out := stmt.Lower(ctx, stmts)
	assert.Contains(t, out, "LogosSyncedCommit(p, func() {")
	assert.Contains(t, out, "p.score = 10")
}
