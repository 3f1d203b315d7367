package compiler_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/compiler"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
)

// Giving a variable away and then showing it must abort the whole
// pipeline with a use-after-move diagnostic, before anything is lowered or
// interpreted.
func TestPipelineRejectsUseAfterMove(t *testing.T) {
	in := intern.New()
	x := in.Intern("x")
	y := in.Intern("y")
	show := in.Intern("show")
	program := &ast.Program{Stmts: []ast.Stmt{
		ast.LetStmt{Var: x, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "hi"}}},
		ast.GiveStmt{Object: ast.IdentExpr{Name: x}, To: y},
		ast.ShowStmt{Object: ast.IdentExpr{Name: x}, To: show},
	}}

	p := compiler.NewPipeline(in, compiler.Options{Mode: compiler.ModeCodegen})
	_, err := p.Run(context.Background(), program)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "giving it away")
}

func TestPipelineCodegenProducesSource(t *testing.T) {
	in := intern.New()
	name := in.Intern("show")
	program := &ast.Program{Stmts: []ast.Stmt{
		ast.ShowStmt{Object: ast.LiteralExpr{Value: ast.TextLiteral{Value: "hello"}}, To: name},
	}}

	p := compiler.NewPipeline(in, compiler.Options{Mode: compiler.ModeCodegen})
	result, err := p.Run(context.Background(), program)
	require.NoError(t, err)
	assert.Contains(t, result.Source, "LogosShow(")
}

func TestPipelineInterpretReturnsFinalValue(t *testing.T) {
	in := intern.New()
	program := &ast.Program{Stmts: []ast.Stmt{
		ast.ReturnStmt{Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 42}}},
	}}

	p := compiler.NewPipeline(in, compiler.Options{Mode: compiler.ModeInterpret})
	result, err := p.Run(context.Background(), program)
	require.NoError(t, err)
	assert.Equal(t, interp.IntValue(42), result.InterpretValue)
}

// A program carrying its own policy block passes its security checks in
// interpret mode with no caller-supplied registry: the pipeline builds one
// from the program's declarations.
func TestPipelineInterpretBuildsPoliciesFromProgram(t *testing.T) {
	in := intern.New()
	userType := in.Intern("User")
	role := in.Intern("role")
	adminPred := in.Intern("admin")

	program := &ast.Program{Stmts: []ast.Stmt{
		ast.PolicyDefStmt{
			SubjectType: userType,
			Rules: []ast.PolicyRule{
				{Name: adminPred, Condition: ast.PolicyFieldEquals{Field: role, Value: "admin", IsStringLiteral: true}},
			},
		},
		ast.LetStmt{Var: in.Intern("u"), Value: ast.RecordExpr{
			TypeName: userType,
			Fields:   []ast.FieldInit{{Name: role, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "admin"}}}},
		}},
		ast.SecurityCheckStmt{Subject: ast.IdentExpr{Name: in.Intern("u")}, Predicate: adminPred},
	}}

	p := compiler.NewPipeline(in, compiler.Options{Mode: compiler.ModeInterpret})
	_, err := p.Run(context.Background(), program)
	require.NoError(t, err)
}

// A caller-supplied registry takes precedence over (and substitutes for)
// anything declared in the program.
func TestPipelineInterpretUsesInjectedPolicies(t *testing.T) {
	in := intern.New()
	userType := in.Intern("User")
	role := in.Intern("role")
	adminPred := in.Intern("admin")

	registry := interp.NewPolicyRegistry()
	registry.AddPredicate(userType, interp.PredicateDef{
		Name:      adminPred,
		Condition: interp.FieldEquals{Field: role, Value: "admin", IsStringLiteral: true},
	})

	program := &ast.Program{Stmts: []ast.Stmt{
		ast.LetStmt{Var: in.Intern("u"), Value: ast.RecordExpr{
			TypeName: userType,
			Fields:   []ast.FieldInit{{Name: role, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "admin"}}}},
		}},
		ast.SecurityCheckStmt{Subject: ast.IdentExpr{Name: in.Intern("u")}, Predicate: adminPred},
	}}

	p := compiler.NewPipeline(in, compiler.Options{Mode: compiler.ModeInterpret, Policies: registry})
	_, err := p.Run(context.Background(), program)
	require.NoError(t, err)
}

// A default-Options interpret run mounts through the in-memory store the
// driver supplies, rather than erroring on a nil persistence backend.
func TestPipelineInterpretDefaultsToMemoryStore(t *testing.T) {
	in := intern.New()
	program := &ast.Program{Stmts: []ast.Stmt{
		ast.MountStmt{Name: in.Intern("state"), Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
	}}

	p := compiler.NewPipeline(in, compiler.Options{Mode: compiler.ModeInterpret})
	_, err := p.Run(context.Background(), program)
	require.NoError(t, err)
}

// An exported record emits a full accessor family plus package-wide
// runtime support, and a union export is routed to EmitUnion rather than
// erroring as an unknown record.
func TestPipelineEmitsCABIForRecordsAndUnions(t *testing.T) {
	in := intern.New()
	person := in.Intern("Person")
	name := in.Intern("name")
	age := in.Intern("age")
	shape := in.Intern("Shape")
	circle := in.Intern("Circle")
	radius := in.Intern("radius")

	program := &ast.Program{Stmts: []ast.Stmt{
		ast.StructDefStmt{Name: person, Fields: []ast.FieldDecl{
			{Name: name, Type: ast.PrimitiveType{Name: in.Intern("Text")}},
			{Name: age, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
		}},
		ast.StructDefStmt{Name: shape, Variants: []ast.VariantDecl{
			{Name: circle, Fields: []ast.FieldDecl{{Name: radius, Type: ast.PrimitiveType{Name: in.Intern("Float")}}}},
		}},
	}}

	p := compiler.NewPipeline(in, compiler.Options{
		Mode:               compiler.ModeCodegen,
		ExportedFunctions:  []string{"Person", "Shape"},
		EmitPythonBindings: true,
		EmitTSBindings:     true,
	})
	result, err := p.Run(context.Background(), program)
	require.NoError(t, err)

	assert.Contains(t, result.CABI["Person"], "func logos_Person_get_age")
	assert.Contains(t, result.CABI["Shape"], "func logos_Shape_Circle_create")
	assert.Contains(t, result.CABIRuntime, "func logos_version")
	assert.Contains(t, result.PythonBindings["Person"], "class Person:")
	assert.Contains(t, result.TSBindings["Person"], "export class Person")
	assert.NotContains(t, result.PythonBindings, "Shape", "bindings sidecars are only wired for record exports in this pass")

	assert.Contains(t, result.CHeader, "typedef void* logos_handle;")
	assert.Contains(t, result.CHeader, "int32_t logos_Person_create(")
	assert.Contains(t, result.CHeader, "int32_t logos_Shape_Circle_create(")
	assert.Contains(t, result.PythonModule, "class LogosError(Exception):")
	assert.Contains(t, result.TSModule, `import koffi from "koffi";`)
	assert.Contains(t, result.TSDeclarations, "export declare class Person {")
}
