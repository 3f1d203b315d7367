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

func TestBuildPoliciesEmptyForProgramWithoutPolicyBlocks(t *testing.T) {
	in := intern.New()
	stmts := []ast.Stmt{
		ast.LetStmt{Var: in.Intern("x"), Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
	}
	assert.True(t, interp.BuildPolicies(stmts).Empty())
}

func TestBuildPoliciesCollectsNestedDeclarations(t *testing.T) {
	in := intern.New()
	userType := in.Intern("User")
	stmts := []ast.Stmt{
		ast.ZoneStmt{Body: []ast.Stmt{
			ast.PolicyDefStmt{
				SubjectType: userType,
				Rules: []ast.PolicyRule{
					{Name: in.Intern("admin"), Condition: ast.PolicyFieldEquals{Field: in.Intern("role"), Value: "admin", IsStringLiteral: true}},
				},
			},
		}},
	}
	assert.False(t, interp.BuildPolicies(stmts).Empty())
}

// A program carrying its own policy block runs its security checks against
// a registry built from that block, with no hand-assembled registry.
func TestBuiltRegistryDrivesSecurityChecks(t *testing.T) {
	in := intern.New()
	userType := in.Intern("User")
	role := in.Intern("role")
	active := in.Intern("active")
	adminPred := in.Intern("admin")
	editCap := in.Intern("edit")
	id := in.Intern("id")
	owner := in.Intern("owner")

	program := []ast.Stmt{
		ast.PolicyDefStmt{
			SubjectType: userType,
			Rules: []ast.PolicyRule{
				{
					Name: adminPred,
					Condition: ast.PolicyCondAnd{
						Left:  ast.PolicyFieldEquals{Field: role, Value: "admin", IsStringLiteral: true},
						Right: ast.PolicyFieldBool{Field: active, Value: true},
					},
				},
				{
					Name:       editCap,
					Capability: true,
					Condition: ast.PolicyCondOr{
						Left:  ast.PolicyPredicateRef{Name: adminPred},
						Right: ast.PolicyObjectFieldEquals{SubjectField: id, ObjectField: owner},
					},
				},
			},
		},
		ast.LetStmt{Var: in.Intern("u"), Value: ast.RecordExpr{
			TypeName: userType,
			Fields: []ast.FieldInit{
				{Name: role, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "editor"}}},
				{Name: active, Value: ast.LiteralExpr{Value: ast.BoolLiteral{Value: true}}},
				{Name: id, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 7}}},
			},
		}},
		ast.LetStmt{Var: in.Intern("doc"), Value: ast.RecordExpr{
			TypeName: in.Intern("Document"),
			Fields: []ast.FieldInit{
				{Name: owner, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 7}}},
			},
		}},
		ast.SecurityCheckStmt{
			Subject:   ast.IdentExpr{Name: in.Intern("u")},
			Predicate: editCap,
			Object:    ast.IdentExpr{Name: in.Intern("doc")},
		},
	}

	it := interp.New(in, nil).WithPolicies(interp.BuildPolicies(program))
	_, err := it.ExecTopLevel(context.Background(), program)
	require.NoError(t, err, "a non-admin owner must still pass the edit capability through the object-field branch")

	denied := append(program[:len(program)-1:len(program)-1], ast.SecurityCheckStmt{
		Subject:   ast.IdentExpr{Name: in.Intern("u")},
		Predicate: adminPred,
	})
	it = interp.New(in, nil).WithPolicies(interp.BuildPolicies(denied))
	_, err = it.ExecTopLevel(context.Background(), denied)
	assert.ErrorContains(t, err, "security check failed", "an editor role must fail the admin predicate")
}
