package interp_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

func newUserSubject(in *intern.Interner, userType intern.Symbol, roleField intern.Symbol, role string) ast.Stmt {
	return ast.LetStmt{
		Var: in.Intern("u"),
		Value: ast.RecordExpr{
			TypeName: userType,
			Fields: []ast.FieldInit{
				{Name: roleField, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: role}}},
			},
		},
	}
}

func TestSecurityCheckFailsWithoutPolicyRegistry(t *testing.T) {
	in := intern.New()
	it := interp.New(in, nil)
	userType := in.Intern("User")
	role := in.Intern("role")

	stmts := []ast.Stmt{
		newUserSubject(in, userType, role, "admin"),
		ast.SecurityCheckStmt{Subject: ast.IdentExpr{Name: in.Intern("u")}, Predicate: in.Intern("admin")},
	}
	_, err := it.ExecTopLevel(context.Background(), stmts)
	assert.ErrorContains(t, err, "requires policies")
}

func TestSecurityCheckPredicatePassesWhenConditionHolds(t *testing.T) {
	in := intern.New()
	userType := in.Intern("User")
	role := in.Intern("role")
	adminPred := in.Intern("admin")

	registry := interp.NewPolicyRegistry()
	registry.AddPredicate(userType, interp.PredicateDef{
		Name:      adminPred,
		Condition: interp.FieldEquals{Field: role, Value: "admin", IsStringLiteral: true},
	})

	it := interp.New(in, nil).WithPolicies(registry)
	stmts := []ast.Stmt{
		newUserSubject(in, userType, role, "admin"),
		ast.SecurityCheckStmt{Subject: ast.IdentExpr{Name: in.Intern("u")}, Predicate: adminPred},
	}
	_, err := it.ExecTopLevel(context.Background(), stmts)
	assert.NoError(t, err)
}

func TestSecurityCheckPredicateFailsWhenConditionDoesNotHold(t *testing.T) {
	in := intern.New()
	userType := in.Intern("User")
	role := in.Intern("role")
	adminPred := in.Intern("admin")

	registry := interp.NewPolicyRegistry()
	registry.AddPredicate(userType, interp.PredicateDef{
		Name:      adminPred,
		Condition: interp.FieldEquals{Field: role, Value: "admin", IsStringLiteral: true},
	})

	it := interp.New(in, nil).WithPolicies(registry)
	stmts := []ast.Stmt{
		newUserSubject(in, userType, role, "guest"),
		ast.SecurityCheckStmt{Subject: ast.IdentExpr{Name: in.Intern("u")}, Predicate: adminPred},
	}
	_, err := it.ExecTopLevel(context.Background(), stmts)
	assert.ErrorContains(t, err, "security check failed")
}

func TestSecurityCheckCapabilityChecksObjectFieldEquality(t *testing.T) {
	in := intern.New()
	userType := in.Intern("User")
	docType := in.Intern("Document")
	owner := in.Intern("owner")
	id := in.Intern("id")
	publish := in.Intern("publish")

	registry := interp.NewPolicyRegistry()
	registry.AddCapability(userType, interp.Capability{
		Action:    publish,
		Condition: interp.ObjectFieldEquals{SubjectField: id, ObjectField: owner},
	})

	it := interp.New(in, nil).WithPolicies(registry)
	stmts := []ast.Stmt{
		ast.LetStmt{Var: in.Intern("u"), Value: ast.RecordExpr{TypeName: userType, Fields: []ast.FieldInit{
			{Name: id, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "alice"}}},
		}}},
		ast.LetStmt{Var: in.Intern("d"), Value: ast.RecordExpr{TypeName: docType, Fields: []ast.FieldInit{
			{Name: owner, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "alice"}}},
		}}},
		ast.SecurityCheckStmt{
			Subject:   ast.IdentExpr{Name: in.Intern("u")},
			Predicate: publish,
			Object:    ast.IdentExpr{Name: in.Intern("d")},
		},
	}
	_, err := it.ExecTopLevel(context.Background(), stmts)
	assert.NoError(t, err)
}
