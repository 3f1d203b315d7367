package ownership_test

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/ownership"
)

// TestMergeCompletenessProperty checks the branch-merge rule exhaustively:
// for an If where exactly one branch moves x, a subsequent use is rejected
// as use-after-maybe-move; when both branches move it, as use-after-move.
func TestMergeCompletenessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("moving x in exactly one branch yields use-after-maybe-move", prop.ForAll(
		func(moveInThen bool) bool {
			in := intern.New()
			x := in.Intern("x")
			var thenBody, elseBody []ast.Stmt
			give := ast.GiveStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern("sink")}
			if moveInThen {
				thenBody = []ast.Stmt{give}
			} else {
				elseBody = []ast.Stmt{give}
			}
			prog := []ast.Stmt{
				ast.LetStmt{Var: x, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "hi"}}},
				ast.IfStmt{Cond: ast.IdentExpr{Name: in.Intern("cond")}, Then: thenBody, Else: elseBody},
				ast.ShowStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern("show")},
			}
			err := ownership.Check(in, prog)
			var oerr *ownership.Error
			return errors.As(err, &oerr) && oerr.Kind == ownership.UseAfterMaybeMove
		},
		gen.Bool(),
	))

	properties.Property("moving x in both branches yields use-after-move", prop.ForAll(
		func(_ bool) bool {
			in := intern.New()
			x := in.Intern("x")
			give := func(to string) ast.Stmt {
				return ast.GiveStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern(to)}
			}
			prog := []ast.Stmt{
				ast.LetStmt{Var: x, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "hi"}}},
				ast.IfStmt{
					Cond: ast.IdentExpr{Name: in.Intern("cond")},
					Then: []ast.Stmt{give("a")},
					Else: []ast.Stmt{give("b")},
				},
				ast.ShowStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern("show")},
			}
			err := ownership.Check(in, prog)
			var oerr *ownership.Error
			return errors.As(err, &oerr) && oerr.Kind == ownership.UseAfterMove
		},
		gen.Bool(),
	))

	properties.Property("not moving x in either branch leaves it usable", prop.ForAll(
		func(_ bool) bool {
			in := intern.New()
			x := in.Intern("x")
			prog := []ast.Stmt{
				ast.LetStmt{Var: x, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "hi"}}},
				ast.IfStmt{
					Cond: ast.IdentExpr{Name: in.Intern("cond")},
					Then: []ast.Stmt{},
					Else: []ast.Stmt{},
				},
				ast.ShowStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern("show")},
			}
			return ownership.Check(in, prog) == nil
		},
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestOwnershipSoundnessProperty verifies the "For every program with an
// identifier used in value position after an unconditional Give on it, the
// analyzer rejects" half of the Ownership soundness invariant, across a
// generated spread of non-Copy variable names.
func TestOwnershipSoundnessProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("unconditional give followed by use is always rejected", prop.ForAll(
		func(varName, sinkName string) bool {
			if varName == "" || sinkName == "" || varName == sinkName {
				return true // degenerate names skipped, not a counterexample
			}
			in := intern.New()
			x := in.Intern(varName)
			prog := []ast.Stmt{
				ast.LetStmt{Var: x, Value: ast.LiteralExpr{Value: ast.TextLiteral{Value: "v"}}},
				ast.GiveStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern(sinkName)},
				ast.ShowStmt{Object: ast.IdentExpr{Name: x}, To: in.Intern("show")},
			}
			var oerr *ownership.Error
			return errors.As(ownership.Check(in, prog), &oerr) && oerr.Kind == ownership.UseAfterMove
		},
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
		gen.AlphaString().SuchThat(func(s string) bool { return len(s) > 0 }),
	))

	properties.TestingRun(t)
}
