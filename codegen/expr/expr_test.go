package expr_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/expr"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func newCtx(in *intern.Interner) *codegen.Context {
	return codegen.NewContext(in, typeregistry.New(in))
}

func xsCtx(in *intern.Interner) *codegen.Context {
	ctx := newCtx(in)
	ctx.DeclareVar(in.Intern("xs"), "[]int64", false)
	return ctx
}

func TestLowerIndexLiteralOne(t *testing.T) {
	in := intern.New()
	coll := ast.IdentExpr{Name: in.Intern("xs")}
	ix := ast.IndexExpr{Collection: coll, Index: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}}
	assert.Equal(t, "xs[0]", expr.Lower(xsCtx(in), ix))
}

func TestLowerIndexLiteralN(t *testing.T) {
	in := intern.New()
	coll := ast.IdentExpr{Name: in.Intern("xs")}
	ix := ast.IndexExpr{Collection: coll, Index: ast.LiteralExpr{Value: ast.IntLiteral{Value: 5}}}
	assert.Equal(t, "xs[4]", expr.Lower(xsCtx(in), ix))
}

func TestLowerIndexCancelsPlusOne(t *testing.T) {
	in := intern.New()
	coll := ast.IdentExpr{Name: in.Intern("xs")}
	e := ast.IdentExpr{Name: in.Intern("i")}
	ix := ast.IndexExpr{
		Collection: coll,
		Index: ast.BinaryExpr{
			Op:    ast.Add,
			Left:  e,
			Right: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}},
		},
	}
	assert.Equal(t, "xs[i]", expr.Lower(xsCtx(in), ix))
}

func TestLowerIndexZeroBasedCounterEmitsAsIs(t *testing.T) {
	in := intern.New()
	ctx := xsCtx(in)
	counter := in.Intern("i")
	ctx.DeclareVar(counter, "__zero_based_i64", true)
	coll := ast.IdentExpr{Name: in.Intern("xs")}
	ix := ast.IndexExpr{Collection: coll, Index: ast.IdentExpr{Name: counter}}
	assert.Equal(t, "xs[i]", expr.Lower(ctx, ix))
}

// A container whose type the registry can't pin down routes through the
// same LogosIndex dispatch helper as a known-string index, rather than
// emitting a direct Go subscript that would panic outright on a non-slice
// runtime value.
func TestLowerIndexFallsBackToPolymorphicDispatchForUnknownContainer(t *testing.T) {
	in := intern.New()
	coll := ast.IdentExpr{Name: in.Intern("thing")}
	ix := ast.IndexExpr{Collection: coll, Index: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}}
	assert.Equal(t, "LogosIndex(thing, 0)", expr.Lower(newCtx(in), ix))
}

// TestLowerIndexOfKnownStringUsesDispatchHelper checks the UTF-8-safety
// side of the same fallback: a statically-known Text variable must not be
// indexed with a raw byte subscript outside the comparison fast path.
func TestLowerIndexOfKnownStringUsesDispatchHelper(t *testing.T) {
	in := intern.New()
	ctx := newCtx(in)
	s := in.Intern("s")
	ctx.MarkString(s)
	ix := ast.IndexExpr{Collection: ast.IdentExpr{Name: s}, Index: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}}
	assert.Equal(t, "LogosIndex(s, 0)", expr.Lower(ctx, ix))
}

// TestIndexLoweringLaws: for any integer expression e, collection[e+1]
// lowers to a subscript at e itself (the +1 cancels the 1-based shift).
func TestIndexLoweringLaws(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("collection[e+1] == subscript at e", prop.ForAll(
		func(n int64) bool {
			in := intern.New()
			ctx := newCtx(in)
			coll := ast.IdentExpr{Name: in.Intern("xs")}
			e := ast.LiteralExpr{Value: ast.IntLiteral{Value: n}}
			plusOne := ast.IndexExpr{
				Collection: coll,
				Index:      ast.BinaryExpr{Op: ast.Add, Left: e, Right: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
			}
			direct := ast.IndexExpr{Collection: coll, Index: e}
			_ = direct
			return expr.Lower(ctx, plusOne) == fmtIndex(ctx, coll, e)
		},
		gen.Int64Range(-1000, 1000),
	))

	properties.TestingRun(t)
}

func fmtIndex(ctx *codegen.Context, coll ast.Expr, e ast.Expr) string {
	return "LogosIndex(" + expr.Lower(ctx, coll) + ", " + expr.Lower(ctx, e) + ")"
}

func TestStringEqualityFastPath(t *testing.T) {
	in := intern.New()
	ctx := newCtx(in)
	a := in.Intern("a")
	b := in.Intern("b")
	ctx.MarkString(a)
	ctx.MarkString(b)
	cmp := ast.BinaryExpr{
		Op:   ast.Eq,
		Left: ast.IndexExpr{Collection: ast.IdentExpr{Name: a}, Index: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
		Right: ast.IndexExpr{
			Collection: ast.IdentExpr{Name: b},
			Index:      ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}},
		},
	}
	out := expr.Lower(ctx, cmp)
	assert.Equal(t, "(a[0] == b[0])", out, "comparing two known-string indexes must use direct byte indexing, not a polymorphic helper")
}

func TestStringConcatFlattensChain(t *testing.T) {
	in := intern.New()
	ctx := newCtx(in)
	x := ast.IdentExpr{Name: in.Intern("x")}
	ctx.MarkString(x.Name)
	chain := ast.BinaryExpr{
		Op:   ast.Concat,
		Left: ast.BinaryExpr{Op: ast.Concat, Left: x, Right: ast.LiteralExpr{Value: ast.TextLiteral{Value: "-"}}},
		Right: x,
	}
	out := expr.Lower(ctx, chain)
	assert.Equal(t, `LogosConcat(x, "-", x)`, out)
}

func TestNumericCoercionCastsIntOperandToFloat(t *testing.T) {
	in := intern.New()
	ctx := newCtx(in)
	n := in.Intern("n")
	ctx.DeclareVar(n, "Float", false)
	cmp := ast.BinaryExpr{
		Op:    ast.Add,
		Left:  ast.LiteralExpr{Value: ast.IntLiteral{Value: 2}},
		Right: ast.IdentExpr{Name: n},
	}
	assert.Equal(t, "(float64(2) + n)", expr.Lower(ctx, cmp))
}

func TestMapEqualityFastPathUsesDirectSubscript(t *testing.T) {
	in := intern.New()
	ctx := newCtx(in)
	m := in.Intern("counts")
	ctx.DeclareVar(m, "Map of Text, Int", false)
	cmp := ast.BinaryExpr{
		Op:   ast.Eq,
		Left: ast.IndexExpr{Collection: ast.IdentExpr{Name: m}, Index: ast.LiteralExpr{Value: ast.TextLiteral{Value: "k"}}},
		Right: ast.LiteralExpr{Value: ast.IntLiteral{Value: 3}},
	}
	assert.Equal(t, `(counts["k"] == 3)`, expr.Lower(ctx, cmp))
}

func TestStringCharEqualityFastPathComparesAgainstLiteral(t *testing.T) {
	in := intern.New()
	ctx := newCtx(in)
	s := in.Intern("s")
	ctx.MarkString(s)
	cmp := ast.BinaryExpr{
		Op:    ast.Eq,
		Left:  ast.IndexExpr{Collection: ast.IdentExpr{Name: s}, Index: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
		Right: ast.LiteralExpr{Value: ast.CharLiteral{Value: 'a'}},
	}
	assert.Equal(t, "(s[0] == 'a')", expr.Lower(ctx, cmp))
}

func TestRecordConstructionFillsUnstatedFieldsFromDefaultAndAttachesTypeArgs(t *testing.T) {
	in := intern.New()
	box := in.Intern("Box")
	item := in.Intern("T")
	value := in.Intern("value")
	count := in.Intern("count")
	stmts := []ast.Stmt{
		ast.StructDefStmt{
			Name:     box,
			TypeArgs: []intern.Symbol{item},
			Fields: []ast.FieldDecl{
				{Name: value, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
				{Name: count, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
			},
		},
	}
	reg := typeregistry.Build(in, stmts)
	ctx := codegen.NewContext(in, reg)

	r := ast.RecordExpr{
		TypeName: box,
		TypeArgs: []ast.TypeExpr{ast.PrimitiveType{Name: in.Intern("Text")}},
		Fields: []ast.FieldInit{
			{Name: value, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
		},
	}
	out := expr.Lower(ctx, r)
	assert.Contains(t, out, "Box[Text]{", "a generic record's TypeArgs must reach the constructed type name")
	assert.Contains(t, out, `count: LogosDefault("Int")`, "an unstated field must be filled from its type's default")
}

func TestVariantFieldRepeatedAcrossFieldsIsClonedExceptLastOccurrence(t *testing.T) {
	in := intern.New()
	pair := in.Intern("Pair")
	both := in.Intern("Both")
	left := in.Intern("left")
	right := in.Intern("right")
	stmts := []ast.Stmt{
		ast.StructDefStmt{
			Name: pair,
			Variants: []ast.VariantDecl{
				{Name: both, Fields: []ast.FieldDecl{
					{Name: left, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
					{Name: right, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
				}},
			},
		},
	}
	reg := typeregistry.Build(in, stmts)
	ctx := codegen.NewContext(in, reg)

	shared := in.Intern("shared")
	v := ast.VariantExpr{
		TypeName:    pair,
		VariantName: both,
		Fields: []ast.FieldInit{
			{Name: left, Value: ast.IdentExpr{Name: shared}},
			{Name: right, Value: ast.IdentExpr{Name: shared}},
		},
	}
	out := expr.Lower(ctx, v)
	assert.Contains(t, out, "left: LogosClone(shared)", "every occurrence but the last must be cloned")
	assert.Contains(t, out, "right: shared", "the last occurrence passes through unchanged")
}

func TestVariantFieldReachingOwnEnumIsBoxed(t *testing.T) {
	in := intern.New()
	list := in.Intern("List")
	cons := in.Intern("Cons")
	head := in.Intern("head")
	tail := in.Intern("tail")
	stmts := []ast.Stmt{
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
	reg := typeregistry.Build(in, stmts)
	ctx := codegen.NewContext(in, reg)

	v := ast.VariantExpr{
		TypeName:    list,
		VariantName: cons,
		Fields: []ast.FieldInit{
			{Name: head, Value: ast.LiteralExpr{Value: ast.IntLiteral{Value: 1}}},
			{Name: tail, Value: ast.IdentExpr{Name: in.Intern("rest")}},
		},
	}
	out := expr.Lower(ctx, v)
	assert.Contains(t, out, "tail: &rest", "a field recursing into its own union must be boxed")
}
