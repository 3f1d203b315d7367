package typeregistry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func TestBuildCollectsRecordsAndUnions(t *testing.T) {
	in := intern.New()
	point := in.Intern("Point")
	x := in.Intern("x")
	y := in.Intern("y")
	shape := in.Intern("Shape")
	circle := in.Intern("Circle")
	radius := in.Intern("radius")

	stmts := []ast.Stmt{
		ast.StructDefStmt{
			Name: point,
			Fields: []ast.FieldDecl{
				{Name: x, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
				{Name: y, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
			},
		},
		ast.StructDefStmt{
			Name: shape,
			Variants: []ast.VariantDecl{
				{Name: circle, Fields: []ast.FieldDecl{
					{Name: radius, Type: ast.PrimitiveType{Name: in.Intern("Float")}},
				}},
			},
		},
	}

	reg := typeregistry.Build(in, stmts)

	rec, ok := reg.Record(point)
	require.True(t, ok)
	assert.Len(t, rec.Fields, 2)

	u, ok := reg.Union(shape)
	require.True(t, ok)
	assert.Len(t, u.Variants, 1)
}

func TestBoxedFieldsDetectsSelfReference(t *testing.T) {
	in := intern.New()
	list := in.Intern("List")
	cons := in.Intern("Cons")
	nilv := in.Intern("Nil")
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
				{Name: nilv},
			},
		},
	}

	reg := typeregistry.Build(in, stmts)

	assert.True(t, reg.IsBoxed(typeregistry.FieldKey{Enum: list, Variant: cons, Field: tail}),
		"tail recurses into List and must be boxed to keep the variant's size finite")
	assert.False(t, reg.IsBoxed(typeregistry.FieldKey{Enum: list, Variant: cons, Field: head}))
}

func TestJSONSchemaValidatesRecordPayload(t *testing.T) {
	in := intern.New()
	point := in.Intern("Point")
	x := in.Intern("x")
	y := in.Intern("y")

	stmts := []ast.Stmt{
		ast.StructDefStmt{
			Name: point,
			Fields: []ast.FieldDecl{
				{Name: x, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
				{Name: y, Type: ast.PrimitiveType{Name: in.Intern("Int")}},
			},
		},
	}
	reg := typeregistry.Build(in, stmts)

	assert.NoError(t, reg.ValidateJSON(point, []byte(`{"x":1,"y":2}`)))
	assert.Error(t, reg.ValidateJSON(point, []byte(`{"x":1}`)), "missing required field y")
	assert.Error(t, reg.ValidateJSON(point, []byte(`{"x":"1","y":2}`)), "x must be an integer")
}

func TestJSONSchemaValidatesUnionPayload(t *testing.T) {
	in := intern.New()
	shape := in.Intern("Shape")
	circle := in.Intern("Circle")
	square := in.Intern("Square")
	radius := in.Intern("radius")
	side := in.Intern("side")

	stmts := []ast.Stmt{
		ast.StructDefStmt{
			Name: shape,
			Variants: []ast.VariantDecl{
				{Name: circle, Fields: []ast.FieldDecl{
					{Name: radius, Type: ast.PrimitiveType{Name: in.Intern("Float")}},
				}},
				{Name: square, Fields: []ast.FieldDecl{
					{Name: side, Type: ast.PrimitiveType{Name: in.Intern("Float")}},
				}},
			},
		},
	}
	reg := typeregistry.Build(in, stmts)

	assert.NoError(t, reg.ValidateJSON(shape, []byte(`{"variant":"Circle","radius":2.5}`)))
	assert.NoError(t, reg.ValidateJSON(shape, []byte(`{"variant":"Square","side":1.0}`)))
	assert.Error(t, reg.ValidateJSON(shape, []byte(`{"variant":"Circle","side":1.0}`)),
		"Circle payload must carry radius, not side")
}

func TestTypeNameRendersGenericAndRefinement(t *testing.T) {
	in := intern.New()
	reg := typeregistry.New(in)

	seqOfInt := ast.GenericType{
		Base:   in.Intern("Seq"),
		Params: []ast.TypeExpr{ast.PrimitiveType{Name: in.Intern("Int")}},
	}
	assert.Equal(t, "Seq of Int", reg.TypeName(seqOfInt))

	refined := ast.RefinementType{Base: ast.PrimitiveType{Name: in.Intern("Nat")}}
	assert.Equal(t, "Nat (refined)", reg.TypeName(refined))
}
