package cabi_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/cabi"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func TestEmitRecordProducesFullFunctionFamily(t *testing.T) {
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
	em := cabi.NewEmitter(in, reg)

	out, err := em.EmitRecord(point)
	require.NoError(t, err)
	assert.Contains(t, out, "func logos_Point_create(")
	assert.Contains(t, out, "func logos_Point_get_x(handle Handle)")
	assert.Contains(t, out, "func logos_Point_set_y(handle Handle, value int64)")
	assert.Contains(t, out, "func logos_Point_free(handle Handle)")
	assert.Contains(t, out, "func logos_Point_to_json(handle Handle)")
	assert.Contains(t, out, "func logos_Point_from_json(data []byte)")

	assert.Contains(t, out, "WithPanicBoundary(tid, func() Status {", "create must run inside a panic boundary")
	assert.Contains(t, out, "handle == 0", "every handle-taking accessor/mutator must reject a null handle")
	assert.Contains(t, out, "StatusNullPointer")
	assert.Contains(t, out, "bytes.IndexByte(enc, 0) >= 0", "to_json must reject a serialized payload with an embedded null byte")
	assert.Contains(t, out, "StatusContainsNullByte")
	assert.Contains(t, out, "ValidateJSONAgainstSchema([]byte(", "from_json must validate the incoming payload against the type's JSON Schema before unmarshaling")
}

func TestEmitRecordWrapsEveryFunctionInPanicBoundary(t *testing.T) {
	in := intern.New()
	point := in.Intern("Point")
	x := in.Intern("x")
	stmts := []ast.Stmt{
		ast.StructDefStmt{
			Name:   point,
			Fields: []ast.FieldDecl{{Name: x, Type: ast.PrimitiveType{Name: in.Intern("Int")}}},
		},
	}
	reg := typeregistry.Build(in, stmts)
	em := cabi.NewEmitter(in, reg)

	out, err := em.EmitRecord(point)
	require.NoError(t, err)
	assert.Equal(t, 6, strings.Count(out, "WithPanicBoundary("), "create/get/set/free/to_json/from_json must each run inside a panic boundary")
}

func TestEmitRecordRejectsEmbeddedNullByteInTextField(t *testing.T) {
	in := intern.New()
	person := in.Intern("Person")
	name := in.Intern("name")
	stmts := []ast.Stmt{
		ast.StructDefStmt{
			Name:   person,
			Fields: []ast.FieldDecl{{Name: name, Type: ast.PrimitiveType{Name: in.Intern("Text")}}},
		},
	}
	reg := typeregistry.Build(in, stmts)
	em := cabi.NewEmitter(in, reg)

	out, err := em.EmitRecord(person)
	require.NoError(t, err)
	assert.Contains(t, out, "strings.IndexByte(name, 0) >= 0", "create must reject a Text field containing an embedded null byte")
	assert.Contains(t, out, "strings.IndexByte(value, 0) >= 0", "set_name must reject an embedded null byte in the new value")
}

// A Circle/Rectangle union where a wrong-variant accessor must return a
// typed default and record a last-error describing the mismatch.
func TestEmitUnionWrongVariantAccessorDescribesMismatch(t *testing.T) {
	in := intern.New()
	shape := in.Intern("Shape")
	circle := in.Intern("Circle")
	rectangle := in.Intern("Rectangle")
	radius := in.Intern("radius")
	width := in.Intern("width")
	height := in.Intern("height")
	stmts := []ast.Stmt{
		ast.StructDefStmt{
			Name: shape,
			Variants: []ast.VariantDecl{
				{Name: circle, Fields: []ast.FieldDecl{{Name: radius, Type: ast.PrimitiveType{Name: in.Intern("Float")}}}},
				{Name: rectangle, Fields: []ast.FieldDecl{
					{Name: width, Type: ast.PrimitiveType{Name: in.Intern("Float")}},
					{Name: height, Type: ast.PrimitiveType{Name: in.Intern("Float")}},
				}},
			},
		},
	}
	reg := typeregistry.Build(in, stmts)
	em := cabi.NewEmitter(in, reg)

	out, err := em.EmitUnion(shape)
	require.NoError(t, err)
	assert.Contains(t, out, "func logos_Shape_Circle_create(")
	assert.Contains(t, out, "func logos_Shape_Rectangle_get_width(handle Handle) (float64, Status)")
	assert.Contains(t, out, "rec, ok := v.(ShapeRectangle)")
	assert.Contains(t, out, "return StatusError", "a wrong-variant accessor must report StatusError, not panic")
	assert.Contains(t, out, "return zero, status", "a wrong-variant accessor must return the field's zero value alongside the failing status")
	assert.Contains(t, out, "func logos_Shape_variant(handle Handle)")
}

func TestEmitUnionUnknownNameErrors(t *testing.T) {
	in := intern.New()
	reg := typeregistry.New(in)
	em := cabi.NewEmitter(in, reg)
	_, err := em.EmitUnion(in.Intern("Ghost"))
	assert.Error(t, err)
}

func TestEmitRecordUnknownNameErrors(t *testing.T) {
	in := intern.New()
	reg := typeregistry.New(in)
	em := cabi.NewEmitter(in, reg)
	_, err := em.EmitRecord(in.Intern("Ghost"))
	assert.Error(t, err)
}

func TestPythonBindingsWrapsHandleLifecycle(t *testing.T) {
	in := intern.New()
	point := in.Intern("Point")
	x := in.Intern("x")
	out := cabi.PythonBindings(in, point, []intern.Symbol{x})
	assert.Contains(t, out, "class Point:")
	assert.Contains(t, out, "def __del__(self):\n        _lib.logos_Point_free(self._handle)")
}

func TestTypeScriptBindingsWrapsHandleLifecycle(t *testing.T) {
	in := intern.New()
	point := in.Intern("Point")
	x := in.Intern("x")
	out := cabi.TypeScriptBindings(in, point, []intern.Symbol{x})
	assert.Contains(t, out, "export class Point")
	assert.Contains(t, out, "free() { lib.logos_Point_free(this.handle); }")
}
