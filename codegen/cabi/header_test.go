package cabi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/cabi"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func personShapeRegistry(in *intern.Interner) *typeregistry.Registry {
	stmts := []ast.Stmt{
		ast.StructDefStmt{Name: in.Intern("Person"), Fields: []ast.FieldDecl{
			{Name: in.Intern("name"), Type: ast.PrimitiveType{Name: in.Intern("Text")}},
			{Name: in.Intern("age"), Type: ast.PrimitiveType{Name: in.Intern("Int")}},
		}},
		ast.StructDefStmt{Name: in.Intern("Shape"), Variants: []ast.VariantDecl{
			{Name: in.Intern("Circle"), Fields: []ast.FieldDecl{
				{Name: in.Intern("radius"), Type: ast.PrimitiveType{Name: in.Intern("Float")}},
			}},
			{Name: in.Intern("Rectangle"), Fields: []ast.FieldDecl{
				{Name: in.Intern("width"), Type: ast.PrimitiveType{Name: in.Intern("Float")}},
				{Name: in.Intern("height"), Type: ast.PrimitiveType{Name: in.Intern("Float")}},
			}},
		}},
	}
	return typeregistry.Build(in, stmts)
}

func TestEmitHeaderDeclaresStatusConstantsAndRuntime(t *testing.T) {
	in := intern.New()
	em := cabi.NewEmitter(in, personShapeRegistry(in))
	out := em.EmitHeader([]intern.Symbol{in.Intern("Person")})

	assert.Contains(t, out, "typedef void* logos_handle;")
	assert.Contains(t, out, "#define LOGOS_STATUS_OK 0")
	assert.Contains(t, out, "#define LOGOS_STATUS_INVALID_HANDLE 6")
	assert.Contains(t, out, "#define LOGOS_STATUS_CONTAINS_NULL_BYTE 7")
	assert.Contains(t, out, "const char* logos_version(void);")
	assert.Contains(t, out, "const char* logos_last_error(void);")
	assert.Contains(t, out, "void logos_free_string(char* s);")
}

func TestEmitHeaderDeclaresRecordPrototypes(t *testing.T) {
	in := intern.New()
	em := cabi.NewEmitter(in, personShapeRegistry(in))
	out := em.EmitHeader([]intern.Symbol{in.Intern("Person")})

	assert.Contains(t, out, "int32_t logos_Person_create(const char* name, int64_t age, logos_handle* out);")
	assert.Contains(t, out, "int32_t logos_Person_get_name(logos_handle handle, char** out);")
	assert.Contains(t, out, "int32_t logos_Person_get_age(logos_handle handle, int64_t* out);")
	assert.Contains(t, out, "int32_t logos_Person_free(logos_handle handle);")
}

func TestEmitHeaderDeclaresUnionPrototypes(t *testing.T) {
	in := intern.New()
	em := cabi.NewEmitter(in, personShapeRegistry(in))
	out := em.EmitHeader([]intern.Symbol{in.Intern("Shape")})

	assert.Contains(t, out, "int32_t logos_Shape_Circle_create(double radius, logos_handle* out);")
	assert.Contains(t, out, "int32_t logos_Shape_Rectangle_get_width(logos_handle handle, double* out);")
	assert.Contains(t, out, "int32_t logos_Shape_variant(logos_handle handle, char** out);")
}

func TestEmitSeqFamilyCoversLenAtPushFree(t *testing.T) {
	out := cabi.EmitSeqFamily(cabi.ElemInt64)
	assert.Contains(t, out, "func logos_seq_int64_new()")
	assert.Contains(t, out, "func logos_seq_int64_len(handle Handle)")
	assert.Contains(t, out, "func logos_seq_int64_at(handle Handle, index int64)")
	assert.Contains(t, out, "StatusOutOfBounds", "at must bounds-check")
	assert.Contains(t, out, "func logos_seq_int64_push(handle Handle, value int64)")
	assert.Contains(t, out, "func logos_seq_int64_free(handle Handle)")
}

func TestEmitSeqFamilyTextElementsRejectEmbeddedNull(t *testing.T) {
	out := cabi.EmitSeqFamily(cabi.ElemText)
	assert.Contains(t, out, "strings.IndexByte(value, 0) >= 0")
	assert.Contains(t, out, "StatusContainsNullByte")
}

func TestEmitMapFamilyGetMissingKeyReportsOutOfBounds(t *testing.T) {
	out := cabi.EmitMapFamily(cabi.ElemText, cabi.ElemInt64)
	assert.Contains(t, out, "func logos_map_text_int64_put(handle Handle, key string, value int64)")
	assert.Contains(t, out, "func logos_map_text_int64_get(handle Handle, key string)")
	assert.Contains(t, out, "StatusOutOfBounds")
}

func TestEmitOptionFamilyGetOnNoneReportsError(t *testing.T) {
	out := cabi.EmitOptionFamily(cabi.ElemFloat64)
	assert.Contains(t, out, "func logos_option_float64_some(value float64)")
	assert.Contains(t, out, "func logos_option_float64_none()")
	assert.Contains(t, out, "func logos_option_float64_is_some(handle Handle)")
	assert.Contains(t, out, `SetLastError(CurrentThreadID(), "option is None")`)
}

func TestEmitUnionRoundTripsThroughVariantEnvelope(t *testing.T) {
	in := intern.New()
	em := cabi.NewEmitter(in, personShapeRegistry(in))
	out, err := em.EmitUnion(in.Intern("Shape"))
	assert.NoError(t, err)
	assert.Contains(t, out, "func logos_Shape_to_json(handle Handle)")
	assert.Contains(t, out, `"variant": variantName`)
	assert.Contains(t, out, "func logos_Shape_from_json(data []byte)")
	assert.Contains(t, out, "case \"Circle\":")
	assert.Contains(t, out, "case \"Rectangle\":")
	assert.Contains(t, out, "unknown variant")
}
