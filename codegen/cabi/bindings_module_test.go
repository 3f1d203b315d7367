package cabi_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/cabi"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

func countsRegistry(in *intern.Interner) *typeregistry.Registry {
	stmts := []ast.Stmt{
		ast.StructDefStmt{Name: in.Intern("Counter"), Fields: []ast.FieldDecl{
			{Name: in.Intern("label"), Type: ast.PrimitiveType{Name: in.Intern("Text")}},
			{Name: in.Intern("total"), Type: ast.PrimitiveType{Name: in.Intern("Nat")}},
			{Name: in.Intern("delta"), Type: ast.PrimitiveType{Name: in.Intern("Int")}},
		}},
	}
	return typeregistry.Build(in, stmts)
}

func TestPythonModuleLoadsWithPlatformAwareSuffix(t *testing.T) {
	in := intern.New()
	out := cabi.PythonModule(in, countsRegistry(in), []intern.Symbol{in.Intern("Counter")})

	assert.Contains(t, out, `_SUFFIX = ".dll"`)
	assert.Contains(t, out, `_SUFFIX = ".dylib"`)
	assert.Contains(t, out, `_SUFFIX = ".so"`)
	assert.Contains(t, out, `ctypes.CDLL("liblogos" + _SUFFIX)`)
}

func TestPythonModuleHonorsSignedness(t *testing.T) {
	in := intern.New()
	out := cabi.PythonModule(in, countsRegistry(in), []intern.Symbol{in.Intern("Counter")})

	assert.Contains(t, out, "ctypes.c_uint64", "Nat fields must be unsigned 64-bit")
	assert.Contains(t, out, "ctypes.c_int64", "Int fields must be signed 64-bit")
	assert.Contains(t, out, "_lib.logos_Counter_create.argtypes = [ctypes.c_char_p, ctypes.c_uint64, ctypes.c_int64, ctypes.POINTER(ctypes.c_uint64)]")
}

func TestPythonModuleChecksStatusAndRaises(t *testing.T) {
	in := intern.New()
	out := cabi.PythonModule(in, countsRegistry(in), []intern.Symbol{in.Intern("Counter")})

	assert.Contains(t, out, "class LogosError(Exception):")
	assert.Contains(t, out, "def _check(status):")
	assert.Contains(t, out, "raise LogosError(status,")
	assert.Contains(t, out, "_check(_lib.logos_Counter_get_label(self._handle, ctypes.byref(out)))")
}

func TestTypeScriptModuleUsesKoffi(t *testing.T) {
	in := intern.New()
	out := cabi.TypeScriptModule(in, countsRegistry(in), []intern.Symbol{in.Intern("Counter")})

	assert.Contains(t, out, `import koffi from "koffi";`)
	assert.NotContains(t, out, "ffi-napi")
	assert.Contains(t, out, "export class LogosError extends Error")
	assert.Contains(t, out, "export class Counter {")
	assert.Contains(t, out, "check(logos_Counter_free(this.handle));")
}

func TestTypeScriptDeclarationsDeclareHandleWrapper(t *testing.T) {
	in := intern.New()
	out := cabi.TypeScriptDeclarations(in, countsRegistry(in), []intern.Symbol{in.Intern("Counter")})

	assert.Contains(t, out, "export declare class Counter {")
	assert.Contains(t, out, "get label(): string;")
	assert.Contains(t, out, "get total(): bigint;")
	assert.Contains(t, out, "free(): void;")
}

func TestHandleRegistryReplaceKeepsHandleValid(t *testing.T) {
	r := &cabi.HandleRegistry{}
	h := r.Register("before")
	assert.Equal(t, cabi.StatusOK, r.Replace(h, "after"))

	v, status := r.Deref(h)
	assert.Equal(t, cabi.StatusOK, status)
	assert.Equal(t, "after", v)
}

func TestHandleRegistryReplaceOnFreedHandleIsInvalid(t *testing.T) {
	r := &cabi.HandleRegistry{}
	h := r.Register("x")
	assert.Equal(t, cabi.StatusOK, r.Free(h))
	assert.Equal(t, cabi.StatusInvalidHandle, r.Replace(h, "y"))
}
