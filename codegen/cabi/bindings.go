package cabi

import (
	"fmt"
	"strings"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

// pyCType maps a field's declared type to its ctypes representation. Nat is
// the one signedness split the header can't express: both lower to a 64-bit
// integer in Go, but the Python side honors the declared sign.
func pyCType(in *intern.Interner, t ast.TypeExpr) string {
	p, ok := t.(ast.PrimitiveType)
	if !ok {
		return "ctypes.c_void_p"
	}
	switch in.MustResolve(p.Name) {
	case "Int":
		return "ctypes.c_int64"
	case "Nat":
		return "ctypes.c_uint64"
	case "Float":
		return "ctypes.c_double"
	case "Bool":
		return "ctypes.c_bool"
	case "Text":
		return "ctypes.c_char_p"
	case "Char", "Byte":
		return "ctypes.c_uint8"
	default:
		return "ctypes.c_void_p"
	}
}

// PythonModule renders the complete ctypes sidecar: a platform-aware
// loader, the LogosError exception raised on any non-OK status, per-entry
// argtypes/restype declarations, and one wrapper class per exported
// record. Every call routes through _check so a failing status surfaces as
// an exception carrying logos_last_error's text rather than a silent
// default.
func PythonModule(in *intern.Interner, types *typeregistry.Registry, exported []intern.Symbol) string {
	var sb strings.Builder
	sb.WriteString(`import ctypes
import sys

if sys.platform == "win32":
    _SUFFIX = ".dll"
elif sys.platform == "darwin":
    _SUFFIX = ".dylib"
else:
    _SUFFIX = ".so"

_lib = ctypes.CDLL("liblogos" + _SUFFIX)

_lib.logos_version.restype = ctypes.c_char_p
_lib.logos_abi_version.restype = ctypes.c_int64
_lib.logos_last_error.restype = ctypes.c_char_p
_lib.logos_clear_error.restype = None
_lib.logos_free_string.argtypes = [ctypes.c_char_p]

LOGOS_STATUS_OK = 0


class LogosError(Exception):
    def __init__(self, status, message):
        super().__init__(f"logos error {status}: {message}")
        self.status = status
        self.message = message


def _check(status):
    if status != LOGOS_STATUS_OK:
        message = _lib.logos_last_error()
        _lib.logos_clear_error()
        raise LogosError(status, message.decode() if message else "")


def version():
    return _lib.logos_version().decode()


def abi_version():
    return _lib.logos_abi_version()

`)
	for _, name := range exported {
		rec, ok := types.Record(name)
		if !ok {
			continue
		}
		writePythonSignatures(&sb, in, rec)
		sb.WriteString("\n")
		sb.WriteString(pythonRecordClass(in, rec))
		sb.WriteString("\n")
	}
	return sb.String()
}

func writePythonSignatures(sb *strings.Builder, in *intern.Interner, rec *typeregistry.Record) {
	typeName := in.MustResolve(rec.Name)
	argTypes := make([]string, 0, len(rec.Fields)+1)
	for _, f := range rec.Fields {
		argTypes = append(argTypes, pyCType(in, f.Type))
	}
	fmt.Fprintf(sb, "_lib.logos_%s_create.argtypes = [%s]\n", typeName, strings.Join(append(argTypes, "ctypes.POINTER(ctypes.c_uint64)"), ", "))
	fmt.Fprintf(sb, "_lib.logos_%s_create.restype = ctypes.c_int32\n", typeName)
	for _, f := range rec.Fields {
		fname := in.MustResolve(f.Name)
		ct := pyCType(in, f.Type)
		fmt.Fprintf(sb, "_lib.logos_%s_get_%s.argtypes = [ctypes.c_uint64, ctypes.POINTER(%s)]\n", typeName, fname, ct)
		fmt.Fprintf(sb, "_lib.logos_%s_get_%s.restype = ctypes.c_int32\n", typeName, fname)
		fmt.Fprintf(sb, "_lib.logos_%s_set_%s.argtypes = [ctypes.c_uint64, %s]\n", typeName, fname, ct)
		fmt.Fprintf(sb, "_lib.logos_%s_set_%s.restype = ctypes.c_int32\n", typeName, fname)
	}
	fmt.Fprintf(sb, "_lib.logos_%s_free.argtypes = [ctypes.c_uint64]\n", typeName)
	fmt.Fprintf(sb, "_lib.logos_%s_free.restype = ctypes.c_int32\n", typeName)
}

func pythonRecordClass(in *intern.Interner, rec *typeregistry.Record) string {
	typeName := in.MustResolve(rec.Name)
	var sb strings.Builder
	fmt.Fprintf(&sb, "class %s:\n", typeName)
	sb.WriteString("    def __init__(self, handle):\n        self._handle = handle\n\n")

	params := make([]string, len(rec.Fields))
	args := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		fname := in.MustResolve(f.Name)
		params[i] = fname
		if pyCType(in, f.Type) == "ctypes.c_char_p" {
			args[i] = fname + ".encode()"
		} else {
			args[i] = fname
		}
	}
	sb.WriteString("    @classmethod\n")
	fmt.Fprintf(&sb, "    def create(cls, %s):\n", strings.Join(params, ", "))
	sb.WriteString("        out = ctypes.c_uint64()\n")
	fmt.Fprintf(&sb, "        _check(_lib.logos_%s_create(%s, ctypes.byref(out)))\n", typeName, strings.Join(args, ", "))
	sb.WriteString("        return cls(out.value)\n\n")

	for _, f := range rec.Fields {
		fname := in.MustResolve(f.Name)
		ct := pyCType(in, f.Type)
		fmt.Fprintf(&sb, "    @property\n    def %s(self):\n", fname)
		fmt.Fprintf(&sb, "        out = %s()\n", ct)
		fmt.Fprintf(&sb, "        _check(_lib.logos_%s_get_%s(self._handle, ctypes.byref(out)))\n", typeName, fname)
		if ct == "ctypes.c_char_p" {
			sb.WriteString("        return out.value.decode() if out.value else \"\"\n\n")
		} else {
			sb.WriteString("        return out.value\n\n")
		}
		fmt.Fprintf(&sb, "    @%s.setter\n    def %s(self, value):\n", fname, fname)
		if ct == "ctypes.c_char_p" {
			fmt.Fprintf(&sb, "        _check(_lib.logos_%s_set_%s(self._handle, value.encode()))\n\n", typeName, fname)
		} else {
			fmt.Fprintf(&sb, "        _check(_lib.logos_%s_set_%s(self._handle, value))\n\n", typeName, fname)
		}
	}
	fmt.Fprintf(&sb, "    def __del__(self):\n        _lib.logos_%s_free(self._handle)\n", typeName)
	return sb.String()
}

// PythonBindings renders a ctypes sidecar class exposing name's C function
// family: a class wrapping the opaque handle, with __del__ calling
// logos_<name>_free so Python-side garbage collection releases the
// registry slot. PythonModule is the full sidecar; this bare-class shape
// is kept for callers composing a module of their own.
func PythonBindings(in *intern.Interner, recordName intern.Symbol, fieldNames []intern.Symbol) string {
	name := in.MustResolve(recordName)
	var sb strings.Builder
	fmt.Fprintf(&sb, "class %s:\n", name)
	sb.WriteString("    def __init__(self, handle):\n        self._handle = handle\n\n")
	for _, f := range fieldNames {
		fname := in.MustResolve(f)
		fmt.Fprintf(&sb, "    @property\n    def %s(self):\n        return _lib.logos_%s_get_%s(self._handle)\n\n", fname, name, fname)
		fmt.Fprintf(&sb, "    @%s.setter\n    def %s(self, value):\n        _lib.logos_%s_set_%s(self._handle, value)\n\n", fname, fname, name, fname)
	}
	fmt.Fprintf(&sb, "    def __del__(self):\n        _lib.logos_%s_free(self._handle)\n", name)
	return sb.String()
}

// tsType maps a declared field type to its TypeScript-facing type.
func tsType(in *intern.Interner, t ast.TypeExpr) string {
	p, ok := t.(ast.PrimitiveType)
	if !ok {
		return "bigint"
	}
	switch in.MustResolve(p.Name) {
	case "Int", "Nat":
		return "bigint"
	case "Float":
		return "number"
	case "Bool":
		return "boolean"
	case "Text":
		return "string"
	case "Char", "Byte":
		return "number"
	default:
		return "bigint"
	}
}

// koffiType maps a declared field type to the koffi signature token used
// when registering the native function.
func koffiType(in *intern.Interner, t ast.TypeExpr) string {
	p, ok := t.(ast.PrimitiveType)
	if !ok {
		return "uint64"
	}
	switch in.MustResolve(p.Name) {
	case "Int":
		return "int64"
	case "Nat":
		return "uint64"
	case "Float":
		return "double"
	case "Bool":
		return "bool"
	case "Text":
		return "str"
	case "Char", "Byte":
		return "uint8"
	default:
		return "uint64"
	}
}

// TypeScriptDeclarations renders the .d.ts companion for every exported
// record: the error class, the module-level introspection functions, and a
// handle-wrapper class per type.
func TypeScriptDeclarations(in *intern.Interner, types *typeregistry.Registry, exported []intern.Symbol) string {
	var sb strings.Builder
	sb.WriteString("export declare class LogosError extends Error {\n  readonly status: number;\n  constructor(status: number, message: string);\n}\n\n")
	sb.WriteString("export declare function version(): string;\n")
	sb.WriteString("export declare function abiVersion(): bigint;\n\n")
	for _, name := range exported {
		rec, ok := types.Record(name)
		if !ok {
			continue
		}
		typeName := in.MustResolve(rec.Name)
		fmt.Fprintf(&sb, "export declare class %s {\n", typeName)
		sb.WriteString("  private constructor(handle: bigint);\n")
		params := make([]string, len(rec.Fields))
		for i, f := range rec.Fields {
			params[i] = fmt.Sprintf("%s: %s", in.MustResolve(f.Name), tsType(in, f.Type))
		}
		fmt.Fprintf(&sb, "  static create(%s): %s;\n", strings.Join(params, ", "), typeName)
		for _, f := range rec.Fields {
			fname := in.MustResolve(f.Name)
			ft := tsType(in, f.Type)
			fmt.Fprintf(&sb, "  get %s(): %s;\n", fname, ft)
			fmt.Fprintf(&sb, "  set %s(value: %s);\n", fname, ft)
		}
		sb.WriteString("  free(): void;\n}\n\n")
	}
	return sb.String()
}

// TypeScriptModule renders the runtime side of the TypeScript sidecar: a
// koffi-based loader (the maintained successor to the deprecated
// ffi-napi), one registered native function per entry point, the
// status-checking helper, and a wrapper class per exported record.
func TypeScriptModule(in *intern.Interner, types *typeregistry.Registry, exported []intern.Symbol) string {
	var sb strings.Builder
	sb.WriteString(`import koffi from "koffi";

const suffix = process.platform === "win32" ? ".dll" : process.platform === "darwin" ? ".dylib" : ".so";
const lib = koffi.load("liblogos" + suffix);

const logos_version = lib.func("logos_version", "str", []);
const logos_abi_version = lib.func("logos_abi_version", "int64", []);
const logos_last_error = lib.func("logos_last_error", "str", []);
const logos_clear_error = lib.func("logos_clear_error", "void", []);

export class LogosError extends Error {
  constructor(status, message) {
    super("logos error " + status + ": " + message);
    this.status = status;
  }
}

function check(status) {
  if (status !== 0) {
    const message = logos_last_error() ?? "";
    logos_clear_error();
    throw new LogosError(status, message);
  }
}

export function version() { return logos_version(); }
export function abiVersion() { return logos_abi_version(); }

`)
	for _, name := range exported {
		rec, ok := types.Record(name)
		if !ok {
			continue
		}
		typeName := in.MustResolve(rec.Name)
		createArgs := make([]string, len(rec.Fields))
		for i, f := range rec.Fields {
			createArgs[i] = fmt.Sprintf("%q", koffiType(in, f.Type))
		}
		fmt.Fprintf(&sb, "const logos_%s_create = lib.func(\"logos_%s_create\", \"int32\", [%s, \"_Out_ uint64*\"]);\n", typeName, typeName, strings.Join(createArgs, ", "))
		for _, f := range rec.Fields {
			fname := in.MustResolve(f.Name)
			kt := koffiType(in, f.Type)
			fmt.Fprintf(&sb, "const logos_%s_get_%s = lib.func(\"logos_%s_get_%s\", \"int32\", [\"uint64\", \"_Out_ %s*\"]);\n", typeName, fname, typeName, fname, kt)
			fmt.Fprintf(&sb, "const logos_%s_set_%s = lib.func(\"logos_%s_set_%s\", \"int32\", [\"uint64\", %q]);\n", typeName, fname, typeName, fname, kt)
		}
		fmt.Fprintf(&sb, "const logos_%s_free = lib.func(\"logos_%s_free\", \"int32\", [\"uint64\"]);\n\n", typeName, typeName)

		fmt.Fprintf(&sb, "export class %s {\n", typeName)
		sb.WriteString("  constructor(handle) { this.handle = handle; }\n\n")
		paramNames := make([]string, len(rec.Fields))
		for i, f := range rec.Fields {
			paramNames[i] = in.MustResolve(f.Name)
		}
		fmt.Fprintf(&sb, "  static create(%s) {\n    const out = [0n];\n    check(logos_%s_create(%s, out));\n    return new %s(out[0]);\n  }\n\n", strings.Join(paramNames, ", "), typeName, strings.Join(paramNames, ", "), typeName)
		for _, f := range rec.Fields {
			fname := in.MustResolve(f.Name)
			fmt.Fprintf(&sb, "  get %s() {\n    const out = [null];\n    check(logos_%s_get_%s(this.handle, out));\n    return out[0];\n  }\n", fname, typeName, fname)
			fmt.Fprintf(&sb, "  set %s(value) {\n    check(logos_%s_set_%s(this.handle, value));\n  }\n\n", fname, typeName, fname)
		}
		fmt.Fprintf(&sb, "  free() { check(logos_%s_free(this.handle)); }\n}\n\n", typeName)
	}
	return sb.String()
}

// TypeScriptBindings renders a thin FFI wrapper class around name's handle,
// mirroring the shape of PythonBindings for a koffi/napi-style bridge.
// TypeScriptModule is the full sidecar: it renders its own per-record
// classes alongside the loader and does not call this function.
func TypeScriptBindings(in *intern.Interner, recordName intern.Symbol, fieldNames []intern.Symbol) string {
	name := in.MustResolve(recordName)
	var sb strings.Builder
	fmt.Fprintf(&sb, "export class %s {\n  private handle: bigint;\n  constructor(handle: bigint) { this.handle = handle; }\n\n", name)
	for _, f := range fieldNames {
		fname := in.MustResolve(f)
		fmt.Fprintf(&sb, "  get %s() { return lib.logos_%s_get_%s(this.handle); }\n", fname, name, fname)
		fmt.Fprintf(&sb, "  set %s(value) { lib.logos_%s_set_%s(this.handle, value); }\n\n", fname, name, fname)
	}
	fmt.Fprintf(&sb, "  free() { lib.logos_%s_free(this.handle); }\n}\n", name)
	return sb.String()
}
