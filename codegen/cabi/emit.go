package cabi

import (
	"fmt"
	"strings"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

// nullByteGuard renders the statement block that rejects varName (a string
// parameter) containing an embedded null byte, returning result as the
// function's failure value alongside StatusContainsNullByte. A Text value
// crossing the C ABI becomes a NUL-terminated C string on the other side;
// an embedded NUL would silently truncate it there, so every Text entry
// point rejects it here instead.
func nullByteGuard(varName, result string) string {
	msg := varName + " contains an embedded null byte"
	if result == "" {
		return fmt.Sprintf("\tif strings.IndexByte(%s, 0) >= 0 {\n\t\tSetLastError(CurrentThreadID(), %q)\n\t\treturn StatusContainsNullByte\n\t}\n", varName, msg)
	}
	return fmt.Sprintf("\tif strings.IndexByte(%s, 0) >= 0 {\n\t\tSetLastError(CurrentThreadID(), %q)\n\t\treturn %s, StatusContainsNullByte\n\t}\n", varName, msg, result)
}

// handleGuard renders the statement block that rejects a zero Handle --
// the null-pointer equivalent for a handle-based ABI -- before it ever
// reaches HandleRegistry.Deref. result is the zero-value expression(s) to
// return alongside StatusNullPointer, or "" for a function whose only
// return value is the Status itself.
func handleGuard(result string) string {
	if result == "" {
		return "\tif handle == 0 {\n\t\tSetLastError(CurrentThreadID(), \"handle is null\")\n\t\treturn StatusNullPointer\n\t}\n"
	}
	return fmt.Sprintf("\tif handle == 0 {\n\t\tSetLastError(CurrentThreadID(), \"handle is null\")\n\t\treturn %s, StatusNullPointer\n\t}\n", result)
}

// Emitter renders the C ABI surface for every record/union the type
// registry knows about: one create/accessor/mutator/free/to_json/from_json
// family per type, all funneled through the process-wide HandleRegistry.
type Emitter struct {
	Interner *intern.Interner
	Types    *typeregistry.Registry
}

// NewEmitter builds an Emitter over a populated type registry.
func NewEmitter(in *intern.Interner, types *typeregistry.Registry) *Emitter {
	return &Emitter{Interner: in, Types: types}
}

// EmitRecord renders the exported C function family for a record type:
// logos_<name>_create, one logos_<name>_get_<field>/set_<field> pair per
// field, logos_<name>_free, logos_<name>_to_json, and
// logos_<name>_from_json. Every function begins with a panic boundary that
// converts an internal panic into StatusThreadPanic instead of unwinding
// across the FFI edge.
func (e *Emitter) EmitRecord(name intern.Symbol) (string, error) {
	rec, ok := e.Types.Record(name)
	if !ok {
		return "", fmt.Errorf("cabi: no record named %q", e.Interner.MustResolve(name))
	}
	typeName := e.Interner.MustResolve(name)
	var sb strings.Builder

	params := make([]string, len(rec.Fields))
	args := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		fname := e.Interner.MustResolve(f.Name)
		params[i] = fmt.Sprintf("%s %s", fname, cTypeOf(e.Types, f.Type))
		args[i] = fname
	}
	fmt.Fprintf(&sb, "func logos_%s_create(%s) (Handle, Status) {\n", typeName, strings.Join(params, ", "))
	sb.WriteString("\ttid := CurrentThreadID()\n\tvar h Handle\n")
	sb.WriteString("\tstatus := WithPanicBoundary(tid, func() Status {\n")
	for _, f := range rec.Fields {
		if cTypeOf(e.Types, f.Type) == "string" {
			sb.WriteString(nullByteGuard(e.Interner.MustResolve(f.Name), ""))
		}
	}
	fmt.Fprintf(&sb, "\t\tvalue := %s{%s}\n", typeName, strings.Join(args, ", "))
	sb.WriteString("\t\th = GlobalHandleRegistry().Register(value)\n\t\treturn StatusOK\n\t})\n")
	sb.WriteString("\treturn h, status\n}\n\n")

	for _, f := range rec.Fields {
		fname := e.Interner.MustResolve(f.Name)
		ctype := cTypeOf(e.Types, f.Type)

		fmt.Fprintf(&sb, "func logos_%s_get_%s(handle Handle) (%s, Status) {\n", typeName, fname, ctype)
		sb.WriteString("\tvar zero " + ctype + "\n")
		sb.WriteString(handleGuard("zero"))
		sb.WriteString("\ttid := CurrentThreadID()\n\tvar out " + ctype + "\n")
		sb.WriteString("\tstatus := WithPanicBoundary(tid, func() Status {\n")
		sb.WriteString("\t\tv, status := GlobalHandleRegistry().Deref(handle)\n\t\tif status != StatusOK {\n\t\t\tSetLastError(tid, status.String())\n\t\t\treturn status\n\t\t}\n")
		fmt.Fprintf(&sb, "\t\trec := v.(%s)\n\t\tout = rec.%s\n\t\treturn StatusOK\n\t})\n", typeName, fname)
		sb.WriteString("\tif status != StatusOK {\n\t\treturn zero, status\n\t}\n\treturn out, StatusOK\n")
		sb.WriteString("}\n\n")

		fmt.Fprintf(&sb, "func logos_%s_set_%s(handle Handle, value %s) Status {\n", typeName, fname, ctype)
		sb.WriteString(handleGuard(""))
		if ctype == "string" {
			sb.WriteString(nullByteGuard("value", ""))
		}
		sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n")
		sb.WriteString("\t\tv, status := GlobalHandleRegistry().Deref(handle)\n\t\tif status != StatusOK {\n\t\t\tSetLastError(CurrentThreadID(), status.String())\n\t\t\treturn status\n\t\t}\n")
		fmt.Fprintf(&sb, "\t\trec := v.(%s)\n\t\trec.%s = value\n\t\treturn GlobalHandleRegistry().Replace(handle, rec)\n\t})\n", typeName, fname)
		sb.WriteString("}\n\n")
	}

	fmt.Fprintf(&sb, "func logos_%s_free(handle Handle) Status {\n", typeName)
	sb.WriteString(handleGuard(""))
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n\t\treturn GlobalHandleRegistry().Free(handle)\n\t})\n}\n\n")

	fmt.Fprintf(&sb, "func logos_%s_to_json(handle Handle) ([]byte, Status) {\n", typeName)
	sb.WriteString(handleGuard("nil"))
	sb.WriteString("\ttid := CurrentThreadID()\n\tvar out []byte\n")
	sb.WriteString("\tstatus := WithPanicBoundary(tid, func() Status {\n")
	sb.WriteString("\t\tv, status := GlobalHandleRegistry().Deref(handle)\n\t\tif status != StatusOK {\n\t\t\tSetLastError(tid, status.String())\n\t\t\treturn status\n\t\t}\n")
	sb.WriteString("\t\tenc, err := json.Marshal(v)\n\t\tif err != nil {\n\t\t\tSetLastError(tid, err.Error())\n\t\t\treturn StatusDeserializationFailed\n\t\t}\n")
	sb.WriteString("\t\tif bytes.IndexByte(enc, 0) >= 0 {\n\t\t\tSetLastError(tid, \"serialized JSON contains an embedded null byte\")\n\t\t\treturn StatusContainsNullByte\n\t\t}\n")
	sb.WriteString("\t\tout = enc\n\t\treturn StatusOK\n\t})\n")
	sb.WriteString("\tif status != StatusOK {\n\t\treturn nil, status\n\t}\n\treturn out, StatusOK\n}\n\n")

	schemaJSON, err := e.Types.JSONSchema(name)
	if err != nil {
		return "", fmt.Errorf("cabi: schema for %q: %w", typeName, err)
	}
	fmt.Fprintf(&sb, "func logos_%s_from_json(data []byte) (Handle, Status) {\n", typeName)
	sb.WriteString("\tif data == nil {\n\t\tSetLastError(CurrentThreadID(), \"data is null\")\n\t\treturn 0, StatusNullPointer\n\t}\n")
	sb.WriteString("\tif bytes.IndexByte(data, 0) >= 0 {\n\t\tSetLastError(CurrentThreadID(), \"input JSON contains an embedded null byte\")\n\t\treturn 0, StatusContainsNullByte\n\t}\n")
	fmt.Fprintf(&sb, "\tif err := ValidateJSONAgainstSchema([]byte(%q), data); err != nil {\n\t\tSetLastError(CurrentThreadID(), err.Error())\n\t\treturn 0, StatusRefinement\n\t}\n", string(schemaJSON))
	sb.WriteString("\ttid := CurrentThreadID()\n\tvar h Handle\n")
	sb.WriteString("\tstatus := WithPanicBoundary(tid, func() Status {\n")
	fmt.Fprintf(&sb, "\t\tvar value %s\n\t\tif err := json.Unmarshal(data, &value); err != nil {\n\t\t\tSetLastError(tid, err.Error())\n\t\t\treturn StatusDeserializationFailed\n\t\t}\n\t\th = GlobalHandleRegistry().Register(value)\n\t\treturn StatusOK\n\t})\n", typeName)
	sb.WriteString("\treturn h, status\n}\n")

	return sb.String(), nil
}

// EmitUnion renders the C function family for a tagged-union type:
// logos_<name>_<variant>_create per variant, logos_<name>_variant to
// discriminate a handle's runtime tag, one logos_<name>_<variant>_get_<field>
// per variant field, and a shared free/to_json/from_json trio. A field
// accessor called against a handle whose runtime variant doesn't match the
// requested one returns the type's zero value and records a last-error
// describing the mismatch, rather than panicking, so foreign callers can
// detect the wrong-variant access without crashing.
func (e *Emitter) EmitUnion(name intern.Symbol) (string, error) {
	union, ok := e.Types.Union(name)
	if !ok {
		return "", fmt.Errorf("cabi: no union named %q", e.Interner.MustResolve(name))
	}
	typeName := e.Interner.MustResolve(name)
	var sb strings.Builder

	for _, variant := range union.Variants {
		variantName := e.Interner.MustResolve(variant.Name)
		params := make([]string, len(variant.Fields))
		args := make([]string, len(variant.Fields))
		for i, f := range variant.Fields {
			fname := e.Interner.MustResolve(f.Name)
			params[i] = fmt.Sprintf("%s %s", fname, cTypeOf(e.Types, f.Type))
			args[i] = fmt.Sprintf("%s: %s", fname, fname)
		}
		fmt.Fprintf(&sb, "func logos_%s_%s_create(%s) (Handle, Status) {\n", typeName, variantName, strings.Join(params, ", "))
		sb.WriteString("\ttid := CurrentThreadID()\n\tvar h Handle\n")
		sb.WriteString("\tstatus := WithPanicBoundary(tid, func() Status {\n")
		for _, f := range variant.Fields {
			if cTypeOf(e.Types, f.Type) == "string" {
				sb.WriteString(nullByteGuard(e.Interner.MustResolve(f.Name), ""))
			}
		}
		fmt.Fprintf(&sb, "\t\tvalue := %s%s{%s}\n", typeName, variantName, strings.Join(args, ", "))
		sb.WriteString("\t\th = GlobalHandleRegistry().Register(value)\n\t\treturn StatusOK\n\t})\n")
		sb.WriteString("\treturn h, status\n}\n\n")

		for _, f := range variant.Fields {
			fname := e.Interner.MustResolve(f.Name)
			ctype := cTypeOf(e.Types, f.Type)
			fmt.Fprintf(&sb, "func logos_%s_%s_get_%s(handle Handle) (%s, Status) {\n", typeName, variantName, fname, ctype)
			sb.WriteString("\tvar zero " + ctype + "\n")
			sb.WriteString(handleGuard("zero"))
			sb.WriteString("\tftid := CurrentThreadID()\n\tvar out " + ctype + "\n")
			sb.WriteString("\tstatus := WithPanicBoundary(ftid, func() Status {\n")
			sb.WriteString("\t\tv, status := GlobalHandleRegistry().Deref(handle)\n\t\tif status != StatusOK {\n\t\t\tSetLastError(ftid, status.String())\n\t\t\treturn status\n\t\t}\n")
			fmt.Fprintf(&sb, "\t\trec, ok := v.(%s%s)\n\t\tif !ok {\n", typeName, variantName)
			fmt.Fprintf(&sb, "\t\t\tSetLastError(ftid, %q)\n", fmt.Sprintf("handle is not a %s %s", typeName, variantName))
			sb.WriteString("\t\t\treturn StatusError\n\t\t}\n")
			fmt.Fprintf(&sb, "\t\tout = rec.%s\n\t\treturn StatusOK\n\t})\n", fname)
			sb.WriteString("\tif status != StatusOK {\n\t\treturn zero, status\n\t}\n\treturn out, StatusOK\n}\n\n")
		}
	}

	fmt.Fprintf(&sb, "func logos_%s_variant(handle Handle) (string, Status) {\n", typeName)
	sb.WriteString(handleGuard("\"\""))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\treturn \"\", status\n\t}\n")
	sb.WriteString("\tswitch v.(type) {\n")
	for _, variant := range union.Variants {
		variantName := e.Interner.MustResolve(variant.Name)
		fmt.Fprintf(&sb, "\tcase %s%s:\n\t\treturn %q, StatusOK\n", typeName, variantName, variantName)
	}
	sb.WriteString("\tdefault:\n\t\treturn \"\", StatusError\n\t}\n}\n\n")

	fmt.Fprintf(&sb, "func logos_%s_free(handle Handle) Status {\n", typeName)
	sb.WriteString(handleGuard(""))
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n\t\treturn GlobalHandleRegistry().Free(handle)\n\t})\n}\n\n")

	fmt.Fprintf(&sb, "func logos_%s_to_json(handle Handle) ([]byte, Status) {\n", typeName)
	sb.WriteString(handleGuard("nil"))
	sb.WriteString("\ttid := CurrentThreadID()\n\tvar out []byte\n")
	sb.WriteString("\tstatus := WithPanicBoundary(tid, func() Status {\n")
	sb.WriteString("\t\tv, status := GlobalHandleRegistry().Deref(handle)\n\t\tif status != StatusOK {\n\t\t\tSetLastError(tid, status.String())\n\t\t\treturn status\n\t\t}\n")
	sb.WriteString("\t\tvar variantName string\n\t\tswitch v.(type) {\n")
	for _, variant := range union.Variants {
		variantName := e.Interner.MustResolve(variant.Name)
		fmt.Fprintf(&sb, "\t\tcase %s%s:\n\t\t\tvariantName = %q\n", typeName, variantName, variantName)
	}
	sb.WriteString("\t\t}\n")
	sb.WriteString("\t\tenc, err := json.Marshal(map[string]any{\"variant\": variantName, \"fields\": v})\n\t\tif err != nil {\n\t\t\tSetLastError(tid, err.Error())\n\t\t\treturn StatusDeserializationFailed\n\t\t}\n")
	sb.WriteString("\t\tif bytes.IndexByte(enc, 0) >= 0 {\n\t\t\tSetLastError(tid, \"serialized JSON contains an embedded null byte\")\n\t\t\treturn StatusContainsNullByte\n\t\t}\n")
	sb.WriteString("\t\tout = enc\n\t\treturn StatusOK\n\t})\n")
	sb.WriteString("\tif status != StatusOK {\n\t\treturn nil, status\n\t}\n\treturn out, StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_%s_from_json(data []byte) (Handle, Status) {\n", typeName)
	sb.WriteString("\tif data == nil {\n\t\tSetLastError(CurrentThreadID(), \"data is null\")\n\t\treturn 0, StatusNullPointer\n\t}\n")
	sb.WriteString("\tif bytes.IndexByte(data, 0) >= 0 {\n\t\tSetLastError(CurrentThreadID(), \"input JSON contains an embedded null byte\")\n\t\treturn 0, StatusContainsNullByte\n\t}\n")
	sb.WriteString("\ttid := CurrentThreadID()\n\tvar h Handle\n")
	sb.WriteString("\tstatus := WithPanicBoundary(tid, func() Status {\n")
	sb.WriteString("\t\tvar envelope struct {\n\t\t\tVariant string          `json:\"variant\"`\n\t\t\tFields  json.RawMessage `json:\"fields\"`\n\t\t}\n")
	sb.WriteString("\t\tif err := json.Unmarshal(data, &envelope); err != nil {\n\t\t\tSetLastError(tid, err.Error())\n\t\t\treturn StatusDeserializationFailed\n\t\t}\n")
	sb.WriteString("\t\tswitch envelope.Variant {\n")
	for _, variant := range union.Variants {
		variantName := e.Interner.MustResolve(variant.Name)
		fmt.Fprintf(&sb, "\t\tcase %q:\n", variantName)
		fmt.Fprintf(&sb, "\t\t\tvar value %s%s\n", typeName, variantName)
		sb.WriteString("\t\t\tif err := json.Unmarshal(envelope.Fields, &value); err != nil {\n\t\t\t\tSetLastError(tid, err.Error())\n\t\t\t\treturn StatusDeserializationFailed\n\t\t\t}\n")
		sb.WriteString("\t\t\th = GlobalHandleRegistry().Register(value)\n\t\t\treturn StatusOK\n")
	}
	sb.WriteString("\t\tdefault:\n\t\t\tSetLastError(tid, \"unknown variant \"+envelope.Variant)\n\t\t\treturn StatusDeserializationFailed\n\t\t}\n\t})\n")
	sb.WriteString("\treturn h, status\n}\n")

	return sb.String(), nil
}

func cTypeOf(types *typeregistry.Registry, t ast.TypeExpr) string {
	switch v := t.(type) {
	case ast.PrimitiveType:
		name := types.TypeName(v)
		switch name {
		case "Int", "Nat":
			return "int64"
		case "Float":
			return "float64"
		case "Bool":
			return "bool"
		case "Text":
			return "string"
		case "Char", "Byte":
			return "byte"
		default:
			return "any"
		}
	case ast.NamedType:
		return "Handle"
	case ast.GenericType:
		return "Handle"
	default:
		return "any"
	}
}

// EmitRuntimeSupport renders the package-wide C ABI entry points that don't
// belong to any one record: version introspection, the last-error API, and
// the string-free companion every text-returning accessor requires.
func EmitRuntimeSupport() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "func logos_version() string { return %q }\n\n", PackageVersion)
	fmt.Fprintf(&sb, "func logos_abi_version() int { return %d }\n\n", ABIVersion)
	sb.WriteString("func logos_last_error() string { return LastError(CurrentThreadID()) }\n\n")
	sb.WriteString("func logos_clear_error() { ClearLastError(CurrentThreadID()) }\n\n")
	sb.WriteString("func logos_free_string(s string) { /* no-op: Go strings are garbage collected */ }\n")
	return sb.String()
}
