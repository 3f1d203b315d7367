package cabi

import (
	"fmt"
	"strings"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

// headerStatuses lists every status code the header exposes, in enum order.
var headerStatuses = []Status{
	StatusOK, StatusError, StatusRefinement, StatusNullPointer,
	StatusOutOfBounds, StatusDeserializationFailed, StatusInvalidHandle,
	StatusContainsNullByte, StatusThreadPanic, StatusMemoryExhausted,
	StatusStackOverflow,
}

// cDeclType maps a field's declared type to its C parameter type. Strings
// cross the boundary as const char*; anything handle-shaped is a
// logos_handle.
func cDeclType(types *typeregistry.Registry, t ast.TypeExpr) string {
	switch goType := cTypeOf(types, t); goType {
	case "int64":
		return "int64_t"
	case "float64":
		return "double"
	case "bool":
		return "bool"
	case "string":
		return "const char*"
	case "byte":
		return "uint8_t"
	case "Handle":
		return "logos_handle"
	default:
		return "void*"
	}
}

// cOutType is cDeclType for output parameters: the same type one pointer
// deeper, with strings widening to char** so the callee can hand back a
// heap buffer the caller later releases via logos_free_string.
func cOutType(types *typeregistry.Registry, t ast.TypeExpr) string {
	base := cDeclType(types, t)
	if base == "const char*" {
		return "char**"
	}
	return base + "*"
}

// EmitHeader renders the language-agnostic C header for every exported
// type: the status constants, the opaque handle typedef, the runtime
// introspection and last-error prototypes, and one prototype per generated
// entry point. Every fallible function returns int32_t (a LOGOS_STATUS_*
// value) and passes its result through an output parameter.
func (e *Emitter) EmitHeader(exported []intern.Symbol) string {
	var sb strings.Builder
	sb.WriteString("#ifndef LOGOS_ABI_H\n#define LOGOS_ABI_H\n\n")
	sb.WriteString("#include <stdbool.h>\n#include <stdint.h>\n\n")
	sb.WriteString("#ifdef __cplusplus\nextern \"C\" {\n#endif\n\n")

	sb.WriteString("typedef void* logos_handle;\n\n")
	for _, s := range headerStatuses {
		fmt.Fprintf(&sb, "#define LOGOS_STATUS_%s %d\n", screamingSnake(s.String()), int(s))
	}
	sb.WriteString("\n")

	sb.WriteString("const char* logos_version(void);\n")
	sb.WriteString("int64_t logos_abi_version(void);\n")
	sb.WriteString("const char* logos_last_error(void);\n")
	sb.WriteString("void logos_clear_error(void);\n")
	sb.WriteString("void logos_free_string(char* s);\n\n")

	for _, name := range exported {
		if rec, ok := e.Types.Record(name); ok {
			e.writeRecordPrototypes(&sb, rec)
			continue
		}
		if union, ok := e.Types.Union(name); ok {
			e.writeUnionPrototypes(&sb, union)
		}
	}

	sb.WriteString("#ifdef __cplusplus\n}\n#endif\n\n#endif /* LOGOS_ABI_H */\n")
	return sb.String()
}

func (e *Emitter) writeRecordPrototypes(sb *strings.Builder, rec *typeregistry.Record) {
	typeName := e.Interner.MustResolve(rec.Name)
	params := make([]string, len(rec.Fields))
	for i, f := range rec.Fields {
		params[i] = fmt.Sprintf("%s %s", cDeclType(e.Types, f.Type), e.Interner.MustResolve(f.Name))
	}
	fmt.Fprintf(sb, "int32_t logos_%s_create(%s, logos_handle* out);\n", typeName, strings.Join(params, ", "))
	for _, f := range rec.Fields {
		fname := e.Interner.MustResolve(f.Name)
		fmt.Fprintf(sb, "int32_t logos_%s_get_%s(logos_handle handle, %s out);\n", typeName, fname, cOutType(e.Types, f.Type))
		fmt.Fprintf(sb, "int32_t logos_%s_set_%s(logos_handle handle, %s value);\n", typeName, fname, cDeclType(e.Types, f.Type))
	}
	fmt.Fprintf(sb, "int32_t logos_%s_free(logos_handle handle);\n", typeName)
	fmt.Fprintf(sb, "int32_t logos_%s_to_json(logos_handle handle, char** out);\n", typeName)
	fmt.Fprintf(sb, "int32_t logos_%s_from_json(const char* data, logos_handle* out);\n\n", typeName)
}

func (e *Emitter) writeUnionPrototypes(sb *strings.Builder, union *typeregistry.Union) {
	typeName := e.Interner.MustResolve(union.Name)
	for _, variant := range union.Variants {
		variantName := e.Interner.MustResolve(variant.Name)
		params := make([]string, len(variant.Fields))
		for i, f := range variant.Fields {
			params[i] = fmt.Sprintf("%s %s", cDeclType(e.Types, f.Type), e.Interner.MustResolve(f.Name))
		}
		fmt.Fprintf(sb, "int32_t logos_%s_%s_create(%s, logos_handle* out);\n", typeName, variantName, strings.Join(params, ", "))
		for _, f := range variant.Fields {
			fname := e.Interner.MustResolve(f.Name)
			fmt.Fprintf(sb, "int32_t logos_%s_%s_get_%s(logos_handle handle, %s out);\n", typeName, variantName, fname, cOutType(e.Types, f.Type))
		}
	}
	fmt.Fprintf(sb, "int32_t logos_%s_variant(logos_handle handle, char** out);\n", typeName)
	fmt.Fprintf(sb, "int32_t logos_%s_free(logos_handle handle);\n", typeName)
	fmt.Fprintf(sb, "int32_t logos_%s_to_json(logos_handle handle, char** out);\n", typeName)
	fmt.Fprintf(sb, "int32_t logos_%s_from_json(const char* data, logos_handle* out);\n\n", typeName)
}

// screamingSnake converts a CamelCase status name to the SCREAMING_SNAKE
// form the header constants use: InvalidHandle -> INVALID_HANDLE.
func screamingSnake(name string) string {
	var out strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			out.WriteByte('_')
		}
		out.WriteRune(r)
	}
	return strings.ToUpper(out.String())
}
