package cabi

import (
	"fmt"
	"strings"
)

// ElemKind names one of the scalar element types the collection function
// families are instantiated over. The C boundary cannot carry Go generics,
// so every (kind, element) pair gets its own logos_<kind>_<type>_<op>
// family, matching the uniform naming pattern the ABI promises.
type ElemKind string

const (
	ElemInt64   ElemKind = "int64"
	ElemFloat64 ElemKind = "float64"
	ElemBool    ElemKind = "bool"
	ElemText    ElemKind = "text"
)

func (k ElemKind) goType() string {
	if k == ElemText {
		return "string"
	}
	return string(k)
}

// EmitSeqFamily renders the exported function family for a sequence of
// elem: new/len/at/push/free. Indexing at the boundary is 0-based -- the
// 1-based-to-0-based shift already happened inside the lowered program, so
// foreign callers see conventional C indexing.
func EmitSeqFamily(elem ElemKind) string {
	goType := elem.goType()
	var sb strings.Builder

	fmt.Fprintf(&sb, "func logos_seq_%s_new() (Handle, Status) {\n", elem)
	sb.WriteString("\treturn WithPanicBoundaryHandle(CurrentThreadID(), func() (Handle, Status) {\n")
	fmt.Fprintf(&sb, "\t\treturn GlobalHandleRegistry().Register([]%s{}), StatusOK\n\t})\n}\n\n", goType)

	fmt.Fprintf(&sb, "func logos_seq_%s_len(handle Handle) (int64, Status) {\n", elem)
	sb.WriteString(handleGuard("0"))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\tSetLastError(CurrentThreadID(), status.String())\n\t\treturn 0, status\n\t}\n")
	fmt.Fprintf(&sb, "\titems, ok := v.([]%s)\n\tif !ok {\n\t\tSetLastError(CurrentThreadID(), \"handle is not a seq of %s\")\n\t\treturn 0, StatusError\n\t}\n", goType, elem)
	sb.WriteString("\treturn int64(len(items)), StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_seq_%s_at(handle Handle, index int64) (%s, Status) {\n", elem, goType)
	fmt.Fprintf(&sb, "\tvar zero %s\n", goType)
	sb.WriteString(handleGuard("zero"))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\tSetLastError(CurrentThreadID(), status.String())\n\t\treturn zero, status\n\t}\n")
	fmt.Fprintf(&sb, "\titems, ok := v.([]%s)\n\tif !ok {\n\t\tSetLastError(CurrentThreadID(), \"handle is not a seq of %s\")\n\t\treturn zero, StatusError\n\t}\n", goType, elem)
	sb.WriteString("\tif index < 0 || index >= int64(len(items)) {\n\t\tSetLastError(CurrentThreadID(), fmt.Sprintf(\"index %d out of bounds for length %d\", index, len(items)))\n\t\treturn zero, StatusOutOfBounds\n\t}\n")
	sb.WriteString("\treturn items[index], StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_seq_%s_push(handle Handle, value %s) Status {\n", elem, goType)
	sb.WriteString(handleGuard(""))
	if goType == "string" {
		sb.WriteString(nullByteGuard("value", ""))
	}
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n")
	sb.WriteString("\t\tv, status := GlobalHandleRegistry().Deref(handle)\n\t\tif status != StatusOK {\n\t\t\tSetLastError(CurrentThreadID(), status.String())\n\t\t\treturn status\n\t\t}\n")
	fmt.Fprintf(&sb, "\t\titems, ok := v.([]%s)\n\t\tif !ok {\n\t\t\tSetLastError(CurrentThreadID(), \"handle is not a seq of %s\")\n\t\t\treturn StatusError\n\t\t}\n", goType, elem)
	sb.WriteString("\t\tGlobalHandleRegistry().Replace(handle, append(items, value))\n\t\treturn StatusOK\n\t})\n}\n\n")

	fmt.Fprintf(&sb, "func logos_seq_%s_free(handle Handle) Status {\n", elem)
	sb.WriteString(handleGuard(""))
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n\t\treturn GlobalHandleRegistry().Free(handle)\n\t})\n}\n")

	return sb.String()
}

// EmitSetFamily renders the function family for a deduplicated set of elem:
// new/add/contains/len/free. Add is idempotent the way the interpreter's
// set insert is.
func EmitSetFamily(elem ElemKind) string {
	goType := elem.goType()
	var sb strings.Builder

	fmt.Fprintf(&sb, "func logos_set_%s_new() (Handle, Status) {\n", elem)
	sb.WriteString("\treturn WithPanicBoundaryHandle(CurrentThreadID(), func() (Handle, Status) {\n")
	fmt.Fprintf(&sb, "\t\treturn GlobalHandleRegistry().Register(map[%s]bool{}), StatusOK\n\t})\n}\n\n", goType)

	fmt.Fprintf(&sb, "func logos_set_%s_add(handle Handle, value %s) Status {\n", elem, goType)
	sb.WriteString(handleGuard(""))
	if goType == "string" {
		sb.WriteString(nullByteGuard("value", ""))
	}
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n")
	sb.WriteString("\t\tv, status := GlobalHandleRegistry().Deref(handle)\n\t\tif status != StatusOK {\n\t\t\tSetLastError(CurrentThreadID(), status.String())\n\t\t\treturn status\n\t\t}\n")
	fmt.Fprintf(&sb, "\t\titems, ok := v.(map[%s]bool)\n\t\tif !ok {\n\t\t\tSetLastError(CurrentThreadID(), \"handle is not a set of %s\")\n\t\t\treturn StatusError\n\t\t}\n", goType, elem)
	sb.WriteString("\t\titems[value] = true\n\t\treturn StatusOK\n\t})\n}\n\n")

	fmt.Fprintf(&sb, "func logos_set_%s_contains(handle Handle, value %s) (bool, Status) {\n", elem, goType)
	sb.WriteString(handleGuard("false"))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\tSetLastError(CurrentThreadID(), status.String())\n\t\treturn false, status\n\t}\n")
	fmt.Fprintf(&sb, "\titems, ok := v.(map[%s]bool)\n\tif !ok {\n\t\tSetLastError(CurrentThreadID(), \"handle is not a set of %s\")\n\t\treturn false, StatusError\n\t}\n", goType, elem)
	sb.WriteString("\treturn items[value], StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_set_%s_len(handle Handle) (int64, Status) {\n", elem)
	sb.WriteString(handleGuard("0"))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\tSetLastError(CurrentThreadID(), status.String())\n\t\treturn 0, status\n\t}\n")
	fmt.Fprintf(&sb, "\titems, ok := v.(map[%s]bool)\n\tif !ok {\n\t\tSetLastError(CurrentThreadID(), \"handle is not a set of %s\")\n\t\treturn 0, StatusError\n\t}\n", goType, elem)
	sb.WriteString("\treturn int64(len(items)), StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_set_%s_free(handle Handle) Status {\n", elem)
	sb.WriteString(handleGuard(""))
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n\t\treturn GlobalHandleRegistry().Free(handle)\n\t})\n}\n")

	return sb.String()
}

// EmitMapFamily renders the function family for a map keyed by key with
// elem values: new/put/get/len/free. Get on a missing key reports
// OutOfBounds rather than inventing a zero entry.
func EmitMapFamily(key, elem ElemKind) string {
	keyType := key.goType()
	valType := elem.goType()
	var sb strings.Builder

	fmt.Fprintf(&sb, "func logos_map_%s_%s_new() (Handle, Status) {\n", key, elem)
	sb.WriteString("\treturn WithPanicBoundaryHandle(CurrentThreadID(), func() (Handle, Status) {\n")
	fmt.Fprintf(&sb, "\t\treturn GlobalHandleRegistry().Register(map[%s]%s{}), StatusOK\n\t})\n}\n\n", keyType, valType)

	fmt.Fprintf(&sb, "func logos_map_%s_%s_put(handle Handle, key %s, value %s) Status {\n", key, elem, keyType, valType)
	sb.WriteString(handleGuard(""))
	if keyType == "string" {
		sb.WriteString(nullByteGuard("key", ""))
	}
	if valType == "string" {
		sb.WriteString(nullByteGuard("value", ""))
	}
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n")
	sb.WriteString("\t\tv, status := GlobalHandleRegistry().Deref(handle)\n\t\tif status != StatusOK {\n\t\t\tSetLastError(CurrentThreadID(), status.String())\n\t\t\treturn status\n\t\t}\n")
	fmt.Fprintf(&sb, "\t\tentries, ok := v.(map[%s]%s)\n\t\tif !ok {\n\t\t\tSetLastError(CurrentThreadID(), \"handle is not a map of %s to %s\")\n\t\t\treturn StatusError\n\t\t}\n", keyType, valType, key, elem)
	sb.WriteString("\t\tentries[key] = value\n\t\treturn StatusOK\n\t})\n}\n\n")

	fmt.Fprintf(&sb, "func logos_map_%s_%s_get(handle Handle, key %s) (%s, Status) {\n", key, elem, keyType, valType)
	fmt.Fprintf(&sb, "\tvar zero %s\n", valType)
	sb.WriteString(handleGuard("zero"))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\tSetLastError(CurrentThreadID(), status.String())\n\t\treturn zero, status\n\t}\n")
	fmt.Fprintf(&sb, "\tentries, ok := v.(map[%s]%s)\n\tif !ok {\n\t\tSetLastError(CurrentThreadID(), \"handle is not a map of %s to %s\")\n\t\treturn zero, StatusError\n\t}\n", keyType, valType, key, elem)
	sb.WriteString("\tout, present := entries[key]\n\tif !present {\n\t\tSetLastError(CurrentThreadID(), \"key not present\")\n\t\treturn zero, StatusOutOfBounds\n\t}\n")
	sb.WriteString("\treturn out, StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_map_%s_%s_len(handle Handle) (int64, Status) {\n", key, elem)
	sb.WriteString(handleGuard("0"))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\tSetLastError(CurrentThreadID(), status.String())\n\t\treturn 0, status\n\t}\n")
	fmt.Fprintf(&sb, "\tentries, ok := v.(map[%s]%s)\n\tif !ok {\n\t\tSetLastError(CurrentThreadID(), \"handle is not a map of %s to %s\")\n\t\treturn 0, StatusError\n\t}\n", keyType, valType, key, elem)
	sb.WriteString("\treturn int64(len(entries)), StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_map_%s_%s_free(handle Handle) Status {\n", key, elem)
	sb.WriteString(handleGuard(""))
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n\t\treturn GlobalHandleRegistry().Free(handle)\n\t})\n}\n")

	return sb.String()
}

// optionCell is the registry payload behind an option handle: the value
// plus a presence flag, so None of any element type is representable
// without a sentinel value.
type optionCell[T any] struct {
	Value   T
	Present bool
}

// EmitOptionFamily renders the function family for option-of-elem:
// some/none/is_some/get/free. Get on a None returns the element's zero
// value alongside an Error status and a descriptive last-error, the same
// wrong-shape contract union accessors follow.
func EmitOptionFamily(elem ElemKind) string {
	goType := elem.goType()
	var sb strings.Builder

	fmt.Fprintf(&sb, "func logos_option_%s_some(value %s) (Handle, Status) {\n", elem, goType)
	if goType == "string" {
		sb.WriteString(nullByteGuard("value", "0"))
	}
	sb.WriteString("\treturn WithPanicBoundaryHandle(CurrentThreadID(), func() (Handle, Status) {\n")
	fmt.Fprintf(&sb, "\t\treturn GlobalHandleRegistry().Register(optionCell[%s]{Value: value, Present: true}), StatusOK\n\t})\n}\n\n", goType)

	fmt.Fprintf(&sb, "func logos_option_%s_none() (Handle, Status) {\n", elem)
	sb.WriteString("\treturn WithPanicBoundaryHandle(CurrentThreadID(), func() (Handle, Status) {\n")
	fmt.Fprintf(&sb, "\t\treturn GlobalHandleRegistry().Register(optionCell[%s]{}), StatusOK\n\t})\n}\n\n", goType)

	fmt.Fprintf(&sb, "func logos_option_%s_is_some(handle Handle) (bool, Status) {\n", elem)
	sb.WriteString(handleGuard("false"))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\tSetLastError(CurrentThreadID(), status.String())\n\t\treturn false, status\n\t}\n")
	fmt.Fprintf(&sb, "\tcell, ok := v.(optionCell[%s])\n\tif !ok {\n\t\tSetLastError(CurrentThreadID(), \"handle is not an option of %s\")\n\t\treturn false, StatusError\n\t}\n", goType, elem)
	sb.WriteString("\treturn cell.Present, StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_option_%s_get(handle Handle) (%s, Status) {\n", elem, goType)
	fmt.Fprintf(&sb, "\tvar zero %s\n", goType)
	sb.WriteString(handleGuard("zero"))
	sb.WriteString("\tv, status := GlobalHandleRegistry().Deref(handle)\n\tif status != StatusOK {\n\t\tSetLastError(CurrentThreadID(), status.String())\n\t\treturn zero, status\n\t}\n")
	fmt.Fprintf(&sb, "\tcell, ok := v.(optionCell[%s])\n\tif !ok {\n\t\tSetLastError(CurrentThreadID(), \"handle is not an option of %s\")\n\t\treturn zero, StatusError\n\t}\n", goType, elem)
	sb.WriteString("\tif !cell.Present {\n\t\tSetLastError(CurrentThreadID(), \"option is None\")\n\t\treturn zero, StatusError\n\t}\n")
	sb.WriteString("\treturn cell.Value, StatusOK\n}\n\n")

	fmt.Fprintf(&sb, "func logos_option_%s_free(handle Handle) Status {\n", elem)
	sb.WriteString(handleGuard(""))
	sb.WriteString("\treturn WithPanicBoundary(CurrentThreadID(), func() Status {\n\t\treturn GlobalHandleRegistry().Free(handle)\n\t})\n}\n")

	return sb.String()
}
