// Package interp is the tree-walking interpreter. A single evaluator runs
// every statement; its suspension points always go through context-aware
// calls, and NeedsAsync is not consulted to pick a separate sync path.
package interp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// Value is the runtime representation of every value the interpreter
// manipulates. List/Set/Map carry pointer semantics: interior mutability,
// shared by ordinary clone, with DeepClone as the explicit escape hatch.
type Value interface {
	isValue()
	TypeName() string
}

type (
	IntValue    int64
	FloatValue  float64
	BoolValue   bool
	TextValue   string
	CharValue   rune
	NothingValue struct{}

	// ListValue is a shared, interior-mutable vector.
	ListValue struct{ Items *[]Value }
	// TupleValue is shared but immutable.
	TupleValue struct{ Items []Value }
	// SetValue is shared, interior-mutable, deduplicated on insert.
	SetValue struct{ Items *[]Value }
	// MapValue is a shared, interior-mutable hashtable keyed by a
	// stringified Value (Value itself isn't comparable in Go the way it
	// is hashable in Rust, so mapKey renders a stable key string).
	MapValue struct {
		Keys   *[]Value
		Values *map[string]Value
	}

	StructValue struct {
		Type   string
		Fields map[string]Value
		// FieldOrder preserves declaration order for display and to_json.
		FieldOrder []string
	}

	InductiveValue struct {
		InductiveType string
		Constructor   string
		Args          []Value
	}

	ClosureValue struct {
		BodyIndex   int
		Params      []intern.Symbol
		CapturedEnv map[intern.Symbol]Value
	}

	DurationValue Duration
	DateValue     Date
	MomentValue   Moment
	SpanValue     Span
	TimeValue     TimeOfDay
)

func (IntValue) isValue()       {}
func (FloatValue) isValue()     {}
func (BoolValue) isValue()      {}
func (TextValue) isValue()      {}
func (CharValue) isValue()      {}
func (NothingValue) isValue()   {}
func (ListValue) isValue()      {}
func (TupleValue) isValue()     {}
func (SetValue) isValue()       {}
func (MapValue) isValue()       {}
func (*StructValue) isValue()   {}
func (*InductiveValue) isValue() {}
func (*ClosureValue) isValue()  {}
func (DurationValue) isValue()  {}
func (DateValue) isValue()      {}
func (MomentValue) isValue()    {}
func (SpanValue) isValue()      {}
func (TimeValue) isValue()      {}

func (IntValue) TypeName() string       { return "Int" }
func (FloatValue) TypeName() string     { return "Float" }
func (BoolValue) TypeName() string      { return "Bool" }
func (TextValue) TypeName() string      { return "Text" }
func (CharValue) TypeName() string      { return "Char" }
func (NothingValue) TypeName() string   { return "Nothing" }
func (ListValue) TypeName() string      { return "List" }
func (TupleValue) TypeName() string     { return "Tuple" }
func (SetValue) TypeName() string       { return "Set" }
func (MapValue) TypeName() string       { return "Map" }
func (s *StructValue) TypeName() string { return s.Type }
func (i *InductiveValue) TypeName() string { return i.InductiveType }
func (*ClosureValue) TypeName() string  { return "Function" }
func (DurationValue) TypeName() string  { return "Duration" }
func (DateValue) TypeName() string      { return "Date" }
func (MomentValue) TypeName() string    { return "Moment" }
func (SpanValue) TypeName() string      { return "Span" }
func (TimeValue) TypeName() string      { return "Time" }

// NewListValue builds a ListValue owning items; the caller should not
// retain items after passing it in, since List has interior-mutable
// pointer semantics.
func NewListValue(items []Value) ListValue {
	if items == nil {
		items = []Value{}
	}
	return ListValue{Items: &items}
}

// NewSetValue builds a SetValue owning items without deduplicating; callers
// reconstructing a previously-deduplicated set (e.g. persist's decoder) can
// rely on the source already having been deduplicated on insert.
func NewSetValue(items []Value) SetValue {
	if items == nil {
		items = []Value{}
	}
	return SetValue{Items: &items}
}

// NewMapValue builds a MapValue from parallel key/value slices.
func NewMapValue(keys, vals []Value) MapValue {
	ks := append([]Value(nil), keys...)
	values := make(map[string]Value, len(keys))
	for i, k := range ks {
		if i < len(vals) {
			values[mapKey(k)] = vals[i]
		}
	}
	return MapValue{Keys: &ks, Values: &values}
}

// MapKeys returns m's keys in insertion order.
func MapKeys(m MapValue) []Value {
	return *m.Keys
}

// MapLookup retrieves the value bound to k in m.
func MapLookup(m MapValue, k Value) (Value, bool) {
	v, ok := (*m.Values)[mapKey(k)]
	return v, ok
}

// IsTruthy reports whether v is true in a boolean context: Bool(true),
// a non-zero Int, or any value other than Nothing/Bool(false)/Int(0).
func IsTruthy(v Value) bool {
	switch t := v.(type) {
	case BoolValue:
		return bool(t)
	case IntValue:
		return t != 0
	case NothingValue:
		return false
	default:
		return true
	}
}

// DeepClone produces a fully independent copy of v; shared collections are
// recursively copied rather than aliased, the counterpart of ordinary
// Clone (Go's assignment) which preserves sharing for interior-mutable
// values.
func DeepClone(v Value) Value {
	switch t := v.(type) {
	case ListValue:
		items := make([]Value, len(*t.Items))
		for i, el := range *t.Items {
			items[i] = DeepClone(el)
		}
		return ListValue{Items: &items}
	case SetValue:
		items := make([]Value, len(*t.Items))
		for i, el := range *t.Items {
			items[i] = DeepClone(el)
		}
		return SetValue{Items: &items}
	case MapValue:
		keys := make([]Value, len(*t.Keys))
		values := make(map[string]Value, len(*t.Values))
		for i, k := range *t.Keys {
			keys[i] = DeepClone(k)
		}
		for k, val := range *t.Values {
			values[k] = DeepClone(val)
		}
		return MapValue{Keys: &keys, Values: &values}
	case TupleValue:
		items := make([]Value, len(t.Items))
		for i, el := range t.Items {
			items[i] = DeepClone(el)
		}
		return TupleValue{Items: items}
	case *StructValue:
		fields := make(map[string]Value, len(t.Fields))
		for k, val := range t.Fields {
			fields[k] = DeepClone(val)
		}
		return &StructValue{Type: t.Type, Fields: fields, FieldOrder: append([]string(nil), t.FieldOrder...)}
	case *InductiveValue:
		args := make([]Value, len(t.Args))
		for i, a := range t.Args {
			args[i] = DeepClone(a)
		}
		return &InductiveValue{InductiveType: t.InductiveType, Constructor: t.Constructor, Args: args}
	case *ClosureValue:
		env := make(map[intern.Symbol]Value, len(t.CapturedEnv))
		for k, val := range t.CapturedEnv {
			env[k] = DeepClone(val)
		}
		return &ClosureValue{BodyIndex: t.BodyIndex, Params: t.Params, CapturedEnv: env}
	default:
		return v // scalars are already independent
	}
}

// Display renders v the way "show" does, magnitude-bucketed duration
// units included.
func Display(v Value) string {
	switch t := v.(type) {
	case IntValue:
		return strconv.FormatInt(int64(t), 10)
	case FloatValue:
		s := strconv.FormatFloat(float64(t), 'f', 6, 64)
		s = strings.TrimRight(s, "0")
		return strings.TrimRight(s, ".")
	case BoolValue:
		if t {
			return "true"
		}
		return "false"
	case TextValue:
		return string(t)
	case CharValue:
		return string(rune(t))
	case NothingValue:
		return "nothing"
	case ListValue:
		return "[" + joinDisplay(*t.Items) + "]"
	case TupleValue:
		return "(" + joinDisplay(t.Items) + ")"
	case SetValue:
		return "{" + joinDisplay(*t.Items) + "}"
	case MapValue:
		keys := append([]Value(nil), *t.Keys...)
		sort.Slice(keys, func(i, j int) bool { return mapKey(keys[i]) < mapKey(keys[j]) })
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", Display(k), Display((*t.Values)[mapKey(k)]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *StructValue:
		if len(t.FieldOrder) == 0 {
			return t.Type
		}
		parts := make([]string, len(t.FieldOrder))
		for i, name := range t.FieldOrder {
			parts[i] = fmt.Sprintf("%s: %s", name, Display(t.Fields[name]))
		}
		return fmt.Sprintf("%s { %s }", t.Type, strings.Join(parts, ", "))
	case *InductiveValue:
		if len(t.Args) == 0 {
			return t.Constructor
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = Display(a)
		}
		return fmt.Sprintf("%s(%s)", t.Constructor, strings.Join(parts, ", "))
	case *ClosureValue:
		return "<closure>"
	case DurationValue:
		return displayDuration(int64(t))
	case DateValue:
		d := Date(t)
		return fmt.Sprintf("%04d-%02d-%02d", d.Year(), d.Month(), d.Day())
	case MomentValue:
		return displayMoment(int64(t))
	case SpanValue:
		return displaySpan(int32(t.Months), int32(t.Days))
	case TimeValue:
		return displayTimeOfDay(int64(t))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func joinDisplay(items []Value) string {
	parts := make([]string, len(items))
	for i, v := range items {
		parts[i] = Display(v)
	}
	return strings.Join(parts, ", ")
}

// mapKey renders a stable string key for a Value used as a map key; Text
// and Int keys (the common cases) render directly, everything else falls
// back to its display form.
func mapKey(v Value) string {
	switch t := v.(type) {
	case TextValue:
		return "s:" + string(t)
	case IntValue:
		return "i:" + strconv.FormatInt(int64(t), 10)
	default:
		return "d:" + Display(v)
	}
}

func displayDuration(nanos int64) string {
	sign := ""
	abs := nanos
	if nanos < 0 {
		sign = "-"
		abs = -nanos
	}
	switch {
	case abs >= 3_600_000_000_000:
		return fmt.Sprintf("%s%dh", sign, abs/3_600_000_000_000)
	case abs >= 60_000_000_000:
		return fmt.Sprintf("%s%dmin", sign, abs/60_000_000_000)
	case abs >= 1_000_000_000:
		return fmt.Sprintf("%s%ds", sign, abs/1_000_000_000)
	case abs >= 1_000_000:
		return fmt.Sprintf("%s%dms", sign, abs/1_000_000)
	case abs >= 1_000:
		return fmt.Sprintf("%s%dμs", sign, abs/1_000)
	default:
		return fmt.Sprintf("%s%dns", sign, abs)
	}
}

func displayMoment(nanos int64) string {
	totalSeconds := nanos / 1_000_000_000
	days := int32(totalSeconds / 86400)
	daySeconds := totalSeconds % 86400
	hours := daySeconds / 3600
	minutes := (daySeconds % 3600) / 60
	d := Date(days)
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", d.Year(), d.Month(), d.Day(), hours, minutes)
}

func displaySpan(months, days int32) string {
	var parts []string
	years := months / 12
	remMonths := months % 12

	if years != 0 {
		unit := "years"
		if abs32(years) == 1 {
			unit = "year"
		}
		parts = append(parts, fmt.Sprintf("%d %s", years, unit))
	}
	if remMonths != 0 {
		unit := "months"
		if abs32(remMonths) == 1 {
			unit = "month"
		}
		parts = append(parts, fmt.Sprintf("%d %s", remMonths, unit))
	}
	if days != 0 || len(parts) == 0 {
		unit := "days"
		if abs32(days) == 1 {
			unit = "day"
		}
		parts = append(parts, fmt.Sprintf("%d %s", days, unit))
	}
	return strings.Join(parts, " and ")
}

func abs32(n int32) int32 {
	if n < 0 {
		return -n
	}
	return n
}

func displayTimeOfDay(nanos int64) string {
	totalSeconds := nanos / 1_000_000_000
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
