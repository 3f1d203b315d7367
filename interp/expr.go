package interp

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// builtin is a pre-interned dispatch target for one of the fixed built-in
// functions; the set is small and fixed, so the Interpreter compares a
// resolved CallExpr.Function symbol against these ints rather than
// resolving the symbol back to a string on every call.
type builtin int

const (
	builtinNone builtin = iota
	builtinShow
	builtinLength
	builtinFormat
	builtinParseInt
	builtinParseFloat
	builtinAbs
	builtinMin
	builtinMax
	builtinCopy
)

// builtinSymbols interns the fixed built-in names once per interner so
// dispatch in Eval is an integer comparison on pre-interned symbols, never
// a string match. One instance is built in New and shared by every forked
// Interpreter.
type builtinSymbols struct {
	byName map[intern.Symbol]builtin
}

func newBuiltinSymbols(in *intern.Interner) *builtinSymbols {
	return &builtinSymbols{byName: map[intern.Symbol]builtin{
		in.Intern("show"):       builtinShow,
		in.Intern("length"):     builtinLength,
		in.Intern("format"):     builtinFormat,
		in.Intern("parseInt"):   builtinParseInt,
		in.Intern("parseFloat"): builtinParseFloat,
		in.Intern("abs"):        builtinAbs,
		in.Intern("min"):        builtinMin,
		in.Intern("max"):        builtinMax,
		in.Intern("copy"):       builtinCopy,
	}}
}

// Eval evaluates e to a runtime Value under ctx, the counterpart of Exec for
// expressions.
func (it *Interpreter) Eval(ctx context.Context, e ast.Expr) (Value, error) {
	switch v := e.(type) {
	case ast.LiteralExpr:
		return evalLiteral(v.Value), nil

	case ast.IdentExpr:
		val, ok := it.Env.Get(v.Name)
		if !ok {
			return nil, NewRuntimeError("undefined variable %q", it.Interner.MustResolve(v.Name))
		}
		return val, nil

	case ast.BinaryExpr:
		return it.evalBinary(ctx, v)

	case ast.CallExpr:
		return it.evalCall(ctx, v)

	case ast.CallIndirectExpr:
		callee, err := it.Eval(ctx, v.Callee)
		if err != nil {
			return nil, err
		}
		closure, ok := callee.(*ClosureValue)
		if !ok {
			return nil, NewRuntimeError("cannot call a %s", callee.TypeName())
		}
		args, err := it.evalArgs(ctx, v.Args)
		if err != nil {
			return nil, err
		}
		return it.callClosure(ctx, closure, args)

	case ast.FieldAccessExpr:
		obj, err := it.Eval(ctx, v.Object)
		if err != nil {
			return nil, err
		}
		rec, ok := obj.(*StructValue)
		if !ok {
			return nil, NewRuntimeError("cannot access field on a %s", obj.TypeName())
		}
		name := it.Interner.MustResolve(v.Field)
		val, ok := rec.Fields[name]
		if !ok {
			return nil, NewRuntimeError("%s has no field %q", rec.Type, name)
		}
		return val, nil

	case ast.IndexExpr:
		coll, err := it.Eval(ctx, v.Collection)
		if err != nil {
			return nil, err
		}
		idx, err := it.Eval(ctx, v.Index)
		if err != nil {
			return nil, err
		}
		return indexInto(coll, idx)

	case ast.SliceExpr:
		return it.evalSlice(ctx, v)

	case ast.ListExpr:
		items, err := it.evalArgs(ctx, v.Elements)
		if err != nil {
			return nil, err
		}
		return ListValue{Items: &items}, nil

	case ast.TupleExpr:
		items, err := it.evalArgs(ctx, v.Elements)
		if err != nil {
			return nil, err
		}
		return TupleValue{Items: items}, nil

	case ast.RangeExpr:
		start, err := it.Eval(ctx, v.Start)
		if err != nil {
			return nil, err
		}
		end, err := it.Eval(ctx, v.End)
		if err != nil {
			return nil, err
		}
		lo, ok := start.(IntValue)
		if !ok {
			return nil, NewRuntimeError("range start expects an Int, got %s", start.TypeName())
		}
		hi, ok := end.(IntValue)
		if !ok {
			return nil, NewRuntimeError("range end expects an Int, got %s", end.TypeName())
		}
		items := make([]Value, 0, int(hi-lo))
		for i := lo; i < hi; i++ {
			items = append(items, i)
		}
		return ListValue{Items: &items}, nil

	case ast.RecordExpr:
		return it.evalRecord(ctx, v.TypeName, v.Fields)

	case ast.VariantExpr:
		args := make([]Value, len(v.Fields))
		for i, f := range v.Fields {
			val, err := it.Eval(ctx, f.Value)
			if err != nil {
				return nil, err
			}
			args[i] = val
		}
		return &InductiveValue{
			InductiveType: it.Interner.MustResolve(v.TypeName),
			Constructor:   it.Interner.MustResolve(v.VariantName),
			Args:          args,
		}, nil

	case ast.CopyExpr:
		val, err := it.Eval(ctx, v.Object)
		if err != nil {
			return nil, err
		}
		return DeepClone(val), nil

	case ast.GiveExpr:
		return it.Eval(ctx, v.Object)

	case ast.LengthExpr:
		val, err := it.Eval(ctx, v.Object)
		if err != nil {
			return nil, err
		}
		return lengthOf(val)

	case ast.ContainsExpr:
		coll, err := it.Eval(ctx, v.Collection)
		if err != nil {
			return nil, err
		}
		needle, err := it.Eval(ctx, v.Needle)
		if err != nil {
			return nil, err
		}
		return containsIn(coll, needle)

	case ast.SetUnionExpr:
		left, err := it.Eval(ctx, v.Left)
		if err != nil {
			return nil, err
		}
		right, err := it.Eval(ctx, v.Right)
		if err != nil {
			return nil, err
		}
		return setUnion(left, right)

	case ast.SetIntersectExpr:
		left, err := it.Eval(ctx, v.Left)
		if err != nil {
			return nil, err
		}
		right, err := it.Eval(ctx, v.Right)
		if err != nil {
			return nil, err
		}
		return setIntersect(left, right)

	case ast.OptionSomeExpr:
		val, err := it.Eval(ctx, v.Value)
		if err != nil {
			return nil, err
		}
		return &InductiveValue{InductiveType: "Option", Constructor: "Some", Args: []Value{val}}, nil

	case ast.OptionNoneExpr:
		return &InductiveValue{InductiveType: "Option", Constructor: "None"}, nil

	case ast.WithCapacityExpr:
		// Capacity is a pre-allocation hint with no observable effect on a
		// slice-backed runtime value; evaluate it for its side effects only.
		if _, err := it.Eval(ctx, v.Capacity); err != nil {
			return nil, err
		}
		return it.Eval(ctx, v.Inner)

	case ast.InterpolatedStringExpr:
		return it.evalInterpolated(ctx, v)

	case ast.ClosureExpr:
		idx := it.registerClosure(v.Body, v.Block)
		captured := map[intern.Symbol]Value{}
		for _, sym := range freeVariables(v.Body, v.Block, v.Params) {
			if val, ok := it.Env.Get(sym); ok {
				captured[sym] = DeepClone(val)
			}
		}
		return &ClosureValue{BodyIndex: idx, Params: v.Params, CapturedEnv: captured}, nil

	case ast.EscapeExpr:
		return nil, NewRuntimeError("escape expressions have no interpreter semantics: %s", v.Code)

	default:
		return nil, NewRuntimeError("unhandled expression %T", e)
	}
}

func (it *Interpreter) evalArgs(ctx context.Context, exprs []ast.Expr) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		val, err := it.Eval(ctx, e)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func (it *Interpreter) evalRecord(ctx context.Context, typeName intern.Symbol, fields []ast.FieldInit) (Value, error) {
	m := make(map[string]Value, len(fields))
	order := make([]string, len(fields))
	for i, f := range fields {
		val, err := it.Eval(ctx, f.Value)
		if err != nil {
			return nil, err
		}
		name := it.Interner.MustResolve(f.Name)
		m[name] = val
		order[i] = name
	}
	return &StructValue{Type: it.Interner.MustResolve(typeName), Fields: m, FieldOrder: order}, nil
}

func (it *Interpreter) evalSlice(ctx context.Context, v ast.SliceExpr) (Value, error) {
	coll, err := it.Eval(ctx, v.Collection)
	if err != nil {
		return nil, err
	}
	list, ok := coll.(ListValue)
	if !ok {
		return nil, NewRuntimeError("slice expects a List, got %s", coll.TypeName())
	}
	items := *list.Items
	start, end := 0, len(items)
	if v.Start != nil {
		s, err := it.Eval(ctx, v.Start)
		if err != nil {
			return nil, err
		}
		n, ok := s.(IntValue)
		if !ok {
			return nil, NewRuntimeError("slice start expects an Int, got %s", s.TypeName())
		}
		start = int(n) - 1
	}
	if v.End != nil {
		e, err := it.Eval(ctx, v.End)
		if err != nil {
			return nil, err
		}
		n, ok := e.(IntValue)
		if !ok {
			return nil, NewRuntimeError("slice end expects an Int, got %s", e.TypeName())
		}
		end = int(n)
	}
	if start < 0 || end > len(items) || start > end {
		return nil, NewRuntimeError("slice bounds [%d:%d] out of range for length %d", start+1, end, len(items))
	}
	sliced := append([]Value(nil), items[start:end]...)
	return ListValue{Items: &sliced}, nil
}

func (it *Interpreter) evalInterpolated(ctx context.Context, s ast.InterpolatedStringExpr) (Value, error) {
	var b strings.Builder
	for _, part := range s.Parts {
		if part.Value == nil {
			b.WriteString(part.Literal)
			continue
		}
		val, err := it.Eval(ctx, part.Value)
		if err != nil {
			return nil, err
		}
		rendered := formatValue(val, part.FormatSpec)
		if part.Debug {
			b.WriteString(exprSourceHint(it.Interner, part.Value))
			b.WriteString("=")
		}
		b.WriteString(rendered)
	}
	return TextValue(b.String()), nil
}

// exprSourceHint renders a best-effort source-like label for a debug
// interpolation hole ("$var=" style); only identifiers get a meaningful
// label since literal source text isn't retained on the AST node.
func exprSourceHint(in *intern.Interner, e ast.Expr) string {
	if id, ok := e.(ast.IdentExpr); ok {
		return in.MustResolve(id.Name)
	}
	return "expr"
}

func formatValue(v Value, spec string) string {
	if spec == "" {
		return Display(v)
	}
	switch {
	case spec == "$":
		if f, ok := v.(FloatValue); ok {
			return fmt.Sprintf("$%.2f", float64(f))
		}
		return "$" + Display(v)
	case strings.HasPrefix(spec, "."):
		if prec, err := strconv.Atoi(spec[1:]); err == nil {
			if f, ok := v.(FloatValue); ok {
				return strconv.FormatFloat(float64(f), 'f', prec, 64)
			}
		}
		return Display(v)
	default:
		return Display(v)
	}
}

func evalLiteral(l ast.Literal) Value {
	switch t := l.(type) {
	case ast.IntLiteral:
		return IntValue(t.Value)
	case ast.FloatLiteral:
		return FloatValue(t.Value)
	case ast.TextLiteral:
		return TextValue(t.Value)
	case ast.BoolLiteral:
		return BoolValue(t.Value)
	case ast.CharLiteral:
		return CharValue(t.Value)
	case ast.NothingLiteral:
		return NothingValue{}
	case ast.DurationLiteral:
		return DurationValue(t.Nanos)
	case ast.DateLiteral:
		return DateValue(t.Days)
	case ast.MomentLiteral:
		return MomentValue(t.Nanos)
	case ast.SpanLiteral:
		return SpanValue{Months: t.Months, Days: t.Days}
	case ast.TimeOfDayLiteral:
		return TimeValue(t.Nanos)
	default:
		return NothingValue{}
	}
}

func (it *Interpreter) evalBinary(ctx context.Context, b ast.BinaryExpr) (Value, error) {
	left, err := it.Eval(ctx, b.Left)
	if err != nil {
		return nil, err
	}

	// Short-circuit boolean operators evaluate Right only when needed.
	if b.Op == ast.And {
		if !IsTruthy(left) {
			return BoolValue(false), nil
		}
		right, err := it.Eval(ctx, b.Right)
		if err != nil {
			return nil, err
		}
		return BoolValue(IsTruthy(right)), nil
	}
	if b.Op == ast.Or {
		if IsTruthy(left) {
			return BoolValue(true), nil
		}
		right, err := it.Eval(ctx, b.Right)
		if err != nil {
			return nil, err
		}
		return BoolValue(IsTruthy(right)), nil
	}

	right, err := it.Eval(ctx, b.Right)
	if err != nil {
		return nil, err
	}

	switch b.Op {
	case ast.Eq:
		return BoolValue(valuesEqual(left, right)), nil
	case ast.Neq:
		return BoolValue(!valuesEqual(left, right)), nil
	case ast.Concat:
		return TextValue(Display(left) + Display(right)), nil
	}

	if calResult, handled, err := evalCalendarBinary(b.Op, left, right); handled {
		return calResult, err
	}

	li, lIsInt := left.(IntValue)
	ri, rIsInt := right.(IntValue)
	if lIsInt && rIsInt {
		switch b.Op {
		case ast.Add:
			return li + ri, nil
		case ast.Sub:
			return li - ri, nil
		case ast.Mul:
			return li * ri, nil
		case ast.Div:
			if ri == 0 {
				return nil, NewRuntimeError("division by zero")
			}
			return li / ri, nil
		case ast.Mod:
			if ri == 0 {
				return nil, NewRuntimeError("division by zero")
			}
			return li % ri, nil
		case ast.Lt:
			return BoolValue(li < ri), nil
		case ast.Gt:
			return BoolValue(li > ri), nil
		case ast.Le:
			return BoolValue(li <= ri), nil
		case ast.Ge:
			return BoolValue(li >= ri), nil
		case ast.BitXor:
			return li ^ ri, nil
		case ast.Shl:
			return li << uint(ri), nil
		case ast.Shr:
			return li >> uint(ri), nil
		}
	}

	lf, lok := asFloat(left)
	rf, rok := asFloat(right)
	if lok && rok {
		switch b.Op {
		case ast.Add:
			return FloatValue(lf + rf), nil
		case ast.Sub:
			return FloatValue(lf - rf), nil
		case ast.Mul:
			return FloatValue(lf * rf), nil
		case ast.Div:
			if rf == 0 {
				return nil, NewRuntimeError("division by zero")
			}
			return FloatValue(lf / rf), nil
		case ast.Lt:
			return BoolValue(lf < rf), nil
		case ast.Gt:
			return BoolValue(lf > rf), nil
		case ast.Le:
			return BoolValue(lf <= rf), nil
		case ast.Ge:
			return BoolValue(lf >= rf), nil
		}
	}

	return nil, NewRuntimeError("unsupported operands %s, %s for binary operator", left.TypeName(), right.TypeName())
}

// evalCalendarBinary handles the binary operators that mix calendar value
// kinds (Date+Span, Moment+Duration, Moment-Moment, and their orderings);
// handled is false when neither operand is a calendar value, letting the
// caller fall through to the numeric/text cases.
func evalCalendarBinary(op ast.BinaryOp, left, right Value) (Value, bool, error) {
	switch l := left.(type) {
	case DateValue:
		switch r := right.(type) {
		case SpanValue:
			switch op {
			case ast.Add:
				return DateValue(Date(l).AddSpan(Span(r))), true, nil
			case ast.Sub:
				return DateValue(Date(l).AddSpan(Span{Months: -r.Months, Days: -r.Days})), true, nil
			}
		case DateValue:
			switch op {
			case ast.Lt:
				return BoolValue(l < r), true, nil
			case ast.Gt:
				return BoolValue(l > r), true, nil
			case ast.Le:
				return BoolValue(l <= r), true, nil
			case ast.Ge:
				return BoolValue(l >= r), true, nil
			}
		}
	case DurationValue:
		if r, ok := right.(DurationValue); ok {
			switch op {
			case ast.Add:
				return l + r, true, nil
			case ast.Sub:
				return l - r, true, nil
			case ast.Lt:
				return BoolValue(l < r), true, nil
			case ast.Gt:
				return BoolValue(l > r), true, nil
			case ast.Le:
				return BoolValue(l <= r), true, nil
			case ast.Ge:
				return BoolValue(l >= r), true, nil
			}
		}
	case MomentValue:
		switch r := right.(type) {
		case DurationValue:
			switch op {
			case ast.Add:
				return l + MomentValue(r), true, nil
			case ast.Sub:
				return l - MomentValue(r), true, nil
			}
		case MomentValue:
			switch op {
			case ast.Sub:
				return DurationValue(l - r), true, nil
			case ast.Lt:
				return BoolValue(l < r), true, nil
			case ast.Gt:
				return BoolValue(l > r), true, nil
			case ast.Le:
				return BoolValue(l <= r), true, nil
			case ast.Ge:
				return BoolValue(l >= r), true, nil
			}
		}
	}
	return nil, false, nil
}

func asFloat(v Value) (float64, bool) {
	switch t := v.(type) {
	case FloatValue:
		return float64(t), true
	case IntValue:
		return float64(t), true
	default:
		return 0, false
	}
}

func (it *Interpreter) evalCall(ctx context.Context, c ast.CallExpr) (Value, error) {
	if b := it.builtins.byName[c.Function]; b != builtinNone {
		args, err := it.evalArgs(ctx, c.Args)
		if err != nil {
			return nil, err
		}
		return it.callBuiltin(b, args)
	}

	callee, ok := it.Env.Get(c.Function)
	if !ok {
		return nil, NewRuntimeError("undefined function %q", it.Interner.MustResolve(c.Function))
	}
	closure, ok := callee.(*ClosureValue)
	if !ok {
		return nil, NewRuntimeError("%q is not callable", it.Interner.MustResolve(c.Function))
	}
	args, err := it.evalArgs(ctx, c.Args)
	if err != nil {
		return nil, err
	}
	return it.callClosure(ctx, closure, args)
}

func (it *Interpreter) callClosure(ctx context.Context, c *ClosureValue, args []Value) (Value, error) {
	if it.callDepth > 100000 {
		return nil, NewRuntimeError("call stack exhausted")
	}
	it.callDepth++
	defer func() { it.callDepth-- }()

	body := it.Closures[c.BodyIndex]
	it.Env.Push()
	defer it.Env.Pop()

	for sym, val := range c.CapturedEnv {
		it.Env.Define(sym, val)
	}
	for i, p := range c.Params {
		var val Value = NothingValue{}
		if i < len(args) {
			val = args[i]
		}
		it.Env.Define(p, val)
	}

	if body.Expr != nil {
		return it.Eval(ctx, body.Expr)
	}
	sig, err := it.Exec(ctx, body.Block)
	if err != nil {
		return nil, err
	}
	if sig.kind == sigReturn {
		return sig.value, nil
	}
	return NothingValue{}, nil
}

func (it *Interpreter) callBuiltin(b builtin, args []Value) (Value, error) {
	switch b {
	case builtinShow:
		line := ""
		if len(args) > 0 {
			line = Display(args[0])
		}
		if it.Output != nil {
			it.Output.WriteLine(line)
		} else {
			fmt.Println(line)
		}
		return NothingValue{}, nil

	case builtinLength:
		if len(args) != 1 {
			return nil, NewRuntimeError("length expects 1 argument, got %d", len(args))
		}
		return lengthOf(args[0])

	case builtinFormat:
		if len(args) < 1 {
			return nil, NewRuntimeError("format expects at least 1 argument")
		}
		spec := ""
		if len(args) > 1 {
			if t, ok := args[1].(TextValue); ok {
				spec = string(t)
			}
		}
		return TextValue(formatValue(args[0], spec)), nil

	case builtinParseInt:
		if len(args) != 1 {
			return nil, NewRuntimeError("parseInt expects 1 argument, got %d", len(args))
		}
		t, ok := args[0].(TextValue)
		if !ok {
			return nil, NewRuntimeError("parseInt expects a Text argument, got %s", args[0].TypeName())
		}
		n, err := strconv.ParseInt(strings.TrimSpace(string(t)), 10, 64)
		if err != nil {
			return nil, WrapRuntimeError(err, "parseInt %q", string(t))
		}
		return IntValue(n), nil

	case builtinParseFloat:
		if len(args) != 1 {
			return nil, NewRuntimeError("parseFloat expects 1 argument, got %d", len(args))
		}
		t, ok := args[0].(TextValue)
		if !ok {
			return nil, NewRuntimeError("parseFloat expects a Text argument, got %s", args[0].TypeName())
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(string(t)), 64)
		if err != nil {
			return nil, WrapRuntimeError(err, "parseFloat %q", string(t))
		}
		return FloatValue(f), nil

	case builtinAbs:
		if len(args) != 1 {
			return nil, NewRuntimeError("abs expects 1 argument, got %d", len(args))
		}
		switch t := args[0].(type) {
		case IntValue:
			if t < 0 {
				return -t, nil
			}
			return t, nil
		case FloatValue:
			return FloatValue(math.Abs(float64(t))), nil
		default:
			return nil, NewRuntimeError("abs expects a numeric argument, got %s", args[0].TypeName())
		}

	case builtinMin:
		return numericFold(args, func(a, b float64) bool { return a < b })

	case builtinMax:
		return numericFold(args, func(a, b float64) bool { return a > b })

	case builtinCopy:
		if len(args) != 1 {
			return nil, NewRuntimeError("copy expects 1 argument, got %d", len(args))
		}
		return DeepClone(args[0]), nil

	default:
		return nil, NewRuntimeError("unhandled built-in")
	}
}

func numericFold(args []Value, better func(a, b float64) bool) (Value, error) {
	if len(args) == 0 {
		return nil, NewRuntimeError("expects at least 1 argument")
	}
	best := args[0]
	bestF, ok := asFloat(best)
	if !ok {
		return nil, NewRuntimeError("expects numeric arguments, got %s", best.TypeName())
	}
	for _, a := range args[1:] {
		f, ok := asFloat(a)
		if !ok {
			return nil, NewRuntimeError("expects numeric arguments, got %s", a.TypeName())
		}
		if better(f, bestF) {
			best, bestF = a, f
		}
	}
	return best, nil
}

// lengthOf reports the element count of a collection or the rune count of
// Text, the two shapes "length" accepts.
func lengthOf(v Value) (Value, error) {
	switch t := v.(type) {
	case TextValue:
		return IntValue(len([]rune(string(t)))), nil
	case ListValue:
		return IntValue(len(*t.Items)), nil
	case SetValue:
		return IntValue(len(*t.Items)), nil
	case TupleValue:
		return IntValue(len(t.Items)), nil
	case MapValue:
		return IntValue(len(*t.Keys)), nil
	default:
		return nil, NewRuntimeError("length expects a collection or Text, got %s", v.TypeName())
	}
}

func containsIn(coll, needle Value) (Value, error) {
	switch t := coll.(type) {
	case ListValue:
		return BoolValue(containsValue(*t.Items, needle)), nil
	case SetValue:
		return BoolValue(containsValue(*t.Items, needle)), nil
	case MapValue:
		_, ok := (*t.Values)[mapKey(needle)]
		return BoolValue(ok), nil
	case TextValue:
		n, ok := needle.(TextValue)
		if !ok {
			return nil, NewRuntimeError("contains on Text expects a Text needle, got %s", needle.TypeName())
		}
		return BoolValue(strings.Contains(string(t), string(n))), nil
	default:
		return nil, NewRuntimeError("contains expects a collection or Text, got %s", coll.TypeName())
	}
}

func setUnion(left, right Value) (Value, error) {
	l, ok := left.(SetValue)
	if !ok {
		return nil, NewRuntimeError("set union expects a Set, got %s", left.TypeName())
	}
	r, ok := right.(SetValue)
	if !ok {
		return nil, NewRuntimeError("set union expects a Set, got %s", right.TypeName())
	}
	items := append([]Value(nil), (*l.Items)...)
	for _, v := range *r.Items {
		if !containsValue(items, v) {
			items = append(items, v)
		}
	}
	return SetValue{Items: &items}, nil
}

func setIntersect(left, right Value) (Value, error) {
	l, ok := left.(SetValue)
	if !ok {
		return nil, NewRuntimeError("set intersect expects a Set, got %s", left.TypeName())
	}
	r, ok := right.(SetValue)
	if !ok {
		return nil, NewRuntimeError("set intersect expects a Set, got %s", right.TypeName())
	}
	var items []Value
	for _, v := range *l.Items {
		if containsValue(*r.Items, v) {
			items = append(items, v)
		}
	}
	return SetValue{Items: &items}, nil
}

// indexInto performs 1-based indexing, matching the source language's index
// convention; codegen/expr's peephole rewrites this to 0-based at the
// target-language boundary, but the interpreter always sees the source
// convention.
func indexInto(coll, idx Value) (Value, error) {
	switch t := coll.(type) {
	case ListValue:
		n, ok := idx.(IntValue)
		if !ok {
			return nil, NewRuntimeError("index expects an Int, got %s", idx.TypeName())
		}
		i := int(n) - 1
		if i < 0 || i >= len(*t.Items) {
			return nil, NewRuntimeError("index %d out of bounds for length %d", int(n), len(*t.Items))
		}
		return (*t.Items)[i], nil
	case TupleValue:
		n, ok := idx.(IntValue)
		if !ok {
			return nil, NewRuntimeError("index expects an Int, got %s", idx.TypeName())
		}
		i := int(n) - 1
		if i < 0 || i >= len(t.Items) {
			return nil, NewRuntimeError("index %d out of bounds for length %d", int(n), len(t.Items))
		}
		return t.Items[i], nil
	case MapValue:
		val, ok := (*t.Values)[mapKey(idx)]
		if !ok {
			return nil, NewRuntimeError("map has no key %s", Display(idx))
		}
		return val, nil
	default:
		return nil, NewRuntimeError("cannot index a %s", coll.TypeName())
	}
}

// setIndexed performs the in-place counterpart of indexInto for an
// assignment target, used by SetIndexStmt.
func setIndexed(coll, idx, val Value) error {
	n, ok := idx.(IntValue)
	if !ok {
		if _, isMap := coll.(MapValue); !isMap {
			return NewRuntimeError("index expects an Int, got %s", idx.TypeName())
		}
	}
	switch t := coll.(type) {
	case ListValue:
		i := int(n) - 1
		if i < 0 || i >= len(*t.Items) {
			return NewRuntimeError("index %d out of bounds for length %d", int(n), len(*t.Items))
		}
		(*t.Items)[i] = val
		return nil
	case MapValue:
		key := mapKey(idx)
		if _, exists := (*t.Values)[key]; !exists {
			*t.Keys = append(*t.Keys, idx)
		}
		(*t.Values)[key] = val
		return nil
	default:
		return NewRuntimeError("cannot index-assign into a %s", coll.TypeName())
	}
}

// valuesEqual compares scalars componentwise, floats by bit pattern,
// collections by length (a cheap proxy that avoids walking cyclic shared
// structures), inductives and structs componentwise recursively.
func valuesEqual(a, b Value) bool {
	switch av := a.(type) {
	case IntValue:
		bv, ok := b.(IntValue)
		return ok && av == bv
	case FloatValue:
		bv, ok := b.(FloatValue)
		return ok && math.Float64bits(float64(av)) == math.Float64bits(float64(bv))
	case BoolValue:
		bv, ok := b.(BoolValue)
		return ok && av == bv
	case TextValue:
		bv, ok := b.(TextValue)
		return ok && av == bv
	case CharValue:
		bv, ok := b.(CharValue)
		return ok && av == bv
	case NothingValue:
		_, ok := b.(NothingValue)
		return ok
	case ListValue:
		bv, ok := b.(ListValue)
		return ok && len(*av.Items) == len(*bv.Items)
	case SetValue:
		bv, ok := b.(SetValue)
		return ok && len(*av.Items) == len(*bv.Items)
	case MapValue:
		bv, ok := b.(MapValue)
		return ok && len(*av.Keys) == len(*bv.Keys)
	case TupleValue:
		bv, ok := b.(TupleValue)
		if !ok || len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !valuesEqual(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	case *StructValue:
		bv, ok := b.(*StructValue)
		if !ok || av.Type != bv.Type || len(av.Fields) != len(bv.Fields) {
			return false
		}
		for k, v := range av.Fields {
			other, ok := bv.Fields[k]
			if !ok || !valuesEqual(v, other) {
				return false
			}
		}
		return true
	case *InductiveValue:
		bv, ok := b.(*InductiveValue)
		if !ok || av.InductiveType != bv.InductiveType || av.Constructor != bv.Constructor || len(av.Args) != len(bv.Args) {
			return false
		}
		for i := range av.Args {
			if !valuesEqual(av.Args[i], bv.Args[i]) {
				return false
			}
		}
		return true
	case DurationValue:
		bv, ok := b.(DurationValue)
		return ok && av == bv
	case DateValue:
		bv, ok := b.(DateValue)
		return ok && av == bv
	case MomentValue:
		bv, ok := b.(MomentValue)
		return ok && av == bv
	case SpanValue:
		bv, ok := b.(SpanValue)
		return ok && av == bv
	case TimeValue:
		bv, ok := b.(TimeValue)
		return ok && av == bv
	default:
		return false
	}
}
