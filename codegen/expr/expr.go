// Package expr lowers ast.Expr nodes into target-language source fragments:
// one dispatch switch over the expression sum type, with string-concat
// flattening, 1-based index peepholes, and comparison fast paths applied
// where the codegen context has enough static type information to justify
// them.
package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

// Lower renders e as a target-language expression fragment.
func Lower(ctx *codegen.Context, e ast.Expr) string {
	switch v := e.(type) {
	case ast.LiteralExpr:
		return lowerLiteral(ctx, v.Value)

	case ast.IdentExpr:
		return ctx.Interner.MustResolve(v.Name)

	case ast.BinaryExpr:
		return lowerBinary(ctx, v)

	case ast.CallExpr:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = lowerArg(ctx, a)
		}
		name := ctx.Interner.MustResolve(v.Function)
		call := fmt.Sprintf("%s(%s)", name, strings.Join(args, ", "))
		if ctx.IsAsync(v.Function) {
			return call + ".Await()"
		}
		return call

	case ast.CallIndirectExpr:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = lowerArg(ctx, a)
		}
		return fmt.Sprintf("%s(%s)", Lower(ctx, v.Callee), strings.Join(args, ", "))

	case ast.FieldAccessExpr:
		if id, ok := v.Object.(ast.IdentExpr); ok && ctx.SyncedVars[id.Name] {
			return fmt.Sprintf("LogosSyncedGet(%s, %q)", ctx.Interner.MustResolve(id.Name), ctx.Interner.MustResolve(v.Field))
		}
		return fmt.Sprintf("%s.%s", Lower(ctx, v.Object), ctx.Interner.MustResolve(v.Field))

	case ast.IndexExpr:
		return lowerIndex(ctx, v)

	case ast.SliceExpr:
		return lowerSlice(ctx, v)

	case ast.ListExpr:
		elems := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = Lower(ctx, el)
		}
		return fmt.Sprintf("[]any{%s}", strings.Join(elems, ", "))

	case ast.TupleExpr:
		elems := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = Lower(ctx, el)
		}
		return fmt.Sprintf("LogosTuple(%s)", strings.Join(elems, ", "))

	case ast.RangeExpr:
		return fmt.Sprintf("LogosRange(%s, %s)", Lower(ctx, v.Start), Lower(ctx, v.End))

	case ast.RecordExpr:
		return lowerRecord(ctx, v)

	case ast.VariantExpr:
		return lowerVariant(ctx, v)

	case ast.CopyExpr:
		// Every copy lowers to an explicit LogosClone, whatever the
		// operand's type; for a Copy-typed operand the clone is a plain
		// value copy.
		return fmt.Sprintf("LogosClone(%s)", Lower(ctx, v.Object))

	case ast.GiveExpr:
		// Give marks a move; the value itself lowers unchanged, ownership
		// bookkeeping already happened in the analyzer, not at codegen time.
		return Lower(ctx, v.Object)

	case ast.LengthExpr:
		return fmt.Sprintf("len(%s)", Lower(ctx, v.Object))

	case ast.ContainsExpr:
		return fmt.Sprintf("LogosContains(%s, %s)", Lower(ctx, v.Collection), Lower(ctx, v.Needle))

	case ast.SetUnionExpr:
		return fmt.Sprintf("LogosSetUnion(%s, %s)", Lower(ctx, v.Left), Lower(ctx, v.Right))

	case ast.SetIntersectExpr:
		return fmt.Sprintf("LogosSetIntersect(%s, %s)", Lower(ctx, v.Left), Lower(ctx, v.Right))

	case ast.OptionSomeExpr:
		return fmt.Sprintf("LogosSome(%s)", Lower(ctx, v.Value))

	case ast.OptionNoneExpr:
		return "LogosNone()"

	case ast.WithCapacityExpr:
		return fmt.Sprintf("LogosWithCapacity(%s, %s)", Lower(ctx, v.Capacity), Lower(ctx, v.Inner))

	case ast.InterpolatedStringExpr:
		return lowerInterpolated(ctx, v)

	case ast.ClosureExpr:
		return lowerClosure(ctx, v)

	case ast.EscapeExpr:
		return v.Code

	default:
		return fmt.Sprintf("/* unhandled expr %T */", e)
	}
}

// lowerArg renders one call argument. An identifier known to be non-Copy
// that would otherwise pass by plain value is cloned at the call site: the
// callee takes ownership of its arguments, and without the clone the
// caller's binding and the callee's parameter would alias the same backing
// storage.
func lowerArg(ctx *codegen.Context, a ast.Expr) string {
	if id, ok := a.(ast.IdentExpr); ok && isNonCopyIdent(ctx, id.Name) {
		return fmt.Sprintf("LogosClone(%s)", ctx.Interner.MustResolve(id.Name))
	}
	return Lower(ctx, a)
}

// isNonCopyIdent reports whether sym is statically known to hold a value
// whose duplication is observable -- Text, a collection, or a user-declared
// record. Unknowns stay Copy, matching the ownership analyzer's
// conservative default.
func isNonCopyIdent(ctx *codegen.Context, sym intern.Symbol) bool {
	if ctx.StringVars[sym] {
		return true
	}
	switch t := ctx.LoweredType(sym); {
	case t == "Text" || t == "string":
		return true
	case strings.HasPrefix(t, "[]") || strings.HasPrefix(t, "map["):
		return true
	case strings.HasPrefix(t, "Seq of") || strings.HasPrefix(t, "List of") ||
		strings.HasPrefix(t, "Vec of") || strings.HasPrefix(t, "Set of") || strings.HasPrefix(t, "Map of"):
		return true
	case t != "" && ctx.Types != nil:
		if _, ok := ctx.Types.Record(ctx.Interner.Intern(t)); ok {
			return true
		}
	}
	return false
}

func lowerLiteral(ctx *codegen.Context, lit ast.Literal) string {
	switch v := lit.(type) {
	case ast.IntLiteral:
		return strconv.FormatInt(v.Value, 10)
	case ast.FloatLiteral:
		return strconv.FormatFloat(v.Value, 'g', -1, 64)
	case ast.TextLiteral:
		return strconv.Quote(v.Value)
	case ast.BoolLiteral:
		return strconv.FormatBool(v.Value)
	case ast.CharLiteral:
		return strconv.QuoteRune(v.Value)
	case ast.NothingLiteral:
		return "LogosNothing{}"
	case ast.DurationLiteral:
		return fmt.Sprintf("Duration(%d)", v.Nanos)
	case ast.DateLiteral:
		return fmt.Sprintf("Date(%d)", v.Days)
	case ast.MomentLiteral:
		return fmt.Sprintf("Moment(%d)", v.Nanos)
	case ast.SpanLiteral:
		return fmt.Sprintf("Span{Months: %d, Days: %d}", v.Months, v.Days)
	case ast.TimeOfDayLiteral:
		return fmt.Sprintf("TimeOfDay(%d)", v.Nanos)
	default:
		return "/* unhandled literal */"
	}
}

// isStringExpr conservatively decides whether e is known, without running
// the program, to produce Text -- mirroring
// is_definitely_string_expr_with_vars: a literal Text, an identifier marked
// in StringVars, or a Concat/string-Add of either side.
func isStringExpr(ctx *codegen.Context, e ast.Expr) bool {
	switch v := e.(type) {
	case ast.LiteralExpr:
		_, ok := v.Value.(ast.TextLiteral)
		return ok
	case ast.IdentExpr:
		return ctx.StringVars[v.Name]
	case ast.BinaryExpr:
		if v.Op == ast.Concat {
			return true
		}
		return v.Op == ast.Add && (isStringExpr(ctx, v.Left) || isStringExpr(ctx, v.Right))
	case ast.WithCapacityExpr:
		return isStringExpr(ctx, v.Inner)
	default:
		return false
	}
}

// IsStringExpr reports whether e is known, without running the target
// program, to produce Text. Exported so package stmt's self-append rewrite
// can reuse the same conservative classification lowerBinary uses to decide
// whether an Add is really a string concat.
func IsStringExpr(ctx *codegen.Context, e ast.Expr) bool { return isStringExpr(ctx, e) }

// CollectConcatOperands flattens a chain of Concat/string-Add nodes into its
// leaf operands, appending them to out. Exported for the same reason as
// IsStringExpr.
func CollectConcatOperands(ctx *codegen.Context, e ast.Expr, out *[]ast.Expr) {
	collectConcatOperands(ctx, e, out)
}

// collectConcatOperands flattens a left-leaning chain of Concat/string-Add
// nodes into its leaves, turning an O(n^2) nest of pairwise concatenations
// into a single O(n) join.
func collectConcatOperands(ctx *codegen.Context, e ast.Expr, out *[]ast.Expr) {
	if bin, ok := e.(ast.BinaryExpr); ok {
		isConcatChain := bin.Op == ast.Concat || (bin.Op == ast.Add && (isStringExpr(ctx, bin.Left) || isStringExpr(ctx, bin.Right)))
		if isConcatChain {
			collectConcatOperands(ctx, bin.Left, out)
			collectConcatOperands(ctx, bin.Right, out)
			return
		}
	}
	*out = append(*out, e)
}

func lowerBinary(ctx *codegen.Context, b ast.BinaryExpr) string {
	isStringConcat := b.Op == ast.Concat || (b.Op == ast.Add && (isStringExpr(ctx, b.Left) || isStringExpr(ctx, b.Right)))
	if isStringConcat {
		var operands []ast.Expr
		collectConcatOperands(ctx, b, &operands)
		parts := make([]string, len(operands))
		for i, o := range operands {
			parts[i] = Lower(ctx, o)
		}
		return "LogosConcat(" + strings.Join(parts, ", ") + ")"
	}

	if b.Op == ast.Eq || b.Op == ast.Neq {
		if out, ok := tryDirectIndexCompare(ctx, b); ok {
			return out
		}
	}

	left := Lower(ctx, b.Left)
	right := Lower(ctx, b.Right)
	op, ok := binOpToken[b.Op]
	if !ok {
		return fmt.Sprintf("/* unhandled binop %v */", b.Op)
	}
	left, right = coerceNumericOperands(ctx, b, left, right)
	return fmt.Sprintf("(%s %s %s)", left, op, right)
}

// coerceNumericOperands casts the integer side of a mixed int/float
// comparison or arithmetic operation to float64. The target language has
// no implicit int/float promotion, so a literal-or-typed operand pairing
// of the two kinds would otherwise fail to compile.
func coerceNumericOperands(ctx *codegen.Context, b ast.BinaryExpr, left, right string) (string, string) {
	switch b.Op {
	case ast.Add, ast.Sub, ast.Mul, ast.Div, ast.Mod, ast.Eq, ast.Neq, ast.Lt, ast.Gt, ast.Le, ast.Ge:
	default:
		return left, right
	}
	lk := numericKind(ctx, b.Left)
	rk := numericKind(ctx, b.Right)
	if lk == numericInt && rk == numericFloat {
		return fmt.Sprintf("float64(%s)", left), right
	}
	if lk == numericFloat && rk == numericInt {
		return left, fmt.Sprintf("float64(%s)", right)
	}
	return left, right
}

type numericClass int

const (
	numericUnknown numericClass = iota
	numericInt
	numericFloat
)

// numericKind conservatively classifies e as definitely-int, definitely-
// float, or unknown, from literal values and from types Let/Param already
// recorded in VariableTypes.
func numericKind(ctx *codegen.Context, e ast.Expr) numericClass {
	switch v := e.(type) {
	case ast.LiteralExpr:
		switch v.Value.(type) {
		case ast.IntLiteral:
			return numericInt
		case ast.FloatLiteral:
			return numericFloat
		}
	case ast.IdentExpr:
		switch ctx.LoweredType(v.Name) {
		case "Int", "Nat", "int64":
			return numericInt
		case "Float", "float64":
			return numericFloat
		}
	case ast.BinaryExpr:
		l, r := numericKind(ctx, v.Left), numericKind(ctx, v.Right)
		if l == numericFloat || r == numericFloat {
			return numericFloat
		}
		if l == numericInt && r == numericInt {
			return numericInt
		}
	}
	return numericUnknown
}

var binOpToken = map[ast.BinaryOp]string{
	ast.Add: "+", ast.Sub: "-", ast.Mul: "*", ast.Div: "/", ast.Mod: "%",
	ast.Eq: "==", ast.Neq: "!=", ast.Lt: "<", ast.Gt: ">", ast.Le: "<=", ast.Ge: ">=",
	ast.And: "&&", ast.Or: "||", ast.Concat: "+", ast.BitXor: "^", ast.Shl: "<<", ast.Shr: ">>",
}

// containerKind classifies a collection operand so indexing and comparison
// lowering can decide between direct Go subscripting and the polymorphic
// LogosIndex dispatch helper.
type containerKind int

const (
	// containerUnknown covers anything not statically known to be a Vec,
	// map, or string -- including a plain identifier with no recorded
	// type at all. Strings are classified containerString, but plain
	// indexing of either routes through the polymorphic LogosIndex helper
	// rather than a raw subscript.
	containerUnknown containerKind = iota
	containerString
	containerMap
	containerDirect
)

func classifyContainer(ctx *codegen.Context, coll ast.Expr) containerKind {
	id, ok := coll.(ast.IdentExpr)
	if !ok {
		return containerUnknown
	}
	if ctx.StringVars[id.Name] {
		return containerString
	}
	switch t := ctx.LoweredType(id.Name); {
	case t == "Text" || t == "string":
		return containerString
	case t == "__zero_based_i64":
		return containerUnknown
	case strings.HasPrefix(t, "[]"):
		return containerDirect
	case strings.HasPrefix(t, "Seq of") || strings.HasPrefix(t, "List of") || strings.HasPrefix(t, "Vec of"):
		return containerDirect
	case strings.HasPrefix(t, "map[") || strings.HasPrefix(t, "Map of"):
		return containerMap
	default:
		return containerUnknown
	}
}

// tryDirectIndexCompare covers the comparison fast paths
// string[i]==string[j], map[k]==v and s[i]=='c'. Either side that is
// an index into a statically-known string or map renders as a direct Go
// subscript; a side that isn't an index at all, or indexes into an unknown
// container, lowers normally. Direct subscripting here is deliberately
// cheaper than the polymorphic dispatch lowerIndex would otherwise apply:
// a comparison only reads one element, so there's no UTF-8 multi-byte
// concern a helper call would need to guard against.
func tryDirectIndexCompare(ctx *codegen.Context, b ast.BinaryExpr) (string, bool) {
	leftDirect, leftOK := directIndexOperand(ctx, b.Left)
	rightDirect, rightOK := directIndexOperand(ctx, b.Right)
	if !leftOK && !rightOK {
		return "", false
	}
	neg := "=="
	if b.Op == ast.Neq {
		neg = "!="
	}
	left := leftDirect
	if !leftOK {
		left = Lower(ctx, b.Left)
	}
	right := rightDirect
	if !rightOK {
		right = Lower(ctx, b.Right)
	}
	return fmt.Sprintf("(%s %s %s)", left, neg, right), true
}

func directIndexOperand(ctx *codegen.Context, e ast.Expr) (string, bool) {
	ix, ok := e.(ast.IndexExpr)
	if !ok {
		return "", false
	}
	switch classifyContainer(ctx, ix.Collection) {
	case containerMap:
		return fmt.Sprintf("%s[%s]", Lower(ctx, ix.Collection), Lower(ctx, ix.Index)), true
	case containerString:
		return fmt.Sprintf("%s[%s]", Lower(ctx, ix.Collection), lowerIndexOperand(ctx, ix.Index)), true
	default:
		return "", false
	}
}

// lowerIndex renders a collection index. A statically-known Vec/slice or
// map indexes directly, applying the 1-based-to-0-based peephole: a literal
// 1 becomes 0, a literal N becomes N-1, and `e + 1` cancels to `e`. A string
// index, and any container whose type isn't statically known, instead
// routes through LogosIndex, the polymorphic runtime helper that can apply
// UTF-8-safe decoding or a type-directed dispatch at the call site.
func lowerIndex(ctx *codegen.Context, ix ast.IndexExpr) string {
	switch classifyContainer(ctx, ix.Collection) {
	case containerMap:
		// A map key is not a sequence offset: the 1-based-to-0-based
		// peephole does not apply here.
		return fmt.Sprintf("%s[%s]", Lower(ctx, ix.Collection), Lower(ctx, ix.Index))
	case containerDirect:
		return fmt.Sprintf("%s[%s]", Lower(ctx, ix.Collection), lowerIndexOperand(ctx, ix.Index))
	default:
		return fmt.Sprintf("LogosIndex(%s, %s)", Lower(ctx, ix.Collection), lowerIndexOperand(ctx, ix.Index))
	}
}

func lowerIndexOperand(ctx *codegen.Context, index ast.Expr) string {
	switch v := index.(type) {
	case ast.LiteralExpr:
		if n, ok := v.Value.(ast.IntLiteral); ok {
			return strconv.FormatInt(n.Value-1, 10)
		}
	case ast.IdentExpr:
		if ctx.LoweredType(v.Name) == "__zero_based_i64" {
			return ctx.Interner.MustResolve(v.Name)
		}
	case ast.BinaryExpr:
		if v.Op == ast.Add {
			// (X+1) and the commutative (1+X) cancel the trailing -1
			// outright; (X+K) for K>1 folds the -1 into the constant
			// instead of emitting a separate subtraction.
			if lit, ok := v.Right.(ast.LiteralExpr); ok {
				if n, ok := lit.Value.(ast.IntLiteral); ok {
					return foldIndexConst(ctx, v.Left, n.Value)
				}
			}
			if lit, ok := v.Left.(ast.LiteralExpr); ok {
				if n, ok := lit.Value.(ast.IntLiteral); ok {
					return foldIndexConst(ctx, v.Right, n.Value)
				}
			}
		}
	}
	return fmt.Sprintf("(%s - 1)", Lower(ctx, index))
}

// foldIndexConst renders base+k-1 folded into a single constant when k != 1,
// or just base when k == 1 (the -1 and +1 cancel).
func foldIndexConst(ctx *codegen.Context, base ast.Expr, k int64) string {
	if k == 1 {
		return Lower(ctx, base)
	}
	return fmt.Sprintf("(%s + %d)", Lower(ctx, base), k-1)
}

func lowerSlice(ctx *codegen.Context, s ast.SliceExpr) string {
	start := "0"
	if s.Start != nil {
		start = lowerIndexOperand(ctx, s.Start)
	}
	end := fmt.Sprintf("len(%s)", Lower(ctx, s.Collection))
	if s.End != nil {
		end = Lower(ctx, s.End)
	}
	return fmt.Sprintf("%s[%s:%s]", Lower(ctx, s.Collection), start, end)
}

func lowerFieldInits(ctx *codegen.Context, typeName string, fields []ast.FieldInit) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", ctx.Interner.MustResolve(f.Name), Lower(ctx, f.Value))
	}
	return fmt.Sprintf("%s{%s}", typeName, strings.Join(parts, ", "))
}

// lowerRecord constructs a record value. Fields the source left unstated are
// filled from the declared type's default (LogosDefault, a runtime call
// keyed by the field's type name), and a generic record's TypeArgs are
// rendered into the constructed type name instead of being silently
// dropped.
func lowerRecord(ctx *codegen.Context, r ast.RecordExpr) string {
	typeName := ctx.Interner.MustResolve(r.TypeName)
	if len(r.TypeArgs) > 0 && ctx.Types != nil {
		args := make([]string, len(r.TypeArgs))
		for i, a := range r.TypeArgs {
			args[i] = ctx.Types.TypeName(a)
		}
		typeName = fmt.Sprintf("%s[%s]", typeName, strings.Join(args, ", "))
	}
	fields := r.Fields
	if ctx.Types != nil {
		if rec, ok := ctx.Types.Record(r.TypeName); ok {
			fields = withDefaultFields(ctx, rec, r.Fields)
		}
	}
	return lowerFieldInits(ctx, typeName, fields)
}

// withDefaultFields appends a LogosDefault-backed FieldInit for every field
// the record declares but given doesn't state, so a partial record
// construction still produces one initializer per declared field.
func withDefaultFields(ctx *codegen.Context, rec *typeregistry.Record, given []ast.FieldInit) []ast.FieldInit {
	stated := make(map[intern.Symbol]bool, len(given))
	for _, f := range given {
		stated[f.Name] = true
	}
	out := given
	for _, decl := range rec.Fields {
		if stated[decl.Name] {
			continue
		}
		out = append(out, ast.FieldInit{
			Name:  decl.Name,
			Value: ast.EscapeExpr{Code: fmt.Sprintf("LogosDefault(%q)", ctx.Types.TypeName(decl.Type))},
		})
	}
	return out
}

// lowerVariant constructs a tagged-union value. A field must be boxed (heap
// indirected) when the type registry determined it recursively references
// its own enclosing union; the constructor call wraps it accordingly. When
// the same identifier is passed as more than one field's value, every
// occurrence but the last is cloned first -- otherwise two fields of the
// constructed value would end up aliasing the same underlying storage.
func lowerVariant(ctx *codegen.Context, v ast.VariantExpr) string {
	lastOccurrence := map[intern.Symbol]int{}
	for i, f := range v.Fields {
		if id, ok := f.Value.(ast.IdentExpr); ok {
			lastOccurrence[id.Name] = i
		}
	}

	parts := make([]string, len(v.Fields))
	for i, f := range v.Fields {
		val := Lower(ctx, f.Value)
		if id, ok := f.Value.(ast.IdentExpr); ok && lastOccurrence[id.Name] != i {
			val = fmt.Sprintf("LogosClone(%s)", val)
		}
		if ctx.Types != nil && ctx.Types.IsBoxed(typeregistry.FieldKey{Enum: v.TypeName, Variant: v.VariantName, Field: f.Name}) {
			val = fmt.Sprintf("&%s", val)
		}
		parts[i] = fmt.Sprintf("%s: %s", ctx.Interner.MustResolve(f.Name), val)
	}
	typeName := ctx.Interner.MustResolve(v.TypeName)
	variantName := ctx.Interner.MustResolve(v.VariantName)
	return fmt.Sprintf("%s%s{%s}", typeName, variantName, strings.Join(parts, ", "))
}

// lowerInterpolated renders a single formatted-write call for the whole
// string rather than nested concatenations. A hole with no format spec
// defaults to "%v"; a "$" spec renders as two-decimal currency (casting an
// integer operand to float first); a leading-dot spec ("'.2'") carries its
// digits straight through as a Printf precision. The debug flag prepends the
// hole's lowered source fragment and an "=" ahead of its value, the way a
// `dbg!`-style macro would, since holes don't carry original-source spans.
func lowerInterpolated(ctx *codegen.Context, s ast.InterpolatedStringExpr) string {
	var format strings.Builder
	var values []string
	for _, part := range s.Parts {
		if part.Value == nil {
			format.WriteString(strings.ReplaceAll(part.Literal, "%", "%%"))
			continue
		}
		val := Lower(ctx, part.Value)
		verb := formatVerb(part.FormatSpec)
		if strings.HasPrefix(part.FormatSpec, "$") {
			val = fmt.Sprintf("float64(%s)", val)
		}
		if part.Debug {
			format.WriteString(strings.ReplaceAll(val, "%", "%%"))
			format.WriteString("=")
		}
		format.WriteString(verb)
		values = append(values, val)
	}
	if len(values) == 0 {
		return strconv.Quote(format.String())
	}
	return fmt.Sprintf("fmt.Sprintf(%s, %s)", strconv.Quote(format.String()), strings.Join(values, ", "))
}

// formatVerb maps a hole's format spec to a Printf verb: "$" to two-decimal
// currency, a leading-dot spec ("'.N'") to that precision, anything else
// falls back to the bare "%v" default.
func formatVerb(spec string) string {
	switch {
	case spec == "":
		return "%v"
	case strings.HasPrefix(spec, "$"):
		return "%.2f"
	case strings.HasPrefix(spec, "."):
		return "%" + spec + "f"
	default:
		return "%v"
	}
}

func lowerClosure(ctx *codegen.Context, c ast.ClosureExpr) string {
	ctx.PushScope()
	defer ctx.PopScope()
	params := make([]string, len(c.Params))
	for i, p := range c.Params {
		params[i] = ctx.Interner.MustResolve(p)
		ctx.DeclareVar(p, "", false)
	}
	if c.Body != nil {
		return fmt.Sprintf("func(%s any) any { return %s }", strings.Join(params, ", "), Lower(ctx, c.Body))
	}
	body := codegen.LowerBlock(ctx, c.Block)
	return fmt.Sprintf("func(%s any) any {\n%s\n\treturn LogosNothing{}\n}", strings.Join(params, ", "), indentFragment(body))
}

func indentFragment(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l == "" {
			continue
		}
		lines[i] = "\t" + l
	}
	return strings.Join(lines, "\n")
}
