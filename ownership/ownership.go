// Package ownership implements the dataflow pass that rejects use-after-move
// programs before either the interpreter or the codegen backend sees them:
// a per-variable four-state machine (Owned, Moved, MaybeMoved, Borrowed)
// walked once over the statement list, with branch states joined by merge
// on exit from If/Inspect/While.
package ownership

import (
	"fmt"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
)

// VarState is the ownership state of a single variable at a single program
// point.
type VarState int

const (
	// Owned means the variable holds a value and may be read, given, or
	// shown.
	Owned VarState = iota
	// Moved means the variable's value was given away; any further use is
	// a diagnostic.
	Moved
	// MaybeMoved means at least one control-flow path moved the variable
	// and at least one did not; any further use is a diagnostic.
	MaybeMoved
	// Borrowed means the variable was shown (lent) and remains usable for
	// the rest of its scope, but cannot be given.
	Borrowed
)

func (s VarState) String() string {
	switch s {
	case Owned:
		return "owned"
	case Moved:
		return "moved"
	case MaybeMoved:
		return "maybe-moved"
	case Borrowed:
		return "borrowed"
	default:
		return "unknown"
	}
}

// ErrorKind distinguishes the diagnostics the checker can raise.
type ErrorKind int

const (
	UseAfterMove ErrorKind = iota
	UseAfterMaybeMove
	DoubleMoved
)

// Error is the diagnostic raised by the first ownership violation found.
// Analysis errors are fatal: the driver reports Error and stops, there is no
// recovery path.
type Error struct {
	Kind     ErrorKind
	Variable string
	// Branch describes where a MaybeMoved state originated, e.g. "a
	// conditional branch" or "a previous branch". Empty for other kinds.
	Branch string
	Span   ast.Span
	// Cause chains an underlying error when the checker itself failed
	// (e.g. an unresolvable symbol); nil in the common case.
	Cause error
}

func (e *Error) Error() string {
	switch e.Kind {
	case UseAfterMove:
		return fmt.Sprintf("cannot use %q after giving it away", e.Variable)
	case UseAfterMaybeMove:
		return fmt.Sprintf("cannot use %q: it might have been given away in %s", e.Variable, e.Branch)
	case DoubleMoved:
		return fmt.Sprintf("cannot give %q twice", e.Variable)
	default:
		return "ownership violation"
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// Checker tracks ownership state across a statement list.
type Checker struct {
	state   map[intern.Symbol]VarState
	isCopy  map[intern.Symbol]bool
	interner *intern.Interner
}

// NewChecker returns a Checker that resolves diagnostic variable names
// through in.
func NewChecker(in *intern.Interner) *Checker {
	return &Checker{
		state:    make(map[intern.Symbol]VarState),
		isCopy:   make(map[intern.Symbol]bool),
		interner: in,
	}
}

// Check runs the pass over a top-level program. It returns the first
// violation found, or nil if the program is ownership-sound.
func Check(in *intern.Interner, stmts []ast.Stmt) error {
	c := NewChecker(in)
	return c.checkBlock(stmts)
}

func (c *Checker) name(sym intern.Symbol) string {
	return c.interner.MustResolve(sym)
}

// isCopySym reports whether sym is known to be a Copy type. Unknown
// identifiers default to Copy: biased toward false negatives, as documented
// as an open question in the originating design (an implementer may reverse
// this once the type registry is queryable from the analyzer).
func (c *Checker) isCopySym(sym intern.Symbol) bool {
	if v, ok := c.isCopy[sym]; ok {
		return v
	}
	return true
}

// inferCopyFromExpr returns whether evaluating expr yields a Copy-typed
// value. Conservative: true unless expr is one of the known non-Copy shapes.
func (c *Checker) inferCopyFromExpr(e ast.Expr) bool {
	switch v := e.(type) {
	case ast.LiteralExpr:
		switch v.Value.(type) {
		case ast.TextLiteral:
			return false
		default:
			return true
		}
	case ast.IdentExpr:
		return c.isCopySym(v.Name)
	case ast.RecordExpr, ast.VariantExpr, ast.ListExpr, ast.InterpolatedStringExpr:
		return false
	case ast.CopyExpr:
		return true
	case ast.BinaryExpr:
		if v.Op == ast.Concat {
			return false
		}
		return true
	case ast.ContainsExpr, ast.LengthExpr:
		return true
	default:
		return true
	}
}

// inferCopyFromType classifies a declared parameter type: atomic
// primitives are Copy, generics are not, functions are Copy
// (pointer-sized).
func inferCopyFromType(in *intern.Interner, t ast.TypeExpr) bool {
	switch v := t.(type) {
	case ast.PrimitiveType:
		switch in.MustResolve(v.Name) {
		case "Int", "Nat", "Float", "Bool", "Char", "Byte":
			return true
		case "Text":
			return false
		default:
			return true
		}
	case ast.NamedType:
		return true
	case ast.GenericType:
		return false
	case ast.FunctionType:
		return true
	default:
		return true
	}
}

// markMovesInExpr walks expr to mark non-Copy identifier call arguments as
// Moved, after the expression itself has already been validated not-moved.
func (c *Checker) markMovesInExpr(e ast.Expr) {
	switch v := e.(type) {
	case ast.CallExpr:
		for _, arg := range v.Args {
			if id, ok := arg.(ast.IdentExpr); ok && !c.isCopySym(id.Name) {
				c.state[id.Name] = Moved
			}
			c.markMovesInExpr(arg)
		}
	case ast.CallIndirectExpr:
		for _, arg := range v.Args {
			if id, ok := arg.(ast.IdentExpr); ok && !c.isCopySym(id.Name) {
				c.state[id.Name] = Moved
			}
			c.markMovesInExpr(arg)
		}
	case ast.BinaryExpr:
		c.markMovesInExpr(v.Left)
		c.markMovesInExpr(v.Right)
	case ast.IndexExpr:
		c.markMovesInExpr(v.Collection)
		c.markMovesInExpr(v.Index)
	case ast.FieldAccessExpr:
		c.markMovesInExpr(v.Object)
	}
}

func (c *Checker) checkBlock(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := c.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *Checker) checkStmt(s ast.Stmt) error {
	switch v := s.(type) {
	case ast.LetStmt:
		if err := c.checkNotMoved(v.Value); err != nil {
			return err
		}
		if id, ok := v.Value.(ast.IdentExpr); ok && !c.isCopySym(id.Name) {
			c.state[id.Name] = Moved
		}
		c.markMovesInExpr(v.Value)
		c.state[v.Var] = Owned
		c.isCopy[v.Var] = c.inferCopyFromExpr(v.Value)
		return nil

	case ast.GiveStmt:
		if id, ok := v.Object.(ast.IdentExpr); ok {
			cur := c.stateOf(id.Name)
			switch cur {
			case Moved:
				return &Error{Kind: DoubleMoved, Variable: c.name(id.Name), Span: v.Span}
			case MaybeMoved:
				return &Error{Kind: UseAfterMaybeMove, Variable: c.name(id.Name), Branch: "a previous branch", Span: v.Span}
			default:
				c.state[id.Name] = Moved
			}
			return nil
		}
		return c.checkNotMoved(v.Object)

	case ast.ShowStmt:
		if err := c.checkNotMoved(v.Object); err != nil {
			return err
		}
		if id, ok := v.Object.(ast.IdentExpr); ok {
			cur, known := c.state[id.Name]
			if !known || cur == Owned {
				c.state[id.Name] = Borrowed
			}
		}
		return nil

	case ast.IfStmt:
		before := c.snapshot()
		if err := c.checkBlock(v.Then); err != nil {
			return err
		}
		afterThen := c.snapshot()

		var afterElse map[intern.Symbol]VarState
		if v.Else != nil {
			c.restore(before)
			if err := c.checkBlock(v.Else); err != nil {
				return err
			}
			afterElse = c.snapshot()
		} else {
			afterElse = before
		}
		c.state = mergeStates(afterThen, afterElse)
		return nil

	case ast.WhileStmt:
		before := c.snapshot()
		if err := c.checkBlock(v.Body); err != nil {
			return err
		}
		after := c.snapshot()
		c.state = mergeStates(before, after)
		return nil

	case ast.RepeatStmt:
		return c.checkBlock(v.Body)

	case ast.ZoneStmt:
		return c.checkBlock(v.Body)

	case ast.InspectStmt:
		if len(v.Arms) == 0 {
			return nil
		}
		before := c.snapshot()
		var branchStates []map[intern.Symbol]VarState
		for _, arm := range v.Arms {
			c.restore(before)
			if err := c.checkBlock(arm.Body); err != nil {
				return err
			}
			branchStates = append(branchStates, c.snapshot())
		}
		merged := branchStates[0]
		for _, st := range branchStates[1:] {
			merged = mergeStates(merged, st)
		}
		c.state = merged
		return nil

	case ast.ReturnStmt:
		if v.Value == nil {
			return nil
		}
		if err := c.checkNotMoved(v.Value); err != nil {
			return err
		}
		c.markMovesInExpr(v.Value)
		return nil

	case ast.SetStmt:
		if err := c.checkNotMoved(v.Value); err != nil {
			return err
		}
		c.markMovesInExpr(v.Value)
		return nil

	case ast.CallStmt:
		for _, arg := range v.Args {
			if err := c.checkNotMoved(arg); err != nil {
				return err
			}
		}
		for _, arg := range v.Args {
			if id, ok := arg.(ast.IdentExpr); ok && !c.isCopySym(id.Name) {
				c.state[id.Name] = Moved
			}
		}
		return nil

	case ast.FunctionDefStmt:
		savedState := c.snapshot()
		savedCopy := make(map[intern.Symbol]bool, len(c.isCopy))
		for k, v := range c.isCopy {
			savedCopy[k] = v
		}
		for _, p := range v.Params {
			c.state[p.Name] = Owned
			c.isCopy[p.Name] = inferCopyFromType(c.interner, p.Type)
		}
		if err := c.checkBlock(v.Body); err != nil {
			return err
		}
		c.state = savedState
		c.isCopy = savedCopy
		return nil

	case ast.EscapeStmt:
		// Opaque to ownership analysis; the target compiler's own
		// checker (if any) is relied on for use-after-move here.
		return nil

	default:
		return nil
	}
}

// checkNotMoved is a structural walk that rejects a Moved or MaybeMoved
// identifier anywhere in e.
func (c *Checker) checkNotMoved(e ast.Expr) error {
	switch v := e.(type) {
	case ast.InterpolatedStringExpr:
		for _, part := range v.Parts {
			if part.Value != nil {
				if err := c.checkNotMoved(part.Value); err != nil {
					return err
				}
			}
		}
		return nil
	case ast.IdentExpr:
		switch c.state[v.Name] {
		case Moved:
			return &Error{Kind: UseAfterMove, Variable: c.name(v.Name), Span: v.Span}
		case MaybeMoved:
			return &Error{Kind: UseAfterMaybeMove, Variable: c.name(v.Name), Branch: "a conditional branch", Span: v.Span}
		default:
			return nil
		}
	case ast.BinaryExpr:
		if err := c.checkNotMoved(v.Left); err != nil {
			return err
		}
		return c.checkNotMoved(v.Right)
	case ast.CallExpr:
		for _, arg := range v.Args {
			if err := c.checkNotMoved(arg); err != nil {
				return err
			}
		}
		return nil
	case ast.CallIndirectExpr:
		if err := c.checkNotMoved(v.Callee); err != nil {
			return err
		}
		for _, arg := range v.Args {
			if err := c.checkNotMoved(arg); err != nil {
				return err
			}
		}
		return nil
	case ast.FieldAccessExpr:
		return c.checkNotMoved(v.Object)
	case ast.IndexExpr:
		if err := c.checkNotMoved(v.Collection); err != nil {
			return err
		}
		return c.checkNotMoved(v.Index)
	case ast.SliceExpr:
		if err := c.checkNotMoved(v.Collection); err != nil {
			return err
		}
		if v.Start != nil {
			if err := c.checkNotMoved(v.Start); err != nil {
				return err
			}
		}
		if v.End != nil {
			return c.checkNotMoved(v.End)
		}
		return nil
	case ast.ListExpr:
		for _, el := range v.Elements {
			if err := c.checkNotMoved(el); err != nil {
				return err
			}
		}
		return nil
	case ast.TupleExpr:
		for _, el := range v.Elements {
			if err := c.checkNotMoved(el); err != nil {
				return err
			}
		}
		return nil
	case ast.RecordExpr:
		for _, f := range v.Fields {
			if err := c.checkNotMoved(f.Value); err != nil {
				return err
			}
		}
		return nil
	case ast.VariantExpr:
		for _, f := range v.Fields {
			if err := c.checkNotMoved(f.Value); err != nil {
				return err
			}
		}
		return nil
	case ast.CopyExpr:
		return c.checkNotMoved(v.Object)
	case ast.GiveExpr:
		return c.checkNotMoved(v.Object)
	case ast.LengthExpr:
		return c.checkNotMoved(v.Object)
	case ast.ContainsExpr:
		if err := c.checkNotMoved(v.Collection); err != nil {
			return err
		}
		return c.checkNotMoved(v.Needle)
	case ast.SetUnionExpr:
		if err := c.checkNotMoved(v.Left); err != nil {
			return err
		}
		return c.checkNotMoved(v.Right)
	case ast.SetIntersectExpr:
		if err := c.checkNotMoved(v.Left); err != nil {
			return err
		}
		return c.checkNotMoved(v.Right)
	case ast.OptionSomeExpr:
		return c.checkNotMoved(v.Value)
	case ast.WithCapacityExpr:
		return c.checkNotMoved(v.Inner)
	case ast.ClosureExpr:
		// Expression bodies are checked; block bodies get their own
		// scope managed by the enclosing statement walk.
		if v.Body != nil {
			return c.checkNotMoved(v.Body)
		}
		return nil
	case ast.EscapeExpr:
		return nil
	default:
		return nil
	}
}

func (c *Checker) stateOf(sym intern.Symbol) VarState {
	if s, ok := c.state[sym]; ok {
		return s
	}
	return Owned
}

func (c *Checker) snapshot() map[intern.Symbol]VarState {
	out := make(map[intern.Symbol]VarState, len(c.state))
	for k, v := range c.state {
		out[k] = v
	}
	return out
}

func (c *Checker) restore(snap map[intern.Symbol]VarState) {
	out := make(map[intern.Symbol]VarState, len(snap))
	for k, v := range snap {
		out[k] = v
	}
	c.state = out
}

// mergeStates joins two branch-exit states per the lattice:
//
//	(Moved, Moved)                 -> Moved
//	one Moved, other not           -> MaybeMoved
//	either MaybeMoved              -> MaybeMoved
//	(Borrowed, Borrowed) or
//	  one Borrowed + one Owned     -> Borrowed
//	(Owned, Owned)                 -> Owned
//
// A symbol absent from one side is treated as Owned (its value before the
// branch), matching the Rust merge_states default.
func mergeStates(a, b map[intern.Symbol]VarState) map[intern.Symbol]VarState {
	merged := make(map[intern.Symbol]VarState, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for sym, bv := range b {
		av, ok := merged[sym]
		if !ok {
			av = Owned
		}
		merged[sym] = join(av, bv)
	}
	return merged
}

func join(a, b VarState) VarState {
	switch {
	case a == Moved && b == Moved:
		return Moved
	case a == Moved || b == Moved:
		return MaybeMoved
	case a == MaybeMoved || b == MaybeMoved:
		return MaybeMoved
	case a == Borrowed && b == Borrowed:
		return Borrowed
	case a == Borrowed || b == Borrowed:
		return Borrowed
	default:
		return Owned
	}
}
