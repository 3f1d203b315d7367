// Package codegen holds the shared lowering context threaded through
// expression and statement lowering: the mutable bookkeeping (string-typed
// variables, lowered variable types, async functions, pipe and synced
// variables, the scope stack) that decides how a given identifier or call
// must be rendered in the target language.
package codegen

import (
	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

// Context is the lowering environment shared by expression and statement
// codegen. It is built once per program (NewContext, then Discover over
// the whole program) and then threaded by pointer; scopes are pushed/popped as blocks are entered and
// left so moves and redeclarations made inside an If/While/Repeat body
// don't leak into the enclosing scope once lowering returns.
type Context struct {
	Interner *intern.Interner
	Types    *typeregistry.Registry

	// Mutable tracks identifiers declared mutable or written anywhere by
	// Set/SetField/SetIndex or a collection mutation (see Discover) -- a
	// write to anything not in this set is a codegen-time bug, not a
	// target-language one, since the ownership pass already rejected it.
	Mutable map[intern.Symbol]bool

	// StringVars holds identifiers inferred (or declared) to hold Text,
	// used to steer string-concat flattening and the comparison fast path.
	StringVars map[intern.Symbol]bool

	// VariableTypes records the lowered target-language type name of each
	// local, populated as Let/Param statements are visited.
	VariableTypes map[intern.Symbol]string

	// AsyncFunctions is the set of function names declared Async: calls to
	// them lower with a trailing .Await().
	AsyncFunctions map[intern.Symbol]bool

	// PipeVars and SyncedVars mark identifiers backed by a channel pipe or
	// a replicated store respectively; both change how Set/Send lower.
	PipeVars   map[intern.Symbol]bool
	SyncedVars map[intern.Symbol]bool

	scopes []scope
}

// scope is one lexical block's undo log: entries recorded here are
// reverted when the block exits, so a variable shadowed or moved inside an
// If branch does not affect sibling branches or the parent scope.
type scope struct {
	undo []func(*Context)
}

// NewContext builds an empty lowering context over a type registry.
func NewContext(in *intern.Interner, types *typeregistry.Registry) *Context {
	return &Context{
		Interner:       in,
		Types:          types,
		Mutable:        map[intern.Symbol]bool{},
		StringVars:     map[intern.Symbol]bool{},
		VariableTypes:  map[intern.Symbol]string{},
		AsyncFunctions: map[intern.Symbol]bool{},
		PipeVars:       map[intern.Symbol]bool{},
		SyncedVars:     map[intern.Symbol]bool{},
	}
}

// Discover scans a whole program once, ahead of lowering, to populate the
// context sets lowering consults before it reaches the relevant site:
// AsyncFunctions (a callee's asyncness changes its call lowering), Mutable
// (any symbol ever written by Set/SetField/SetIndex or a collection
// mutation), PipeVars (locally declared pipes, which lower into separate
// _tx/_rx sender/receiver halves -- a parameter pipe arrives as a single
// half and is used by its plain name), and SyncedVars (lets whose declared
// record type carries replicated fields, whose reads become remote gets and
// whose writes go through a commit wrapper).
func Discover(ctx *Context, stmts []ast.Stmt) {
	for _, s := range stmts {
		switch v := s.(type) {
		case ast.LetStmt:
			if v.Type == nil {
				continue
			}
			if isPipeType(ctx, v.Type) {
				ctx.PipeVars[v.Var] = true
			}
			if named, ok := v.Type.(ast.NamedType); ok && ctx.Types != nil && ctx.Types.HasSyncedFields(named.Name) {
				ctx.SyncedVars[v.Var] = true
			}
		case ast.SetStmt:
			ctx.Mutable[v.Var] = true
		case ast.SetFieldStmt:
			if id, ok := v.Object.(ast.IdentExpr); ok {
				ctx.Mutable[id.Name] = true
			}
		case ast.SetIndexStmt:
			if id, ok := v.Collection.(ast.IdentExpr); ok {
				ctx.Mutable[id.Name] = true
			}
		case ast.CollectionMutateStmt:
			if id, ok := v.Collection.(ast.IdentExpr); ok {
				ctx.Mutable[id.Name] = true
			}
		case ast.FunctionDefStmt:
			if v.Async {
				ctx.AsyncFunctions[v.Name] = true
			}
			Discover(ctx, v.Body)
		case ast.IfStmt:
			Discover(ctx, v.Then)
			Discover(ctx, v.Else)
		case ast.WhileStmt:
			Discover(ctx, v.Body)
		case ast.RepeatStmt:
			Discover(ctx, v.Body)
		case ast.ZoneStmt:
			Discover(ctx, v.Body)
		case ast.ConcurrentStmt:
			for _, task := range v.Tasks {
				Discover(ctx, task.Body)
			}
		case ast.ParallelStmt:
			for _, task := range v.Tasks {
				Discover(ctx, task.Body)
			}
		}
	}
}

// isPipeType reports whether t declares a message channel, the one container
// kind that lowers into a sender/receiver pair instead of a single value.
func isPipeType(ctx *Context, t ast.TypeExpr) bool {
	g, ok := t.(ast.GenericType)
	if !ok {
		return false
	}
	return ctx.Interner.MustResolve(g.Base) == "Pipe"
}

// PushScope opens a new undo-logged block.
func (c *Context) PushScope() {
	c.scopes = append(c.scopes, scope{})
}

// PopScope reverts every mutation recorded since the matching PushScope, in
// reverse order.
func (c *Context) PopScope() {
	if len(c.scopes) == 0 {
		return
	}
	top := c.scopes[len(c.scopes)-1]
	c.scopes = c.scopes[:len(c.scopes)-1]
	for i := len(top.undo) - 1; i >= 0; i-- {
		top.undo[i](c)
	}
}

func (c *Context) record(undo func(*Context)) {
	if len(c.scopes) == 0 {
		return // top-level declarations are permanent, nothing to undo
	}
	top := &c.scopes[len(c.scopes)-1]
	top.undo = append(top.undo, undo)
}

// DeclareVar records a local's lowered type within the current scope,
// undoing the binding (or restoring whatever it shadowed) on PopScope.
func (c *Context) DeclareVar(sym intern.Symbol, loweredType string, mutable bool) {
	prevType, hadType := c.VariableTypes[sym]
	prevMutable := c.Mutable[sym]

	c.VariableTypes[sym] = loweredType
	if mutable {
		c.Mutable[sym] = true
	}

	c.record(func(ctx *Context) {
		if hadType {
			ctx.VariableTypes[sym] = prevType
		} else {
			delete(ctx.VariableTypes, sym)
		}
		if prevMutable {
			ctx.Mutable[sym] = true
		} else {
			delete(ctx.Mutable, sym)
		}
	})
}

// MarkString notes that sym is known to hold Text.
func (c *Context) MarkString(sym intern.Symbol) {
	if c.StringVars[sym] {
		return
	}
	c.StringVars[sym] = true
	c.record(func(ctx *Context) { delete(ctx.StringVars, sym) })
}

// LoweredType returns the lowered target-language type name previously
// recorded for sym, or "" if unknown.
func (c *Context) LoweredType(sym intern.Symbol) string {
	return c.VariableTypes[sym]
}

// IsMutable reports whether sym was declared mutable.
func (c *Context) IsMutable(sym intern.Symbol) bool {
	return c.Mutable[sym]
}

// IsAsync reports whether fn names an async function.
func (c *Context) IsAsync(fn intern.Symbol) bool {
	return c.AsyncFunctions[fn]
}
