package interp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

// signalKind distinguishes the three ways executing a block can end
// early: run on (continue), return a value, or break the enclosing loop.
type signalKind int

const (
	sigContinue signalKind = iota
	sigReturn
	sigBreak
)

type signal struct {
	kind  signalKind
	value Value
}

// Store is the persistence backend a mount statement writes through;
// package interp/persist supplies the in-memory and MongoDB-backed
// implementations.
type Store interface {
	Put(ctx context.Context, name string, v Value) error
	Get(ctx context.Context, name string) (Value, bool, error)
}

// Interpreter is the tree-walking evaluator. It has one evaluation path
// for every function body: Exec always blocks the calling goroutine, and
// every suspension point (sleep/read/write/mount/receive/select) runs
// through a context-aware call. It does not use NeedsAsync to choose a
// separate sync path.
type Interpreter struct {
	Interner *intern.Interner
	Env      *Environment
	Closures []closureBody
	Store    Store
	Pipes    *Pipes
	IO       IO
	Output   Output
	Policies *PolicyRegistry

	// Types, when set, backs mount-payload validation: a mounted struct
	// whose runtime type name matches a record or union the registry
	// knows about is checked against that type's JSON Schema before it
	// reaches Store.Put.
	Types    *typeregistry.Registry
	builtins *builtinSymbols

	callDepth int
}

type closureBody struct {
	Params []intern.Symbol
	Expr   ast.Expr  // set when the closure body is a single expression
	Block  []ast.Stmt
}

// New builds an interpreter with a fresh top-level environment and no IO
// or Output backend: read/write statements then fail and show statements
// print to stdout until WithIO/WithOutput supply real backends.
func New(in *intern.Interner, store Store) *Interpreter {
	return &Interpreter{Interner: in, Env: NewEnvironment(), Store: store, Pipes: &Pipes{in: in, byName: map[intern.Symbol]chan Value{}}, builtins: newBuiltinSymbols(in)}
}

// WithTransport swaps the interpreter's pipe registry for one backed by
// transport (e.g. a Redis-backed syncedvar.RedisPipes), for a run whose
// send/receive/select must cross a process boundary.
func (it *Interpreter) WithTransport(transport PipeTransport) *Interpreter {
	it.Pipes = NewTransportPipes(it.Interner, transport)
	return it
}

// WithIO attaches the filesystem backend used by read/write statements.
func (it *Interpreter) WithIO(io IO) *Interpreter {
	it.IO = io
	return it
}

// WithOutput attaches the writer used by show statements.
func (it *Interpreter) WithOutput(out Output) *Interpreter {
	it.Output = out
	return it
}

// WithTypes attaches the type registry mount validation checks payloads
// against.
func (it *Interpreter) WithTypes(types *typeregistry.Registry) *Interpreter {
	it.Types = types
	return it
}

// ExecTopLevel runs a whole program's top-level statements, surfacing the
// value of the first top-level Return encountered (there is no caller above
// the top level to trap it the way callClosure traps a function's Return).
// It reports nil if the program ran to completion without one.
func (it *Interpreter) ExecTopLevel(ctx context.Context, stmts []ast.Stmt) (Value, error) {
	sig, err := it.Exec(ctx, stmts)
	if err != nil {
		return nil, err
	}
	if sig.kind == sigReturn {
		return sig.value, nil
	}
	return nil, nil
}

// Exec runs a statement block to completion under ctx, returning whatever
// signal propagated out (Return/Break) or sigContinue if it ran off the
// end.
func (it *Interpreter) Exec(ctx context.Context, stmts []ast.Stmt) (signal, error) {
	for _, s := range stmts {
		sig, err := it.execOne(ctx, s)
		if err != nil {
			return signal{}, err
		}
		if sig.kind != sigContinue {
			return sig, nil
		}
	}
	return signal{kind: sigContinue}, nil
}

func (it *Interpreter) execOne(ctx context.Context, s ast.Stmt) (signal, error) {
	switch v := s.(type) {
	case ast.LetStmt:
		val, err := it.Eval(ctx, v.Value)
		if err != nil {
			return signal{}, err
		}
		it.Env.Define(v.Var, val)
		return signal{kind: sigContinue}, nil

	case ast.SetStmt:
		val, err := it.Eval(ctx, v.Value)
		if err != nil {
			return signal{}, err
		}
		it.Env.Set(v.Var, val)
		return signal{kind: sigContinue}, nil

	case ast.SetFieldStmt:
		obj, err := it.Eval(ctx, v.Object)
		if err != nil {
			return signal{}, err
		}
		val, err := it.Eval(ctx, v.Value)
		if err != nil {
			return signal{}, err
		}
		rec, ok := obj.(*StructValue)
		if !ok {
			return signal{}, fmt.Errorf("cannot set field on a %s", obj.TypeName())
		}
		rec.Fields[it.Interner.MustResolve(v.Field)] = val
		return signal{kind: sigContinue}, nil

	case ast.SetIndexStmt:
		coll, err := it.Eval(ctx, v.Collection)
		if err != nil {
			return signal{}, err
		}
		idx, err := it.Eval(ctx, v.Index)
		if err != nil {
			return signal{}, err
		}
		val, err := it.Eval(ctx, v.Value)
		if err != nil {
			return signal{}, err
		}
		if err := setIndexed(coll, idx, val); err != nil {
			return signal{}, err
		}
		return signal{kind: sigContinue}, nil

	case ast.CallStmt:
		_, err := it.Eval(ctx, ast.CallExpr{Function: v.Function, Args: v.Args, Span: v.Span})
		return signal{kind: sigContinue}, err

	case ast.IfStmt:
		cond, err := it.Eval(ctx, v.Cond)
		if err != nil {
			return signal{}, err
		}
		it.Env.Push()
		defer it.Env.Pop()
		if IsTruthy(cond) {
			return it.Exec(ctx, v.Then)
		}
		return it.Exec(ctx, v.Else)

	case ast.WhileStmt:
		for {
			cond, err := it.Eval(ctx, v.Cond)
			if err != nil {
				return signal{}, err
			}
			if !IsTruthy(cond) {
				break
			}
			it.Env.Push()
			sig, err := it.Exec(ctx, v.Body)
			it.Env.Pop()
			if err != nil {
				return signal{}, err
			}
			if sig.kind == sigReturn {
				return sig, nil
			}
			if sig.kind == sigBreak {
				break
			}
		}
		return signal{kind: sigContinue}, nil

	case ast.RepeatStmt:
		return it.execRepeat(ctx, v)

	case ast.ReturnStmt:
		if v.Value == nil {
			return signal{kind: sigReturn, value: NothingValue{}}, nil
		}
		val, err := it.Eval(ctx, v.Value)
		if err != nil {
			return signal{}, err
		}
		return signal{kind: sigReturn, value: val}, nil

	case ast.AssertStmt, ast.TrustStmt, ast.TheoremStmt:
		// Theorem statements are discharged ahead of time by the external
		// logic kernel (compiler.Pipeline); the interpreter treats assert,
		// trust and theorem statements alike as no-ops at runtime.
		return signal{kind: sigContinue}, nil

	case ast.RuntimeAssertStmt:
		val, err := it.Eval(ctx, v.Cond)
		if err != nil {
			return signal{}, err
		}
		if !IsTruthy(val) {
			return signal{}, fmt.Errorf("%s", v.Message)
		}
		return signal{kind: sigContinue}, nil

	case ast.SecurityCheckStmt:
		return it.execSecurityCheck(ctx, v)

	case ast.FunctionDefStmt:
		it.Env.Define(v.Name, &ClosureValue{BodyIndex: it.registerClosure(nil, v.Body), Params: paramNames(v.Params)})
		return signal{kind: sigContinue}, nil

	case ast.StructDefStmt:
		return signal{kind: sigContinue}, nil

	case ast.PolicyDefStmt:
		// Policy rules are collected ahead of execution (BuildPolicies);
		// the declaration itself does nothing at runtime.
		return signal{kind: sigContinue}, nil

	case ast.InspectStmt:
		return it.execInspect(ctx, v)

	case ast.CollectionMutateStmt:
		return it.execCollectionMutate(ctx, v)

	case ast.ZoneStmt:
		it.Env.Push()
		defer it.Env.Pop()
		return it.Exec(ctx, v.Body)

	case ast.ConcurrentStmt:
		return it.execTasks(ctx, v.Tasks, true)

	case ast.ParallelStmt:
		return it.execTasks(ctx, v.Tasks, false)

	case ast.ReadStmt:
		if it.IO == nil {
			return signal{}, NewRuntimeError("read: no I/O backend configured")
		}
		pathVal, err := it.Eval(ctx, v.Path)
		if err != nil {
			return signal{}, err
		}
		path, ok := pathVal.(TextValue)
		if !ok {
			return signal{}, NewRuntimeError("read expects a Text path, got %s", pathVal.TypeName())
		}
		contents, err := it.IO.ReadFile(ctx, string(path))
		if err != nil {
			return signal{}, WrapRuntimeError(err, "read %q", string(path))
		}
		it.Env.Define(v.Target, TextValue(contents))
		return signal{kind: sigContinue}, nil

	case ast.WriteStmt:
		if it.IO == nil {
			return signal{}, NewRuntimeError("write: no I/O backend configured")
		}
		pathVal, err := it.Eval(ctx, v.Path)
		if err != nil {
			return signal{}, err
		}
		path, ok := pathVal.(TextValue)
		if !ok {
			return signal{}, NewRuntimeError("write expects a Text path, got %s", pathVal.TypeName())
		}
		contentsVal, err := it.Eval(ctx, v.Value)
		if err != nil {
			return signal{}, err
		}
		contents, ok := contentsVal.(TextValue)
		if !ok {
			return signal{}, NewRuntimeError("write expects Text contents, got %s", contentsVal.TypeName())
		}
		if err := it.IO.WriteFile(ctx, string(path), string(contents)); err != nil {
			return signal{}, WrapRuntimeError(err, "write %q", string(path))
		}
		return signal{kind: sigContinue}, nil

	case ast.MountStmt:
		val, err := it.Eval(ctx, v.Value)
		if err != nil {
			return signal{}, err
		}
		if it.Store == nil {
			return signal{}, fmt.Errorf("mount %q: no persistence backend configured", it.Interner.MustResolve(v.Name))
		}
		if err := it.validateMountPayload(val); err != nil {
			return signal{}, WrapRuntimeError(err, "mount %q", it.Interner.MustResolve(v.Name))
		}
		if err := it.Store.Put(ctx, it.Interner.MustResolve(v.Name), val); err != nil {
			return signal{}, err
		}
		return signal{kind: sigContinue}, nil

	case ast.SleepStmt:
		d, err := it.Eval(ctx, v.Duration)
		if err != nil {
			return signal{}, err
		}
		nanos, ok := d.(DurationValue)
		if !ok {
			return signal{}, fmt.Errorf("sleep expects a Duration, got %s", d.TypeName())
		}
		select {
		case <-time.After(time.Duration(nanos)):
		case <-ctx.Done():
			return signal{}, ctx.Err()
		}
		return signal{kind: sigContinue}, nil

	case ast.SyncStmt:
		return it.Exec(ctx, v.Body)

	case ast.SpawnStmt:
		child := it.fork()
		go func() { _, _ = child.Exec(ctx, v.Body) }()
		return signal{kind: sigContinue}, nil

	case ast.SendStmt:
		val, err := it.Eval(ctx, v.Value)
		if err != nil {
			return signal{}, err
		}
		if err := it.Pipes.send(ctx, v.Pipe, val); err != nil {
			return signal{}, err
		}
		return signal{kind: sigContinue}, nil

	case ast.ReceiveStmt:
		val, err := it.Pipes.receive(ctx, v.Pipe)
		if err != nil {
			return signal{}, err
		}
		it.Env.Define(v.Target, val)
		return signal{kind: sigContinue}, nil

	case ast.SelectStmt:
		return it.execSelect(ctx, v)

	case ast.GiveStmt, ast.ShowStmt:
		return it.execGiveShow(ctx, s)

	case ast.RequireStmt:
		return signal{kind: sigContinue}, nil

	case ast.EscapeStmt:
		return signal{}, fmt.Errorf("escape statements have no interpreter semantics: %s", v.Code)

	default:
		return signal{}, fmt.Errorf("interp: unhandled statement %T", s)
	}
}

// validateMountPayload checks a struct-valued mount against its type's JSON
// Schema, when a type registry is configured and the value's runtime type
// name names a record the registry knows about. Values with no declared
// record shape (primitives, lists, a variant's InductiveValue) pass through
// unchecked -- there is nothing in the registry to validate them against.
func (it *Interpreter) validateMountPayload(val Value) error {
	if it.Types == nil {
		return nil
	}
	s, ok := val.(*StructValue)
	if !ok {
		return nil
	}
	typeSym := it.Interner.Intern(s.Type)
	if _, ok := it.Types.Record(typeSym); !ok {
		return nil
	}
	payload, err := json.Marshal(structFieldsToPlainJSON(s))
	if err != nil {
		return fmt.Errorf("encode %q for mount validation: %w", s.Type, err)
	}
	return it.Types.ValidateJSON(typeSym, payload)
}

// structFieldsToPlainJSON renders a StructValue's fields as a plain
// map[string]any, the bare {field: value} shape typeregistry's record
// schemas describe -- distinct from persist's "$type"-tagged wire shape,
// which exists to round-trip through BSON rather than to validate against
// a JSON Schema document.
func structFieldsToPlainJSON(s *StructValue) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for name, v := range s.Fields {
		out[name] = valueToPlainJSON(v)
	}
	return out
}

func valueToPlainJSON(v Value) any {
	switch t := v.(type) {
	case IntValue:
		return int64(t)
	case FloatValue:
		return float64(t)
	case BoolValue:
		return bool(t)
	case TextValue:
		return string(t)
	case CharValue:
		return string(rune(t))
	case NothingValue:
		return nil
	case ListValue:
		return valuesToPlainJSON(*t.Items)
	case SetValue:
		return valuesToPlainJSON(*t.Items)
	case TupleValue:
		return valuesToPlainJSON(t.Items)
	case MapValue:
		keys := MapKeys(t)
		out := make(map[string]any, len(keys))
		for _, k := range keys {
			mv, _ := MapLookup(t, k)
			out[fmt.Sprint(valueToPlainJSON(k))] = valueToPlainJSON(mv)
		}
		return out
	case *StructValue:
		return structFieldsToPlainJSON(t)
	default:
		return nil
	}
}

func valuesToPlainJSON(items []Value) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = valueToPlainJSON(v)
	}
	return out
}

func paramNames(params []ast.Param) []intern.Symbol {
	out := make([]intern.Symbol, len(params))
	for i, p := range params {
		out[i] = p.Name
	}
	return out
}

// fork returns a child interpreter sharing the closure table and stores
// but with its own environment, the shape a Spawn/Concurrent task needs:
// isolated local bindings, shared mutable state underneath.
func (it *Interpreter) fork() *Interpreter {
	return &Interpreter{
		Interner: it.Interner, Env: NewEnvironment(), Closures: it.Closures,
		Store: it.Store, Pipes: it.Pipes, IO: it.IO, Output: it.Output,
		Policies: it.Policies, Types: it.Types, builtins: it.builtins,
	}
}

func (it *Interpreter) execGiveShow(ctx context.Context, s ast.Stmt) (signal, error) {
	switch v := s.(type) {
	case ast.GiveStmt:
		_, err := it.Eval(ctx, v.Object)
		return signal{kind: sigContinue}, err
	case ast.ShowStmt:
		val, err := it.Eval(ctx, v.Object)
		if err != nil {
			return signal{}, err
		}
		line := Display(val)
		if it.Output != nil {
			it.Output.WriteLine(line)
		} else {
			fmt.Println(line)
		}
		return signal{kind: sigContinue}, nil
	}
	return signal{kind: sigContinue}, nil
}

func (it *Interpreter) execRepeat(ctx context.Context, r ast.RepeatStmt) (signal, error) {
	iterable, err := it.Eval(ctx, r.Iterable)
	if err != nil {
		return signal{}, err
	}
	items, err := asIterable(iterable)
	if err != nil {
		return signal{}, err
	}
	for _, item := range items {
		it.Env.Push()
		if r.Pattern.Tuple != nil {
			tup, ok := item.(TupleValue)
			if !ok {
				it.Env.Pop()
				return signal{}, fmt.Errorf("repeat pattern expects a tuple, got %s", item.TypeName())
			}
			for i, sym := range r.Pattern.Tuple {
				if i < len(tup.Items) {
					it.Env.Define(sym, tup.Items[i])
				}
			}
		} else {
			it.Env.Define(r.Pattern.Single, item)
		}
		sig, err := it.Exec(ctx, r.Body)
		it.Env.Pop()
		if err != nil {
			return signal{}, err
		}
		if sig.kind == sigReturn {
			return sig, nil
		}
		if sig.kind == sigBreak {
			break
		}
	}
	return signal{kind: sigContinue}, nil
}

func asIterable(v Value) ([]Value, error) {
	switch t := v.(type) {
	case ListValue:
		return *t.Items, nil
	case SetValue:
		return *t.Items, nil
	case TupleValue:
		return t.Items, nil
	case MapValue:
		out := make([]Value, len(*t.Keys))
		for i, k := range *t.Keys {
			out[i] = TupleValue{Items: []Value{k, (*t.Values)[mapKey(k)]}}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot iterate a %s", v.TypeName())
	}
}

func (it *Interpreter) execInspect(ctx context.Context, i ast.InspectStmt) (signal, error) {
	subject, err := it.Eval(ctx, i.Subject)
	if err != nil {
		return signal{}, err
	}
	ind, ok := subject.(*InductiveValue)
	if !ok {
		return signal{}, fmt.Errorf("inspect expects a tagged-union value, got %s", subject.TypeName())
	}
	for _, arm := range i.Arms {
		if arm.Otherwise {
			it.Env.Push()
			sig, err := it.Exec(ctx, arm.Body)
			it.Env.Pop()
			return sig, err
		}
		if it.Interner.MustResolve(arm.VariantName) != ind.Constructor {
			continue
		}
		it.Env.Push()
		for i, b := range arm.Bindings {
			if i < len(ind.Args) {
				it.Env.Define(b, ind.Args[i])
			}
		}
		sig, err := it.Exec(ctx, arm.Body)
		it.Env.Pop()
		return sig, err
	}
	return signal{kind: sigContinue}, nil
}

func (it *Interpreter) execCollectionMutate(ctx context.Context, m ast.CollectionMutateStmt) (signal, error) {
	coll, err := it.Eval(ctx, m.Collection)
	if err != nil {
		return signal{}, err
	}
	var val Value
	if m.Value != nil {
		val, err = it.Eval(ctx, m.Value)
		if err != nil {
			return signal{}, err
		}
	}
	switch m.Op {
	case ast.CollPush:
		list, ok := coll.(ListValue)
		if !ok {
			return signal{}, fmt.Errorf("push expects a List, got %s", coll.TypeName())
		}
		*list.Items = append(*list.Items, val)
	case ast.CollAdd:
		set, ok := coll.(SetValue)
		if !ok {
			return signal{}, fmt.Errorf("add expects a Set, got %s", coll.TypeName())
		}
		if !containsValue(*set.Items, val) {
			*set.Items = append(*set.Items, val)
		}
	case ast.CollPop:
		list, ok := coll.(ListValue)
		if !ok {
			return signal{}, fmt.Errorf("pop expects a List, got %s", coll.TypeName())
		}
		if len(*list.Items) > 0 {
			*list.Items = (*list.Items)[:len(*list.Items)-1]
		}
	case ast.CollRemove:
		list, ok := coll.(ListValue)
		if !ok {
			return signal{}, fmt.Errorf("remove expects a List, got %s", coll.TypeName())
		}
		out := (*list.Items)[:0]
		for _, item := range *list.Items {
			if !valuesEqual(item, val) {
				out = append(out, item)
			}
		}
		*list.Items = out
	}
	return signal{kind: sigContinue}, nil
}

func (it *Interpreter) execTasks(ctx context.Context, tasks []ast.TaskStmt, waitAll bool) (signal, error) {
	errs := make(chan error, len(tasks))
	for _, task := range tasks {
		child := it.fork()
		go func(body []ast.Stmt) {
			_, err := child.Exec(ctx, body)
			errs <- err
		}(task.Body)
	}
	if !waitAll {
		return signal{kind: sigContinue}, nil
	}
	var firstErr error
	for range tasks {
		if err := <-errs; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return signal{kind: sigContinue}, firstErr
}

func (it *Interpreter) execSelect(ctx context.Context, s ast.SelectStmt) (signal, error) {
	var timeout <-chan time.Time
	if s.TimeoutMs != nil {
		ms, err := it.Eval(ctx, s.TimeoutMs)
		if err != nil {
			return signal{}, err
		}
		n, ok := ms.(IntValue)
		if !ok {
			return signal{}, fmt.Errorf("select timeout expects an Int milliseconds value")
		}
		timeout = time.After(time.Duration(n) * time.Millisecond)
	}

	// A generic N-way select without reflect.Select would require a
	// fixed-arity switch; clause count here is bounded by the number of
	// clauses parsed from source, so each round polls every clause's pipe
	// (local channel or remote transport alike) via tryReceive rather than
	// building a dynamic select every call.
	for {
		for _, c := range s.Clauses {
			val, ok, err := it.Pipes.tryReceive(ctx, c.Pipe)
			if err != nil {
				return signal{}, err
			}
			if ok {
				it.Env.Push()
				it.Env.Define(c.Target, val)
				sig, err := it.Exec(ctx, c.Body)
				it.Env.Pop()
				return sig, err
			}
		}
		select {
		case <-timeout:
			it.Env.Push()
			sig, err := it.Exec(ctx, s.OnTimeout)
			it.Env.Pop()
			return sig, err
		case <-ctx.Done():
			return signal{}, ctx.Err()
		case <-time.After(time.Millisecond):
			// brief backoff before repolling the clause channels
		}
	}
}

func containsValue(items []Value, v Value) bool {
	for _, item := range items {
		if valuesEqual(item, v) {
			return true
		}
	}
	return false
}

func (it *Interpreter) registerClosure(expr ast.Expr, block []ast.Stmt) int {
	it.Closures = append(it.Closures, closureBody{Expr: expr, Block: block})
	return len(it.Closures) - 1
}
