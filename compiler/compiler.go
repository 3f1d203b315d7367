// Package compiler wires the ownership analyzer, codegen, C-ABI emitter, and
// interpreter into one driver, the way a production CLI strings its
// subsystems together behind a single Pipeline/Options pair rather than
// leaving callers to sequence the phases by hand.
package compiler

import (
	"context"
	"fmt"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/ast"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/cabi"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/codegen/stmt"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp/persist"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/logic"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/ownership"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/telemetry"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/typeregistry"
)

// Mode selects what a Pipeline run produces.
type Mode int

const (
	// ModeCodegen lowers the program to target source (plus a C-ABI
	// sidecar when ExportedFunctions is non-empty).
	ModeCodegen Mode = iota
	// ModeInterpret runs the program directly through the tree-walking
	// interpreter instead of emitting source.
	ModeInterpret
)

// Options configures one Pipeline run. ExportedFunctions/EmitPythonBindings/
// EmitTSBindings mirror
// a typical code-generator CLI's flag surface; Logger/Metrics/Tracer are the
// ambient telemetry surface threaded through every phase, defaulting to
// Noop so a caller that doesn't care about observability pays nothing for
// it.
type Options struct {
	Mode Mode

	// ExportedFunctions lists record or tagged-union type names to emit
	// C-ABI bindings for; non-empty only makes sense with ModeCodegen.
	ExportedFunctions []string
	EmitPythonBindings bool
	EmitTSBindings     bool

	// Store backs mount statements during interpretation; defaults to an
	// in-memory store (see interp/persist.NewMemory) if nil.
	Store interp.Store
	// IO backs read/write statements during interpretation.
	IO interp.IO
	// Output receives show statement output during interpretation;
	// defaults to stdout if nil.
	Output interp.Output
	// Transport backs send/receive/select across a process boundary; nil
	// keeps pipes in-process.
	Transport interp.PipeTransport
	// Policies guards security-check statements during interpretation.
	// Defaults to a registry built from the program's own policy
	// declarations; a program with neither runs with a nil registry, which
	// fails every check rather than passing it vacuously.
	Policies *interp.PolicyRegistry

	// Kernel discharges theorem statements and refinement predicates;
	// defaults to logic.Stub if nil.
	Kernel logic.Kernel

	Logger  telemetry.Logger
	Metrics telemetry.Metrics
	Tracer  telemetry.Tracer
}

func (o *Options) withDefaults() *Options {
	out := *o
	if out.Kernel == nil {
		out.Kernel = logic.Stub{}
	}
	if out.Store == nil {
		out.Store = persist.NewMemory()
	}
	if out.Logger == nil {
		out.Logger = telemetry.Noop{}
	}
	if out.Metrics == nil {
		out.Metrics = telemetry.Noop{}
	}
	if out.Tracer == nil {
		out.Tracer = telemetry.Noop{}
	}
	return &out
}

// Result is everything a Pipeline run produces; fields unrelated to the
// selected mode are left zero.
type Result struct {
	// Source is the lowered target-language source for the program.
	Source string
	// CABI maps each exported record name to its emitted C-ABI source.
	CABI map[string]string
	// CABIRuntime is the package-wide C-ABI support surface (version,
	// last-error, free-string), emitted once per run alongside CABI.
	CABIRuntime string
	// CHeader is the language-agnostic C header declaring every exported
	// entry point, emitted once per run alongside CABI.
	CHeader string
	// PythonBindings/TSBindings map each exported record name to its
	// bindings sidecar class, populated only when the matching Emit*
	// option was set. PythonModule/TSModule/TSDeclarations are the full
	// loader-bearing sidecar files; they render their own per-record
	// classes rather than wrapping those.
	PythonBindings map[string]string
	TSBindings     map[string]string
	PythonModule   string
	TSModule       string
	TSDeclarations string

	// InterpretValue is the value of the final top-level Return
	// encountered during a ModeInterpret run, or nil if the program ran to
	// completion without one.
	InterpretValue interp.Value
}

// Pipeline runs the compiler phases over one Program: ownership check,
// discovery (async-function scan, type registry), then either codegen or
// direct interpretation depending on Options.Mode.
type Pipeline struct {
	Interner *intern.Interner
	Options  *Options
}

// NewPipeline builds a Pipeline bound to in, defaulting any unset Options
// fields.
func NewPipeline(in *intern.Interner, opts Options) *Pipeline {
	return &Pipeline{Interner: in, Options: opts.withDefaults()}
}

// Run executes every phase over program, in the order the system is
// specified to run them: ownership analysis first (a failure here aborts
// before anything is emitted or executed), then type/async discovery,
// then codegen or interpretation.
func (p *Pipeline) Run(ctx context.Context, program *ast.Program) (*Result, error) {
	ctx, span := p.Options.Tracer.Start(ctx, "compiler.Pipeline.Run")
	defer span.End()

	p.Options.Logger.Info(ctx, "pipeline starting", "statements", len(program.Stmts))

	if err := p.runOwnership(ctx, program); err != nil {
		return nil, err
	}

	types := typeregistry.Build(p.Interner, program.Stmts)
	cgCtx := codegen.NewContext(p.Interner, types)
	codegen.Discover(cgCtx, program.Stmts)

	if err := p.dischargeTheorems(ctx, program); err != nil {
		return nil, err
	}

	switch p.Options.Mode {
	case ModeInterpret:
		return p.runInterpret(ctx, program)
	default:
		return p.runCodegen(ctx, cgCtx, types, program)
	}
}

func (p *Pipeline) runOwnership(ctx context.Context, program *ast.Program) error {
	ctx, span := p.Options.Tracer.Start(ctx, "compiler.Pipeline.ownership")
	defer span.End()
	if err := ownership.Check(p.Interner, program.Stmts); err != nil {
		p.Options.Metrics.IncCounter("pipeline.ownership.failures", 1)
		span.RecordError(err)
		p.Options.Logger.Error(ctx, "ownership check failed", "error", err.Error())
		return fmt.Errorf("ownership check: %w", err)
	}
	return nil
}

func (p *Pipeline) dischargeTheorems(ctx context.Context, program *ast.Program) error {
	_, span := p.Options.Tracer.Start(ctx, "compiler.Pipeline.discharge")
	defer span.End()
	for _, s := range program.Stmts {
		th, ok := s.(ast.TheoremStmt)
		if !ok {
			continue
		}
		if err := p.Options.Kernel.Discharge(p.Interner.MustResolve(th.Name), th.Prop, th.Span); err != nil {
			span.RecordError(err)
			return err
		}
	}
	return nil
}

func (p *Pipeline) runCodegen(ctx context.Context, cgCtx *codegen.Context, types *typeregistry.Registry, program *ast.Program) (*Result, error) {
	_, span := p.Options.Tracer.Start(ctx, "compiler.Pipeline.codegen")
	defer span.End()

	src := stmt.Lower(cgCtx, program.Stmts)
	p.Options.Metrics.RecordGauge("pipeline.codegen.source_bytes", float64(len(src)))

	result := &Result{Source: src}
	if len(p.Options.ExportedFunctions) == 0 {
		return result, nil
	}

	emitter := cabi.NewEmitter(p.Interner, types)
	result.CABI = make(map[string]string, len(p.Options.ExportedFunctions))
	result.CABIRuntime = cabi.EmitRuntimeSupport()
	exported := make([]intern.Symbol, len(p.Options.ExportedFunctions))
	for i, name := range p.Options.ExportedFunctions {
		exported[i] = p.Interner.Intern(name)
	}
	result.CHeader = emitter.EmitHeader(exported)
	if p.Options.EmitPythonBindings {
		result.PythonModule = cabi.PythonModule(p.Interner, types, exported)
	}
	if p.Options.EmitTSBindings {
		result.TSModule = cabi.TypeScriptModule(p.Interner, types, exported)
		result.TSDeclarations = cabi.TypeScriptDeclarations(p.Interner, types, exported)
	}
	for _, name := range p.Options.ExportedFunctions {
		sym := p.Interner.Intern(name)

		rec, ok := types.Record(sym)
		if !ok {
			rendered, err := emitter.EmitUnion(sym)
			if err != nil {
				return nil, fmt.Errorf("emit C ABI for %q: %w", name, err)
			}
			result.CABI[name] = rendered
			continue
		}

		rendered, err := emitter.EmitRecord(sym)
		if err != nil {
			return nil, fmt.Errorf("emit C ABI for %q: %w", name, err)
		}
		result.CABI[name] = rendered
		fieldNames := make([]intern.Symbol, len(rec.Fields))
		for i, f := range rec.Fields {
			fieldNames[i] = f.Name
		}
		if p.Options.EmitPythonBindings {
			if result.PythonBindings == nil {
				result.PythonBindings = map[string]string{}
			}
			result.PythonBindings[name] = cabi.PythonBindings(p.Interner, sym, fieldNames)
		}
		if p.Options.EmitTSBindings {
			if result.TSBindings == nil {
				result.TSBindings = map[string]string{}
			}
			result.TSBindings[name] = cabi.TypeScriptBindings(p.Interner, sym, fieldNames)
		}
	}
	return result, nil
}

func (p *Pipeline) runInterpret(ctx context.Context, program *ast.Program) (*Result, error) {
	ctx, span := p.Options.Tracer.Start(ctx, "compiler.Pipeline.interpret")
	defer span.End()

	it := interp.New(p.Interner, p.Options.Store)
	if p.Options.IO != nil {
		it = it.WithIO(p.Options.IO)
	}
	if p.Options.Output != nil {
		it = it.WithOutput(p.Options.Output)
	}
	if p.Options.Transport != nil {
		it = it.WithTransport(p.Options.Transport)
	}
	policies := p.Options.Policies
	if policies == nil {
		if built := interp.BuildPolicies(program.Stmts); !built.Empty() {
			policies = built
		}
	}
	if policies != nil {
		it = it.WithPolicies(policies)
	}

	val, err := it.ExecTopLevel(ctx, program.Stmts)
	if err != nil {
		span.RecordError(err)
		p.Options.Logger.Error(ctx, "interpretation failed", "error", err.Error())
		return nil, err
	}
	return &Result{InterpretValue: val}, nil
}
