// Command logosc drives one compiler.Pipeline run over a program fixture.
// It never parses source text: a fixture is JSON standing in for an
// already-parsed ast.Program (see fixture.go), keeping the boundary between
// "parsed program" and "driver logic" where the pipeline draws it. Flags
// choose codegen vs. interpret mode and which exported records get a C-ABI
// sidecar.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Brahmastra-Labs/logicaffeine-sub002/compiler"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/intern"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/interp/persist"
	"github.com/Brahmastra-Labs/logicaffeine-sub002/telemetry"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "logosc:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("logosc", flag.ContinueOnError)
	fixturePath := fs.String("fixture", "", "path to a program fixture (JSON); - for stdin")
	mode := fs.String("mode", "codegen", "codegen or interpret")
	export := fs.String("export", "", "comma-separated record or union names to emit C-ABI bindings for")
	pyBindings := fs.Bool("python-bindings", false, "also emit Python ctypes bindings for exported records")
	tsBindings := fs.Bool("ts-bindings", false, "also emit TypeScript FFI bindings for exported records")
	verbose := fs.Bool("verbose", false, "use the production clue-backed telemetry stack instead of a no-op one")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fixturePath == "" {
		return fmt.Errorf("-fixture is required")
	}

	data, err := readFixture(*fixturePath)
	if err != nil {
		return err
	}

	in := intern.New()
	program, err := DecodeProgram(in, data)
	if err != nil {
		return err
	}

	opts := compiler.Options{
		Store: persist.NewMemory(),
	}
	switch *mode {
	case "interpret":
		opts.Mode = compiler.ModeInterpret
	case "codegen":
		opts.Mode = compiler.ModeCodegen
	default:
		return fmt.Errorf("unknown -mode %q, want codegen or interpret", *mode)
	}
	if *export != "" {
		opts.ExportedFunctions = strings.Split(*export, ",")
	}
	opts.EmitPythonBindings = *pyBindings
	opts.EmitTSBindings = *tsBindings
	if *verbose {
		opts.Logger = telemetry.NewClueLogger()
		opts.Metrics = telemetry.NewClueMetrics()
		opts.Tracer = telemetry.NewClueTracer()
	}

	pipeline := compiler.NewPipeline(in, opts)
	result, err := pipeline.Run(context.Background(), program)
	if err != nil {
		return err
	}

	return printResult(result, opts.Mode)
}

func readFixture(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func printResult(result *compiler.Result, mode compiler.Mode) error {
	if mode == compiler.ModeInterpret {
		out := struct {
			Result any `json:"result"`
		}{Result: result.InterpretValue}
		enc, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	}

	fmt.Println(result.Source)
	if result.CABIRuntime != "" {
		fmt.Printf("\n// ---- C ABI: runtime support ----\n%s\n", result.CABIRuntime)
	}
	if result.CHeader != "" {
		fmt.Printf("\n/* ---- C ABI: header ---- */\n%s\n", result.CHeader)
	}
	for name, src := range result.CABI {
		fmt.Printf("\n// ---- C ABI: %s ----\n%s\n", name, src)
	}
	if result.PythonModule != "" {
		fmt.Printf("\n# ---- Python sidecar ----\n%s\n", result.PythonModule)
	}
	if result.TSDeclarations != "" {
		fmt.Printf("\n// ---- TypeScript declarations (.d.ts) ----\n%s\n", result.TSDeclarations)
	}
	if result.TSModule != "" {
		fmt.Printf("\n// ---- TypeScript sidecar ----\n%s\n", result.TSModule)
	}
	return nil
}
