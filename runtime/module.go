package runtime

import (
	"context"
	"fmt"
	"slices"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/script"
)

const (
	exportMemory    = "memory"
	exportStart     = "start"
	exportAlloc     = "alloc"
	exportOnEvent   = "on_event"
	exportOnResolve = "on_resolve"
	exportTeardown  = "teardown"
)

type signature struct {
	params  []api.ValueType
	results []api.ValueType
}

var exportSignatures = map[string]signature{
	exportStart:     {},
	exportAlloc:     {params: []api.ValueType{i32}, results: []api.ValueType{i32}},
	exportOnEvent:   {params: []api.ValueType{i32, i32}},
	exportOnResolve: {params: []api.ValueType{i32, i32}},
	exportTeardown:  {},
}

var optionalExports = []string{exportAlloc, exportOnEvent, exportOnResolve, exportTeardown}

// Module is a compiled program.
type Module struct {
	runtime  *Runtime
	compiled wazero.CompiledModule
	src      script.Source
	usesWASI bool
}

// Compile validates and compiles src.
func (r *Runtime) Compile(ctx context.Context, src script.Source) (*Module, error) {
	if len(src.Bytes) == 0 {
		return nil, errors.InvalidInput(errors.PhaseLoad, "program is empty")
	}
	compiled, err := r.runtime.CompileModule(ctx, src.Bytes)
	if err != nil {
		return nil, errors.Load("compile "+src.Name, err)
	}
	if err := validateExports(src.Name, compiled); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	m := &Module{runtime: r, compiled: compiled, src: src}
	for _, def := range compiled.ImportedFunctions() {
		modName, name, _ := def.Import()
		switch modName {
		case wasi_snapshot_preview1.ModuleName:
			m.usesWASI = true
		case hostModule:
		default:
			_ = compiled.Close(ctx)
			return nil, errors.Load(fmt.Sprintf("%s imports unknown function %s.%s", src.Name, modName, name), nil)
		}
	}
	return m, nil
}

func validateExports(program string, compiled wazero.CompiledModule) error {
	funcs := compiled.ExportedFunctions()

	var required []string
	if _, ok := compiled.ExportedMemories()[exportMemory]; !ok {
		required = append(required, exportMemory)
	}
	if _, ok := funcs[exportStart]; !ok {
		required = append(required, exportStart)
	}
	if len(required) > 0 {
		var optional []string
		for _, name := range optionalExports {
			if _, ok := funcs[name]; !ok {
				optional = append(optional, name)
			}
		}
		return errors.NewMissingExportsError(program, required, optional)
	}

	for name, want := range exportSignatures {
		def, ok := funcs[name]
		if !ok {
			continue
		}
		if !slices.Equal(def.ParamTypes(), want.params) || !slices.Equal(def.ResultTypes(), want.results) {
			return errors.Load(fmt.Sprintf("%s: export %s has signature %s, want %s",
				program, name, formatSig(def.ParamTypes(), def.ResultTypes()), formatSig(want.params, want.results)), nil)
		}
	}
	return nil
}

func formatSig(params, results []api.ValueType) string {
	name := func(ts []api.ValueType) []string {
		out := make([]string, len(ts))
		for i, t := range ts {
			out[i] = api.ValueTypeName(t)
		}
		return out
	}
	return fmt.Sprintf("%v -> %v", name(params), name(results))
}

// Exports returns the names of the optional exports the program provides.
func (m *Module) Exports() []string {
	funcs := m.compiled.ExportedFunctions()
	var out []string
	for _, name := range optionalExports {
		if _, ok := funcs[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Source returns the source the module was compiled from.
func (m *Module) Source() script.Source {
	return m.src
}

// Instantiate creates a program bound to host. Each instance gets a unique
// module name so host calls can be routed back to it.
func (m *Module) Instantiate(ctx context.Context, host script.Host) (*Program, error) {
	r := m.runtime
	if m.usesWASI {
		if err := r.initWASI(ctx); err != nil {
			return nil, errors.Instantiation(err)
		}
	}

	name := fmt.Sprintf("%s#%d", m.src.Name, r.seq.Add(1))
	r.bind(name, host)

	cfg := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize")
	if r.cfg.Stdout != nil {
		cfg = cfg.WithStdout(r.cfg.Stdout)
	}
	if r.cfg.Stderr != nil {
		cfg = cfg.WithStderr(r.cfg.Stderr)
	}

	mod, err := r.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		r.unbind(name)
		return nil, errors.Instantiation(err)
	}
	r.logger.Debug("program instantiated", zap.String("program", name), zap.Bool("wasi", m.usesWASI))
	return newProgram(m, mod, name), nil
}

// Close releases the compiled code. Live programs keep working.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
