package runtime

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/script"
)

// Config holds configuration for runtime creation.
type Config struct {
	// Stdout and Stderr receive WASI output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer

	// MemoryLimitPages sets the maximum memory per instance in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32
}

// Runtime compiles and instantiates programs in one wazero runtime.
type Runtime struct {
	runtime      wazero.Runtime
	logger       *zap.Logger
	hosts        map[string]script.Host
	cfg          Config
	seq          atomic.Uint64
	hostsMu      sync.RWMutex
	wasiInitMu   sync.Mutex
	wasiInitDone atomic.Bool
}

// New creates a runtime with the default configuration.
func New(ctx context.Context) (*Runtime, error) {
	return NewWithConfig(ctx, nil)
}

// NewWithConfig creates a runtime and instantiates the bridge host module.
func NewWithConfig(ctx context.Context, cfg *Config) (*Runtime, error) {
	runtimeCfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	r := &Runtime{
		logger: Logger(),
		hosts:  make(map[string]script.Host),
	}
	if cfg != nil {
		r.cfg = *cfg
		if cfg.MemoryLimitPages > 0 {
			runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
		}
	}

	r.runtime = wazero.NewRuntimeWithConfig(ctx, runtimeCfg)
	if err := r.instantiateBridge(ctx); err != nil {
		_ = r.runtime.Close(ctx)
		return nil, errors.Registration(errors.PhaseHost, hostModule, "*", err)
	}
	return r, nil
}

// Close releases all runtime resources, including every live program.
func (r *Runtime) Close(ctx context.Context) error {
	return r.runtime.Close(ctx)
}

// initWASI instantiates wasi_snapshot_preview1 once per runtime.
func (r *Runtime) initWASI(ctx context.Context) error {
	if r.wasiInitDone.Load() {
		return nil
	}

	r.wasiInitMu.Lock()
	defer r.wasiInitMu.Unlock()

	if r.wasiInitDone.Load() {
		return nil
	}
	if r.runtime.Module(wasi_snapshot_preview1.ModuleName) == nil {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r.runtime); err != nil {
			return fmt.Errorf("instantiate WASI: %w", err)
		}
	}
	r.wasiInitDone.Store(true)
	return nil
}

func (r *Runtime) bind(name string, h script.Host) {
	r.hostsMu.Lock()
	r.hosts[name] = h
	r.hostsMu.Unlock()
}

func (r *Runtime) unbind(name string) {
	r.hostsMu.Lock()
	delete(r.hosts, name)
	r.hostsMu.Unlock()
}

func (r *Runtime) host(name string) (script.Host, bool) {
	r.hostsMu.RLock()
	defer r.hostsMu.RUnlock()
	h, ok := r.hosts[name]
	return h, ok
}

// Live returns the number of instantiated programs that have not been closed.
func (r *Runtime) Live() int {
	r.hostsMu.RLock()
	defer r.hostsMu.RUnlock()
	return len(r.hosts)
}

// Loader adapts a Runtime to script.Loader.
type Loader struct {
	rt *Runtime
}

// NewLoader creates a loader that compiles and instantiates each source.
func NewLoader(rt *Runtime) *Loader {
	return &Loader{rt: rt}
}

// Load compiles src and instantiates it bound to host.
func (l *Loader) Load(ctx context.Context, src script.Source, host script.Host) (script.Program, error) {
	mod, err := l.rt.Compile(ctx, src)
	if err != nil {
		return nil, err
	}
	prog, err := mod.Instantiate(ctx, host)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	return prog, nil
}
