package runtime

import (
	"context"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/script"
)

// Program is a running instance of a Module. It implements script.Program.
type Program struct {
	module    *Module
	instance  api.Module
	start     api.Function
	onEvent   api.Function
	onResolve api.Function
	teardown  api.Function
	name      string
	closed    bool
}

var _ script.Program = (*Program)(nil)

func newProgram(m *Module, mod api.Module, name string) *Program {
	return &Program{
		module:    m,
		instance:  mod,
		name:      name,
		start:     mod.ExportedFunction(exportStart),
		onEvent:   mod.ExportedFunction(exportOnEvent),
		onResolve: mod.ExportedFunction(exportOnResolve),
		teardown:  mod.ExportedFunction(exportTeardown),
	}
}

// Name returns the unique instance name.
func (p *Program) Name() string {
	return p.name
}

// Start runs the start export.
func (p *Program) Start(ctx context.Context) error {
	return p.call(ctx, exportStart, p.start)
}

// DispatchEvent delivers msg to on_event. Programs without on_event ignore events.
func (p *Program) DispatchEvent(ctx context.Context, msg []byte) error {
	return p.deliver(ctx, exportOnEvent, p.onEvent, msg)
}

// ResolveCallback delivers msg to on_resolve.
func (p *Program) ResolveCallback(ctx context.Context, msg []byte) error {
	return p.deliver(ctx, exportOnResolve, p.onResolve, msg)
}

// Teardown runs the teardown export when present.
func (p *Program) Teardown(ctx context.Context) error {
	if p.teardown == nil {
		return nil
	}
	return p.call(ctx, exportTeardown, p.teardown)
}

// Close releases the instance and stops routing host calls to it.
func (p *Program) Close(ctx context.Context) error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.module.runtime.unbind(p.name)
	err := p.instance.Close(ctx)
	if cerr := p.module.Close(ctx); err == nil {
		err = cerr
	}
	return err
}

func (p *Program) deliver(ctx context.Context, export string, fn api.Function, msg []byte) error {
	if fn == nil {
		return nil
	}
	if p.closed {
		return errors.Closed(errors.PhaseRuntime, p.name)
	}
	ptr, ok := writeGuest(ctx, p.instance, msg)
	if !ok {
		return errors.New(errors.PhaseRuntime, errors.KindNotFound).
			Op(export).Detail("%s cannot receive data: alloc missing or failed", p.name).Build()
	}
	return p.call(ctx, export, fn, uint64(ptr), uint64(len(msg)))
}

func (p *Program) call(ctx context.Context, export string, fn api.Function, params ...uint64) error {
	if p.closed {
		return errors.Closed(errors.PhaseRuntime, p.name)
	}
	if _, err := fn.Call(ctx, params...); err != nil {
		p.module.runtime.logger.Warn("guest call failed",
			zap.String("program", p.name), zap.String("export", export), zap.Error(err))
		return errors.Trap(export, err)
	}
	return nil
}
