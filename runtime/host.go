package runtime

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"
)

const hostModule = "bridge"

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// instantiateBridge registers the host functions every program imports.
func (r *Runtime) instantiateBridge(ctx context.Context) error {
	builder := r.runtime.NewHostModuleBuilder(hostModule)

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.flush), []api.ValueType{i32, i32}, nil).
		WithParameterNames("ptr", "len").
		Export("flush")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.invokeSync), []api.ValueType{i32, i32}, []api.ValueType{i64}).
		WithParameterNames("ptr", "len").
		Export("invoke_sync")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(r.log), []api.ValueType{i32, i32, i32}, nil).
		WithParameterNames("level", "ptr", "len").
		Export("log")

	builder = builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(_ context.Context, _ api.Module, stack []uint64) {
			stack[0] = uint64(time.Now().UnixMilli())
		}), nil, []api.ValueType{i64}).
		Export("now_ms")

	_, err := builder.Instantiate(ctx)
	return err
}

// read copies a guest buffer so it stays valid after the call returns.
func (r *Runtime) read(mod api.Module, fn string, ptr, length uint32) ([]byte, bool) {
	mem := mod.Memory()
	if mem == nil {
		r.logger.Warn("guest has no memory", zap.String("module", mod.Name()), zap.String("fn", fn))
		return nil, false
	}
	view, ok := mem.Read(ptr, length)
	if !ok {
		r.logger.Warn("guest buffer out of range",
			zap.String("module", mod.Name()), zap.String("fn", fn),
			zap.Uint32("ptr", ptr), zap.Uint32("len", length))
		return nil, false
	}
	out := make([]byte, len(view))
	copy(out, view)
	return out, true
}

func (r *Runtime) flush(_ context.Context, mod api.Module, stack []uint64) {
	h, ok := r.host(mod.Name())
	if !ok {
		r.logger.Warn("flush from unbound instance", zap.String("module", mod.Name()))
		return
	}
	payload, ok := r.read(mod, "flush", api.DecodeU32(stack[0]), api.DecodeU32(stack[1]))
	if !ok {
		return
	}
	h.Flush(payload)
}

func (r *Runtime) invokeSync(ctx context.Context, mod api.Module, stack []uint64) {
	ptr, length := api.DecodeU32(stack[0]), api.DecodeU32(stack[1])
	stack[0] = 0
	h, ok := r.host(mod.Name())
	if !ok {
		r.logger.Warn("invoke_sync from unbound instance", zap.String("module", mod.Name()))
		return
	}
	req, ok := r.read(mod, "invoke_sync", ptr, length)
	if !ok {
		return
	}
	resp := h.InvokeSync(req)
	out, ok := writeGuest(ctx, mod, resp)
	if !ok {
		r.logger.Warn("cannot return invoke_sync result, guest has no usable alloc",
			zap.String("module", mod.Name()))
		return
	}
	stack[0] = uint64(out)<<32 | uint64(uint32(len(resp)))
}

func (r *Runtime) log(_ context.Context, mod api.Module, stack []uint64) {
	h, ok := r.host(mod.Name())
	if !ok {
		return
	}
	level := api.DecodeI32(stack[0])
	msg, ok := r.read(mod, "log", api.DecodeU32(stack[1]), api.DecodeU32(stack[2]))
	if !ok {
		return
	}
	h.Log(level, string(msg))
}

// writeGuest copies data into a buffer obtained from the guest's alloc export.
func writeGuest(ctx context.Context, mod api.Module, data []byte) (uint32, bool) {
	alloc := mod.ExportedFunction(exportAlloc)
	mem := mod.Memory()
	if alloc == nil || mem == nil {
		return 0, false
	}
	res, err := alloc.Call(ctx, uint64(len(data)))
	if err != nil || len(res) == 0 {
		return 0, false
	}
	ptr := api.DecodeU32(res[0])
	if !mem.Write(ptr, data) {
		return 0, false
	}
	return ptr, true
}
