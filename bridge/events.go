package bridge

import (
	"go.uber.org/zap"

	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/protocol"
	"github.com/wippyai/native-bridge/script"
)

// onNativeEvent is called by widgets on the UI queue.
func (b *Bridge) onNativeEvent(epoch uint64, key nativebridge.HandlerKey, payload any) {
	if epoch != b.epoch.Load() {
		b.droppedEvents.Add(1)
		return
	}
	b.throttles.Call(key, payload)
}

// deliverEvent encodes a node event that passed the throttle and hands it to
// the script queue.
func (b *Bridge) deliverEvent(key nativebridge.HandlerKey, payload any) {
	if _, ok := b.nodes.Handler(key); !ok {
		b.droppedEvents.Add(1)
		return
	}
	msg, err := b.codec.EncodeEvent(key.Node, key.Event, payload)
	if err != nil {
		b.droppedEvents.Add(1)
		b.logger.Warn("event not encodable", zap.Stringer("handler", key), zap.Error(err))
		return
	}
	b.events.Add(1)
	b.dispatchMessage(b.epoch.Load(), msg)
}

// EmitGlobal sends an event that is not bound to a node, such as a window
// resize. It is safe to call from any goroutine. Throttled event names are
// coalesced like node events.
func (b *Bridge) EmitGlobal(name string, payload any) {
	b.opts.UI.Async(func() {
		b.globals.Call(nativebridge.HandlerKey{Event: name}, payload)
	})
}

func (b *Bridge) deliverGlobal(key nativebridge.HandlerKey, payload any) {
	msg, err := b.codec.EncodeGlobalEvent(key.Event, payload)
	if err != nil {
		b.droppedEvents.Add(1)
		b.logger.Warn("global event not encodable", zap.String("event", key.Event), zap.Error(err))
		return
	}
	b.events.Add(1)
	b.dispatchMessage(b.epoch.Load(), msg)
}

// invokeModule starts an asynchronous module call. Its resolution is
// delivered to the program of epoch exactly once.
func (b *Bridge) invokeModule(epoch uint64, op *protocol.Operation) {
	callback, hasCallback := op.Callback, op.HasCallback
	b.opts.Modules.Invoke(b.ctx, op.Module, op.Method, op.Args, func(result any, err error) {
		b.resolutions.Add(1)
		if !hasCallback {
			if err != nil {
				b.logger.Warn("module call failed", zap.String("module", op.Module),
					zap.String("method", op.Method), zap.Error(err))
			}
			return
		}
		msg, encErr := b.codec.EncodeResolution(protocol.Resolution{Callback: callback, Result: result, Err: err})
		if encErr != nil {
			b.logger.Warn("resolution not encodable", zap.Int64("callback", int64(callback)), zap.Error(encErr))
			msg, encErr = b.codec.EncodeResolution(protocol.Resolution{Callback: callback, Err: encErr})
			if encErr != nil {
				return
			}
		}
		b.deliver(epoch, protocol.TypeResolve, func(p script.Program) error {
			return p.ResolveCallback(b.ctx, msg)
		})
	})
}

// invokeModuleSync runs a module call inside the batch and logs its result.
func (b *Bridge) invokeModuleSync(op *protocol.Operation) {
	result, err := b.opts.Modules.InvokeSync(b.ctx, op.Module, op.Method, op.Args)
	if err != nil {
		b.logger.Warn("module call failed", zap.String("module", op.Module),
			zap.String("method", op.Method), zap.Error(err))
		return
	}
	b.logger.Debug("module call returned", zap.String("module", op.Module),
		zap.String("method", op.Method), zap.Any("result", protocol.Sanitize(result)))
}
