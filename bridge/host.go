package bridge

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/native-bridge/protocol"
	"github.com/wippyai/native-bridge/script"
)

// Log levels passed by programs to Host.Log.
const (
	LogDebug int32 = iota
	LogInfo
	LogWarn
	LogError
)

// host is the script.Host handed to one program. It is bound to the epoch
// it was created in.
type host struct {
	b     *Bridge
	epoch uint64
}

var _ script.Host = (*host)(nil)

// NewHost returns a host bound to the current epoch. Batches flushed through
// it after the next Reset are dropped.
func (b *Bridge) NewHost() script.Host {
	return &host{b: b, epoch: b.epoch.Load()}
}

// Flush decodes payload on the script queue and schedules it on the UI queue.
func (h *host) Flush(payload []byte) {
	b := h.b
	b.opts.Script.MustBeOn("host.flush")

	if b.epoch.Load() != h.epoch {
		b.droppedBatches.Add(1)
		b.logger.Debug("batch from stale epoch dropped", zap.Uint64("epoch", h.epoch))
		return
	}

	batch, err := b.codec.Decode(payload)
	if err != nil {
		b.droppedBatches.Add(1)
		b.logger.Warn("batch rejected", zap.Uint64("epoch", h.epoch), zap.Error(err))
		return
	}

	epoch := h.epoch
	if !b.opts.UI.Async(func() { b.ApplyBatch(epoch, batch) }) {
		b.droppedBatches.Add(1)
	}
}

// InvokeSync runs a blocking module call on the script queue.
func (h *host) InvokeSync(payload []byte) []byte {
	b := h.b
	req, err := b.codec.DecodeSyncRequest(payload)
	var result any
	if err == nil {
		result, err = b.opts.Modules.InvokeSync(b.ctx, req.Module, req.Method, req.Args)
	}
	if err != nil {
		b.logger.Debug("sync module call failed",
			zap.String("module", req.Module), zap.String("method", req.Method), zap.Error(err))
	}
	out, encErr := b.codec.EncodeSyncResponse(result, err)
	if encErr != nil {
		b.logger.Warn("sync response not encodable", zap.Error(encErr))
		out, _ = b.codec.EncodeSyncResponse(nil, encErr)
	}
	return out
}

// Log forwards a program message to the bridge logger.
func (h *host) Log(level int32, msg string) {
	lvl := zapcore.InfoLevel
	switch level {
	case LogDebug:
		lvl = zapcore.DebugLevel
	case LogWarn:
		lvl = zapcore.WarnLevel
	case LogError:
		lvl = zapcore.ErrorLevel
	}
	if ce := h.b.logger.Check(lvl, msg); ce != nil {
		ce.Write(zap.String("source", "program"), zap.Uint64("epoch", h.epoch))
	}
}

// deliver runs fn with the program of epoch on the script queue. Nothing is
// delivered once the epoch has ended.
func (b *Bridge) deliver(epoch uint64, what string, fn func(p script.Program) error) bool {
	return b.opts.Script.Async(func() {
		p := b.programFor(epoch)
		if p == nil {
			b.logger.Debug("delivery to stale program dropped", zap.String("kind", what), zap.Uint64("epoch", epoch))
			return
		}
		if err := fn(p); err != nil {
			b.logger.Warn("program rejected delivery", zap.String("kind", what), zap.Uint64("epoch", epoch), zap.Error(err))
		}
	})
}

// dispatchMessage delivers an encoded event or global event.
func (b *Bridge) dispatchMessage(epoch uint64, msg []byte) {
	b.deliver(epoch, protocol.TypeEvent, func(p script.Program) error {
		return p.DispatchEvent(b.ctx, msg)
	})
}
