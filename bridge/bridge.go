package bridge

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/layout"
	"github.com/wippyai/native-bridge/modules"
	"github.com/wippyai/native-bridge/protocol"
	"github.com/wippyai/native-bridge/queue"
	"github.com/wippyai/native-bridge/registry"
	"github.com/wippyai/native-bridge/script"
	"github.com/wippyai/native-bridge/throttle"
	"github.com/wippyai/native-bridge/widget"
)

// Defaults for Options.
const (
	DefaultRootRetryDelay = 100 * time.Millisecond
)

// DefaultThrottledEvents are the high-frequency events coalesced per node.
var DefaultThrottledEvents = []string{"scroll", "resize"}

// Executor is a serial queue. queue.Queue implements it.
type Executor interface {
	queue.Scheduler
	Name() string
	Async(fn func()) bool
	Sync(ctx context.Context, fn func()) error
	MustBeOn(op string)
	CancelTimers()
}

// Window is the host window holding the root container.
type Window interface {
	// SetRoot mounts node into the root container, replacing the previous
	// root. Nil empties the container.
	SetRoot(node layout.Node)
	// Bounds returns the safe area available to the root. A zero size means
	// the window has not been laid out yet.
	Bounds() layout.Rect
	// Invalidate schedules a redraw.
	Invalidate()
	// ShowDiagnostic displays a message over the content. Empty clears it.
	ShowDiagnostic(msg string)
}

// Options configures a Bridge.
type Options struct {
	UI      Executor
	Script  Executor
	Window  Window
	Widgets *widget.Registry
	Modules *modules.Registry
	Layout  *layout.Engine
	Codec   *protocol.Codec
	Logger  *zap.Logger

	// RootRetryDelay is the delay of the second layout attempt after
	// setRootView. Defaults to DefaultRootRetryDelay.
	RootRetryDelay time.Duration
	// ThrottleInterval defaults to throttle.DefaultInterval.
	ThrottleInterval time.Duration
	// ThrottledEvents defaults to DefaultThrottledEvents.
	ThrottledEvents []string
}

// Bridge connects a scripting program to native widgets.
type Bridge struct {
	ctx       context.Context
	cancel    context.CancelFunc
	opts      Options
	logger    *zap.Logger
	codec     *protocol.Codec
	engine    *layout.Engine
	nodes     *registry.Registry
	throttles *throttle.Group
	globals   *throttle.Group

	// UI queue only
	root    nativebridge.NodeID
	hasRoot bool

	progMu    sync.Mutex
	program   script.Program
	progEpoch uint64

	epoch atomic.Uint64
	state atomic.Int32

	batches        atomic.Uint64
	droppedBatches atomic.Uint64
	ops            atomic.Uint64
	failedOps      atomic.Uint64
	skipped        atomic.Uint64
	layoutPasses   atomic.Uint64
	layoutSkipped  atomic.Uint64
	events         atomic.Uint64
	droppedEvents  atomic.Uint64
	resolutions    atomic.Uint64
	liveNodes      atomic.Int64
	liveHandlers   atomic.Int64
}

// New creates a bridge in the Uninitialized state.
func New(opts Options) (*Bridge, error) {
	if opts.UI == nil || opts.Script == nil {
		return nil, errors.InvalidInput(errors.PhaseDispatch, "bridge needs a UI and a script queue")
	}
	if opts.Window == nil {
		return nil, errors.InvalidInput(errors.PhaseDispatch, "bridge needs a window")
	}
	if opts.Widgets == nil {
		opts.Widgets = widget.NewRegistry()
	}
	if opts.Modules == nil {
		opts.Modules = modules.NewRegistry()
	}
	if opts.Layout == nil {
		opts.Layout = layout.NewEngine()
	}
	if opts.Logger == nil {
		opts.Logger = Logger()
	}
	if opts.Codec == nil {
		opts.Codec = protocol.NewCodec(protocol.FormatJSON, protocol.WithLogger(opts.Logger))
	}
	if opts.RootRetryDelay <= 0 {
		opts.RootRetryDelay = DefaultRootRetryDelay
	}
	if opts.ThrottleInterval <= 0 {
		opts.ThrottleInterval = throttle.DefaultInterval
	}
	if opts.ThrottledEvents == nil {
		opts.ThrottledEvents = DefaultThrottledEvents
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		ctx:    ctx,
		cancel: cancel,
		opts:   opts,
		logger: opts.Logger,
		codec:  opts.Codec,
		engine: opts.Layout,
		nodes:  registry.New(registry.Options{Guard: opts.UI.MustBeOn, Logger: opts.Logger}),
	}
	b.throttles = throttle.NewGroup(opts.UI, opts.ThrottleInterval, opts.ThrottledEvents, b.deliverEvent)
	b.globals = throttle.NewGroup(opts.UI, opts.ThrottleInterval, opts.ThrottledEvents, b.deliverGlobal)
	return b, nil
}

// State returns the current lifecycle state.
func (b *Bridge) State() State {
	return State(b.state.Load())
}

// Epoch returns the current epoch. It advances on every Reset.
func (b *Bridge) Epoch() uint64 {
	return b.epoch.Load()
}

// Codec returns the codec used on both channels.
func (b *Bridge) Codec() *protocol.Codec {
	return b.codec
}

// UI returns the queue batches are applied on.
func (b *Bridge) UI() Executor {
	return b.opts.UI
}

// Script returns the queue the program runs on.
func (b *Bridge) Script() Executor {
	return b.opts.Script
}

// Registry returns the node registry. It must only be used on the UI queue.
func (b *Bridge) Registry() *registry.Registry {
	return b.nodes
}

// Attach wires program as the receiver of events and resolutions for the
// current epoch and moves the bridge to Ready.
func (b *Bridge) Attach(program script.Program) {
	b.progMu.Lock()
	b.program = program
	b.progEpoch = b.epoch.Load()
	b.progMu.Unlock()
	b.state.Store(int32(StateReady))
	b.logger.Info("program attached", zap.Uint64("epoch", b.epoch.Load()))
}

// programFor returns the attached program if it belongs to epoch.
func (b *Bridge) programFor(epoch uint64) script.Program {
	b.progMu.Lock()
	defer b.progMu.Unlock()
	if b.program == nil || b.progEpoch != epoch || b.epoch.Load() != epoch {
		return nil
	}
	return b.program
}

// Reset clears every node, handler, throttle and timer, empties the root
// container and starts a new epoch. The window and its root container are
// kept. It must run on the UI queue.
func (b *Bridge) Reset() {
	b.opts.UI.MustBeOn("bridge.reset")
	b.state.Store(int32(StateReloading))

	b.opts.UI.CancelTimers()
	b.throttles.CancelAll()
	b.globals.CancelAll()
	b.opts.Window.SetRoot(nil)
	b.hasRoot, b.root = false, 0

	destroyed := b.nodes.Clear(b.release)

	b.progMu.Lock()
	b.program = nil
	b.progMu.Unlock()
	epoch := b.epoch.Add(1)

	b.updateGauges()
	b.opts.Window.Invalidate()
	b.logger.Info("bridge reset", zap.Int("destroyed", destroyed), zap.Uint64("epoch", epoch))
}

// ShowDiagnostic displays msg in the window from any goroutine.
func (b *Bridge) ShowDiagnostic(msg string) {
	b.opts.UI.Async(func() {
		b.opts.Window.ShowDiagnostic(msg)
		b.opts.Window.Invalidate()
	})
}

// Stats returns a snapshot of the counters.
func (b *Bridge) Stats() Stats {
	return Stats{
		Batches:        b.batches.Load(),
		DroppedBatches: b.droppedBatches.Load(),
		Ops:            b.ops.Load(),
		FailedOps:      b.failedOps.Load(),
		SkippedEntries: b.skipped.Load(),
		LayoutPasses:   b.layoutPasses.Load(),
		LayoutSkipped:  b.layoutSkipped.Load(),
		Events:         b.events.Load(),
		DroppedEvents:  b.droppedEvents.Load(),
		Resolutions:    b.resolutions.Load(),
		Epoch:          b.epoch.Load(),
		Nodes:          int(b.liveNodes.Load()),
		Handlers:       int(b.liveHandlers.Load()),
	}
}

func (b *Bridge) updateGauges() {
	b.liveNodes.Store(int64(b.nodes.Len()))
	b.liveHandlers.Store(int64(b.nodes.HandlerCount()))
}

// Close stops delivering work to the program. Queues are owned by the caller.
func (b *Bridge) Close() {
	b.cancel()
	b.progMu.Lock()
	b.program = nil
	b.progMu.Unlock()
}
