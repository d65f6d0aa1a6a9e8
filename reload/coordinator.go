package reload

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/bridge"
	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/script"
)

// DefaultTeardownTimeout bounds the synchronous teardown of the old program.
const DefaultTeardownTimeout = 2 * time.Second

// Options configures a Coordinator.
type Options struct {
	Logger *zap.Logger
	// TeardownTimeout defaults to DefaultTeardownTimeout.
	TeardownTimeout time.Duration
}

// Result describes a finished reload.
type Result struct {
	Session  string
	Program  string
	Digest   string
	Epoch    uint64
	Duration time.Duration
}

// Coordinator serialises program loads and reloads for one bridge.
type Coordinator struct {
	mu      sync.Mutex
	bridge  *bridge.Bridge
	loader  script.Loader
	opts    Options
	logger  *zap.Logger
	program script.Program
	source  script.Source

	reloads  atomic.Uint64
	failures atomic.Uint64
}

// NewCoordinator creates a coordinator. No program runs until the first Reload.
func NewCoordinator(b *bridge.Bridge, loader script.Loader, opts Options) *Coordinator {
	if opts.TeardownTimeout <= 0 {
		opts.TeardownTimeout = DefaultTeardownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = Logger()
	}
	return &Coordinator{bridge: b, loader: loader, opts: opts, logger: opts.Logger}
}

// Reload replaces the running program with src. It is also used for the
// first load. Concurrent calls run one after another.
func (c *Coordinator) Reload(ctx context.Context, src script.Source) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := Result{Session: uuid.NewString(), Program: src.Name, Digest: src.Digest()}
	log := c.logger.With(
		zap.String("session", res.Session),
		zap.String("program", src.Name),
		zap.String("digest", res.Digest))
	began := time.Now()
	log.Info("reload started", zap.Int("bytes", len(src.Bytes)))

	if err := c.teardown(ctx, log); err != nil {
		return res, c.fail(log, "teardown", err)
	}

	ui, sq := c.bridge.UI(), c.bridge.Script()
	if err := ui.Sync(ctx, c.bridge.Reset); err != nil {
		return res, c.fail(log, "reset", err)
	}
	res.Epoch = c.bridge.Epoch()

	var prog script.Program
	var startErr error
	err := sq.Sync(ctx, func() {
		p, err := c.loader.Load(ctx, src, c.bridge.NewHost())
		if err != nil {
			startErr = errors.ReloadFailure("load", err)
			return
		}
		c.bridge.Attach(p)
		if err := p.Start(ctx); err != nil {
			startErr = errors.ReloadFailure("start", err)
			if cerr := p.Close(ctx); cerr != nil {
				log.Debug("failed program not closed", zap.Error(cerr))
			}
			return
		}
		prog = p
	})
	if err == nil {
		err = startErr
	}
	if err != nil {
		// a program that failed mid-start may have flushed a partial tree
		if rerr := ui.Sync(ctx, c.bridge.Reset); rerr != nil {
			log.Warn("partial tree not cleared", zap.Error(rerr))
		}
		return res, c.fail(log, "start", err)
	}

	c.program, c.source = prog, src
	c.reloads.Add(1)
	c.bridge.ShowDiagnostic("")
	res.Duration = time.Since(began)
	log.Info("reload finished", zap.Uint64("epoch", res.Epoch), zap.Duration("took", res.Duration))
	return res, nil
}

// teardown stops the current program on the script queue. Past
// TeardownTimeout its context is cancelled, which interrupts a guest still
// running, and the queue gets one more TeardownTimeout to drain. The
// registry is only cleared once the old program has left the queue; a
// queue that does not drain fails the reload and leaves the tree in place.
func (c *Coordinator) teardown(ctx context.Context, log *zap.Logger) error {
	old := c.program
	if old == nil {
		return nil
	}
	c.program = nil

	sq := c.bridge.Script()
	tctx, cancel := context.WithTimeout(ctx, c.opts.TeardownTimeout)
	err := sq.Sync(tctx, func() {
		if err := old.Teardown(tctx); err != nil {
			log.Warn("program teardown failed", zap.Error(err))
		}
		if err := old.Close(tctx); err != nil {
			log.Debug("program close failed", zap.Error(err))
		}
	})
	cancel()
	if err == nil {
		return nil
	}
	log.Warn("program teardown interrupted", zap.Duration("timeout", c.opts.TeardownTimeout), zap.Error(err))

	dctx, dcancel := context.WithTimeout(ctx, c.opts.TeardownTimeout)
	defer dcancel()
	if err := sq.Sync(dctx, func() {}); err != nil {
		return err
	}
	return nil
}

func (c *Coordinator) fail(log *zap.Logger, step string, err error) error {
	c.failures.Add(1)
	var rerr *errors.Error
	if e, ok := err.(*errors.Error); ok && e.Kind == errors.KindReloadFailure {
		rerr = e
	} else {
		rerr = errors.ReloadFailure(step, err)
	}
	log.Error("reload failed", zap.String("step", step), zap.Error(rerr))
	c.bridge.ShowDiagnostic("Reload failed\n\n" + rerr.Error())
	return rerr
}

// Source returns the source of the running program.
func (c *Coordinator) Source() (script.Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source, c.program != nil
}

// Stats returns the number of successful and failed reloads.
func (c *Coordinator) Stats() (reloads, failures uint64) {
	return c.reloads.Load(), c.failures.Load()
}

// Close tears down the running program.
func (c *Coordinator) Close(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.teardown(ctx, c.logger); err != nil {
		c.logger.Warn("program left running on close", zap.Error(err))
	}
}
