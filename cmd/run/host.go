package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/bridge"
	"github.com/wippyai/native-bridge/config"
	"github.com/wippyai/native-bridge/devserver"
	"github.com/wippyai/native-bridge/layout"
	"github.com/wippyai/native-bridge/modules"
	"github.com/wippyai/native-bridge/protocol"
	"github.com/wippyai/native-bridge/queue"
	"github.com/wippyai/native-bridge/reload"
	"github.com/wippyai/native-bridge/runtime"
	"github.com/wippyai/native-bridge/script"
	"github.com/wippyai/native-bridge/tui"
)

// host owns every long-lived component of one run.
type host struct {
	cfg     config.Config
	logger  *zap.Logger
	ui      *queue.Queue
	script  *queue.Queue
	window  *tui.Window
	modules *modules.Registry
	rt      *runtime.Runtime
	bridge  *bridge.Bridge
	reload  *reload.Coordinator
	dev     *devserver.Client
	frames  chan struct{}
}

func newHost(ctx context.Context, cfg config.Config, logger *zap.Logger, guestOutput bool) (*host, error) {
	h := &host{
		cfg:    cfg,
		logger: logger,
		ui:     queue.New("ui", queue.WithLogger(logger)),
		script: queue.New("script", queue.WithLogger(logger)),
		window: tui.NewWindow(),
		frames: make(chan struct{}, 1),
	}
	h.window.SetStatus(filepath.Base(cfg.Program.Path))
	h.window.OnFrame(h.notifyFrame)

	h.modules = modules.NewRegistry(modules.WithLogger(logger))
	if err := h.modules.Register(&modules.Device{Size: h.window.Size}); err != nil {
		h.close()
		return nil, err
	}
	if cfg.Storage.Path != "" {
		storage, err := modules.OpenStorage(cfg.Storage.Path)
		if err != nil {
			h.close()
			return nil, err
		}
		if err := h.modules.Register(storage); err != nil {
			_ = storage.Close()
			h.close()
			return nil, err
		}
	}

	rc := &runtime.Config{MemoryLimitPages: cfg.Runtime.MemoryLimitPages}
	if guestOutput {
		rc.Stdout, rc.Stderr = os.Stderr, os.Stderr
	}
	rt, err := runtime.NewWithConfig(ctx, rc)
	if err != nil {
		h.close()
		return nil, fmt.Errorf("create runtime: %w", err)
	}
	h.rt = rt

	format, err := protocol.ParseFormat(cfg.Bridge.Format)
	if err != nil {
		h.close()
		return nil, err
	}
	h.bridge, err = bridge.New(bridge.Options{
		UI:               h.ui,
		Script:           h.script,
		Window:           h.window,
		Widgets:          tui.NewRegistry(),
		Modules:          h.modules,
		Layout:           layout.NewEngine(),
		Codec:            protocol.NewCodec(format, protocol.WithLogger(logger)),
		Logger:           logger.Named("bridge"),
		RootRetryDelay:   cfg.Bridge.RootRetryDelay,
		ThrottleInterval: cfg.Bridge.ThrottleInterval,
		ThrottledEvents:  cfg.Bridge.ThrottledEvents,
	})
	if err != nil {
		h.close()
		return nil, err
	}
	h.window.OnResize(h.onResize)

	h.reload = reload.NewCoordinator(h.bridge, runtime.NewLoader(rt), reload.Options{
		Logger:          logger.Named("reload"),
		TeardownTimeout: cfg.Reload.TeardownTimeout,
	})
	return h, nil
}

// onResize runs on the UI queue from Window.Resize.
func (h *host) onResize(width, height int) {
	h.bridge.Relayout()
	h.bridge.EmitGlobal("resize", map[string]any{"width": int64(width), "height": int64(height)})
}

func (h *host) notifyFrame() {
	select {
	case h.frames <- struct{}{}:
	default:
	}
}

// start loads the program and starts the optional reload sources. A failed
// first load leaves the diagnostic on screen and still starts the watchers.
func (h *host) start(ctx context.Context) error {
	loadErr := h.reloadFromDisk(ctx)

	if h.cfg.Program.Watch {
		w, err := reload.NewWatcher(h.cfg.Program.Path, h.reload, h.cfg.Program.Debounce)
		if err != nil {
			h.logger.Warn("watch disabled", zap.Error(err))
		} else {
			go func() {
				if err := w.Run(ctx); err != nil {
					h.logger.Warn("watcher stopped", zap.Error(err))
				}
			}()
		}
	}

	if url := h.cfg.DevServer.URL; url != "" {
		dev, err := devserver.Dial(ctx, devserver.Options{
			Logger:             h.logger.Named("devserver"),
			URL:                url,
			Namespace:          h.cfg.DevServer.Namespace,
			Path:               h.cfg.Program.Path,
			InsecureSkipVerify: h.cfg.DevServer.InsecureSkipVerify,
		}, h.reload)
		if err != nil {
			h.logger.Warn("dev server unavailable", zap.String("url", url), zap.Error(err))
		} else {
			h.dev = dev
		}
	}
	return loadErr
}

func (h *host) reloadFromDisk(ctx context.Context) error {
	src, err := script.ReadFile(h.cfg.Program.Path)
	if err != nil {
		h.bridge.ShowDiagnostic("Reload failed\n\n" + err.Error())
		return err
	}
	res, err := h.reload.Reload(ctx, src)
	if err != nil {
		return err
	}
	h.window.SetStatus(fmt.Sprintf("%s @%s", res.Program, res.Digest))
	return nil
}

// settle waits until no frame was drawn for quiet and returns the last one.
func (h *host) settle(ctx context.Context, quiet time.Duration) string {
	deadline := time.After(10 * quiet)
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		select {
		case <-h.frames:
			timer.Reset(quiet)
		case <-timer.C:
			return h.window.Frame()
		case <-deadline:
			return h.window.Frame()
		case <-ctx.Done():
			return h.window.Frame()
		}
	}
}

func (h *host) runTerminal(ctx context.Context) error {
	h.window.OnFrame(nil)
	return tui.Run(ctx, h.window, h.ui, tui.WithReload(func() {
		if err := h.reloadFromDisk(ctx); err != nil {
			h.logger.Warn("manual reload failed", zap.Error(err))
		}
	}))
}

func (h *host) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if h.dev != nil {
		h.dev.Close()
	}
	if h.reload != nil {
		h.reload.Close(ctx)
	}
	if h.bridge != nil {
		st := h.bridge.Stats()
		h.logger.Debug("bridge stats",
			zap.Uint64("batches", st.Batches),
			zap.Uint64("ops", st.Ops),
			zap.Uint64("failed_ops", st.FailedOps),
			zap.Uint64("layout_passes", st.LayoutPasses),
			zap.Uint64("events", st.Events),
			zap.Uint64("epoch", st.Epoch))
		h.bridge.Close()
	}
	if h.modules != nil {
		_ = h.modules.Close()
	}
	if h.rt != nil {
		_ = h.rt.Close(ctx)
	}
	h.ui.Close()
	h.script.Close()
}
