// Command run hosts a scripting program and renders its native tree in the
// terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/native-bridge/bridge"
	"github.com/wippyai/native-bridge/config"
	"github.com/wippyai/native-bridge/devserver"
	"github.com/wippyai/native-bridge/modules"
	"github.com/wippyai/native-bridge/protocol"
	"github.com/wippyai/native-bridge/queue"
	"github.com/wippyai/native-bridge/reload"
	"github.com/wippyai/native-bridge/runtime"
)

type flags struct {
	wasm      string
	config    string
	devServer string
	logLevel  string
	watch     bool
	headless  bool
	settle    time.Duration
	width     int
	height    int
}

func main() {
	var f flags
	flag.StringVar(&f.wasm, "wasm", "", "Path to the program wasm file")
	flag.StringVar(&f.config, "config", "", "Path to the config file")
	flag.StringVar(&f.devServer, "devserver", "", "Dev server URL to receive reloads from")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&f.watch, "watch", false, "Reload when the wasm file changes")
	flag.BoolVar(&f.headless, "headless", false, "Render one frame to stdout and exit")
	flag.DurationVar(&f.settle, "settle", 300*time.Millisecond, "Headless: print once no frame was drawn for this long")
	flag.IntVar(&f.width, "width", 80, "Headless: terminal width")
	flag.IntVar(&f.height, "height", 24, "Headless: terminal height")
	flag.Parse()

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := config.Load(f.config)
	if err != nil {
		return err
	}
	if f.wasm != "" {
		cfg.Program.Path = f.wasm
	}
	if f.watch {
		cfg.Program.Watch = true
	}
	if f.devServer != "" {
		cfg.DevServer.URL = f.devServer
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if cfg.Program.Path == "" {
		fmt.Fprintln(os.Stderr, "Usage: run -wasm <program.wasm> [-watch] [-devserver url] [-config file]")
		fmt.Fprintln(os.Stderr, "       run -wasm <program.wasm> -headless  (print one frame)")
		os.Exit(2)
	}

	interactive := !f.headless && term.IsTerminal(int(os.Stdout.Fd()))
	logger, err := newLogger(cfg.Log, interactive)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	setLoggers(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h, err := newHost(ctx, cfg, logger, !interactive)
	if err != nil {
		return err
	}
	defer h.close()

	if !interactive {
		if err := h.ui.Sync(ctx, func() { h.window.Resize(f.width, f.height) }); err != nil {
			return err
		}
	}
	if err := h.start(ctx); err != nil && !interactive {
		return err
	}

	if !interactive {
		fmt.Println(h.settle(ctx, f.settle))
		return nil
	}
	return h.runTerminal(ctx)
}

// newLogger builds the process logger from the log section. The terminal
// UI owns stderr, so interactive logs go to a file.
func newLogger(lc config.LogConfig, interactive bool) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if lc.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.DisableStacktrace = level > zapcore.DebugLevel

	out := lc.File
	if out == "" && interactive {
		out = filepath.Join(os.TempDir(), "native-bridge.log")
	}
	if out != "" {
		zc.OutputPaths = []string{out}
		zc.ErrorOutputPaths = []string{out}
	}
	return zc.Build()
}

func setLoggers(l *zap.Logger) {
	bridge.SetLogger(l.Named("bridge"))
	reload.SetLogger(l.Named("reload"))
	devserver.SetLogger(l.Named("devserver"))
	modules.SetLogger(l.Named("modules"))
	protocol.SetLogger(l.Named("protocol"))
	queue.SetLogger(l.Named("queue"))
	runtime.SetLogger(l.Named("runtime"))
}
