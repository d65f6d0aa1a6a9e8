// Package nativebridge drives native widgets from a reactive UI description
// produced by a scripting program.
//
// The scripting program runs as a WebAssembly guest. It emits batches of
// UI-mutation operations which the bridge applies to a persistent native node
// graph, followed by at most one flexbox layout pass per batch. Native events
// flow back into the guest, and the whole guest program can be replaced at
// runtime without restarting the host window.
//
// # Architecture Overview
//
//	nativebridge/       Root package with identifier types shared by all packages
//	├── protocol/       Operation codec (JSON and msgpack wire formats)
//	├── registry/       Node registry: id -> native node, parent/children indices, handlers
//	├── widget/         Component registry contract and per-type adapters
//	├── layout/         Flexbox layout engine and style parser
//	├── bridge/         Bridge core: batch processing, layout scheduling, event dispatch
//	├── throttle/       Rate limiting for high-frequency native events
//	├── modules/        Native module invocation (async and sync) and built-in modules
//	├── queue/          Serial execution contexts (UI thread, script queue)
//	├── script/         Scripting program contract
//	├── runtime/        wazero-backed scripting runtime
//	├── reload/         Hot-reload coordinator and file watcher
//	├── devserver/      socket.io reload channel
//	├── tui/            Terminal widget toolkit and host window
//	├── config/         viper configuration
//	├── errors/         Structured error types
//	└── cmd/run/        Terminal host: runs a program with hot reload
//
// # Execution Contexts
//
// Two contexts exist. The script queue is the only place guest code runs;
// batch decoding happens there too. The UI queue is the only place the node
// registry, widgets and layout are touched. Work crosses from the script queue
// to the UI queue asynchronously, except during hot reload where teardown is
// a bounded synchronous hand-off.
//
// # Quick Start
//
//	ui := queue.New("ui")
//	sq := queue.New("script")
//	win := tui.NewWindow()
//
//	b, err := bridge.New(bridge.Options{
//	    UI:      ui,
//	    Script:  sq,
//	    Window:  win,
//	    Widgets: tui.NewRegistry(),
//	    Modules: modules.NewRegistry(),
//	})
//	if err != nil {
//	    return err
//	}
//
//	rt, _ := runtime.New(ctx)
//	coord := reload.NewCoordinator(b, runtime.NewLoader(rt), reload.Options{})
//	src, _ := script.ReadFile("app.wasm")
//	res, err := coord.Reload(ctx, src)
//
// Every later Reload replaces the running program: the old one is torn down,
// the node graph is cleared and the new program starts against an empty
// window.
package nativebridge
