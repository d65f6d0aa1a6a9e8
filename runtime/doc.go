// Package runtime executes scripting programs compiled to WebAssembly.
//
// # Quick Start
//
//	ctx := context.Background()
//	rt, err := runtime.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Close(ctx)
//
//	mod, err := rt.Compile(ctx, src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	prog, err := mod.Instantiate(ctx, host)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer prog.Close(ctx)
//
//	err = prog.Start(ctx) // runs the guest's start export
//
// # Guest ABI
//
// Programs are core WebAssembly modules. The runtime provides one host
// module named "bridge":
//
//	flush(ptr, len i32)                 hand one batch to the bridge
//	invoke_sync(ptr, len i32) i64       blocking module call; returns ptr<<32 | len
//	log(level, ptr, len i32)            log a message
//	now_ms() i64                        host time in Unix milliseconds
//
// and expects these exports:
//
//	memory                              required
//	start()                             required, entry point
//	alloc(size i32) i32                 optional, buffer for host-to-guest data
//	on_event(ptr, len i32)              optional, event delivery
//	on_resolve(ptr, len i32)            optional, module resolution delivery
//	teardown()                          optional, called before a reload
//
// Programs without alloc cannot receive events, resolutions, or invoke_sync
// results. Modules importing wasi_snapshot_preview1 get wazero's WASI
// implementation with output routed to the configured writers.
//
// # Concurrency
//
// A Runtime may be shared. A Program is not safe for concurrent use and is
// driven from the script queue. Host calls are routed to the script.Host of
// the instance that made them.
package runtime
