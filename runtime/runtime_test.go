package runtime

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/script"
)

type logLine struct {
	Level int32
	Msg   string
}

type recordingHost struct {
	mu       sync.Mutex
	flushes  []string
	logs     []logLine
	requests []string
	response string
}

func (h *recordingHost) Flush(payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushes = append(h.flushes, string(payload))
}

func (h *recordingHost) InvokeSync(payload []byte) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, string(payload))
	return []byte(h.response)
}

func (h *recordingHost) Log(level int32, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logs = append(h.logs, logLine{level, msg})
}

func (h *recordingHost) takeFlushes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.flushes
	h.flushes = nil
	return out
}

const (
	guestLog      = "hello from guest"
	guestBatch    = `[{"op":"create","args":[1,"view"]}]`
	guestRequest  = `{"module":"device","method":"getTime","args":[]}`
	guestTeardown = "teardown"
)

// fullGuest exercises every import and export of the guest ABI.
func fullGuest() []byte {
	m := wasmModule{
		types: []funcType{
			{params: []byte{valI32, valI32}},                          // 0
			{},                                                        // 1
			{params: []byte{valI32}, results: []byte{valI32}},         // 2
			{params: []byte{valI32, valI32}, results: []byte{valI64}}, // 3
			{params: []byte{valI32, valI32, valI32}},                  // 4
		},
		imports: []wasmImport{
			{"bridge", "flush", 0},
			{"bridge", "invoke_sync", 3},
			{"bridge", "log", 4},
		},
		memory: true,
		funcs: []wasmFunc{
			{name: "start", typeIdx: 1, locals: []byte{valI64}, body: code(
				i32Const(2), i32Const(16), i32Const(int32(len(guestLog))), call(2),
				i32Const(64), i32Const(int32(len(guestBatch))), call(0),
				i32Const(512), i32Const(int32(len(guestRequest))), call(1), localSet(0),
				localGet(0), i64Const(32), op(opI64ShrU, opI32Wrap),
				localGet(0), op(opI32Wrap),
				call(0),
			)},
			{name: "alloc", typeIdx: 2, body: i32Const(4096)},
			{name: "on_event", typeIdx: 0, body: code(localGet(0), localGet(1), call(0))},
			{name: "on_resolve", typeIdx: 0, body: code(localGet(0), localGet(1), call(0))},
			{name: "teardown", typeIdx: 1, body: code(i32Const(1024), i32Const(int32(len(guestTeardown))), call(0))},
		},
		data: []dataSegment{
			{16, []byte(guestLog)},
			{64, []byte(guestBatch)},
			{512, []byte(guestRequest)},
			{1024, []byte(guestTeardown)},
		},
	}
	return m.encode()
}

// minimalGuest only flushes a batch from start.
func minimalGuest() []byte {
	m := wasmModule{
		types:   []funcType{{params: []byte{valI32, valI32}}, {}},
		imports: []wasmImport{{"bridge", "flush", 0}},
		memory:  true,
		funcs: []wasmFunc{
			{name: "start", typeIdx: 1, body: code(i32Const(8), i32Const(2), call(0))},
		},
		data: []dataSegment{{8, []byte("[]")}},
	}
	return m.encode()
}

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	ctx := context.Background()
	rt, err := New(ctx)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { rt.Close(ctx) })
	return rt
}

func TestProgram_FullABI(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t)
	host := &recordingHost{response: `{"result":42,"error":null}`}

	prog, err := NewLoader(rt).Load(ctx, script.Source{Name: "full.wasm", Bytes: fullGuest()}, host)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if rt.Live() != 1 {
		t.Errorf("Live = %d, want 1", rt.Live())
	}

	if err := prog.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if diff := cmp.Diff([]string{guestBatch, host.response}, host.takeFlushes()); diff != "" {
		t.Errorf("start flushes (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]logLine{{2, guestLog}}, host.logs); diff != "" {
		t.Errorf("logs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{guestRequest}, host.requests); diff != "" {
		t.Errorf("sync requests (-want +got):\n%s", diff)
	}

	event := `{"type":"event","nodeId":1,"eventName":"press","payload":null}`
	if err := prog.DispatchEvent(ctx, []byte(event)); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	resolve := `{"type":"resolve","callbackId":3,"result":"ok","error":null}`
	if err := prog.ResolveCallback(ctx, []byte(resolve)); err != nil {
		t.Fatalf("ResolveCallback: %v", err)
	}
	if err := prog.Teardown(ctx); err != nil {
		t.Fatalf("Teardown: %v", err)
	}
	if diff := cmp.Diff([]string{event, resolve, guestTeardown}, host.takeFlushes()); diff != "" {
		t.Errorf("delivery flushes (-want +got):\n%s", diff)
	}

	if err := prog.Close(ctx); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rt.Live() != 0 {
		t.Errorf("Live = %d after Close", rt.Live())
	}
	closed := &errors.Error{Phase: errors.PhaseRuntime, Kind: errors.KindClosed}
	if err := prog.Start(ctx); !stderrors.Is(err, closed) {
		t.Errorf("Start after Close = %v, want closed", err)
	}
	if err := prog.Close(ctx); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestProgram_OptionalExportsMissing(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t)
	host := &recordingHost{}

	mod, err := rt.Compile(ctx, script.Source{Name: "min.wasm", Bytes: minimalGuest()})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(mod.Exports()) != 0 {
		t.Errorf("unexpected optional exports: %v", mod.Exports())
	}
	prog, err := mod.Instantiate(ctx, host)
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	defer prog.Close(ctx)

	if err := prog.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := prog.DispatchEvent(ctx, []byte("{}")); err != nil {
		t.Errorf("DispatchEvent without on_event: %v", err)
	}
	if err := prog.Teardown(ctx); err != nil {
		t.Errorf("Teardown without export: %v", err)
	}
	if diff := cmp.Diff([]string{"[]"}, host.takeFlushes()); diff != "" {
		t.Errorf("flushes (-want +got):\n%s", diff)
	}
}

func TestProgram_InstancesAreRoutedSeparately(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t)
	loader := NewLoader(rt)
	a, b := &recordingHost{}, &recordingHost{}

	pa, err := loader.Load(ctx, script.Source{Name: "app.wasm", Bytes: minimalGuest()}, a)
	if err != nil {
		t.Fatalf("Load a: %v", err)
	}
	defer pa.Close(ctx)
	pb, err := loader.Load(ctx, script.Source{Name: "app.wasm", Bytes: minimalGuest()}, b)
	if err != nil {
		t.Fatalf("Load b: %v", err)
	}
	defer pb.Close(ctx)

	if err := pb.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(a.takeFlushes()) != 0 || len(b.takeFlushes()) != 1 {
		t.Error("flush was routed to the wrong host")
	}
}

func TestCompile_Errors(t *testing.T) {
	ctx := context.Background()
	rt := newTestRuntime(t)

	noStart := wasmModule{
		types:  []funcType{{}},
		memory: true,
		funcs:  []wasmFunc{{name: "other", typeIdx: 0}},
	}.encode()
	_, err := rt.Compile(ctx, script.Source{Name: "nostart.wasm", Bytes: noStart})
	var missing *errors.MissingExportsError
	if !stderrors.As(err, &missing) || !missing.HasRequired() {
		t.Fatalf("expected missing exports, got %v", err)
	}
	if missing.Exports[0].Name != "start" {
		t.Errorf("first missing export = %q, want start", missing.Exports[0].Name)
	}

	badSig := wasmModule{
		types:  []funcType{{params: []byte{valI32}}},
		memory: true,
		funcs:  []wasmFunc{{name: "start", typeIdx: 0}},
	}.encode()
	if _, err := rt.Compile(ctx, script.Source{Name: "badsig.wasm", Bytes: badSig}); err == nil {
		t.Error("start with parameters should be rejected")
	}

	foreign := wasmModule{
		types:   []funcType{{}},
		imports: []wasmImport{{"env", "abort", 0}},
		memory:  true,
		funcs:   []wasmFunc{{name: "start", typeIdx: 0}},
	}.encode()
	if _, err := rt.Compile(ctx, script.Source{Name: "foreign.wasm", Bytes: foreign}); err == nil {
		t.Error("unknown imports should be rejected")
	}

	if _, err := rt.Compile(ctx, script.Source{Name: "junk.wasm", Bytes: []byte("not wasm")}); err == nil {
		t.Error("garbage should not compile")
	}
	if _, err := rt.Compile(ctx, script.Source{Name: "empty.wasm"}); err == nil {
		t.Error("empty source should be rejected")
	}
}
