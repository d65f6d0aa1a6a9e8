package modules

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/native-bridge/errors"
)

type echo struct {
	closed bool
}

func (e *echo) Name() string { return "echo" }

func (e *echo) Say(_ context.Context, args []any) (any, error) {
	return args, nil
}

func (e *echo) Fail(_ context.Context, _ []any) (any, error) {
	return nil, stderrors.New("nope")
}

func (e *echo) Explode(_ context.Context, _ []any) (any, error) {
	panic("kaboom")
}

func (e *echo) GetHTTPStatus(_ context.Context, _ []any) (any, error) {
	return int64(200), nil
}

// Helper has the wrong signature and must not be registered.
func (e *echo) Helper(s string) string { return s }

func (e *echo) Close() error {
	e.closed = true
	return nil
}

type explicit struct{}

func (explicit) Name() string { return "explicit" }

func (explicit) Methods() map[string]Method {
	return map[string]Method{
		"ping": func(context.Context, []any) (any, error) { return "pong", nil },
	}
}

type empty struct{}

func (empty) Name() string { return "empty" }

func TestToLowerCamel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"GetItem", "getItem"},
		{"GetAllKeys", "getAllKeys"},
		{"URLFor", "urlFor"},
		{"ID", "id"},
		{"GetHTTPStatus", "getHTTPStatus"},
		{"x", "x"},
	}
	for _, tt := range tests {
		if got := toLowerCamel(tt.in); got != tt.want {
			t.Errorf("toLowerCamel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&echo{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(explicit{}); err != nil {
		t.Fatalf("Register explicit: %v", err)
	}

	if diff := cmp.Diff([]string{"echo", "explicit"}, r.Modules()); diff != "" {
		t.Errorf("modules (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"explode", "fail", "getHTTPStatus", "say"}, r.Methods("echo")); diff != "" {
		t.Errorf("methods (-want +got):\n%s", diff)
	}

	if err := r.Register(&echo{}); err == nil {
		t.Error("duplicate module should fail")
	}
	if err := r.Register(empty{}); err == nil {
		t.Error("module without methods should fail")
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&echo{})

	notFound := &errors.Error{Phase: errors.PhaseModule, Kind: errors.KindNotFound}
	_, err := r.Lookup("ecko", "say")
	if !stderrors.Is(err, notFound) || !strings.Contains(err.Error(), `did you mean "echo"`) {
		t.Errorf("unexpected module error: %v", err)
	}
	_, err = r.Lookup("echo", "sya")
	if !stderrors.Is(err, notFound) || !strings.Contains(err.Error(), `did you mean "say"`) {
		t.Errorf("unexpected method error: %v", err)
	}
}

func TestRegistry_InvokeResolvesExactlyOnce(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&echo{})

	type outcome struct {
		result any
		err    error
	}
	tests := []struct {
		name    string
		module  string
		method  string
		want    any
		wantErr string
	}{
		{"success", "echo", "say", []any{"hi"}, ""},
		{"error", "echo", "fail", nil, "nope"},
		{"panic", "echo", "explode", nil, "kaboom"},
		{"unknown module", "nope", "say", nil, "not found"},
		{"unknown method", "echo", "nope", nil, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			done := make(chan outcome, 2)
			r.Invoke(context.Background(), tt.module, tt.method, []any{"hi"}, func(result any, err error) {
				calls.Add(1)
				done <- outcome{result, err}
			})

			var got outcome
			select {
			case got = <-done:
			case <-time.After(time.Second):
				t.Fatal("resolve was never called")
			}
			r.Wait()
			if n := calls.Load(); n != 1 {
				t.Fatalf("resolve called %d times", n)
			}

			if tt.wantErr == "" {
				if got.err != nil {
					t.Fatalf("unexpected error: %v", got.err)
				}
				if diff := cmp.Diff(tt.want, got.result); diff != "" {
					t.Errorf("result (-want +got):\n%s", diff)
				}
				return
			}
			if !stderrors.Is(got.err, &errors.Error{Phase: errors.PhaseModule, Kind: errors.KindModuleInvocation}) {
				t.Errorf("expected module invocation error, got %v", got.err)
			}
			if !strings.Contains(got.err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", got.err, tt.wantErr)
			}
			if got.result != nil {
				t.Errorf("failed invocation carried a result: %v", got.result)
			}
		})
	}
}

func TestRegistry_InvokeConcurrent(t *testing.T) {
	r := NewRegistry()
	_ = r.RegisterFunc("math", "double", func(_ context.Context, args []any) (any, error) {
		return args[0].(int64) * 2, nil
	})

	const n = 50
	var mu sync.Mutex
	results := map[int64]int{}
	var wg sync.WaitGroup
	wg.Add(n)
	for i := int64(0); i < n; i++ {
		r.Invoke(context.Background(), "math", "double", []any{i}, func(result any, err error) {
			defer wg.Done()
			if err != nil {
				t.Errorf("double: %v", err)
				return
			}
			mu.Lock()
			results[result.(int64)]++
			mu.Unlock()
		})
	}
	wg.Wait()
	if len(results) != n {
		t.Errorf("got %d distinct results, want %d", len(results), n)
	}
}

func TestRegistry_InvokeSync(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&echo{})

	got, err := r.InvokeSync(context.Background(), "echo", "getHTTPStatus", nil)
	if err != nil || got != int64(200) {
		t.Errorf("InvokeSync = %v, %v", got, err)
	}
	if _, err := r.InvokeSync(context.Background(), "echo", "explode", nil); err == nil {
		t.Error("panic should surface as an error")
	}
	if _, err := r.InvokeSync(context.Background(), "echo", "missing", nil); err == nil {
		t.Error("missing method should fail")
	}
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	e := &echo{}
	_ = r.Register(e)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !e.closed {
		t.Error("closer module was not closed")
	}
}

func TestRegistry_RegisterFuncValidation(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterFunc("", "x", func(context.Context, []any) (any, error) { return nil, nil }); err == nil {
		t.Error("empty module name should fail")
	}
	if err := r.RegisterFunc("m", "x", nil); err == nil {
		t.Error("nil method should fail")
	}
}
