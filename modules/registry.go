package modules

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"slices"
	"sync"
	"unicode"

	"github.com/agnivade/levenshtein"
	"go.uber.org/zap"

	"github.com/wippyai/native-bridge/errors"
)

// Module is a named group of methods.
type Module interface {
	Name() string
}

// Method is the uniform signature of module methods.
type Method func(ctx context.Context, args []any) (any, error)

// MethodProvider lets a module list its methods explicitly instead of
// relying on reflection.
type MethodProvider interface {
	Methods() map[string]Method
}

// Resolver receives the outcome of an asynchronous invocation.
type Resolver func(result any, err error)

var methodType = reflect.TypeOf(Method(nil))

// Registry holds modules by name.
type Registry struct {
	mods    map[string]map[string]Method
	closers []io.Closer
	logger  *zap.Logger
	wg      sync.WaitGroup
	mu      sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		mods:   make(map[string]map[string]Method),
		logger: Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds every method of m. Modules implementing io.Closer are closed
// by Registry.Close.
func (r *Registry) Register(m Module) error {
	name := m.Name()
	if name == "" {
		return errors.InvalidInput(errors.PhaseModule, "module name cannot be empty")
	}

	methods := map[string]Method{}
	if mp, ok := m.(MethodProvider); ok {
		for k, v := range mp.Methods() {
			methods[k] = v
		}
	} else {
		rv := reflect.ValueOf(m)
		rt := rv.Type()
		for i := 0; i < rt.NumMethod(); i++ {
			method := rt.Method(i)
			if !method.IsExported() {
				continue
			}
			bound := rv.Method(i)
			if !bound.Type().ConvertibleTo(methodType) {
				continue
			}
			methods[toLowerCamel(method.Name)] = bound.Convert(methodType).Interface().(Method)
		}
	}
	if len(methods) == 0 {
		return errors.Registration(errors.PhaseModule, name, "*", fmt.Errorf("%T exposes no methods", m))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.mods[name]; dup {
		return errors.Registration(errors.PhaseModule, name, "*", fmt.Errorf("module already registered"))
	}
	r.mods[name] = methods
	if c, ok := m.(io.Closer); ok {
		r.closers = append(r.closers, c)
	}
	r.logger.Debug("module registered", zap.String("module", name), zap.Int("methods", len(methods)))
	return nil
}

// RegisterFunc adds a single method, creating the module if needed.
func (r *Registry) RegisterFunc(module, method string, fn Method) error {
	if module == "" || method == "" {
		return errors.InvalidInput(errors.PhaseModule, "module and method names cannot be empty")
	}
	if fn == nil {
		return errors.InvalidInput(errors.PhaseModule, "method cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mods[module] == nil {
		r.mods[module] = make(map[string]Method)
	}
	r.mods[module][method] = fn
	return nil
}

// Modules returns the registered module names in sorted order.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.mods))
	for name := range r.mods {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Methods returns the method names of module in sorted order.
func (r *Registry) Methods(module string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.mods[module]))
	for name := range r.mods[module] {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Lookup returns the method registered as module.method.
func (r *Registry) Lookup(module, method string) (Method, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	methods, ok := r.mods[module]
	if !ok {
		return nil, errors.New(errors.PhaseModule, errors.KindNotFound).
			Value(module).Detail("module %q not found%s", module, suggest(module, r.mods)).Build()
	}
	fn, ok := methods[method]
	if !ok {
		return nil, errors.New(errors.PhaseModule, errors.KindNotFound).
			Value(method).Detail("method %q not found on module %q%s", method, module, suggest(method, methods)).Build()
	}
	return fn, nil
}

// Invoke runs module.method on a new goroutine and calls resolve exactly once
// with its outcome. Failures are reported as ModuleInvocation errors.
func (r *Registry) Invoke(ctx context.Context, module, method string, args []any, resolve Resolver) {
	var once sync.Once
	settle := func(result any, err error) {
		once.Do(func() {
			if err != nil {
				err = errors.ModuleInvocation(module, method, err)
				result = nil
			}
			resolve(result, err)
		})
	}

	fn, err := r.Lookup(module, method)
	if err != nil {
		settle(nil, err)
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		result, err := r.call(ctx, module, method, fn, args)
		settle(result, err)
	}()
}

// InvokeSync runs module.method on the calling goroutine.
func (r *Registry) InvokeSync(ctx context.Context, module, method string, args []any) (any, error) {
	fn, err := r.Lookup(module, method)
	if err != nil {
		return nil, errors.ModuleInvocation(module, method, err)
	}
	result, err := r.call(ctx, module, method, fn, args)
	if err != nil {
		return nil, errors.ModuleInvocation(module, method, err)
	}
	return result, nil
}

func (r *Registry) call(ctx context.Context, module, method string, fn Method, args []any) (result any, err error) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("module method panicked",
				zap.String("module", module), zap.String("method", method), zap.Any("panic", p))
			result, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(ctx, args)
}

// Wait blocks until every in-flight Invoke has resolved.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// Close waits for in-flight invocations and closes modules that hold resources.
func (r *Registry) Close() error {
	r.wg.Wait()
	r.mu.Lock()
	closers := r.closers
	r.closers = nil
	r.mu.Unlock()

	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func suggest[V any](name string, known map[string]V) string {
	best, bestDist := "", len(name)/3+2
	for k := range known {
		if d := levenshtein.ComputeDistance(name, k); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

// toLowerCamel converts a Go method name to the name scripts call:
// GetItem -> getItem, GetAllKeys -> getAllKeys, URLFor -> urlFor.
func toLowerCamel(s string) string {
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if !unicode.IsUpper(runes[i]) {
			break
		}
		// keep the last capital of an acronym when a lowercase word follows
		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
