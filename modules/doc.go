// Package modules exposes native capabilities to the scripting program.
//
// A module is a Go value with a Name method. Every exported method with the
// signature
//
//	func(ctx context.Context, args []any) (any, error)
//
// is registered under the module's name, converted to lowerCamel case:
//
//	type Clipboard struct{}
//
//	func (Clipboard) Name() string { return "clipboard" }
//	func (Clipboard) GetString(ctx context.Context, args []any) (any, error) { ... }
//
//	reg := modules.NewRegistry()
//	reg.Register(Clipboard{})          // "clipboard"."getString"
//
// Invoke runs a method on its own goroutine and reports the outcome through
// a resolve function that is called exactly once, whether the method returns
// a value, returns an error, panics, or does not exist. There is no
// cancellation; callers that no longer care about a result ignore it.
//
// Two modules are built in: Storage, a key/value store backed by bbolt, and
// Device, which reports platform and window information.
package modules
