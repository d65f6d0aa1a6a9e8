package errors

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseDecode   Phase = "decode"   // batch payload to operations
	PhaseEncode   Phase = "encode"   // events and resolutions to the script
	PhaseDispatch Phase = "dispatch" // applying an operation
	PhaseLayout   Phase = "layout"   // layout pass
	PhaseModule   Phase = "module"   // native module invocation
	PhaseReload   Phase = "reload"   // hot reload
	PhaseLoad     Phase = "load"     // program loading
	PhaseHost     Phase = "host"     // host function registration
	PhaseRuntime  Phase = "runtime"  // guest execution
	PhaseThread   Phase = "thread"   // execution context checks
)

// Kind categorizes the error
type Kind string

const (
	KindMalformedBatch   Kind = "malformed_batch"
	KindMalformedEntry   Kind = "malformed_entry"
	KindUnknownOperation Kind = "unknown_operation"
	KindMissingNode      Kind = "missing_node"
	KindDuplicateNode    Kind = "duplicate_node"
	KindLayoutNotReady   Kind = "layout_not_ready"
	KindModuleInvocation Kind = "module_invocation"
	KindReloadFailure    Kind = "reload_failure"
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindNotInitialized   Kind = "not_initialized"
	KindRegistration     Kind = "registration"
	KindInstantiation    Kind = "instantiation"
	KindThreadViolation  Kind = "thread_violation"
	KindClosed           Kind = "closed"
	KindTrap             Kind = "trap"
)

// Error is the structured error type used throughout the bridge
type Error struct {
	Value   any
	Cause   error
	Phase   Phase
	Kind    Kind
	Op      string
	Detail  string
	Node    int64
	HasNode bool
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Op != "" {
		b.WriteString(" in ")
		b.WriteString(e.Op)
	}
	if e.HasNode {
		b.WriteString(" node ")
		b.WriteString(strconv.FormatInt(e.Node, 10))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Fatal reports whether the error must stop the process.
func (e *Error) Fatal() bool {
	return e.Kind == KindThreadViolation
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Op sets the operation name
func (b *Builder) Op(op string) *Builder {
	b.err.Op = op
	return b
}

// Node sets the node id the error refers to
func (b *Builder) Node(id int64) *Builder {
	b.err.Node = id
	b.err.HasNode = true
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for the bridge error taxonomy

// MalformedBatch creates an error for a payload that could not be parsed at all
func MalformedBatch(cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedBatch,
		Detail: "batch dropped",
		Cause:  cause,
	}
}

// MalformedEntry creates an error for a single undecodable batch entry
func MalformedEntry(index int, op string, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindMalformedEntry,
		Op:     op,
		Detail: fmt.Sprintf("entry %d: %s", index, detail),
		Value:  index,
	}
}

// UnknownOperation creates an error for an unrecognized operation tag.
// suggestion may be empty.
func UnknownOperation(index int, tag, suggestion string) *Error {
	detail := fmt.Sprintf("entry %d: unknown tag %q", index, tag)
	if suggestion != "" {
		detail += fmt.Sprintf(" (did you mean %q?)", suggestion)
	}
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindUnknownOperation,
		Detail: detail,
		Value:  tag,
	}
}

// MissingNode creates an error for an operation referencing an absent node
func MissingNode(op string, id int64) *Error {
	return &Error{
		Phase:   PhaseDispatch,
		Kind:    KindMissingNode,
		Op:      op,
		Node:    id,
		HasNode: true,
	}
}

// DuplicateNode creates an error for registering an id that is already live
func DuplicateNode(op string, id int64) *Error {
	return &Error{
		Phase:   PhaseDispatch,
		Kind:    KindDuplicateNode,
		Op:      op,
		Node:    id,
		HasNode: true,
		Detail:  "id already registered",
	}
}

// LayoutNotReady creates an error for a layout pass attempted before the
// root bounds were resolved
func LayoutNotReady(width, height float64) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindLayoutNotReady,
		Detail: fmt.Sprintf("root bounds %gx%g", width, height),
	}
}

// ModuleInvocation creates an error for a failed native module call
func ModuleInvocation(module, method string, cause error) *Error {
	return &Error{
		Phase:  PhaseModule,
		Kind:   KindModuleInvocation,
		Op:     module + "." + method,
		Cause:  cause,
		Detail: "invocation failed",
	}
}

// ReloadFailure creates an error for a replacement program that failed to load or run
func ReloadFailure(step string, cause error) *Error {
	return &Error{
		Phase:  PhaseReload,
		Kind:   KindReloadFailure,
		Detail: step,
		Cause:  cause,
	}
}

// ThreadViolation creates an error for a call made outside the owning execution context
func ThreadViolation(op, queue string) *Error {
	return &Error{
		Phase:  PhaseThread,
		Kind:   KindThreadViolation,
		Op:     op,
		Detail: fmt.Sprintf("must run on the %s queue", queue),
	}
}

// Closed creates an error for work submitted to a closed component
func Closed(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindClosed,
		Detail: what + " is closed",
	}
}

// MissingExport represents a single export the guest program lacks
type MissingExport struct {
	Name     string
	Required bool
}

// MissingExportsError is returned when a guest program does not provide the
// exports the bridge calls into
type MissingExportsError struct {
	Program string
	Exports []MissingExport
}

// NewMissingExportsError creates an error from required and optional export names
func NewMissingExportsError(program string, required, optional []string) *MissingExportsError {
	result := &MissingExportsError{
		Program: program,
		Exports: make([]MissingExport, 0, len(required)+len(optional)),
	}
	for _, name := range required {
		result.Exports = append(result.Exports, MissingExport{Name: name, Required: true})
	}
	for _, name := range optional {
		result.Exports = append(result.Exports, MissingExport{Name: name})
	}
	return result
}

// HasRequired reports whether any missing export is mandatory
func (e *MissingExportsError) HasRequired() bool {
	for _, exp := range e.Exports {
		if exp.Required {
			return true
		}
	}
	return false
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] not_found: no exports specified"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("program %q is missing %d export(s):", e.Program, len(e.Exports)))
	for _, exp := range e.Exports {
		b.WriteString("\n  - ")
		b.WriteString(exp.Name)
		if !exp.Required {
			b.WriteString(" (optional)")
		}
	}
	return b.String()
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	_, ok := target.(*MissingExportsError)
	return ok
}

// Runtime package convenience constructors

// NotInitialized creates a not-initialized error for missing program/instance
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Registration creates a registration error
func Registration(phase Phase, namespace, name string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRegistration,
		Detail: fmt.Sprintf("register %s#%s", namespace, name),
		Cause:  cause,
	}
}

// Instantiation creates an instantiation error
func Instantiation(cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindInstantiation,
		Detail: "instantiate program",
		Cause:  cause,
	}
}

// Trap creates an error for a guest export that failed while running
func Trap(export string, cause error) *Error {
	return &Error{
		Phase:  PhaseRuntime,
		Kind:   KindTrap,
		Op:     export,
		Cause:  cause,
		Detail: "guest call failed",
	}
}

// Load creates a program loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}
