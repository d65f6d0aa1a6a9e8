// Package errors provides structured error types for the native bridge.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries the operation, node id and cause chain when known.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseDispatch, errors.KindMissingNode).
//		Op("appendChild").
//		Node(42).
//		Detail("parent not registered").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingNode("appendChild", 42)
//	err := errors.UnknownOperation(3, "apendChild", "appendChild")
//
// Every kind except KindThreadViolation is recoverable: the bridge logs it and
// continues with the next operation. All errors support errors.Is/As.
package errors
