// Package queue provides serial execution contexts.
//
// A Queue runs submitted functions one at a time on a single goroutine that is
// locked to its OS thread. The bridge uses two of them: the UI queue, the only
// place widgets, the node registry and layout are touched, and the script
// queue, the only place guest code runs.
//
// Because a Queue has exactly one worker, state confined to it needs no
// locking. Entry points that mutate such state call MustBeOn to document and
// enforce the precondition.
//
// Timers created with After fire on the queue that created them and are
// invalidated there with CancelTimers.
package queue
