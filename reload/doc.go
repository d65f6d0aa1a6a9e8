// Package reload replaces the running scripting program without restarting
// the host window.
//
// A reload runs four steps in order: the current program is torn down on the
// script queue, bounded by a timeout; the bridge is reset on the UI queue,
// which clears every node and starts a new epoch; the replacement is loaded,
// attached and started on the script queue. A teardown past its timeout is
// interrupted and the queue must drain before the reset, so nodes are never
// cleared under a running program. A failed load or start leaves the tree
// cleared; a teardown that never drains leaves the old tree. Both show a
// diagnostic in the window and the coordinator stays usable for the next
// attempt.
//
// Watcher triggers reloads when the program file changes on disk.
package reload
