// Package registry is the authoritative map from node id to native node.
//
// A Registry holds, for every live node, the native handle and its type tag,
// plus two indices over the tree shape: the parent of each attached node and
// the ordered children of each container. Event handler registrations are
// keyed by node and event name.
//
//	reg := registry.New(registry.Options{Guard: ui.MustBeOn})
//
//	reg.Register(1, view, "view")
//	reg.Register(2, label, "text")
//	reg.Attach(1, 2, 0, false)     // append 2 under 1
//
//	reg.Detach(1, func(e registry.Entry) {
//	    // called for 2, then 1
//	})
//
// # Ownership
//
// The registry is confined to a single goroutine (the UI queue) and performs
// no locking. Every mutating method calls Options.Guard first; the bridge
// passes a guard that panics when called from any other queue.
//
// # Cost
//
// Detach walks only the removed subtree through the children index, so its
// cost is proportional to the subtree size and independent of how many other
// nodes are registered.
//
// # Observers
//
// Observers receive EventRegistered, EventDestroyed and EventCleared
// notifications synchronously on the owning goroutine.
package registry
