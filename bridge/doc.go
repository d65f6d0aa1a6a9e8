// Package bridge applies UI batches from a scripting program to native
// widgets and routes native events back.
//
// # Execution contexts
//
// Two serial queues take part. The script queue runs the program and decodes
// every batch it flushes. The UI queue owns the node registry, the widgets
// and the layout engine; every batch is applied there. Crossing from the
// script queue to the UI queue is always asynchronous.
//
// # Batches
//
// Operations in a batch are applied in order, each in isolation: a failing
// or panicking operation is logged and the rest of the batch continues. A
// batch that creates, attaches, removes, roots or retexts nodes triggers
// exactly one layout pass over the whole tree once the batch is done,
// followed by a content-size pass over scrollable nodes. Batches carrying
// only property, style or listener updates skip layout.
//
// # Epochs
//
// Reset clears every node and starts a new epoch. Hosts handed to programs
// are bound to the epoch they were created in, so late batches, events and
// module resolutions of a replaced program are dropped.
//
// # State
//
//	Uninitialized --Attach--> Ready --batch--> Processing --> Ready
//	Ready --Reset--> Reloading --Attach--> Ready
package bridge
