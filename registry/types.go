package registry

import (
	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/layout"
)

// EventType identifies a registry lifecycle notification.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventDestroyed
	EventCleared
)

func (t EventType) String() string {
	switch t {
	case EventRegistered:
		return "registered"
	case EventDestroyed:
		return "destroyed"
	case EventCleared:
		return "cleared"
	default:
		return "unknown"
	}
}

// Event represents a node lifecycle event.
type Event struct {
	Node layout.Node
	Type string
	ID   nativebridge.NodeID
	Kind EventType
}

// Observer receives notifications about node lifecycle events.
type Observer interface {
	OnNodeEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) OnNodeEvent(e Event) { f(e) }

// Entry is a registered node as seen by callers.
type Entry struct {
	Node   layout.Node
	Type   string
	Events []string
	ID     nativebridge.NodeID
}

// Placement describes where Attach put a child.
type Placement struct {
	// Anchor is the sibling the child now precedes, when HasAnchor is set.
	Anchor nativebridge.NodeID
	// PrevParent is the parent the child was moved away from, when Moved is set.
	PrevParent nativebridge.NodeID
	Index      int
	HasAnchor  bool
	Moved      bool
}

// Guard asserts the calling goroutine may mutate the registry.
type Guard func(op string)
