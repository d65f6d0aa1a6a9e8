package widget

import (
	"github.com/wippyai/native-bridge/layout"
)

// Node is a native widget handle.
type Node = layout.Node

// Handler receives the payload of a native event.
type Handler func(payload any)

// TextSetter is implemented by nodes that display text.
type TextSetter interface {
	SetText(text string)
}

// Container is implemented by nodes that hold children. anchor is nil to append.
type Container interface {
	InsertChild(child, anchor Node)
	RemoveChild(child Node)
}

// Styler is implemented by nodes with visual style keys beyond layout.
type Styler interface {
	ApplyStyle(visual map[string]any) error
}

// Scrollable is implemented by nodes whose content extent depends on the
// frames of their children.
type Scrollable interface {
	UpdateContentSize()
}

// Destroyer is implemented by nodes holding resources released on removal.
type Destroyer interface {
	Destroy()
}

// EventTarget is implemented by nodes that emit events without adapter help.
type EventTarget interface {
	On(event string, h Handler) bool
	Off(event string)
}

// Adapter creates and updates nodes of one type.
type Adapter interface {
	Create() Node
	UpdateProp(n Node, key string, value any) error
}

// EventWirer is implemented by adapters that wire events themselves.
type EventWirer interface {
	AddEventListener(n Node, event string, h Handler) error
	RemoveEventListener(n Node, event string)
}

// ChildManager is implemented by adapters whose nodes redirect children,
// such as scroll views that insert into an inner content node.
type ChildManager interface {
	InsertChild(parent, child, anchor Node) error
	RemoveChild(parent, child Node) error
}

// Funcs is an Adapter built from functions. A nil PropFunc ignores props.
type Funcs struct {
	CreateFunc func() Node
	PropFunc   func(n Node, key string, value any) error
}

func (f Funcs) Create() Node {
	if f.CreateFunc == nil {
		return nil
	}
	return f.CreateFunc()
}

func (f Funcs) UpdateProp(n Node, key string, value any) error {
	if f.PropFunc == nil {
		return nil
	}
	return f.PropFunc(n, key, value)
}
