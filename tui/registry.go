package tui

import (
	"github.com/wippyai/native-bridge/widget"
)

// Widget type tags.
const (
	TypeView    = "view"
	TypeText    = "text"
	TypeRawText = "#text"
	TypeButton  = "button"
	TypeInput   = "input"
	TypeScroll  = "scroll"
	TypeSwitch  = "switch"
)

type propSetter interface {
	setProp(key string, v any) error
}

func adapter(create func() widget.Node) widget.Funcs {
	return widget.Funcs{
		CreateFunc: create,
		PropFunc: func(n widget.Node, key string, v any) error {
			if p, ok := n.(propSetter); ok {
				return p.setProp(key, v)
			}
			return nil
		},
	}
}

// NewRegistry returns a widget registry with every terminal widget.
func NewRegistry() *widget.Registry {
	r := widget.NewRegistry()
	Register(r)
	return r
}

// Register adds the terminal widgets to r.
func Register(r *widget.Registry) {
	r.Register(TypeView, adapter(func() widget.Node { return NewView() }))
	r.Register(TypeText, adapter(func() widget.Node { return NewText() }))
	r.Register(TypeRawText, adapter(func() widget.Node { return NewRawText() }))
	r.Register(TypeButton, adapter(func() widget.Node { return NewButton() }))
	r.Register(TypeInput, adapter(func() widget.Node { return NewInput() }))
	r.Register(TypeScroll, adapter(func() widget.Node { return NewScroll() }))
	r.Register(TypeSwitch, adapter(func() widget.Node { return NewSwitch() }))
}
