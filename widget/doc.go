// Package widget defines the contract between the bridge and a host toolkit.
//
// A toolkit registers one Adapter per type tag. The adapter creates native
// nodes and applies keyed properties; optional interfaces let it wire events
// and override child management. Nodes themselves advertise capabilities
// through small interfaces (TextSetter, Container, Scrollable, Destroyer) and
// must implement layout.Node so the layout engine can position them.
//
//	reg := widget.NewRegistry()
//	reg.Register("view", widget.Funcs{
//	    CreateFunc: func() widget.Node { return newView() },
//	})
//
//	node, err := reg.CreateView("view")
//
// Registry methods must be called on the UI queue.
package widget
