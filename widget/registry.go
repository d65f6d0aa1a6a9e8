package widget

import (
	"fmt"
	"slices"

	"github.com/agnivade/levenshtein"

	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/layout"
)

// Registry maps type tags to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register binds typeTag to a. Registering a tag again replaces the adapter.
func (r *Registry) Register(typeTag string, a Adapter) {
	r.adapters[typeTag] = a
}

// Types returns the registered tags in sorted order.
func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.adapters))
	for t := range r.adapters {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

func (r *Registry) adapter(typeTag string) (Adapter, error) {
	a, ok := r.adapters[typeTag]
	if !ok {
		return nil, errors.New(errors.PhaseDispatch, errors.KindNotFound).
			Value(typeTag).Detail("widget type %q not found%s", typeTag, r.suggest(typeTag)).Build()
	}
	return a, nil
}

func (r *Registry) suggest(typeTag string) string {
	best, bestDist := "", len(typeTag)/3+2
	for t := range r.adapters {
		if d := levenshtein.ComputeDistance(typeTag, t); d < bestDist {
			best, bestDist = t, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

// CreateView creates a node of the given type.
func (r *Registry) CreateView(typeTag string) (Node, error) {
	a, err := r.adapter(typeTag)
	if err != nil {
		return nil, err
	}
	n := a.Create()
	if n == nil {
		return nil, errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Op("create").Detail("adapter for %q returned no node", typeTag).Build()
	}
	return n, nil
}

// UpdateProp applies a keyed property through the type's adapter.
func (r *Registry) UpdateProp(typeTag string, n Node, key string, value any) error {
	a, err := r.adapter(typeTag)
	if err != nil {
		return err
	}
	return a.UpdateProp(n, key, value)
}

// UpdateStyle merges style into the node's layout style. Keys the layout
// engine does not know are handed to Styler nodes. Invalid entries are
// reported but do not prevent the valid ones from applying.
func (r *Registry) UpdateStyle(n Node, style map[string]any) error {
	st := n.LayoutStyle()
	next, visual, errs := layout.ParseStyle(*st, style)
	*st = next
	if s, ok := n.(Styler); ok && len(visual) > 0 {
		if err := s.ApplyStyle(visual); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrors(errs)
}

// SetText replaces the text of a text-bearing node.
func (r *Registry) SetText(n Node, text string) error {
	ts, ok := n.(TextSetter)
	if !ok {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Op("setText").Detail("%T does not display text", n).Build()
	}
	ts.SetText(text)
	return nil
}

// AddEventListener wires h to event on n.
func (r *Registry) AddEventListener(typeTag string, n Node, event string, h Handler) error {
	a, err := r.adapter(typeTag)
	if err != nil {
		return err
	}
	if w, ok := a.(EventWirer); ok {
		return w.AddEventListener(n, event, h)
	}
	if t, ok := n.(EventTarget); ok && t.On(event, h) {
		return nil
	}
	return errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
		Op("addEventListener").Detail("%s does not emit %q", typeTag, event).Build()
}

// RemoveEventListener unwires event on n.
func (r *Registry) RemoveEventListener(typeTag string, n Node, event string) {
	a, ok := r.adapters[typeTag]
	if !ok {
		return
	}
	if w, ok := a.(EventWirer); ok {
		w.RemoveEventListener(n, event)
		return
	}
	if t, ok := n.(EventTarget); ok {
		t.Off(event)
	}
}

// InsertChild inserts child into parent before anchor, or appends when anchor is nil.
func (r *Registry) InsertChild(parentTag string, parent, child, anchor Node) error {
	if a, ok := r.adapters[parentTag]; ok {
		if cm, ok := a.(ChildManager); ok {
			return cm.InsertChild(parent, child, anchor)
		}
	}
	c, ok := parent.(Container)
	if !ok {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Op("insertChild").Detail("%s cannot hold children", parentTag).Build()
	}
	c.InsertChild(child, anchor)
	return nil
}

// RemoveChild removes child from parent.
func (r *Registry) RemoveChild(parentTag string, parent, child Node) error {
	if a, ok := r.adapters[parentTag]; ok {
		if cm, ok := a.(ChildManager); ok {
			return cm.RemoveChild(parent, child)
		}
	}
	c, ok := parent.(Container)
	if !ok {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Op("removeChild").Detail("%s cannot hold children", parentTag).Build()
	}
	c.RemoveChild(child)
	return nil
}

// IsScrollable reports whether nodes need a content-size pass after layout.
func IsScrollable(n Node) bool {
	_, ok := n.(Scrollable)
	return ok
}

// Destroy releases n if it holds resources.
func Destroy(n Node) {
	if d, ok := n.(Destroyer); ok {
		d.Destroy()
	}
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	return errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
		Op("updateStyle").Detail("%d invalid style entries", len(errs)).Value(errs).Cause(errs[0]).Build()
}
