package registry

import (
	"slices"

	"go.uber.org/zap"

	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/layout"
)

type entry struct {
	node    layout.Node
	typeTag string
}

type subscription struct {
	observer Observer
	id       int
}

// Options configures a Registry.
type Options struct {
	Guard  Guard
	Logger *zap.Logger
}

// Registry maps node ids to native nodes and tracks the tree shape.
// It is not safe for concurrent use.
type Registry struct {
	entries     map[nativebridge.NodeID]entry
	parents     map[nativebridge.NodeID]nativebridge.NodeID
	children    map[nativebridge.NodeID][]nativebridge.NodeID
	handlers    map[nativebridge.NodeID]map[string]nativebridge.CallbackID
	scrollables map[nativebridge.NodeID]struct{}
	guard       Guard
	logger      *zap.Logger
	observers   []subscription
	nextSub     int
}

// New creates an empty registry.
func New(opts Options) *Registry {
	r := &Registry{
		entries:     make(map[nativebridge.NodeID]entry),
		parents:     make(map[nativebridge.NodeID]nativebridge.NodeID),
		children:    make(map[nativebridge.NodeID][]nativebridge.NodeID),
		handlers:    make(map[nativebridge.NodeID]map[string]nativebridge.CallbackID),
		scrollables: make(map[nativebridge.NodeID]struct{}),
		guard:       opts.Guard,
		logger:      opts.Logger,
	}
	if r.guard == nil {
		r.guard = func(string) {}
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Register adds a node under id. A live id cannot be registered twice.
func (r *Registry) Register(id nativebridge.NodeID, node layout.Node, typeTag string) error {
	r.guard("registry.register")
	if _, ok := r.entries[id]; ok {
		return errors.DuplicateNode("register", int64(id))
	}
	if node == nil {
		return errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Op("register").Node(int64(id)).Detail("nil node for type %q", typeTag).Build()
	}
	r.entries[id] = entry{node: node, typeTag: typeTag}
	r.notify(Event{Kind: EventRegistered, ID: id, Node: node, Type: typeTag})
	return nil
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id nativebridge.NodeID) (Entry, bool) {
	e, ok := r.entries[id]
	if !ok {
		return Entry{}, false
	}
	return Entry{ID: id, Node: e.node, Type: e.typeTag, Events: r.events(id)}, true
}

// Node returns the native node registered under id, or a MissingNode error.
func (r *Registry) Node(op string, id nativebridge.NodeID) (layout.Node, string, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, "", errors.MissingNode(op, int64(id))
	}
	return e.node, e.typeTag, nil
}

// Len returns the number of live nodes.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Parent returns the parent of id, if attached.
func (r *Registry) Parent(id nativebridge.NodeID) (nativebridge.NodeID, bool) {
	p, ok := r.parents[id]
	return p, ok
}

// Children returns a copy of the children of id in document order.
func (r *Registry) Children(id nativebridge.NodeID) []nativebridge.NodeID {
	return slices.Clone(r.children[id])
}

// Attach places child under parent, before the sibling before when hasBefore
// is set and before is currently a child of parent. Otherwise the child is
// appended. A child that already has a parent is moved. A child anchored on
// itself keeps its position.
func (r *Registry) Attach(parent, child, before nativebridge.NodeID, hasBefore bool) (Placement, error) {
	r.guard("registry.attach")
	if _, ok := r.entries[parent]; !ok {
		return Placement{}, errors.MissingNode("attach", int64(parent))
	}
	if _, ok := r.entries[child]; !ok {
		return Placement{}, errors.MissingNode("attach", int64(child))
	}
	if r.isAncestor(child, parent) {
		return Placement{}, errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
			Op("attach").Node(int64(child)).Detail("node %d is an ancestor of %d", child, parent).Build()
	}

	if hasBefore && before == child {
		// anchoring on itself keeps the child in place
		hasBefore = false
		if p, ok := r.parents[child]; ok && p == parent {
			siblings := r.children[parent]
			if i := slices.Index(siblings, child); i+1 < len(siblings) {
				before, hasBefore = siblings[i+1], true
			}
		}
	}

	var place Placement
	if prev, ok := r.parents[child]; ok {
		r.unlink(prev, child)
		place.PrevParent, place.Moved = prev, true
	}

	siblings := r.children[parent]
	index := len(siblings)
	if hasBefore {
		if i := slices.Index(siblings, before); i >= 0 {
			index = i
			place.Anchor, place.HasAnchor = before, true
		} else {
			r.logger.Debug("insert anchor not found, appending",
				zap.Int64("parent", int64(parent)), zap.Int64("before", int64(before)))
		}
	}
	r.children[parent] = slices.Insert(siblings, index, child)
	r.parents[child] = parent
	place.Index = index
	return place, nil
}

// isAncestor reports whether a is id or one of its ancestors.
func (r *Registry) isAncestor(a, id nativebridge.NodeID) bool {
	for {
		if a == id {
			return true
		}
		p, ok := r.parents[id]
		if !ok {
			return false
		}
		id = p
	}
}

// Unlink removes child from its parent's children without destroying it.
func (r *Registry) Unlink(child nativebridge.NodeID) (nativebridge.NodeID, bool) {
	r.guard("registry.unlink")
	p, ok := r.parents[child]
	if !ok {
		return 0, false
	}
	r.unlink(p, child)
	return p, true
}

func (r *Registry) unlink(parent, child nativebridge.NodeID) {
	delete(r.parents, child)
	siblings := r.children[parent]
	if i := slices.Index(siblings, child); i >= 0 {
		siblings = slices.Delete(siblings, i, i+1)
	}
	if len(siblings) == 0 {
		delete(r.children, parent)
	} else {
		r.children[parent] = siblings
	}
}

// Detach destroys id and its descendants. visit is called for each removed
// node in post-order, children before their parent, while the node's entry
// is still readable. It returns the number of removed nodes.
func (r *Registry) Detach(id nativebridge.NodeID, visit func(Entry)) (int, error) {
	r.guard("registry.detach")
	if _, ok := r.entries[id]; !ok {
		return 0, errors.MissingNode("detach", int64(id))
	}
	if p, ok := r.parents[id]; ok {
		r.unlink(p, id)
	}
	return r.destroy(id, visit), nil
}

func (r *Registry) destroy(id nativebridge.NodeID, visit func(Entry)) int {
	n := 0
	for _, c := range r.children[id] {
		n += r.destroy(c, visit)
	}
	e := r.entries[id]
	if visit != nil {
		visit(Entry{ID: id, Node: e.node, Type: e.typeTag, Events: r.events(id)})
	}
	delete(r.entries, id)
	delete(r.parents, id)
	delete(r.children, id)
	delete(r.handlers, id)
	delete(r.scrollables, id)
	r.notify(Event{Kind: EventDestroyed, ID: id, Node: e.node, Type: e.typeTag})
	return n + 1
}

// Clear destroys every node. Attached trees are destroyed in post-order from
// their roots.
func (r *Registry) Clear(visit func(Entry)) int {
	r.guard("registry.clear")
	var roots []nativebridge.NodeID
	for id := range r.entries {
		if _, ok := r.parents[id]; !ok {
			roots = append(roots, id)
		}
	}
	slices.Sort(roots)

	n := 0
	for _, id := range roots {
		n += r.destroy(id, visit)
	}
	clear(r.entries)
	clear(r.parents)
	clear(r.children)
	clear(r.handlers)
	clear(r.scrollables)
	r.notify(Event{Kind: EventCleared})
	return n
}

// RegisterHandler records callback as the handler for event on id,
// replacing any previous one.
func (r *Registry) RegisterHandler(id nativebridge.NodeID, event string, callback nativebridge.CallbackID) error {
	r.guard("registry.registerHandler")
	if _, ok := r.entries[id]; !ok {
		return errors.MissingNode("addEventListener", int64(id))
	}
	m := r.handlers[id]
	if m == nil {
		m = make(map[string]nativebridge.CallbackID)
		r.handlers[id] = m
	}
	m[event] = callback
	return nil
}

// UnregisterHandler removes the handler for event on id.
func (r *Registry) UnregisterHandler(id nativebridge.NodeID, event string) (nativebridge.CallbackID, bool) {
	r.guard("registry.unregisterHandler")
	m := r.handlers[id]
	cb, ok := m[event]
	if !ok {
		return 0, false
	}
	delete(m, event)
	if len(m) == 0 {
		delete(r.handlers, id)
	}
	return cb, true
}

// Handler returns the callback registered for key.
func (r *Registry) Handler(key nativebridge.HandlerKey) (nativebridge.CallbackID, bool) {
	cb, ok := r.handlers[key.Node][key.Event]
	return cb, ok
}

// HandlerCount returns the number of registered handlers.
func (r *Registry) HandlerCount() int {
	n := 0
	for _, m := range r.handlers {
		n += len(m)
	}
	return n
}

func (r *Registry) events(id nativebridge.NodeID) []string {
	m := r.handlers[id]
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for ev := range m {
		out = append(out, ev)
	}
	slices.Sort(out)
	return out
}

// MarkScrollable records id as a node whose content extent must be
// recomputed after layout.
func (r *Registry) MarkScrollable(id nativebridge.NodeID) {
	r.guard("registry.markScrollable")
	if _, ok := r.entries[id]; ok {
		r.scrollables[id] = struct{}{}
	}
}

// Scrollables returns the live scrollable nodes in id order.
func (r *Registry) Scrollables() []Entry {
	ids := make([]nativebridge.NodeID, 0, len(r.scrollables))
	for id := range r.scrollables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		e := r.entries[id]
		out = append(out, Entry{ID: id, Node: e.node, Type: e.typeTag})
	}
	return out
}

// References reports whether any index still mentions id. Used to verify
// that destroyed nodes leave nothing behind.
func (r *Registry) References(id nativebridge.NodeID) bool {
	if _, ok := r.entries[id]; ok {
		return true
	}
	if _, ok := r.parents[id]; ok {
		return true
	}
	if _, ok := r.children[id]; ok {
		return true
	}
	if _, ok := r.handlers[id]; ok {
		return true
	}
	if _, ok := r.scrollables[id]; ok {
		return true
	}
	for _, kids := range r.children {
		if slices.Contains(kids, id) {
			return true
		}
	}
	for _, p := range r.parents {
		if p == id {
			return true
		}
	}
	return false
}

// Subscribe adds an observer and returns a function that removes it.
func (r *Registry) Subscribe(o Observer) func() {
	r.nextSub++
	id := r.nextSub
	r.observers = append(r.observers, subscription{id: id, observer: o})
	return func() {
		r.observers = slices.DeleteFunc(r.observers, func(s subscription) bool { return s.id == id })
	}
}

func (r *Registry) notify(e Event) {
	for _, s := range r.observers {
		s.observer.OnNodeEvent(e)
	}
}
