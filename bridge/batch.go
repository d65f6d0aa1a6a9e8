package bridge

import (
	"go.uber.org/zap"

	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/errors"
	"github.com/wippyai/native-bridge/layout"
	"github.com/wippyai/native-bridge/protocol"
	"github.com/wippyai/native-bridge/registry"
	"github.com/wippyai/native-bridge/widget"
)

// TextType is the widget type of raw text nodes created by createText.
const TextType = "#text"

// ApplyBatch applies batch on the UI queue. Batches of an epoch other than
// the current one are dropped.
func (b *Bridge) ApplyBatch(epoch uint64, batch protocol.Batch) {
	b.opts.UI.MustBeOn("bridge.applyBatch")

	if epoch != b.epoch.Load() {
		b.droppedBatches.Add(1)
		b.logger.Debug("stale batch dropped", zap.Uint64("epoch", epoch), zap.Int("ops", len(batch.Ops)))
		return
	}

	prev := State(b.state.Swap(int32(StateProcessing)))
	defer b.state.CompareAndSwap(int32(StateProcessing), int32(prev))

	b.batches.Add(1)
	b.skipped.Add(uint64(len(batch.Skipped)))
	for _, err := range batch.Skipped {
		b.logger.Warn("entry skipped", zap.Uint64("epoch", epoch), zap.Error(err))
	}

	for i := range batch.Ops {
		op := &batch.Ops[i]
		b.ops.Add(1)
		if err := b.applyOp(epoch, op); err != nil {
			b.failedOps.Add(1)
			b.logger.Warn("operation failed",
				zap.String("op", op.Kind.String()),
				zap.Int64("node", int64(op.Node)),
				zap.Int("index", op.Index),
				zap.Uint64("epoch", epoch),
				zap.Error(err))
		}
	}

	if batch.Mutates() {
		b.layoutRoot()
	}
	b.updateGauges()
	b.opts.Window.Invalidate()
}

// applyOp runs one operation, turning a panic into an error.
func (b *Bridge) applyOp(epoch uint64, op *protocol.Operation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.PhaseDispatch, errors.KindInvalidInput).
				Op(op.Kind.String()).Node(int64(op.Node)).
				Detail("panic: %v", r).Build()
		}
	}()

	switch op.Kind {
	case protocol.OpCreate:
		return b.create(op.Node, op.Type)
	case protocol.OpCreateText:
		if err := b.create(op.Node, TextType); err != nil {
			return err
		}
		return b.setText(op.Kind, op.Node, op.Text)
	case protocol.OpSetText:
		return b.setText(op.Kind, op.Node, op.Text)
	case protocol.OpSetElementText:
		return b.setElementText(op.Node, op.Text)
	case protocol.OpUpdateProp:
		return b.updateProp(op.Node, op.Key, op.Value)
	case protocol.OpUpdateStyle:
		n, _, err := b.nodes.Node(op.Kind.String(), op.Node)
		if err != nil {
			return err
		}
		return b.opts.Widgets.UpdateStyle(n, op.Style)
	case protocol.OpAppendChild:
		return b.insert(op.Kind, op.Parent, op.Node, 0, false)
	case protocol.OpInsertBefore:
		return b.insert(op.Kind, op.Parent, op.Node, op.Before, op.HasBefore)
	case protocol.OpRemoveChild:
		return b.remove(op)
	case protocol.OpAddEventListener:
		return b.addListener(epoch, op.Node, op.Event, op.Callback)
	case protocol.OpRemoveEventListener:
		return b.removeListener(op.Node, op.Event)
	case protocol.OpSetRootView:
		return b.setRoot(epoch, op.Node)
	case protocol.OpInvokeModule:
		b.invokeModule(epoch, op)
		return nil
	case protocol.OpInvokeModuleSync:
		b.invokeModuleSync(op)
		return nil
	default:
		return errors.New(errors.PhaseDispatch, errors.KindUnknownOperation).
			Op(op.Kind.String()).Build()
	}
}

func (b *Bridge) create(id nativebridge.NodeID, typeTag string) error {
	if _, ok := b.nodes.Lookup(id); ok {
		return errors.DuplicateNode("create", int64(id))
	}
	n, err := b.opts.Widgets.CreateView(typeTag)
	if err != nil {
		return err
	}
	if err := b.nodes.Register(id, n, typeTag); err != nil {
		widget.Destroy(n)
		return err
	}
	if widget.IsScrollable(n) {
		b.nodes.MarkScrollable(id)
	}
	return nil
}

func (b *Bridge) setText(kind protocol.OpKind, id nativebridge.NodeID, text string) error {
	n, _, err := b.nodes.Node(kind.String(), id)
	if err != nil {
		return err
	}
	return b.opts.Widgets.SetText(n, text)
}

// setElementText replaces the children of id with its own text content.
func (b *Bridge) setElementText(id nativebridge.NodeID, text string) error {
	n, typeTag, err := b.nodes.Node("setElementText", id)
	if err != nil {
		return err
	}
	for _, child := range b.nodes.Children(id) {
		if e, ok := b.nodes.Lookup(child); ok {
			if err := b.opts.Widgets.RemoveChild(typeTag, n, e.Node); err != nil {
				b.logger.Debug("child widget not removed", zap.Int64("node", int64(child)), zap.Error(err))
			}
		}
		if _, err := b.nodes.Detach(child, b.release); err != nil {
			return err
		}
	}
	return b.opts.Widgets.SetText(n, text)
}

func (b *Bridge) updateProp(id nativebridge.NodeID, key string, value any) error {
	n, typeTag, err := b.nodes.Node("updateProp", id)
	if err != nil {
		return err
	}
	if key == "style" {
		if style, ok := value.(map[string]any); ok {
			return b.opts.Widgets.UpdateStyle(n, style)
		}
	}
	return b.opts.Widgets.UpdateProp(typeTag, n, key, value)
}

// insert attaches child under parent before the anchor. A child that already
// has a parent is moved. An anchor that is not a child of parent appends.
func (b *Bridge) insert(kind protocol.OpKind, parent, child, before nativebridge.NodeID, hasBefore bool) error {
	op := kind.String()
	pn, ptype, err := b.nodes.Node(op, parent)
	if err != nil {
		return err
	}
	cn, _, err := b.nodes.Node(op, child)
	if err != nil {
		return err
	}

	placed, err := b.nodes.Attach(parent, child, before, hasBefore)
	if err != nil {
		return err
	}

	if placed.Moved {
		if e, ok := b.nodes.Lookup(placed.PrevParent); ok {
			if err := b.opts.Widgets.RemoveChild(e.Type, e.Node, cn); err != nil {
				b.logger.Debug("moved widget not removed from previous parent",
					zap.Int64("node", int64(child)), zap.Error(err))
			}
		}
	}
	if child == b.root && b.hasRoot {
		b.opts.Window.SetRoot(nil)
		b.hasRoot = false
	}

	var anchor layout.Node
	if placed.HasAnchor {
		anchor, _, _ = b.nodes.Node(op, placed.Anchor)
	}
	if err := b.opts.Widgets.InsertChild(ptype, pn, cn, anchor); err != nil {
		b.nodes.Unlink(child)
		return err
	}
	return nil
}

// remove detaches a node and its subtree and releases every node in it.
func (b *Bridge) remove(op *protocol.Operation) error {
	id := op.Node
	cn, _, err := b.nodes.Node("removeChild", id)
	if err != nil {
		return err
	}

	parent, hasParent := b.nodes.Parent(id)
	if op.HasParent && (!hasParent || parent != op.Parent) {
		b.logger.Debug("removeChild parent mismatch",
			zap.Int64("node", int64(id)), zap.Int64("parent", int64(op.Parent)))
	}
	switch {
	case hasParent:
		if e, ok := b.nodes.Lookup(parent); ok {
			if err := b.opts.Widgets.RemoveChild(e.Type, e.Node, cn); err != nil {
				b.logger.Debug("widget not removed from parent", zap.Int64("node", int64(id)), zap.Error(err))
			}
		}
	case b.hasRoot && b.root == id:
		b.opts.Window.SetRoot(nil)
		b.hasRoot = false
	}

	_, err = b.nodes.Detach(id, b.release)
	return err
}

// release tears down one node leaving the registry.
func (b *Bridge) release(e registry.Entry) {
	b.throttles.RemoveNode(e.ID, e.Events)
	for _, event := range e.Events {
		b.opts.Widgets.RemoveEventListener(e.Type, e.Node, event)
	}
	widget.Destroy(e.Node)
}

func (b *Bridge) addListener(epoch uint64, id nativebridge.NodeID, event string, callback nativebridge.CallbackID) error {
	n, typeTag, err := b.nodes.Node("addEventListener", id)
	if err != nil {
		return err
	}
	if err := b.nodes.RegisterHandler(id, event, callback); err != nil {
		return err
	}
	key := nativebridge.HandlerKey{Node: id, Event: event}
	err = b.opts.Widgets.AddEventListener(typeTag, n, event, func(payload any) {
		b.onNativeEvent(epoch, key, payload)
	})
	if err != nil {
		b.nodes.UnregisterHandler(id, event)
		return err
	}
	return nil
}

func (b *Bridge) removeListener(id nativebridge.NodeID, event string) error {
	n, typeTag, err := b.nodes.Node("removeEventListener", id)
	if err != nil {
		return err
	}
	b.nodes.UnregisterHandler(id, event)
	b.opts.Widgets.RemoveEventListener(typeTag, n, event)
	b.throttles.Remove(nativebridge.HandlerKey{Node: id, Event: event})
	return nil
}

// setRoot mounts id into the window root container. The immediate layout
// runs at the end of the batch; a second attempt follows after
// RootRetryDelay in case the window had no size yet.
func (b *Bridge) setRoot(epoch uint64, id nativebridge.NodeID) error {
	n, _, err := b.nodes.Node("setRootView", id)
	if err != nil {
		return err
	}
	if parent, ok := b.nodes.Parent(id); ok {
		if e, ok := b.nodes.Lookup(parent); ok {
			_ = b.opts.Widgets.RemoveChild(e.Type, e.Node, n)
		}
		b.nodes.Unlink(id)
	}
	b.opts.Window.SetRoot(n)
	b.root, b.hasRoot = id, true

	b.opts.UI.After(b.opts.RootRetryDelay, func() {
		if b.epoch.Load() != epoch || !b.hasRoot || b.root != id {
			return
		}
		b.layoutRoot()
		b.opts.Window.Invalidate()
	})
	return nil
}

// Relayout runs a layout pass over the mounted root, for example after the
// window was resized. It must run on the UI queue.
func (b *Bridge) Relayout() {
	b.opts.UI.MustBeOn("bridge.relayout")
	b.layoutRoot()
	b.opts.Window.Invalidate()
}

// layoutRoot runs one layout pass over the root and recomputes the content
// size of every scrollable node. Unresolved window bounds skip the pass.
func (b *Bridge) layoutRoot() {
	if !b.hasRoot {
		return
	}
	root, _, err := b.nodes.Node("layout", b.root)
	if err != nil {
		b.hasRoot = false
		return
	}

	bounds := b.opts.Window.Bounds()
	err = b.engine.Layout(root, layout.ModeFitContainer, bounds.Width, bounds.Height)
	switch {
	case layout.IsNotReady(err):
		b.layoutSkipped.Add(1)
		return
	case err != nil:
		b.logger.Warn("layout failed", zap.Int64("node", int64(b.root)), zap.Error(err))
		return
	}
	b.layoutPasses.Add(1)

	for _, e := range b.nodes.Scrollables() {
		if s, ok := e.Node.(widget.Scrollable); ok {
			s.UpdateContentSize()
		}
	}
}
