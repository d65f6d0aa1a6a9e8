package nativebridge

import "strconv"

// NodeID identifies a native node. Ids are assigned by the scripting side
// and are unique among live nodes.
type NodeID int64

// String returns the decimal form of the id.
func (id NodeID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// CallbackID correlates an asynchronous module invocation, or a registered
// event listener, with the scripting side.
type CallbackID int64

// HandlerKey identifies a registered event callback.
type HandlerKey struct {
	Event string
	Node  NodeID
}

// String returns "node:event".
func (k HandlerKey) String() string {
	return k.Node.String() + ":" + k.Event
}
