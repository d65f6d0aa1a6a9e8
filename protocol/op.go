package protocol

import (
	"github.com/agnivade/levenshtein"

	nativebridge "github.com/wippyai/native-bridge"
)

// OpKind is the tag of an Operation.
type OpKind uint8

const (
	OpUnknown OpKind = iota
	OpCreate
	OpCreateText
	OpSetText
	OpSetElementText
	OpUpdateProp
	OpUpdateStyle
	OpAppendChild
	OpInsertBefore
	OpRemoveChild
	OpAddEventListener
	OpRemoveEventListener
	OpSetRootView
	OpInvokeModule
	OpInvokeModuleSync
)

var opNames = [...]string{
	OpUnknown:             "unknown",
	OpCreate:              "create",
	OpCreateText:          "createText",
	OpSetText:             "setText",
	OpSetElementText:      "setElementText",
	OpUpdateProp:          "updateProp",
	OpUpdateStyle:         "updateStyle",
	OpAppendChild:         "appendChild",
	OpInsertBefore:        "insertBefore",
	OpRemoveChild:         "removeChild",
	OpAddEventListener:    "addEventListener",
	OpRemoveEventListener: "removeEventListener",
	OpSetRootView:         "setRootView",
	OpInvokeModule:        "invokeModule",
	OpInvokeModuleSync:    "invokeModuleSync",
}

var opByName = func() map[string]OpKind {
	m := make(map[string]OpKind, len(opNames))
	for k, name := range opNames {
		if OpKind(k) != OpUnknown {
			m[name] = OpKind(k)
		}
	}
	return m
}()

// String returns the wire tag of the kind.
func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return opNames[OpUnknown]
}

// ParseOpKind maps a wire tag to its kind.
func ParseOpKind(tag string) (OpKind, bool) {
	k, ok := opByName[tag]
	return k, ok
}

// Mutates reports whether operations of this kind change the tree shape or
// text content and therefore require a layout pass.
func (k OpKind) Mutates() bool {
	switch k {
	case OpCreate, OpCreateText, OpAppendChild, OpInsertBefore, OpRemoveChild,
		OpSetRootView, OpSetText, OpSetElementText:
		return true
	}
	return false
}

// Suggest returns the closest known tag to an unknown one, or "" when none is close.
func Suggest(tag string) string {
	best, bestDist := "", len(tag)/3+2
	for name := range opByName {
		if d := levenshtein.ComputeDistance(tag, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best
}

// Operation is one decoded batch entry. Only the fields relevant to Kind are set.
type Operation struct {
	Value     any
	Style     map[string]any
	Args      []any
	Type      string
	Text      string
	Key       string
	Event     string
	Module    string
	Method    string
	Node      nativebridge.NodeID
	Parent    nativebridge.NodeID
	Before    nativebridge.NodeID
	Callback  nativebridge.CallbackID
	Index     int
	Kind      OpKind
	HasBefore bool
	HasParent bool
	// HasCallback is set when invokeModule carried a callback id. Zero is a
	// valid id.
	HasCallback bool
}

// Batch is the decoded form of one forward-channel payload.
type Batch struct {
	Ops     []Operation
	Skipped []error
}

// Mutates reports whether any operation in the batch requires layout.
func (b Batch) Mutates() bool {
	for _, op := range b.Ops {
		if op.Kind.Mutates() {
			return true
		}
	}
	return false
}
