package protocol

import (
	"fmt"

	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/errors"
)

// Reverse-channel message types.
const (
	TypeEvent       = "event"
	TypeGlobalEvent = "globalEvent"
	TypeResolve     = "resolve"
)

// Message is a decoded reverse-channel message. Fields irrelevant to Type are zero.
type Message struct {
	Payload  any                     `json:"payload,omitempty" msgpack:"payload,omitempty"`
	Result   any                     `json:"result" msgpack:"result"`
	Error    *string                 `json:"error" msgpack:"error"`
	Type     string                  `json:"type" msgpack:"type"`
	Event    string                  `json:"eventName,omitempty" msgpack:"eventName,omitempty"`
	Node     nativebridge.NodeID     `json:"nodeId,omitempty" msgpack:"nodeId,omitempty"`
	Callback nativebridge.CallbackID `json:"callbackId,omitempty" msgpack:"callbackId,omitempty"`
}

type eventMessage struct {
	Type    string              `json:"type" msgpack:"type"`
	Node    nativebridge.NodeID `json:"nodeId" msgpack:"nodeId"`
	Event   string              `json:"eventName" msgpack:"eventName"`
	Payload any                 `json:"payload" msgpack:"payload"`
}

type globalEventMessage struct {
	Type    string `json:"type" msgpack:"type"`
	Event   string `json:"eventName" msgpack:"eventName"`
	Payload any    `json:"payload" msgpack:"payload"`
}

type resolveMessage struct {
	Type     string                  `json:"type" msgpack:"type"`
	Callback nativebridge.CallbackID `json:"callbackId" msgpack:"callbackId"`
	Result   any                     `json:"result" msgpack:"result"`
	Error    *string                 `json:"error" msgpack:"error"`
}

// Resolution is the outcome of an asynchronous module invocation.
// Exactly one of Result and Err is meaningful.
type Resolution struct {
	Result   any
	Err      error
	Callback nativebridge.CallbackID
}

// EncodeEvent encodes a node event. The payload is sanitized first.
func (c *Codec) EncodeEvent(node nativebridge.NodeID, name string, payload any) ([]byte, error) {
	return c.encode(eventMessage{Type: TypeEvent, Node: node, Event: name, Payload: Sanitize(payload)})
}

// EncodeGlobalEvent encodes an event that is not bound to a node.
func (c *Codec) EncodeGlobalEvent(name string, payload any) ([]byte, error) {
	return c.encode(globalEventMessage{Type: TypeGlobalEvent, Event: name, Payload: Sanitize(payload)})
}

// EncodeResolution encodes a module resolution. A non-nil Err becomes the
// error message and the result is null.
func (c *Codec) EncodeResolution(r Resolution) ([]byte, error) {
	msg := resolveMessage{Type: TypeResolve, Callback: r.Callback}
	if r.Err != nil {
		text := r.Err.Error()
		msg.Error = &text
	} else {
		msg.Result = Sanitize(r.Result)
	}
	return c.encode(msg)
}

// DecodeMessage parses a reverse-channel message.
func (c *Codec) DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := c.unmarshal(data, &m); err != nil {
		return Message{}, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Detail("reverse-channel message").Cause(err).Build()
	}
	m.Payload = Sanitize(m.Payload)
	m.Result = Sanitize(m.Result)
	switch m.Type {
	case TypeEvent, TypeGlobalEvent, TypeResolve:
		return m, nil
	}
	return m, errors.InvalidInput(errors.PhaseDecode, fmt.Sprintf("unknown message type %q", m.Type))
}

// EncodeBatch encodes operations into a forward-channel payload that Decode
// accepts.
func (c *Codec) EncodeBatch(ops []Operation) ([]byte, error) {
	entries := make([]entry, len(ops))
	for i, op := range ops {
		entries[i] = entry{Op: op.Kind.String(), Args: encodeArgs(op)}
	}
	return c.encode(entries)
}

func encodeArgs(op Operation) []any {
	node := int64(op.Node)
	switch op.Kind {
	case OpCreate:
		return []any{node, op.Type}
	case OpCreateText, OpSetText, OpSetElementText:
		return []any{node, op.Text}
	case OpUpdateProp:
		return []any{node, op.Key, Sanitize(op.Value)}
	case OpUpdateStyle:
		return []any{node, Sanitize(op.Style)}
	case OpAppendChild:
		return []any{int64(op.Parent), node}
	case OpInsertBefore:
		var before any
		if op.HasBefore {
			before = int64(op.Before)
		}
		return []any{int64(op.Parent), node, before}
	case OpRemoveChild:
		if op.HasParent {
			return []any{int64(op.Parent), node}
		}
		return []any{node}
	case OpAddEventListener:
		return []any{node, op.Event, int64(op.Callback)}
	case OpRemoveEventListener:
		return []any{node, op.Event}
	case OpSetRootView:
		return []any{node}
	case OpInvokeModule:
		if !op.HasCallback {
			return []any{op.Module, op.Method, Sanitize(op.Args)}
		}
		return []any{op.Module, op.Method, Sanitize(op.Args), int64(op.Callback)}
	case OpInvokeModuleSync:
		return []any{op.Module, op.Method, Sanitize(op.Args)}
	}
	return nil
}

func (c *Codec) encode(v any) ([]byte, error) {
	data, err := c.marshal(v)
	if err != nil {
		return nil, errors.New(errors.PhaseEncode, errors.KindInvalidInput).
			Detail("%s encode", c.format).Cause(err).Build()
	}
	return data, nil
}
