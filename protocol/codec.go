package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	nativebridge "github.com/wippyai/native-bridge"
	"github.com/wippyai/native-bridge/errors"
)

// Format selects the wire encoding of both channels.
type Format uint8

const (
	FormatJSON Format = iota
	FormatMsgpack
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatMsgpack:
		return "msgpack"
	default:
		return fmt.Sprintf("format(%d)", f)
	}
}

// ParseFormat maps a format name to its Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return FormatJSON, nil
	case "msgpack", "messagepack":
		return FormatMsgpack, nil
	}
	return FormatJSON, errors.InvalidInput(errors.PhaseDecode, fmt.Sprintf("unknown wire format %q", name))
}

type entry struct {
	Op   string `json:"op" msgpack:"op"`
	Args []any  `json:"args" msgpack:"args"`
}

// Codec encodes and decodes messages in one wire format. A Codec is stateless
// and safe for concurrent use.
type Codec struct {
	logger *zap.Logger
	format Format
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithLogger sets the logger used for skipped entries.
func WithLogger(l *zap.Logger) CodecOption {
	return func(c *Codec) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCodec creates a codec for the given format.
func NewCodec(format Format, opts ...CodecOption) *Codec {
	c := &Codec{format: format, logger: Logger()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Format returns the codec's wire format.
func (c *Codec) Format() Format {
	return c.format
}

// Decode parses one forward-channel payload. It fails only when the payload
// is not a list of entries; individual bad entries land in Batch.Skipped.
func (c *Codec) Decode(payload []byte) (Batch, error) {
	raw, err := c.splitEntries(payload)
	if err != nil {
		c.logger.Warn("dropping malformed batch", zap.Int("bytes", len(payload)), zap.Error(err))
		return Batch{}, errors.MalformedBatch(err)
	}

	batch := Batch{Ops: make([]Operation, 0, len(raw))}
	for i, r := range raw {
		op, err := c.decodeEntry(i, r)
		if err != nil {
			c.logger.Warn("skipping batch entry", zap.Int("index", i), zap.Error(err))
			batch.Skipped = append(batch.Skipped, err)
			continue
		}
		batch.Ops = append(batch.Ops, op)
	}
	return batch, nil
}

func (c *Codec) splitEntries(payload []byte) ([][]byte, error) {
	switch c.format {
	case FormatMsgpack:
		var list []msgpack.RawMessage
		if err := msgpack.Unmarshal(payload, &list); err != nil {
			return nil, err
		}
		out := make([][]byte, len(list))
		for i, r := range list {
			out[i] = r
		}
		return out, nil
	default:
		trimmed := bytes.TrimSpace(payload)
		if len(trimmed) == 0 || trimmed[0] != '[' {
			return nil, fmt.Errorf("expected a list of operations")
		}
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		out := make([][]byte, len(list))
		for i, r := range list {
			out[i] = r
		}
		return out, nil
	}
}

func (c *Codec) decodeEntry(index int, raw []byte) (Operation, error) {
	var e entry
	if err := c.unmarshal(raw, &e); err != nil {
		return Operation{}, errors.MalformedEntry(index, "", err.Error())
	}
	kind, ok := ParseOpKind(e.Op)
	if !ok {
		return Operation{}, errors.UnknownOperation(index, e.Op, Suggest(e.Op))
	}
	return decodeArgs(index, kind, e.Args)
}

func (c *Codec) unmarshal(data []byte, v any) error {
	if c.format == FormatMsgpack {
		return msgpack.Unmarshal(data, v)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func (c *Codec) marshal(v any) ([]byte, error) {
	if c.format == FormatMsgpack {
		return msgpack.Marshal(v)
	}
	return json.Marshal(v)
}

// argSpec describes the positional arguments of one operation kind.
type argSpec struct {
	min, max int
}

var argSpecs = map[OpKind]argSpec{
	OpCreate:              {2, 2},
	OpCreateText:          {2, 2},
	OpSetText:             {2, 2},
	OpSetElementText:      {2, 2},
	OpUpdateProp:          {2, 3},
	OpUpdateStyle:         {2, 2},
	OpAppendChild:         {2, 2},
	OpInsertBefore:        {2, 3},
	OpRemoveChild:         {1, 2},
	OpAddEventListener:    {2, 3},
	OpRemoveEventListener: {2, 2},
	OpSetRootView:         {1, 1},
	OpInvokeModule:        {2, 4},
	OpInvokeModuleSync:    {2, 3},
}

func decodeArgs(index int, kind OpKind, args []any) (Operation, error) {
	op := Operation{Kind: kind, Index: index}
	spec := argSpecs[kind]
	if len(args) < spec.min || len(args) > spec.max {
		return op, errors.MalformedEntry(index, kind.String(),
			fmt.Sprintf("expected %d..%d arguments, got %d", spec.min, spec.max, len(args)))
	}

	d := argDecoder{index: index, kind: kind, args: args}
	switch kind {
	case OpCreate:
		op.Node = d.node(0)
		op.Type = d.str(1)
	case OpCreateText, OpSetText, OpSetElementText:
		op.Node = d.node(0)
		op.Text = d.text(1)
	case OpUpdateProp:
		op.Node = d.node(0)
		op.Key = d.str(1)
		op.Value = d.value(2)
	case OpUpdateStyle:
		op.Node = d.node(0)
		op.Style = d.dict(1)
	case OpAppendChild:
		op.Parent, op.HasParent = d.node(0), true
		op.Node = d.node(1)
	case OpInsertBefore:
		op.Parent, op.HasParent = d.node(0), true
		op.Node = d.node(1)
		if len(args) > 2 && args[2] != nil {
			op.Before, op.HasBefore = d.node(2), true
		}
	case OpRemoveChild:
		if len(args) == 2 {
			op.Parent, op.HasParent = d.node(0), true
			op.Node = d.node(1)
		} else {
			op.Node = d.node(0)
		}
	case OpAddEventListener:
		op.Node = d.node(0)
		op.Event = d.str(1)
		if len(args) > 2 && args[2] != nil {
			op.Callback = nativebridge.CallbackID(d.integer(2))
		}
	case OpRemoveEventListener:
		op.Node = d.node(0)
		op.Event = d.str(1)
	case OpSetRootView:
		op.Node = d.node(0)
	case OpInvokeModule, OpInvokeModuleSync:
		op.Module = d.str(0)
		op.Method = d.str(1)
		op.Args = d.list(2)
		if kind == OpInvokeModule && len(args) > 3 && args[3] != nil {
			op.Callback, op.HasCallback = nativebridge.CallbackID(d.integer(3)), true
		}
	}
	if d.err != nil {
		return op, d.err
	}
	if op.Event == "" && (kind == OpAddEventListener || kind == OpRemoveEventListener) {
		return op, errors.MalformedEntry(index, kind.String(), "event name is empty")
	}
	return op, nil
}

// argDecoder records the first conversion failure so decodeArgs can read
// arguments without checking each one.
type argDecoder struct {
	err   error
	args  []any
	index int
	kind  OpKind
}

func (d *argDecoder) fail(pos int, want string) {
	if d.err == nil {
		d.err = errors.MalformedEntry(d.index, d.kind.String(),
			fmt.Sprintf("argument %d: expected %s, got %T", pos, want, d.args[pos]))
	}
}

func (d *argDecoder) integer(pos int) int64 {
	v, ok := argInt(d.args[pos])
	if !ok {
		d.fail(pos, "integer")
	}
	return v
}

func (d *argDecoder) node(pos int) nativebridge.NodeID {
	return nativebridge.NodeID(d.integer(pos))
}

func (d *argDecoder) str(pos int) string {
	v, ok := argString(d.args[pos])
	if !ok {
		d.fail(pos, "string")
	}
	return v
}

func (d *argDecoder) text(pos int) string {
	v, ok := argText(d.args[pos])
	if !ok {
		d.fail(pos, "text")
	}
	return v
}

func (d *argDecoder) value(pos int) any {
	if pos >= len(d.args) {
		return nil
	}
	return Sanitize(d.args[pos])
}

func (d *argDecoder) dict(pos int) map[string]any {
	v, ok := argMap(d.args[pos])
	if !ok {
		d.fail(pos, "object")
	}
	return v
}

func (d *argDecoder) list(pos int) []any {
	if pos >= len(d.args) {
		return nil
	}
	v, ok := argList(d.args[pos])
	if !ok {
		d.fail(pos, "list")
	}
	return v
}
