package protocol

import (
	"github.com/wippyai/native-bridge/errors"
)

// SyncRequest is the payload of a blocking module call made outside a batch.
type SyncRequest struct {
	Args   []any  `json:"args" msgpack:"args"`
	Module string `json:"module" msgpack:"module"`
	Method string `json:"method" msgpack:"method"`
}

// SyncResponse answers a SyncRequest.
type SyncResponse struct {
	Result any     `json:"result" msgpack:"result"`
	Error  *string `json:"error" msgpack:"error"`
}

// DecodeSyncRequest parses a blocking module call.
func (c *Codec) DecodeSyncRequest(data []byte) (SyncRequest, error) {
	var req SyncRequest
	if err := c.unmarshal(data, &req); err != nil {
		return SyncRequest{}, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Detail("sync request").Cause(err).Build()
	}
	if req.Module == "" || req.Method == "" {
		return req, errors.InvalidInput(errors.PhaseDecode, "sync request needs module and method")
	}
	if args, ok := Sanitize(req.Args).([]any); ok {
		req.Args = args
	}
	return req, nil
}

// EncodeSyncRequest encodes a blocking module call.
func (c *Codec) EncodeSyncRequest(req SyncRequest) ([]byte, error) {
	req.Args, _ = Sanitize(req.Args).([]any)
	return c.encode(req)
}

// EncodeSyncResponse encodes the outcome of a blocking module call.
func (c *Codec) EncodeSyncResponse(result any, err error) ([]byte, error) {
	resp := SyncResponse{}
	if err != nil {
		text := err.Error()
		resp.Error = &text
	} else {
		resp.Result = Sanitize(result)
	}
	return c.encode(resp)
}

// DecodeSyncResponse parses the outcome of a blocking module call.
func (c *Codec) DecodeSyncResponse(data []byte) (SyncResponse, error) {
	var resp SyncResponse
	if err := c.unmarshal(data, &resp); err != nil {
		return SyncResponse{}, errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Detail("sync response").Cause(err).Build()
	}
	resp.Result = Sanitize(resp.Result)
	return resp, nil
}
