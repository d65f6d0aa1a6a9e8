// Package protocol encodes and decodes the messages exchanged between the
// scripting program and the bridge.
//
// The forward channel carries batches: an ordered list of {op, args} entries
// with positional arguments.
//
//	[{"op":"create","args":[1,"view"]},
//	 {"op":"appendChild","args":[0,1]},
//	 {"op":"updateStyle","args":[1,{"flexDirection":"row"}]}]
//
// The reverse channel carries single messages:
//
//	{"type":"event","nodeId":1,"eventName":"press","payload":{...}}
//	{"type":"globalEvent","eventName":"resize","payload":{...}}
//	{"type":"resolve","callbackId":7,"result":null,"error":"boom"}
//
// Both channels are available as JSON and as msgpack with the same shape.
//
// Decoding is lenient per entry: an entry with an unknown tag or malformed
// arguments is logged, recorded in Batch.Skipped and skipped, and the rest of
// the batch still decodes. Only a payload that cannot be parsed as a list at
// all is rejected as a malformed batch.
package protocol
