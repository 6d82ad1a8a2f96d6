// Package decoder turns raw wallet protocol messages into JSON-ready values.
//
// A MessageDecoder binds a schema.Resolver, a numeric message type and the
// raw message bytes. Nothing is decoded until MessageName, Decode or
// DecodeJSON is called, and the input bytes are never modified.
//
// # Normalization
//
// DecodeJSON walks the message along the schema's declared field table and
// converts each value by its declared kind:
//
//   - bytes: lowercase hex string
//   - 64-bit integers: float64 (values beyond 2^53 lose precision)
//   - enums: the symbolic constant name
//   - nested messages: nested maps
//   - repeated fields: []any of normalized elements
//   - maps: map[string]any keyed by the string form of the key
//   - other scalars: bool, string, or float64
//
// The result contains only map[string]any, []any, string, float64, bool and
// nil, so it survives a JSON encode/decode round trip unchanged.
//
// # Errors
//
// All failures wrap one of ErrUnknownMessageType, ErrMalformedMessage or
// ErrUnknownEnumValue; use errors.Is to classify them. None are retried.
package decoder
