// Package schema maps numeric message type identifiers to protobuf message
// descriptors and exposes an explicit, ordered field table per message type.
//
// The field table is what the decoder walks: each Field declares its Kind
// (scalar, bytes, 64-bit integer, enum, nested message or map), whether it is
// repeated, and for enums the full table of symbolic constants. Dispatch on
// the declared kind replaces runtime inspection of decoded values.
//
// # Populating a Registry
//
// Registries are built from protobuf descriptors, either one message at a
// time with Register, or in bulk from a descriptor set that follows the
// hardware-wallet convention of a MessageType enum whose values are named
// MessageType_<MessageName>:
//
//	enum MessageType {
//	    MessageType_Initialize = 0;
//	    MessageType_Features = 17;
//	}
//
// A Registry is safe for concurrent use. Decoders treat it as read-only.
package schema
