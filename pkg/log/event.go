package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies one decode call or one watcher invocation (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Layer indicates which component captured the event.
type Layer uint8

const (
	// LayerWire is the message decoding layer.
	LayerWire Layer = 0
	// LayerDiscovery is the device watcher.
	LayerDiscovery Layer = 1
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerWire:
		return "WIRE"
	case LayerDiscovery:
		return "DISCOVERY"
	default:
		return "UNKNOWN"
	}
}

// ParseLayer parses a layer name (case-insensitive).
func ParseLayer(s string) (Layer, bool) {
	switch s {
	case "wire", "WIRE":
		return LayerWire, true
	case "discovery", "DISCOVERY":
		return LayerDiscovery, true
	default:
		return 0, false
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a decoded message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures a decoded protocol message.
type MessageEvent struct {
	// TypeID is the numeric message type.
	TypeID uint16 `cbor:"1,keyasint"`

	// Name is the resolved message name.
	Name string `cbor:"2,keyasint"`

	// Size is the encoded message size in bytes.
	Size int `cbor:"3,keyasint"`

	// Payload is the normalized JSON value, when payload capture is enabled.
	Payload map[string]any `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures device watcher lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`

	// Iteration is the poll iteration at which the change happened.
	Iteration int `cbor:"5,keyasint"`

	// Devices is the number of devices in the snapshot.
	Devices int `cbor:"6,keyasint"`

	// Fingerprint identifies the snapshot contents.
	Fingerprint string `cbor:"7,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityWatcher indicates a device watcher state change.
	StateEntityWatcher StateEntity = 0
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityWatcher:
		return "WATCHER"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
