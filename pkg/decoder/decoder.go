package decoder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/walletlink/walletlink-go/pkg/log"
	"github.com/walletlink/walletlink-go/pkg/schema"
)

// RawMessage is an undecoded message as delivered by the transport.
type RawMessage struct {
	Type uint16
	Data []byte
}

// Decoder returns a MessageDecoder for this message.
func (m RawMessage) Decoder(registry schema.Resolver, opts ...Option) *MessageDecoder {
	return New(registry, m.Type, m.Data, opts...)
}

// Option configures a MessageDecoder.
type Option func(*options)

type options struct {
	omitUnpopulated bool
	logger          log.Logger
	capturePayload  bool
	sessionID       string
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = log.OrNoop(o.logger)
	if _, noop := o.logger.(log.NoopLogger); !noop && o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}
	return o
}

// OmitUnpopulated drops unset fields from the output instead of emitting
// null (singular fields) or [] (repeated fields).
func OmitUnpopulated() Option {
	return func(o *options) { o.omitUnpopulated = true }
}

// WithLogger reports each DecodeJSON outcome to a protocol logger.
// When capturePayload is true the normalized value is included in the event.
func WithLogger(l log.Logger, capturePayload bool) Option {
	return func(o *options) {
		o.logger = l
		o.capturePayload = capturePayload
	}
}

// WithSessionID tags protocol log events with id. Without it each
// decoder uses a fresh random id for all of its events.
func WithSessionID(id string) Option {
	return func(o *options) { o.sessionID = id }
}

// MessageDecoder decodes one raw message. Construction does no work; each
// method resolves and decodes on demand and nothing is cached.
type MessageDecoder struct {
	registry schema.Resolver
	typeID   uint16
	data     []byte
	opts     options
}

// New creates a decoder for a message of type typeID.
func New(registry schema.Resolver, typeID uint16, data []byte, opts ...Option) *MessageDecoder {
	return &MessageDecoder{
		registry: registry,
		typeID:   typeID,
		data:     data,
		opts:     applyOptions(opts),
	}
}


// TypeID returns the message type identifier.
func (d *MessageDecoder) TypeID() uint16 {
	return d.typeID
}

func (d *MessageDecoder) descriptor() (*schema.Descriptor, error) {
	desc, ok := d.registry.Resolve(d.typeID)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, d.typeID)
	}
	return desc, nil
}

// MessageName returns the human-readable name of the message type.
func (d *MessageDecoder) MessageName() (string, error) {
	desc, err := d.descriptor()
	if err != nil {
		return "", err
	}
	return desc.Name, nil
}

// Decode parses the bytes into a protobuf message of the resolved type.
func (d *MessageDecoder) Decode() (protoreflect.Message, error) {
	desc, err := d.descriptor()
	if err != nil {
		return nil, err
	}
	return d.decode(desc)
}

func (d *MessageDecoder) decode(desc *schema.Descriptor) (protoreflect.Message, error) {
	msg, err := desc.Decode(d.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedMessage, desc.Name, err)
	}
	return msg, nil
}

// DecodeJSON decodes the message and normalizes it to a JSON-safe map.
func (d *MessageDecoder) DecodeJSON() (map[string]any, error) {
	desc, err := d.descriptor()
	if err != nil {
		d.logError(err, "resolve")
		return nil, err
	}

	msg, err := d.decode(desc)
	if err != nil {
		d.logError(err, "decode "+desc.Name)
		return nil, err
	}

	n := &normalizer{omitUnpopulated: d.opts.omitUnpopulated}
	out, err := n.message(desc.Message, msg, "")
	if err != nil {
		d.logError(err, "normalize "+desc.Name)
		return nil, err
	}

	d.logMessage(desc, out)
	return out, nil
}

// DecodeJSONBytes decodes the message and returns it as JSON text.
func (d *MessageDecoder) DecodeJSONBytes() ([]byte, error) {
	out, err := d.DecodeJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (d *MessageDecoder) logMessage(desc *schema.Descriptor, payload map[string]any) {
	if _, ok := d.opts.logger.(log.NoopLogger); ok {
		return
	}
	ev := &log.MessageEvent{
		TypeID: desc.TypeID,
		Name:   desc.Name,
		Size:   len(d.data),
	}
	if d.opts.capturePayload {
		ev.Payload = payload
	}
	d.opts.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: d.opts.sessionID,
		Layer:     log.LayerWire,
		Category:  log.CategoryMessage,
		Message:   ev,
	})
}

func (d *MessageDecoder) logError(err error, context string) {
	if _, ok := d.opts.logger.(log.NoopLogger); ok {
		return
	}
	d.opts.logger.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: d.opts.sessionID,
		Layer:     log.LayerWire,
		Category:  log.CategoryError,
		Error: &log.ErrorEventData{
			Layer:   log.LayerWire,
			Message: err.Error(),
			Context: context,
		},
	})
}
