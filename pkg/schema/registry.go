package schema

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// MessageTypePrefix is the conventional prefix of message type enum values.
const MessageTypePrefix = "MessageType_"

// DefaultMessageTypeEnum is the message type enum of the wallet protocol.
const DefaultMessageTypeEnum = "hw.trezor.messages.MessageType"

// Registry errors.
var (
	ErrDuplicateType   = errors.New("message type already registered")
	ErrEnumNotFound    = errors.New("message type enum not found")
	ErrMessageNotFound = errors.New("message not found")
	ErrTypeOutOfRange  = errors.New("message type out of range")
)

// Resolver looks up message descriptors by type identifier.
type Resolver interface {
	// Resolve returns the descriptor for typeID, or false if unknown.
	Resolve(typeID uint16) (*Descriptor, bool)
}

// Descriptor binds a type identifier to a message type.
type Descriptor struct {
	// TypeID is the numeric message type on the wire.
	TypeID uint16

	// Name is the human-readable message name (e.g. "Features").
	Name string

	// Message is the ordered field table used for normalization.
	Message *MessageSchema

	mt protoreflect.MessageType
}

// Decode parses data into a new message of this type.
// Missing required fields are reported as errors.
func (d *Descriptor) Decode(data []byte) (protoreflect.Message, error) {
	msg := d.mt.New()
	if err := proto.Unmarshal(data, msg.Interface()); err != nil {
		return nil, err
	}
	return msg, nil
}

// Registry is an in-memory Resolver.
type Registry struct {
	mu     sync.RWMutex
	byType map[uint16]*Descriptor
	byName map[string]uint16
	build  *builder
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[uint16]*Descriptor),
		byName: make(map[string]uint16),
		build:  newBuilder(),
	}
}

// Register binds typeID to a message descriptor. Messages are decoded with
// dynamicpb.
func (r *Registry) Register(typeID uint16, md protoreflect.MessageDescriptor) error {
	return r.RegisterType(typeID, dynamicpb.NewMessageType(md))
}

// RegisterType binds typeID to a concrete message type, such as one from
// generated code.
func (r *Registry) RegisterType(typeID uint16, mt protoreflect.MessageType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byType[typeID]; ok {
		return fmt.Errorf("%w: %d (%s)", ErrDuplicateType, typeID, existing.Name)
	}

	md := mt.Descriptor()
	d := &Descriptor{
		TypeID:  typeID,
		Name:    string(md.Name()),
		Message: r.build.message(md),
		mt:      mt,
	}
	r.byType[typeID] = d
	r.byName[d.Name] = typeID
	return nil
}

// Resolve returns the descriptor for typeID.
func (r *Registry) Resolve(typeID uint16) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byType[typeID]
	return d, ok
}

// TypeID returns the type identifier registered for a message name.
func (r *Registry) TypeID(name string) (uint16, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byName[name]
	return id, ok
}

// Types returns all registered type identifiers in ascending order.
func (r *Registry) Types() []uint16 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint16, 0, len(r.byType))
	for id := range r.byType {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byType)
}

// FromFiles builds a registry from the values of a message type enum.
// Each value MessageType_<Name> = N binds N to the message <Name>, looked up
// first in the enum's package and then in every other file.
func FromFiles(files *protoregistry.Files, enumName protoreflect.FullName) (*Registry, error) {
	d, err := files.FindDescriptorByName(enumName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrEnumNotFound, enumName)
	}
	ed, ok := d.(protoreflect.EnumDescriptor)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an enum", ErrEnumNotFound, enumName)
	}

	reg := NewRegistry()
	pkg := ed.ParentFile().Package()
	values := ed.Values()
	for i := 0; i < values.Len(); i++ {
		v := values.Get(i)
		if v.Number() < 0 || v.Number() > math.MaxUint16 {
			return nil, fmt.Errorf("%w: %s = %d", ErrTypeOutOfRange, v.Name(), v.Number())
		}

		name := protoreflect.Name(strings.TrimPrefix(string(v.Name()), MessageTypePrefix))
		md := findMessage(files, pkg, name)
		if md == nil {
			return nil, fmt.Errorf("%w: %s (from %s)", ErrMessageNotFound, name, v.Name())
		}
		if err := reg.Register(uint16(v.Number()), md); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// LoadDescriptorSet builds a registry from a serialized FileDescriptorSet,
// as produced by protoc --descriptor_set_out --include_imports.
func LoadDescriptorSet(data []byte, enumName string) (*Registry, error) {
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse descriptor set: %w", err)
	}
	files, err := protodesc.NewFiles(&set)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve descriptor set: %w", err)
	}
	if enumName == "" {
		enumName = DefaultMessageTypeEnum
	}
	return FromFiles(files, protoreflect.FullName(enumName))
}

func findMessage(files *protoregistry.Files, pkg protoreflect.FullName, name protoreflect.Name) protoreflect.MessageDescriptor {
	if d, err := files.FindDescriptorByName(pkg.Append(name)); err == nil {
		if md, ok := d.(protoreflect.MessageDescriptor); ok {
			return md
		}
	}

	var found protoreflect.MessageDescriptor
	files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		if md := fd.Messages().ByName(name); md != nil {
			found = md
			return false
		}
		return true
	})
	return found
}
