package schema

import (
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// Kind classifies how a field value is normalized.
type Kind uint8

const (
	// KindScalar is a bool, string, float, double or 32-bit integer.
	KindScalar Kind = iota + 1

	// KindBytes is a byte blob.
	KindBytes

	// KindInt64 is any 64-bit integer encoding (int64, uint64, sint64,
	// fixed64, sfixed64).
	KindInt64

	// KindEnum is an enum-typed field.
	KindEnum

	// KindMessage is a nested message or group.
	KindMessage

	// KindMap is a protobuf map field.
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "SCALAR"
	case KindBytes:
		return "BYTES"
	case KindInt64:
		return "INT64"
	case KindEnum:
		return "ENUM"
	case KindMessage:
		return "MESSAGE"
	case KindMap:
		return "MAP"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(k))
	}
}

// Field describes one declared field of a message type.
type Field struct {
	// Name is the field name as declared in the schema.
	Name string

	// Number is the field number on the wire.
	Number int32

	// Kind selects the normalization rule.
	Kind Kind

	// Repeated is true for list fields. Map fields are not Repeated.
	Repeated bool

	// Enum holds the symbolic constants when Kind is KindEnum.
	Enum *EnumTable

	// Message is the nested schema when Kind is KindMessage.
	Message *MessageSchema

	// Key and Value describe map entries when Kind is KindMap.
	Key   *Field
	Value *Field

	desc protoreflect.FieldDescriptor
}

// Descriptor returns the underlying protobuf field descriptor.
func (f *Field) Descriptor() protoreflect.FieldDescriptor {
	return f.desc
}

// HasPresence reports whether an unset value is distinguishable from the
// zero value.
func (f *Field) HasPresence() bool {
	return f.desc.HasPresence()
}

// EnumValue is one symbolic enum constant.
type EnumValue struct {
	Name   string
	Number int32
}

// EnumTable is the ordered set of constants declared by an enum.
type EnumTable struct {
	// Name is the fully qualified enum name.
	Name string

	// Values are the constants in declaration order.
	Values []EnumValue
}

// Lookup returns the symbolic name for a numeric value.
// When several constants share a number the first declared one wins.
func (e *EnumTable) Lookup(number int32) (string, bool) {
	for _, v := range e.Values {
		if v.Number == number {
			return v.Name, true
		}
	}
	return "", false
}

// Contains reports whether name is a declared constant.
func (e *EnumTable) Contains(name string) bool {
	for _, v := range e.Values {
		if v.Name == name {
			return true
		}
	}
	return false
}

// MessageSchema is the ordered field table for one message type.
type MessageSchema struct {
	// Name is the fully qualified message name.
	Name string

	// Fields are the declared fields in declaration order.
	Fields []*Field

	desc protoreflect.MessageDescriptor
}

// Descriptor returns the underlying protobuf message descriptor.
func (m *MessageSchema) Descriptor() protoreflect.MessageDescriptor {
	return m.desc
}

// FieldByName returns the named field, or nil.
func (m *MessageSchema) FieldByName(name string) *Field {
	for _, f := range m.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// builder converts protobuf descriptors to schemas. Schemas are memoized by
// full name so recursive message types terminate.
type builder struct {
	messages map[protoreflect.FullName]*MessageSchema
	enums    map[protoreflect.FullName]*EnumTable
}

func newBuilder() *builder {
	return &builder{
		messages: make(map[protoreflect.FullName]*MessageSchema),
		enums:    make(map[protoreflect.FullName]*EnumTable),
	}
}

// BuildMessage returns the field table for a message descriptor.
func BuildMessage(md protoreflect.MessageDescriptor) *MessageSchema {
	return newBuilder().message(md)
}

func (b *builder) message(md protoreflect.MessageDescriptor) *MessageSchema {
	if ms, ok := b.messages[md.FullName()]; ok {
		return ms
	}

	fields := md.Fields()
	ms := &MessageSchema{
		Name:   string(md.FullName()),
		Fields: make([]*Field, 0, fields.Len()),
		desc:   md,
	}
	b.messages[md.FullName()] = ms

	for i := 0; i < fields.Len(); i++ {
		ms.Fields = append(ms.Fields, b.field(fields.Get(i)))
	}
	return ms
}

func (b *builder) field(fd protoreflect.FieldDescriptor) *Field {
	f := &Field{
		Name:     string(fd.Name()),
		Number:   int32(fd.Number()),
		Repeated: fd.IsList(),
		desc:     fd,
	}

	if fd.IsMap() {
		f.Kind = KindMap
		f.Key = b.field(fd.MapKey())
		f.Value = b.field(fd.MapValue())
		return f
	}

	switch fd.Kind() {
	case protoreflect.BytesKind:
		f.Kind = KindBytes
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind,
		protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		f.Kind = KindInt64
	case protoreflect.EnumKind:
		f.Kind = KindEnum
		f.Enum = b.enum(fd.Enum())
	case protoreflect.MessageKind, protoreflect.GroupKind:
		f.Kind = KindMessage
		f.Message = b.message(fd.Message())
	default:
		f.Kind = KindScalar
	}
	return f
}

func (b *builder) enum(ed protoreflect.EnumDescriptor) *EnumTable {
	if et, ok := b.enums[ed.FullName()]; ok {
		return et
	}

	values := ed.Values()
	et := &EnumTable{
		Name:   string(ed.FullName()),
		Values: make([]EnumValue, 0, values.Len()),
	}
	for i := 0; i < values.Len(); i++ {
		v := values.Get(i)
		et.Values = append(et.Values, EnumValue{Name: string(v.Name()), Number: int32(v.Number())})
	}
	b.enums[ed.FullName()] = et
	return et
}
