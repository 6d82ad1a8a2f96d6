// Package testproto builds small wallet protocol schemas at runtime for tests.
package testproto

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Package names of the generated files.
const (
	Package   = "walletlink.test"
	Package3  = "walletlink.test3"
	EnumName  = Package + ".MessageType"
	StatusMsg = Package3 + ".Status"
)

// Message type identifiers declared by the MessageType enum.
const (
	TypeInitialize uint16 = 0
	TypeSuccess    uint16 = 2
	TypeFailure    uint16 = 3
	TypePublicKey  uint16 = 12
	TypeFeatures   uint16 = 17
	TypeTxRequest  uint16 = 21
)

type (
	fieldType  = descriptorpb.FieldDescriptorProto_Type
	fieldLabel = descriptorpb.FieldDescriptorProto_Label
)

const (
	optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	required = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
	repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED

	tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	tUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	tUint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
	tSint64  = descriptorpb.FieldDescriptorProto_TYPE_SINT64
	tDouble  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	tEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
	tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)

func field(name string, num int32, label fieldLabel, typ fieldType, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Label:  label.Enum(),
		Type:   typ.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

func enum(name string, values ...any) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i := 0; i+1 < len(values); i += 2 {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(values[i].(string)),
			Number: proto.Int32(int32(values[i+1].(int))),
		})
	}
	return e
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

// MessagesFile returns a proto2 file modelled on the wallet protocol.
func MessagesFile() *descriptorpb.FileDescriptorProto {
	ref := func(name string) string { return "." + Package + "." + name }

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("walletlink/test/messages.proto"),
		Package: proto.String(Package),
		Syntax:  proto.String("proto2"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enum("MessageType",
				"MessageType_Initialize", 0,
				"MessageType_Success", 2,
				"MessageType_Failure", 3,
				"MessageType_PublicKey", 12,
				"MessageType_Features", 17,
				"MessageType_TxRequest", 21,
			),
			enum("FailureType",
				"Failure_UnexpectedMessage", 1,
				"Failure_ActionCancelled", 4,
				"Failure_PinInvalid", 7,
			),
			enum("OutputScriptType",
				"PAYTOADDRESS", 0,
				"PAYTOSCRIPTHASH", 1,
				"PAYTOWITNESS", 5,
			),
			enum("RequestType",
				"TXINPUT", 0,
				"TXOUTPUT", 1,
				"TXMETA", 2,
				"TXFINISHED", 3,
			),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("Initialize",
				field("session_id", 1, optional, tBytes, ""),
			),
			message("Success",
				field("message", 1, optional, tString, ""),
			),
			message("Failure",
				field("code", 1, optional, tEnum, ref("FailureType")),
				field("message", 2, optional, tString, ""),
			),
			message("Features",
				field("vendor", 1, optional, tString, ""),
				field("major_version", 2, optional, tUint32, ""),
				field("minor_version", 3, optional, tUint32, ""),
				field("pin_protection", 4, optional, tBool, ""),
				field("session_id", 5, optional, tBytes, ""),
				field("flags", 6, optional, tUint64, ""),
				field("offset", 7, optional, tSint64, ""),
				field("languages", 8, repeated, tString, ""),
				field("ratio", 9, optional, tDouble, ""),
			),
			message("HDNode",
				field("depth", 1, required, tUint32, ""),
				field("fingerprint", 2, required, tUint32, ""),
				field("child_num", 3, required, tUint32, ""),
				field("chain_code", 4, required, tBytes, ""),
				field("public_key", 5, optional, tBytes, ""),
			),
			message("PublicKey",
				field("node", 1, required, tMessage, ref("HDNode")),
				field("xpub", 2, optional, tString, ""),
			),
			message("TxOutputType",
				field("address", 1, optional, tString, ""),
				field("address_n", 2, repeated, tUint32, ""),
				field("amount", 3, required, tUint64, ""),
				field("script_type", 4, required, tEnum, ref("OutputScriptType")),
			),
			message("TxRequestDetails",
				field("request_index", 1, optional, tUint32, ""),
				field("tx_hash", 2, optional, tBytes, ""),
			),
			message("TxRequest",
				field("request_type", 1, optional, tEnum, ref("RequestType")),
				field("details", 2, optional, tMessage, ref("TxRequestDetails")),
				field("outputs", 3, repeated, tMessage, ref("TxOutputType")),
			),
		},
	}
}

// StatusFile returns a proto3 file with open enums, maps and 64-bit integers.
func StatusFile() *descriptorpb.FileDescriptorProto {
	ref := func(name string) string { return "." + Package3 + "." + name }

	entry := message("CountersEntry",
		field("key", 1, optional, tString, ""),
		field("value", 2, optional, tUint64, ""),
	)
	entry.Options = &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)}

	status := message("Status",
		field("color", 1, optional, tEnum, ref("Color")),
		field("counters", 2, repeated, tMessage, ref("Status.CountersEntry")),
		field("uptime", 3, optional, tInt64, ""),
		field("history", 4, repeated, tEnum, ref("Color")),
		field("label", 5, optional, tString, ""),
	)
	status.NestedType = []*descriptorpb.DescriptorProto{entry}

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("walletlink/test/status.proto"),
		Package: proto.String(Package3),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enum("Color",
				"COLOR_UNSPECIFIED", 0,
				"COLOR_RED", 1,
				"COLOR_GREEN", 2,
			),
		},
		MessageType: []*descriptorpb.DescriptorProto{status},
	}
}

// DescriptorSet returns both files as a FileDescriptorSet.
func DescriptorSet() *descriptorpb.FileDescriptorSet {
	return &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{MessagesFile(), StatusFile()},
	}
}

// DescriptorSetBytes returns the serialized FileDescriptorSet.
func DescriptorSetBytes() ([]byte, error) {
	return proto.Marshal(DescriptorSet())
}

// Files resolves both files into a registry of descriptors.
func Files() (*protoregistry.Files, error) {
	return protodesc.NewFiles(DescriptorSet())
}

// Message looks up a message descriptor by full name.
func Message(files *protoregistry.Files, name string) (protoreflect.MessageDescriptor, error) {
	d, err := files.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil {
		return nil, err
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, protoregistry.NotFound
	}
	return md, nil
}
