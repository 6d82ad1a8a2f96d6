package schema

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/walletlink/walletlink-go/internal/testproto"
)

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	data, err := testproto.DescriptorSetBytes()
	require.NoError(t, err)
	reg, err := LoadDescriptorSet(data, testproto.EnumName)
	require.NoError(t, err)
	return reg
}

func TestLoadDescriptorSet(t *testing.T) {
	reg := loadTestRegistry(t)

	assert.Equal(t, 6, reg.Len())
	assert.Equal(t, []uint16{0, 2, 3, 12, 17, 21}, reg.Types())

	tests := []struct {
		typeID uint16
		name   string
	}{
		{testproto.TypeInitialize, "Initialize"},
		{testproto.TypeSuccess, "Success"},
		{testproto.TypeFailure, "Failure"},
		{testproto.TypePublicKey, "PublicKey"},
		{testproto.TypeFeatures, "Features"},
		{testproto.TypeTxRequest, "TxRequest"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := reg.Resolve(tt.typeID)
			require.True(t, ok)
			assert.Equal(t, tt.name, d.Name)
			assert.Equal(t, tt.typeID, d.TypeID)
			assert.Equal(t, testproto.Package+"."+tt.name, d.Message.Name)

			id, ok := reg.TypeID(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.typeID, id)
		})
	}

	_, ok := reg.Resolve(9999)
	assert.False(t, ok)
}

func TestLoadDescriptorSetErrors(t *testing.T) {
	t.Run("GarbageBytes", func(t *testing.T) {
		_, err := LoadDescriptorSet([]byte{0xff, 0xff, 0xff}, testproto.EnumName)
		assert.Error(t, err)
	})

	t.Run("MissingEnum", func(t *testing.T) {
		data, err := testproto.DescriptorSetBytes()
		require.NoError(t, err)
		_, err = LoadDescriptorSet(data, "walletlink.test.NoSuchEnum")
		assert.True(t, errors.Is(err, ErrEnumNotFound))
	})

	t.Run("NotAnEnum", func(t *testing.T) {
		data, err := testproto.DescriptorSetBytes()
		require.NoError(t, err)
		_, err = LoadDescriptorSet(data, "walletlink.test.Features")
		assert.True(t, errors.Is(err, ErrEnumNotFound))
	})

	t.Run("MissingMessage", func(t *testing.T) {
		file := testproto.MessagesFile()
		file.EnumType[0].Value = append(file.EnumType[0].Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String("MessageType_Ghost"),
			Number: proto.Int32(99),
		})
		data, err := proto.Marshal(&descriptorpb.FileDescriptorSet{
			File: []*descriptorpb.FileDescriptorProto{file},
		})
		require.NoError(t, err)

		_, err = LoadDescriptorSet(data, testproto.EnumName)
		assert.True(t, errors.Is(err, ErrMessageNotFound))
	})
}

func TestRegistryRegister(t *testing.T) {
	files, err := testproto.Files()
	require.NoError(t, err)
	md, err := testproto.Message(files, testproto.StatusMsg)
	require.NoError(t, err)

	reg := NewRegistry()
	require.NoError(t, reg.Register(900, md))

	err = reg.Register(900, md)
	assert.True(t, errors.Is(err, ErrDuplicateType))

	d, ok := reg.Resolve(900)
	require.True(t, ok)
	assert.Equal(t, "Status", d.Name)
}

func TestRegistryConcurrentResolve(t *testing.T) {
	reg := loadTestRegistry(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, id := range reg.Types() {
				_, ok := reg.Resolve(id)
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}

func TestMessageSchemaFields(t *testing.T) {
	reg := loadTestRegistry(t)

	d, ok := reg.Resolve(testproto.TypeFeatures)
	require.True(t, ok)

	names := make([]string, 0, len(d.Message.Fields))
	for _, f := range d.Message.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{
		"vendor", "major_version", "minor_version", "pin_protection",
		"session_id", "flags", "offset", "languages", "ratio",
	}, names)

	kinds := map[string]Kind{
		"vendor":         KindScalar,
		"major_version":  KindScalar,
		"pin_protection": KindScalar,
		"session_id":     KindBytes,
		"flags":          KindInt64,
		"offset":         KindInt64,
		"languages":      KindScalar,
		"ratio":          KindScalar,
	}
	for name, kind := range kinds {
		f := d.Message.FieldByName(name)
		require.NotNil(t, f, name)
		assert.Equal(t, kind, f.Kind, name)
	}
	assert.True(t, d.Message.FieldByName("languages").Repeated)
	assert.False(t, d.Message.FieldByName("vendor").Repeated)
	assert.True(t, d.Message.FieldByName("vendor").HasPresence())
	assert.Nil(t, d.Message.FieldByName("nope"))
}

func TestMessageSchemaNested(t *testing.T) {
	reg := loadTestRegistry(t)

	d, ok := reg.Resolve(testproto.TypeTxRequest)
	require.True(t, ok)

	rt := d.Message.FieldByName("request_type")
	require.NotNil(t, rt)
	assert.Equal(t, KindEnum, rt.Kind)
	require.NotNil(t, rt.Enum)
	assert.Equal(t, testproto.Package+".RequestType", rt.Enum.Name)

	outputs := d.Message.FieldByName("outputs")
	require.NotNil(t, outputs)
	assert.Equal(t, KindMessage, outputs.Kind)
	assert.True(t, outputs.Repeated)
	require.NotNil(t, outputs.Message)

	st := outputs.Message.FieldByName("script_type")
	require.NotNil(t, st)
	assert.Equal(t, KindEnum, st.Kind)
	assert.True(t, st.Enum.Contains("PAYTOWITNESS"))
	assert.Equal(t, protoreflect.FieldNumber(4), st.Descriptor().Number())
}

func TestMessageSchemaMap(t *testing.T) {
	files, err := testproto.Files()
	require.NoError(t, err)
	md, err := testproto.Message(files, testproto.StatusMsg)
	require.NoError(t, err)

	ms := BuildMessage(md)
	counters := ms.FieldByName("counters")
	require.NotNil(t, counters)
	assert.Equal(t, KindMap, counters.Kind)
	assert.False(t, counters.Repeated)
	require.NotNil(t, counters.Key)
	require.NotNil(t, counters.Value)
	assert.Equal(t, KindScalar, counters.Key.Kind)
	assert.Equal(t, KindInt64, counters.Value.Kind)

	assert.Equal(t, KindInt64, ms.FieldByName("uptime").Kind)
	assert.False(t, ms.FieldByName("uptime").HasPresence())
}

func TestBuildMessageRecursive(t *testing.T) {
	file := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("tree.proto"),
		Package: proto.String("tree"),
		Syntax:  proto.String("proto2"),
		MessageType: []*descriptorpb.DescriptorProto{{
			Name: proto.String("Node"),
			Field: []*descriptorpb.FieldDescriptorProto{{
				Name:     proto.String("children"),
				Number:   proto.Int32(1),
				Label:    descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum(),
				Type:     descriptorpb.FieldDescriptorProto_TYPE_MESSAGE.Enum(),
				TypeName: proto.String(".tree.Node"),
			}},
		}},
	}
	fd, err := protodesc.NewFile(file, nil)
	require.NoError(t, err)

	ms := BuildMessage(fd.Messages().ByName("Node"))
	children := ms.FieldByName("children")
	require.NotNil(t, children)
	assert.Same(t, ms, children.Message)
}

func TestEnumTableLookup(t *testing.T) {
	et := &EnumTable{
		Name: "x.Alias",
		Values: []EnumValue{
			{Name: "FIRST", Number: 1},
			{Name: "ALIAS", Number: 1},
			{Name: "SECOND", Number: 2},
		},
	}

	name, ok := et.Lookup(1)
	assert.True(t, ok)
	assert.Equal(t, "FIRST", name)

	name, ok = et.Lookup(2)
	assert.True(t, ok)
	assert.Equal(t, "SECOND", name)

	_, ok = et.Lookup(3)
	assert.False(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "BYTES", KindBytes.String())
	assert.Equal(t, "MAP", KindMap.String())
	assert.Equal(t, "UNKNOWN(0)", Kind(0).String())
}
