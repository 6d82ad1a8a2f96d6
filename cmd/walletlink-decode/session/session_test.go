package session

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/walletlink/walletlink-go/internal/testproto"
	"github.com/walletlink/walletlink-go/pkg/decoder"
	"github.com/walletlink/walletlink-go/pkg/log"
	"github.com/walletlink/walletlink-go/pkg/schema"
)

func newSession(t *testing.T, opts ...Option) *Session {
	t.Helper()
	data, err := testproto.DescriptorSetBytes()
	require.NoError(t, err)
	reg, err := schema.LoadDescriptorSet(data, testproto.EnumName)
	require.NoError(t, err)
	return New(reg, opts...)
}

func successHex(msg string) string {
	b := protowire.AppendTag(nil, 1, protowire.BytesType)
	b = protowire.AppendString(b, msg)
	return hex.EncodeToString(b)
}

func TestParseType(t *testing.T) {
	s := newSession(t)

	id, err := s.ParseType("17")
	require.NoError(t, err)
	assert.Equal(t, testproto.TypeFeatures, id)

	id, err = s.ParseType("Success")
	require.NoError(t, err)
	assert.Equal(t, testproto.TypeSuccess, id)

	_, err = s.ParseType("Nope")
	assert.True(t, errors.Is(err, decoder.ErrUnknownMessageType))
}

func TestDecodeHex(t *testing.T) {
	s := newSession(t)

	out, err := s.DecodeHex("Success", successHex("ok"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"ok"}`, string(out))

	out, err = s.DecodeHex("2", "0x"+successHex("ok"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"ok"}`, string(out))

	_, err = s.DecodeHex("Success", "zz")
	assert.Error(t, err)

	_, err = s.DecodeHex("9999", "")
	assert.True(t, errors.Is(err, decoder.ErrUnknownMessageType))
}

func TestDecodeHexIndent(t *testing.T) {
	s := newSession(t, WithIndent(true))
	out, err := s.DecodeHex("Success", successHex("ok"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "\n  \"message\"")
}

func TestExecute(t *testing.T) {
	s := newSession(t)

	tests := []struct {
		line string
		want string
		quit bool
	}{
		{"", "", false},
		{"help", "Commands:", false},
		{"types", "Features", false},
		{"name 17", "17 Features", false},
		{"name 4242", "error: unknown message type", false},
		{"decode Success " + successHex("hi"), `{"message":"hi"}`, false},
		{"Success " + successHex("yo"), `{"message":"yo"}`, false},
		{"decode Success", "error: usage", false},
		{"omit maybe", "error: usage", false},
		{"quit", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			var buf bytes.Buffer
			quit := s.Execute(tt.line, &buf)
			assert.Equal(t, tt.quit, quit)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}

func TestExecuteOmitToggle(t *testing.T) {
	s := newSession(t)
	failure := protowire.AppendTag(nil, 1, protowire.VarintType)
	failure = protowire.AppendVarint(failure, 4)
	line := "decode Failure " + hex.EncodeToString(failure)

	var buf bytes.Buffer
	s.Execute(line, &buf)
	assert.Contains(t, buf.String(), `"code":"Failure_ActionCancelled"`)
	assert.Contains(t, buf.String(), `"message":null`)

	buf.Reset()
	s.Execute("omit on", &buf)
	assert.Contains(t, buf.String(), "omit unpopulated: on")

	buf.Reset()
	s.Execute(line, &buf)
	assert.Contains(t, buf.String(), `{"code":"Failure_ActionCancelled"}`)
}

type eventSink struct {
	events []log.Event
}

func (e *eventSink) Log(ev log.Event) { e.events = append(e.events, ev) }

func TestEventsShareSessionID(t *testing.T) {
	sink := &eventSink{}
	s := newSession(t, WithLogger(sink, false))
	require.NotEmpty(t, s.ID())

	_, err := s.DecodeHex("Success", successHex("a"))
	require.NoError(t, err)
	_, err = s.DecodeHex("4242", "")
	require.Error(t, err)

	require.Len(t, sink.events, 2)
	for _, ev := range sink.events {
		assert.Equal(t, s.ID(), ev.SessionID)
	}
	assert.NotEqual(t, s.ID(), newSession(t).ID())
}
