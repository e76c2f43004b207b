package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	env := Envelope{
		Origin:    "instance-a",
		SessionID: "6f1c",
		Seat:      2,
		Frame:     []byte(`{"type":"ABORT"}`),
	}

	data, err := EncodeEnvelope(env)
	require.NoError(t, err)

	got, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env, got)
}

func TestDecodeEnvelopeRejectsGarbage(t *testing.T) {
	_, err := DecodeEnvelope([]byte{0xc1})
	assert.Error(t, err)
}

func TestChannelNaming(t *testing.T) {
	assert.Equal(t, "session:abc", Channel("abc"))

	id, ok := SessionFromChannel(Channel("abc"))
	assert.True(t, ok)
	assert.Equal(t, "abc", id)

	_, ok = SessionFromChannel("idle_events")
	assert.False(t, ok)
	_, ok = SessionFromChannel("session:")
	assert.False(t, ok)
}
