package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeDispatch(t *testing.T) {
	raw := []byte(`{"type":"chat-message","room":"r1","text":"hello","username":"alice","time":"10:42"}`)

	var env Envelope
	require.NoError(t, json.Unmarshal(raw, &env))
	assert.Equal(t, TypeChatMessage, env.Type)

	var msg ChatMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, "hello", msg.Text)
	assert.Empty(t, msg.Sender, "sender is hub-assigned, never trusted from the wire")
}

func TestSignalPayloadStaysOpaque(t *testing.T) {
	payload := `{"sdp":"v=0...","kind":"offer","nested":{"a":[1,2,3]}}`
	raw := []byte(`{"type":"signal","target":"c-2","payload":` + payload + `}`)

	var sig Signal
	require.NoError(t, json.Unmarshal(raw, &sig))

	out, err := Encode(Signal{Type: TypeSignal, Origin: "c-1", Payload: sig.Payload})
	require.NoError(t, err)

	var fwd Signal
	require.NoError(t, json.Unmarshal(out, &fwd))
	assert.JSONEq(t, payload, string(fwd.Payload), "relayed payload must be byte-for-byte equivalent")
	assert.Empty(t, fwd.Target, "outbound signal names the origin, not the target")
}
