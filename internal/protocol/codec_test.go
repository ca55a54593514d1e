package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var lengthBuf [4]byte
	binary.BigEndian.PutUint32(lengthBuf[:], uint32(len(payload)))
	buf.Write(lengthBuf[:])
	buf.WriteString(payload)
	return buf.Bytes()
}

func TestDecoder_ReadRequest(t *testing.T) {
	t.Run("decodes a keyboard key", func(t *testing.T) {
		dec := NewDecoder(bytes.NewReader(frame(t,
			`{"type":"keyboard_key","payload":{"key":30,"pressed":true}}`)))

		req, err := dec.ReadRequest()
		require.NoError(t, err)
		key, ok := req.(KeyboardKey)
		require.True(t, ok, "got %T", req)
		assert.Equal(t, uint32(30), key.Key)
		assert.True(t, key.Pressed)
	})

	t.Run("decodes a touch down with slot and coordinates", func(t *testing.T) {
		dec := NewDecoder(bytes.NewReader(frame(t,
			`{"type":"touch_down","payload":{"touch_id":1,"x":50,"y":50}}`)))

		req, err := dec.ReadRequest()
		require.NoError(t, err)
		td, ok := req.(TouchDown)
		require.True(t, ok, "got %T", req)
		assert.Equal(t, uint32(1), td.TouchID)
		assert.Equal(t, 50.0, td.X)
	})

	t.Run("payloadless variants decode from bare envelopes", func(t *testing.T) {
		for wire, want := range map[string]Request{
			`{"type":"frame"}`:        Frame{},
			`{"type":"disconnect"}`:   Disconnect{},
			`{"type":"touch_cancel"}`: TouchCancel{},
		} {
			dec := NewDecoder(bytes.NewReader(frame(t, wire)))
			req, err := dec.ReadRequest()
			require.NoError(t, err)
			assert.Equal(t, want, req)
		}
	})

	t.Run("unknown type is carried through not rejected", func(t *testing.T) {
		dec := NewDecoder(bytes.NewReader(frame(t,
			`{"type":"gesture_pinch","payload":{"scale":1.5}}`)))

		req, err := dec.ReadRequest()
		require.NoError(t, err)
		assert.Equal(t, Unknown{Type: "gesture_pinch"}, req)
	})

	t.Run("oversized length prefix is a framing error", func(t *testing.T) {
		dec := NewDecoder(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF}))

		_, err := dec.ReadRequest()
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})

	t.Run("zero length prefix is a framing error", func(t *testing.T) {
		dec := NewDecoder(bytes.NewReader([]byte{0, 0, 0, 0}))

		_, err := dec.ReadRequest()
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})

	t.Run("malformed JSON is a protocol error", func(t *testing.T) {
		dec := NewDecoder(bytes.NewReader(frame(t, `{"type":`)))

		_, err := dec.ReadRequest()
		assert.Error(t, err)
	})

	t.Run("malformed payload for a known type is a protocol error", func(t *testing.T) {
		dec := NewDecoder(bytes.NewReader(frame(t,
			`{"type":"keyboard_key","payload":{"key":"not-a-number"}}`)))

		_, err := dec.ReadRequest()
		assert.Error(t, err)
	})
}

func TestEncoderDecoder_Stream(t *testing.T) {
	// Several frames back to back on one stream arrive in order.
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.WriteMessage("pointer_motion", PointerMotion{DX: 5, DY: 0}))
	require.NoError(t, enc.WriteMessage("scroll_delta", ScrollDelta{DX: 0, DY: -3}))
	require.NoError(t, enc.WriteMessage("bind", Bind{Capabilities: 0xC}))

	dec := NewDecoder(&buf)

	req, err := dec.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, PointerMotion{DX: 5, DY: 0}, req)

	req, err = dec.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, ScrollDelta{DX: 0, DY: -3}, req)

	req, err = dec.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, Bind{Capabilities: 0xC}, req)
}

func TestEncoder_Announcements(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	require.NoError(t, enc.WriteSeatAnnounce("seat0", AllCapabilities))

	dec := NewDecoder(&buf)
	req, err := dec.ReadRequest()
	require.NoError(t, err)
	// Announcements are server-to-client; a server-side decoder sees them
	// as unknown, which is exactly the forward-compatible behavior.
	assert.Equal(t, Unknown{Type: "seat"}, req)
}
