package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriterReaderFields(t *testing.T) {
	w := NewWriter()
	w.WriteU8(7)
	w.WriteU16(0xBEEF)
	w.WriteU32(123456)
	w.WriteF32(1023.5)
	w.WriteBool(true)
	w.WriteString("Aria", NameLength)
	w.WriteText("hello")

	assert.Equal(t, 1+2+4+4+1+NameLength+1+5, w.Len())

	r := NewReader(w.Bytes())
	assert.Equal(t, uint8(7), r.ReadU8())
	assert.Equal(t, uint16(0xBEEF), r.ReadU16())
	assert.Equal(t, uint32(123456), r.ReadU32())
	assert.Equal(t, float32(1023.5), r.ReadF32())
	assert.True(t, r.ReadBool())
	assert.Equal(t, "Aria", r.ReadString(NameLength))
	assert.Equal(t, "hello", r.ReadText())
	assert.Zero(t, r.Remaining())
	assert.False(t, r.Short())
}

func TestFixedStringTruncates(t *testing.T) {
	w := NewWriter()
	w.WriteString("abcdefgh", 4)
	assert.Equal(t, []byte("abcd"), w.Bytes())
}

func TestStringsUseWindows1252(t *testing.T) {
	w := NewWriter()
	w.WriteText("café")
	// é is a single byte (0xE9) in Windows-1252
	assert.Equal(t, []byte{4, 'c', 'a', 'f', 0xE9}, w.Bytes())

	r := NewReader(w.Bytes())
	assert.Equal(t, "café", r.ReadText())
}

func TestShortReadsAreFlagged(t *testing.T) {
	r := NewReader([]byte{1, 2})
	assert.Equal(t, uint32(0), r.ReadU32())
	assert.True(t, r.Short())
}

func TestMarshalPrefixesOpcode(t *testing.T) {
	b := Marshal(EntityDisappear{Kind: 3, ID: 0x01020304})
	assert.Equal(t, []byte{0x03, 0x02, 3, 0x04, 0x03, 0x02, 0x01}, b)
}

func TestRegistryDispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	var got uint32
	reg.Register(C_HANDSHAKE, []SessionState{StateConnected}, func(_ any, r *Reader) {
		got = r.ReadU32()
	})

	body := []byte{0x2A, 0, 0, 0}
	require.NoError(t, reg.Dispatch(nil, StateConnected, C_HANDSHAKE, body))
	assert.Equal(t, uint32(42), got)

	err := reg.Dispatch(nil, StateInWorld, C_HANDSHAKE, body)
	assert.ErrorIs(t, err, ErrStateNotAllowed)

	// unknown opcodes are ignored
	assert.NoError(t, reg.Dispatch(nil, StateInWorld, 0xFFFF, nil))
}

func TestRegistryRecoversHandlerPanic(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(C_CHAT, []SessionState{StateInWorld}, func(any, *Reader) {
		panic("boom")
	})
	err := reg.Dispatch(nil, StateInWorld, C_CHAT, nil)
	assert.ErrorIs(t, err, ErrHandlerPanic)
}
