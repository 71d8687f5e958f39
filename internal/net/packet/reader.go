package packet

import (
	"bytes"
	"encoding/binary"
	"math"

	"golang.org/x/text/encoding/charmap"
)

// Reader reads fields from an inbound message body (the bytes after the
// opcode). Reads past the end return zero values and mark the reader short.
type Reader struct {
	data  []byte
	off   int
	short bool
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// ReadU8 reads 1 unsigned byte.
func (r *Reader) ReadU8() uint8 {
	if r.off >= len(r.data) {
		r.short = true
		return 0
	}
	v := r.data[r.off]
	r.off++
	return v
}

func (r *Reader) ReadBool() bool {
	return r.ReadU8() != 0
}

// ReadU16 reads 2 bytes little-endian.
func (r *Reader) ReadU16() uint16 {
	if r.off+2 > len(r.data) {
		r.short = true
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint16(r.data[r.off:])
	r.off += 2
	return v
}

// ReadU32 reads 4 bytes little-endian.
func (r *Reader) ReadU32() uint32 {
	if r.off+4 > len(r.data) {
		r.short = true
		r.off = len(r.data)
		return 0
	}
	v := binary.LittleEndian.Uint32(r.data[r.off:])
	r.off += 4
	return v
}

func (r *Reader) ReadF32() float32 {
	return math.Float32frombits(r.ReadU32())
}

// ReadString reads a fixed-width Windows-1252 field of n bytes, stopping
// at the first NUL.
func (r *Reader) ReadString(n int) string {
	raw := r.ReadBytes(n)
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return decodeCP1252(raw)
}

// ReadText reads a u8 length-prefixed Windows-1252 string.
func (r *Reader) ReadText() string {
	n := int(r.ReadU8())
	return decodeCP1252(r.ReadBytes(n))
}

// ReadBytes reads n raw bytes.
func (r *Reader) ReadBytes(n int) []byte {
	if r.off+n > len(r.data) {
		r.short = true
		remaining := r.data[r.off:]
		r.off = len(r.data)
		return remaining
	}
	b := make([]byte, n)
	copy(b, r.data[r.off:r.off+n])
	r.off += n
	return b
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.off
}

// Short reports whether any read ran past the end of the body.
func (r *Reader) Short() bool {
	return r.short
}

func decodeCP1252(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	ascii := true
	for _, b := range raw {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return string(raw)
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}
