package packet

import (
	"encoding/binary"
	"math"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Writer builds an outbound message body. All multi-byte writes are
// little-endian. The opcode and length prefix are added by the session.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 64)}
}

// WriteU8 writes 1 byte.
func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8(1)
		return
	}
	w.WriteU8(0)
}

// WriteU16 writes 2 bytes little-endian.
func (w *Writer) WriteU16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

// WriteU32 writes 4 bytes little-endian.
func (w *Writer) WriteU32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

// WriteF32 writes an IEEE-754 float as 4 bytes little-endian.
func (w *Writer) WriteF32(v float32) {
	w.WriteU32(math.Float32bits(v))
}

// WriteString writes s as a fixed-width Windows-1252 field of n bytes,
// truncating or zero-padding as needed.
func (w *Writer) WriteString(s string, n int) {
	encoded := encodeCP1252(s)
	if len(encoded) > n {
		encoded = encoded[:n]
	}
	w.buf = append(w.buf, encoded...)
	for i := len(encoded); i < n; i++ {
		w.buf = append(w.buf, 0)
	}
}

// WriteText writes a u8 length prefix followed by s in Windows-1252,
// truncated to 255 bytes.
func (w *Writer) WriteText(s string) {
	encoded := encodeCP1252(s)
	if len(encoded) > math.MaxUint8 {
		encoded = encoded[:math.MaxUint8]
	}
	w.WriteU8(uint8(len(encoded)))
	w.buf = append(w.buf, encoded...)
}

// WriteBytes writes raw bytes.
func (w *Writer) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

var cp1252Encoder = encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())

func encodeCP1252(s string) []byte {
	if isASCII(s) {
		return []byte(s)
	}
	encoded, err := cp1252Encoder.Bytes([]byte(s))
	if err != nil {
		return []byte(s)
	}
	return encoded
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}
