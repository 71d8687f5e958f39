package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const frameHeaderSize = 4 // u16 length + u16 opcode

// ErrProtocolViolation marks frames that cannot be valid. The session that
// produced one is closed.
var ErrProtocolViolation = errors.New("protocol violation")

// ReadFrame reads one frame from r.
// Wire format: [2 bytes LE: total length including itself][2 bytes LE: opcode][body].
// A clean EOF before the first byte is returned as io.EOF. A frame whose
// declared length is out of range, or whose bytes stop arriving, is an
// ErrProtocolViolation.
func ReadFrame(r io.Reader, maxSize int) (uint16, []byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, nil, fmt.Errorf("%w: truncated frame header", ErrProtocolViolation)
		}
		return 0, nil, fmt.Errorf("read frame header: %w", err)
	}

	totalLen := int(binary.LittleEndian.Uint16(header[:]))
	if totalLen < frameHeaderSize || totalLen > maxSize {
		return 0, nil, fmt.Errorf("%w: invalid frame length %d", ErrProtocolViolation, totalLen)
	}

	payload := make([]byte, totalLen-2)
	if n, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("%w: frame declared %d bytes, got %d: %v",
			ErrProtocolViolation, totalLen, n+2, err)
	}
	return binary.LittleEndian.Uint16(payload[:2]), payload[2:], nil
}

// EncodeFrame prefixes payload (opcode followed by body) with its length.
// size is the number of payload bytes to keep; it is clamped to
// [2, len(payload)].
func EncodeFrame(payload []byte, size int) []byte {
	if size > len(payload) {
		size = len(payload)
	}
	if size < 2 {
		size = 2
	}
	frame := make([]byte, size+2)
	binary.LittleEndian.PutUint16(frame[:2], uint16(size+2))
	copy(frame[2:], payload[:size])
	return frame
}

// WriteFrame writes payload as one frame to w.
func WriteFrame(w io.Writer, payload []byte) error {
	if _, err := w.Write(EncodeFrame(payload, len(payload))); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
