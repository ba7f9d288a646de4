package rsip

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Preamble marks the start of every message on the wire.
const Preamble = "RSIP>>"

var ErrMissingPreamble = fmt.Errorf("%w: missing %q preamble", ErrMalformedFrame, Preamble)

// StripPreamble validates and removes the preamble from a received chunk.
func StripPreamble(chunk []byte) ([]byte, error) {
	if !bytes.HasPrefix(chunk, []byte(Preamble)) {
		return nil, ErrMissingPreamble
	}
	return chunk[len(Preamble):], nil
}

// MessageLen reports the total length (preamble included) of the message
// starting at msg[0]. It returns false when msg does not yet contain the full
// header.
func MessageLen(msg []byte) (int, bool) {
	headerEnd := len(Preamble) + HeaderSize
	if len(msg) < headerEnd {
		return 0, false
	}
	count := int(msg[len(Preamble)+2])
	size := int(msg[len(Preamble)+3])
	return headerEnd + count*size, true
}

// Split finds the next complete message in buf. Bytes before the first
// preamble are discarded. When no complete message is available, ok is
// false and rest holds the bytes worth keeping until more data arrives.
func Split(buf []byte) (msg, rest []byte, ok bool) {
	start := bytes.Index(buf, []byte(Preamble))
	if start < 0 {
		// Keep a possible partial preamble at the tail.
		keep := min(len(buf), len(Preamble)-1)
		return nil, buf[len(buf)-keep:], false
	}
	buf = buf[start:]
	total, ok := MessageLen(buf)
	if !ok || len(buf) < total {
		return nil, buf, false
	}
	return buf[:total], buf[total:], true
}

// Frame is one reading as it is laid out on the wire.
type Frame struct {
	SeriesID  int16
	ElapsedMS int32
	Value     float32
}

var errTooManyFrames = errors.New("rsip: a message holds at most 255 frames")

// reserved is sent as the first header byte. Decoders ignore it.
const reserved = 0

// AppendMessage appends a complete message, preamble included, to dst.
func AppendMessage(dst []byte, datasetID uint8, frames []Frame) ([]byte, error) {
	if len(frames) > 255 {
		return dst, errTooManyFrames
	}
	dst = append(dst, Preamble...)
	dst = append(dst, reserved, datasetID, byte(len(frames)), FrameSize)
	for _, f := range frames {
		dst = AppendFrame(dst, f)
	}
	return dst, nil
}

// AppendFrame appends the FrameSize byte encoding of f to dst.
func AppendFrame(dst []byte, f Frame) []byte {
	dst = binary.LittleEndian.AppendUint16(dst, uint16(f.SeriesID))
	dst = binary.LittleEndian.AppendUint32(dst, uint32(f.ElapsedMS))
	dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(f.Value))
	return dst
}
