// Package rsip implements the reactor serial interface protocol: a 6-byte
// preamble followed by a small header and a run of fixed-size frames, each
// frame carrying one (series id, elapsed time, value) reading.
package rsip

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"git.sr.ht/~whereswaldon/rsip-scope/telemetry"
)

const (
	// HeaderSize is the number of bytes between the preamble and the first
	// frame: a reserved byte, then dataset id, frame count and frame size.
	HeaderSize = 4
	// FrameSize is the number of bytes a frame needs to hold its fields.
	// Devices may send larger frames; trailing bytes are ignored.
	FrameSize = 10
)

var (
	ErrInvalidFrameSize = errors.New("rsip: invalid frame size")
	ErrTruncatedStream  = errors.New("rsip: truncated stream")
	ErrMalformedFrame   = errors.New("rsip: malformed frame")
)

// DecodeError describes why a payload could not be decoded. Err is one of
// ErrInvalidFrameSize, ErrTruncatedStream or ErrMalformedFrame.
type DecodeError struct {
	// Frame is the index of the offending frame, or -1 for header problems.
	Frame  int
	Detail string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Frame < 0 {
		return fmt.Sprintf("%v: %s", e.Err, e.Detail)
	}
	return fmt.Sprintf("%v: frame %d: %s", e.Err, e.Frame, e.Detail)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses a payload (the bytes following the preamble) into a
// Dataset. Series are grouped by id in first-seen order. Names and units
// are left empty for the caller to resolve. Decoding is all-or-nothing:
// on error the returned Dataset is always the zero value.
func Decode(payload []byte) (telemetry.Dataset, error) {
	if len(payload) < HeaderSize {
		return telemetry.Dataset{}, &DecodeError{
			Frame:  -1,
			Detail: fmt.Sprintf("payload of %d bytes is shorter than the header", len(payload)),
			Err:    ErrMalformedFrame,
		}
	}
	datasetID := int(payload[1])
	count := int(payload[2])
	size := int(payload[3])
	if size == 0 {
		return telemetry.Dataset{}, &DecodeError{
			Frame:  -1,
			Detail: "frame size is zero",
			Err:    ErrInvalidFrameSize,
		}
	}
	body := payload[HeaderSize:]
	if need := count * size; len(body) < need {
		return telemetry.Dataset{}, &DecodeError{
			Frame:  len(body) / size,
			Detail: fmt.Sprintf("declared %d frames of %d bytes, have %d bytes", count, size, len(body)),
			Err:    ErrTruncatedStream,
		}
	}
	if count > 0 && size < FrameSize {
		return telemetry.Dataset{}, &DecodeError{
			Frame:  0,
			Detail: fmt.Sprintf("frame size %d cannot hold a %d byte reading", size, FrameSize),
			Err:    ErrMalformedFrame,
		}
	}

	ds := telemetry.Dataset{ID: datasetID}
	for i := 0; i < count; i++ {
		frame := body[i*size : (i+1)*size]
		seriesID, point := decodeFrame(frame)
		ds.Insert(seriesID, point)
	}
	return ds, nil
}

// decodeFrame reads a frame that is known to be at least FrameSize bytes.
func decodeFrame(frame []byte) (int, telemetry.Datapoint) {
	seriesID := int16(binary.LittleEndian.Uint16(frame[0:2]))
	elapsedMS := int32(binary.LittleEndian.Uint32(frame[2:6]))
	value := math.Float32frombits(binary.LittleEndian.Uint32(frame[6:10]))
	return int(seriesID), telemetry.Datapoint{
		Time:  float64(elapsedMS) / 1000,
		Value: float64(value),
	}
}
