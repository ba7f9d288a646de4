package backend

import (
	"errors"
	"io"
	"time"

	"go.uber.org/zap"
)

// stopTimeout bounds how long Close waits for a reader goroutine. Some
// serial drivers do not interrupt a blocked read when the port is closed.
const stopTimeout = time.Second

// Input is one delivery from a link: either a complete message (preamble
// included) or the error that ended the link's stream. io.EOF means the
// source ran out of data.
type Input struct {
	// Link is the link that produced the input.
	Link  Link
	Chunk []byte
	Err   error
}

// Link is a byte source for RSIP messages. Links deliver Input values on the
// channel they were created with, from their own goroutine; every method must
// be called from the goroutine that drains that channel.
type Link interface {
	// Attach locates the device without transferring data.
	Attach() error
	// Open starts data transfer. It reports false when the link is not
	// attached or the device cannot be opened.
	Open() bool
	Close() error
	Connected() bool
}

// pump reads messages from r and delivers them on out, tagged with src,
// until r fails or quit is closed. When r reports io.EOF and wait is non-nil, pump blocks in wait
// and resumes reading if it returns true.
func pump(src Link, r io.Reader, out chan<- Input, quit <-chan struct{}, wait func() bool) {
	fr := NewFrameReader(r)
	for {
		msg, err := fr.Next()
		if err == nil {
			if !deliver(out, quit, Input{Link: src, Chunk: msg}) {
				return
			}
			continue
		}
		if errors.Is(err, io.EOF) && wait != nil && wait() {
			continue
		}
		select {
		case <-quit:
			// Errors caused by Close are not worth reporting.
		default:
			deliver(out, quit, Input{Link: src, Err: err})
		}
		return
	}
}

func deliver(out chan<- Input, quit <-chan struct{}, in Input) bool {
	select {
	case <-quit:
		return false
	default:
	}
	select {
	case out <- in:
		return true
	case <-quit:
		return false
	}
}

func awaitStop(done <-chan struct{}, logger *zap.Logger) {
	select {
	case <-done:
	case <-time.After(stopTimeout):
		logger.Warn("link reader did not stop in time", zap.Duration("timeout", stopTimeout))
	}
}
