package backend

import (
	"bytes"
	"io"

	"git.sr.ht/~whereswaldon/rsip-scope/rsip"
)

// FrameReader is a specialized reader that yields only entire RSIP messages.
// Partial messages are buffered until the rest arrives, which makes it safe
// to use on a capture file that is still being written to.
type FrameReader struct {
	r       io.Reader
	buf     []byte
	err     error
	scratch [512]byte
}

func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: r}
}

// Next returns the next complete message, preamble included. The returned
// slice is owned by the caller. When the underlying reader reports an error
// (io.EOF included) before a message is complete, Next returns it and keeps
// the partial message, so calling Next again after more data is available
// resumes where it left off.
func (f *FrameReader) Next() ([]byte, error) {
	for {
		msg, rest, ok := rsip.Split(f.buf)
		if ok {
			out := bytes.Clone(msg)
			f.buf = append(f.buf[:0], rest...)
			return out, nil
		}
		f.buf = append(f.buf[:0], rest...)
		if f.err != nil {
			err := f.err
			f.err = nil
			return nil, err
		}
		n, err := f.r.Read(f.scratch[:])
		f.buf = append(f.buf, f.scratch[:n]...)
		f.err = err
	}
}
