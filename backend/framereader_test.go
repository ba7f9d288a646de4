package backend

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"git.sr.ht/~whereswaldon/rsip-scope/rsip"
)

func message(t *testing.T, datasetID uint8, frames ...rsip.Frame) []byte {
	t.Helper()
	msg, err := rsip.AppendMessage(nil, datasetID, frames)
	if err != nil {
		t.Fatalf("failed encoding message: %v", err)
	}
	return msg
}

func expectMessage(t *testing.T, fr *FrameReader, expected []byte) {
	t.Helper()
	msg, err := fr.Next()
	if err != nil {
		t.Errorf("expected a message, got: %v", err)
	} else if !bytes.Equal(msg, expected) {
		t.Errorf("expected message %q, got: %q", expected, msg)
	}
}

func expectEOF(t *testing.T, fr *FrameReader) {
	t.Helper()
	msg, err := fr.Next()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got: %v", err)
	} else if msg != nil {
		t.Errorf("expected no message, got %q", msg)
	}
}

func TestFrameReader(t *testing.T) {
	buf := bytes.NewBuffer(nil)
	first := message(t, 0, rsip.Frame{SeriesID: 0, ElapsedMS: 1000, Value: 21.5})
	second := message(t, 1,
		rsip.Frame{SeriesID: 0, ElapsedMS: 1000, Value: 1},
		rsip.Frame{SeriesID: 1, ElapsedMS: 1000, Value: 2},
	)
	buf.Write(first)
	buf.Write(second)
	fr := NewFrameReader(buf)
	expectMessage(t, fr, first)
	expectMessage(t, fr, second)
	expectEOF(t, fr)

	third := message(t, 2, rsip.Frame{SeriesID: 0, ElapsedMS: 2000, Value: 101.3})
	buf.Write(third[:4])
	expectEOF(t, fr)
	buf.Write(third[4:12])
	expectEOF(t, fr)
	buf.Write(third[12:])
	expectMessage(t, fr, third)

	buf.WriteString("line noise")
	buf.Write(first)
	expectMessage(t, fr, first)
	expectEOF(t, fr)
}

func TestFrameReaderReturnsOwnedSlices(t *testing.T) {
	first := message(t, 0, rsip.Frame{ElapsedMS: 1000, Value: 1})
	second := message(t, 0, rsip.Frame{ElapsedMS: 2000, Value: 2})
	fr := NewFrameReader(bytes.NewReader(append(bytes.Clone(first), second...)))
	a, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	b, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, first) || !bytes.Equal(b, second) {
		t.Errorf("messages were overwritten: %q %q", a, b)
	}
}

type failingReader struct{ err error }

func (f failingReader) Read([]byte) (int, error) { return 0, f.err }

func TestFrameReaderPassesErrors(t *testing.T) {
	boom := errors.New("boom")
	fr := NewFrameReader(failingReader{err: boom})
	if _, err := fr.Next(); !errors.Is(err, boom) {
		t.Errorf("expected %v, got %v", boom, err)
	}
}
