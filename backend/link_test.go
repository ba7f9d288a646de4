package backend

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jacobsa/go-serial/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"git.sr.ht/~whereswaldon/rsip-scope/rsip"
)

func statusRecorder(bus *Bus) *[]Status {
	var seen []Status
	bus.BindStatus(func(ev StatusEvent) error {
		seen = append(seen, ev.Status)
		return nil
	})
	return &seen
}

func receive(t *testing.T, in <-chan Input) Input {
	t.Helper()
	select {
	case got := <-in:
		return got
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for link input")
		return Input{}
	}
}

func TestFileLinkReplaysCapture(t *testing.T) {
	first := message(t, 0, rsip.Frame{ElapsedMS: 1000, Value: 20})
	second := message(t, 2, rsip.Frame{ElapsedMS: 1000, Value: 101})
	path := filepath.Join(t.TempDir(), "capture.rsip")
	require.NoError(t, os.WriteFile(path, append(bytes.Clone(first), second...), 0o644))

	bus := NewBus(zaptest.NewLogger(t))
	seen := statusRecorder(bus)
	out := make(chan Input)
	link := NewFileLink(path, false, bus, out, zaptest.NewLogger(t))

	assert.False(t, link.Open(), "a link must be attached before it opens")
	require.NoError(t, link.Attach())
	require.True(t, link.Open())
	assert.True(t, link.Connected())

	assert.Equal(t, first, receive(t, out).Chunk)
	assert.Equal(t, second, receive(t, out).Chunk)
	assert.ErrorIs(t, receive(t, out).Err, io.EOF)

	require.NoError(t, link.Close())
	assert.False(t, link.Connected())
	assert.Equal(t, []Status{StatusAttached, StatusConnected, StatusDisconnected}, *seen)
}

func TestFileLinkFollowsGrowingCapture(t *testing.T) {
	first := message(t, 0, rsip.Frame{ElapsedMS: 1000, Value: 20})
	second := message(t, 0, rsip.Frame{ElapsedMS: 2000, Value: 21})
	path := filepath.Join(t.TempDir(), "capture.rsip")
	require.NoError(t, os.WriteFile(path, first, 0o644))

	out := make(chan Input)
	link := NewFileLink(path, true, NewBus(nil), out, zaptest.NewLogger(t))
	require.NoError(t, link.Attach())
	require.True(t, link.Open())
	defer link.Close()

	assert.Equal(t, first, receive(t, out).Chunk)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	// Split the append so the reader sees a partial message first.
	_, err = f.Write(second[:5])
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	_, err = f.Write(second[5:])
	require.NoError(t, err)
	require.NoError(t, f.Close())

	assert.Equal(t, second, receive(t, out).Chunk)
}

func TestFileLinkMissingCapture(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))
	seen := statusRecorder(bus)
	link := NewFileLink(filepath.Join(t.TempDir(), "missing"), false, bus, make(chan Input), nil)

	assert.ErrorIs(t, link.Attach(), os.ErrNotExist)
	assert.False(t, link.Open())
	assert.Equal(t, []Status{StatusScanning}, *seen)
	assert.NoError(t, link.Close())
}

func TestReaderLinkReplaysOnce(t *testing.T) {
	msg := message(t, 1, rsip.Frame{SeriesID: 2, ElapsedMS: 500, Value: 3})
	bus := NewBus(zaptest.NewLogger(t))
	seen := statusRecorder(bus)
	out := make(chan Input)
	link := NewReaderLink("picked.rsip", io.NopCloser(bytes.NewReader(msg)), bus, out, zaptest.NewLogger(t))

	require.NoError(t, link.Attach())
	require.True(t, link.Open())
	assert.Equal(t, msg, receive(t, out).Chunk)
	assert.ErrorIs(t, receive(t, out).Err, io.EOF)
	require.NoError(t, link.Close())

	assert.False(t, link.Open())
	assert.Equal(t, []Status{StatusAttached, StatusConnected, StatusDisconnected, StatusError}, *seen)
}

// fakePort stands in for a serial port. Reads block until the test writes.
type fakePort struct {
	*io.PipeReader
}

func (fakePort) Write(p []byte) (int, error) { return len(p), nil }

func newSerialTestLink(t *testing.T, bus *Bus, out chan<- Input) (*SerialLink, *io.PipeWriter) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ttyACM0")
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	pr, pw := io.Pipe()
	link := NewSerialLink(path, 9600, bus, out, zaptest.NewLogger(t))
	link.openPort = func(opts serial.OpenOptions) (io.ReadWriteCloser, error) {
		assert.Equal(t, uint(9600), opts.BaudRate)
		assert.Equal(t, uint(8), opts.DataBits)
		return fakePort{pr}, nil
	}
	return link, pw
}

func TestSerialLinkStreamsMessages(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))
	seen := statusRecorder(bus)
	out := make(chan Input)
	link, pw := newSerialTestLink(t, bus, out)

	require.NoError(t, link.Attach())
	require.True(t, link.Open())
	assert.True(t, link.Open(), "opening an open link is a no-op")

	msg := message(t, 0, rsip.Frame{ElapsedMS: 1000, Value: 25})
	go func() {
		// Byte-at-a-time delivery, the way a slow UART hands data over.
		for i := range msg {
			if _, err := pw.Write(msg[i : i+1]); err != nil {
				return
			}
		}
	}()
	assert.Equal(t, msg, receive(t, out).Chunk)

	require.NoError(t, link.Close())
	assert.False(t, link.Connected())
	assert.Equal(t, []Status{StatusAttached, StatusConnected, StatusDisconnected}, *seen)
}

func TestSerialLinkOpenFailure(t *testing.T) {
	bus := NewBus(zaptest.NewLogger(t))
	var events []StatusEvent
	bus.BindStatus(func(ev StatusEvent) error {
		events = append(events, ev)
		return nil
	})
	link, _ := newSerialTestLink(t, bus, make(chan Input))
	link.openPort = func(serial.OpenOptions) (io.ReadWriteCloser, error) {
		return nil, errors.New("permission denied")
	}

	require.NoError(t, link.Attach())
	assert.False(t, link.Open())
	assert.False(t, link.Connected())
	require.Len(t, events, 2)
	assert.Equal(t, StatusError, events[1].Status)
	assert.ErrorContains(t, events[1].Err, "permission denied")
}

func TestSerialLinkReportsReadErrors(t *testing.T) {
	out := make(chan Input)
	link, pw := newSerialTestLink(t, NewBus(nil), out)
	require.NoError(t, link.Attach())
	require.True(t, link.Open())
	defer link.Close()

	unplugged := errors.New("device unplugged")
	pw.CloseWithError(unplugged)
	assert.ErrorIs(t, receive(t, out).Err, unplugged)
}
