package backend

import (
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Bundle wires links to the receiver and the event bus. Links send on
// Inputs from their own goroutines; every Bundle method, and every Link
// method, must be called from the single goroutine that drains Inputs.
type Bundle struct {
	Bus      *Bus
	Names    *Names
	Receiver *Receiver
	Inputs   chan Input

	logger   *zap.Logger
	link     Link
	recorder *Recorder
}

func NewBundle(cfg Config, logger *zap.Logger) *Bundle {
	logger = orNop(logger)
	bus := NewBus(logger.Named("bus"))
	names := NewNames(cfg.Datasets)
	return &Bundle{
		Bus:      bus,
		Names:    names,
		Receiver: NewReceiver(bus, names, logger.Named("receiver")),
		Inputs:   make(chan Input, 64),
		logger:   logger,
	}
}

// LinkFor builds the link described by cfg: a serial link when a port is
// configured, otherwise a capture replay. It returns nil when cfg names
// neither.
func (b *Bundle) LinkFor(cfg LinkConfig) Link {
	switch {
	case cfg.Port != "":
		return NewSerialLink(cfg.Port, cfg.Baud, b.Bus, b.Inputs, b.logger.Named("serial"))
	case cfg.Capture != "":
		return NewFileLink(cfg.Capture, cfg.Follow, b.Bus, b.Inputs, b.logger.Named("capture"))
	default:
		return nil
	}
}

// ReaderLink builds a link replaying r once.
func (b *Bundle) ReaderLink(name string, r io.ReadCloser) Link {
	return NewReaderLink(name, r, b.Bus, b.Inputs, b.logger.Named("capture"))
}

// Link returns the link in use, or nil.
func (b *Bundle) Link() Link {
	return b.link
}

// Use closes the current link and attaches l in its place. The new link
// is left closed; call Connect to start receiving.
func (b *Bundle) Use(l Link) error {
	var err error
	if b.link != nil {
		err = b.link.Close()
	}
	b.link = l
	if l == nil {
		return err
	}
	return errors.Join(err, l.Attach())
}

// Connect opens the current link, re-attaching it first in case the device
// appeared since the last attempt.
func (b *Bundle) Connect() bool {
	if b.link == nil {
		return false
	}
	if b.link.Open() {
		return true
	}
	if err := b.link.Attach(); err != nil {
		b.logger.Info("device not present", zap.Error(err))
		return false
	}
	return b.link.Open()
}

func (b *Bundle) Disconnect() error {
	if b.link == nil {
		return nil
	}
	return b.link.Close()
}

// Record starts copying every received message to a new capture file in
// dir. It replaces any recording in progress.
func (b *Bundle) Record(dir string) (string, error) {
	if err := b.StopRecording(); err != nil {
		b.logger.Warn("failed finishing previous recording", zap.Error(err))
	}
	rec, err := NewRecorder(dir)
	if err != nil {
		return "", err
	}
	b.recorder = rec
	b.logger.Info("recording capture", zap.String("path", rec.Path))
	return rec.Path, nil
}

func (b *Bundle) StopRecording() error {
	if b.recorder == nil {
		return nil
	}
	err := b.recorder.Close()
	b.recorder = nil
	return err
}

// Handle processes one Input from a link. A link whose stream ended is
// closed; io.EOF is the normal end of a replay and is not reported as an
// error. Inputs still queued from a link that has since been replaced are
// dropped.
func (b *Bundle) Handle(in Input) {
	if in.Link != b.link {
		b.logger.Debug("dropping input from a replaced link", zap.Bool("error", in.Err != nil))
		return
	}
	if in.Err != nil {
		if errors.Is(in.Err, io.EOF) {
			b.logger.Info("link reached end of data")
		} else {
			b.logger.Warn("link failed", zap.Error(in.Err))
			_ = b.Bus.PublishStatus(StatusEvent{Status: StatusError, Err: fmt.Errorf("link failed: %w", in.Err)})
		}
		if err := b.Disconnect(); err != nil {
			b.logger.Warn("failed closing link", zap.Error(err))
		}
		return
	}
	if b.recorder != nil {
		if err := b.recorder.Write(in.Chunk); err != nil {
			b.logger.Warn("stopping recording", zap.Error(err))
			_ = b.Bus.PublishStatus(StatusEvent{Status: StatusError, Err: err})
			_ = b.StopRecording()
		}
	}
	_ = b.Receiver.Receive(in.Chunk)
}

// Close releases the link and any recording.
func (b *Bundle) Close() error {
	return errors.Join(b.Disconnect(), b.StopRecording())
}
