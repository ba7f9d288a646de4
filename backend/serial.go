package backend

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/jacobsa/go-serial/serial"
	"go.uber.org/zap"
)

// SerialLink reads RSIP messages from a serial port at a configured path.
type SerialLink struct {
	options serial.OpenOptions
	bus     *Bus
	out     chan<- Input
	logger  *zap.Logger
	// openPort is serial.Open outside of tests.
	openPort func(serial.OpenOptions) (io.ReadWriteCloser, error)

	attached bool
	port     io.ReadWriteCloser
	quit     chan struct{}
	done     chan struct{}
}

var _ Link = (*SerialLink)(nil)

func NewSerialLink(path string, baud uint, bus *Bus, out chan<- Input, logger *zap.Logger) *SerialLink {
	return &SerialLink{
		options: serial.OpenOptions{
			PortName:        path,
			BaudRate:        baud,
			DataBits:        8,
			StopBits:        1,
			MinimumReadSize: 1,
		},
		bus:      bus,
		out:      out,
		logger:   orNop(logger),
		openPort: serial.Open,
	}
}

// Attach checks that the configured port exists. It publishes StatusScanning
// when it does not and StatusAttached when it does.
func (l *SerialLink) Attach() error {
	if runtime.GOOS != "windows" {
		if _, err := os.Stat(l.options.PortName); err != nil {
			l.attached = false
			_ = l.bus.PublishStatus(StatusEvent{Status: StatusScanning})
			return fmt.Errorf("serial port %q not present: %w", l.options.PortName, err)
		}
	}
	l.attached = true
	_ = l.bus.PublishStatus(StatusEvent{Status: StatusAttached})
	return nil
}

func (l *SerialLink) Open() bool {
	if !l.attached {
		return false
	}
	if l.port != nil {
		return true
	}
	l.logger.Debug("opening serial port", zap.Any("options", l.options))
	port, err := l.openPort(l.options)
	if err != nil {
		l.logger.Warn("failed opening serial port", zap.String("port", l.options.PortName), zap.Error(err))
		_ = l.bus.PublishStatus(StatusEvent{Status: StatusError, Err: fmt.Errorf("failed opening %q: %w", l.options.PortName, err)})
		return false
	}
	l.port = port
	l.quit = make(chan struct{})
	l.done = make(chan struct{})
	go func(quit, done chan struct{}) {
		defer close(done)
		pump(l, port, l.out, quit, nil)
	}(l.quit, l.done)
	_ = l.bus.PublishStatus(StatusEvent{Status: StatusConnected})
	return true
}

// Close stops data transfer. The link stays attached and may be opened again.
func (l *SerialLink) Close() error {
	if l.port == nil {
		return nil
	}
	close(l.quit)
	err := l.port.Close()
	awaitStop(l.done, l.logger)
	l.port = nil
	_ = l.bus.PublishStatus(StatusEvent{Status: StatusDisconnected})
	if err != nil {
		return fmt.Errorf("failed closing %q: %w", l.options.PortName, err)
	}
	return nil
}

func (l *SerialLink) Connected() bool {
	return l.port != nil
}
