package backend

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// FileLink replays RSIP messages from a capture file, stdin ("-") or an
// already opened reader. With Follow set it keeps waiting for data appended
// to the file, so a capture that is still being recorded plays live.
type FileLink struct {
	Path   string
	Follow bool

	bus    *Bus
	out    chan<- Input
	logger *zap.Logger
	// source, when set, is read instead of opening Path.
	source     io.ReadCloser
	fromReader bool

	attached bool
	file     io.ReadCloser
	watcher  *fsnotify.Watcher
	quit     chan struct{}
	done     chan struct{}
}

var _ Link = (*FileLink)(nil)

func NewFileLink(path string, follow bool, bus *Bus, out chan<- Input, logger *zap.Logger) *FileLink {
	return &FileLink{
		Path:   path,
		Follow: follow,
		bus:    bus,
		out:    out,
		logger: orNop(logger),
	}
}

// NewReaderLink wraps an open reader, such as a file chosen in a file
// dialog. name is only used in log messages. The link takes ownership of r.
func NewReaderLink(name string, r io.ReadCloser, bus *Bus, out chan<- Input, logger *zap.Logger) *FileLink {
	l := NewFileLink(name, false, bus, out, logger)
	l.source = r
	l.fromReader = true
	return l
}

func (l *FileLink) Attach() error {
	if !l.fromReader && l.Path != "-" {
		if _, err := os.Stat(l.Path); err != nil {
			l.attached = false
			_ = l.bus.PublishStatus(StatusEvent{Status: StatusScanning})
			return fmt.Errorf("capture %q not present: %w", l.Path, err)
		}
	}
	l.attached = true
	_ = l.bus.PublishStatus(StatusEvent{Status: StatusAttached})
	return nil
}

func (l *FileLink) Open() bool {
	if !l.attached {
		return false
	}
	if l.file != nil {
		return true
	}
	file, err := l.openSource()
	if err != nil {
		l.logger.Warn("failed opening capture", zap.String("path", l.Path), zap.Error(err))
		_ = l.bus.PublishStatus(StatusEvent{Status: StatusError, Err: err})
		return false
	}
	var wait func() bool
	if l.Follow && !l.fromReader && l.Path != "-" {
		watcher, err := fsnotify.NewWatcher()
		if err == nil {
			err = watcher.Add(l.Path)
		}
		if err != nil {
			if watcher != nil {
				watcher.Close()
			}
			file.Close()
			err = fmt.Errorf("failed watching %q: %w", l.Path, err)
			l.logger.Warn("failed following capture", zap.Error(err))
			_ = l.bus.PublishStatus(StatusEvent{Status: StatusError, Err: err})
			return false
		}
		l.watcher = watcher
	}
	l.file = file
	l.quit = make(chan struct{})
	l.done = make(chan struct{})
	if l.watcher != nil {
		watcher, quit := l.watcher, l.quit
		wait = func() bool {
			return l.waitForWrite(watcher, quit)
		}
	}
	go func(quit, done chan struct{}) {
		defer close(done)
		pump(l, file, l.out, quit, wait)
	}(l.quit, l.done)
	_ = l.bus.PublishStatus(StatusEvent{Status: StatusConnected})
	return true
}

func (l *FileLink) openSource() (io.ReadCloser, error) {
	switch {
	case l.fromReader:
		if l.source == nil {
			return nil, fmt.Errorf("capture %q was already replayed", l.Path)
		}
		src := l.source
		l.source = nil
		return src, nil
	case l.Path == "-":
		return os.Stdin, nil
	default:
		f, err := os.Open(l.Path)
		if err != nil {
			return nil, fmt.Errorf("failed opening capture %q: %w", l.Path, err)
		}
		return f, nil
	}
}

func (l *FileLink) waitForWrite(watcher *fsnotify.Watcher, quit <-chan struct{}) bool {
	for {
		select {
		case <-quit:
			return false
		case ev, ok := <-watcher.Events:
			if !ok {
				return false
			}
			if ev.Has(fsnotify.Write) {
				return true
			}
			if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				return false
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return false
			}
			l.logger.Warn("capture watcher error", zap.String("path", l.Path), zap.Error(err))
		}
	}
}

// Close stops the replay. Closing a link opened from a reader releases the
// reader; such a link cannot be opened again.
func (l *FileLink) Close() error {
	if l.file == nil {
		return nil
	}
	close(l.quit)
	err := l.file.Close()
	if l.watcher != nil {
		err = errors.Join(err, l.watcher.Close())
		l.watcher = nil
	}
	awaitStop(l.done, l.logger)
	l.file = nil
	_ = l.bus.PublishStatus(StatusEvent{Status: StatusDisconnected})
	if err != nil {
		return fmt.Errorf("failed closing capture %q: %w", l.Path, err)
	}
	return nil
}

func (l *FileLink) Connected() bool {
	return l.file != nil
}
