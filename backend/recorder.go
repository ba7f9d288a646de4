package backend

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

func generateSessionID() string {
	return strings.Replace(time.Now().UTC().Format("20060102150405.000000000"), ".", "", 1)
}

func captureFileFor(sessionID string) string {
	return "rsip-scope-" + sessionID + ".rsip"
}

// Recorder appends raw messages to a capture file that a FileLink can
// replay later.
type Recorder struct {
	Path string

	file *os.File
	w    *bufio.Writer
}

func NewRecorder(dir string) (*Recorder, error) {
	path := filepath.Join(dir, captureFileFor(generateSessionID()))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed creating capture: %w", err)
	}
	return &Recorder{
		Path: path,
		file: file,
		w:    bufio.NewWriter(file),
	}, nil
}

// Write appends one message. Messages are flushed as they arrive so that a
// capture being followed elsewhere stays current.
func (r *Recorder) Write(msg []byte) error {
	if _, err := r.w.Write(msg); err != nil {
		return fmt.Errorf("failed writing capture %q: %w", r.Path, err)
	}
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("failed writing capture %q: %w", r.Path, err)
	}
	return nil
}

func (r *Recorder) Close() error {
	err := r.w.Flush()
	return errors.Join(err, r.file.Close())
}
