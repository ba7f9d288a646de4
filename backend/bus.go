package backend

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"git.sr.ht/~whereswaldon/rsip-scope/telemetry"
)

// Status is the state of the device link.
type Status uint8

const (
	StatusScanning Status = iota
	StatusAttached
	StatusConnected
	StatusDisconnected
	// StatusError carries a link or decode failure for display; it does not
	// change the link state.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusScanning:
		return "scanning"
	case StatusAttached:
		return "attached"
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

type StatusEvent struct {
	Status Status
	Err    error
}

func (e StatusEvent) String() string {
	if e.Err != nil {
		return e.Status.String() + ": " + e.Err.Error()
	}
	return e.Status.String()
}

type (
	// StatusBinding is invoked for every published StatusEvent.
	StatusBinding func(StatusEvent) error
	// DataBinding is invoked for every published, name-resolved Dataset.
	DataBinding func(telemetry.Dataset) error
)

// ErrReentrantPublish is returned when a binding publishes the same kind of
// event that is currently being dispatched.
var ErrReentrantPublish = errors.New("nested publish of the event kind being dispatched")

// Bus dispatches status and data events to their bindings synchronously, in
// binding order. A failing binding is logged and does not stop the bindings
// after it. Bus is not safe for concurrent use.
type Bus struct {
	logger        *zap.Logger
	status        []StatusBinding
	data          []DataBinding
	inStatus      bool
	inData        bool
	failedBinding int
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: orNop(logger)}
}

func (b *Bus) BindStatus(fn StatusBinding) {
	b.status = append(b.status, fn)
}

func (b *Bus) BindData(fn DataBinding) {
	b.data = append(b.data, fn)
}

func (b *Bus) PublishStatus(ev StatusEvent) error {
	if b.inStatus {
		b.logger.Error("refusing nested status publish", zap.Stringer("event", ev))
		return ErrReentrantPublish
	}
	b.inStatus = true
	defer func() { b.inStatus = false }()
	for i, fn := range b.status {
		b.invoke("status", i, func() error { return fn(ev) })
	}
	return nil
}

func (b *Bus) PublishData(ds telemetry.Dataset) error {
	if b.inData {
		b.logger.Error("refusing nested data publish", zap.String("dataset", ds.Name))
		return ErrReentrantPublish
	}
	b.inData = true
	defer func() { b.inData = false }()
	for i, fn := range b.data {
		b.invoke("data", i, func() error { return fn(ds) })
	}
	return nil
}

// Failures returns how many binding invocations have failed so far.
func (b *Bus) Failures() int {
	return b.failedBinding
}

func (b *Bus) invoke(kind string, index int, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			b.failedBinding++
			b.logger.Error("binding panicked",
				zap.String("kind", kind),
				zap.Int("binding", index),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()
	if err := fn(); err != nil {
		b.failedBinding++
		b.logger.Warn("binding failed",
			zap.String("kind", kind),
			zap.Int("binding", index),
			zap.Error(err),
		)
	}
}
