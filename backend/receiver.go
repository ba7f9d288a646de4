package backend

import (
	"go.uber.org/zap"

	"git.sr.ht/~whereswaldon/rsip-scope/rsip"
)

// Receiver turns raw chunks from a link into published datasets. It is the
// only code that runs the frame decoder.
type Receiver struct {
	bus     *Bus
	names   Resolver
	logger  *zap.Logger
	decoded int
	dropped int
}

func NewReceiver(bus *Bus, names Resolver, logger *zap.Logger) *Receiver {
	return &Receiver{
		bus:    bus,
		names:  names,
		logger: orNop(logger),
	}
}

// Receive decodes one chunk (preamble included), resolves its names and
// publishes it. Undecodable chunks are logged, reported as a StatusError
// event and dropped; the returned error is informational only.
func (r *Receiver) Receive(chunk []byte) error {
	if len(chunk) == 0 {
		return nil
	}
	payload, err := rsip.StripPreamble(chunk)
	if err != nil {
		return r.drop(chunk, err)
	}
	ds, err := rsip.Decode(payload)
	if err != nil {
		return r.drop(chunk, err)
	}
	Resolve(r.names, &ds)
	r.decoded++
	return r.bus.PublishData(ds)
}

func (r *Receiver) drop(chunk []byte, err error) error {
	r.dropped++
	r.logger.Warn("dropping undecodable chunk",
		zap.Int("bytes", len(chunk)),
		zap.Error(err),
	)
	_ = r.bus.PublishStatus(StatusEvent{Status: StatusError, Err: err})
	return err
}

// Stats returns how many chunks have been published and dropped.
func (r *Receiver) Stats() (decoded, dropped int) {
	return r.decoded, r.dropped
}
