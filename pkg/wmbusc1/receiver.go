package wmbusc1

import (
	"context"
	"io"

	"github.com/d21d3q/wmbusc1/internal/radio"
)

// SyncEvent is a frame synchronizer event, see radio.Event.
type SyncEvent = radio.Event

// Handler receives every telegram found in the stream, decoded or not. err is set when the
// telegram could not be parsed or decrypted.
type Handler func(Result, error)

// Receiver couples a frame synchronizer with a Decoder. It is not safe for concurrent use.
type Receiver struct {
	sync    *radio.Synchronizer
	decoder *Decoder
}

// NewReceiver returns a receiver that decodes with dec. opts configure the synchronizer.
func NewReceiver(dec *Decoder, opts ...radio.SyncOption) *Receiver {
	if dec == nil {
		dec = &Decoder{}
	}
	if dec.Log != nil {
		opts = append([]radio.SyncOption{radio.WithLogger(dec.Log)}, opts...)
	}
	return &Receiver{
		sync:    radio.NewSynchronizer(opts...),
		decoder: dec,
	}
}

// Feed pushes one chunk of modem bytes and calls handle for every completed telegram.
func (r *Receiver) Feed(ctx context.Context, chunk []byte, handle Handler) {
	for _, raw := range r.sync.Feed(chunk) {
		handle(r.decoder.Decode(ctx, raw, nil))
	}
}

// Run reads src until it is exhausted, fails or ctx is done, decoding telegrams in stream
// order. io.EOF ends the run without error.
func (r *Receiver) Run(ctx context.Context, src io.Reader, handle Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	telegrams := make(chan []byte, 16)
	done := make(chan error, 1)
	go func() {
		done <- radio.Receive(ctx, src, r.sync, telegrams)
		close(telegrams)
	}()
	for raw := range telegrams {
		handle(r.decoder.Decode(ctx, raw, nil))
	}
	return <-done
}
