package radio

import (
	"bytes"

	"github.com/sirupsen/logrus"
)

const (
	startOfFrame   = 0xA5
	radioLinkID    = 0x02
	endpointMask   = 0x0F
	crcPresentFlag = 0x80
	headerLen      = 4 // SOF, control/endpoint, message id, length
	lengthOffset   = 3
	crcLen         = 2
)

// Event identifies what the synchronizer did with the bytes at the head of its buffer.
type Event int

const (
	// EventFrame is reported once per emitted telegram.
	EventFrame Event = iota
	// EventResync is reported when leading bytes are discarded while searching for a start marker.
	EventResync
	// EventChecksumFailure is reported when a frame's trailing CRC does not validate.
	EventChecksumFailure
	// EventNotRadioLink is reported for frames addressed to another modem endpoint.
	EventNotRadioLink
)

func (e Event) String() string {
	switch e {
	case EventFrame:
		return "frame"
	case EventResync:
		return "resync"
	case EventChecksumFailure:
		return "checksum_failure"
	case EventNotRadioLink:
		return "not_radiolink"
	default:
		return "unknown"
	}
}

// Observer receives synchronizer events, e.g. to update counters.
type Observer func(Event)

// Synchronizer splits a byte stream coming from the radio modem into WM-Bus telegrams.
//
// Modem frames look like
//
//	A5 | ctrl/endpoint | msg id | L | L bytes | [CRC lo, CRC hi]
//
// where bit 7 of the control byte announces the trailing CRC and the low nibble must be the
// RadioLink endpoint. The length byte doubles as the WM-Bus L-field, so the emitted telegram
// is the frame from the length byte up to (excluding) the CRC.
//
// A Synchronizer keeps state between Feed calls and must not be used from several goroutines.
type Synchronizer struct {
	buf      []byte
	frameLen int // 0 while searching for a start marker

	log      logrus.FieldLogger
	observer Observer
}

// SyncOption configures a Synchronizer.
type SyncOption func(*Synchronizer)

// WithLogger routes debug output to the given logger.
func WithLogger(l logrus.FieldLogger) SyncOption {
	return func(s *Synchronizer) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver registers a callback for synchronizer events.
func WithObserver(o Observer) SyncOption {
	return func(s *Synchronizer) { s.observer = o }
}

// NewSynchronizer returns a synchronizer in the searching state.
func NewSynchronizer(opts ...SyncOption) *Synchronizer {
	s := &Synchronizer{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Buffered returns the number of bytes held back waiting for more input.
func (s *Synchronizer) Buffered() int {
	return len(s.buf)
}

// Reset drops buffered bytes and returns to the searching state.
func (s *Synchronizer) Reset() {
	s.buf = nil
	s.frameLen = 0
}

// Feed appends chunk to the internal buffer and returns every complete, valid telegram that
// can be extracted, in stream order. Incomplete trailing data stays buffered for the next call.
func (s *Synchronizer) Feed(chunk []byte) [][]byte {
	s.buf = append(s.buf, chunk...)

	var out [][]byte
	for {
		if s.frameLen == 0 && !s.search() {
			return out
		}
		if len(s.buf) < s.frameLen {
			return out
		}
		ctrl := s.buf[1]
		hasCRC := ctrl&crcPresentFlag != 0
		total := s.frameLen
		if hasCRC {
			total += crcLen
			if len(s.buf) < total {
				return out
			}
		}
		if ctrl&endpointMask != radioLinkID {
			s.log.WithField("endpoint", ctrl&endpointMask).Debug("radio: skipping non-RadioLink frame")
			s.emit(EventNotRadioLink)
			s.skip(1)
			continue
		}
		if hasCRC && !ValidCRC(s.buf[1:s.frameLen], s.buf[s.frameLen:total]) {
			s.log.WithField("length", s.frameLen).Debug("radio: checksum mismatch, resyncing")
			s.emit(EventChecksumFailure)
			s.skip(1)
			continue
		}

		telegram := make([]byte, s.frameLen-lengthOffset)
		copy(telegram, s.buf[lengthOffset:s.frameLen])
		out = append(out, telegram)
		s.emit(EventFrame)
		s.skip(total)
	}
}

// search drops everything before the next start marker and reads the frame length. It
// reports false when more input is needed.
func (s *Synchronizer) search() bool {
	idx := bytes.IndexByte(s.buf, startOfFrame)
	if idx < 0 {
		if len(s.buf) > 0 {
			s.log.WithField("discarded", len(s.buf)).Debug("radio: no start marker in buffer")
			s.emit(EventResync)
		}
		s.buf = s.buf[:0]
		return false
	}
	if idx > 0 {
		s.log.WithField("discarded", idx).Debug("radio: resynchronized on start marker")
		s.emit(EventResync)
		s.buf = s.buf[idx:]
	}
	if len(s.buf) < headerLen {
		return false
	}
	s.frameLen = int(s.buf[lengthOffset]) + headerLen
	return true
}

func (s *Synchronizer) skip(n int) {
	s.buf = s.buf[n:]
	s.frameLen = 0
	if len(s.buf) == 0 {
		s.buf = nil
	}
}

func (s *Synchronizer) emit(ev Event) {
	if s.observer != nil {
		s.observer(ev)
	}
}

// Encode wraps a WM-Bus telegram (starting with its L-field) into a modem RadioLink frame.
// The CRC is appended when withCRC is set.
func Encode(telegram []byte, msgID byte, withCRC bool) []byte {
	ctrl := byte(radioLinkID)
	if withCRC {
		ctrl |= crcPresentFlag
	}
	out := make([]byte, 0, len(telegram)+lengthOffset+crcLen)
	out = append(out, startOfFrame, ctrl, msgID)
	out = append(out, telegram...)
	if withCRC {
		crc := Checksum(out[1:])
		out = append(out, byte(crc), byte(crc>>8))
	}
	return out
}
