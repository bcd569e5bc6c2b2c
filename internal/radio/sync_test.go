package radio

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

// telegram returns a WM-Bus telegram with a consistent L-field and n payload bytes.
func telegram(n int, seed byte) []byte {
	t := make([]byte, n+1)
	t[0] = byte(n)
	for i := 1; i < len(t); i++ {
		t[i] = seed + byte(i)
	}
	return t
}

func TestValidCRC(t *testing.T) {
	data := []byte{0x82, 0x03, 0x05, 0x44, 0x2D, 0x2C, 0x01}
	framed := AppendCRC(append([]byte(nil), data...))
	require.True(t, ValidCRC(framed[:len(data)], framed[len(data):]))

	corrupt := append([]byte(nil), framed...)
	corrupt[len(corrupt)-1] ^= 0x01
	require.False(t, ValidCRC(corrupt[:len(data)], corrupt[len(data):]))

	require.False(t, ValidCRC(data, nil))
	require.False(t, ValidCRC(data, []byte{0x0F}))
}

func TestFeedWholeFrame(t *testing.T) {
	tg := telegram(20, 0x10)
	s := NewSynchronizer()
	frames := s.Feed(Encode(tg, 0x03, true))
	require.Len(t, frames, 1)
	require.Equal(t, tg, frames[0])
	require.Zero(t, s.Buffered())
}

func TestFeedWithoutCRC(t *testing.T) {
	tg := telegram(12, 0x40)
	s := NewSynchronizer()
	frames := s.Feed(Encode(tg, 0x03, false))
	require.Len(t, frames, 1)
	require.Equal(t, tg, frames[0])
}

func TestFeedChunkBoundaryIndependence(t *testing.T) {
	var stream []byte
	stream = append(stream, 0x00, 0x13, 0x37)
	stream = append(stream, Encode(telegram(30, 0x01), 0x03, true)...)
	stream = append(stream, 0xFF)
	stream = append(stream, Encode(telegram(17, 0x80), 0x03, false)...)
	stream = append(stream, Encode(telegram(25, 0x20), 0x03, true)...)

	whole := NewSynchronizer().Feed(stream)
	require.Len(t, whole, 3)

	for _, size := range []int{1, 2, 3, 7, 64} {
		s := NewSynchronizer()
		var got [][]byte
		for i := 0; i < len(stream); i += size {
			end := i + size
			if end > len(stream) {
				end = len(stream)
			}
			got = append(got, s.Feed(stream[i:end])...)
		}
		require.Equal(t, whole, got, "chunk size %d", size)
	}
}

func TestFeedCorruptedCRCRecovers(t *testing.T) {
	bad := Encode(telegram(20, 0x10), 0x03, true)
	corrupt := bad[len(bad)-2] ^ 0xFF
	if corrupt == startOfFrame {
		corrupt ^= 0x01
	}
	bad[len(bad)-2] = corrupt
	good := telegram(18, 0x55)

	var events []Event
	s := NewSynchronizer(WithObserver(func(ev Event) { events = append(events, ev) }))
	frames := s.Feed(append(bad, Encode(good, 0x04, true)...))
	require.Len(t, frames, 1)
	require.Equal(t, good, frames[0])
	require.Contains(t, events, EventChecksumFailure)
	require.Equal(t, EventFrame, events[len(events)-1])
}

// A frame is consumed up to and including its checksum, so a checksum byte equal to the
// start marker never starts a false frame, and the emitted telegram begins at the L-field.
func TestFeedConsumesChecksumBytes(t *testing.T) {
	var first []byte
	for n := 17; n < 64 && first == nil; n++ {
		for seed := 0; seed < 256; seed++ {
			tg := telegram(n, byte(seed))
			framed := Encode(tg, 0x03, true)
			if framed[len(framed)-2] == startOfFrame || framed[len(framed)-1] == startOfFrame {
				first = tg
				break
			}
		}
	}
	require.NotNil(t, first, "no telegram with a marker byte in its checksum")

	second := telegram(20, 0x40)
	stream := append(Encode(first, 0x03, true), Encode(second, 0x03, true)...)

	var events []Event
	s := NewSynchronizer(WithObserver(func(ev Event) { events = append(events, ev) }))
	out := s.Feed(stream)
	require.Equal(t, [][]byte{first, second}, out)
	require.Equal(t, []Event{EventFrame, EventFrame}, events)
	require.Zero(t, s.Buffered())
}

func TestFeedRejectsOtherEndpoint(t *testing.T) {
	raw := Encode(telegram(10, 0x01), 0x03, false)
	raw[1] = 0x01 // device management endpoint

	var events []Event
	s := NewSynchronizer(WithObserver(func(ev Event) { events = append(events, ev) }))
	require.Empty(t, s.Feed(raw))
	require.Equal(t, EventNotRadioLink, events[0])
}

func TestFeedWaitsForMoreData(t *testing.T) {
	raw := Encode(telegram(40, 0x01), 0x03, true)
	s := NewSynchronizer()
	require.Empty(t, s.Feed(raw[:3]))
	require.Empty(t, s.Feed(raw[3:len(raw)-1]))
	require.Equal(t, len(raw)-1, s.Buffered())
	frames := s.Feed(raw[len(raw)-1:])
	require.Len(t, frames, 1)
}

func TestFeedDiscardsNoise(t *testing.T) {
	s := NewSynchronizer()
	require.Empty(t, s.Feed([]byte{0x01, 0x02, 0x03}))
	require.Zero(t, s.Buffered())
	s.Reset()
	require.Zero(t, s.Buffered())
}

func TestEncodeLayout(t *testing.T) {
	tg, err := hex.DecodeString("0344AABB")
	require.NoError(t, err)
	raw := Encode(tg, 0x03, true)
	require.Equal(t, []byte{0xA5, 0x82, 0x03, 0x03, 0x44, 0xAA, 0xBB}, raw[:7])
	require.True(t, ValidCRC(raw[1:7], raw[7:]))
}

func TestReceive(t *testing.T) {
	var stream []byte
	stream = append(stream, Encode(telegram(20, 0x01), 0x03, true)...)
	stream = append(stream, Encode(telegram(21, 0x02), 0x03, true)...)

	out := make(chan []byte, 4)
	err := Receive(context.Background(), bytes.NewReader(stream), NewSynchronizer(), out)
	require.NoError(t, err)
	close(out)

	var got [][]byte
	for tg := range out {
		got = append(got, tg)
	}
	require.Equal(t, [][]byte{telegram(20, 0x01), telegram(21, 0x02)}, got)
}

func TestReceiveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Receive(ctx, bytes.NewReader([]byte{0xA5}), NewSynchronizer(), make(chan []byte))
	require.ErrorIs(t, err, context.Canceled)
}
