package main

import (
	"context"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/d21d3q/wmbusc1/internal/metrics"
	tu "github.com/d21d3q/wmbusc1/internal/testutil"
	"github.com/d21d3q/wmbusc1/pkg/wmbusc1"
)

type timeoutPort struct{ reads int }

func (p *timeoutPort) Read(b []byte) (int, error) {
	p.reads++
	if p.reads == 1 {
		return copy(b, []byte{0xA5, 0x82}), nil
	}
	return 0, io.EOF
}

func TestPortReaderHidesTimeouts(t *testing.T) {
	var counted float64
	r := &portReader{r: &timeoutPort{}, bytes: func(n float64) { counted += n }}
	buf := make([]byte, 8)

	n, err := r.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = r.Read(buf)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, 2.0, counted)
}

func TestObserveOutcomes(t *testing.T) {
	m := metrics.New()
	raw := tu.Telegram(t, tu.FullPlaintext(0, 1500, 1000))

	decoded, err := wmbusc1.AnalyzeHexWithOptions(context.Background(), hex.EncodeToString(raw), wmbusc1.AnalyzeOptions{KeyHex: tu.KeyHex})
	require.NoError(t, err)
	observe(m, decoded, nil)

	partial, err := wmbusc1.AnalyzeHex(context.Background(), hex.EncodeToString(raw))
	require.NoError(t, err)
	observe(m, partial, nil)

	observe(m, wmbusc1.Result{}, errors.New("telegram too short"))

	require.Equal(t, 1.0, testutil.ToFloat64(m.Telegrams.WithLabelValues("multical21", metrics.OutcomeDecoded)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Telegrams.WithLabelValues("multical21", metrics.OutcomePartial)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Telegrams.WithLabelValues(wmbusc1.DriverUnknown, metrics.OutcomeError)))
	require.Equal(t, 1.5, testutil.ToFloat64(m.TotalVolume.WithLabelValues(tu.MeterID)))
}
