package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/d21d3q/wmbusc1/internal/radio"
)

func TestObserveSync(t *testing.T) {
	m := New()
	s := radio.NewSynchronizer(radio.WithObserver(m.ObserveSync))
	s.Feed([]byte{0x00, 0x01})
	frame := radio.Encode([]byte{0x02, 0x10, 0x20}, 0x03, true)
	s.Feed(frame)

	require.Equal(t, 1.0, testutil.ToFloat64(m.SyncEvents.WithLabelValues("frame")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.SyncEvents.WithLabelValues("resync")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveTelegram("multical21", OutcomeDecoded)
	m.ObserveVolume("76348799", 1.5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `wmbusc1_telegrams_total{driver="multical21",outcome="decoded"} 1`), body)
	require.Contains(t, body, `wmbusc1_meter_total_m3{meter_id="76348799"} 1.5`)
}
