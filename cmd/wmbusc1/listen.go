package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tarm/serial"

	"github.com/d21d3q/wmbusc1/internal/metrics"
	"github.com/d21d3q/wmbusc1/internal/options"
	"github.com/d21d3q/wmbusc1/internal/output"
	"github.com/d21d3q/wmbusc1/internal/radio"
	"github.com/d21d3q/wmbusc1/pkg/wmbusc1"
)

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Read telegrams from the radio modem and print them as they arrive",
	Args:  cobra.NoArgs,
}

func init() {
	listenCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runListen(cmd.Context())
	}
	flags := listenCmd.Flags()
	flags.String("device", "", "serial device of the modem (overrides serial.device)")
	flags.Int("baud", 0, "baud rate (overrides serial.baud)")
	flags.Bool("metrics", false, "serve prometheus metrics (overrides metrics.enabled)")
}

func applyListenFlags(cmd *cobra.Command) {
	if v, _ := cmd.Flags().GetString("device"); v != "" {
		cfg.Serial.Device = v
	}
	if v, _ := cmd.Flags().GetInt("baud"); v > 0 {
		cfg.Serial.Baud = v
	}
	if v, _ := cmd.Flags().GetBool("metrics"); v {
		cfg.Metrics.Enabled = true
	}
}

func runListen(ctx context.Context) error {
	applyListenFlags(listenCmd)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log := logrus.WithField("device", cfg.Serial.Device)

	key, err := options.ParseKeyHex(keyHex)
	if err != nil {
		return err
	}
	ctx = options.WithSecurityKey(ctx, key)

	keys, release, err := openKeys()
	if err != nil {
		return err
	}
	defer release()

	enc, err := output.NewEncoder(os.Stdout, cfg.Output.Format)
	if err != nil {
		return err
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: cfg.Serial.ReadTimeout,
		Size:        8,
	})
	if err != nil {
		return err
	}
	defer port.Close()
	// Unblock a pending read once the context ends.
	go func() {
		<-ctx.Done()
		port.Close()
	}()
	log.WithField("baud", cfg.Serial.Baud).Info("listening for telegrams")

	m := metrics.New()
	var wg sync.WaitGroup
	if cfg.Metrics.Enabled {
		srv := &http.Server{Addr: cfg.Metrics.Listen, Handler: metricsMux(m)}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logrus.WithField("listen", cfg.Metrics.Listen).Info("serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Error("metrics server failed")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
			wg.Wait()
		}()
	}

	dec := &wmbusc1.Decoder{Keys: keys, Log: logrus.StandardLogger()}
	rx := wmbusc1.NewReceiver(dec, radio.WithObserver(m.ObserveSync))
	src := &portReader{r: port, bytes: m.BytesReceived.Add}

	err = rx.Run(ctx, src, func(result wmbusc1.Result, err error) {
		observe(m, result, err)
		if err != nil {
			log.WithError(err).Warn("failed to decode telegram")
			return
		}
		if err := enc.Encode(result.Summary()); err != nil {
			log.WithError(err).Error("failed to write telegram")
		}
	})
	if ctx.Err() != nil {
		// Closing the port on shutdown makes the pending read fail; that is a clean stop.
		log.Info("stopped")
		return nil
	}
	return err
}

func metricsMux(m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(cfg.Metrics.Path, m.Handler())
	return mux
}

func observe(m *metrics.Metrics, result wmbusc1.Result, err error) {
	switch {
	case err != nil:
		drv := result.Driver
		if drv == "" {
			drv = wmbusc1.DriverUnknown
		}
		m.ObserveTelegram(drv, metrics.OutcomeError)
	case result.Driver == wmbusc1.DriverUnknown:
		m.ObserveTelegram(result.Driver, metrics.OutcomeUnknown)
	case result.Decrypted():
		m.ObserveTelegram(result.Driver, metrics.OutcomeDecoded)
		if total, ok := result.TotalVolume(); ok {
			m.ObserveVolume(result.Telegram.MeterIDString(), total)
		}
	default:
		m.ObserveTelegram(result.Driver, metrics.OutcomePartial)
	}
}

// portReader adapts the serial port to the receive loop. A read timeout surfaces as io.EOF
// from the port and is turned into an empty read so the loop keeps polling.
type portReader struct {
	r     io.Reader
	bytes func(float64)
}

func (p *portReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.bytes(float64(n))
	}
	if errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}
