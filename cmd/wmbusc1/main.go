package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d21d3q/wmbusc1/internal/config"
	"github.com/d21d3q/wmbusc1/internal/keystore"
	"github.com/d21d3q/wmbusc1/internal/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:           "wmbusc1",
		Short:         "Receive and decode Kamstrup Multical 21 Wireless M-Bus C1 telegrams",
		Long:          "wmbusc1 synchronises on the byte stream of a Wireless M-Bus C1 modem and decodes Kamstrup Multical 21 water meter telegrams.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logCloser != nil {
				logCloser.Close()
			}
		},
	}

	configPath   string
	keyHex       string
	outputFormat string
	logLevel     string
	keyDBPath    string

	cfg       *config.Config
	logCloser io.Closer
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&keyHex, "key", "", "hex-encoded 16-byte AES key (32 hex chars)")
	flags.StringVar(&outputFormat, "format", "", "output format: json, yaml or cbor")
	flags.StringVar(&logLevel, "log-level", "", "log level (overrides config)")
	flags.StringVar(&keyDBPath, "key-db", "", "bbolt key store (overrides keys.db)")

	rootCmd.AddCommand(analyzeCmd, listenCmd, keysCmd)
}

func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if outputFormat != "" {
		loaded.Output.Format = outputFormat
	}
	if logLevel != "" {
		loaded.Log.Level = logLevel
	}
	if keyDBPath != "" {
		loaded.Keys.DB = keyDBPath
	}
	if err := loaded.Validate(); err != nil {
		return err
	}
	closer, err := logging.Setup(logrus.StandardLogger(), loaded.Log)
	if err != nil {
		return err
	}
	cfg = loaded
	logCloser = closer
	return nil
}

// openKeys builds the key lookup chain from the configured key file and key store.
// The returned function releases the key store.
func openKeys() (keystore.Lookup, func(), error) {
	var chain keystore.Chain
	release := func() {}
	if cfg.Keys.File != "" {
		static, err := keystore.LoadFile(cfg.Keys.File)
		if err != nil {
			return nil, release, err
		}
		chain = append(chain, static)
	}
	if cfg.Keys.DB != "" {
		store, err := keystore.OpenBolt(cfg.Keys.DB)
		if err != nil {
			return nil, release, err
		}
		chain = append(chain, store)
		release = func() { store.Close() }
	}
	return chain, release, nil
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logrus.Fatal(err)
	}
}
