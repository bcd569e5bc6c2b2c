package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/d21d3q/wmbusc1/internal/options"
	"github.com/d21d3q/wmbusc1/internal/output"
	"github.com/d21d3q/wmbusc1/pkg/wmbusc1"
)

var (
	analyzeCmd = &cobra.Command{
		Use:   "analyze [hex]",
		Short: "Decode a hex telegram, or read them interactively from stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, release, err := openKeys()
			if err != nil {
				return err
			}
			defer release()

			enc, err := output.NewEncoder(os.Stdout, cfg.Output.Format)
			if err != nil {
				return err
			}
			a := analyzer{
				opts: wmbusc1.AnalyzeOptions{KeyHex: keyHex, Keys: keys},
				enc:  enc,
			}
			ctx := cmd.Context()
			if len(args) == 0 {
				return a.runInteractive(ctx)
			}
			return a.run(ctx, args[0])
		},
	}

	radioInput bool
)

func init() {
	analyzeCmd.Flags().BoolVar(&radioInput, "radio", false, "input is a raw modem capture (0xA5 framed) instead of a telegram")
}

type analyzer struct {
	opts wmbusc1.AnalyzeOptions
	enc  output.Encoder
}

func (a analyzer) runInteractive(ctx context.Context) error {
	scanner := bufio.NewScanner(os.Stdin)
	logrus.Info("wmbusc1 analyze mode. Paste a hex telegram and press Enter (Ctrl+D to exit).")
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := a.run(ctx, line); err != nil {
			logrus.WithError(err).Error("failed to decode telegram")
		}
	}
	return scanner.Err()
}

func (a analyzer) run(ctx context.Context, hex string) error {
	if !radioInput {
		result, err := wmbusc1.AnalyzeHexWithOptions(ctx, hex, a.opts)
		if err != nil {
			return err
		}
		return a.enc.Encode(result.Summary())
	}
	return a.runRadio(ctx, hex)
}

// runRadio pushes a modem capture through the frame synchronizer and decodes every
// telegram found in it.
func (a analyzer) runRadio(ctx context.Context, hex string) error {
	data, err := wmbusc1.DecodeHex(hex)
	if err != nil {
		return err
	}
	key, err := options.ParseKeyHex(a.opts.KeyHex)
	if err != nil {
		return err
	}
	ctx = options.WithSecurityKey(ctx, key)

	var firstErr error
	found := 0
	rx := wmbusc1.NewReceiver(&wmbusc1.Decoder{Keys: a.opts.Keys, Log: logrus.StandardLogger()})
	rx.Feed(ctx, data, func(result wmbusc1.Result, err error) {
		found++
		if err != nil {
			logrus.WithError(err).Error("failed to decode telegram")
			if firstErr == nil {
				firstErr = err
			}
			return
		}
		if err := a.enc.Encode(result.Summary()); err != nil && firstErr == nil {
			firstErr = err
		}
	})
	if found == 0 {
		logrus.Warn("no complete modem frame in input")
	}
	return firstErr
}
