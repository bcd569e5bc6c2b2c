package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/d21d3q/wmbusc1/internal/config"
)

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wmbusc1.log")
	logger := logrus.New()
	closer, err := Setup(logger, config.LogConfig{Level: "debug", Format: "json", File: path, MaxSizeMB: 1})
	require.NoError(t, err)
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.WithField("meter", "76348799").Debug("decoded")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"meter":"76348799"`)
}

func TestSetupRejectsBadLevel(t *testing.T) {
	_, err := Setup(logrus.New(), config.LogConfig{Level: "loud", Format: "text"})
	require.Error(t, err)
	_, err = Setup(logrus.New(), config.LogConfig{Level: "info", Format: "xml"})
	require.Error(t, err)
}
