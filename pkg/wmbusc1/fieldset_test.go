package wmbusc1

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldSetCoercion(t *testing.T) {
	fs := Result{Fields: map[string]any{
		"total_m3":      1.5,
		"access_number": 145,
		"counter":       json.Number("7"),
		"leaking":       true,
		"dry":           "false",
		"time_leaking":  "9-24 hours",
	}}.FieldSet()

	f, err := fs.Float("total_m3")
	require.NoError(t, err)
	require.Equal(t, 1.5, f)

	f, err = fs.Float("access_number")
	require.NoError(t, err)
	require.Equal(t, 145.0, f)

	i, err := fs.Int("counter")
	require.NoError(t, err)
	require.Equal(t, int64(7), i)

	b, err := fs.Bool("leaking")
	require.NoError(t, err)
	require.True(t, b)
	b, err = fs.Bool("dry")
	require.NoError(t, err)
	require.False(t, b)

	s, err := fs.String("time_leaking")
	require.NoError(t, err)
	require.Equal(t, "9-24 hours", s)

	_, err = fs.Float("time_leaking")
	require.Error(t, err)
	_, err = fs.Int("missing")
	require.Error(t, err)
}

func TestFieldSetStatus(t *testing.T) {
	fs := Result{Fields: map[string]any{"current_status": "DRY LEAK"}}.FieldSet()
	flags, err := fs.Status()
	require.NoError(t, err)
	require.Equal(t, []string{"DRY", "LEAK"}, flags)

	_, err = Result{}.FieldSet().Status()
	require.Error(t, err)
}
