package output

import (
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

var record = map[string]any{
	"id":       "76348799",
	"total_m3": 1.5,
	"leaking":  true,
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, "json")
	require.NoError(t, err)
	require.NoError(t, enc.Encode(record))
	require.JSONEq(t, `{"id":"76348799","total_m3":1.5,"leaking":true}`, buf.String())
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, "yaml")
	require.NoError(t, err)
	require.NoError(t, enc.Encode(record))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "76348799", got["id"])
	require.Equal(t, true, got["leaking"])
}

func TestCBOR(t *testing.T) {
	var buf bytes.Buffer
	enc, err := NewEncoder(&buf, "CBOR")
	require.NoError(t, err)
	require.NoError(t, enc.Encode(record))

	var got map[string]any
	require.NoError(t, cbor.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "76348799", got["id"])
	require.Equal(t, 1.5, got["total_m3"])
}

func TestUnsupported(t *testing.T) {
	_, err := NewEncoder(&bytes.Buffer{}, "xml")
	require.Error(t, err)
}
