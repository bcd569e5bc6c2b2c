// Package output renders decoded telegrams for the command line.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// Encoder writes one record per call.
type Encoder interface {
	Encode(v any) error
}

// NewEncoder returns an encoder for format (json, yaml or cbor) writing to w.
func NewEncoder(w io.Writer, format string) (Encoder, error) {
	switch strings.ToLower(format) {
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc, nil
	case "yaml":
		return yamlEncoder{w: w}, nil
	case "cbor":
		mode, err := cbor.CanonicalEncOptions().EncMode()
		if err != nil {
			return nil, err
		}
		return mode.NewEncoder(w), nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// yamlEncoder writes each record as its own YAML document.
type yamlEncoder struct {
	w io.Writer
}

func (e yamlEncoder) Encode(v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(e.w, "---\n"); err != nil {
		return err
	}
	_, err = e.w.Write(data)
	return err
}
