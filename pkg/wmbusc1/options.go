package wmbusc1

import (
	"context"

	"github.com/d21d3q/wmbusc1/internal/keystore"
	internalopts "github.com/d21d3q/wmbusc1/internal/options"
)

// AnalyzeOptions configures parsing.
type AnalyzeOptions struct {
	KeyHex string
	// Keys is consulted when KeyHex is empty.
	Keys keystore.Lookup
}

func (opts AnalyzeOptions) toInternal(ctx context.Context) (context.Context, []byte, error) {
	key, err := internalopts.ParseKeyHex(opts.KeyHex)
	if err != nil {
		return ctx, nil, err
	}
	ctx = internalopts.WithSecurityKey(ctx, key)
	return ctx, key, nil
}
