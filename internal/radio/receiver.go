package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
)

const readBufferSize = 256

// Receive reads chunks from r, feeds them to s and sends every extracted telegram on out in
// stream order. It returns when ctx is done, r reports io.EOF (nil error) or another read
// error occurs. The caller owns out and closes it after Receive returns.
func Receive(ctx context.Context, r io.Reader, s *Synchronizer, out chan<- []byte) error {
	buf := make([]byte, readBufferSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		n, err := r.Read(buf)
		if n > 0 {
			for _, telegram := range s.Feed(buf[:n]) {
				select {
				case out <- telegram:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("radio read: %w", err)
		}
	}
}
