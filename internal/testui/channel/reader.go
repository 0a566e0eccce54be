package channel

import (
	"context"
	"io"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/DylanSharp/gotui/internal/logging"
)

// Release gives n consumed bytes back to the writer and wakes it. The reader
// calls it exactly once per batch handed to it, whatever the batch contained.
func Release(size Counter, ready Signal, n int) error {
	log := logging.Get("ui", "pipe")

	if err := size.Lock(); err != nil {
		return errors.Wrap(err, "lock pipe size")
	}
	left := size.Add(-int64(n))
	setErr := ready.Set()
	if err := size.Unlock(); err != nil {
		return errors.Wrap(err, "unlock pipe size")
	}

	log.Trace().Int("released", n).Int64("pipe_size", left).Msg("pipe size decreased")
	if left < 0 {
		log.Warn().Int64("pipe_size", left).Msg("pipe size below zero")
	}
	return errors.Wrap(setErr, "set ready signal")
}

// Pump reads r on its own goroutine and delivers every Read result as one
// batch. The channel is closed on EOF, read error or ctx cancellation.
func Pump(ctx context.Context, r io.Reader, bufSize int) <-chan []byte {
	if bufSize <= 0 {
		bufSize = DefaultCapacity
	}
	out := make(chan []byte)

	go func() {
		defer close(out)
		log := logging.Get("ui", "pipe")
		buf := make([]byte, bufSize)

		for {
			n, err := r.Read(buf)
			if n > 0 {
				batch := make([]byte, n)
				copy(batch, buf[:n])
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
					log.Error().Err(err).Msg("pipe read failed")
				}
				return
			}
		}
	}()

	return out
}
