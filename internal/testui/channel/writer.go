package channel

import (
	"context"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/codec"
	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// Writer is the producer half of the channel
type Writer struct {
	out      io.Writer
	size     Counter
	ready    Signal
	capacity int

	// serializes Send so chunks of different frames never interleave
	sendMu  sync.Mutex
	closers []io.Closer
}

// NewWriter creates a writer over out. A capacity <= 0 means DefaultCapacity.
func NewWriter(out io.Writer, size Counter, ready Signal, capacity int) *Writer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Writer{
		out:      out,
		size:     size,
		ready:    ready,
		capacity: capacity,
	}
}

// logger is looked up on use, so a writer opened before logging is
// configured still logs
func (w *Writer) logger() zerolog.Logger {
	return logging.Get("runner", "pipe")
}

// Capacity returns the maximum number of unread bytes
func (w *Writer) Capacity() int {
	return w.capacity
}

// Send encodes one event and writes it in chunks of at most Capacity bytes.
// It blocks while the reader is behind.
func (w *Writer) Send(ctx context.Context, method domain.Method, params any) error {
	frame, err := codec.Encode(method, params)
	if err != nil {
		return err
	}

	w.sendMu.Lock()
	defer w.sendMu.Unlock()

	log := w.logger()
	log.Debug().
		Str("method", string(method)).
		Int("size", len(frame)).
		Msg("pipe write")
	log.Trace().Bytes("data", frame).Msg("frame")

	for _, chunk := range Chunks(frame, w.capacity) {
		if err := w.SendChunk(ctx, chunk); err != nil {
			return errors.Wrapf(err, "send %s", method)
		}
	}
	return nil
}

// SendChunk writes one chunk once the pipe has room for all of it. The
// accounting and the write happen under the same lock as the room check.
func (w *Writer) SendChunk(ctx context.Context, chunk []byte) error {
	n := int64(len(chunk))
	if n > int64(w.capacity) {
		return domain.ErrChunkTooLarge(len(chunk), w.capacity)
	}
	log := w.logger()

	for {
		if err := w.size.Lock(); err != nil {
			return errors.Wrap(err, "lock pipe size")
		}
		if w.size.Load()+n <= int64(w.capacity) {
			break
		}

		log.Debug().Int64("pipe_size", w.size.Load()).Msg("no space in pipe, waiting for reader")
		clearErr := w.ready.Clear()
		if err := w.size.Unlock(); err != nil {
			return errors.Wrap(err, "unlock pipe size")
		}
		if clearErr != nil {
			return errors.Wrap(clearErr, "clear ready signal")
		}

		if err := w.ready.Wait(ctx); err != nil {
			return err
		}
		log.Trace().Msg("reader finished")
	}

	w.size.Add(n)
	_, err := w.out.Write(chunk)
	if err != nil {
		// Nothing reached the reader, so nothing will be released
		w.size.Add(-n)
	}
	if uerr := w.size.Unlock(); uerr != nil && err == nil {
		err = errors.Wrap(uerr, "unlock pipe size")
	}
	if err != nil {
		return domain.ErrChannelClosed(err)
	}
	return nil
}

// Close releases the endpoints the writer was opened with
func (w *Writer) Close() error {
	var errs []error
	for _, c := range w.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}

// Chunks splits data into consecutive slices of at most size bytes
func Chunks(data []byte, size int) [][]byte {
	var chunks [][]byte
	for offset := 0; offset < len(data); offset += size {
		end := min(offset+size, len(data))
		chunks = append(chunks, data[offset:end])
	}
	return chunks
}
