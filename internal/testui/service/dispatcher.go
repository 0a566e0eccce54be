package service

import (
	"bytes"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"

	"github.com/DylanSharp/gotui/internal/config"
	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/codec"
	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// ReleaseFunc gives n consumed bytes back to the channel and wakes the writer
type ReleaseFunc func(n int) error

// Dispatcher reassembles frames from raw channel reads and applies the
// decoded events to a Store
type Dispatcher struct {
	store        *Store
	release      ReleaseFunc
	maxFrameSize int

	// partial holds the unterminated tail of the last read
	partial []byte

	log zerolog.Logger
}

// NewDispatcher creates a dispatcher. A maxFrameSize <= 0 means
// config.DefaultMaxFrameSize.
func NewDispatcher(store *Store, release ReleaseFunc, maxFrameSize int) *Dispatcher {
	if maxFrameSize <= 0 {
		maxFrameSize = config.DefaultMaxFrameSize
	}
	if release == nil {
		release = func(int) error { return nil }
	}
	return &Dispatcher{
		store:        store,
		release:      release,
		maxFrameSize: maxFrameSize,
		log:          logging.Get("ui", "dispatcher"),
	}
}

// Feed handles the bytes of one channel read. Every complete frame is decoded
// and dispatched; corrupt frames are logged and dropped. The bytes are
// released exactly once, after processing. finished is true when the batch
// contained the worker's completion marker.
func (d *Dispatcher) Feed(data []byte) (finished bool) {
	defer func() {
		if err := d.release(len(data)); err != nil {
			d.log.Error().Err(err).Int("bytes", len(data)).Msg("release failed")
		}
	}()

	d.log.Trace().Int("bytes", len(data)).Int("partial", len(d.partial)).Msg("new data on pipe")

	buf := data
	if len(d.partial) > 0 {
		buf = append(d.partial, data...)
		d.partial = nil
	}

	for {
		i := bytes.IndexByte(buf, codec.Terminator)
		if i < 0 {
			break
		}
		frame := buf[:i]
		buf = buf[i+1:]
		if len(frame) == 0 {
			continue
		}

		ev, err := codec.Decode(frame)
		if err != nil {
			d.log.Warn().Err(err).Int("size", len(frame)).Msg("dropping corrupt frame")
			continue
		}
		if ev.IsCompletion() {
			finished = true
			continue
		}
		if err := d.Dispatch(ev); err != nil {
			d.log.Error().Err(err).Str("method", string(ev.Method)).Msg("error in handler")
		}
	}

	switch {
	case len(buf) > d.maxFrameSize:
		// The test keeps its previous state; the rest of the frame arrives
		// as a corrupt frame and is dropped too
		d.log.Warn().
			Str("test_id", frameTestID(buf)).
			Int("size", len(buf)).
			Int("max", d.maxFrameSize).
			Msg("dropping oversized partial frame")
	case len(buf) > 0:
		d.partial = append([]byte(nil), buf...)
	}

	if finished && len(d.partial) > 0 {
		d.log.Warn().Int("size", len(d.partial)).Msg("dropping partial frame after completion")
		d.partial = nil
	}
	return finished
}

var testIDKeys = [][]byte{[]byte(`"test_id":"`), []byte(`"item_id":"`)}

// frameTestID finds the test id near the start of an encoded frame, or
// returns "" when the frame does not carry one
func frameTestID(frame []byte) string {
	for _, key := range testIDKeys {
		i := bytes.Index(frame, key)
		if i < 0 {
			continue
		}
		rest := frame[i+len(key):]
		if end := bytes.IndexByte(rest, '"'); end >= 0 {
			return string(rest[:end])
		}
	}
	return ""
}

// Reset drops any partial frame, before a new worker starts writing
func (d *Dispatcher) Reset() {
	d.partial = nil
}

// Pending returns the size of the carried partial frame
func (d *Dispatcher) Pending() int {
	return len(d.partial)
}

// Dispatch applies one decoded event to the store
func (d *Dispatcher) Dispatch(ev domain.Event) error {
	d.log.Debug().Str("method", string(ev.Method)).Msg("handling method")

	switch ev.Method {
	case domain.MethodItemCollected:
		var p domain.ItemCollectedParams
		if err := ev.Bind(&p); err != nil {
			return errors.Wrap(err, "bind params")
		}
		d.store.ItemCollected(p.ItemID)
	case domain.MethodSetTestState:
		var p domain.SetTestStateParams
		if err := ev.Bind(&p); err != nil {
			return errors.Wrap(err, "bind params")
		}
		return d.store.SetTestState(p.TestID, p.State)
	case domain.MethodSetTestResult:
		var p domain.SetTestResultParams
		if err := ev.Bind(&p); err != nil {
			return errors.Wrap(err, "bind params")
		}
		d.store.SetTestResult(p)
	case domain.MethodSetExceptionInfo:
		var p domain.SetExceptionInfoParams
		if err := ev.Bind(&p); err != nil {
			return errors.Wrap(err, "bind params")
		}
		d.store.SetExceptionInfo(p)
	case domain.MethodSetPytestError:
		var p domain.SetPytestErrorParams
		if err := ev.Bind(&p); err != nil {
			return errors.Wrap(err, "bind params")
		}
		d.store.SetPytestError(p.Exitcode, p.Description)
	case domain.MethodInitFinished:
	default:
		return domain.ErrUnknownMethod(string(ev.Method))
	}
	return nil
}
