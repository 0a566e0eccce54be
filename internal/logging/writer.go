package logging

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// LogWriter is an io.Writer that turns written output into log records, one
// per line. Used to capture a worker's stdout and stderr.
type LogWriter struct {
	log zerolog.Logger

	mu  sync.Mutex
	buf []byte
}

// NewLogWriter creates a writer logging through log
func NewLogWriter(log zerolog.Logger) *LogWriter {
	return &LogWriter{log: log}
}

// Write logs every complete line in p and keeps an unterminated tail until
// the next write or Flush.
func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.emit(w.buf[:i])
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

// Flush logs any buffered partial line
func (w *LogWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.buf) > 0 {
		w.emit(w.buf)
		w.buf = nil
	}
}

func (w *LogWriter) emit(line []byte) {
	w.log.Debug().Bytes("line", bytes.TrimRight(line, "\r")).Msg("output")
}
