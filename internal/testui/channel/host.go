package channel

import (
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// File descriptors a worker finds its channel ends on
const (
	DataFD   = 3
	SignalFD = 4
)

// Endpoints describe the channel ends a worker process attaches to
type Endpoints struct {
	DataFD      int
	SignalFD    int
	SegmentPath string
	Capacity    int
}

// Args renders the endpoints as worker command line flags
func (e Endpoints) Args() []string {
	return []string{
		"--segment", e.SegmentPath,
		"--capacity", strconv.Itoa(e.Capacity),
	}
}

// Host owns the UI side of the channel for the lifetime of the application.
// The same pipes and segment are handed to every worker in turn.
type Host struct {
	dir      string
	ownDir   bool
	capacity int

	segment *Segment
	ready   *PipeSignal

	dataR, dataW *os.File
	sigR, sigW   *os.File
}

// NewHost creates the data pipe, the signal pipe and the shared segment. An
// empty dir means a fresh temporary directory, removed on Close.
func NewHost(dir string, capacity int) (*Host, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	h := &Host{dir: dir, capacity: capacity}
	if dir == "" {
		tmp, err := os.MkdirTemp("", "gotui-")
		if err != nil {
			return nil, domain.ErrChannelSetup("temp dir", err)
		}
		h.dir, h.ownDir = tmp, true
	}

	seg, err := CreateSegment(filepath.Join(h.dir, "segment"))
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	h.segment = seg

	h.dataR, h.dataW, err = os.Pipe()
	if err != nil {
		_ = h.Close()
		return nil, domain.ErrChannelSetup("data pipe", err)
	}
	h.sigR, h.sigW, err = os.Pipe()
	if err != nil {
		_ = h.Close()
		return nil, domain.ErrChannelSetup("signal pipe", err)
	}
	h.ready = NewPipeSignal(seg, h.sigR, h.sigW)

	return h, nil
}

// Endpoints returns what a worker needs to open its writer
func (h *Host) Endpoints() Endpoints {
	return Endpoints{
		DataFD:      DataFD,
		SignalFD:    SignalFD,
		SegmentPath: h.segment.Path(),
		Capacity:    h.capacity,
	}
}

// ExtraFiles are passed to the worker so they land on DataFD and SignalFD
func (h *Host) ExtraFiles() []*os.File {
	return []*os.File{h.dataW, h.sigR}
}

// Reader is the read end of the data pipe
func (h *Host) Reader() io.Reader {
	return h.dataR
}

// Capacity returns the channel capacity
func (h *Host) Capacity() int {
	return h.capacity
}

// Release returns n consumed bytes to the writer
func (h *Host) Release(n int) error {
	return Release(h.segment, h.ready, n)
}

// Wake sets the ready signal so a blocked writer re-checks the pipe
func (h *Host) Wake() error {
	if err := h.segment.Lock(); err != nil {
		return err
	}
	err := h.ready.Set()
	if uerr := h.segment.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}

// PipeSize returns the current count of unread bytes
func (h *Host) PipeSize() int64 {
	if err := h.segment.Lock(); err != nil {
		return -1
	}
	defer func() { _ = h.segment.Unlock() }()
	return h.segment.Load()
}

// Close releases every resource the host created
func (h *Host) Close() error {
	var errs []error
	for _, f := range []*os.File{h.dataR, h.dataW, h.sigR, h.sigW} {
		if f != nil {
			errs = append(errs, f.Close())
		}
	}
	if h.segment != nil {
		errs = append(errs, h.segment.Close(), h.segment.Remove())
	}
	if h.ownDir {
		errs = append(errs, os.RemoveAll(h.dir))
	}
	return errors.Join(errs...)
}

// OpenWriter attaches to the channel from inside a worker process
func OpenWriter(ep Endpoints) (*Writer, error) {
	seg, err := OpenSegment(ep.SegmentPath)
	if err != nil {
		return nil, err
	}

	data := os.NewFile(uintptr(ep.DataFD), "gotui-data")
	sig := os.NewFile(uintptr(ep.SignalFD), "gotui-signal")
	if data == nil || sig == nil {
		_ = seg.Close()
		return nil, domain.ErrChannelSetup("inherited descriptors", errors.Newf("fds %d/%d not open", ep.DataFD, ep.SignalFD))
	}

	w := NewWriter(data, seg, NewPipeSignal(seg, sig, nil), ep.Capacity)
	w.closers = []io.Closer{data, sig, seg}
	return w, nil
}
