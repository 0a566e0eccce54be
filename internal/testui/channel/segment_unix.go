//go:build unix

package channel

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
	"golang.org/x/sys/unix"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

const (
	segmentSize  = 16
	counterOff   = 0
	signalOff    = 8
	pollInterval = 100 * time.Millisecond
)

// Segment is a small file mapped into every participating process. It holds
// the pipe size counter and the ready flag. Access is serialized by an flock
// on <path>.lock, taken on top of an in-process mutex.
type Segment struct {
	path string
	file *os.File
	data []byte
	lock *flock.Flock
	mu   sync.Mutex
}

var _ Counter = (*Segment)(nil)

// CreateSegment creates (or truncates) the segment file at path, zeroed
func CreateSegment(path string) (*Segment, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, domain.ErrChannelSetup("create segment", err)
	}
	if err := f.Truncate(segmentSize); err != nil {
		_ = f.Close()
		return nil, domain.ErrChannelSetup("size segment", err)
	}
	return mapSegment(path, f)
}

// OpenSegment maps an existing segment created by another process
func OpenSegment(path string) (*Segment, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, domain.ErrChannelSetup("open segment", err)
	}
	return mapSegment(path, f)
}

func mapSegment(path string, f *os.File) (*Segment, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, segmentSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = f.Close()
		return nil, domain.ErrChannelSetup("map segment", err)
	}
	return &Segment{
		path: path,
		file: f,
		data: data,
		lock: flock.New(path + ".lock"),
	}, nil
}

// Path returns the segment file path
func (s *Segment) Path() string {
	return s.path
}

func (s *Segment) Lock() error {
	s.mu.Lock()
	if err := s.lock.Lock(); err != nil {
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Segment) Unlock() error {
	err := s.lock.Unlock()
	s.mu.Unlock()
	return err
}

func (s *Segment) counter() *int64 {
	return (*int64)(unsafe.Pointer(&s.data[counterOff]))
}

func (s *Segment) flag() *int32 {
	return (*int32)(unsafe.Pointer(&s.data[signalOff]))
}

func (s *Segment) Load() int64 {
	return atomic.LoadInt64(s.counter())
}

func (s *Segment) Add(delta int64) int64 {
	return atomic.AddInt64(s.counter(), delta)
}

// Close unmaps the segment. The files stay on disk until Remove.
func (s *Segment) Close() error {
	var errs []error
	if s.data != nil {
		errs = append(errs, unix.Munmap(s.data))
		s.data = nil
	}
	errs = append(errs, s.lock.Close(), s.file.Close())
	return errors.Join(errs...)
}

// Remove deletes the segment and lock files
func (s *Segment) Remove() error {
	err := os.Remove(s.path)
	if lerr := os.Remove(s.path + ".lock"); lerr != nil && !os.IsNotExist(lerr) && err == nil {
		err = lerr
	}
	return err
}

// PipeSignal is the cross-process ready signal. The flag word lives in the
// segment; one byte sits in the signal pipe exactly while the flag is set, so
// a waiter can block on the pipe's read end. The setting process owns the
// write end, the clearing and waiting process owns the read end.
type PipeSignal struct {
	seg *Segment
	r   *os.File
	w   *os.File
}

var _ Signal = (*PipeSignal)(nil)

// NewPipeSignal binds the flag in seg to a signal pipe. Either end may be nil
// when this process never performs the matching operation.
func NewPipeSignal(seg *Segment, r, w *os.File) *PipeSignal {
	return &PipeSignal{seg: seg, r: r, w: w}
}

// Set raises the flag. Must be called with the segment locked.
func (p *PipeSignal) Set() error {
	if atomic.LoadInt32(p.seg.flag()) == 1 {
		return nil
	}
	if p.w == nil {
		return errors.New("ready signal has no write end")
	}
	atomic.StoreInt32(p.seg.flag(), 1)
	if _, err := p.w.Write([]byte{1}); err != nil {
		atomic.StoreInt32(p.seg.flag(), 0)
		return domain.ErrChannelClosed(err)
	}
	return nil
}

// Clear lowers the flag. Must be called with the segment locked.
func (p *PipeSignal) Clear() error {
	if atomic.LoadInt32(p.seg.flag()) == 0 {
		return nil
	}
	if p.r == nil {
		return errors.New("ready signal has no read end")
	}
	var b [1]byte
	if _, err := p.r.Read(b[:]); err != nil {
		return domain.ErrChannelClosed(err)
	}
	atomic.StoreInt32(p.seg.flag(), 0)
	return nil
}

// IsSet reports the flag
func (p *PipeSignal) IsSet() bool {
	return atomic.LoadInt32(p.seg.flag()) == 1
}

// Wait blocks until the flag is set, the setter's end of the pipe is closed,
// or ctx is done.
func (p *PipeSignal) Wait(ctx context.Context) error {
	if p.r == nil {
		return errors.New("ready signal has no read end")
	}
	fds := []unix.PollFd{{Fd: int32(p.r.Fd()), Events: unix.POLLIN}}

	for {
		if p.IsSet() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fds[0].Revents = 0
		_, err := unix.Poll(fds, int(pollInterval/time.Millisecond))
		if err != nil && !errors.Is(err, unix.EINTR) {
			return domain.ErrChannelClosed(err)
		}
		if fds[0].Revents&unix.POLLHUP != 0 && fds[0].Revents&unix.POLLIN == 0 {
			return domain.ErrChannelClosed(errors.New("ready signal writer closed"))
		}
	}
}
