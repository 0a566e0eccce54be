//go:build !unix

package channel

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

var errUnsupported = errors.New("shared segment is not supported on this platform")

// Segment is unavailable on this platform
type Segment struct{}

func CreateSegment(path string) (*Segment, error) {
	return nil, domain.ErrChannelSetup("create segment", errUnsupported)
}

func OpenSegment(path string) (*Segment, error) {
	return nil, domain.ErrChannelSetup("open segment", errUnsupported)
}

func (s *Segment) Path() string { return "" }
func (s *Segment) Lock() error { return errUnsupported }
func (s *Segment) Unlock() error { return errUnsupported }
func (s *Segment) Load() int64 { return 0 }
func (s *Segment) Add(delta int64) int64 { return 0 }
func (s *Segment) Close() error { return nil }
func (s *Segment) Remove() error { return nil }

// PipeSignal is unavailable on this platform
type PipeSignal struct{}

func NewPipeSignal(seg *Segment, r, w *os.File) *PipeSignal {
	return &PipeSignal{}
}

func (p *PipeSignal) Set() error { return errUnsupported }
func (p *PipeSignal) Clear() error { return errUnsupported }
func (p *PipeSignal) IsSet() bool { return false }
func (p *PipeSignal) Wait(ctx context.Context) error { return errUnsupported }
