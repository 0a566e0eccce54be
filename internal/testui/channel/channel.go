// Package channel implements the bounded byte pipe between a worker process
// and the UI.
//
// The writer accounts every chunk in a shared Counter before writing it and
// blocks while the unread total would exceed the capacity. The reader
// decrements the counter by what it consumed and raises the ready Signal.
// Both sides mutate the counter only while holding its lock, and Set/Clear on
// the signal are only called under that same lock.
package channel

import (
	"context"
	"sync"
)

// DefaultCapacity is the maximum number of unread bytes in the pipe
const DefaultCapacity = 4096

// Counter is the shared count of bytes written but not yet consumed
type Counter interface {
	Lock() error
	Unlock() error
	// Load and Add must be called with the lock held
	Load() int64
	Add(delta int64) int64
}

// Signal is a level-triggered wakeup flag. The writer clears it before
// waiting, the reader sets it after releasing space.
type Signal interface {
	Set() error
	Clear() error
	Wait(ctx context.Context) error
	IsSet() bool
}

// MemCounter is a Counter for a writer and reader in the same process
type MemCounter struct {
	mu    sync.Mutex
	value int64
}

// NewMemCounter creates a zeroed counter
func NewMemCounter() *MemCounter {
	return &MemCounter{}
}

func (c *MemCounter) Lock() error {
	c.mu.Lock()
	return nil
}

func (c *MemCounter) Unlock() error {
	c.mu.Unlock()
	return nil
}

func (c *MemCounter) Load() int64 {
	return c.value
}

func (c *MemCounter) Add(delta int64) int64 {
	c.value += delta
	return c.value
}

// MemSignal is an in-process Signal
type MemSignal struct {
	mu  sync.Mutex
	set bool
	ch  chan struct{} // closed while set
}

// NewMemSignal creates a cleared signal
func NewMemSignal() *MemSignal {
	return &MemSignal{ch: make(chan struct{})}
}

func (s *MemSignal) Set() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.set {
		s.set = true
		close(s.ch)
	}
	return nil
}

func (s *MemSignal) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.set {
		s.set = false
		s.ch = make(chan struct{})
	}
	return nil
}

// Wait blocks until the signal is set or ctx is done
func (s *MemSignal) Wait(ctx context.Context) error {
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *MemSignal) IsSet() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set
}
