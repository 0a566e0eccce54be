package ui

// BatchMsg carries the bytes of one channel read
type BatchMsg struct {
	Data []byte
}

// PipeClosedMsg indicates the channel reader has stopped
type PipeClosedMsg struct{}

// WorkerExitedMsg indicates a worker process has ended
type WorkerExitedMsg struct {
	Kind WorkerKind
	Err  error
}

// ErrorMsg wraps an error for Bubbletea
type ErrorMsg struct {
	Err error
}

// TickMsg is sent periodically for UI updates
type TickMsg struct{}
