//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=driver.go -destination=mocks/mock_driver.go -package=mocks

package ports

import (
	"context"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

// TestItem is one collected test
type TestItem struct {
	// Package is the import path of the test's package
	Package string
	// Name is the top-level test function name
	Name string
}

// Report is the outcome of one phase of one test
type Report struct {
	TestID  string
	When    string
	Outcome string
	// Output is the captured output of the phase
	Output string
}

// ExceptionInfo describes a failure or a skip raised during a phase
type ExceptionInfo struct {
	Type   string
	Value  string
	Frames []domain.Frame
}

// IsSkip returns true if the exception is a deliberate skip
func (e *ExceptionInfo) IsSkip() bool {
	return e != nil && e.Type == domain.ExcTypeSkip
}

// XFail marks a test that is expected to fail
type XFail struct {
	Strict bool
	Reason string
}

// RunOptions controls a test run
type RunOptions struct {
	// FailedOnly restricts the run to the tests that failed last time
	FailedOnly bool
}

// TestDriver is the test framework the worker drives
type TestDriver interface {
	// TestID returns the stable id of a collected item
	TestID(item TestItem) string

	// InitTests collects the tests under path without running them
	InitTests(ctx context.Context, path string, plugin Plugin) (domain.ExitCode, string)

	// RunTests collects and runs the tests under path. The plugin may narrow
	// the selection before anything runs.
	RunTests(ctx context.Context, path string, opts RunOptions, plugin Plugin) (domain.ExitCode, string)
}

// Plugin receives the driver's lifecycle callbacks. A non-nil error means
// the event could not be delivered and the driver should stop.
type Plugin interface {
	ItemCollected(ctx context.Context, item TestItem) error

	// CollectionModifyItems returns the subset of items to run
	CollectionModifyItems(items []TestItem) []TestItem

	RuntestSetup(ctx context.Context, item TestItem) error
	RuntestCall(ctx context.Context, item TestItem) error
	RuntestTeardown(ctx context.Context, item TestItem) error
	RuntestLogreport(ctx context.Context, report Report) error

	// ExceptionInteract reports a failure or skip. exc is nil for an
	// expected failure that passed.
	ExceptionInteract(ctx context.Context, item TestItem, exc *ExceptionInfo, when string, xfail *XFail) error
}
