package domain

// ExitCode is a process-level result of a test framework invocation
type ExitCode int

const (
	ExitAllCollected     ExitCode = 0
	ExitSomeFailed       ExitCode = 1
	ExitInterrupted      ExitCode = 2
	ExitInternalError    ExitCode = 3
	ExitUsageError       ExitCode = 4
	ExitNoTestsCollected ExitCode = 5

	// Own exit codes
	ExitCrashed ExitCode = 100
)

var exitCodeText = map[ExitCode]string{
	ExitAllCollected:     "All tests were collected and passed successfully",
	ExitSomeFailed:       "Tests were collected and run but some of the tests failed",
	ExitInterrupted:      "Test execution was interrupted by the user",
	ExitInternalError:    "Internal error happened while executing tests",
	ExitUsageError:       "go test command line usage error",
	ExitNoTestsCollected: "No tests were collected",
	ExitCrashed:          "go test crashed",
}

// Text returns the human description of an exit code
func (c ExitCode) Text() string {
	if text, ok := exitCodeText[c]; ok {
		return text
	}
	return "Unknown exit code"
}

// IsCollectError reports whether a collect-only invocation failed
func (c ExitCode) IsCollectError() bool {
	return c != ExitAllCollected
}

// IsRunError reports whether a run failed at the framework level. Test
// failures (ExitSomeFailed) are ordinary data, not an error.
func (c ExitCode) IsRunError() bool {
	switch c {
	case ExitInternalError, ExitUsageError, ExitNoTestsCollected, ExitCrashed:
		return true
	}
	return false
}
