package domain

// ResultState is the single summarizing verdict shown for a test
type ResultState string

const (
	ResultNone    ResultState = ""
	ResultOK      ResultState = "ok"
	ResultFailed  ResultState = "failed"
	ResultError   ResultState = "error"
	ResultSkipped ResultState = "skipped"
	ResultXFail   ResultState = "xfail"
	ResultXPass   ResultState = "xpass"
	ResultUnknown ResultState = "N/A"
)

// RunState is the execution phase a test is currently in
type RunState string

const (
	RunStateNone     RunState = ""
	RunStateSetup    RunState = "setup"
	RunStateCall     RunState = "call"
	RunStateTeardown RunState = "teardown"
)

// Phase names for the `when` field of results
const (
	PhaseSetup    = "setup"
	PhaseCall     = "call"
	PhaseTeardown = "teardown"
)

// Raw outcomes reported by the test framework
const (
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// Exception types reported by the driver
const (
	ExcTypeSkip    = "testing.SkipNow"
	ExcTypePanic   = "panic"
	ExcTypeFailure = "testing.T.Fail"
)

// ResultStateFor maps a raw framework outcome to a display state.
// The second return value is false for outcomes outside the known vocabulary.
func ResultStateFor(outcome string) (ResultState, bool) {
	switch outcome {
	case "":
		return ResultNone, true
	case OutcomePassed:
		return ResultOK, true
	case OutcomeFailed:
		return ResultFailed, true
	case OutcomeSkipped:
		return ResultSkipped, true
	}
	return ResultUnknown, false
}

// IsFailure reports whether a state counts as failing for "rerun failed" and
// failure navigation. A test with no result yet is failing.
func (s ResultState) IsFailure() bool {
	switch s {
	case ResultFailed, ResultError, ResultNone:
		return true
	}
	return false
}

// TestRecord is the Store's entity for one test id
type TestRecord struct {
	ID               string
	ResultState      ResultState
	Output           string
	RunState         RunState
	Position         int
	LastFailedExempt bool

	ExcType   string
	ExcValue  string
	Traceback []Frame
}

// NewTestRecord creates an empty record for id
func NewTestRecord(id string) *TestRecord {
	return &TestRecord{ID: id, Position: -1}
}

// IsFailed returns true if the record's result counts as a failure
func (r *TestRecord) IsFailed() bool {
	return r == nil || r.ResultState.IsFailure()
}

// IsRunning returns true while the test is in any execution phase
func (r *TestRecord) IsRunning() bool {
	return r.RunState != RunStateNone
}

// HasResult returns true once a result state has been recorded
func (r *TestRecord) HasResult() bool {
	return r.ResultState != ResultNone
}

// Clear resets the result fields before a rerun
func (r *TestRecord) Clear() {
	r.ResultState = ResultNone
	r.Output = ""
	r.ExcType = ""
	r.ExcValue = ""
	r.Traceback = nil
}
