package domain

import (
	jsoniter "github.com/json-iterator/go"
)

// Method is the tag of an event sent from a worker to the UI
type Method string

const (
	MethodItemCollected    Method = "item_collected"
	MethodSetTestState     Method = "set_test_state"
	MethodSetTestResult    Method = "set_test_result"
	MethodSetExceptionInfo Method = "set_exception_info"
	MethodSetPytestError   Method = "set_pytest_error"
	MethodInitFinished     Method = "init_finished"
)

// Event is one decoded wire message. Params stay raw until the dispatcher
// binds them to the method's params type.
type Event struct {
	Method Method              `json:"method"`
	Params jsoniter.RawMessage `json:"params"`
}

// Bind decodes the event params into v
func (e Event) Bind(v any) error {
	if len(e.Params) == 0 {
		return nil
	}
	return jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(e.Params, v)
}

// IsCompletion returns true for the worker's final event
func (e Event) IsCompletion() bool {
	return e.Method == MethodInitFinished
}

// ItemCollectedParams are the params of item_collected
type ItemCollectedParams struct {
	ItemID string `json:"item_id"`
}

// SetTestStateParams are the params of set_test_state
type SetTestStateParams struct {
	TestID string   `json:"test_id"`
	State  RunState `json:"state"`
}

// SetTestResultParams are the params of set_test_result
type SetTestResultParams struct {
	TestID             string      `json:"test_id"`
	Output             string      `json:"output"`
	ResultState        ResultState `json:"result_state"`
	When               string      `json:"when"`
	Outcome            string      `json:"outcome"`
	ExcType            string      `json:"exc_type,omitempty"`
	ExcValue           string      `json:"exc_value,omitempty"`
	ExtractedTraceback *Traceback  `json:"extracted_traceback,omitempty"`
	LastFailedExempt   *bool       `json:"last_failed_exempt,omitempty"`
}

// SetExceptionInfoParams are the params of set_exception_info
type SetExceptionInfoParams struct {
	TestID             string      `json:"test_id"`
	ExcType            string      `json:"exc_type"`
	ExcValue           string      `json:"exc_value"`
	ExtractedTraceback *Traceback  `json:"extracted_traceback"`
	ResultState        ResultState `json:"result_state"`
	When               string      `json:"when"`
}

// SetPytestErrorParams are the params of set_pytest_error
type SetPytestErrorParams struct {
	Exitcode    ExitCode `json:"exitcode"`
	Description *string  `json:"description"`
}

// EmptyParams is sent for events without payload
type EmptyParams struct{}
