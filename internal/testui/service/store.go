package service

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/DylanSharp/gotui/internal/logging"
	"github.com/DylanSharp/gotui/internal/testui/domain"
	"github.com/DylanSharp/gotui/internal/testui/ports"
)

// StartupErrorTitle is the title of the modal raised for a failed go test
// invocation
const StartupErrorTitle = "go test init/collect failed"

// TestQuery selects a subset of the Store's tests. The zero value selects
// every test.
type TestQuery struct {
	// FailedOnly keeps tests whose result counts as a failure
	FailedOnly bool
	// Filtered keeps tests matching the current filter
	Filtered bool
	// ExcludeLFExempt drops tests flagged last_failed_exempt
	ExcludeLFExempt bool
	// ResultsOnly drops tests that were collected but have no result yet
	ResultsOnly bool
}

// TestStats are the counts shown in the status line
type TestStats struct {
	Total    int
	Filtered int
	Failed   int
}

// Store is the event-sourced state of one session: every known test in
// collection order, their results and the view settings. It is not safe for
// concurrent use; the UI update loop is its only writer.
type Store struct {
	tests map[string]*domain.TestRecord
	order []string

	filter         *Filter
	showFailedOnly bool
	showCollected  bool

	// current caches CurrentTestList until the next mutation
	current []*domain.TestRecord
	dirty   bool

	listener ports.StoreListener
	log      zerolog.Logger
}

// NewStore creates an empty store notifying listener. A nil listener is
// allowed.
func NewStore(listener ports.StoreListener) *Store {
	if listener == nil {
		listener = nopListener{}
	}
	return &Store{
		tests:         map[string]*domain.TestRecord{},
		showCollected: true,
		dirty:         true,
		listener:      listener,
		log:           logging.Get("ui", "store"),
	}
}

func (s *Store) add(id string) *domain.TestRecord {
	rec := domain.NewTestRecord(id)
	s.tests[id] = rec
	s.order = append(s.order, id)
	s.dirty = true
	return rec
}

// ItemCollected registers a discovered test. A known id is ignored.
func (s *Store) ItemCollected(id string) {
	if _, ok := s.tests[id]; ok {
		s.log.Warn().Str("test_id", id).Msg("ignoring duplicate collect")
		return
	}
	s.add(id)
	s.listener.InitTestList()
}

// SetTestResult folds one phase result into the test's record.
//
// Passing setup and teardown phases are ignored, and the first result
// recorded wins over later phases. A teardown always ends the run state.
func (s *Store) SetTestResult(p domain.SetTestResultParams) {
	rec, known := s.tests[p.TestID]
	if !known {
		rec = s.add(p.TestID)
	}

	output := p.Output
	var frames []domain.Frame
	if p.ExtractedTraceback != nil {
		frames = p.ExtractedTraceback.Frames()
		output += domain.FormatFrames(frames) + p.ExcValue
	}

	if p.When == domain.PhaseCall && p.LastFailedExempt != nil {
		rec.LastFailedExempt = *p.LastFailedExempt
	}

	changed := false
	if (p.Outcome != domain.OutcomePassed || p.When == domain.PhaseCall) && !rec.HasResult() {
		rec.ResultState = p.ResultState
		rec.Output = output
		rec.ExcType = p.ExcType
		rec.ExcValue = p.ExcValue
		rec.Traceback = frames
		s.dirty = true
		changed = true
	}

	switch {
	case !known:
		s.listener.InitTestList()
	case changed:
		s.listener.UpdateTestResult(rec)
	}

	if p.When == domain.PhaseTeardown {
		rec.RunState = domain.RunStateNone
		s.listener.UpdateTestLine(rec)
	}
}

// SetExceptionInfo records an exception as the result of the phase it
// happened in. The output becomes the formatted traceback and the exception
// text.
func (s *Store) SetExceptionInfo(p domain.SetExceptionInfoParams) {
	s.SetTestResult(domain.SetTestResultParams{
		TestID:             p.TestID,
		ResultState:        p.ResultState,
		When:               p.When,
		Outcome:            string(p.ResultState),
		ExcType:            p.ExcType,
		ExcValue:           p.ExcValue,
		ExtractedTraceback: p.ExtractedTraceback,
	})
}

// SetTestState marks the phase a test is executing
func (s *Store) SetTestState(id string, state domain.RunState) error {
	rec, ok := s.tests[id]
	if !ok {
		return domain.ErrUnknownTest(id)
	}
	rec.RunState = state
	s.listener.UpdateTestLine(rec)
	s.listener.FocusTest(rec)
	return nil
}

// SetPytestError hides collected-only tests and raises the startup error
func (s *Store) SetPytestError(code domain.ExitCode, description *string) {
	s.SetShowCollected(false)

	output := code.Text()
	if description != nil {
		output += "\n---------- description ----------\n" + *description
	}
	s.listener.ShowStartupError(StartupErrorTitle, fmt.Sprintf("%s (exitcode %d)", output, int(code)))
}

// ClearTestResult resets a test's result before it is rerun
func (s *Store) ClearTestResult(id string) error {
	rec, ok := s.tests[id]
	if !ok {
		return domain.ErrUnknownTest(id)
	}
	rec.Clear()
	s.dirty = true
	s.listener.UpdateTestLine(rec)
	return nil
}

// InvalidateTestResults clears the results of every record in recs
func (s *Store) InvalidateTestResults(recs []*domain.TestRecord) {
	for _, rec := range recs {
		if err := s.ClearTestResult(rec.ID); err != nil {
			s.log.Warn().Err(err).Msg("could not clear result")
		}
	}
}

// SetFilter compiles value as the list filter. On error the previous filter
// stays active.
func (s *Store) SetFilter(value string) error {
	f, err := CompileFilter(value)
	if err != nil {
		return err
	}
	s.filter = f
	s.dirty = true
	return nil
}

// FilterValue returns the text of the active filter
func (s *Store) FilterValue() string {
	return s.filter.Value()
}

// SetShowFailedOnly toggles hiding tests that did not fail
func (s *Store) SetShowFailedOnly(v bool) {
	s.showFailedOnly = v
	s.dirty = true
	s.listener.InitTestList()
}

// ShowFailedOnly returns the failed-only view setting
func (s *Store) ShowFailedOnly() bool {
	return s.showFailedOnly
}

// SetShowCollected toggles listing tests without a result
func (s *Store) SetShowCollected(v bool) {
	s.showCollected = v
	s.dirty = true
	s.listener.InitTestList()
}

// ShowCollected returns the show-collected view setting
func (s *Store) ShowCollected() bool {
	return s.showCollected
}

// Get returns the record of a test
func (s *Store) Get(id string) (*domain.TestRecord, bool) {
	rec, ok := s.tests[id]
	return rec, ok
}

// Len returns the number of known tests
func (s *Store) Len() int {
	return len(s.order)
}

// Position returns the index of a test in the current list, or -1
func (s *Store) Position(id string) int {
	s.CurrentTestList()
	rec, ok := s.tests[id]
	if !ok {
		return -1
	}
	return rec.Position
}

// IsTestFailed reports whether rec counts as a failure. A missing record is
// failed.
func (s *Store) IsTestFailed(rec *domain.TestRecord) bool {
	return rec.IsFailed()
}

// Tests returns the tests matching q in collection order
func (s *Store) Tests(q TestQuery) []*domain.TestRecord {
	return lo.FilterMap(s.order, func(id string, _ int) (*domain.TestRecord, bool) {
		rec := s.tests[id]
		switch {
		case q.FailedOnly && !rec.IsFailed():
			return nil, false
		case q.Filtered && !s.filter.IsMatch(id):
			return nil, false
		case q.ExcludeLFExempt && rec.LastFailedExempt:
			return nil, false
		case q.ResultsOnly && !rec.HasResult():
			return nil, false
		}
		return rec, true
	})
}

// CurrentTestList returns the tests to display given the view settings. Every
// call after a mutation rebuilds the list and reassigns positions.
func (s *Store) CurrentTestList() []*domain.TestRecord {
	if !s.dirty {
		return s.current
	}

	var list []*domain.TestRecord
	if s.filter == nil && !s.showFailedOnly && s.showCollected {
		list = lo.Map(s.order, func(id string, _ int) *domain.TestRecord { return s.tests[id] })
	} else {
		list = s.Tests(TestQuery{
			FailedOnly:  s.showFailedOnly,
			Filtered:    s.filter != nil,
			ResultsOnly: !s.showCollected,
		})
	}

	for _, rec := range s.tests {
		rec.Position = -1
	}
	for i, rec := range list {
		rec.Position = i
	}

	s.current = list
	s.dirty = false
	return list
}

// GetTestStats counts all tests, the displayed ones and the displayed failures
func (s *Store) GetTestStats() TestStats {
	current := s.CurrentTestList()
	return TestStats{
		Total:    len(s.order),
		Filtered: len(current),
		Failed:   lo.CountBy(current, func(rec *domain.TestRecord) bool { return rec.IsFailed() }),
	}
}

// GetFailedSibling scans the current list from position in direction (+1 or
// -1) and returns the id of the next failing test, or "" at either end.
func (s *Store) GetFailedSibling(position, direction int) string {
	current := s.CurrentTestList()
	if direction == 0 {
		return ""
	}
	for pos := position + direction; pos >= 0 && pos < len(current); pos += direction {
		if current[pos].IsFailed() {
			return current[pos].ID
		}
	}
	return ""
}

type nopListener struct{}

func (nopListener) InitTestList() {}
func (nopListener) UpdateTestResult(*domain.TestRecord) {}
func (nopListener) UpdateTestLine(*domain.TestRecord) {}
func (nopListener) FocusTest(*domain.TestRecord) {}
func (nopListener) ShowStartupError(string, string) {}
