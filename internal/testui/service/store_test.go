package service

import (
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

type recordingListener struct {
	initCount   int
	resultIDs   []string
	lineIDs     []string
	focusIDs    []string
	errorTitle  string
	errorBody   string
	errorRaised int
}

func (l *recordingListener) InitTestList() { l.initCount++ }

func (l *recordingListener) UpdateTestResult(rec *domain.TestRecord) {
	l.resultIDs = append(l.resultIDs, rec.ID)
}

func (l *recordingListener) UpdateTestLine(rec *domain.TestRecord) {
	l.lineIDs = append(l.lineIDs, rec.ID)
}

func (l *recordingListener) FocusTest(rec *domain.TestRecord) {
	l.focusIDs = append(l.focusIDs, rec.ID)
}

func (l *recordingListener) ShowStartupError(title, body string) {
	l.errorTitle = title
	l.errorBody = body
	l.errorRaised++
}

func result(id string, state domain.ResultState, when, outcome string) domain.SetTestResultParams {
	return domain.SetTestResultParams{TestID: id, ResultState: state, When: when, Outcome: outcome, Output: when + " output"}
}

func ids(recs []*domain.TestRecord) []string {
	return lo.Map(recs, func(rec *domain.TestRecord, _ int) string { return rec.ID })
}

func TestStore_ItemCollectedIsIdempotent(t *testing.T) {
	l := &recordingListener{}
	s := NewStore(l)

	s.ItemCollected("p::TestA")
	s.SetTestResult(result("p::TestA", domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))
	first, ok := s.Get("p::TestA")
	require.True(t, ok)
	before := *first
	initsBefore := l.initCount

	s.ItemCollected("p::TestA")

	rec, _ := s.Get("p::TestA")
	assert.Equal(t, before, *rec)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, initsBefore, l.initCount)
}

func TestStore_CollectionOrder(t *testing.T) {
	s := NewStore(nil)
	for _, id := range []string{"p::TestC", "p::TestA", "p::TestB"} {
		s.ItemCollected(id)
	}
	assert.Equal(t, []string{"p::TestC", "p::TestA", "p::TestB"}, ids(s.CurrentTestList()))
	assert.Equal(t, 1, s.Position("p::TestA"))
	assert.Equal(t, -1, s.Position("p::Missing"))
}

func TestStore_Reconciliation(t *testing.T) {
	l := &recordingListener{}
	s := NewStore(l)
	s.ItemCollected("p::TestA")

	require.NoError(t, s.SetTestState("p::TestA", domain.RunStateSetup))
	s.SetTestResult(result("p::TestA", domain.ResultOK, domain.PhaseSetup, domain.OutcomePassed))

	rec, _ := s.Get("p::TestA")
	assert.Equal(t, domain.ResultNone, rec.ResultState, "passing setup is ignored")
	assert.Equal(t, domain.RunStateSetup, rec.RunState)

	require.NoError(t, s.SetTestState("p::TestA", domain.RunStateCall))
	s.SetTestResult(result("p::TestA", domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))
	require.NoError(t, s.SetTestState("p::TestA", domain.RunStateTeardown))
	s.SetTestResult(result("p::TestA", domain.ResultOK, domain.PhaseTeardown, domain.OutcomePassed))

	assert.Equal(t, domain.ResultFailed, rec.ResultState)
	assert.Equal(t, "call output", rec.Output)
	assert.Equal(t, domain.RunStateNone, rec.RunState)
	assert.Equal(t, []string{"p::TestA"}, l.resultIDs)
}

func TestStore_FirstResultWins(t *testing.T) {
	s := NewStore(nil)
	s.ItemCollected("p::TestA")

	s.SetTestResult(result("p::TestA", domain.ResultError, domain.PhaseSetup, domain.OutcomeFailed))
	s.SetTestResult(result("p::TestA", domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))
	s.SetTestResult(result("p::TestA", domain.ResultError, domain.PhaseTeardown, domain.OutcomeFailed))

	rec, _ := s.Get("p::TestA")
	assert.Equal(t, domain.ResultError, rec.ResultState)
	assert.Equal(t, "setup output", rec.Output)
}

func TestStore_TeardownAlwaysClearsRunState(t *testing.T) {
	s := NewStore(nil)
	s.ItemCollected("p::TestA")
	s.SetTestResult(result("p::TestA", domain.ResultOK, domain.PhaseCall, domain.OutcomePassed))
	require.NoError(t, s.SetTestState("p::TestA", domain.RunStateTeardown))

	s.SetTestResult(result("p::TestA", domain.ResultFailed, domain.PhaseTeardown, domain.OutcomeFailed))

	rec, _ := s.Get("p::TestA")
	assert.Equal(t, domain.ResultOK, rec.ResultState)
	assert.Equal(t, domain.RunStateNone, rec.RunState)
}

func TestStore_ResultForUnseenTest(t *testing.T) {
	l := &recordingListener{}
	s := NewStore(l)
	s.ItemCollected("p::TestA")
	inits := l.initCount

	s.SetTestResult(result("p::TestNew", domain.ResultOK, domain.PhaseCall, domain.OutcomePassed))

	assert.Equal(t, inits+1, l.initCount)
	assert.Empty(t, l.resultIDs)
	assert.Equal(t, []string{"p::TestA", "p::TestNew"}, ids(s.CurrentTestList()))
	assert.Equal(t, 1, s.Position("p::TestNew"))
}

func TestStore_StrictXFail(t *testing.T) {
	s := NewStore(nil)
	s.ItemCollected("p::TestStrict")
	s.ItemCollected("p::TestFail")
	s.ItemCollected("p::TestOK")

	s.SetTestResult(domain.SetTestResultParams{
		TestID:           "p::TestStrict",
		ResultState:      domain.ResultFailed,
		When:             domain.PhaseCall,
		Outcome:          domain.OutcomePassed,
		LastFailedExempt: lo.ToPtr(true),
	})
	s.SetTestResult(result("p::TestFail", domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))
	s.SetTestResult(result("p::TestOK", domain.ResultOK, domain.PhaseCall, domain.OutcomePassed))

	rec, _ := s.Get("p::TestStrict")
	assert.Equal(t, domain.ResultFailed, rec.ResultState)
	assert.True(t, rec.LastFailedExempt)

	assert.Equal(t, []string{"p::TestFail"},
		ids(s.Tests(TestQuery{FailedOnly: true, ExcludeLFExempt: true})))
	assert.Equal(t, []string{"p::TestStrict", "p::TestFail"},
		ids(s.Tests(TestQuery{FailedOnly: true})))
}

func TestStore_LastFailedExemptOnlyFromCall(t *testing.T) {
	s := NewStore(nil)
	s.ItemCollected("p::TestA")

	p := result("p::TestA", domain.ResultOK, domain.PhaseSetup, domain.OutcomePassed)
	p.LastFailedExempt = lo.ToPtr(true)
	s.SetTestResult(p)

	rec, _ := s.Get("p::TestA")
	assert.False(t, rec.LastFailedExempt)
}

func TestStore_SetExceptionInfo(t *testing.T) {
	s := NewStore(nil)
	s.ItemCollected("p::TestA")

	frames := []domain.Frame{{Filename: "a_test.go", Lineno: 7, Function: "TestA", Source: "t.Fatal(err)"}}
	s.SetExceptionInfo(domain.SetExceptionInfoParams{
		TestID:             "p::TestA",
		ExcType:            domain.ExcTypeFailure,
		ExcValue:           "a_test.go:7: boom\n",
		ExtractedTraceback: domain.NewTraceback(frames),
		ResultState:        domain.ResultFailed,
		When:               domain.PhaseCall,
	})
	// The report that follows an exception does not replace it
	s.SetTestResult(result("p::TestA", domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))

	rec, _ := s.Get("p::TestA")
	assert.Equal(t, domain.ResultFailed, rec.ResultState)
	assert.Equal(t, domain.ExcTypeFailure, rec.ExcType)
	assert.Equal(t, frames, rec.Traceback)
	assert.Equal(t, "  File \"a_test.go\", line 7, in TestA\n    t.Fatal(err)\na_test.go:7: boom\n", rec.Output)
}

func TestStore_SetTestStateUnknown(t *testing.T) {
	s := NewStore(nil)
	err := s.SetTestState("p::Nope", domain.RunStateCall)
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeUnknownTest, domain.GetErrorCode(err))
}

func TestStore_SetTestStateFocuses(t *testing.T) {
	l := &recordingListener{}
	s := NewStore(l)
	s.ItemCollected("p::TestA")

	require.NoError(t, s.SetTestState("p::TestA", domain.RunStateCall))
	assert.Equal(t, []string{"p::TestA"}, l.focusIDs)
	assert.Equal(t, []string{"p::TestA"}, l.lineIDs)
}

func TestStore_SetPytestError(t *testing.T) {
	tests := []struct {
		name        string
		code        domain.ExitCode
		description *string
		want        string
	}{
		{
			name: "without description",
			code: domain.ExitNoTestsCollected,
			want: "No tests were collected (exitcode 5)",
		},
		{
			name:        "with description",
			code:        domain.ExitInternalError,
			description: lo.ToPtr("a.go:1: syntax error"),
			want:        "Internal error happened while executing tests\n---------- description ----------\na.go:1: syntax error (exitcode 3)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &recordingListener{}
			s := NewStore(l)
			s.ItemCollected("p::TestA")

			s.SetPytestError(tt.code, tt.description)

			assert.False(t, s.ShowCollected())
			assert.Equal(t, StartupErrorTitle, l.errorTitle)
			assert.Equal(t, tt.want, l.errorBody)
			assert.Empty(t, s.CurrentTestList(), "collected tests without result are hidden")
		})
	}
}

func TestStore_ClearAndInvalidate(t *testing.T) {
	s := NewStore(nil)
	for _, id := range []string{"p::TestA", "p::TestB"} {
		s.ItemCollected(id)
		s.SetTestResult(result(id, domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))
	}

	s.InvalidateTestResults(s.Tests(TestQuery{FailedOnly: true}))

	for _, id := range []string{"p::TestA", "p::TestB"} {
		rec, _ := s.Get(id)
		assert.Equal(t, domain.ResultNone, rec.ResultState)
		assert.Empty(t, rec.Output)
	}
	require.Error(t, s.ClearTestResult("p::Nope"))
}

func TestStore_FilterAndStats(t *testing.T) {
	s := NewStore(nil)
	s.ItemCollected("a::TestAdd")
	s.ItemCollected("a::TestSub")
	s.ItemCollected("b::TestAddAll")
	s.SetTestResult(result("a::TestAdd", domain.ResultOK, domain.PhaseCall, domain.OutcomePassed))
	s.SetTestResult(result("b::TestAddAll", domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))

	assert.Equal(t, TestStats{Total: 3, Filtered: 3, Failed: 2}, s.GetTestStats())

	require.NoError(t, s.SetFilter("add"))
	assert.Equal(t, "add", s.FilterValue())
	assert.Equal(t, []string{"a::TestAdd", "b::TestAddAll"}, ids(s.CurrentTestList()))
	assert.Equal(t, TestStats{Total: 3, Filtered: 2, Failed: 1}, s.GetTestStats())
	assert.Equal(t, 1, s.Position("b::TestAddAll"))
	assert.Equal(t, -1, s.Position("a::TestSub"))

	require.Error(t, s.SetFilter("#("))
	assert.Equal(t, "add", s.FilterValue(), "invalid filter keeps the previous one")

	require.NoError(t, s.SetFilter(""))
	assert.Len(t, s.CurrentTestList(), 3)
}

func TestStore_ShowFailedOnly(t *testing.T) {
	l := &recordingListener{}
	s := NewStore(l)
	s.ItemCollected("p::TestA")
	s.ItemCollected("p::TestB")
	s.ItemCollected("p::TestC")
	s.SetTestResult(result("p::TestA", domain.ResultOK, domain.PhaseCall, domain.OutcomePassed))
	s.SetTestResult(result("p::TestB", domain.ResultXFail, domain.PhaseCall, domain.OutcomeSkipped))

	inits := l.initCount
	s.SetShowFailedOnly(true)
	assert.True(t, s.ShowFailedOnly())
	assert.Equal(t, inits+1, l.initCount)

	// TestC has no result yet, which counts as failing
	assert.Equal(t, []string{"p::TestC"}, ids(s.CurrentTestList()))
}

func TestStore_ResultsOnly(t *testing.T) {
	s := NewStore(nil)
	s.ItemCollected("p::TestA")
	s.ItemCollected("p::TestB")
	s.SetTestResult(result("p::TestB", domain.ResultOK, domain.PhaseCall, domain.OutcomePassed))

	assert.Equal(t, []string{"p::TestB"}, ids(s.Tests(TestQuery{ResultsOnly: true})))
	assert.Len(t, s.Tests(TestQuery{}), 2)
}

func TestStore_GetFailedSibling(t *testing.T) {
	s := NewStore(nil)
	failing := map[int]bool{2: true, 5: true, 9: true}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("p::Test%02d", i)
		s.ItemCollected(id)
		if failing[i] {
			s.SetTestResult(result(id, domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))
		} else {
			s.SetTestResult(result(id, domain.ResultOK, domain.PhaseCall, domain.OutcomePassed))
		}
	}

	tests := []struct {
		name      string
		position  int
		direction int
		want      string
	}{
		{"next", 5, 1, "p::Test09"},
		{"previous", 5, -1, "p::Test02"},
		{"no wrap forward", 9, 1, ""},
		{"no wrap backward", 2, -1, ""},
		{"from start", 0, 1, "p::Test02"},
		{"zero direction", 5, 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.GetFailedSibling(tt.position, tt.direction))
		})
	}
}

func TestStore_GetFailedSiblingWithinFilter(t *testing.T) {
	s := NewStore(nil)
	s.ItemCollected("a::TestOne")
	s.ItemCollected("b::TestTwo")
	s.ItemCollected("a::TestThree")
	for _, id := range []string{"a::TestOne", "b::TestTwo", "a::TestThree"} {
		s.SetTestResult(result(id, domain.ResultFailed, domain.PhaseCall, domain.OutcomeFailed))
	}
	require.NoError(t, s.SetFilter("a::"))

	// Positions are within the filtered list: [a::TestOne, a::TestThree]
	assert.Equal(t, "a::TestThree", s.GetFailedSibling(0, 1))
	assert.Equal(t, 1, s.Position("a::TestThree"))
}
