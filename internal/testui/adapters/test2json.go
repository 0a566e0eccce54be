package adapters

import (
	"regexp"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Actions of the go test -json stream
const (
	ActionStart       = "start"
	ActionRun         = "run"
	ActionPause       = "pause"
	ActionCont        = "cont"
	ActionPass        = "pass"
	ActionBench       = "bench"
	ActionFail        = "fail"
	ActionOutput      = "output"
	ActionSkip        = "skip"
	ActionBuildOutput = "build-output"
	ActionBuildFail   = "build-fail"
)

// TestEvent is one line of go test -json output
type TestEvent struct {
	Time       time.Time `json:"Time"`
	Action     string    `json:"Action"`
	Package    string    `json:"Package"`
	ImportPath string    `json:"ImportPath"`
	Test       string    `json:"Test"`
	Elapsed    float64   `json:"Elapsed"`
	Output     string    `json:"Output"`
}

// TopLevel returns the top-level test name of a possibly nested subtest
func (e TestEvent) TopLevel() string {
	name, _, _ := strings.Cut(e.Test, "/")
	return name
}

// IsTopLevel returns true if the event belongs to a top-level test itself
func (e TestEvent) IsTopLevel() bool {
	return e.Test != "" && !strings.Contains(e.Test, "/")
}

// ParseEvent decodes one line. ok is false for lines that are not events,
// which go test prints for some build failures.
func ParseEvent(line []byte) (TestEvent, bool) {
	var ev TestEvent
	if len(line) == 0 || line[0] != '{' {
		return ev, false
	}
	if err := json.Unmarshal(line, &ev); err != nil {
		return ev, false
	}
	return ev, ev.Action != ""
}

var listedTestRe = regexp.MustCompile(`^(Test|Example|Fuzz)\w*$`)

// ListedTest returns the test name printed by go test -list, if the output
// line is one.
func ListedTest(output string) (string, bool) {
	name := strings.TrimSpace(output)
	if !listedTestRe.MatchString(name) {
		return "", false
	}
	return name, true
}

// isFraming reports output lines go test adds around a test's own output
func isFraming(line string) bool {
	if strings.HasPrefix(line, "=== ") {
		return true
	}
	// Result line of the top-level test itself; subtest results are indented
	return strings.HasPrefix(line, "--- PASS: ") ||
		strings.HasPrefix(line, "--- FAIL: ") ||
		strings.HasPrefix(line, "--- SKIP: ")
}
