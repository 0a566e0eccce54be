package adapters

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DylanSharp/gotui/internal/config"
	"github.com/DylanSharp/gotui/internal/testui/domain"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		ok     bool
		action string
		test   string
	}{
		{"run event", `{"Action":"run","Package":"p","Test":"TestA"}`, true, ActionRun, "TestA"},
		{"build output", `{"ImportPath":"p","Action":"build-output","Output":"x"}`, true, ActionBuildOutput, ""},
		{"plain text", "# example.com/p", false, "", ""},
		{"empty", "", false, "", ""},
		{"broken json", `{"Action":`, false, "", ""},
		{"no action", `{"Package":"p"}`, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := ParseEvent([]byte(tt.line))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.action, ev.Action)
				assert.Equal(t, tt.test, ev.Test)
			}
		})
	}
}

func TestTestEvent_TopLevel(t *testing.T) {
	ev := TestEvent{Test: "TestA/sub/deeper"}
	assert.Equal(t, "TestA", ev.TopLevel())
	assert.False(t, ev.IsTopLevel())

	assert.True(t, TestEvent{Test: "TestA"}.IsTopLevel())
	assert.False(t, TestEvent{}.IsTopLevel())
}

func TestListedTest(t *testing.T) {
	tests := []struct {
		output string
		name   string
		ok     bool
	}{
		{"TestFoo\n", "TestFoo", true},
		{"Test\n", "Test", true},
		{"ExampleBar_baz\n", "ExampleBar_baz", true},
		{"FuzzParse\n", "FuzzParse", true},
		{"BenchmarkX\n", "", false},
		{"ok  \texample.com/p\t0.01s\n", "", false},
		{"?   \texample.com/p\t[no test files]\n", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.output, func(t *testing.T) {
			name, ok := ListedTest(tt.output)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestIsFraming(t *testing.T) {
	assert.True(t, isFraming("=== RUN   TestA\n"))
	assert.True(t, isFraming("=== PAUSE TestA\n"))
	assert.True(t, isFraming("--- FAIL: TestA (0.00s)\n"))
	assert.False(t, isFraming("    --- FAIL: TestA/sub (0.00s)\n"))
	assert.False(t, isFraming("    a_test.go:4: boom\n"))
}

func TestParseFailure_Locations(t *testing.T) {
	output := "    a_test.go:12: expected 3\n" +
		"    a_test.go:14: \n" +
		"        \tError Trace:\t/src/a_test.go:14\n" +
		"\n"

	exc := ParseFailure(output, "TestSum")
	require.NotNil(t, exc)
	assert.Equal(t, domain.ExcTypeFailure, exc.Type)
	assert.Equal(t, []domain.Frame{
		{Filename: "a_test.go", Lineno: 12, Function: "TestSum"},
		{Filename: "a_test.go", Lineno: 14, Function: "TestSum"},
	}, exc.Frames)
	assert.Equal(t, "    a_test.go:12: expected 3\n    a_test.go:14: \n        \tError Trace:\t/src/a_test.go:14\n", exc.Value)
}

func TestParseFailure_NoLocations(t *testing.T) {
	exc := ParseFailure("", "TestA")
	require.NotNil(t, exc)
	assert.Empty(t, exc.Frames)
	assert.Empty(t, exc.Value)
}

func TestParseFailure_Panic(t *testing.T) {
	output := `panic: runtime error: index out of range [3] with length 2 [recovered]
	panic: runtime error: index out of range [3] with length 2

goroutine 7 [running]:
testing.tRunner.func1.2({0x5d1f40, 0xc0000a4030})
	/usr/local/go/src/testing/testing.go:1632 +0x230
panic({0x5d1f40?, 0xc0000a4030?})
	/usr/local/go/src/runtime/panic.go:785 +0x132
example.com/p.pick(...)
	/src/p/p.go:9
example.com/p.TestPick(0xc000003380)
	/src/p/p_test.go:6 +0x1d
testing.tRunner(0xc000003380, 0x615d18)
	/usr/local/go/src/testing/testing.go:1690 +0xf4
created by testing.(*T).Run in goroutine 1
	/usr/local/go/src/testing/testing.go:1743 +0x390

goroutine 1 [chan receive]:
testing.(*T).Run(0xc0000031e0, {0x60a3e2?, 0x0?}, 0x615d18)
	/usr/local/go/src/testing/testing.go:1751 +0x3ab
`

	exc := ParseFailure(output, "TestPick")
	require.NotNil(t, exc)
	assert.Equal(t, domain.ExcTypePanic, exc.Type)
	assert.Equal(t, "runtime error: index out of range [3] with length 2\n", exc.Value)
	require.Len(t, exc.Frames, 2)
	assert.Equal(t, "example.com/p.TestPick", exc.Frames[0].Function)
	assert.Equal(t, "/src/p/p_test.go", exc.Frames[0].Filename)
	assert.Equal(t, 6, exc.Frames[0].Lineno)
	assert.Equal(t, "example.com/p.pick", exc.Frames[1].Function)
	assert.Equal(t, 9, exc.Frames[1].Lineno)
}

func TestParseFailure_PanicReadsSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "x_test.go")
	require.NoError(t, os.WriteFile(src, []byte("package x\n\nfunc f() {\n\tpanic(\"boom\")\n}\n"), 0o644))

	output := "panic: boom\n\ngoroutine 5 [running]:\nexample.com/x.f()\n\t" + src + ":4 +0x25\n"

	exc := ParseFailure(output, "TestX")
	require.Len(t, exc.Frames, 1)
	assert.Equal(t, `panic("boom")`, exc.Frames[0].Source)
}

func TestParseSkip(t *testing.T) {
	exc := ParseSkip("    c_test.go:3: needs docker\n")
	assert.True(t, exc.IsSkip())
	assert.Equal(t, "    c_test.go:3: needs docker\n", exc.Value)
	assert.Empty(t, exc.Frames)
}

func TestXFailMatcher(t *testing.T) {
	m, err := NewXFailMatcher([]config.XFailRule{
		{Pattern: `::TestFlaky`, Reason: "flaky"},
		{Pattern: `^example\.com/legacy::`, Strict: true},
	})
	require.NoError(t, err)

	x := m.Match("example.com/p::TestFlakyNetwork")
	require.NotNil(t, x)
	assert.Equal(t, "flaky", x.Reason)
	assert.False(t, x.Strict)

	x = m.Match("example.com/legacy::TestOld")
	require.NotNil(t, x)
	assert.True(t, x.Strict)

	assert.Nil(t, m.Match("example.com/p::TestStable"))

	var none *XFailMatcher
	assert.Nil(t, none.Match("anything"))
}

func TestXFailMatcher_BadPattern(t *testing.T) {
	_, err := NewXFailMatcher([]config.XFailRule{{Pattern: "("}})
	require.Error(t, err)
}

func TestLastFailedCache(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewLastFailedCache(dir, "/some/project")
	require.NoError(t, err)
	assert.Equal(t, dir, filepath.Dir(cache.Path()))

	failed, err := cache.Load()
	require.NoError(t, err)
	assert.Empty(t, failed)

	require.NoError(t, cache.Update(map[string]bool{"p::TestA": true, "p::TestB": true}))
	require.NoError(t, cache.Update(map[string]bool{"p::TestA": false, "p::TestC": true}))

	failed, err = cache.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"p::TestB": true, "p::TestC": true}, failed)
}

func TestLastFailedCache_PerProject(t *testing.T) {
	dir := t.TempDir()
	a, err := NewLastFailedCache(dir, "/project/a")
	require.NoError(t, err)
	b, err := NewLastFailedCache(dir, "/project/b")
	require.NoError(t, err)
	assert.NotEqual(t, a.Path(), b.Path())
}

func TestLastFailedCache_Corrupt(t *testing.T) {
	dir := t.TempDir()
	cache, err := NewLastFailedCache(dir, "/some/project")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cache.Path(), []byte("{not json"), 0o644))

	failed, err := cache.Load()
	require.NoError(t, err)
	assert.Empty(t, failed)

	require.NoError(t, cache.Update(map[string]bool{"p::TestA": true}))
	failed, err = cache.Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"p::TestA": true}, failed)
}

func TestExecRunner_Stream(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	var lines []string
	stderr, code, err := ExecRunner{}.Stream(context.Background(), t.TempDir(), "sh",
		[]string{"-c", "echo one; echo two; echo oops >&2; exit 3"},
		func(line []byte) error {
			lines = append(lines, string(line))
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, code)
	assert.Equal(t, "oops\n", stderr)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestExecRunner_StopsOnLineError(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	stop := assert.AnError
	_, _, err := ExecRunner{}.Stream(context.Background(), "", "sh",
		[]string{"-c", "while true; do echo line; done"},
		func([]byte) error { return stop })

	assert.ErrorIs(t, err, stop)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	_, _, err := ExecRunner{}.Stream(context.Background(), "", "gotui-no-such-binary", nil,
		func([]byte) error { return nil })
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
