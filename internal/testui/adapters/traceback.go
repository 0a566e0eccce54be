package adapters

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/DylanSharp/gotui/internal/testui/domain"
	"github.com/DylanSharp/gotui/internal/testui/ports"
)

var (
	panicRe     = regexp.MustCompile(`^panic: (.*?)(?: \[recovered\])?$`)
	goroutineRe = regexp.MustCompile(`^goroutine \d+ \[.*\]:$`)
	stackFileRe = regexp.MustCompile(`^\t(.+\.go):(\d+)(?: \+0x[0-9a-f]+)?$`)
	locationRe  = regexp.MustCompile(`^\s+([^\s:]+\.go):(\d+):(?: (.*))?$`)
)

// ParseFailure builds the exception for a failed test from its output: the
// panic and its stack when the test panicked, otherwise the file:line
// locations of t.Error and t.Fatal calls.
func ParseFailure(output, testName string) *ports.ExceptionInfo {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")

	if exc := parsePanic(lines); exc != nil {
		return exc
	}

	var frames []domain.Frame
	for _, line := range lines {
		m := locationRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		lineno, _ := strconv.Atoi(m[2])
		frames = append(frames, domain.Frame{
			Filename: m[1],
			Lineno:   lineno,
			Function: testName,
			Source:   readSourceLine(m[1], lineno),
		})
	}

	return &ports.ExceptionInfo{
		Type:   domain.ExcTypeFailure,
		Value:  failureText(lines),
		Frames: frames,
	}
}

// ParseSkip builds the skip exception from a skipped test's output
func ParseSkip(output string) *ports.ExceptionInfo {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	return &ports.ExceptionInfo{
		Type:  domain.ExcTypeSkip,
		Value: failureText(lines),
	}
}

func failureText(lines []string) string {
	kept := lo.Filter(lines, func(line string, _ int) bool {
		return strings.TrimSpace(line) != ""
	})
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, "\n") + "\n"
}

func parsePanic(lines []string) *ports.ExceptionInfo {
	start := slices.IndexFunc(lines, func(line string) bool {
		return panicRe.MatchString(line)
	})
	if start < 0 {
		return nil
	}
	value := panicRe.FindStringSubmatch(lines[start])[1]

	var frames []domain.Frame
	inStack := false
	for i := start + 1; i < len(lines); i++ {
		line := lines[i]
		if goroutineRe.MatchString(line) {
			// Only the first goroutine is the panicking one
			if inStack {
				break
			}
			inStack = true
			continue
		}
		if !inStack || strings.HasPrefix(line, "created by ") || i+1 >= len(lines) {
			continue
		}
		m := stackFileRe.FindStringSubmatch(lines[i+1])
		if m == nil {
			continue
		}
		lineno, _ := strconv.Atoi(m[2])
		frames = append(frames, domain.Frame{
			Filename: m[1],
			Lineno:   lineno,
			Function: stackFunction(line),
			Source:   readSourceLine(m[1], lineno),
		})
		i++
	}

	// Innermost first in the stack dump, outermost first in a traceback
	slices.Reverse(frames)

	own := lo.Filter(frames, func(f domain.Frame, _ int) bool {
		return f.Function != "panic" &&
			!strings.HasPrefix(f.Function, "runtime.") &&
			!strings.HasPrefix(f.Function, "testing.")
	})
	if len(own) > 0 {
		frames = own
	}

	return &ports.ExceptionInfo{
		Type:   domain.ExcTypePanic,
		Value:  value + "\n",
		Frames: frames,
	}
}

// stackFunction strips the argument list from a stack dump function line
func stackFunction(line string) string {
	line = strings.TrimSpace(line)
	if i := strings.LastIndex(line, "("); i > 0 {
		return line[:i]
	}
	return line
}

// readSourceLine returns a line of a source file, or "" when it cannot be read
func readSourceLine(filename string, lineno int) string {
	if !filepath.IsAbs(filename) || lineno <= 0 {
		return ""
	}
	f, err := os.Open(filename)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for n := 1; scanner.Scan(); n++ {
		if n == lineno {
			return strings.TrimSpace(scanner.Text())
		}
	}
	return ""
}
