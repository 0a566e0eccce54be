package domain

import (
	"fmt"
	"strings"
)

// Frame is one stack frame of a failure location
type Frame struct {
	Filename string
	Lineno   int
	Function string
	Source   string
}

// Traceback is the transport form of a stack: a linked chain of frames,
// outermost first.
type Traceback struct {
	Filename string     `json:"filename"`
	Lineno   int        `json:"lineno"`
	Function string     `json:"function"`
	Source   string     `json:"source,omitempty"`
	Next     *Traceback `json:"next,omitempty"`
}

// NewTraceback links frames into a Traceback. Returns nil for no frames.
func NewTraceback(frames []Frame) *Traceback {
	var head *Traceback
	for i := len(frames) - 1; i >= 0; i-- {
		f := frames[i]
		head = &Traceback{
			Filename: f.Filename,
			Lineno:   f.Lineno,
			Function: f.Function,
			Source:   f.Source,
			Next:     head,
		}
	}
	return head
}

// Frames flattens the chain back into frames
func (t *Traceback) Frames() []Frame {
	var frames []Frame
	for tb := t; tb != nil; tb = tb.Next {
		frames = append(frames, Frame{
			Filename: tb.Filename,
			Lineno:   tb.Lineno,
			Function: tb.Function,
			Source:   tb.Source,
		})
	}
	return frames
}

// FormatFrames renders frames the way a stack listing reads:
//
//	File "x_test.go", line 12, in TestX
//	    require.Equal(t, 1, 2)
func FormatFrames(frames []Frame) string {
	var sb strings.Builder
	for _, f := range frames {
		fmt.Fprintf(&sb, "  File %q, line %d, in %s\n", f.Filename, f.Lineno, f.Function)
		if src := strings.TrimSpace(f.Source); src != "" {
			sb.WriteString("    ")
			sb.WriteString(src)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
