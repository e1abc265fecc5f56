// Package vm implements the Gravity runtime core: the tagged value/heap
// object model's collector, the register-based bytecode interpreter,
// fibers, and the embedding API.
package vm

import (
	"fmt"
	"strings"

	"github.com/kristofer/gravity/pkg/value"
)

// StackFrame represents a single frame in a fiber's call stack at the
// time an error was raised.
type StackFrame struct {
	Name       string // function/method identifier
	Selector   string // message selector, for a method-send frame
	IP         int    // instruction pointer at time of call
	SourceLine int    // 0 if unknown (bytecode carries no line info)
	SourceCol  int
}

// RuntimeError is a Gravity runtime error with its fiber's call stack
// captured at the moment it was raised.
type RuntimeError struct {
	Message    string
	StackTrace []StackFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.StackTrace) > 0 {
		b.WriteString("\n\nStack trace:")
		for i := len(e.StackTrace) - 1; i >= 0; i-- {
			frame := e.StackTrace[i]
			b.WriteString(fmt.Sprintf("\n  at %s", frame.Name))
			if frame.Selector != "" {
				b.WriteString(fmt.Sprintf(" (selector: %s)", frame.Selector))
			}
			if frame.SourceLine > 0 {
				b.WriteString(fmt.Sprintf(" [line %d:%d]", frame.SourceLine, frame.SourceCol))
			}
			b.WriteString(fmt.Sprintf(" [IP: %d]", frame.IP))
		}
	}
	return b.String()
}

func newRuntimeError(message string, stack []StackFrame) *RuntimeError {
	return &RuntimeError{Message: message, StackTrace: stack}
}

// ErrorKind classifies a reported error for the embedding API's
// Delegate.ReportError channel.
type ErrorKind int

const (
	ErrorRuntime ErrorKind = iota
	ErrorSyntax            // surfaced by an embedder-driven compile step
	ErrorIO
	ErrorSemantic
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorSyntax:
		return "syntax"
	case ErrorIO:
		return "io"
	case ErrorSemantic:
		return "semantic"
	default:
		return "runtime"
	}
}

// captureStack snapshots a fiber's current call frames into the
// StackFrame form a RuntimeError carries.
func captureStack(f *value.Fiber) []StackFrame {
	frames := make([]StackFrame, 0, len(f.Frames))
	for _, cf := range f.Frames {
		name := "<anonymous>"
		if cf.Closure != nil && cf.Closure.Fn != nil && cf.Closure.Fn.Identifier != "" {
			name = cf.Closure.Fn.Identifier
		}
		frames = append(frames, StackFrame{Name: name, IP: cf.IP})
	}
	return frames
}
