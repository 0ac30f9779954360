// Package invariant holds assertions for internal consistency.
//
// A failed assertion is a programming error, never a consequence of user
// input, so every function here panics with a *Violation instead of
// returning an error.
package invariant

import (
	"fmt"
	"runtime"
)

// Violation is the panic value raised by a failed assertion.
type Violation struct {
	Kind    string
	Message string
	File    string
	Line    int
}

func (v *Violation) Error() string {
	if v.File == "" {
		return fmt.Sprintf("%s VIOLATION: %s", v.Kind, v.Message)
	}
	return fmt.Sprintf("%s VIOLATION: %s\n  at %s:%d", v.Kind, v.Message, v.File, v.Line)
}

// Precondition checks an input contract at function entry.
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Invariant checks internal state during execution.
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

func fail(kind, format string, args ...any) {
	v := &Violation{Kind: kind, Message: fmt.Sprintf(format, args...)}

	pc := make([]uintptr, 1)
	if runtime.Callers(3, pc) > 0 {
		frame, _ := runtime.CallersFrames(pc).Next()
		v.File, v.Line = frame.File, frame.Line
	}

	panic(v)
}
