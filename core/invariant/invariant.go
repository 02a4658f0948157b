// Package invariant provides contract assertions for the golfc compiler core.
//
// Assertions guard programming errors only: malformed IR construction, phase
// configuration bugs and broken engine bookkeeping. User-facing failures (a
// target language that cannot express a construct, an unknown op tag in
// textual IR) are returned as errors, never asserted.
//
// All functions panic on violation.
package invariant

import (
	"fmt"
	"reflect"
	"runtime"
)

// Precondition checks an input contract at function entry.
// Panics with PRECONDITION VIOLATION if condition is false.
//
// Example:
//
//	func NewIndexCall(collection, index Node) *IndexCall {
//	    invariant.Precondition(collection != nil, "index call needs a collection")
//	    // ...
//	}
func Precondition(condition bool, format string, args ...any) {
	if !condition {
		fail("PRECONDITION", format, args...)
	}
}

// Postcondition checks an output contract before function return.
// Panics with POSTCONDITION VIOLATION if condition is false.
func Postcondition(condition bool, format string, args ...any) {
	if !condition {
		fail("POSTCONDITION", format, args...)
	}
}

// Invariant checks an internal invariant during function execution.
// Panics with INVARIANT VIOLATION if condition is false.
//
// Example:
//
//	for sweep := 0; changed; sweep++ {
//	    invariant.Invariant(sweep <= maxSweeps, "required phase must converge")
//	}
func Invariant(condition bool, format string, args ...any) {
	if !condition {
		fail("INVARIANT", format, args...)
	}
}

// NotNil panics if value is nil, including typed nils such as (*ir.Block)(nil)
// stored in an ir.Node interface.
func NotNil(value any, name string) {
	if isNilValue(value) {
		fail("PRECONDITION", "%s must not be nil", name)
	}
}

func isNilValue(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

// Arity panics if got does not satisfy the declared arity of a node or op.
// A negative max means the arity is unbounded above.
func Arity(name string, got, minArgs, maxArgs int) {
	if got < minArgs || (maxArgs >= 0 && got > maxArgs) {
		if maxArgs < 0 {
			fail("PRECONDITION", "%s expects at least %d arguments, got %d", name, minArgs, got)
		}
		if minArgs == maxArgs {
			fail("PRECONDITION", "%s expects %d arguments, got %d", name, minArgs, got)
		}
		fail("PRECONDITION", "%s expects %d to %d arguments, got %d", name, minArgs, maxArgs, got)
	}
}

// ExpectNoError panics if err is not nil.
// This is a postcondition check for operations that cannot fail on valid input,
// such as canonical encoding of an in-memory IR tree.
func ExpectNoError(err error, msg string) {
	if err != nil {
		fail("POSTCONDITION", "%s must not fail: %v", msg, err)
	}
}

// fail panics with a formatted message including the caller's location.
func fail(kind, format string, args ...any) {
	pc := make([]uintptr, 10)
	n := runtime.Callers(3, pc)
	frames := runtime.CallersFrames(pc[:n])

	msg := fmt.Sprintf("%s VIOLATION: "+format, append([]any{kind}, args...)...)
	if frame, ok := frames.Next(); ok {
		msg += fmt.Sprintf("\n  at %s:%d", frame.File, frame.Line)
	}

	panic(msg)
}
