package invariant_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/opal-lang/golfc/core/invariant"
)

func expectPanic(t *testing.T, kind, fragment string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected %s panic", kind)
		}
		msg := fmt.Sprintf("%v", r)
		if !strings.Contains(msg, kind+" VIOLATION") {
			t.Errorf("expected %s VIOLATION, got: %s", kind, msg)
		}
		if !strings.Contains(msg, fragment) {
			t.Errorf("expected %q in message, got: %s", fragment, msg)
		}
		if !strings.Contains(msg, "at ") {
			t.Errorf("expected caller location, got: %s", msg)
		}
	}()
	fn()
}

func TestConditionsPass(t *testing.T) {
	invariant.Precondition(true, "never shown")
	invariant.Postcondition(1+1 == 2, "never shown")
	invariant.Invariant(len("x") == 1, "never shown")
	invariant.NotNil(&struct{}{}, "value")
	invariant.Arity("add", 2, 2, 2)
	invariant.Arity("list", 0, 0, -1)
	invariant.ExpectNoError(nil, "encode")
}

func TestConditionsFail(t *testing.T) {
	expectPanic(t, "PRECONDITION", "index call needs a collection", func() {
		invariant.Precondition(false, "index call needs a collection")
	})
	expectPanic(t, "POSTCONDITION", "tree must shrink", func() {
		invariant.Postcondition(false, "tree must shrink")
	})
	expectPanic(t, "INVARIANT", "required phase must converge", func() {
		invariant.Invariant(false, "required phase must converge")
	})
}

func TestNotNilTypedNil(t *testing.T) {
	var ptr *strings.Builder
	expectPanic(t, "PRECONDITION", "body must not be nil", func() {
		invariant.NotNil(ptr, "body")
	})
	expectPanic(t, "PRECONDITION", "body must not be nil", func() {
		invariant.NotNil(nil, "body")
	})
}

func TestArity(t *testing.T) {
	tests := []struct {
		name     string
		got      int
		min, max int
		want     string
	}{
		{"exact", 3, 2, 2, "add expects 2 arguments, got 3"},
		{"range", 0, 1, 3, "add expects 1 to 3 arguments, got 0"},
		{"variadic", 1, 2, -1, "add expects at least 2 arguments, got 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectPanic(t, "PRECONDITION", tt.want, func() {
				invariant.Arity("add", tt.got, tt.min, tt.max)
			})
		})
	}
}

func TestExpectNoError(t *testing.T) {
	expectPanic(t, "POSTCONDITION", "cbor encode must not fail: boom", func() {
		invariant.ExpectNoError(errors.New("boom"), "cbor encode")
	})
}
