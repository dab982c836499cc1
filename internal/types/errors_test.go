// internal/types/errors_test.go
package types

import (
	"context"
	"errors"
	"testing"
)

func TestWrapKeepsCause(t *testing.T) {
	err := Wrap(KindExecution, "warehouse.query", context.DeadlineExceeded)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected wrapped error to match cause")
	}
	if KindOf(err) != KindExecution {
		t.Errorf("expected kind execution, got %q", KindOf(err))
	}
	if err.Error() != "execution: warehouse.query: context deadline exceeded" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(KindWrite, "op", nil) != nil {
		t.Error("expected nil")
	}
}

func TestKindOfUntagged(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Error("expected empty kind for untagged error")
	}
}

func TestErrorfWithoutOp(t *testing.T) {
	err := Errorf(KindConfig, "", "llm.api_key is required")
	if err.Error() != "config: llm.api_key is required" {
		t.Errorf("unexpected message %q", err.Error())
	}
}
