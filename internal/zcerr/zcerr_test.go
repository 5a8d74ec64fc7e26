package zcerr

import (
	"errors"
	"testing"
)

func TestRecoverableCategories(t *testing.T) {
	if !ToolSchema(errors.New("x")).Recoverable() {
		t.Error("expected ToolSchema to be recoverable")
	}
	if !ToolExecution(errors.New("x")).Recoverable() {
		t.Error("expected ToolExecution to be recoverable")
	}
	if Input("bad").Recoverable() {
		t.Error("expected Input to be non-recoverable")
	}
	if Provider(errors.New("x")).Recoverable() {
		t.Error("expected Provider to be non-recoverable")
	}
}

func TestCancellationIsSilent(t *testing.T) {
	err := Cancellation()
	if !err.Silent() {
		t.Error("expected Cancellation to be silent")
	}
	if Input("bad").Silent() {
		t.Error("expected Input to not be silent")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := ToolExecution(cause)
	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to find wrapped cause")
	}
}
