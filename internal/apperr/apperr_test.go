package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOfWrapped(t *testing.T) {
	base := New(CodeValidation, "bad payload")
	wrapped := fmt.Errorf("put section: %w", base)

	if got := CodeOf(wrapped); got != CodeValidation {
		t.Fatalf("expected %s, got %s", CodeValidation, got)
	}
	if !errors.Is(wrapped, New(CodeValidation, "")) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(wrapped, New(CodeWrite, "")) {
		t.Fatal("expected code mismatch to fail errors.Is")
	}
}

func TestCodeOfPlainError(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != CodeUnknown {
		t.Fatalf("expected %s, got %s", CodeUnknown, got)
	}
	if got := CodeOf(nil); got != "" {
		t.Fatalf("expected empty code for nil, got %s", got)
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Wrap(CodeWrite, "save document", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected cause in chain")
	}
	if Message(err) != "save document" {
		t.Fatalf("unexpected message %q", Message(err))
	}
	if err.Error() != "save document: disk full" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{New(CodeNotFound, "x"), http.StatusNotFound},
		{New(CodeValidation, "x"), http.StatusBadRequest},
		{New(CodeAuth, "x"), http.StatusUnauthorized},
		{New(CodeNetwork, "x"), http.StatusBadGateway},
		{New(CodeUnavailable, "x"), http.StatusServiceUnavailable},
		{New(CodeWrite, "x"), http.StatusInternalServerError},
		{errors.New("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestNewfMessageHasNoStack(t *testing.T) {
	err := Newf(CodeValidation, "field %s is %d chars", "name", 3)
	if err.Message != "field name is 3 chars" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if got := fmt.Sprintf("%+v", err); got != err.Message {
		t.Fatalf("expected plain message under %%+v, got %q", got)
	}
}
