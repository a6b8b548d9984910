package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAs(t *testing.T) {
	base := errors.New("ttl_seconds must not be negative")
	wrapped := fmt.Errorf("hold: %w", BadRequest("invalid_ttl", base))

	e, ok := As(wrapped)
	if !ok {
		t.Fatalf("expected *Error in chain")
	}
	if e.Status != http.StatusBadRequest || e.Code != "invalid_ttl" {
		t.Fatalf("unexpected %+v", e)
	}
	if !errors.Is(wrapped, base) {
		t.Fatalf("Unwrap should expose the cause")
	}
	if _, ok := As(base); ok {
		t.Fatalf("plain error should not match")
	}
}
