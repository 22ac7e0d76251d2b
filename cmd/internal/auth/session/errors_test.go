package session

import (
	"errors"
	"fmt"
	"testing"
)

func TestReuseError_UnwrapsToReuseDetected(t *testing.T) {
	var err error = ReuseError{UserID: "u1", TokenID: "t1"}

	if !errors.Is(err, ErrReuseDetected) {
		t.Fatal("ReuseError does not unwrap to ErrReuseDetected")
	}

	wrapped := fmt.Errorf("rotate: %w", err)
	if !errors.Is(wrapped, ErrReuseDetected) {
		t.Fatal("wrapped ReuseError lost its identity")
	}

	var re ReuseError
	if !errors.As(wrapped, &re) || re.UserID != "u1" {
		t.Fatalf("errors.As failed to recover ReuseError, got %+v", re)
	}
}
