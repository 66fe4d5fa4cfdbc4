package errs

import (
	"errors"
	"strconv"
	"testing"
)

func TestParseErrorUnwrap(t *testing.T) {
	_, convErr := strconv.Atoi("12x")
	parseErr := NewParseError("num", "12x", convErr)

	if !errors.Is(parseErr, strconv.ErrSyntax) {
		t.Errorf("expected ParseError to wrap strconv.ErrSyntax, got %v", parseErr)
	}

	var target *ParseError
	if !errors.As(error(parseErr), &target) {
		t.Fatal("errors.As failed on *ParseError")
	}
	if target.Field != "num" {
		t.Errorf("Field = %q, want %q", target.Field, "num")
	}
}

func TestParseErrorDefaultCause(t *testing.T) {
	parseErr := NewParseError("", "maybe", nil)
	if !errors.Is(parseErr, ErrMalformed) {
		t.Errorf("expected default cause ErrMalformed, got %v", parseErr.Err)
	}
	if parseErr.Error() != `cannot parse "maybe": malformed value` {
		t.Errorf("unexpected message: %s", parseErr.Error())
	}
}

func TestLookupMissMessage(t *testing.T) {
	miss := LookupMiss{Kind: LookupAuteur, Key: "99999A", Context: "amendement 42"}
	want := `unknown auteur "99999A" (amendement 42)`
	if miss.Error() != want {
		t.Errorf("Error() = %q, want %q", miss.Error(), want)
	}
}

func TestInvariant(t *testing.T) {
	err := Invariant("count mismatch: %d != %d", 3, 4)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("expected ErrInvariant, got %v", err)
	}
}
