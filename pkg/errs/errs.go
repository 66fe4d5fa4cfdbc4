// Package errs defines the error taxonomy shared by the ingestion pipeline:
// row-level parse failures, reference-data lookup misses, missing upstream
// resources and invariant violations.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals that an entire upstream resource is absent, as
	// opposed to a resource that exists but yields zero rows.
	ErrNotFound = errors.New("resource not found")

	// ErrInvariant marks a programmer error detected at runtime. It must
	// abort the batch.
	ErrInvariant = errors.New("invariant violation")

	// ErrMaxDepth is reported when a procedure tree is deeper than the
	// walker allows.
	ErrMaxDepth = errors.New("maximum tree depth exceeded")

	// ErrMalformed is the cause attached to ParseErrors that have no
	// more specific underlying error.
	ErrMalformed = errors.New("malformed value")
)

// ParseError reports a malformed numeric, boolean, date or reference
// token. It is fatal to the row being parsed, never to the batch.
type ParseError struct {
	Field string
	Value string
	Err   error
}

// NewParseError builds a ParseError, defaulting the cause to ErrMalformed.
func NewParseError(field, value string, cause error) *ParseError {
	if cause == nil {
		cause = ErrMalformed
	}
	return &ParseError{Field: field, Value: value, Err: cause}
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("cannot parse %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// LookupKind names the reference table a LookupMiss refers to.
type LookupKind string

const (
	LookupTexte  LookupKind = "texte"
	LookupAuteur LookupKind = "auteur"
	LookupGroupe LookupKind = "groupe"
)

// LookupMiss records a reference that was not found in reference data.
// It degrades gracefully: the caller counts it and moves on.
type LookupMiss struct {
	Kind LookupKind
	Key  string
	// Context identifies the record that carried the reference, e.g. the
	// amendment number or the stage label.
	Context string
}

func (m LookupMiss) Error() string {
	if m.Context == "" {
		return fmt.Sprintf("unknown %s %q", m.Kind, m.Key)
	}
	return fmt.Sprintf("unknown %s %q (%s)", m.Kind, m.Key, m.Context)
}

// Invariant wraps ErrInvariant with a formatted description.
func Invariant(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...))
}
