package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for rule construction and decoding.
var (
	// ErrInvalidPattern indicates a type or member pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid pattern")
	// ErrMalformedCondition indicates a record with only some of property, operator and value.
	ErrMalformedCondition = errors.New("malformed condition")
	// ErrDecode indicates a rule resource that is not a well-formed record array.
	ErrDecode = errors.New("malformed rule resource")
)

// PatternError reports a record whose type or member pattern does not compile.
type PatternError struct {
	Resource string
	Index    int
	// Field is "type" or "member".
	Field   string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s pattern %q has a syntax error: %v", e.Field, e.Pattern, e.Err)
	}

	return fmt.Sprintf("%s: rule at index %d has a %s pattern %q with a syntax error: %v",
		e.Resource, e.Index, e.Field, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Is matches [ErrInvalidPattern].
func (e *PatternError) Is(target error) bool { return target == ErrInvalidPattern }

// MalformedConditionError reports a record that only partially defines a condition.
type MalformedConditionError struct {
	Resource string
	Index    int
	// Missing lists the absent condition fields.
	Missing []string
}

func (e *MalformedConditionError) Error() string {
	return fmt.Sprintf("%s: rule at index %d contains a partially defined condition (missing %s)",
		e.Resource, e.Index, strings.Join(e.Missing, ", "))
}

// Is matches [ErrMalformedCondition].
func (e *MalformedConditionError) Is(target error) bool { return target == ErrMalformedCondition }

// DecodeError reports a resource or record with the wrong JSON shape.
// Index is -1 when the document as a whole could not be decoded.
type DecodeError struct {
	Resource string
	Index    int
	Err      error
}

func (e *DecodeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %v", e.Resource, e.Err)
	}

	return fmt.Sprintf("%s: rule at index %d: %v", e.Resource, e.Index, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is matches [ErrDecode].
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// RecordIndex extracts the offending record index from a decode failure.
// It returns -1 and false when err carries no record position.
func RecordIndex(err error) (int, bool) {
	var patternErr *PatternError
	if errors.As(err, &patternErr) {
		return patternErr.Index, true
	}

	var condErr *MalformedConditionError
	if errors.As(err, &condErr) {
		return condErr.Index, true
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) && decodeErr.Index >= 0 {
		return decodeErr.Index, true
	}

	return -1, false
}
