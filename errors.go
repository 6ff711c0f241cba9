package snarkagg

import (
	"errors"
	"fmt"
)

// Structural errors: the input cannot be checked at all.
var (
	ErrKeyMismatch       = errors.New("verification key mismatch")
	ErrArityMismatch     = errors.New("public input arity mismatch")
	ErrUnknownKey        = errors.New("unknown verification key")
	ErrMalformedEncoding = errors.New("malformed encoding")
	ErrEmptyBatch        = errors.New("empty aggregation batch")
	ErrKeyResolution     = errors.New("key resolution failure")
	ErrAttestedInput     = errors.New("attestation aggregate cannot be aggregated recursively")
	ErrForeignSRS        = errors.New("key was set up with another srs")
)

// Backend errors: validity could not be determined.
var (
	ErrCircuitConstruction = errors.New("circuit construction failure")
)

// ErrorClass separates inputs that must be fixed by the caller from backend
// failures.
type ErrorClass int

const (
	ClassUnknown ErrorClass = iota
	ClassStructural
	ClassBackend
)

func (c ErrorClass) String() string {
	switch c {
	case ClassStructural:
		return "structural"
	case ClassBackend:
		return "backend"
	default:
		return "unknown"
	}
}

// Classify returns the class of err. A construction failure wrapping a
// structural cause is still a backend error.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ClassUnknown
	case errors.Is(err, ErrCircuitConstruction):
		return ClassBackend
	case errors.Is(err, ErrKeyMismatch),
		errors.Is(err, ErrArityMismatch),
		errors.Is(err, ErrUnknownKey),
		errors.Is(err, ErrMalformedEncoding),
		errors.Is(err, ErrEmptyBatch),
		errors.Is(err, ErrKeyResolution),
		errors.Is(err, ErrAttestedInput),
		errors.Is(err, ErrForeignSRS):
		return ClassStructural
	default:
		return ClassUnknown
	}
}

func WrapKeyMismatch(expected, actual KeyID) error {
	return fmt.Errorf("%w: field=verification_key_id expected=%s actual=%s", ErrKeyMismatch, expected, actual)
}

func WrapArityMismatch(expected, actual int) error {
	return fmt.Errorf("%w: field=public_inputs expected=%d actual=%d", ErrArityMismatch, expected, actual)
}

func WrapUnknownKey(id KeyID) error {
	return fmt.Errorf("%w: id=%s", ErrUnknownKey, id)
}

func WrapMalformed(field string, err error) error {
	return fmt.Errorf("%w: field=%s: %v", ErrMalformedEncoding, field, err)
}

func WrapKeyResolution(slot int, id KeyID) error {
	return fmt.Errorf("%w: slot=%d id=%s", ErrKeyResolution, slot, id)
}

func WrapCircuitConstruction(reason string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrCircuitConstruction, reason)
	}
	return fmt.Errorf("%w: %s: %w", ErrCircuitConstruction, reason, err)
}

func WrapAttestedInput(slot int, id KeyID) error {
	return fmt.Errorf("%w: slot=%d id=%s", ErrAttestedInput, slot, id)
}

func WrapForeignSRS(slot int, id KeyID) error {
	return fmt.Errorf("%w: slot=%d id=%s", ErrForeignSRS, slot, id)
}
