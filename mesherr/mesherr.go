// Package mesherr defines the closed taxonomy of error kinds used throughout
// the stack (spec §7): InvalidState, InvalidKeyLength, CryptoError,
// InvalidAddress, InsufficientSpace, InvalidKeyHandle, InvalidPDU,
// IncompleteTransaction, ParseError, SeqRolloverError.
package mesherr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one member of the error taxonomy. It is never a Go type in its own
// right (unlike a Rust-style error enum) — it is the discriminator carried by
// Error so callers can branch on it with Is/As instead of string matching.
type Kind int

const (
	// InvalidState means the operation is incompatible with the current
	// stack mode (e.g. a network PDU while Unprovisioned).
	InvalidState Kind = iota
	// InvalidKeyLength means key material was the wrong length for CMAC/CCM.
	InvalidKeyLength
	// CryptoError means AES-CCM open/seal failed (bad MIC, bad key...).
	CryptoError
	// InvalidAddress means an address field fell outside its valid range.
	InvalidAddress
	// InsufficientSpace means a bounded buffer, slot table or queue is full.
	InsufficientSpace
	// InvalidKeyHandle means a handle referenced key material that doesn't exist.
	InvalidKeyHandle
	// InvalidPDU means a PDU was malformed or failed to decrypt under any candidate key.
	InvalidPDU
	// IncompleteTransaction means a provisioning step timed out.
	IncompleteTransaction
	// ParseError means a sub-field failed to parse.
	ParseError
	// SeqRolloverError means the 24-bit sequence number space is exhausted.
	SeqRolloverError
)

var kindNames = [...]string{
	"InvalidState",
	"InvalidKeyLength",
	"CryptoError",
	"InvalidAddress",
	"InsufficientSpace",
	"InvalidKeyHandle",
	"InvalidPDU",
	"IncompleteTransaction",
	"ParseError",
	"SeqRolloverError",
}

func (k Kind) String() string {
	if int(k) < 0 || int(k) >= len(kindNames) {
 return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Error lets a bare Kind be used as an errors.Is/errors.As target
// (errors.Is(err, mesherr.CryptoError)) without allocating an *Error.
func (k Kind) Error() string {
	return k.String()
}

// Error is a mesherr.Kind with an optional wrapped cause and a short
// human-readable note. It satisfies the standard errors.Is/errors.As protocol
// via Unwrap, and exposes Kind for typed dispatch.
type Error struct {
	kind Kind
	note string
	cause error
}

// New creates an Error of the given kind with a note, no wrapped cause.
func New(kind Kind, note string) *Error {
	return &Error{kind: kind, note: note}
}

// Wrap creates an Error of the given kind wrapping cause, preserving cause's
// stack trace via github.com/pkg/errors the same way other_examples'
// chirpstack-network-server wraps storage/redis failures.
func Wrap(kind Kind, cause error, note string) *Error {
	return &Error{kind: kind, note: note, cause: errors.Wrap(cause, note)}
}

func (e *Error) Error() string {
	if e.cause != nil {
 return fmt.Sprintf("%s: %s", e.kind, e.cause)
	}
	if e.note != "" {
 return fmt.Sprintf("%s: %s", e.kind, e.note)
	}
	return e.kind.String()
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error's taxonomy member.
func (e *Error) Kind() Kind {
	return e.kind
}

// Is lets errors.Is(err, mesherr.InvalidPDU) work directly against a bare Kind
// sentinel, without requiring callers to construct an *Error to compare against.
func (e *Error) Is(target error) bool {
	if k, ok := target.(Kind); ok {
 return e.kind == k
	}
	var other *Error
	if errors.As(target, &other) {
 return e.kind == other.kind
	}
	return false
}

// Is implements comparison of a bare Kind against a wrapped *Error, so
// errors.Is(err, mesherr.CryptoError) works in either argument order.
func (k Kind) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
 return false
	}
	return other.kind == k
}
