// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package asnlex

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. The typed errors below wrap exactly one of these.
var (
	// fatal, scanning stops
	ErrEncoding            = errors.New("invalid utf-8")
	ErrUnterminatedComment = errors.New("unterminated comment")
	ErrUnterminatedString  = errors.New("unterminated string")
	ErrUnexpectedCharacter = errors.New("unexpected character")

	// recoverable, reported as diagnostics
	ErrInvalidIdentifier  = errors.New("invalid identifier")
	ErrMalformedNumber    = errors.New("malformed number")
	ErrMalformedString    = errors.New("malformed string")
	ErrUnknownPunctuation = errors.New("unknown punctuation")

	// literal resolution
	ErrInvalidOidIri = errors.New("invalid OID-IRI")

	// caller contract violations
	ErrDoubleResolution = errors.New("literal resolved twice")
	ErrUnknownHandle    = errors.New("unknown literal handle")
	ErrHandleMismatch   = errors.New("literal text does not match handle")
	ErrUnresolved       = errors.New("literal not resolved")
)

// EncodingError is returned when the input is not valid UTF-8.
type EncodingError struct {
	Offset int  // byte offset of the first invalid byte
	Byte   byte // the invalid byte
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%d: %v: byte 0x%02x", e.Offset, ErrEncoding, e.Byte)
}

func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// LexError is a scanning error at a span of the source. When IsFatal
// reports true for it, no tokens follow it; otherwise it was reported as a
// diagnostic and scanning continued.
type LexError struct {
	Err  error // one of the fatal or recoverable sentinels
	Span Span
	Rune rune   // offending scalar for ErrUnexpectedCharacter
	Text string // offending lexeme for the recoverable errors
}

func (e *LexError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnexpectedCharacter):
		return fmt.Sprintf("%d:%d: %v %U", e.Span.Line, e.Span.Column, e.Err, e.Rune)
	case e.Text != "":
		return fmt.Sprintf("%d:%d: %v %q", e.Span.Line, e.Span.Column, e.Err, e.Text)
	}
	return fmt.Sprintf("%d:%d: %v", e.Span.Line, e.Span.Column, e.Err)
}

func (e *LexError) Unwrap() error {
	return e.Err
}

// IdentifierError is returned when a candidate fails the identifier profile.
type IdentifierError struct {
	Offset int    // byte offset of the offending scalar
	Text   string // the candidate as written
	Reason string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrInvalidIdentifier, e.Text, e.Reason)
}

func (e *IdentifierError) Unwrap() error {
	return ErrInvalidIdentifier
}

// LiteralError is returned when an ambiguous literal cannot take the
// requested interpretation. It is attributed to the literal's span.
type LiteralError struct {
	Err    error // ErrInvalidOidIri
	Handle Handle
	Span   Span
	Cause  error // syntax error from the validator
}

func (e *LiteralError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%d:%d: %v", e.Span.Line, e.Span.Column, e.Err)
	}
	return fmt.Sprintf("%d:%d: %v: %v", e.Span.Line, e.Span.Column, e.Err, e.Cause)
}

func (e *LiteralError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// InternalError reports a broken caller contract, never a property of the
// source text. It should not be shown to users as a source error.
type InternalError struct {
	Err    error
	Handle Handle
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error: handle %d: %v", e.Handle, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// Error code constants for diagnostics and storage.
const (
	ErrCodeEncoding            = "ENCODING"
	ErrCodeUnterminatedComment = "UNTERMINATED_COMMENT"
	ErrCodeUnterminatedString  = "UNTERMINATED_STRING"
	ErrCodeUnexpectedCharacter = "UNEXPECTED_CHARACTER"
	ErrCodeInvalidIdentifier   = "INVALID_IDENTIFIER"
	ErrCodeMalformedNumber     = "MALFORMED_NUMBER"
	ErrCodeMalformedString     = "MALFORMED_STRING"
	ErrCodeUnknownPunctuation  = "UNKNOWN_PUNCTUATION"
	ErrCodeInvalidOidIri       = "INVALID_OID_IRI"
	ErrCodeInternal            = "INTERNAL"
	ErrCodeUnknown             = "UNKNOWN"
)

// ErrorCode returns the error code string for a given error.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEncoding):
		return ErrCodeEncoding
	case errors.Is(err, ErrUnterminatedComment):
		return ErrCodeUnterminatedComment
	case errors.Is(err, ErrUnterminatedString):
		return ErrCodeUnterminatedString
	case errors.Is(err, ErrUnexpectedCharacter):
		return ErrCodeUnexpectedCharacter
	case errors.Is(err, ErrInvalidIdentifier):
		return ErrCodeInvalidIdentifier
	case errors.Is(err, ErrMalformedNumber):
		return ErrCodeMalformedNumber
	case errors.Is(err, ErrMalformedString):
		return ErrCodeMalformedString
	case errors.Is(err, ErrUnknownPunctuation):
		return ErrCodeUnknownPunctuation
	case errors.Is(err, ErrInvalidOidIri):
		return ErrCodeInvalidOidIri
	}
	var ie *InternalError
	if errors.As(err, &ie) {
		return ErrCodeInternal
	}
	return ErrCodeUnknown
}

// IsFatal reports whether err stops a scan.
func IsFatal(err error) bool {
	return errors.Is(err, ErrEncoding) ||
		errors.Is(err, ErrUnterminatedComment) ||
		errors.Is(err, ErrUnterminatedString) ||
		errors.Is(err, ErrUnexpectedCharacter)
}
