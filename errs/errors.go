// Package errs defines the typed error kinds the core pipeline produces, so
// orchestrators and the HTTP layer can dispatch on what went wrong without
// parsing strings.
package errs

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

// Kind classifies a failure so callers can map it to a status code without
// inspecting the message.
type Kind int

const (
	// Unknown is the zero value; never raised intentionally.
	Unknown Kind = iota
	// UnsupportedFormat means the file extension isn't in the allow-list.
	UnsupportedFormat
	// DecodeFailed means the decoder could not produce PCM.
	DecodeFailed
	// Unfingerprintable means the spectrogram was too short, or zero
	// landmarks/hashes were produced.
	Unfingerprintable
	// DuplicateContent means the content digest already exists in the
	// catalogue; callers should resolve to the existing id rather than
	// treat this as a failure.
	DuplicateContent
	// StoreUnavailable means a transient store I/O failure.
	StoreUnavailable
	// NotFound means a recording id was missing on fetch/delete.
	NotFound
	// InvalidParameters is reserved for extractor configuration mismatches
	// detected at lookup time (epoch tagging).
	InvalidParameters
)

func (k Kind) String() string {
	switch k {
	case UnsupportedFormat:
		return "unsupported_format"
	case DecodeFailed:
		return "decode_failed"
	case Unfingerprintable:
		return "unfingerprintable"
	case DuplicateContent:
		return "duplicate_content"
	case StoreUnavailable:
		return "store_unavailable"
	case NotFound:
		return "not_found"
	case InvalidParameters:
		return "invalid_parameters"
	default:
		return "unknown"
	}
}

// Error wraps an underlying cause with a Kind and a stack trace captured at
// the point it was raised.
type Error struct {
	Kind Kind
	Msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.err }

// New builds a typed Error, capturing a stack trace via go-xerrors when an
// underlying cause is present.
func New(kind Kind, msg string, cause error) *Error {
	if cause != nil {
		cause = xerrors.New(cause)
	}
	return &Error{Kind: kind, Msg: msg, err: cause}
}

// Is reports whether err (or something it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
