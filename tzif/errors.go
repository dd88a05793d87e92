package tzif

import "fmt"

// Kind classifies a decoding failure so callers can react programmatically
// instead of matching on error text.
type Kind int

const (
	// KindMagicMismatch means the file does not start with "TZif".
	KindMagicMismatch Kind = iota
	// KindUnsupportedVersion means the version octet is not one tzcore
	// knows how to frame. DecodeData treats this as non-fatal and falls
	// back to version 2 framing; it returns no error of this Kind, and
	// the logged warning is the only record that it happened.
	KindUnsupportedVersion
	// KindTruncated means the reader ran out of data mid-structure.
	KindTruncated
	// KindMalformedFooter means the footer's newline framing is invalid.
	KindMalformedFooter
	// KindMalformedData means header counts and decoded slice lengths or
	// contents are inconsistent (the job of Validate).
	KindMalformedData
)

func (k Kind) String() string {
	switch k {
	case KindMagicMismatch:
		return "magic mismatch"
	case KindUnsupportedVersion:
		return "unsupported version"
	case KindTruncated:
		return "truncated"
	case KindMalformedFooter:
		return "malformed footer"
	case KindMalformedData:
		return "malformed data"
	default:
		return "unknown"
	}
}

// Error is the error type returned by this package's decoding functions.
// It wraps the underlying cause so errors.Unwrap and errors.Is keep working.
type Error struct {
	Kind Kind
	Err  error
}

func newError(k Kind, err error) *Error {
	return &Error{Kind: k, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("tzif: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
