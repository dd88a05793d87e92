package tzcore

import "fmt"

// Kind classifies a facade-level failure, matching the taxonomy in
// spec.md §7. Construction-layer Kinds from tzif, posixrule, zoneinfo,
// and tzlocate are wrapped underneath rather than re-enumerated; use
// errors.As against those packages' own *Error types to recover finer
// detail.
type Kind int

const (
	// KindNoSuchZone means no collaborator (local search path or
	// bundled-data fetch) produced bytes for the key.
	KindNoSuchZone Kind = iota
	// KindMalformedData means a collaborator produced bytes, but they
	// did not decode into a valid Zone.
	KindMalformedData
	// KindIoError wraps an unexpected failure from a collaborator that
	// was not a plain "not found".
	KindIoError
	// KindInvalidKey means the key failed the path-safety check before
	// any collaborator was consulted.
	KindInvalidKey
)

func (k Kind) String() string {
	switch k {
	case KindNoSuchZone:
		return "no such zone"
	case KindMalformedData:
		return "malformed data"
	case KindIoError:
		return "io error"
	case KindInvalidKey:
		return "invalid key"
	default:
		return "unknown"
	}
}

// Error is returned by Load, LoadNoCache, and FromReader.
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func newError(k Kind, key string, err error) *Error {
	return &Error{Kind: k, Key: key, Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("tzcore: %s: %q: %v", e.Kind, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
