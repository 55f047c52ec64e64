package blob

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Store is the capability contract every storage backend implements.
// The variant is chosen once at startup; the rest of the system only
// ever sees this interface.
type Store interface {
	// Put writes the payload under key, overwriting any previous object.
	Put(ctx context.Context, key string, payload []byte) error
	// Get returns the payload stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the object. A missing key is a NotFound error;
	// the caller decides whether that is tolerable.
	Delete(ctx context.Context, key string) error
	// Exists reports whether the key holds an object. A missing key is
	// not an error; only a communication failure is.
	Exists(ctx context.Context, key string) (bool, error)
}

// Kind classifies backend failures so callers can branch without
// knowing which backend produced them.
type Kind int

const (
	Unavailable Kind = iota
	QuotaExceeded
	InvalidKey
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case QuotaExceeded:
		return "quota exceeded"
	case InvalidKey:
		return "invalid key"
	case NotFound:
		return "not found"
	default:
		return "unknown"
	}
}

// Error is the uniform failure type returned by every backend.
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("blob %s: %s: %v", e.Key, e.Kind, e.Err)
	}
	return fmt.Sprintf("blob %s: %s", e.Key, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, key string, err error) *Error {
	return &Error{Kind: kind, Key: key, Err: err}
}

// IsKind reports whether err is a backend Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == kind
}

func validateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return newError(InvalidKey, key, nil)
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return newError(InvalidKey, key, nil)
		}
	}
	return nil
}
