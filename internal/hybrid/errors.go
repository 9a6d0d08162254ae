package hybrid

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrRemoteUnavailable marks a failed call to the primary remote store
	// (network, timeout, auth, schema). Callers never see it directly: the
	// coordinator downgrades it to a cache fallback.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrNotFound means the record is absent in both the remote store and
	// the fallback cache.
	ErrNotFound = errors.New("record not found")

	// ErrValidation marks malformed caller input.
	ErrValidation = errors.New("validation failed")

	// ErrUnavailable means both the remote store and the fallback cache
	// failed; this is the only storage failure surfaced to callers.
	ErrUnavailable = errors.New("storage unavailable")
)

// classifyRemote maps a raw remote store error onto the taxonomy. Record
// misses stay distinguishable from infrastructure failures so the read path
// can fall through to the cache in both cases but report them differently.
func classifyRemote(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrRemoteUnavailable
	default:
		return ErrRemoteUnavailable
	}
}
