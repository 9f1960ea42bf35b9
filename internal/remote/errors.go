package remote

import "errors"

// Error taxonomy for remote calls. Push and pull classify failures with
// [errors.Is] against these sentinels: transient ones leave the work queued
// for the next run, permanent ones are surfaced per item.
var (
	// ErrUnavailable means the store cannot be reached at all: no
	// connectivity, no account, or a server-side outage. Transient.
	ErrUnavailable = errors.New("remote store unavailable")

	// ErrRateLimited means the store asked the client to back off. Transient.
	ErrRateLimited = errors.New("remote store rate limited")

	// ErrMalformedPayload means the store rejected the record contents.
	// Permanent for the item in question; retrying the same payload cannot
	// succeed.
	ErrMalformedPayload = errors.New("remote store rejected payload")

	// ErrNotFound means the requested record does not exist remotely.
	ErrNotFound = errors.New("remote record not found")
)

// IsTransient reports whether err is worth retrying on a later sync run
// without user action.
func IsTransient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrRateLimited)
}
