package errors

import "errors"

// Lookup and provider errors
var (
	ErrNotFound            = errors.New("metadata: not found")
	ErrAmbiguousResult     = errors.New("store: lookup matched more than one movie")
	ErrProviderUnavailable = errors.New("provider: unavailable (network, auth or server failure)")
	ErrInvalidRecord       = errors.New("provider: invalid record")

	// Persistence and flow specific errors
	ErrPersistence = errors.New("store: persistence failure, transaction rolled back")
	ErrLockTimeout = errors.New("resolver: timed out waiting for lock")
)
