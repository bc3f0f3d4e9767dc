package store

import "errors"

var (
	ErrNotFound = errors.New("store: resource not found")

	// Provider failure classes. Adapters map raw transport/API errors onto
	// these so the orchestrator can treat every class as a recoverable
	// degradation rather than inspecting provider-specific types.
	ErrProviderTimeout     = errors.New("provider: timeout")
	ErrProviderRateLimited = errors.New("provider: rate limited")
	ErrProviderAuth        = errors.New("provider: authentication failed")
	ErrProviderUnavailable = errors.New("provider: unavailable")
)
