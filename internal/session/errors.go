package session

import "errors"

var (
	// ErrMalformedSession covers unparseable or version-mismatched slot
	// content. It is treated as an absent session and never shown to users.
	ErrMalformedSession = errors.New("malformed session envelope")

	// ErrStorageUnavailable marks a failed slot write. The request carries on
	// in memory.
	ErrStorageUnavailable = errors.New("session storage unavailable")
)
