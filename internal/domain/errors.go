package domain

import "errors"

var (
	// ErrIndexUnavailable signals that the search index could not be reached or initialized.
	ErrIndexUnavailable = errors.New("search index unavailable")
	// ErrRequestFailed signals a failed search call against a reachable index.
	ErrRequestFailed = errors.New("search request failed")
	// ErrSuperseded signals a search cycle aborted because a newer one started.
	ErrSuperseded = errors.New("search cycle superseded")
	// ErrMalformedLabelData signals unparseable level label data.
	ErrMalformedLabelData = errors.New("malformed label data")
	// ErrInvalidRequest signals an index request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
)
