package types

import "errors"

// Sentinel errors for the ranking and enrichment paths. Handlers map these to
// HTTP statuses with errors.Is; services wrap them with fmt.Errorf("%w").
var (
	// ErrInvalidInput marks malformed coordinates or out-of-range
	// radius/limit values, rejected before touching storage.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRetrievalUnavailable marks a storage failure during candidate
	// retrieval. No partial results are ever returned alongside it.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrEnrichmentFailed marks an external provider failure during
	// refresh. The stored POI record is left untouched.
	ErrEnrichmentFailed = errors.New("enrichment failed")

	// ErrNotFound marks a referenced POI id that does not exist. An empty
	// result set is a valid zero-match response, not this error.
	ErrNotFound = errors.New("not found")
)
