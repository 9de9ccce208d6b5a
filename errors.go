package batch

import "errors"

// Errors returned by Batch operations. Errors from the domain layer
// (domain.ErrCapacityExceeded, domain.ErrUnknownAttribute and friends)
// pass through unchanged and match with errors.Is.
var (
	// ErrVertexListNotFound indicates the vertex list does not belong to
	// this batch, or was already deleted or migrated away.
	ErrVertexListNotFound = errors.New("batch: vertex list not found")
)
