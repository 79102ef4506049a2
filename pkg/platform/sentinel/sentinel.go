package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and infrastructure layers
// return these (optionally wrapped) so services can translate them into
// domain errors.
//
//   - ErrConflict: a concurrent writer won; the operation may be retried
//   - ErrUnavailable: a backing service is temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
