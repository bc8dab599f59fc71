package edgestore

import "errors"

// Errors
var (
	ErrMissingLayout   = errors.New("an edge layout is required to store an edge index")
	ErrNilTensor       = errors.New("nil edge tensor")
	ErrBadTensor       = errors.New("bad or inconsistent edge tensor")
	ErrBadLayout       = errors.New("bad edge layout")
	ErrBadStoreParam   = errors.New("bad store param")
	ErrStoreVersion    = errors.New("store version is incompatible")
	ErrStoreReadOnly   = errors.New("store is read-only")
	ErrNoMatchingEdges = errors.New("no stored edge index matches the requested edge type")
)

// SamplingError wraps a failure surfaced by the external sampling routine.
// The underlying error is propagated unmodified and recoverable via Unwrap.
type SamplingError struct {
	Err error
}

func (e *SamplingError) Error() string {
	return "sampling failed: " + e.Err.Error()
}

func (e *SamplingError) Unwrap() error {
	return e.Err
}
