package predict

import "errors"

// Sentinel errors surfaced by the prediction contract. Callers detect
// them with errors.Is.
var (
	// ErrInvalidRequest marks a malformed window, resolution or a
	// request routed to the wrong predictor. Never retried.
	ErrInvalidRequest = errors.New("invalid prediction request")
	// ErrNoCurrentState means the entity has no usable current state:
	// either none is known or the last one is too old to extrapolate
	// from. The caller may retry later.
	ErrNoCurrentState = errors.New("no current entity state")
	// ErrUnknownEntityType marks a request for a type no predictor
	// serves.
	ErrUnknownEntityType = errors.New("unknown entity type")
	// ErrModelInvariant means a sub-model produced non-monotonic
	// confidence or uncertainty. It signals a model bug and is never
	// silently patched.
	ErrModelInvariant = errors.New("model invariant violation")
)
