package services

import (
	"github.com/pkg/errors"
)

// Failure taxonomy at the sync boundary. Persistence errors are converted to
// user-facing notifications here and never propagate into the HTTP layer as
// panics.
var (
	// ErrUpstreamUnavailable covers network and timeout failures; the local
	// optimistic state is preserved and the operation can be retried.
	ErrUpstreamUnavailable = errors.New("upstream cart service unavailable")

	// ErrUpstreamRejected covers server-side validation rejections; local
	// state is not auto-corrected, the user must re-select.
	ErrUpstreamRejected = errors.New("upstream cart service rejected the request")

	ErrItemNotFound    = errors.New("cart item not found")
	ErrProductNotFound = errors.New("product not found")
)

// IsRecoverable reports whether a sync failure is worth a retry affordance.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}
