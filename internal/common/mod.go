package common

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var Validate = validator.New()

const (
	REQUEST_TIMEOUT_SECS = 2 * 60 * time.Second

	// Quiet window for coalescing free-text attachment edits before they are
	// pushed upstream. Discrete mutations (quantity, options, images) persist
	// immediately.
	NOTE_DEBOUNCE_QUIET_PERIOD = 1 * time.Second

	// Guest cart mirrors expire with the guest session.
	GUEST_CART_MIRROR_TTL = 7 * 24 * time.Hour

	MAX_ATTACHMENT_IMAGES = 10
	MAX_NOTE_LENGTH       = 500
)

// IsEmptyString checks if a string is empty
func IsEmptyString(s string) bool {
	return strings.TrimSpace(s) == ""
}
