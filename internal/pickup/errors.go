package pickup

import "errors"

// Each failure needs a different remedy at the counter, so they are never
// collapsed into one error.
var (
	ErrValidation      = errors.New("malformed pickup code")
	ErrNotFound        = errors.New("pickup code not found")
	ErrForbidden       = errors.New("pickup code belongs to another merchant")
	ErrAlreadyRedeemed = errors.New("pickup code already used")
	ErrExpired         = errors.New("pickup code expired")
	ErrOrderClosed     = errors.New("order is no longer open for pickup")
	ErrNotPickup       = errors.New("order is not a pickup order")
	ErrCodeUnavailable = errors.New("no free pickup code")
	ErrInvalidOrder    = errors.New("invalid pickup order request")
)

// Reason is the stable machine-readable name of a pickup failure.
func Reason(err error) string {
	switch {
	case err == nil:
		return "verified"
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidOrder):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "wrong_merchant"
	case errors.Is(err, ErrAlreadyRedeemed):
		return "already_used"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrOrderClosed):
		return "order_closed"
	case errors.Is(err, ErrNotPickup):
		return "not_pickup"
	case errors.Is(err, ErrCodeUnavailable):
		return "code_unavailable"
	}
	return "internal"
}
