package pickup

import (
	"time"

	"github.com/ariefcatur/emall-pickup/internal/orders"
)

type State string

const (
	StateIssued   State = "ISSUED"
	StateExpired  State = "EXPIRED"
	StateRedeemed State = "REDEEMED"
	StateInvalid  State = "INVALID"
)

// Evaluate places a looked-up order in the verification state machine on
// behalf of merchantID. A nil order means the code matched nothing. Checks
// run in a fixed order so the first failing one is reported.
func Evaluate(o *orders.Order, merchantID string, now time.Time) (State, error) {
	switch {
	case o == nil:
		return StateInvalid, ErrNotFound
	case o.DeliveryMethod != orders.DeliveryPickup:
		return StateInvalid, ErrNotFound
	case o.MerchantID != merchantID:
		return StateInvalid, ErrForbidden
	case o.PickupCodeUsed:
		return StateRedeemed, ErrAlreadyRedeemed
	case o.PickupCodeExpiry != nil && IsExpired(*o.PickupCodeExpiry, now):
		return StateExpired, ErrExpired
	case !orders.CanTransition(o.Status, orders.StatusCompleted):
		return StateInvalid, ErrOrderClosed
	}
	return StateIssued, nil
}
