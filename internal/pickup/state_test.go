package pickup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ariefcatur/emall-pickup/internal/orders"
)

func issuedOrder(now time.Time) *orders.Order {
	code := "ABC234"
	exp := ComputeExpiry(now, 10)
	return &orders.Order{
		ID: "o-1", CustomerID: "c-1", MerchantID: "m-1",
		DeliveryMethod: orders.DeliveryPickup, Status: orders.StatusPending,
		PickupCode: &code, PickupCodeExpiry: &exp,
	}
}

func TestEvaluate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		order func() *orders.Order
		merch string
		at    time.Time
		state State
		err   error
	}{
		{"not found", func() *orders.Order { return nil }, "m-1", now, StateInvalid, ErrNotFound},
		{"issued", func() *orders.Order { return issuedOrder(now) }, "m-1", now, StateIssued, nil},
		{"confirmed order", func() *orders.Order {
			o := issuedOrder(now)
			o.Status = orders.StatusConfirmed
			return o
		}, "m-1", now, StateIssued, nil},
		{"wrong merchant", func() *orders.Order { return issuedOrder(now) }, "m-2", now, StateInvalid, ErrForbidden},
		{"used", func() *orders.Order {
			o := issuedOrder(now)
			o.PickupCodeUsed = true
			o.Status = orders.StatusCompleted
			return o
		}, "m-1", now, StateRedeemed, ErrAlreadyRedeemed},
		{"expired one second late", func() *orders.Order { return issuedOrder(now) }, "m-1",
			now.Add(10*time.Minute + time.Second), StateExpired, ErrExpired},
		{"exactly at expiry", func() *orders.Order { return issuedOrder(now) }, "m-1",
			now.Add(10 * time.Minute), StateIssued, nil},
		{"no expiry never expires", func() *orders.Order {
			o := issuedOrder(now)
			o.PickupCodeExpiry = nil
			return o
		}, "m-1", now.Add(24 * time.Hour), StateIssued, nil},
		{"cancelled", func() *orders.Order {
			o := issuedOrder(now)
			o.Status = orders.StatusCancelled
			return o
		}, "m-1", now, StateInvalid, ErrOrderClosed},
		{"delivery order", func() *orders.Order {
			o := issuedOrder(now)
			o.DeliveryMethod = orders.DeliveryHome
			return o
		}, "m-1", now, StateInvalid, ErrNotFound},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st, err := Evaluate(c.order(), c.merch, c.at)
			assert.Equal(t, c.state, st)
			if c.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, c.err)
			}
		})
	}
}

func TestEvaluatePriority(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o := issuedOrder(now)
	o.PickupCodeUsed = true

	// another merchant learns nothing about the order's state
	_, err := Evaluate(o, "m-2", now.Add(time.Hour))
	assert.ErrorIs(t, err, ErrForbidden)

	// used wins over expired
	st, err := Evaluate(o, "m-1", now.Add(time.Hour))
	assert.Equal(t, StateRedeemed, st)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
}

func TestReason(t *testing.T) {
	assert.Equal(t, "verified", Reason(nil))
	assert.Equal(t, "validation", Reason(ErrValidation))
	assert.Equal(t, "not_found", Reason(ErrNotFound))
	assert.Equal(t, "wrong_merchant", Reason(ErrForbidden))
	assert.Equal(t, "already_used", Reason(ErrAlreadyRedeemed))
	assert.Equal(t, "expired", Reason(ErrExpired))
	assert.Equal(t, "order_closed", Reason(ErrOrderClosed))
	assert.Equal(t, "internal", Reason(assert.AnError))
}
