package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ariefcatur/emall-pickup/internal/logger"
	"github.com/ariefcatur/emall-pickup/internal/orders"
	"github.com/ariefcatur/emall-pickup/internal/pickup"
	"github.com/ariefcatur/emall-pickup/internal/qr"
)

type PickupService interface {
	IssuePickupOrder(ctx context.Context, in pickup.IssueInput) (orders.Order, error)
	RegenerateCode(ctx context.Context, customerID, orderID string) (orders.Order, error)
	CustomerOrder(ctx context.Context, customerID, orderID string) (orders.Order, error)
	Verify(ctx context.Context, merchantID, raw string) (orders.Order, error)
	Confirm(ctx context.Context, merchantID, raw string) (*pickup.Confirmation, error)
}

type StatusCache interface {
	Get(ctx context.Context, orderID string) ([]byte, bool, error)
	Set(ctx context.Context, orderID string, body []byte) error
}

// OrdersHandler serves the customer side of pickup orders.
type OrdersHandler struct {
	Pickups PickupService
	Cache   StatusCache
	QRSize  int
	Now     func() time.Time
}

type createPickupReq struct {
	MerchantID string `json:"merchant_id"`
	TotalCents int    `json:"total_cents"`
}

// orderView is what customers see; it is also the cached status body.
type orderView struct {
	OrderID          string                `json:"order_id"`
	CustomerID       string                `json:"customer_id"`
	MerchantID       string                `json:"merchant_id"`
	TotalCents       int                   `json:"total_cents"`
	DeliveryMethod   orders.DeliveryMethod `json:"delivery_method"`
	Status           orders.Status         `json:"status"`
	PaymentStatus    orders.PaymentStatus  `json:"payment_status"`
	PickupCode       *string               `json:"pickup_code,omitempty"`
	PickupCodeExpiry *time.Time            `json:"pickup_code_expiry,omitempty"`
	PickupCodeUsed   bool                  `json:"pickup_code_used"`
	ExpiresIn        string                `json:"expires_in,omitempty"`
}

func newOrderView(o orders.Order) orderView {
	return orderView{
		OrderID:          o.ID,
		CustomerID:       o.CustomerID,
		MerchantID:       o.MerchantID,
		TotalCents:       o.TotalCents,
		DeliveryMethod:   o.DeliveryMethod,
		Status:           o.Status,
		PaymentStatus:    o.PaymentStatus,
		PickupCode:       o.PickupCode,
		PickupCodeExpiry: o.PickupCodeExpiry,
		PickupCodeUsed:   o.PickupCodeUsed,
	}
}

// withCountdown fills the time-dependent field; it is never cached.
func (v orderView) withCountdown(now time.Time) orderView {
	if v.PickupCodeExpiry != nil && !v.PickupCodeUsed {
		v.ExpiresIn = pickup.FormatRemaining(*v.PickupCodeExpiry, now)
	}
	return v
}

func (h *OrdersHandler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth, RequireRole(RoleCustomer))
		r.Post("/orders/pickup", h.createPickupOrder)
		r.Get("/orders/{id}", h.getOrder)
		r.Post("/orders/{id}/pickup-code", h.regenerateCode)
		r.Get("/orders/{id}/pickup-qr", h.pickupQR)
	})
}

func (h *OrdersHandler) createPickupOrder(w http.ResponseWriter, r *http.Request) {
	var req createPickupReq
	if !decode(w, r, &req) {
		return
	}
	if req.MerchantID == "" || req.TotalCents < 0 {
		badRequest(w, "merchant_id and a non-negative total_cents are required")
		return
	}
	p, _ := PrincipalFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Pickups.IssuePickupOrder(ctx, pickup.IssueInput{
		CustomerID: p.ID,
		MerchantID: req.MerchantID,
		TotalCents: req.TotalCents,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	v := newOrderView(o)
	h.cache(ctx, v)
	writeJSON(w, http.StatusCreated, v.withCountdown(h.now()))
}

// getOrder reads through the status cache; Postgres stays the source of
// truth and refills it on a miss.
func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	p, _ := PrincipalFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Cache != nil {
		if b, ok, err := h.Cache.Get(ctx, orderID); err == nil && ok {
			var v orderView
			if json.Unmarshal(b, &v) == nil {
				if v.CustomerID != p.ID {
					writeError(w, r, orders.ErrOrderNotFound)
					return
				}
				writeJSON(w, http.StatusOK, v.withCountdown(h.now()))
				return
			}
		}
	}

	o, err := h.Pickups.CustomerOrder(ctx, p.ID, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	v := newOrderView(o)
	h.cache(ctx, v)
	writeJSON(w, http.StatusOK, v.withCountdown(h.now()))
}

func (h *OrdersHandler) regenerateCode(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Pickups.RegenerateCode(ctx, p.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newOrderView(o).withCountdown(h.now()))
}

func (h *OrdersHandler) pickupQR(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Pickups.CustomerOrder(ctx, p.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	switch {
	case o.DeliveryMethod != orders.DeliveryPickup || o.PickupCode == nil:
		writeError(w, r, pickup.ErrNotPickup)
		return
	case o.PickupCodeUsed:
		writeError(w, r, pickup.ErrAlreadyRedeemed)
		return
	case o.PickupCodeExpiry != nil && pickup.IsExpired(*o.PickupCodeExpiry, h.now()):
		writeError(w, r, pickup.ErrExpired)
		return
	}

	size := h.QRSize
	if s := r.URL.Query().Get("size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			badRequest(w, "size must be an integer")
			return
		}
		size = n
	}
	png, err := qr.PNG(*o.PickupCode, size)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *OrdersHandler) cache(ctx context.Context, v orderView) {
	if h.Cache == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := h.Cache.Set(ctx, v.OrderID, b); err != nil {
		logger.FromContext(ctx).Warn("cache order status", zap.String("order_id", v.OrderID), zap.Error(err))
	}
}

func (h *OrdersHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
