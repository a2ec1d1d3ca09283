package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/emall-pickup/internal/pickup"
)

// PickupHandler is the merchant counter: verify a code, then confirm it.
type PickupHandler struct {
	Pickups PickupService
	Now     func() time.Time
}

type codeReq struct {
	Code string `json:"code"`
}

type verifyResp struct {
	State pickup.State `json:"state"`
	Order orderView    `json:"order"`
}

type confirmResp struct {
	Outcome pickup.State `json:"state"`
	*pickup.Confirmation
}

func (h *PickupHandler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth, RequireRole(RoleMerchant))
		r.Post("/merchant/pickups/verify", h.verify)
		r.Post("/merchant/pickups/confirm", h.confirm)
	})
}

func (h *PickupHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req codeReq
	if !decode(w, r, &req) {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Pickups.Verify(ctx, p.ID, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResp{State: pickup.StateIssued, Order: newOrderView(o).withCountdown(h.now())})
}

func (h *PickupHandler) confirm(w http.ResponseWriter, r *http.Request) {
	var req codeReq
	if !decode(w, r, &req) {
		return
	}
	p, _ := PrincipalFrom(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Pickups.Confirm(ctx, p.ID, req.Code)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResp{Outcome: pickup.StateRedeemed, Confirmation: c})
}

func (h *PickupHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}
