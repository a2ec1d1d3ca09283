package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/emall-pickup/internal/rewards"
)

type RewardsService interface {
	Summary(ctx context.Context, merchantID string) (rewards.Summary, error)
}

type RewardsHandler struct {
	Rewards RewardsService
}

func (h *RewardsHandler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(auth, RequireRole(RoleMerchant))
		r.Get("/merchant/rewards", h.summary)
	})
}

func (h *RewardsHandler) summary(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFrom(r.Context())
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Rewards.Summary(ctx, p.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
