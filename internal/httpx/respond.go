package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/emall-pickup/internal/logger"
	"github.com/ariefcatur/emall-pickup/internal/orders"
	"github.com/ariefcatur/emall-pickup/internal/pickup"
	"github.com/ariefcatur/emall-pickup/internal/rewards"
)

type errorBody struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Reason: "validation"})
}

// failure maps a domain error to the status, reason and message shown to
// the operator. Anything unrecognised is a 500.
type failure struct {
	target error
	status int
	reason string
	msg    string
}

var failures = []failure{
	{pickup.ErrValidation, http.StatusBadRequest, "validation", "Invalid pickup code format"},
	{pickup.ErrInvalidOrder, http.StatusBadRequest, "validation", "Invalid order request"},
	{pickup.ErrNotFound, http.StatusNotFound, "not_found", "Pickup code not found"},
	{orders.ErrOrderNotFound, http.StatusNotFound, "not_found", "Order not found"},
	{rewards.ErrMerchantNotFound, http.StatusNotFound, "merchant_not_found", "Merchant not found"},
	{pickup.ErrForbidden, http.StatusForbidden, "wrong_merchant", "This pickup code belongs to another merchant"},
	{pickup.ErrAlreadyRedeemed, http.StatusConflict, "already_used", "This pickup code has already been used"},
	{pickup.ErrExpired, http.StatusGone, "expired", "This pickup code has expired"},
	{pickup.ErrOrderClosed, http.StatusConflict, "order_closed", "This order is no longer open for pickup"},
	{pickup.ErrNotPickup, http.StatusConflict, "not_pickup", "This order is not a pickup order"},
	{orders.ErrConflict, http.StatusConflict, "conflict", "The order changed, please retry"},
	{pickup.ErrCodeUnavailable, http.StatusServiceUnavailable, "code_unavailable", "Could not allocate a pickup code, please retry"},
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	for _, f := range failures {
		if errors.Is(err, f.target) {
			writeJSON(w, f.status, errorBody{Error: f.msg, Reason: f.reason})
			return
		}
	}
	logger.FromContext(r.Context()).Error("request failed", zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Reason: "internal"})
}

const maxBody = 1 << 20

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v); err != nil {
		badRequest(w, "invalid json")
		return false
	}
	return true
}
