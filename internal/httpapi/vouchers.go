package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/pricing"
)

type voucherView struct {
	domain.Voucher
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
}

// HandleListVouchers lists the customer's vouchers. With ?subtotal= each one
// is checked for eligibility against that amount.
func (h *Handler) HandleListVouchers(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var subtotal int64 = -1
	if v := r.URL.Query().Get("subtotal"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "subtotal must be a non-negative integer")
			return
		}
		subtotal = n
	}

	vouchers, err := h.Vouchers.ListVouchers(r.Context(), customerID)
	if err != nil {
		h.fail(w, r, err, "failed to list vouchers")
		return
	}

	now := h.Now()
	views := make([]voucherView, 0, len(vouchers))
	for _, v := range vouchers {
		view := voucherView{Voucher: v, Eligible: true}
		if subtotal >= 0 {
			if err := pricing.Eligible(v, subtotal, now); err != nil {
				view.Eligible = false
				view.Reason = err.Error()
			}
		}
		views = append(views, view)
	}
	h.writeJSON(w, http.StatusOK, views)
}
