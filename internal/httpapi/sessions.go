package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront-checkout/internal/address"
	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/checkout"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/location"
	"github.com/joao-fontenele/storefront-checkout/internal/pricing"
	"github.com/joao-fontenele/storefront-checkout/internal/session"
)

type sessionView struct {
	session.Session
	Pricing pricing.Snapshot `json:"pricing"`
	Notice  string           `json:"notice,omitempty"`
}

func (h *Handler) view(s session.Session, notice string) sessionView {
	return sessionView{
		Session: s,
		Pricing: h.Calculator.Calculate(s.Lines, s.ShippingQuote, s.Voucher, h.Now()),
		Notice:  notice,
	}
}

type createSessionRequest struct {
	CustomerID  string   `json:"customerId"`
	CartLineIDs []string `json:"cartLineIds"`
}

// HandleCreateSession snapshots the cart (or the chosen subset of it) and
// preselects the customer's default address when there is one.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "customerId is required")
		return
	}

	ctx := r.Context()
	lines, err := h.Cart.Snapshot(ctx, req.CustomerID, req.CartLineIDs)
	if err != nil {
		h.fail(w, r, err, "failed to load cart")
		return
	}

	s := session.Session{
		CustomerID:    req.CustomerID,
		Lines:         lines,
		PaymentMethod: domain.PaymentMethodCash,
	}

	var notice string
	if addresses, err := h.Addresses.List(ctx, req.CustomerID); err != nil {
		h.Logger.Warn("failed to load addresses for new session", "error", err, "customer_id", req.CustomerID)
	} else if def, ok := address.Default(addresses); ok {
		notice = h.applyAddress(ctx, &s, def)
	}

	s, err = h.Sessions.Create(ctx, s)
	if err != nil {
		h.fail(w, r, err, "failed to create checkout session")
		return
	}

	h.Logger.Info("checkout session created", "session_id", s.ID, "customer_id", s.CustomerID, "lines", len(s.Lines))
	h.writeJSON(w, http.StatusCreated, h.view(s, notice))
}

func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, h.view(s, ""))
}

type selectLocationRequest struct {
	Level location.Level `json:"level"`
	Value string         `json:"value"`
}

type locationView struct {
	Location location.Selection `json:"location"`
	Next     *location.Options  `json:"next,omitempty"`
}

// HandleSelectLocation applies one dropdown change and returns the options
// of the next level to fill.
func (h *Handler) HandleSelectLocation(w http.ResponseWriter, r *http.Request) {
	var req selectLocationRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	sel, err := s.Location.Select(req.Level, req.Value)
	if err != nil {
		h.fail(w, r, err, "invalid location selection")
		return
	}
	if sel != s.Location {
		// The selected address and its quote no longer match the location.
		s.AddressID = ""
		s.ShippingQuote = pricing.Quote{}
	}
	s.Location = sel
	if !h.saveSession(w, r, s) {
		return
	}

	out := locationView{Location: sel}
	if next := sel.Next(); next != 0 {
		opts := h.Locations.Options(r.Context(), sel, next)
		out.Next = &opts
	}
	h.writeJSON(w, http.StatusOK, out)
}

type selectAddressRequest struct {
	AddressID string `json:"addressId"`
}

func (h *Handler) HandleSelectAddress(w http.ResponseWriter, r *http.Request) {
	var req selectAddressRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	addr, err := h.Addresses.Find(r.Context(), s.CustomerID, req.AddressID)
	if err != nil {
		h.fail(w, r, err, "failed to select address")
		return
	}

	notice := h.applyAddress(r.Context(), &s, addr)
	if !h.saveSession(w, r, s) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.view(s, notice))
}

// applyAddress selects addr and refreshes the shipping quote. A failed quote
// falls back to the default fee and returns a notice.
func (h *Handler) applyAddress(ctx context.Context, s *session.Session, addr domain.Address) string {
	s.AddressID = addr.ID
	s.Location = location.Selection{ProvinceID: addr.ProvinceID, DistrictID: addr.DistrictID, WardCode: addr.WardCode}
	s.ShippingQuote = pricing.Quote{}

	if h.Shipping == nil || !s.Location.Complete() {
		return ""
	}

	var quantity int
	for _, line := range s.Lines {
		quantity += line.Quantity
	}
	fee, err := h.Shipping.QuoteFee(ctx, location.FeeRequest{
		DistrictID:     addr.DistrictID,
		WardCode:       addr.WardCode,
		WeightGrams:    max(quantity, 1) * h.ItemWeightGrams,
		InsuranceValue: pricing.Subtotal(s.Lines),
	})
	if err != nil {
		h.Logger.Warn("failed to quote shipping fee", "error", err, "address_id", addr.ID)
		return "Shipping fee is estimated: " + backend.Message(err, "quote unavailable")
	}
	s.ShippingQuote = pricing.Quote{Fee: fee, Available: true}
	return ""
}

type selectVoucherRequest struct {
	VoucherID string `json:"voucherId"`
}

// HandleSelectVoucher selects one voucher, or clears it with an empty id.
func (h *Handler) HandleSelectVoucher(w http.ResponseWriter, r *http.Request) {
	var req selectVoucherRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if req.VoucherID == "" {
		s.Voucher = nil
	} else {
		vouchers, err := h.Vouchers.ListVouchers(r.Context(), s.CustomerID)
		if err != nil {
			h.fail(w, r, err, "failed to list vouchers")
			return
		}
		var found *domain.Voucher
		for i := range vouchers {
			if vouchers[i].ID == req.VoucherID {
				found = &vouchers[i]
				break
			}
		}
		if found == nil {
			h.writeError(w, http.StatusNotFound, "voucher not found")
			return
		}
		if err := pricing.Eligible(*found, pricing.Subtotal(s.Lines), h.Now()); err != nil {
			h.fail(w, r, err, "voucher rejected")
			return
		}
		s.Voucher = found
	}

	if !h.saveSession(w, r, s) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.view(s, ""))
}

type paymentMethodRequest struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}

func (h *Handler) HandleSelectPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if !h.decode(w, r, &req) {
		return
	}
	if !req.PaymentMethod.Valid() {
		h.writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("unknown payment method %q", req.PaymentMethod))
		return
	}
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	s.PaymentMethod = req.PaymentMethod
	if !h.saveSession(w, r, s) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.view(s, ""))
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *Handler) HandleSetNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	s.Note = req.Note
	if !h.saveSession(w, r, s) {
		return
	}
	h.writeJSON(w, http.StatusOK, h.view(s, ""))
}

// HandleSubmit places the order. Only one submit per session runs at a time;
// a concurrent one gets 409.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "sessionID")

	release, err := h.Sessions.AcquireSubmit(ctx, id)
	if err != nil {
		h.fail(w, r, err, "submit rejected")
		return
	}
	defer release()

	s, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	outcome, err := h.Workflow.Submit(ctx, checkout.Input{
		CustomerID:     s.CustomerID,
		AddressID:      s.AddressID,
		Lines:          s.Lines,
		Voucher:        s.Voucher,
		PaymentMethod:  s.PaymentMethod,
		Note:           s.Note,
		Quote:          s.ShippingQuote,
		IdempotencyKey: r.Header.Get(backend.IdempotencyHeader),
	})
	if err != nil {
		h.fail(w, r, err, "failed to submit order")
		return
	}

	// The ordered lines are gone from the cart; the session cannot be
	// submitted again.
	if err := h.Sessions.Delete(context.WithoutCancel(ctx), s.ID); err != nil {
		h.Logger.Warn("failed to delete checkout session", "error", err, "session_id", s.ID)
	}

	h.Logger.Info("order submitted",
		"session_id", s.ID,
		"order_code", outcome.Order.Order.Code,
		"navigation", string(outcome.Next.Kind),
		"warnings", len(outcome.Warnings),
	)
	h.writeJSON(w, http.StatusOK, outcome)
}

func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	s, err := h.Sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.fail(w, r, err, "failed to load checkout session")
		return session.Session{}, false
	}
	return s, true
}

func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, s session.Session) bool {
	if err := h.Sessions.Save(r.Context(), s); err != nil {
		h.fail(w, r, err, "failed to save checkout session")
		return false
	}
	return true
}
