// Package httpapi is the storefront-facing HTTP surface of the checkout
// service.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joao-fontenele/storefront-checkout/internal/address"
	"github.com/joao-fontenele/storefront-checkout/internal/backend"
	"github.com/joao-fontenele/storefront-checkout/internal/cart"
	"github.com/joao-fontenele/storefront-checkout/internal/checkout"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/location"
	"github.com/joao-fontenele/storefront-checkout/internal/pricing"
	"github.com/joao-fontenele/storefront-checkout/internal/session"
	"github.com/joao-fontenele/storefront-checkout/internal/telemetry"
)

const maxBodyBytes = 1 << 20

type Locations interface {
	Options(ctx context.Context, sel location.Selection, level location.Level) location.Options
}

type ShippingQuoter interface {
	QuoteFee(ctx context.Context, req location.FeeRequest) (int64, error)
}

type Addresses interface {
	List(ctx context.Context, customerID string) ([]domain.Address, error)
	Create(ctx context.Context, customerID string, input domain.AddressInput) (address.Result, error)
	Update(ctx context.Context, customerID string, update domain.AddressUpdate) (address.Result, error)
	Delete(ctx context.Context, customerID, id string) (address.Result, error)
	SetDefault(ctx context.Context, customerID, id string) (address.Result, error)
	Find(ctx context.Context, customerID, id string) (domain.Address, error)
}

type Vouchers interface {
	ListVouchers(ctx context.Context, customerID string) ([]domain.Voucher, error)
}

type CartSnapshots interface {
	Snapshot(ctx context.Context, customerID string, selectedIDs []string) ([]domain.CartLine, error)
}

type Submitter interface {
	Submit(ctx context.Context, in checkout.Input) (checkout.Outcome, error)
}

type Deps struct {
	Locations       Locations
	Shipping        ShippingQuoter
	Addresses       Addresses
	Vouchers        Vouchers
	Cart            CartSnapshots
	Sessions        session.Store
	Workflow        Submitter
	Calculator      pricing.Calculator
	ItemWeightGrams int
	Logger          *slog.Logger
	Now             func() time.Time
}

type Handler struct {
	Deps
}

func NewHandler(deps Deps) *Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{Deps: deps}
}

// Router mounts every route. requestTimeout bounds each request except
// submit, which gets submitTimeout: it chains create order, cart cleanup,
// payment link and publish.
func (h *Handler) Router(requestTimeout, submitTimeout time.Duration) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(telemetry.HTTPRoute)
	r.Use(forwardBearer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(timeout(requestTimeout))

		r.Route("/locations", func(r chi.Router) {
			r.Get("/provinces", h.HandleProvinces)
			r.Get("/provinces/{provinceID}/districts", h.HandleDistricts)
			r.Get("/districts/{districtID}/wards", h.HandleWards)
		})

		r.Route("/customers/{customerID}", func(r chi.Router) {
			r.Get("/addresses", h.HandleListAddresses)
			r.Post("/addresses", h.HandleCreateAddress)
			r.Put("/addresses/{addressID}", h.HandleUpdateAddress)
			r.Delete("/addresses/{addressID}", h.HandleDeleteAddress)
			r.Put("/addresses/{addressID}/default", h.HandleSetDefaultAddress)
			r.Get("/vouchers", h.HandleListVouchers)
		})
	})

	r.Route("/checkout/sessions", func(r chi.Router) {
		r.With(timeout(requestTimeout)).Post("/", h.HandleCreateSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.With(timeout(submitTimeout)).Post("/submit", h.HandleSubmit)

			r.Group(func(r chi.Router) {
				r.Use(timeout(requestTimeout))
				r.Get("/", h.HandleGetSession)
				r.Put("/location", h.HandleSelectLocation)
				r.Put("/address", h.HandleSelectAddress)
				r.Put("/voucher", h.HandleSelectVoucher)
				r.Put("/payment-method", h.HandleSelectPaymentMethod)
				r.Put("/note", h.HandleSetNote)
			})
		})
	})

	return r
}

func timeout(d time.Duration) func(http.Handler) http.Handler {
	if d <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.Timeout(d)
}

// forwardBearer passes the storefront's access token on to the shop API.
func forwardBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			r = r.WithContext(backend.WithBearerToken(r.Context(), strings.TrimSpace(token)))
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// fail maps err onto a status and message and writes it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, msg string) {
	status, message := classify(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(msg, "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
	} else {
		h.Logger.Info(msg, "error", err, "status", status)
	}
	h.writeError(w, status, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound, "checkout session not found"
	case errors.Is(err, address.ErrAddressNotFound):
		return http.StatusNotFound, "address not found"
	case errors.Is(err, session.ErrSubmitInProgress):
		return http.StatusConflict, "order submission already in progress"
	case errors.Is(err, checkout.ErrValidation),
		errors.Is(err, address.ErrInvalidAddress),
		errors.Is(err, location.ErrInvalidSelection),
		errors.Is(err, location.ErrUnknownLocation),
		errors.Is(err, pricing.ErrVoucherNotEligible),
		errors.Is(err, cart.ErrEmptyCart),
		errors.Is(err, cart.ErrUnknownCartLine):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, backend.ErrUnavailable):
		return http.StatusServiceUnavailable, "upstream service unavailable, please try again later"
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError {
			return http.StatusUnprocessableEntity, backend.Message(err, "request rejected")
		}
		return http.StatusBadGateway, backend.Message(err, "upstream request failed")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "upstream request timed out"
	}
	return http.StatusInternalServerError, "internal server error"
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
