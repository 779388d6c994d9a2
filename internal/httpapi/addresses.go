package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

func (h *Handler) HandleListAddresses(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	addresses, err := h.Addresses.List(r.Context(), customerID)
	if err != nil {
		h.fail(w, r, err, "failed to list addresses")
		return
	}
	h.writeJSON(w, http.StatusOK, addresses)
}

func (h *Handler) HandleCreateAddress(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var input domain.AddressInput
	if !h.decode(w, r, &input) {
		return
	}

	result, err := h.Addresses.Create(r.Context(), customerID, input)
	if err != nil {
		h.fail(w, r, err, "failed to create address")
		return
	}

	h.Logger.Info("address created", "customer_id", customerID, "address_id", result.ID)
	h.writeJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleUpdateAddress(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var input domain.AddressInput
	if !h.decode(w, r, &input) {
		return
	}

	update := domain.AddressUpdate{ID: chi.URLParam(r, "addressID"), AddressInput: input}
	result, err := h.Addresses.Update(r.Context(), customerID, update)
	if err != nil {
		h.fail(w, r, err, "failed to update address")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	result, err := h.Addresses.Delete(r.Context(), customerID, chi.URLParam(r, "addressID"))
	if err != nil {
		h.fail(w, r, err, "failed to delete address")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleSetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	result, err := h.Addresses.SetDefault(r.Context(), customerID, chi.URLParam(r, "addressID"))
	if err != nil {
		h.fail(w, r, err, "failed to set default address")
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}
