package ledger

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	store  Store
	logger *slog.Logger
}

func NewHandler(store Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/attempts", h.HandleList)
	r.Get("/attempts/{orderCode}", h.HandleGet)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := Filter{CustomerID: query.Get("customer_id")}

	if v := query.Get("needs_attention"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "needs_attention must be a boolean")
			return
		}
		filter.NeedsAttention = b
	}
	if v := query.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = n
	}

	attempts, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list attempts", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("attempts listed", "count", len(attempts))
	h.writeJSON(w, http.StatusOK, attempts)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "orderCode")
	if code == "" {
		h.writeError(w, http.StatusBadRequest, "missing order code")
		return
	}

	attempt, err := h.store.GetByOrderCode(r.Context(), code)
	if err != nil {
		h.logger.Error("failed to get attempt", "error", err, "order_code", code)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if attempt == nil {
		h.writeError(w, http.StatusNotFound, "attempt not found")
		return
	}

	h.writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
