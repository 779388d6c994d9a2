package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joao-fontenele/storefront-checkout/internal/location"
)

// Location lookups always answer 200; a failed lookup comes back as a
// disabled option list carrying a notice.

func (h *Handler) HandleProvinces(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Locations.Options(r.Context(), location.Selection{}, location.LevelProvince))
}

func (h *Handler) HandleDistricts(w http.ResponseWriter, r *http.Request) {
	provinceID, err := strconv.Atoi(chi.URLParam(r, "provinceID"))
	if err != nil || provinceID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid province id")
		return
	}
	sel := location.Selection{ProvinceID: provinceID}
	h.writeJSON(w, http.StatusOK, h.Locations.Options(r.Context(), sel, location.LevelDistrict))
}

func (h *Handler) HandleWards(w http.ResponseWriter, r *http.Request) {
	districtID, err := strconv.Atoi(chi.URLParam(r, "districtID"))
	if err != nil || districtID <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid district id")
		return
	}
	sel := location.Selection{DistrictID: districtID}
	h.writeJSON(w, http.StatusOK, h.Locations.Options(r.Context(), sel, location.LevelWard))
}
