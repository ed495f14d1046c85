package quote

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/obs"
)

type Handler struct {
	service   *Service
	listLimit int
	listMax   int
}

// NewHandler builds the quote HTTP surface. listLimit is the default page
// size for GET /quotes and listMax caps the client-requested limit; values
// below 1 fall back to 20 and 100.
func NewHandler(s *Service, listLimit, listMax int) *Handler {
	if listLimit < 1 {
		listLimit = 20
	}
	if listMax < 1 {
		listMax = 100
	}
	return &Handler{service: s, listLimit: listLimit, listMax: listMax}
}

// Preview handles POST /quotes/preview.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	var sel Selection
	if err := common.DecodeJSON(r, &sel); err != nil {
		common.WriteError(w, err)
		return
	}
	result, err := h.service.Preview(r.Context(), sel)
	if err != nil {
		if obs.QuotePreviewTotal != nil {
			obs.QuotePreviewTotal.WithLabelValues("error").Inc()
		}
		common.WriteError(w, err)
		return
	}
	if obs.QuotePreviewTotal != nil {
		obs.QuotePreviewTotal.WithLabelValues("ok").Inc()
	}
	common.JSON(w, http.StatusOK, result)
}

type saveRequest struct {
	Label     string    `json:"label"`
	Selection Selection `json:"selection"`
}

// Save handles POST /quotes.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	saved, err := h.service.Save(r.Context(), req.Label, req.Selection)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	if obs.QuoteSavedTotal != nil {
		obs.QuoteSavedTotal.Inc()
	}
	common.JSON(w, http.StatusCreated, saved)
}

// List handles GET /quotes.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, h.listLimit, h.listMax)
	result, err := h.service.List(r.Context(), page, perPage)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, result)
}

// Get handles GET /quotes/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	saved, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, saved)
}

// Delete handles DELETE /quotes/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
