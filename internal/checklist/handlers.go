package checklist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/ordering"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

type createPayload struct {
	Name string `json:"name"`
}

// Create handles POST /checklists.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	list, err := h.service.Create(r.Context(), payload.Name)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, list)
}

// List handles GET /checklists.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	lists, err := h.service.ListAll(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"checklists": lists})
}

// Get handles GET /checklists/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, list)
}

// Delete handles DELETE /checklists/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addItemPayload struct {
	Label string `json:"label"`
}

// AddItem handles POST /checklists/{id}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var payload addItemPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.service.AddItem(r.Context(), chi.URLParam(r, "id"), payload.Label)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, item)
}

// ToggleItem handles POST /checklists/{id}/items/{itemId}/toggle.
func (h *Handler) ToggleItem(w http.ResponseWriter, r *http.Request) {
	done, err := h.service.ToggleItem(r.Context(), chi.URLParam(r, "itemId"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"done": done})
}

// DeleteItem handles DELETE /checklists/{id}/items/{itemId}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteItem(r.Context(), chi.URLParam(r, "itemId")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type moveItemPayload struct {
	Direction string `json:"direction"`
}

// MoveItem handles POST /checklists/{id}/items/{itemId}/move.
func (h *Handler) MoveItem(w http.ResponseWriter, r *http.Request) {
	var payload moveItemPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	var dir ordering.Direction
	switch payload.Direction {
	case "up":
		dir = ordering.Up
	case "down":
		dir = ordering.Down
	default:
		common.WriteError(w, common.Validation("direction", "direction must be up or down"))
		return
	}
	list, err := h.service.MoveItem(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "itemId"), dir)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, list)
}
