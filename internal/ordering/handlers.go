package ordering

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/obs"
)

type Handler struct {
	Service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{Service: s}
}

type moveRequest struct {
	Keys      []string `json:"keys"`
	Index     int      `json:"index"`
	Direction string   `json:"direction"`
}

// GetMap handles GET /admin/ordering/{scope}/{group}.
func (h *Handler) GetMap(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	group := chi.URLParam(r, "group")
	m, err := h.Service.Get(r.Context(), scope, group)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"scope": scope, "group": group, "ranks": m})
}

// Move handles POST /admin/ordering/{scope}/{group}/move.
func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	group := chi.URLParam(r, "group")

	var req moveRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	if len(req.Keys) == 0 {
		common.WriteError(w, common.Validation("keys", "keys must not be empty"))
		return
	}

	var dir Direction
	switch req.Direction {
	case "up":
		dir = Up
	case "down":
		dir = Down
	default:
		common.WriteError(w, common.Validation("direction", "direction must be up or down"))
		return
	}

	m, err := h.Service.Move(r.Context(), scope, group, req.Keys, req.Index, dir)
	if err != nil {
		if obs.OrderMoveTotal != nil {
			obs.OrderMoveTotal.WithLabelValues(scope, "error").Inc()
		}
		common.WriteError(w, err)
		return
	}
	if obs.OrderMoveTotal != nil {
		obs.OrderMoveTotal.WithLabelValues(scope, "ok").Inc()
	}
	common.JSON(w, http.StatusOK, map[string]any{"scope": scope, "group": group, "ranks": m})
}
