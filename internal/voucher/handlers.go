package voucher

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/obs"
	"github.com/vacek-detailing/studio-api/internal/pricing"
)

type Handler struct {
	service  *Service
	validate *validator.Validate
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s, validate: validator.New()}
}

type createPayload struct {
	PackageID *string       `json:"packageId" validate:"omitempty,uuid4"`
	Amount    pricing.Money `json:"amount" validate:"gte=0"`
	Note      string        `json:"note" validate:"max=500"`
	ValidFrom *time.Time    `json:"validFrom"`
	ValidTo   *time.Time    `json:"validTo"`
}

// Create handles POST /admin/vouchers.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		common.WriteError(w, common.Validation("payload", err.Error()))
		return
	}
	item, err := h.service.Create(r.Context(), CreateInput{
		PackageID: payload.PackageID,
		Amount:    payload.Amount,
		Note:      payload.Note,
		ValidFrom: payload.ValidFrom,
		ValidTo:   payload.ValidTo,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, item)
}

// List handles GET /admin/vouchers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"vouchers": items})
}

// Check handles GET /vouchers/{code}.
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Check(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, item)
}

// Redeem handles POST /vouchers/{code}/redeem.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Redeem(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		if obs.VoucherRedeemTotal != nil {
			obs.VoucherRedeemTotal.WithLabelValues("rejected").Inc()
		}
		common.WriteError(w, err)
		return
	}
	if obs.VoucherRedeemTotal != nil {
		obs.VoucherRedeemTotal.WithLabelValues("ok").Inc()
	}
	common.JSON(w, http.StatusOK, item)
}
