package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/pricing"
)

// Handler exposes public catalog and admin catalog-management endpoints.
type Handler struct {
	service  *Service
	validate *validator.Validate
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Service *Service
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{service: cfg.Service, validate: validator.New()}
}

// Services handles GET /api/v1/catalog/services.
func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ListView(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

// Service handles GET /api/v1/catalog/services/{id}.
func (h *Handler) Service(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.GetService(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Packages handles GET /api/v1/catalog/packages.
func (h *Handler) Packages(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListPackages(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

type variantPayload struct {
	ID    string        `json:"id"`
	Name  string        `json:"name" validate:"required"`
	Price pricing.Money `json:"price" validate:"gte=0"`
}

type servicePayload struct {
	Name         string           `json:"name" validate:"required"`
	Price        pricing.Money    `json:"price" validate:"gte=0"`
	Hourly       bool             `json:"hourly"`
	HasVariants  bool             `json:"hasVariants"`
	Variants     []variantPayload `json:"variants" validate:"dive"`
	Subcategory  string           `json:"subcategory"`
	MainCategory string           `json:"mainCategory" validate:"required,oneof=interior exterior package"`
}

// CreateService handles POST /api/v1/admin/services.
func (h *Handler) CreateService(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeServicePayload(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.service.CreateService(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// UpdateService handles PUT /api/v1/admin/services/{id}.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodeServicePayload(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.service.UpdateService(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// DeleteService handles DELETE /api/v1/admin/services/{id}.
func (h *Handler) DeleteService(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteService(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type packagePayload struct {
	Name       string        `json:"name" validate:"required"`
	Price      pricing.Money `json:"price" validate:"gte=0"`
	ServiceIDs []string      `json:"serviceIds" validate:"min=1,dive,uuid4"`
}

// CreatePackage handles POST /api/v1/admin/packages.
func (h *Handler) CreatePackage(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodePackagePayload(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.service.CreatePackage(r.Context(), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// UpdatePackage handles PUT /api/v1/admin/packages/{id}.
func (h *Handler) UpdatePackage(w http.ResponseWriter, r *http.Request) {
	input, err := h.decodePackagePayload(r)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	item, err := h.service.UpdatePackage(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// DeletePackage handles DELETE /api/v1/admin/packages/{id}.
func (h *Handler) DeletePackage(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePackage(r.Context(), chi.URLParam(r, "id")); err != nil {
		common.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decodeServicePayload(r *http.Request) (ServiceInput, error) {
	var payload servicePayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		return ServiceInput{}, err
	}
	if err := h.validate.Struct(payload); err != nil {
		return ServiceInput{}, &common.AppError{
			Code:       common.CodeValidation,
			Message:    "invalid service payload",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	input := ServiceInput{
		Name:         payload.Name,
		Price:        payload.Price,
		Hourly:       payload.Hourly,
		HasVariants:  payload.HasVariants,
		Subcategory:  payload.Subcategory,
		MainCategory: payload.MainCategory,
	}
	for _, v := range payload.Variants {
		input.Variants = append(input.Variants, VariantItem{ID: v.ID, Name: v.Name, Price: v.Price})
	}
	return input, nil
}

func (h *Handler) decodePackagePayload(r *http.Request) (PackageInput, error) {
	var payload packagePayload
	if err := common.DecodeJSON(r, &payload); err != nil {
		return PackageInput{}, err
	}
	if err := h.validate.Struct(payload); err != nil {
		return PackageInput{}, &common.AppError{
			Code:       common.CodeValidation,
			Message:    "invalid package payload",
			HTTPStatus: http.StatusBadRequest,
			Err:        err,
		}
	}
	return PackageInput{Name: payload.Name, Price: payload.Price, ServiceIDs: payload.ServiceIDs}, nil
}
