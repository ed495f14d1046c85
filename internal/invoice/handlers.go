package invoice

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vacek-detailing/studio-api/internal/catalog"
	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/quote"
)

type quoteProvider interface {
	Get(ctx context.Context, id string) (quote.Saved, error)
}

type catalogProvider interface {
	ListView(ctx context.Context) ([]catalog.CategoryGroup, error)
	ListPackages(ctx context.Context) ([]catalog.PackageItem, error)
}

type Handler struct {
	renderer *Renderer
	quotes   quoteProvider
	catalog  catalogProvider
	logger   zerolog.Logger
}

func NewHandler(r *Renderer, quotes quoteProvider, cat catalogProvider, logger zerolog.Logger) *Handler {
	return &Handler{renderer: r, quotes: quotes, catalog: cat, logger: logger}
}

// Invoice handles GET /quotes/{id}/invoice and serves printable HTML.
func (h *Handler) Invoice(w http.ResponseWriter, r *http.Request) {
	saved, err := h.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.RenderInvoice(w, saved); err != nil {
		h.logger.Error().Err(err).Str("quote_id", saved.ID).Msg("render invoice")
	}
}

// PriceList handles GET /catalog/pricelist and serves printable HTML.
func (h *Handler) PriceList(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListView(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	packages, err := h.catalog.ListPackages(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.RenderPriceList(w, categories, packages); err != nil {
		h.logger.Error().Err(err).Msg("render price list")
	}
}
