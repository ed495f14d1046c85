package quote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/events"
	"github.com/vacek-detailing/studio-api/internal/pricing"
	"github.com/vacek-detailing/studio-api/internal/store"
)

type storeProvider interface {
	SaveQuote(ctx context.Context, label string, selection []byte) (store.Quote, error)
	GetQuote(ctx context.Context, id string) (store.Quote, error)
	ListQuotes(ctx context.Context, limit, offset int) ([]store.Quote, int64, error)
	DeleteQuote(ctx context.Context, id string) error
}

type catalogProvider interface {
	Snapshot(ctx context.Context) (pricing.Catalog, error)
	PackageNames(ctx context.Context) (map[string]string, error)
}

// Service computes previews and manages saved quote snapshots. Saved quotes
// store the raw selection, not the totals; totals are recomputed against the
// current catalog on every load.
type Service struct {
	store     storeProvider
	catalog   catalogProvider
	bus       *events.Bus
	markupBps int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store     storeProvider
	Catalog   catalogProvider
	Bus       *events.Bus
	MarkupBps int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("quote: store is required")
	}
	if cfg.Catalog == nil {
		return nil, errors.New("quote: catalog is required")
	}
	markup := cfg.MarkupBps
	if markup == 0 {
		markup = pricing.DefaultSizeMarkupBps
	}
	return &Service{store: cfg.Store, catalog: cfg.Catalog, bus: cfg.Bus, markupBps: markup}, nil
}

// Selection is the wire form of a pricing selection.
type Selection struct {
	ServiceIDs  []string                 `json:"serviceIds"`
	Variants    map[string]string        `json:"variants,omitempty"`
	Hours       map[string]float64       `json:"hours,omitempty"`
	Packages    map[string]pricing.Money `json:"packages,omitempty"`
	CarSize     string                   `json:"carSize"`
	DiscountPct int                      `json:"discountPct"`
	Charges     []Charge                 `json:"charges,omitempty"`
}

// Charge is a manual extra line on a selection.
type Charge struct {
	Description string        `json:"description"`
	Amount      pricing.Money `json:"amount"`
}

// Result is a computed quote returned by Preview and by the saved-quote reads.
type Result struct {
	Lines    []pricing.Line `json:"lines"`
	Subtotal pricing.Money  `json:"subtotal"`
	Discount pricing.Money  `json:"discount"`
	Total    pricing.Money  `json:"total"`
}

// Saved is a persisted quote with freshly recomputed totals.
type Saved struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Selection Selection `json:"selection"`
	Result    Result    `json:"result"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Preview computes totals for a selection without persisting anything.
func (s *Service) Preview(ctx context.Context, sel Selection) (Result, error) {
	if err := validateSelection(sel); err != nil {
		return Result{}, err
	}
	snapshot, names, err := s.snapshots(ctx)
	if err != nil {
		return Result{}, err
	}
	return s.compute(sel, snapshot, names), nil
}

// Save persists a labelled selection snapshot and returns it with totals.
func (s *Service) Save(ctx context.Context, label string, sel Selection) (Saved, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return Saved{}, common.Validation("label", "label is required")
	}
	if err := validateSelection(sel); err != nil {
		return Saved{}, err
	}

	raw, err := json.Marshal(sel)
	if err != nil {
		return Saved{}, storageErr(err)
	}
	row, err := s.store.SaveQuote(ctx, label, raw)
	if err != nil {
		return Saved{}, storageErr(err)
	}
	if s.bus != nil {
		_, _ = s.bus.Emit(ctx, events.TopicQuoteSaved, row.ID, map[string]any{"label": label})
	}
	return s.toSaved(ctx, row)
}

// Get loads a saved quote and recomputes its totals.
func (s *Service) Get(ctx context.Context, id string) (Saved, error) {
	row, err := s.store.GetQuote(ctx, id)
	if err != nil {
		return Saved{}, translateErr(err)
	}
	return s.toSaved(ctx, row)
}

// ListPage is one page of saved quotes.
type ListPage struct {
	Quotes  []Saved `json:"quotes"`
	Total   int64   `json:"total"`
	Page    int     `json:"page"`
	PerPage int     `json:"perPage"`
}

// List returns a page of saved quotes, newest first.
func (s *Service) List(ctx context.Context, page, perPage int) (ListPage, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	rows, total, err := s.store.ListQuotes(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return ListPage{}, storageErr(err)
	}
	out := ListPage{Quotes: make([]Saved, 0, len(rows)), Total: total, Page: page, PerPage: perPage}
	snapshot, names, err := s.snapshots(ctx)
	if err != nil {
		return ListPage{}, err
	}
	for _, row := range rows {
		saved, err := savedFromRow(row, snapshot, names, s.compute)
		if err != nil {
			continue
		}
		out.Quotes = append(out.Quotes, saved)
	}
	return out, nil
}

// Delete removes a saved quote.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteQuote(ctx, id); err != nil {
		return translateErr(err)
	}
	return nil
}

// snapshots fetches the pricing catalog together with package display names.
func (s *Service) snapshots(ctx context.Context) (pricing.Catalog, map[string]string, error) {
	snapshot, err := s.catalog.Snapshot(ctx)
	if err != nil {
		return nil, nil, storageErr(err)
	}
	names, err := s.catalog.PackageNames(ctx)
	if err != nil {
		return nil, nil, storageErr(err)
	}
	return snapshot, names, nil
}

func (s *Service) compute(sel Selection, snapshot pricing.Catalog, names map[string]string) Result {
	psel := toPricingSelection(sel)
	psel.PackageNames = names
	totals := pricing.Compute(psel, snapshot, s.markupBps)
	return Result{
		Lines:    pricing.Lines(psel, snapshot),
		Subtotal: totals.Subtotal,
		Discount: totals.Discount,
		Total:    totals.Total,
	}
}

func (s *Service) toSaved(ctx context.Context, row store.Quote) (Saved, error) {
	snapshot, names, err := s.snapshots(ctx)
	if err != nil {
		return Saved{}, err
	}
	saved, err := savedFromRow(row, snapshot, names, s.compute)
	if err != nil {
		return Saved{}, storageErr(err)
	}
	return saved, nil
}

func savedFromRow(row store.Quote, snapshot pricing.Catalog, names map[string]string, compute func(Selection, pricing.Catalog, map[string]string) Result) (Saved, error) {
	var sel Selection
	if err := json.Unmarshal(row.Selection, &sel); err != nil {
		return Saved{}, err
	}
	return Saved{
		ID:        row.ID,
		Label:     row.Label,
		Selection: sel,
		Result:    compute(sel, snapshot, names),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func toPricingSelection(sel Selection) pricing.Selection {
	out := pricing.Selection{
		ServiceIDs:       sel.ServiceIDs,
		VariantByService: sel.Variants,
		Hours:            sel.Hours,
		PackagePrices:    sel.Packages,
		CarSize:          pricing.CarSize(sel.CarSize),
		DiscountPct:      sel.DiscountPct,
	}
	for _, c := range sel.Charges {
		out.Charges = append(out.Charges, pricing.Charge{Description: c.Description, Amount: c.Amount})
	}
	return out
}

func validateSelection(sel Selection) error {
	switch sel.CarSize {
	case "", string(pricing.SizeM), string(pricing.SizeXL):
	default:
		return common.Validation("carSize", "carSize must be M or XL")
	}
	return nil
}

func translateErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFound("quote")
	}
	return storageErr(err)
}

func storageErr(err error) error {
	if common.IsAppError(err) {
		return err
	}
	return &common.AppError{Code: common.CodeInternal, Message: "quote storage failure", HTTPStatus: http.StatusInternalServerError, Err: err}
}
