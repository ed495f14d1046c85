package catalog

import (
	"context"
	"errors"
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/events"
	"github.com/vacek-detailing/studio-api/internal/ordering"
	"github.com/vacek-detailing/studio-api/internal/pricing"
	"github.com/vacek-detailing/studio-api/internal/store"
)

// FallbackSubcategory buckets services without an explicit grouping label.
const FallbackSubcategory = "other"

// Main catalog categories.
const (
	CategoryInterior = "interior"
	CategoryExterior = "exterior"
	CategoryPackage  = "package"
)

type storeProvider interface {
	ListServices(ctx context.Context) ([]store.Service, error)
	GetService(ctx context.Context, id string) (store.Service, error)
	CreateService(ctx context.Context, input store.ServiceInput) (store.Service, error)
	UpdateService(ctx context.Context, id string, input store.ServiceInput) (store.Service, error)
	DeleteService(ctx context.Context, id string) error
	ListPackages(ctx context.Context) ([]store.Package, error)
	GetPackage(ctx context.Context, id string) (store.Package, error)
	CreatePackage(ctx context.Context, input store.PackageInput) (store.Package, error)
	UpdatePackage(ctx context.Context, id string, input store.PackageInput) (store.Package, error)
	DeletePackage(ctx context.Context, id string) error
	GetOrderMap(ctx context.Context, scope, group string) (ordering.Map, error)
}

// Service orchestrates catalog reads, admin mutations, caching, and
// change notifications.
type Service struct {
	store storeProvider
	cache *Cache
	bus   *events.Bus
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store storeProvider
	Cache *Cache
	Bus   *events.Bus
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{store: cfg.Store, cache: cfg.Cache, bus: cfg.Bus}, nil
}

// ServiceItem is the public service payload.
type ServiceItem struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Price        pricing.Money `json:"price"`
	Hourly       bool          `json:"hourly"`
	HasVariants  bool          `json:"hasVariants"`
	Variants     []VariantItem `json:"variants,omitempty"`
	Subcategory  string        `json:"subcategory"`
	MainCategory string        `json:"mainCategory"`
}

// VariantItem is the public variant payload.
type VariantItem struct {
	ID    string        `json:"id"`
	Name  string        `json:"name"`
	Price pricing.Money `json:"price"`
}

// SubcategoryGroup holds one subcategory's services in display order.
type SubcategoryGroup struct {
	Name     string        `json:"name"`
	Services []ServiceItem `json:"services"`
}

// CategoryGroup holds one main category's subcategories in display order.
type CategoryGroup struct {
	Key           string             `json:"key"`
	Subcategories []SubcategoryGroup `json:"subcategories"`
}

// PackageItem is the public package payload with the advertised discount.
type PackageItem struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Price       pricing.Money `json:"price"`
	ServiceIDs  []string      `json:"serviceIds"`
	MembersSum  pricing.Money `json:"membersSum"`
	DiscountPct int           `json:"discountPct"`
}

// ListView assembles the full grouped catalog, ordered by the persisted rank
// maps. Served from cache when possible.
func (s *Service) ListView(ctx context.Context) ([]CategoryGroup, error) {
	if s.cache != nil {
		var cached []CategoryGroup
		if ok, err := s.cache.GetJSON(ctx, cacheKeyServices, &cached); err == nil && ok {
			return cached, nil
		}
	}
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := map[string]map[string][]ServiceItem{}
	for _, svc := range services {
		item := toServiceItem(svc)
		sub := item.Subcategory
		if byCategory[item.MainCategory] == nil {
			byCategory[item.MainCategory] = map[string][]ServiceItem{}
		}
		byCategory[item.MainCategory][sub] = append(byCategory[item.MainCategory][sub], item)
	}

	categoryOrder, err := s.store.GetOrderMap(ctx, ordering.ScopeCategory, ordering.GroupRoot)
	if err != nil {
		return nil, err
	}
	categoryKeys := make([]string, 0, len(byCategory))
	for key := range byCategory {
		categoryKeys = append(categoryKeys, key)
	}
	// map iteration order is random; anchor ties before applying ranks
	sort.Strings(categoryKeys)
	categoryKeys = ordering.DeriveSequence(categoryOrder, categoryKeys, identity)

	view := make([]CategoryGroup, 0, len(categoryKeys))
	for _, categoryKey := range categoryKeys {
		subOrder, err := s.store.GetOrderMap(ctx, ordering.ScopeSubcategory, categoryKey)
		if err != nil {
			return nil, err
		}
		subKeys := make([]string, 0, len(byCategory[categoryKey]))
		for sub := range byCategory[categoryKey] {
			subKeys = append(subKeys, sub)
		}
		sort.Strings(subKeys)
		subKeys = ordering.DeriveSequence(subOrder, subKeys, identity)

		group := CategoryGroup{Key: categoryKey}
		for _, sub := range subKeys {
			svcOrder, err := s.store.GetOrderMap(ctx, ordering.ScopeService, categoryKey+"/"+sub)
			if err != nil {
				return nil, err
			}
			items := ordering.DeriveSequence(svcOrder, byCategory[categoryKey][sub], func(it ServiceItem) string { return it.ID })
			group.Subcategories = append(group.Subcategories, SubcategoryGroup{Name: sub, Services: items})
		}
		view = append(view, group)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKeyServices, view)
	}
	return view, nil
}

// GetService returns one service by id.
func (s *Service) GetService(ctx context.Context, id string) (ServiceItem, error) {
	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		return ServiceItem{}, translateStoreErr(err, "service")
	}
	return toServiceItem(svc), nil
}

// ListPackages returns packages in display order with the advertised
// discount computed against current member prices.
func (s *Service) ListPackages(ctx context.Context) ([]PackageItem, error) {
	if s.cache != nil {
		var cached []PackageItem
		if ok, err := s.cache.GetJSON(ctx, cacheKeyPackages, &cached); err == nil && ok {
			return cached, nil
		}
	}
	packages, err := s.store.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	priceByID := make(map[string]pricing.Money, len(services))
	for _, svc := range services {
		priceByID[svc.ID] = svc.Price
	}

	pkgOrder, err := s.store.GetOrderMap(ctx, ordering.ScopePackage, ordering.GroupRoot)
	if err != nil {
		return nil, err
	}
	items := make([]PackageItem, 0, len(packages))
	for _, pkg := range packages {
		items = append(items, toPackageItem(pkg, priceByID))
	}
	items = ordering.DeriveSequence(pkgOrder, items, func(it PackageItem) string { return it.ID })

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, cacheKeyPackages, items)
	}
	return items, nil
}

// GetPackage returns one package by id.
func (s *Service) GetPackage(ctx context.Context, id string) (PackageItem, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return PackageItem{}, translateStoreErr(err, "package")
	}
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return PackageItem{}, err
	}
	priceByID := make(map[string]pricing.Money, len(services))
	for _, svc := range services {
		priceByID[svc.ID] = svc.Price
	}
	return toPackageItem(pkg, priceByID), nil
}

// PackagePrice returns the current price of one package.
func (s *Service) PackagePrice(ctx context.Context, id string) (pricing.Money, error) {
	pkg, err := s.store.GetPackage(ctx, id)
	if err != nil {
		return 0, translateStoreErr(err, "package")
	}
	return pkg.Price, nil
}

// PackageNames returns the display name of every package keyed by id.
func (s *Service) PackageNames(ctx context.Context) (map[string]string, error) {
	packages, err := s.store.ListPackages(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(packages))
	for _, pkg := range packages {
		names[pkg.ID] = pkg.Name
	}
	return names, nil
}

// Snapshot builds the immutable pricing catalog from current services.
func (s *Service) Snapshot(ctx context.Context) (pricing.Catalog, error) {
	services, err := s.store.ListServices(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := make(pricing.Catalog, len(services))
	for _, svc := range services {
		entry := pricing.Service{
			ID:          svc.ID,
			Name:        svc.Name,
			Price:       svc.Price,
			Hourly:      svc.Hourly,
			HasVariants: svc.HasVariants,
		}
		for _, v := range svc.Variants {
			entry.Variants = append(entry.Variants, pricing.Variant{ID: v.ID, Name: v.Name, Price: v.Price})
		}
		snapshot[svc.ID] = entry
	}
	return snapshot, nil
}

// ServiceInput carries a validated service create/update payload.
type ServiceInput struct {
	Name         string
	Price        pricing.Money
	Hourly       bool
	HasVariants  bool
	Variants     []VariantItem
	Subcategory  string
	MainCategory string
}

// CreateService validates and persists a new service.
func (s *Service) CreateService(ctx context.Context, input ServiceInput) (ServiceItem, error) {
	normalized, err := normalizeServiceInput(input)
	if err != nil {
		return ServiceItem{}, err
	}
	created, err := s.store.CreateService(ctx, normalized)
	if err != nil {
		return ServiceItem{}, err
	}
	s.notify(ctx, events.TopicServiceCreated, created.ID)
	return toServiceItem(created), nil
}

// UpdateService validates and persists service changes.
func (s *Service) UpdateService(ctx context.Context, id string, input ServiceInput) (ServiceItem, error) {
	normalized, err := normalizeServiceInput(input)
	if err != nil {
		return ServiceItem{}, err
	}
	updated, err := s.store.UpdateService(ctx, id, normalized)
	if err != nil {
		return ServiceItem{}, translateStoreErr(err, "service")
	}
	s.notify(ctx, events.TopicServiceUpdated, updated.ID)
	return toServiceItem(updated), nil
}

// DeleteService removes a service by id.
func (s *Service) DeleteService(ctx context.Context, id string) error {
	if err := s.store.DeleteService(ctx, id); err != nil {
		return translateStoreErr(err, "service")
	}
	s.notify(ctx, events.TopicServiceDeleted, id)
	return nil
}

// PackageInput carries a validated package create/update payload.
type PackageInput struct {
	Name       string
	Price      pricing.Money
	ServiceIDs []string
}

// CreatePackage validates and persists a new package.
func (s *Service) CreatePackage(ctx context.Context, input PackageInput) (PackageItem, error) {
	if err := validatePackageInput(input); err != nil {
		return PackageItem{}, err
	}
	created, err := s.store.CreatePackage(ctx, store.PackageInput{
		Name:       strings.TrimSpace(input.Name),
		Price:      input.Price,
		ServiceIDs: input.ServiceIDs,
	})
	if err != nil {
		return PackageItem{}, translateStoreErr(err, "package")
	}
	s.notify(ctx, events.TopicPackageCreated, created.ID)
	return s.GetPackage(ctx, created.ID)
}

// UpdatePackage validates and persists package changes.
func (s *Service) UpdatePackage(ctx context.Context, id string, input PackageInput) (PackageItem, error) {
	if err := validatePackageInput(input); err != nil {
		return PackageItem{}, err
	}
	updated, err := s.store.UpdatePackage(ctx, id, store.PackageInput{
		Name:       strings.TrimSpace(input.Name),
		Price:      input.Price,
		ServiceIDs: input.ServiceIDs,
	})
	if err != nil {
		return PackageItem{}, translateStoreErr(err, "package")
	}
	s.notify(ctx, events.TopicPackageUpdated, updated.ID)
	return s.GetPackage(ctx, updated.ID)
}

// DeletePackage removes a package by id.
func (s *Service) DeletePackage(ctx context.Context, id string) error {
	if err := s.store.DeletePackage(ctx, id); err != nil {
		return translateStoreErr(err, "package")
	}
	s.notify(ctx, events.TopicPackageDeleted, id)
	return nil
}

func (s *Service) notify(ctx context.Context, topic, aggregateID string) {
	if s.bus == nil {
		return
	}
	_, _ = s.bus.Emit(ctx, topic, aggregateID, nil)
}

func normalizeServiceInput(input ServiceInput) (store.ServiceInput, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return store.ServiceInput{}, common.Validation("name", "name is required")
	}
	if input.Price < 0 {
		return store.ServiceInput{}, common.Validation("price", "price must not be negative")
	}
	category := strings.ToLower(strings.TrimSpace(input.MainCategory))
	switch category {
	case CategoryInterior, CategoryExterior, CategoryPackage:
	default:
		return store.ServiceInput{}, common.Validation("mainCategory", "mainCategory must be interior, exterior, or package")
	}
	sub := strings.TrimSpace(input.Subcategory)
	if sub == "" {
		sub = FallbackSubcategory
	}
	if input.HasVariants && len(input.Variants) == 0 {
		return store.ServiceInput{}, common.Validation("variants", "a variant-bearing service needs at least one variant")
	}
	out := store.ServiceInput{
		Name:         name,
		Price:        input.Price,
		Hourly:       input.Hourly,
		HasVariants:  input.HasVariants,
		Subcategory:  sub,
		MainCategory: category,
	}
	if input.HasVariants {
		for i, v := range input.Variants {
			vname := strings.TrimSpace(v.Name)
			if vname == "" {
				return store.ServiceInput{}, common.Validation("variants", "variant name is required")
			}
			if v.Price < 0 {
				return store.ServiceInput{}, common.Validation("variants", "variant price must not be negative")
			}
			out.Variants = append(out.Variants, store.Variant{Name: vname, Price: v.Price, Position: i})
		}
	}
	return out, nil
}

func validatePackageInput(input PackageInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return common.Validation("name", "name is required")
	}
	if input.Price < 0 {
		return common.Validation("price", "price must not be negative")
	}
	if len(input.ServiceIDs) == 0 {
		return common.Validation("serviceIds", "a package needs at least one service")
	}
	return nil
}

func toServiceItem(svc store.Service) ServiceItem {
	item := ServiceItem{
		ID:           svc.ID,
		Name:         svc.Name,
		Price:        svc.Price,
		Hourly:       svc.Hourly,
		HasVariants:  svc.HasVariants,
		Subcategory:  svc.Subcategory,
		MainCategory: svc.MainCategory,
	}
	for _, v := range svc.Variants {
		item.Variants = append(item.Variants, VariantItem{ID: v.ID, Name: v.Name, Price: v.Price})
	}
	return item
}

func toPackageItem(pkg store.Package, priceByID map[string]pricing.Money) PackageItem {
	item := PackageItem{
		ID:         pkg.ID,
		Name:       pkg.Name,
		Price:      pkg.Price,
		ServiceIDs: pkg.ServiceIDs,
	}
	for _, sid := range pkg.ServiceIDs {
		item.MembersSum += priceByID[sid]
	}
	if item.MembersSum > 0 {
		item.DiscountPct = int(math.Round((1 - float64(pkg.Price)/float64(item.MembersSum)) * 100))
	}
	return item
}

func translateStoreErr(err error, resource string) error {
	if errors.Is(err, store.ErrNotFound) {
		return common.NotFound(resource)
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return &common.AppError{Code: common.CodeInternal, Message: "storage failure", HTTPStatus: http.StatusInternalServerError, Err: err}
}

func identity(s string) string { return s }
