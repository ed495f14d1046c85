package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/ordering"
	"github.com/vacek-detailing/studio-api/internal/store"
)

type fakeStore struct {
	services  []store.Service
	packages  []store.Package
	orderMaps map[string]ordering.Map

	created store.ServiceInput
	deleted string
}

func (f *fakeStore) ListServices(context.Context) ([]store.Service, error) {
	return f.services, nil
}

func (f *fakeStore) GetService(_ context.Context, id string) (store.Service, error) {
	for _, svc := range f.services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return store.Service{}, store.ErrNotFound
}

func (f *fakeStore) CreateService(_ context.Context, input store.ServiceInput) (store.Service, error) {
	f.created = input
	svc := store.Service{
		ID:           "svc-new",
		Name:         input.Name,
		Price:        input.Price,
		Hourly:       input.Hourly,
		HasVariants:  input.HasVariants,
		Subcategory:  input.Subcategory,
		MainCategory: input.MainCategory,
	}
	f.services = append(f.services, svc)
	return svc, nil
}

func (f *fakeStore) UpdateService(_ context.Context, id string, input store.ServiceInput) (store.Service, error) {
	for i, svc := range f.services {
		if svc.ID == id {
			svc.Name = input.Name
			svc.Price = input.Price
			f.services[i] = svc
			return svc, nil
		}
	}
	return store.Service{}, store.ErrNotFound
}

func (f *fakeStore) DeleteService(_ context.Context, id string) error {
	f.deleted = id
	for i, svc := range f.services {
		if svc.ID == id {
			f.services = append(f.services[:i], f.services[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) ListPackages(context.Context) ([]store.Package, error) {
	return f.packages, nil
}

func (f *fakeStore) GetPackage(_ context.Context, id string) (store.Package, error) {
	for _, pkg := range f.packages {
		if pkg.ID == id {
			return pkg, nil
		}
	}
	return store.Package{}, store.ErrNotFound
}

func (f *fakeStore) CreatePackage(_ context.Context, input store.PackageInput) (store.Package, error) {
	pkg := store.Package{ID: "pkg-new", Name: input.Name, Price: input.Price, ServiceIDs: input.ServiceIDs}
	f.packages = append(f.packages, pkg)
	return pkg, nil
}

func (f *fakeStore) UpdatePackage(_ context.Context, id string, input store.PackageInput) (store.Package, error) {
	for i, pkg := range f.packages {
		if pkg.ID == id {
			pkg.Name = input.Name
			pkg.Price = input.Price
			pkg.ServiceIDs = input.ServiceIDs
			f.packages[i] = pkg
			return pkg, nil
		}
	}
	return store.Package{}, store.ErrNotFound
}

func (f *fakeStore) DeletePackage(_ context.Context, id string) error {
	for i, pkg := range f.packages {
		if pkg.ID == id {
			f.packages = append(f.packages[:i], f.packages[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStore) GetOrderMap(_ context.Context, scope, group string) (ordering.Map, error) {
	if m, ok := f.orderMaps[scope+"/"+group]; ok {
		return m, nil
	}
	return ordering.Map{}, nil
}

func newTestService(t *testing.T, st *fakeStore) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{Store: st})
	require.NoError(t, err)
	return svc
}

func TestListViewGroupsAndOrders(t *testing.T) {
	st := &fakeStore{
		services: []store.Service{
			{ID: "a", Name: "Wax", MainCategory: "exterior", Subcategory: "paint", Price: 100},
			{ID: "b", Name: "Wash", MainCategory: "exterior", Subcategory: "wash", Price: 50},
			{ID: "c", Name: "Vacuum", MainCategory: "interior", Subcategory: "cleaning", Price: 40},
			{ID: "d", Name: "Rinse", MainCategory: "exterior", Subcategory: "wash", Price: 30},
		},
		orderMaps: map[string]ordering.Map{
			"category/root":         {"interior": 0, "exterior": 1},
			"subcategory/exterior":  {"wash": 0, "paint": 1},
			"service/exterior/wash": {"d": 0, "b": 1},
		},
	}
	svc := newTestService(t, st)

	view, err := svc.ListView(context.Background())
	require.NoError(t, err)
	require.Len(t, view, 2)
	require.Equal(t, "interior", view[0].Key)
	require.Equal(t, "exterior", view[1].Key)

	exterior := view[1]
	require.Equal(t, "wash", exterior.Subcategories[0].Name)
	require.Equal(t, "paint", exterior.Subcategories[1].Name)

	wash := exterior.Subcategories[0].Services
	require.Equal(t, []string{"d", "b"}, []string{wash[0].ID, wash[1].ID})
}

func TestListViewUnrankedSortsLast(t *testing.T) {
	st := &fakeStore{
		services: []store.Service{
			{ID: "a", Name: "A", MainCategory: "interior", Subcategory: "cleaning"},
			{ID: "b", Name: "B", MainCategory: "exterior", Subcategory: "wash"},
		},
		orderMaps: map[string]ordering.Map{
			"category/root": {"exterior": 0},
		},
	}
	svc := newTestService(t, st)

	view, err := svc.ListView(context.Background())
	require.NoError(t, err)
	require.Equal(t, "exterior", view[0].Key)
	require.Equal(t, "interior", view[1].Key)
}

func TestListPackagesDiscount(t *testing.T) {
	st := &fakeStore{
		services: []store.Service{
			{ID: "a", Price: 600},
			{ID: "b", Price: 400},
		},
		packages: []store.Package{
			{ID: "p1", Name: "Bundle", Price: 800, ServiceIDs: []string{"a", "b"}},
		},
	}
	svc := newTestService(t, st)

	items, err := svc.ListPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(1000), items[0].MembersSum)
	require.Equal(t, 20, items[0].DiscountPct)
}

func TestSnapshotCarriesVariants(t *testing.T) {
	st := &fakeStore{
		services: []store.Service{
			{ID: "a", Name: "Polish", HasVariants: true, Variants: []store.Variant{
				{ID: "v1", Name: "One-step", Price: 2500},
			}},
		},
	}
	svc := newTestService(t, st)

	snapshot, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	entry, ok := snapshot["a"]
	require.True(t, ok)
	require.True(t, entry.HasVariants)
	require.Len(t, entry.Variants, 1)
	require.Equal(t, int64(2500), entry.Variants[0].Price)
}

func TestCreateServiceValidation(t *testing.T) {
	svc := newTestService(t, &fakeStore{})

	_, err := svc.CreateService(context.Background(), ServiceInput{Name: "  ", MainCategory: "interior"})
	requireValidation(t, err)

	_, err = svc.CreateService(context.Background(), ServiceInput{Name: "Wash", MainCategory: "garage"})
	requireValidation(t, err)

	_, err = svc.CreateService(context.Background(), ServiceInput{Name: "Wash", MainCategory: "exterior", Price: -1})
	requireValidation(t, err)

	_, err = svc.CreateService(context.Background(), ServiceInput{Name: "Polish", MainCategory: "exterior", HasVariants: true})
	requireValidation(t, err)
}

func TestCreateServiceDefaultsSubcategory(t *testing.T) {
	st := &fakeStore{}
	svc := newTestService(t, st)

	item, err := svc.CreateService(context.Background(), ServiceInput{Name: "Wash", MainCategory: "exterior"})
	require.NoError(t, err)
	require.Equal(t, FallbackSubcategory, item.Subcategory)
	require.Equal(t, FallbackSubcategory, st.created.Subcategory)
}

func TestGetServiceNotFound(t *testing.T) {
	svc := newTestService(t, &fakeStore{})
	_, err := svc.GetService(context.Background(), "missing")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeNotFound, appErr.Code)
}

func requireValidation(t *testing.T, err error) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}
