package ordering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vacek-detailing/studio-api/internal/common"
)

type fakeOrderStore struct {
	maps map[string]Map
	err  error
}

func (f *fakeOrderStore) key(scope, group string) string { return scope + "/" + group }

func (f *fakeOrderStore) GetOrderMap(_ context.Context, scope, group string) (Map, error) {
	if f.err != nil {
		return nil, f.err
	}
	if m, ok := f.maps[f.key(scope, group)]; ok {
		return m, nil
	}
	return Map{}, nil
}

func (f *fakeOrderStore) PutOrderMap(_ context.Context, scope, group string, ranks Map) error {
	if f.err != nil {
		return f.err
	}
	if f.maps == nil {
		f.maps = map[string]Map{}
	}
	f.maps[f.key(scope, group)] = ranks
	return nil
}

type countingLock struct {
	calls int
	keys  []string
}

func (c *countingLock) WithLock(ctx context.Context, key string, _ time.Duration, fn func(context.Context) error) error {
	c.calls++
	c.keys = append(c.keys, key)
	return fn(ctx)
}

func TestMoveSwapsPersistedRanks(t *testing.T) {
	st := &fakeOrderStore{maps: map[string]Map{
		"category/root": {"interior": 0, "exterior": 1, "package": 2},
	}}
	svc := &Service{Store: st}

	got, err := svc.Move(context.Background(), ScopeCategory, GroupRoot,
		[]string{"interior", "exterior", "package"}, 1, Up)
	require.NoError(t, err)
	require.Equal(t, Map{"exterior": 0, "interior": 1, "package": 2}, got)
	require.Equal(t, got, st.maps["category/root"])
}

func TestMoveSeedsUnorderedGroup(t *testing.T) {
	st := &fakeOrderStore{}
	svc := &Service{Store: st}

	got, err := svc.Move(context.Background(), ScopeService, "exterior/wash",
		[]string{"a", "b", "c"}, 2, Up)
	require.NoError(t, err)
	require.Equal(t, Map{"a": 0, "c": 1, "b": 2}, got)
}

func TestMoveBoundaryIsNoOp(t *testing.T) {
	st := &fakeOrderStore{maps: map[string]Map{
		"category/root": {"interior": 0, "exterior": 1},
	}}
	svc := &Service{Store: st}

	got, err := svc.Move(context.Background(), ScopeCategory, GroupRoot,
		[]string{"interior", "exterior"}, 0, Up)
	require.NoError(t, err)
	require.Equal(t, Map{"interior": 0, "exterior": 1}, got)
}

func TestMoveValidatesScopeAndDirection(t *testing.T) {
	svc := &Service{Store: &fakeOrderStore{}}

	_, err := svc.Move(context.Background(), "aisle", GroupRoot, []string{"a"}, 0, Down)
	requireValidationCode(t, err)

	_, err = svc.Move(context.Background(), ScopeCategory, "  ", []string{"a"}, 0, Down)
	requireValidationCode(t, err)

	_, err = svc.Move(context.Background(), ScopeCategory, GroupRoot, []string{"a"}, 0, Direction("sideways"))
	requireValidationCode(t, err)
}

func TestMoveSerializesThroughLock(t *testing.T) {
	lk := &countingLock{}
	svc := &Service{Store: &fakeOrderStore{}, Lock: lk, LockTTL: time.Second}

	_, err := svc.Move(context.Background(), ScopePackage, GroupRoot, []string{"p1", "p2"}, 0, Down)
	require.NoError(t, err)
	require.Equal(t, 1, lk.calls)
	require.Equal(t, []string{"studio:order:package:root"}, lk.keys)
}

func TestMoveWrapsStoreFailure(t *testing.T) {
	svc := &Service{Store: &fakeOrderStore{err: errors.New("pg down")}}

	_, err := svc.Move(context.Background(), ScopeCategory, GroupRoot, []string{"a", "b"}, 0, Down)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeInternal, appErr.Code)
}

func TestGetChecksScope(t *testing.T) {
	svc := &Service{Store: &fakeOrderStore{}}

	_, err := svc.Get(context.Background(), "nope", GroupRoot)
	requireValidationCode(t, err)

	m, err := svc.Get(context.Background(), ScopeChecklist, "cl-1")
	require.NoError(t, err)
	require.Empty(t, m)
}

func requireValidationCode(t *testing.T, err error) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, common.CodeValidation, appErr.Code)
}
