package ordering

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/vacek-detailing/studio-api/internal/common"
	"github.com/vacek-detailing/studio-api/internal/events"
)

type storeProvider interface {
	GetOrderMap(ctx context.Context, scope, group string) (Map, error)
	PutOrderMap(ctx context.Context, scope, group string, ranks Map) error
}

type locker interface {
	WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// Service persists rank maps and applies staff reorder actions. Moves for one
// (scope, group) pair are serialized through a distributed lock so two staff
// members clicking at once cannot interleave read-modify-write cycles.
type Service struct {
	Store   storeProvider
	Lock    locker
	LockTTL time.Duration
	Bus     *events.Bus
}

// Get returns the persisted rank map for a scope and group.
func (s *Service) Get(ctx context.Context, scope, group string) (Map, error) {
	if err := checkScope(scope, group); err != nil {
		return nil, err
	}
	m, err := s.Store.GetOrderMap(ctx, scope, group)
	return m, wrapStoreErr(err)
}

// Move applies one adjacent swap and persists the result. Boundary moves are
// no-ops that still return the current map.
func (s *Service) Move(ctx context.Context, scope, group string, orderedKeys []string, index int, dir Direction) (Map, error) {
	if err := checkScope(scope, group); err != nil {
		return nil, err
	}
	if dir != Up && dir != Down {
		return nil, common.Validation("direction", "direction must be up or down")
	}

	var result Map
	apply := func(ctx context.Context) error {
		cur, err := s.Store.GetOrderMap(ctx, scope, group)
		if err != nil {
			return err
		}
		if len(cur) == 0 {
			// first move on an unordered group: seed ranks from the
			// caller's current display order
			cur = Normalize(cur, orderedKeys)
		}
		next := MoveAdjacent(cur, orderedKeys, index, dir)
		if err := s.Store.PutOrderMap(ctx, scope, group, next); err != nil {
			return err
		}
		result = next
		return nil
	}

	var err error
	if s.Lock != nil {
		err = s.Lock.WithLock(ctx, lockKey(scope, group), s.LockTTL, apply)
	} else {
		err = apply(ctx)
	}
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if s.Bus != nil {
		_, _ = s.Bus.Emit(ctx, events.TopicOrderMoved, scope+"/"+group, map[string]any{
			"scope": scope,
			"group": group,
		})
	}
	return result, nil
}

func lockKey(scope, group string) string {
	return "studio:order:" + scope + ":" + group
}

func checkScope(scope, group string) error {
	if !KnownScope(scope) {
		return common.Validation("scope", "unknown ordering scope")
	}
	if strings.TrimSpace(group) == "" {
		return common.Validation("group", "group is required")
	}
	return nil
}

// translate store failures uniformly for handler consumption
func wrapStoreErr(err error) error {
	if err == nil || common.IsAppError(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &common.AppError{Code: common.CodeInternal, Message: "ordering storage failure", HTTPStatus: http.StatusInternalServerError, Err: err}
}
