package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/vacek-detailing/studio-api/internal/ordering"
)

// GetOrderMap loads the persisted rank map for a (scope, group) pair. A
// missing row yields an empty map; malformed persisted ranks are discarded
// entry by entry rather than failing the read.
func (s *Store) GetOrderMap(ctx context.Context, scope, group string) (ordering.Map, error) {
	var raw []byte
	err := s.Pool.QueryRow(ctx, `
		SELECT ranks FROM order_maps WHERE scope = $1 AND group_key = $2`,
		scope, group).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ordering.Map{}, nil
		}
		return nil, fmt.Errorf("get order map: %w", err)
	}
	return decodeRanks(raw), nil
}

// PutOrderMap upserts the rank map for a (scope, group) pair.
func (s *Store) PutOrderMap(ctx context.Context, scope, group string, ranks ordering.Map) error {
	raw, err := json.Marshal(ranks)
	if err != nil {
		return fmt.Errorf("encode order map: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO order_maps (scope, group_key, ranks)
		VALUES ($1, $2, $3)
		ON CONFLICT (scope, group_key)
		DO UPDATE SET ranks = EXCLUDED.ranks, updated_at = now()`,
		scope, group, raw)
	if err != nil {
		return fmt.Errorf("put order map: %w", err)
	}
	return nil
}

// decodeRanks tolerates non-integer rank values in persisted JSON: bad
// entries are skipped so a corrupt map cannot break display sorting.
func decodeRanks(raw []byte) ordering.Map {
	var loose map[string]json.RawMessage
	if err := json.Unmarshal(raw, &loose); err != nil {
		return ordering.Map{}
	}
	out := make(ordering.Map, len(loose))
	for key, msg := range loose {
		var num json.Number
		if err := json.Unmarshal(msg, &num); err != nil {
			continue
		}
		rank, err := num.Int64()
		if err != nil {
			continue
		}
		out[key] = int(rank)
	}
	return out
}
