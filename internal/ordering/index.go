// Package ordering maintains display-rank maps for sibling groups of catalog
// items (categories, subcategories, services, packages, checklist items).
package ordering

import "sort"

// Map assigns a zero-based display rank to each item key. Keys missing from
// the map sort last. Ranks need not be contiguous.
type Map map[string]int

// Direction of an adjacent move.
type Direction string

// Supported move directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MoveAdjacent returns a copy of cur with the ranks of orderedKeys[index] and
// its neighbour in the given direction swapped. Moves at a boundary, an
// out-of-range index, or an unknown direction return cur unchanged; the caller
// owns boundary handling in the UI but the engine stays safe regardless.
func MoveAdjacent(cur Map, orderedKeys []string, index int, dir Direction) Map {
	if index < 0 || index >= len(orderedKeys) {
		return cur
	}
	var neighbour int
	switch dir {
	case Up:
		neighbour = index - 1
	case Down:
		neighbour = index + 1
	default:
		return cur
	}
	if neighbour < 0 || neighbour >= len(orderedKeys) {
		return cur
	}

	a, b := orderedKeys[index], orderedKeys[neighbour]
	out := make(Map, len(cur))
	for k, v := range cur {
		out[k] = v
	}
	av, aok := cur[a]
	bv, bok := cur[b]
	if bok {
		out[a] = bv
	} else {
		delete(out, a)
	}
	if aok {
		out[b] = av
	} else {
		delete(out, b)
	}
	return out
}

// DeriveSequence sorts items ascending by their rank in order. Items absent
// from the map sort last; ties (including multiple absent items) preserve
// their relative order in the input.
func DeriveSequence[T any](order Map, items []T, key func(T) string) []T {
	out := make([]T, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := order[key(out[i])]
		rj, jok := order[key(out[j])]
		if !iok && !jok {
			return false
		}
		if !iok {
			return false
		}
		if !jok {
			return true
		}
		return ri < rj
	})
	return out
}

// Normalize returns a copy of order restricted to the provided keys with
// contiguous ranks following the derived display sequence. Keys absent from
// the map are appended in input order.
func Normalize(order Map, keys []string) Map {
	seq := DeriveSequence(order, keys, func(k string) string { return k })
	out := make(Map, len(seq))
	for i, k := range seq {
		out[k] = i
	}
	return out
}
