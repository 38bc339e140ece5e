// Package dataloader arranges batch-loaded records by the keys they were
// requested with.
//
// Stores fetch records with IN queries, which return rows in whatever
// order the database chooses. Callers re-align them:
//
//	events, _ := loadByIDs(ctx, ids)
//	ordered := dataloader.Present(ids, events, func(e *event.Event) string { return e.ID })
package dataloader

import (
	"errors"
)

// ErrNotFound is returned when an entity is not found in a batch result.
var ErrNotFound = errors.New("dataloader: entity not found")

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// OrderByKeys reorders entities to match the order of requested keys.
// Missing entities are represented as zero values with corresponding errors.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// Present reorders entities to match the order of requested keys, dropping
// keys with no entity.
func Present[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) []V {
	result, errs := OrderByKeys(keys, values, keyFn)
	out := result[:0]
	for i := range result {
		if errs[i] == nil {
			out = append(out, result[i])
		}
	}
	return out
}

// GroupByKey groups entities by a key function, keeping their order
// within each group.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}
