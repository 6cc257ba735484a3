// Package dataloader batches per-row relation lookups issued by
// resolvers into single engine queries. The generic helpers adapt any
// dataloader implementation (graph-gophers/dataloader, dataloadgen) to
// the batching contract: results aligned one-to-one, in key order.
package dataloader

import (
	"context"
	"errors"

	"github.com/zenstack-dev/zen-go/client"
	"github.com/zenstack-dev/zen-go/ops"
)

// ErrNotFound is reported for keys a batch produced no row for.
var ErrNotFound = errors.New("dataloader: entity not found")

// KeyFunc extracts a key from an entity.
type KeyFunc[K comparable, V any] func(V) K

// BatchFunc loads a batch of entities by their keys.
type BatchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, []error)

// OrderByKeys reorders entities to match the requested key order. The
// batching contract requires the result slice to align index-by-index
// with the keys; rows the batch missed surface as zero values paired
// with ErrNotFound.
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

// OrderByKeysNoError is OrderByKeys with misses silently left as zero
// values, for optional relations.
func OrderByKeysNoError[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) []V {
	result, _ := OrderByKeys(keys, values, keyFn)
	return result
}

// GroupByKey groups entities by a key function, the shape a to-many
// relation batch needs before alignment.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys aligns grouped entities with the requested key
// order: the i-th inner slice holds the group of keys[i].
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}

// CachePrimer is the cache-priming half of a dataloader cache.
type CachePrimer[K comparable, V any] interface {
	Prime(key K, value V)
}

// PrimeMany primes multiple values into a cache, typically after a
// mutation returned fresh rows.
func PrimeMany[K comparable, V any](cache CachePrimer[K, V], values []V, keyFn KeyFunc[K, V]) {
	for _, v := range values {
		cache.Prime(keyFn(v), v)
	}
}

// CacheClearer is the invalidation half of a dataloader cache.
type CacheClearer[K comparable] interface {
	Clear(key K)
}

// ClearMany clears multiple keys from a cache.
func ClearMany[K comparable](cache CacheClearer[K], keys []K) {
	for _, key := range keys {
		cache.Clear(key)
	}
}

// ctxKey is the context key the request-scoped loader bundle travels
// under.
type ctxKey struct{}

// WithLoaders injects a request-scoped loader bundle into the context,
// typically from HTTP middleware so every resolver of one request
// shares the same batches.
func WithLoaders[T any](ctx context.Context, loaders T) context.Context {
	return context.WithValue(ctx, ctxKey{}, loaders)
}

// For extracts the loader bundle from the context.
func For[T any](ctx context.Context) T {
	v, _ := ctx.Value(ctxKey{}).(T)
	return v
}

// BatchResult pairs one loaded value with its error.
type BatchResult[V any] struct {
	Value V
	Error error
}

// NewBatchResult creates a BatchResult.
func NewBatchResult[V any](value V, err error) BatchResult[V] {
	return BatchResult[V]{Value: value, Error: err}
}

// Results zips separate value and error slices into BatchResult form.
func Results[V any](values []V, errs []error) []BatchResult[V] {
	results := make([]BatchResult[V], len(values))
	for i := range values {
		var err error
		if i < len(errs) {
			err = errs[i]
		}
		results[i] = BatchResult[V]{Value: values[i], Error: err}
	}
	return results
}

// ModelBatchFn builds a BatchFunc over a model handle: one findMany
// with an IN filter on keyField, aligned back to key order. It is the
// engine-native batch body for a to-one loader.
func ModelBatchFn(c *client.Client, model, keyField string) BatchFunc[any, map[string]any] {
	return func(ctx context.Context, keys []any) ([]map[string]any, []error) {
		rows, err := c.Model(model).FindMany(ctx, &ops.FindArgs{
			Where: map[string]any{keyField: map[string]any{"in": keys}},
		})
		if err != nil {
			errs := make([]error, len(keys))
			for i := range errs {
				errs[i] = err
			}
			return make([]map[string]any, len(keys)), errs
		}
		return OrderByKeys(keys, rows, func(r map[string]any) any { return r[keyField] })
	}
}
