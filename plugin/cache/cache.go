// Package cache provides an optional query-node-level plugin that
// memoizes read results. The engine itself never caches; callers opt
// in by registering this plugin.
package cache

import (
	"context"
	"strconv"
	"time"

	"github.com/zenstack-dev/zen-go"
)

// Store is the interface a caching backend implements (in-memory,
// Redis, Memcached, ...). A nil byte slice with a nil error from Get
// means the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
}

// Key identifies a cached query result.
type Key struct {
	Table      string
	Operation  string
	Predicates string
	OrderBy    string
	Limit      int
	Offset     int
}

// String returns the canonical cache key string.
func (k Key) String() string {
	return k.Table + ":" + k.Operation + ":" + k.Predicates + ":" + k.OrderBy +
		":" + strconv.Itoa(k.Limit) + ":" + strconv.Itoa(k.Offset)
}

// Codec (de)serializes the erased zen.Value the cache stores.
type Codec interface {
	Encode(v zen.Value) ([]byte, error)
	Decode(data []byte) (zen.Value, error)
}

// Plugin wraps a Querier chain with read-through caching of low-level
// query results, keyed by Key. TTL of zero means entries never expire
// on their own; the plugin still honors explicit Delete/Clear calls.
type Plugin struct {
	Store Store
	Codec Codec
	TTL   time.Duration
}

// New returns a caching Plugin. codec must be able to round-trip
// whatever Value the wrapped Querier returns (typically []map[string]any
// for row slices).
func New(store Store, codec Codec, ttl time.Duration) *Plugin {
	return &Plugin{Store: store, Codec: codec, TTL: ttl}
}

// Intercept implements zen.Interceptor: a low-level query hook keyed
// by the query's table/op/predicate shape rather than its resolved
// rows.
func (p *Plugin) Intercept(next zen.Querier) zen.Querier {
	return zen.QuerierFunc(func(ctx context.Context, q zen.Query) (zen.Value, error) {
		key := keyFor(q)
		if data, err := p.Store.Get(ctx, key.String()); err == nil && data != nil {
			if v, err := p.Codec.Decode(data); err == nil {
				return v, nil
			}
		}

		v, err := next.Query(ctx, q)
		if err != nil {
			return nil, err
		}

		if data, err := p.Codec.Encode(v); err == nil {
			_ = p.Store.Set(ctx, key.String(), data, p.TTL)
		}
		return v, nil
	})
}

// Invalidate drops every cached entry for a table, e.g. after a
// mutation hook observes a write against it.
func (p *Plugin) Invalidate(ctx context.Context, table string) error {
	return p.Store.DeletePrefix(ctx, table+":")
}

func keyFor(q zen.Query) Key {
	key := Key{Table: q.Model(), Operation: q.Op().String()}
	if pred := q.WhereP(); pred != nil {
		if s, ok := pred.(interface{ String() string }); ok {
			key.Predicates = s.String()
		}
	}
	if limit := q.Limit(); limit != nil {
		key.Limit = *limit
	}
	if offset := q.Offset(); offset != nil {
		key.Offset = *offset
	}
	return key
}
