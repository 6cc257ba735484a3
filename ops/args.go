// Package ops implements the operation handlers: one per CRUD verb,
// translating validated arguments into query-builder trees, managing
// nested writes and default generation, and coordinating transactional
// mutation with policy read-back.
package ops

import (
	"maps"

	"github.com/zenstack-dev/zen-go/dialect/sql"
)

// Filter is a where-clause value: field names mapped to scalar values,
// operator objects, relation filters or the AND/OR/NOT combinators.
type Filter = map[string]any

// OrderSpec is one orderBy term.
type OrderSpec struct {
	Field string
	Desc  bool
}

// FindArgs are the arguments of the find verbs. Skip and Take are
// pointers so absence and zero stay distinct; a negative Take reverses
// the result order.
type FindArgs struct {
	Where Filter
	// WhereP holds selector-level predicates (the typed field builders
	// in dialect/sql, privacy filter functions) AND-ed with Where.
	WhereP   []func(*sql.Selector)
	Select   []string
	Omit     []string
	Include  map[string]*FindArgs
	OrderBy  []OrderSpec
	Skip     *int
	Take     *int
	Cursor   map[string]any
	Distinct []string
}

// CreateArgs are the arguments of create. Relation fields inside Data
// hold *Nested values; scalar fields hold plain values.
type CreateArgs struct {
	Data map[string]any
	FindArgs
}

// CreateManyArgs are the arguments of createMany and
// createManyAndReturn.
type CreateManyArgs struct {
	Data           []map[string]any
	SkipDuplicates bool
}

// UpdateArgs are the arguments of update and updateMany.
type UpdateArgs struct {
	Where Filter
	Data  map[string]any
	// Limit bounds updateMany.
	Limit *int
	FindArgs
}

// UpsertArgs are the arguments of upsert.
type UpsertArgs struct {
	Where  Filter
	Create map[string]any
	Update map[string]any
	FindArgs
}

// DeleteArgs are the arguments of delete and deleteMany.
type DeleteArgs struct {
	Where Filter
	// Limit bounds deleteMany.
	Limit *int
	FindArgs
}

// AggregateArgs are the arguments of aggregate.
type AggregateArgs struct {
	Where   Filter
	OrderBy []OrderSpec
	Skip    *int
	Take    *int
	Count   []string // _count; the pseudo-field "_all" counts rows.
	Sum     []string
	Avg     []string
	Min     []string
	Max     []string
}

// GroupByArgs are the arguments of groupBy.
type GroupByArgs struct {
	By      []string
	Where   Filter
	Having  Filter
	OrderBy []OrderSpec
	Skip    *int
	Take    *int
	Count   []string
	Sum     []string
	Avg     []string
	Min     []string
	Max     []string
}

// Nested is the value a relation field takes inside a create or update
// payload: a tagged union of the nested-write variants. Exactly the
// variants meaningful for the enclosing verb may be set; the handler
// rejects the rest.
type Nested struct {
	Create          []map[string]any
	Connect         []map[string]any
	ConnectOrCreate []*ConnectOrCreate
	CreateMany      *CreateManyArgs
	Disconnect      []map[string]any
	Set             []map[string]any
	Update          []*NestedUpdate
	UpdateMany      []*NestedUpdateMany
	Upsert          []*NestedUpsert
	Delete          []map[string]any
	DeleteMany      []Filter
}

// ConnectOrCreate connects an existing row by unique criterion, or
// creates it when absent.
type ConnectOrCreate struct {
	Where  map[string]any
	Create map[string]any
}

// NestedUpdate updates one related row selected by a unique criterion.
type NestedUpdate struct {
	Where map[string]any
	Data  map[string]any
}

// NestedUpdateMany updates related rows matching a filter.
type NestedUpdateMany struct {
	Where Filter
	Data  map[string]any
	Limit *int
}

// NestedUpsert upserts one related row.
type NestedUpsert struct {
	Where  map[string]any
	Create map[string]any
	Update map[string]any
}

// NormalizeFilter deep-clones a filter so compilation never mutates
// caller state. Absent keys are how a caller expresses "no filter" on
// a field; an explicit nil entry is meaningful and matches SQL NULL.
// Wire adapters that must distinguish a JSON null from an omitted
// property do so before the filter reaches the engine.
func NormalizeFilter(f Filter) Filter {
	if f == nil {
		return nil
	}
	out := maps.Clone(f)
	for k, v := range out {
		switch vv := v.(type) {
		case map[string]any:
			out[k] = NormalizeFilter(vv)
		case []any:
			cp := make([]any, len(vv))
			for i, item := range vv {
				if m, ok := item.(map[string]any); ok {
					cp[i] = NormalizeFilter(m)
				} else {
					cp[i] = item
				}
			}
			out[k] = cp
		}
	}
	return out
}
