// Package plugin defines the interception surface clients register
// extensions through: the high-level operation plane (onQuery), the
// low-level query-node plane, and the entity-mutation hooks.
package plugin

import (
	"context"

	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/engine"
	"github.com/zenstack-dev/zen-go/ops"
)

// Query describes the high-level operation a plugin intercepts.
type Query struct {
	Model     string
	Operation string
	Args      any
}

// QueryFunc continues the chain with (possibly rewritten) arguments.
// A plugin may call it zero, one or several times.
type QueryFunc func(ctx context.Context, args any) (any, error)

// Plugin is one registered interceptor. Any subset of the hooks may be
// set.
type Plugin struct {
	// ID identifies the plugin; required.
	ID          string
	Name        string
	Description string

	// OnQuery intercepts high-level operations before validation and
	// argument handling.
	OnQuery func(ctx context.Context, q *Query, next QueryFunc) (any, error)

	// OnNode intercepts built query-builder nodes just before
	// emission.
	OnNode func(ctx context.Context, node sql.Querier, next engine.NodeRunner) (any, error)

	// BeforeEntityMutation runs ahead of each create/update/delete.
	BeforeEntityMutation func(ctx context.Context, m *ops.MutationInfo) error

	// AfterEntityMutation runs after each create/update/delete: inside
	// the transaction when RunAfterMutationWithinTransaction is set,
	// after commit otherwise.
	AfterEntityMutation func(ctx context.Context, m *ops.MutationInfo) error

	RunAfterMutationWithinTransaction bool
}
