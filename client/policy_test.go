package client_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/client"
	"github.com/zenstack-dev/zen-go/ops"
	"github.com/zenstack-dev/zen-go/schema"
)

func profileSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := &schema.Schema{
		Provider: schema.SQLite,
		Models: map[string]*schema.Model{
			"Profile": {
				Name:     "Profile",
				DBTable:  "profiles",
				IDFields: []string{"id"},
				Policies: []*schema.Policy{
					schema.AllowRule(schema.OpRead, schema.Eq(schema.Auth("age"), schema.F("age"))),
					schema.AllowRule(schema.OpCreate, schema.True()),
				},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true},
					{Name: "age", Type: schema.TypeInt},
				},
			},
		},
	}
	frozen, err := s.Freeze()
	require.NoError(t, err)
	return frozen
}

const profileDDL = `
CREATE TABLE profiles (
	id INTEGER PRIMARY KEY,
	age INTEGER NOT NULL
);`

func TestPolicyFilterOnRead(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, profileSchema(t), profileDDL, func(cfg *client.Config) {
		cfg.EnforcePolicies = true
	})
	_, err := c.ExecRaw(ctx, "INSERT INTO profiles (id, age) VALUES (?, ?), (?, ?)", 1, 18, 2, 20)
	require.NoError(t, err)
	seeded := c.SetAuth(map[string]any{"id": 1, "age": 18})

	rows, err := seeded.Model("Profile").FindMany(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, rows[0]["id"])

	n, err := seeded.Model("Profile").Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// Unauthenticated clients see nothing.
	rows, err = c.Model("Profile").FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)

	// Raw SQL bypasses the policy layer entirely.
	raw, err := c.QueryRaw(ctx, "SELECT * FROM profiles")
	require.NoError(t, err)
	assert.Len(t, raw, 2)
}

func TestCreateReadBackRejection(t *testing.T) {
	ctx := context.Background()
	s := &schema.Schema{
		Provider: schema.SQLite,
		Models: map[string]*schema.Model{
			"M": {
				Name:     "M",
				DBTable:  "ms",
				IDFields: []string{"id"},
				Policies: []*schema.Policy{
					schema.AllowRule(schema.OpCreate|schema.OpUpdate, schema.True()),
					schema.AllowRule(schema.OpRead, schema.Gt(schema.F("value"), schema.Val(0))),
				},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeString, ID: true},
					{Name: "value", Type: schema.TypeInt},
				},
			},
		},
	}
	frozen, err := s.Freeze()
	require.NoError(t, err)
	c := openClient(t, frozen, `CREATE TABLE ms (id TEXT PRIMARY KEY, value INTEGER NOT NULL);`, func(cfg *client.Config) {
		cfg.EnforcePolicies = true
	})

	_, err = c.Model("M").Create(ctx, &ops.CreateArgs{Data: map[string]any{"id": "1", "value": 0}})
	require.Error(t, err)
	var pe *zen.PrivacyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, zen.CannotReadBack, pe.Reason)

	// The transaction rolled back: the table holds no row.
	raw, err := c.QueryRaw(ctx, "SELECT * FROM ms")
	require.NoError(t, err)
	assert.Empty(t, raw)

	// A readable row goes through.
	row, err := c.Model("M").Create(ctx, &ops.CreateArgs{Data: map[string]any{"id": "2", "value": 5}})
	require.NoError(t, err)
	assert.EqualValues(t, 5, row["value"])
}

func TestUpdateDeniedByPolicy(t *testing.T) {
	ctx := context.Background()
	s := &schema.Schema{
		Provider: schema.SQLite,
		Models: map[string]*schema.Model{
			"Doc": {
				Name:     "Doc",
				DBTable:  "docs",
				IDFields: []string{"id"},
				Policies: []*schema.Policy{
					schema.AllowRule(schema.OpCreate|schema.OpRead, schema.True()),
					schema.AllowRule(schema.OpUpdate, schema.Eq(schema.F("ownerId"), schema.Auth("id"))),
				},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true},
					{Name: "ownerId", Type: schema.TypeInt, Column: "owner_id"},
					{Name: "body", Type: schema.TypeString},
				},
			},
		},
	}
	frozen, err := s.Freeze()
	require.NoError(t, err)
	ddl := `CREATE TABLE docs (id INTEGER PRIMARY KEY, owner_id INTEGER NOT NULL, body TEXT NOT NULL);`
	c := openClient(t, frozen, ddl, func(cfg *client.Config) {
		cfg.EnforcePolicies = true
	})

	owner := c.SetAuth(map[string]any{"id": 1})
	_, err = owner.Model("Doc").Create(ctx, &ops.CreateArgs{Data: map[string]any{
		"id": 1, "ownerId": 1, "body": "mine",
	}})
	require.NoError(t, err)

	// The owner may update.
	_, err = owner.Model("Doc").Update(ctx, &ops.UpdateArgs{
		Where: map[string]any{"id": 1},
		Data:  map[string]any{"body": "edited"},
	})
	require.NoError(t, err)

	// Anyone else is rejected, not silently skipped.
	stranger := c.SetAuth(map[string]any{"id": 99})
	_, err = stranger.Model("Doc").Update(ctx, &ops.UpdateArgs{
		Where: map[string]any{"id": 1},
		Data:  map[string]any{"body": "theirs"},
	})
	require.Error(t, err)
	var pe *zen.PrivacyError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, zen.NoAccess, pe.Reason)
}

func TestPostUpdatePolicy(t *testing.T) {
	ctx := context.Background()
	s := &schema.Schema{
		Provider: schema.SQLite,
		Models: map[string]*schema.Model{
			"Counter": {
				Name:     "Counter",
				DBTable:  "counters",
				IDFields: []string{"id"},
				Policies: []*schema.Policy{
					schema.AllowRule(schema.OpCreate|schema.OpRead|schema.OpUpdate, schema.True()),
					// The value may only grow.
					schema.AllowRule(schema.OpPostUpdate, schema.Ge(schema.F("value"), schema.Before("value"))),
				},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true},
					{Name: "value", Type: schema.TypeInt},
				},
			},
		},
	}
	frozen, err := s.Freeze()
	require.NoError(t, err)
	ddl := `CREATE TABLE counters (id INTEGER PRIMARY KEY, value INTEGER NOT NULL);`
	c := openClient(t, frozen, ddl, func(cfg *client.Config) {
		cfg.EnforcePolicies = true
	})

	_, err = c.Model("Counter").Create(ctx, &ops.CreateArgs{Data: map[string]any{"id": 1, "value": 10}})
	require.NoError(t, err)

	_, err = c.Model("Counter").Update(ctx, &ops.UpdateArgs{
		Where: map[string]any{"id": 1},
		Data:  map[string]any{"value": 11},
	})
	require.NoError(t, err)

	_, err = c.Model("Counter").Update(ctx, &ops.UpdateArgs{
		Where: map[string]any{"id": 1},
		Data:  map[string]any{"value": 5},
	})
	require.Error(t, err)
	var pe *zen.PrivacyError
	require.True(t, errors.As(err, &pe))

	// The rejected update rolled back.
	row, err := c.Model("Counter").FindUnique(ctx, &ops.FindArgs{Where: map[string]any{"id": 1}})
	require.NoError(t, err)
	assert.EqualValues(t, 11, row["value"])
}
