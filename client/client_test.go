package client_test

import (
	"context"
	dsql "database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/client"
	"github.com/zenstack-dev/zen-go/dialect/sql"
	"github.com/zenstack-dev/zen-go/engine"
	"github.com/zenstack-dev/zen-go/ops"
	"github.com/zenstack-dev/zen-go/plugin"
	"github.com/zenstack-dev/zen-go/procs"
	"github.com/zenstack-dev/zen-go/schema"
)

func userSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := &schema.Schema{
		Provider: schema.SQLite,
		Models: map[string]*schema.Model{
			"User": {
				Name:         "User",
				DBTable:      "users",
				IDFields:     []string{"id"},
				UniqueFields: map[string][]string{"email": {"email"}},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true, Default: &schema.Default{Call: schema.CallAutoincrement}},
					{Name: "email", Type: schema.TypeString, Unique: true},
					{Name: "name", Type: schema.TypeString},
					{Name: "age", Type: schema.TypeInt, Optional: true},
					{Name: "posts", Type: "Post", Array: true, Relation: &schema.Relation{Opposite: "author"}},
				},
			},
			"Post": {
				Name:     "Post",
				DBTable:  "posts",
				IDFields: []string{"id"},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true, Default: &schema.Default{Call: schema.CallAutoincrement}},
					{Name: "title", Type: schema.TypeString},
					{Name: "authorId", Type: schema.TypeInt, Column: "author_id", ForeignKeyFor: []string{"author"}},
					{Name: "author", Type: "User", Relation: &schema.Relation{
						Opposite: "posts", Fields: []string{"authorId"}, References: []string{"id"},
					}},
				},
			},
		},
	}
	frozen, err := s.Freeze()
	require.NoError(t, err)
	return frozen
}

const userDDL = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	email TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	age INTEGER
);
CREATE TABLE posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	author_id INTEGER NOT NULL REFERENCES users (id)
);`

func openClient(t *testing.T, s *schema.Schema, ddl string, mutate ...func(*client.Config)) *client.Client {
	t.Helper()
	db, err := dsql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	// One connection keeps the in-memory database visible to every
	// statement, transactions included.
	db.SetMaxOpenConns(1)
	_, err = db.Exec(ddl)
	require.NoError(t, err)
	cfg := client.Config{Schema: s, Driver: sql.OpenDB("sqlite", db)}
	for _, fn := range mutate {
		fn(&cfg)
	}
	c, err := client.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Disconnect() })
	return c
}

func TestCreateFindRoundtrip(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)
	users := c.Model("User")

	created, err := users.Create(ctx, &ops.CreateArgs{Data: map[string]any{
		"email": "a@b.co", "name": "Ada", "age": 36,
	}})
	require.NoError(t, err)
	require.NotNil(t, created)
	require.NotNil(t, created["id"])

	found, err := users.FindUnique(ctx, &ops.FindArgs{Where: map[string]any{"id": created["id"]}})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "a@b.co", found["email"])
	assert.Equal(t, "Ada", found["name"])

	byEmail, err := users.FindUnique(ctx, &ops.FindArgs{Where: map[string]any{"email": "a@b.co"}})
	require.NoError(t, err)
	require.NotNil(t, byEmail)

	_, err = users.FindUniqueOrThrow(ctx, &ops.FindArgs{Where: map[string]any{"email": "missing@x.y"}})
	require.Error(t, err)
	assert.True(t, zen.IsNotFound(err))

	// A non-unique criterion is rejected up front.
	_, err = users.FindUnique(ctx, &ops.FindArgs{Where: map[string]any{"name": "Ada"}})
	require.Error(t, err)
	assert.True(t, zen.IsValidationError(err))
}

func TestNegativeTakeReversesOrder(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)
	users := c.Model("User")
	for _, name := range []string{"a", "b", "c"} {
		_, err := users.Create(ctx, &ops.CreateArgs{Data: map[string]any{
			"email": name + "@x.y", "name": name,
		}})
		require.NoError(t, err)
	}
	take := -2
	rows, err := users.FindMany(ctx, &ops.FindArgs{
		OrderBy: []ops.OrderSpec{{Field: "id"}},
		Take:    &take,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0]["name"])
	assert.Equal(t, "c", rows[1]["name"])
}

func TestCreateManySkipDuplicates(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)
	users := c.Model("User")

	n, err := users.CreateMany(ctx, &ops.CreateManyArgs{Data: []map[string]any{
		{"email": "a@x.y", "name": "a"},
		{"email": "b@x.y", "name": "b"},
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = users.CreateMany(ctx, &ops.CreateManyArgs{
		Data: []map[string]any{
			{"email": "a@x.y", "name": "dup"},
			{"email": "c@x.y", "name": "c"},
		},
		SkipDuplicates: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	total, err := users.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
}

func TestUniqueConstraintSurfacesDBError(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)
	users := c.Model("User")

	_, err := users.Create(ctx, &ops.CreateArgs{Data: map[string]any{"email": "a@x.y", "name": "a"}})
	require.NoError(t, err)
	_, err = users.Create(ctx, &ops.CreateArgs{Data: map[string]any{"email": "a@x.y", "name": "b"}})
	require.Error(t, err)
	assert.True(t, zen.IsConstraintError(err))
}

func TestUpdateAndUpsert(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)
	users := c.Model("User")

	created, err := users.Create(ctx, &ops.CreateArgs{Data: map[string]any{"email": "a@x.y", "name": "a"}})
	require.NoError(t, err)

	updated, err := users.Update(ctx, &ops.UpdateArgs{
		Where: map[string]any{"id": created["id"]},
		Data:  map[string]any{"name": "renamed"},
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated["name"])

	// Updating id fields is not supported.
	_, err = users.Update(ctx, &ops.UpdateArgs{
		Where: map[string]any{"id": created["id"]},
		Data:  map[string]any{"id": 99},
	})
	require.Error(t, err)
	assert.True(t, zen.IsValidationError(err))

	// Upsert with a match behaves as update.
	row, err := users.Upsert(ctx, &ops.UpsertArgs{
		Where:  map[string]any{"email": "a@x.y"},
		Create: map[string]any{"email": "a@x.y", "name": "never"},
		Update: map[string]any{"name": "upserted"},
	})
	require.NoError(t, err)
	assert.Equal(t, "upserted", row["name"])

	// Upsert without a match behaves as create.
	row, err = users.Upsert(ctx, &ops.UpsertArgs{
		Where:  map[string]any{"email": "new@x.y"},
		Create: map[string]any{"email": "new@x.y", "name": "fresh"},
		Update: map[string]any{"name": "never"},
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", row["name"])

	total, err := users.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestNestedCreateAndInclude(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)

	created, err := c.Model("User").Create(ctx, &ops.CreateArgs{Data: map[string]any{
		"email": "a@x.y", "name": "a",
		"posts": &ops.Nested{Create: []map[string]any{
			{"title": "first"},
			{"title": "second"},
		}},
	}})
	require.NoError(t, err)

	withPosts, err := c.Model("User").FindUnique(ctx, &ops.FindArgs{
		Where:   map[string]any{"id": created["id"]},
		Include: map[string]*ops.FindArgs{"posts": {OrderBy: []ops.OrderSpec{{Field: "id"}}}},
	})
	require.NoError(t, err)
	posts, ok := withPosts["posts"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, posts, 2)
	assert.Equal(t, "first", posts[0]["title"])

	// The inverse include resolves the to-one side.
	post, err := c.Model("Post").FindFirst(ctx, &ops.FindArgs{
		Where:   map[string]any{"title": "first"},
		Include: map[string]*ops.FindArgs{"author": {}},
	})
	require.NoError(t, err)
	author, ok := post["author"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "a", author["name"])

	// Relation filter: users with some post titled "second".
	rows, err := c.Model("User").FindMany(ctx, &ops.FindArgs{
		Where: map[string]any{"posts": map[string]any{"some": map[string]any{"title": "second"}}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestDeleteManyAndLimit(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)
	users := c.Model("User")
	for _, name := range []string{"a", "b", "c"} {
		_, err := users.Create(ctx, &ops.CreateArgs{Data: map[string]any{"email": name + "@x.y", "name": name}})
		require.NoError(t, err)
	}
	limit := 2
	n, err := users.DeleteMany(ctx, &ops.DeleteArgs{Limit: &limit})
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	total, err := users.Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestAggregateAndGroupBy(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)
	users := c.Model("User")
	for _, u := range []struct {
		name string
		age  int
	}{{"a", 10}, {"b", 20}, {"c", 30}} {
		_, err := users.Create(ctx, &ops.CreateArgs{Data: map[string]any{
			"email": u.name + "@x.y", "name": u.name, "age": u.age,
		}})
		require.NoError(t, err)
	}
	res, err := users.Aggregate(ctx, &ops.AggregateArgs{
		Count: []string{"_all"},
		Sum:   []string{"age"},
		Max:   []string{"age"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Count["_all"])
	assert.EqualValues(t, 60, res.Sum["age"])
	assert.EqualValues(t, 30, res.Max["age"])

	// Sum over a non-numeric field is rejected.
	_, err = users.Aggregate(ctx, &ops.AggregateArgs{Sum: []string{"name"}})
	require.Error(t, err)
	assert.True(t, zen.IsValidationError(err))

	groups, err := users.GroupBy(ctx, &ops.GroupByArgs{
		By:    []string{"name"},
		Count: []string{"_all"},
	})
	require.NoError(t, err)
	assert.Len(t, groups, 3)

	// Fields in having must appear in by or as an aggregator.
	_, err = users.GroupBy(ctx, &ops.GroupByArgs{
		By:     []string{"name"},
		Count:  []string{"_all"},
		Having: map[string]any{"age": 10},
	})
	require.Error(t, err)
	assert.True(t, zen.IsValidationError(err))
}

func TestTypedPredicatesFlowThroughFind(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)
	users := c.Model("User")
	for _, u := range []struct {
		name string
		age  int
	}{{"a", 10}, {"b", 20}, {"c", 30}} {
		_, err := users.Create(ctx, &ops.CreateArgs{Data: map[string]any{
			"email": u.name + "@x.y", "name": u.name, "age": u.age,
		}})
		require.NoError(t, err)
	}

	// The generic typed-field wrappers are what compiler/gen emits per
	// model; they refine a find through WhereP.
	type userP = func(*sql.Selector)
	name := sql.StringField[userP]("name")
	age := sql.IntField[userP]("age")

	rows, err := users.FindMany(ctx, &ops.FindArgs{
		WhereP:  []func(*sql.Selector){age.GTE(15), name.NEQ("c")},
		OrderBy: []ops.OrderSpec{{Field: "id"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0]["name"])
}

func TestDebugAndStatsDrivers(t *testing.T) {
	ctx := context.Background()

	logged := &recordingLogger{}
	debug := openClient(t, userSchema(t), userDDL, func(cfg *client.Config) {
		cfg.Debug = true
		cfg.Logger = logged
	})
	_, err := debug.Model("User").FindMany(ctx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, logged.debugs)

	stats := openClient(t, userSchema(t), userDDL, func(cfg *client.Config) {
		cfg.SlowQueryThreshold = time.Hour
	})
	_, err = stats.Model("User").FindMany(ctx, nil)
	require.NoError(t, err)
	_, err = stats.ExecRaw(ctx, "DELETE FROM posts")
	require.NoError(t, err)

	snap, ok := stats.QueryStatistics()
	require.True(t, ok)
	assert.GreaterOrEqual(t, snap.TotalQueries, int64(1))
	assert.GreaterOrEqual(t, snap.TotalExecs, int64(1))
	assert.Zero(t, snap.SlowQueries)

	// Without instrumentation there is nothing to report.
	_, ok = debug.QueryStatistics()
	assert.False(t, ok)
}

// recordingLogger captures engine debug output for assertions.
type recordingLogger struct {
	debugs []string
	errors []string
}

func (l *recordingLogger) Debugf(format string, args ...any) {
	l.debugs = append(l.debugs, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

func TestUseDerivesImmutableClients(t *testing.T) {
	ctx := context.Background()
	base := openClient(t, userSchema(t), userDDL)

	calls := 0
	derived := base.Use(&plugin.Plugin{
		ID: "counter",
		OnQuery: func(ctx context.Context, q *plugin.Query, next plugin.QueryFunc) (any, error) {
			calls++
			return next(ctx, q.Args)
		},
	})

	_, err := derived.Model("User").FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// The parent chain is untouched.
	_, err = base.Model("User").FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	// UnuseAll drops the chain on a fresh derivation.
	_, err = derived.UnuseAll().Model("User").FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestNodeInterceptorsRewriteInsertValues(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)

	rewrite := func(column string, fn func(any) any) func(context.Context, sql.Querier, engine.NodeRunner) (any, error) {
		return func(ctx context.Context, node sql.Querier, next engine.NodeRunner) (any, error) {
			if ins, ok := node.(*sql.InsertBuilder); ok {
				cols := ins.InsertColumns()
				rows := ins.InsertValues()
				for i, col := range cols {
					if col != column {
						continue
					}
					for _, row := range rows {
						row[i] = fn(row[i])
					}
				}
				ins.SetValues(rows)
			}
			return next(ctx, node)
		}
	}
	derived := c.
		Use(&plugin.Plugin{ID: "email-rewrite", OnNode: rewrite("email", func(any) any { return "u2@test.com" })}).
		Use(&plugin.Plugin{ID: "name-suffix", OnNode: rewrite("name", func(v any) any { return v.(string) + "2" })})

	created, err := derived.Model("User").Create(ctx, &ops.CreateArgs{Data: map[string]any{
		"email": "u1@test.com", "name": "Marvin",
	}})
	require.NoError(t, err)
	assert.Equal(t, "u2@test.com", created["email"])
	assert.Equal(t, "Marvin2", created["name"])
}

func TestProcedureRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := userSchema(t)
	s.Procedures = map[string]*schema.Procedure{
		"createTwoAndFail": {
			Name:     "createTwoAndFail",
			Params:   []*schema.ProcParam{{Name: "a", Type: schema.TypeString}, {Name: "b", Type: schema.TypeString}},
			Returns:  schema.TypeInt,
			Mutation: true,
		},
	}
	var c *client.Client
	c = openClient(t, s, userDDL, func(cfg *client.Config) {
		cfg.Procedures = map[string]procs.HandlerFunc{
			"createTwoAndFail": func(ctx context.Context, args []any) (any, error) {
				for _, email := range args {
					_, err := c.Model("User").Create(ctx, &ops.CreateArgs{Data: map[string]any{
						"email": email, "name": "tmp",
					}})
					if err != nil {
						return nil, err
					}
				}
				return nil, errors.New("boom")
			},
		}
	})

	_, err := c.CallProc(ctx, "createTwoAndFail", "a@x.y", "b@x.y")
	require.Error(t, err)

	rows, err := c.Model("User").FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestTransactionSavepoints(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, userSchema(t), userDDL)

	err := c.Transaction(ctx, func(ctx context.Context) error {
		if _, err := c.Model("User").Create(ctx, &ops.CreateArgs{Data: map[string]any{"email": "keep@x.y", "name": "keep"}}); err != nil {
			return err
		}
		// The failing inner transaction rolls back to its savepoint
		// without poisoning the outer work.
		inner := c.Transaction(ctx, func(ctx context.Context) error {
			if _, err := c.Model("User").Create(ctx, &ops.CreateArgs{Data: map[string]any{"email": "drop@x.y", "name": "drop"}}); err != nil {
				return err
			}
			return errors.New("inner failure")
		})
		require.Error(t, inner)
		return nil
	})
	require.NoError(t, err)

	rows, err := c.Model("User").FindMany(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "keep@x.y", rows[0]["email"])
}
