package client_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/delegate"
	"github.com/zenstack-dev/zen-go/ops"
	"github.com/zenstack-dev/zen-go/schema"
)

func assetSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := &schema.Schema{
		Provider: schema.SQLite,
		Models: map[string]*schema.Model{
			"Asset": {
				Name:          "Asset",
				DBTable:       "assets",
				IDFields:      []string{"id"},
				IsDelegate:    true,
				Discriminator: "type",
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true, Default: &schema.Default{Call: schema.CallAutoincrement}},
					{Name: "url", Type: schema.TypeString},
					{Name: "type", Type: schema.TypeString},
				},
			},
			"Video": {
				Name:      "Video",
				DBTable:   "videos",
				IDFields:  []string{"id"},
				BaseModel: "Asset",
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true},
					{Name: "duration", Type: schema.TypeInt},
				},
			},
			"Image": {
				Name:      "Image",
				DBTable:   "images",
				IDFields:  []string{"id"},
				BaseModel: "Asset",
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true},
					{Name: "format", Type: schema.TypeString},
				},
			},
		},
	}
	frozen, err := s.Freeze()
	require.NoError(t, err)
	return frozen
}

const assetDDL = `
CREATE TABLE assets (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	type TEXT NOT NULL
);
CREATE TABLE videos (
	id INTEGER PRIMARY KEY REFERENCES assets (id),
	duration INTEGER NOT NULL
);
CREATE TABLE images (
	id INTEGER PRIMARY KEY REFERENCES assets (id),
	format TEXT NOT NULL
);`

func TestDelegatePolymorphism(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, assetSchema(t), assetDDL)

	// Concrete create inserts the base row plus its own.
	video, err := c.Model("Video").Create(ctx, &ops.CreateArgs{Data: map[string]any{
		"url": "u", "duration": 100,
	}})
	require.NoError(t, err)
	assert.Equal(t, "u", video["url"])
	assert.EqualValues(t, 100, video["duration"])
	assert.Equal(t, "Video", video["type"])

	// Reading through the base projects base fields plus the
	// discriminator.
	asset, err := c.Model("Asset").FindFirst(ctx, nil)
	require.NoError(t, err)
	require.NotNil(t, asset)
	assert.Equal(t, "u", asset["url"])
	assert.Equal(t, "Video", asset["type"])
	_, hasDuration := asset["duration"]
	assert.False(t, hasDuration)

	// Creating the delegate directly is an input error.
	_, err = c.Model("Asset").Create(ctx, &ops.CreateArgs{Data: map[string]any{"url": "x"}})
	require.Error(t, err)
	assert.True(t, zen.IsValidationError(err))

	// The discriminator is not client writable.
	_, err = c.Model("Video").Create(ctx, &ops.CreateArgs{Data: map[string]any{
		"url": "v", "duration": 1, "type": "Image",
	}})
	require.Error(t, err)
	assert.True(t, zen.IsValidationError(err))
}

func TestDelegateResolverNarrow(t *testing.T) {
	ctx := context.Background()
	c := openClient(t, assetSchema(t), assetDDL)

	_, err := c.Model("Video").Create(ctx, &ops.CreateArgs{Data: map[string]any{"url": "v", "duration": 9}})
	require.NoError(t, err)
	_, err = c.Model("Image").Create(ctx, &ops.CreateArgs{Data: map[string]any{"url": "i", "format": "png"}})
	require.NoError(t, err)

	base := c.Schema().Model("Asset")
	r := delegate.NewResolver(c.Handler())

	rows, err := c.Model("Asset").FindMany(ctx, &ops.FindArgs{OrderBy: []ops.OrderSpec{{Field: "id"}}})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	narrowed, err := r.Narrow(ctx, base, rows[0])
	require.NoError(t, err)
	assert.EqualValues(t, 9, narrowed["duration"])

	counts, err := r.CountBySubtype(ctx, base, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts["Video"])
	assert.EqualValues(t, 1, counts["Image"])

	// Deleting the concrete row cascades to the base row.
	n, err := c.Model("Video").DeleteMany(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	remaining, err := c.Model("Asset").Count(ctx, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, remaining)
}
