package validator_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	zen "github.com/zenstack-dev/zen-go"
	"github.com/zenstack-dev/zen-go/schema"
	"github.com/zenstack-dev/zen-go/validator"
)

func testSchema(t *testing.T) *schema.Schema {
	t.Helper()
	s := &schema.Schema{
		Provider: schema.SQLite,
		Enums:    map[string][]string{"Role": {"admin", "member"}},
		TypeDefs: map[string]*schema.TypeDef{
			"Address": {
				Name: "Address",
				Fields: []*schema.Field{
					{Name: "city", Type: schema.TypeString},
					{Name: "zip", Type: schema.TypeString, Optional: true},
				},
			},
		},
		Models: map[string]*schema.Model{
			"User": {
				Name:     "User",
				IDFields: []string{"id"},
				Fields: []*schema.Field{
					{Name: "id", Type: schema.TypeInt, ID: true, Default: &schema.Default{Call: schema.CallAutoincrement}},
					{Name: "email", Type: schema.TypeString, Attributes: []schema.Attribute{
						{Name: schema.AttrTrim},
						{Name: schema.AttrLower},
						{Name: schema.AttrEmail},
					}},
					{Name: "name", Type: schema.TypeString, Attributes: []schema.Attribute{
						{Name: schema.AttrLength, Args: []any{2, 10}},
					}},
					{Name: "age", Type: schema.TypeInt, Optional: true, Attributes: []schema.Attribute{
						{Name: schema.AttrGTE, Args: []any{0}},
						{Name: schema.AttrLT, Args: []any{150}},
					}},
					{Name: "role", Type: "Role", Optional: true},
					{Name: "website", Type: schema.TypeString, Optional: true, Attributes: []schema.Attribute{
						{Name: schema.AttrURL},
					}},
					{Name: "handle", Type: schema.TypeString, Optional: true, Attributes: []schema.Attribute{
						{Name: schema.AttrRegex, Args: []any{`^[a-z0-9_]+$`}},
					}},
					{Name: "address", Type: "Address", JSONTyped: true, Optional: true},
				},
				Validations: []*schema.RowValidation{
					{
						Expr:    schema.Le(schema.F("age"), schema.Val(120)),
						Message: "age out of range",
						Path:    []string{"age"},
					},
				},
			},
		},
	}
	frozen, err := s.Freeze()
	require.NoError(t, err)
	return frozen
}

func TestValidateCreate_TransformsAndChecks(t *testing.T) {
	v, err := validator.New(testSchema(t))
	require.NoError(t, err)

	data := map[string]any{
		"email": "  John@Example.COM ",
		"name":  "John",
	}
	require.NoError(t, v.ValidateCreate("User", data))
	assert.Equal(t, "john@example.com", data["email"])
}

func TestValidateCreate_MissingRequired(t *testing.T) {
	v, err := validator.New(testSchema(t))
	require.NoError(t, err)

	err = v.ValidateCreate("User", map[string]any{"email": "a@b.co"})
	require.Error(t, err)
	assert.True(t, zen.IsValidationError(err))
	assert.Contains(t, err.Error(), "name")
}

func TestValidateCreate_ConstraintViolations(t *testing.T) {
	v, err := validator.New(testSchema(t))
	require.NoError(t, err)

	err = v.ValidateCreate("User", map[string]any{
		"email":   "not-an-email",
		"name":    "x",
		"age":     -1,
		"role":    "root",
		"website": "not a url",
		"handle":  "Bad Handle",
	})
	require.Error(t, err)
	var agg *zen.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.GreaterOrEqual(t, len(agg.Errors), 5)
}

func TestValidateCreate_TypedJSON(t *testing.T) {
	v, err := validator.New(testSchema(t))
	require.NoError(t, err)

	err = v.ValidateCreate("User", map[string]any{
		"email":   "a@b.co",
		"name":    "John",
		"address": map[string]any{"zip": "12345"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "address.city")

	require.NoError(t, v.ValidateCreate("User", map[string]any{
		"email":   "a@b.co",
		"name":    "John",
		"address": map[string]any{"city": "Berlin", "extra": true},
	}))
}

func TestValidateCreate_RowValidation(t *testing.T) {
	v, err := validator.New(testSchema(t))
	require.NoError(t, err)

	err = v.ValidateCreate("User", map[string]any{
		"email": "a@b.co",
		"name":  "John",
		"age":   130,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age out of range")
}

func TestValidateUpdate_RejectsIDFields(t *testing.T) {
	v, err := validator.New(testSchema(t))
	require.NoError(t, err)

	err = v.ValidateUpdate("User", map[string]any{"id": 7})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updating id fields is not supported")
}

func TestValidateUpdate_PartialPayload(t *testing.T) {
	v, err := validator.New(testSchema(t))
	require.NoError(t, err)

	data := map[string]any{"email": " X@Y.DEV "}
	require.NoError(t, v.ValidateUpdate("User", data))
	assert.Equal(t, "x@y.dev", data["email"])
}

func TestNew_RejectsBadRegex(t *testing.T) {
	s := testSchema(t)
	s.Models["User"].Field("handle").Attributes = []schema.Attribute{
		{Name: schema.AttrRegex, Args: []any{"("}},
	}
	_, err := validator.New(s)
	require.Error(t, err)
	assert.True(t, zen.IsConfigError(err))
}
