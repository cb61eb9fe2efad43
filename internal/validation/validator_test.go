package validation

import (
	"strings"
	"testing"

	cerrdefs "github.com/containerd/errdefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hostInput struct {
	ID   string `json:"id" validate:"required,hostid"`
	Name string `json:"name" validate:"notblank"`
	URL  string `json:"url,omitempty" validate:"omitempty,url"`
}

func TestNew(t *testing.T) {
	v := New()
	assert.NotNil(t, v)
	assert.NotNil(t, v.structValidator)
}

func TestValidate_Valid(t *testing.T) {
	v := New()

	result := v.Validate(&hostInput{ID: "prod_01-a", Name: "Production", URL: "https://example.com"})
	require.NotNil(t, result)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.Nil(t, result.FieldErrors())
}

func TestValidate_FieldNamesUseJSONTags(t *testing.T) {
	v := New()

	result := v.Validate(&hostInput{ID: "bad id!", Name: "   "})
	require.False(t, result.Valid)

	fields := result.FieldErrors()
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "name")
	assert.Equal(t, "can only contain letters, numbers, hyphens, and underscores", fields["id"])
	assert.Equal(t, "name is required", fields["name"])
}

func TestValidate_URL(t *testing.T) {
	v := New()

	result := v.Validate(&hostInput{ID: "a", Name: "b", URL: "not a url"})
	require.False(t, result.Valid)
	assert.Equal(t, "must be a valid URL", result.FieldErrors()["url"])
	assert.Contains(t, result.Error(), "url: must be a valid URL")
}

func TestValidHostID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"simple", "local", true},
		{"hyphen", "prod-01", true},
		{"underscore", "edge_02", true},
		{"longest", strings.Repeat("a", MaxHostIDLength), true},
		{"empty", "", false},
		{"space", "with space", false},
		{"dots", "dots.not.allowed", false},
		{"slash", "slash/no", false},
		{"too long", strings.Repeat("a", MaxHostIDLength+1), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidHostID(tt.id))
		})
	}
}

func TestValidate_HostIDTooLong(t *testing.T) {
	result := New().Validate(&hostInput{ID: strings.Repeat("a", MaxHostIDLength+1), Name: "b"})
	require.False(t, result.Valid)
	assert.Contains(t, result.FieldErrors()["id"], "at most 128 characters")
}

func TestValidationResult_Err(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(&hostInput{ID: "a", Name: "b"}).Err())

	err := v.Validate(&hostInput{ID: "", Name: "b"}).Err()
	require.Error(t, err)
	assert.True(t, cerrdefs.IsInvalidArgument(err))

	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "id is required", inputErr.Fields["id"])
}

func TestFieldError(t *testing.T) {
	err := FieldError("id", "may not be changed")
	assert.Equal(t, "invalid input: id: may not be changed", err.Error())
	assert.True(t, cerrdefs.IsInvalidArgument(err))
}
