package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,notblank"`
}

func TestStruct(t *testing.T) {
	err := Struct(loginForm{Email: "nope", Password: "   "})
	require.Error(t, err)

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, "Email must be a valid email address", fields["email"])
	assert.Equal(t, "Password is required", fields["password"])

	assert.NoError(t, Struct(loginForm{Email: "a@b.io", Password: "secret"}))
}

func TestRequired(t *testing.T) {
	fields := FieldErrors{}
	Required(fields, "name", "Name", "  ")
	Required(fields, "code", "Code", "SUMMER")
	assert.Equal(t, FieldErrors{"name": "Name is required"}, fields)
	assert.Equal(t, "Name is required", fields.Error())
}
