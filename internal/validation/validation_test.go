package validation

import (
	"errors"
	"strings"
	"testing"

	"postboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUsername(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"Valid", "leo.tolstoy", false},
		{"Allowed Symbols", "a.b-c_d", false},
		{"At Sign", "a@b", true},
		{"Too Short", "ab", true},
		{"Too Long", strings.Repeat("a", 151), true},
		{"Illegal Chars", "user name", true},
		{"Slash", "a/b", true},
		{"Reserved Route", "follow", true},
		{"Reserved New", "new", true},
		{"Reserved Mixed Case", "New", true},
		{"Reserved Upper Case", "ADMIN", true},
		{"Reserved Follow Title", "Follow", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidatePassword("Secret123"))
	assert.Error(t, ValidatePassword("Sh0rt"))
	assert.Error(t, ValidatePassword("alllowercase1"))
	assert.Error(t, ValidatePassword("NoDigitsHere"))
	assert.Error(t, ValidatePassword("A1"+strings.Repeat("b", 127)))
}

func TestValidateGroupSlug(t *testing.T) {
	t.Parallel()
	assert.NoError(t, ValidateGroupSlug("test_slug"))
	assert.NoError(t, ValidateGroupSlug("cats-2"))
	assert.Error(t, ValidateGroupSlug("Upper"))
	assert.Error(t, ValidateGroupSlug(""))
}

type sampleForm struct {
	Text     string `form:"text" validate:"notblank,max=20"`
	Username string `json:"username" validate:"required,username"`
	Slug     string `form:"slug" validate:"omitempty,groupslug"`
}

func TestStruct_FieldErrors(t *testing.T) {
	err := Struct(&sampleForm{Text: "   ", Username: "admin", Slug: "Bad Slug"})
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Equal(t, "This field is required.", appErr.Fields["text"])
	assert.Equal(t, "username is reserved", appErr.Fields["username"])
	assert.Contains(t, appErr.Fields["slug"], "slug must be")
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(&sampleForm{Text: "hello", Username: "leo"}))

	err := Struct(&sampleForm{Text: strings.Repeat("x", 21), Username: "leo"})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Ensure this value has at most 20 characters.", appErr.Fields["text"])
}
