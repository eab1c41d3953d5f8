package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/allisson/letterbox/internal/errors"
)

func TestAccessKeyStrength(t *testing.T) {
	rule := AccessKeyStrength{MinLength: 8, MaxLength: 16}

	tests := []struct {
		name      string
		value     interface{}
		shouldErr bool
		errMsg    string
	}{
		{
			name:      "valid key",
			value:     "paris-2019",
			shouldErr: false,
		},
		{
			name:      "empty value left to Required",
			value:     "",
			shouldErr: false,
		},
		{
			name:      "too short",
			value:     "short",
			shouldErr: true,
			errMsg:    "at least 8 characters",
		},
		{
			name:      "too long",
			value:     "this-key-is-way-too-long",
			shouldErr: true,
			errMsg:    "at most 16 characters",
		},
		{
			name:      "multibyte runes counted once",
			value:     "ñañañaña",
			shouldErr: false,
		},
		{
			name:      "not a string",
			value:     42,
			shouldErr: true,
			errMsg:    "must be a string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rule.Validate(tt.value)
			if tt.shouldErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAccessKeyStrength_NoUpperBound(t *testing.T) {
	rule := AccessKeyStrength{MinLength: 1}
	assert.NoError(t, rule.Validate("a-really-long-access-key-with-no-upper-bound-at-all"))
}

func TestSlug(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{name: "single word", input: "ana", shouldErr: false},
		{name: "hyphenated", input: "ana-maria-2", shouldErr: false},
		{name: "empty left to Required", input: "", shouldErr: false},
		{name: "uppercase", input: "Ana", shouldErr: true},
		{name: "double hyphen", input: "ana--maria", shouldErr: true},
		{name: "trailing hyphen", input: "ana-", shouldErr: true},
		{name: "spaces", input: "ana maria", shouldErr: true},
		{name: "path traversal", input: "../admin", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Slug.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNoWhitespace(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{
			name:      "no whitespace",
			input:     "validstring",
			shouldErr: false,
		},
		{
			name:      "leading whitespace",
			input:     " validstring",
			shouldErr: true,
		},
		{
			name:      "trailing whitespace",
			input:     "validstring ",
			shouldErr: true,
		},
		{
			name:      "internal spaces allowed",
			input:     "valid string",
			shouldErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NoWhitespace.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNotBlank(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		shouldErr bool
	}{
		{
			name:      "valid string",
			input:     "validstring",
			shouldErr: false,
		},
		{
			name:      "only spaces",
			input:     "   ",
			shouldErr: true,
		},
		{
			name:      "mixed whitespace",
			input:     " \t\n ",
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NotBlank.Validate(tt.input)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBase64Key(t *testing.T) {
	rule := Base64Key(4)

	t.Run("Success_LongEnough", func(t *testing.T) {
		assert.NoError(t, rule.Validate("c2VjcmV0"))
	})

	t.Run("Success_EmptyIsOptional", func(t *testing.T) {
		assert.NoError(t, rule.Validate(""))
	})

	t.Run("Error_NotBase64", func(t *testing.T) {
		assert.Error(t, rule.Validate("not base64!"))
	})

	t.Run("Error_TooShort", func(t *testing.T) {
		assert.Error(t, rule.Validate("YWI="))
	})

	t.Run("Error_NotString", func(t *testing.T) {
		assert.Error(t, rule.Validate(12))
	})
}

func TestWrapValidationError(t *testing.T) {
	assert.NoError(t, WrapValidationError(nil))

	err := WrapValidationError(assert.AnError)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "invalid input")
}
