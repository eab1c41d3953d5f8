// Package validation provides custom validation rules for the application.
package validation

import (
	"strconv"
	"strings"
	"unicode/utf8"

	validation "github.com/jellydator/validation"

	"github.com/allisson/letterbox/internal/access/domain"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// AccessKeyStrength validates the length bounds of an admin-chosen access key.
// A zero MaxLength disables the upper bound.
type AccessKeyStrength struct {
	MinLength int
	MaxLength int
}

// Validate checks if the access key meets the configured bounds. Empty values pass so
// Required can decide.
func (a AccessKeyStrength) Validate(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_access_key_type", "access key must be a string")
	}
	if s == "" {
		return nil
	}

	length := utf8.RuneCountInString(s)
	if length < a.MinLength {
		return validation.NewError(
			"validation_access_key_min_length",
			"access key must be at least "+strconv.Itoa(a.MinLength)+" characters",
		)
	}
	if a.MaxLength > 0 && length > a.MaxLength {
		return validation.NewError(
			"validation_access_key_max_length",
			"access key must be at most "+strconv.Itoa(a.MaxLength)+" characters",
		)
	}

	return nil
}

// Slug validates lowercase alphanumeric words joined by single hyphens.
var Slug = validation.NewStringRuleWithError(
	domain.IsValidSlug,
	validation.NewError("validation_slug_format", "must be lowercase letters and digits separated by hyphens"),
)

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
