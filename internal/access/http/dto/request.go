// Package dto provides data transfer objects for the access-control HTTP endpoints.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/allisson/letterbox/internal/validation"
)

// VerifyAccessRequest is the body of POST /v1/access/verify.
type VerifyAccessRequest struct {
	Slug      string `json:"slug"`
	AccessKey string `json:"access_key"` //nolint:gosec // request field, never logged
}

// Validate checks that both fields are present and not blank. The slug format is not
// checked here so that malformed slugs are answered like unknown ones.
func (r *VerifyAccessRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Slug,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 255),
		),
		validation.Field(&r.AccessKey,
			validation.Required,
			customValidation.NotBlank,
			validation.Length(1, 256),
		),
	)
}
