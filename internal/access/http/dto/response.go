package dto

import (
	"time"

	"github.com/allisson/letterbox/internal/access/domain"
)

// RecipientResponse is the full recipient projection returned to an unlocked session.
type RecipientResponse struct {
	ID            string         `json:"id"`
	Slug          string         `json:"slug"`
	Name          string         `json:"name"`
	Nickname      string         `json:"nickname"`
	Description   string         `json:"description"`
	MainPhoto     string         `json:"main_photo"`
	GalleryPhotos []string       `json:"gallery_photos"`
	LetterContent string         `json:"letter_content"`
	ThemeConfig   map[string]any `json:"theme_config"`
}

// MapPublicFieldsToResponse converts the domain projection to its API form.
func MapPublicFieldsToResponse(fields domain.RecipientPublicFields) RecipientResponse {
	theme := fields.ThemeConfig
	if theme == nil {
		theme = map[string]any{}
	}
	gallery := fields.GalleryPhotos
	if gallery == nil {
		gallery = []string{}
	}
	return RecipientResponse{
		ID:            fields.ID.String(),
		Slug:          fields.Slug,
		Name:          fields.Name,
		Nickname:      fields.Nickname,
		Description:   fields.Description,
		MainPhoto:     fields.MainPhoto,
		GalleryPhotos: gallery,
		LetterContent: fields.LetterContent,
		ThemeConfig:   theme,
	}
}

// VerifyAccessResponse is returned when access is granted. The token itself travels only
// in the session cookie.
type VerifyAccessResponse struct {
	Success   bool              `json:"success"`
	ExpiresAt time.Time         `json:"expires_at"`
	Recipient RecipientResponse `json:"recipient"`
}

// RateLimitedResponse is returned while the client identifier is locked out.
type RateLimitedResponse struct {
	Error        string    `json:"error"`
	Message      string    `json:"message"`
	RetryAfter   int       `json:"retry_after"`
	BlockedUntil time.Time `json:"blocked_until"`
}

// TeaserResponse is the part of the page visible without a session.
type TeaserResponse struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Nickname    string `json:"nickname"`
	Description string `json:"description"`
}

// PageResponse is returned by GET /v1/recipients/:slug.
type PageResponse struct {
	Recipient TeaserResponse     `json:"recipient"`
	Unlocked  bool               `json:"unlocked"`
	Content   *RecipientResponse `json:"content,omitempty"`
}

// MapPageToResponse converts a page projection to its API form.
func MapPageToResponse(page *domain.RecipientPage) PageResponse {
	response := PageResponse{
		Recipient: TeaserResponse{
			ID:          page.Teaser.ID.String(),
			Slug:        page.Teaser.Slug,
			Name:        page.Teaser.Name,
			Nickname:    page.Teaser.Nickname,
			Description: page.Teaser.Description,
		},
		Unlocked: page.Unlocked,
	}
	if page.Unlocked && page.Protected != nil {
		content := MapPublicFieldsToResponse(*page.Protected)
		response.Content = &content
	}
	return response
}

// SessionResponse describes a valid session.
type SessionResponse struct {
	RecipientID string    `json:"recipient_id"`
	Slug        string    `json:"slug"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MapClaimsToResponse converts session claims to their API form.
func MapClaimsToResponse(claims *domain.SessionClaims) SessionResponse {
	return SessionResponse{
		RecipientID: claims.RecipientID.String(),
		Slug:        claims.Slug,
		IssuedAt:    claims.IssuedAt,
		ExpiresAt:   claims.ExpiresAt,
	}
}
