package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// Recipient is a person whose private page is guarded by a shared access key.
// AccessKeyHash is one-way and is never serialized or logged.
type Recipient struct {
	ID            uuid.UUID
	Slug          string
	Name          string
	Nickname      string
	Description   string
	MainPhoto     string
	GalleryPhotos []string
	LetterContent string
	ThemeConfig   map[string]any
	OrderIndex    int
	AccessKeyHash string
	IsPublished   bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// RecipientPublicFields is the projection returned once access is granted. It carries
// everything the page needs, protected content included, and never the key hash.
type RecipientPublicFields struct {
	ID            uuid.UUID
	Slug          string
	Name          string
	Nickname      string
	Description   string
	MainPhoto     string
	GalleryPhotos []string
	LetterContent string
	ThemeConfig   map[string]any
}

// RecipientTeaser is the part of a recipient page shown before the session is unlocked.
type RecipientTeaser struct {
	ID          uuid.UUID
	Slug        string
	Name        string
	Nickname    string
	Description string
}

// RecipientPage is what the page endpoint renders. Protected is nil while locked.
type RecipientPage struct {
	Teaser    RecipientTeaser
	Unlocked  bool
	Protected *RecipientPublicFields
}

// PublicFields projects the recipient onto the fields a granted session may see.
func (r *Recipient) PublicFields() RecipientPublicFields {
	gallery := r.GalleryPhotos
	if gallery == nil {
		gallery = []string{}
	}
	return RecipientPublicFields{
		ID:            r.ID,
		Slug:          r.Slug,
		Name:          r.Name,
		Nickname:      r.Nickname,
		Description:   r.Description,
		MainPhoto:     r.MainPhoto,
		GalleryPhotos: gallery,
		LetterContent: r.LetterContent,
		ThemeConfig:   r.ThemeConfig,
	}
}

// Teaser projects the recipient onto the fields visible without a session.
func (r *Recipient) Teaser() RecipientTeaser {
	return RecipientTeaser{
		ID:          r.ID,
		Slug:        r.Slug,
		Name:        r.Name,
		Nickname:    r.Nickname,
		Description: r.Description,
	}
}

// IsValidSlug reports whether slug is lowercase alphanumeric words joined by single hyphens.
func IsValidSlug(slug string) bool {
	return len(slug) <= 255 && slugPattern.MatchString(slug)
}

// CreateRecipientInput holds the admin-provided fields of a new recipient. AccessKey is the
// plaintext key; when empty a random one is generated and returned once.
type CreateRecipientInput struct {
	Slug          string
	Name          string
	Nickname      string
	Description   string
	MainPhoto     string
	GalleryPhotos []string
	LetterContent string
	ThemeConfig   map[string]any
	OrderIndex    int
	IsPublished   bool
	AccessKey     string
}

// CreateRecipientOutput returns the stored recipient together with the plaintext access key.
// The plaintext is never persisted and cannot be recovered later.
type CreateRecipientOutput struct {
	Recipient *Recipient
	AccessKey string
}

// UpdateRecipientInput is a partial content update. Nil fields keep their stored value.
// The slug, access key and published flag have their own operations.
type UpdateRecipientInput struct {
	Name          *string
	Nickname      *string
	Description   *string
	MainPhoto     *string
	GalleryPhotos []string
	LetterContent *string
	ThemeConfig   map[string]any
	OrderIndex    *int
}

// IsEmpty reports whether the update would change nothing.
func (in *UpdateRecipientInput) IsEmpty() bool {
	return in.Name == nil &&
		in.Nickname == nil &&
		in.Description == nil &&
		in.MainPhoto == nil &&
		in.GalleryPhotos == nil &&
		in.LetterContent == nil &&
		in.ThemeConfig == nil &&
		in.OrderIndex == nil
}

// Apply copies the non-nil fields onto r.
func (in *UpdateRecipientInput) Apply(r *Recipient) {
	if in.Name != nil {
		r.Name = *in.Name
	}
	if in.Nickname != nil {
		r.Nickname = *in.Nickname
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.MainPhoto != nil {
		r.MainPhoto = *in.MainPhoto
	}
	if in.GalleryPhotos != nil {
		r.GalleryPhotos = in.GalleryPhotos
	}
	if in.LetterContent != nil {
		r.LetterContent = *in.LetterContent
	}
	if in.ThemeConfig != nil {
		r.ThemeConfig = in.ThemeConfig
	}
	if in.OrderIndex != nil {
		r.OrderIndex = *in.OrderIndex
	}
}

// DeleteRecipientOutput reports what a delete removed. PurgedAttempts is zero unless the
// caller asked for the access history to be purged.
type DeleteRecipientOutput struct {
	Recipient      *Recipient
	PurgedAttempts int64
}
