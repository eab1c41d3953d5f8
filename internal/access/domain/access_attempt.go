package domain

import (
	"time"

	"github.com/google/uuid"
)

// signatureSize is the length of an HMAC-SHA256 access attempt signature.
const signatureSize = 32

// AccessAttempt is one immutable verification record. Rows are append-only and are written
// for every verification call that reaches the secret comparison.
type AccessAttempt struct {
	ID            uuid.UUID
	RecipientID   uuid.UUID
	Success       bool
	FailureReason *string
	ClientID      string
	ClientAgent   *string
	RequestID     *string
	Signature     []byte
	AccessedAt    time.Time
}

// IsSigned reports whether the attempt carries a signature of the expected length.
func (a *AccessAttempt) IsSigned() bool {
	return len(a.Signature) == signatureSize
}

// RecordAccessInput carries what the verification flow knows about one attempt.
type RecordAccessInput struct {
	RecipientID   uuid.UUID
	Success       bool
	FailureReason *DenialReason
	ClientID      string
	ClientAgent   string
	RequestID     string
}

// AccessAttemptView is an attempt joined with the recipient it targeted.
type AccessAttemptView struct {
	AccessAttempt
	RecipientName string
	RecipientSlug string
}

// OutcomeFilter narrows attempt counts by result.
type OutcomeFilter string

// Outcome filters accepted by CountSince.
const (
	OutcomeFilterAll     OutcomeFilter = "all"
	OutcomeFilterSuccess OutcomeFilter = "success"
	OutcomeFilterFailure OutcomeFilter = "failure"
)

// IsValid reports whether f is one of the known outcome filters.
func (f OutcomeFilter) IsValid() bool {
	switch f {
	case OutcomeFilterAll, OutcomeFilterSuccess, OutcomeFilterFailure:
		return true
	}
	return false
}

// RecipientViews is the number of successful attempts against one recipient.
type RecipientViews struct {
	RecipientID uuid.UUID
	Name        string
	Slug        string
	Views       int64
}

// AccessStats summarizes recipients and attempts since a point in time.
type AccessStats struct {
	Since               time.Time
	TotalRecipients     int64
	PublishedRecipients int64
	SuccessfulViews     int64
	FailedAttempts      int64
	ViewsPerRecipient   []*RecipientViews
	LatestAttempts      []*AccessAttemptView
}

// VerificationReport summarizes an integrity check over signed access attempts.
type VerificationReport struct {
	TotalChecked  int64
	SignedCount   int64
	UnsignedCount int64
	ValidCount    int64
	InvalidCount  int64
	InvalidIDs    []uuid.UUID
	StartTime     time.Time
	EndTime       time.Time
}

// Passed reports whether no signed attempt failed verification.
func (r *VerificationReport) Passed() bool {
	return r.InvalidCount == 0
}
