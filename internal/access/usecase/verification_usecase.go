package usecase

import (
	"context"
	"fmt"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/access/service"
	"github.com/allisson/letterbox/internal/clock"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

// verificationUseCase implements VerificationUseCase.
type verificationUseCase struct {
	rateLimiter    RateLimitUseCase
	recipientRepo  RecipientRepository
	accessLog      AccessLogUseCase
	secretService  service.SecretService
	sessionService service.SessionService
	clock          clock.Clock
}

// VerifyAccess walks RATE_CHECK, RECIPIENT_LOOKUP, SECRET_CHECK and then either issues a
// session or denies. Rate-limited and not-found outcomes write no audit row. Every secret
// comparison writes exactly one row before returning, and a failed write is returned as an
// error so enforcement and audit trail never diverge.
func (v *verificationUseCase) VerifyAccess(
	ctx context.Context,
	input *domain.VerifyAccessInput,
) (domain.Outcome, error) {
	decision, err := v.rateLimiter.Consume(ctx, input.ClientID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return &domain.Denied{
			Reason:       domain.DenialRateLimited,
			RetryAfter:   decision.RetryAfter(v.clock.Now()),
			BlockedUntil: decision.BlockedUntil,
		}, nil
	}

	recipient, err := v.recipientRepo.GetBySlug(ctx, input.Slug)
	if err != nil {
		if apperrors.Is(err, domain.ErrRecipientNotFound) {
			return &domain.Denied{Reason: domain.DenialNotFound}, nil
		}
		return nil, fmt.Errorf("%w: failed to look up recipient: %w", domain.ErrStorageUnavailable, err)
	}
	if !recipient.IsPublished {
		return &domain.Denied{Reason: domain.DenialNotFound}, nil
	}

	if !v.secretService.CompareSecret(input.AccessKey, recipient.AccessKeyHash) {
		reason := domain.DenialInvalidKey
		if err := v.accessLog.Record(ctx, &domain.RecordAccessInput{
			RecipientID:   recipient.ID,
			Success:       false,
			FailureReason: &reason,
			ClientID:      input.ClientID,
			ClientAgent:   input.ClientAgent,
			RequestID:     input.RequestID,
		}); err != nil {
			return nil, err
		}
		return &domain.Denied{Reason: domain.DenialInvalidKey}, nil
	}

	token, err := v.sessionService.Issue(recipient.ID, recipient.Slug)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to issue session")
	}

	if err := v.accessLog.Record(ctx, &domain.RecordAccessInput{
		RecipientID: recipient.ID,
		Success:     true,
		ClientID:    input.ClientID,
		ClientAgent: input.ClientAgent,
		RequestID:   input.RequestID,
	}); err != nil {
		return nil, err
	}

	return &domain.Granted{
		Token:     token.Token,
		ExpiresAt: token.ExpiresAt,
		Recipient: recipient.PublicFields(),
	}, nil
}

// ValidateSession delegates to the session service.
func (v *verificationUseCase) ValidateSession(token string, expectedSlug string) *domain.SessionClaims {
	return v.sessionService.Validate(token, expectedSlug)
}

// NewVerificationUseCase creates a new VerificationUseCase with the provided dependencies.
func NewVerificationUseCase(
	rateLimiter RateLimitUseCase,
	recipientRepo RecipientRepository,
	accessLog AccessLogUseCase,
	secretService service.SecretService,
	sessionService service.SessionService,
	c clock.Clock,
) VerificationUseCase {
	if c == nil {
		c = clock.RealClock{}
	}
	return &verificationUseCase{
		rateLimiter:    rateLimiter,
		recipientRepo:  recipientRepo,
		accessLog:      accessLog,
		secretService:  secretService,
		sessionService: sessionService,
		clock:          c,
	}
}
