package usecase

import (
	"context"
	"time"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/metrics"
)

const metricsDomain = "access"

func statusOf(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func record(ctx context.Context, m metrics.BusinessMetrics, operation string, start time.Time, err error) {
	status := statusOf(err)
	m.RecordOperation(ctx, metricsDomain, operation, status)
	m.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

// verificationUseCaseWithMetrics decorates VerificationUseCase with metrics instrumentation.
type verificationUseCaseWithMetrics struct {
	next    VerificationUseCase
	metrics metrics.BusinessMetrics
}

// NewVerificationUseCaseWithMetrics wraps a VerificationUseCase with metrics recording.
func NewVerificationUseCaseWithMetrics(useCase VerificationUseCase, m metrics.BusinessMetrics) VerificationUseCase {
	return &verificationUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// VerifyAccess records the operation and, when it completed, its outcome.
func (v *verificationUseCaseWithMetrics) VerifyAccess(
	ctx context.Context,
	input *domain.VerifyAccessInput,
) (domain.Outcome, error) {
	start := time.Now()
	outcome, err := v.next.VerifyAccess(ctx, input)
	record(ctx, v.metrics, "verify", start, err)

	switch o := outcome.(type) {
	case *domain.Granted:
		v.metrics.RecordVerification(ctx, "granted")
	case *domain.Denied:
		v.metrics.RecordVerification(ctx, o.Reason.String())
	}

	return outcome, err
}

// ValidateSession is not instrumented; it runs on every page view and is pure CPU.
func (v *verificationUseCaseWithMetrics) ValidateSession(token string, expectedSlug string) *domain.SessionClaims {
	return v.next.ValidateSession(token, expectedSlug)
}

// rateLimitUseCaseWithMetrics decorates RateLimitUseCase with metrics instrumentation.
type rateLimitUseCaseWithMetrics struct {
	next    RateLimitUseCase
	metrics metrics.BusinessMetrics
}

// NewRateLimitUseCaseWithMetrics wraps a RateLimitUseCase with metrics recording.
func NewRateLimitUseCaseWithMetrics(useCase RateLimitUseCase, m metrics.BusinessMetrics) RateLimitUseCase {
	return &rateLimitUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Consume records metrics for rate limit checks.
func (r *rateLimitUseCaseWithMetrics) Consume(
	ctx context.Context,
	identifier string,
) (*domain.RateLimitDecision, error) {
	start := time.Now()
	decision, err := r.next.Consume(ctx, identifier)
	record(ctx, r.metrics, "rate_limit_consume", start, err)
	return decision, err
}

// CleanStale records metrics for stale counter cleanup.
func (r *rateLimitUseCaseWithMetrics) CleanStale(ctx context.Context, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := r.next.CleanStale(ctx, dryRun)
	record(ctx, r.metrics, "rate_limit_clean", start, err)
	return count, err
}

// accessLogUseCaseWithMetrics decorates AccessLogUseCase with metrics instrumentation.
type accessLogUseCaseWithMetrics struct {
	next    AccessLogUseCase
	metrics metrics.BusinessMetrics
}

// NewAccessLogUseCaseWithMetrics wraps an AccessLogUseCase with metrics recording.
func NewAccessLogUseCaseWithMetrics(useCase AccessLogUseCase, m metrics.BusinessMetrics) AccessLogUseCase {
	return &accessLogUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Record records metrics for audit writes.
func (a *accessLogUseCaseWithMetrics) Record(ctx context.Context, input *domain.RecordAccessInput) error {
	start := time.Now()
	err := a.next.Record(ctx, input)
	record(ctx, a.metrics, "access_log_record", start, err)
	return err
}

// ListRecent records metrics for audit listing.
func (a *accessLogUseCaseWithMetrics) ListRecent(
	ctx context.Context,
	limit int,
) ([]*domain.AccessAttemptView, error) {
	start := time.Now()
	views, err := a.next.ListRecent(ctx, limit)
	record(ctx, a.metrics, "access_log_list", start, err)
	return views, err
}

// CountSince records metrics for audit counts.
func (a *accessLogUseCaseWithMetrics) CountSince(
	ctx context.Context,
	since time.Time,
	outcome domain.OutcomeFilter,
) (int64, error) {
	start := time.Now()
	count, err := a.next.CountSince(ctx, since, outcome)
	record(ctx, a.metrics, "access_log_count", start, err)
	return count, err
}

// Stats records metrics for dashboard aggregation.
func (a *accessLogUseCaseWithMetrics) Stats(ctx context.Context, since time.Time) (*domain.AccessStats, error) {
	start := time.Now()
	stats, err := a.next.Stats(ctx, since)
	record(ctx, a.metrics, "access_log_stats", start, err)
	return stats, err
}

// DeleteOlderThan records metrics for retention cleanup.
func (a *accessLogUseCaseWithMetrics) DeleteOlderThan(ctx context.Context, days int, dryRun bool) (int64, error) {
	start := time.Now()
	count, err := a.next.DeleteOlderThan(ctx, days, dryRun)
	record(ctx, a.metrics, "access_log_delete", start, err)
	return count, err
}

// VerifyBatch records metrics for signature verification.
func (a *accessLogUseCaseWithMetrics) VerifyBatch(
	ctx context.Context,
	start, end time.Time,
) (*domain.VerificationReport, error) {
	began := time.Now()
	report, err := a.next.VerifyBatch(ctx, start, end)
	record(ctx, a.metrics, "access_log_verify", began, err)
	return report, err
}

// recipientUseCaseWithMetrics decorates RecipientUseCase with metrics instrumentation.
type recipientUseCaseWithMetrics struct {
	next    RecipientUseCase
	metrics metrics.BusinessMetrics
}

// NewRecipientUseCaseWithMetrics wraps a RecipientUseCase with metrics recording.
func NewRecipientUseCaseWithMetrics(useCase RecipientUseCase, m metrics.BusinessMetrics) RecipientUseCase {
	return &recipientUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for recipient creation.
func (r *recipientUseCaseWithMetrics) Create(
	ctx context.Context,
	input *domain.CreateRecipientInput,
) (*domain.CreateRecipientOutput, error) {
	start := time.Now()
	output, err := r.next.Create(ctx, input)
	record(ctx, r.metrics, "recipient_create", start, err)
	return output, err
}

// RotateAccessKey records metrics for key rotation.
func (r *recipientUseCaseWithMetrics) RotateAccessKey(ctx context.Context, slug string, accessKey string) (string, error) {
	start := time.Now()
	key, err := r.next.RotateAccessKey(ctx, slug, accessKey)
	record(ctx, r.metrics, "recipient_rotate_key", start, err)
	return key, err
}

// SetPublished records metrics for publish toggles.
func (r *recipientUseCaseWithMetrics) SetPublished(
	ctx context.Context,
	slug string,
	published bool,
) (*domain.Recipient, error) {
	start := time.Now()
	recipient, err := r.next.SetPublished(ctx, slug, published)
	record(ctx, r.metrics, "recipient_set_published", start, err)
	return recipient, err
}

// UpdateContent records metrics for content updates.
func (r *recipientUseCaseWithMetrics) UpdateContent(
	ctx context.Context,
	slug string,
	input *domain.UpdateRecipientInput,
) (*domain.Recipient, error) {
	start := time.Now()
	recipient, err := r.next.UpdateContent(ctx, slug, input)
	record(ctx, r.metrics, "recipient_update", start, err)
	return recipient, err
}

// Reorder records metrics for reordering.
func (r *recipientUseCaseWithMetrics) Reorder(ctx context.Context, slugs []string) error {
	start := time.Now()
	err := r.next.Reorder(ctx, slugs)
	record(ctx, r.metrics, "recipient_reorder", start, err)
	return err
}

// Delete records metrics for recipient deletion.
func (r *recipientUseCaseWithMetrics) Delete(
	ctx context.Context,
	slug string,
	purgeAccessLogs bool,
) (*domain.DeleteRecipientOutput, error) {
	start := time.Now()
	output, err := r.next.Delete(ctx, slug, purgeAccessLogs)
	record(ctx, r.metrics, "recipient_delete", start, err)
	return output, err
}

// GetPage records metrics for page reads.
func (r *recipientUseCaseWithMetrics) GetPage(
	ctx context.Context,
	slug string,
	claims *domain.SessionClaims,
) (*domain.RecipientPage, error) {
	start := time.Now()
	page, err := r.next.GetPage(ctx, slug, claims)
	record(ctx, r.metrics, "recipient_get_page", start, err)
	return page, err
}
