package http

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/access/http/dto"
	"github.com/allisson/letterbox/internal/access/usecase"
	"github.com/allisson/letterbox/internal/httputil"
	customValidation "github.com/allisson/letterbox/internal/validation"
)

// VerificationHandler handles POST /v1/access/verify.
type VerificationHandler struct {
	verificationUseCase usecase.VerificationUseCase
	cookies             CookieConfig
	logger              *slog.Logger
}

// NewVerificationHandler creates a new verification handler.
func NewVerificationHandler(
	verificationUseCase usecase.VerificationUseCase,
	cookies CookieConfig,
	logger *slog.Logger,
) *VerificationHandler {
	return &VerificationHandler{
		verificationUseCase: verificationUseCase,
		cookies:             cookies,
		logger:              logger,
	}
}

// VerifyHandler checks an access key for a recipient.
// POST /v1/access/verify - No authentication required.
// Returns 200 with the recipient and sets the session cookie on success.
func (h *VerificationHandler) VerifyHandler(c *gin.Context) {
	var req dto.VerifyAccessRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	input := &domain.VerifyAccessInput{
		Slug:        req.Slug,
		AccessKey:   req.AccessKey,
		ClientID:    ClientIdentifier(c.Request),
		ClientAgent: c.Request.UserAgent(),
		RequestID:   requestid.Get(c),
	}

	outcome, err := h.verificationUseCase.VerifyAccess(c.Request.Context(), input)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	switch result := outcome.(type) {
	case *domain.Granted:
		c.SetCookieData(BuildSessionCookie(h.cookies, result.Recipient.Slug, result.Token, result.ExpiresAt))
		c.JSON(http.StatusOK, dto.VerifyAccessResponse{
			Success:   true,
			ExpiresAt: result.ExpiresAt,
			Recipient: dto.MapPublicFieldsToResponse(result.Recipient),
		})
	case *domain.Denied:
		h.writeDenied(c, result)
	default:
		httputil.HandleErrorGin(c, fmt.Errorf("unexpected verification outcome %T", outcome), h.logger)
	}
}

func (h *VerificationHandler) writeDenied(c *gin.Context, denied *domain.Denied) {
	switch denied.Reason {
	case domain.DenialRateLimited:
		retryAfter := max(int(math.Ceil(denied.RetryAfter.Seconds())), 1)
		response := dto.RateLimitedResponse{
			Error:      "rate_limited",
			Message:    "Too many attempts, try again later",
			RetryAfter: retryAfter,
		}
		if denied.BlockedUntil != nil {
			response.BlockedUntil = denied.BlockedUntil.UTC()
		}
		c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
		c.JSON(http.StatusTooManyRequests, response)
	case domain.DenialNotFound:
		c.JSON(http.StatusNotFound, httputil.ErrorResponse{
			Error:   "not_found",
			Message: "The requested resource was not found",
		})
	case domain.DenialInvalidKey:
		c.JSON(http.StatusUnauthorized, httputil.ErrorResponse{
			Error:   "invalid_key",
			Message: "The access key is not valid",
		})
	default:
		httputil.HandleErrorGin(c, fmt.Errorf("unknown denial reason %q", denied.Reason), h.logger)
	}
}
