package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/access/http/dto"
	"github.com/allisson/letterbox/internal/access/usecase"
	apperrors "github.com/allisson/letterbox/internal/errors"
	"github.com/allisson/letterbox/internal/httputil"
)

// RecipientHandler serves the recipient page and its session endpoints.
type RecipientHandler struct {
	recipientUseCase    usecase.RecipientUseCase
	verificationUseCase usecase.VerificationUseCase
	cookies             CookieConfig
	logger              *slog.Logger
}

// NewRecipientHandler creates a new recipient handler.
func NewRecipientHandler(
	recipientUseCase usecase.RecipientUseCase,
	verificationUseCase usecase.VerificationUseCase,
	cookies CookieConfig,
	logger *slog.Logger,
) *RecipientHandler {
	return &RecipientHandler{
		recipientUseCase:    recipientUseCase,
		verificationUseCase: verificationUseCase,
		cookies:             cookies,
		logger:              logger,
	}
}

// claims returns the validated session for slug, or nil.
func (h *RecipientHandler) claims(c *gin.Context, slug string) *domain.SessionClaims {
	token := sessionToken(c.Request, h.cookies, slug)
	if token == "" {
		return nil
	}
	return h.verificationUseCase.ValidateSession(token, slug)
}

// GetPageHandler returns the page of a published recipient.
// GET /v1/recipients/:slug - Content is included only for an unlocked session.
func (h *RecipientHandler) GetPageHandler(c *gin.Context) {
	slug := c.Param("slug")
	if !domain.IsValidSlug(slug) {
		httputil.HandleErrorGin(c, domain.ErrRecipientNotFound, h.logger)
		return
	}

	page, err := h.recipientUseCase.GetPage(c.Request.Context(), slug, h.claims(c, slug))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPageToResponse(page))
}

// GetSessionHandler reports the session bound to slug.
// GET /v1/recipients/:slug/session - 401 when there is no valid session.
func (h *RecipientHandler) GetSessionHandler(c *gin.Context) {
	claims := h.claims(c, c.Param("slug"))
	if claims == nil {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapClaimsToResponse(claims))
}

// DeleteSessionHandler clears the session cookie of slug.
// DELETE /v1/recipients/:slug/session - Always 204.
func (h *RecipientHandler) DeleteSessionHandler(c *gin.Context) {
	c.SetCookieData(ClearSessionCookie(h.cookies, c.Param("slug")))
	c.Status(http.StatusNoContent)
}
