package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/allisson/letterbox/internal/access/domain"
	"github.com/allisson/letterbox/internal/clock"
)

// MinSessionSecretLength is the minimum size of the resolved HMAC signing secret.
const MinSessionSecretLength = 32

// sessionClaims is the JWT payload of a recipient session.
type sessionClaims struct {
	RecipientID uuid.UUID `json:"recipient_id"`
	Slug        string    `json:"slug"`
	jwt.RegisteredClaims
}

// sessionService implements SessionService with HS256 JWTs.
type sessionService struct {
	secret []byte
	issuer string
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

// Issue signs a session token for the recipient. ExpiresAt is truncated to whole seconds so
// it matches the exp claim exactly.
func (s *sessionService) Issue(recipientID uuid.UUID, slug string) (*domain.SessionToken, error) {
	now := s.clock.Now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)

	claims := sessionClaims{
		RecipientID: recipientID,
		Slug:        slug,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   recipientID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &domain.SessionToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses token and checks it against expectedSlug.
func (s *sessionService) Validate(token string, expectedSlug string) *domain.SessionClaims {
	if token == "" || expectedSlug == "" {
		return nil
	}

	claims := &sessionClaims{}
	parsed, err := s.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}

	if claims.Slug != expectedSlug || claims.RecipientID == uuid.Nil {
		return nil
	}
	if claims.Subject != claims.RecipientID.String() {
		return nil
	}

	result := &domain.SessionClaims{
		RecipientID: claims.RecipientID,
		Slug:        claims.Slug,
		ExpiresAt:   claims.ExpiresAt.UTC(),
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.UTC()
	}
	return result
}

// NewSessionService creates a SessionService. The secret must hold at least
// MinSessionSecretLength bytes.
func NewSessionService(secret []byte, issuer string, ttl time.Duration, c clock.Clock) (SessionService, error) {
	if len(secret) < MinSessionSecretLength {
		return nil, fmt.Errorf(
			"session signing secret must be at least %d bytes, got %d",
			MinSessionSecretLength,
			len(secret),
		)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", ttl)
	}
	if c == nil {
		c = clock.RealClock{}
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.Now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(issuer),
	)

	return &sessionService{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		clock:  c,
		parser: parser,
	}, nil
}
