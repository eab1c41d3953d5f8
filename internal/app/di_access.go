package app

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/allisson/letterbox/internal/access/domain"
	accessHTTP "github.com/allisson/letterbox/internal/access/http"
	accessMySQL "github.com/allisson/letterbox/internal/access/repository/mysql"
	accessPostgreSQL "github.com/allisson/letterbox/internal/access/repository/postgresql"
	accessSQLite "github.com/allisson/letterbox/internal/access/repository/sqlite"
	accessService "github.com/allisson/letterbox/internal/access/service"
	accessUseCase "github.com/allisson/letterbox/internal/access/usecase"
	"github.com/allisson/letterbox/internal/clock"
	"github.com/allisson/letterbox/internal/config"
)

// KMSService returns the KMS service used to unwrap configured keys.
func (c *Container) KMSService() accessService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = accessService.NewKMSService()
	})
	return c.kmsService
}

// SecretService returns the access key hashing service.
func (c *Container) SecretService() accessService.SecretService {
	c.secretServiceInit.Do(func() {
		c.secretService = accessService.NewSecretService(
			c.config.AccessKeyHashAlgorithm,
			c.config.AccessKeyBcryptCost,
		)
	})
	return c.secretService
}

// SessionService returns the session token service.
func (c *Container) SessionService() (accessService.SessionService, error) {
	var err error
	c.sessionServiceInit.Do(func() {
		c.sessionService, err = c.initSessionService()
		if err != nil {
			c.initErrors["sessionService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionService"]; exists {
		return nil, storedErr
	}
	return c.sessionService, nil
}

// AccessSigner returns the access attempt signer, or nil when no signing key is configured.
func (c *Container) AccessSigner() (accessService.AccessSigner, error) {
	var err error
	c.accessSignerInit.Do(func() {
		c.accessSigner, err = c.initAccessSigner()
		if err != nil {
			c.initErrors["accessSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessSigner"]; exists {
		return nil, storedErr
	}
	return c.accessSigner, nil
}

// RecipientRepository returns the recipient repository based on database driver.
func (c *Container) RecipientRepository() (accessUseCase.RecipientRepository, error) {
	var err error
	c.recipientRepositoryInit.Do(func() {
		c.recipientRepository, err = c.initRecipientRepository()
		if err != nil {
			c.initErrors["recipientRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recipientRepository"]; exists {
		return nil, storedErr
	}
	return c.recipientRepository, nil
}

// RateLimitRepository returns the rate limit repository based on database driver.
func (c *Container) RateLimitRepository() (accessUseCase.RateLimitRepository, error) {
	var err error
	c.rateLimitRepositoryInit.Do(func() {
		c.rateLimitRepository, err = c.initRateLimitRepository()
		if err != nil {
			c.initErrors["rateLimitRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rateLimitRepository"]; exists {
		return nil, storedErr
	}
	return c.rateLimitRepository, nil
}

// AccessAttemptRepository returns the access attempt repository based on database driver.
func (c *Container) AccessAttemptRepository() (accessUseCase.AccessAttemptRepository, error) {
	var err error
	c.accessAttemptRepositoryInit.Do(func() {
		c.accessAttemptRepository, err = c.initAccessAttemptRepository()
		if err != nil {
			c.initErrors["accessAttemptRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessAttemptRepository"]; exists {
		return nil, storedErr
	}
	return c.accessAttemptRepository, nil
}

// RateLimitUseCase returns the durable rate limiter.
func (c *Container) RateLimitUseCase() (accessUseCase.RateLimitUseCase, error) {
	var err error
	c.rateLimitUseCaseInit.Do(func() {
		c.rateLimitUseCase, err = c.initRateLimitUseCase()
		if err != nil {
			c.initErrors["rateLimitUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["rateLimitUseCase"]; exists {
		return nil, storedErr
	}
	return c.rateLimitUseCase, nil
}

// AccessLogUseCase returns the access attempt audit log.
func (c *Container) AccessLogUseCase() (accessUseCase.AccessLogUseCase, error) {
	var err error
	c.accessLogUseCaseInit.Do(func() {
		c.accessLogUseCase, err = c.initAccessLogUseCase()
		if err != nil {
			c.initErrors["accessLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["accessLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.accessLogUseCase, nil
}

// VerificationUseCase returns the verification flow.
func (c *Container) VerificationUseCase() (accessUseCase.VerificationUseCase, error) {
	var err error
	c.verificationUseCaseInit.Do(func() {
		c.verificationUseCase, err = c.initVerificationUseCase()
		if err != nil {
			c.initErrors["verificationUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationUseCase"]; exists {
		return nil, storedErr
	}
	return c.verificationUseCase, nil
}

// RecipientUseCase returns the recipient administration use case.
func (c *Container) RecipientUseCase() (accessUseCase.RecipientUseCase, error) {
	var err error
	c.recipientUseCaseInit.Do(func() {
		c.recipientUseCase, err = c.initRecipientUseCase()
		if err != nil {
			c.initErrors["recipientUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recipientUseCase"]; exists {
		return nil, storedErr
	}
	return c.recipientUseCase, nil
}

// VerificationHandler returns the HTTP handler for the verify endpoint.
func (c *Container) VerificationHandler() (*accessHTTP.VerificationHandler, error) {
	var err error
	c.verificationHandlerInit.Do(func() {
		c.verificationHandler, err = c.initVerificationHandler()
		if err != nil {
			c.initErrors["verificationHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["verificationHandler"]; exists {
		return nil, storedErr
	}
	return c.verificationHandler, nil
}

// RecipientHandler returns the HTTP handler for recipient pages and sessions.
func (c *Container) RecipientHandler() (*accessHTTP.RecipientHandler, error) {
	var err error
	c.recipientHandlerInit.Do(func() {
		c.recipientHandler, err = c.initRecipientHandler()
		if err != nil {
			c.initErrors["recipientHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["recipientHandler"]; exists {
		return nil, storedErr
	}
	return c.recipientHandler, nil
}

// unwrapKey returns the raw key material for value. With a KMS key URI configured the value
// is base64 ciphertext decrypted by the keeper; otherwise decode turns it into bytes.
func (c *Container) unwrapKey(value string, decode func(string) ([]byte, error)) ([]byte, error) {
	if c.config.KMSKeyURI == "" {
		return decode(value)
	}
	return c.KMSService().Unwrap(context.Background(), c.config.KMSKeyURI, value)
}

func (c *Container) initSessionService() (accessService.SessionService, error) {
	secret, err := c.unwrapKey(c.config.SessionSigningSecret, func(value string) ([]byte, error) {
		return []byte(value), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load session signing secret: %w", err)
	}

	return accessService.NewSessionService(
		secret,
		c.config.SessionIssuer,
		c.config.SessionTTL,
		clock.RealClock{},
	)
}

func (c *Container) initAccessSigner() (accessService.AccessSigner, error) {
	if c.config.AccessLogSigningKey == "" {
		return nil, nil
	}

	key, err := c.unwrapKey(c.config.AccessLogSigningKey, base64.StdEncoding.DecodeString)
	if err != nil {
		return nil, fmt.Errorf("failed to load access log signing key: %w", err)
	}

	return accessService.NewAccessSigner(key)
}

func (c *Container) initRecipientRepository() (accessUseCase.RecipientRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for recipient repository: %w", err)
	}

	switch c.config.DBDriver {
	case config.DriverPostgres:
		return accessPostgreSQL.NewPostgreSQLRecipientRepository(db), nil
	case config.DriverMySQL:
		return accessMySQL.NewMySQLRecipientRepository(db), nil
	case config.DriverSQLite:
		return accessSQLite.NewSQLiteRecipientRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initRateLimitRepository() (accessUseCase.RateLimitRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for rate limit repository: %w", err)
	}

	switch c.config.DBDriver {
	case config.DriverPostgres:
		return accessPostgreSQL.NewPostgreSQLRateLimitRepository(db), nil
	case config.DriverMySQL:
		return accessMySQL.NewMySQLRateLimitRepository(db), nil
	case config.DriverSQLite:
		return accessSQLite.NewSQLiteRateLimitRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initAccessAttemptRepository() (accessUseCase.AccessAttemptRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for access attempt repository: %w", err)
	}

	switch c.config.DBDriver {
	case config.DriverPostgres:
		return accessPostgreSQL.NewPostgreSQLAccessAttemptRepository(db), nil
	case config.DriverMySQL:
		return accessMySQL.NewMySQLAccessAttemptRepository(db), nil
	case config.DriverSQLite:
		return accessSQLite.NewSQLiteAccessAttemptRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

func (c *Container) initRateLimitUseCase() (accessUseCase.RateLimitUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for rate limit use case: %w", err)
	}

	repo, err := c.RateLimitRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit repository for rate limit use case: %w", err)
	}

	policy := domain.RateLimitPolicy{
		MaxAttempts: c.config.RateLimitMaxAttempts,
		Window:      c.config.RateLimitWindow,
	}
	baseUseCase := accessUseCase.NewRateLimitUseCase(txManager, repo, policy, clock.RealClock{})

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for rate limit use case: %w", err)
		}
		return accessUseCase.NewRateLimitUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initAccessLogUseCase() (accessUseCase.AccessLogUseCase, error) {
	attemptRepo, err := c.AccessAttemptRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get access attempt repository for access log use case: %w", err)
	}

	recipientRepo, err := c.RecipientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient repository for access log use case: %w", err)
	}

	signer, err := c.AccessSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get access signer for access log use case: %w", err)
	}

	baseUseCase := accessUseCase.NewAccessLogUseCase(attemptRepo, recipientRepo, signer, clock.RealClock{})

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for access log use case: %w", err)
		}
		return accessUseCase.NewAccessLogUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initVerificationUseCase() (accessUseCase.VerificationUseCase, error) {
	rateLimiter, err := c.RateLimitUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get rate limit use case for verification use case: %w", err)
	}

	recipientRepo, err := c.RecipientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient repository for verification use case: %w", err)
	}

	accessLog, err := c.AccessLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get access log use case for verification use case: %w", err)
	}

	sessionService, err := c.SessionService()
	if err != nil {
		return nil, fmt.Errorf("failed to get session service for verification use case: %w", err)
	}

	baseUseCase := accessUseCase.NewVerificationUseCase(
		rateLimiter,
		recipientRepo,
		accessLog,
		c.SecretService(),
		sessionService,
		clock.RealClock{},
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for verification use case: %w", err)
		}
		return accessUseCase.NewVerificationUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) initRecipientUseCase() (accessUseCase.RecipientUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for recipient use case: %w", err)
	}

	recipientRepo, err := c.RecipientRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient repository for recipient use case: %w", err)
	}

	attemptRepo, err := c.AccessAttemptRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get access attempt repository for recipient use case: %w", err)
	}

	baseUseCase := accessUseCase.NewRecipientUseCase(
		txManager,
		recipientRepo,
		attemptRepo,
		c.SecretService(),
		clock.RealClock{},
	)

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for recipient use case: %w", err)
		}
		return accessUseCase.NewRecipientUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

func (c *Container) cookieConfig() accessHTTP.CookieConfig {
	return accessHTTP.CookieConfig{
		Prefix: c.config.SessionCookiePrefix,
		Path:   c.config.SessionCookiePath,
		Secure: c.config.SessionCookieSecure,
	}
}

func (c *Container) initVerificationHandler() (*accessHTTP.VerificationHandler, error) {
	verificationUseCase, err := c.VerificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification use case for verification handler: %w", err)
	}

	return accessHTTP.NewVerificationHandler(verificationUseCase, c.cookieConfig(), c.Logger()), nil
}

func (c *Container) initRecipientHandler() (*accessHTTP.RecipientHandler, error) {
	recipientUseCase, err := c.RecipientUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get recipient use case for recipient handler: %w", err)
	}

	verificationUseCase, err := c.VerificationUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get verification use case for recipient handler: %w", err)
	}

	return accessHTTP.NewRecipientHandler(recipientUseCase, verificationUseCase, c.cookieConfig(), c.Logger()), nil
}
