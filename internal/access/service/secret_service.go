package service

import (
	"crypto/rand"
	"encoding/base64"
	"strings"

	"github.com/allisson/go-pwdhash"
	"golang.org/x/crypto/bcrypt"

	"github.com/allisson/letterbox/internal/config"
	apperrors "github.com/allisson/letterbox/internal/errors"
)

// bcryptPrefixes identify bcrypt hash blobs, including ones imported from other systems.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// secretService implements SecretService with Argon2id by default and bcrypt on request.
// Comparison always accepts both formats.
type secretService struct {
	hasher     *pwdhash.PasswordHasher
	algorithm  string
	bcryptCost int
}

// GenerateSecret creates a new 24-byte random access key encoded as unpadded base64url.
func (s *secretService) GenerateSecret() (string, string, error) {
	randomBytes := make([]byte, 24)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate random access key")
	}

	plainSecret := base64.RawURLEncoding.EncodeToString(randomBytes)

	hashedSecret, err := s.HashSecret(plainSecret)
	if err != nil {
		return "", "", err
	}

	return plainSecret, hashedSecret, nil
}

// HashSecret hashes plainSecret with the configured algorithm.
func (s *secretService) HashSecret(plainSecret string) (string, error) {
	if s.algorithm == config.HashAlgorithmBcrypt {
		hashed, err := bcrypt.GenerateFromPassword([]byte(plainSecret), s.bcryptCost)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to hash access key")
		}
		return string(hashed), nil
	}

	hashed, err := s.hasher.Hash([]byte(plainSecret))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash access key")
	}
	return hashed, nil
}

// CompareSecret dispatches on the hash prefix. Timing is left to the underlying primitive.
func (s *secretService) CompareSecret(plainSecret string, hashedSecret string) bool {
	if plainSecret == "" || hashedSecret == "" {
		return false
	}

	if isBcryptHash(hashedSecret) {
		return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(plainSecret)) == nil
	}

	ok, err := s.hasher.Verify([]byte(plainSecret), hashedSecret)
	if err != nil {
		return false
	}
	return ok
}

func isBcryptHash(hashedSecret string) bool {
	for _, prefix := range bcryptPrefixes {
		if strings.HasPrefix(hashedSecret, prefix) {
			return true
		}
	}
	return false
}

// NewSecretService creates a SecretService for the given algorithm ("argon2id" or "bcrypt").
// Argon2id uses the Moderate policy.
func NewSecretService(algorithm string, bcryptCost int) SecretService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// This should never happen with valid policy
		panic(err)
	}

	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return &secretService{
		hasher:     hasher,
		algorithm:  algorithm,
		bcryptCost: bcryptCost,
	}
}
