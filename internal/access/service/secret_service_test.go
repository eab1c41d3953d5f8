package service

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/allisson/letterbox/internal/config"
)

func TestNewSecretService(t *testing.T) {
	service := NewSecretService(config.HashAlgorithmArgon2id, 12)
	assert.NotNil(t, service)
	assert.IsType(t, &secretService{}, service)
}

func TestSecretService_GenerateSecret(t *testing.T) {
	service := NewSecretService(config.HashAlgorithmArgon2id, 12)

	t.Run("Success_GeneratesValidSecret", func(t *testing.T) {
		plainSecret, hashedSecret, err := service.GenerateSecret()
		require.NoError(t, err)

		decoded, err := base64.RawURLEncoding.DecodeString(plainSecret)
		require.NoError(t, err)
		assert.Len(t, decoded, 24)

		assert.NotEqual(t, plainSecret, hashedSecret)
		assert.Contains(t, hashedSecret, "$argon2id$")
	})

	t.Run("Success_GeneratesUniqueSecrets", func(t *testing.T) {
		plainSecret1, _, err := service.GenerateSecret()
		require.NoError(t, err)

		plainSecret2, _, err := service.GenerateSecret()
		require.NoError(t, err)

		assert.NotEqual(t, plainSecret1, plainSecret2)
	})

	t.Run("Success_GeneratedSecretCanBeVerified", func(t *testing.T) {
		plainSecret, hashedSecret, err := service.GenerateSecret()
		require.NoError(t, err)

		assert.True(t, service.CompareSecret(plainSecret, hashedSecret))
	})
}

func TestSecretService_HashSecret(t *testing.T) {
	t.Run("Success_Argon2id", func(t *testing.T) {
		service := NewSecretService(config.HashAlgorithmArgon2id, 12)

		hashedSecret, err := service.HashSecret("paris-2019")
		require.NoError(t, err)
		assert.Contains(t, hashedSecret, "$argon2id$")
	})

	t.Run("Success_Bcrypt", func(t *testing.T) {
		service := NewSecretService(config.HashAlgorithmBcrypt, bcrypt.MinCost)

		hashedSecret, err := service.HashSecret("paris-2019")
		require.NoError(t, err)
		assert.True(t, isBcryptHash(hashedSecret))

		cost, err := bcrypt.Cost([]byte(hashedSecret))
		require.NoError(t, err)
		assert.Equal(t, bcrypt.MinCost, cost)
	})

	t.Run("Success_SameSecretDifferentHashes", func(t *testing.T) {
		service := NewSecretService(config.HashAlgorithmArgon2id, 12)

		hash1, err := service.HashSecret("paris-2019")
		require.NoError(t, err)
		hash2, err := service.HashSecret("paris-2019")
		require.NoError(t, err)

		assert.NotEqual(t, hash1, hash2)
	})
}

func TestSecretService_CompareSecret(t *testing.T) {
	argon := NewSecretService(config.HashAlgorithmArgon2id, 12)
	bcryptService := NewSecretService(config.HashAlgorithmBcrypt, bcrypt.MinCost)

	argonHash, err := argon.HashSecret("paris-2019")
	require.NoError(t, err)
	bcryptHash, err := bcryptService.HashSecret("paris-2019")
	require.NoError(t, err)

	tests := []struct {
		name     string
		plain    string
		hash     string
		expected bool
	}{
		{name: "Success_Argon2idExactMatch", plain: "paris-2019", hash: argonHash, expected: true},
		{name: "Success_BcryptExactMatch", plain: "paris-2019", hash: bcryptHash, expected: true},
		{name: "Error_Argon2idOneCharacterOff", plain: "paris-2018", hash: argonHash, expected: false},
		{name: "Error_BcryptOneCharacterOff", plain: "Paris-2019", hash: bcryptHash, expected: false},
		{name: "Error_EmptySecret", plain: "", hash: argonHash, expected: false},
		{name: "Error_EmptyHash", plain: "paris-2019", hash: "", expected: false},
		{name: "Error_MalformedArgonHash", plain: "paris-2019", hash: "$argon2id$garbage", expected: false},
		{name: "Error_MalformedBcryptHash", plain: "paris-2019", hash: "$2b$12$short", expected: false},
		{name: "Error_PlainTextHash", plain: "paris-2019", hash: "paris-2019", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Equal(t, tt.expected, argon.CompareSecret(tt.plain, tt.hash))
			})
		})
	}

	t.Run("Success_BcryptServiceAcceptsArgonHash", func(t *testing.T) {
		assert.True(t, bcryptService.CompareSecret("paris-2019", argonHash))
	})
}
