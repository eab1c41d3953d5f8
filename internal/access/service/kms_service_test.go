package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/secrets"
)

// generateLocalSecretsURI generates a base64key:// URI for testing.
func generateLocalSecretsURI(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func wrapWithURI(t *testing.T, keyURI string, plaintext []byte) string {
	t.Helper()
	ctx := context.Background()

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, keeper.Close())
	}()

	ciphertext, err := keeper.Encrypt(ctx, plaintext)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(ciphertext)
}

func TestKMSService_OpenKeeper(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()

	t.Run("Success_LocalSecrets", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, generateLocalSecretsURI(t))
		require.NoError(t, err)
		require.NotNil(t, keeper)

		_, ok := keeper.(*secrets.Keeper)
		assert.True(t, ok, "keeper should be *secrets.Keeper")
		assert.NoError(t, keeper.Close())
	})

	t.Run("Error_InvalidURI", func(t *testing.T) {
		keeper, err := kmsService.OpenKeeper(ctx, "invalid://uri")
		assert.Error(t, err)
		assert.Nil(t, keeper)
		assert.Contains(t, err.Error(), "failed to open KMS keeper")
	})
}

func TestKMSService_Unwrap(t *testing.T) {
	ctx := context.Background()
	kmsService := NewKMSService()
	keyURI := generateLocalSecretsURI(t)

	t.Run("Success_RoundTrip", func(t *testing.T) {
		secret := []byte("0123456789abcdef0123456789abcdef")
		wrapped := wrapWithURI(t, keyURI, secret)

		plaintext, err := kmsService.Unwrap(ctx, keyURI, wrapped)
		require.NoError(t, err)
		assert.Equal(t, secret, plaintext)
	})

	t.Run("Error_NotBase64", func(t *testing.T) {
		_, err := kmsService.Unwrap(ctx, keyURI, "%%%")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode wrapped key")
	})

	t.Run("Error_WrongKey", func(t *testing.T) {
		wrapped := wrapWithURI(t, generateLocalSecretsURI(t), []byte("secret"))

		_, err := kmsService.Unwrap(ctx, keyURI, wrapped)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to unwrap key")
	})
}
