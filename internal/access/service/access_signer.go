package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/allisson/letterbox/internal/access/domain"
)

// signingKeyInfo versions the HKDF derivation so the canonical format can evolve.
const signingKeyInfo = "access-attempt-signing-v1"

type accessSigner struct {
	signingKey []byte
}

// NewAccessSigner derives an HMAC-SHA256 signing key from masterKey with HKDF-SHA256.
func NewAccessSigner(masterKey []byte) (AccessSigner, error) {
	if len(masterKey) == 0 {
		return nil, domain.ErrSigningKeyMissing
	}

	signingKey, err := deriveSigningKey(masterKey)
	if err != nil {
		return nil, fmt.Errorf("failed to derive signing key: %w", err)
	}

	return &accessSigner{signingKey: signingKey}, nil
}

func deriveSigningKey(masterKey []byte) ([]byte, error) {
	reader := hkdf.New(sha256.New, masterKey, nil, []byte(signingKeyInfo))

	signingKey := make([]byte, 32)
	if _, err := io.ReadFull(reader, signingKey); err != nil {
		return nil, err
	}
	return signingKey, nil
}

// canonicalizeAttempt encodes the attempt fields in a fixed order:
// id || recipient_id || success || failure_reason || client_id || client_agent || request_id || accessed_at.
// Variable-length fields are length-prefixed and absent optional fields encode as length zero.
func canonicalizeAttempt(attempt *domain.AccessAttempt) []byte {
	buf := make([]byte, 0, 256)

	buf = append(buf, attempt.ID[:]...)
	buf = append(buf, attempt.RecipientID[:]...)

	if attempt.Success {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	buf = appendLengthPrefixed(buf, optionalBytes(attempt.FailureReason))
	buf = appendLengthPrefixed(buf, []byte(attempt.ClientID))
	buf = appendLengthPrefixed(buf, optionalBytes(attempt.ClientAgent))
	buf = appendLengthPrefixed(buf, optionalBytes(attempt.RequestID))

	// Microsecond precision survives every supported database column type.
	buf = binary.BigEndian.AppendUint64(buf, uint64(attempt.AccessedAt.UTC().UnixMicro()))

	return buf
}

func optionalBytes(value *string) []byte {
	if value == nil {
		return nil
	}
	return []byte(*value)
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data))) //nolint:gosec // fields are bounded by column sizes
	return append(buf, data...)
}

// Sign returns the 32-byte HMAC-SHA256 signature of the attempt.
func (s *accessSigner) Sign(attempt *domain.AccessAttempt) ([]byte, error) {
	if attempt == nil {
		return nil, fmt.Errorf("access attempt is nil")
	}

	mac := hmac.New(sha256.New, s.signingKey)
	mac.Write(canonicalizeAttempt(attempt))
	return mac.Sum(nil), nil
}

// Verify recomputes the signature and compares it in constant time.
func (s *accessSigner) Verify(attempt *domain.AccessAttempt) error {
	expected, err := s.Sign(attempt)
	if err != nil {
		return fmt.Errorf("failed to compute expected signature: %w", err)
	}

	if !hmac.Equal(attempt.Signature, expected) {
		return domain.ErrSignatureInvalid
	}
	return nil
}
