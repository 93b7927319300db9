package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/classplan/internal/config"
	"github.com/stretchr/testify/require"
)

// TestSecret is a signing secret long enough for NewJWTService.
const TestSecret = "test-jwt-secret-that-is-32-chars-long"

// DefaultJWTConfig returns an auth configuration suitable for tests.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            TestSecret,
		TokenLifetimeMinutes: 60,
	}
}

// NewTestJWTService creates a JWT service with the default test configuration.
func NewTestJWTService(t testing.TB) JWTService {
	t.Helper()
	svc, err := NewJWTService(DefaultJWTConfig())
	require.NoError(t, err)
	return svc
}

// GenerateTokenWithExpiry signs a token for ownerID that expires at
// expiresAt, using the default test secret.
func GenerateTokenWithExpiry(t testing.TB, ownerID uuid.UUID, expiresAt time.Time) string {
	t.Helper()
	svc := newHMACService(TestSecret, time.Hour, time.Now)
	token, err := svc.sign(context.Background(), ownerID, expiresAt)
	require.NoError(t, err)
	return token
}

// GenerateAuthHeader returns a bearer Authorization header value for ownerID.
func GenerateAuthHeader(t testing.TB, ownerID uuid.UUID) string {
	t.Helper()
	token, err := NewTestJWTService(t).GenerateToken(context.Background(), ownerID)
	require.NoError(t, err)
	return "Bearer " + token
}
