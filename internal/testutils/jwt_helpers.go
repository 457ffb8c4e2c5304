package testutils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis-api/internal/config"
	"github.com/phrazzld/lexis-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

// TestJWTSecret is a test-only signing secret. It must never be used in production.
const TestJWTSecret = "test-jwt-secret-that-is-32-chars-long"

// TestAuthConfig returns auth settings signed with TestJWTSecret.
func TestAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:            TestJWTSecret,
		TokenLifetimeMinutes: 15,
	}
}

// NewTestJWTService returns a real HMAC JWT service using TestJWTSecret.
func NewTestJWTService(t *testing.T) auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(TestAuthConfig())
	require.NoError(t, err, "failed to create test JWT service")
	return svc
}

// MustAuthHeader returns a "Bearer <token>" header value for userID.
func MustAuthHeader(t *testing.T, svc auth.JWTService, userID uuid.UUID) string {
	t.Helper()
	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err, "failed to generate test token")
	return "Bearer " + token
}
