package testutil

import (
	"strings"
	"testing"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/middleware"
	"github.com/kendall-kelly/repair-shop-api/models"
)

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string, scopes []string, role models.Role) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
		CustomClaims: &middleware.CustomClaims{
			Scope: strings.Join(scopes, " "),
			Role:  string(role),
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID string, issuer string, scopes []string, role models.Role) {
	c.Set("user_id", userID)
	c.Set("access_token", "mock-token")
	c.Set("validated_claims", MockValidatedClaims(userID, issuer, scopes, role))
}

// MockAuthMiddleware authenticates every request as profile, the way
// EnsureValidToken does for a valid token
func MockAuthMiddleware(profile models.Profile) gin.HandlerFunc {
	return func(c *gin.Context) {
		SetMockAuthContext(c, profile.Auth0ID, "", nil, profile.Role)
		c.Next()
	}
}

// BearerToken signs a local token for profile, valid for an hour
func BearerToken(t *testing.T, secret string, profile models.Profile) string {
	t.Helper()

	token, err := middleware.IssueLocalToken(secret, profile.Auth0ID, middleware.CustomClaims{
		Role:  string(profile.Role),
		Email: profile.Email,
		Name:  profile.FullName,
	}, time.Hour)
	if err != nil {
		t.Fatalf("Failed to sign token for %s: %v", profile.Auth0ID, err)
	}
	return "Bearer " + token
}
