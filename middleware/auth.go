package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/logging"
)

// CustomClaims contains custom data we want from the token.
// Email and Name are only carried by locally issued tokens; Auth0 users
// are resolved through the /userinfo endpoint instead.
type CustomClaims struct {
	Scope string `json:"scope"`
	Role  string `json:"role,omitempty"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Validate does nothing for this example, but we need
// it to satisfy validator.CustomClaims interface.
func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// HasScope checks whether our claims have a specific scope.
func (c CustomClaims) HasScope(expectedScope string) bool {
	result := strings.Split(c.Scope, " ")
	for i := range result {
		if result[i] == expectedScope {
			return true
		}
	}

	return false
}

// localClaims is the payload of an HS256 token signed with JWT_SECRET
type localClaims struct {
	CustomClaims
	jwt.RegisteredClaims
}

// EnsureValidToken is a middleware that will check the validity of our JWT.
// Tokens are verified against Auth0 when AUTH0_DOMAIN is set and against
// JWT_SECRET otherwise.
func EnsureValidToken(cfg *config.Config) gin.HandlerFunc {
	if cfg.Auth0Domain == "" {
		return ensureValidLocalToken(cfg.JWTSecret)
	}
	return ensureValidAuth0Token(cfg)
}

func ensureValidAuth0Token(cfg *config.Config) gin.HandlerFunc {
	log := logging.GetLogger().WithName("auth")

	issuerURL, err := url.Parse("https://" + cfg.Auth0Domain + "/")
	if err != nil {
		panic(fmt.Sprintf("failed to parse the issuer url: %v", err))
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{cfg.Auth0Audience},
		validator.WithCustomClaims(
			func() validator.CustomClaims {
				return &CustomClaims{}
			},
		),
		validator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		panic(fmt.Sprintf("failed to set up the jwt validator: %v", err))
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Info("encountered error while validating JWT", "error", err.Error())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		if _, writeErr := w.Write([]byte(`{"success":false,"error":{"code":"INVALID_TOKEN","message":"Failed to validate JWT."}}`)); writeErr != nil {
			log.Error(writeErr, "failed to write error response")
		}
	}

	middleware := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return func(c *gin.Context) {
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			token := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)

			// The raw token is kept for calling Auth0's /userinfo endpoint
			rawToken, _ := jwtmiddleware.AuthHeaderTokenExtractor(r)
			setIdentity(c, token, rawToken)

			c.Next()
		}

		// Use the JWT middleware to check the token
		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)
	}
}

func ensureValidLocalToken(secret string) gin.HandlerFunc {
	log := logging.GetLogger().WithName("auth")
	key := []byte(secret)

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(time.Minute),
	)

	return func(c *gin.Context) {
		rawToken, err := jwtmiddleware.AuthHeaderTokenExtractor(c.Request)
		if err == nil && rawToken == "" {
			err = errors.New("authorization header is missing")
		}

		claims := &localClaims{}
		if err == nil {
			_, err = parser.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return key, nil
			})
		}
		if err == nil && claims.Subject == "" {
			err = errors.New("token has no subject")
		}
		if err != nil {
			log.Info("encountered error while validating JWT", "error", err.Error())
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_TOKEN",
					"message": "Failed to validate JWT.",
				},
			})
			return
		}

		custom := claims.CustomClaims
		setIdentity(c, &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{
				Issuer:  claims.Issuer,
				Subject: claims.Subject,
			},
			CustomClaims: &custom,
		}, rawToken)

		c.Next()
	}
}

// setIdentity stores what handlers read about the caller in the Gin context
func setIdentity(c *gin.Context, claims *validator.ValidatedClaims, rawToken string) {
	c.Set("user_id", claims.RegisteredClaims.Subject)
	c.Set("access_token", rawToken)
	c.Set("validated_claims", claims)
}

// IssueLocalToken signs an HS256 token accepted by EnsureValidToken when
// no Auth0 domain is configured
func IssueLocalToken(secret, subject string, custom CustomClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, localClaims{
		CustomClaims: custom,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}

// GetUserID extracts the user ID from the Gin context
func GetUserID(c *gin.Context) (string, error) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", &AuthError{Code: "MISSING_USER_ID", Message: "User ID not found in context"}
	}

	userIDStr, ok := userID.(string)
	if !ok {
		return "", &AuthError{Code: "INVALID_USER_ID", Message: "User ID is not a string"}
	}

	return userIDStr, nil
}

// GetAccessToken extracts the raw bearer token from the Gin context
func GetAccessToken(c *gin.Context) (string, error) {
	token, exists := c.Get("access_token")
	if !exists {
		return "", &AuthError{Code: "MISSING_TOKEN", Message: "Access token not found in context"}
	}

	tokenStr, ok := token.(string)
	if !ok || tokenStr == "" {
		return "", &AuthError{Code: "INVALID_TOKEN", Message: "Access token is not a string"}
	}

	return tokenStr, nil
}

// GetClaims extracts the validated JWT claims from the Gin context
func GetClaims(c *gin.Context) (*validator.ValidatedClaims, error) {
	claims, exists := c.Get("validated_claims")
	if !exists {
		return nil, &AuthError{Code: "MISSING_CLAIMS", Message: "Claims not found in context"}
	}

	validatedClaims, ok := claims.(*validator.ValidatedClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Claims are not in the expected format"}
	}

	return validatedClaims, nil
}

// GetCustomClaims returns the custom part of the validated claims
func GetCustomClaims(c *gin.Context) (*CustomClaims, error) {
	claims, err := GetClaims(c)
	if err != nil {
		return nil, err
	}

	custom, ok := claims.CustomClaims.(*CustomClaims)
	if !ok {
		return nil, &AuthError{Code: "INVALID_CLAIMS", Message: "Custom claims are not in the expected format"}
	}

	return custom, nil
}

// RequireScope is a middleware that checks if the token has a specific scope
func RequireScope(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		customClaims, err := GetCustomClaims(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "MISSING_CLAIMS",
					"message": "Could not retrieve token claims",
				},
			})
			c.Abort()
			return
		}

		if !customClaims.HasScope(scope) {
			c.JSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INSUFFICIENT_SCOPE",
					"message": "Insufficient permissions to access this resource",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthError represents an authentication error
type AuthError struct {
	Code    string
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}
