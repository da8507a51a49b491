package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/middleware"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/repository"
	"github.com/kendall-kelly/repair-shop-api/services"
	"github.com/kendall-kelly/repair-shop-api/tests/testutil"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testEnv holds the collaborators wired behind the global service instances
type testEnv struct {
	db       *gorm.DB
	hub      *services.ChatHub
	events   *services.MockEventPublisher
	notifier *services.MockNotifier
	images   *services.MockImageService
}

// setupTestDB opens a fresh database and points every global service at it
func setupTestDB(t *testing.T) *testEnv {
	db := testutil.NewTestDB(t)
	config.SetDB(db)

	env := &testEnv{
		db:       db,
		hub:      services.NewChatHub(0, logr.Discard()),
		events:   services.NewMockEventPublisher(),
		notifier: services.NewMockNotifier(),
		images:   services.NewMockImageService(),
	}

	repo := repository.NewStore(db)
	services.InitProfileService(repo)
	services.InitLifecycleService(repo, env.events, env.notifier, logr.Discard())
	services.InitChatService(repo, env.hub, env.events, logr.Discard())
	services.InitReviewService(repo)
	env.images.SetAsMockForTesting()
	services.InitRepairImageService(repo, services.GetImageService())

	return env
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router
}

// setupMockAuth0Server creates a mock HTTP server that simulates Auth0's /userinfo endpoint
func setupMockAuth0Server(userInfoMap map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		// Extract token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || len(authHeader) < 7 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		token := authHeader[7:] // Remove "Bearer " prefix

		// Look up user info by token
		userInfo, exists := userInfoMap[token]
		if !exists {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	}))
}

// mockAuthMiddleware simulates the JWT middleware for testing
// It sets up the context exactly as the real EnsureValidToken middleware does
func mockAuthMiddleware(auth0ID, role, accessToken string) gin.HandlerFunc {
	return mockClaimsMiddleware(auth0ID, accessToken, &middleware.CustomClaims{Role: role})
}

// mockClaimsMiddleware is mockAuthMiddleware with full control over the custom claims
func mockClaimsMiddleware(auth0ID, accessToken string, customClaims *middleware.CustomClaims) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", auth0ID)
		c.Set("access_token", accessToken)
		c.Set("validated_claims", &validator.ValidatedClaims{
			RegisteredClaims: validator.RegisteredClaims{Subject: auth0ID},
			CustomClaims:     customClaims,
		})
		c.Next()
	}
}

// asProfile authenticates requests as an existing profile
func asProfile(profile models.Profile) gin.HandlerFunc {
	return mockAuthMiddleware(profile.Auth0ID, string(profile.Role), "token-"+profile.ID)
}

// withTestConfig installs cfg for the duration of the test
func withTestConfig(t *testing.T, cfg *config.Config) {
	originalConfig := config.GetConfig()
	t.Cleanup(func() { config.SetConfig(originalConfig) })
	config.SetConfig(cfg)
}

// doJSON sends body as JSON (nil for no body) and decodes the response envelope
func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), "Response body: %s", w.Body.String())
	return w, response
}

// errorCode returns the code of an error envelope
func errorCode(response map[string]interface{}) string {
	errorData, ok := response["error"].(map[string]interface{})
	if !ok {
		return ""
	}
	code, _ := errorData["code"].(string)
	return code
}

// dataMap returns the data field of a success envelope
func dataMap(t *testing.T, response map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "data is not an object: %v", response["data"])
	return data
}
