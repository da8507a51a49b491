package acceptance

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-logr/logr"
	"github.com/kendall-kelly/repair-shop-api/config"
	"github.com/kendall-kelly/repair-shop-api/controllers"
	"github.com/kendall-kelly/repair-shop-api/middleware"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/repository"
	"github.com/kendall-kelly/repair-shop-api/services"
	"github.com/kendall-kelly/repair-shop-api/tests/testutil"
	"github.com/kendall-kelly/repair-shop-api/utils"
	"gorm.io/gorm"
)

const acceptanceSecret = "acceptance-secret"

// apiFixture is a running API backed by an in-memory database, local photo
// storage and recording event and notification sinks
type apiFixture struct {
	server    *httptest.Server
	db        *gorm.DB
	uploadDir string
	events    *services.MockEventPublisher
	notifier  *services.MockNotifier
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	return newScopedAPIFixture(t, "")
}

// newScopedAPIFixture is newAPIFixture with every authenticated route also
// requiring requiredScope, when it is not empty
func newScopedAPIFixture(t *testing.T, requiredScope string) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &apiFixture{
		db:        testutil.NewTestDB(t),
		uploadDir: t.TempDir(),
		events:    services.NewMockEventPublisher(),
		notifier:  services.NewMockNotifier(),
	}

	originalDir := utils.UploadDir
	utils.UploadDir = f.uploadDir
	t.Cleanup(func() { utils.UploadDir = originalDir })

	config.SetDB(f.db)
	repo := repository.NewStore(f.db)
	services.InitProfileService(repo)
	services.InitLifecycleService(repo, f.events, f.notifier, logr.Discard())
	services.InitChatService(repo, services.NewChatHub(0, logr.Discard()), f.events, logr.Discard())
	services.InitReviewService(repo)
	services.InitRepairImageService(repo, services.InitImageService(services.NewLocalStorageService(f.uploadDir)))

	f.server = httptest.NewServer(f.router(requiredScope))
	t.Cleanup(f.server.Close)
	return f
}

func (f *apiFixture) router(requiredScope string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	v1.GET("/uploads/:filename", controllers.GetUploadedImage)

	authenticated := v1.Group("", middleware.EnsureValidToken(&config.Config{JWTSecret: acceptanceSecret}))
	if requiredScope != "" {
		authenticated.Use(middleware.RequireScope(requiredScope))
	}
	authenticated.GET("/device-types", controllers.ListDeviceTypes)

	requests := authenticated.Group("/repair-requests")
	requests.POST("", controllers.CreateRepairRequest)
	requests.GET("", controllers.ListRepairRequests)
	requests.GET("/stats", controllers.GetRepairStats)
	requests.GET("/track/:code", controllers.TrackRepairRequest)
	requests.GET("/:id", controllers.GetRepairRequest)
	requests.GET("/:id/history", controllers.GetRepairRequestHistory)
	requests.POST("/:id/transitions", controllers.TransitionRepairRequest)
	requests.PUT("/:id/assign", controllers.AssignRepairRequest)
	requests.PUT("/:id/notes", controllers.UpdateRepairNotes)
	requests.GET("/:id/messages", controllers.GetMessages)
	requests.POST("/:id/messages", controllers.SendMessage)
	requests.GET("/:id/images", controllers.ListRepairImages)
	requests.POST("/:id/images", controllers.UploadRepairImage)
	requests.POST("/:id/review", controllers.CreateReview)

	authenticated.GET("/technicians/:id/reviews", controllers.ListTechnicianReviews)
	authenticated.GET("/analytics", controllers.GetAnalytics)
	return router
}

// token returns an Authorization header value for profile
func (f *apiFixture) token(t *testing.T, profile models.Profile) string {
	return testutil.BearerToken(t, acceptanceSecret, profile)
}

// send performs a request against the running server and decodes the JSON body
func (f *apiFixture) send(t *testing.T, method, path, authorization, contentType string, body io.Reader) (int, map[string]interface{}) {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+path, body)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var response map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil && err != io.EOF {
		t.Fatalf("Failed to decode %s %s response: %v", method, path, err)
	}
	return resp.StatusCode, response
}

// sendJSON is send with a JSON body
func (f *apiFixture) sendJSON(t *testing.T, method, path, authorization string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	return f.send(t, method, path, authorization, "application/json", reader)
}

func data(response map[string]interface{}) map[string]interface{} {
	return response["data"].(map[string]interface{})
}

func errorCode(response map[string]interface{}) string {
	return response["error"].(map[string]interface{})["code"].(string)
}
