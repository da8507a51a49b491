package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/repair-shop-api/models"
	"github.com/kendall-kelly/repair-shop-api/tests/testutil"
	"github.com/kendall-kelly/repair-shop-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useUploadDir points local photo storage at a temporary directory
func useUploadDir(t *testing.T) string {
	tmpDir := t.TempDir()
	original := utils.UploadDir
	utils.UploadDir = tmpDir
	t.Cleanup(func() { utils.UploadDir = original })
	return tmpDir
}

func uploadsRouter() *gin.Engine {
	router := setupTestRouter()
	router.GET("/uploads/:filename", GetUploadedImage)
	return router
}

func TestGetUploadedImage_Success(t *testing.T) {
	tmpDir := useUploadDir(t)

	tests := []struct {
		filename    string
		contentType string
	}{
		{"screen_crack.png", "image/png"},
		{"screen_crack.PNG", "image/png"},
		{"back_panel.jpg", "image/jpeg"},
		{"back_panel.JPEG", "image/jpeg"},
	}

	router := uploadsRouter()
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			content := []byte("fake image content for " + tt.filename)
			require.NoError(t, os.WriteFile(filepath.Join(tmpDir, tt.filename), content, 0644))

			req := httptest.NewRequest(http.MethodGet, "/uploads/"+tt.filename, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Equal(t, "public, max-age=86400", w.Header().Get("Cache-Control"))
			assert.Equal(t, content, w.Body.Bytes())
		})
	}
}

func TestGetUploadedImage_FileNotFound(t *testing.T) {
	useUploadDir(t)

	req := httptest.NewRequest(http.MethodGet, "/uploads/nonexistent.png", nil)
	w := httptest.NewRecorder()
	uploadsRouter().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_NOT_FOUND")
	assert.Contains(t, w.Body.String(), "Image not found")
}

func TestGetUploadedImage_EmptyFilename(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/uploads/", nil)
	w := httptest.NewRecorder()
	uploadsRouter().ServeHTTP(w, req)

	// The route needs a filename segment, so gin answers 404
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetUploadedImage_DirectoryTraversal(t *testing.T) {
	useUploadDir(t)
	router := uploadsRouter()

	testCases := []struct {
		name           string
		filename       string
		expectedStatus int
		expectedError  string
	}{
		// Real slashes split the path, so these never reach the handler
		{"Parent directory traversal", "../../../etc/passwd", http.StatusNotFound, ""},
		{"Forward slash in filename", "path/to/file.png", http.StatusNotFound, ""},

		{"Backslash in filename", "path\\to\\file.png", http.StatusBadRequest, "INVALID_FILENAME"},
		{"Dots in filename", "..file.png", http.StatusBadRequest, "INVALID_FILENAME"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/uploads/"+tc.filename, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedError != "" {
				assert.Contains(t, w.Body.String(), tc.expectedError)
			}
		})
	}
}

func TestGetUploadedImage_InvalidFileType(t *testing.T) {
	router := uploadsRouter()

	for _, filename := range []string{"image.gif", "image.webp", "image", "document.txt"} {
		t.Run(filename, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/uploads/"+filename, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "INVALID_FILE_TYPE")
			assert.Contains(t, w.Body.String(), "Only PNG and JPEG files are supported")
		})
	}
}

// multipartBody builds an upload form. An empty filename leaves out the file part.
func multipartBody(t *testing.T, filename string, content []byte, description *string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	if description != nil {
		require.NoError(t, writer.WriteField("description", *description))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadRepairImage(t *testing.T) {
	description := "Crack runs from the top corner"

	tests := []struct {
		name           string
		uploader       string
		filename       string
		description    *string
		expectedStatus int
		expectedCode   string
	}{
		{"Customer uploads a PNG", "customer", "crack.png", &description, http.StatusCreated, ""},
		{"Assigned technician uploads a JPEG", "tech", "board.jpg", nil, http.StatusCreated, ""},
		{"Other customer is forbidden", "other", "crack.png", nil, http.StatusForbidden, "FORBIDDEN"},
		{"Admin cannot upload", "admin", "crack.png", nil, http.StatusForbidden, "FORBIDDEN"},
		{"GIF is rejected", "customer", "crack.gif", nil, http.StatusBadRequest, "INVALID_FILE_FORMAT"},
		{"Missing file part", "customer", "", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupTestDB(t)
			customer := testutil.CreateProfile(t, env.db, "customer", models.RoleCustomer)
			technician := testutil.CreateProfile(t, env.db, "tech", models.RoleTechnician)
			profiles := map[string]models.Profile{
				"customer": customer,
				"tech":     technician,
				"other":    testutil.CreateProfile(t, env.db, "other", models.RoleCustomer),
				"admin":    testutil.CreateProfile(t, env.db, "admin", models.RoleAdmin),
			}
			phone := testutil.CreateDeviceType(t, env.db, "Smartphone", "Mobile")
			request := testutil.CreateRepairRequest(t, env.db, customer, phone, models.StatusRepairing, &technician)

			router := setupTestRouter()
			router.POST("/repair-requests/:id/images", asProfile(profiles[tt.uploader]), UploadRepairImage)

			body, contentType := multipartBody(t, tt.filename, []byte("photo bytes"), tt.description)
			req := httptest.NewRequest(http.MethodPost, "/repair-requests/"+request.ID+"/images", body)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.expectedStatus, w.Code, "Response body: %s", w.Body.String())

			var response map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, errorCode(response))
				assert.Empty(t, env.images.GetUploadedImages())
				return
			}

			data := dataMap(t, response)
			key := "repair-requests/" + request.ID + "/mock_" + tt.filename
			assert.Equal(t, key, data["storage_key"])
			assert.Equal(t, profiles[tt.uploader].ID, data["uploaded_by"])
			assert.Contains(t, data["image_url"], key)
			assert.True(t, env.images.ImageExists(key))
			if tt.description != nil {
				assert.Equal(t, *tt.description, data["description"])
			} else {
				assert.Nil(t, data["description"])
			}
		})
	}
}

func TestListRepairImages(t *testing.T) {
	env := setupTestDB(t)
	customer := testutil.CreateProfile(t, env.db, "customer", models.RoleCustomer)
	technician := testutil.CreateProfile(t, env.db, "tech", models.RoleTechnician)
	admin := testutil.CreateProfile(t, env.db, "admin", models.RoleAdmin)
	other := testutil.CreateProfile(t, env.db, "other", models.RoleCustomer)
	phone := testutil.CreateDeviceType(t, env.db, "Smartphone", "Mobile")
	request := testutil.CreateRepairRequest(t, env.db, customer, phone, models.StatusDiagnosing, &technician)

	upload := setupTestRouter()
	upload.POST("/repair-requests/:id/images", asProfile(customer), UploadRepairImage)
	for _, filename := range []string{"front.png", "back.jpg"} {
		body, contentType := multipartBody(t, filename, []byte(filename), nil)
		req := httptest.NewRequest(http.MethodPost, "/repair-requests/"+request.ID+"/images", body)
		req.Header.Set("Content-Type", contentType)
		w := httptest.NewRecorder()
		upload.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code, "Response body: %s", w.Body.String())
	}

	for _, viewer := range []models.Profile{customer, technician, admin} {
		router := setupTestRouter()
		router.GET("/repair-requests/:id/images", asProfile(viewer), ListRepairImages)

		w, response := doJSON(t, router, http.MethodGet, "/repair-requests/"+request.ID+"/images", nil)
		require.Equal(t, http.StatusOK, w.Code, "viewer %s: %s", viewer.FullName, w.Body.String())
		images := response["data"].([]interface{})
		require.Len(t, images, 2)
		for _, raw := range images {
			assert.NotEmpty(t, raw.(map[string]interface{})["image_url"])
		}
	}

	router := setupTestRouter()
	router.GET("/repair-requests/:id/images", asProfile(other), ListRepairImages)
	w, response := doJSON(t, router, http.MethodGet, "/repair-requests/"+request.ID+"/images", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(response))
}
