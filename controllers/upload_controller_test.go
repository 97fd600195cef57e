package controllers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/services"
)

func newUploadRouter(db *gorm.DB, mockS3 *services.MockS3Service, auth0ID string) *gin.Engine {
	router := setupTestRouter()
	ctrl := NewUploadController(db, services.NewImageService(mockS3))
	auth := mockAuthMiddleware(auth0ID)

	router.POST("/uploads", auth, ctrl.UploadImage)
	router.GET("/uploads/url", auth, ctrl.GetImageURL)

	return router
}

// doMultipart posts a single file in the "image" field
func doMultipart(t *testing.T, router *gin.Engine, filename string, content []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	return w, response
}

func TestUploadImageEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	artisan := createArtisan(t, db, "mei")
	mockS3 := services.NewMockS3Service()
	router := newUploadRouter(db, mockS3, artisan.Auth0ID)

	w, response := doMultipart(t, router, "reference.png", []byte("fake png bytes"))
	require.Equal(t, http.StatusCreated, w.Code)

	data := response["data"].(map[string]interface{})
	imageKey := data["image_key"].(string)
	assert.NotEmpty(t, imageKey)
	assert.Contains(t, data["image_url"], imageKey)
	assert.True(t, mockS3.FileExists(imageKey))
}

func TestUploadImageEndpoint_RejectsNonPNG(t *testing.T) {
	db := setupControllerTestDB(t)
	artisan := createArtisan(t, db, "mei")
	router := newUploadRouter(db, services.NewMockS3Service(), artisan.Auth0ID)

	w, response := doMultipart(t, router, "reference.gif", []byte("gif bytes"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_FORMAT", errorCode(response))
}

func TestUploadImageEndpoint_MissingFile(t *testing.T) {
	db := setupControllerTestDB(t)
	artisan := createArtisan(t, db, "mei")
	router := newUploadRouter(db, services.NewMockS3Service(), artisan.Auth0ID)

	w, response := doJSON(t, router, http.MethodPost, "/uploads", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(response))
}

func TestGetImageURLEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	artisan := createArtisan(t, db, "mei")
	mockS3 := services.NewMockS3Service()
	router := newUploadRouter(db, mockS3, artisan.Auth0ID)

	_, response := doMultipart(t, router, "proof.png", []byte("png"))
	imageKey := response["data"].(map[string]interface{})["image_key"].(string)

	w, response := doJSON(t, router, http.MethodGet, "/uploads/url?key="+imageKey, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, response["data"].(map[string]interface{})["image_url"], imageKey)

	w, response = doJSON(t, router, http.MethodGet, "/uploads/url", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(response))
}
