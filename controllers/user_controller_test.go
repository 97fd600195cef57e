package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/config"
	"github.com/wigworks/wig-atelier-api/services"
)

// setupMockAuth0Server simulates Auth0's /userinfo endpoint, mapping access
// tokens to user info
func setupMockAuth0Server(userInfoMap map[string]*services.Auth0UserInfo) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/userinfo" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		authHeader := r.Header.Get("Authorization")
		token := strings.TrimPrefix(authHeader, "Bearer ")
		userInfo, ok := userInfoMap[token]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(userInfo)
	}))
}

func newUserRouter(db *gorm.DB, auth0Domain, auth0ID string) *gin.Engine {
	router := setupTestRouter()
	auth0 := services.NewAuth0Service(&config.Config{Auth0Domain: auth0Domain})
	ctrl := NewUserController(db, auth0)
	auth := mockAuthMiddleware(auth0ID)

	router.POST("/users", auth, ctrl.CreateUser)
	router.GET("/users/me", auth, ctrl.GetMyProfile)
	router.PUT("/users/me", auth, ctrl.UpdateMyProfile)

	return router
}

func TestCreateUserEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)

	server := setupMockAuth0Server(map[string]*services.Auth0UserInfo{
		"mock-token": {
			Sub:   "auth0|newartisan",
			Email: "mei@example.com",
			Name:  "Mei",
		},
	})
	defer server.Close()

	router := newUserRouter(db, server.URL, "auth0|newartisan")

	w, response := doJSON(t, router, http.MethodPost, "/users", map[string]interface{}{
		"slug": "meiwigs",
		"bio":  "cosplay wig commissions",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "auth0|newartisan", data["auth0_id"])
	assert.Equal(t, "mei@example.com", data["email"])
	assert.Equal(t, "meiwigs", data["slug"])

	// Creating the same profile twice conflicts on the unique auth0_id
	w, response = doJSON(t, router, http.MethodPost, "/users", map[string]interface{}{
		"slug": "meiwigs2",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "USER_EXISTS", errorCode(response))
}

func TestCreateUserEndpoint_Auth0Failure(t *testing.T) {
	db := setupControllerTestDB(t)

	// No tokens are valid
	server := setupMockAuth0Server(map[string]*services.Auth0UserInfo{})
	defer server.Close()

	router := newUserRouter(db, server.URL, "auth0|newartisan")

	w, response := doJSON(t, router, http.MethodPost, "/users", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "AUTH0_ERROR", errorCode(response))
}

func TestGetMyProfileEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	artisan := createArtisan(t, db, "mei")
	router := newUserRouter(db, "unused.example.com", artisan.Auth0ID)

	w, response := doJSON(t, router, http.MethodGet, "/users/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, artisan.Email, data["email"])
	assert.Equal(t, "mei", data["slug"])

	// Without a profile row the lookup fails
	strangerRouter := newUserRouter(db, "unused.example.com", "auth0|stranger")
	w, response = doJSON(t, strangerRouter, http.MethodGet, "/users/me", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", errorCode(response))
}

func TestUpdateMyProfileEndpoint(t *testing.T) {
	db := setupControllerTestDB(t)
	artisan := createArtisan(t, db, "mei")
	other := createArtisan(t, db, "rin")
	router := newUserRouter(db, "unused.example.com", artisan.Auth0ID)

	w, response := doJSON(t, router, http.MethodPut, "/users/me", map[string]interface{}{
		"name": "Mei Atelier",
		"bio":  "commissions open",
	})
	require.Equal(t, http.StatusOK, w.Code)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, "Mei Atelier", data["name"])
	assert.Equal(t, "commissions open", data["bio"])

	// Taking another artisan's slug conflicts
	w, response = doJSON(t, router, http.MethodPut, "/users/me", map[string]interface{}{
		"slug": other.Slug,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "PROFILE_CONFLICT", errorCode(response))
}
