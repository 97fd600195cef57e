package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/middleware"
	"github.com/wigworks/wig-atelier-api/models"
	"github.com/wigworks/wig-atelier-api/services"
)

// UserController manages artisan profiles. Profiles are thin: identity comes
// from Auth0, the profile adds the public slug customers use on the inquiry
// form.
type UserController struct {
	db    *gorm.DB
	auth0 *services.Auth0Service
}

// NewUserController creates a UserController with its dependencies
func NewUserController(db *gorm.DB, auth0 *services.Auth0Service) *UserController {
	return &UserController{db: db, auth0: auth0}
}

// CreateUserRequest represents the request body for creating a profile
type CreateUserRequest struct {
	Slug string  `json:"slug" binding:"omitempty,alphanum"`
	Bio  *string `json:"bio"`
}

// UpdateUserRequest represents the request body for updating a profile
type UpdateUserRequest struct {
	Name  string  `json:"name" binding:"omitempty"`
	Email string  `json:"email" binding:"omitempty,email"`
	Slug  string  `json:"slug" binding:"omitempty,alphanum"`
	Bio   *string `json:"bio"`
}

// CreateUser handles POST /api/v1/users - creates an artisan profile from
// Auth0 userinfo
func (ctrl *UserController) CreateUser(c *gin.Context) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user ID from token")
		return
	}

	accessToken, err := middleware.GetAccessToken(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Access token not found")
		return
	}

	userInfo, err := ctrl.auth0.GetUserInfo(accessToken)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "AUTH0_ERROR", "Failed to fetch user information from Auth0")
		return
	}

	if userInfo.Email == "" {
		respondError(c, http.StatusBadRequest, "MISSING_EMAIL", "Email not provided by Auth0")
		return
	}
	if userInfo.Name == "" {
		respondError(c, http.StatusBadRequest, "MISSING_NAME", "Name not provided by Auth0")
		return
	}

	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	slug := req.Slug
	if slug == "" {
		// Fallback handle; artisans usually pick their own
		slug = strings.ReplaceAll(uuid.NewString()[:8], "-", "")
	}

	user := models.User{
		ID:      uuid.NewString(),
		Auth0ID: auth0ID,
		Name:    userInfo.Name,
		Email:   userInfo.Email,
		Slug:    slug,
		Bio:     req.Bio,
	}

	if err := ctrl.db.Create(&user).Error; err != nil {
		// Works with both PostgreSQL and SQLite error text
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			respondError(c, http.StatusConflict, "USER_EXISTS", "A user with this Auth0 ID, email or slug already exists")
			return
		}

		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to create user")
		return
	}

	respondOK(c, http.StatusCreated, user)
}

// GetMyProfile handles GET /api/v1/users/me
func (ctrl *UserController) GetMyProfile(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	respondOK(c, http.StatusOK, user)
}

// UpdateMyProfile handles PUT /api/v1/users/me
func (ctrl *UserController) UpdateMyProfile(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Slug != "" {
		updates["slug"] = req.Slug
	}
	if req.Bio != nil {
		updates["bio"] = *req.Bio
	}

	if len(updates) == 0 {
		respondOK(c, http.StatusOK, user)
		return
	}

	if err := ctrl.db.Model(user).Updates(updates).Error; err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "unique") {
			respondError(c, http.StatusConflict, "PROFILE_CONFLICT", "A user with this email or slug already exists")
			return
		}

		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to update user profile")
		return
	}

	var updated models.User
	if err := ctrl.db.First(&updated, "id = ?", user.ID).Error; err != nil {
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to fetch updated profile")
		return
	}

	respondOK(c, http.StatusOK, updated)
}
