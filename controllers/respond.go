package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/middleware"
	"github.com/wigworks/wig-atelier-api/models"
	"github.com/wigworks/wig-atelier-api/services"
)

// domainErrorStatus maps each domain error kind to an HTTP status. Conflict
// kinds (duplicate review, double approve, already answered, overlapping
// revision request) get 409; remaining precondition failures get 422.
var domainErrorStatus = map[services.ErrorKind]int{
	services.ErrNotFound:            http.StatusNotFound,
	services.ErrForbidden:           http.StatusForbidden,
	services.ErrAuthFailed:          http.StatusUnauthorized,
	services.ErrDuplicateReview:     http.StatusConflict,
	services.ErrAlreadyApproved:     http.StatusConflict,
	services.ErrAlreadyCompleted:    http.StatusConflict,
	services.ErrPendingRevision:     http.StatusConflict,
	services.ErrIllegalTransition:   http.StatusUnprocessableEntity,
	services.ErrInvalidState:        http.StatusUnprocessableEntity,
	services.ErrRevisionLimit:       http.StatusUnprocessableEntity,
	services.ErrBalanceNotConfirmed: http.StatusUnprocessableEntity,
}

// respondOK writes the success envelope
func respondOK(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

// respondError writes the error envelope with an explicit code
func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// respondServiceError turns a service error into the HTTP envelope. Typed
// domain errors keep their kind as the stable error code; anything else is an
// infrastructure failure and becomes a 500.
func respondServiceError(c *gin.Context, err error) {
	if domainErr, ok := services.AsDomainError(err); ok {
		status, found := domainErrorStatus[domainErr.Kind]
		if !found {
			status = http.StatusUnprocessableEntity
		}

		body := gin.H{
			"code":    string(domainErr.Kind),
			"message": domainErr.Message,
		}
		if domainErr.Details != nil {
			body["details"] = domainErr.Details
		}

		c.JSON(status, gin.H{
			"success": false,
			"error":   body,
		})
		return
	}

	logrus.WithError(err).Error("unexpected service error")
	respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "An internal error occurred")
}

// resolveArtisan extracts the authenticated Auth0 identity and looks up the
// owning artisan row. Writes the error response and returns false on failure.
func resolveArtisan(c *gin.Context, db *gorm.DB) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	var user models.User
	if err := db.Where("auth0_id = ?", auth0ID).First(&user).Error; err != nil {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
		return nil, false
	}

	return &user, true
}
