package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/services"
	"github.com/wigworks/wig-atelier-api/utils"
)

// UploadController handles image uploads: reference images, finished-piece
// review images and payment screenshots all arrive through it
type UploadController struct {
	db     *gorm.DB
	images services.ImageService
}

// NewUploadController creates an UploadController with its dependencies
func NewUploadController(db *gorm.DB, images services.ImageService) *UploadController {
	return &UploadController{db: db, images: images}
}

// UploadImage handles POST /api/v1/uploads - accepts a single PNG in the
// "image" form field and returns its storage key plus a presigned URL
func (ctrl *UploadController) UploadImage(c *gin.Context) {
	if _, ok := resolveArtisan(c, ctrl.db); !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "An image file is required in the 'image' field")
		return
	}

	imageKey, err := ctrl.images.UploadImage(fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			respondError(c, http.StatusBadRequest, uploadErr.Code, uploadErr.Message)
			return
		}

		respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to upload image")
		return
	}

	url, err := ctrl.images.GetImageURL(imageKey)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to generate image URL")
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"image_key": imageKey,
		"image_url": url,
	})
}

// GetImageURL handles GET /api/v1/uploads/url - exchanges a storage key for a
// fresh presigned URL
func (ctrl *UploadController) GetImageURL(c *gin.Context) {
	if _, ok := resolveArtisan(c, ctrl.db); !ok {
		return
	}

	imageKey := c.Query("key")
	if imageKey == "" {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Image key is required")
		return
	}

	url, err := ctrl.images.GetImageURL(imageKey)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "UPLOAD_ERROR", "Failed to generate image URL")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"image_key": imageKey,
		"image_url": url,
	})
}
