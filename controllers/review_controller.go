package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/services"
)

// ReviewController exposes the review/revision workflow over HTTP. Artisan
// endpoints require authentication; customer endpoints authenticate with the
// review's bearer token instead.
type ReviewController struct {
	db      *gorm.DB
	reviews *services.ReviewService
}

// NewReviewController creates a ReviewController with its dependencies
func NewReviewController(db *gorm.DB, reviews *services.ReviewService) *ReviewController {
	return &ReviewController{db: db, reviews: reviews}
}

// CreateReviewRequest represents the request body for creating a review
type CreateReviewRequest struct {
	OrderID      string   `json:"order_id" binding:"required"`
	Images       []string `json:"images" binding:"required,min=1"`
	Description  *string  `json:"description"`
	MaxRevisions int      `json:"max_revisions" binding:"omitempty,gt=0"`
}

// ApproveReviewRequest represents the customer approval request body
type ApproveReviewRequest struct {
	Token string `json:"token" binding:"required"`
}

// RequestRevisionRequest represents the customer revision request body
type RequestRevisionRequest struct {
	Token          string   `json:"token" binding:"required"`
	RequestContent string   `json:"request_content" binding:"required"`
	RequestImages  []string `json:"request_images"`
}

// SubmitRevisionResponseRequest represents the artisan's revision answer
type SubmitRevisionResponseRequest struct {
	ResponseImages []string `json:"response_images" binding:"required,min=1"`
	ResponseNotes  *string  `json:"response_notes"`
}

// ConfirmSatisfactionRequest represents the customer's verdict on a revision
type ConfirmSatisfactionRequest struct {
	Token       string `json:"token" binding:"required"`
	IsSatisfied *bool  `json:"is_satisfied" binding:"required"`
}

// CreateReview handles POST /api/v1/reviews
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "At least one finished-piece image is required")
		return
	}

	review, err := ctrl.reviews.CreateReview(user.ID, services.CreateReviewInput{
		OrderID:      req.OrderID,
		Images:       req.Images,
		Description:  req.Description,
		MaxRevisions: req.MaxRevisions,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"id":            review.ID,
		"review_url":    review.ReviewURL,
		"review_token":  review.ReviewToken,
		"max_revisions": review.MaxRevisions,
	})
}

// GetReview handles GET /api/v1/reviews/:id
func (ctrl *ReviewController) GetReview(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	review, revisions, err := ctrl.reviews.GetReview(user.ID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"review":    review,
		"revisions": revisions,
	})
}

// GetReviewByOrder handles GET /api/v1/orders/:id/review
func (ctrl *ReviewController) GetReviewByOrder(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	review, revisions, err := ctrl.reviews.GetReviewByOrder(user.ID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if review == nil {
		respondOK(c, http.StatusOK, nil)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"review":    review,
		"revisions": revisions,
	})
}

// GetReviewByToken handles GET /api/v1/reviews/token/:token - the customer
// review page, no account required
func (ctrl *ReviewController) GetReviewByToken(c *gin.Context) {
	page, err := ctrl.reviews.GetReviewByToken(c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, page)
}

// Approve handles POST /api/v1/reviews/:id/approve - customer accepts the
// finished piece
func (ctrl *ReviewController) Approve(c *gin.Context) {
	var req ApproveReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Review token is required")
		return
	}

	review, err := ctrl.reviews.Approve(c.Param("id"), req.Token)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"is_approved": review.IsApproved,
		"approved_at": review.ApprovedAt,
	})
}

// RequestRevision handles POST /api/v1/reviews/:id/revision - customer asks
// for changes
func (ctrl *ReviewController) RequestRevision(c *gin.Context) {
	var req RequestRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Token and revision request content are required")
		return
	}

	revision, remaining, err := ctrl.reviews.RequestRevision(
		c.Param("id"), req.Token, req.RequestContent, req.RequestImages)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{
		"revision_number":     revision.RevisionNumber,
		"remaining_revisions": remaining,
	})
}

// SubmitRevisionResponse handles PUT /api/v1/reviews/:id/revision/:revisionId
// - the artisan answers a revision request
func (ctrl *ReviewController) SubmitRevisionResponse(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req SubmitRevisionResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "At least one response image is required")
		return
	}

	revision, err := ctrl.reviews.SubmitRevisionResponse(
		user.ID, c.Param("id"), c.Param("revisionId"), req.ResponseImages, req.ResponseNotes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, revision)
}

// ConfirmSatisfaction handles POST /api/v1/reviews/:id/revision/:revisionId/confirm
// - customer's optional verdict on an answered revision
func (ctrl *ReviewController) ConfirmSatisfaction(c *gin.Context) {
	var req ConfirmSatisfactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Token and is_satisfied are required")
		return
	}

	revision, err := ctrl.reviews.ConfirmSatisfaction(
		c.Param("id"), req.Token, c.Param("revisionId"), *req.IsSatisfied)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, revision)
}
