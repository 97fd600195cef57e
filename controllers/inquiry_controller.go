package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/models"
	"github.com/wigworks/wig-atelier-api/services"
)

// InquiryController exposes inquiry intake and handling over HTTP. Submission
// is public (customers have no accounts); everything else is
// artisan-authenticated.
type InquiryController struct {
	db        *gorm.DB
	inquiries *services.InquiryService
}

// NewInquiryController creates an InquiryController with its dependencies
func NewInquiryController(db *gorm.DB, inquiries *services.InquiryService) *InquiryController {
	return &InquiryController{db: db, inquiries: inquiries}
}

// CreateInquiryRequest represents the public inquiry submission body
type CreateInquiryRequest struct {
	UserSlug          string   `json:"user_slug" binding:"required"`
	CustomerName      *string  `json:"customer_name"`
	CustomerContact   *string  `json:"customer_contact"`
	CharacterName     string   `json:"character_name" binding:"required"`
	SourceWork        *string  `json:"source_work"`
	ExpectedDeadline  *string  `json:"expected_deadline"` // YYYY-MM-DD
	HeadCircumference *string  `json:"head_circumference"`
	BudgetRange       *string  `json:"budget_range"`
	ReferenceImages   []string `json:"reference_images"`
	Requirements      *string  `json:"requirements"`
}

// ConvertInquiryRequest represents the artisan's quote when converting an
// inquiry into an order
type ConvertInquiryRequest struct {
	Price    *decimal.Decimal `json:"price"`
	Deposit  *decimal.Decimal `json:"deposit"`
	Deadline *string          `json:"deadline"` // YYYY-MM-DD
}

// CreateInquiry handles POST /api/v1/inquiries - public, no authentication
func (ctrl *InquiryController) CreateInquiry(c *gin.Context) {
	var req CreateInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Artisan slug and character name are required")
		return
	}

	deadline, ok := parseDeadline(req.ExpectedDeadline)
	if !ok {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "expected_deadline must be YYYY-MM-DD")
		return
	}

	inquiry, err := ctrl.inquiries.CreateInquiry(services.CreateInquiryInput{
		UserSlug:          req.UserSlug,
		CustomerName:      req.CustomerName,
		CustomerContact:   req.CustomerContact,
		CharacterName:     req.CharacterName,
		SourceWork:        req.SourceWork,
		ExpectedDeadline:  deadline,
		HeadCircumference: req.HeadCircumference,
		BudgetRange:       req.BudgetRange,
		ReferenceImages:   req.ReferenceImages,
		Requirements:      req.Requirements,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"id": inquiry.ID})
}

// ListInquiries handles GET /api/v1/inquiries
func (ctrl *InquiryController) ListInquiries(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	status := c.Query("status")
	switch status {
	case "", models.InquiryStatusNew, models.InquiryStatusConverted, models.InquiryStatusRejected:
	default:
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown inquiry status")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	inquiries, total, err := ctrl.inquiries.ListInquiries(user.ID, status, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"list": inquiries,
		"pagination": gin.H{
			"page":  page,
			"limit": limit,
			"total": total,
		},
	})
}

// GetInquiry handles GET /api/v1/inquiries/:id
func (ctrl *InquiryController) GetInquiry(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	inquiry, err := ctrl.inquiries.GetInquiry(user.ID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, inquiry)
}

// ConvertInquiry handles POST /api/v1/inquiries/:id/convert
func (ctrl *InquiryController) ConvertInquiry(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	var req ConvertInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request data")
		return
	}

	deadline, valid := parseDeadline(req.Deadline)
	if !valid {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "deadline must be YYYY-MM-DD")
		return
	}

	order, err := ctrl.inquiries.ConvertInquiry(user.ID, c.Param("id"), services.ConvertInquiryInput{
		Price:    req.Price,
		Deposit:  req.Deposit,
		Deadline: deadline,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, order)
}

// RejectInquiry handles PUT /api/v1/inquiries/:id/reject
func (ctrl *InquiryController) RejectInquiry(c *gin.Context) {
	user, ok := resolveArtisan(c, ctrl.db)
	if !ok {
		return
	}

	inquiry, err := ctrl.inquiries.RejectInquiry(user.ID, c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondOK(c, http.StatusOK, inquiry)
}
