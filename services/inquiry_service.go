package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/models"
)

// InquiryService handles the public inquiry intake and its conversion into
// orders. Inquiries are submitted without an account against an artisan's
// public slug; the artisan converts or rejects them.
type InquiryService struct {
	db     *gorm.DB
	orders *OrderService
}

// NewInquiryService creates an InquiryService on an explicit database handle
func NewInquiryService(db *gorm.DB) *InquiryService {
	return &InquiryService{db: db, orders: NewOrderService(db)}
}

// CreateInquiryInput is the customer-submitted commission request
type CreateInquiryInput struct {
	UserSlug          string
	CustomerName      *string
	CustomerContact   *string
	CharacterName     string
	SourceWork        *string
	ExpectedDeadline  *datatypes.Date
	HeadCircumference *string
	BudgetRange       *string
	ReferenceImages   []string
	Requirements      *string
}

// ConvertInquiryInput carries the quote the artisan attaches when turning an
// inquiry into an order
type ConvertInquiryInput struct {
	Price    *decimal.Decimal
	Deposit  *decimal.Decimal
	Deadline *datatypes.Date
}

// CreateInquiry stores a customer's inquiry for the artisan named by slug
func (s *InquiryService) CreateInquiry(input CreateInquiryInput) (*models.Inquiry, error) {
	var artisan models.User
	if err := s.db.First(&artisan, "slug = ?", input.UserSlug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainError(ErrNotFound, "artisan not found")
		}
		return nil, fmt.Errorf("failed to look up artisan: %w", err)
	}

	inquiry := models.Inquiry{
		ID:                uuid.NewString(),
		UserID:            artisan.ID,
		CustomerName:      input.CustomerName,
		CustomerContact:   input.CustomerContact,
		CharacterName:     input.CharacterName,
		SourceWork:        input.SourceWork,
		ExpectedDeadline:  input.ExpectedDeadline,
		HeadCircumference: input.HeadCircumference,
		BudgetRange:       input.BudgetRange,
		ReferenceImages:   datatypes.NewJSONSlice(input.ReferenceImages),
		Requirements:      input.Requirements,
		Status:            models.InquiryStatusNew,
	}

	if err := s.db.Create(&inquiry).Error; err != nil {
		return nil, fmt.Errorf("failed to create inquiry: %w", err)
	}

	logrus.WithField("inquiry_id", inquiry.ID).Info("inquiry submitted")

	return &inquiry, nil
}

// GetInquiry fetches an inquiry owned by the artisan
func (s *InquiryService) GetInquiry(userID, inquiryID string) (*models.Inquiry, error) {
	return s.findOwnedInquiry(userID, inquiryID)
}

// ListInquiries returns the artisan's inquiries, newest first, optionally
// filtered by status, along with the total matching count
func (s *InquiryService) ListInquiries(userID, status string, page, limit int) ([]models.Inquiry, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Inquiry{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count inquiries: %w", err)
	}

	var inquiries []models.Inquiry
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&inquiries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list inquiries: %w", err)
	}

	return inquiries, total, nil
}

// ConvertInquiry turns a new inquiry into an order carrying the inquiry's
// details plus the artisan's quote, and marks the inquiry converted. An
// inquiry converts at most once.
func (s *InquiryService) ConvertInquiry(userID, inquiryID string, input ConvertInquiryInput) (*models.Order, error) {
	inquiry, err := s.findOwnedInquiry(userID, inquiryID)
	if err != nil {
		return nil, err
	}

	if inquiry.Status != models.InquiryStatusNew {
		return nil, NewDomainError(ErrInvalidState, "inquiry has already been handled")
	}

	deadline := input.Deadline
	if deadline == nil {
		deadline = inquiry.ExpectedDeadline
	}

	order, err := s.orders.CreateOrder(userID, CreateOrderInput{
		InquiryID:         &inquiry.ID,
		CustomerName:      inquiry.CustomerName,
		CustomerContact:   inquiry.CustomerContact,
		CharacterName:     inquiry.CharacterName,
		SourceWork:        inquiry.SourceWork,
		ReferenceImages:   inquiry.ReferenceImages,
		HeadCircumference: inquiry.HeadCircumference,
		Requirements:      inquiry.Requirements,
		Price:             input.Price,
		Deposit:           input.Deposit,
		Deadline:          deadline,
	})
	if err != nil {
		return nil, err
	}

	// Conditional on status=new so two concurrent converts cannot both
	// produce an order transition
	result := s.db.Model(&models.Inquiry{}).
		Where("id = ? AND status = ?", inquiry.ID, models.InquiryStatusNew).
		Update("status", models.InquiryStatusConverted)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to mark inquiry converted: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, NewDomainError(ErrInvalidState, "inquiry was handled concurrently")
	}

	logrus.WithFields(logrus.Fields{
		"inquiry_id": inquiry.ID,
		"order_id":   order.ID,
	}).Info("inquiry converted to order")

	return order, nil
}

// RejectInquiry marks a new inquiry rejected
func (s *InquiryService) RejectInquiry(userID, inquiryID string) (*models.Inquiry, error) {
	inquiry, err := s.findOwnedInquiry(userID, inquiryID)
	if err != nil {
		return nil, err
	}

	if inquiry.Status != models.InquiryStatusNew {
		return nil, NewDomainError(ErrInvalidState, "inquiry has already been handled")
	}

	result := s.db.Model(&models.Inquiry{}).
		Where("id = ? AND status = ?", inquiry.ID, models.InquiryStatusNew).
		Update("status", models.InquiryStatusRejected)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to reject inquiry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, NewDomainError(ErrInvalidState, "inquiry was handled concurrently")
	}

	return s.GetInquiry(userID, inquiryID)
}

func (s *InquiryService) findOwnedInquiry(userID, inquiryID string) (*models.Inquiry, error) {
	var inquiry models.Inquiry
	if err := s.db.First(&inquiry, "id = ?", inquiryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainError(ErrNotFound, "inquiry not found")
		}
		return nil, fmt.Errorf("failed to load inquiry: %w", err)
	}

	if inquiry.UserID != userID {
		return nil, NewDomainError(ErrForbidden, "inquiry belongs to another artisan")
	}

	return &inquiry, nil
}
