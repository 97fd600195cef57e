package services

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/models"
)

// DefaultMaxRevisions bounds the revision negotiation loop per review
const DefaultMaxRevisions = 2

// ReviewService runs the approval/revision workflow nested inside the
// in_progress -> in_review edge of the order lifecycle. The artisan side is
// ownership-authenticated; the customer side acts through the review's bearer
// token without an account.
type ReviewService struct {
	db      *gorm.DB
	baseURL string
	orders  *OrderService
}

// NewReviewService creates a ReviewService. baseURL is the public frontend
// origin the customer review links point at.
func NewReviewService(db *gorm.DB, baseURL string) *ReviewService {
	return &ReviewService{db: db, baseURL: baseURL, orders: NewOrderService(db)}
}

// CreateReviewInput carries the finished-piece images the artisan uploads
type CreateReviewInput struct {
	OrderID      string
	Images       []string
	Description  *string
	MaxRevisions int // 0 means the default of 2
}

// ReviewTokenPage is the sanitized payload served to the customer-facing
// review page. It exposes only what the customer needs; contact and money
// fields stay private.
type ReviewTokenPage struct {
	CharacterName string                  `json:"character_name"`
	SourceWork    *string                 `json:"source_work"`
	Images        []string                `json:"images"`
	Description   *string                 `json:"description"`
	RevisionCount int                     `json:"revision_count"`
	MaxRevisions  int                     `json:"max_revisions"`
	IsApproved    *bool                   `json:"is_approved"`
	ApprovedAt    *time.Time              `json:"approved_at"`
	Revisions     []models.ReviewRevision `json:"revisions"`
}

// CreateReview opens the approval gate for an order in production: it stores
// the finished-piece images, mints the customer access token and flips the
// order to in_review. An order gets at most one review, enforced both here
// and by the unique index on reviews.order_id.
func (s *ReviewService) CreateReview(userID string, input CreateReviewInput) (*models.Review, error) {
	order, err := s.orders.findOwnedOrder(userID, input.OrderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusInProgress {
		return nil, NewDomainError(ErrInvalidState,
			fmt.Sprintf("review can only be created while in_progress, order is %s", order.Status))
	}

	maxRevisions := input.MaxRevisions
	if maxRevisions <= 0 {
		maxRevisions = DefaultMaxRevisions
	}

	token, err := generateReviewToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate review token: %w", err)
	}

	review := models.Review{
		ID:           uuid.NewString(),
		OrderID:      order.ID,
		Images:       datatypes.NewJSONSlice(input.Images),
		Description:  input.Description,
		ReviewToken:  token,
		ReviewURL:    fmt.Sprintf("%s/review/%s", s.baseURL, token),
		MaxRevisions: maxRevisions,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Review{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check for existing review: %w", err)
		}
		if count > 0 {
			return NewDomainError(ErrDuplicateReview, "order already has a review")
		}

		if err := tx.Create(&review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}

		result := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, models.StatusInProgress).
			Update("status", models.StatusInReview)
		if result.Error != nil {
			return fmt.Errorf("failed to move order into review: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return NewDomainError(ErrInvalidState, "order status changed concurrently, re-read and retry")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":  order.ID,
		"review_id": review.ID,
	}).Info("review created")

	return &review, nil
}

// GetReview fetches a review with its revision history for the owning artisan
func (s *ReviewService) GetReview(userID, reviewID string) (*models.Review, []models.ReviewRevision, error) {
	review, err := s.findReview(reviewID)
	if err != nil {
		return nil, nil, err
	}

	if _, err := s.orders.findOwnedOrder(userID, review.OrderID); err != nil {
		return nil, nil, err
	}

	revisions, err := s.revisionsFor(review.ID)
	if err != nil {
		return nil, nil, err
	}

	return review, revisions, nil
}

// GetReviewByOrder fetches the order's review with its revision history, or
// nil if none was created yet
func (s *ReviewService) GetReviewByOrder(userID, orderID string) (*models.Review, []models.ReviewRevision, error) {
	if _, err := s.orders.findOwnedOrder(userID, orderID); err != nil {
		return nil, nil, err
	}

	var review models.Review
	if err := s.db.First(&review, "order_id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to load review: %w", err)
	}

	revisions, err := s.revisionsFor(review.ID)
	if err != nil {
		return nil, nil, err
	}

	return &review, revisions, nil
}

// GetReviewByToken resolves the customer review page payload from an access
// token. The token is the only credential.
func (s *ReviewService) GetReviewByToken(token string) (*ReviewTokenPage, error) {
	var review models.Review
	if err := s.db.First(&review, "review_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainError(ErrNotFound, "review link is invalid or expired")
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}

	var order models.Order
	if err := s.db.First(&order, "id = ?", review.OrderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load order for review: %w", err)
	}

	revisions, err := s.revisionsFor(review.ID)
	if err != nil {
		return nil, err
	}

	return &ReviewTokenPage{
		CharacterName: order.CharacterName,
		SourceWork:    order.SourceWork,
		Images:        review.Images,
		Description:   review.Description,
		RevisionCount: review.RevisionCount,
		MaxRevisions:  review.MaxRevisions,
		IsApproved:    review.IsApproved,
		ApprovedAt:    review.ApprovedAt,
		Revisions:     revisions,
	}, nil
}

// Approve records the customer's acceptance of the finished piece and moves
// the owning order to pending_balance. Approval is terminal for the review:
// it cannot be repeated and no further revisions may be requested.
func (s *ReviewService) Approve(reviewID, token string) (*models.Review, error) {
	review, err := s.findReview(reviewID)
	if err != nil {
		return nil, err
	}

	if !tokenMatches(review.ReviewToken, token) {
		return nil, NewDomainError(ErrAuthFailed, "review token does not match")
	}

	if review.IsApproved != nil && *review.IsApproved {
		return nil, NewDomainError(ErrAlreadyApproved, "review is already approved")
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Conditional write so two concurrent approvals cannot both win
		result := tx.Model(&models.Review{}).
			Where("id = ? AND (is_approved IS NULL OR is_approved = ?)", review.ID, false).
			Updates(map[string]interface{}{
				"is_approved": true,
				"approved_at": now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to approve review: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return NewDomainError(ErrAlreadyApproved, "review is already approved")
		}

		orderResult := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", review.OrderID, models.StatusInReview).
			Update("status", models.StatusPendingBalance)
		if orderResult.Error != nil {
			return fmt.Errorf("failed to move order to pending_balance: %w", orderResult.Error)
		}
		if orderResult.RowsAffected == 0 {
			logrus.WithField("order_id", review.OrderID).
				Warn("approved review for an order no longer in_review")
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"review_id": review.ID,
		"order_id":  review.OrderID,
	}).Info("review approved")

	return s.findReview(review.ID)
}

// RequestRevision opens a new revision round for the customer. Rounds are
// bounded by the review's max_revisions and serialized: a new request is
// refused while an earlier one is still unanswered. Returns the created
// revision and how many rounds remain afterwards.
func (s *ReviewService) RequestRevision(reviewID, token, content string, images []string) (*models.ReviewRevision, int, error) {
	review, err := s.findReview(reviewID)
	if err != nil {
		return nil, 0, err
	}

	if !tokenMatches(review.ReviewToken, token) {
		return nil, 0, NewDomainError(ErrAuthFailed, "review token does not match")
	}

	if review.IsApproved != nil && *review.IsApproved {
		return nil, 0, NewDomainError(ErrAlreadyApproved, "review is already approved, no further revisions")
	}

	if review.RevisionCount >= review.MaxRevisions {
		return nil, 0, &DomainError{
			Kind:    ErrRevisionLimit,
			Message: fmt.Sprintf("revision limit of %d reached", review.MaxRevisions),
			Details: map[string]interface{}{"remaining": 0},
		}
	}

	revision := models.ReviewRevision{
		ID:             uuid.NewString(),
		ReviewID:       review.ID,
		RevisionNumber: review.RevisionCount + 1,
		RequestContent: content,
		RequestImages:  datatypes.NewJSONSlice(images),
		RequestedAt:    time.Now(),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&models.ReviewRevision{}).
			Where("review_id = ? AND completed_at IS NULL", review.ID).
			Count(&pending).Error; err != nil {
			return fmt.Errorf("failed to check for pending revision: %w", err)
		}
		if pending > 0 {
			return NewDomainError(ErrPendingRevision, "previous revision request is still being worked on")
		}

		// Conditional increment keyed on the count we read: a concurrent
		// request bumps the count first and this one fails cleanly
		result := tx.Model(&models.Review{}).
			Where("id = ? AND revision_count = ?", review.ID, review.RevisionCount).
			Update("revision_count", review.RevisionCount+1)
		if result.Error != nil {
			return fmt.Errorf("failed to increment revision count: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return NewDomainError(ErrPendingRevision, "a concurrent revision request was accepted first")
		}

		if err := tx.Create(&revision).Error; err != nil {
			return fmt.Errorf("failed to create revision: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	remaining := review.MaxRevisions - revision.RevisionNumber
	if remaining < 0 {
		remaining = 0
	}

	logrus.WithFields(logrus.Fields{
		"review_id":       review.ID,
		"revision_number": revision.RevisionNumber,
		"remaining":       remaining,
	}).Info("revision requested")

	return &revision, remaining, nil
}

// SubmitRevisionResponse records the artisan's answer to a revision request
// and syncs the review's images so the review page always shows the latest
// state of the piece.
func (s *ReviewService) SubmitRevisionResponse(userID, reviewID, revisionID string, images []string, notes *string) (*models.ReviewRevision, error) {
	review, err := s.findReview(reviewID)
	if err != nil {
		return nil, err
	}

	if _, err := s.orders.findOwnedOrder(userID, review.OrderID); err != nil {
		return nil, err
	}

	var revision models.ReviewRevision
	if err := s.db.First(&revision, "id = ?", revisionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainError(ErrNotFound, "revision not found")
		}
		return nil, fmt.Errorf("failed to load revision: %w", err)
	}
	if revision.ReviewID != review.ID {
		return nil, NewDomainError(ErrNotFound, "revision not found")
	}

	if revision.CompletedAt != nil {
		return nil, NewDomainError(ErrAlreadyCompleted, "revision request is already answered")
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.ReviewRevision{}).
			Where("id = ? AND completed_at IS NULL", revision.ID).
			Updates(map[string]interface{}{
				"response_images": datatypes.NewJSONSlice(images),
				"response_notes":  notes,
				"completed_at":    now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to submit revision response: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return NewDomainError(ErrAlreadyCompleted, "revision request is already answered")
		}

		if err := tx.Model(&models.Review{}).
			Where("id = ?", review.ID).
			Update("images", datatypes.NewJSONSlice(images)).Error; err != nil {
			return fmt.Errorf("failed to sync review images: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	var updated models.ReviewRevision
	if err := s.db.First(&updated, "id = ?", revision.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload revision: %w", err)
	}
	return &updated, nil
}

// ConfirmSatisfaction records the customer's optional verdict on an answered
// revision. It is independent of Approve.
func (s *ReviewService) ConfirmSatisfaction(reviewID, token, revisionID string, satisfied bool) (*models.ReviewRevision, error) {
	review, err := s.findReview(reviewID)
	if err != nil {
		return nil, err
	}

	if !tokenMatches(review.ReviewToken, token) {
		return nil, NewDomainError(ErrAuthFailed, "review token does not match")
	}

	var revision models.ReviewRevision
	if err := s.db.First(&revision, "id = ?", revisionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainError(ErrNotFound, "revision not found")
		}
		return nil, fmt.Errorf("failed to load revision: %w", err)
	}
	if revision.ReviewID != review.ID {
		return nil, NewDomainError(ErrNotFound, "revision not found")
	}

	if revision.CompletedAt == nil {
		return nil, NewDomainError(ErrInvalidState, "revision has no response to confirm yet")
	}

	now := time.Now()
	if err := s.db.Model(&models.ReviewRevision{}).
		Where("id = ?", revision.ID).
		Updates(map[string]interface{}{
			"is_satisfied": satisfied,
			"confirmed_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to confirm satisfaction: %w", err)
	}

	var updated models.ReviewRevision
	if err := s.db.First(&updated, "id = ?", revision.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload revision: %w", err)
	}
	return &updated, nil
}

func (s *ReviewService) findReview(reviewID string) (*models.Review, error) {
	var review models.Review
	if err := s.db.First(&review, "id = ?", reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainError(ErrNotFound, "review not found")
		}
		return nil, fmt.Errorf("failed to load review: %w", err)
	}
	return &review, nil
}

func (s *ReviewService) revisionsFor(reviewID string) ([]models.ReviewRevision, error) {
	var revisions []models.ReviewRevision
	if err := s.db.
		Where("review_id = ?", reviewID).
		Order("revision_number ASC").
		Find(&revisions).Error; err != nil {
		return nil, fmt.Errorf("failed to load revisions: %w", err)
	}
	return revisions, nil
}

// generateReviewToken mints a 128-bit random token, hex encoded
func generateReviewToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// tokenMatches compares tokens in constant time; the token is a bearer
// credential
func tokenMatches(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}
