package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/models"
)

func setupReviewTest(t *testing.T) (*gorm.DB, *models.User, *OrderService, *ReviewService) {
	t.Helper()

	db := setupTestDB(t)
	artisan := createTestArtisan(t, db, "mei")
	orders := NewOrderService(db)
	reviews := NewReviewService(db, "https://wigworks.example.com")

	return db, artisan, orders, reviews
}

func createReviewedOrder(t *testing.T, db *gorm.DB, artisan *models.User, reviews *ReviewService) (*models.Order, *models.Review) {
	t.Helper()

	order := createOrderInStatus(t, db, artisan.ID, models.StatusInProgress)
	review, err := reviews.CreateReview(artisan.ID, CreateReviewInput{
		OrderID: order.ID,
		Images:  []string{"uploads/finished-front.png", "uploads/finished-back.png"},
	})
	if err != nil {
		t.Fatalf("Failed to create review: %v", err)
	}
	return order, review
}

func TestCreateReview_MovesOrderToInReview(t *testing.T) {
	db, artisan, orders, reviews := setupReviewTest(t)

	order, review := createReviewedOrder(t, db, artisan, reviews)

	assert.Equal(t, order.ID, review.OrderID)
	assert.Len(t, review.ReviewToken, 32, "token is 16 random bytes hex encoded")
	assert.Contains(t, review.ReviewURL, review.ReviewToken)
	assert.Equal(t, DefaultMaxRevisions, review.MaxRevisions)
	assert.Equal(t, 0, review.RevisionCount)

	reloaded, err := orders.GetOrder(artisan.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInReview, reloaded.Status)
}

func TestCreateReview_RequiresInProgress(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	order := createOrderInStatus(t, db, artisan.ID, models.StatusQueued)
	_, err := reviews.CreateReview(artisan.ID, CreateReviewInput{OrderID: order.ID})
	requireDomainError(t, err, ErrInvalidState)
}

func TestCreateReview_OnePerOrder(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	order, _ := createReviewedOrder(t, db, artisan, reviews)

	// Re-seed in_progress to isolate the duplicate check from the status check
	require.NoError(t, db.Model(&models.Order{}).
		Where("id = ?", order.ID).
		Update("status", models.StatusInProgress).Error)

	_, err := reviews.CreateReview(artisan.ID, CreateReviewInput{OrderID: order.ID})
	requireDomainError(t, err, ErrDuplicateReview)
}

func TestCreateReview_CustomMaxRevisions(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	order := createOrderInStatus(t, db, artisan.ID, models.StatusInProgress)
	review, err := reviews.CreateReview(artisan.ID, CreateReviewInput{
		OrderID:      order.ID,
		MaxRevisions: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, review.MaxRevisions)
}

func TestGetReviewByOrder_NilWhenNoneExists(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	order := createOrderInStatus(t, db, artisan.ID, models.StatusInProgress)
	review, revisions, err := reviews.GetReviewByOrder(artisan.ID, order.ID)
	require.NoError(t, err)
	assert.Nil(t, review)
	assert.Nil(t, revisions)
}

func TestGetReviewByToken_SanitizedPayload(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	_, review := createReviewedOrder(t, db, artisan, reviews)

	page, err := reviews.GetReviewByToken(review.ReviewToken)
	require.NoError(t, err)
	assert.Equal(t, "Frieren", page.CharacterName)
	assert.Equal(t, []string{"uploads/finished-front.png", "uploads/finished-back.png"}, page.Images)
	assert.Equal(t, DefaultMaxRevisions, page.MaxRevisions)
	assert.Nil(t, page.IsApproved)

	_, err = reviews.GetReviewByToken("not-a-real-token")
	requireDomainError(t, err, ErrNotFound)
}

func TestApprove_MovesOrderToPendingBalance(t *testing.T) {
	db, artisan, orders, reviews := setupReviewTest(t)

	order, review := createReviewedOrder(t, db, artisan, reviews)

	approved, err := reviews.Approve(review.ID, review.ReviewToken)
	require.NoError(t, err)
	require.NotNil(t, approved.IsApproved)
	assert.True(t, *approved.IsApproved)
	assert.NotNil(t, approved.ApprovedAt)

	reloaded, err := orders.GetOrder(artisan.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingBalance, reloaded.Status)
}

func TestApprove_RejectsWrongToken(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	_, review := createReviewedOrder(t, db, artisan, reviews)

	_, err := reviews.Approve(review.ID, "wrong-token")
	requireDomainError(t, err, ErrAuthFailed)
}

func TestApprove_Idempotency(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	_, review := createReviewedOrder(t, db, artisan, reviews)

	_, err := reviews.Approve(review.ID, review.ReviewToken)
	require.NoError(t, err)

	_, err = reviews.Approve(review.ID, review.ReviewToken)
	requireDomainError(t, err, ErrAlreadyApproved)
}

func TestRequestRevision_BoundedAndSerialized(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	_, review := createReviewedOrder(t, db, artisan, reviews)

	revision, remaining, err := reviews.RequestRevision(review.ID, review.ReviewToken,
		"please shorten the bangs", []string{"uploads/bangs-markup.png"})
	require.NoError(t, err)
	assert.Equal(t, 1, revision.RevisionNumber)
	assert.Equal(t, 1, remaining)

	// Second request while the first is unanswered
	_, _, err = reviews.RequestRevision(review.ID, review.ReviewToken, "also the color", nil)
	requireDomainError(t, err, ErrPendingRevision)

	_, err = reviews.SubmitRevisionResponse(artisan.ID, review.ID, revision.ID,
		[]string{"uploads/bangs-fixed.png"}, strPtr("trimmed 3cm"))
	require.NoError(t, err)

	revision2, remaining, err := reviews.RequestRevision(review.ID, review.ReviewToken, "also the color", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, revision2.RevisionNumber)
	assert.Equal(t, 0, remaining)

	_, err = reviews.SubmitRevisionResponse(artisan.ID, review.ID, revision2.ID,
		[]string{"uploads/color-fixed.png"}, nil)
	require.NoError(t, err)

	// Limit reached
	_, _, err = reviews.RequestRevision(review.ID, review.ReviewToken, "one more thing", nil)
	domainErr := requireDomainError(t, err, ErrRevisionLimit)
	assert.Equal(t, 0, domainErr.Details["remaining"])
}

func TestRequestRevision_RefusedAfterApproval(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	_, review := createReviewedOrder(t, db, artisan, reviews)

	_, err := reviews.Approve(review.ID, review.ReviewToken)
	require.NoError(t, err)

	_, _, err = reviews.RequestRevision(review.ID, review.ReviewToken, "too late", nil)
	requireDomainError(t, err, ErrAlreadyApproved)
}

func TestSubmitRevisionResponse_SyncsReviewImages(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	_, review := createReviewedOrder(t, db, artisan, reviews)

	revision, _, err := reviews.RequestRevision(review.ID, review.ReviewToken, "shorten the bangs", nil)
	require.NoError(t, err)

	updated, err := reviews.SubmitRevisionResponse(artisan.ID, review.ID, revision.ID,
		[]string{"uploads/v2-front.png"}, strPtr("done"))
	require.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, []string{"uploads/v2-front.png"}, []string(updated.ResponseImages))

	page, err := reviews.GetReviewByToken(review.ReviewToken)
	require.NoError(t, err)
	assert.Equal(t, []string{"uploads/v2-front.png"}, page.Images,
		"review page shows the latest state of the piece")

	// Answering twice is refused
	_, err = reviews.SubmitRevisionResponse(artisan.ID, review.ID, revision.ID,
		[]string{"uploads/v3.png"}, nil)
	requireDomainError(t, err, ErrAlreadyCompleted)
}

func TestSubmitRevisionResponse_RevisionMustBelongToReview(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	_, review := createReviewedOrder(t, db, artisan, reviews)
	otherOrder := createOrderInStatus(t, db, artisan.ID, models.StatusInProgress)
	otherReview, err := reviews.CreateReview(artisan.ID, CreateReviewInput{OrderID: otherOrder.ID})
	require.NoError(t, err)

	revision, _, err := reviews.RequestRevision(otherReview.ID, otherReview.ReviewToken, "fix it", nil)
	require.NoError(t, err)

	_, err = reviews.SubmitRevisionResponse(artisan.ID, review.ID, revision.ID, nil, nil)
	requireDomainError(t, err, ErrNotFound)
}

func TestConfirmSatisfaction(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)

	_, review := createReviewedOrder(t, db, artisan, reviews)

	revision, _, err := reviews.RequestRevision(review.ID, review.ReviewToken, "shorten the bangs", nil)
	require.NoError(t, err)

	// No response to confirm yet
	_, err = reviews.ConfirmSatisfaction(review.ID, review.ReviewToken, revision.ID, true)
	requireDomainError(t, err, ErrInvalidState)

	_, err = reviews.SubmitRevisionResponse(artisan.ID, review.ID, revision.ID,
		[]string{"uploads/v2.png"}, nil)
	require.NoError(t, err)

	confirmed, err := reviews.ConfirmSatisfaction(review.ID, review.ReviewToken, revision.ID, true)
	require.NoError(t, err)
	require.NotNil(t, confirmed.IsSatisfied)
	assert.True(t, *confirmed.IsSatisfied)
	assert.NotNil(t, confirmed.ConfirmedAt)

	_, err = reviews.ConfirmSatisfaction(review.ID, "wrong-token", revision.ID, true)
	requireDomainError(t, err, ErrAuthFailed)
}

func TestGetReview_OwnershipEnforced(t *testing.T) {
	db, artisan, _, reviews := setupReviewTest(t)
	other := createTestArtisan(t, db, "rin")

	_, review := createReviewedOrder(t, db, artisan, reviews)

	_, _, err := reviews.GetReview(other.ID, review.ID)
	requireDomainError(t, err, ErrForbidden)

	_, _, err = reviews.GetReview(artisan.ID, "no-such-review")
	requireDomainError(t, err, ErrNotFound)
}

// TestFullLifecycle walks one order through the entire happy path: quote,
// deposit, wig base, production, review with one revision round, approval,
// balance, shipping and completion.
func TestFullLifecycle(t *testing.T) {
	_, artisan, orders, reviews := setupReviewTest(t)

	order, err := orders.CreateOrder(artisan.ID, CreateOrderInput{
		CharacterName: "Frieren",
		SourceWork:    strPtr("Sousou no Frieren"),
		WigSource:     models.WigSourceClientSends,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingQuote, order.Status)

	order, err = orders.UpdateOrder(artisan.ID, order.ID, UpdateOrderInput{Price: dec("500")})
	require.NoError(t, err)
	require.True(t, order.Deposit.Equal(*dec("100")))
	require.True(t, order.Balance.Equal(*dec("400")))

	order, err = orders.SetStatus(artisan.ID, order.ID, models.StatusPendingDeposit)
	require.NoError(t, err)

	order, err = orders.ConfirmDeposit(artisan.ID, order.ID, strPtr("uploads/deposit.png"))
	require.NoError(t, err)
	require.Equal(t, models.StatusAwaitingWigBase, order.Status)

	order, err = orders.ConfirmWigReceived(artisan.ID, order.ID, strPtr("SF123"))
	require.NoError(t, err)
	require.Equal(t, models.StatusQueued, order.Status)

	order, err = orders.SetStatus(artisan.ID, order.ID, models.StatusInProgress)
	require.NoError(t, err)

	review, err := reviews.CreateReview(artisan.ID, CreateReviewInput{
		OrderID: order.ID,
		Images:  []string{"uploads/finished.png"},
	})
	require.NoError(t, err)

	order, err = orders.GetOrder(artisan.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusInReview, order.Status)

	revision, remaining, err := reviews.RequestRevision(review.ID, review.ReviewToken,
		"bangs a touch shorter please", nil)
	require.NoError(t, err)
	require.Equal(t, 1, remaining)

	_, err = reviews.SubmitRevisionResponse(artisan.ID, review.ID, revision.ID,
		[]string{"uploads/finished-v2.png"}, strPtr("trimmed"))
	require.NoError(t, err)

	_, err = reviews.ConfirmSatisfaction(review.ID, review.ReviewToken, revision.ID, true)
	require.NoError(t, err)

	_, err = reviews.Approve(review.ID, review.ReviewToken)
	require.NoError(t, err)

	order, err = orders.GetOrder(artisan.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPendingBalance, order.Status)

	order, err = orders.ConfirmBalance(artisan.ID, order.ID, strPtr("uploads/balance.png"))
	require.NoError(t, err)

	order, err = orders.Ship(artisan.ID, order.ID, ShipOrderInput{
		ShippingCompany: strPtr("SF Express"),
		ShippingNo:      strPtr("SF456"),
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusShipped, order.Status)

	order, err = orders.Complete(artisan.ID, order.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusCompleted, order.Status)
}
