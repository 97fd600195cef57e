package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wigworks/wig-atelier-api/models"
)

// OrderService orchestrates the order lifecycle: it validates every status
// change against the transition table, derives the deposit/balance split on
// price changes, and applies the side effects (timestamps, proof references)
// each transition carries. All writes that move an order between statuses are
// conditional on the status the caller observed, so two concurrent calls
// cannot both transition the same order.
type OrderService struct {
	db *gorm.DB
}

// NewOrderService creates an OrderService on an explicit database handle
func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// CreateOrderInput enumerates the fields an order may be created with.
// Price without an explicit deposit triggers the 20/80 auto-split.
type CreateOrderInput struct {
	InquiryID         *string
	CustomerName      *string
	CustomerContact   *string
	CharacterName     string
	SourceWork        *string
	ReferenceImages   []string
	HeadCircumference *string
	HeadNotes         *string
	Requirements      *string
	WigSource         string
	Price             *decimal.Decimal
	Deposit           *decimal.Decimal
	Balance           *decimal.Decimal
	Deadline          *datatypes.Date
}

// UpdateOrderInput enumerates the fields an order update may change. Only
// non-nil fields are written; arbitrary column writes are not possible.
type UpdateOrderInput struct {
	CustomerName      *string
	CustomerContact   *string
	CharacterName     *string
	SourceWork        *string
	ReferenceImages   []string
	HeadCircumference *string
	HeadNotes         *string
	Requirements      *string
	ProductionNotes   *string
	Deadline          *datatypes.Date
	Price             *decimal.Decimal
	Deposit           *decimal.Decimal
	Balance           *decimal.Decimal
}

// ShipOrderInput carries the shipping details for Ship
type ShipOrderInput struct {
	ShippingCompany *string
	ShippingNo      *string
	Checklist       map[string]bool
}

// ListOrdersInput filters and paginates ListOrders
type ListOrdersInput struct {
	Status string
	Page   int
	Limit  int
}

// CreateOrder creates an order for an artisan. The initial status depends on
// whether a price is already agreed: with a price the order starts at
// pending_deposit, without one at pending_quote.
func (s *OrderService) CreateOrder(userID string, input CreateOrderInput) (*models.Order, error) {
	wigSource := input.WigSource
	if wigSource == "" {
		wigSource = models.WigSourceClientSends
	}
	if wigSource != models.WigSourceClientSends && wigSource != models.WigSourceStylistBuys {
		return nil, NewDomainError(ErrInvalidState, fmt.Sprintf("unknown wig source %q", wigSource))
	}

	deposit, balance := input.Deposit, input.Balance
	if input.Price != nil && deposit == nil {
		d, b := models.DeriveSplit(*input.Price)
		deposit, balance = &d, &b
	}

	status := models.StatusPendingQuote
	if input.Price != nil {
		status = models.StatusPendingDeposit
	}

	order := models.Order{
		ID:                uuid.NewString(),
		UserID:            userID,
		InquiryID:         input.InquiryID,
		CustomerName:      input.CustomerName,
		CustomerContact:   input.CustomerContact,
		CharacterName:     input.CharacterName,
		SourceWork:        input.SourceWork,
		ReferenceImages:   datatypes.NewJSONSlice(input.ReferenceImages),
		HeadCircumference: input.HeadCircumference,
		HeadNotes:         input.HeadNotes,
		Requirements:      input.Requirements,
		WigSource:         wigSource,
		Price:             input.Price,
		Deposit:           deposit,
		Balance:           balance,
		Deadline:          input.Deadline,
		Notes:             datatypes.NewJSONSlice([]models.OrderNote{}),
		Status:            status,
	}

	if err := s.db.Create(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"status":   order.Status,
	}).Info("order created")

	return &order, nil
}

// GetOrder fetches an order owned by the artisan
func (s *OrderService) GetOrder(userID, orderID string) (*models.Order, error) {
	return s.findOwnedOrder(userID, orderID)
}

// ListOrders returns the artisan's orders, newest first, optionally filtered
// by status, along with the total matching count
func (s *OrderService) ListOrders(userID string, input ListOrdersInput) ([]models.Order, int64, error) {
	page, limit := input.Page, input.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	query := s.db.Model(&models.Order{}).Where("user_id = ?", userID)
	if input.Status != "" {
		query = query.Where("status = ?", input.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []models.Order
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, total, nil
}

// CountByStatus returns per-status order totals for the artisan's dashboard
func (s *OrderService) CountByStatus(userID string) (*models.StatusCount, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := s.db.Model(&models.Order{}).
		Select("status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders by status: %w", err)
	}

	counts := models.StatusCount{}
	for _, row := range rows {
		switch row.Status {
		case models.StatusPendingQuote:
			counts.PendingQuote = row.Count
		case models.StatusPendingDeposit:
			counts.PendingDeposit = row.Count
		case models.StatusAwaitingWigBase:
			counts.AwaitingWigBase = row.Count
		case models.StatusQueued:
			counts.Queued = row.Count
		case models.StatusInProgress:
			counts.InProgress = row.Count
		case models.StatusInReview:
			counts.InReview = row.Count
		case models.StatusPendingBalance:
			counts.PendingBalance = row.Count
		case models.StatusShipped:
			counts.Shipped = row.Count
		case models.StatusCompleted:
			counts.Completed = row.Count
		}
		counts.Total += row.Count
	}

	return &counts, nil
}

// UpdateOrder writes the provided fields. A price change without an explicit
// deposit in the same call re-derives the 20/80 split; an explicit deposit is
// kept verbatim so quotes can override the default.
func (s *OrderService) UpdateOrder(userID, orderID string, input UpdateOrderInput) (*models.Order, error) {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.CustomerName != nil {
		updates["customer_name"] = *input.CustomerName
	}
	if input.CustomerContact != nil {
		updates["customer_contact"] = *input.CustomerContact
	}
	if input.CharacterName != nil {
		updates["character_name"] = *input.CharacterName
	}
	if input.SourceWork != nil {
		updates["source_work"] = *input.SourceWork
	}
	if input.ReferenceImages != nil {
		updates["reference_images"] = datatypes.NewJSONSlice(input.ReferenceImages)
	}
	if input.HeadCircumference != nil {
		updates["head_circumference"] = *input.HeadCircumference
	}
	if input.HeadNotes != nil {
		updates["head_notes"] = *input.HeadNotes
	}
	if input.Requirements != nil {
		updates["requirements"] = *input.Requirements
	}
	if input.ProductionNotes != nil {
		updates["production_notes"] = *input.ProductionNotes
	}
	if input.Deadline != nil {
		updates["deadline"] = *input.Deadline
	}

	price, deposit, balance := input.Price, input.Deposit, input.Balance
	if price != nil && deposit == nil {
		d, b := models.DeriveSplit(*price)
		deposit, balance = &d, &b
	}
	if price != nil {
		updates["price"] = *price
	}
	if deposit != nil {
		updates["deposit"] = *deposit
	}
	if balance != nil {
		updates["balance"] = *balance
	}

	if len(updates) == 0 {
		return order, nil
	}

	if err := s.db.Model(order).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	return s.reload(order.ID)
}

// SetStatus moves an order to a target status after checking the transition
// table. The write is conditional on the status the order was read at, so a
// concurrent transition makes this call fail rather than double-apply.
func (s *OrderService) SetStatus(userID, orderID, target string) (*models.Order, error) {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if !models.IsValidStatusTransition(order.Status, target) {
		return nil, NewDomainError(ErrIllegalTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, target))
	}

	if err := s.transition(order, map[string]interface{}{"status": target}); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": order.ID,
		"from":     order.Status,
		"to":       target,
	}).Info("order status changed")

	return s.reload(order.ID)
}

// ConfirmDeposit records the deposit payment and moves the order forward.
// Orders whose customer ships the wig base go to awaiting_wig_base; orders
// where the artisan buys it skip straight to queued.
func (s *OrderService) ConfirmDeposit(userID, orderID string, screenshot *string) (*models.Order, error) {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusPendingDeposit {
		return nil, NewDomainError(ErrInvalidState,
			fmt.Sprintf("deposit can only be confirmed while pending_deposit, order is %s", order.Status))
	}

	now := time.Now()
	next := models.NextStatusAfterDeposit(order.WigSource)
	if err := s.transition(order, map[string]interface{}{
		"status":             next,
		"deposit_paid_at":    now,
		"deposit_screenshot": screenshot,
	}); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id":   order.ID,
		"wig_source": order.WigSource,
		"next":       next,
	}).Info("deposit confirmed")

	return s.reload(order.ID)
}

// ConfirmWigReceived records that the customer's wig base arrived and queues
// the order
func (s *OrderService) ConfirmWigReceived(userID, orderID string, trackingNo *string) (*models.Order, error) {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusAwaitingWigBase {
		return nil, NewDomainError(ErrInvalidState,
			fmt.Sprintf("wig receipt can only be confirmed while awaiting_wig_base, order is %s", order.Status))
	}

	now := time.Now()
	if err := s.transition(order, map[string]interface{}{
		"status":          models.StatusQueued,
		"wig_received_at": now,
		"wig_tracking_no": trackingNo,
	}); err != nil {
		return nil, err
	}

	return s.reload(order.ID)
}

// ConfirmBalance records the balance payment. It deliberately does not change
// the order's status: shipping is a separate, explicit action so payment and
// fulfillment stay independently auditable.
func (s *OrderService) ConfirmBalance(userID, orderID string, screenshot *string) (*models.Order, error) {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusPendingBalance {
		return nil, NewDomainError(ErrInvalidState,
			fmt.Sprintf("balance can only be confirmed while pending_balance, order is %s", order.Status))
	}

	now := time.Now()
	if err := s.db.Model(order).Updates(map[string]interface{}{
		"balance_paid_at":    now,
		"balance_screenshot": screenshot,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to confirm balance: %w", err)
	}

	logrus.WithField("order_id", order.ID).Info("balance confirmed")

	return s.reload(order.ID)
}

// Ship records the shipping details and moves the order to shipped. Shipping
// an order whose balance has not been confirmed is refused no matter what
// status the order is in.
func (s *OrderService) Ship(userID, orderID string, input ShipOrderInput) (*models.Order, error) {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.BalancePaidAt == nil {
		return nil, NewDomainError(ErrBalanceNotConfirmed,
			"balance payment must be confirmed before shipping")
	}

	if order.Status != models.StatusPendingBalance {
		return nil, NewDomainError(ErrInvalidState,
			fmt.Sprintf("order can only be shipped while pending_balance, order is %s", order.Status))
	}

	now := time.Now()
	if err := s.transition(order, map[string]interface{}{
		"status":             models.StatusShipped,
		"shipping_company":   input.ShippingCompany,
		"shipping_no":        input.ShippingNo,
		"shipped_at":         now,
		"shipping_checklist": datatypes.NewJSONType(input.Checklist),
	}); err != nil {
		return nil, err
	}

	logrus.WithField("order_id", order.ID).Info("order shipped")

	return s.reload(order.ID)
}

// Complete moves a shipped order to its terminal state
func (s *OrderService) Complete(userID, orderID string) (*models.Order, error) {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status != models.StatusShipped {
		return nil, NewDomainError(ErrInvalidState,
			fmt.Sprintf("only shipped orders can be completed, order is %s", order.Status))
	}

	if err := s.transition(order, map[string]interface{}{"status": models.StatusCompleted}); err != nil {
		return nil, err
	}

	return s.reload(order.ID)
}

// AddNote appends a free-form note to the order. Notes never affect status.
func (s *OrderService) AddNote(userID, orderID, content string) (*models.Order, error) {
	order, err := s.findOwnedOrder(userID, orderID)
	if err != nil {
		return nil, err
	}

	notes := append([]models.OrderNote(order.Notes), models.OrderNote{
		ID:        uuid.NewString(),
		Content:   content,
		CreatedAt: time.Now(),
	})

	if err := s.db.Model(order).Update("notes", datatypes.NewJSONSlice(notes)).Error; err != nil {
		return nil, fmt.Errorf("failed to add note: %w", err)
	}

	return s.reload(order.ID)
}

// DeadlineAlerts returns the artisan's unfinished orders due within the next
// seven days, soonest first. Orders within three days are flagged red, the
// rest yellow.
func (s *OrderService) DeadlineAlerts(userID string) ([]models.DeadlineAlert, error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, models.DeadlineAlertWindowDays)

	var orders []models.Order
	if err := s.db.
		Where("user_id = ?", userID).
		Where("deadline IS NOT NULL").
		Where("deadline <= ?", cutoff).
		Where("status NOT IN ?", []string{models.StatusShipped, models.StatusCompleted}).
		Order("deadline ASC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to query deadline alerts: %w", err)
	}

	alerts := make([]models.DeadlineAlert, 0, len(orders))
	for _, order := range orders {
		deadline := time.Time(*order.Deadline)
		daysLeft := int(math.Ceil(deadline.Sub(now).Hours() / 24))

		level := "yellow"
		if daysLeft <= models.DeadlineAlertRedDays {
			level = "red"
		}

		alerts = append(alerts, models.DeadlineAlert{
			OrderID:       order.ID,
			CharacterName: order.CharacterName,
			SourceWork:    order.SourceWork,
			Deadline:      order.Deadline,
			Status:        order.Status,
			DaysLeft:      daysLeft,
			Level:         level,
		})
	}

	return alerts, nil
}

// findOwnedOrder fetches an order and verifies the artisan owns it
func (s *OrderService) findOwnedOrder(userID, orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewDomainError(ErrNotFound, "order not found")
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	if order.UserID != userID {
		return nil, NewDomainError(ErrForbidden, "order belongs to another artisan")
	}

	return &order, nil
}

// transition applies updates conditionally on the status the order was read
// at. If another request already moved the order, no rows match and the
// caller gets an INVALID_STATE error instead of a double transition.
func (s *OrderService) transition(order *models.Order, updates map[string]interface{}) error {
	result := s.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, order.Status).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update order status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return NewDomainError(ErrInvalidState, "order status changed concurrently, re-read and retry")
	}
	return nil
}

// reload fetches the current persisted state of an order
func (s *OrderService) reload(orderID string) (*models.Order, error) {
	var order models.Order
	if err := s.db.First(&order, "id = ?", orderID).Error; err != nil {
		return nil, fmt.Errorf("failed to reload order: %w", err)
	}
	return &order, nil
}
