package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderNote is a single free-form note on an order, stored as part of the
// order's notes JSON column
type OrderNote struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Order represents a wig commission from quoting through shipping
type Order struct {
	ID        string  `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string  `gorm:"not null;index;type:varchar(36)" json:"user_id"` // owning artisan
	User      User    `gorm:"foreignKey:UserID" json:"-"`
	InquiryID *string `gorm:"index;type:varchar(36)" json:"inquiry_id,omitempty"` // set when converted from an inquiry

	CustomerName    *string `json:"customer_name"`
	CustomerContact *string `json:"customer_contact"`

	CharacterName     string                      `gorm:"not null" json:"character_name"`
	SourceWork        *string                     `json:"source_work"`
	ReferenceImages   datatypes.JSONSlice[string] `json:"reference_images"`
	HeadCircumference *string                     `json:"head_circumference"`
	HeadNotes         *string                     `json:"head_notes"`
	Requirements      *string                     `json:"requirements"`
	ProductionNotes   *string                     `json:"production_notes"`

	WigSource string `gorm:"not null;default:'client_sends'" json:"wig_source"` // client_sends or stylist_buys

	Price   *decimal.Decimal `gorm:"type:decimal(10,2)" json:"price"`
	Deposit *decimal.Decimal `gorm:"type:decimal(10,2)" json:"deposit"`
	Balance *decimal.Decimal `gorm:"type:decimal(10,2)" json:"balance"`

	DepositPaidAt     *time.Time `json:"deposit_paid_at"`
	DepositScreenshot *string    `json:"deposit_screenshot"` // S3 key of the payment proof
	BalancePaidAt     *time.Time `json:"balance_paid_at"`
	BalanceScreenshot *string    `json:"balance_screenshot"`

	WigReceivedAt *time.Time `json:"wig_received_at"`
	WigTrackingNo *string    `json:"wig_tracking_no"`

	Deadline *datatypes.Date `json:"deadline"`

	ShippingCompany   *string                             `json:"shipping_company"`
	ShippingNo        *string                             `json:"shipping_no"`
	ShippedAt         *time.Time                          `json:"shipped_at"`
	ShippingChecklist datatypes.JSONType[map[string]bool] `json:"shipping_checklist"`

	Notes  datatypes.JSONSlice[OrderNote] `json:"notes"`
	Status string                         `gorm:"not null;default:'pending_quote';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// StatusText returns the human-readable label for the order's status
func (o *Order) StatusText() string {
	return OrderStatusText[o.Status]
}

// DeadlineAlertLevel thresholds, in days before the deadline
const (
	DeadlineAlertWindowDays = 7
	DeadlineAlertRedDays    = 3
)

// DeadlineAlert is a derived read-only signal for an order nearing its due
// date. Level is "red" within 3 days of the deadline, "yellow" within 7.
type DeadlineAlert struct {
	OrderID       string          `json:"id"`
	CharacterName string          `json:"character_name"`
	SourceWork    *string         `json:"source_work"`
	Deadline      *datatypes.Date `json:"deadline"`
	Status        string          `json:"status"`
	DaysLeft      int             `json:"days_left"`
	Level         string          `json:"level"`
}

// StatusCount holds per-status order totals for the dashboard
type StatusCount struct {
	PendingQuote    int64 `json:"pending_quote"`
	PendingDeposit  int64 `json:"pending_deposit"`
	AwaitingWigBase int64 `json:"awaiting_wig_base"`
	Queued          int64 `json:"queued"`
	InProgress      int64 `json:"in_progress"`
	InReview        int64 `json:"in_review"`
	PendingBalance  int64 `json:"pending_balance"`
	Shipped         int64 `json:"shipped"`
	Completed       int64 `json:"completed"`
	Total           int64 `json:"total"`
}
