package models

import (
	"time"

	"gorm.io/datatypes"
)

// Review is the customer approval gate for a finished piece. Exactly one
// review exists per order (unique index on order_id); the customer reaches it
// through an unguessable token, without an account. IsApproved is tri-state:
// nil while pending, then true or false.
type Review struct {
	ID      string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OrderID string `gorm:"uniqueIndex;not null;type:varchar(36)" json:"order_id"`
	Order   Order  `gorm:"foreignKey:OrderID" json:"-"`

	Images      datatypes.JSONSlice[string] `json:"images"` // always the latest state of the piece
	Description *string                     `json:"description"`

	ReviewToken string `gorm:"uniqueIndex;not null" json:"review_token"` // immutable after creation
	ReviewURL   string `gorm:"not null" json:"review_url"`

	IsApproved *bool      `json:"is_approved"`
	ApprovedAt *time.Time `json:"approved_at"`

	MaxRevisions  int `gorm:"not null;default:2" json:"max_revisions"`
	RevisionCount int `gorm:"not null;default:0" json:"revision_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Review model
func (Review) TableName() string {
	return "reviews"
}

// RemainingRevisions returns how many revision rounds the customer may still
// request
func (r *Review) RemainingRevisions() int {
	remaining := r.MaxRevisions - r.RevisionCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ReviewRevision is one round-trip of customer-requested changes within a
// review. Numbered densely from 1 per review; at most one revision per review
// may be awaiting a response at any time.
type ReviewRevision struct {
	ID       string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ReviewID string `gorm:"not null;index;type:varchar(36)" json:"review_id"`
	Review   Review `gorm:"foreignKey:ReviewID" json:"-"`

	RevisionNumber int `gorm:"not null" json:"revision_number"`

	RequestContent string                      `gorm:"type:text;not null" json:"request_content"`
	RequestImages  datatypes.JSONSlice[string] `json:"request_images"`
	RequestedAt    time.Time                   `json:"requested_at"`

	ResponseImages datatypes.JSONSlice[string] `json:"response_images"`
	ResponseNotes  *string                     `json:"response_notes"`
	CompletedAt    *time.Time                  `json:"completed_at"`

	IsSatisfied *bool      `json:"is_satisfied"`
	ConfirmedAt *time.Time `json:"confirmed_at"`
}

// TableName specifies the table name for the ReviewRevision model
func (ReviewRevision) TableName() string {
	return "review_revisions"
}

// Pending reports whether the artisan has not yet answered this revision
func (r *ReviewRevision) Pending() bool {
	return r.CompletedAt == nil
}
