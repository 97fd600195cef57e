package models

import (
	"time"

	"gorm.io/datatypes"
)

// Inquiry statuses
const (
	InquiryStatusNew       = "new"
	InquiryStatusConverted = "converted"
	InquiryStatusRejected  = "rejected"
)

// Inquiry represents a customer's commission request before it becomes an
// order. Customers submit inquiries without an account; the artisan either
// converts one into an order or rejects it.
type Inquiry struct {
	ID                string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID            string                      `gorm:"not null;index;type:varchar(36)" json:"user_id"` // target artisan
	User              User                        `gorm:"foreignKey:UserID" json:"-"`
	CustomerName      *string                     `json:"customer_name"`
	CustomerContact   *string                     `json:"customer_contact"`
	CharacterName     string                      `gorm:"not null" json:"character_name"`
	SourceWork        *string                     `json:"source_work"`
	ExpectedDeadline  *datatypes.Date             `json:"expected_deadline"`
	HeadCircumference *string                     `json:"head_circumference"`
	BudgetRange       *string                     `json:"budget_range"`
	ReferenceImages   datatypes.JSONSlice[string] `json:"reference_images"`
	Requirements      *string                     `json:"requirements"`
	Status            string                      `gorm:"not null;default:'new';index" json:"status"` // new, converted, rejected
	CreatedAt         time.Time                   `json:"created_at"`
	UpdatedAt         time.Time                   `json:"updated_at"`
}

// TableName specifies the table name for the Inquiry model
func (Inquiry) TableName() string {
	return "inquiries"
}
