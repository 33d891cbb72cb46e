package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Terminal and intermediate order statuses. A terminal status is never
// overwritten by a later notification for the same transaction.
const (
	StatusCreated   = "created"
	StatusSuccess   = "success"
	StatusPending   = "pending"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusUnknown   = "unknown"
)

type PaymentOrder struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	TxnID             string    `gorm:"uniqueIndex;not null" json:"txn_id"`
	Provider          string    `gorm:"index;not null" json:"provider"`
	ProviderOrderID   string    `gorm:"index" json:"provider_order_id,omitempty"`
	ProviderPaymentID string    `json:"provider_payment_id,omitempty"`
	Amount            string    `gorm:"not null" json:"amount"` // fixed-decimal string, as hashed
	Currency          string    `gorm:"not null" json:"currency"`
	ProductInfo       string    `json:"product_info"`
	CustomerName      string    `json:"customer_name"`
	CustomerEmail     string    `json:"customer_email"`
	Status            string    `gorm:"index;default:'created'" json:"status"`

	// Order context round-tripped through the provider's UDF slots
	Category  string `json:"category,omitempty"`
	Style     string `json:"style,omitempty"`
	Recipient string `json:"recipient,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
}

func (p *PaymentOrder) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (PaymentOrder) TableName() string {
	return "payment_orders"
}

// Terminal reports whether the status closes the order for good.
func Terminal(status string) bool {
	switch status {
	case StatusSuccess, StatusFailed, StatusCancelled:
		return true
	}
	return false
}
