package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tunegift/checkout-api/internal/models"
)

// PaymentStore is the persistence collaborator for payment orders. The gorm
// repository implements it; tests substitute fakes.
type PaymentStore interface {
	Create(ctx context.Context, order *models.PaymentOrder) error
	FindByTxnID(ctx context.Context, txnID string) (*models.PaymentOrder, error)
	FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentOrder, error)
	MarkVerified(ctx context.Context, txnID, status, providerPaymentID string) error
	SetProviderOrderID(ctx context.Context, txnID, providerOrderID string) error
}

// WebhookEventStore records provider notifications idempotently: Record
// returns false for a delivery that was already seen.
type WebhookEventStore interface {
	Record(ctx context.Context, event *models.WebhookEvent) (bool, error)
}

// ErrNotConfigured means the provider's secret is missing from the
// environment. Surfaced as a 500; the missing-secret detail stays
// server-side.
var ErrNotConfigured = errors.New("payment provider is not configured")

// ErrInvalidSignature means an inbound notification failed authenticity
// verification. Never retried.
var ErrInvalidSignature = errors.New("signature verification failed")

// CheckoutRequest is the order-creation input shared by all providers.
// Category/Style/Recipient are the song order context, round-tripped through
// each provider's metadata or UDF slots.
type CheckoutRequest struct {
	Amount        float64
	Currency      string
	ProductInfo   string
	CustomerName  string
	CustomerEmail string

	Category  string
	Style     string
	Recipient string
}

// CallbackVerdict is the terminal outcome of one inbound notification.
type CallbackVerdict struct {
	Authentic         bool
	Status            string // one of the models.Status* values
	TxnID             string
	Amount            string
	ProviderPaymentID string
	Message           string
}

// WebhookOutcome reports how a verified webhook was settled.
type WebhookOutcome struct {
	Duplicate bool
	TxnID     string
	Status    string
}

func newTxnID() string {
	return "txn_" + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// minorUnits converts a major-unit amount to the integer minor units Stripe
// and Razorpay bill in.
func minorUnits(amount float64) int64 {
	return int64(amount*100 + 0.5)
}

// fixedDecimal renders an amount exactly as it appears in hash formulas.
func fixedDecimal(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// mapPayUStatus folds PayU's status vocabulary into ours. Anything
// unrecognized maps to unknown and is logged rather than trusted.
func mapPayUStatus(status string) string {
	switch strings.ToLower(status) {
	case "success":
		return models.StatusSuccess
	case "pending", "in progress":
		return models.StatusPending
	case "failure", "failed":
		return models.StatusFailed
	case "cancel", "cancelled":
		return models.StatusCancelled
	default:
		return models.StatusUnknown
	}
}
