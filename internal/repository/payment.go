package repository

import (
	"context"
	"time"

	"github.com/tunegift/checkout-api/internal/models"
	"github.com/tunegift/checkout-api/internal/storage"
	"gorm.io/gorm"
)

type PaymentRepository struct {
	db *storage.Postgres
}

func NewPaymentRepository(db *storage.Postgres) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, order *models.PaymentOrder) error {
	return r.db.DB.WithContext(ctx).Create(order).Error
}

func (r *PaymentRepository) FindByTxnID(ctx context.Context, txnID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.DB.WithContext(ctx).
		Where("txn_id = ?", txnID).
		First(&order).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &order, err
}

// MarkVerified records the authenticated outcome of a payment notification.
// Idempotent: a terminal status is never overwritten, so replayed
// notifications for an already-settled transaction are no-ops.
func (r *PaymentRepository) MarkVerified(ctx context.Context, txnID, status, providerPaymentID string) error {
	now := time.Now().UTC()

	updates := map[string]interface{}{
		"status":      status,
		"verified_at": &now,
	}
	if providerPaymentID != "" {
		updates["provider_payment_id"] = providerPaymentID
	}

	return r.db.DB.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("txn_id = ? AND status NOT IN ?", txnID,
			[]string{models.StatusSuccess, models.StatusFailed, models.StatusCancelled}).
		Updates(updates).Error
}

func (r *PaymentRepository) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentOrder, error) {
	var order models.PaymentOrder
	err := r.db.DB.WithContext(ctx).
		Where("provider_order_id = ?", providerOrderID).
		First(&order).Error

	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}

	return &order, err
}

func (r *PaymentRepository) SetProviderOrderID(ctx context.Context, txnID, providerOrderID string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.PaymentOrder{}).
		Where("txn_id = ?", txnID).
		Update("provider_order_id", providerOrderID).Error
}

func (r *PaymentRepository) List(ctx context.Context, limit int) ([]models.PaymentOrder, error) {
	var orders []models.PaymentOrder
	err := r.db.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&orders).Error
	return orders, err
}
