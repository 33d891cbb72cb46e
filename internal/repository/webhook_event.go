package repository

import (
	"context"

	"github.com/tunegift/checkout-api/internal/models"
	"github.com/tunegift/checkout-api/internal/storage"
	"gorm.io/gorm/clause"
)

type WebhookEventRepository struct {
	db *storage.Postgres
}

func NewWebhookEventRepository(db *storage.Postgres) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

// Record stores a verified webhook event. Returns false when the same
// provider event was already recorded, which is how replayed deliveries are
// detected without a separate lookup.
func (r *WebhookEventRepository) Record(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	result := r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(event)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}
