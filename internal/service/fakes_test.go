package service

import (
	"context"
	"fmt"

	"github.com/tunegift/checkout-api/internal/models"
)

type verifiedCall struct {
	txnID             string
	status            string
	providerPaymentID string
}

type fakePaymentStore struct {
	created  []*models.PaymentOrder
	verified []verifiedCall
}

func (f *fakePaymentStore) Create(ctx context.Context, order *models.PaymentOrder) error {
	f.created = append(f.created, order)
	return nil
}

func (f *fakePaymentStore) FindByTxnID(ctx context.Context, txnID string) (*models.PaymentOrder, error) {
	for _, o := range f.created {
		if o.TxnID == txnID {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentStore) FindByProviderOrderID(ctx context.Context, providerOrderID string) (*models.PaymentOrder, error) {
	for _, o := range f.created {
		if o.ProviderOrderID == providerOrderID {
			return o, nil
		}
	}
	return nil, nil
}

func (f *fakePaymentStore) MarkVerified(ctx context.Context, txnID, status, providerPaymentID string) error {
	f.verified = append(f.verified, verifiedCall{txnID, status, providerPaymentID})
	return nil
}

func (f *fakePaymentStore) SetProviderOrderID(ctx context.Context, txnID, providerOrderID string) error {
	for _, o := range f.created {
		if o.TxnID == txnID {
			o.ProviderOrderID = providerOrderID
		}
	}
	return nil
}

// fakeEventStore mimics the unique-index dedup of the real repository.
type fakeEventStore struct {
	seen     map[string]bool
	recorded []*models.WebhookEvent
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{seen: make(map[string]bool)}
}

func (f *fakeEventStore) Record(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	key := fmt.Sprintf("%s/%s", event.Provider, event.ProviderEventID)
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	f.recorded = append(f.recorded, event)
	return true, nil
}
