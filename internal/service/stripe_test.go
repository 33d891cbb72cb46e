package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tunegift/checkout-api/internal/models"
)

func newStripeTestService() (*StripeService, *fakePaymentStore, *fakeEventStore) {
	payments := &fakePaymentStore{}
	events := newFakeEventStore()
	svc := NewStripeService(payments, events, "sk_test_x", "whsec_test", "https://example.com")
	return svc, payments, events
}

// stripeSign reproduces the Stripe-Signature header scheme: a v1 entry is
// HMAC-SHA256 over "<timestamp>.<payload>".
func stripeSign(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func checkoutCompletedEvent(eventID, sessionID, txnID, paymentStatus string) []byte {
	return []byte(fmt.Sprintf(
		`{"id":%q,"type":"checkout.session.completed","data":{"object":{"id":%q,"client_reference_id":%q,"payment_status":%q}}}`,
		eventID, sessionID, txnID, paymentStatus,
	))
}

func TestStripeHandleWebhook_CompletedSession(t *testing.T) {
	svc, payments, events := newStripeTestService()

	payload := checkoutCompletedEvent("evt_1", "cs_123", "txn_1", "paid")
	sig := stripeSign(payload, "whsec_test", time.Now())

	outcome, err := svc.HandleWebhook(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if outcome.TxnID != "txn_1" || outcome.Status != models.StatusSuccess {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	if len(events.recorded) != 1 || events.recorded[0].ProviderEventID != "evt_1" {
		t.Error("event must be recorded under the stripe event id")
	}
	if len(payments.verified) != 1 || payments.verified[0] != (verifiedCall{"txn_1", models.StatusSuccess, "cs_123"}) {
		t.Errorf("unexpected recorded payment: %+v", payments.verified)
	}
}

func TestStripeHandleWebhook_BadSignature(t *testing.T) {
	svc, payments, events := newStripeTestService()

	payload := checkoutCompletedEvent("evt_1", "cs_123", "txn_1", "paid")
	sig := stripeSign(payload, "wrong-secret", time.Now())

	_, err := svc.HandleWebhook(context.Background(), payload, sig)
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(events.recorded) != 0 || len(payments.verified) != 0 {
		t.Error("a rejected webhook must leave no trace")
	}
}

func TestStripeHandleWebhook_StaleTimestamp(t *testing.T) {
	svc, _, _ := newStripeTestService()

	payload := checkoutCompletedEvent("evt_1", "cs_123", "txn_1", "paid")
	sig := stripeSign(payload, "whsec_test", time.Now().Add(-time.Hour))

	if _, err := svc.HandleWebhook(context.Background(), payload, sig); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected replayed-timestamp rejection, got %v", err)
	}
}

func TestStripeHandleWebhook_DuplicateEvent(t *testing.T) {
	svc, payments, _ := newStripeTestService()
	ctx := context.Background()

	payload := checkoutCompletedEvent("evt_1", "cs_123", "txn_1", "paid")
	sig := stripeSign(payload, "whsec_test", time.Now())

	if _, err := svc.HandleWebhook(ctx, payload, sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	outcome, err := svc.HandleWebhook(ctx, payload, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !outcome.Duplicate {
		t.Fatal("replayed event must be flagged as duplicate")
	}
	if len(payments.verified) != 1 {
		t.Error("duplicate delivery must not re-record the payment")
	}
}

func TestStripeHandleWebhook_SessionExpired(t *testing.T) {
	svc, payments, _ := newStripeTestService()

	payload := []byte(`{"id":"evt_2","type":"checkout.session.expired","data":{"object":{"id":"cs_123","client_reference_id":"txn_1"}}}`)
	sig := stripeSign(payload, "whsec_test", time.Now())

	outcome, err := svc.HandleWebhook(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != models.StatusCancelled {
		t.Errorf("expected cancelled, got %q", outcome.Status)
	}
	if len(payments.verified) != 1 || payments.verified[0].status != models.StatusCancelled {
		t.Error("expired session must settle the order as cancelled")
	}
}

func TestStripeHandleWebhook_IgnoredEventStillRecorded(t *testing.T) {
	svc, payments, events := newStripeTestService()

	payload := []byte(`{"id":"evt_3","type":"charge.updated","data":{"object":{"id":"ch_1"}}}`)
	sig := stripeSign(payload, "whsec_test", time.Now())

	outcome, err := svc.HandleWebhook(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != "" {
		t.Errorf("unhandled event must settle nothing, got status %q", outcome.Status)
	}
	if len(events.recorded) != 1 {
		t.Error("unhandled events are still recorded for audit")
	}
	if len(payments.verified) != 0 {
		t.Error("unhandled events must not touch payments")
	}
}

func TestStripeHandleWebhook_OlderAPIVersionAccepted(t *testing.T) {
	// Endpoints pinned to an older Stripe API version send events whose
	// api_version predates the SDK's. The signature still decides.
	svc, payments, _ := newStripeTestService()

	payload := []byte(`{"id":"evt_4","api_version":"2023-10-16","type":"checkout.session.completed","data":{"object":{"id":"cs_456","client_reference_id":"txn_2","payment_status":"paid"}}}`)
	sig := stripeSign(payload, "whsec_test", time.Now())

	outcome, err := svc.HandleWebhook(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("valid signature with an older api_version must be accepted, got %v", err)
	}
	if outcome.TxnID != "txn_2" || outcome.Status != models.StatusSuccess {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
	if len(payments.verified) != 1 {
		t.Error("verified payment must be recorded")
	}
}

func TestStripeCreateOrder_NotConfigured(t *testing.T) {
	svc := NewStripeService(&fakePaymentStore{}, newFakeEventStore(), "", "", "https://example.com")

	_, err := svc.CreateOrder(context.Background(), sampleCheckoutRequest())
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}
