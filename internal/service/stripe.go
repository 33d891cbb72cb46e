package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/tunegift/checkout-api/internal/models"
)

type StripeService struct {
	payments      PaymentStore
	events        WebhookEventStore
	secretKey     string
	webhookSecret string
	redirectBase  string
}

func NewStripeService(payments PaymentStore, events WebhookEventStore, secretKey, webhookSecret, redirectBase string) *StripeService {
	if secretKey != "" {
		stripe.Key = secretKey
	}

	return &StripeService{
		payments:      payments,
		events:        events,
		secretKey:     secretKey,
		webhookSecret: webhookSecret,
		redirectBase:  redirectBase,
	}
}

// StripeOrder carries the hosted-checkout redirect for the frontend.
type StripeOrder struct {
	TxnID     string `json:"txn_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

func (s *StripeService) CreateOrder(ctx context.Context, req CheckoutRequest) (*StripeOrder, error) {
	if s.secretKey == "" {
		return nil, ErrNotConfigured
	}

	txnID := newTxnID()

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(minorUnits(req.Amount)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.ProductInfo),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(s.redirectBase + "/payment/success?txnid=" + txnID),
		CancelURL:         stripe.String(s.redirectBase + "/payment/cancelled?txnid=" + txnID),
		CustomerEmail:     stripe.String(req.CustomerEmail),
		ClientReferenceID: stripe.String(txnID),
	}
	params.Context = ctx
	params.AddMetadata("txn_id", txnID)
	params.AddMetadata("category", req.Category)
	params.AddMetadata("style", req.Style)
	params.AddMetadata("recipient", req.Recipient)

	// The order row exists before the provider call, so a failed session
	// creation still leaves an audit record under the txn id.
	order := &models.PaymentOrder{
		TxnID:         txnID,
		Provider:      "stripe",
		Amount:        fixedDecimal(req.Amount),
		Currency:      req.Currency,
		ProductInfo:   req.ProductInfo,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		Status:        models.StatusCreated,
		Category:      req.Category,
		Style:         req.Style,
		Recipient:     req.Recipient,
	}
	if err := s.payments.Create(ctx, order); err != nil {
		return nil, err
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe session creation failed: %w", err)
	}

	if err := s.payments.SetProviderOrderID(ctx, txnID, sess.ID); err != nil {
		log.Printf("failed to attach session id to txn %s: %v", txnID, err)
	}

	return &StripeOrder{TxnID: txnID, SessionID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies the Stripe-Signature header through the SDK, then
// settles the referenced order. Signature failure is a hard rejection.
func (s *StripeService) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) (WebhookOutcome, error) {
	if s.webhookSecret == "" {
		return WebhookOutcome{}, ErrNotConfigured
	}

	// Events from an endpoint pinned to an older API version still carry a
	// valid signature; only the signature decides authenticity here.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Printf("stripe webhook signature verification failed: %v", err)
		return WebhookOutcome{}, ErrInvalidSignature
	}

	txnID, mapped, providerPaymentID := s.classify(event)

	fresh, err := s.events.Record(ctx, &models.WebhookEvent{
		Provider:        "stripe",
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		TxnID:           txnID,
		Payload:         string(payload),
	})
	if err != nil {
		return WebhookOutcome{}, err
	}
	if !fresh {
		return WebhookOutcome{Duplicate: true, TxnID: txnID, Status: mapped}, nil
	}

	if txnID != "" && mapped != "" {
		if err := s.payments.MarkVerified(ctx, txnID, mapped, providerPaymentID); err != nil {
			return WebhookOutcome{}, err
		}
	}

	return WebhookOutcome{TxnID: txnID, Status: mapped}, nil
}

// classify extracts the transaction id and mapped status from the subset of
// event types we act on. Unhandled events are recorded but settle nothing.
func (s *StripeService) classify(event stripe.Event) (txnID, status, providerPaymentID string) {
	switch string(event.Type) {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			log.Printf("stripe webhook: malformed session payload: %v", err)
			return "", "", ""
		}
		txnID = sess.ClientReferenceID
		providerPaymentID = sess.ID
		switch sess.PaymentStatus {
		case stripe.CheckoutSessionPaymentStatusPaid:
			status = models.StatusSuccess
		case stripe.CheckoutSessionPaymentStatusUnpaid:
			status = models.StatusPending
		default:
			status = models.StatusPending
		}
	case "checkout.session.expired":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return "", "", ""
		}
		txnID = sess.ClientReferenceID
		providerPaymentID = sess.ID
		status = models.StatusCancelled
	case "checkout.session.async_payment_failed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return "", "", ""
		}
		txnID = sess.ClientReferenceID
		providerPaymentID = sess.ID
		status = models.StatusFailed
	default:
		log.Printf("stripe webhook: ignoring event type %s", event.Type)
	}
	return txnID, status, providerPaymentID
}
