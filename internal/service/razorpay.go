package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/tunegift/checkout-api/internal/models"
	"github.com/tunegift/checkout-api/internal/signature"
)

type RazorpayService struct {
	payments      PaymentStore
	events        WebhookEventStore
	client        *razorpay.Client
	keyID         string
	keySecret     string
	webhookSecret string
}

func NewRazorpayService(payments PaymentStore, events WebhookEventStore, keyID, keySecret, webhookSecret string) *RazorpayService {
	var client *razorpay.Client
	if keyID != "" && keySecret != "" {
		client = razorpay.NewClient(keyID, keySecret)
	}

	return &RazorpayService{
		payments:      payments,
		events:        events,
		client:        client,
		keyID:         keyID,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// RazorpayOrder is what the frontend checkout widget needs.
type RazorpayOrder struct {
	TxnID    string `json:"txn_id"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

func (s *RazorpayService) CreateOrder(ctx context.Context, req CheckoutRequest) (*RazorpayOrder, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	txnID := newTxnID()
	amount := minorUnits(req.Amount)

	data := map[string]interface{}{
		"amount":   amount,
		"currency": req.Currency,
		"receipt":  txnID,
		"notes": map[string]interface{}{
			"category":  req.Category,
			"style":     req.Style,
			"recipient": req.Recipient,
		},
	}

	body, err := s.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay order creation failed: %w", err)
	}

	orderID, _ := body["id"].(string)
	if orderID == "" {
		return nil, fmt.Errorf("razorpay order creation returned no order id")
	}

	order := &models.PaymentOrder{
		TxnID:           txnID,
		Provider:        "razorpay",
		ProviderOrderID: orderID,
		Amount:          fixedDecimal(req.Amount),
		Currency:        req.Currency,
		ProductInfo:     req.ProductInfo,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		Status:          models.StatusCreated,
		Category:        req.Category,
		Style:           req.Style,
		Recipient:       req.Recipient,
	}
	if err := s.payments.Create(ctx, order); err != nil {
		return nil, err
	}

	return &RazorpayOrder{
		TxnID:    txnID,
		OrderID:  orderID,
		Amount:   amount,
		Currency: req.Currency,
		KeyID:    s.keyID,
	}, nil
}

// VerifyCheckout judges the signature Razorpay hands the browser when
// checkout completes. A "successful" payload with a bad signature is
// rejected regardless of what it claims.
func (s *RazorpayService) VerifyCheckout(ctx context.Context, orderID, paymentID, sig string) CallbackVerdict {
	if s.keySecret == "" {
		return CallbackVerdict{Message: "payment provider is not configured"}
	}

	if !signature.VerifyRazorpayCheckout(orderID, paymentID, sig, s.keySecret) {
		log.Printf("razorpay checkout signature mismatch for order %s", orderID)
		return CallbackVerdict{
			Authentic: false,
			Message:   "payment could not be verified",
		}
	}

	order, err := s.payments.FindByProviderOrderID(ctx, orderID)
	if err != nil {
		log.Printf("failed to look up razorpay order %s: %v", orderID, err)
	}

	txnID := ""
	amount := ""
	if order != nil {
		txnID = order.TxnID
		amount = order.Amount
		if err := s.payments.MarkVerified(ctx, txnID, models.StatusSuccess, paymentID); err != nil {
			log.Printf("failed to record payment for txn %s: %v", txnID, err)
		}
	} else {
		log.Printf("razorpay checkout verified for unknown order %s", orderID)
	}

	return CallbackVerdict{
		Authentic:         true,
		Status:            models.StatusSuccess,
		TxnID:             txnID,
		Amount:            amount,
		ProviderPaymentID: paymentID,
	}
}

type razorpayWebhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Status  string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

func mapRazorpayPaymentStatus(status string) string {
	switch status {
	case "captured":
		return models.StatusSuccess
	case "authorized", "created":
		return models.StatusPending
	case "failed":
		return models.StatusFailed
	default:
		return models.StatusUnknown
	}
}

// HandleWebhook verifies the X-Razorpay-Signature HMAC over the raw body,
// then settles the referenced order. eventID comes from the provider's
// event-id header; deliveries without one are deduplicated on payment+event.
func (s *RazorpayService) HandleWebhook(ctx context.Context, body []byte, sig, eventID string) (WebhookOutcome, error) {
	if s.webhookSecret == "" {
		return WebhookOutcome{}, ErrNotConfigured
	}

	if !signature.VerifyRazorpayWebhook(body, sig, s.webhookSecret) {
		log.Printf("razorpay webhook signature mismatch")
		return WebhookOutcome{}, ErrInvalidSignature
	}

	var payload razorpayWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookOutcome{}, fmt.Errorf("malformed webhook payload: %w", err)
	}

	payment := payload.Payload.Payment.Entity
	mapped := mapRazorpayPaymentStatus(payment.Status)
	if mapped == models.StatusUnknown {
		log.Printf("razorpay webhook with unrecognized payment status %q", payment.Status)
	}

	txnID := ""
	if order, err := s.payments.FindByProviderOrderID(ctx, payment.OrderID); err == nil && order != nil {
		txnID = order.TxnID
	}

	if eventID == "" {
		eventID = payment.ID + ":" + payload.Event
	}

	fresh, err := s.events.Record(ctx, &models.WebhookEvent{
		Provider:        "razorpay",
		ProviderEventID: eventID,
		EventType:       payload.Event,
		TxnID:           txnID,
		Payload:         string(body),
	})
	if err != nil {
		return WebhookOutcome{}, err
	}
	if !fresh {
		return WebhookOutcome{Duplicate: true, TxnID: txnID, Status: mapped}, nil
	}

	if txnID != "" {
		if err := s.payments.MarkVerified(ctx, txnID, mapped, payment.ID); err != nil {
			return WebhookOutcome{}, err
		}
	}

	return WebhookOutcome{TxnID: txnID, Status: mapped}, nil
}
