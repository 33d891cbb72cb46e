package service

import (
	"context"
	"log"
	"net/url"

	"github.com/tunegift/checkout-api/internal/models"
	"github.com/tunegift/checkout-api/internal/signature"
)

const payuPaymentURL = "https://secure.payu.in/_payment"

// PayUService builds signed checkout form parameters and judges inbound
// callbacks/webhooks. PayU has no API client for this flow: checkout is a
// browser form POST and every trust decision rides on the hash.
type PayUService struct {
	payments    PaymentStore
	events      WebhookEventStore
	merchantKey string
	salt        string
	callbackURL string // base for surl/furl
}

func NewPayUService(payments PaymentStore, events WebhookEventStore, merchantKey, salt, callbackURL string) *PayUService {
	return &PayUService{
		payments:    payments,
		events:      events,
		merchantKey: merchantKey,
		salt:        salt,
		callbackURL: callbackURL,
	}
}

// PayUOrder is everything the frontend needs to POST the checkout form.
type PayUOrder struct {
	TxnID  string            `json:"txn_id"`
	Action string            `json:"action"`
	Params map[string]string `json:"params"`
}

func (s *PayUService) CreateOrder(ctx context.Context, req CheckoutRequest) (*PayUOrder, error) {
	if s.merchantKey == "" || s.salt == "" {
		return nil, ErrNotConfigured
	}

	txnID := newTxnID()
	amount := fixedDecimal(req.Amount)

	fields := signature.PayUFields{
		TxnID:       txnID,
		Amount:      amount,
		ProductInfo: req.ProductInfo,
		Firstname:   req.CustomerName,
		Email:       req.CustomerEmail,
		UDF:         [5]string{req.Category, req.Style, req.Recipient, "", ""},
	}
	hash := signature.PayUHash(signature.Request, fields, s.merchantKey, s.salt)

	order := &models.PaymentOrder{
		TxnID:         txnID,
		Provider:      "payu",
		Amount:        amount,
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

	return &PayUOrder{
		TxnID:  txnID,
		Action: payuPaymentURL,
		Params: map[string]string{
			"key":         s.merchantKey,
			"txnid":       txnID,
			"amount":      amount,
			"productinfo": req.ProductInfo,
			"firstname":   req.CustomerName,
			"email":       req.CustomerEmail,
			"udf1":        req.Category,
			"udf2":        req.Style,
			"udf3":        req.Recipient,
			"surl":        s.callbackURL + "/api/payments/payu/success",
			"furl":        s.callbackURL + "/api/payments/payu/failure",
			"hash":        hash,
		},
	}, nil
}

func payuFieldsFromForm(form url.Values) signature.PayUFields {
	return signature.PayUFields{
		TxnID:       form.Get("txnid"),
		Amount:      form.Get("amount"),
		ProductInfo: form.Get("productinfo"),
		Firstname:   form.Get("firstname"),
		Email:       form.Get("email"),
		UDF: [5]string{
			form.Get("udf1"), form.Get("udf2"), form.Get("udf3"),
			form.Get("udf4"), form.Get("udf5"),
		},
		Status: form.Get("status"),
	}
}

// HandleCallback judges a browser-redirect callback. The hash verdict
// outranks whatever the payload claims its status is: a "success" payload
// with a bad hash is rejected.
func (s *PayUService) HandleCallback(ctx context.Context, form url.Values) CallbackVerdict {
	if s.merchantKey == "" || s.salt == "" {
		return CallbackVerdict{Message: "payment provider is not configured"}
	}

	fields := payuFieldsFromForm(form)
	txnID := fields.TxnID

	if !signature.VerifyPayUResponse(fields, form.Get("hash"), s.merchantKey, s.salt) {
		log.Printf("payu callback hash mismatch for txn %s", txnID)
		return CallbackVerdict{
			Authentic: false,
			TxnID:     txnID,
			Message:   "payment could not be verified",
		}
	}

	mapped := mapPayUStatus(fields.Status)
	if mapped == models.StatusUnknown {
		log.Printf("payu callback with unrecognized status %q for txn %s", fields.Status, txnID)
	}

	providerPaymentID := form.Get("mihpayid")
	if err := s.payments.MarkVerified(ctx, txnID, mapped, providerPaymentID); err != nil {
		log.Printf("failed to record payment for txn %s: %v", txnID, err)
	}

	return CallbackVerdict{
		Authentic:         true,
		Status:            mapped,
		TxnID:             txnID,
		Amount:            fields.Amount,
		ProviderPaymentID: providerPaymentID,
		Message:           form.Get("error_Message"),
	}
}

// HandleWebhook judges a server-to-server notification. An invalid hash is a
// hard rejection with no side effects; a duplicate delivery is acknowledged
// without reprocessing.
func (s *PayUService) HandleWebhook(ctx context.Context, form url.Values) (WebhookOutcome, error) {
	if s.merchantKey == "" || s.salt == "" {
		return WebhookOutcome{}, ErrNotConfigured
	}

	fields := payuFieldsFromForm(form)

	if !signature.VerifyPayUResponse(fields, form.Get("hash"), s.merchantKey, s.salt) {
		log.Printf("payu webhook hash mismatch for txn %s", fields.TxnID)
		return WebhookOutcome{}, ErrInvalidSignature
	}

	mapped := mapPayUStatus(fields.Status)
	providerPaymentID := form.Get("mihpayid")

	// PayU sends no event id; the transaction id keeps two payments whose
	// notifications both lack a mihpayid from colliding.
	fresh, err := s.events.Record(ctx, &models.WebhookEvent{
		Provider:        "payu",
		ProviderEventID: fields.TxnID + ":" + providerPaymentID + ":" + fields.Status,
		EventType:       fields.Status,
		TxnID:           fields.TxnID,
		Payload:         form.Encode(),
	})
	if err != nil {
		return WebhookOutcome{}, err
	}
	if !fresh {
		return WebhookOutcome{Duplicate: true, TxnID: fields.TxnID, Status: mapped}, nil
	}

	if err := s.payments.MarkVerified(ctx, fields.TxnID, mapped, providerPaymentID); err != nil {
		return WebhookOutcome{}, err
	}

	return WebhookOutcome{TxnID: fields.TxnID, Status: mapped}, nil
}
