package handler

import (
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/models"
	"github.com/tunegift/checkout-api/internal/service"
)

// createOrderRequest is the shared order-creation body. The song context
// fields ride along so the provider round-trips them back to us.
type createOrderRequest struct {
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"required,len=3"`
	ProductInfo   string  `json:"product_info" binding:"required"`
	CustomerName  string  `json:"customer_name" binding:"required"`
	CustomerEmail string  `json:"customer_email" binding:"required,email"`
	Category      string  `json:"category"`
	Style         string  `json:"style"`
	Recipient     string  `json:"recipient"`
}

func (r createOrderRequest) toCheckout() service.CheckoutRequest {
	return service.CheckoutRequest{
		Amount:        r.Amount,
		Currency:      r.Currency,
		ProductInfo:   r.ProductInfo,
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		Category:      r.Category,
		Style:         r.Style,
		Recipient:     r.Recipient,
	}
}

// respondProviderError maps service errors to client responses without
// leaking configuration detail.
func respondProviderError(c *gin.Context, err error) {
	requestID := c.GetString("request_id")

	if errors.Is(err, service.ErrNotConfigured) {
		log.Printf("[%s] provider not configured for %s", requestID, c.FullPath())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment provider unavailable"})
		return
	}

	log.Printf("[%s] payment operation failed: %v", requestID, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Payment operation failed"})
}

// redirects builds the user-facing landing URLs for callback outcomes. Every
// error page carries the txnid (when known) for support lookup.
type redirects struct {
	base string
}

func (r redirects) to(path, txnID, amount, message string) string {
	q := url.Values{}
	if txnID != "" {
		q.Set("txnid", txnID)
	}
	if amount != "" {
		q.Set("amount", amount)
	}
	if message != "" {
		q.Set("message", message)
	}

	target := r.base + path
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}
	return target
}

// statusPath maps a verified status to its landing page.
func statusPath(status string) string {
	switch status {
	case models.StatusSuccess:
		return "/payment/success"
	case models.StatusPending:
		return "/payment/pending"
	case models.StatusFailed:
		return "/payment/failed"
	case models.StatusCancelled:
		return "/payment/cancelled"
	default:
		return "/payment/error"
	}
}
