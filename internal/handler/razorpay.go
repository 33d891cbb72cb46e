package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/service"
)

type RazorpayHandler struct {
	service *service.RazorpayService
}

func NewRazorpayHandler(svc *service.RazorpayService) *RazorpayHandler {
	return &RazorpayHandler{service: svc}
}

func (h *RazorpayHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.service.CreateOrder(c.Request.Context(), req.toCheckout())
	if err != nil {
		respondProviderError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// Verify judges the signature the checkout widget hands the browser after a
// completed payment.
func (h *RazorpayHandler) Verify(c *gin.Context) {
	var req struct {
		OrderID   string `json:"razorpay_order_id" binding:"required"`
		PaymentID string `json:"razorpay_payment_id" binding:"required"`
		Signature string `json:"razorpay_signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verdict := h.service.VerifyCheckout(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)

	if !verdict.Authentic {
		c.JSON(http.StatusBadRequest, gin.H{
			"verified": false,
			"error":    "Payment could not be verified",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verified": true,
		"txn_id":   verdict.TxnID,
		"amount":   verdict.Amount,
		"status":   verdict.Status,
	})
}

const maxWebhookBody = int64(65536)

func (h *RazorpayHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	sig := c.GetHeader("X-Razorpay-Signature")
	eventID := c.GetHeader("X-Razorpay-Event-Id")

	outcome, err := h.service.HandleWebhook(c.Request.Context(), body, sig, eventID)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		respondProviderError(c, err)
		return
	}

	if outcome.Duplicate {
		log.Printf("razorpay webhook replay for txn %s", outcome.TxnID)
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "txn_id": outcome.TxnID})
}
