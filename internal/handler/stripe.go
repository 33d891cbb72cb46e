package handler

import (
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/service"
)

type StripeHandler struct {
	service *service.StripeService
}

func NewStripeHandler(svc *service.StripeService) *StripeHandler {
	return &StripeHandler{service: svc}
}

func (h *StripeHandler) CreateOrder(c *gin.Context) {
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

func (h *StripeHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	outcome, err := h.service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		respondProviderError(c, err)
		return
	}

	if outcome.Duplicate {
		log.Printf("stripe webhook replay for txn %s", outcome.TxnID)
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "txn_id": outcome.TxnID})
}
