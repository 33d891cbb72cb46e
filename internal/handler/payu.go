package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/models"
	"github.com/tunegift/checkout-api/internal/service"
)

type PayUHandler struct {
	service   *service.PayUService
	redirects redirects
}

func NewPayUHandler(svc *service.PayUService, redirectBase string) *PayUHandler {
	return &PayUHandler{
		service:   svc,
		redirects: redirects{base: redirectBase},
	}
}

func (h *PayUHandler) CreateOrder(c *gin.Context) {
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

// SuccessCallback lands the buyer after PayU reports success. The recomputed
// hash decides where they go: a payload that claims success but fails
// verification redirects to the error page, never the success page.
func (h *PayUHandler) SuccessCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.Redirect(http.StatusFound, h.redirects.to("/payment/error", "", "", "Malformed payment response"))
		return
	}

	verdict := h.service.HandleCallback(c.Request.Context(), c.Request.PostForm)

	if !verdict.Authentic {
		c.Redirect(http.StatusFound, h.redirects.to("/payment/error", verdict.TxnID, "", "Payment could not be verified"))
		return
	}

	c.Redirect(http.StatusFound, h.redirects.to(statusPath(verdict.Status), verdict.TxnID, verdict.Amount, verdict.Message))
}

// FailureCallback always lands on the failure page. A hash mismatch here is
// logged but changes nothing the user sees: no state transition is
// authorized by a failure notice.
func (h *PayUHandler) FailureCallback(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.Redirect(http.StatusFound, h.redirects.to("/payment/failed", "", "", "Malformed payment response"))
		return
	}

	verdict := h.service.HandleCallback(c.Request.Context(), c.Request.PostForm)

	message := verdict.Message
	if message == "" {
		message = "Payment failed"
	}

	status := verdict.Status
	if !verdict.Authentic || status == "" || status == models.StatusUnknown {
		status = models.StatusFailed
	}

	c.Redirect(http.StatusFound, h.redirects.to(statusPath(status), verdict.TxnID, verdict.Amount, message))
}

func (h *PayUHandler) Webhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed payload"})
		return
	}

	outcome, err := h.service.HandleWebhook(c.Request.Context(), c.Request.PostForm)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSignature) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
		respondProviderError(c, err)
		return
	}

	if outcome.Duplicate {
		log.Printf("payu webhook replay for txn %s", outcome.TxnID)
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "txn_id": outcome.TxnID})
}
