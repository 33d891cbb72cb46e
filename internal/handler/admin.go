package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/models"
	"github.com/tunegift/checkout-api/internal/repository"
	"github.com/tunegift/checkout-api/internal/service"
)

// AdminHandler is the support-lookup surface: error pages hand buyers a
// txnid, and support resolves it here.
type AdminHandler struct {
	auth     *service.AuthService
	payments *repository.PaymentRepository
}

func NewAdminHandler(auth *service.AuthService, payments *repository.PaymentRepository) *AdminHandler {
	return &AdminHandler{auth: auth, payments: payments}
}

func (h *AdminHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AdminHandler) ListPayments(c *gin.Context) {
	orders, err := h.payments.List(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, orders)
}

func (h *AdminHandler) GetPayment(c *gin.Context) {
	txnID := c.Param("txnid")

	order, err := h.payments.FindByTxnID(c.Request.Context(), txnID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if order == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
		return
	}

	// "final" tells support whether a new notification could still move
	// this order or it is settled for good.
	c.JSON(http.StatusOK, gin.H{
		"payment": order,
		"final":   models.Terminal(order.Status),
	})
}
