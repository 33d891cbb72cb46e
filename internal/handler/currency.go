package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tunegift/checkout-api/internal/currency"
)

type CurrencyHandler struct {
	service *currency.Service
}

func NewCurrencyHandler(svc *currency.Service) *CurrencyHandler {
	return &CurrencyHandler{service: svc}
}

func (h *CurrencyHandler) Rates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"base":  "USD",
		"rates": h.service.Rates(c.Request.Context()),
	})
}

func (h *CurrencyHandler) Convert(c *gin.Context) {
	var req struct {
		Amount float64 `json:"amount" binding:"required,gt=0"`
		From   string  `json:"from" binding:"required,len=3"`
		To     string  `json:"to" binding:"required,len=3"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	converted, err := h.service.Convert(c.Request.Context(), req.Amount, req.From, req.To)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"amount":    req.Amount,
		"from":      req.From,
		"to":        req.To,
		"converted": converted,
	})
}
