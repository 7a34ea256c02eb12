package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/abhay-jindal/shopkart/pkg/ctxmanage"
	"github.com/abhay-jindal/shopkart/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type CreatePaymentOrderRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency" validate:"required,len=3"`
}

// CreatePaymentOrder registers a payment order at the gateway for the amount
// the client is about to pay. The gateway works in the minor currency unit;
// the client sends rupees.
func (h *Handler) CreatePaymentOrder(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req CreatePaymentOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErrs[0].Field() + " value missing or invalid"})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !req.Amount.IsPositive() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	order, err := h.gateway.CreateOrder(c.Request.Context(), req.Amount, req.Currency)
	if err != nil {
		slog.Error("error creating payment order", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusFailedDependency,
			gin.H{"error": "Payment gateway cannot process your request right now! Please try again later"})
		return
	}

	c.JSON(http.StatusOK, order)
}
