package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/abhay-jindal/shopkart/internal/orders"
	"github.com/abhay-jindal/shopkart/internal/razorpay"
	"github.com/abhay-jindal/shopkart/internal/stores/kafka"
	"github.com/abhay-jindal/shopkart/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// webhookEvent is the shape of a gateway webhook delivery.
type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Webhook reconciles payment state reported asynchronously by the gateway.
// A captured payment flips the order to paid and emits one order-paid event
// per line item so inventory can be adjusted downstream.
func (h *Handler) Webhook(c *gin.Context) {
	traceId := uuid.NewString()
	const MaxBodyBytes = int64(65536)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		slog.Error("failed to read webhook body", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	signature := c.Request.Header.Get("X-Razorpay-Signature")
	if err := razorpay.VerifyWebhookSignature(h.webhookSecret, body, signature); err != nil {
		slog.Error("webhook signature mismatch", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook signature"})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		slog.Error("failed to unmarshal webhook event", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch event.Event {
	case "payment.captured":
		h.handlePaymentEvent(c, traceId, event, orders.PaymentStatusPaid)
	case "payment.failed":
		h.handlePaymentEvent(c, traceId, event, orders.PaymentStatusFailed)
	default:
		slog.Info("unhandled webhook event type", slog.String(logkey.TraceID, traceId), slog.String("event_type", event.Event))
		c.JSON(http.StatusOK, gin.H{
			"message": "Event type not handled",
			"event":   event.Event,
		})
	}
}

func (h *Handler) handlePaymentEvent(c *gin.Context, traceId string, event webhookEvent, paymentStatus string) {
	payment := event.Payload.Payment.Entity
	if payment.ID == "" || payment.Status == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing payment entity"})
		return
	}

	orderID, err := h.o.UpdatePaymentStatus(c.Request.Context(), payment.ID, payment.Status, paymentStatus)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			// The gateway can deliver webhooks for payments no checkout has
			// consumed yet; acknowledge so it does not retry forever.
			slog.Info("webhook for unknown payment", slog.String(logkey.TraceID, traceId), slog.String("payment_id", payment.ID))
			c.Status(http.StatusOK)
			return
		}
		slog.Error("failed to update payment", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to update payment"})
		return
	}

	slog.Info("payment reconciled", slog.String(logkey.TraceID, traceId),
		slog.Int64(logkey.OrderID, orderID), slog.String("payment_status", paymentStatus))

	if paymentStatus == orders.PaymentStatusPaid {
		go h.publishOrderPaid(traceId, orderID)
	}

	c.Status(http.StatusOK)
}

// publishOrderPaid produces one order-paid event per line item. Runs off the
// request path; failures are logged, the webhook has already been acked.
func (h *Handler) publishOrderPaid(traceId string, orderID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	items, err := h.o.GetOrderItems(ctx, orderID)
	if err != nil {
		slog.Error("failed to load order items for event", slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.OrderID, orderID), slog.String(logkey.Error, err.Error()))
		return
	}

	for _, item := range items {
		jsonData, err := json.Marshal(kafka.OrderPaidEvent{
			OrderID:   orderID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			slog.Error("failed to marshal OrderPaidEvent", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
			return
		}

		key := []byte(strconv.FormatInt(orderID, 10))
		if err := h.k.ProduceMessage(kafka.TopicOrderPaid, key, jsonData); err != nil {
			slog.Error("failed to produce message", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
			return
		}
		slog.Info("message produced", slog.String(logkey.TraceID, traceId), slog.String("data", string(jsonData)))
	}
}
