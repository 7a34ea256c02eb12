package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/abhay-jindal/shopkart/internal/auth"
	"github.com/abhay-jindal/shopkart/internal/consul"
	"github.com/abhay-jindal/shopkart/internal/orders"
	"github.com/abhay-jindal/shopkart/internal/razorpay"
	"github.com/abhay-jindal/shopkart/pkg/ctxmanage"
	"github.com/abhay-jindal/shopkart/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const listCacheTTL = 60 * time.Second

type OrderLineRequest struct {
	VariantID int64           `json:"variant_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
}

type OrderCreateRequest struct {
	AddressID         int64              `json:"address_id" validate:"required,gt=0"`
	RazorpayOrderID   string             `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string             `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string             `json:"razorpay_signature" validate:"required"`
	OrderLines        []OrderLineRequest `json:"order_lines" validate:"required,min=1,dive"`
}

// OrderResponse is the boundary representation of a persisted order. The
// payment description is display-only and never stored on the order row.
type OrderResponse struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"user_id"`
	ShippingAddressID int64           `json:"shipping_address_id"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	OrderStatus       string          `json:"order_status"`
	PaymentStatus     string          `json:"payment_status"`
	CreatedAt         time.Time       `json:"created_at"`
	Description       string          `json:"description"`
}

func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userID, ok := userIDFromClaims(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
		return
	}

	if c.Request.ContentLength > 64*1024 {
		slog.Error("request body limit breached", slog.String(logkey.TraceID, traceId), slog.Int64("Size Received", c.Request.ContentLength))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Request body too large."})
		return
	}

	var req OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) && len(vErrs) > 0 {
			slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": vErrs[0].Field() + " value missing or invalid"})
			return
		}
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}

	lines := make([]orders.OrderLine, 0, len(req.OrderLines))
	for _, l := range req.OrderLines {
		lines = append(lines, orders.OrderLine{
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			Price:     l.Price,
		})
	}

	result, err := h.orch.Checkout(c.Request.Context(), userID, orders.CheckoutRequest{
		AddressID:      req.AddressID,
		PaymentOrderID: req.RazorpayOrderID,
		PaymentID:      req.RazorpayPaymentID,
		Signature:      req.RazorpaySignature,
		Lines:          lines,
	})
	if err != nil {
		slog.Error("checkout failed", slog.String(logkey.TraceID, traceId),
			slog.Int64(logkey.UserID, userID), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(checkoutStatusCode(err), gin.H{"error": fmt.Sprintf("Order creation failed: %s", err)})
		return
	}

	h.cache.Invalidate(listCacheKey(userID))

	order := result.Order
	c.JSON(http.StatusOK, OrderResponse{
		ID:                order.ID,
		UserID:            order.UserID,
		ShippingAddressID: order.ShippingAddressID,
		TotalAmount:       order.TotalAmount,
		OrderStatus:       order.OrderStatus,
		PaymentStatus:     order.PaymentStatus,
		CreatedAt:         order.CreatedAt,
		Description:       result.PaymentDescription,
	})
}

// checkoutStatusCode maps the checkout error taxonomy onto HTTP statuses.
// Every failure keeps the single {"error": cause} shape.
func checkoutStatusCode(err error) int {
	switch {
	case errors.Is(err, orders.ErrInvalidOrderLines),
		errors.Is(err, razorpay.ErrSignatureMismatch):
		return http.StatusBadRequest
	case errors.Is(err, razorpay.ErrPaymentNotFound):
		return http.StatusPaymentRequired
	case errors.Is(err, orders.ErrPaymentConsumed):
		return http.StatusConflict
	case errors.Is(err, razorpay.ErrGatewayUnavailable),
		errors.Is(err, razorpay.ErrProtocol):
		return http.StatusFailedDependency
	default:
		return http.StatusInternalServerError
	}
}

type listOrdersResponse struct {
	Total  int            `json:"total"`
	Orders []orders.Order `json:"orders"`
}

func (h *Handler) ListOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userID, ok := userIDFromClaims(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "offset must be >= 0"})
		return
	}

	// Only the default first page is cached; it is what the dashboard polls.
	cacheable := limit == 10 && offset == 0
	if cacheable {
		if v, ok := h.cache.Get(listCacheKey(userID)); ok {
			c.JSON(http.StatusOK, v)
			return
		}
	}

	results, total, err := h.o.ListOrders(c.Request.Context(), userID, limit, offset)
	if err != nil {
		slog.Error("error listing orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}

	resp := listOrdersResponse{Total: total, Orders: results}
	if cacheable {
		h.cache.Set(listCacheKey(userID), resp, listCacheTTL)
	}
	c.JSON(http.StatusOK, resp)
}

func listCacheKey(userID int64) string {
	return fmt.Sprintf("orders:user:%d", userID)
}

// invoicePayload is the document contract sent to the invoice-renderer
// collaborator, which resolves user and address details itself.
type invoicePayload struct {
	Order    orders.Order       `json:"order"`
	Items    []orders.OrderItem `json:"items"`
	Payment  orders.Payment     `json:"payment"`
	Shipment orders.Shipment    `json:"shipment"`
}

func (h *Handler) DownloadInvoice(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	userID, ok := userIDFromClaims(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
		return
	}

	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || orderID <= 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	ctx := c.Request.Context()
	order, err := h.o.GetOrder(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, orders.ErrOrderNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error fetching order", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}

	items, err := h.o.GetOrderItems(ctx, orderID)
	if err != nil || len(items) == 0 {
		slog.Error("error fetching order items", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, orderID))
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "No items found for this order"})
		return
	}

	payment, err := h.o.GetPayment(ctx, orderID)
	if err != nil {
		slog.Error("error fetching payment", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, orderID))
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Payment information not found"})
		return
	}

	shipment, err := h.o.GetShipment(ctx, orderID)
	if err != nil {
		slog.Error("error fetching shipment", slog.String(logkey.TraceID, traceId), slog.Int64(logkey.OrderID, orderID))
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Shipment information not found"})
		return
	}

	pdf, err := h.renderInvoice(ctx, invoicePayload{
		Order:    order,
		Items:    items,
		Payment:  payment,
		Shipment: shipment,
	}, c.Request.Header.Get("Authorization"))
	if err != nil {
		slog.Error("error rendering invoice", slog.String(logkey.TraceID, traceId), slog.String(logkey.Error, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invoice"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice-%06d.pdf", orderID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// renderInvoice discovers the invoice-renderer collaborator via consul and
// asks it to produce the PDF for the assembled order document.
func (h *Handler) renderInvoice(ctx context.Context, payload invoicePayload, authHeader string) ([]byte, error) {
	address, port, err := consul.GetServiceAddress(h.client, "invoice-renderer")
	if err != nil {
		return nil, fmt.Errorf("invoice renderer unavailable: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("error marshaling invoice payload: %w", err)
	}

	renderURL := fmt.Sprintf("http://%s:%d/invoices/render", address, port)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, renderURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Authorization", authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling invoice renderer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("invoice renderer returned %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func userIDFromClaims(c *gin.Context) (int64, bool) {
	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		return 0, false
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, false
	}
	return userID, true
}
