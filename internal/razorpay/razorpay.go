// Package razorpay wraps the subset of the Razorpay REST API this service
// depends on: fetching authoritative payment facts, creating payment orders
// and verifying checkout signatures. The gateway is an external system; its
// answers are fetched and interpreted, never fabricated.
package razorpay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://api.razorpay.com"

// PaymentStatusCaptured is the gateway status for a successfully captured
// payment. Any other status means the checkout's payment failed.
const PaymentStatusCaptured = "captured"

var (
	// ErrGatewayUnavailable covers network errors, timeouts and 5xx answers.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrPaymentNotFound means the gateway does not know the payment reference.
	ErrPaymentNotFound = errors.New("payment not found at gateway")
	// ErrProtocol covers malformed or unexpected gateway responses.
	ErrProtocol = errors.New("unexpected payment gateway response")
	// ErrSignatureMismatch means the checkout signature does not match the
	// order/payment pair and the request cannot be trusted.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
)

// PaymentFacts is what the gateway reports for one payment. Amount is in the
// minor currency unit (paise).
type PaymentFacts struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// PaymentOrder is a gateway-side order against which the client collects a
// payment before calling checkout.
type PaymentOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
}

func NewClient(baseURL, keyID, keySecret string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
	}
}

// FetchPayment retrieves the authoritative status, amount and method for a
// payment reference supplied by the client.
func (c *Client) FetchPayment(ctx context.Context, paymentID string) (PaymentFacts, error) {
	url := fmt.Sprintf("%s/v1/payments/%s", c.baseURL, paymentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return PaymentFacts{}, fmt.Errorf("error creating request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PaymentFacts{}, fmt.Errorf("%w: %s", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNotFound:
		return PaymentFacts{}, fmt.Errorf("%w: %s", ErrPaymentNotFound, paymentID)
	case resp.StatusCode >= http.StatusInternalServerError:
		return PaymentFacts{}, fmt.Errorf("%w: status %s", ErrGatewayUnavailable, resp.Status)
	default:
		return PaymentFacts{}, fmt.Errorf("%w: status %s", ErrProtocol, resp.Status)
	}

	var facts PaymentFacts
	if err := json.NewDecoder(resp.Body).Decode(&facts); err != nil {
		return PaymentFacts{}, fmt.Errorf("%w: decoding body: %s", ErrProtocol, err)
	}
	if facts.ID == "" || facts.Status == "" {
		return PaymentFacts{}, fmt.Errorf("%w: missing payment id or status", ErrProtocol)
	}

	return facts, nil
}

// CreateOrder registers a payment order at the gateway for the given amount
// in major currency units. The gateway expects the minor unit.
func (c *Client) CreateOrder(ctx context.Context, amount decimal.Decimal, currency string) (PaymentOrder, error) {
	payload := map[string]interface{}{
		"amount":          amount.Shift(2).IntPart(),
		"currency":        currency,
		"receipt":         "receipt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10],
		"payment_capture": 1,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return PaymentOrder{}, fmt.Errorf("error marshaling order payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/orders", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return PaymentOrder{}, fmt.Errorf("error creating request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return PaymentOrder{}, fmt.Errorf("%w: %s", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return PaymentOrder{}, fmt.Errorf("%w: status %s", ErrGatewayUnavailable, resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return PaymentOrder{}, fmt.Errorf("%w: status %s", ErrProtocol, resp.Status)
	}

	var order PaymentOrder
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return PaymentOrder{}, fmt.Errorf("%w: decoding body: %s", ErrProtocol, err)
	}

	return order, nil
}

// VerifyWebhookSignature checks the signature the gateway attaches to
// webhook deliveries: HMAC-SHA256 of the raw body with the webhook secret.
func VerifyWebhookSignature(secret string, body []byte, signature string) error {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// VerifySignature checks the HMAC-SHA256 signature the gateway hands the
// client after a successful payment. Gateway facts are only trusted for a
// request whose signature matches.
func (c *Client) VerifySignature(paymentOrderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(paymentOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
