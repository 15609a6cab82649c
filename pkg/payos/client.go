package payos

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultBaseURL is the PayOS merchant API endpoint
	DefaultBaseURL = "https://api-merchant.payos.vn"

	// MinAmount is the smallest amount (VND) PayOS accepts for a payment link
	MinAmount = 2000

	// MaxDescriptionLength is the longest description PayOS accepts
	MaxDescriptionLength = 25
)

// Payment statuses reported by PayOS. PAID/SUCCESS/COMPLETED are
// terminal success, CANCELLED/FAILED/EXPIRED are terminal failure,
// anything else means the payment is still in flight.
const (
	StatusPaid       = "PAID"
	StatusSuccess    = "SUCCESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusFailed     = "FAILED"
	StatusExpired    = "EXPIRED"
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
)

// IsTerminalSuccess reports whether a provider status means the payment settled
func IsTerminalSuccess(status string) bool {
	switch strings.ToUpper(status) {
	case StatusPaid, StatusSuccess, StatusCompleted:
		return true
	}
	return false
}

// IsTerminalFailure reports whether a provider status means the payment
// will never settle
func IsTerminalFailure(status string) bool {
	switch strings.ToUpper(status) {
	case StatusCancelled, StatusFailed, StatusExpired:
		return true
	}
	return false
}

// Config holds PayOS merchant credentials and redirect URLs
type Config struct {
	BaseURL     string // defaults to DefaultBaseURL
	ClientID    string
	APIKey      string
	ChecksumKey string // SECRET - used for request signatures, never sent
	ReturnURL   string // where the customer lands after paying
	CancelURL   string // where the customer lands after cancelling
}

// Client talks to the PayOS merchant API
type Client struct {
	config Config
	logger *logrus.Logger
	client *http.Client
}

// NewClient creates a new PayOS client
func NewClient(cfg Config, logger *logrus.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		config: cfg,
		logger: logger,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsConfigured returns true if merchant credentials are present
func (c *Client) IsConfigured() bool {
	return c.config.ClientID != "" && c.config.APIKey != "" && c.config.ChecksumKey != ""
}

// Signature computes the HMAC-SHA256 request signature over the
// canonical data string. Keys appear in this exact order with raw,
// unencoded values:
//
//	amount={amount}&cancelUrl={cancelUrl}&description={description}&orderCode={orderCode}&returnUrl={returnUrl}
//
// The digest is hex-encoded lowercase.
func (c *Client) Signature(amount int64, cancelURL, description string, orderCode int64, returnURL string) string {
	data := fmt.Sprintf("amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		amount, cancelURL, description, orderCode, returnURL)
	mac := hmac.New(sha256.New, []byte(c.config.ChecksumKey))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// NormalizeAmount rounds an estimated cost to the nearest integer VND
// and floors it to the PayOS minimum.
func NormalizeAmount(amount float64) int64 {
	n := int64(math.Round(amount))
	if n < MinAmount {
		n = MinAmount
	}
	return n
}

// TruncateDescription trims a checkout description to the PayOS limit
func TruncateDescription(description string) string {
	if len(description) > MaxDescriptionLength {
		return description[:MaxDescriptionLength]
	}
	return description
}

// paymentLinkRequest is the request body for POST /v2/payment-requests
type paymentLinkRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

// apiResponse is the PayOS response envelope
type apiResponse struct {
	Code string           `json:"code"`
	Desc string           `json:"desc"`
	Data *paymentLinkData `json:"data"`
}

type paymentLinkData struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkoutUrl"`
	PaymentLink string `json:"paymentLinkId"`
}

// CreatePaymentLink builds a signed checkout request and returns the
// provider's checkout URL. The amount is normalized to integer VND and
// floored to the provider minimum; the description is truncated to the
// provider maximum before signing.
func (c *Client) CreatePaymentLink(orderCode int64, amount float64, description string) (string, error) {
	if !c.IsConfigured() {
		return "", fmt.Errorf("payment gateway not configured: missing merchant credentials")
	}

	amountVND := NormalizeAmount(amount)
	description = TruncateDescription(description)

	request := &paymentLinkRequest{
		OrderCode:   orderCode,
		Amount:      amountVND,
		Description: description,
		ReturnURL:   c.config.ReturnURL,
		CancelURL:   c.config.CancelURL,
		Signature:   c.Signature(amountVND, c.config.CancelURL, description, orderCode, c.config.ReturnURL),
	}

	c.logger.WithFields(logrus.Fields{
		"order_code": orderCode,
		"amount":     amountVND,
	}).Info("Creating PayOS payment link")

	body, err := c.post("/v2/payment-requests", request)
	if err != nil {
		return "", err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to parse payment response: %w", err)
	}

	if resp.Data == nil || resp.Data.CheckoutURL == "" {
		errMsg := resp.Desc
		if errMsg == "" {
			errMsg = fmt.Sprintf("code=%s, raw=%s", resp.Code, string(body))
		}
		return "", fmt.Errorf("payment link creation failed: %s", errMsg)
	}

	c.logger.WithFields(logrus.Fields{
		"order_code":   orderCode,
		"checkout_url": resp.Data.CheckoutURL,
	}).Info("PayOS payment link created")

	return resp.Data.CheckoutURL, nil
}

// GetPaymentStatus queries the current provider status for an order code
func (c *Client) GetPaymentStatus(orderCode int64) (string, error) {
	url := fmt.Sprintf("%s/v2/payment-requests/%d", c.config.BaseURL, orderCode)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build status request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to query payment status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read status response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	var statusResp apiResponse
	if err := json.Unmarshal(body, &statusResp); err != nil {
		return "", fmt.Errorf("failed to parse status response: %w", err)
	}

	if statusResp.Data == nil || statusResp.Data.Status == "" {
		errMsg := statusResp.Desc
		if errMsg == "" {
			errMsg = fmt.Sprintf("code=%s, raw=%s", statusResp.Code, string(body))
		}
		return "", fmt.Errorf("status check failed: %s", errMsg)
	}

	return strings.ToUpper(statusResp.Data.Status), nil
}

func (c *Client) post(path string, payload interface{}) ([]byte, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.config.BaseURL+path, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call payment gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.config.ClientID)
	req.Header.Set("x-api-key", c.config.APIKey)
}
