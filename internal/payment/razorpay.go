package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"courtslot/internal/logger"
)

type RazorpayClient struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

func NewRazorpayClient(baseURL, keyID, keySecret string, timeout time.Duration) *RazorpayClient {
	return &RazorpayClient{
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type razorpayOrderRequest struct {
	Amount         int64             `json:"amount"`
	Currency       string            `json:"currency"`
	Receipt        string            `json:"receipt"`
	PaymentCapture int               `json:"payment_capture"`
	Notes          map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Error    struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder posts an order to the processor. One retry on transport errors
// and 5xx responses; 4xx rejections are final.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error) {
	payload, err := json.Marshal(razorpayOrderRequest{
		Amount:         amountMinorUnits,
		Currency:       currency,
		Receipt:        receipt,
		PaymentCapture: 1,
		Notes:          notes,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			logger.Infof("Retrying gateway order creation (receipt=%s)", receipt)
		}

		order, retryable, err := c.postOrder(ctx, payload)
		if err == nil {
			return order, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
		if ctx.Err() != nil {
			break
		}
	}

	return nil, lastErr
}

func (c *RazorpayClient) postOrder(ctx context.Context, payload []byte) (*GatewayOrder, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, false, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	var body razorpayOrderResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&body); decodeErr != nil && resp.StatusCode < 300 {
		return nil, false, fmt.Errorf("decode order response: %w", decodeErr)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 300:
		return nil, false, fmt.Errorf("%w: %s", ErrGatewayRejected, body.Error.Description)
	}

	if body.ID == "" {
		return nil, false, fmt.Errorf("%w: empty order id", ErrGatewayRejected)
	}

	return &GatewayOrder{ID: body.ID, Amount: body.Amount, Currency: body.Currency}, false, nil
}
