package payment

import (
	"context"
	"errors"
)

var (
	// ErrGatewayUnavailable covers transport failures and 5xx responses
	// after the single retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrGatewayRejected covers 4xx rejections of the order request.
	ErrGatewayRejected = errors.New("payment gateway rejected order")
)

// GatewayOrder is the processor-side handle for one checkout.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// Gateway creates payment orders at the external processor. The receipt key
// ties the order back to the first reservation of the batch.
type Gateway interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency, receipt string, notes map[string]string) (*GatewayOrder, error)
}
