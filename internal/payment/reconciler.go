package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"courtslot/internal/logger"
	"courtslot/internal/metrics"
	"courtslot/internal/reservation"
)

var ErrSignatureMismatch = errors.New("signature mismatch")

const (
	eventPaymentCaptured = "payment.captured"
	eventOrderPaid       = "order.paid"
)

// Notifier is told about confirmations that actually changed rows.
type Notifier interface {
	BookingConfirmed(ctx context.Context, rows []reservation.Reservation)
}

// Reconciler drives reservations to confirmed from the two payment
// confirmation paths. Both paths may fire for the same order, in any order
// and more than once; the store's conditional update makes that safe.
type Reconciler struct {
	repo          reservation.Repository
	keySecret     string
	webhookSecret string
	notifier      Notifier
}

func NewReconciler(repo reservation.Repository, keySecret, webhookSecret string, notifier Notifier) *Reconciler {
	return &Reconciler{
		repo:          repo,
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
		notifier:      notifier,
	}
}

// ConfirmFromClientCallback verifies the checkout-completion signature the
// client relays from the processor: HMAC-SHA256 over "orderID|paymentID"
// with the API key secret.
func (r *Reconciler) ConfirmFromClientCallback(ctx context.Context, orderID, paymentID, signature string) error {
	if !verifySignature(r.keySecret, []byte(orderID+"|"+paymentID), signature) {
		metrics.RecordSignatureFailure("callback")
		logger.Error("Rejected client payment callback: bad signature", "order_id", orderID)
		return ErrSignatureMismatch
	}

	return r.confirm(ctx, orderID, paymentID, "callback")
}

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity struct {
				ID string `json:"id"`
			} `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

// ConfirmFromWebhook verifies the webhook signature (HMAC-SHA256 over the
// raw body with the webhook secret, a separate credential from the key
// secret) and applies recognized paid events. Unrecognized or malformed
// events on a correctly signed request are acknowledged, not rejected, so
// the processor does not retry them forever.
func (r *Reconciler) ConfirmFromWebhook(ctx context.Context, rawBody []byte, signatureHeader string) error {
	if !verifySignature(r.webhookSecret, rawBody, signatureHeader) {
		metrics.RecordSignatureFailure("webhook")
		logger.Error("Rejected webhook: bad signature")
		return ErrSignatureMismatch
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		metrics.RecordWebhookEvent("unparseable", "ignored")
		logger.Errorf("Signed webhook body did not parse: %v", err)
		return nil
	}

	switch event.Event {
	case eventPaymentCaptured, eventOrderPaid:
	default:
		metrics.RecordWebhookEvent(event.Event, "ignored")
		return nil
	}

	orderID := event.Payload.Payment.Entity.OrderID
	if orderID == "" {
		orderID = event.Payload.Order.Entity.ID
	}
	paymentID := event.Payload.Payment.Entity.ID

	if orderID == "" || paymentID == "" {
		metrics.RecordWebhookEvent(event.Event, "incomplete")
		logger.Error("Paid event missing order or payment id", "event", event.Event)
		return nil
	}

	if err := r.confirm(ctx, orderID, paymentID, "webhook"); err != nil {
		metrics.RecordWebhookEvent(event.Event, "failed")
		return err
	}

	metrics.RecordWebhookEvent(event.Event, "processed")
	return nil
}

func (r *Reconciler) confirm(ctx context.Context, orderID, paymentID, source string) error {
	n, err := r.repo.MarkConfirmed(ctx, orderID, paymentID)
	if err != nil {
		return err
	}

	if n == 0 {
		// duplicate delivery, or the reservation already expired; late
		// confirmations are not resurrected, the charge is refunded
		// out-of-band
		logger.Info("Payment confirmation changed no rows",
			"order_id", orderID, "payment_id", paymentID, "source", source)
		return nil
	}

	metrics.RecordPaymentConfirmed(source)
	logger.Infof("Confirmed %d reservation(s) for order %s via %s", n, orderID, source)

	if r.notifier != nil {
		rows, err := r.repo.GetByExternalOrder(ctx, orderID)
		if err != nil {
			logger.Errorf("Could not load confirmed reservations for %s: %v", orderID, err)
			return nil
		}
		r.notifier.BookingConfirmed(ctx, rows)
	}

	return nil
}

func signHex(secret string, data []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(secret string, data []byte, provided string) bool {
	expected := signHex(secret, data)
	return hmac.Equal([]byte(expected), []byte(provided))
}
