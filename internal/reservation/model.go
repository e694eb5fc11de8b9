package reservation

import (
	"fmt"
	"strings"
	"time"

	"courtslot/internal/slot"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"

	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"

	SportPadel      = "padel"
	SportPickleball = "pickleball"
)

// Customer is the contact captured with a booking. Guests book by name and
// phone; email and notes are optional.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`
}

type Reservation struct {
	ID      string `db:"id" json:"id"`
	CourtID string `db:"court_id" json:"court_id"`
	Sport   string `db:"sport" json:"sport"`

	slot.TimeSlot

	CustomerName  string  `db:"customer_name" json:"customer_name"`
	CustomerPhone string  `db:"customer_phone" json:"customer_phone"`
	CustomerEmail *string `db:"customer_email" json:"customer_email,omitempty"`
	Notes         *string `db:"notes" json:"notes,omitempty"`

	Status        string `db:"status" json:"status"`
	PaymentStatus string `db:"payment_status" json:"payment_status"`

	ExternalOrderID   *string `db:"external_order_id" json:"external_order_id,omitempty"`
	ExternalPaymentID *string `db:"external_payment_id" json:"external_payment_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ConflictError reports the slots of a batch that collide with existing
// pending or confirmed reservations. The whole batch is rejected.
type ConflictError struct {
	Slots []slot.TimeSlot
}

func (e *ConflictError) Error() string {
	labels := make([]string, len(e.Slots))
	for i, s := range e.Slots {
		labels[i] = s.String()
	}
	return fmt.Sprintf("slot unavailable: %s", strings.Join(labels, ", "))
}
