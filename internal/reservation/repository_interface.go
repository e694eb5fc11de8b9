package reservation

import (
	"context"
	"time"

	"courtslot/internal/slot"
)

type Repository interface {
	ReserveBatch(ctx context.Context, courtID string, slots []slot.TimeSlot, customer Customer, sport string) ([]Reservation, error)
	AttachExternalOrder(ctx context.Context, reservationIDs []string, externalOrderID string) error
	MarkConfirmed(ctx context.Context, externalOrderID, externalPaymentID string) (int64, error)
	ExpirePendingOlderThan(ctx context.Context, ttl time.Duration) (int64, error)
	ListByDate(ctx context.Context, courtID, dateKey string) ([]Reservation, error)
	GetByExternalOrder(ctx context.Context, externalOrderID string) ([]Reservation, error)
}
