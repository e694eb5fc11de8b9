package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"courtslot/internal/slot"
)

const reservationColumns = `id, court_id, sport, date_key, start_minute, duration_minutes,
		customer_name, customer_phone, customer_email, notes,
		status, payment_status, external_order_id, external_payment_id,
		created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// ReserveBatch inserts one pending row per slot inside a single transaction.
// Conflicting inserts for the same court and day are serialized with an
// advisory transaction lock, and every insert is guarded by an overlap check
// against pending and confirmed rows. Any conflict rolls back the whole
// batch; the partial unique index on the slot key backstops exact duplicates
// racing from other service instances.
func (r *repository) ReserveBatch(ctx context.Context, courtID string, slots []slot.TimeSlot, customer Customer, sport string) ([]Reservation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin reserve batch: %w", err)
	}
	defer tx.Rollback()

	locked := make(map[string]bool, len(slots))
	for _, s := range slots {
		key := courtID + ":" + s.DateKey
		if locked[key] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return nil, fmt.Errorf("acquire court-day lock: %w", err)
		}
		locked[key] = true
	}

	insert := `
		INSERT INTO reservations
			(court_id, sport, date_key, start_minute, duration_minutes,
			 customer_name, customer_phone, customer_email, notes)
		SELECT $1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, '')
		WHERE NOT EXISTS (
			SELECT 1 FROM reservations
			WHERE court_id = $1
			  AND date_key = $3
			  AND status IN ('pending', 'confirmed')
			  AND start_minute < $4 + $5
			  AND $4 < start_minute + duration_minutes
		)
		RETURNING ` + reservationColumns

	reserved := make([]Reservation, 0, len(slots))
	var conflicts []slot.TimeSlot
	for _, s := range slots {
		var row Reservation
		err := tx.GetContext(ctx, &row, insert,
			courtID, sport, s.DateKey, s.StartMinute, s.DurationMinutes,
			customer.Name, customer.Phone, customer.Email, customer.Notes)
		if errors.Is(err, sql.ErrNoRows) {
			conflicts = append(conflicts, s)
			continue
		}
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == "23505" {
				// duplicate slot key from a concurrent insert; the tx is
				// aborted at this point, so report and stop
				return nil, &ConflictError{Slots: []slot.TimeSlot{s}}
			}
			return nil, fmt.Errorf("insert reservation: %w", err)
		}
		reserved = append(reserved, row)
	}

	if len(conflicts) > 0 {
		return nil, &ConflictError{Slots: conflicts}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reserve batch: %w", err)
	}

	return reserved, nil
}

func (r *repository) AttachExternalOrder(ctx context.Context, reservationIDs []string, externalOrderID string) error {
	query := `
		UPDATE reservations
		SET external_order_id = $1, updated_at = now()
		WHERE id = ANY($2)
	`

	_, err := r.db.ExecContext(ctx, query, externalOrderID, pq.Array(reservationIDs))
	if err != nil {
		return fmt.Errorf("attach external order: %w", err)
	}

	return nil
}

// MarkConfirmed is a conditional update keyed by the external order id.
// Only pending rows transition, so duplicate deliveries and confirmations
// arriving after expiry affect zero rows and report that without error.
func (r *repository) MarkConfirmed(ctx context.Context, externalOrderID, externalPaymentID string) (int64, error) {
	query := `
		UPDATE reservations
		SET status = 'confirmed', payment_status = 'paid',
		    external_payment_id = $2, updated_at = now()
		WHERE external_order_id = $1 AND status = 'pending'
	`

	result, err := r.db.ExecContext(ctx, query, externalOrderID, externalPaymentID)
	if err != nil {
		return 0, fmt.Errorf("mark confirmed: %w", err)
	}

	return result.RowsAffected()
}

func (r *repository) ExpirePendingOlderThan(ctx context.Context, ttl time.Duration) (int64, error) {
	query := `
		UPDATE reservations
		SET status = 'expired', updated_at = now()
		WHERE status = 'pending' AND payment_status = 'unpaid' AND created_at < $1
	`

	result, err := r.db.ExecContext(ctx, query, time.Now().Add(-ttl))
	if err != nil {
		return 0, fmt.Errorf("expire pending reservations: %w", err)
	}

	return result.RowsAffected()
}

// ListByDate returns the slot-holding rows for a court and day, the rows the
// no-overlap check counts against.
func (r *repository) ListByDate(ctx context.Context, courtID, dateKey string) ([]Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE court_id = $1 AND date_key = $2 AND status IN ('pending', 'confirmed')
		ORDER BY start_minute
	`

	var rows []Reservation
	if err := r.db.SelectContext(ctx, &rows, query, courtID, dateKey); err != nil {
		return nil, fmt.Errorf("list reservations by date: %w", err)
	}

	return rows, nil
}

func (r *repository) GetByExternalOrder(ctx context.Context, externalOrderID string) ([]Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE external_order_id = $1
		ORDER BY date_key, start_minute
	`

	var rows []Reservation
	if err := r.db.SelectContext(ctx, &rows, query, externalOrderID); err != nil {
		return nil, fmt.Errorf("get reservations by order: %w", err)
	}

	return rows, nil
}
