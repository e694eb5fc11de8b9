package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"courtslot/internal/logger"
	"courtslot/internal/metrics"
	"courtslot/internal/payment"
	"courtslot/internal/reservation"
	"courtslot/internal/slot"
)

var (
	ErrMissingContact   = errors.New("name and phone are required")
	ErrNoSlots          = errors.New("at least one slot is required")
	ErrUnknownSport     = errors.New("sport must be padel or pickleball")
	ErrBadDuration      = errors.New("slot duration does not match the session length")
	ErrBadDateKey       = errors.New("slot date must be YYYY-MM-DD")
	ErrSlotInPast       = errors.New("cannot book a slot in the past")
	ErrSlotOutsideHours = errors.New("slot is outside opening hours")
	ErrDuplicateSlot    = errors.New("duplicate slot in request")

	// ErrGatewayFailure means the slots were reserved but no payment order
	// exists. The rows stay pending and are freed by the TTL sweep unless
	// the client retries in time.
	ErrGatewayFailure = errors.New("failed to create payment order")
)

// validationErrors lists the request errors handlers map to a 400.
var validationErrors = []error{
	ErrMissingContact, ErrNoSlots, ErrUnknownSport, ErrBadDuration,
	ErrBadDateKey, ErrSlotInPast, ErrSlotOutsideHours, ErrDuplicateSlot,
}

// IsValidationError reports whether err is a request validation failure.
func IsValidationError(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}

type SlotRequest struct {
	DateKey string `json:"date_key" binding:"required"`
	Start   int    `json:"start" binding:"min=0,max=1439"`
}

type CreateOrderRequest struct {
	Name        string        `json:"name" binding:"required"`
	Phone       string        `json:"phone" binding:"required"`
	Email       string        `json:"email" binding:"omitempty,email"`
	Notes       string        `json:"notes"`
	Sport       string        `json:"sport" binding:"required"`
	SlotMinutes int           `json:"slot_minutes" binding:"required"`
	Slots       []SlotRequest `json:"slots" binding:"required,dive"`
}

// OrderHandle is what the client needs to open the processor's checkout.
type OrderHandle struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"key_id"`
}

type SlotAvailability struct {
	Start  int  `json:"start"`
	Booked bool `json:"booked"`
	Past   bool `json:"past"`
}

type DayAvailability struct {
	CourtID     string             `json:"court_id"`
	DateKey     string             `json:"date"`
	SlotMinutes int                `json:"slot_minutes"`
	Slots       []SlotAvailability `json:"slots"`
}

// Settings carries the pricing and schedule configuration of the court.
type Settings struct {
	CourtID                  string
	OpeningMinute            int
	ClosingMinute            int
	SessionMinutes           int
	PricePerMinutePadel      int64
	PricePerMinutePickleball int64
	MinimumCharge            int64
	Currency                 string
	GatewayKeyID             string
}

type Service interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderHandle, error)
	Availability(ctx context.Context, courtID, dateKey string, slotMinutes int) (*DayAvailability, error)
}

type service struct {
	repo     reservation.Repository
	gateway  payment.Gateway
	settings Settings
	now      func() time.Time
}

func NewService(repo reservation.Repository, gateway payment.Gateway, settings Settings) Service {
	return &service{
		repo:     repo,
		gateway:  gateway,
		settings: settings,
		now:      time.Now,
	}
}

// CreateOrder validates the request, atomically holds the slots, prices the
// checkout and obtains a processor order. If the gateway call fails the
// reserved rows are deliberately left pending: the client can retry the
// payment order against the same hold, and the TTL sweep frees the slots if
// nobody pays.
func (s *service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*OrderHandle, error) {
	slots, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	customer := reservation.Customer{
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
		Notes: req.Notes,
	}

	reserved, err := s.repo.ReserveBatch(ctx, s.settings.CourtID, slots, customer, req.Sport)
	if err != nil {
		var conflict *reservation.ConflictError
		if errors.As(err, &conflict) {
			metrics.RecordSlotConflict()
		}
		return nil, err
	}

	amount := s.computeAmount(req.Sport, req.SlotMinutes, len(slots))

	gwOrder, err := s.gateway.CreateOrder(ctx, amount, s.settings.Currency, reserved[0].ID, map[string]string{
		"court_id": s.settings.CourtID,
		"sport":    req.Sport,
	})
	if err != nil {
		logger.Errorf("Gateway order creation failed for reservation %s: %v", reserved[0].ID, err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	ids := make([]string, len(reserved))
	for i, row := range reserved {
		ids[i] = row.ID
	}
	if err := s.repo.AttachExternalOrder(ctx, ids, gwOrder.ID); err != nil {
		// the hold and the processor order both exist; without the link the
		// confirmation paths cannot find the rows, so fail loudly
		logger.Errorf("Failed to attach order %s to reservations %v: %v", gwOrder.ID, ids, err)
		return nil, err
	}

	metrics.RecordOrderCreated(req.Sport)
	logger.Infof("Created order %s: %d slot(s), %d %s", gwOrder.ID, len(slots), amount, s.settings.Currency)

	return &OrderHandle{
		OrderID:  gwOrder.ID,
		Amount:   gwOrder.Amount,
		Currency: gwOrder.Currency,
		KeyID:    s.settings.GatewayKeyID,
	}, nil
}

func (s *service) validate(req CreateOrderRequest) ([]slot.TimeSlot, error) {
	if req.Name == "" || req.Phone == "" {
		return nil, ErrMissingContact
	}
	if len(req.Slots) == 0 {
		return nil, ErrNoSlots
	}
	if req.Sport != reservation.SportPadel && req.Sport != reservation.SportPickleball {
		return nil, ErrUnknownSport
	}
	if req.SlotMinutes != s.settings.SessionMinutes {
		return nil, fmt.Errorf("%w: want %d minutes", ErrBadDuration, s.settings.SessionMinutes)
	}

	now := s.now()
	today := slot.DateKey(now)

	slots := make([]slot.TimeSlot, 0, len(req.Slots))
	for _, sr := range req.Slots {
		if !slot.ValidDateKey(sr.DateKey) {
			return nil, fmt.Errorf("%w: %q", ErrBadDateKey, sr.DateKey)
		}

		ts := slot.TimeSlot{DateKey: sr.DateKey, StartMinute: sr.Start, DurationMinutes: req.SlotMinutes}

		if ts.DateKey < today || slot.IsPast(ts, now) {
			return nil, fmt.Errorf("%w: %s", ErrSlotInPast, ts)
		}
		if !slot.FitsWindow(ts, s.settings.OpeningMinute, s.settings.ClosingMinute) {
			return nil, fmt.Errorf("%w: %s", ErrSlotOutsideHours, ts)
		}
		for _, existing := range slots {
			if slot.Overlaps(existing, ts) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateSlot, ts)
			}
		}

		slots = append(slots, ts)
	}

	return slots, nil
}

func (s *service) computeAmount(sport string, slotMinutes, slotCount int) int64 {
	perMinute := s.settings.PricePerMinutePadel
	if sport == reservation.SportPickleball {
		perMinute = s.settings.PricePerMinutePickleball
	}

	total := perMinute * int64(slotMinutes) * int64(slotCount)
	if total < s.settings.MinimumCharge {
		return s.settings.MinimumCharge
	}
	return total
}

// Availability reports, for every candidate start of the day, whether an
// existing hold overlaps it and whether it already started. This is the
// server-derived state the booking UI greys slots out from.
func (s *service) Availability(ctx context.Context, courtID, dateKey string, slotMinutes int) (*DayAvailability, error) {
	if !slot.ValidDateKey(dateKey) {
		return nil, fmt.Errorf("%w: %q", ErrBadDateKey, dateKey)
	}
	if courtID == "" {
		courtID = s.settings.CourtID
	}
	if slotMinutes <= 0 {
		slotMinutes = s.settings.SessionMinutes
	}

	booked, err := s.repo.ListByDate(ctx, courtID, dateKey)
	if err != nil {
		return nil, err
	}

	now := s.now()
	starts := slot.Enumerate(slotMinutes, s.settings.OpeningMinute, s.settings.ClosingMinute)
	day := &DayAvailability{
		CourtID:     courtID,
		DateKey:     dateKey,
		SlotMinutes: slotMinutes,
		Slots:       make([]SlotAvailability, 0, len(starts)),
	}

	for _, start := range starts {
		candidate := slot.TimeSlot{DateKey: dateKey, StartMinute: start, DurationMinutes: slotMinutes}

		isBooked := false
		for _, row := range booked {
			if slot.Overlaps(candidate, row.TimeSlot) {
				isBooked = true
				break
			}
		}

		day.Slots = append(day.Slots, SlotAvailability{
			Start:  start,
			Booked: isBooked,
			Past:   candidate.DateKey < slot.DateKey(now) || slot.IsPast(candidate, now),
		})
	}

	return day, nil
}
