package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"courtslot/internal/payment"
	"courtslot/internal/reservation"
	"courtslot/internal/slot"
)

type MockRepo struct{ mock.Mock }

func (m *MockRepo) ReserveBatch(ctx context.Context, courtID string, slots []slot.TimeSlot, customer reservation.Customer, sport string) ([]reservation.Reservation, error) {
	args := m.Called(ctx, courtID, slots, customer, sport)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Reservation), args.Error(1)
}

func (m *MockRepo) AttachExternalOrder(ctx context.Context, ids []string, orderID string) error {
	return m.Called(ctx, ids, orderID).Error(0)
}

func (m *MockRepo) MarkConfirmed(ctx context.Context, orderID, paymentID string) (int64, error) {
	args := m.Called(ctx, orderID, paymentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepo) ExpirePendingOlderThan(ctx context.Context, ttl time.Duration) (int64, error) {
	args := m.Called(ctx, ttl)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepo) ListByDate(ctx context.Context, courtID, dateKey string) ([]reservation.Reservation, error) {
	args := m.Called(ctx, courtID, dateKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Reservation), args.Error(1)
}

func (m *MockRepo) GetByExternalOrder(ctx context.Context, orderID string) ([]reservation.Reservation, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.Reservation), args.Error(1)
}

type MockGateway struct{ mock.Mock }

func (m *MockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*payment.GatewayOrder, error) {
	args := m.Called(ctx, amount, currency, receipt, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayOrder), args.Error(1)
}

func testSettings() Settings {
	return Settings{
		CourtID:                  "court-1",
		OpeningMinute:            360,
		ClosingMinute:            1380,
		SessionMinutes:           60,
		PricePerMinutePadel:      700,
		PricePerMinutePickleball: 500,
		MinimumCharge:            1000,
		Currency:                 "INR",
		GatewayKeyID:             "rzp_test_key",
	}
}

func futureDate() string {
	return slot.DateKey(time.Now().AddDate(0, 0, 7))
}

func reservedRows(ids []string, slots []slot.TimeSlot) []reservation.Reservation {
	rows := make([]reservation.Reservation, len(ids))
	for i := range ids {
		rows[i] = reservation.Reservation{
			ID:       ids[i],
			CourtID:  "court-1",
			Sport:    reservation.SportPadel,
			TimeSlot: slots[i],
			Status:   reservation.StatusPending,
		}
	}
	return rows
}

func TestCreateOrder_TwoSlotsPadel(t *testing.T) {
	repo := new(MockRepo)
	gw := new(MockGateway)
	svc := NewService(repo, gw, testSettings())

	date := futureDate()
	slots := []slot.TimeSlot{
		{DateKey: date, StartMinute: 540, DurationMinutes: 60},
		{DateKey: date, StartMinute: 600, DurationMinutes: 60},
	}

	repo.On("ReserveBatch", mock.Anything, "court-1", slots,
		reservation.Customer{Name: "Asha", Phone: "9876500000"}, "padel").
		Return(reservedRows([]string{"r1", "r2"}, slots), nil)

	// max(1000, 700*60*2) = 84000 minor units
	gw.On("CreateOrder", mock.Anything, int64(84000), "INR", "r1",
		map[string]string{"court_id": "court-1", "sport": "padel"}).
		Return(&payment.GatewayOrder{ID: "order_ABC", Amount: 84000, Currency: "INR"}, nil)

	repo.On("AttachExternalOrder", mock.Anything, []string{"r1", "r2"}, "order_ABC").Return(nil)

	handle, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Name:        "Asha",
		Phone:       "9876500000",
		Sport:       "padel",
		SlotMinutes: 60,
		Slots: []SlotRequest{
			{DateKey: date, Start: 540},
			{DateKey: date, Start: 600},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "order_ABC", handle.OrderID)
	require.EqualValues(t, 84000, handle.Amount)
	require.Equal(t, "INR", handle.Currency)
	require.Equal(t, "rzp_test_key", handle.KeyID)

	repo.AssertExpectations(t)
	gw.AssertExpectations(t)
}

func TestCreateOrder_MinimumChargeFloor(t *testing.T) {
	settings := testSettings()
	settings.PricePerMinutePickleball = 10
	settings.MinimumCharge = 1000

	repo := new(MockRepo)
	gw := new(MockGateway)
	svc := NewService(repo, gw, settings)

	date := futureDate()
	slots := []slot.TimeSlot{{DateKey: date, StartMinute: 540, DurationMinutes: 60}}

	repo.On("ReserveBatch", mock.Anything, "court-1", slots, mock.Anything, "pickleball").
		Return(reservedRows([]string{"r1"}, slots), nil)
	// 10*60*1 = 600 is below the floor
	gw.On("CreateOrder", mock.Anything, int64(1000), "INR", "r1", mock.Anything).
		Return(&payment.GatewayOrder{ID: "order_X", Amount: 1000, Currency: "INR"}, nil)
	repo.On("AttachExternalOrder", mock.Anything, []string{"r1"}, "order_X").Return(nil)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Name: "Asha", Phone: "9876500000", Sport: "pickleball", SlotMinutes: 60,
		Slots: []SlotRequest{{DateKey: date, Start: 540}},
	})
	require.NoError(t, err)

	gw.AssertExpectations(t)
}

func TestCreateOrder_Validation(t *testing.T) {
	repo := new(MockRepo)
	gw := new(MockGateway)
	svc := NewService(repo, gw, testSettings())
	date := futureDate()

	tests := []struct {
		name    string
		req     CreateOrderRequest
		wantErr error
	}{
		{
			name:    "missing phone",
			req:     CreateOrderRequest{Name: "Asha", Sport: "padel", SlotMinutes: 60, Slots: []SlotRequest{{DateKey: date, Start: 540}}},
			wantErr: ErrMissingContact,
		},
		{
			name:    "no slots",
			req:     CreateOrderRequest{Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 60},
			wantErr: ErrNoSlots,
		},
		{
			name:    "unknown sport",
			req:     CreateOrderRequest{Name: "Asha", Phone: "9", Sport: "tennis", SlotMinutes: 60, Slots: []SlotRequest{{DateKey: date, Start: 540}}},
			wantErr: ErrUnknownSport,
		},
		{
			name:    "wrong duration",
			req:     CreateOrderRequest{Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 45, Slots: []SlotRequest{{DateKey: date, Start: 540}}},
			wantErr: ErrBadDuration,
		},
		{
			name:    "malformed date",
			req:     CreateOrderRequest{Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 60, Slots: []SlotRequest{{DateKey: "01-06-2024", Start: 540}}},
			wantErr: ErrBadDateKey,
		},
		{
			name:    "slot on an elapsed date",
			req:     CreateOrderRequest{Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 60, Slots: []SlotRequest{{DateKey: "2020-01-01", Start: 540}}},
			wantErr: ErrSlotInPast,
		},
		{
			name:    "before opening",
			req:     CreateOrderRequest{Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 60, Slots: []SlotRequest{{DateKey: date, Start: 300}}},
			wantErr: ErrSlotOutsideHours,
		},
		{
			name:    "past closing",
			req:     CreateOrderRequest{Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 60, Slots: []SlotRequest{{DateKey: date, Start: 1350}}},
			wantErr: ErrSlotOutsideHours,
		},
		{
			name: "duplicate slot",
			req: CreateOrderRequest{Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 60,
				Slots: []SlotRequest{{DateKey: date, Start: 540}, {DateKey: date, Start: 540}}},
			wantErr: ErrDuplicateSlot,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}

	repo.AssertNotCalled(t, "ReserveBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_ConflictPassthrough(t *testing.T) {
	repo := new(MockRepo)
	gw := new(MockGateway)
	svc := NewService(repo, gw, testSettings())

	date := futureDate()
	conflicted := slot.TimeSlot{DateKey: date, StartMinute: 540, DurationMinutes: 60}

	repo.On("ReserveBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &reservation.ConflictError{Slots: []slot.TimeSlot{conflicted}})

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 60,
		Slots: []SlotRequest{{DateKey: date, Start: 540}},
	})

	var conflict *reservation.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, 540, conflict.Slots[0].StartMinute)

	gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrder_GatewayFailureLeavesHold(t *testing.T) {
	repo := new(MockRepo)
	gw := new(MockGateway)
	svc := NewService(repo, gw, testSettings())

	date := futureDate()
	slots := []slot.TimeSlot{{DateKey: date, StartMinute: 540, DurationMinutes: 60}}

	repo.On("ReserveBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(reservedRows([]string{"r1"}, slots), nil)
	gw.On("CreateOrder", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, payment.ErrGatewayUnavailable)

	_, err := svc.CreateOrder(context.Background(), CreateOrderRequest{
		Name: "Asha", Phone: "9", Sport: "padel", SlotMinutes: 60,
		Slots: []SlotRequest{{DateKey: date, Start: 540}},
	})
	require.ErrorIs(t, err, ErrGatewayFailure)
	require.False(t, IsValidationError(err))

	// the hold stays pending; nothing is attached or released
	repo.AssertNotCalled(t, "AttachExternalOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestAvailability(t *testing.T) {
	repo := new(MockRepo)
	gw := new(MockGateway)
	svc := NewService(repo, gw, testSettings())

	date := futureDate()
	booked := reservedRows([]string{"r1"},
		[]slot.TimeSlot{{DateKey: date, StartMinute: 600, DurationMinutes: 60}})

	repo.On("ListByDate", mock.Anything, "court-1", date).Return(booked, nil)

	day, err := svc.Availability(context.Background(), "", date, 0)
	require.NoError(t, err)
	require.Equal(t, "court-1", day.CourtID)
	require.Equal(t, 60, day.SlotMinutes)
	require.Len(t, day.Slots, 17)

	for _, s := range day.Slots {
		if s.Start == 600 {
			assert.True(t, s.Booked)
		} else {
			assert.False(t, s.Booked, "start %d should be free", s.Start)
		}
		assert.False(t, s.Past)
	}
}

func TestAvailability_BadDate(t *testing.T) {
	svc := NewService(new(MockRepo), new(MockGateway), testSettings())

	_, err := svc.Availability(context.Background(), "", "tomorrow", 0)
	require.ErrorIs(t, err, ErrBadDateKey)
}

func TestIsValidationError(t *testing.T) {
	require.True(t, IsValidationError(ErrNoSlots))
	require.False(t, IsValidationError(errors.New("boom")))
	require.False(t, IsValidationError(nil))
}
