package reservation

import (
	"context"
	"time"

	"courtslot/internal/logger"
	"courtslot/internal/metrics"
)

// Sweeper expires pending, unpaid reservations once they outlive the TTL,
// freeing their slots for new bookings. It races benignly with payment
// confirmation: MarkConfirmed only touches pending rows, so whichever update
// lands first wins and the other affects zero rows.
type Sweeper struct {
	repo     Repository
	ttl      time.Duration
	interval time.Duration
}

func NewSweeper(repo Repository, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{repo: repo, ttl: ttl, interval: interval}
}

func (s *Sweeper) Run(ctx context.Context) {
	logger.Infof("Reservation sweeper started (ttl=%s interval=%s)", s.ttl, s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Reservation sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	n, err := s.repo.ExpirePendingOlderThan(ctx, s.ttl)
	if err != nil {
		logger.Errorf("Sweep failed: %v", err)
		return
	}
	if n > 0 {
		metrics.RecordExpired(n)
		logger.Infof("Expired %d stale pending reservations", n)
	}
}
