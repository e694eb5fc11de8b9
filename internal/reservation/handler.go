package reservation

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courtslot/internal/api"
	"courtslot/internal/metrics"
	"courtslot/internal/slot"
)

// Handler exposes the admin surface of the store: day listings and a manual
// expiry sweep.
type Handler struct {
	repo           Repository
	defaultCourtID string
	pendingTTL     time.Duration
}

func NewHandler(repo Repository, defaultCourtID string, pendingTTL time.Duration) *Handler {
	return &Handler{repo: repo, defaultCourtID: defaultCourtID, pendingTTL: pendingTTL}
}

// ListByDate returns all slot-holding reservations for a court and day.
func (h *Handler) ListByDate(c *gin.Context) {
	dateKey := c.Query("date")
	if !slot.ValidDateKey(dateKey) {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		return
	}

	courtID := c.DefaultQuery("court_id", h.defaultCourtID)

	rows, err := h.repo.ListByDate(c.Request.Context(), courtID, dateKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch reservations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"court_id":     courtID,
		"date":         dateKey,
		"reservations": rows,
	})
}

// Sweep triggers the TTL expiry pass on demand.
func (h *Handler) Sweep(c *gin.Context) {
	n, err := h.repo.ExpirePendingOlderThan(c.Request.Context(), h.pendingTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "sweep failed"})
		return
	}

	if n > 0 {
		metrics.RecordExpired(n)
	}

	c.JSON(http.StatusOK, gin.H{"expired": n})
}
