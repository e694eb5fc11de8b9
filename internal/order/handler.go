package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"courtslot/internal/api"
	"courtslot/internal/reservation"
)

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// CreateOrder reserves the requested slots and returns the payment order
// handle the client opens checkout with.
func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindingErrorMessage(err)})
		return
	}

	handle, err := h.svc.CreateOrder(c.Request.Context(), req)
	if err != nil {
		var conflict *reservation.ConflictError
		switch {
		case errors.As(err, &conflict):
			slots := make([]gin.H, len(conflict.Slots))
			for i, s := range conflict.Slots {
				slots[i] = gin.H{"date_key": s.DateKey, "start": s.StartMinute}
			}
			c.JSON(http.StatusConflict, gin.H{
				"error": "Selected slot is unavailable. Try different time.",
				"slots": slots,
			})
		case IsValidationError(err):
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrGatewayFailure):
			c.JSON(http.StatusBadGateway, api.ErrorResponse{Error: "failed to create payment order"})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "server error"})
		}
		return
	}

	c.JSON(http.StatusOK, handle)
}

// Availability lists the day's candidate slots with booked/past flags.
func (h *Handler) Availability(c *gin.Context) {
	dateKey := c.Query("date")
	courtID := c.Query("court_id")

	slotMinutes := 0
	if raw := c.Query("minutes"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "minutes must be a number"})
			return
		}
		slotMinutes = n
	}

	day, err := h.svc.Availability(c.Request.Context(), courtID, dateKey, slotMinutes)
	if err != nil {
		if IsValidationError(err) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to fetch availability"})
		return
	}

	c.JSON(http.StatusOK, day)
}

// bindingErrorMessage turns gin's binding errors into a caller-friendly
// message naming the first offending field.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		switch fe.Tag() {
		case "required":
			return fe.Field() + " is required"
		case "email":
			return fe.Field() + " must be a valid email address"
		case "min":
			return fe.Field() + " must be at least " + fe.Param()
		case "max":
			return fe.Field() + " must be at most " + fe.Param()
		default:
			return fe.Field() + " is invalid"
		}
	}
	return "invalid request body"
}
