package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"courtslot/internal/api"
	"courtslot/internal/logger"
)

type Handler struct {
	reconciler *Reconciler
}

func NewHandler(reconciler *Reconciler) *Handler {
	return &Handler{reconciler: reconciler}
}

type verifyRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// VerifyPayment handles the client-side confirmation relayed after checkout.
func (h *Handler) VerifyPayment(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "missing fields"})
		return
	}

	err := h.reconciler.ConfirmFromClientCallback(c.Request.Context(), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		if errors.Is(err, ErrSignatureMismatch) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "signature mismatch"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to confirm payment"})
		return
	}

	c.JSON(http.StatusOK, api.OKResponse{OK: true})
}

// Webhook handles the processor's server-to-server events. The endpoint is
// anonymous but signed; any structurally valid signed request is
// acknowledged so the processor stops retrying events we ignore.
func (h *Handler) Webhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		logger.Errorf("Failed to read webhook body: %v", err)
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "unreadable body"})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")

	err = h.reconciler.ConfirmFromWebhook(c.Request.Context(), body, signature)
	if err != nil {
		if errors.Is(err, ErrSignatureMismatch) {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "invalid signature"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "failed to process event"})
		return
	}

	c.JSON(http.StatusOK, api.ReceivedResponse{Received: true})
}
