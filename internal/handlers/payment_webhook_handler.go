package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/BruksfildServices01/booking-engine/internal/httperr"
	"github.com/BruksfildServices01/booking-engine/internal/usecase/appointment"
)

const maxWebhookBody = 1 << 20

type PaymentWebhookHandler struct {
	callback *appointment.HandlePaymentCallback
	log      zerolog.Logger
}

func NewPaymentWebhookHandler(
	callback *appointment.HandlePaymentCallback,
	log zerolog.Logger,
) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{callback: callback, log: log}
}

// Handle must see the body exactly as sent: signatures cover the raw bytes.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httperr.BadRequest(c, "invalid_payload", "Payload too large.")
			return
		}
		httperr.BadRequest(c, "invalid_payload", "Could not read body.")
		return
	}

	res, err := h.callback.Execute(c.Request.Context(), body, c.Request.Header)
	if err != nil {
		if httperr.StatusOf(err) >= http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("payment webhook failed")
		}
		httperr.FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
		"known":    res.Known,
		"outcome":  res.Outcome,
	})
}
