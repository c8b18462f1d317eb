package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"alcyxob/fitness-hub/internal/billing"
	"alcyxob/fitness-hub/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const maxWebhookBody = 64 << 10

// EventParser verifies a signed webhook payload and translates it into a
// billing event. A nil event means the type is not reconciled.
type EventParser interface {
	Parse(payload []byte, signature string) (billing.Event, error)
}

// EventApplier reconciles a billing event against local records.
type EventApplier interface {
	ApplyEvent(ctx context.Context, ev billing.Event) (string, error)
}

type WebhookHandler struct {
	parser     EventParser
	reconciler EventApplier
	log        logrus.FieldLogger
}

func NewWebhookHandler(parser EventParser, reconciler EventApplier, log logrus.FieldLogger) *WebhookHandler {
	return &WebhookHandler{parser: parser, reconciler: reconciler, log: log.WithField("component", "webhooks")}
}

// Stripe godoc
// @Summary Stripe webhook
// @Description Verifies the Stripe-Signature header and reconciles the event. Verified events are acknowledged unless storage is temporarily unavailable.
// @Tags Webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]bool
// @Failure 400 {object} envelope "Invalid signature or payload"
// @Failure 503 {object} envelope "Temporary storage failure, redeliver"
// @Router /webhooks/stripe [post]
func (h *WebhookHandler) Stripe(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "unreadable webhook body")
		return
	}

	ev, err := h.parser.Parse(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		h.log.WithError(err).Warn("webhook rejected")
		respondError(c, err)
		return
	}
	if ev == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// Transient storage failures ask the processor to redeliver. Any other
	// failure is acknowledged so a poison event is not redelivered forever.
	if _, err := h.reconciler.ApplyEvent(c.Request.Context(), ev); err != nil {
		entry := h.log.WithError(err).WithField("event", ev.Kind())
		if errors.Is(err, domain.ErrTransient) {
			entry.Warn("webhook deferred for redelivery")
			respondError(c, err)
			return
		}
		entry.Warn("webhook acknowledged with reconciliation error")
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
