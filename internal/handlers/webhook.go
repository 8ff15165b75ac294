package handlers

import (
	"encoding/json"

	"kudipay/internal/providers/paystack"
	"kudipay/internal/services/settlement"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// WebhookHandler receives gateway event notifications. Webhooks are a
// delivery hint, not a source of truth: every event funnels into the same
// verification path the client-initiated flow uses, so replays and
// out-of-order delivery settle to the same state.
type WebhookHandler struct {
	gateway *paystack.Client
	engine  settlement.Service
}

func NewWebhookHandler(gateway *paystack.Client, engine settlement.Service) *WebhookHandler {
	return &WebhookHandler{gateway: gateway, engine: engine}
}

func (h *WebhookHandler) HandlePaystack(c *fiber.Ctx) error {
	body := c.Body()
	signature := c.Get("x-paystack-signature")
	if signature == "" || !h.gateway.ValidSignature(body, signature) {
		logrus.Warn("webhook rejected: bad signature")
		return c.SendStatus(fiber.StatusUnauthorized)
	}

	var event paystack.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		logrus.WithError(err).Warn("webhook rejected: malformed payload")
		return c.SendStatus(fiber.StatusBadRequest)
	}

	switch event.Event {
	case "charge.success", "charge.failed":
		if _, err := h.engine.VerifyFunding(c.Context(), event.Data.Reference); err != nil {
			// Respond 200 anyway: the reconciliation job retries pending
			// references, and a non-2xx would only trigger redelivery.
			logrus.WithError(err).WithField("reference", event.Data.Reference).
				Error("webhook verification failed")
		}
	default:
		logrus.WithField("event", event.Event).Debug("ignoring webhook event")
	}

	return c.SendStatus(fiber.StatusOK)
}
