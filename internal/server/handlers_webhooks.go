package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/nerdintosubs/hiring-agent/internal/channel"
	"github.com/nerdintosubs/hiring-agent/internal/logger"
	"github.com/nerdintosubs/hiring-agent/internal/schemas"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

const invalidPayloadMessage = "invalid json payload"

// webhookHandler returns the handler for one provider's webhook route.
// The signature is checked against the raw body before it is parsed.
func (s *Server) webhookHandler(provider channel.Provider, secret string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, "failed to read request body")
			return
		}

		if err := provider.Verify(r.Header, body, secret); err != nil {
			s.metrics.ObserveWebhook(provider.Name, "rejected_signature")
			logger.FromContext(r.Context(), s.logger).Warn("webhook signature rejected",
				"channel", provider.Name, "error", err)
			s.fail(w, r, err)
			return
		}

		event, ok := parseWebhookEvent(body)
		if !ok {
			s.metrics.ObserveWebhook(provider.Name, "invalid_payload")
			s.errorResponse(w, http.StatusBadRequest, invalidPayloadMessage)
			return
		}

		outcome := s.processor.Deliver(provider.Name, event)
		s.metrics.ObserveWebhook(provider.Name, outcome.Status)
		s.jsonResponse(w, http.StatusOK, outcome)
	}
}

// parseWebhookEvent checks the envelope schema, then decodes and validates it.
func parseWebhookEvent(body []byte) (types.WebhookEvent, bool) {
	var event types.WebhookEvent
	if err := schemas.ValidateWebhookEvent(body); err != nil {
		return event, false
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return event, false
	}
	if err := types.Validate(&event); err != nil {
		return event, false
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	return event, true
}

type deliveriesResponse struct {
	Deliveries []types.WebhookDelivery `json:"deliveries"`
	Count      int                     `json:"count"`
}

// handleListWebhookDeliveries handles GET /webhooks/deliveries
func (s *Server) handleListWebhookDeliveries(w http.ResponseWriter, r *http.Request) {
	status := types.WebhookStatus(r.URL.Query().Get("status"))
	switch status {
	case "", types.WebhookReceived, types.WebhookProcessed, types.WebhookRetryPending, types.WebhookFailed:
	default:
		s.errorResponse(w, http.StatusBadRequest, "invalid status: "+string(status))
		return
	}

	deliveries := s.store.ListWebhookDeliveries(status)
	if deliveries == nil {
		deliveries = []types.WebhookDelivery{}
	}
	s.jsonResponse(w, http.StatusOK, deliveriesResponse{Deliveries: deliveries, Count: len(deliveries)})
}
