package store

import (
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

const unknownWebhookError = "unknown webhook processing error"

// GetWebhookDelivery returns the delivery for (channel, eventID) if one exists.
func (s *Store) GetWebhookDelivery(channel, eventID string) (types.WebhookDelivery, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deliveries.get(types.WebhookKey(channel, eventID))
}

// EnsureWebhookDelivery returns the delivery for (channel, eventID),
// creating it with status received and zero attempts when absent.
func (s *Store) EnsureWebhookDelivery(channel, eventID string) types.WebhookDelivery {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, created := s.ensureDeliveryLocked(channel, eventID)
	if created {
		s.persistDeliveryLocked(d)
		s.saveLocked("ensure_webhook_delivery")
	}
	return d
}

// ClaimWebhookDelivery ensures the delivery for (channel, eventID) and
// reserves it for one processing attempt. It reports false, without
// reserving, when the delivery is processed, failed, or already claimed.
// A claim is released by RecordWebhookAttempt or ReleaseWebhookDelivery.
func (s *Store) ClaimWebhookDelivery(channel, eventID string) (types.WebhookDelivery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, created := s.ensureDeliveryLocked(channel, eventID)
	if created {
		s.persistDeliveryLocked(d)
		s.saveLocked("ensure_webhook_delivery")
	}
	if isTerminal(d.Status) {
		return d, false
	}
	if _, busy := s.claimed[d.Key]; busy {
		return d, false
	}
	s.claimed[d.Key] = struct{}{}
	return d, true
}

// ReleaseWebhookDelivery drops a claim without recording an attempt.
func (s *Store) ReleaseWebhookDelivery(channel, eventID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.claimed, types.WebhookKey(channel, eventID))
}

func isTerminal(status types.WebhookStatus) bool {
	return status == types.WebhookProcessed || status == types.WebhookFailed
}

func (s *Store) ensureDeliveryLocked(channel, eventID string) (types.WebhookDelivery, bool) {
	key := types.WebhookKey(channel, eventID)
	if d, ok := s.deliveries.get(key); ok {
		return d, false
	}
	now := s.clock()
	d := types.WebhookDelivery{
		ID:        types.NewID("whk"),
		Key:       key,
		Channel:   channel,
		EventID:   eventID,
		Status:    types.WebhookReceived,
		Attempts:  0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.deliveries.put(key, d)
	return d, true
}

// RecordWebhookAttempt counts one processing attempt against a delivery.
//
// Success marks it processed. A transient failure below MaxRetries attempts
// moves it to retry_pending with a backoff of BackoffSeconds times the attempt
// count; every other failure marks it failed. A processed or failed delivery
// is returned unchanged. Any claim on the delivery is released.
func (s *Store) RecordWebhookAttempt(attempt types.WebhookAttempt) types.WebhookDelivery {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, _ := s.ensureDeliveryLocked(attempt.Channel, attempt.EventID)
	delete(s.claimed, d.Key)
	if isTerminal(d.Status) {
		return d
	}
	now := s.clock()

	d.Attempts++
	d.UpdatedAt = now
	switch {
	case attempt.Success:
		d.Status = types.WebhookProcessed
		d.LastError = ""
		d.NextRetry = nil
	case attempt.Transient && d.Attempts < attempt.MaxRetries:
		d.Status = types.WebhookRetryPending
		d.LastError = errorOrDefault(attempt.Error)
		next := now.Add(time.Duration(attempt.BackoffSeconds*d.Attempts) * time.Second)
		d.NextRetry = &next
	default:
		d.Status = types.WebhookFailed
		d.LastError = errorOrDefault(attempt.Error)
		d.NextRetry = nil
	}

	s.deliveries.put(d.Key, d)
	s.persistDeliveryLocked(d)
	s.saveLocked("record_webhook_attempt")
	return d
}

// ListWebhookDeliveries returns deliveries in creation order, optionally
// filtered by status.
func (s *Store) ListWebhookDeliveries(status types.WebhookStatus) []types.WebhookDelivery {
	s.mu.RLock()
	deliveries := s.deliveries.values()
	s.mu.RUnlock()

	if status == "" {
		return deliveries
	}
	out := []types.WebhookDelivery{}
	for _, d := range deliveries {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out
}

func errorOrDefault(msg string) string {
	if msg == "" {
		return unknownWebhookError
	}
	return msg
}
