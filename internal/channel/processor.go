package channel

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// Outcome statuses beyond the delivery statuses.
const (
	StatusDuplicate = "duplicate"
	StatusIgnored   = "ignored_event_type"
	// StatusInProgress reports that another attempt holds the delivery.
	StatusInProgress = "in_progress"
)

const failedDetail = "max retries reached; manual intervention required"

// Store is the subset of the transactional store the processor drives.
type Store interface {
	GetJob(id string) (types.Job, error)
	IngestCandidate(req types.CandidateIngestRequest) (types.Candidate, bool)
	CreateOrGetApplication(jobID, candidateID string) types.Application
	ClaimWebhookDelivery(channel, eventID string) (types.WebhookDelivery, bool)
	ReleaseWebhookDelivery(channel, eventID string)
	RecordWebhookAttempt(attempt types.WebhookAttempt) types.WebhookDelivery
}

// Outcome is the handled result of one webhook delivery.
type Outcome struct {
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	NextRetryUTC *time.Time `json:"next_retry_utc,omitempty"`
	Detail       string     `json:"detail,omitempty"`
}

// Config controls retry behavior for failed deliveries.
type Config struct {
	MaxRetries     int
	BackoffSeconds int
}

// Processor applies lead events to the store exactly once per delivery.
type Processor struct {
	store  Store
	config Config
	logger *slog.Logger
}

// NewProcessor creates a processor. A nil logger falls back to slog.Default.
func NewProcessor(store Store, cfg Config, logger *slog.Logger) *Processor {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.BackoffSeconds < 1 {
		cfg.BackoffSeconds = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, config: cfg, logger: logger}
}

// Deliver runs the idempotency protocol for one webhook event.
//
// The delivery is claimed before any work, so at most one attempt runs per
// delivery: a processed delivery is reported as a duplicate, a failed one is
// never retried, and one held by a concurrent attempt is reported in
// progress. Otherwise the event is processed and the attempt recorded.
func (p *Processor) Deliver(channel string, event types.WebhookEvent) Outcome {
	log := p.logger.With("channel", channel, "event_id", event.EventID)

	existing, claimed := p.store.ClaimWebhookDelivery(channel, event.EventID)
	if !claimed {
		switch existing.Status {
		case types.WebhookProcessed:
			log.Info("webhook duplicate", "attempts", existing.Attempts)
			return Outcome{Status: StatusDuplicate, Attempts: existing.Attempts}
		case types.WebhookFailed:
			log.Info("webhook already failed", "attempts", existing.Attempts)
			return Outcome{Status: string(types.WebhookFailed), Attempts: existing.Attempts, Detail: failedDetail}
		default:
			log.Info("webhook attempt in progress", "attempts", existing.Attempts)
			return Outcome{Status: StatusInProgress, Attempts: existing.Attempts}
		}
	}

	recorded := false
	defer func() {
		if !recorded {
			p.store.ReleaseWebhookDelivery(channel, event.EventID)
		}
	}()

	attempt := types.WebhookAttempt{
		Channel:        channel,
		EventID:        event.EventID,
		MaxRetries:     p.config.MaxRetries,
		BackoffSeconds: p.config.BackoffSeconds,
	}

	detail, err := p.Process(channel, event)
	if err == nil {
		attempt.Success = true
		record := p.store.RecordWebhookAttempt(attempt)
		recorded = true
		log.Info("webhook processed", "attempts", record.Attempts, "detail", detail)
		return Outcome{Status: string(types.WebhookProcessed), Attempts: record.Attempts, Detail: detail}
	}

	var transient *TransientError
	attempt.Transient = errors.As(err, &transient)
	attempt.Error = err.Error()
	record := p.store.RecordWebhookAttempt(attempt)
	recorded = true
	log.Warn("webhook attempt failed",
		"attempts", record.Attempts,
		"status", record.Status,
		"transient", attempt.Transient,
		"error", err)

	return Outcome{
		Status:       string(record.Status),
		Attempts:     record.Attempts,
		NextRetryUTC: record.NextRetry,
		Detail:       record.LastError,
	}
}

// Process applies one event to the store and returns a detail string.
// Errors are *TransientError or *PermanentError.
func (p *Processor) Process(channel string, event types.WebhookEvent) (string, error) {
	if truthy(event.Payload["simulate_transient_error"]) {
		return "", &TransientError{Message: "provider timeout, retry needed"}
	}
	if truthy(event.Payload["simulate_permanent_error"]) {
		return "", &PermanentError{Message: "payload rejected by channel processor"}
	}

	if !IsLeadEvent(event.EventType) {
		return StatusIgnored, nil
	}

	req, err := DecodeLead(channel, event)
	if err != nil {
		return "", err
	}

	if req.JobID != "" {
		if _, err := p.store.GetJob(req.JobID); err != nil {
			return "", &PermanentError{Message: err.Error()}
		}
	}

	candidate, deduplicated := p.store.IngestCandidate(req)
	if req.JobID != "" {
		p.store.CreateOrGetApplication(req.JobID, candidate.ID)
	}
	return fmt.Sprintf("candidate_upserted:%s:dedup=%t", candidate.ID, deduplicated), nil
}

// truthy mirrors JSON truthiness for test hook flags.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
