// Package store owns every hiring record behind a single writer lock.
//
// All mutations are linearizable: each public method takes the lock once,
// applies its change to the in-memory tables, writes the side tables and a
// full snapshot through the optional Persister, and returns copies. Reads of
// whole collections copy under the read lock and filter outside it.
package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// persistTimeout bounds each durable write made while holding the lock.
const persistTimeout = 5 * time.Second

// Persister is the durable mirror behind the store.
type Persister interface {
	Ping(ctx context.Context) error
	SaveSnapshot(ctx context.Context, payload []byte) error
	LoadSnapshot(ctx context.Context) ([]byte, bool, error)
	UpsertWebhookDelivery(ctx context.Context, d types.WebhookDelivery) error
	ListWebhookDeliveries(ctx context.Context) ([]types.WebhookDelivery, error)
	InsertManualLead(ctx context.Context, lead types.ManualLead) error
	ListManualLeads(ctx context.Context, limit int) ([]types.ManualLead, error)
	Close() error
}

// Store is the in-memory transactional store.
type Store struct {
	mu        sync.RWMutex
	now       func() time.Time
	logger    *slog.Logger
	persister Persister

	employers     *table[types.Employer]
	jobs          *table[types.Job]
	candidates    *table[types.Candidate]
	applications  *table[types.Application]
	screenings    *table[types.Screening]
	interviews    *table[types.Interview]
	offers        *table[types.Offer]
	auditEvents   *table[types.AuditEvent]
	deliveries    *table[types.WebhookDelivery]
	campaigns     *table[types.Campaign]
	manualLeads   *table[types.ManualLead]
	websiteLeads  *table[types.WebsiteLead]
	websiteEvents *table[types.WebsiteEvent]

	// claimed holds delivery keys whose attempt is in progress. Not persisted.
	claimed map[string]struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithPersister mirrors every mutation to p.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// New creates an empty store. Call Restore to load persisted state.
func New(opts ...Option) *Store {
	s := &Store{
		now:    time.Now,
		logger: slog.Default(),
	}
	s.reset()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) reset() {
	s.employers = newTable[types.Employer]()
	s.jobs = newTable[types.Job]()
	s.candidates = newTable[types.Candidate]()
	s.applications = newTable[types.Application]()
	s.screenings = newTable[types.Screening]()
	s.interviews = newTable[types.Interview]()
	s.offers = newTable[types.Offer]()
	s.auditEvents = newTable[types.AuditEvent]()
	s.deliveries = newTable[types.WebhookDelivery]()
	s.campaigns = newTable[types.Campaign]()
	s.manualLeads = newTable[types.ManualLead]()
	s.websiteLeads = newTable[types.WebsiteLead]()
	s.websiteEvents = newTable[types.WebsiteEvent]()
	s.claimed = map[string]struct{}{}
}

// Persistent reports whether a Persister is configured.
func (s *Store) Persistent() bool {
	return s.persister != nil
}

// Ping checks the persister. A store without one is always ready.
func (s *Store) Ping(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Ping(ctx)
}

// Close releases the persister.
func (s *Store) Close() error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close()
}

func (s *Store) clock() time.Time {
	return s.now().UTC()
}

// persistDeliveryLocked upserts one delivery into the side table.
func (s *Store) persistDeliveryLocked(d types.WebhookDelivery) {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.UpsertWebhookDelivery(ctx, d); err != nil {
		s.logger.Error("failed to persist webhook delivery", "key", d.Key, "error", err)
	}
}

// persistManualLeadLocked appends one manual lead to the side table.
func (s *Store) persistManualLeadLocked(lead types.ManualLead) {
	if s.persister == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.InsertManualLead(ctx, lead); err != nil {
		s.logger.Error("failed to persist manual lead", "lead_id", lead.ID, "error", err)
	}
}
