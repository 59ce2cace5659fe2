package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerdintosubs/hiring-agent/internal/schemas"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// manualLeadSeedLimit caps the manual leads seeded from the side table.
const manualLeadSeedLimit = 500

// Snapshot is the full serialized state of the store.
type Snapshot struct {
	Employers         []types.Employer        `json:"employers"`
	Jobs              []types.Job             `json:"jobs"`
	Candidates        []types.Candidate       `json:"candidates"`
	Applications      []types.Application     `json:"applications"`
	Screenings        []types.Screening       `json:"screenings"`
	Interviews        []types.Interview       `json:"interviews"`
	Offers            []types.Offer           `json:"offers"`
	AuditEvents       []types.AuditEvent      `json:"audit_events"`
	WebhookDeliveries []types.WebhookDelivery `json:"webhook_deliveries"`
	Campaigns         []types.Campaign        `json:"first_ten_campaigns"`
	ManualLeads       []types.ManualLead      `json:"manual_leads"`
	WebsiteLeads      []types.WebsiteLead     `json:"website_leads"`
	WebsiteEvents     []types.WebsiteEvent    `json:"website_events"`
}

// Counts returns the number of records per collection, keyed by JSON name.
func (snap *Snapshot) Counts() map[string]int {
	return map[string]int{
		"employers":           len(snap.Employers),
		"jobs":                len(snap.Jobs),
		"candidates":          len(snap.Candidates),
		"applications":        len(snap.Applications),
		"screenings":          len(snap.Screenings),
		"interviews":          len(snap.Interviews),
		"offers":              len(snap.Offers),
		"audit_events":        len(snap.AuditEvents),
		"webhook_deliveries":  len(snap.WebhookDeliveries),
		"first_ten_campaigns": len(snap.Campaigns),
		"manual_leads":        len(snap.ManualLeads),
		"website_leads":       len(snap.WebsiteLeads),
		"website_events":      len(snap.WebsiteEvents),
	}
}

// DecodeSnapshot schema-checks and parses a persisted snapshot.
func DecodeSnapshot(payload []byte) (*Snapshot, error) {
	if err := schemas.ValidateSnapshot(payload); err != nil {
		return nil, fmt.Errorf("invalid snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *Snapshot {
	return &Snapshot{
		Employers:         s.employers.values(),
		Jobs:              s.jobs.values(),
		Candidates:        s.candidates.values(),
		Applications:      s.applications.values(),
		Screenings:        s.screenings.values(),
		Interviews:        s.interviews.values(),
		Offers:            s.offers.values(),
		AuditEvents:       s.auditEvents.values(),
		WebhookDeliveries: s.deliveries.values(),
		Campaigns:         s.campaigns.values(),
		ManualLeads:       s.manualLeads.values(),
		WebsiteLeads:      s.websiteLeads.values(),
		WebsiteEvents:     s.websiteEvents.values(),
	}
}

// saveLocked writes the full state to the persister.
// A failed write is logged with op and the in-memory change stands.
func (s *Store) saveLocked(op string) {
	if s.persister == nil {
		return
	}
	payload, err := json.Marshal(s.snapshotLocked())
	if err != nil {
		s.logger.Error("failed to encode snapshot", "op", op, "error", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persister.SaveSnapshot(ctx, payload); err != nil {
		s.logger.Error("failed to save snapshot", "op", op, "error", err)
	}
}

// Restore loads persisted state. A snapshot, when present, replaces all
// in-memory state; otherwise webhook deliveries and the most recent manual
// leads are seeded from the side tables.
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	payload, found, err := s.persister.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if found {
		snap, err := DecodeSnapshot(payload)
		if err != nil {
			return err
		}
		s.hydrateLocked(snap)
		s.logger.Info("store restored from snapshot", "counts", snap.Counts())
		return nil
	}

	deliveries, err := s.persister.ListWebhookDeliveries(ctx)
	if err != nil {
		return fmt.Errorf("failed to list webhook deliveries: %w", err)
	}
	leads, err := s.persister.ListManualLeads(ctx, manualLeadSeedLimit)
	if err != nil {
		return fmt.Errorf("failed to list manual leads: %w", err)
	}
	for _, d := range deliveries {
		s.deliveries.put(d.Key, d)
	}
	for _, lead := range leads {
		s.manualLeads.put(lead.ID, lead)
	}
	s.logger.Info("store seeded from side tables",
		"webhook_deliveries", len(deliveries),
		"manual_leads", len(leads))
	return nil
}

func (s *Store) hydrateLocked(snap *Snapshot) {
	s.reset()
	s.employers.load(snap.Employers, func(v types.Employer) string { return v.ID })
	s.jobs.load(snap.Jobs, func(v types.Job) string { return v.ID })
	s.candidates.load(snap.Candidates, func(v types.Candidate) string { return v.ID })
	s.applications.load(snap.Applications, func(v types.Application) string { return v.ID })
	s.screenings.load(snap.Screenings, func(v types.Screening) string { return v.ID })
	s.interviews.load(snap.Interviews, func(v types.Interview) string { return v.ID })
	s.offers.load(snap.Offers, func(v types.Offer) string { return v.ID })
	s.auditEvents.load(snap.AuditEvents, func(v types.AuditEvent) string { return v.ID })
	s.deliveries.load(snap.WebhookDeliveries, func(v types.WebhookDelivery) string { return v.Key })
	s.campaigns.load(snap.Campaigns, func(v types.Campaign) string { return v.ID })
	s.manualLeads.load(snap.ManualLeads, func(v types.ManualLead) string { return v.ID })
	s.websiteLeads.load(snap.WebsiteLeads, func(v types.WebsiteLead) string { return v.ID })
	s.websiteEvents.load(snap.WebsiteEvents, func(v types.WebsiteEvent) string { return v.ID })
}
