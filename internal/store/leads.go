package store

import (
	"sort"
	"strings"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// Listing limits shared by lead queries.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

const dateLayout = "2006-01-02"

// CreateManualLead ingests the lead's candidate, links an application when
// a job is named and records the lead, all as one locked unit.
func (s *Store) CreateManualLead(req *types.ManualLeadCreateRequest) (types.ManualLead, types.Candidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.JobID != "" {
		if _, err := s.getJobLocked(req.JobID); err != nil {
			return types.ManualLead{}, types.Candidate{}, false, err
		}
	}

	candidate, deduplicated := s.ingestLocked(req.IngestRequest())
	var applicationID string
	if req.JobID != "" {
		app, _ := s.createOrGetApplicationLocked(req.JobID, candidate.ID)
		applicationID = app.ID
	}

	lead := types.ManualLead{
		ID:                  types.NewID("lead"),
		SourceChannel:       req.Source(),
		Name:                strings.TrimSpace(req.Name),
		Phone:               strings.TrimSpace(req.Phone),
		Languages:           nonNilLanguages(req.Languages),
		TherapyExperience:   nonNilStrings(req.TherapyExperience),
		ExperienceYears:     req.ExperienceYears,
		Certifications:      nonNilStrings(req.Certifications),
		ExpectedPay:         req.ExpectedPay,
		CurrentLocation:     req.CurrentLocation,
		PreferredShiftStart: req.PreferredShiftStart,
		PreferredShiftEnd:   req.PreferredShiftEnd,
		ReferredBy:          req.ReferredBy,
		LastEmployer:        req.LastEmployer,
		JobID:               req.JobID,
		Neighborhood:        req.Neighborhood,
		Notes:               req.Notes,
		CreatedBy:           req.CreatedBy,
		CandidateID:         candidate.ID,
		Deduplicated:        deduplicated,
		ApplicationID:       applicationID,
		CreatedAt:           s.clock(),
	}
	s.manualLeads.put(lead.ID, lead)
	s.persistManualLeadLocked(lead)
	s.saveLocked("create_manual_lead")
	return lead, candidate, deduplicated, nil
}

// ListManualLeads returns matching manual leads, newest first.
// Text filters are case-insensitive substring matches; date bounds are
// inclusive UTC calendar dates.
func (s *Store) ListManualLeads(filter types.ManualLeadFilter) []types.ManualLead {
	s.mu.RLock()
	records := s.manualLeads.values()
	s.mu.RUnlock()

	neighborhood := strings.ToLower(strings.TrimSpace(filter.Neighborhood))
	createdBy := strings.ToLower(strings.TrimSpace(filter.CreatedBy))
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	var from, to string
	if filter.CreatedFrom != nil {
		from = filter.CreatedFrom.UTC().Format(dateLayout)
	}
	if filter.CreatedTo != nil {
		to = filter.CreatedTo.UTC().Format(dateLayout)
	}

	out := make([]types.ManualLead, 0, len(records))
	for _, lead := range records {
		if filter.SourceChannel != "" && lead.SourceChannel != filter.SourceChannel {
			continue
		}
		if neighborhood != "" && !containsFold(lead.Neighborhood, neighborhood) {
			continue
		}
		if createdBy != "" && !containsFold(lead.CreatedBy, createdBy) {
			continue
		}
		if term != "" && !matchesSearch(lead, term) {
			continue
		}
		day := lead.CreatedAt.UTC().Format(dateLayout)
		if from != "" && day < from {
			continue
		}
		if to != "" && day > to {
			continue
		}
		out = append(out, lead)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return limitSlice(out, filter.Limit)
}

func matchesSearch(lead types.ManualLead, term string) bool {
	for _, field := range []string{lead.Name, lead.Phone, lead.Notes, lead.ID, lead.CandidateID, lead.JobID} {
		if containsFold(field, term) {
			return true
		}
	}
	return false
}

// containsFold reports whether lowered needle occurs in value, ignoring case.
func containsFold(value, needle string) bool {
	return value != "" && strings.Contains(strings.ToLower(value), needle)
}

// ClampLimit bounds a requested page size to [1, MaxListLimit], with zero
// meaning DefaultListLimit.
func ClampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultListLimit
	case limit < 1:
		return 1
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func limitSlice[T any](values []T, limit int) []T {
	limit = ClampLimit(limit)
	if len(values) > limit {
		return values[:limit]
	}
	return values
}
