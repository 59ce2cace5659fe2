package store

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// Queue windows for website lead work queues.
const (
	dueSoonWindow = 15 * time.Minute
	hotNewWindow  = 10 * time.Minute
)

// fallbackWhatsAppDigits is used when a configured number has no digits.
const fallbackWhatsAppDigits = "919187351205"

// WebsiteDefaults are the service-wide settings for website leads.
type WebsiteDefaults struct {
	SLAMinutes     int
	WhatsAppNumber string
}

// WebsiteLeadQuery selects website leads for a recruiter queue.
type WebsiteLeadQuery struct {
	CampaignID string
	Mode       types.QueueMode
	Limit      int
}

// CreateWebsiteLead ingests the applicant, links an application when a job
// is named and records the lead with its first-contact deadline. A campaign
// SLA override beats the default; the campaign's WhatsApp number is used for
// the generated chat link.
func (s *Store) CreateWebsiteLead(req *types.WebsiteLeadCreateRequest, defaults WebsiteDefaults) (types.WebsiteLead, types.Candidate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	slaMinutes := defaults.SLAMinutes
	whatsAppNumber := defaults.WhatsAppNumber
	if req.CampaignID != "" {
		campaign, err := s.getCampaignLocked(req.CampaignID)
		if err != nil {
			return types.WebsiteLead{}, types.Candidate{}, false, err
		}
		if campaign.FirstContactSLAMinutes != nil && *campaign.FirstContactSLAMinutes > 0 {
			slaMinutes = *campaign.FirstContactSLAMinutes
		}
		whatsAppNumber = campaign.WhatsAppBusinessNumber
	}
	if req.JobID != "" {
		if _, err := s.getJobLocked(req.JobID); err != nil {
			return types.WebsiteLead{}, types.Candidate{}, false, err
		}
	}

	candidate, deduplicated := s.ingestLocked(req.IngestRequest())
	var applicationID string
	if req.JobID != "" {
		app, _ := s.createOrGetApplicationLocked(req.JobID, candidate.ID)
		applicationID = app.ID
	}

	name := strings.TrimSpace(req.Name)
	phone := strings.TrimSpace(req.Phone)
	message := fmt.Sprintf("Hi, I want to apply as a therapist. Name: %s, Phone: %s.", name, phone)

	now := s.clock()
	lead := types.WebsiteLead{
		ID:              types.NewID("wlead"),
		CandidateID:     candidate.ID,
		Deduplicated:    deduplicated,
		ApplicationID:   applicationID,
		Name:            name,
		Phone:           phone,
		Neighborhood:    req.Neighborhood,
		CampaignID:      req.CampaignID,
		JobID:           req.JobID,
		UTMSource:       req.UTMSource,
		UTMMedium:       req.UTMMedium,
		UTMCampaign:     req.UTMCampaign,
		UTMTerm:         req.UTMTerm,
		UTMContent:      req.UTMContent,
		LandingPath:     req.LandingPath,
		Referrer:        req.Referrer,
		SessionID:       req.SessionID,
		WALink:          WhatsAppLink(whatsAppNumber, message),
		SLAMinutes:      slaMinutes,
		FirstContactDue: now.Add(time.Duration(slaMinutes) * time.Minute),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.websiteLeads.put(lead.ID, lead)
	s.saveLocked("create_website_lead")
	return lead, candidate, deduplicated, nil
}

// WhatsAppLink builds a wa.me chat link with a prefilled message.
func WhatsAppLink(phone, text string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	number := digits.String()
	if number == "" {
		number = fallbackWhatsAppDigits
	}
	return "https://wa.me/" + number + "?text=" + url.QueryEscape(text)
}

// ListWebsiteLeads returns website leads for a queue, newest first.
//
// overdue: uncontacted and past due. due_soon: uncontacted and due within
// the next 15 minutes. hot_new: uncontacted and created in the last 10
// minutes. all: no stage filter.
func (s *Store) ListWebsiteLeads(q WebsiteLeadQuery) []types.WebsiteLead {
	s.mu.RLock()
	records := s.websiteLeads.values()
	s.mu.RUnlock()

	now := s.clock()
	out := make([]types.WebsiteLead, 0, len(records))
	for _, lead := range records {
		if q.CampaignID != "" && lead.CampaignID != q.CampaignID {
			continue
		}
		if !inQueue(lead, q.Mode, now) {
			continue
		}
		out = append(out, lead)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return limitSlice(out, q.Limit)
}

func inQueue(lead types.WebsiteLead, mode types.QueueMode, now time.Time) bool {
	switch mode {
	case types.QueueOverdue:
		return !lead.Contacted() && lead.FirstContactDue.Before(now)
	case types.QueueDueSoon:
		due := lead.FirstContactDue
		return !lead.Contacted() && !due.Before(now) && !due.After(now.Add(dueSoonWindow))
	case types.QueueHotNew:
		return !lead.Contacted() && !lead.CreatedAt.Before(now.Add(-hotNewWindow))
	default:
		return true
	}
}

// MarkWebsiteLeadContacted records contact with a lead at the given time, or
// now when at is zero. The SLA is breached when contact happens after the due
// time. A repeat call replaces the contact time and re-evaluates the breach.
func (s *Store) MarkWebsiteLeadContacted(id string, at time.Time) (types.WebsiteLead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.websiteLeads.get(id)
	if !ok {
		return types.WebsiteLead{}, &NotFoundError{Kind: "website lead", ID: id}
	}

	now := s.clock()
	if at.IsZero() {
		at = now
	}
	at = at.UTC()
	lead.FirstContactAt = &at
	lead.SLABreached = at.After(lead.FirstContactDue)
	lead.UpdatedAt = now
	s.websiteLeads.put(id, lead)
	s.saveLocked("mark_website_lead_contacted")
	return lead, nil
}

// RecordWebsiteEvent appends an analytics event. A wa_click on a lead also
// bumps that lead's click counter.
func (s *Store) RecordWebsiteEvent(req *types.WebsiteEventRequest) (types.WebsiteEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.LeadID != "" && !s.websiteLeads.has(req.LeadID) {
		return types.WebsiteEvent{}, &NotFoundError{Kind: "website lead", ID: req.LeadID}
	}
	if req.CampaignID != "" && !s.campaigns.has(req.CampaignID) {
		return types.WebsiteEvent{}, &NotFoundError{Kind: "campaign", ID: req.CampaignID}
	}

	metadata := req.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	now := s.clock()
	event := types.WebsiteEvent{
		ID:          types.NewID("wev"),
		EventType:   req.EventType,
		LeadID:      req.LeadID,
		CampaignID:  req.CampaignID,
		SessionID:   req.SessionID,
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		LandingPath: req.LandingPath,
		Referrer:    req.Referrer,
		Metadata:    metadata,
		CreatedAt:   now,
	}
	s.websiteEvents.put(event.ID, event)

	if req.EventType == types.WebsiteWAClick && req.LeadID != "" {
		lead, _ := s.websiteLeads.get(req.LeadID)
		lead.WAClickCount++
		lead.UpdatedAt = now
		s.websiteLeads.put(lead.ID, lead)
	}
	s.saveLocked("record_website_event")
	return event, nil
}

// WebsiteFunnelSummary aggregates leads and events created between dateFrom
// and dateTo (inclusive YYYY-MM-DD, UTC). With a campaign id, leads must
// belong to it and events must name it or one of its leads.
func (s *Store) WebsiteFunnelSummary(dateFrom, dateTo, campaignID string) types.FunnelSummary {
	s.mu.RLock()
	leads := s.websiteLeads.values()
	events := s.websiteEvents.values()
	s.mu.RUnlock()

	inRange := func(t time.Time) bool {
		day := t.UTC().Format(dateLayout)
		return day >= dateFrom && day <= dateTo
	}

	summary := types.FunnelSummary{
		DateFrom:            dateFrom,
		DateTo:              dateTo,
		EventCounts:         map[string]int{},
		LeadsBySource:       map[string]int{},
		LeadsByNeighborhood: map[string]int{},
	}
	for _, et := range types.WebsiteEventTypes() {
		summary.EventCounts[string(et)] = 0
	}

	leadIDs := map[string]struct{}{}
	for _, lead := range leads {
		if !inRange(lead.CreatedAt) {
			continue
		}
		if campaignID != "" && lead.CampaignID != campaignID {
			continue
		}
		leadIDs[lead.ID] = struct{}{}
		summary.TotalLeads++
		if lead.Contacted() {
			summary.ContactedLeads++
		}
		if lead.SLABreached {
			summary.BreachedLeads++
		}
		summary.LeadsBySource[bucket(lead.UTMSource)]++
		summary.LeadsByNeighborhood[bucket(lead.Neighborhood)]++
	}
	summary.OpenLeads = summary.TotalLeads - summary.ContactedLeads

	for _, event := range events {
		if !inRange(event.CreatedAt) {
			continue
		}
		if campaignID != "" && event.CampaignID != campaignID {
			if _, ok := leadIDs[event.LeadID]; !ok || event.LeadID == "" {
				continue
			}
		}
		summary.EventCounts[string(event.EventType)]++
	}

	if summary.ContactedLeads > 0 {
		within := summary.ContactedLeads - summary.BreachedLeads
		if within < 0 {
			within = 0
		}
		rate := float64(within) / float64(summary.ContactedLeads) * 100
		summary.WithinSLARate = math.Round(rate*100) / 100
	}
	return summary
}

// bucket lowercases a grouping key, with "unknown" for blanks.
func bucket(value string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "unknown"
	}
	return v
}
