package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/recaptcha"
	"github.com/nerdintosubs/hiring-agent/internal/store"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

const dateLayout = "2006-01-02"

// funnelWindowDays is the default summary span ending today.
const funnelWindowDays = 6

type manualLeadResponse struct {
	LeadID        string `json:"lead_id"`
	CandidateID   string `json:"candidate_id"`
	Deduplicated  bool   `json:"deduplicated"`
	ApplicationID string `json:"application_id,omitempty"`
}

// handleCreateManualLead handles POST /leads/manual
func (s *Server) handleCreateManualLead(w http.ResponseWriter, r *http.Request) {
	var req types.ManualLeadCreateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	lead, candidate, deduplicated, err := s.store.CreateManualLead(&req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, manualLeadResponse{
		LeadID:        lead.ID,
		CandidateID:   candidate.ID,
		Deduplicated:  deduplicated,
		ApplicationID: lead.ApplicationID,
	})
}

type manualLeadItem struct {
	LeadID        string              `json:"lead_id"`
	SourceChannel types.SourceChannel `json:"source_channel"`
	Name          string              `json:"name"`
	Phone         string              `json:"phone"`
	CandidateID   string              `json:"candidate_id"`
	Deduplicated  bool                `json:"deduplicated"`
	ApplicationID string              `json:"application_id,omitempty"`
	JobID         string              `json:"job_id,omitempty"`
	Neighborhood  string              `json:"neighborhood,omitempty"`
	Notes         string              `json:"notes,omitempty"`
	CreatedBy     string              `json:"created_by,omitempty"`
	CreatedAtUTC  time.Time           `json:"created_at_utc"`
}

// handleListManualLeads handles GET /leads/manual
func (s *Server) handleListManualLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryLimit(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	filter := types.ManualLeadFilter{
		Limit:        limit,
		Neighborhood: q.Get("neighborhood"),
		CreatedBy:    q.Get("created_by"),
		Search:       q.Get("search"),
	}
	if source := q.Get("source_channel"); source != "" {
		if !validSource(types.SourceChannel(source)) {
			s.errorResponse(w, http.StatusBadRequest, "invalid source_channel: "+source)
			return
		}
		filter.SourceChannel = types.SourceChannel(source)
	}
	if filter.CreatedFrom, err = queryDate(q, "created_from"); err != nil {
		s.fail(w, r, err)
		return
	}
	if filter.CreatedTo, err = queryDate(q, "created_to"); err != nil {
		s.fail(w, r, err)
		return
	}

	leads := s.store.ListManualLeads(filter)
	items := make([]manualLeadItem, 0, len(leads))
	for _, lead := range leads {
		items = append(items, manualLeadItem{
			LeadID:        lead.ID,
			SourceChannel: lead.SourceChannel,
			Name:          lead.Name,
			Phone:         lead.Phone,
			CandidateID:   lead.CandidateID,
			Deduplicated:  lead.Deduplicated,
			ApplicationID: lead.ApplicationID,
			JobID:         lead.JobID,
			Neighborhood:  lead.Neighborhood,
			Notes:         lead.Notes,
			CreatedBy:     lead.CreatedBy,
			CreatedAtUTC:  lead.CreatedAt,
		})
	}
	s.jsonResponse(w, http.StatusOK, items)
}

type websiteLeadResponse struct {
	LeadID                          string    `json:"lead_id"`
	CandidateID                     string    `json:"candidate_id"`
	Deduplicated                    bool      `json:"deduplicated"`
	ApplicationID                   string    `json:"application_id,omitempty"`
	FirstContactDueUTC              time.Time `json:"first_contact_due_utc"`
	FirstContactSLAMinutesEffective int       `json:"first_contact_sla_minutes_effective"`
	WALink                          string    `json:"wa_link"`
}

// handleCreateWebsiteLead handles POST /leads/website
//
// The route is public. When reCAPTCHA is enabled the token is verified
// before anything is written.
func (s *Server) handleCreateWebsiteLead(w http.ResponseWriter, r *http.Request) {
	var req types.WebsiteLeadCreateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	if s.settings.RecaptchaEnabled {
		if s.settings.RecaptchaSecret == "" {
			s.fail(w, r, &ErrMisconfigured{Message: "recaptcha is enabled but secret is not configured"})
			return
		}
		token := strings.TrimSpace(req.RecaptchaToken)
		if token == "" {
			s.fail(w, r, &ErrBadRequest{Message: "missing recaptcha token"})
			return
		}
		if _, err := s.verifier.Verify(r.Context(), token, clientIP(r), recaptcha.ExpectedAction); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	lead, candidate, deduplicated, err := s.store.CreateWebsiteLead(&req, store.WebsiteDefaults{
		SLAMinutes:     s.settings.DefaultFirstContactSLAMinutes,
		WhatsAppNumber: s.settings.WebsiteWhatsAppNumber,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, websiteLeadResponse{
		LeadID:                          lead.ID,
		CandidateID:                     candidate.ID,
		Deduplicated:                    deduplicated,
		ApplicationID:                   lead.ApplicationID,
		FirstContactDueUTC:              lead.FirstContactDue,
		FirstContactSLAMinutesEffective: lead.SLAMinutes,
		WALink:                          lead.WALink,
	})
}

type websiteLeadItem struct {
	LeadID                          string     `json:"lead_id"`
	CandidateID                     string     `json:"candidate_id"`
	Deduplicated                    bool       `json:"deduplicated"`
	ApplicationID                   string     `json:"application_id,omitempty"`
	Name                            string     `json:"name"`
	Phone                           string     `json:"phone"`
	Neighborhood                    string     `json:"neighborhood,omitempty"`
	CampaignID                      string     `json:"campaign_id,omitempty"`
	JobID                           string     `json:"job_id,omitempty"`
	UTMSource                       string     `json:"utm_source,omitempty"`
	WALink                          string     `json:"wa_link"`
	WAClickCount                    int        `json:"wa_click_count"`
	FirstContactSLAMinutesEffective int        `json:"first_contact_sla_minutes_effective"`
	FirstContactDueUTC              time.Time  `json:"first_contact_due_utc"`
	FirstContactAtUTC               *time.Time `json:"first_contact_at_utc"`
	SLABreached                     bool       `json:"sla_breached"`
	CreatedAtUTC                    time.Time  `json:"created_at_utc"`
}

// handleListWebsiteLeads handles GET /leads/website
func (s *Server) handleListWebsiteLeads(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryLimit(q)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	mode := types.QueueAll
	if raw := q.Get("queue_mode"); raw != "" {
		mode = types.QueueMode(raw)
		if !mode.Valid() {
			s.errorResponse(w, http.StatusBadRequest, "invalid queue_mode: "+raw)
			return
		}
	}

	leads := s.store.ListWebsiteLeads(store.WebsiteLeadQuery{
		CampaignID: q.Get("campaign_id"),
		Mode:       mode,
		Limit:      limit,
	})
	items := make([]websiteLeadItem, 0, len(leads))
	for _, lead := range leads {
		items = append(items, websiteLeadItem{
			LeadID:                          lead.ID,
			CandidateID:                     lead.CandidateID,
			Deduplicated:                    lead.Deduplicated,
			ApplicationID:                   lead.ApplicationID,
			Name:                            lead.Name,
			Phone:                           lead.Phone,
			Neighborhood:                    lead.Neighborhood,
			CampaignID:                      lead.CampaignID,
			JobID:                           lead.JobID,
			UTMSource:                       lead.UTMSource,
			WALink:                          lead.WALink,
			WAClickCount:                    lead.WAClickCount,
			FirstContactSLAMinutesEffective: lead.SLAMinutes,
			FirstContactDueUTC:              lead.FirstContactDue,
			FirstContactAtUTC:               lead.FirstContactAt,
			SLABreached:                     lead.SLABreached,
			CreatedAtUTC:                    lead.CreatedAt,
		})
	}
	s.jsonResponse(w, http.StatusOK, items)
}

type contactResponse struct {
	LeadID            string    `json:"lead_id"`
	FirstContactAtUTC time.Time `json:"first_contact_at_utc"`
	SLABreached       bool      `json:"sla_breached"`
}

// handleMarkWebsiteLeadContacted handles POST /leads/website/{id}/contact
func (s *Server) handleMarkWebsiteLeadContacted(w http.ResponseWriter, r *http.Request) {
	lead, err := s.store.MarkWebsiteLeadContacted(r.PathValue("id"), time.Time{})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	at := lead.UpdatedAt
	if lead.FirstContactAt != nil {
		at = *lead.FirstContactAt
	}
	s.jsonResponse(w, http.StatusOK, contactResponse{LeadID: lead.ID, FirstContactAtUTC: at, SLABreached: lead.SLABreached})
}

type websiteEventResponse struct {
	EventID  string `json:"event_id"`
	Recorded bool   `json:"recorded"`
}

// handleRecordWebsiteEvent handles POST /events/website
func (s *Server) handleRecordWebsiteEvent(w http.ResponseWriter, r *http.Request) {
	var req types.WebsiteEventRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	event, err := s.store.RecordWebsiteEvent(&req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, websiteEventResponse{EventID: event.ID, Recorded: true})
}

// handleWebsiteFunnelSummary handles GET /funnel/website/summary
func (s *Server) handleWebsiteFunnelSummary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := queryDate(q, "date_from")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := queryDate(q, "date_to")
	if err != nil {
		s.fail(w, r, err)
		return
	}

	end := s.now().UTC().Truncate(24 * time.Hour)
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -funnelWindowDays)
	if from != nil {
		start = *from
	}
	if start.After(end) {
		s.errorResponse(w, http.StatusBadRequest, "date_from cannot be greater than date_to")
		return
	}

	summary := s.store.WebsiteFunnelSummary(start.Format(dateLayout), end.Format(dateLayout), q.Get("campaign_id"))
	s.jsonResponse(w, http.StatusOK, summary)
}

// queryLimit reads the limit parameter. Absent means the store default.
func queryLimit(q url.Values) (int, error) {
	raw := q.Get("limit")
	if raw == "" {
		return store.DefaultListLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ErrBadRequest{Message: "limit must be an integer"}
	}
	return store.ClampLimit(limit), nil
}

// queryDate parses an optional YYYY-MM-DD parameter as a UTC date.
func queryDate(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, &ErrBadRequest{Message: name + " must be a date (YYYY-MM-DD)"}
	}
	return &t, nil
}

func validSource(source types.SourceChannel) bool {
	switch source {
	case types.SourceWhatsApp, types.SourceWalkIn, types.SourceReferral,
		types.SourceAgent, types.SourceWeb, types.SourceCall:
		return true
	}
	return false
}
