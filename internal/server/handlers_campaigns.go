package server

import (
	"net/http"

	"github.com/nerdintosubs/hiring-agent/internal/campaign"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

type bootstrapResponse struct {
	CampaignID                      string            `json:"campaign_id"`
	City                            string            `json:"city"`
	TargetJoiners                   int               `json:"target_joiners"`
	FirstContactSLAMinutesEffective int               `json:"first_contact_sla_minutes_effective"`
	TargetFunnel                    campaign.Funnel   `json:"target_funnel"`
	Templates                       map[string]string `json:"templates"`
}

// handleBootstrapCampaign handles POST /campaigns/first-10/bootstrap
func (s *Server) handleBootstrapCampaign(w http.ResponseWriter, r *http.Request) {
	var req types.CampaignBootstrapRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	c := s.store.CreateCampaign(&req)
	sla := s.settings.DefaultFirstContactSLAMinutes
	if c.FirstContactSLAMinutes != nil {
		sla = *c.FirstContactSLAMinutes
	}
	s.jsonResponse(w, http.StatusOK, bootstrapResponse{
		CampaignID:                      c.ID,
		City:                            c.City,
		TargetJoiners:                   c.TargetJoiners,
		FirstContactSLAMinutesEffective: sla,
		TargetFunnel:                    campaign.TargetFunnel(c.TargetJoiners),
		Templates:                       campaign.Templates(c.WhatsAppBusinessNumber),
	})
}

// handleLogCampaignEvent handles POST /campaigns/{id}/events
func (s *Server) handleLogCampaignEvent(w http.ResponseWriter, r *http.Request) {
	var req types.CampaignEventRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	c, err := s.store.LogCampaignEvent(r.PathValue("id"), req.EventType, req.Amount())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, campaign.ProgressFor(c))
}

// handleCampaignProgress handles GET /campaigns/{id}/progress
func (s *Server) handleCampaignProgress(w http.ResponseWriter, r *http.Request) {
	c, err := s.store.GetCampaign(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, campaign.ProgressFor(c))
}
