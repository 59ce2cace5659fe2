package store

import (
	"strings"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// CampaignCity is the city every first-10 campaign runs in.
const CampaignCity = "Bangalore"

// CreateCampaign records a first-10 campaign with all counters at zero.
func (s *Store) CreateCampaign(req *types.CampaignBootstrapRequest) types.Campaign {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[string]int, len(types.CampaignEventTypes()))
	for _, et := range types.CampaignEventTypes() {
		counts[string(et)] = 0
	}

	now := s.clock()
	campaign := types.Campaign{
		ID:                     types.NewID("cmp"),
		EmployerName:           strings.TrimSpace(req.EmployerName),
		City:                   CampaignCity,
		NeighborhoodFocus:      nonNilStrings(req.NeighborhoodFocus),
		WhatsAppBusinessNumber: strings.TrimSpace(req.WhatsAppBusinessNumber),
		TargetJoiners:          req.Target(),
		FresherPreferred:       req.Fresher(),
		FirstContactSLAMinutes: req.FirstContactSLAMinutes,
		Counts:                 counts,
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	s.campaigns.put(campaign.ID, campaign)
	s.saveLocked("create_campaign")
	return copyCampaign(campaign)
}

// GetCampaign returns the campaign with id.
func (s *Store) GetCampaign(id string) (types.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	campaign, err := s.getCampaignLocked(id)
	if err != nil {
		return types.Campaign{}, err
	}
	return copyCampaign(campaign), nil
}

func (s *Store) getCampaignLocked(id string) (types.Campaign, error) {
	campaign, ok := s.campaigns.get(id)
	if !ok {
		return types.Campaign{}, &NotFoundError{Kind: "campaign", ID: id}
	}
	return campaign, nil
}

// LogCampaignEvent adds count to one funnel bucket. Counters never decrease.
func (s *Store) LogCampaignEvent(id string, eventType types.CampaignEventType, count int) (types.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign, err := s.getCampaignLocked(id)
	if err != nil {
		return types.Campaign{}, err
	}
	if count < 0 {
		count = 0
	}

	updated := copyCampaign(campaign)
	updated.Counts[string(eventType)] += count
	updated.UpdatedAt = s.clock()
	s.campaigns.put(id, updated)
	s.saveLocked("log_campaign_event")
	return copyCampaign(updated), nil
}

// copyCampaign detaches the counts map so callers cannot mutate stored state.
func copyCampaign(c types.Campaign) types.Campaign {
	counts := make(map[string]int, len(c.Counts))
	for k, v := range c.Counts {
		counts[k] = v
	}
	c.Counts = counts
	return c
}
