// Package campaign holds the funnel arithmetic behind first-10 joiner
// hiring campaigns: targets, conversion rates, health and next actions.
package campaign

import (
	"github.com/nerdintosubs/hiring-agent/internal/scoring"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// Health statuses, checked in this order.
const (
	HealthOnTrack            = "on_track"
	HealthAtRiskOfferGap     = "at_risk_offer_gap"
	HealthAtRiskScreeningGap = "at_risk_screening_gap"
	HealthProgressing        = "progressing"
)

// Funnel is a count per campaign stage.
type Funnel struct {
	Leads    int `json:"leads"`
	Screened int `json:"screened"`
	Trials   int `json:"trials"`
	Offers   int `json:"offers"`
	Joined   int `json:"joined"`
}

// FromCounts reads a campaign's counters into a Funnel. Missing keys are zero.
func FromCounts(counts map[string]int) Funnel {
	return Funnel{
		Leads:    counts[string(types.CampaignLeads)],
		Screened: counts[string(types.CampaignScreened)],
		Trials:   counts[string(types.CampaignTrials)],
		Offers:   counts[string(types.CampaignOffers)],
		Joined:   counts[string(types.CampaignJoined)],
	}
}

// TargetFunnel derives stage targets from a joiner target.
func TargetFunnel(targetJoiners int) Funnel {
	return Funnel{
		Leads:    targetJoiners * 12,
		Screened: targetJoiners * 6,
		Trials:   targetJoiners * 3,
		Offers:   targetJoiners * 3 / 2,
		Joined:   targetJoiners,
	}
}

// ConversionRates are stage-to-stage percentages rounded to two places.
type ConversionRates struct {
	LeadToScreened  float64 `json:"lead_to_screened"`
	ScreenedToTrial float64 `json:"screened_to_trial"`
	TrialToOffer    float64 `json:"trial_to_offer"`
	OfferToJoined   float64 `json:"offer_to_joined"`
}

// Rates computes conversion between consecutive stages. A zero denominator
// counts as one.
func Rates(f Funnel) ConversionRates {
	return ConversionRates{
		LeadToScreened:  percent(f.Screened, f.Leads),
		ScreenedToTrial: percent(f.Trials, f.Screened),
		TrialToOffer:    percent(f.Offers, f.Trials),
		OfferToJoined:   percent(f.Joined, f.Offers),
	}
}

func percent(n, d int) float64 {
	if d < 1 {
		d = 1
	}
	return scoring.Round(float64(n)/float64(d)*100, 2)
}

// Health classifies a campaign against its targets.
func Health(counts Funnel, targetJoiners int, target Funnel) string {
	switch {
	case counts.Joined >= targetJoiners:
		return HealthOnTrack
	case counts.Offers < max(target.Offers/3, 1):
		return HealthAtRiskOfferGap
	case counts.Screened < max(target.Screened/3, 1):
		return HealthAtRiskScreeningGap
	default:
		return HealthProgressing
	}
}

// Actions recommends one action per stage that is behind target.
func Actions(counts, target Funnel) []string {
	var actions []string
	if counts.Leads < target.Leads {
		actions = append(actions, "Boost lead gen via institutes, referrals, and WhatsApp groups daily.")
	}
	if counts.Screened < target.Screened {
		actions = append(actions, "Add same-day multilingual phone screening slots to reduce drop-offs.")
	}
	if counts.Trials < target.Trials {
		actions = append(actions, "Run daily trial blocks with backup candidates for no-show protection.")
	}
	if counts.Offers < target.Offers {
		actions = append(actions, "Issue offer decisions within 4 hours after trial completion.")
	}
	if counts.Joined < target.Joined {
		actions = append(actions, "Run T-24h and T-2h joining confirmations with safety and commute support.")
	}
	if len(actions) == 0 {
		return []string{"Maintain current cadence and monitor conversion quality by source."}
	}
	return actions
}

// Templates returns the outreach messages for a campaign.
func Templates(whatsAppNumber string) map[string]string {
	return map[string]string{
		"whatsapp_job_post": "Hiring Female Fresher Therapists in Bangalore. Paid training, fixed salary + " +
			"incentives, safe workplace, growth path. Apply on WhatsApp: " + whatsAppNumber,
		"screening_pitch_30s": "We are hiring female fresher therapists for Bengaluru centers with paid training, " +
			"safe shifts, and fast growth. Can we do a quick 5-minute screening call now?",
		"day_before_joining_nudge": "Reminder: Your joining is tomorrow. Please confirm travel plan and reporting time. " +
			"Reply YES to confirm.",
	}
}

// Progress is the reporting view of a campaign.
type Progress struct {
	CampaignID         string          `json:"campaign_id"`
	EmployerName       string          `json:"employer_name"`
	City               string          `json:"city"`
	TargetJoiners      int             `json:"target_joiners"`
	Counts             Funnel          `json:"counts"`
	ConversionRates    ConversionRates `json:"conversion_rates"`
	HealthStatus       string          `json:"health_status"`
	RecommendedActions []string        `json:"recommended_actions"`
}

// ProgressFor builds the progress report for c.
func ProgressFor(c types.Campaign) Progress {
	counts := FromCounts(c.Counts)
	target := TargetFunnel(c.TargetJoiners)
	return Progress{
		CampaignID:         c.ID,
		EmployerName:       c.EmployerName,
		City:               c.City,
		TargetJoiners:      c.TargetJoiners,
		Counts:             counts,
		ConversionRates:    Rates(counts),
		HealthStatus:       Health(counts, c.TargetJoiners, target),
		RecommendedActions: Actions(counts, target),
	}
}
