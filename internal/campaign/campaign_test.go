package campaign

import (
	"testing"

	"github.com/nerdintosubs/hiring-agent/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestTargetFunnel(t *testing.T) {
	assert.Equal(t, Funnel{Leads: 120, Screened: 60, Trials: 30, Offers: 15, Joined: 10}, TargetFunnel(10))
	assert.Equal(t, Funnel{Leads: 36, Screened: 18, Trials: 9, Offers: 4, Joined: 3}, TargetFunnel(3))
	assert.Equal(t, Funnel{Leads: 12, Screened: 6, Trials: 3, Offers: 1, Joined: 1}, TargetFunnel(1))
}

func TestRates(t *testing.T) {
	tests := []struct {
		name   string
		counts Funnel
		want   ConversionRates
	}{
		{
			name:   "empty funnel",
			counts: Funnel{},
			want:   ConversionRates{},
		},
		{
			name:   "zero denominators count as one",
			counts: Funnel{Screened: 2},
			want:   ConversionRates{LeadToScreened: 200},
		},
		{
			name:   "rounded to two places",
			counts: Funnel{Leads: 3, Screened: 1, Trials: 1, Offers: 2, Joined: 1},
			want:   ConversionRates{LeadToScreened: 33.33, ScreenedToTrial: 100, TrialToOffer: 200, OfferToJoined: 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rates(tt.counts))
		})
	}
}

func TestHealth(t *testing.T) {
	target := TargetFunnel(10)
	tests := []struct {
		name   string
		counts Funnel
		want   string
	}{
		{"joined target met", Funnel{Joined: 10}, HealthOnTrack},
		{"offers below a third", Funnel{Offers: 4, Screened: 60}, HealthAtRiskOfferGap},
		{"screening below a third", Funnel{Offers: 5, Screened: 19}, HealthAtRiskScreeningGap},
		{"progressing", Funnel{Offers: 5, Screened: 20}, HealthProgressing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Health(tt.counts, 10, target))
		})
	}
}

func TestActions(t *testing.T) {
	target := TargetFunnel(1)

	all := Actions(Funnel{}, target)
	assert.Len(t, all, 5)
	assert.Contains(t, all[0], "Boost lead gen")

	some := Actions(Funnel{Leads: 12, Screened: 6, Trials: 3}, target)
	assert.Equal(t, []string{
		"Issue offer decisions within 4 hours after trial completion.",
		"Run T-24h and T-2h joining confirmations with safety and commute support.",
	}, some)

	done := Actions(target, target)
	assert.Equal(t, []string{"Maintain current cadence and monitor conversion quality by source."}, done)
}

func TestTemplates(t *testing.T) {
	templates := Templates("+919845000000")
	assert.Len(t, templates, 3)
	assert.Contains(t, templates["whatsapp_job_post"], "Apply on WhatsApp: +919845000000")
	assert.Contains(t, templates["screening_pitch_30s"], "5-minute screening call")
	assert.Contains(t, templates["day_before_joining_nudge"], "Reply YES")
}

func TestProgressFor(t *testing.T) {
	c := types.Campaign{
		ID:            "cmp_1",
		EmployerName:  "Lotus Wellness",
		City:          "Bangalore",
		TargetJoiners: 10,
		Counts:        map[string]int{"leads": 40, "screened": 20, "trials": 8, "offers": 5, "joined": 1},
	}

	p := ProgressFor(c)
	assert.Equal(t, Funnel{Leads: 40, Screened: 20, Trials: 8, Offers: 5, Joined: 1}, p.Counts)
	assert.Equal(t, 50.0, p.ConversionRates.LeadToScreened)
	assert.Equal(t, 20.0, p.ConversionRates.OfferToJoined)
	assert.Equal(t, HealthProgressing, p.HealthStatus)
	assert.Len(t, p.RecommendedActions, 5)
}
