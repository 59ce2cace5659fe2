package channel

import (
	"testing"

	"github.com/nerdintosubs/hiring-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFor(t *testing.T) {
	tests := []struct {
		channel   string
		eventType string
		want      types.SourceChannel
	}{
		{ChannelWhatsApp, "candidate_lead", types.SourceWhatsApp},
		{ChannelWhatsApp, " Referral_Lead ", types.SourceReferral},
		{ChannelWhatsApp, "call_lead", types.SourceCall},
		{ChannelTelephony, "candidate_lead", types.SourceCall},
		{ChannelTelephony, "referral_lead", types.SourceReferral},
	}
	for _, tt := range tests {
		t.Run(tt.channel+"/"+tt.eventType, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceFor(tt.channel, tt.eventType))
		})
	}
}

func TestIsLeadEvent(t *testing.T) {
	assert.True(t, IsLeadEvent("CANDIDATE_LEAD"))
	assert.True(t, IsLeadEvent(" call_lead"))
	assert.False(t, IsLeadEvent(""))
	assert.False(t, IsLeadEvent("status_update"))
}

func TestDecodeLead_Fields(t *testing.T) {
	event := types.WebhookEvent{
		EventID:   "evt_2001",
		EventType: "referral_lead",
		Payload: map[string]any{
			"candidate_name":        "  Lakshmi N ",
			"phone":                 " 9000054321 ",
			"languages":             "kn",
			"certifications":        []any{"cidesco"},
			"experience_years":      3.5,
			"expected_pay":          25000.0,
			"current_location":      map[string]any{"lat": 12.93, "lon": 77.62},
			"preferred_shift_start": "10:00",
			"referred_by":           "Meena",
			"last_employer":         " Orchid Spa ",
		},
	}

	req, err := DecodeLead(ChannelTelephony, event)
	require.NoError(t, err)
	assert.Equal(t, "Lakshmi N", req.Name)
	assert.Equal(t, "9000054321", req.Phone)
	assert.Equal(t, types.SourceReferral, req.SourceChannel)
	assert.Equal(t, []types.Language{}, req.Languages)
	assert.Equal(t, []string{}, req.TherapyExperience)
	assert.Equal(t, []string{"cidesco"}, req.Certifications)
	assert.Equal(t, 3.5, req.ExperienceYears)
	require.NotNil(t, req.ExpectedPay)
	assert.Equal(t, 25000, *req.ExpectedPay)
	require.NotNil(t, req.CurrentLocation)
	assert.Equal(t, 12.93, req.CurrentLocation.Lat)
	assert.Equal(t, "10:00", req.PreferredShiftStart)
	assert.Equal(t, "Meena", req.ReferredBy)
	assert.Equal(t, "Orchid Spa", req.LastEmployer)
}

func TestDecodeLead_EventPhoneWins(t *testing.T) {
	req, err := DecodeLead(ChannelWhatsApp, types.WebhookEvent{
		EventID: "evt_2002",
		Phone:   "9000011111",
		Payload: map[string]any{"name": "Meena K", "phone": "9000022222"},
	})
	require.NoError(t, err)
	assert.Equal(t, "9000011111", req.Phone)
}

func TestDecodeLead_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		phone   string
		payload map[string]any
		wantErr string
	}{
		{"non-string name", "9000011111", map[string]any{"name": 42.0}, "candidate lead missing name"},
		{"blank name", "9000011111", map[string]any{"name": "   "}, "candidate lead missing name"},
		{"no phone", "", map[string]any{"name": "Meena K"}, "candidate lead missing phone"},
		{"null list", "9000011111", map[string]any{"name": "Meena K", "certifications": nil}, "invalid candidate lead payload: certifications must not be null"},
		{"null years", "9000011111", map[string]any{"name": "Meena K", "experience_years": nil}, "invalid candidate lead payload: experience_years must not be null"},
		{"string years", "9000011111", map[string]any{"name": "Meena K", "experience_years": "two"}, "invalid candidate lead payload: "},
		{"years out of range", "9000011111", map[string]any{"name": "Meena K", "experience_years": 70.0}, "invalid candidate lead payload: "},
		{"short phone", "12345", map[string]any{"name": "Meena K"}, "invalid candidate lead payload: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeLead(ChannelWhatsApp, types.WebhookEvent{EventID: "evt_bad", Phone: tt.phone, Payload: tt.payload})
			var pe *PermanentError
			require.ErrorAs(t, err, &pe)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTruthy(t *testing.T) {
	for _, v := range []any{true, 1.0, "x", []any{1}, map[string]any{"a": 1}} {
		assert.True(t, truthy(v), "%v", v)
	}
	for _, v := range []any{nil, false, 0.0, "", []any{}, map[string]any{}} {
		assert.False(t, truthy(v), "%v", v)
	}
}
