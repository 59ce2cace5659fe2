package types

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validIntake() EmployerIntakeRequest {
	return EmployerIntakeRequest{
		EmployerName:      "Lotus Wellness",
		ContactPhone:      "9876543210",
		Role:              "Spa Therapist",
		RequiredTherapies: []string{"swedish"},
		ShiftStart:        "10:00",
		ShiftEnd:          "19:00",
		PayMin:            20000,
		PayMax:            30000,
		LocationName:      "Indiranagar",
		Location:          &Coordinates{Lat: 12.9719, Lon: 77.6412},
		Languages:         []Language{LanguageKannada, LanguageEnglish},
	}
}

func TestValidate_EmployerIntake(t *testing.T) {
	req := validIntake()
	require.NoError(t, Validate(&req))
	assert.Equal(t, DefaultUrgencyHours, req.Urgency())
}

func TestValidate_EmployerIntakePayBand(t *testing.T) {
	req := validIntake()
	req.PayMin = 40000
	req.PayMax = 20000

	err := Validate(&req)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "pay_min", verr.Errors[0].Field)
	assert.Equal(t, "pay_min cannot be greater than pay_max", verr.Errors[0].Message)
}

func TestValidate_EmployerIntakeFieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *EmployerIntakeRequest)
		field  string
	}{
		{"short name", func(r *EmployerIntakeRequest) { r.EmployerName = "L" }, "employer_name"},
		{"missing location", func(r *EmployerIntakeRequest) { r.Location = nil }, "location"},
		{"latitude out of range", func(r *EmployerIntakeRequest) { r.Location = &Coordinates{Lat: 91, Lon: 0} }, "location.lat"},
		{"unknown language", func(r *EmployerIntakeRequest) { r.Languages = []Language{"fr"} }, "languages[0]"},
		{"bad shift", func(r *EmployerIntakeRequest) { r.ShiftStart = "late" }, "shift_start"},
		{"urgency too high", func(r *EmployerIntakeRequest) { v := 200; r.UrgencyHours = &v }, "urgency_hours"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validIntake()
			tt.mutate(&req)
			err := Validate(&req)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			fields := make([]string, 0, len(verr.Errors))
			for _, fe := range verr.Errors {
				fields = append(fields, fe.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestValidate_CandidateIngestRequiresSource(t *testing.T) {
	req := CandidateIngestRequest{Name: "Kiran M", Phone: "9000011111"}
	err := Validate(&req)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "source_channel"))

	req.SourceChannel = SourceWhatsApp
	assert.NoError(t, Validate(&req))
}

func TestValidate_WebhookEventID(t *testing.T) {
	ev := WebhookEvent{EventID: "ab"}
	assert.Error(t, Validate(&ev))

	ev.EventID = "evt_1234"
	assert.NoError(t, Validate(&ev))
}

func TestValidate_OfferJoiningDate(t *testing.T) {
	req := OfferCreateRequest{ApplicationID: "app_1", MonthlyPay: 25000, JoiningDate: "05/01/2026"}
	assert.Error(t, Validate(&req))

	req.JoiningDate = "2026-05-01"
	assert.NoError(t, Validate(&req))
}

func TestRequestDefaults(t *testing.T) {
	var shortlist ShortlistRequest
	assert.Equal(t, 5, shortlist.K())

	var campaign CampaignBootstrapRequest
	assert.Equal(t, 10, campaign.Target())
	assert.True(t, campaign.Fresher())

	var event CampaignEventRequest
	assert.Equal(t, 1, event.Amount())

	var interview InterviewScheduleRequest
	assert.Equal(t, "phone", interview.InterviewMode())

	var lead ManualLeadCreateRequest
	assert.Equal(t, SourceWalkIn, lead.Source())
	assert.Equal(t, SourceWalkIn, lead.IngestRequest().SourceChannel)

	var web WebsiteLeadCreateRequest
	assert.Equal(t, SourceWeb, web.IngestRequest().SourceChannel)
}

func TestNewID(t *testing.T) {
	id := NewID("cand")
	assert.True(t, strings.HasPrefix(id, "cand_"))
	assert.Len(t, id, len("cand_")+10)
	assert.NotEqual(t, id, NewID("cand"))
}

func TestWebsiteLead_JSONFieldNames(t *testing.T) {
	lead := WebsiteLead{ID: "wlead_1", WALink: "https://wa.me/1", SLAMinutes: 30}
	data, err := json.Marshal(lead)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"wa_link_generated":"https://wa.me/1"`)
	assert.Contains(t, string(data), `"first_contact_sla_minutes_effective":30`)
	assert.NotContains(t, string(data), "first_contact_at_utc")
}
