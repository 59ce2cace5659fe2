package channel

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// Channel names used in delivery keys and routes.
const (
	ChannelWhatsApp  = "whatsapp"
	ChannelTelephony = "telephony"
)

// Lead event types that create or update a candidate.
const (
	EventCandidateLead = "candidate_lead"
	EventReferralLead  = "referral_lead"
	EventCallLead      = "call_lead"
)

// leadPayload holds the typed optional fields of a lead payload.
// name, phone and languages are read from the raw map separately.
type leadPayload struct {
	TherapyExperience   []string           `json:"therapy_experience"`
	ExperienceYears     float64            `json:"experience_years"`
	Certifications      []string           `json:"certifications"`
	ExpectedPay         *int               `json:"expected_pay"`
	CurrentLocation     *types.Coordinates `json:"current_location"`
	PreferredShiftStart *string            `json:"preferred_shift_start"`
	PreferredShiftEnd   *string            `json:"preferred_shift_end"`
	ReferredBy          *string            `json:"referred_by"`
	LastEmployer        *string            `json:"last_employer"`
	JobID               *string            `json:"job_id"`
}

// nonNullable lists payload keys that may be omitted but not sent as null.
var nonNullable = []string{"therapy_experience", "experience_years", "certifications"}

// IsLeadEvent reports whether eventType (case and whitespace insensitive) creates a candidate.
func IsLeadEvent(eventType string) bool {
	switch normalizeEventType(eventType) {
	case EventCandidateLead, EventReferralLead, EventCallLead:
		return true
	}
	return false
}

// SourceFor attributes a lead event to a candidate source channel.
func SourceFor(channel, eventType string) types.SourceChannel {
	switch normalizeEventType(eventType) {
	case EventReferralLead:
		return types.SourceReferral
	case EventCallLead:
		return types.SourceCall
	}
	if channel == ChannelWhatsApp {
		return types.SourceWhatsApp
	}
	return types.SourceCall
}

// DecodeLead converts a lead event into a validated candidate ingest request.
// Every failure is a *PermanentError; no partial request is returned.
func DecodeLead(channel string, event types.WebhookEvent) (types.CandidateIngestRequest, error) {
	data := event.Payload

	name := firstString(data, "name", "candidate_name")
	if name == "" {
		return types.CandidateIngestRequest{}, &PermanentError{Message: "candidate lead missing name"}
	}
	phone := strings.TrimSpace(event.Phone)
	if phone == "" {
		phone = firstString(data, "phone")
	}
	if phone == "" {
		return types.CandidateIngestRequest{}, &PermanentError{Message: "candidate lead missing phone"}
	}

	for _, key := range nonNullable {
		if v, ok := data[key]; ok && v == nil {
			return types.CandidateIngestRequest{}, invalidLead(fmt.Errorf("%s must not be null", key))
		}
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return types.CandidateIngestRequest{}, invalidLead(err)
	}
	var lead leadPayload
	if err := json.Unmarshal(raw, &lead); err != nil {
		return types.CandidateIngestRequest{}, invalidLead(err)
	}

	req := types.CandidateIngestRequest{
		Name:                name,
		Phone:               phone,
		SourceChannel:       SourceFor(channel, event.EventType),
		Languages:           parseLanguages(data["languages"]),
		TherapyExperience:   nonNil(lead.TherapyExperience),
		ExperienceYears:     lead.ExperienceYears,
		Certifications:      nonNil(lead.Certifications),
		ExpectedPay:         lead.ExpectedPay,
		CurrentLocation:     lead.CurrentLocation,
		PreferredShiftStart: deref(lead.PreferredShiftStart),
		PreferredShiftEnd:   deref(lead.PreferredShiftEnd),
		ReferredBy:          deref(lead.ReferredBy),
		LastEmployer:        deref(lead.LastEmployer),
		JobID:               deref(lead.JobID),
	}
	if err := types.Validate(&req); err != nil {
		return types.CandidateIngestRequest{}, invalidLead(err)
	}
	return req, nil
}

func invalidLead(err error) *PermanentError {
	return &PermanentError{Message: "invalid candidate lead payload: " + err.Error()}
}

func normalizeEventType(eventType string) string {
	return strings.ToLower(strings.TrimSpace(eventType))
}

// firstString returns the first non-blank string value among keys, trimmed.
// Non-string values count as absent.
func firstString(data map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := data[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// parseLanguages keeps the known language codes of a JSON list and drops the rest.
func parseLanguages(value any) []types.Language {
	items, ok := value.([]any)
	if !ok {
		return []types.Language{}
	}
	out := make([]types.Language, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		if lang := types.Language(s); lang.Valid() {
			out = append(out, lang)
		}
	}
	return out
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
