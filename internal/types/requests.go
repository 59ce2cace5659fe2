package types

import "time"

// Request defaults applied when optional fields are omitted.
const (
	DefaultUrgencyHours   = 48
	DefaultTargetJoiners  = 10
	DefaultCampaignCount  = 1
	DefaultShortlistTopK  = 5
	DefaultInterviewMode  = "phone"
	DefaultManualLeadFrom = SourceWalkIn
)

// EmployerIntakeRequest represents a new employer with its first job.
type EmployerIntakeRequest struct {
	EmployerName      string       `json:"employer_name" validate:"required,min=2,max=120"`
	ContactPhone      string       `json:"contact_phone" validate:"required,min=8,max=20"`
	Role              string       `json:"role" validate:"required,min=2,max=80"`
	RequiredTherapies []string     `json:"required_therapies"`
	ShiftStart        string       `json:"shift_start" validate:"required,datetime=15:04"`
	ShiftEnd          string       `json:"shift_end" validate:"required,datetime=15:04"`
	PayMin            int          `json:"pay_min" validate:"min=1"`
	PayMax            int          `json:"pay_max" validate:"min=1"`
	LocationName      string       `json:"location_name" validate:"required,min=2,max=120"`
	Location          *Coordinates `json:"location" validate:"required"`
	Languages         []Language   `json:"languages" validate:"dive,oneof=kn en hi ta te"`
	UrgencyHours      *int         `json:"urgency_hours,omitempty" validate:"omitempty,min=1,max=168"`
}

// Urgency returns the urgency window in hours, defaulting to 48.
func (r *EmployerIntakeRequest) Urgency() int {
	if r.UrgencyHours == nil {
		return DefaultUrgencyHours
	}
	return *r.UrgencyHours
}

// CandidateIngestRequest represents a candidate arriving from any channel.
type CandidateIngestRequest struct {
	Name                string        `json:"name" validate:"required,min=2,max=120"`
	Phone               string        `json:"phone" validate:"required,min=8,max=20"`
	SourceChannel       SourceChannel `json:"source_channel" validate:"required,oneof=whatsapp walk_in referral agent web call"`
	Languages           []Language    `json:"languages" validate:"dive,oneof=kn en hi ta te"`
	TherapyExperience   []string      `json:"therapy_experience"`
	ExperienceYears     float64       `json:"experience_years" validate:"gte=0,lte=50"`
	Certifications      []string      `json:"certifications"`
	ExpectedPay         *int          `json:"expected_pay,omitempty" validate:"omitempty,min=1"`
	CurrentLocation     *Coordinates  `json:"current_location,omitempty"`
	PreferredShiftStart string        `json:"preferred_shift_start,omitempty"`
	PreferredShiftEnd   string        `json:"preferred_shift_end,omitempty"`
	ReferredBy          string        `json:"referred_by,omitempty"`
	LastEmployer        string        `json:"last_employer,omitempty"`
	JobID               string        `json:"job_id,omitempty"`
}

// ManualLeadCreateRequest represents a recruiter-captured lead.
type ManualLeadCreateRequest struct {
	SourceChannel       SourceChannel `json:"source_channel" validate:"omitempty,oneof=whatsapp walk_in referral agent web call"`
	Name                string        `json:"name" validate:"required,min=2,max=120"`
	Phone               string        `json:"phone" validate:"required,min=8,max=20"`
	Languages           []Language    `json:"languages" validate:"dive,oneof=kn en hi ta te"`
	TherapyExperience   []string      `json:"therapy_experience"`
	ExperienceYears     float64       `json:"experience_years" validate:"gte=0,lte=50"`
	Certifications      []string      `json:"certifications"`
	ExpectedPay         *int          `json:"expected_pay,omitempty" validate:"omitempty,min=1"`
	CurrentLocation     *Coordinates  `json:"current_location,omitempty"`
	PreferredShiftStart string        `json:"preferred_shift_start,omitempty"`
	PreferredShiftEnd   string        `json:"preferred_shift_end,omitempty"`
	ReferredBy          string        `json:"referred_by,omitempty"`
	LastEmployer        string        `json:"last_employer,omitempty"`
	JobID               string        `json:"job_id,omitempty"`
	Neighborhood        string        `json:"neighborhood,omitempty" validate:"max=120"`
	Notes               string        `json:"notes,omitempty" validate:"max=250"`
	CreatedBy           string        `json:"created_by,omitempty" validate:"max=120"`
}

// Source returns the lead's channel, defaulting to walk_in.
func (r *ManualLeadCreateRequest) Source() SourceChannel {
	if r.SourceChannel == "" {
		return DefaultManualLeadFrom
	}
	return r.SourceChannel
}

// IngestRequest converts the lead into a candidate ingest request.
func (r *ManualLeadCreateRequest) IngestRequest() CandidateIngestRequest {
	return CandidateIngestRequest{
		Name:                r.Name,
		Phone:               r.Phone,
		SourceChannel:       r.Source(),
		Languages:           r.Languages,
		TherapyExperience:   r.TherapyExperience,
		ExperienceYears:     r.ExperienceYears,
		Certifications:      r.Certifications,
		ExpectedPay:         r.ExpectedPay,
		CurrentLocation:     r.CurrentLocation,
		PreferredShiftStart: r.PreferredShiftStart,
		PreferredShiftEnd:   r.PreferredShiftEnd,
		ReferredBy:          r.ReferredBy,
		LastEmployer:        r.LastEmployer,
		JobID:               r.JobID,
	}
}

// ManualLeadFilter narrows a manual lead listing.
type ManualLeadFilter struct {
	Limit         int
	SourceChannel SourceChannel
	Neighborhood  string
	CreatedBy     string
	Search        string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// WebsiteLeadCreateRequest represents a careers-site application form.
type WebsiteLeadCreateRequest struct {
	Name                string       `json:"name" validate:"required,min=2,max=120"`
	Phone               string       `json:"phone" validate:"required,min=8,max=20"`
	Languages           []Language   `json:"languages" validate:"dive,oneof=kn en hi ta te"`
	TherapyExperience   []string     `json:"therapy_experience"`
	ExperienceYears     float64      `json:"experience_years" validate:"gte=0,lte=50"`
	Certifications      []string     `json:"certifications"`
	ExpectedPay         *int         `json:"expected_pay,omitempty" validate:"omitempty,min=1"`
	CurrentLocation     *Coordinates `json:"current_location,omitempty"`
	PreferredShiftStart string       `json:"preferred_shift_start,omitempty"`
	PreferredShiftEnd   string       `json:"preferred_shift_end,omitempty"`
	Neighborhood        string       `json:"neighborhood,omitempty" validate:"max=120"`
	Notes               string       `json:"notes,omitempty" validate:"max=250"`
	JobID               string       `json:"job_id,omitempty"`
	CampaignID          string       `json:"campaign_id,omitempty"`
	UTMSource           string       `json:"utm_source,omitempty" validate:"max=120"`
	UTMMedium           string       `json:"utm_medium,omitempty" validate:"max=120"`
	UTMCampaign         string       `json:"utm_campaign,omitempty" validate:"max=120"`
	UTMTerm             string       `json:"utm_term,omitempty" validate:"max=120"`
	UTMContent          string       `json:"utm_content,omitempty" validate:"max=120"`
	LandingPath         string       `json:"landing_path,omitempty" validate:"max=250"`
	Referrer            string       `json:"referrer,omitempty" validate:"max=250"`
	SessionID           string       `json:"session_id,omitempty" validate:"max=120"`
	RecaptchaToken      string       `json:"recaptcha_token,omitempty" validate:"max=4000"`
}

// IngestRequest converts the form into a candidate ingest request from the web channel.
func (r *WebsiteLeadCreateRequest) IngestRequest() CandidateIngestRequest {
	return CandidateIngestRequest{
		Name:                r.Name,
		Phone:               r.Phone,
		SourceChannel:       SourceWeb,
		Languages:           r.Languages,
		TherapyExperience:   r.TherapyExperience,
		ExperienceYears:     r.ExperienceYears,
		Certifications:      r.Certifications,
		ExpectedPay:         r.ExpectedPay,
		CurrentLocation:     r.CurrentLocation,
		PreferredShiftStart: r.PreferredShiftStart,
		PreferredShiftEnd:   r.PreferredShiftEnd,
		JobID:               r.JobID,
	}
}

// WebsiteEventRequest represents an analytics event from the careers site.
type WebsiteEventRequest struct {
	EventType   WebsiteEventType `json:"event_type" validate:"required,oneof=view cta_click form_start form_submit wa_click"`
	LeadID      string           `json:"lead_id,omitempty"`
	CampaignID  string           `json:"campaign_id,omitempty"`
	SessionID   string           `json:"session_id,omitempty" validate:"max=120"`
	UTMSource   string           `json:"utm_source,omitempty" validate:"max=120"`
	UTMMedium   string           `json:"utm_medium,omitempty" validate:"max=120"`
	UTMCampaign string           `json:"utm_campaign,omitempty" validate:"max=120"`
	LandingPath string           `json:"landing_path,omitempty" validate:"max=250"`
	Referrer    string           `json:"referrer,omitempty" validate:"max=250"`
	Metadata    map[string]any   `json:"metadata,omitempty"`
}

// CampaignBootstrapRequest represents a new first-10 campaign.
type CampaignBootstrapRequest struct {
	EmployerName           string   `json:"employer_name" validate:"required,min=2,max=120"`
	NeighborhoodFocus      []string `json:"neighborhood_focus"`
	WhatsAppBusinessNumber string   `json:"whatsapp_business_number" validate:"required,min=8,max=20"`
	TargetJoiners          *int     `json:"target_joiners,omitempty" validate:"omitempty,min=1,max=200"`
	FresherPreferred       *bool    `json:"fresher_preferred,omitempty"`
	FirstContactSLAMinutes *int     `json:"first_contact_sla_minutes,omitempty" validate:"omitempty,min=5,max=240"`
}

// Target returns the joiner target, defaulting to 10.
func (r *CampaignBootstrapRequest) Target() int {
	if r.TargetJoiners == nil {
		return DefaultTargetJoiners
	}
	return *r.TargetJoiners
}

// Fresher returns whether freshers are preferred, defaulting to true.
func (r *CampaignBootstrapRequest) Fresher() bool {
	if r.FresherPreferred == nil {
		return true
	}
	return *r.FresherPreferred
}

// CampaignEventRequest logs progress against a campaign funnel bucket.
type CampaignEventRequest struct {
	EventType CampaignEventType `json:"event_type" validate:"required,oneof=leads screened trials offers joined"`
	Count     *int              `json:"count,omitempty" validate:"omitempty,min=1,max=200"`
	Note      string            `json:"note,omitempty" validate:"max=200"`
}

// Amount returns the count to add, defaulting to 1.
func (r *CampaignEventRequest) Amount() int {
	if r.Count == nil {
		return DefaultCampaignCount
	}
	return *r.Count
}

// ScreeningRunRequest asks for a candidate to be scored against a job.
type ScreeningRunRequest struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	JobID       string `json:"job_id" validate:"required"`
}

// InterviewScheduleRequest books an interview for a screened candidate.
type InterviewScheduleRequest struct {
	JobID       string    `json:"job_id" validate:"required"`
	CandidateID string    `json:"candidate_id" validate:"required"`
	Mode        string    `json:"mode,omitempty"`
	ScheduledAt time.Time `json:"scheduled_at_utc" validate:"required"`
}

// InterviewMode returns the interview mode, defaulting to phone.
func (r *InterviewScheduleRequest) InterviewMode() string {
	if r.Mode == "" {
		return DefaultInterviewMode
	}
	return r.Mode
}

// ShortlistRequest asks for the top candidates on a job.
type ShortlistRequest struct {
	JobID string `json:"job_id" validate:"required"`
	TopK  *int   `json:"top_k,omitempty" validate:"omitempty,min=1,max=50"`
}

// K returns how many candidates to shortlist, defaulting to 5.
func (r *ShortlistRequest) K() int {
	if r.TopK == nil {
		return DefaultShortlistTopK
	}
	return *r.TopK
}

// OfferCreateRequest creates an offer on a shortlisted application.
type OfferCreateRequest struct {
	ApplicationID string `json:"application_id" validate:"required"`
	MonthlyPay    int    `json:"monthly_pay" validate:"min=1"`
	JoiningDate   string `json:"joining_date" validate:"required,datetime=2006-01-02"`
}

// StageTransitionRequest moves an application to another stage.
type StageTransitionRequest struct {
	ToStage Stage  `json:"to_stage" validate:"required,oneof=new screened interviewed shortlisted offered joined dropped"`
	Reason  string `json:"reason" validate:"required,min=2,max=200"`
}

// WebhookEvent is the envelope posted by WhatsApp and telephony providers.
type WebhookEvent struct {
	EventID   string         `json:"event_id" validate:"required,min=4,max=120"`
	Phone     string         `json:"phone,omitempty"`
	EventType string         `json:"event_type,omitempty"`
	Payload   map[string]any `json:"payload"`
}
