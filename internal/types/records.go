package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewID returns an identifier of the form "<prefix>_<10 hex chars>".
func NewID(prefix string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + "_" + hex[:10]
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon float64 `json:"lon" validate:"gte=-180,lte=180"`
}

// Employer is created once per intake and never mutated.
type Employer struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ContactPhone string    `json:"contact_phone"`
	CreatedAt    time.Time `json:"created_at_utc"`
}

// Job is an open role owned by an employer. Immutable after creation.
type Job struct {
	ID                string      `json:"id"`
	EmployerID        string      `json:"employer_id"`
	Role              string      `json:"role"`
	RequiredTherapies []string    `json:"required_therapies"`
	ShiftStart        string      `json:"shift_start"`
	ShiftEnd          string      `json:"shift_end"`
	PayMin            int         `json:"pay_min"`
	PayMax            int         `json:"pay_max"`
	LocationName      string      `json:"location_name"`
	Location          Coordinates `json:"location"`
	Languages         []Language  `json:"languages"`
	SLADeadline       time.Time   `json:"sla_deadline_utc"`
	CreatedAt         time.Time   `json:"created_at_utc"`
}

// Candidate is a person who may apply to jobs.
type Candidate struct {
	ID                  string        `json:"id"`
	Name                string        `json:"name"`
	Phone               string        `json:"phone"`
	SourceChannel       SourceChannel `json:"source_channel"`
	Languages           []Language    `json:"languages"`
	TherapyExperience   []string      `json:"therapy_experience"`
	ExperienceYears     float64       `json:"experience_years"`
	Certifications      []string      `json:"certifications"`
	ExpectedPay         *int          `json:"expected_pay,omitempty"`
	CurrentLocation     *Coordinates  `json:"current_location,omitempty"`
	PreferredShiftStart string        `json:"preferred_shift_start,omitempty"`
	PreferredShiftEnd   string        `json:"preferred_shift_end,omitempty"`
	ReferredBy          string        `json:"referred_by,omitempty"`
	LastEmployer        string        `json:"last_employer,omitempty"`
	CreatedAt           time.Time     `json:"created_at_utc"`
}

// Application links one candidate to one job.
type Application struct {
	ID             string    `json:"id"`
	JobID          string    `json:"job_id"`
	CandidateID    string    `json:"candidate_id"`
	Stage          Stage     `json:"stage"`
	ScreeningScore *float64  `json:"screening_score,omitempty"`
	CreatedAt      time.Time `json:"created_at_utc"`
	UpdatedAt      time.Time `json:"updated_at_utc"`
}

// Screening records one scoring run.
type Screening struct {
	ID              string    `json:"id"`
	JobID           string    `json:"job_id"`
	CandidateID     string    `json:"candidate_id"`
	ApplicationID   string    `json:"application_id"`
	HardFilterPass  bool      `json:"hard_filter_pass"`
	OverallFitScore float64   `json:"overall_fit_score"`
	Explanation     []string  `json:"explanation"`
	CreatedAt       time.Time `json:"created_at_utc"`
}

// Interview is a scheduled conversation for an application.
type Interview struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	Mode          string    `json:"mode"`
	ScheduledAt   time.Time `json:"scheduled_at_utc"`
	CreatedAt     time.Time `json:"created_at_utc"`
}

// Offer is the single offer made on an application.
type Offer struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	MonthlyPay    int       `json:"monthly_pay"`
	JoiningDate   string    `json:"joining_date"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at_utc"`
}

// AuditEvent is one entry in the stage-change ledger.
type AuditEvent struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"application_id"`
	FromStage     *Stage    `json:"from_stage"`
	ToStage       Stage     `json:"to_stage"`
	Reason        string    `json:"reason"`
	CreatedAt     time.Time `json:"created_at_utc"`
}

// WebhookDelivery is the idempotency record for one (channel, event id) pair.
type WebhookDelivery struct {
	ID        string        `json:"id"`
	Key       string        `json:"key"`
	Channel   string        `json:"channel"`
	EventID   string        `json:"event_id"`
	Status    WebhookStatus `json:"status"`
	Attempts  int           `json:"attempts"`
	LastError string        `json:"last_error,omitempty"`
	NextRetry *time.Time    `json:"next_retry_utc,omitempty"`
	CreatedAt time.Time     `json:"created_at_utc"`
	UpdatedAt time.Time     `json:"updated_at_utc"`
}

// WebhookKey builds the delivery key for a channel and external event id.
func WebhookKey(channel, eventID string) string {
	return channel + ":" + eventID
}

// Campaign is a first-10 joiners hiring campaign.
type Campaign struct {
	ID                     string         `json:"id"`
	EmployerName           string         `json:"employer_name"`
	City                   string         `json:"city"`
	NeighborhoodFocus      []string       `json:"neighborhood_focus"`
	WhatsAppBusinessNumber string         `json:"whatsapp_business_number"`
	TargetJoiners          int            `json:"target_joiners"`
	FresherPreferred       bool           `json:"fresher_preferred"`
	FirstContactSLAMinutes *int           `json:"first_contact_sla_minutes,omitempty"`
	Counts                 map[string]int `json:"counts"`
	CreatedAt              time.Time      `json:"created_at_utc"`
	UpdatedAt              time.Time      `json:"updated_at_utc"`
}

// ManualLead is a lead captured by a recruiter, linked to a candidate.
type ManualLead struct {
	ID                  string        `json:"id"`
	SourceChannel       SourceChannel `json:"source_channel"`
	Name                string        `json:"name"`
	Phone               string        `json:"phone"`
	Languages           []Language    `json:"languages"`
	TherapyExperience   []string      `json:"therapy_experience"`
	ExperienceYears     float64       `json:"experience_years"`
	Certifications      []string      `json:"certifications"`
	ExpectedPay         *int          `json:"expected_pay,omitempty"`
	CurrentLocation     *Coordinates  `json:"current_location,omitempty"`
	PreferredShiftStart string        `json:"preferred_shift_start,omitempty"`
	PreferredShiftEnd   string        `json:"preferred_shift_end,omitempty"`
	ReferredBy          string        `json:"referred_by,omitempty"`
	LastEmployer        string        `json:"last_employer,omitempty"`
	JobID               string        `json:"job_id,omitempty"`
	Neighborhood        string        `json:"neighborhood,omitempty"`
	Notes               string        `json:"notes,omitempty"`
	CreatedBy           string        `json:"created_by,omitempty"`
	CandidateID         string        `json:"candidate_id"`
	Deduplicated        bool          `json:"deduplicated"`
	ApplicationID       string        `json:"application_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at_utc"`
}

// WebsiteLead is a careers-site application with a first-contact SLA.
type WebsiteLead struct {
	ID              string     `json:"id"`
	CandidateID     string     `json:"candidate_id"`
	Deduplicated    bool       `json:"deduplicated"`
	ApplicationID   string     `json:"application_id,omitempty"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone"`
	Neighborhood    string     `json:"neighborhood,omitempty"`
	CampaignID      string     `json:"campaign_id,omitempty"`
	JobID           string     `json:"job_id,omitempty"`
	UTMSource       string     `json:"utm_source,omitempty"`
	UTMMedium       string     `json:"utm_medium,omitempty"`
	UTMCampaign     string     `json:"utm_campaign,omitempty"`
	UTMTerm         string     `json:"utm_term,omitempty"`
	UTMContent      string     `json:"utm_content,omitempty"`
	LandingPath     string     `json:"landing_path,omitempty"`
	Referrer        string     `json:"referrer,omitempty"`
	SessionID       string     `json:"session_id,omitempty"`
	WALink          string     `json:"wa_link_generated"`
	WAClickCount    int        `json:"wa_click_count"`
	SLAMinutes      int        `json:"first_contact_sla_minutes_effective"`
	FirstContactDue time.Time  `json:"first_contact_due_utc"`
	FirstContactAt  *time.Time `json:"first_contact_at_utc,omitempty"`
	SLABreached     bool       `json:"sla_breached"`
	CreatedAt       time.Time  `json:"created_at_utc"`
	UpdatedAt       time.Time  `json:"updated_at_utc"`
}

// Contacted reports whether the lead has had its first contact.
func (l WebsiteLead) Contacted() bool {
	return l.FirstContactAt != nil
}

// WebsiteEvent is an append-only analytics event.
type WebsiteEvent struct {
	ID          string           `json:"id"`
	EventType   WebsiteEventType `json:"event_type"`
	LeadID      string           `json:"lead_id,omitempty"`
	CampaignID  string           `json:"campaign_id,omitempty"`
	SessionID   string           `json:"session_id,omitempty"`
	UTMSource   string           `json:"utm_source,omitempty"`
	UTMMedium   string           `json:"utm_medium,omitempty"`
	UTMCampaign string           `json:"utm_campaign,omitempty"`
	LandingPath string           `json:"landing_path,omitempty"`
	Referrer    string           `json:"referrer,omitempty"`
	Metadata    map[string]any   `json:"metadata"`
	CreatedAt   time.Time        `json:"created_at_utc"`
}

// FunnelSummary aggregates website leads and events over a date range.
type FunnelSummary struct {
	DateFrom            string         `json:"date_from"`
	DateTo              string         `json:"date_to"`
	TotalLeads          int            `json:"total_leads"`
	OpenLeads           int            `json:"open_leads"`
	ContactedLeads      int            `json:"contacted_leads"`
	BreachedLeads       int            `json:"breached_leads"`
	WithinSLARate       float64        `json:"within_sla_rate"`
	EventCounts         map[string]int `json:"event_counts"`
	LeadsBySource       map[string]int `json:"leads_by_source"`
	LeadsByNeighborhood map[string]int `json:"leads_by_neighborhood"`
}

// WebhookAttempt is the result of one processing attempt on a delivery.
type WebhookAttempt struct {
	Channel        string
	EventID        string
	Success        bool
	Transient      bool
	Error          string
	MaxRetries     int
	BackoffSeconds int
}
