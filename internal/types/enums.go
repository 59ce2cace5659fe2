// Package types provides type definitions for structured data used throughout the hiring agent.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Language is a spoken language code accepted on candidates and jobs.
type Language string

const (
	LanguageKannada Language = "kn"
	LanguageEnglish Language = "en"
	LanguageHindi   Language = "hi"
	LanguageTamil   Language = "ta"
	LanguageTelugu  Language = "te"
)

// Valid reports whether l is a known language code.
func (l Language) Valid() bool {
	switch l {
	case LanguageKannada, LanguageEnglish, LanguageHindi, LanguageTamil, LanguageTelugu:
		return true
	}
	return false
}

// SourceChannel identifies where a candidate came from.
type SourceChannel string

const (
	SourceWhatsApp SourceChannel = "whatsapp"
	SourceWalkIn   SourceChannel = "walk_in"
	SourceReferral SourceChannel = "referral"
	SourceAgent    SourceChannel = "agent"
	SourceWeb      SourceChannel = "web"
	SourceCall     SourceChannel = "call"
)

// Stage is an application's position in the hiring funnel.
type Stage string

const (
	StageNew         Stage = "new"
	StageScreened    Stage = "screened"
	StageInterviewed Stage = "interviewed"
	StageShortlisted Stage = "shortlisted"
	StageOffered     Stage = "offered"
	StageJoined      Stage = "joined"
	StageDropped     Stage = "dropped"
)

// AllStages lists every stage in funnel order.
func AllStages() []Stage {
	return []Stage{
		StageNew,
		StageScreened,
		StageInterviewed,
		StageShortlisted,
		StageOffered,
		StageJoined,
		StageDropped,
	}
}

// WebhookStatus is the processing state of a webhook delivery.
type WebhookStatus string

const (
	WebhookReceived     WebhookStatus = "received"
	WebhookProcessed    WebhookStatus = "processed"
	WebhookRetryPending WebhookStatus = "retry_pending"
	WebhookFailed       WebhookStatus = "failed"
)

// CampaignEventType names a first-10 campaign funnel bucket.
type CampaignEventType string

const (
	CampaignLeads    CampaignEventType = "leads"
	CampaignScreened CampaignEventType = "screened"
	CampaignTrials   CampaignEventType = "trials"
	CampaignOffers   CampaignEventType = "offers"
	CampaignJoined   CampaignEventType = "joined"
)

// CampaignEventTypes lists the funnel buckets in order.
func CampaignEventTypes() []CampaignEventType {
	return []CampaignEventType{CampaignLeads, CampaignScreened, CampaignTrials, CampaignOffers, CampaignJoined}
}

// WebsiteEventType is an analytics event emitted by the careers site.
type WebsiteEventType string

const (
	WebsiteView       WebsiteEventType = "view"
	WebsiteCTAClick   WebsiteEventType = "cta_click"
	WebsiteFormStart  WebsiteEventType = "form_start"
	WebsiteFormSubmit WebsiteEventType = "form_submit"
	WebsiteWAClick    WebsiteEventType = "wa_click"
)

// WebsiteEventTypes lists every website event type.
func WebsiteEventTypes() []WebsiteEventType {
	return []WebsiteEventType{WebsiteView, WebsiteCTAClick, WebsiteFormStart, WebsiteFormSubmit, WebsiteWAClick}
}

// QueueMode selects a recruiter work queue over website leads.
type QueueMode string

const (
	QueueAll     QueueMode = "all"
	QueueDueSoon QueueMode = "due_soon"
	QueueOverdue QueueMode = "overdue"
	QueueHotNew  QueueMode = "hot_new"
)

// Valid reports whether m is a known queue mode.
func (m QueueMode) Valid() bool {
	switch m {
	case QueueAll, QueueDueSoon, QueueOverdue, QueueHotNew:
		return true
	}
	return false
}
