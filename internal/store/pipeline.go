package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/dedup"
	"github.com/nerdintosubs/hiring-agent/internal/types"
	"github.com/nerdintosubs/hiring-agent/internal/workflow"
)

// ReasonApplicationCreated is the audit reason of an application's first event.
const ReasonApplicationCreated = "application_created"

// OfferStatusPending is the status of a newly created offer.
const OfferStatusPending = "pending_acceptance"

// CreateEmployerAndJob records a new employer and its first job.
// The job's SLA deadline is now plus the request's urgency hours.
func (s *Store) CreateEmployerAndJob(req *types.EmployerIntakeRequest) (types.Employer, types.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	employer := types.Employer{
		ID:           types.NewID("emp"),
		Name:         strings.TrimSpace(req.EmployerName),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		CreatedAt:    now,
	}
	var location types.Coordinates
	if req.Location != nil {
		location = *req.Location
	}
	job := types.Job{
		ID:                types.NewID("job"),
		EmployerID:        employer.ID,
		Role:              strings.ToLower(strings.TrimSpace(req.Role)),
		RequiredTherapies: nonNilStrings(req.RequiredTherapies),
		ShiftStart:        req.ShiftStart,
		ShiftEnd:          req.ShiftEnd,
		PayMin:            req.PayMin,
		PayMax:            req.PayMax,
		LocationName:      req.LocationName,
		Location:          location,
		Languages:         nonNilLanguages(req.Languages),
		SLADeadline:       now.Add(time.Duration(req.Urgency()) * time.Hour),
		CreatedAt:         now,
	}
	s.employers.put(employer.ID, employer)
	s.jobs.put(job.ID, job)
	s.saveLocked("create_employer_and_job")
	return employer, job
}

// GetJob returns the job with id.
func (s *Store) GetJob(id string) (types.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getJobLocked(id)
}

func (s *Store) getJobLocked(id string) (types.Job, error) {
	job, ok := s.jobs.get(id)
	if !ok {
		return types.Job{}, &NotFoundError{Kind: "job", ID: id}
	}
	return job, nil
}

// GetCandidate returns the candidate with id.
func (s *Store) GetCandidate(id string) (types.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	candidate, ok := s.candidates.get(id)
	if !ok {
		return types.Candidate{}, &NotFoundError{Kind: "candidate", ID: id}
	}
	return candidate, nil
}

// GetApplication returns the application with id.
func (s *Store) GetApplication(id string) (types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getApplicationLocked(id)
}

func (s *Store) getApplicationLocked(id string) (types.Application, error) {
	app, ok := s.applications.get(id)
	if !ok {
		return types.Application{}, &NotFoundError{Kind: "application", ID: id}
	}
	return app, nil
}

// IngestCandidate returns the first existing candidate that matches the
// request, in insertion order, or inserts a new one. The boolean reports a
// dedup match.
func (s *Store) IngestCandidate(req types.CandidateIngestRequest) (types.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate, deduplicated := s.ingestLocked(req)
	if !deduplicated {
		s.saveLocked("ingest_candidate")
	}
	return candidate, deduplicated
}

func (s *Store) ingestLocked(req types.CandidateIngestRequest) (types.Candidate, bool) {
	existing, found := s.candidates.find(func(c types.Candidate) bool {
		return dedup.IsDuplicate(c, req.Phone, req.Name, req.LastEmployer)
	})
	if found {
		return existing, true
	}

	candidate := types.Candidate{
		ID:                  types.NewID("cand"),
		Name:                strings.TrimSpace(req.Name),
		Phone:               strings.TrimSpace(req.Phone),
		SourceChannel:       req.SourceChannel,
		Languages:           nonNilLanguages(req.Languages),
		TherapyExperience:   nonNilStrings(req.TherapyExperience),
		ExperienceYears:     req.ExperienceYears,
		Certifications:      nonNilStrings(req.Certifications),
		ExpectedPay:         req.ExpectedPay,
		CurrentLocation:     req.CurrentLocation,
		PreferredShiftStart: req.PreferredShiftStart,
		PreferredShiftEnd:   req.PreferredShiftEnd,
		ReferredBy:          req.ReferredBy,
		LastEmployer:        req.LastEmployer,
		CreatedAt:           s.clock(),
	}
	s.candidates.put(candidate.ID, candidate)
	return candidate, false
}

// CreateOrGetApplication returns the application for the (job, candidate)
// pair, creating it at stage new with an application_created audit event
// when absent.
func (s *Store) CreateOrGetApplication(jobID, candidateID string) types.Application {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, created := s.createOrGetApplicationLocked(jobID, candidateID)
	if created {
		s.saveLocked("create_or_get_application")
	}
	return app
}

func (s *Store) createOrGetApplicationLocked(jobID, candidateID string) (types.Application, bool) {
	if app, ok := s.findApplicationLocked(jobID, candidateID); ok {
		return app, false
	}

	now := s.clock()
	app := types.Application{
		ID:          types.NewID("app"),
		JobID:       jobID,
		CandidateID: candidateID,
		Stage:       types.StageNew,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.applications.put(app.ID, app)
	s.addAuditEventLocked(app.ID, nil, types.StageNew, ReasonApplicationCreated)
	return app, true
}

func (s *Store) findApplicationLocked(jobID, candidateID string) (types.Application, bool) {
	return s.applications.find(func(a types.Application) bool {
		return a.JobID == jobID && a.CandidateID == candidateID
	})
}

// GetApplicationForJobCandidate returns the application for the (job, candidate) pair.
func (s *Store) GetApplicationForJobCandidate(jobID, candidateID string) (types.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	app, ok := s.findApplicationLocked(jobID, candidateID)
	if !ok {
		return types.Application{}, &NotFoundError{
			Kind:   "application",
			Detail: fmt.Sprintf("for job %s and candidate %s", jobID, candidateID),
		}
	}
	return app, nil
}

// SetScreeningScore stores the latest screening score on an application.
func (s *Store) SetScreeningScore(applicationID string, score float64) (types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, err := s.getApplicationLocked(applicationID)
	if err != nil {
		return types.Application{}, err
	}
	app.ScreeningScore = &score
	app.UpdatedAt = s.clock()
	s.applications.put(app.ID, app)
	s.saveLocked("set_screening_score")
	return app, nil
}

// CreateScreening appends a screening record. ID and creation time are assigned here.
func (s *Store) CreateScreening(screening types.Screening) types.Screening {
	s.mu.Lock()
	defer s.mu.Unlock()

	screening.ID = types.NewID("scr")
	screening.Explanation = nonNilStrings(screening.Explanation)
	screening.CreatedAt = s.clock()
	s.screenings.put(screening.ID, screening)
	s.saveLocked("create_screening")
	return screening
}

// CreateInterview appends an interview for an application.
func (s *Store) CreateInterview(applicationID, mode string, scheduledAt time.Time) types.Interview {
	s.mu.Lock()
	defer s.mu.Unlock()

	interview := types.Interview{
		ID:            types.NewID("int"),
		ApplicationID: applicationID,
		Mode:          mode,
		ScheduledAt:   scheduledAt.UTC(),
		CreatedAt:     s.clock(),
	}
	s.interviews.put(interview.ID, interview)
	s.saveLocked("create_interview")
	return interview
}

// CreateOffer returns the application's first offer, creating it when absent.
func (s *Store) CreateOffer(applicationID string, monthlyPay int, joiningDate string) types.Offer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.offers.find(func(o types.Offer) bool {
		return o.ApplicationID == applicationID
	}); ok {
		return existing
	}

	offer := types.Offer{
		ID:            types.NewID("off"),
		ApplicationID: applicationID,
		MonthlyPay:    monthlyPay,
		JoiningDate:   joiningDate,
		Status:        OfferStatusPending,
		CreatedAt:     s.clock(),
	}
	s.offers.put(offer.ID, offer)
	s.saveLocked("create_offer")
	return offer
}

// TransitionApplication moves an application to another stage and records
// an audit event. Moving to the current stage is a no-op; any move outside
// the workflow table is a *ConflictError and leaves the application unchanged.
func (s *Store) TransitionApplication(applicationID string, to types.Stage, reason string) (types.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, err := s.getApplicationLocked(applicationID)
	if err != nil {
		return types.Application{}, err
	}
	if app.Stage == to {
		return app, nil
	}
	if !workflow.CanTransition(app.Stage, to) {
		return types.Application{}, &ConflictError{
			Message: fmt.Sprintf("invalid transition %s -> %s", app.Stage, to),
		}
	}

	from := app.Stage
	app.Stage = to
	app.UpdatedAt = s.clock()
	s.applications.put(app.ID, app)
	s.addAuditEventLocked(app.ID, &from, to, reason)
	s.saveLocked("transition_application")
	return app, nil
}

func (s *Store) addAuditEventLocked(applicationID string, from *types.Stage, to types.Stage, reason string) {
	event := types.AuditEvent{
		ID:            types.NewID("aud"),
		ApplicationID: applicationID,
		FromStage:     from,
		ToStage:       to,
		Reason:        reason,
		CreatedAt:     s.clock(),
	}
	s.auditEvents.put(event.ID, event)
}

// ListJobApplications returns a job's applications in creation order.
func (s *Store) ListJobApplications(jobID string) []types.Application {
	s.mu.RLock()
	applications := s.applications.values()
	s.mu.RUnlock()

	return filter(applications, func(a types.Application) bool {
		return a.JobID == jobID
	})
}

// ListAuditEvents returns an application's audit ledger in order.
func (s *Store) ListAuditEvents(applicationID string) []types.AuditEvent {
	s.mu.RLock()
	events := s.auditEvents.values()
	s.mu.RUnlock()

	return filter(events, func(e types.AuditEvent) bool {
		return e.ApplicationID == applicationID
	})
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func nonNilLanguages(values []types.Language) []types.Language {
	if values == nil {
		return []types.Language{}
	}
	return values
}
