package server

import (
	"net/http"
	"sort"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/scoring"
	"github.com/nerdintosubs/hiring-agent/internal/store"
	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// Stage change reasons recorded in the audit ledger.
const (
	reasonScreeningPassed    = "screening_passed"
	reasonScreeningFailed    = "screening_failed"
	reasonInterviewScheduled = "interview_scheduled"
	reasonShortlistGenerated = "shortlist_generated"
	reasonOfferCreated       = "offer_created"
)

// Interview reminders are sent this long before the slot.
const (
	reminderDayBefore   = 24 * time.Hour
	reminderHoursBefore = 2 * time.Hour
)

type intakeResponse struct {
	EmployerID     string    `json:"employer_id"`
	JobID          string    `json:"job_id"`
	SLADeadlineUTC time.Time `json:"sla_deadline_utc"`
	NormalizedRole string    `json:"normalized_role"`
}

// handleEmployerIntake handles POST /employers/intake
func (s *Server) handleEmployerIntake(w http.ResponseWriter, r *http.Request) {
	var req types.EmployerIntakeRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	employer, job := s.store.CreateEmployerAndJob(&req)
	s.jsonResponse(w, http.StatusOK, intakeResponse{
		EmployerID:     employer.ID,
		JobID:          job.ID,
		SLADeadlineUTC: job.SLADeadline,
		NormalizedRole: job.Role,
	})
}

type ingestResponse struct {
	CandidateID   string `json:"candidate_id"`
	Deduplicated  bool   `json:"deduplicated"`
	ApplicationID string `json:"application_id,omitempty"`
}

// handleCandidateIngest handles POST /candidates/ingest
func (s *Server) handleCandidateIngest(w http.ResponseWriter, r *http.Request) {
	var req types.CandidateIngestRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.JobID != "" {
		if _, err := s.store.GetJob(req.JobID); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	candidate, deduplicated := s.store.IngestCandidate(req)
	resp := ingestResponse{CandidateID: candidate.ID, Deduplicated: deduplicated}
	if req.JobID != "" {
		resp.ApplicationID = s.store.CreateOrGetApplication(req.JobID, candidate.ID).ID
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

type screeningResponse struct {
	ScreeningID     string      `json:"screening_id"`
	ApplicationID   string      `json:"application_id"`
	HardFilterPass  bool        `json:"hard_filter_pass"`
	OverallFitScore float64     `json:"overall_fit_score"`
	Explanation     []string    `json:"explanation"`
	Stage           types.Stage `json:"stage"`
}

// handleScreeningRun handles POST /screening/run
func (s *Server) handleScreeningRun(w http.ResponseWriter, r *http.Request) {
	var req types.ScreeningRunRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	candidate, err := s.store.GetCandidate(req.CandidateID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	job, err := s.store.GetJob(req.JobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	app := s.store.CreateOrGetApplication(job.ID, candidate.ID)
	result := scoring.ScreeningScore(candidate, job)
	screening := s.store.CreateScreening(types.Screening{
		JobID:           job.ID,
		CandidateID:     candidate.ID,
		ApplicationID:   app.ID,
		HardFilterPass:  result.HardPass,
		OverallFitScore: result.Overall,
		Explanation:     result.Explanation,
	})
	if _, err := s.store.SetScreeningScore(app.ID, result.Overall); err != nil {
		s.fail(w, r, err)
		return
	}

	next, reason := types.StageScreened, reasonScreeningPassed
	if !result.HardPass {
		next, reason = types.StageDropped, reasonScreeningFailed
	}
	app, err = s.store.TransitionApplication(app.ID, next, reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, screeningResponse{
		ScreeningID:     screening.ID,
		ApplicationID:   app.ID,
		HardFilterPass:  result.HardPass,
		OverallFitScore: result.Overall,
		Explanation:     result.Explanation,
		Stage:           app.Stage,
	})
}

type interviewResponse struct {
	InterviewID    string    `json:"interview_id"`
	ApplicationID  string    `json:"application_id"`
	Reminder24hUTC time.Time `json:"reminder_24h_utc"`
	Reminder2hUTC  time.Time `json:"reminder_2h_utc"`
}

// handleInterviewSchedule handles POST /interviews/schedule
func (s *Server) handleInterviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req types.InterviewScheduleRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	app, err := s.store.GetApplicationForJobCandidate(req.JobID, req.CandidateID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if app.Stage != types.StageScreened && app.Stage != types.StageInterviewed {
		s.fail(w, r, &store.ConflictError{Message: "interview cannot be scheduled from stage: " + string(app.Stage)})
		return
	}

	at := req.ScheduledAt.UTC()
	interview := s.store.CreateInterview(app.ID, req.InterviewMode(), at)
	if app.Stage != types.StageInterviewed {
		if _, err := s.store.TransitionApplication(app.ID, types.StageInterviewed, reasonInterviewScheduled); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, interviewResponse{
		InterviewID:    interview.ID,
		ApplicationID:  app.ID,
		Reminder24hUTC: at.Add(-reminderDayBefore),
		Reminder2hUTC:  at.Add(-reminderHoursBefore),
	})
}

type shortlistEntry struct {
	CandidateID   string  `json:"candidate_id"`
	ApplicationID string  `json:"application_id"`
	RankScore     float64 `json:"rank_score"`
}

type shortlistResponse struct {
	JobID                     string           `json:"job_id"`
	Shortlisted               []shortlistEntry `json:"shortlisted"`
	RequiresRecruiterApproval bool             `json:"requires_recruiter_approval"`
}

// handleShortlistGenerate handles POST /shortlist/generate
func (s *Server) handleShortlistGenerate(w http.ResponseWriter, r *http.Request) {
	var req types.ShortlistRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	job, err := s.store.GetJob(req.JobID)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ranked := make([]shortlistEntry, 0)
	stages := make(map[string]types.Stage)
	for _, app := range s.store.ListJobApplications(job.ID) {
		switch app.Stage {
		case types.StageScreened, types.StageInterviewed, types.StageShortlisted:
		default:
			continue
		}
		candidate, err := s.store.GetCandidate(app.CandidateID)
		if err != nil {
			continue
		}
		ranked = append(ranked, shortlistEntry{
			CandidateID:   candidate.ID,
			ApplicationID: app.ID,
			RankScore:     scoring.ShortlistRank(app.ScreeningScore, candidate.SourceChannel),
		})
		stages[app.ID] = app.Stage
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RankScore > ranked[j].RankScore
	})
	if len(ranked) > req.K() {
		ranked = ranked[:req.K()]
	}

	for _, entry := range ranked {
		if stages[entry.ApplicationID] == types.StageShortlisted {
			continue
		}
		if _, err := s.store.TransitionApplication(entry.ApplicationID, types.StageShortlisted, reasonShortlistGenerated); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, shortlistResponse{
		JobID:                     job.ID,
		Shortlisted:               ranked,
		RequiresRecruiterApproval: true,
	})
}

type offerResponse struct {
	OfferID       string `json:"offer_id"`
	ApplicationID string `json:"application_id"`
	Status        string `json:"status"`
}

// handleOfferCreate handles POST /offers/create
func (s *Server) handleOfferCreate(w http.ResponseWriter, r *http.Request) {
	var req types.OfferCreateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	app, err := s.store.GetApplication(req.ApplicationID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if app.Stage != types.StageShortlisted && app.Stage != types.StageOffered {
		s.fail(w, r, &store.ConflictError{Message: "offer cannot be created from stage: " + string(app.Stage)})
		return
	}

	offer := s.store.CreateOffer(app.ID, req.MonthlyPay, req.JoiningDate)
	if app.Stage != types.StageOffered {
		if _, err := s.store.TransitionApplication(app.ID, types.StageOffered, reasonOfferCreated); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	s.jsonResponse(w, http.StatusOK, offerResponse{
		OfferID:       offer.ID,
		ApplicationID: app.ID,
		Status:        offer.Status,
	})
}

type stageResponse struct {
	ApplicationID string      `json:"application_id"`
	Stage         types.Stage `json:"stage"`
}

// handleStageTransition handles POST /applications/{id}/stage
func (s *Server) handleStageTransition(w http.ResponseWriter, r *http.Request) {
	var req types.StageTransitionRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	app, err := s.store.TransitionApplication(r.PathValue("id"), req.ToStage, req.Reason)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stageResponse{ApplicationID: app.ID, Stage: app.Stage})
}

type pipelineRow struct {
	ApplicationID  string              `json:"application_id"`
	CandidateID    string              `json:"candidate_id"`
	Stage          types.Stage         `json:"stage"`
	ScreeningScore *float64            `json:"screening_score"`
	SourceChannel  types.SourceChannel `json:"source_channel,omitempty"`
}

type pipelineResponse struct {
	JobID        string         `json:"job_id"`
	Counts       map[string]int `json:"counts"`
	Applications []pipelineRow  `json:"applications"`
}

// handlePipeline handles GET /jobs/{id}/pipeline
func (s *Server) handlePipeline(w http.ResponseWriter, r *http.Request) {
	job, err := s.store.GetJob(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	counts := make(map[string]int, len(types.AllStages()))
	for _, stage := range types.AllStages() {
		counts[string(stage)] = 0
	}
	rows := make([]pipelineRow, 0)
	for _, app := range s.store.ListJobApplications(job.ID) {
		counts[string(app.Stage)]++
		row := pipelineRow{
			ApplicationID:  app.ID,
			CandidateID:    app.CandidateID,
			Stage:          app.Stage,
			ScreeningScore: app.ScreeningScore,
		}
		if candidate, err := s.store.GetCandidate(app.CandidateID); err == nil {
			row.SourceChannel = candidate.SourceChannel
		}
		rows = append(rows, row)
	}

	s.jsonResponse(w, http.StatusOK, pipelineResponse{JobID: job.ID, Counts: counts, Applications: rows})
}

type auditResponse struct {
	ApplicationID string             `json:"application_id"`
	Events        []types.AuditEvent `json:"events"`
}

// handleAuditLedger handles GET /applications/{id}/audit
func (s *Server) handleAuditLedger(w http.ResponseWriter, r *http.Request) {
	app, err := s.store.GetApplication(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	events := s.store.ListAuditEvents(app.ID)
	if events == nil {
		events = []types.AuditEvent{}
	}
	s.jsonResponse(w, http.StatusOK, auditResponse{ApplicationID: app.ID, Events: events})
}
