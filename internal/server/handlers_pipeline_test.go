package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intakeBody() map[string]any {
	return map[string]any{
		"employer_name":      "Lotus Wellness",
		"contact_phone":      "9876543210",
		"role":               " Spa Therapist ",
		"required_therapies": []string{"swedish"},
		"shift_start":        "10:00",
		"shift_end":          "19:00",
		"pay_min":            20000,
		"pay_max":            30000,
		"location_name":      "Indiranagar",
		"location":           map[string]float64{"lat": 12.9719, "lon": 77.6412},
		"languages":          []string{"kn"},
	}
}

// qualifiedCandidate passes the hard filter for intakeBody's job.
func qualifiedCandidate(name, phone, source, jobID string) map[string]any {
	body := map[string]any{
		"name":               name,
		"phone":              phone,
		"source_channel":     source,
		"languages":          []string{"kn", "en"},
		"therapy_experience": []string{"Swedish"},
		"certifications":     []string{"CIDESCO"},
		"experience_years":   1,
		"current_location":   map[string]float64{"lat": 12.9716, "lon": 77.6408},
	}
	if jobID != "" {
		body["job_id"] = jobID
	}
	return body
}

func (ts *testServer) createJob(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/employers/intake", intakeBody())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[intakeResponse](t, w).JobID
}

func (ts *testServer) ingest(t *testing.T, body map[string]any) ingestResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/candidates/ingest", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[ingestResponse](t, w)
}

func (ts *testServer) screen(t *testing.T, jobID, candidateID string) screeningResponse {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/screening/run", map[string]any{"job_id": jobID, "candidate_id": candidateID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[screeningResponse](t, w)
}

func TestEmployerIntake(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/employers/intake", intakeBody())
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[intakeResponse](t, w)
	assert.NotEmpty(t, resp.EmployerID)
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "spa therapist", resp.NormalizedRole)
	assert.Equal(t, testEpoch.Add(48*time.Hour), resp.SLADeadlineUTC)
}

func TestScenarioA_InvalidPayBandRejectedBeforeStore(t *testing.T) {
	ts := newTestServer(t)
	body := intakeBody()
	body["pay_min"] = 40000
	body["pay_max"] = 20000

	w := ts.do(t, http.MethodPost, "/employers/intake", body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, errorMessage(t, w), "pay_min")
	counts := ts.store.Snapshot().Counts()
	assert.Zero(t, counts["employers"])
	assert.Zero(t, counts["jobs"])
}

func TestScenarioB_DuplicatePhoneDeduplicates(t *testing.T) {
	ts := newTestServer(t)

	first := ts.ingest(t, map[string]any{"name": "Kiran M", "phone": "9000011111", "source_channel": "whatsapp"})
	second := ts.ingest(t, map[string]any{"name": "Kiran Manjunath", "phone": "9000011111", "source_channel": "walk_in"})

	assert.False(t, first.Deduplicated)
	assert.True(t, second.Deduplicated)
	assert.Equal(t, first.CandidateID, second.CandidateID)
}

func TestScenarioC_IllegalTransitionConflicts(t *testing.T) {
	ts := newTestServer(t)
	jobID := ts.createJob(t)
	app := ts.ingest(t, qualifiedCandidate("Asha R", "9000022222", "referral", jobID))
	require.NotEmpty(t, app.ApplicationID)

	w := ts.do(t, http.MethodPost, "/applications/"+app.ApplicationID+"/stage",
		map[string]any{"to_stage": "offered", "reason": "skip ahead"})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "invalid transition new -> offered", errorMessage(t, w))

	stored, err := ts.store.GetApplication(app.ApplicationID)
	require.NoError(t, err)
	assert.Equal(t, "new", string(stored.Stage))
}

func TestCandidateIngest_UnknownJob(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/candidates/ingest", qualifiedCandidate("Asha R", "9000022222", "web", "job_missing"))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, ts.store.Snapshot().Counts()["candidates"])
}

func TestHiringFlow_EndToEnd(t *testing.T) {
	ts := newTestServer(t)
	jobID := ts.createJob(t)
	cand := ts.ingest(t, qualifiedCandidate("Asha R", "9000022222", "whatsapp", ""))

	screening := ts.screen(t, jobID, cand.CandidateID)
	assert.True(t, screening.HardFilterPass)
	assert.Equal(t, 1.0, screening.OverallFitScore)
	assert.Equal(t, "screened", string(screening.Stage))
	assert.Equal(t, []string{
		"therapy_score=1.00", "language_score=1.00", "commute_score=1.00", "cert_or_exp_ok=true",
	}, screening.Explanation)
	appID := screening.ApplicationID

	w := ts.do(t, http.MethodPost, "/interviews/schedule", map[string]any{
		"job_id": jobID, "candidate_id": cand.CandidateID, "scheduled_at_utc": "2026-03-05T09:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	interview := decode[interviewResponse](t, w)
	assert.Equal(t, appID, interview.ApplicationID)
	assert.Equal(t, time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC), interview.Reminder24hUTC)
	assert.Equal(t, time.Date(2026, 3, 5, 7, 0, 0, 0, time.UTC), interview.Reminder2hUTC)

	w = ts.do(t, http.MethodPost, "/shortlist/generate", map[string]any{"job_id": jobID})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	shortlist := decode[shortlistResponse](t, w)
	assert.True(t, shortlist.RequiresRecruiterApproval)
	require.Len(t, shortlist.Shortlisted, 1)
	assert.Equal(t, 1.075, shortlist.Shortlisted[0].RankScore)

	w = ts.do(t, http.MethodPost, "/offers/create", map[string]any{
		"application_id": appID, "monthly_pay": 24000, "joining_date": "2026-03-15",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	offer := decode[offerResponse](t, w)
	assert.Equal(t, "pending_acceptance", offer.Status)

	w = ts.do(t, http.MethodPost, "/applications/"+appID+"/stage", map[string]any{"to_stage": "joined", "reason": "reported on day one"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "joined", string(decode[stageResponse](t, w).Stage))

	w = ts.do(t, http.MethodGet, "/jobs/"+jobID+"/pipeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pipeline := decode[pipelineResponse](t, w)
	assert.Equal(t, map[string]int{
		"new": 0, "screened": 0, "interviewed": 0, "shortlisted": 0, "offered": 0, "joined": 1, "dropped": 0,
	}, pipeline.Counts)
	require.Len(t, pipeline.Applications, 1)
	assert.Equal(t, "whatsapp", string(pipeline.Applications[0].SourceChannel))
	require.NotNil(t, pipeline.Applications[0].ScreeningScore)

	w = ts.do(t, http.MethodGet, "/applications/"+appID+"/audit", nil)
	require.Equal(t, http.StatusOK, w.Code)
	audit := decode[auditResponse](t, w)
	reasons := make([]string, 0, len(audit.Events))
	for _, e := range audit.Events {
		reasons = append(reasons, e.Reason)
	}
	assert.Equal(t, []string{
		"application_created", "screening_passed", "interview_scheduled",
		"shortlist_generated", "offer_created", "reported on day one",
	}, reasons)
}

func TestScreeningRun(t *testing.T) {
	ts := newTestServer(t)
	jobID := ts.createJob(t)

	t.Run("missing therapy drops the application", func(t *testing.T) {
		cand := ts.ingest(t, map[string]any{
			"name": "Meena K", "phone": "9000033333", "source_channel": "web",
			"languages": []string{"kn"}, "therapy_experience": []string{"thai"}, "experience_years": 3,
		})
		resp := ts.screen(t, jobID, cand.CandidateID)
		assert.False(t, resp.HardFilterPass)
		assert.Equal(t, "dropped", string(resp.Stage))

		w := ts.do(t, http.MethodPost, "/screening/run", map[string]any{"job_id": jobID, "candidate_id": cand.CandidateID})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		w := ts.do(t, http.MethodPost, "/screening/run", map[string]any{"job_id": jobID, "candidate_id": "cand_missing"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown job", func(t *testing.T) {
		cand := ts.ingest(t, qualifiedCandidate("Ravi S", "9000044444", "agent", ""))
		w := ts.do(t, http.MethodPost, "/screening/run", map[string]any{"job_id": "job_missing", "candidate_id": cand.CandidateID})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestInterviewSchedule_StagePreconditions(t *testing.T) {
	ts := newTestServer(t)
	jobID := ts.createJob(t)
	cand := ts.ingest(t, qualifiedCandidate("Asha R", "9000022222", "whatsapp", jobID))
	body := map[string]any{"job_id": jobID, "candidate_id": cand.CandidateID, "scheduled_at_utc": "2026-03-05T09:00:00Z"}

	w := ts.do(t, http.MethodPost, "/interviews/schedule", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "interview cannot be scheduled from stage: new", errorMessage(t, w))

	w = ts.do(t, http.MethodPost, "/interviews/schedule", map[string]any{
		"job_id": jobID, "candidate_id": "cand_missing", "scheduled_at_utc": "2026-03-05T09:00:00Z",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)

	ts.screen(t, jobID, cand.CandidateID)
	for i := 0; i < 2; i++ {
		w = ts.do(t, http.MethodPost, "/interviews/schedule", body)
		assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}
	assert.Equal(t, 2, ts.store.Snapshot().Counts()["interviews"])
}

func TestShortlist_RanksAndLimits(t *testing.T) {
	ts := newTestServer(t)
	jobID := ts.createJob(t)

	referral := ts.ingest(t, qualifiedCandidate("Asha R", "9000022222", "referral", ""))
	walkIn := ts.ingest(t, qualifiedCandidate("Divya P", "9000055555", "walk_in", ""))
	unscreened := ts.ingest(t, qualifiedCandidate("Lakshmi N", "9000066666", "referral", jobID))
	ts.screen(t, jobID, walkIn.CandidateID)
	ts.screen(t, jobID, referral.CandidateID)

	w := ts.do(t, http.MethodPost, "/shortlist/generate", map[string]any{"job_id": jobID, "top_k": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[shortlistResponse](t, w)
	require.Len(t, resp.Shortlisted, 1)
	assert.Equal(t, referral.CandidateID, resp.Shortlisted[0].CandidateID)
	assert.Equal(t, 1.09, resp.Shortlisted[0].RankScore)

	w = ts.do(t, http.MethodPost, "/shortlist/generate", map[string]any{"job_id": jobID})
	require.Equal(t, http.StatusOK, w.Code)
	resp = decode[shortlistResponse](t, w)
	require.Len(t, resp.Shortlisted, 2)
	for _, entry := range resp.Shortlisted {
		assert.NotEqual(t, unscreened.CandidateID, entry.CandidateID)
	}

	w = ts.do(t, http.MethodPost, "/shortlist/generate", map[string]any{"job_id": "job_missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/shortlist/generate", map[string]any{"job_id": jobID, "top_k": 51})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestOfferCreate_StagePreconditions(t *testing.T) {
	ts := newTestServer(t)
	jobID := ts.createJob(t)
	cand := ts.ingest(t, qualifiedCandidate("Asha R", "9000022222", "referral", ""))
	appID := ts.screen(t, jobID, cand.CandidateID).ApplicationID
	offer := map[string]any{"application_id": appID, "monthly_pay": 24000, "joining_date": "2026-03-15"}

	w := ts.do(t, http.MethodPost, "/offers/create", offer)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "offer cannot be created from stage: screened", errorMessage(t, w))

	w = ts.do(t, http.MethodPost, "/offers/create", map[string]any{"application_id": "app_missing", "monthly_pay": 24000, "joining_date": "2026-03-15"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/offers/create", map[string]any{"application_id": appID, "monthly_pay": 24000, "joining_date": "15/03/2026"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPipelineAndAudit_NotFound(t *testing.T) {
	ts := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/jobs/job_missing/pipeline", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/applications/app_missing/audit", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/applications/app_missing/stage",
		map[string]any{"to_stage": "screened", "reason": "manual"}).Code)
}
