package channel_test

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerdintosubs/hiring-agent/internal/channel"
	"github.com/nerdintosubs/hiring-agent/internal/store"
	"github.com/nerdintosubs/hiring-agent/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessor(t *testing.T, cfg channel.Config) (*channel.Processor, *store.Store) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s := store.New(store.WithLogger(logger))
	return channel.NewProcessor(s, cfg, logger), s
}

func seedJob(t *testing.T, s *store.Store) types.Job {
	t.Helper()
	_, job := s.CreateEmployerAndJob(&types.EmployerIntakeRequest{
		EmployerName:      "Lotus Wellness",
		ContactPhone:      "9876543210",
		Role:              "spa therapist",
		RequiredTherapies: []string{"swedish"},
		ShiftStart:        "10:00",
		ShiftEnd:          "19:00",
		PayMin:            20000,
		PayMax:            30000,
		LocationName:      "Indiranagar",
	})
	return job
}

func TestDeliver_ProcessesOnceThenDuplicate(t *testing.T) {
	p, s := newProcessor(t, channel.Config{MaxRetries: 3, BackoffSeconds: 5})
	job := seedJob(t, s)

	event := types.WebhookEvent{
		EventID:   "evt_1001",
		Phone:     "9000012345",
		EventType: "candidate_lead",
		Payload: map[string]any{
			"name":               "Meena K",
			"languages":          []any{"kn", "xx", 7.0},
			"therapy_experience": []any{"swedish"},
			"experience_years":   2.0,
			"job_id":             job.ID,
		},
	}

	first := p.Deliver(channel.ChannelWhatsApp, event)
	assert.Equal(t, "processed", first.Status)
	assert.Equal(t, 1, first.Attempts)
	assert.True(t, strings.HasPrefix(first.Detail, "candidate_upserted:cand_"))
	assert.True(t, strings.HasSuffix(first.Detail, ":dedup=false"))

	snap := s.Snapshot()
	require.Len(t, snap.Candidates, 1)
	assert.Equal(t, types.SourceWhatsApp, snap.Candidates[0].SourceChannel)
	assert.Equal(t, []types.Language{types.LanguageKannada}, snap.Candidates[0].Languages)
	require.Len(t, snap.Applications, 1)
	assert.Equal(t, job.ID, snap.Applications[0].JobID)

	replay := p.Deliver(channel.ChannelWhatsApp, event)
	assert.Equal(t, channel.StatusDuplicate, replay.Status)
	assert.Equal(t, 1, replay.Attempts)
	assert.Len(t, s.Snapshot().Candidates, 1)

	// The same event id on another channel is a separate delivery.
	other := p.Deliver(channel.ChannelTelephony, event)
	assert.Equal(t, "processed", other.Status)
	assert.True(t, strings.HasSuffix(other.Detail, ":dedup=true"))
}

func TestDeliver_TransientRetriesUntilBound(t *testing.T) {
	p, s := newProcessor(t, channel.Config{MaxRetries: 3, BackoffSeconds: 1})
	event := types.WebhookEvent{
		EventID:   "evt_retry_1",
		EventType: "candidate_lead",
		Payload:   map[string]any{"simulate_transient_error": true},
	}

	var statuses []string
	var attempts []int
	for i := 0; i < 4; i++ {
		out := p.Deliver(channel.ChannelWhatsApp, event)
		statuses = append(statuses, out.Status)
		attempts = append(attempts, out.Attempts)
		if out.Status == "retry_pending" {
			assert.NotNil(t, out.NextRetryUTC)
		}
	}

	assert.Equal(t, []string{"retry_pending", "retry_pending", "failed", "failed"}, statuses)
	assert.Equal(t, []int{1, 2, 3, 3}, attempts)

	d, ok := s.GetWebhookDelivery(channel.ChannelWhatsApp, "evt_retry_1")
	require.True(t, ok)
	assert.Equal(t, types.WebhookFailed, d.Status)
	assert.Equal(t, "provider timeout, retry needed", d.LastError)
}

func TestDeliver_FailedIsTerminal(t *testing.T) {
	p, _ := newProcessor(t, channel.Config{MaxRetries: 3, BackoffSeconds: 1})
	event := types.WebhookEvent{
		EventID: "evt_perm",
		Payload: map[string]any{"simulate_permanent_error": "yes"},
	}

	first := p.Deliver(channel.ChannelTelephony, event)
	assert.Equal(t, "failed", first.Status)
	assert.Equal(t, "payload rejected by channel processor", first.Detail)
	assert.Nil(t, first.NextRetryUTC)

	again := p.Deliver(channel.ChannelTelephony, event)
	assert.Equal(t, "failed", again.Status)
	assert.Equal(t, 1, again.Attempts)
	assert.Equal(t, "max retries reached; manual intervention required", again.Detail)
}

// slowClaimStore widens the gap between claiming a delivery and working on it.
type slowClaimStore struct {
	*store.Store
}

func (s slowClaimStore) ClaimWebhookDelivery(channel, eventID string) (types.WebhookDelivery, bool) {
	d, ok := s.Store.ClaimWebhookDelivery(channel, eventID)
	time.Sleep(2 * time.Millisecond)
	return d, ok
}

func deliverConcurrently(p *channel.Processor, ch string, event types.WebhookEvent, n int) []channel.Outcome {
	outcomes := make([]channel.Outcome, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i] = p.Deliver(ch, event)
		}(i)
	}
	wg.Wait()
	return outcomes
}

func TestDeliver_ConcurrentReplaysProcessOnce(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s := store.New(store.WithLogger(logger))
	p := channel.NewProcessor(slowClaimStore{s}, channel.Config{MaxRetries: 3, BackoffSeconds: 1}, logger)

	event := types.WebhookEvent{
		EventID:   "evt_burst_1",
		Phone:     "9000055555",
		EventType: "candidate_lead",
		Payload:   map[string]any{"name": "Kavya R"},
	}

	outcomes := deliverConcurrently(p, channel.ChannelWhatsApp, event, 4)

	processed := 0
	for _, out := range outcomes {
		switch out.Status {
		case "processed":
			processed++
			assert.True(t, strings.HasSuffix(out.Detail, ":dedup=false"))
		case channel.StatusDuplicate, channel.StatusInProgress:
		default:
			t.Errorf("unexpected outcome status %q", out.Status)
		}
	}
	assert.Equal(t, 1, processed)
	assert.Len(t, s.Snapshot().Candidates, 1)

	d, ok := s.GetWebhookDelivery(channel.ChannelWhatsApp, "evt_burst_1")
	require.True(t, ok)
	assert.Equal(t, types.WebhookProcessed, d.Status)
	assert.Equal(t, 1, d.Attempts)

	replay := p.Deliver(channel.ChannelWhatsApp, event)
	assert.Equal(t, channel.StatusDuplicate, replay.Status)
}

func TestDeliver_ConcurrentRetriesRespectBound(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s := store.New(store.WithLogger(logger))
	p := channel.NewProcessor(slowClaimStore{s}, channel.Config{MaxRetries: 3, BackoffSeconds: 1}, logger)

	event := types.WebhookEvent{
		EventID:   "evt_burst_retry",
		EventType: "candidate_lead",
		Payload:   map[string]any{"simulate_transient_error": true},
	}

	for wave := 0; wave < 5; wave++ {
		for _, out := range deliverConcurrently(p, channel.ChannelWhatsApp, event, 6) {
			assert.LessOrEqual(t, out.Attempts, 3)
		}
		d, ok := s.GetWebhookDelivery(channel.ChannelWhatsApp, "evt_burst_retry")
		require.True(t, ok)
		assert.LessOrEqual(t, d.Attempts, 3)
	}

	d, _ := s.GetWebhookDelivery(channel.ChannelWhatsApp, "evt_burst_retry")
	assert.Equal(t, 3, d.Attempts)
	assert.Equal(t, types.WebhookFailed, d.Status)
}

func TestProcess(t *testing.T) {
	p, s := newProcessor(t, channel.Config{MaxRetries: 3, BackoffSeconds: 1})

	tests := []struct {
		name       string
		event      types.WebhookEvent
		wantDetail string
		wantErr    string
		transient  bool
	}{
		{
			name:       "unknown event type is ignored",
			event:      types.WebhookEvent{EventID: "evt_x1", EventType: "message_read", Payload: map[string]any{}},
			wantDetail: channel.StatusIgnored,
		},
		{
			name:       "missing event type is ignored",
			event:      types.WebhookEvent{EventID: "evt_x2", Payload: map[string]any{"name": "Meena"}},
			wantDetail: channel.StatusIgnored,
		},
		{
			name:    "falsy simulate flag is not a failure",
			event:   types.WebhookEvent{EventID: "evt_x3", EventType: "call_lead", Payload: map[string]any{"simulate_transient_error": 0.0, "name": "Meena K"}},
			wantErr: "candidate lead missing phone",
		},
		{
			name:    "missing name",
			event:   types.WebhookEvent{EventID: "evt_x4", Phone: "9000012345", EventType: "candidate_lead", Payload: map[string]any{}},
			wantErr: "candidate lead missing name",
		},
		{
			name:    "unknown job",
			event:   types.WebhookEvent{EventID: "evt_x5", Phone: "9000012345", EventType: "candidate_lead", Payload: map[string]any{"name": "Meena K", "job_id": "job_missing"}},
			wantErr: "job not found: job_missing",
		},
		{
			name:      "simulated transient",
			event:     types.WebhookEvent{EventID: "evt_x6", Payload: map[string]any{"simulate_transient_error": "1"}},
			wantErr:   "provider timeout, retry needed",
			transient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := p.Process(channel.ChannelWhatsApp, tt.event)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantDetail, detail)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
			if tt.transient {
				var te *channel.TransientError
				assert.ErrorAs(t, err, &te)
			} else {
				var pe *channel.PermanentError
				assert.ErrorAs(t, err, &pe)
			}
		})
	}

	assert.Empty(t, s.Snapshot().Candidates)
}

func TestNewProcessor_ClampsConfig(t *testing.T) {
	p, s := newProcessor(t, channel.Config{})
	out := p.Deliver(channel.ChannelWhatsApp, types.WebhookEvent{
		EventID: "evt_zero",
		Payload: map[string]any{"simulate_transient_error": true},
	})
	assert.Equal(t, "failed", out.Status)

	d, ok := s.GetWebhookDelivery(channel.ChannelWhatsApp, "evt_zero")
	require.True(t, ok)
	assert.Equal(t, 1, d.Attempts)
}
