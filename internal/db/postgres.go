package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// Postgres persists store state to PostgreSQL through a connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool and ensures the schema exists.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	ddl, err := schemaSQL("postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}
	if _, err := pool.Exec(ctx, ddl); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool
func (db *Postgres) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

// Ping verifies the database is reachable.
func (db *Postgres) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// SaveSnapshot replaces the stored state snapshot.
func (db *Postgres) SaveSnapshot(ctx context.Context, payload []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO state_snapshots (id, payload_json, updated_at_utc)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET payload_json = EXCLUDED.payload_json, updated_at_utc = EXCLUDED.updated_at_utc`,
		snapshotID, string(payload), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot, if any.
func (db *Postgres) LoadSnapshot(ctx context.Context) ([]byte, bool, error) {
	var payload string
	err := db.pool.QueryRow(ctx,
		`SELECT payload_json FROM state_snapshots WHERE id = $1`,
		snapshotID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return []byte(payload), true, nil
}

// UpsertWebhookDelivery inserts or replaces a delivery by key.
func (db *Postgres) UpsertWebhookDelivery(ctx context.Context, d types.WebhookDelivery) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO webhook_deliveries
		   (key, id, channel, event_id, status, attempts, last_error, next_retry_utc, created_at_utc, updated_at_utc)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (key) DO UPDATE SET
		   id = EXCLUDED.id, channel = EXCLUDED.channel, event_id = EXCLUDED.event_id,
		   status = EXCLUDED.status, attempts = EXCLUDED.attempts, last_error = EXCLUDED.last_error,
		   next_retry_utc = EXCLUDED.next_retry_utc, created_at_utc = EXCLUDED.created_at_utc,
		   updated_at_utc = EXCLUDED.updated_at_utc`,
		d.Key, d.ID, d.Channel, d.EventID, string(d.Status), d.Attempts,
		nullable(d.LastError), d.NextRetry, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert webhook delivery: %w", err)
	}
	return nil
}

// ListWebhookDeliveries returns every stored delivery, oldest first.
func (db *Postgres) ListWebhookDeliveries(ctx context.Context) ([]types.WebhookDelivery, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT key, id, channel, event_id, status, attempts, last_error, next_retry_utc, created_at_utc, updated_at_utc
		 FROM webhook_deliveries ORDER BY created_at_utc ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhook deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := []types.WebhookDelivery{}
	for rows.Next() {
		var d types.WebhookDelivery
		var status string
		var lastError *string
		var nextRetry *time.Time
		if err := rows.Scan(&d.Key, &d.ID, &d.Channel, &d.EventID, &status, &d.Attempts,
			&lastError, &nextRetry, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook delivery: %w", err)
		}
		d.Status = types.WebhookStatus(status)
		d.LastError = deref(lastError)
		if nextRetry != nil {
			t := nextRetry.UTC()
			d.NextRetry = &t
		}
		d.CreatedAt = d.CreatedAt.UTC()
		d.UpdatedAt = d.UpdatedAt.UTC()
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list webhook deliveries: %w", err)
	}
	return deliveries, nil
}

// InsertManualLead stores a manual lead, replacing any row with its id.
func (db *Postgres) InsertManualLead(ctx context.Context, lead types.ManualLead) error {
	cols, err := encodeLead(lead)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO manual_leads
		   (id, source_channel, name, phone, languages_json, therapy_experience_json, experience_years,
		    certifications_json, expected_pay, current_location_json, preferred_shift_start,
		    preferred_shift_end, referred_by, last_employer, job_id, neighborhood, notes, created_by,
		    candidate_id, deduplicated, application_id, created_at_utc)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		 ON CONFLICT (id) DO UPDATE SET
		   source_channel = EXCLUDED.source_channel, name = EXCLUDED.name, phone = EXCLUDED.phone,
		   languages_json = EXCLUDED.languages_json, therapy_experience_json = EXCLUDED.therapy_experience_json,
		   experience_years = EXCLUDED.experience_years, certifications_json = EXCLUDED.certifications_json,
		   expected_pay = EXCLUDED.expected_pay, current_location_json = EXCLUDED.current_location_json,
		   preferred_shift_start = EXCLUDED.preferred_shift_start, preferred_shift_end = EXCLUDED.preferred_shift_end,
		   referred_by = EXCLUDED.referred_by, last_employer = EXCLUDED.last_employer, job_id = EXCLUDED.job_id,
		   neighborhood = EXCLUDED.neighborhood, notes = EXCLUDED.notes, created_by = EXCLUDED.created_by,
		   candidate_id = EXCLUDED.candidate_id, deduplicated = EXCLUDED.deduplicated,
		   application_id = EXCLUDED.application_id, created_at_utc = EXCLUDED.created_at_utc`,
		lead.ID, string(lead.SourceChannel), lead.Name, lead.Phone, cols.languages, cols.therapyExperience,
		lead.ExperienceYears, cols.certifications, lead.ExpectedPay, cols.location,
		nullable(lead.PreferredShiftStart), nullable(lead.PreferredShiftEnd), nullable(lead.ReferredBy),
		nullable(lead.LastEmployer), nullable(lead.JobID), nullable(lead.Neighborhood), nullable(lead.Notes),
		nullable(lead.CreatedBy), lead.CandidateID, lead.Deduplicated, nullable(lead.ApplicationID), lead.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert manual lead: %w", err)
	}
	return nil
}

// ListManualLeads returns up to limit manual leads, newest first.
func (db *Postgres) ListManualLeads(ctx context.Context, limit int) ([]types.ManualLead, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, source_channel, name, phone, languages_json, therapy_experience_json, experience_years,
		        certifications_json, expected_pay, current_location_json, preferred_shift_start,
		        preferred_shift_end, referred_by, last_employer, job_id, neighborhood, notes, created_by,
		        candidate_id, deduplicated, application_id, created_at_utc
		 FROM manual_leads ORDER BY created_at_utc DESC LIMIT $1`,
		clampLeadLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list manual leads: %w", err)
	}
	defer rows.Close()

	leads := []types.ManualLead{}
	for rows.Next() {
		var lead types.ManualLead
		var cols leadColumns
		var source string
		var shiftStart, shiftEnd, referredBy, lastEmployer, jobID, neighborhood, notes, createdBy, applicationID *string
		if err := rows.Scan(&lead.ID, &source, &lead.Name, &lead.Phone, &cols.languages, &cols.therapyExperience,
			&lead.ExperienceYears, &cols.certifications, &lead.ExpectedPay, &cols.location,
			&shiftStart, &shiftEnd, &referredBy, &lastEmployer, &jobID, &neighborhood, &notes, &createdBy,
			&lead.CandidateID, &lead.Deduplicated, &applicationID, &lead.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan manual lead: %w", err)
		}
		if err := cols.decodeInto(&lead); err != nil {
			return nil, fmt.Errorf("manual lead %s: %w", lead.ID, err)
		}
		lead.SourceChannel = types.SourceChannel(source)
		lead.PreferredShiftStart = deref(shiftStart)
		lead.PreferredShiftEnd = deref(shiftEnd)
		lead.ReferredBy = deref(referredBy)
		lead.LastEmployer = deref(lastEmployer)
		lead.JobID = deref(jobID)
		lead.Neighborhood = deref(neighborhood)
		lead.Notes = deref(notes)
		lead.CreatedBy = deref(createdBy)
		lead.ApplicationID = deref(applicationID)
		lead.CreatedAt = lead.CreatedAt.UTC()
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list manual leads: %w", err)
	}
	return leads, nil
}

// clampLeadLimit bounds a side-table read to [1, 500].
func clampLeadLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > 500:
		return 500
	default:
		return limit
	}
}
