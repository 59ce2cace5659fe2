package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nerdintosubs/hiring-agent/internal/types"
)

// timeLayout stores timestamps as fixed-width UTC text so they sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLite persists store state to a local SQLite file.
type SQLite struct {
	pool *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and ensures
// the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	pool, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// sqlite wants a single writer
	pool.SetMaxOpenConns(1)
	pool.SetConnMaxLifetime(5 * time.Minute)

	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	ddl, err := schemaSQL("sqlite")
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	if _, err := pool.ExecContext(ctx, ddl); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &SQLite{pool: pool}, nil
}

// Close closes the database.
func (db *SQLite) Close() error {
	if db == nil || db.pool == nil {
		return nil
	}
	return db.pool.Close()
}

// Ping verifies the database is reachable.
func (db *SQLite) Ping(ctx context.Context) error {
	return db.pool.PingContext(ctx)
}

// SaveSnapshot replaces the stored state snapshot.
func (db *SQLite) SaveSnapshot(ctx context.Context, payload []byte) error {
	_, err := db.pool.ExecContext(ctx,
		`INSERT INTO state_snapshots (id, payload_json, updated_at_utc)
		 VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET payload_json = excluded.payload_json, updated_at_utc = excluded.updated_at_utc`,
		snapshotID, string(payload), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot, if any.
func (db *SQLite) LoadSnapshot(ctx context.Context) ([]byte, bool, error) {
	var payload string
	err := db.pool.QueryRowContext(ctx,
		`SELECT payload_json FROM state_snapshots WHERE id = ?`, snapshotID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return []byte(payload), true, nil
}

// UpsertWebhookDelivery inserts or replaces a delivery by key.
func (db *SQLite) UpsertWebhookDelivery(ctx context.Context, d types.WebhookDelivery) error {
	var nextRetry *string
	if d.NextRetry != nil {
		s := formatTime(*d.NextRetry)
		nextRetry = &s
	}
	_, err := db.pool.ExecContext(ctx,
		`INSERT INTO webhook_deliveries
		   (key, id, channel, event_id, status, attempts, last_error, next_retry_utc, created_at_utc, updated_at_utc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (key) DO UPDATE SET
		   id = excluded.id, channel = excluded.channel, event_id = excluded.event_id,
		   status = excluded.status, attempts = excluded.attempts, last_error = excluded.last_error,
		   next_retry_utc = excluded.next_retry_utc, created_at_utc = excluded.created_at_utc,
		   updated_at_utc = excluded.updated_at_utc`,
		d.Key, d.ID, d.Channel, d.EventID, string(d.Status), d.Attempts,
		nullable(d.LastError), nextRetry, formatTime(d.CreatedAt), formatTime(d.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert webhook delivery: %w", err)
	}
	return nil
}

// ListWebhookDeliveries returns every stored delivery, oldest first.
func (db *SQLite) ListWebhookDeliveries(ctx context.Context) ([]types.WebhookDelivery, error) {
	rows, err := db.pool.QueryContext(ctx,
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
		var status, createdAt, updatedAt string
		var lastError, nextRetry sql.NullString
		if err := rows.Scan(&d.Key, &d.ID, &d.Channel, &d.EventID, &status, &d.Attempts,
			&lastError, &nextRetry, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook delivery: %w", err)
		}
		d.Status = types.WebhookStatus(status)
		d.LastError = lastError.String
		if nextRetry.Valid && nextRetry.String != "" {
			t, err := parseTime(nextRetry.String)
			if err != nil {
				return nil, err
			}
			d.NextRetry = &t
		}
		if d.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if d.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list webhook deliveries: %w", err)
	}
	return deliveries, nil
}

// InsertManualLead stores a manual lead, replacing any row with its id.
func (db *SQLite) InsertManualLead(ctx context.Context, lead types.ManualLead) error {
	cols, err := encodeLead(lead)
	if err != nil {
		return err
	}
	_, err = db.pool.ExecContext(ctx,
		`INSERT OR REPLACE INTO manual_leads
		   (id, source_channel, name, phone, languages_json, therapy_experience_json, experience_years,
		    certifications_json, expected_pay, current_location_json, preferred_shift_start,
		    preferred_shift_end, referred_by, last_employer, job_id, neighborhood, notes, created_by,
		    candidate_id, deduplicated, application_id, created_at_utc)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, string(lead.SourceChannel), lead.Name, lead.Phone, cols.languages, cols.therapyExperience,
		lead.ExperienceYears, cols.certifications, lead.ExpectedPay, cols.location,
		nullable(lead.PreferredShiftStart), nullable(lead.PreferredShiftEnd), nullable(lead.ReferredBy),
		nullable(lead.LastEmployer), nullable(lead.JobID), nullable(lead.Neighborhood), nullable(lead.Notes),
		nullable(lead.CreatedBy), lead.CandidateID, lead.Deduplicated, nullable(lead.ApplicationID),
		formatTime(lead.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert manual lead: %w", err)
	}
	return nil
}

// ListManualLeads returns up to limit manual leads, newest first.
func (db *SQLite) ListManualLeads(ctx context.Context, limit int) ([]types.ManualLead, error) {
	rows, err := db.pool.QueryContext(ctx,
		`SELECT id, source_channel, name, phone, languages_json, therapy_experience_json, experience_years,
		        certifications_json, expected_pay, current_location_json, preferred_shift_start,
		        preferred_shift_end, referred_by, last_employer, job_id, neighborhood, notes, created_by,
		        candidate_id, deduplicated, application_id, created_at_utc
		 FROM manual_leads ORDER BY created_at_utc DESC LIMIT ?`,
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
		var source, createdAt string
		var expectedPay sql.NullInt64
		var location, shiftStart, shiftEnd, referredBy, lastEmployer, jobID, neighborhood, notes, createdBy, applicationID sql.NullString
		if err := rows.Scan(&lead.ID, &source, &lead.Name, &lead.Phone, &cols.languages, &cols.therapyExperience,
			&lead.ExperienceYears, &cols.certifications, &expectedPay, &location,
			&shiftStart, &shiftEnd, &referredBy, &lastEmployer, &jobID, &neighborhood, &notes, &createdBy,
			&lead.CandidateID, &lead.Deduplicated, &applicationID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan manual lead: %w", err)
		}
		if location.Valid {
			cols.location = &location.String
		}
		if err := cols.decodeInto(&lead); err != nil {
			return nil, fmt.Errorf("manual lead %s: %w", lead.ID, err)
		}
		if expectedPay.Valid {
			pay := int(expectedPay.Int64)
			lead.ExpectedPay = &pay
		}
		lead.SourceChannel = types.SourceChannel(source)
		lead.PreferredShiftStart = shiftStart.String
		lead.PreferredShiftEnd = shiftEnd.String
		lead.ReferredBy = referredBy.String
		lead.LastEmployer = lastEmployer.String
		lead.JobID = jobID.String
		lead.Neighborhood = neighborhood.String
		lead.Notes = notes.String
		lead.CreatedBy = createdBy.String
		lead.ApplicationID = applicationID.String
		if lead.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list manual leads: %w", err)
	}
	return leads, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return t.UTC(), nil
}
