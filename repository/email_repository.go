package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EmailRepository handles database operations for templates, logs and the
// SMTP settings row
type EmailRepository struct {
	db *pgxpool.Pool
}

// NewEmailRepository creates a new email repository
func NewEmailRepository(db *pgxpool.Pool) *EmailRepository {
	return &EmailRepository{db: db}
}

// --- templates ---

// CreateTemplate creates an email template
func (r *EmailRepository) CreateTemplate(ctx context.Context, t *models.EmailTemplate) error {
	query := `
		INSERT INTO email_templates (name, subject, body)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query, t.Name, t.Subject, t.Body).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetTemplateByID retrieves a template by ID
func (r *EmailRepository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*models.EmailTemplate, error) {
	t := &models.EmailTemplate{}
	query := `
		SELECT id, name, subject, body, created_at, updated_at
		FROM email_templates
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTemplates retrieves all templates
func (r *EmailRepository) ListTemplates(ctx context.Context) ([]*models.EmailTemplate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, subject, body, created_at, updated_at
		FROM email_templates ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*models.EmailTemplate
	for rows.Next() {
		t := &models.EmailTemplate{}
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

// UpdateTemplate updates a template
func (r *EmailRepository) UpdateTemplate(ctx context.Context, t *models.EmailTemplate) error {
	query := `
		UPDATE email_templates SET
			name = $2,
			subject = $3,
			body = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRow(ctx, query, t.ID, t.Name, t.Subject, t.Body).Scan(&t.UpdatedAt)
}

// DeleteTemplate deletes a template
func (r *EmailRepository) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	return err
}

// --- logs ---

const emailLogColumns = `id, client_id, obligation_id, template_id, sender_id, recipient,
	subject, body, status, error_message, retry_count, scheduled_at, sent_at, created_at`

func scanEmailLog(row interface{ Scan(dest ...any) error }) (*models.EmailLog, error) {
	l := &models.EmailLog{}
	err := row.Scan(
		&l.ID,
		&l.ClientID,
		&l.ObligationID,
		&l.TemplateID,
		&l.SenderID,
		&l.Recipient,
		&l.Subject,
		&l.Body,
		&l.Status,
		&l.ErrorMessage,
		&l.RetryCount,
		&l.ScheduledAt,
		&l.SentAt,
		&l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// CreateLog creates an email log row
func (r *EmailRepository) CreateLog(ctx context.Context, l *models.EmailLog) error {
	query := `
		INSERT INTO email_logs (
			client_id, obligation_id, template_id, sender_id, recipient,
			subject, body, status, retry_count, scheduled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`

	return r.db.QueryRow(
		ctx, query,
		l.ClientID,
		l.ObligationID,
		l.TemplateID,
		l.SenderID,
		l.Recipient,
		l.Subject,
		l.Body,
		l.Status,
		l.RetryCount,
		l.ScheduledAt,
	).Scan(&l.ID, &l.CreatedAt)
}

// UpdateLogOutcome records the final state of a send attempt on its log row
func (r *EmailRepository) UpdateLogOutcome(ctx context.Context, id uuid.UUID, status models.EmailStatus, errorMessage *string, retryCount int, sentAt *time.Time) error {
	query := `
		UPDATE email_logs SET
			status = $2,
			error_message = $3,
			retry_count = $4,
			sent_at = $5
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status, errorMessage, retryCount, sentAt)
	return err
}

// GetLogByID retrieves a log row
func (r *EmailRepository) GetLogByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_logs WHERE id = $1`, emailLogColumns)
	return scanEmailLog(r.db.QueryRow(ctx, query, id))
}

// EmailLogFilter narrows ListLogs results
type EmailLogFilter struct {
	ClientID *uuid.UUID
	Status   *models.EmailStatus
}

// ListLogs retrieves email logs matching a filter, newest first
func (r *EmailRepository) ListLogs(ctx context.Context, filter EmailLogFilter, limit, offset int) ([]*models.EmailLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_logs WHERE 1=1`, emailLogColumns)
	args := []any{}
	idx := 1

	if filter.ClientID != nil {
		query += fmt.Sprintf(` AND client_id = $%d`, idx)
		args = append(args, *filter.ClientID)
		idx++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, *filter.Status)
		idx++
	}

	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.EmailLog
	for rows.Next() {
		l, err := scanEmailLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// ListDueScheduled retrieves queued logs whose scheduled time has passed
func (r *EmailRepository) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*models.EmailLog, error) {
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`
		SELECT %s FROM email_logs
		WHERE status = $1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
		ORDER BY scheduled_at LIMIT $3`, emailLogColumns)

	rows, err := r.db.Query(ctx, query, models.EmailQueued, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.EmailLog
	for rows.Next() {
		l, err := scanEmailLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// CountQueued returns the number of queued logs, used by the health endpoint
func (r *EmailRepository) CountQueued(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM email_logs WHERE status = $1`, models.EmailQueued).Scan(&count)
	return count, err
}

// --- settings ---

// GetSettings retrieves the singleton settings row, or nil when SMTP has not
// been configured yet
func (r *EmailRepository) GetSettings(ctx context.Context) (*models.EmailSettings, error) {
	s := &models.EmailSettings{}
	query := `
		SELECT id, host, port, username, password_cipher, password_nonce,
			from_address, from_name, use_tls, rate_per_second, burst,
			last_test_at, last_test_ok, last_test_error, updated_at
		FROM email_settings
		LIMIT 1`

	err := r.db.QueryRow(ctx, query).Scan(
		&s.ID,
		&s.Host,
		&s.Port,
		&s.Username,
		&s.PasswordCipher,
		&s.PasswordNonce,
		&s.FromAddress,
		&s.FromName,
		&s.UseTLS,
		&s.RatePerSecond,
		&s.Burst,
		&s.LastTestAt,
		&s.LastTestOK,
		&s.LastTestError,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SaveSettings inserts or replaces the singleton settings row
func (r *EmailRepository) SaveSettings(ctx context.Context, s *models.EmailSettings) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM email_settings`); err != nil {
		return err
	}

	query := `
		INSERT INTO email_settings (
			host, port, username, password_cipher, password_nonce,
			from_address, from_name, use_tls, rate_per_second, burst
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, updated_at`

	err = tx.QueryRow(
		ctx, query,
		s.Host,
		s.Port,
		s.Username,
		s.PasswordCipher,
		s.PasswordNonce,
		s.FromAddress,
		s.FromName,
		s.UseTLS,
		s.RatePerSecond,
		s.Burst,
	).Scan(&s.ID, &s.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecordTestResult stores the outcome of an explicit connectivity test.
// Production sends never call this.
func (r *EmailRepository) RecordTestResult(ctx context.Context, id uuid.UUID, ok bool, testError *string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE email_settings SET
			last_test_at = $2,
			last_test_ok = $3,
			last_test_error = $4,
			updated_at = NOW()
		WHERE id = $1`, id, at, ok, testError)
	return err
}
