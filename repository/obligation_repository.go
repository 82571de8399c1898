package repository

import (
	"context"
	"fmt"
	"time"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ObligationRepository handles database operations for obligation types,
// profiles and monthly obligations
type ObligationRepository struct {
	db *pgxpool.Pool
}

// NewObligationRepository creates a new obligation repository
func NewObligationRepository(db *pgxpool.Pool) *ObligationRepository {
	return &ObligationRepository{db: db}
}

// --- obligation types ---

// CreateType creates a new obligation type
func (r *ObligationRepository) CreateType(ctx context.Context, t *models.ObligationType) error {
	query := `
		INSERT INTO obligation_types (name, description, default_template_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(ctx, query, t.Name, t.Description, t.DefaultTemplateID).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetTypeByID retrieves an obligation type by ID
func (r *ObligationRepository) GetTypeByID(ctx context.Context, id uuid.UUID) (*models.ObligationType, error) {
	t := &models.ObligationType{}
	query := `
		SELECT id, name, description, default_template_id, created_at, updated_at
		FROM obligation_types
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.DefaultTemplateID, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ListTypes retrieves all obligation types
func (r *ObligationRepository) ListTypes(ctx context.Context) ([]*models.ObligationType, error) {
	query := `
		SELECT id, name, description, default_template_id, created_at, updated_at
		FROM obligation_types
		ORDER BY name`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []*models.ObligationType
	for rows.Next() {
		t := &models.ObligationType{}
		err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.DefaultTemplateID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	return types, rows.Err()
}

// UpdateType updates an obligation type
func (r *ObligationRepository) UpdateType(ctx context.Context, t *models.ObligationType) error {
	query := `
		UPDATE obligation_types SET
			name = $2,
			description = $3,
			default_template_id = $4,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRow(ctx, query, t.ID, t.Name, t.Description, t.DefaultTemplateID).
		Scan(&t.UpdatedAt)
}

// DeleteType deletes an obligation type
func (r *ObligationRepository) DeleteType(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM obligation_types WHERE id = $1`, id)
	return err
}

// --- obligation profiles ---

// CreateProfile creates a profile with its items
func (r *ObligationRepository) CreateProfile(ctx context.Context, p *models.ObligationProfile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO obligation_profiles (name, active)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	if err := tx.QueryRow(ctx, query, p.Name, p.Active).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}

	for _, item := range p.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO obligation_profile_items (profile_id, obligation_type_id, deadline_day)
			VALUES ($1, $2, $3)`,
			p.ID, item.ObligationTypeID, item.DeadlineDay)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetProfileByID retrieves a profile with its items
func (r *ObligationRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.ObligationProfile, error) {
	p := &models.ObligationProfile{}
	query := `
		SELECT id, name, active, created_at, updated_at
		FROM obligation_profiles
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT obligation_type_id, deadline_day
		FROM obligation_profile_items
		WHERE profile_id = $1
		ORDER BY deadline_day`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.ProfileItem
		if err := rows.Scan(&item.ObligationTypeID, &item.DeadlineDay); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, item)
	}

	return p, rows.Err()
}

// ListProfiles retrieves all profiles without items
func (r *ObligationRepository) ListProfiles(ctx context.Context) ([]*models.ObligationProfile, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, active, created_at, updated_at
		FROM obligation_profiles
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*models.ObligationProfile
	for rows.Next() {
		p := &models.ObligationProfile{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

// UpdateProfile replaces a profile's fields and items
func (r *ObligationRepository) UpdateProfile(ctx context.Context, p *models.ObligationProfile) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE obligation_profiles SET
			name = $2,
			active = $3,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	if err := tx.QueryRow(ctx, query, p.ID, p.Name, p.Active).Scan(&p.UpdatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM obligation_profile_items WHERE profile_id = $1`, p.ID); err != nil {
		return err
	}

	for _, item := range p.Items {
		_, err := tx.Exec(ctx, `
			INSERT INTO obligation_profile_items (profile_id, obligation_type_id, deadline_day)
			VALUES ($1, $2, $3)`,
			p.ID, item.ObligationTypeID, item.DeadlineDay)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// --- monthly obligations ---

const obligationColumns = `id, client_id, obligation_type_id, year, month, deadline, status,
	assignee_id, document_id, completed_by, completed_at, notes, created_at, updated_at`

func scanObligation(row interface{ Scan(dest ...any) error }) (*models.MonthlyObligation, error) {
	o := &models.MonthlyObligation{}
	err := row.Scan(
		&o.ID,
		&o.ClientID,
		&o.ObligationTypeID,
		&o.Year,
		&o.Month,
		&o.Deadline,
		&o.Status,
		&o.AssigneeID,
		&o.DocumentID,
		&o.CompletedBy,
		&o.CompletedAt,
		&o.Notes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// CreateIfAbsent inserts a monthly obligation unless one already exists for
// the same (client, type, year, month). Returns true when a row was created.
func (r *ObligationRepository) CreateIfAbsent(ctx context.Context, o *models.MonthlyObligation) (bool, error) {
	query := `
		INSERT INTO monthly_obligations (client_id, obligation_type_id, year, month, deadline, status, assignee_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (client_id, obligation_type_id, year, month) DO NOTHING`

	tag, err := r.db.Exec(
		ctx, query,
		o.ClientID,
		o.ObligationTypeID,
		o.Year,
		o.Month,
		o.Deadline,
		o.Status,
		o.AssigneeID,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// GetByID retrieves a monthly obligation by ID
func (r *ObligationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.MonthlyObligation, error) {
	query := fmt.Sprintf(`SELECT %s FROM monthly_obligations WHERE id = $1`, obligationColumns)
	return scanObligation(r.db.QueryRow(ctx, query, id))
}

// ObligationFilter narrows List results
type ObligationFilter struct {
	ClientID *uuid.UUID
	Year     *int
	Month    *int
	Status   *models.ObligationStatus
}

// List retrieves monthly obligations matching a filter
func (r *ObligationRepository) List(ctx context.Context, filter ObligationFilter, limit, offset int) ([]*models.MonthlyObligation, error) {
	query := fmt.Sprintf(`SELECT %s FROM monthly_obligations WHERE 1=1`, obligationColumns)
	args := []any{}
	idx := 1

	if filter.ClientID != nil {
		query += fmt.Sprintf(` AND client_id = $%d`, idx)
		args = append(args, *filter.ClientID)
		idx++
	}
	if filter.Year != nil {
		query += fmt.Sprintf(` AND year = $%d`, idx)
		args = append(args, *filter.Year)
		idx++
	}
	if filter.Month != nil {
		query += fmt.Sprintf(` AND month = $%d`, idx)
		args = append(args, *filter.Month)
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
	query += fmt.Sprintf(` ORDER BY deadline, client_id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obligations []*models.MonthlyObligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, o)
	}

	return obligations, rows.Err()
}

// Update updates a monthly obligation
func (r *ObligationRepository) Update(ctx context.Context, o *models.MonthlyObligation) error {
	query := `
		UPDATE monthly_obligations SET
			status = $2,
			assignee_id = $3,
			document_id = $4,
			completed_by = $5,
			completed_at = $6,
			notes = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRow(
		ctx, query,
		o.ID,
		o.Status,
		o.AssigneeID,
		o.DocumentID,
		o.CompletedBy,
		o.CompletedAt,
		o.Notes,
	).Scan(&o.UpdatedAt)
}

// MarkOverdue flips pending obligations whose deadline passed to overdue and
// returns the number of rows changed
func (r *ObligationRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE monthly_obligations
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND deadline < $3`,
		models.ObligationOverdue, models.ObligationPending, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// SearchByNotes finds obligations whose notes match a term
func (r *ObligationRepository) SearchByNotes(ctx context.Context, term string, limit int) ([]*models.MonthlyObligation, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT %s FROM monthly_obligations
		WHERE notes ILIKE $1
		ORDER BY deadline DESC LIMIT $2`, obligationColumns)

	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var obligations []*models.MonthlyObligation
	for rows.Next() {
		o, err := scanObligation(rows)
		if err != nil {
			return nil, err
		}
		obligations = append(obligations, o)
	}

	return obligations, rows.Err()
}
