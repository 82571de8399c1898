package repository

import (
	"context"
	"fmt"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientRepository handles database operations for clients
type ClientRepository struct {
	db *pgxpool.Pool
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientColumns = `id, name, afm, doy, email, phone, address, profile_id, active, notes, created_at, updated_at`

func scanClient(row interface{ Scan(dest ...any) error }) (*models.Client, error) {
	client := &models.Client{}
	err := row.Scan(
		&client.ID,
		&client.Name,
		&client.AFM,
		&client.DOY,
		&client.Email,
		&client.Phone,
		&client.Address,
		&client.ProfileID,
		&client.Active,
		&client.Notes,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Create creates a new client
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	query := `
		INSERT INTO clients (name, afm, doy, email, phone, address, profile_id, active, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		client.Name,
		client.AFM,
		client.DOY,
		client.Email,
		client.Phone,
		client.Address,
		client.ProfileID,
		client.Active,
		client.Notes,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)

	return err
}

// GetByID retrieves a client by ID
func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)
	return scanClient(r.db.QueryRow(ctx, query, id))
}

// GetByAFM retrieves a client by tax number
func (r *ClientRepository) GetByAFM(ctx context.Context, afm string) (*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE afm = $1`, clientColumns)
	return scanClient(r.db.QueryRow(ctx, query, afm))
}

// GetByPhone retrieves a client whose phone matches, used by the VoIP webhook
func (r *ClientRepository) GetByPhone(ctx context.Context, phone string) (*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE phone = $1 LIMIT 1`, clientColumns)
	return scanClient(r.db.QueryRow(ctx, query, phone))
}

// List retrieves clients, optionally restricted to active ones
func (r *ClientRepository) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients`, clientColumns)
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY name LIMIT $1 OFFSET $2`

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	return clients, rows.Err()
}

// ListActiveWithProfile retrieves active clients that have an obligation
// profile assigned. Used by the obligation generator.
func (r *ClientRepository) ListActiveWithProfile(ctx context.Context) ([]*models.Client, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE active = TRUE AND profile_id IS NOT NULL
		ORDER BY name`, clientColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	return clients, rows.Err()
}

// Update updates a client
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	query := `
		UPDATE clients SET
			name = $2,
			afm = $3,
			doy = $4,
			email = $5,
			phone = $6,
			address = $7,
			profile_id = $8,
			active = $9,
			notes = $10,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRow(
		ctx, query,
		client.ID,
		client.Name,
		client.AFM,
		client.DOY,
		client.Email,
		client.Phone,
		client.Address,
		client.ProfileID,
		client.Active,
		client.Notes,
	).Scan(&client.UpdatedAt)
}

// Deactivate soft-deactivates a client
func (r *ClientRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE clients SET active = FALSE, updated_at = NOW() WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

// Search finds clients matching a term against name, AFM or email
func (r *ClientRepository) Search(ctx context.Context, term string, limit int) ([]*models.Client, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM clients
		WHERE name ILIKE $1 OR afm ILIKE $1 OR email ILIKE $1
		ORDER BY name LIMIT $2`, clientColumns)

	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	return clients, rows.Err()
}
