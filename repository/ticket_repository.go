package repository

import (
	"context"
	"fmt"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TicketRepository handles database operations for tickets
type TicketRepository struct {
	db *pgxpool.Pool
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, client_id, subject, body, status, priority, assignee_id, created_by, created_at, updated_at`

func scanTicket(row interface{ Scan(dest ...any) error }) (*models.Ticket, error) {
	t := &models.Ticket{}
	err := row.Scan(
		&t.ID,
		&t.ClientID,
		&t.Subject,
		&t.Body,
		&t.Status,
		&t.Priority,
		&t.AssigneeID,
		&t.CreatedBy,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Create creates a ticket
func (r *TicketRepository) Create(ctx context.Context, t *models.Ticket) error {
	query := `
		INSERT INTO tickets (client_id, subject, body, status, priority, assignee_id, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return r.db.QueryRow(
		ctx, query,
		t.ClientID,
		t.Subject,
		t.Body,
		t.Status,
		t.Priority,
		t.AssigneeID,
		t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a ticket by ID
func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id = $1`, ticketColumns)
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

// List retrieves tickets, optionally filtered by status
func (r *TicketRepository) List(ctx context.Context, status *models.TicketStatus, limit, offset int) ([]*models.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	args := []any{}
	idx := 1

	if status != nil {
		query += fmt.Sprintf(` WHERE status = $%d`, idx)
		args = append(args, *status)
		idx++
	}

	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` ORDER BY priority DESC, created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}

// Update updates a ticket
func (r *TicketRepository) Update(ctx context.Context, t *models.Ticket) error {
	query := `
		UPDATE tickets SET
			subject = $2,
			body = $3,
			status = $4,
			priority = $5,
			assignee_id = $6,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	return r.db.QueryRow(
		ctx, query,
		t.ID,
		t.Subject,
		t.Body,
		t.Status,
		t.Priority,
		t.AssigneeID,
	).Scan(&t.UpdatedAt)
}

// Delete deletes a ticket
func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	return err
}

// Search finds tickets whose subject or body match a term
func (r *TicketRepository) Search(ctx context.Context, term string, limit int) ([]*models.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT %s FROM tickets
		WHERE subject ILIKE $1 OR body ILIKE $1
		ORDER BY created_at DESC LIMIT $2`, ticketColumns)

	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*models.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}

	return tickets, rows.Err()
}
