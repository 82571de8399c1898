package repository

import (
	"context"
	"fmt"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CallRepository handles database operations for VoIP call logs
type CallRepository struct {
	db *pgxpool.Pool
}

// NewCallRepository creates a new call repository
func NewCallRepository(db *pgxpool.Pool) *CallRepository {
	return &CallRepository{db: db}
}

const callColumns = `id, client_id, direction, caller, callee, started_at,
	duration_seconds, provider_call_id, status, created_at`

// CreateIfAbsent stores a call log unless the provider call id was already
// reported. Webhook deliveries can repeat, so duplicates are dropped
// silently. Returns true when a row was created.
func (r *CallRepository) CreateIfAbsent(ctx context.Context, call *models.CallLog) (bool, error) {
	query := `
		INSERT INTO call_logs (
			client_id, direction, caller, callee, started_at,
			duration_seconds, provider_call_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (provider_call_id) DO NOTHING`

	tag, err := r.db.Exec(
		ctx, query,
		call.ClientID,
		call.Direction,
		call.Caller,
		call.Callee,
		call.StartedAt,
		call.DurationSeconds,
		call.ProviderCallID,
		call.Status,
	)
	if err != nil {
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

// List retrieves call logs, optionally for one client, newest first
func (r *CallRepository) List(ctx context.Context, clientID *uuid.UUID, limit, offset int) ([]*models.CallLog, error) {
	query := fmt.Sprintf(`SELECT %s FROM call_logs`, callColumns)
	args := []any{}
	idx := 1

	if clientID != nil {
		query += fmt.Sprintf(` WHERE client_id = $%d`, idx)
		args = append(args, *clientID)
		idx++
	}

	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` ORDER BY started_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calls []*models.CallLog
	for rows.Next() {
		call := &models.CallLog{}
		err := rows.Scan(
			&call.ID,
			&call.ClientID,
			&call.Direction,
			&call.Caller,
			&call.Callee,
			&call.StartedAt,
			&call.DurationSeconds,
			&call.ProviderCallID,
			&call.Status,
			&call.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}

	return calls, rows.Err()
}
