package repository

import (
	"context"
	"errors"
	"fmt"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentRepository handles database operations for archived documents,
// tags, collections and shared links
type DocumentRepository struct {
	db *pgxpool.Pool
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *pgxpool.Pool) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, client_id, obligation_id, category, year, month, filename,
	mime_type, size, storage_path, version, is_current, previous_version_id, uploaded_by, created_at`

func scanDocument(row interface{ Scan(dest ...any) error }) (*models.ClientDocument, error) {
	d := &models.ClientDocument{}
	err := row.Scan(
		&d.ID,
		&d.ClientID,
		&d.ObligationID,
		&d.Category,
		&d.Year,
		&d.Month,
		&d.Filename,
		&d.MimeType,
		&d.Size,
		&d.StoragePath,
		&d.Version,
		&d.IsCurrent,
		&d.PreviousVersionID,
		&d.UploadedBy,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// GetByID retrieves a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ClientDocument, error) {
	query := fmt.Sprintf(`SELECT %s FROM client_documents WHERE id = $1`, documentColumns)
	return scanDocument(r.db.QueryRow(ctx, query, id))
}

// GetCurrent retrieves the current version of a lineage, or nil when the
// lineage has no documents yet
func (r *DocumentRepository) GetCurrent(ctx context.Context, clientID uuid.UUID, category string, year, month int) (*models.ClientDocument, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM client_documents
		WHERE client_id = $1 AND category = $2 AND year = $3 AND month = $4 AND is_current = TRUE`,
		documentColumns)

	doc, err := scanDocument(r.db.QueryRow(ctx, query, clientID, category, year, month))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// InsertVersion stores a new document version. When previous is non-nil, the
// old row's is_current flag is flipped off in the same transaction that
// inserts the new current row.
func (r *DocumentRepository) InsertVersion(ctx context.Context, doc *models.ClientDocument, previous *models.ClientDocument) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if previous != nil {
		tag, err := tx.Exec(ctx, `
			UPDATE client_documents SET is_current = FALSE
			WHERE id = $1 AND is_current = TRUE`, previous.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("document %s is no longer the current version", previous.ID)
		}
		doc.PreviousVersionID = &previous.ID
		doc.Version = previous.Version + 1
	} else {
		doc.Version = 1
	}
	doc.IsCurrent = true

	query := `
		INSERT INTO client_documents (
			client_id, obligation_id, category, year, month, filename,
			mime_type, size, storage_path, version, is_current, previous_version_id, uploaded_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at`

	err = tx.QueryRow(
		ctx, query,
		doc.ClientID,
		doc.ObligationID,
		doc.Category,
		doc.Year,
		doc.Month,
		doc.Filename,
		doc.MimeType,
		doc.Size,
		doc.StoragePath,
		doc.Version,
		doc.IsCurrent,
		doc.PreviousVersionID,
		doc.UploadedBy,
	).Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DocumentFilter narrows List results
type DocumentFilter struct {
	ClientID    *uuid.UUID
	Category    *string
	Year        *int
	Month       *int
	CurrentOnly bool
}

// List retrieves documents matching a filter
func (r *DocumentRepository) List(ctx context.Context, filter DocumentFilter, limit, offset int) ([]*models.ClientDocument, error) {
	query := fmt.Sprintf(`SELECT %s FROM client_documents WHERE 1=1`, documentColumns)
	args := []any{}
	idx := 1

	if filter.ClientID != nil {
		query += fmt.Sprintf(` AND client_id = $%d`, idx)
		args = append(args, *filter.ClientID)
		idx++
	}
	if filter.Category != nil {
		query += fmt.Sprintf(` AND category = $%d`, idx)
		args = append(args, *filter.Category)
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
	if filter.CurrentOnly {
		query += ` AND is_current = TRUE`
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

	var docs []*models.ClientDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

// ListVersions retrieves every version of a lineage, newest first
func (r *DocumentRepository) ListVersions(ctx context.Context, clientID uuid.UUID, category string, year, month int) ([]*models.ClientDocument, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM client_documents
		WHERE client_id = $1 AND category = $2 AND year = $3 AND month = $4
		ORDER BY version DESC`, documentColumns)

	rows, err := r.db.Query(ctx, query, clientID, category, year, month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.ClientDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

// DeleteLineage removes every version of a lineage together with its tag
// assignments, collection memberships and shared links. Returns the storage
// paths of the removed files so the caller can delete them from storage.
func (r *DocumentRepository) DeleteLineage(ctx context.Context, clientID uuid.UUID, category string, year, month int) ([]string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id, storage_path FROM client_documents
		WHERE client_id = $1 AND category = $2 AND year = $3 AND month = $4`,
		clientID, category, year, month)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	var paths []string
	for rows.Next() {
		var id uuid.UUID
		var path string
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
		paths = append(paths, path)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM document_tag_assignments WHERE document_id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM document_collection_items WHERE document_id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM shared_links WHERE document_id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `UPDATE monthly_obligations SET document_id = NULL WHERE document_id = ANY($1)`, ids); err != nil {
		return nil, err
	}

	// Break previous_version chains before deleting
	if _, err := tx.Exec(ctx, `UPDATE client_documents SET previous_version_id = NULL WHERE id = ANY($1)`, ids); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM client_documents WHERE id = ANY($1)`, ids); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return paths, nil
}

// SearchByFilename finds current documents matching a term
func (r *DocumentRepository) SearchByFilename(ctx context.Context, term string, limit int) ([]*models.ClientDocument, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
		SELECT %s FROM client_documents
		WHERE is_current = TRUE AND (filename ILIKE $1 OR category ILIKE $1)
		ORDER BY created_at DESC LIMIT $2`, documentColumns)

	rows, err := r.db.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*models.ClientDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}

	return docs, rows.Err()
}
