package repository

import (
	"context"

	"logistiko-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SharedLinkRepository handles database operations for shared links, tags
// and collections
type SharedLinkRepository struct {
	db *pgxpool.Pool
}

// NewSharedLinkRepository creates a new shared link repository
func NewSharedLinkRepository(db *pgxpool.Pool) *SharedLinkRepository {
	return &SharedLinkRepository{db: db}
}

// CreateLink creates a shared link
func (r *SharedLinkRepository) CreateLink(ctx context.Context, link *models.SharedLink) error {
	query := `
		INSERT INTO shared_links (document_id, token, expires_at, max_downloads, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, download_count, created_at`

	return r.db.QueryRow(
		ctx, query,
		link.DocumentID,
		link.Token,
		link.ExpiresAt,
		link.MaxDownloads,
		link.CreatedBy,
	).Scan(&link.ID, &link.DownloadCount, &link.CreatedAt)
}

// GetLinkByToken retrieves a shared link by its token
func (r *SharedLinkRepository) GetLinkByToken(ctx context.Context, token string) (*models.SharedLink, error) {
	link := &models.SharedLink{}
	query := `
		SELECT id, document_id, token, expires_at, max_downloads, download_count, created_by, created_at
		FROM shared_links
		WHERE token = $1`

	err := r.db.QueryRow(ctx, query, token).Scan(
		&link.ID,
		&link.DocumentID,
		&link.Token,
		&link.ExpiresAt,
		&link.MaxDownloads,
		&link.DownloadCount,
		&link.CreatedBy,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return link, nil
}

// ConsumeDownload increments the download counter only while the link has
// budget left. Returns false when the counter already reached max_downloads,
// so a concurrent fourth download of a 3-download link loses the race.
func (r *SharedLinkRepository) ConsumeDownload(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE shared_links
		SET download_count = download_count + 1
		WHERE id = $1 AND (max_downloads IS NULL OR download_count < max_downloads)`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListLinksByDocument retrieves all links for a document
func (r *SharedLinkRepository) ListLinksByDocument(ctx context.Context, documentID uuid.UUID) ([]*models.SharedLink, error) {
	query := `
		SELECT id, document_id, token, expires_at, max_downloads, download_count, created_by, created_at
		FROM shared_links
		WHERE document_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*models.SharedLink
	for rows.Next() {
		link := &models.SharedLink{}
		err := rows.Scan(
			&link.ID,
			&link.DocumentID,
			&link.Token,
			&link.ExpiresAt,
			&link.MaxDownloads,
			&link.DownloadCount,
			&link.CreatedBy,
			&link.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	return links, rows.Err()
}

// DeleteLink removes a shared link
func (r *SharedLinkRepository) DeleteLink(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM shared_links WHERE id = $1`, id)
	return err
}

// --- tags ---

// CreateTag creates a document tag
func (r *SharedLinkRepository) CreateTag(ctx context.Context, tag *models.DocumentTag) error {
	query := `
		INSERT INTO document_tags (name, color)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return r.db.QueryRow(ctx, query, tag.Name, tag.Color).Scan(&tag.ID, &tag.CreatedAt)
}

// ListTags retrieves all tags
func (r *SharedLinkRepository) ListTags(ctx context.Context) ([]*models.DocumentTag, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, color, created_at FROM document_tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*models.DocumentTag
	for rows.Next() {
		tag := &models.DocumentTag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}

// AssignTag attaches a tag to a document
func (r *SharedLinkRepository) AssignTag(ctx context.Context, documentID, tagID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO document_tag_assignments (document_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, documentID, tagID)
	return err
}

// UnassignTag detaches a tag from a document
func (r *SharedLinkRepository) UnassignTag(ctx context.Context, documentID, tagID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM document_tag_assignments
		WHERE document_id = $1 AND tag_id = $2`, documentID, tagID)
	return err
}

// --- collections ---

// CreateCollection creates a document collection
func (r *SharedLinkRepository) CreateCollection(ctx context.Context, col *models.DocumentCollection) error {
	query := `
		INSERT INTO document_collections (name, description, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return r.db.QueryRow(ctx, query, col.Name, col.Description, col.CreatedBy).
		Scan(&col.ID, &col.CreatedAt)
}

// ListCollections retrieves all collections
func (r *SharedLinkRepository) ListCollections(ctx context.Context) ([]*models.DocumentCollection, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, description, created_by, created_at
		FROM document_collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []*models.DocumentCollection
	for rows.Next() {
		col := &models.DocumentCollection{}
		if err := rows.Scan(&col.ID, &col.Name, &col.Description, &col.CreatedBy, &col.CreatedAt); err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	return cols, rows.Err()
}

// AddToCollection puts a document into a collection
func (r *SharedLinkRepository) AddToCollection(ctx context.Context, collectionID, documentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO document_collection_items (collection_id, document_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, collectionID, documentID)
	return err
}

// RemoveFromCollection removes a document from a collection
func (r *SharedLinkRepository) RemoveFromCollection(ctx context.Context, collectionID, documentID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM document_collection_items
		WHERE collection_id = $1 AND document_id = $2`, collectionID, documentID)
	return err
}
