package repository

import (
	"context"
	"errors"

	"logistiko-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository handles the archive settings singleton row
type SettingsRepository struct {
	db *pgxpool.Pool
}

// NewSettingsRepository creates a new settings repository
func NewSettingsRepository(db *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetArchiveSettings retrieves the archive settings, falling back to defaults
// when no row has been saved yet
func (r *SettingsRepository) GetArchiveSettings(ctx context.Context) (*models.ArchiveSettings, error) {
	s := &models.ArchiveSettings{}
	query := `
		SELECT id, layout, custom_template, allowed_extensions, max_file_size, updated_at
		FROM archive_settings
		LIMIT 1`

	err := r.db.QueryRow(ctx, query).Scan(
		&s.ID,
		&s.Layout,
		&s.CustomTemplate,
		&s.AllowedExts,
		&s.MaxFileSize,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultArchiveSettings(), nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// SaveArchiveSettings inserts or replaces the singleton archive settings row
func (r *SettingsRepository) SaveArchiveSettings(ctx context.Context, s *models.ArchiveSettings) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM archive_settings`); err != nil {
		return err
	}

	query := `
		INSERT INTO archive_settings (layout, custom_template, allowed_extensions, max_file_size)
		VALUES ($1, $2, $3, $4)
		RETURNING id, updated_at`

	err = tx.QueryRow(ctx, query, s.Layout, s.CustomTemplate, s.AllowedExts, s.MaxFileSize).
		Scan(&s.ID, &s.UpdatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DefaultArchiveSettings returns the archive configuration used before any
// row is saved: standard layout, common office formats, 20MB cap.
func DefaultArchiveSettings() *models.ArchiveSettings {
	return &models.ArchiveSettings{
		Layout:      models.LayoutStandard,
		AllowedExts: models.StringList{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".jpg", ".png", ".txt", ".zip"},
		MaxFileSize: 20 * 1024 * 1024,
	}
}
