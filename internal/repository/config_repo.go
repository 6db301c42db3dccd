package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sundaytable/internal/database"
	"sundaytable/internal/models"
)

// ConfigRepository handles database operations for the rotation config singleton
type ConfigRepository struct {
	db database.DBTX
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db database.DBTX) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// WithTx returns a repository bound to tx
func (r *ConfigRepository) WithTx(tx database.DBTX) *ConfigRepository {
	return &ConfigRepository{db: tx}
}

// GetConfig loads the config with its families and rotation
func (r *ConfigRepository) GetConfig(ctx context.Context) (*models.RotationConfig, error) {
	cfg := &models.RotationConfig{}
	query := `SELECT last_host_index, version, created_at, updated_at FROM app_config WHERE id = ?`
	err := r.db.QueryRowContext(ctx, query, models.ConfigKey).Scan(
		&cfg.LastHostIndex, &cfg.Version, &cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get config: %w", err)
	}

	families, err := r.listFamilies(ctx)
	if err != nil {
		return nil, err
	}
	cfg.Families = families

	rotation, err := r.listRotation(ctx)
	if err != nil {
		return nil, err
	}
	cfg.HostRotation = rotation

	return cfg, nil
}

func (r *ConfigRepository) listFamilies(ctx context.Context) ([]models.Family, error) {
	query := `SELECT id, name, emoji, color, email FROM families ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list families: %w", err)
	}
	defer rows.Close()

	families := []models.Family{}
	for rows.Next() {
		var f models.Family
		if err := rows.Scan(&f.ID, &f.Name, &f.Emoji, &f.Color, &f.Email); err != nil {
			return nil, fmt.Errorf("failed to scan family: %w", err)
		}
		families = append(families, f)
	}
	return families, rows.Err()
}

func (r *ConfigRepository) listRotation(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT family_id FROM host_rotation ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to list host rotation: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan host rotation: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CreateConfig writes cfg at version 1 unless a config already exists.
// It reports whether this call created it; run inside a transaction.
func (r *ConfigRepository) CreateConfig(ctx context.Context, cfg models.RotationConfig, now time.Time) (bool, error) {
	version := cfg.Version
	if version < 1 {
		version = 1
	}
	query := r.db.GetDialect().InsertIgnore(
		`INSERT INTO app_config (id, last_host_index, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
	)
	result, err := r.db.ExecContext(ctx, query, models.ConfigKey, cfg.LastHostIndex, version, now, now)
	if err != nil {
		return false, fmt.Errorf("failed to create config: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check config insert: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	for i, f := range cfg.Families {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO families (id, name, emoji, color, email, position) VALUES (?, ?, ?, ?, ?, ?)`,
			f.ID, f.Name, f.Emoji, f.Color, f.Email, i,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert family %s: %w", f.ID, err)
		}
	}
	for i, id := range cfg.HostRotation {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO host_rotation (position, family_id) VALUES (?, ?)`, i, id,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert host rotation entry: %w", err)
		}
	}
	return true, nil
}

// UpdateLastHostIndex advances the rotation pointer if the stored version
// still equals expectedVersion. It reports whether the row was updated.
func (r *ConfigRepository) UpdateLastHostIndex(ctx context.Context, expectedVersion int64, lastHostIndex int, now time.Time) (bool, error) {
	query := `
		UPDATE app_config
		SET last_host_index = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`
	result, err := r.db.ExecContext(ctx, query, lastHostIndex, now, models.ConfigKey, expectedVersion)
	if err != nil {
		return false, fmt.Errorf("failed to update config: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check config update: %w", err)
	}
	return n == 1, nil
}

// DeleteAll removes the config, families and rotation. Dinners must be
// deleted first because they reference families.
func (r *ConfigRepository) DeleteAll(ctx context.Context) error {
	for _, table := range []string{"host_rotation", "families", "app_config"} {
		if _, err := r.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
