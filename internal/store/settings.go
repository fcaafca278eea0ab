// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"shopadmin/internal/models"
)

// SettingsStore manages the single storefront settings row.
type SettingsStore struct {
	db *sql.DB
}

// NewSettingsStore returns a new SettingsStore.
func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

const settingsColumns = `id, main_image_url, created_at, updated_at`

func scanSettings(scanner interface{ Scan(...any) error }) (*models.Settings, error) {
	var st models.Settings
	if err := scanner.Scan(&st.ID, &st.MainImageURL, &st.CreatedAt, &st.UpdatedAt); err != nil {
		return nil, err
	}
	return &st, nil
}

// Get returns the settings row, creating it if it is missing.
func (s *SettingsStore) Get(ctx context.Context) (*models.Settings, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM settings ORDER BY created_at LIMIT 1`)
	st, err := scanSettings(row)
	if err == nil {
		return st, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `INSERT INTO settings DEFAULT VALUES RETURNING `+settingsColumns)
	if st, err = scanSettings(row); err != nil {
		return nil, fmt.Errorf("create settings: %w", err)
	}
	return st, nil
}

// SetMainImage stores url as the storefront main image; nil clears it.
// It returns the updated row and the URL it replaced, if any.
func (s *SettingsStore) SetMainImage(ctx context.Context, url *string) (*models.Settings, *string, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return nil, nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE settings SET main_image_url = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING `+settingsColumns,
		url, current.ID,
	)
	updated, err := scanSettings(row)
	if err != nil {
		return nil, nil, fmt.Errorf("set main image: %w", err)
	}
	return updated, current.MainImageURL, nil
}
