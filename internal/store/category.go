// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"shopadmin/internal/models"
	"shopadmin/internal/tree"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db *sql.DB
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB) *CategoryStore {
	return &CategoryStore{db: db}
}

const categoryColumns = `id, name, parent_id, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(scanner interface{ Scan(...any) error }) (*models.Category, error) {
	var c models.Category
	err := scanner.Scan(&c.ID, &c.Name, &c.ParentID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listCategories(ctx context.Context, q querier, suffix string) ([]models.Category, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY created_at, id`+suffix)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	items := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// List returns all categories in creation order.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	return listCategories(ctx, s.db, "")
}

// Tree returns all categories as a nested forest.
func (s *CategoryStore) Tree(ctx context.Context) ([]tree.Node, error) {
	flat, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if dups := tree.Duplicates(flat); len(dups) > 0 {
		slog.Warn("duplicate category ids in listing", "ids", dups)
	}
	return tree.Build(flat), nil
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id int64) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// Exists reports whether a category with the given ID exists.
func (s *CategoryStore) Exists(ctx context.Context, id int64) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM categories WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("category exists: %w", err)
	}
	return ok, nil
}

// Create inserts a new category and returns it. A non-nil parent must exist.
func (s *CategoryStore) Create(ctx context.Context, name string, parentID *int64) (*models.Category, error) {
	if parentID != nil {
		ok, err := s.Exists(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrInvalidParent
		}
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, parent_id)
		VALUES ($1, $2)
		RETURNING `+categoryColumns,
		name, parentID,
	)
	c, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Update renames and re-parents a category. The new parent may not be the
// category itself or any of its descendants; the check and the write run
// in one transaction with the category rows locked.
func (s *CategoryStore) Update(ctx context.Context, id int64, name string, parentID *int64) (*models.Category, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	flat, err := listCategories(ctx, tx, " FOR UPDATE")
	if err != nil {
		return nil, err
	}
	forest := tree.Build(flat)
	if tree.Find(forest, id) == nil {
		return nil, ErrNotFound
	}
	if parentID != nil {
		if tree.Find(forest, *parentID) == nil || tree.DisallowedParents(forest, id).Has(*parentID) {
			return nil, ErrInvalidParent
		}
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE categories SET name = $1, parent_id = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING `+categoryColumns,
		name, parentID, id,
	)
	c, err := scanCategory(row)
	if err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit category update: %w", err)
	}
	return c, nil
}

// Delete removes a category by ID. It refuses while products reference the
// category. Child categories become roots (ON DELETE SET NULL).
func (s *CategoryStore) Delete(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin category delete: %w", err)
	}
	defer tx.Rollback()

	// The row lock blocks product inserts and moves into this category
	// until the delete commits, so the count cannot go stale.
	var locked int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock category: %w", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id).Scan(&count); err != nil {
		return fmt.Errorf("count category products: %w", err)
	}
	if count > 0 {
		return &InUseError{Count: count}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return &InUseError{}
		}
		return fmt.Errorf("delete category: %w", err)
	}
	if err := tx.Commit(); err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return &InUseError{}
		}
		return fmt.Errorf("commit category delete: %w", err)
	}
	return nil
}
