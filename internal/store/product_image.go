// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"shopadmin/internal/gallery"
	"shopadmin/internal/models"
)

// ProductImageStore manages the ordered image gallery of each product.
type ProductImageStore struct {
	db *sql.DB
}

// NewProductImageStore returns a new ProductImageStore.
func NewProductImageStore(db *sql.DB) *ProductImageStore {
	return &ProductImageStore{db: db}
}

const productImageColumns = `id, product_id, image_url, display_order, is_primary, created_at`

func scanProductImage(scanner interface{ Scan(...any) error }) (*models.ProductImage, error) {
	var img models.ProductImage
	err := scanner.Scan(&img.ID, &img.ProductID, &img.ImageURL, &img.DisplayOrder, &img.IsPrimary, &img.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &img, nil
}

func listImages(ctx context.Context, q querier, productID uuid.UUID, suffix string) ([]models.ProductImage, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+productImageColumns+` FROM product_images
		WHERE product_id = $1 ORDER BY display_order`+suffix, productID)
	if err != nil {
		return nil, fmt.Errorf("list product images: %w", err)
	}
	defer rows.Close()

	images := []models.ProductImage{}
	for rows.Next() {
		img, err := scanProductImage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product image: %w", err)
		}
		images = append(images, *img)
	}
	return images, rows.Err()
}

// ListByProduct returns a product's images ordered by display order.
func (s *ProductImageStore) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	return listImages(ctx, s.db, productID, "")
}

// Sync makes the product's persisted images match desired, in order, in
// one transaction. It returns the plan that was applied.
func (s *ProductImageStore) Sync(ctx context.Context, productID uuid.UUID, desired []string) (gallery.Plan, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return gallery.Plan{}, &PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	plan, err := syncImages(ctx, tx, productID, desired)
	if err != nil {
		return gallery.Plan{}, err
	}
	if err := tx.Commit(); err != nil {
		return gallery.Plan{}, &PersistenceError{Op: "commit", Err: err}
	}
	return plan, nil
}

// toGallery adapts persisted rows to the reconciler's input.
func toGallery(rows []models.ProductImage) []gallery.Image {
	out := make([]gallery.Image, len(rows))
	for i, r := range rows {
		out[i] = gallery.Image{ID: r.ID, URL: r.ImageURL, DisplayOrder: r.DisplayOrder, IsPrimary: r.IsPrimary}
	}
	return out
}

// syncImages reconciles and applies the image plan inside tx. Rows are
// locked while the plan is computed so concurrent syncs serialise.
func syncImages(ctx context.Context, tx *sql.Tx, productID uuid.UUID, desired []string) (gallery.Plan, error) {
	existing, err := listImages(ctx, tx, productID, " FOR UPDATE")
	if err != nil {
		return gallery.Plan{}, &PersistenceError{Op: "load", Err: err}
	}

	plan := gallery.Reconcile(toGallery(existing), desired)
	if plan.Empty() {
		return plan, nil
	}

	del, err := tx.PrepareContext(ctx, `DELETE FROM product_images WHERE id = $1 AND product_id = $2`)
	if err != nil {
		return gallery.Plan{}, &PersistenceError{Op: "prepare", Err: err}
	}
	defer del.Close()

	move, err := tx.PrepareContext(ctx, `
		UPDATE product_images SET display_order = $1, is_primary = $2
		WHERE id = $3 AND product_id = $4`)
	if err != nil {
		return gallery.Plan{}, &PersistenceError{Op: "prepare", Err: err}
	}
	defer move.Close()

	ins, err := tx.PrepareContext(ctx, `
		INSERT INTO product_images (product_id, image_url, display_order, is_primary)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return gallery.Plan{}, &PersistenceError{Op: "prepare", Err: err}
	}
	defer ins.Close()

	for _, step := range plan.Steps() {
		switch step.Kind {
		case gallery.StepDelete:
			_, err = del.ExecContext(ctx, step.ID, productID)
		case gallery.StepPark, gallery.StepPlace:
			_, err = move.ExecContext(ctx, step.DisplayOrder, step.IsPrimary, step.ID, productID)
		case gallery.StepInsert:
			_, err = ins.ExecContext(ctx, productID, step.URL, step.DisplayOrder, step.IsPrimary)
		}
		if err != nil {
			return gallery.Plan{}, &PersistenceError{Op: step.Kind.String(), Err: err}
		}
	}

	slog.Debug("product images synced",
		"product_id", productID,
		"deleted", len(plan.Delete),
		"inserted", len(plan.Insert),
		"reordered", len(plan.Reorder),
	)
	return plan, nil
}
