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

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"shopadmin/internal/models"
	"shopadmin/internal/richtext"
)

// ProductStore manages products and, through syncImages, their galleries.
type ProductStore struct {
	db *sql.DB
}

// NewProductStore returns a new ProductStore.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `p.id, p.name, p.description, p.detail_description, p.price, p.discount_rate, p.quantity,
	p.is_published, p.category_id, p.badges, p.uploaded_by, p.created_at, p.updated_at`

// productTargets returns the scan destinations for productColumns. Badges
// are a text[] column, scanned through a pgtype map.
func productTargets(p *models.Product) []any {
	m := pgtype.NewMap()
	return []any{
		&p.ID, &p.Name, &p.Description, &p.DetailDescription, &p.Price, &p.DiscountRate, &p.Quantity,
		&p.IsPublished, &p.CategoryID, m.SQLScanner(&p.Badges), &p.UploadedBy,
		&p.CreatedAt, &p.UpdatedAt,
	}
}

func scanProduct(scanner interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	if err := scanner.Scan(productTargets(&p)...); err != nil {
		return nil, err
	}
	if p.Badges == nil {
		p.Badges = []string{}
	}
	p.Images = []models.ProductImage{}
	return &p, nil
}

// Published filter values for ProductFilter.
const (
	PublishedAll  = "all"
	PublishedOnly = "published"
	DraftsOnly    = "unpublished"
)

// ProductFilter narrows and orders a product listing.
type ProductFilter struct {
	Search    string // case-insensitive name match
	Published string // PublishedAll, PublishedOnly or DraftsOnly
	Sort      string // name, price, quantity, created_at
	Order     string // asc or desc
	Page      int
	Limit     int
}

var productSort = map[string]string{
	"name":       "p.name",
	"price":      "p.price",
	"quantity":   "p.quantity",
	"created_at": "p.created_at",
}

// List returns one page of products with their category and primary image.
func (s *ProductStore) List(ctx context.Context, f ProductFilter) (Page[models.Product], error) {
	page, limit, offset := paging(f.Page, f.Limit)
	result := Page[models.Product]{Items: []models.Product{}, Page: page, Limit: limit}

	var w where
	if f.Search != "" {
		w.add("p.name ILIKE ?", likePattern(f.Search))
	}
	switch f.Published {
	case PublishedOnly:
		w.addRaw("p.is_published")
	case DraftsOnly:
		w.addRaw("NOT p.is_published")
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products p`+w.String(), w.args...).Scan(&result.Total); err != nil {
		return result, fmt.Errorf("count products: %w", err)
	}

	query := `
		SELECT ` + productColumns + `,
		       c.id, c.name, c.parent_id, c.created_at, c.updated_at,
		       pi.id, pi.image_url, pi.display_order, pi.created_at
		FROM products p
		JOIN categories c ON c.id = p.category_id
		LEFT JOIN product_images pi ON pi.product_id = p.id AND pi.is_primary` +
		w.String() +
		` ORDER BY ` + orderBy(productSort, f.Sort, "created_at", f.Order) + `, p.id` +
		` LIMIT ` + w.next(limit) + ` OFFSET ` + w.next(offset)

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return result, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p   models.Product
			c   models.Category
			img struct {
				id    *uuid.UUID
				url   *string
				order *int
				at    sql.NullTime
			}
		)
		targets := append(productTargets(&p),
			&c.ID, &c.Name, &c.ParentID, &c.CreatedAt, &c.UpdatedAt,
			&img.id, &img.url, &img.order, &img.at,
		)
		if err := rows.Scan(targets...); err != nil {
			return result, fmt.Errorf("scan product: %w", err)
		}
		if p.Badges == nil {
			p.Badges = []string{}
		}
		p.Category = &c
		p.Images = []models.ProductImage{}
		if img.id != nil {
			p.Images = append(p.Images, models.ProductImage{
				ID: *img.id, ProductID: p.ID, ImageURL: *img.url,
				DisplayOrder: *img.order, IsPrimary: true, CreatedAt: img.at.Time,
			})
		}
		result.Items = append(result.Items, p)
	}
	return result, rows.Err()
}

// FindByID retrieves a product with its category and ordered images.
// Returns nil if not found.
func (s *ProductStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products p WHERE p.id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find product by id: %w", err)
	}

	row = s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, p.CategoryID)
	if p.Category, err = scanCategory(row); err != nil {
		return nil, fmt.Errorf("find product category: %w", err)
	}

	if p.Images, err = listImages(ctx, s.db, id, ""); err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a product and its images, positioned in the given order,
// in one transaction.
func (s *ProductStore) Create(ctx context.Context, p *models.Product, imageURLs []string) (*models.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		INSERT INTO products AS p (name, description, detail_description, price, discount_rate,
			quantity, is_published, category_id, badges, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+productColumns,
		p.Name, p.Description, p.DetailDescription, p.Price, p.DiscountRate, p.Quantity,
		p.IsPublished, p.CategoryID, badgesOrEmpty(p.Badges), p.UploadedBy,
	)
	created, err := scanProduct(row)
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if len(imageURLs) > 0 {
		if _, err := syncImages(ctx, tx, created.ID, imageURLs); err != nil {
			return nil, err
		}
		if created.Images, err = listImages(ctx, tx, created.ID, ""); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit product create: %w", err)
	}
	return created, nil
}

// Update writes the product's editable fields. When imageURLs is non-nil
// the gallery is reconciled to it in the same transaction; a nil slice
// leaves the images untouched and an empty one removes them all.
func (s *ProductStore) Update(ctx context.Context, p *models.Product, imageURLs []string) (*models.Product, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
		UPDATE products AS p SET
			name = $1, description = $2, detail_description = $3, price = $4,
			discount_rate = $5, quantity = $6, is_published = $7, category_id = $8,
			badges = $9, updated_at = NOW()
		WHERE p.id = $10
		RETURNING `+productColumns,
		p.Name, p.Description, p.DetailDescription, p.Price, p.DiscountRate,
		p.Quantity, p.IsPublished, p.CategoryID, badgesOrEmpty(p.Badges), p.ID,
	)
	updated, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	if imageURLs != nil {
		if _, err := syncImages(ctx, tx, updated.ID, imageURLs); err != nil {
			return nil, err
		}
	}
	if updated.Images, err = listImages(ctx, tx, updated.ID, ""); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit product update: %w", err)
	}
	return updated, nil
}

// Delete removes a product and returns the URLs of its gallery images and
// of the images embedded in its detail description, so the caller can
// remove the blobs. Image rows cascade.
func (s *ProductStore) Delete(ctx context.Context, id uuid.UUID) ([]string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	images, err := listImages(ctx, tx, id, "")
	if err != nil {
		return nil, err
	}

	var detail string
	err = tx.QueryRowContext(ctx, `DELETE FROM products WHERE id = $1 RETURNING detail_description`, id).Scan(&detail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete product: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit product delete: %w", err)
	}

	urls := make([]string, 0, len(images))
	for _, img := range images {
		urls = append(urls, img.ImageURL)
	}
	embedded, err := richtext.ImageURLs(detail)
	if err != nil {
		slog.Warn("parse deleted product detail failed", "product_id", id, "error", err)
	}
	return append(urls, embedded...), nil
}

// ReferencedImageURLs returns every image URL still in use: gallery
// images, images embedded in detail descriptions and the main image.
func (s *ProductStore) ReferencedImageURLs(ctx context.Context) (map[string]struct{}, error) {
	refs := make(map[string]struct{})

	rows, err := s.db.QueryContext(ctx, `
		SELECT image_url FROM product_images
		UNION
		SELECT main_image_url FROM settings WHERE main_image_url IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list referenced images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan referenced image: %w", err)
		}
		refs[url] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list referenced images: %w", err)
	}

	details, err := s.db.QueryContext(ctx, `
		SELECT detail_description FROM products WHERE detail_description LIKE '%<img%'`)
	if err != nil {
		return nil, fmt.Errorf("list detail descriptions: %w", err)
	}
	defer details.Close()
	for details.Next() {
		var detail string
		if err := details.Scan(&detail); err != nil {
			return nil, fmt.Errorf("scan detail description: %w", err)
		}
		urls, err := richtext.ImageURLs(detail)
		if err != nil {
			return nil, err
		}
		for _, u := range urls {
			refs[u] = struct{}{}
		}
	}
	return refs, details.Err()
}

func badgesOrEmpty(b []string) []string {
	if b == nil {
		return []string{}
	}
	return b
}
