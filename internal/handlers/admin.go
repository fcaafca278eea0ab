// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the JSON HTTP handlers for the shopadmin API.
// Handlers are grouped by concern (admin, auth) and receive their
// dependencies through the handler struct.
package handlers

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"shopadmin/internal/gallery"
	"shopadmin/internal/models"
	"shopadmin/internal/store"
	"shopadmin/internal/tree"
)

// CategoryRepo is the category persistence the admin handlers need.
type CategoryRepo interface {
	List(ctx context.Context) ([]models.Category, error)
	Tree(ctx context.Context) ([]tree.Node, error)
	FindByID(ctx context.Context, id int64) (*models.Category, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, name string, parentID *int64) (*models.Category, error)
	Update(ctx context.Context, id int64, name string, parentID *int64) (*models.Category, error)
	Delete(ctx context.Context, id int64) error
}

// ProductRepo is the product persistence the admin handlers need.
type ProductRepo interface {
	List(ctx context.Context, f store.ProductFilter) (store.Page[models.Product], error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Create(ctx context.Context, p *models.Product, imageURLs []string) (*models.Product, error)
	Update(ctx context.Context, p *models.Product, imageURLs []string) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) ([]string, error)
	ReferencedImageURLs(ctx context.Context) (map[string]struct{}, error)
}

// ImageSyncer reconciles a product's gallery against a desired URL list.
type ImageSyncer interface {
	Sync(ctx context.Context, productID uuid.UUID, desired []string) (gallery.Plan, error)
}

// OrderRepo is the read-only order access the admin handlers need.
type OrderRepo interface {
	List(ctx context.Context, f store.OrderFilter) (store.Page[models.Order], error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// SettingsRepo reads and updates the storefront settings row.
type SettingsRepo interface {
	Get(ctx context.Context) (*models.Settings, error)
	SetMainImage(ctx context.Context, url *string) (*models.Settings, *string, error)
}

// AccountRepo is the staff account management the admin handlers need.
type AccountRepo interface {
	List(ctx context.Context) ([]models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, email, password, name string, role models.Role) (*models.User, error)
	ResetTOTP(ctx context.Context, userID uuid.UUID) error
}

// BlobStore is the object storage used for uploaded images.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	RemoveURL(ctx context.Context, rawURL string) (bool, error)
}

// ResponseCache caches assembled JSON responses.
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, body []byte)
	Invalidate(ctx context.Context, keys ...string)
}

// Admin groups all admin API handlers and their dependencies.
type Admin struct {
	categories CategoryRepo
	products   ProductRepo
	images     ImageSyncer
	orders     OrderRepo
	settings   SettingsRepo
	users      AccountRepo
	blobs      BlobStore
	cache      ResponseCache
}

// NewAdmin creates a new Admin handler group with the given dependencies.
// blobs and cache may be nil when S3 or Valkey caching is not configured.
func NewAdmin(categories CategoryRepo, products ProductRepo, images ImageSyncer, orders OrderRepo, settings SettingsRepo, users AccountRepo, blobs BlobStore, cache ResponseCache) *Admin {
	return &Admin{
		categories: categories,
		products:   products,
		images:     images,
		orders:     orders,
		settings:   settings,
		users:      users,
		blobs:      blobs,
		cache:      cache,
	}
}

// removeBlobs deletes the uploaded objects among urls that no product
// image, detail description or main image still points to. Failures are
// logged; the janitor sweeps anything left behind.
func (a *Admin) removeBlobs(ctx context.Context, urls ...string) {
	if a.blobs == nil || len(urls) == 0 {
		return
	}
	refs, err := a.products.ReferencedImageURLs(ctx)
	if err != nil {
		slog.Warn("load image references failed, keeping blobs", "count", len(urls), "error", err)
		return
	}
	for _, u := range urls {
		if _, used := refs[u]; used {
			slog.Debug("blob still referenced, keeping", "url", u)
			continue
		}
		if _, err := a.blobs.RemoveURL(ctx, u); err != nil {
			slog.Warn("remove blob failed", "url", u, "error", err)
		}
	}
}
