// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog item managed from the admin.
type Product struct {
	ID                uuid.UUID  `json:"id"`
	Name              string     `json:"name"`
	Description       string     `json:"description"`
	DetailDescription string     `json:"detail_description"`
	Price             int64      `json:"price"`
	DiscountRate      int        `json:"discount_rate"`
	Quantity          int        `json:"quantity"`
	IsPublished       bool       `json:"is_published"`
	CategoryID        int64      `json:"category_id"`
	Badges            []string   `json:"badges"`
	UploadedBy        *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`

	// Populated by store methods that join related rows.
	Category *Category     `json:"category,omitempty"`
	Images   []ProductImage `json:"images"`
}

// PrimaryImage returns the image at display order 0, or nil.
func (p *Product) PrimaryImage() *ProductImage {
	for i := range p.Images {
		if p.Images[i].IsPrimary {
			return &p.Images[i]
		}
	}
	return nil
}

// ImageURLs returns the image URLs in display order.
func (p *Product) ImageURLs() []string {
	urls := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		urls = append(urls, img.ImageURL)
	}
	return urls
}

// ProductImage is one persisted entry of a product's ordered image list.
// IsPrimary is true iff DisplayOrder is 0.
type ProductImage struct {
	ID           uuid.UUID `json:"id"`
	ProductID    uuid.UUID `json:"product_id"`
	ImageURL     string    `json:"image_url"`
	DisplayOrder int       `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
	CreatedAt    time.Time `json:"created_at"`
}
