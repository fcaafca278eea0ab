// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// MaxCategoryNameLen is the longest category name the admin accepts.
const MaxCategoryNameLen = 15

// Category is a product category as stored. Categories form a forest via
// ParentID; a nil ParentID marks a root.
type Category struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	ParentID  *int64     `json:"parent_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// HasParent reports whether the category points at a parent.
func (c *Category) HasParent() bool {
	return c.ParentID != nil
}
