// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package gallery reconciles a product's persisted image rows with the
// ordered list of image URLs the admin submits. Reconcile computes the
// smallest set of deletes, inserts, and position updates; Plan.Steps orders
// them so a store with a unique (product, display order) constraint never
// sees a transient duplicate.
package gallery

import "github.com/google/uuid"

// Image is the persisted state the reconciler needs for one row.
type Image struct {
	ID           uuid.UUID
	URL          string
	DisplayOrder int
	IsPrimary    bool
}

// Insert describes a row to create.
type Insert struct {
	URL          string `json:"url"`
	DisplayOrder int    `json:"display_order"`
	IsPrimary    bool   `json:"is_primary"`
}

// Reorder describes a surviving row whose position or primary flag changes.
type Reorder struct {
	ID           uuid.UUID `json:"id"`
	DisplayOrder int       `json:"display_order"`
	IsPrimary    bool      `json:"is_primary"`
}

// Plan is the diff between persisted and desired state.
type Plan struct {
	Delete  []uuid.UUID `json:"delete"`
	Insert  []Insert    `json:"insert"`
	Reorder []Reorder   `json:"reorder"`
}

// Empty reports whether applying the plan would change nothing.
func (p Plan) Empty() bool {
	return len(p.Delete) == 0 && len(p.Insert) == 0 && len(p.Reorder) == 0
}

// Reconcile diffs existing rows against the desired URL order. Rows are
// matched to desired entries by exact URL, one row per entry, in existing
// order. A desired URL listed twice matches at most one row; the extra
// occurrence becomes an insert. Rows left unmatched are deleted.
//
// The position of every desired entry is its index in desired, and only
// index 0 is primary.
func Reconcile(existing []Image, desired []string) Plan {
	pool := make(map[string][]int, len(existing))
	for i, img := range existing {
		pool[img.URL] = append(pool[img.URL], i)
	}

	plan := Plan{
		Delete:  []uuid.UUID{},
		Insert:  []Insert{},
		Reorder: []Reorder{},
	}
	matched := make([]bool, len(existing))

	for idx, url := range desired {
		order, primary := idx, idx == 0

		candidates := pool[url]
		if len(candidates) == 0 {
			plan.Insert = append(plan.Insert, Insert{URL: url, DisplayOrder: order, IsPrimary: primary})
			continue
		}
		slot := candidates[0]
		pool[url] = candidates[1:]
		matched[slot] = true

		cur := existing[slot]
		if cur.DisplayOrder != order || cur.IsPrimary != primary {
			plan.Reorder = append(plan.Reorder, Reorder{ID: cur.ID, DisplayOrder: order, IsPrimary: primary})
		}
	}

	for i, img := range existing {
		if !matched[i] {
			plan.Delete = append(plan.Delete, img.ID)
		}
	}
	return plan
}

// StepKind identifies what a Step does.
type StepKind int

const (
	// StepDelete removes row ID.
	StepDelete StepKind = iota
	// StepPark moves row ID to a negative temporary order, not primary.
	StepPark
	// StepInsert creates a row for URL.
	StepInsert
	// StepPlace moves row ID to its final order and primary flag.
	StepPlace
)

func (k StepKind) String() string {
	switch k {
	case StepDelete:
		return "delete"
	case StepPark:
		return "park"
	case StepInsert:
		return "insert"
	case StepPlace:
		return "place"
	}
	return "unknown"
}

// Step is one write against the image table.
type Step struct {
	Kind         StepKind
	ID           uuid.UUID
	URL          string
	DisplayOrder int
	IsPrimary    bool
}

// Steps linearises the plan. Deletes free their positions first; every
// reordered row is then parked at -1, -2, ... so inserts can take any
// position; finally parked rows are placed. At no point do two rows share
// a display order, and at most one row is primary.
func (p Plan) Steps() []Step {
	steps := make([]Step, 0, len(p.Delete)+2*len(p.Reorder)+len(p.Insert))
	for _, id := range p.Delete {
		steps = append(steps, Step{Kind: StepDelete, ID: id})
	}
	for i, r := range p.Reorder {
		steps = append(steps, Step{Kind: StepPark, ID: r.ID, DisplayOrder: -(i + 1)})
	}
	for _, in := range p.Insert {
		steps = append(steps, Step{Kind: StepInsert, URL: in.URL, DisplayOrder: in.DisplayOrder, IsPrimary: in.IsPrimary})
	}
	for _, r := range p.Reorder {
		steps = append(steps, Step{Kind: StepPlace, ID: r.ID, DisplayOrder: r.DisplayOrder, IsPrimary: r.IsPrimary})
	}
	return steps
}
