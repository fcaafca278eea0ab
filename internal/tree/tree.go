// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package tree turns the flat category list into a nested forest and
// answers the questions the admin asks of it: which categories may become
// the parent of a given one, and how to list the forest for a picker.
// Every function is pure and safe for concurrent use.
package tree

import (
	"sort"

	"shopadmin/internal/models"
)

// Node is a category with its nested children. Children is never nil.
type Node struct {
	models.Category
	Depth    int    `json:"depth"`
	Children []Node `json:"children"`
}

// IDSet is a set of category ids.
type IDSet map[int64]struct{}

// Has reports whether id is in the set.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// forest holds the records in an arena. Children and roots are slot
// indexes into records, so no node is ever shared or copied while the
// structure is being built.
type forest struct {
	records  []models.Category
	children [][]int
	roots    []int
	index    map[int64]int
}

// Build converts a flat category list into a forest. Siblings keep their
// input order. A category whose parent is missing from the list, or whose
// ancestor chain loops back to itself, is placed at the top level. Every
// record appears exactly once in the result.
//
// When ids repeat, the last record with a given id is the one children
// attach to; use Duplicates to detect that case.
func Build(records []models.Category) []Node {
	f := newForest(records)
	out := make([]Node, 0, len(f.roots))
	for _, slot := range f.roots {
		out = append(out, f.node(slot, 0))
	}
	return out
}

func newForest(records []models.Category) *forest {
	f := &forest{
		records:  records,
		children: make([][]int, len(records)),
		index:    make(map[int64]int, len(records)),
	}

	// First pass: one slot per record.
	for i, r := range records {
		f.index[r.ID] = i
	}

	parent := make([]int, len(records))
	for i, r := range records {
		parent[i] = -1
		if r.ParentID == nil {
			continue
		}
		if p, ok := f.index[*r.ParentID]; ok {
			parent[i] = p
		}
	}

	// Second pass, in input order.
	cyclic := onCycle(parent)
	for i := range records {
		p := parent[i]
		if p == -1 || cyclic[i] {
			f.roots = append(f.roots, i)
			continue
		}
		f.children[p] = append(f.children[p], i)
	}
	return f
}

// onCycle marks the slots whose parent chain returns to themselves. Each
// slot is walked once, so the cost is linear in the number of records.
func onCycle(parent []int) []bool {
	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]uint8, len(parent))
	cyclic := make([]bool, len(parent))
	pos := make([]int, len(parent))
	var path []int

	for start := range parent {
		path = path[:0]
		j := start
		for j != -1 && state[j] == unvisited {
			state[j] = onPath
			pos[j] = len(path)
			path = append(path, j)
			j = parent[j]
		}
		// Reaching a slot of the current walk closes a new cycle.
		if j != -1 && state[j] == onPath {
			for _, slot := range path[pos[j]:] {
				cyclic[slot] = true
			}
		}
		for _, slot := range path {
			state[slot] = done
		}
	}
	return cyclic
}

func (f *forest) node(slot, depth int) Node {
	kids := f.children[slot]
	n := Node{
		Category: f.records[slot],
		Depth:    depth,
		Children: make([]Node, 0, len(kids)),
	}
	for _, c := range kids {
		n.Children = append(n.Children, f.node(c, depth+1))
	}
	return n
}

// Duplicates returns the ids that occur more than once in records, in the
// order they are first seen.
func Duplicates(records []models.Category) []int64 {
	seen := make(map[int64]int, len(records))
	var dups []int64
	for _, r := range records {
		seen[r.ID]++
		if seen[r.ID] == 2 {
			dups = append(dups, r.ID)
		}
	}
	return dups
}

// Flatten lists the forest in pre-order: each node followed by its
// flattened children.
func Flatten(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	var walk func([]Node)
	walk = func(ns []Node) {
		for _, n := range ns {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}

// Find returns the node with the given id, searching depth-first, or nil.
func Find(nodes []Node, id int64) *Node {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
		if n := Find(nodes[i].Children, id); n != nil {
			return n
		}
	}
	return nil
}

// DisallowedParents returns the ids that must not become the new parent of
// category id: the category itself and all of its descendants. The set is
// empty when id is not in the forest.
func DisallowedParents(nodes []Node, id int64) IDSet {
	set := IDSet{}
	target := Find(nodes, id)
	if target == nil {
		return set
	}
	var collect func(Node)
	collect = func(n Node) {
		set[n.ID] = struct{}{}
		for _, c := range n.Children {
			collect(c)
		}
	}
	collect(*target)
	return set
}

// Option is one entry of a parent picker.
type Option struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Depth    int    `json:"depth"`
	Disabled bool   `json:"disabled"`
}

// ParentOptions lists every category as a candidate parent for the
// category being edited, disabling the ones that would create a cycle.
// editing may be 0 when a new category is being created.
func ParentOptions(nodes []Node, editing int64) []Option {
	disallowed := DisallowedParents(nodes, editing)
	flat := Flatten(nodes)
	opts := make([]Option, 0, len(flat))
	for _, n := range flat {
		opts = append(opts, Option{
			ID:       n.ID,
			Name:     n.Name,
			Depth:    n.Depth,
			Disabled: disallowed.Has(n.ID),
		})
	}
	return opts
}
