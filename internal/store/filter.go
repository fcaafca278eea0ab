// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"strconv"
	"strings"
)

// Pagination bounds shared by list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one page of a filtered listing.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// paging clamps page and limit and returns the SQL offset.
func paging(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit, (page - 1) * limit
}

// orderBy resolves a user-supplied sort key against a whitelist of
// columns. Unknown keys fall back to fallback; direction defaults to DESC.
func orderBy(columns map[string]string, key, fallback, dir string) string {
	col, ok := columns[key]
	if !ok {
		col = columns[fallback]
	}
	if strings.EqualFold(dir, "asc") {
		return col + " ASC"
	}
	return col + " DESC"
}

// where accumulates SQL conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

// add appends a condition. Each "?" in cond is replaced by the next
// positional placeholder bound to arg.
func (w *where) add(cond string, arg any) {
	w.args = append(w.args, arg)
	w.conds = append(w.conds, strings.ReplaceAll(cond, "?", "$"+strconv.Itoa(len(w.args))))
}

// addRaw appends a condition without arguments.
func (w *where) addRaw(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// next returns the placeholder for an argument appended after the conditions.
func (w *where) next(arg any) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}

// likePattern escapes LIKE metacharacters and wraps term in wildcards.
func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return "%" + r.Replace(term) + "%"
}
