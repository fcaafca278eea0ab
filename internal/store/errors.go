// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned by mutations that target a missing row.
	ErrNotFound = errors.New("not found")

	// ErrInvalidParent is returned when a category would be placed under
	// itself, one of its descendants, or a category that does not exist.
	ErrInvalidParent = errors.New("invalid parent category")

	// ErrEmailTaken is returned when a user is created with an email that
	// another account already uses.
	ErrEmailTaken = errors.New("email already in use")
)

// PostgreSQL error codes the stores translate.
const (
	codeForeignKeyViolation = "23503"
	codeUniqueViolation     = "23505"
)

// pgCode returns the SQLSTATE of a PostgreSQL error, or "".
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// InUseError is returned when a category cannot be deleted because
// products still reference it. Count is zero when the database refused the
// delete without a count.
type InUseError struct {
	Count int
}

func (e *InUseError) Error() string {
	if e.Count == 0 {
		return "category is used by products"
	}
	return fmt.Sprintf("category is used by %d product(s)", e.Count)
}

// PersistenceError reports which write of an image sync failed. The
// surrounding transaction has been rolled back, so resubmitting the same
// desired list is safe.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "sync images: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
