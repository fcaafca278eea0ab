package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Default development credentials created by Seed.
const (
	SeedAdminEmail    = "admin@shopadmin.local"
	SeedAdminPassword = "admin"
)

// seedCategories is a small starter hierarchy: name and parent name.
var seedCategories = []struct{ name, parent string }{
	{"Clothing", ""},
	{"Tops", "Clothing"},
	{"Bottoms", "Clothing"},
	{"Accessories", ""},
	{"Bags", "Accessories"},
}

// Seed populates the database with initial development data.
// It creates a default admin user and a starter category tree when the
// respective tables are empty. The admin is prompted to set up 2FA on
// first login (totp_enabled = false).
func Seed(db *sql.DB) error {
	if err := seedAdmin(db); err != nil {
		return err
	}
	return seedCategoryTree(db)
}

func seedAdmin(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}
	if count > 0 {
		slog.Info("users already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(SeedAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO users (email, password_hash, name, role, totp_enabled)
		VALUES ($1, $2, $3, $4, $5)
	`, SeedAdminEmail, string(hash), "Admin", "admin", false)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	slog.Info("database seeded with default admin user",
		"email", SeedAdminEmail,
		"password", SeedAdminPassword,
	)
	return nil
}

func seedCategoryTree(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("seed check categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	ids := make(map[string]int64, len(seedCategories))
	for _, c := range seedCategories {
		var parent *int64
		if c.parent != "" {
			p := ids[c.parent]
			parent = &p
		}
		var id int64
		if err := tx.QueryRow(
			`INSERT INTO categories (name, parent_id) VALUES ($1, $2) RETURNING id`,
			c.name, parent,
		).Scan(&id); err != nil {
			return fmt.Errorf("seed insert category %q: %w", c.name, err)
		}
		ids[c.name] = id
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}
	slog.Info("database seeded with starter categories", "count", len(seedCategories))
	return nil
}
