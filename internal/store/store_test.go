// store_test.go provides a shared test database helper for all store
// integration tests. Tests are skipped if PostgreSQL is not available.
package store

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"shopadmin/internal/database"
	"shopadmin/internal/models"
)

// testDSN returns the PostgreSQL connection string for testing.
// Uses environment variables with defaults matching docker-compose.yml.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "shopadmin")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "shopadmin")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test database and runs migrations.
// If the database is unavailable, the test is skipped. A cleanup
// function is registered to close the connection when the test finishes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	// Run migrations to ensure the schema is current.
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Downgrade goose global state.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanUsers removes test users by email pattern. Call in t.Cleanup().
func cleanUsers(t *testing.T, db *sql.DB, emails ...string) {
	t.Helper()
	for _, email := range emails {
		db.Exec("DELETE FROM users WHERE email = $1", email)
	}
}

// cleanCategories removes test categories by ID. Call in t.Cleanup().
func cleanCategories(t *testing.T, db *sql.DB, ids ...int64) {
	t.Helper()
	for _, id := range ids {
		db.Exec("DELETE FROM products WHERE category_id = $1", id)
		db.Exec("DELETE FROM categories WHERE id = $1", id)
	}
}

// cleanOrders removes test orders by order number. Items cascade.
func cleanOrders(t *testing.T, db *sql.DB, numbers ...string) {
	t.Helper()
	for _, n := range numbers {
		db.Exec("DELETE FROM orders WHERE order_number = $1", n)
	}
}

// testCategory creates a category that is removed, with its products,
// when the test finishes.
func testCategory(t *testing.T, db *sql.DB, name string, parentID *int64) *models.Category {
	t.Helper()
	c, err := NewCategoryStore(db).Create(context.Background(), name, parentID)
	if err != nil {
		t.Fatalf("create category %q: %v", name, err)
	}
	t.Cleanup(func() { cleanCategories(t, db, c.ID) })
	return c
}
