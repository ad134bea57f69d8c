// Package dbtest opens throwaway SQLite databases carrying the production schema
// for repository and service tests.
package dbtest

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/db/models"
	"github.com/The-Full-Stuck-Developers/full-stuck-developers-3rd-semester-sub000/pkg/migrate"
)

// sqliteDialect rewrites the Postgres-only spellings used by the goose
// migrations. Enum type names are left alone; SQLite accepts any type name.
var sqliteDialect = strings.NewReplacer(
	"timestamptz", "datetime",
	"DEFAULT now()", "DEFAULT CURRENT_TIMESTAMP",
)

// Open returns an isolated in-memory database built from the goose
// migrations, with foreign keys and CHECK constraints enforced.
// The pool is capped at one connection so concurrent tests serialize instead
// of tripping SQLite table locks.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:dbtest_" + uuid.NewString() + "?mode=memory&cache=shared&_busy_timeout=5000&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := applyMigrations(conn); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return conn
}

// Account inserts the accounts anchor row that ledger entries and bets
// reference. Repeated calls are no-ops.
func Account(t testing.TB, conn *gorm.DB, id uuid.UUID) {
	t.Helper()
	if err := conn.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Account{ID: id}).Error; err != nil {
		t.Fatalf("seed account %s: %v", id, err)
	}
}

func applyMigrations(conn *gorm.DB) error {
	names, err := fs.Glob(migrate.Files, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := fs.ReadFile(migrate.Files, name)
		if err != nil {
			return err
		}
		up := upSection(string(body))
		// Enum types only exist in Postgres.
		if strings.Contains(up, "CREATE TYPE") {
			continue
		}
		if err := conn.Exec(sqliteDialect.Replace(up)).Error; err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func upSection(sql string) string {
	start := strings.Index(sql, "-- +goose Up")
	if start < 0 {
		return ""
	}
	end := strings.Index(sql, "-- +goose Down")
	if end < start {
		end = len(sql)
	}
	return sql[start:end]
}
