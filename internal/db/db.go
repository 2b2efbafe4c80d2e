// Package db opens the quote store and keeps its schema current. The DSN
// decides the backend: a postgres URL selects the hosted variant, anything
// else is a sqlite file path (the local embedded variant).
package db

import (
	"fmt"
	"os"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	// blank imports register the postgres driver and file source for golang-migrate
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/go-devis/internal/models"
)

// IsPostgres reports whether the DSN targets the hosted relational backend.
func IsPostgres(dsn string) bool {
	lower := strings.ToLower(strings.TrimSpace(dsn))
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

// Connect opens the store. An unreachable store is a fatal startup condition
// for the caller; there is no per-request reconnect.
func Connect(dsn string) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN est vide, vérifiez la configuration de l'environnement")
	}
	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var dialector gorm.Dialector
	if IsPostgres(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}
	conn, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := conn.Exec("SELECT 1").Error; err != nil {
		return nil, fmt.Errorf("store ping failed: %w", err)
	}
	return conn, nil
}

// Migrate brings the schema up to date. With sqlMigrations set and a postgres
// DSN the versioned SQL files in ./migrations are applied via golang-migrate;
// otherwise AutoMigrate covers both backends (dev convenience and the sqlite
// variant).
func Migrate(conn *gorm.DB, dsn string, sqlMigrations bool) error {
	if sqlMigrations && IsPostgres(dsn) {
		return runSQLMigrations(dsn)
	}
	for _, m := range []any{&models.Company{}, &models.Quote{}} {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
