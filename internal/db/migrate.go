package db

import (
	"errors"
	"fmt"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// The following blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/diewo77/metertrack/internal/config"
	"github.com/diewo77/metertrack/internal/models"
)

// debugLogging controls gorm statement logging (DB_DEBUG env var).
func debugLogging() bool { return config.ParseBool("DB_DEBUG", false) }

// useSQLMigrations selects golang-migrate SQL files over AutoMigrate
// (MIGRATIONS env var).
func useSQLMigrations() bool { return config.ParseBool("MIGRATIONS", false) }

// ConnectAndMigrate opens the process-wide connection pool and brings the
// schema up to date. With MIGRATIONS=1 the SQL files in ./migrations run via
// golang-migrate; otherwise AutoMigrate keeps dev setups working.
func ConnectAndMigrate() (*gorm.DB, error) {
	dsn := GetNormalizedDSN()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty, check environment configuration")
	}
	var db *gorm.DB
	var err error
	logLevel := logger.Silent
	if debugLogging() {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}
	for i := 0; i < 10; i++ {
		db, err = gorm.Open(postgres.Open(dsn), cfg)
		if err == nil {
			break
		}
		fmt.Println("Retrying DB connection...", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database after retries: %w", err)
	}

	// Basic connectivity test
	if pingErr := db.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("db ping failed: %w", pingErr)
	}

	fmt.Println("[DB] Using DSN:", MaskDSN(dsn))
	if useSQLMigrations() {
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations failed: %w", err)
		}
	} else {
		if migErr := db.AutoMigrate(&models.Profile{}, &models.Reading{}); migErr != nil {
			return nil, fmt.Errorf("automigrate: %w", migErr)
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"profile", "reading"} {
		if !db.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// runSQLMigrations executes migrations in ./migrations using golang-migrate file source.
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
