package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/falkben/media-organizer/internal/constants"
	"github.com/falkben/media-organizer/pkg/core/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Supported drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects the database behind the store.
type Config struct {
	Driver string // sqlite (default) or postgres
	DSN    string // file path for sqlite, connection string for postgres
}

// Open connects to the configured database and migrates the schema.
func Open(cfg Config, logger *log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.StandardLogger()
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" {
		driver = DriverSQLite
	}

	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dsn := cfg.DSN
		if dsn == "" {
			dsn = constants.DefaultDatabasePath
		}
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
			}
		}
		dialector = sqlite.Open(sqliteDSN(dsn))
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q (want %s or %s)", cfg.Driver, DriverSQLite, DriverPostgres)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewGormLogger(logger)})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if err := Migrate(context.Background(), db, logger); err != nil {
		return nil, err
	}

	logger.WithFields(log.Fields{"driver": driver}).Debug("Metadata store ready")
	return New(db, logger), nil
}

// sqliteDSN turns on per-connection settings that a one-off PRAGMA would
// only apply to a single pooled connection.
func sqliteDSN(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Migrate creates the six entity tables and the four link tables.
func Migrate(ctx context.Context, db *gorm.DB, logger *log.Logger) error {
	if db.Dialector.Name() == DriverSQLite {
		enableSQLiteOptimizations(ctx, db, logger)
	}
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

func enableSQLiteOptimizations(ctx context.Context, db *gorm.DB, logger *log.Logger) {
	optimizations := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range optimizations {
		if err := db.WithContext(ctx).Exec(pragma).Error; err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("Failed to execute pragma")
		} else {
			logger.WithField("pragma", pragma).Debug("Executed pragma")
		}
	}
}
