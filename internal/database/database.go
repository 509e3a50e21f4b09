package database

import (
	"embed"
	"errors"
	"fmt"
	"time"

	"tripbudget/internal/logger"
	"tripbudget/internal/store"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrNoDatabase is returned by migration commands on the memory driver.
var ErrNoDatabase = errors.New("memory storage has no database to migrate")

// Manager handles database operations
type Manager struct {
	db     *gorm.DB
	config *Config
}

// NewManager opens the database selected by config.
func NewManager(config *Config) (*Manager, error) {
	var dialector gorm.Dialector
	switch config.Driver {
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  config.DSN(),
			PreferSimpleProtocol: true, // Required for Supabase Supavisor; harmless for direct connections
		})
	case DriverSQLite:
		dialector = sqlite.Open(config.SQLitePath)
	default:
		return nil, ErrNoDatabase
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	if config.Driver == DriverSQLite {
		// SQLite allows a single writer.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	return &Manager{db: db, config: config}, nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Migrate brings the schema up to date. PostgreSQL uses the embedded SQL
// migrations; SQLite is migrated from the models.
func (m *Manager) Migrate() error {
	logger.Get().Infow("Running database migrations...", "driver", m.config.Driver)

	if m.config.Driver == DriverSQLite {
		if err := m.db.AutoMigrate(store.Models()...); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Get().Info("Database migrations completed successfully")
		return nil
	}

	err := m.withMigrate(func(mig *migrate.Migrate) error {
		if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// MigrateDown rolls back the given number of migrations.
func (m *Manager) MigrateDown(steps int) error {
	if steps < 1 {
		return fmt.Errorf("invalid step count: %d", steps)
	}
	if m.config.Driver != DriverPostgres {
		return fmt.Errorf("rollback is only supported on postgres")
	}
	return m.withMigrate(func(mig *migrate.Migrate) error {
		if err := mig.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("migration down failed: %w", err)
		}
		logger.Get().Infof("Rolled back %d migration(s)", steps)
		return nil
	})
}

// Version returns the applied migration version.
func (m *Manager) Version() (uint, bool, error) {
	if m.config.Driver != DriverPostgres {
		return 0, false, fmt.Errorf("versions are only tracked on postgres")
	}
	var (
		version uint
		dirty   bool
	)
	err := m.withMigrate(func(mig *migrate.Migrate) error {
		var err error
		version, dirty, err = mig.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			return nil
		}
		return err
	})
	return version, dirty, err
}

func (m *Manager) withMigrate(fn func(mig *migrate.Migrate) error) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	mig, err := migrate.NewWithSourceInstance("iofs", source, m.config.MigrateURL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()
	return fn(mig)
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenStore builds the unit of work for the configured driver. The manager
// is nil for the memory driver.
func OpenStore(config *Config) (store.UnitOfWork, *Manager, error) {
	if config.Driver == DriverMemory {
		logger.Get().Info("Using in-memory storage")
		return store.NewMemory(), nil, nil
	}

	mgr, err := NewManager(config)
	if err != nil {
		return nil, nil, err
	}
	if err := mgr.Migrate(); err != nil {
		_ = mgr.Close()
		return nil, nil, err
	}
	return store.NewGorm(mgr.DB()), mgr, nil
}
