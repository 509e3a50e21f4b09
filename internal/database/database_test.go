package database

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"tripbudget/internal/store"
)

func TestNewConfig(t *testing.T) {
	t.Run("defaults_to_memory", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "memory")
		cfg, err := NewConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Driver != DriverMemory {
			t.Errorf("expected memory driver, got %s", cfg.Driver)
		}
	})

	t.Run("rejects_unknown_driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "mongo")
		if _, err := NewConfig(); err == nil {
			t.Fatal("expected error for unknown driver")
		}
	})
}

func TestConfig_URLs(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "ledger", SSLMode: "disable"}

	if got := cfg.DSN(); got != "host=db port=5432 user=u password=p dbname=ledger sslmode=disable" {
		t.Errorf("unexpected DSN %q", got)
	}
	if got := cfg.MigrateURL(); got != "postgres://u:p@db:5432/ledger?sslmode=disable" {
		t.Errorf("unexpected migrate URL %q", got)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(files)%2 != 0 || len(files) == 0 {
		t.Fatalf("expected paired up/down migrations, got %v", files)
	}
	up, err := fs.ReadFile(migrationsFS, "migrations/000001_create_ledger_tables.up.sql")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for _, table := range []string{"budgets", "budget_categories", "expenses", "audit_logs"} {
		if !strings.Contains(string(up), "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("expected table %s in initial migration", table)
		}
	}
}

func TestOpenStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		uow, mgr, err := OpenStore(&Config{Driver: DriverMemory})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mgr != nil {
			t.Error("expected no manager for memory storage")
		}
		if _, ok := uow.(*store.Memory); !ok {
			t.Errorf("expected memory store, got %T", uow)
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := &Config{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "ledger.db")}
		uow, mgr, err := OpenStore(cfg)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer mgr.Close()

		if _, ok := uow.(*store.Gorm); !ok {
			t.Errorf("expected gorm store, got %T", uow)
		}
		for _, model := range store.Models() {
			if !mgr.DB().Migrator().HasTable(model) {
				t.Errorf("expected table for %T", model)
			}
		}
		if err := mgr.MigrateDown(1); err == nil {
			t.Error("expected rollback to be refused on sqlite")
		}
		if _, _, err := mgr.Version(); err == nil {
			t.Error("expected version to be refused on sqlite")
		}
	})

	t.Run("manager_refuses_memory", func(t *testing.T) {
		_, err := NewManager(&Config{Driver: DriverMemory})
		if !errors.Is(err, ErrNoDatabase) {
			t.Errorf("expected ErrNoDatabase, got %v", err)
		}
	})
}
