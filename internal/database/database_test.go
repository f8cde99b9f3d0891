package database

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"

	"budgettracker/internal/config"
	"budgettracker/internal/logger"
	"budgettracker/internal/models"
)

func init() {
	logger.Init("test")
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		driver  string
		wantErr bool
	}{
		{DriverSQLite, false},
		{DriverPostgres, false},
		{"mysql", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			_, err := NewConfig(&config.Config{DBDriver: tt.driver})
			if (err != nil) != tt.wantErr {
				t.Errorf("NewConfig(%q) error = %v, wantErr %v", tt.driver, err, tt.wantErr)
			}
		})
	}
}

func TestMigrationURL_EscapesCredentials(t *testing.T) {
	cfg := &Config{Host: "db", Port: "5432", User: "app", Password: "p@ss/word", DBName: "ledger", SSLMode: "disable"}
	got := cfg.MigrationURL()
	want := "postgres://app:p%40ss%2Fword@db:5432/ledger?sslmode=disable"
	if got != want {
		t.Errorf("MigrationURL() = %q, want %q", got, want)
	}
}

func TestManager_SQLiteAutoMigrate(t *testing.T) {
	cfg := &Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "ledger.db")}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	defer func() { _ = m.Close() }()

	if err := m.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	for _, model := range models.All() {
		if !m.DB().Migrator().HasTable(model) {
			t.Errorf("table for %T missing after migration", model)
		}
	}

	// idempotent
	if err := m.Migrate(); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestNewMigrator_RequiresPostgres(t *testing.T) {
	if _, err := NewMigrator(&Config{Driver: DriverSQLite}); err == nil {
		t.Fatal("expected an error for sqlite")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("reading embedded migrations: %v", err)
	}

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("expected paired up/down migrations, got %d up and %d down", ups, downs)
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("iofs.New: %v", err)
	}
	defer func() { _ = src.Close() }()
	first, err := src.First()
	if err != nil {
		t.Fatalf("First: %v", err)
	}
	if first != 1 {
		t.Errorf("first migration version = %d, want 1", first)
	}
}
