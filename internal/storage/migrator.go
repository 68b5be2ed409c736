package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Migrator applies versioned schema changes that AutoMigrate cannot express,
// such as composite indexes and data backfills.
//
// Applied versions are tracked in the schema_migrations table and every
// migration runs in its own transaction, so Migrate is safe to call on
// every start.
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
}

// Migration is a single versioned schema change.
type Migration struct {
	// Version orders migrations; it must be unique and increasing
	Version int

	// Name is a human-readable description of the migration
	Name string

	// Statements are executed in order inside one transaction
	Statements []string
}

// SchemaMigration records an applied migration.
type SchemaMigration struct {
	Version   int    `gorm:"primaryKey;autoIncrement:false"`
	Name      string `gorm:"size:255;not null"`
	AppliedAt time.Time
}

// NewMigrator creates a migrator with the built-in pagewatch migrations registered.
func NewMigrator(db *gorm.DB) *Migrator {
	m := &Migrator{db: db}
	m.registerBuiltinMigrations()
	return m
}

func (m *Migrator) registerBuiltinMigrations() {
	m.AddMigration(Migration{
		Version: 1,
		Name:    "index_page_checks_page_checked_at",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_page_checks_page_checked_at ON page_checks (page_id, checked_at)`,
		},
	})

	// Rows written before website_id was denormalized carry no owner
	m.AddMigration(Migration{
		Version: 2,
		Name:    "backfill_page_checks_website_id",
		Statements: []string{
			`UPDATE page_checks
			    SET website_id = (SELECT pages.website_id FROM pages WHERE pages.id = page_checks.page_id)
			  WHERE website_id IS NULL OR website_id = 0`,
		},
	})
}

// AddMigration registers a migration, keeping the list sorted by version.
func (m *Migrator) AddMigration(migration Migration) {
	m.migrations = append(m.migrations, migration)
	slices.SortFunc(m.migrations, func(a, b Migration) int {
		return a.Version - b.Version
	})
}

// Migrate applies all pending migrations and returns how many were applied.
func (m *Migrator) Migrate() (int, error) {
	if err := m.db.AutoMigrate(&SchemaMigration{}); err != nil {
		return 0, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return 0, err
	}

	count := 0
	for _, migration := range m.migrations {
		if slices.Contains(applied, migration.Version) {
			continue
		}

		log.Info().
			Int("version", migration.Version).
			Str("name", migration.Name).
			Msg("Applying migration")

		if err := m.apply(migration); err != nil {
			return count, fmt.Errorf("failed to apply migration %d (%s): %w",
				migration.Version, migration.Name, err)
		}
		count++
	}

	if count > 0 {
		log.Info().Int("count", count).Msg("Database migrations completed")
	} else {
		log.Debug().Msg("No pending migrations")
	}

	return count, nil
}

// Pending returns the migrations that have not been applied yet.
func (m *Migrator) Pending() ([]Migration, error) {
	if err := m.db.AutoMigrate(&SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	applied, err := m.appliedVersions()
	if err != nil {
		return nil, err
	}

	var pending []Migration
	for _, migration := range m.migrations {
		if !slices.Contains(applied, migration.Version) {
			pending = append(pending, migration)
		}
	}
	return pending, nil
}

func (m *Migrator) appliedVersions() ([]int, error) {
	var versions []int
	if err := m.db.Model(&SchemaMigration{}).Order("version").Pluck("version", &versions).Error; err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	return versions, nil
}

func (m *Migrator) apply(migration Migration) error {
	return m.db.Transaction(func(tx *gorm.DB) error {
		for i, stmt := range migration.Statements {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to execute statement %d: %w", i+1, err)
			}
		}

		record := SchemaMigration{
			Version:   migration.Version,
			Name:      migration.Name,
			AppliedAt: time.Now().UTC(),
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration: %w", err)
		}
		return nil
	})
}
