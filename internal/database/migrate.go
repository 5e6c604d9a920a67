package database

import (
	"embed"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"gatepost/internal/middleware"
	"gorm.io/gorm"
)

// Migration is a versioned SQL schema change.
type Migration struct {
	Version  int
	Name     string
	UpScript string
}

// MigrationLog records an applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

// TableName returns the database table name for MigrationLog.
func (MigrationLog) TableName() string {
	return "migration_logs"
}

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrations []Migration

func init() {
	if err := registerMigrations(migrationFS); err != nil {
		panic(fmt.Sprintf("failed to register embedded migrations: %v", err))
	}
}

func registerMigrations(efs embed.FS) error {
	entries, err := efs.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("failed to read migrations directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}

		base := strings.TrimSuffix(name, ".up.sql")
		parts := strings.SplitN(base, "_", 2)
		if len(parts) != 2 {
			return fmt.Errorf("migration %q does not follow NNNN_name.up.sql naming", name)
		}

		var version int
		if _, err := fmt.Sscanf(parts[0], "%d", &version); err != nil {
			return fmt.Errorf("migration %q has a non-numeric version: %w", name, err)
		}

		up, err := efs.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		migrations = append(migrations, Migration{
			Version:  version,
			Name:     parts[1],
			UpScript: string(up),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return nil
}

// AppliedMigrations returns the migration log in version order.
func AppliedMigrations(db *gorm.DB) ([]MigrationLog, error) {
	if err := db.AutoMigrate(&MigrationLog{}); err != nil {
		return nil, fmt.Errorf("failed to ensure migration log table: %w", err)
	}
	var logs []MigrationLog
	if err := db.Order("version ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to read migration log: %w", err)
	}
	return logs, nil
}

// Migrate applies all pending SQL migrations in version order. Each migration
// runs in its own transaction together with its migration-log insert.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("failed to ensure migration log table: %w", err)
	}

	var applied []int
	if err := db.Model(&MigrationLog{}).Order("version ASC").Pluck("version", &applied).Error; err != nil {
		return fmt.Errorf("failed to read applied migrations: %w", err)
	}
	appliedSet := make(map[int]struct{}, len(applied))
	for _, v := range applied {
		appliedSet[v] = struct{}{}
	}

	for _, m := range migrations {
		if _, ok := appliedSet[m.Version]; ok {
			continue
		}
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return err
			}
			return tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %04d_%s failed: %w", m.Version, m.Name, err)
		}
		middleware.Logger.Info("Applied migration",
			slog.Int("version", m.Version),
			slog.String("name", m.Name),
		)
	}

	return nil
}
