package database

import (
	"fmt"
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite" // registers the pure-Go "sqlite" driver

	"docsearch/internal/domain"
)

// legacyStoreColumn held a per-file document URI before the per-user store
// model; it is dropped on sight during migration.
const legacyStoreColumn = "gemini_file_uri"

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		// Heroku-style postgres:// URLs are normalized to postgresql://.
		dsn = strings.Replace(dsn, "postgres://", "postgresql://", 1)
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// InitSchema brings the schema up to date. It is safe to run repeatedly and
// never touches existing rows. If the incremental path fails it falls back to
// a plain create-all, which only ensures the tables exist.
func InitSchema(db *gorm.DB) error {
	if err := migrate(db); err != nil {
		log.Printf("migration failed, falling back to create-all: %v", err)
		if fallbackErr := db.AutoMigrate(&domain.FileUpload{}, &domain.UserStorage{}); fallbackErr != nil {
			return fmt.Errorf("migration failed (%v) and fallback create-all failed: %w", err, fallbackErr)
		}
	}
	return nil
}

func migrate(db *gorm.DB) error {
	m := db.Migrator()

	if !m.HasTable(&domain.FileUpload{}) || !m.HasTable(&domain.UserStorage{}) {
		log.Println("Fresh database detected, creating all tables...")
		return db.AutoMigrate(&domain.FileUpload{}, &domain.UserStorage{})
	}

	log.Println("Existing database detected, checking for schema updates...")

	if !m.HasColumn(&domain.FileUpload{}, "file_search_store_name") {
		log.Println("Adding file_search_store_name column to file_uploads...")
		if err := m.AddColumn(&domain.FileUpload{}, "FileSearchStoreName"); err != nil {
			return fmt.Errorf("add file_search_store_name: %w", err)
		}
	}

	if m.HasColumn(&domain.FileUpload{}, legacyStoreColumn) {
		log.Println("Dropping legacy gemini_file_uri column from file_uploads...")
		if err := m.DropColumn(&domain.FileUpload{}, legacyStoreColumn); err != nil {
			return fmt.Errorf("drop %s: %w", legacyStoreColumn, err)
		}
	}

	return nil
}
