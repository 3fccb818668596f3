package store

import (
	"context"
	"fmt"
	"time"

	"stockcount-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// ReplaceCatalog replaces the whole product catalog in one transaction.
// Called by the external importer; the reconciliation core only ever reads.
func (s *Store) ReplaceCatalog(ctx context.Context, entries []models.CatalogEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM catalog_entries"); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO catalog_entries (barcode, system_code, name) VALUES ($1, $2, $3) ON CONFLICT (barcode) DO NOTHING",
			e.Barcode, e.SystemCode, e.Name)
		if err != nil {
			return fmt.Errorf("failed to insert catalog entry %s: %w", e.Barcode, err)
		}
	}

	return tx.Commit()
}

// GetCatalog retrieves the full catalog snapshot
func (s *Store) GetCatalog(ctx context.Context) ([]models.CatalogEntry, error) {
	var entries []models.CatalogEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT barcode, system_code, name FROM catalog_entries ORDER BY barcode")
	return entries, err
}
