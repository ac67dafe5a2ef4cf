package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
)

// RunMigrations executes the *.up.sql files in migrationsPath in name order,
// each inside its own transaction so a failing file leaves no partial DDL.
// Migrations are written to be idempotent (CREATE TABLE IF NOT EXISTS) so
// repeated startups are safe.
func (c *Connection) RunMigrations(ctx context.Context, migrationsPath string) error {
	migrationFiles, err := upMigrationFiles(migrationsPath)
	if err != nil {
		return err
	}

	for _, fileName := range migrationFiles {
		sql, err := os.ReadFile(filepath.Join(migrationsPath, fileName))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", fileName, err)
		}

		err = c.WithTx(ctx, func(tx pgx.Tx) error {
			_, execErr := tx.Exec(ctx, string(sql))
			return execErr
		})
		if err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", fileName, err)
		}
	}

	return nil
}

// upMigrationFiles lists the *.up.sql files in migrationsPath sorted by name.
func upMigrationFiles(migrationsPath string) ([]string, error) {
	entries, err := os.ReadDir(migrationsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrationFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			migrationFiles = append(migrationFiles, entry.Name())
		}
	}
	sort.Strings(migrationFiles)
	return migrationFiles, nil
}
