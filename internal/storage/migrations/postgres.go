package migrations

import (
	"context"
	"fmt"
	"strings"

	"sui-amm-indexer/internal/storage/postgres"
)

// RunPostgresMigrations applies the embedded document-table DDL in lexical
// file order. Every statement uses IF NOT EXISTS, so reruns are safe.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	scripts, err := loadScripts(PostgresFS, "postgres")
	if err != nil {
		return err
	}

	for _, sc := range scripts {
		if strings.TrimSpace(sc.sql) == "" {
			continue
		}
		if _, err := pool.Exec(ctx, sc.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", sc.name, err)
		}
	}

	return nil
}
