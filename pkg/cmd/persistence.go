// Package cmd provides the shared wiring helpers used by the binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence/file"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence/postgresql"
)

// NewPersistence builds the persistence layer from the database URL scheme.
// "postgres://" selects PostgreSQL; anything else falls back to the file
// backend, which also seeds the default rule set on first use.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(fmt.Errorf("failed to create PostgreSQL persistence: %w", err))
		}

		return p
	}

	p := file.NewPersistence(databaseURL)

	err := p.SeedDefaults(ctx)
	if err != nil {
		panic(fmt.Errorf("failed to seed file persistence: %w", err))
	}

	return p
}
