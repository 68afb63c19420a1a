// Package postgresql provides the PostgreSQL persistence implementation for
// rules and workflow state.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq" // postgres driver

	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence/sqlbase"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger

	ruleRepo       *RuleRepository
	requestRepo    *WorkflowRequestRepository
	logRepo        *WorkflowLogRepository
	definitionRepo *WorkflowDefinitionRepository
	entityRepo     *EntityStateRepository
}

// NewPersistence connects, migrates, and returns a PostgreSQL persistence
// layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:             database,
		logger:         logger,
		ruleRepo:       &RuleRepository{db: database, logger: logger},
		requestRepo:    &WorkflowRequestRepository{db: database, logger: logger},
		logRepo:        &WorkflowLogRepository{db: database, logger: logger},
		definitionRepo: &WorkflowDefinitionRepository{db: database},
		entityRepo:     &EntityStateRepository{db: database},
	}, nil
}

func (p *Persistence) RuleRepository() persistence.RuleRepository {
	return p.ruleRepo
}

func (p *Persistence) WorkflowRequestRepository() persistence.WorkflowRequestRepository {
	return p.requestRepo
}

func (p *Persistence) WorkflowLogRepository() persistence.WorkflowLogRepository {
	return p.logRepo
}

func (p *Persistence) WorkflowDefinitionRepository() persistence.WorkflowDefinitionRepository {
	return p.definitionRepo
}

func (p *Persistence) EntityStateRepository() persistence.EntityStateRepository {
	return p.entityRepo
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
