package postgresql

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

// EntityStateRepository handles entity-state database operations.
type EntityStateRepository struct {
	db *sql.DB
}

func (r *EntityStateRepository) Get(ctx context.Context, tenantID int64, entityType, entityID string) (*models.EntityState, error) {
	query := `
		SELECT
			tenant_id
		  , entity_type
		  , entity_id
		  , state
		  , locked
		  , updated_at
		FROM entity_states
		WHERE tenant_id = $1 AND UPPER(entity_type) = UPPER($2) AND entity_id = $3
	`

	var state models.EntityState

	err := r.db.QueryRowContext(ctx, query, tenantID, entityType, entityID).Scan(
		&state.TenantID,
		&state.EntityType,
		&state.EntityID,
		&state.State,
		&state.Locked,
		&state.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &persistence.EntityError{Op: "Get", EntityType: entityType, EntityID: entityID, Err: persistence.ErrEntityNotFound}
	}

	if err != nil {
		return nil, &persistence.EntityError{Op: "Get", EntityType: entityType, EntityID: entityID, Err: err}
	}

	return &state, nil
}

func (r *EntityStateRepository) Save(ctx context.Context, state *models.EntityState) error {
	query := `
		INSERT INTO entity_states (tenant_id, entity_type, entity_id, state, locked, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tenant_id, entity_type, entity_id) DO UPDATE SET
			state = EXCLUDED.state,
			locked = EXCLUDED.locked,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		state.TenantID,
		state.EntityType,
		state.EntityID,
		state.State,
		state.Locked,
		state.UpdatedAt,
	)
	if err != nil {
		return &persistence.EntityError{Op: "Save", EntityType: state.EntityType, EntityID: state.EntityID, Err: err}
	}

	return nil
}
