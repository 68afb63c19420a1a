package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

// WorkflowDefinitionRepository handles workflow-definition database operations.
type WorkflowDefinitionRepository struct {
	db *sql.DB
}

func (r *WorkflowDefinitionRepository) Find(ctx context.Context, tenantID int64, entityType, fromState, toState string) (*models.WorkflowDefinition, error) {
	query := `
		SELECT
			id
		  , tenant_id
		  , entity_type
		  , from_state
		  , to_state
		  , allowed_role
		  , approval_required
		  , approver_role
		FROM workflow_definitions
		WHERE tenant_id = $1
		  AND UPPER(entity_type) = UPPER($2)
		  AND UPPER(from_state) = UPPER($3)
		  AND UPPER(to_state) = UPPER($4)
	`

	var def models.WorkflowDefinition

	err := r.db.QueryRowContext(ctx, query, tenantID, entityType, fromState, toState).Scan(
		&def.ID,
		&def.TenantID,
		&def.EntityType,
		&def.FromState,
		&def.ToState,
		&def.AllowedRole,
		&def.ApprovalRequired,
		&def.ApproverRole,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query workflow definition: %w", err)
	}

	return &def, nil
}

func (r *WorkflowDefinitionRepository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	query := `
		INSERT INTO workflow_definitions
			(tenant_id, entity_type, from_state, to_state, allowed_role, approval_required, approver_role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, entity_type, from_state, to_state) DO UPDATE SET
			allowed_role = EXCLUDED.allowed_role,
			approval_required = EXCLUDED.approval_required,
			approver_role = EXCLUDED.approver_role
	`

	_, err := r.db.ExecContext(ctx, query,
		def.TenantID,
		def.EntityType,
		def.FromState,
		def.ToState,
		def.AllowedRole,
		def.ApprovalRequired,
		def.ApproverRole,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow definition: %w", err)
	}

	return nil
}
