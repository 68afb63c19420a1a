package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

// WorkflowLogRepository handles workflow-log database operations. The table
// is append-only; there is no update or delete path.
type WorkflowLogRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func (r *WorkflowLogRepository) Append(ctx context.Context, entry *models.WorkflowLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to encode log details: %w", err)
	}

	query := `
		INSERT INTO workflow_logs
			(id, request_id, tenant_id, entity_type, entity_id, action, from_state, to_state, performed_by, details, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.RequestID,
		entry.TenantID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.FromState,
		entry.ToState,
		entry.PerformedBy,
		details,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append workflow log: %w", err)
	}

	return nil
}

func (r *WorkflowLogRepository) History(ctx context.Context, tenantID int64, entityType, entityID string) ([]*models.WorkflowLog, error) {
	query := `
		SELECT
			id
		  , request_id
		  , tenant_id
		  , entity_type
		  , entity_id
		  , action
		  , from_state
		  , to_state
		  , performed_by
		  , details
		  , timestamp
		FROM workflow_logs
		WHERE tenant_id = $1 AND UPPER(entity_type) = UPPER($2) AND entity_id = $3
		ORDER BY timestamp ASC
	`

	rows, err := r.db.QueryContext(ctx, query, tenantID, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow logs: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowLogRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	entries := make([]*models.WorkflowLog, 0)

	for rows.Next() {
		var (
			entry   models.WorkflowLog
			details []byte
		)

		err := rows.Scan(
			&entry.ID,
			&entry.RequestID,
			&entry.TenantID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.FromState,
			&entry.ToState,
			&entry.PerformedBy,
			&details,
			&entry.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow log: %w", err)
		}

		if len(details) > 0 {
			err = json.Unmarshal(details, &entry.Details)
			if err != nil {
				return nil, fmt.Errorf("failed to decode log details: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflow logs: %w", err)
	}

	return entries, nil
}
