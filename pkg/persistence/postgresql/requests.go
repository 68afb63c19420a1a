package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

// WorkflowRequestRepository handles workflow-request database operations.
type WorkflowRequestRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

const requestColumns = `
	id
  , tenant_id
  , entity_type
  , entity_id
  , COALESCE(project_id, '')
  , from_state
  , to_state
  , requested_by
  , requested_by_role
  , approver_role
  , status
  , COALESCE(reason, '')
  , meta
  , requested_at
  , responded_at
  , COALESCE(responded_by, '')
`

func (r *WorkflowRequestRepository) Create(ctx context.Context, request *models.WorkflowRequest) error {
	meta, err := json.Marshal(request.Meta)
	if err != nil {
		return persistence.NewRequestError("Create", request.ID, err)
	}

	query := `
		INSERT INTO workflow_requests
			(id, tenant_id, entity_type, entity_id, project_id, from_state, to_state,
			 requested_by, requested_by_role, approver_role, status, reason, meta, requested_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, NULLIF($12, ''), $13, $14)
	`

	_, err = r.db.ExecContext(ctx, query,
		request.ID,
		request.TenantID,
		request.EntityType,
		request.EntityID,
		request.ProjectID,
		request.FromState,
		request.ToState,
		request.RequestedBy,
		request.RequestedByRole,
		request.ApproverRole,
		request.Status,
		request.Reason,
		meta,
		request.RequestedAt,
	)
	if err != nil {
		return persistence.NewRequestError("Create", request.ID, err)
	}

	return nil
}

func (r *WorkflowRequestRepository) GetByID(ctx context.Context, tenantID int64, id string) (*models.WorkflowRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM workflow_requests WHERE id = $1 AND tenant_id = $2`

	request, err := scanRequest(r.db.QueryRowContext(ctx, query, id, tenantID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.NewRequestError("GetByID", id, persistence.ErrRequestNotFound)
	}

	if err != nil {
		return nil, persistence.NewRequestError("GetByID", id, err)
	}

	return request, nil
}

func (r *WorkflowRequestRepository) List(ctx context.Context, opts persistence.ListRequestsOptions) ([]*models.WorkflowRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM workflow_requests WHERE tenant_id = $1`
	args := []any{opts.TenantID}

	if opts.ApproverRole != "" {
		args = append(args, opts.ApproverRole)
		query += fmt.Sprintf(" AND UPPER(approver_role) = UPPER($%d)", len(args))
	}

	if opts.Status != "" && opts.Status != "all" {
		args = append(args, opts.Status)
		query += fmt.Sprintf(" AND UPPER(status) = UPPER($%d)", len(args))
	}

	query += " ORDER BY requested_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow requests: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRequestRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	requests := make([]*models.WorkflowRequest, 0)

	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow request: %w", err)
		}

		requests = append(requests, request)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflow requests: %w", err)
	}

	return requests, nil
}

// Resolve flips the request out of PENDING, writes the entity state on
// approval, and appends the log entry in one transaction. The UPDATE is
// conditional on status = 'PENDING', so two concurrent approvals cannot both
// succeed: the loser matches zero rows and gets ErrRequestAlreadyResolved.
func (r *WorkflowRequestRepository) Resolve(ctx context.Context, params persistence.ResolveRequestParams) (*models.WorkflowRequest, error) {
	transaction, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
	}

	request, err := r.resolveInTx(ctx, transaction, params)
	if err != nil {
		_ = transaction.Rollback()

		return nil, err
	}

	err = transaction.Commit()
	if err != nil {
		return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
	}

	return request, nil
}

func (r *WorkflowRequestRepository) resolveInTx(ctx context.Context, transaction *sql.Tx, params persistence.ResolveRequestParams) (*models.WorkflowRequest, error) {
	respondedAt := params.RespondedAt
	if respondedAt.IsZero() {
		respondedAt = time.Now().UTC()
	}

	updateQuery := `
		UPDATE workflow_requests
		SET status = $1, reason = $2, responded_by = $3, responded_at = $4
		WHERE id = $5 AND tenant_id = $6 AND status = 'PENDING'
		RETURNING ` + requestColumns

	request, err := scanRequest(transaction.QueryRowContext(ctx, updateQuery,
		params.Status,
		params.Reason,
		params.RespondedBy,
		respondedAt,
		params.RequestID,
		params.TenantID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		// Either the request does not exist or it already left PENDING.
		var status string

		probe := transaction.QueryRowContext(ctx,
			"SELECT status FROM workflow_requests WHERE id = $1 AND tenant_id = $2",
			params.RequestID, params.TenantID).Scan(&status)
		if errors.Is(probe, sql.ErrNoRows) {
			return nil, persistence.NewRequestError("Resolve", params.RequestID, persistence.ErrRequestNotFound)
		}

		return nil, persistence.NewRequestError("Resolve", params.RequestID, persistence.ErrRequestAlreadyResolved)
	}

	if err != nil {
		return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
	}

	if params.Status == models.RequestStatusApproved {
		entityQuery := `
			INSERT INTO entity_states (tenant_id, entity_type, entity_id, state, locked, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tenant_id, entity_type, entity_id) DO UPDATE SET
				state = EXCLUDED.state,
				locked = EXCLUDED.locked,
				updated_at = EXCLUDED.updated_at
		`

		_, err = transaction.ExecContext(ctx, entityQuery,
			request.TenantID,
			request.EntityType,
			request.EntityID,
			params.EntityState,
			params.Lock,
			respondedAt,
		)
		if err != nil {
			return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
		}
	}

	if params.Log != nil {
		details, err := json.Marshal(params.Log.Details)
		if err != nil {
			return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
		}

		logQuery := `
			INSERT INTO workflow_logs
				(id, request_id, tenant_id, entity_type, entity_id, action, from_state, to_state, performed_by, details, timestamp)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`

		_, err = transaction.ExecContext(ctx, logQuery,
			params.Log.ID,
			params.Log.RequestID,
			params.Log.TenantID,
			params.Log.EntityType,
			params.Log.EntityID,
			params.Log.Action,
			params.Log.FromState,
			params.Log.ToState,
			params.Log.PerformedBy,
			details,
			params.Log.Timestamp,
		)
		if err != nil {
			return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
		}
	}

	return request, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*models.WorkflowRequest, error) {
	var (
		request     models.WorkflowRequest
		meta        []byte
		respondedAt sql.NullTime
	)

	err := row.Scan(
		&request.ID,
		&request.TenantID,
		&request.EntityType,
		&request.EntityID,
		&request.ProjectID,
		&request.FromState,
		&request.ToState,
		&request.RequestedBy,
		&request.RequestedByRole,
		&request.ApproverRole,
		&request.Status,
		&request.Reason,
		&meta,
		&request.RequestedAt,
		&respondedAt,
		&request.RespondedBy,
	)
	if err != nil {
		return nil, err
	}

	if respondedAt.Valid {
		request.RespondedAt = &respondedAt.Time
	}

	if len(meta) > 0 {
		err = json.Unmarshal(meta, &request.Meta)
		if err != nil {
			return nil, fmt.Errorf("failed to decode request meta: %w", err)
		}
	}

	return &request, nil
}
