// Package persistence provides the storage abstraction for rules, workflow
// requests, workflow logs, and entity state.
package persistence

import (
	"context"
	"time"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

type Persistence interface {
	RuleRepository() RuleRepository
	WorkflowRequestRepository() WorkflowRequestRepository
	WorkflowLogRepository() WorkflowLogRepository
	WorkflowDefinitionRepository() WorkflowDefinitionRepository
	EntityStateRepository() EntityStateRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// RuleRepository serves rule records to the rule store. Rule authoring stays
// with external tooling; SaveRule exists for seeding and tests.
type RuleRepository interface {
	// ActiveRules returns all active rules ordered by priority ascending.
	ActiveRules(ctx context.Context) ([]*models.RuleRecord, error)
	SaveRule(ctx context.Context, rule *models.RuleRecord) error
}

// ListRequestsOptions filters the workflow request listing.
type ListRequestsOptions struct {
	TenantID     int64
	ApproverRole string
	// Status filters by request status. "all" (or empty) includes terminal
	// requests alongside pending ones.
	Status string
}

// ResolveRequestParams carries everything needed to resolve a request and
// apply its entity transition in one atomic step.
type ResolveRequestParams struct {
	TenantID    int64
	RequestID   string
	Status      models.RequestStatus // APPROVED or REJECTED
	RespondedBy string
	Reason      string
	RespondedAt time.Time

	// EntityState is the target state written when the request is approved.
	// A rejection records the outcome only and never touches the entity.
	EntityState string
	// Lock locks the entity alongside an approved transition (project
	// closure). Ignored on rejection.
	Lock bool
	// Log is the trail entry appended in the same transaction.
	Log *models.WorkflowLog
}

type WorkflowRequestRepository interface {
	Create(ctx context.Context, request *models.WorkflowRequest) error
	GetByID(ctx context.Context, tenantID int64, id string) (*models.WorkflowRequest, error)
	List(ctx context.Context, opts ListRequestsOptions) ([]*models.WorkflowRequest, error)

	// Resolve flips a PENDING request to its terminal status, applies the
	// entity state change on approval, and appends the log entry atomically.
	// The status flip is conditional on the request still being PENDING; a
	// lost race returns ErrRequestAlreadyResolved and leaves everything
	// untouched. Rejections never write entity state, so rejecting a stale
	// request cannot clobber a state applied by an earlier approval.
	Resolve(ctx context.Context, params ResolveRequestParams) (*models.WorkflowRequest, error)
}

type WorkflowLogRepository interface {
	Append(ctx context.Context, entry *models.WorkflowLog) error
	// History returns all log entries for an entity in chronological order.
	History(ctx context.Context, tenantID int64, entityType, entityID string) ([]*models.WorkflowLog, error)
}

type WorkflowDefinitionRepository interface {
	// Find returns the definition for a transition edge, or nil when no
	// definition is configured.
	Find(ctx context.Context, tenantID int64, entityType, fromState, toState string) (*models.WorkflowDefinition, error)
	Save(ctx context.Context, def *models.WorkflowDefinition) error
}

type EntityStateRepository interface {
	Get(ctx context.Context, tenantID int64, entityType, entityID string) (*models.EntityState, error)
	Save(ctx context.Context, state *models.EntityState) error
}
