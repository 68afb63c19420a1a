package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/audit"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

// Engine manages entity state-transition requests: creation, pending-list
// retrieval, approval/rejection, application of the new state, and history
// retrieval.
type Engine struct {
	persistence persistence.Persistence
	sink        audit.Sink
	logger      *slog.Logger
}

// NewEngine creates a workflow engine over the given persistence layer.
func NewEngine(p persistence.Persistence, sink audit.Sink, logger *slog.Logger) *Engine {
	if sink == nil {
		sink = audit.NopSink{}
	}

	return &Engine{
		persistence: p,
		sink:        sink,
		logger:      logger,
	}
}

// TransitionParams describes a requested entity state transition.
type TransitionParams struct {
	TenantID      int64
	EntityType    string
	EntityID      string
	ProjectID     string
	ToState       string
	RequesterID   string
	RequesterRole string
	Meta          map[string]any
}

// RequestTransition reads the entity's current state, resolves the approver
// role for the transition edge, and creates a PENDING workflow request. The
// entity itself is not mutated until approval.
func (e *Engine) RequestTransition(ctx context.Context, params TransitionParams) (*models.WorkflowRequest, error) {
	err := validateTransitionParams(params)
	if err != nil {
		return nil, err
	}

	entity, err := e.persistence.EntityStateRepository().Get(ctx, params.TenantID, params.EntityType, params.EntityID)
	if err != nil {
		return nil, &EngineError{Op: "RequestTransition", Err: err}
	}

	approverRole := e.approverRole(ctx, params.TenantID, params.EntityType, entity.State, params.ToState)

	request := &models.WorkflowRequest{
		ID:              uuid.NewString(),
		TenantID:        params.TenantID,
		EntityType:      params.EntityType,
		EntityID:        params.EntityID,
		ProjectID:       params.ProjectID,
		FromState:       entity.State,
		ToState:         params.ToState,
		RequestedBy:     params.RequesterID,
		RequestedByRole: params.RequesterRole,
		ApproverRole:    approverRole,
		Status:          models.RequestStatusPending,
		Meta:            params.Meta,
		RequestedAt:     time.Now().UTC(),
	}

	err = e.persistence.WorkflowRequestRepository().Create(ctx, request)
	if err != nil {
		return nil, &EngineError{Op: "RequestTransition", Err: err}
	}

	err = e.persistence.WorkflowLogRepository().Append(ctx, &models.WorkflowLog{
		ID:          uuid.NewString(),
		RequestID:   request.ID,
		TenantID:    params.TenantID,
		EntityType:  params.EntityType,
		EntityID:    params.EntityID,
		Action:      models.LogActionRequest,
		FromState:   entity.State,
		ToState:     params.ToState,
		PerformedBy: params.RequesterID,
		Details:     params.Meta,
		Timestamp:   request.RequestedAt,
	})
	if err != nil {
		return nil, &EngineError{Op: "RequestTransition", RequestID: request.ID, Err: err}
	}

	e.sink.Record(ctx, audit.TransitionRequested{
		BaseEvent:    auditBase(audit.TransitionRequestedEvent, params.TenantID),
		RequestID:    request.ID,
		EntityType:   request.EntityType,
		EntityID:     request.EntityID,
		FromState:    request.FromState,
		ToState:      request.ToState,
		RequestedBy:  request.RequestedBy,
		ApproverRole: request.ApproverRole,
	})

	e.notifyRoles(ctx, params.TenantID, []string{approverRole, "Admin"},
		fmt.Sprintf("%s Transition Requested", request.EntityType),
		fmt.Sprintf("%s %s has been submitted for transition to %s.",
			request.EntityType, request.EntityID, request.ToState),
		request)

	return request, nil
}

// approverRole resolves who may approve the transition. A configured
// workflow definition wins; without one the routing falls back to the
// shipped defaults.
func (e *Engine) approverRole(ctx context.Context, tenantID int64, entityType, fromState, toState string) string {
	def, err := e.persistence.WorkflowDefinitionRepository().Find(ctx, tenantID, entityType, fromState, toState)
	if err != nil {
		e.logger.WarnContext(ctx, "Approver role lookup failed, using fallback",
			"entity_type", entityType, "error", err)
	} else if def != nil && def.ApproverRole != "" {
		return def.ApproverRole
	}

	entity := strings.ToUpper(entityType)
	from := strings.ToUpper(fromState)
	to := strings.ToUpper(toState)

	if entity == "TASK" && from == "IN_PROGRESS" && (to == "REVIEW" || to == "COMPLETED") {
		return "Manager"
	}

	if entity == "PROJECT" && from == "ACTIVE" && to == "CLOSED" {
		return "Admin"
	}

	return "Manager"
}

// ApprovalParams describes one resolution attempt.
type ApprovalParams struct {
	TenantID     int64
	RequestID    string
	Approved     bool
	ApproverID   string
	ApproverRole string
	Reason       string
}

// ApproveOrReject resolves a PENDING request exactly once. The status flip
// is a conditional update; a concurrent resolution of the same request
// surfaces as ErrAlreadyResolved rather than silently succeeding. On
// approval the entity's state moves to the request's target state within
// the same transactional boundary; a rejection records the outcome without
// touching the entity, so rejecting a stale request cannot undo a state an
// earlier approval already applied.
func (e *Engine) ApproveOrReject(ctx context.Context, params ApprovalParams) (*models.WorkflowRequest, error) {
	if params.ApproverID == "" {
		return nil, ErrApproverRequired
	}

	requests := e.persistence.WorkflowRequestRepository()

	request, err := requests.GetByID(ctx, params.TenantID, params.RequestID)
	if err != nil {
		return nil, &EngineError{Op: "ApproveOrReject", RequestID: params.RequestID, Err: err}
	}

	if request.Resolved() {
		return nil, &EngineError{Op: "ApproveOrReject", RequestID: params.RequestID, Err: ErrAlreadyResolved}
	}

	err = checkApproverRole(request, params.ApproverRole)
	if err != nil {
		return nil, &EngineError{Op: "ApproveOrReject", RequestID: params.RequestID, Err: err}
	}

	status := models.RequestStatusRejected
	logAction := models.LogActionReject
	displayState := request.FromState
	entityState := ""

	if params.Approved {
		status = models.RequestStatusApproved
		logAction = models.LogActionApprove
		entityState = request.ToState
		displayState = request.ToState
	}

	reason := params.Reason
	if reason == "" {
		reason = string(status)
	}

	respondedAt := time.Now().UTC()

	// Approving a project closure also locks the entity.
	lock := params.Approved &&
		strings.EqualFold(request.EntityType, "PROJECT") &&
		strings.EqualFold(request.ToState, "CLOSED")

	resolved, err := requests.Resolve(ctx, persistence.ResolveRequestParams{
		TenantID:    params.TenantID,
		RequestID:   params.RequestID,
		Status:      status,
		RespondedBy: params.ApproverID,
		Reason:      reason,
		RespondedAt: respondedAt,
		EntityState: entityState,
		Lock:        lock,
		Log: &models.WorkflowLog{
			ID:          uuid.NewString(),
			RequestID:   request.ID,
			TenantID:    request.TenantID,
			EntityType:  request.EntityType,
			EntityID:    request.EntityID,
			Action:      logAction,
			FromState:   request.FromState,
			ToState:     request.ToState,
			PerformedBy: params.ApproverID,
			Details:     map[string]any{"reason": reason},
			Timestamp:   respondedAt,
		},
	})
	if err != nil {
		return nil, &EngineError{Op: "ApproveOrReject", RequestID: params.RequestID, Err: err}
	}

	e.sink.Record(ctx, audit.TransitionResolved{
		BaseEvent:   auditBase(audit.TransitionResolvedEvent, request.TenantID),
		RequestID:   request.ID,
		EntityType:  request.EntityType,
		EntityID:    request.EntityID,
		Status:      status,
		RespondedBy: params.ApproverID,
		Reason:      params.Reason,
	})

	verb := "rejected"
	verbTitle := "Rejected"

	if params.Approved {
		verb = "approved"
		verbTitle = "Approved"
	}

	e.notifyUsers(ctx, request.TenantID, []string{request.RequestedBy},
		fmt.Sprintf("%s Request %s", request.EntityType, verbTitle),
		fmt.Sprintf("Your %s request %s has been %s. Status: %s",
			strings.ToLower(request.EntityType), request.ID, verb, models.DisplayState(displayState)),
		resolved)

	return resolved, nil
}

// checkApproverRole enforces the denormalized approver_role column; Admin
// overrides everything, and requests without a routed role fall back to
// Manager-or-Admin.
func checkApproverRole(request *models.WorkflowRequest, actingRole string) error {
	acting := strings.ToUpper(actingRole)
	if acting == "ADMIN" {
		return nil
	}

	expected := strings.ToUpper(request.ApproverRole)
	if expected != "" {
		if acting != expected {
			return fmt.Errorf("%w: expected role %s", ErrRoleNotAllowed, request.ApproverRole)
		}

		return nil
	}

	if acting != "MANAGER" {
		return ErrRoleNotAllowed
	}

	return nil
}

// ListPending returns requests visible to the given role. status "all" (or
// empty) includes resolved requests so approvers see history alongside
// pending items.
func (e *Engine) ListPending(ctx context.Context, tenantID int64, role, status string) ([]*models.WorkflowRequest, error) {
	requests, err := e.persistence.WorkflowRequestRepository().List(ctx, persistence.ListRequestsOptions{
		TenantID:     tenantID,
		ApproverRole: role,
		Status:       status,
	})
	if err != nil {
		return nil, &EngineError{Op: "ListPending", Err: err}
	}

	for _, request := range requests {
		verb := "pending approval"

		switch request.Status {
		case models.RequestStatusApproved:
			verb = "approved"
			request.NewStatus = models.DisplayState(request.ToState)
		case models.RequestStatusRejected:
			verb = "rejected"
			request.NewStatus = models.DisplayState(request.FromState)
		}

		request.Message = fmt.Sprintf("%s request %s is %s.", request.EntityType, request.ID, verb)
	}

	return requests, nil
}

// GetHistory returns the full workflow trail for an entity in chronological
// order.
func (e *Engine) GetHistory(ctx context.Context, tenantID int64, entityType, entityID string) ([]*models.WorkflowLog, error) {
	history, err := e.persistence.WorkflowLogRepository().History(ctx, tenantID, entityType, entityID)
	if err != nil {
		return nil, &EngineError{Op: "GetHistory", Err: err}
	}

	return history, nil
}

func validateTransitionParams(params TransitionParams) error {
	switch {
	case params.EntityType == "":
		return ErrEntityTypeRequired
	case params.EntityID == "":
		return ErrEntityIDRequired
	case params.ToState == "":
		return ErrToStateRequired
	case params.RequesterID == "":
		return ErrRequesterRequired
	default:
		return nil
	}
}

func auditBase(eventType audit.EventType, tenantID int64) audit.BaseEvent {
	return audit.BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		TenantID:  tenantID,
	}
}

func (e *Engine) notifyRoles(ctx context.Context, tenantID int64, roles []string, title, message string, request *models.WorkflowRequest) {
	e.sink.Record(ctx, audit.Notification{
		BaseEvent:  auditBase(audit.NotificationEvent, tenantID),
		Roles:      roles,
		Title:      title,
		Message:    message,
		Kind:       request.EntityType + "_APPROVAL",
		EntityType: request.EntityType,
		EntityID:   request.EntityID,
	})
}

func (e *Engine) notifyUsers(ctx context.Context, tenantID int64, recipients []string, title, message string, request *models.WorkflowRequest) {
	e.sink.Record(ctx, audit.Notification{
		BaseEvent:  auditBase(audit.NotificationEvent, tenantID),
		Recipients: recipients,
		Title:      title,
		Message:    message,
		Kind:       request.EntityType + "_APPROVAL",
		EntityType: request.EntityType,
		EntityID:   request.EntityID,
	})
}
