package models

import (
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a workflow request. A request is
// created PENDING and resolves exactly once to APPROVED or REJECTED.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

// WorkflowRequest is a single-use proposal to move an entity from one state
// to another, pending approval by the configured approver role.
type WorkflowRequest struct {
	ID              string         `json:"id"`
	TenantID        int64          `json:"tenant_id"`
	EntityType      string         `json:"entity_type"`
	EntityID        string         `json:"entity_id"`
	ProjectID       string         `json:"project_id,omitempty"`
	FromState       string         `json:"from_state"`
	ToState         string         `json:"to_state"`
	RequestedBy     string         `json:"requested_by"`
	RequestedByRole string         `json:"requested_by_role"`
	ApproverRole    string         `json:"approver_role"`
	Status          RequestStatus  `json:"status"`
	Reason          string         `json:"reason,omitempty"`
	Meta            map[string]any `json:"meta,omitempty"`
	RequestedAt     time.Time      `json:"requested_at"`
	RespondedAt     *time.Time     `json:"responded_at,omitempty"`
	RespondedBy     string         `json:"responded_by,omitempty"`

	// Presentation fields filled in by ListPending, not persisted.
	Message   string `json:"message,omitempty"`
	NewStatus string `json:"new_status,omitempty"`
}

// Resolved reports whether the request has reached a terminal status.
func (r *WorkflowRequest) Resolved() bool {
	return r.Status != RequestStatusPending
}

// WorkflowLog is one append-only audit trail entry. Log entries are never
// mutated or deleted.
type WorkflowLog struct {
	ID          string         `json:"id"`
	RequestID   string         `json:"request_id"`
	TenantID    int64          `json:"tenant_id"`
	EntityType  string         `json:"entity_type"`
	EntityID    string         `json:"entity_id"`
	Action      string         `json:"action"` // REQUEST, APPROVE, REJECT
	FromState   string         `json:"from_state"`
	ToState     string         `json:"to_state"`
	PerformedBy string         `json:"performed_by"`
	Details     map[string]any `json:"details,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Log actions recorded in the workflow trail.
const (
	LogActionRequest = "REQUEST"
	LogActionApprove = "APPROVE"
	LogActionReject  = "REJECT"
)

// WorkflowDefinition routes a transition to the role allowed to approve it.
// Definitions are per tenant and keyed by the transition edge.
type WorkflowDefinition struct {
	ID               int64  `json:"id"`
	TenantID         int64  `json:"tenant_id"`
	EntityType       string `json:"entity_type"`
	FromState        string `json:"from_state"`
	ToState          string `json:"to_state"`
	AllowedRole      string `json:"allowed_role"`
	ApprovalRequired bool   `json:"approval_required"`
	ApproverRole     string `json:"approver_role"`
}

// EntityState is the generic persisted state of a protected entity. The
// workflow engine only touches this shape; business schemas stay with their
// owning services.
type EntityState struct {
	TenantID   int64     `json:"tenant_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	State      string    `json:"state"`
	Locked     bool      `json:"locked"`
	UpdatedAt  time.Time `json:"updated_at"`
}

var displayStates = map[string]string{
	"IN PROGRESS": "In Progress",
	"INPROGRESS":  "In Progress",
	"REVIEW":      "Review",
	"COMPLETED":   "Completed",
	"PENDING":     "Pending",
	"ON HOLD":     "On Hold",
	"CLOSED":      "Closed",
	"ACTIVE":      "Active",
}

// DisplayState maps a canonical UPPER_SNAKE state to its display form.
// Unknown states pass through unchanged.
func DisplayState(state string) string {
	if state == "" {
		return state
	}

	key := strings.TrimSpace(strings.ReplaceAll(strings.ToUpper(state), "_", " "))
	key = strings.Join(strings.Fields(key), " ")

	if display, ok := displayStates[key]; ok {
		return display
	}

	return state
}
