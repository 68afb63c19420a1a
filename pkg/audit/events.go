// Package audit provides fire-and-forget recording of rule decisions and
// workflow transition outcomes onto a message stream.
package audit

import (
	"time"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

type EventType string

// Topic carries every audit and notification event.
const Topic = "taskbe.audit"

const EventTypeMetadataKey = "event_type"

const (
	RuleEvaluatedEvent       EventType = "rule.evaluated"
	TransitionRequestedEvent EventType = "workflow.transition.requested"
	TransitionResolvedEvent  EventType = "workflow.transition.resolved"
	NotificationEvent        EventType = "workflow.notification"
)

type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	TenantID  int64     `json:"tenant_id,omitempty"`
}

// RuleEvaluated records one rule engine decision.
type RuleEvaluated struct {
	BaseEvent

	UserID      string `json:"user_id"`
	RuleCode    string `json:"rule_code"`
	RuleVersion string `json:"rule_version,omitempty"`
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason"`
}

func (e RuleEvaluated) GetType() EventType {
	return RuleEvaluatedEvent
}

// TransitionRequested records the creation of a workflow request.
type TransitionRequested struct {
	BaseEvent

	RequestID    string `json:"request_id"`
	EntityType   string `json:"entity_type"`
	EntityID     string `json:"entity_id"`
	FromState    string `json:"from_state"`
	ToState      string `json:"to_state"`
	RequestedBy  string `json:"requested_by"`
	ApproverRole string `json:"approver_role"`
}

func (e TransitionRequested) GetType() EventType {
	return TransitionRequestedEvent
}

// TransitionResolved records an approval or rejection.
type TransitionResolved struct {
	BaseEvent

	RequestID   string               `json:"request_id"`
	EntityType  string               `json:"entity_type"`
	EntityID    string               `json:"entity_id"`
	Status      models.RequestStatus `json:"status"`
	RespondedBy string               `json:"responded_by"`
	Reason      string               `json:"reason,omitempty"`
}

func (e TransitionResolved) GetType() EventType {
	return TransitionResolvedEvent
}

// Notification asks the messaging collaborator to inform users about a
// workflow outcome. Content formatting stays with the collaborator.
type Notification struct {
	BaseEvent

	Recipients []string `json:"recipients,omitempty"`
	Roles      []string `json:"roles,omitempty"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	Kind       string   `json:"kind"`
	EntityType string   `json:"entity_type,omitempty"`
	EntityID   string   `json:"entity_id,omitempty"`
}

func (e Notification) GetType() EventType {
	return NotificationEvent
}
