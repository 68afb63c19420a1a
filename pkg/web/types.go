// Package web provides HTTP request and response types for the rule and
// workflow API.
package web

import (
	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

// ResourceDescriptor is the optional evaluation target carried in the body.
type ResourceDescriptor struct {
	ID      string `json:"id"`
	OwnerID string `json:"owner_id"`
	Status  string `json:"status"`
}

// EvaluateRequest represents the request body for a rule evaluation. The
// caller describes the action it is about to perform; identity comes from
// the gateway headers, never from the body.
type EvaluateRequest struct {
	Method       string              `json:"method"        validate:"required"`
	RoutePattern string              `json:"route"         validate:"required"`
	BaseURL      string              `json:"base_url"`
	Path         string              `json:"path"`
	IP           string              `json:"ip"`
	Body         map[string]any      `json:"body"`
	Query        map[string]string   `json:"query"`
	Headers      map[string]string   `json:"headers"`
	Resource     *ResourceDescriptor `json:"resource,omitempty"`
	RuleCode     string              `json:"rule_code,omitempty"`
}

// EvaluateResponse wraps the decision together with the facts snapshot hint
// callers need for debugging denied requests.
type EvaluateResponse struct {
	Decision models.Decision `json:"decision"`
}

// CreateTransitionRequest represents the request body for proposing an
// entity state transition.
type CreateTransitionRequest struct {
	EntityType string         `json:"entity_type" validate:"required"`
	EntityID   string         `json:"entity_id"   validate:"required"`
	ProjectID  string         `json:"project_id"`
	ToState    string         `json:"to_state"    validate:"required"`
	Meta       map[string]any `json:"meta,omitempty"`
}

// ResolveRequestBody represents the request body for approving or rejecting
// a pending workflow request.
type ResolveRequestBody struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}

// SaveRuleRequest represents the request body for creating or replacing a
// business rule.
type SaveRuleRequest struct {
	Code        string         `json:"code"        validate:"required,min=3"`
	Description string         `json:"description"`
	Priority    int            `json:"priority"`
	Action      string         `json:"action"      validate:"required,oneof=ALLOW DENY REQUIRE_APPROVAL MODIFY"`
	Conditions  map[string]any `json:"conditions"  validate:"required"`
	Active      bool           `json:"active"`
	Version     string         `json:"version"`
}

