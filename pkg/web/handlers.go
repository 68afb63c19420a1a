// Package web provides the HTTP handlers for rule evaluation and the
// approval workflow.
package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/ratecounter"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/rules"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/workflow"
)

// Identity headers injected by the gateway after token verification.
const (
	HeaderUserID         = "X-User-Id"
	HeaderUserRole       = "X-User-Role"
	HeaderUserDepartment = "X-User-Department"
	HeaderTenantID       = "X-Tenant-Id"
)

type APIHandlers struct {
	ruleEngine     *rules.Engine
	ruleStore      *rules.Store
	workflowEngine *workflow.Engine
	persistence    persistence.Persistence
	counter        ratecounter.Counter
	validator      *validator.Validate
}

func NewAPIHandlers(
	ruleEngine *rules.Engine,
	ruleStore *rules.Store,
	workflowEngine *workflow.Engine,
	p persistence.Persistence,
	counter ratecounter.Counter,
	validator *validator.Validate,
) *APIHandlers {
	if counter == nil {
		counter = ratecounter.NopCounter{}
	}

	return &APIHandlers{
		ruleEngine:     ruleEngine,
		ruleStore:      ruleStore,
		workflowEngine: workflowEngine,
		persistence:    p,
		counter:        counter,
		validator:      validator,
	}
}

// identity reads the caller injected by the gateway. Requests without a user
// id or tenant are rejected before reaching any engine.
func (h *APIHandlers) identity(c fiber.Ctx) (rules.Identity, error) {
	tenantID, err := strconv.ParseInt(c.Get(HeaderTenantID), 10, 64)
	if err != nil {
		return rules.Identity{}, err
	}

	identity := rules.Identity{
		ID:         c.Get(HeaderUserID),
		Role:       c.Get(HeaderUserRole),
		Department: c.Get(HeaderUserDepartment),
		TenantID:   tenantID,
	}

	return identity, nil
}

func (h *APIHandlers) Evaluate(c fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return badRequest(c, "Missing or invalid identity headers")
	}

	var req EvaluateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	var resource *rules.Resource
	if req.Resource != nil {
		resource = &rules.Resource{
			ID:      req.Resource.ID,
			OwnerID: req.Resource.OwnerID,
			Status:  req.Resource.Status,
		}
	}

	userID, _ := strconv.ParseInt(identity.ID, 10, 64)

	recent, err := h.counter.Hit(c.Context(), identity.TenantID, userID)
	if err != nil {
		// A broken counter must not fail evaluation; throttle rules see zero.
		recent = 0
	}

	decision, err := h.ruleEngine.Evaluate(c.Context(), rules.EvalRequest{
		Request: rules.RequestDescriptor{
			Method:       req.Method,
			RoutePattern: req.RoutePattern,
			BaseURL:      req.BaseURL,
			Path:         req.Path,
			IP:           req.IP,
			Body:         req.Body,
			Query:        req.Query,
			Headers:      req.Headers,
		},
		Identity:       identity,
		Resource:       resource,
		RuleCode:       req.RuleCode,
		RecentRequests: recent,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(EvaluateResponse{Decision: decision})
}

func (h *APIHandlers) CreateTransition(c fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return badRequest(c, "Missing or invalid identity headers")
	}

	var req CreateTransitionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	request, err := h.workflowEngine.RequestTransition(c.Context(), workflow.TransitionParams{
		TenantID:      identity.TenantID,
		EntityType:    req.EntityType,
		EntityID:      req.EntityID,
		ProjectID:     req.ProjectID,
		ToState:       req.ToState,
		RequesterID:   identity.ID,
		RequesterRole: identity.Role,
		Meta:          req.Meta,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(request)
}

func (h *APIHandlers) ResolveRequest(c fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return badRequest(c, "Missing or invalid identity headers")
	}

	requestID := c.Params("id")
	if requestID == "" {
		return badRequest(c, "Request ID is required")
	}

	var req ResolveRequestBody
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	resolved, err := h.workflowEngine.ApproveOrReject(c.Context(), workflow.ApprovalParams{
		TenantID:     identity.TenantID,
		RequestID:    requestID,
		Approved:     req.Approved,
		ApproverID:   identity.ID,
		ApproverRole: identity.Role,
		Reason:       req.Reason,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(resolved)
}

func (h *APIHandlers) ListRequests(c fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return badRequest(c, "Missing or invalid identity headers")
	}

	requests, err := h.workflowEngine.ListPending(c.Context(), identity.TenantID, identity.Role, c.Query("status"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"requests": requests,
		"count":    len(requests),
	})
}

func (h *APIHandlers) GetHistory(c fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return badRequest(c, "Missing or invalid identity headers")
	}

	entityType := c.Params("entityType")
	entityID := c.Params("entityId")

	if entityType == "" || entityID == "" {
		return badRequest(c, "Entity type and ID are required")
	}

	history, err := h.workflowEngine.GetHistory(c.Context(), identity.TenantID, entityType, entityID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"history": history,
		"count":   len(history),
	})
}

// SaveRule creates or replaces a business rule and invalidates the snapshot
// so the next evaluation sees it. Admin only.
func (h *APIHandlers) SaveRule(c fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return badRequest(c, "Missing or invalid identity headers")
	}

	if !isAdmin(identity.Role) {
		return forbidden(c, "Only admins may manage rules")
	}

	var req SaveRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	conditions, err := json.Marshal(req.Conditions)
	if err != nil {
		return badRequest(c, "Invalid conditions document")
	}

	// Parse up front so a malformed condition document is rejected here
	// instead of being skipped at the next snapshot load.
	if _, err := models.ParseCondition(conditions); err != nil {
		return badRequest(c, "Invalid conditions document: "+err.Error())
	}

	record := &models.RuleRecord{
		Code:        req.Code,
		Description: req.Description,
		Conditions:  conditions,
		Action:      models.RuleAction(req.Action),
		Priority:    req.Priority,
		Active:      req.Active,
		Version:     req.Version,
	}

	err = h.persistence.RuleRepository().SaveRule(c.Context(), record)
	if err != nil {
		return handleServiceError(c, err)
	}

	h.ruleStore.Invalidate()

	return c.Status(fiber.StatusCreated).JSON(record)
}

// ReloadRules forces a snapshot reload. Admin only.
func (h *APIHandlers) ReloadRules(c fiber.Ctx) error {
	identity, err := h.identity(c)
	if err != nil {
		return badRequest(c, "Missing or invalid identity headers")
	}

	if !isAdmin(identity.Role) {
		return forbidden(c, "Only admins may manage rules")
	}

	err = h.ruleStore.Load(c.Context())
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":    "reloaded",
		"loaded_at": h.ruleStore.LoadedAt(),
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryErr := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	message := "taskbe API is healthy"
	httpStatus := http.StatusOK

	if repositoryErr != nil {
		status = "unhealthy"
		message = "taskbe API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryErr == nil,
		},
		"timestamp": time.Now().UTC(),
	})
}

func isAdmin(role string) bool {
	return role == "Admin" || role == "ADMIN" || role == "admin"
}
