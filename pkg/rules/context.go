// Package rules implements the data-driven business rule engine: rule
// snapshot store, evaluation context assembly, condition evaluation, and
// decision resolution.
package rules

import (
	"strings"
	"time"
)

// RequestDescriptor is the HTTP-shaped view of the action under evaluation.
// The assembler never touches the live request; callers extract what they
// need and hand it over.
type RequestDescriptor struct {
	Method       string
	RoutePattern string // route as registered, e.g. "/tasks/createJson"
	BaseURL      string // mount prefix, e.g. "/api/projects"
	Path         string // literal request path
	IP           string
	Body         map[string]any
	Query        map[string]string
	Headers      map[string]string
}

// Identity is the authenticated caller. Token verification happens upstream.
type Identity struct {
	ID         string
	Role       string
	Department string
	TenantID   int64
}

// Resource describes the optional target of the action.
type Resource struct {
	ID      string
	OwnerID string
	Status  string
}

// Thresholds are tunable numeric limits referenced by rules through
// {{...}} template values.
type Thresholds struct {
	LeaveMaxDays   int
	OTPMaxRequests int
}

// BuildContext deterministically assembles the fact map for one evaluation.
// It is a pure function of its inputs: no store lookups, no side effects.
// recentRequests is supplied by the caller (see ratecounter) so the
// assembler itself stays free of I/O.
func BuildContext(req RequestDescriptor, identity Identity, resource *Resource, thresholds Thresholds, recentRequests int64) map[string]any {
	if resource == nil {
		resource = &Resource{}
	}

	payload := req.Body
	if payload == nil {
		payload = map[string]any{}
	}

	resourceOwner := resource.OwnerID
	if resourceOwner == "" {
		resourceOwner = resource.ID
	}

	resourceID := resource.ID
	if resourceID == "" {
		resourceID = req.Query["id"]
	}

	ip := req.IP
	if ip == "" {
		ip = "unknown"
	}

	facts := map[string]any{
		"userId":           identity.ID,
		"userRole":         identity.Role,
		"userDepartment":   identity.Department,
		"tenantId":         identity.TenantID,
		"resourceOwnerId":  resourceOwner,
		"resourceId":       resourceID,
		"action":           actionTokens(req),
		"payload":          payload,
		"recordStatus":     resource.Status,
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"ip":               ip,
		"LEAVE_MAX_DAYS":   thresholds.LeaveMaxDays,
		"OTP_MAX_REQUESTS": thresholds.OTPMaxRequests,
		"recentRequests":   recentRequests,
	}

	// Lift leaveDays to the top level so rules can reference it without the
	// payload prefix, as the shipped leave rules do.
	if leaveDays, ok := payload["leaveDays"]; ok {
		facts["leaveDays"] = leaveDays
	}

	return facts
}

// actionTokens derives normalized action tokens from the request shape so
// rules can match the shape of an action regardless of literal path
// parameters. Rules match any one of the variants.
func actionTokens(req RequestDescriptor) []string {
	method := strings.ToUpper(req.Method)

	route := normalizeActionPart(req.RoutePattern)
	base := normalizeActionPart(req.BaseURL)
	path := normalizeActionPart(req.Path)

	variants := []string{method + "_" + route}
	if base != "" && route != "" {
		variants = append(variants, method+"_"+base+"_"+route)
	}

	if path != "" {
		variants = append(variants, method+"_"+path)
	}

	seen := make(map[string]struct{}, len(variants))
	unique := variants[:0]

	for _, v := range variants {
		if _, dup := seen[v]; dup {
			continue
		}

		seen[v] = struct{}{}
		unique = append(unique, v)
	}

	return unique
}

func normalizeActionPart(part string) string {
	part = strings.TrimPrefix(part, "/")

	return strings.ToUpper(strings.ReplaceAll(part, "/", "_"))
}
