package file

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

type seedRule struct {
	code        string
	description string
	conditions  string
	action      models.RuleAction
	priority    int
}

var seedRules = []seedRule{
	{
		code:        "ACCESS_OWN_RECORDS_ONLY",
		description: "Users can only access their own records unless role is ADMIN",
		conditions:  `{"userRole":{"$ne":"ADMIN"},"resourceOwnerId":{"$ne":"{{userId}}"}}`,
		action:      models.RuleActionDeny,
		priority:    1,
	},
	{
		code:        "ADMIN_FULL_ACCESS",
		description: "Admins have full access",
		conditions:  `{"userRole":"ADMIN"}`,
		action:      models.RuleActionAllow,
		priority:    2,
	},
	{
		code:        "EMPLOYEE_CANNOT_APPROVE_OWN_REQUEST",
		description: "Employees cannot approve their own requests",
		conditions:  `{"userRole":"EMPLOYEE","action":"APPROVE","resourceOwnerId":"{{userId}}"}`,
		action:      models.RuleActionDeny,
		priority:    3,
	},
	{
		code:        "LEAVE_DAYS_REQUIRE_APPROVAL",
		description: "Leave days exceeding limit require manager approval",
		conditions:  `{"action":"LEAVE_APPLY","leaveDays":{"$gt":"{{LEAVE_MAX_DAYS}}"}}`,
		action:      models.RuleActionRequireApproval,
		priority:    4,
	},
	{
		code:        "APPROVED_RECORDS_IMMUTABLE",
		description: "Approved or locked records cannot be modified",
		conditions:  `{"action":{"$in":["UPDATE","DELETE"]},"recordStatus":{"$in":["APPROVED","LOCKED"]}}`,
		action:      models.RuleActionDeny,
		priority:    5,
	},
	{
		code:        "SALARY_NON_NEGATIVE",
		description: "Salary and financial fields must not be negative",
		conditions:  `{"action":{"$in":["CREATE","UPDATE"]},"payload":{"$or":[{"salary":{"$lt":0}},{"budget":{"$lt":0}},{"amount":{"$lt":0}}]}}`,
		action:      models.RuleActionDeny,
		priority:    6,
	},
	{
		code:        "OTP_RATE_LIMIT",
		description: "Rate limit OTP requests",
		conditions:  `{"action":"OTP_REQUEST","recentRequests":{"$gte":"{{OTP_MAX_REQUESTS}}"}}`,
		action:      models.RuleActionDeny,
		priority:    7,
	},
	{
		code:        "task_creation",
		description: "Validate task creation permissions and data",
		conditions:  `{"userRole":"MANAGER","action":"POST__TASKS_CREATEJSON","payload":{"title":{"$exists":true},"projectId":{"$exists":true}}}`,
		action:      models.RuleActionAllow,
		priority:    8,
	},
	{
		code:        "task_update",
		description: "Validate task update permissions",
		conditions:  `{"userRole":"MANAGER","action":"PUT_:ID"}`,
		action:      models.RuleActionAllow,
		priority:    9,
	},
	{
		code:        "task_reassign",
		description: "Validate task reassignment permissions",
		conditions:  `{"userRole":{"$in":["MANAGER","ADMIN"]},"action":"PATCH_:TASKID_REASSIGN_:USERID"}`,
		action:      models.RuleActionAllow,
		priority:    10,
	},
	{
		code:        "task_status_update",
		description: "Validate task status update permissions",
		conditions:  `{"userRole":{"$in":["EMPLOYEE","MANAGER","ADMIN"]},"action":"PATCH_:ID_STATUS"}`,
		action:      models.RuleActionAllow,
		priority:    11,
	},
}

// SeedDefaults installs the shipped rule set into an empty store. Existing
// rule files are never overwritten, mirroring the SQL seed's ON CONFLICT DO
// NOTHING.
func (p *Persistence) SeedDefaults(ctx context.Context) error {
	existing, err := p.ruleRepo.ActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to inspect rule store before seeding: %w", err)
	}

	if len(existing) > 0 {
		return nil
	}

	now := time.Now().UTC()

	for _, seed := range seedRules {
		record := &models.RuleRecord{
			Code:        seed.code,
			Description: seed.description,
			Conditions:  json.RawMessage(seed.conditions),
			Action:      seed.action,
			Priority:    seed.priority,
			Active:      true,
			Version:     "1.0",
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		err := p.ruleRepo.SaveRule(ctx, record)
		if err != nil {
			return fmt.Errorf("failed to seed rule %s: %w", seed.code, err)
		}
	}

	return nil
}
