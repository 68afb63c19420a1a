package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

func testRule(t *testing.T, code, conditions string, action models.RuleAction, priority int) models.Rule {
	t.Helper()

	return models.Rule{
		Code:       code,
		Conditions: mustParse(t, conditions),
		Action:     action,
		Priority:   priority,
		Active:     true,
		Version:    "1.0",
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	t.Run("no rules default to deny", func(t *testing.T) {
		t.Parallel()

		decision, version := Resolve(nil, map[string]any{"userRole": "ADMIN"})

		assert.False(t, decision.Allowed)
		assert.Equal(t, models.NoRuleMatchCode, decision.RuleCode)
		assert.Empty(t, version)
	})

	t.Run("no matching rule defaults to deny", func(t *testing.T) {
		t.Parallel()

		rules := []models.Rule{
			testRule(t, "ADMIN_FULL_ACCESS", `{"userRole":"ADMIN"}`, models.RuleActionAllow, 1),
		}

		decision, _ := Resolve(rules, map[string]any{"userRole": "EMPLOYEE"})

		assert.False(t, decision.Allowed)
		assert.Equal(t, models.NoRuleMatchCode, decision.RuleCode)
	})

	t.Run("lowest priority decisive rule wins", func(t *testing.T) {
		t.Parallel()

		rules := []models.Rule{
			testRule(t, "ALLOW_ALL", `{}`, models.RuleActionAllow, 10),
			testRule(t, "DENY_EMPLOYEES", `{"userRole":"EMPLOYEE"}`, models.RuleActionDeny, 1),
		}

		decision, version := Resolve(rules, map[string]any{"userRole": "EMPLOYEE"})

		assert.False(t, decision.Allowed)
		assert.Equal(t, "DENY_EMPLOYEES", decision.RuleCode)
		assert.Equal(t, "1.0", version)
	})

	t.Run("equal priorities keep input order", func(t *testing.T) {
		t.Parallel()

		rules := []models.Rule{
			testRule(t, "FIRST", `{}`, models.RuleActionAllow, 5),
			testRule(t, "SECOND", `{}`, models.RuleActionDeny, 5),
		}

		decision, _ := Resolve(rules, map[string]any{})

		assert.True(t, decision.Allowed)
		assert.Equal(t, "FIRST", decision.RuleCode)
	})

	t.Run("inactive rules are skipped", func(t *testing.T) {
		t.Parallel()

		inactive := testRule(t, "DISABLED", `{}`, models.RuleActionDeny, 1)
		inactive.Active = false

		rules := []models.Rule{
			inactive,
			testRule(t, "ALLOW_ALL", `{}`, models.RuleActionAllow, 2),
		}

		decision, _ := Resolve(rules, map[string]any{})

		assert.True(t, decision.Allowed)
		assert.Equal(t, "ALLOW_ALL", decision.RuleCode)
	})

	t.Run("require approval sets next action", func(t *testing.T) {
		t.Parallel()

		rules := []models.Rule{
			testRule(t, "LEAVE_DAYS_REQUIRE_APPROVAL",
				`{"leaveDays":{"$gt":"{{LEAVE_MAX_DAYS}}"}}`, models.RuleActionRequireApproval, 1),
		}

		decision, _ := Resolve(rules, map[string]any{
			"leaveDays":      float64(15),
			"LEAVE_MAX_DAYS": 10,
		})

		assert.False(t, decision.Allowed)
		assert.Equal(t, models.NextActionManagerApproval, decision.NextAction)
	})

	t.Run("modify rules pass through", func(t *testing.T) {
		t.Parallel()

		rules := []models.Rule{
			testRule(t, "REWRITE", `{}`, models.RuleActionModify, 1),
			testRule(t, "ALLOW_ALL", `{}`, models.RuleActionAllow, 2),
		}

		decision, _ := Resolve(rules, map[string]any{})

		assert.True(t, decision.Allowed)
		assert.Equal(t, "ALLOW_ALL", decision.RuleCode)
	})

	t.Run("resolution does not mutate the input slice", func(t *testing.T) {
		t.Parallel()

		rules := []models.Rule{
			testRule(t, "LOW", `{}`, models.RuleActionAllow, 9),
			testRule(t, "HIGH", `{}`, models.RuleActionDeny, 1),
		}

		Resolve(rules, map[string]any{})

		assert.Equal(t, "LOW", rules[0].Code)
		assert.Equal(t, "HIGH", rules[1].Code)
	})

	t.Run("deterministic for identical inputs", func(t *testing.T) {
		t.Parallel()

		rules := []models.Rule{
			testRule(t, "ACCESS_OWN_RECORDS_ONLY",
				`{"userRole":{"$ne":"ADMIN"},"resourceOwnerId":{"$ne":"{{userId}}"}}`, models.RuleActionDeny, 1),
			testRule(t, "ADMIN_FULL_ACCESS", `{"userRole":"ADMIN"}`, models.RuleActionAllow, 2),
		}

		facts := map[string]any{
			"userRole":        "EMPLOYEE",
			"userId":          "7",
			"resourceOwnerId": "42",
		}

		first, _ := Resolve(rules, facts)

		for range 50 {
			next, _ := Resolve(rules, facts)
			assert.Equal(t, first, next)
		}
	})
}
