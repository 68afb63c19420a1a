package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildContext(t *testing.T) {
	t.Parallel()

	req := RequestDescriptor{
		Method:       "post",
		RoutePattern: "/tasks/createJson",
		BaseURL:      "/api/tasks",
		Path:         "/tasks/createJson",
		IP:           "10.0.0.9",
		Body:         map[string]any{"title": "Build it", "leaveDays": float64(12)},
		Query:        map[string]string{"id": "q-1"},
	}
	identity := Identity{ID: "7", Role: "MANAGER", Department: "ENG", TenantID: 3}
	resource := &Resource{ID: "r-1", OwnerID: "42", Status: "DRAFT"}
	thresholds := Thresholds{LeaveMaxDays: 10, OTPMaxRequests: 5}

	facts := BuildContext(req, identity, resource, thresholds, 2)

	assert.Equal(t, "7", facts["userId"])
	assert.Equal(t, "MANAGER", facts["userRole"])
	assert.Equal(t, "ENG", facts["userDepartment"])
	assert.Equal(t, int64(3), facts["tenantId"])
	assert.Equal(t, "42", facts["resourceOwnerId"])
	assert.Equal(t, "r-1", facts["resourceId"])
	assert.Equal(t, "DRAFT", facts["recordStatus"])
	assert.Equal(t, "10.0.0.9", facts["ip"])
	assert.Equal(t, 10, facts["LEAVE_MAX_DAYS"])
	assert.Equal(t, 5, facts["OTP_MAX_REQUESTS"])
	assert.Equal(t, int64(2), facts["recentRequests"])
	assert.Equal(t, float64(12), facts["leaveDays"])
	assert.NotEmpty(t, facts["timestamp"])

	tokens, ok := facts["action"].([]string)
	require.True(t, ok)
	assert.Contains(t, tokens, "POST_TASKS_CREATEJSON")
	assert.Contains(t, tokens, "POST_API_TASKS_TASKS_CREATEJSON")
}

func TestBuildContextDefaults(t *testing.T) {
	t.Parallel()

	facts := BuildContext(RequestDescriptor{Method: "GET", RoutePattern: "/tasks"}, Identity{ID: "1"}, nil, Thresholds{}, 0)

	assert.Equal(t, map[string]any{}, facts["payload"])
	assert.Equal(t, "unknown", facts["ip"])
	assert.Equal(t, "", facts["resourceOwnerId"])
	assert.NotContains(t, facts, "leaveDays")
}

func TestBuildContextResourceFallbacks(t *testing.T) {
	t.Parallel()

	t.Run("owner falls back to resource id", func(t *testing.T) {
		t.Parallel()

		facts := BuildContext(RequestDescriptor{Method: "GET", RoutePattern: "/x"},
			Identity{}, &Resource{ID: "r-9"}, Thresholds{}, 0)

		assert.Equal(t, "r-9", facts["resourceOwnerId"])
	})

	t.Run("resource id falls back to query", func(t *testing.T) {
		t.Parallel()

		facts := BuildContext(RequestDescriptor{
			Method:       "GET",
			RoutePattern: "/x",
			Query:        map[string]string{"id": "q-7"},
		}, Identity{}, nil, Thresholds{}, 0)

		assert.Equal(t, "q-7", facts["resourceId"])
	})
}

func TestActionTokens(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates identical variants", func(t *testing.T) {
		t.Parallel()

		tokens := actionTokens(RequestDescriptor{
			Method:       "GET",
			RoutePattern: "/tasks",
			Path:         "/tasks",
		})

		assert.Equal(t, []string{"GET_TASKS"}, tokens)
	})

	t.Run("combines base and route", func(t *testing.T) {
		t.Parallel()

		tokens := actionTokens(RequestDescriptor{
			Method:       "POST",
			RoutePattern: "/leave/apply",
			BaseURL:      "/api/hr",
		})

		assert.Contains(t, tokens, "POST_LEAVE_APPLY")
		assert.Contains(t, tokens, "POST_API_HR_LEAVE_APPLY")
	})
}
