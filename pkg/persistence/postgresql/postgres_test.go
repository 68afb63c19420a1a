package postgresql_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/log"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence/postgresql"
)

// These tests need a real database. Point TEST_DATABASE_URL at a disposable
// PostgreSQL instance to run them; they are skipped otherwise.
func setupPostgres(t *testing.T) *postgresql.Persistence {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	p, err := postgresql.NewPersistence(context.Background(), log.WithModule("test"), databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close(context.Background())
	})

	return p
}

func TestPostgresHealthCheck(t *testing.T) {
	p := setupPostgres(t)

	require.NoError(t, p.HealthCheck(context.Background()))
}

func TestPostgresSeededRules(t *testing.T) {
	p := setupPostgres(t)

	rules, err := p.RuleRepository().ActiveRules(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, rules)

	codes := make(map[string]bool, len(rules))
	for _, rule := range rules {
		codes[rule.Code] = true
	}

	assert.True(t, codes["ADMIN_FULL_ACCESS"])
	assert.True(t, codes["ACCESS_OWN_RECORDS_ONLY"])
	assert.True(t, codes["task_creation"])
	assert.True(t, codes["task_update"])
	assert.True(t, codes["task_reassign"])
	assert.True(t, codes["task_status_update"])

	// Priority order is part of the repository contract.
	for i := 1; i < len(rules); i++ {
		assert.LessOrEqual(t, rules[i-1].Priority, rules[i].Priority)
	}
}

func TestPostgresSaveRuleUpsert(t *testing.T) {
	p := setupPostgres(t)

	code := "TEST_RULE_" + uuid.NewString()[:8]

	record := &models.RuleRecord{
		Code:       code,
		Conditions: json.RawMessage(`{"userRole":"ADMIN"}`),
		Action:     models.RuleActionAllow,
		Priority:   99,
		Active:     true,
		Version:    "1.0",
	}

	require.NoError(t, p.RuleRepository().SaveRule(context.Background(), record))

	record.Version = "1.1"
	require.NoError(t, p.RuleRepository().SaveRule(context.Background(), record))

	rules, err := p.RuleRepository().ActiveRules(context.Background())
	require.NoError(t, err)

	var found *models.RuleRecord

	for _, rule := range rules {
		if rule.Code == code {
			found = rule
		}
	}

	require.NotNil(t, found)
	assert.Equal(t, "1.1", found.Version)
}

func TestPostgresResolveRace(t *testing.T) {
	p := setupPostgres(t)

	tenantID := time.Now().UnixNano()

	require.NoError(t, p.EntityStateRepository().Save(context.Background(), &models.EntityState{
		TenantID:   tenantID,
		EntityType: "TASK",
		EntityID:   "t-1",
		State:      "IN_PROGRESS",
		UpdatedAt:  time.Now().UTC(),
	}))

	request := &models.WorkflowRequest{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		EntityType:   "TASK",
		EntityID:     "t-1",
		FromState:    "IN_PROGRESS",
		ToState:      "REVIEW",
		RequestedBy:  "7",
		ApproverRole: "Manager",
		Status:       models.RequestStatusPending,
		RequestedAt:  time.Now().UTC(),
	}
	require.NoError(t, p.WorkflowRequestRepository().Create(context.Background(), request))

	params := persistence.ResolveRequestParams{
		TenantID:    tenantID,
		RequestID:   request.ID,
		Status:      models.RequestStatusApproved,
		RespondedBy: "9",
		Reason:      "ok",
		EntityState: "REVIEW",
		Log: &models.WorkflowLog{
			ID:          uuid.NewString(),
			RequestID:   request.ID,
			TenantID:    tenantID,
			EntityType:  "TASK",
			EntityID:    "t-1",
			Action:      models.LogActionApprove,
			FromState:   "IN_PROGRESS",
			ToState:     "REVIEW",
			PerformedBy: "9",
			Timestamp:   time.Now().UTC(),
		},
	}

	resolved, err := p.WorkflowRequestRepository().Resolve(context.Background(), params)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, resolved.Status)

	params.Log.ID = uuid.NewString()

	_, err = p.WorkflowRequestRepository().Resolve(context.Background(), params)
	require.Error(t, err)
	assert.True(t, persistence.IsRequestAlreadyResolved(err))

	state, err := p.EntityStateRepository().Get(context.Background(), tenantID, "TASK", "t-1")
	require.NoError(t, err)
	assert.Equal(t, "REVIEW", state.State)

	history, err := p.WorkflowLogRepository().History(context.Background(), tenantID, "TASK", "t-1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestPostgresRejectLeavesEntityAlone(t *testing.T) {
	p := setupPostgres(t)

	tenantID := time.Now().UnixNano()

	require.NoError(t, p.EntityStateRepository().Save(context.Background(), &models.EntityState{
		TenantID:   tenantID,
		EntityType: "PROJECT",
		EntityID:   "p-1",
		State:      "CLOSED",
		Locked:     true,
		UpdatedAt:  time.Now().UTC(),
	}))

	request := &models.WorkflowRequest{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		EntityType:   "PROJECT",
		EntityID:     "p-1",
		FromState:    "ACTIVE",
		ToState:      "ON_HOLD",
		RequestedBy:  "7",
		ApproverRole: "Manager",
		Status:       models.RequestStatusPending,
		RequestedAt:  time.Now().UTC(),
	}
	require.NoError(t, p.WorkflowRequestRepository().Create(context.Background(), request))

	resolved, err := p.WorkflowRequestRepository().Resolve(context.Background(), persistence.ResolveRequestParams{
		TenantID:    tenantID,
		RequestID:   request.ID,
		Status:      models.RequestStatusRejected,
		RespondedBy: "9",
		Reason:      "already closed",
		Log: &models.WorkflowLog{
			ID:          uuid.NewString(),
			RequestID:   request.ID,
			TenantID:    tenantID,
			EntityType:  "PROJECT",
			EntityID:    "p-1",
			Action:      models.LogActionReject,
			FromState:   "ACTIVE",
			ToState:     "ON_HOLD",
			PerformedBy: "9",
			Timestamp:   time.Now().UTC(),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, resolved.Status)

	state, err := p.EntityStateRepository().Get(context.Background(), tenantID, "PROJECT", "p-1")
	require.NoError(t, err)
	assert.Equal(t, "CLOSED", state.State)
	assert.True(t, state.Locked)
}
