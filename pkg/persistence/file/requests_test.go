package file_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence/file"
)

func pendingRequest(t *testing.T, p *file.Persistence) *models.WorkflowRequest {
	t.Helper()

	request := &models.WorkflowRequest{
		ID:           uuid.NewString(),
		TenantID:     1,
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

	return request
}

func resolveParams(request *models.WorkflowRequest, status models.RequestStatus) persistence.ResolveRequestParams {
	return persistence.ResolveRequestParams{
		TenantID:    request.TenantID,
		RequestID:   request.ID,
		Status:      status,
		RespondedBy: "9",
		Reason:      string(status),
		EntityState: request.ToState,
		Log: &models.WorkflowLog{
			ID:          uuid.NewString(),
			RequestID:   request.ID,
			TenantID:    request.TenantID,
			EntityType:  request.EntityType,
			EntityID:    request.EntityID,
			Action:      models.LogActionApprove,
			FromState:   request.FromState,
			ToState:     request.ToState,
			PerformedBy: "9",
			Timestamp:   time.Now().UTC(),
		},
	}
}

func TestResolveIsExactlyOnce(t *testing.T) {
	t.Parallel()

	p := file.NewPersistence(t.TempDir())
	request := pendingRequest(t, p)

	_, err := p.WorkflowRequestRepository().Resolve(context.Background(), resolveParams(request, models.RequestStatusApproved))
	require.NoError(t, err)

	_, err = p.WorkflowRequestRepository().Resolve(context.Background(), resolveParams(request, models.RequestStatusRejected))
	require.Error(t, err)
	assert.True(t, persistence.IsRequestAlreadyResolved(err))

	stored, err := p.WorkflowRequestRepository().GetByID(context.Background(), request.TenantID, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, stored.Status)
}

func TestResolveRejectionWritesNoEntityState(t *testing.T) {
	t.Parallel()

	p := file.NewPersistence(t.TempDir())
	request := pendingRequest(t, p)

	resolved, err := p.WorkflowRequestRepository().Resolve(context.Background(), resolveParams(request, models.RequestStatusRejected))
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, resolved.Status)

	_, err = p.EntityStateRepository().Get(context.Background(), request.TenantID, request.EntityType, request.EntityID)
	require.Error(t, err)
	assert.True(t, persistence.IsEntityNotFound(err))
}

func TestResolveConcurrent(t *testing.T) {
	t.Parallel()

	p := file.NewPersistence(t.TempDir())
	request := pendingRequest(t, p)

	const attempts = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)

	for range attempts {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := p.WorkflowRequestRepository().Resolve(context.Background(), resolveParams(request, models.RequestStatusApproved))

			mu.Lock()
			defer mu.Unlock()

			switch {
			case err == nil:
				successes++
			case persistence.IsRequestAlreadyResolved(err):
				conflicts++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, conflicts)
}

func TestResolveUnknownRequest(t *testing.T) {
	t.Parallel()

	p := file.NewPersistence(t.TempDir())

	_, err := p.WorkflowRequestRepository().Resolve(context.Background(), persistence.ResolveRequestParams{
		TenantID:  1,
		RequestID: "missing",
		Status:    models.RequestStatusApproved,
	})
	require.Error(t, err)
	assert.True(t, persistence.IsRequestNotFound(err))
}

func TestListFilters(t *testing.T) {
	t.Parallel()

	p := file.NewPersistence(t.TempDir())
	repo := p.WorkflowRequestRepository()

	first := pendingRequest(t, p)
	second := pendingRequest(t, p)
	second.ApproverRole = "Admin"
	require.NoError(t, repo.Create(context.Background(), second))

	_, err := repo.Resolve(context.Background(), resolveParams(first, models.RequestStatusApproved))
	require.NoError(t, err)

	t.Run("status filter", func(t *testing.T) {
		requests, err := repo.List(context.Background(), persistence.ListRequestsOptions{TenantID: 1, Status: "PENDING"})
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, second.ID, requests[0].ID)
	})

	t.Run("role filter is case-insensitive", func(t *testing.T) {
		requests, err := repo.List(context.Background(), persistence.ListRequestsOptions{TenantID: 1, ApproverRole: "admin"})
		require.NoError(t, err)
		require.Len(t, requests, 1)
		assert.Equal(t, second.ID, requests[0].ID)
	})

	t.Run("all includes terminal requests", func(t *testing.T) {
		requests, err := repo.List(context.Background(), persistence.ListRequestsOptions{TenantID: 1, Status: "all"})
		require.NoError(t, err)
		assert.Len(t, requests, 2)
	})

	t.Run("empty tenant", func(t *testing.T) {
		requests, err := repo.List(context.Background(), persistence.ListRequestsOptions{TenantID: 99})
		require.NoError(t, err)
		assert.Empty(t, requests)
	})
}
