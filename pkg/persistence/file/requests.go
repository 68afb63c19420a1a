package file

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

// WorkflowRequestRepository stores requests as requests/<tenant>/<id>.json.
type WorkflowRequestRepository struct {
	p *Persistence
}

func (r *WorkflowRequestRepository) Create(ctx context.Context, request *models.WorkflowRequest) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.p.writeJSON(r.requestPath(request.TenantID, request.ID), request)
}

func (r *WorkflowRequestRepository) GetByID(ctx context.Context, tenantID int64, id string) (*models.WorkflowRequest, error) {
	var request models.WorkflowRequest

	found, err := r.p.readJSON(r.requestPath(tenantID, id), &request)
	if err != nil {
		return nil, persistence.NewRequestError("GetByID", id, err)
	}

	if !found {
		return nil, persistence.NewRequestError("GetByID", id, persistence.ErrRequestNotFound)
	}

	return &request, nil
}

func (r *WorkflowRequestRepository) List(ctx context.Context, opts persistence.ListRequestsOptions) ([]*models.WorkflowRequest, error) {
	dir := r.p.dir("requests", fmt.Sprintf("%d", opts.TenantID))

	root := os.DirFS(dir)

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list request files: %w", err)
	}

	requests := make([]*models.WorkflowRequest, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		var request models.WorkflowRequest

		found, err := r.p.readJSON(dir+string(os.PathSeparator)+name, &request)
		if err != nil {
			return nil, err
		}

		if !found {
			continue
		}

		if opts.ApproverRole != "" && !strings.EqualFold(request.ApproverRole, opts.ApproverRole) {
			continue
		}

		if opts.Status != "" && !strings.EqualFold(opts.Status, "all") &&
			!strings.EqualFold(string(request.Status), opts.Status) {
			continue
		}

		requests = append(requests, &request)
	}

	sort.SliceStable(requests, func(i, j int) bool {
		return requests[i].RequestedAt.After(requests[j].RequestedAt)
	})

	return requests, nil
}

// Resolve performs the check-then-act under the persistence mutex: reread
// the request, require PENDING, then write the terminal status, the entity
// state on approval, and the log entry. A request that left PENDING in the
// meantime surfaces as ErrRequestAlreadyResolved.
func (r *WorkflowRequestRepository) Resolve(ctx context.Context, params persistence.ResolveRequestParams) (*models.WorkflowRequest, error) {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	var request models.WorkflowRequest

	found, err := r.p.readJSON(r.requestPath(params.TenantID, params.RequestID), &request)
	if err != nil {
		return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
	}

	if !found {
		return nil, persistence.NewRequestError("Resolve", params.RequestID, persistence.ErrRequestNotFound)
	}

	if request.Status != models.RequestStatusPending {
		return nil, persistence.NewRequestError("Resolve", params.RequestID, persistence.ErrRequestAlreadyResolved)
	}

	respondedAt := params.RespondedAt
	if respondedAt.IsZero() {
		respondedAt = time.Now().UTC()
	}

	request.Status = params.Status
	request.RespondedBy = params.RespondedBy
	request.RespondedAt = &respondedAt
	request.Reason = params.Reason

	err = r.p.writeJSON(r.requestPath(params.TenantID, params.RequestID), &request)
	if err != nil {
		return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
	}

	if params.Status == models.RequestStatusApproved {
		err = r.p.entityRepo.save(&models.EntityState{
			TenantID:   request.TenantID,
			EntityType: request.EntityType,
			EntityID:   request.EntityID,
			State:      params.EntityState,
			Locked:     params.Lock,
			UpdatedAt:  respondedAt,
		})
		if err != nil {
			return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
		}
	}

	if params.Log != nil {
		err = r.p.logRepo.append(params.Log)
		if err != nil {
			return nil, persistence.NewRequestError("Resolve", params.RequestID, err)
		}
	}

	return &request, nil
}

func (r *WorkflowRequestRepository) requestPath(tenantID int64, id string) string {
	return r.p.dir("requests", fmt.Sprintf("%d", tenantID), id+".json")
}
