package file

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

// WorkflowLogRepository appends trail entries to one JSON array per tenant.
// Entries are never mutated or deleted.
type WorkflowLogRepository struct {
	p *Persistence
}

func (r *WorkflowLogRepository) Append(ctx context.Context, entry *models.WorkflowLog) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.append(entry)
}

// append assumes the persistence mutex is held.
func (r *WorkflowLogRepository) append(entry *models.WorkflowLog) error {
	path := r.logPath(entry.TenantID)

	var entries []*models.WorkflowLog

	_, err := r.p.readJSON(path, &entries)
	if err != nil {
		return err
	}

	entries = append(entries, entry)

	return r.p.writeJSON(path, entries)
}

func (r *WorkflowLogRepository) History(ctx context.Context, tenantID int64, entityType, entityID string) ([]*models.WorkflowLog, error) {
	var entries []*models.WorkflowLog

	_, err := r.p.readJSON(r.logPath(tenantID), &entries)
	if err != nil {
		return nil, err
	}

	history := make([]*models.WorkflowLog, 0, len(entries))

	for _, entry := range entries {
		if strings.EqualFold(entry.EntityType, entityType) && entry.EntityID == entityID {
			history = append(history, entry)
		}
	}

	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Timestamp.Before(history[j].Timestamp)
	})

	return history, nil
}

func (r *WorkflowLogRepository) logPath(tenantID int64) string {
	return r.p.dir("logs", fmt.Sprintf("%d.json", tenantID))
}
