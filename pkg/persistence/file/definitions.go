package file

import (
	"context"
	"fmt"
	"strings"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

// WorkflowDefinitionRepository stores transition routing as one JSON array
// per tenant.
type WorkflowDefinitionRepository struct {
	p *Persistence
}

func (r *WorkflowDefinitionRepository) Find(ctx context.Context, tenantID int64, entityType, fromState, toState string) (*models.WorkflowDefinition, error) {
	var definitions []*models.WorkflowDefinition

	_, err := r.p.readJSON(r.definitionPath(tenantID), &definitions)
	if err != nil {
		return nil, err
	}

	for _, def := range definitions {
		if strings.EqualFold(def.EntityType, entityType) &&
			strings.EqualFold(def.FromState, fromState) &&
			strings.EqualFold(def.ToState, toState) {
			return def, nil
		}
	}

	return nil, nil
}

func (r *WorkflowDefinitionRepository) Save(ctx context.Context, def *models.WorkflowDefinition) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	path := r.definitionPath(def.TenantID)

	var definitions []*models.WorkflowDefinition

	_, err := r.p.readJSON(path, &definitions)
	if err != nil {
		return err
	}

	replaced := false

	for i, existing := range definitions {
		if strings.EqualFold(existing.EntityType, def.EntityType) &&
			strings.EqualFold(existing.FromState, def.FromState) &&
			strings.EqualFold(existing.ToState, def.ToState) {
			definitions[i] = def
			replaced = true

			break
		}
	}

	if !replaced {
		definitions = append(definitions, def)
	}

	return r.p.writeJSON(path, definitions)
}

func (r *WorkflowDefinitionRepository) definitionPath(tenantID int64) string {
	return r.p.dir("definitions", fmt.Sprintf("%d.json", tenantID))
}
