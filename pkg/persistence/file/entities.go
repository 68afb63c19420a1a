package file

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

// EntityStateRepository stores one JSON file per entity under
// entities/<tenant>/<type>/<id>.json.
type EntityStateRepository struct {
	p *Persistence
}

func (r *EntityStateRepository) Get(ctx context.Context, tenantID int64, entityType, entityID string) (*models.EntityState, error) {
	var state models.EntityState

	found, err := r.p.readJSON(r.entityPath(tenantID, entityType, entityID), &state)
	if err != nil {
		return nil, &persistence.EntityError{Op: "Get", EntityType: entityType, EntityID: entityID, Err: err}
	}

	if !found {
		return nil, &persistence.EntityError{
			Op:         "Get",
			EntityType: entityType,
			EntityID:   entityID,
			Err:        persistence.ErrEntityNotFound,
		}
	}

	return &state, nil
}

func (r *EntityStateRepository) Save(ctx context.Context, state *models.EntityState) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	return r.save(state)
}

// save assumes the persistence mutex is held.
func (r *EntityStateRepository) save(state *models.EntityState) error {
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}

	return r.p.writeJSON(r.entityPath(state.TenantID, state.EntityType, state.EntityID), state)
}

func (r *EntityStateRepository) entityPath(tenantID int64, entityType, entityID string) string {
	return r.p.dir("entities", fmt.Sprintf("%d", tenantID), strings.ToLower(entityType), entityID+".json")
}
