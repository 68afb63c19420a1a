// Package file provides file-based persistence for rules and workflow
// state. It backs local development and unit tests; production deployments
// use the postgresql package.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

// Persistence implements persistence.Persistence on top of JSON files under
// a root directory. A single mutex serializes writes, which is what gives
// the request-resolution compare-and-swap its atomicity here.
type Persistence struct {
	root string
	mu   sync.Mutex

	ruleRepo       *RuleRepository
	requestRepo    *WorkflowRequestRepository
	logRepo        *WorkflowLogRepository
	definitionRepo *WorkflowDefinitionRepository
	entityRepo     *EntityStateRepository
}

// NewPersistence creates a file persistence layer rooted at the given
// directory (a "file://" prefix is tolerated).
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.ruleRepo = &RuleRepository{p: p}
	p.requestRepo = &WorkflowRequestRepository{p: p}
	p.logRepo = &WorkflowLogRepository{p: p}
	p.definitionRepo = &WorkflowDefinitionRepository{p: p}
	p.entityRepo = &EntityStateRepository{p: p}

	return p
}

func (p *Persistence) RuleRepository() persistence.RuleRepository {
	return p.ruleRepo
}

func (p *Persistence) WorkflowRequestRepository() persistence.WorkflowRequestRepository {
	return p.requestRepo
}

func (p *Persistence) WorkflowLogRepository() persistence.WorkflowLogRepository {
	return p.logRepo
}

func (p *Persistence) WorkflowDefinitionRepository() persistence.WorkflowDefinitionRepository {
	return p.definitionRepo
}

func (p *Persistence) EntityStateRepository() persistence.EntityStateRepository {
	return p.entityRepo
}

// HealthCheck verifies the root directory exists.
func (p *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(p.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup; nothing to do for files.
func (p *Persistence) Close(_ context.Context) error {
	return nil
}

func (p *Persistence) dir(parts ...string) string {
	return filepath.Join(append([]string{p.root}, parts...)...)
}

func (p *Persistence) readJSON(path string, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	err = json.Unmarshal(data, out)
	if err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return true, nil
}

func (p *Persistence) writeJSON(path string, value any) error {
	err := os.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
