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
)

// RuleRepository reads rule records from rules/<code>.json files.
type RuleRepository struct {
	p *Persistence
}

// ActiveRules returns all active rules ordered by priority ascending. Files
// that fail to decode abort the load; malformed condition documents inside
// well-formed records are the rule store's concern.
func (r *RuleRepository) ActiveRules(ctx context.Context) ([]*models.RuleRecord, error) {
	root := os.DirFS(r.p.dir("rules"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list rule files: %w", err)
	}

	rules := make([]*models.RuleRecord, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		var record models.RuleRecord

		found, err := r.p.readJSON(r.p.dir("rules", name), &record)
		if err != nil {
			return nil, err
		}

		if !found || !record.Active {
			continue
		}

		rules = append(rules, &record)
	}

	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	return rules, nil
}

// SaveRule writes a rule record under its code.
func (r *RuleRepository) SaveRule(ctx context.Context, rule *models.RuleRecord) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()

	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}

	rule.UpdatedAt = time.Now().UTC()

	name := strings.ToLower(rule.Code) + ".json"

	return r.p.writeJSON(r.p.dir("rules", name), rule)
}
