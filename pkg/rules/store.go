package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/persistence"
)

// conditionSchema rejects rule condition documents that are not objects or
// that use unknown $-operators. Structural problems inside recognized
// operators are caught by the condition parser afterwards.
const conditionSchema = `{
	"type": "object",
	"patternProperties": {
		"^\\$": {}
	},
	"propertyNames": {
		"pattern": "^([^$].*|\\$(eq|ne|gt|gte|lt|lte|in|exists|or))$"
	}
}`

type snapshot struct {
	rules    []models.Rule
	loadedAt time.Time
}

// Store holds the authoritative, queryable set of active rules as an
// immutable snapshot. Reload swaps the snapshot pointer atomically so
// in-flight evaluations never observe a partially updated rule set.
type Store struct {
	repo   persistence.RuleRepository
	logger *slog.Logger
	schema *gojsonschema.Schema

	current atomic.Pointer[snapshot]
	loadMu  sync.Mutex // single writer; readers go through the pointer
}

// NewStore creates a rule store over the given repository. Rules are loaded
// lazily on first use; call Load to refresh explicitly.
func NewStore(repo persistence.RuleRepository, logger *slog.Logger) *Store {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(conditionSchema))
	if err != nil {
		panic(fmt.Errorf("condition schema does not compile: %w", err))
	}

	return &Store{
		repo:   repo,
		logger: logger,
		schema: schema,
	}
}

// Load fetches all active rules ordered by priority and atomically replaces
// the in-memory snapshot. Records with malformed condition documents are
// skipped with a warning; the load itself never aborts for data-shape
// reasons. When the backing store is unreachable the previous snapshot
// stays in place (stale-but-available over unavailable).
func (s *Store) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	records, err := s.repo.ActiveRules(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading active rules: %v", persistence.ErrStoreUnavailable, err)
	}

	rules := make([]models.Rule, 0, len(records))

	for _, record := range records {
		rule, err := s.parseRecord(record)
		if err != nil {
			s.logger.WarnContext(ctx, "Skipping rule with malformed conditions",
				"rule_code", record.Code, "error", err)

			continue
		}

		rules = append(rules, rule)
	}

	// Repositories return priority order already; re-sort stably so load
	// order still breaks ties even if a backend forgets.
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	s.current.Store(&snapshot{rules: rules, loadedAt: time.Now().UTC()})
	s.logger.InfoContext(ctx, "Rule snapshot loaded", "rules", len(rules))

	return nil
}

func (s *Store) parseRecord(record *models.RuleRecord) (models.Rule, error) {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(record.Conditions))
	if err != nil {
		return models.Rule{}, fmt.Errorf("condition document is not valid JSON: %w", err)
	}

	if !result.Valid() {
		return models.Rule{}, fmt.Errorf("condition document rejected: %v", result.Errors())
	}

	conditions, err := models.ParseCondition(record.Conditions)
	if err != nil {
		return models.Rule{}, err
	}

	return models.Rule{
		Code:        record.Code,
		Description: record.Description,
		Conditions:  conditions,
		Action:      record.Action,
		Priority:    record.Priority,
		Active:      record.Active,
		Version:     record.Version,
	}, nil
}

// Rules returns the current snapshot, loading it lazily the first time.
// With a non-empty code the result is restricted to rules with that code;
// an unknown code falls back to the full set so an explicit filter never
// silently turns into an empty evaluation.
func (s *Store) Rules(ctx context.Context, code string) ([]models.Rule, error) {
	snap := s.current.Load()
	if snap == nil {
		err := s.Load(ctx)
		if err != nil {
			return nil, err
		}

		snap = s.current.Load()
	}

	if code == "" {
		return snap.rules, nil
	}

	filtered := make([]models.Rule, 0, 1)

	for _, rule := range snap.rules {
		if rule.Code == code {
			filtered = append(filtered, rule)
		}
	}

	if len(filtered) == 0 {
		return snap.rules, nil
	}

	return filtered, nil
}

// Invalidate drops the snapshot so the next read reloads from the store.
func (s *Store) Invalidate() {
	s.current.Store(nil)
}

// LoadedAt reports when the current snapshot was taken; zero when no
// snapshot has been loaded yet.
func (s *Store) LoadedAt() time.Time {
	snap := s.current.Load()
	if snap == nil {
		return time.Time{}
	}

	return snap.loadedAt
}
