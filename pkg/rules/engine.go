package rules

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/audit"
	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

// Engine resolves decisions: it orders matching rules by priority, applies
// the first decisive outcome, and default-denies otherwise.
type Engine struct {
	store      *Store
	sink       audit.Sink
	thresholds Thresholds
	logger     *slog.Logger
}

// NewEngine creates a decision engine over the given rule store.
func NewEngine(store *Store, sink audit.Sink, thresholds Thresholds, logger *slog.Logger) *Engine {
	if sink == nil {
		sink = audit.NopSink{}
	}

	return &Engine{
		store:      store,
		sink:       sink,
		thresholds: thresholds,
		logger:     logger,
	}
}

// EvalRequest bundles the inputs of one evaluation.
type EvalRequest struct {
	Request  RequestDescriptor
	Identity Identity
	Resource *Resource

	// RuleCode restricts evaluation to one named policy. An unknown code
	// falls back to the full rule set.
	RuleCode string

	// RecentRequests is the caller-supplied request counter fact used by
	// throttle rules.
	RecentRequests int64
}

// Evaluate builds the evaluation context and resolves a decision against the
// current rule snapshot. It is deterministic for a given (snapshot, context)
// pair and has no side effects beyond the fire-and-forget audit record.
func (e *Engine) Evaluate(ctx context.Context, req EvalRequest) (models.Decision, error) {
	rules, err := e.store.Rules(ctx, req.RuleCode)
	if err != nil {
		return models.Decision{}, err
	}

	facts := BuildContext(req.Request, req.Identity, req.Resource, e.thresholds, req.RecentRequests)

	decision, version := Resolve(rules, facts)

	e.sink.Record(ctx, audit.RuleEvaluated{
		BaseEvent: audit.BaseEvent{
			ID:        uuid.NewString(),
			Type:      audit.RuleEvaluatedEvent,
			Timestamp: time.Now().UTC(),
			TenantID:  req.Identity.TenantID,
		},
		UserID:      req.Identity.ID,
		RuleCode:    decision.RuleCode,
		RuleVersion: version,
		Allowed:     decision.Allowed,
		Reason:      decision.Reason,
	})

	e.logger.DebugContext(ctx, "Rule evaluation",
		"user_id", req.Identity.ID,
		"rule_code", decision.RuleCode,
		"allowed", decision.Allowed)

	return decision, nil
}

// Resolve runs the rule pipeline over an assembled fact map: filter to
// active rules, stable-sort by priority, scan in order, stop at the first
// decisive action. MODIFY rules are a pass-through extension point and keep
// the scan going. Returns the decision and the version of the deciding rule.
func Resolve(rules []models.Rule, facts map[string]any) (models.Decision, string) {
	ordered := slices.Clone(rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	for _, rule := range ordered {
		if !rule.Active {
			continue
		}

		if !evalCondition(rule.Conditions, facts) {
			continue
		}

		switch rule.Action {
		case models.RuleActionAllow, models.RuleActionDeny, models.RuleActionRequireApproval:
			decision := models.Decision{
				Allowed:  rule.Action == models.RuleActionAllow,
				RuleCode: rule.Code,
				Reason:   rule.Description,
			}
			if rule.Action == models.RuleActionRequireApproval {
				decision.NextAction = models.NextActionManagerApproval
			}

			return decision, rule.Version
		case models.RuleActionModify:
			// Context modification is not needed by any shipped rule;
			// matching MODIFY rules fall through to the next rule.
			continue
		}
	}

	return models.DefaultDeny(), ""
}
