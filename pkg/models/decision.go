package models

// NextAction signals a follow-up the caller must take before the original
// action can complete.
type NextAction string

// NextActionManagerApproval tells the caller to open a workflow request
// instead of completing the action inline.
const NextActionManagerApproval NextAction = "MANAGER_APPROVAL"

// Decision is the outcome of evaluating the active rule set against an
// evaluation context.
type Decision struct {
	Allowed    bool       `json:"allowed"`
	RuleCode   string     `json:"rule_code"`
	Reason     string     `json:"reason"`
	NextAction NextAction `json:"next_action,omitempty"`
}

// NoRuleMatchCode is the rule code reported when no rule matched; absence of
// a matching rule is a denial, never a permission.
const NoRuleMatchCode = "NO_RULE_MATCH"

// DefaultDeny is the decision returned when the rule set produced no
// decisive outcome.
func DefaultDeny() Decision {
	return Decision{
		Allowed:  false,
		RuleCode: NoRuleMatchCode,
		Reason:   "No matching rule found",
	}
}
