// Package models defines the core domain types for business rules and approval workflows.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RuleAction is the outcome a rule produces when its conditions match.
type RuleAction string

const (
	RuleActionAllow           RuleAction = "ALLOW"
	RuleActionDeny            RuleAction = "DENY"
	RuleActionRequireApproval RuleAction = "REQUIRE_APPROVAL"

	// RuleActionModify is an extension point for rules that rewrite the
	// evaluation context instead of deciding. No shipped rule uses it yet;
	// the resolver treats it as a pass-through.
	RuleActionModify RuleAction = "MODIFY"
)

// RuleRecord is the persisted shape of a business rule. Conditions are kept
// as the raw JSON document; they are parsed into a Condition exactly once
// when the rule store loads a snapshot.
type RuleRecord struct {
	ID          int64           `json:"id"`
	Code        string          `json:"rule_code"   validate:"required"`
	Description string          `json:"description"`
	Conditions  json.RawMessage `json:"conditions"  validate:"required"`
	Action      RuleAction      `json:"action"      validate:"required,oneof=ALLOW DENY REQUIRE_APPROVAL MODIFY"`
	Priority    int             `json:"priority"`
	Active      bool            `json:"active"`
	Version     string          `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Rule is a loaded rule with its condition document parsed into clauses.
type Rule struct {
	Code        string
	Description string
	Conditions  Condition
	Action      RuleAction
	Priority    int
	Active      bool
	Version     string
}

// Op identifies a comparison performed by a single condition clause.
type Op string

const (
	OpEq     Op = "$eq"
	OpNe     Op = "$ne"
	OpGt     Op = "$gt"
	OpGte    Op = "$gte"
	OpLt     Op = "$lt"
	OpLte    Op = "$lte"
	OpIn     Op = "$in"
	OpExists Op = "$exists"
	OpOr     Op = "$or"

	// OpLiteral is implicit equality against a bare scalar value.
	OpLiteral Op = "literal"
	// OpNested scopes a sub-condition to the fact's corresponding sub-object.
	OpNested Op = "nested"
)

var operatorKeys = map[string]Op{
	"$eq":     OpEq,
	"$ne":     OpNe,
	"$gt":     OpGt,
	"$gte":    OpGte,
	"$lt":     OpLt,
	"$lte":    OpLte,
	"$in":     OpIn,
	"$exists": OpExists,
	"$or":     OpOr,
}

// Clause is one conjunct of a condition node. All clauses of a Condition
// must hold for the condition to match.
type Clause struct {
	Field    string      // fact path; empty for a top-level $or
	Op       Op
	Operand  any         // literal or operator argument; list for $in, bool for $exists
	Branches []Condition // $or alternatives, evaluated against the current scope
	Nested   *Condition  // sub-condition scoped to the fact's sub-object
}

// Condition is a parsed rule condition node: a conjunction of clauses.
type Condition struct {
	Clauses []Clause
}

// ParseCondition converts a raw condition document into a Condition. It is
// strict about structure (operator arguments must have the right JSON type)
// so malformed rules are rejected at load time instead of misbehaving at
// evaluation time.
func ParseCondition(raw json.RawMessage) (Condition, error) {
	if len(raw) == 0 {
		return Condition{}, nil
	}

	var doc map[string]any

	err := json.Unmarshal(raw, &doc)
	if err != nil {
		return Condition{}, fmt.Errorf("condition document is not a JSON object: %w", err)
	}

	return parseConditionMap(doc)
}

func parseConditionMap(doc map[string]any) (Condition, error) {
	cond := Condition{Clauses: make([]Clause, 0, len(doc))}

	for key, value := range doc {
		if key == string(OpOr) {
			branches, err := parseOrBranches(value)
			if err != nil {
				return Condition{}, err
			}

			cond.Clauses = append(cond.Clauses, Clause{Op: OpOr, Branches: branches})

			continue
		}

		clauses, err := parseFieldClauses(key, value)
		if err != nil {
			return Condition{}, err
		}

		cond.Clauses = append(cond.Clauses, clauses...)
	}

	return cond, nil
}

// parseFieldClauses parses the value attached to a single fact path. An
// operator object yields one clause per operator; an object without any
// operator keys becomes a nested sub-condition; anything else is implicit
// equality.
func parseFieldClauses(field string, value any) ([]Clause, error) {
	obj, isObject := value.(map[string]any)
	if !isObject {
		return []Clause{{Field: field, Op: OpLiteral, Operand: value}}, nil
	}

	clauses := make([]Clause, 0, len(obj))
	plain := make(map[string]any)

	for key, operand := range obj {
		op, recognized := operatorKeys[key]
		if !recognized {
			if strings.HasPrefix(key, "$") {
				return nil, fmt.Errorf("field %q: unknown operator %s", field, key)
			}

			plain[key] = operand

			continue
		}

		switch op {
		case OpOr:
			branches, err := parseOrBranches(operand)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", field, err)
			}

			clauses = append(clauses, Clause{Field: field, Op: OpOr, Branches: branches})
		case OpIn:
			list, ok := operand.([]any)
			if !ok {
				return nil, fmt.Errorf("field %q: $in requires an array operand", field)
			}

			clauses = append(clauses, Clause{Field: field, Op: OpIn, Operand: list})
		case OpExists:
			flag, ok := operand.(bool)
			if !ok {
				return nil, fmt.Errorf("field %q: $exists requires a boolean operand", field)
			}

			clauses = append(clauses, Clause{Field: field, Op: OpExists, Operand: flag})
		default:
			clauses = append(clauses, Clause{Field: field, Op: op, Operand: operand})
		}
	}

	if len(plain) > 0 {
		if len(clauses) > 0 {
			return nil, fmt.Errorf("field %q mixes operator keys with plain keys", field)
		}

		nested, err := parseConditionMap(plain)
		if err != nil {
			return nil, err
		}

		clauses = append(clauses, Clause{Field: field, Op: OpNested, Nested: &nested})
	}

	return clauses, nil
}

func parseOrBranches(operand any) ([]Condition, error) {
	list, ok := operand.([]any)
	if !ok {
		return nil, fmt.Errorf("$or requires an array of condition objects")
	}

	branches := make([]Condition, 0, len(list))

	for i, item := range list {
		sub, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("$or branch %d is not a condition object", i)
		}

		branch, err := parseConditionMap(sub)
		if err != nil {
			return nil, fmt.Errorf("$or branch %d: %w", i, err)
		}

		branches = append(branches, branch)
	}

	return branches, nil
}
