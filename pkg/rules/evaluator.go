package rules

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

// evalCondition reports whether every clause of the condition holds against
// the given fact scope. Missing facts never error; they simply fail the
// clause (and satisfy $exists:false), preserving default-deny.
func evalCondition(cond models.Condition, facts map[string]any) bool {
	for _, clause := range cond.Clauses {
		if !evalClause(clause, facts) {
			return false
		}
	}

	return true
}

func evalClause(clause models.Clause, facts map[string]any) bool {
	if clause.Op == models.OpOr {
		for _, branch := range clause.Branches {
			if evalCondition(branch, facts) {
				return true
			}
		}

		return false
	}

	fact, present := lookupFact(facts, clause.Field)
	operand := resolveTemplate(clause.Operand, facts)

	switch clause.Op {
	case models.OpLiteral, models.OpEq:
		return looseEquals(fact, operand)
	case models.OpNe:
		return !looseEquals(fact, operand)
	case models.OpGt:
		left, right, ok := numericPair(fact, operand)

		return ok && left > right
	case models.OpGte:
		left, right, ok := numericPair(fact, operand)

		return ok && left >= right
	case models.OpLt:
		left, right, ok := numericPair(fact, operand)

		return ok && left < right
	case models.OpLte:
		left, right, ok := numericPair(fact, operand)

		return ok && left <= right
	case models.OpIn:
		list, ok := operand.([]any)

		return ok && evalIn(fact, list)
	case models.OpExists:
		expected, ok := clause.Operand.(bool)

		return ok && expected == (present && fact != nil)
	case models.OpNested:
		sub, ok := fact.(map[string]any)
		if !ok {
			sub = map[string]any{}
		}

		return evalCondition(*clause.Nested, sub)
	default:
		return false
	}
}

// looseEquals compares a fact against a condition value. String facts use
// the tolerant policy of looseActionEquals, scalar or not. Array facts are
// the derived action token lists; they match when any element loosely
// equals the wanted value.
func looseEquals(fact, want any) bool {
	switch f := fact.(type) {
	case nil:
		return want == nil
	case []string:
		for _, item := range f {
			if w, ok := want.(string); ok && looseActionEquals(item, w) {
				return true
			}
		}

		return false
	case []any:
		for _, item := range f {
			s, isString := item.(string)
			w, wantString := want.(string)

			if isString && wantString {
				if looseActionEquals(s, w) {
					return true
				}

				continue
			}

			if looseEquals(item, want) {
				return true
			}
		}

		return false
	case string:
		if w, ok := want.(string); ok {
			return looseActionEquals(f, w)
		}

		if left, right, ok := numericPair(fact, want); ok {
			return left == right
		}

		return false
	default:
		if left, right, ok := numericPair(fact, want); ok {
			return left == right
		}

		return fact == want
	}
}

// looseActionEquals is the tolerant string-equality policy: case-insensitive,
// substring tolerant in either direction, with HTTP verb prefixes stripped
// before a second pass. A stored value of "POST__TASKS_CREATEJSON" therefore
// matches a derived token "POST_TASKS_CREATEJSON". The heuristic is
// deliberately permissive; its boundaries are pinned down by the tests next
// to it.
func looseActionEquals(a, b string) bool {
	la := strings.ToLower(a)
	lb := strings.ToLower(b)

	if fuzzyContains(la, lb) {
		return true
	}

	return fuzzyContains(stripVerbPrefix(la), stripVerbPrefix(lb))
}

func fuzzyContains(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}

	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

var verbPrefixes = []string{"post_", "get_", "put_", "patch_", "delete_"}

func stripVerbPrefix(s string) string {
	for _, prefix := range verbPrefixes {
		if strings.HasPrefix(s, prefix) {
			s = s[len(prefix):]

			break
		}
	}

	return strings.TrimLeft(s, "_")
}

// lookupFact resolves a fact path against the current scope. A literal key
// wins; a dotted path such as "payload.leaveDays" walks nested fact maps, so
// rule documents written against a flattened context keep working.
func lookupFact(facts map[string]any, path string) (any, bool) {
	if fact, ok := facts[path]; ok {
		return fact, true
	}

	if !strings.Contains(path, ".") {
		return nil, false
	}

	var current any = facts

	for _, part := range strings.Split(path, ".") {
		scope, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = scope[part]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// evalIn implements $in membership: case-insensitive for string facts, a
// subset test for array facts, plain membership otherwise.
func evalIn(fact any, list []any) bool {
	switch f := fact.(type) {
	case nil:
		return false
	case []any:
		for _, item := range f {
			if !evalIn(item, list) {
				return false
			}
		}

		return len(f) > 0
	case []string:
		for _, item := range f {
			if !evalIn(item, list) {
				return false
			}
		}

		return len(f) > 0
	case string:
		for _, candidate := range list {
			if s, ok := candidate.(string); ok && strings.EqualFold(f, s) {
				return true
			}
		}

		return false
	default:
		for _, candidate := range list {
			if left, right, ok := numericPair(fact, candidate); ok {
				if left == right {
					return true
				}

				continue
			}

			if fact == candidate {
				return true
			}
		}

		return false
	}
}

// resolveTemplate replaces a "{{field}}" operand with the referenced fact
// from the current scope, enabling cross-field comparisons like
// resourceOwnerId != {{userId}}. Dotted references resolve like condition
// keys do.
func resolveTemplate(operand any, facts map[string]any) any {
	s, ok := operand.(string)
	if !ok || !strings.HasPrefix(s, "{{") || !strings.HasSuffix(s, "}}") {
		return operand
	}

	value, _ := lookupFact(facts, strings.TrimSpace(s[2:len(s)-2]))

	return value
}

// numericPair coerces both sides to float64. Non-numeric values never
// satisfy numeric comparisons.
func numericPair(a, b any) (float64, float64, bool) {
	left, okA := toFloat(a)
	right, okB := toFloat(b)

	return left, right, okA && okB
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()

		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)

		return f, err == nil
	default:
		return 0, false
	}
}
