package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/sravanthireddy2003/task-be-sub001/pkg/models"
)

// RuleRepository handles business-rule database operations.
type RuleRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// ActiveRules returns all active rules ordered by priority ascending.
func (r *RuleRepository) ActiveRules(ctx context.Context) ([]*models.RuleRecord, error) {
	query := `
		SELECT
			id
		  , rule_code
		  , description
		  , conditions
		  , action
		  , priority
		  , active
		  , version
		  , created_at
		  , updated_at
		FROM business_rules
		WHERE active = TRUE
		ORDER BY priority ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query business rules: %w", err)
	}

	defer func(ctx context.Context, r *RuleRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	rules := make([]*models.RuleRecord, 0)

	for rows.Next() {
		var record models.RuleRecord

		err := rows.Scan(
			&record.ID,
			&record.Code,
			&record.Description,
			&record.Conditions,
			&record.Action,
			&record.Priority,
			&record.Active,
			&record.Version,
			&record.CreatedAt,
			&record.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan business rule: %w", err)
		}

		rules = append(rules, &record)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating business rules: %w", err)
	}

	return rules, nil
}

// SaveRule inserts or updates a rule record by code.
func (r *RuleRepository) SaveRule(ctx context.Context, rule *models.RuleRecord) error {
	query := `
		INSERT INTO business_rules (rule_code, description, conditions, action, priority, active, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (rule_code) DO UPDATE SET
			description = EXCLUDED.description,
			conditions = EXCLUDED.conditions,
			action = EXCLUDED.action,
			priority = EXCLUDED.priority,
			active = EXCLUDED.active,
			version = EXCLUDED.version,
			updated_at = NOW()
	`

	_, err := r.db.ExecContext(ctx, query,
		rule.Code,
		rule.Description,
		[]byte(rule.Conditions),
		rule.Action,
		rule.Priority,
		rule.Active,
		rule.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save business rule %s: %w", rule.Code, err)
	}

	return nil
}
