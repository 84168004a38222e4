package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/courtline/engine/pkg/core/model"
)

// SaveConstraint upserts a constraint definition. The scope and parameter
// bags are stored as JSONB.
func (db *DB) SaveConstraint(ctx context.Context, c model.Constraint) error {
	scope, err := json.Marshal(c.Scope)
	if err != nil {
		return fmt.Errorf("failed to encode scope for constraint %s: %w", c.ID, err)
	}
	params, err := json.Marshal(c.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params for constraint %s: %w", c.ID, err)
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO constraints (
			id, name, type, hardness, weight, scope, params, evaluator,
			dependencies, conflicts_with, cacheable, parallelizable, priority
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			hardness = EXCLUDED.hardness,
			weight = EXCLUDED.weight,
			scope = EXCLUDED.scope,
			params = EXCLUDED.params,
			evaluator = EXCLUDED.evaluator,
			dependencies = EXCLUDED.dependencies,
			conflicts_with = EXCLUDED.conflicts_with,
			cacheable = EXCLUDED.cacheable,
			parallelizable = EXCLUDED.parallelizable,
			priority = EXCLUDED.priority
	`, c.ID, c.Name, string(c.Type), string(c.Hardness), c.Weight, scope, params,
		c.Evaluator, c.Dependencies, c.ConflictsWith, c.Cacheable, c.Parallelizable, c.Priority)
	if err != nil {
		return fmt.Errorf("failed to save constraint %s: %w", c.ID, err)
	}
	return nil
}

// ListConstraints retrieves every stored constraint definition
func (db *DB) ListConstraints(ctx context.Context) ([]model.Constraint, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, name, type, hardness, weight, scope, params, evaluator,
		       dependencies, conflicts_with, cacheable, parallelizable, priority
		FROM constraints
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query constraints: %w", err)
	}
	defer rows.Close()

	var constraints []model.Constraint
	for rows.Next() {
		var c model.Constraint
		var ctype, hardness string
		var scope, params []byte
		if err := rows.Scan(&c.ID, &c.Name, &ctype, &hardness, &c.Weight, &scope, &params,
			&c.Evaluator, &c.Dependencies, &c.ConflictsWith, &c.Cacheable, &c.Parallelizable, &c.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan constraint: %w", err)
		}
		c.Type = model.ConstraintType(ctype)
		c.Hardness = model.Hardness(hardness)
		if err := json.Unmarshal(scope, &c.Scope); err != nil {
			return nil, fmt.Errorf("failed to decode scope for constraint %s: %w", c.ID, err)
		}
		if err := json.Unmarshal(params, &c.Params); err != nil {
			return nil, fmt.Errorf("failed to decode params for constraint %s: %w", c.ID, err)
		}
		constraints = append(constraints, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating constraints: %w", err)
	}
	return constraints, nil
}

// DeleteConstraint removes a stored constraint definition
func (db *DB) DeleteConstraint(ctx context.Context, id string) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM constraints WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete constraint %s: %w", id, err)
	}
	return nil
}
