package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/courtline/engine/pkg/core/model"
)

// InsertResolution appends a resolution to the history. The history is
// append-only: rows are never updated, a superseding fix is a new row.
func (db *DB) InsertResolution(ctx context.Context, res *model.Resolution) error {
	mutation, err := json.Marshal(res.Mutation)
	if err != nil {
		return fmt.Errorf("failed to encode mutation for resolution %s: %w", res.ID, err)
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO resolutions (
			id, conflict_id, schedule_fingerprint, type, mutation,
			projected_delta, status, created_at, decided_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, res.ID, res.ConflictID, res.ScheduleFingerprint, string(res.Type), mutation,
		res.ProjectedDelta, string(res.Status), res.CreatedAt, res.DecidedAt)
	if err != nil {
		return fmt.Errorf("failed to insert resolution %s: %w", res.ID, err)
	}
	return nil
}

// ListResolutions retrieves the resolution history for a schedule
// fingerprint, oldest first
func (db *DB) ListResolutions(ctx context.Context, scheduleFingerprint string) ([]model.Resolution, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id, conflict_id, schedule_fingerprint, type, mutation,
		       projected_delta, status, created_at, decided_at
		FROM resolutions
		WHERE schedule_fingerprint = $1
		ORDER BY created_at
	`, scheduleFingerprint)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []model.Resolution
	for rows.Next() {
		var res model.Resolution
		var rtype, status string
		var mutation []byte
		var decidedAt *time.Time
		if err := rows.Scan(&res.ID, &res.ConflictID, &res.ScheduleFingerprint, &rtype,
			&mutation, &res.ProjectedDelta, &status, &res.CreatedAt, &decidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resolution: %w", err)
		}
		res.Type = model.ResolutionType(rtype)
		res.Status = model.ResolutionStatus(status)
		res.DecidedAt = decidedAt
		if err := json.Unmarshal(mutation, &res.Mutation); err != nil {
			return nil, fmt.Errorf("failed to decode mutation for resolution %s: %w", res.ID, err)
		}
		resolutions = append(resolutions, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating resolutions: %w", err)
	}
	return resolutions, nil
}
