package database

import (
	"context"
	"fmt"
	"time"

	"ledrent/internal/models"
)

func (db *DB) CreateActivity(ctx context.Context, a *models.Activity) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO activities (actor_id, action, entity, entity_id, detail, created_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		a.ActorID, a.Action, a.Entity, a.EntityID, a.Detail, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	a.ID = id
	a.CreatedAt = now
	return nil
}

func (db *DB) ListActivities(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT id, actor_id, action, entity, entity_id, detail, created_at
        FROM activities ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.Entity, &a.EntityID, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}

// ListEntityActivities возвращает журнал по конкретной записи.
func (db *DB) ListEntityActivities(ctx context.Context, entity string, entityID int64) ([]*models.Activity, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT id, actor_id, action, entity, entity_id, detail, created_at
        FROM activities WHERE entity = ? AND entity_id = ? ORDER BY created_at DESC, id DESC`,
		entity, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entity activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.ActorID, &a.Action, &a.Entity, &a.EntityID, &a.Detail, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, &a)
	}
	return activities, rows.Err()
}
