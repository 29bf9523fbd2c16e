package database

import (
	"context"
	"fmt"
	"time"

	"ledrent/internal/models"
)

const equipmentColumns = `id, code, name, description, total_quantity, price_per_day, sort_order, is_active, created_at, updated_at`

func scanEquipment(row interface{ Scan(...any) error }) (*models.Equipment, error) {
	var e models.Equipment
	err := row.Scan(
		&e.ID, &e.Code, &e.Name, &e.Description, &e.TotalQuantity, &e.PricePerDay,
		&e.SortOrder, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &e, nil
}

func (db *DB) CreateEquipment(ctx context.Context, eq *models.Equipment) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO equipment (code, name, description, total_quantity, price_per_day, sort_order, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		eq.Code, eq.Name, eq.Description, eq.TotalQuantity, eq.PricePerDay, eq.SortOrder, eq.IsActive, now, now,
	)
	if err != nil {
		return wrapErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	eq.ID = id
	eq.CreatedAt = now
	eq.UpdatedAt = now
	return nil
}

func (db *DB) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment WHERE id = ?`, equipmentColumns)
	return scanEquipment(db.QueryRowContext(ctx, query, id))
}

func (db *DB) GetEquipmentByCode(ctx context.Context, code string) (*models.Equipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment WHERE code = ?`, equipmentColumns)
	return scanEquipment(db.QueryRowContext(ctx, query, code))
}

func (db *DB) ListEquipment(ctx context.Context, activeOnly bool) ([]*models.Equipment, error) {
	query := fmt.Sprintf(`SELECT %s FROM equipment`, equipmentColumns)
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY sort_order, id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	defer rows.Close()

	var list []*models.Equipment
	for rows.Next() {
		e, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (db *DB) UpdateEquipment(ctx context.Context, eq *models.Equipment) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        UPDATE equipment SET code = ?, name = ?, description = ?, total_quantity = ?, price_per_day = ?, sort_order = ?, is_active = ?, updated_at = ?
        WHERE id = ?`,
		eq.Code, eq.Name, eq.Description, eq.TotalQuantity, eq.PricePerDay, eq.SortOrder, eq.IsActive, now, eq.ID,
	)
	if err != nil {
		return wrapErr(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	eq.UpdatedAt = now
	return nil
}

// DeleteEquipment удаляет позицию без soft-delete.
func (db *DB) DeleteEquipment(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
