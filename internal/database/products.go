package database

import (
	"context"
	"fmt"
	"time"

	"ledrent/internal/models"
)

const productColumns = `id, code, name, description, total_length, price_per_meter, is_active, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*models.Product, error) {
	var p models.Product
	err := row.Scan(
		&p.ID, &p.Code, &p.Name, &p.Description, &p.TotalLength, &p.PricePerMeter,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

func (db *DB) CreateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO products (code, name, description, total_length, price_per_meter, is_active, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Code, p.Name, p.Description, p.TotalLength, p.PricePerMeter, p.IsActive, now, now,
	)
	if err != nil {
		return wrapErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (db *DB) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ?`, productColumns)
	return scanProduct(db.QueryRowContext(ctx, query, id))
}

func (db *DB) GetProductByCode(ctx context.Context, code string) (*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE code = ?`, productColumns)
	return scanProduct(db.QueryRowContext(ctx, query, code))
}

func (db *DB) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products`, productColumns)
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY code, id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var list []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (db *DB) UpdateProduct(ctx context.Context, p *models.Product) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        UPDATE products SET code = ?, name = ?, description = ?, total_length = ?, price_per_meter = ?, is_active = ?, updated_at = ?
        WHERE id = ?`,
		p.Code, p.Name, p.Description, p.TotalLength, p.PricePerMeter, p.IsActive, now, p.ID,
	)
	if err != nil {
		return wrapErr(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (db *DB) DeleteProduct(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
