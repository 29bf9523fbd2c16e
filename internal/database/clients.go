package database

import (
	"context"
	"fmt"
	"time"

	"ledrent/internal/models"
)

const clientColumns = `id, name, document, email, phone, address, notes, created_at, updated_at`

func scanClient(row interface{ Scan(...any) error }) (*models.Client, error) {
	var c models.Client
	err := row.Scan(
		&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.Address, &c.Notes,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	return &c, nil
}

func (db *DB) CreateClient(ctx context.Context, client *models.Client) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        INSERT INTO clients (name, document, email, phone, address, notes, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		client.Name, client.Document, client.Email, client.Phone, client.Address, client.Notes, now, now,
	)
	if err != nil {
		return wrapErr(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	client.ID = id
	client.CreatedAt = now
	client.UpdatedAt = now
	return nil
}

func (db *DB) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = ?`, clientColumns)
	return scanClient(db.QueryRowContext(ctx, query, id))
}

func (db *DB) GetClientByDocument(ctx context.Context, document string) (*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE document = ?`, clientColumns)
	return scanClient(db.QueryRowContext(ctx, query, document))
}

func (db *DB) ListClients(ctx context.Context, limit, offset int) ([]*models.Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients ORDER BY name ASC LIMIT ? OFFSET ?`, clientColumns)
	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (db *DB) UpdateClient(ctx context.Context, client *models.Client) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `
        UPDATE clients SET name = ?, document = ?, email = ?, phone = ?, address = ?, notes = ?, updated_at = ?
        WHERE id = ?`,
		client.Name, client.Document, client.Email, client.Phone, client.Address, client.Notes, now, client.ID,
	)
	if err != nil {
		return wrapErr(err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	client.UpdatedAt = now
	return nil
}

func (db *DB) DeleteClient(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM clients WHERE id = ?`, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
