package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ledrent/internal/models"
)

// GetCompanySettings возвращает профиль компании; если строки ещё нет,
// создает её с дефолтами.
func (db *DB) GetCompanySettings(ctx context.Context) (*models.CompanySettings, error) {
	var c models.CompanySettings
	err := db.QueryRowContext(ctx, `
        SELECT id, name, document, email, phone, address, currency, logo_url, updated_at
        FROM company_settings WHERE id = 1`).Scan(
		&c.ID, &c.Name, &c.Document, &c.Email, &c.Phone, &c.Address, &c.Currency, &c.LogoURL, &c.UpdatedAt,
	)
	if err == nil {
		return &c, nil
	}
	if !errors.Is(wrapErr(err), ErrNotFound) {
		return nil, fmt.Errorf("failed to get company settings: %w", err)
	}

	now := time.Now()
	_, err = db.ExecContext(ctx,
		`INSERT INTO company_settings (id, updated_at) VALUES (1, ?)`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to init company settings: %w", err)
	}
	return &models.CompanySettings{ID: 1, Currency: "USD", UpdatedAt: now}, nil
}

func (db *DB) UpdateCompanySettings(ctx context.Context, c *models.CompanySettings) error {
	if _, err := db.GetCompanySettings(ctx); err != nil {
		return err
	}

	now := time.Now()
	_, err := db.ExecContext(ctx, `
        UPDATE company_settings SET name = ?, document = ?, email = ?, phone = ?, address = ?, currency = ?, logo_url = ?, updated_at = ?
        WHERE id = 1`,
		c.Name, c.Document, c.Email, c.Phone, c.Address, c.Currency, c.LogoURL, now,
	)
	if err != nil {
		return fmt.Errorf("failed to update company settings: %w", err)
	}
	c.ID = 1
	c.UpdatedAt = now
	return nil
}
