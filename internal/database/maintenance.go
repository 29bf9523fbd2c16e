package database

import (
	"context"
	"fmt"
	"time"

	"ledrent/internal/models"
)

// ExpireOverdueBookings переводит все активные брони с истекшим end_date
// в статус returned одной транзакцией. Любая ошибка откатывает весь
// прогон и возвращает 0: частичных переходов не бывает.
func (db *DB) ExpireOverdueBookings(ctx context.Context, now time.Time) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin maintenance transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	in, args := activeStatusArgs()
	query := fmt.Sprintf(`
        UPDATE bookings
        SET status = ?, version = version + 1, updated_at = ?
        WHERE end_date <= ? AND status IN (%s)`, in)

	execArgs := append([]any{models.StatusReturned, time.Now(), normalize(now)}, args...)
	result, err := tx.ExecContext(ctx, query, execArgs...)
	if err != nil {
		return 0, fmt.Errorf("failed to expire bookings: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count expired bookings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit maintenance pass: %w", err)
	}

	return int(rows), nil
}

// GetOverdueBookings возвращает активные брони с истекшим end_date,
// не меняя их. Используется для отчёта перед ручным прогоном.
func (db *DB) GetOverdueBookings(ctx context.Context, now time.Time) ([]*models.Booking, error) {
	in, args := activeStatusArgs()
	query := fmt.Sprintf(`SELECT %s FROM bookings b JOIN clients c ON c.id = b.client_id
        WHERE b.end_date <= ? AND b.status IN (%s) ORDER BY b.end_date ASC`, bookingColumns, in)

	queryArgs := append([]any{normalize(now)}, args...)
	rows, err := db.QueryContext(ctx, query, queryArgs...)
	if err != nil {
		return nil, fmt.Errorf("failed to get overdue bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
