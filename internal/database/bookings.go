package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"ledrent/internal/models"
)

// statusPlaceholders builds the IN (...) clause arguments for the active set.
func activeStatusArgs() (string, []any) {
	placeholders := make([]string, len(models.ActiveStatuses))
	args := make([]any, len(models.ActiveStatuses))
	for i, s := range models.ActiveStatuses {
		placeholders[i] = "?"
		args[i] = s
	}
	return strings.Join(placeholders, ", "), args
}

// GetReservedQuantity суммирует зарезервированное количество позиции
// по всем активным броням, пересекающим окно [start, end).
// Границы полуоткрытые: end одной брони == start другой не конфликтует.
func (db *DB) GetReservedQuantity(ctx context.Context, kind string, itemID int64, start, end time.Time) (int64, error) {
	in, args := activeStatusArgs()
	query := fmt.Sprintf(`
        SELECT COALESCE(SUM(bi.quantity), 0)
        FROM booking_items bi
        JOIN bookings b ON b.id = bi.booking_id
        WHERE bi.item_kind = ? AND bi.item_id = ?
          AND b.status IN (%s)
          AND b.start_date < ? AND b.end_date > ?`, in)

	queryArgs := append([]any{kind, itemID}, args...)
	queryArgs = append(queryArgs, normalize(end), normalize(start))

	var reserved int64
	err := db.QueryRowContext(ctx, query, queryArgs...).Scan(&reserved)
	if err != nil {
		return 0, fmt.Errorf("failed to get reserved quantity: %w", err)
	}
	return reserved, nil
}

// itemSnapshot читает ёмкость, имя и текущую цену позиции; цена
// фиксируется в строке брони в момент создания.
func (db *DB) itemSnapshot(ctx context.Context, q queryer, kind string, itemID int64) (int64, string, float64, error) {
	var query string
	switch kind {
	case models.KindEquipment:
		query = `SELECT total_quantity, name, price_per_day FROM equipment WHERE id = ?`
	case models.KindProduct:
		query = `SELECT total_length, name, price_per_meter FROM products WHERE id = ?`
	default:
		return 0, "", 0, fmt.Errorf("unknown item kind: %s", kind)
	}

	var total int64
	var name string
	var price float64
	if err := q.QueryRowContext(ctx, query, itemID).Scan(&total, &name, &price); err != nil {
		return 0, "", 0, wrapErr(err)
	}
	return total, name, price, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CheckAvailability проверяет, что свободной ёмкости позиции хватает
// на quantity единиц в окне [start, end).
func (db *DB) CheckAvailability(ctx context.Context, kind string, itemID, quantity int64, start, end time.Time) (bool, error) {
	total, _, _, err := db.itemSnapshot(ctx, db, kind, itemID)
	if err != nil {
		return false, err
	}

	reserved, err := db.GetReservedQuantity(ctx, kind, itemID, start, end)
	if err != nil {
		return false, err
	}

	return total-reserved >= quantity, nil
}

// GetItemAvailability возвращает отчёт о ёмкости позиции в окне.
func (db *DB) GetItemAvailability(ctx context.Context, kind string, itemID int64, start, end time.Time) (*models.Availability, error) {
	total, _, _, err := db.itemSnapshot(ctx, db, kind, itemID)
	if err != nil {
		return nil, err
	}

	reserved, err := db.GetReservedQuantity(ctx, kind, itemID, start, end)
	if err != nil {
		return nil, err
	}

	available := total - reserved
	if available < 0 {
		available = 0
	}

	return &models.Availability{
		ItemKind:  kind,
		ItemID:    itemID,
		Start:     normalize(start),
		End:       normalize(end),
		Total:     total,
		Reserved:  reserved,
		Available: available,
	}, nil
}

// CreateBookingWithItems создает бронь со строками одной транзакцией.
// Доступность каждой позиции перепроверяется внутри транзакции, поэтому
// два конкурентных запроса не могут перебронировать одну позицию.
func (db *DB) CreateBookingWithItems(ctx context.Context, booking *models.Booking) error {
	if len(booking.Items) == 0 {
		return fmt.Errorf("booking requires at least one line item")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now()
	start := normalize(booking.StartDate)
	end := normalize(booking.EndDate)

	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	if booking.PaymentStatus == "" {
		booking.PaymentStatus = models.PaymentUnpaid
	}

	result, err := tx.ExecContext(ctx, `
        INSERT INTO bookings (client_id, user_id, start_date, end_date, status, payment_status, notes, version, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ClientID,
		booking.UserID,
		start,
		end,
		booking.Status,
		booking.PaymentStatus,
		booking.Notes,
		1,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", wrapErr(err))
	}

	bookingID, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	in, statusArgs := activeStatusArgs()
	countQuery := fmt.Sprintf(`
        SELECT COALESCE(SUM(bi.quantity), 0)
        FROM booking_items bi
        JOIN bookings b ON b.id = bi.booking_id
        WHERE bi.item_kind = ? AND bi.item_id = ?
          AND b.status IN (%s)
          AND b.start_date < ? AND b.end_date > ?`, in)

	for i := range booking.Items {
		item := &booking.Items[i]

		total, name, price, err := db.itemSnapshot(ctx, tx, item.ItemKind, item.ItemID)
		if err != nil {
			return err
		}

		// Проверка внутри транзакции; уже вставленные строки этой же
		// брони учитываются, суммирование по позиции корректно.
		args := append([]any{item.ItemKind, item.ItemID}, statusArgs...)
		args = append(args, end, start)
		var reserved int64
		if err := tx.QueryRowContext(ctx, countQuery, args...).Scan(&reserved); err != nil {
			return fmt.Errorf("failed to check availability in tx: %w", err)
		}

		if total-reserved < item.Quantity {
			return ErrNotAvailable
		}

		if item.ItemName == "" {
			item.ItemName = name
		}
		if item.UnitPrice == 0 {
			item.UnitPrice = price
		}

		res, err := tx.ExecContext(ctx, `
            INSERT INTO booking_items (booking_id, item_kind, item_id, item_name, quantity, unit_price)
            VALUES (?, ?, ?, ?, ?, ?)`,
			bookingID, item.ItemKind, item.ItemID, item.ItemName, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to insert booking item in tx: %w", err)
		}
		item.ID, _ = res.LastInsertId()
		item.BookingID = bookingID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = bookingID
	booking.StartDate = start
	booking.EndDate = end
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

const bookingColumns = `b.id, b.client_id, c.name, b.user_id, b.start_date, b.end_date,
       b.status, b.payment_status, b.notes, b.version, b.created_at, b.updated_at`

func scanBooking(row interface{ Scan(...any) error }) (*models.Booking, error) {
	b := &models.Booking{}
	err := row.Scan(
		&b.ID, &b.ClientID, &b.ClientName, &b.UserID, &b.StartDate, &b.EndDate,
		&b.Status, &b.PaymentStatus, &b.Notes, &b.Version, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, wrapErr(err)
	}
	return b, nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings b JOIN clients c ON c.id = b.client_id WHERE b.id = ?`, bookingColumns)
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}

	items, err := db.getBookingItems(ctx, id)
	if err != nil {
		return nil, err
	}
	booking.Items = items
	return booking, nil
}

func (db *DB) getBookingItems(ctx context.Context, bookingID int64) ([]models.BookingItem, error) {
	rows, err := db.QueryContext(ctx, `
        SELECT id, booking_id, item_kind, item_id, item_name, quantity, unit_price
        FROM booking_items WHERE booking_id = ? ORDER BY id`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking items: %w", err)
	}
	defer rows.Close()

	var items []models.BookingItem
	for rows.Next() {
		var it models.BookingItem
		if err := rows.Scan(&it.ID, &it.BookingID, &it.ItemKind, &it.ItemID, &it.ItemName, &it.Quantity, &it.UnitPrice); err != nil {
			return nil, fmt.Errorf("failed to scan booking item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateBookingStatusWithVersion переводит бронь в новый статус с
// оптимистической блокировкой по версии.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error {
	query := `UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
	result, err := db.ExecContext(ctx, query, status, time.Now(), id, fromVersion)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) UpdateBookingPaymentStatus(ctx context.Context, id int64, paymentStatus string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE bookings SET payment_status = ?, updated_at = ? WHERE id = ?`,
		paymentStatus, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBookings возвращает брони, пересекающие окно, с необязательным
// фильтром по статусу.
func (db *DB) ListBookings(ctx context.Context, start, end time.Time, status string, limit, offset int) ([]*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings b JOIN clients c ON c.id = b.client_id
        WHERE b.start_date < ? AND b.end_date > ?`, bookingColumns)
	args := []any{normalize(end), normalize(start)}

	if status != "" {
		query += ` AND b.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY b.start_date ASC, b.id ASC LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range bookings {
		items, err := db.getBookingItems(ctx, b.ID)
		if err != nil {
			return nil, err
		}
		b.Items = items
	}
	return bookings, nil
}

// GetDailyAvailability возвращает занятость позиции по дням периода.
func (db *DB) GetDailyAvailability(ctx context.Context, kind string, itemID int64, startDate time.Time, days int) ([]*models.DailyAvailability, error) {
	total, _, _, err := db.itemSnapshot(ctx, db, kind, itemID)
	if err != nil {
		return nil, err
	}

	var availability []*models.DailyAvailability
	for i := 0; i < days; i++ {
		dayStart := normalize(startDate.AddDate(0, 0, i))
		dayEnd := dayStart.AddDate(0, 0, 1)

		reserved, err := db.GetReservedQuantity(ctx, kind, itemID, dayStart, dayEnd)
		if err != nil {
			return nil, err
		}

		free := total - reserved
		if free < 0 {
			free = 0
		}
		availability = append(availability, &models.DailyAvailability{
			Date:      dayStart,
			ItemID:    itemID,
			Reserved:  reserved,
			Available: free,
		})
	}
	return availability, nil
}
