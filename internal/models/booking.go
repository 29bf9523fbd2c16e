package models

import "time"

type Booking struct {
	ID            int64         `json:"id"`
	ClientID      int64         `json:"client_id"`
	ClientName    string        `json:"client_name"`
	UserID        int64         `json:"user_id"`
	StartDate     time.Time     `json:"start_date"`
	EndDate       time.Time     `json:"end_date"`
	Status        string        `json:"status"` // pending, confirmed, in_progress, completed, cancelled, hold, returned
	PaymentStatus string        `json:"payment_status"`
	Notes         string        `json:"notes"`
	Items         []BookingItem `json:"items"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
	Version       int64         `json:"version"`
}

// BookingItem is a reservation line: quantity of an inventory position
// with the price snapshotted at booking time.
type BookingItem struct {
	ID        int64   `json:"id"`
	BookingID int64   `json:"booking_id"`
	ItemKind  string  `json:"item_kind"` // equipment или product
	ItemID    int64   `json:"item_id"`
	ItemName  string  `json:"item_name"`
	Quantity  int64   `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Overlaps reports whether the booking window intersects [start, end).
// Границы полуоткрытые: бронь, кончающаяся в момент t, не конфликтует
// с бронью, начинающейся ровно в t.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartDate.Before(end) && b.EndDate.After(start)
}

// TotalPrice sums line item prices times quantities.
func (b *Booking) TotalPrice() float64 {
	var total float64
	for _, it := range b.Items {
		total += it.UnitPrice * float64(it.Quantity)
	}
	return total
}
