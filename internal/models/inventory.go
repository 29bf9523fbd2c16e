package models

import "time"

// Equipment is a rentable unit-counted position (panels, controllers, rigging).
type Equipment struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	TotalQuantity int64     `json:"total_quantity"`
	PricePerDay   float64   `json:"price_per_day"`
	SortOrder     int64     `json:"sort_order"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Product is spooled stock measured by length (LED strip, cabling).
// TotalLength считается в метрах, резервируется так же, как количество.
type Product struct {
	ID            int64     `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	TotalLength   int64     `json:"total_length"`
	PricePerMeter float64   `json:"price_per_meter"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Availability describes free capacity of one position over a window.
type Availability struct {
	ItemKind  string    `json:"item_kind"`
	ItemID    int64     `json:"item_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Total     int64     `json:"total"`
	Reserved  int64     `json:"reserved"`
	Available int64     `json:"available"`
}

// DailyAvailability is a per-day slice of an item's capacity.
type DailyAvailability struct {
	Date      time.Time `json:"date"`
	ItemID    int64     `json:"item_id"`
	Reserved  int64     `json:"reserved"`
	Available int64     `json:"available"`
}
