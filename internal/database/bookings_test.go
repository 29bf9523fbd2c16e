package database

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"ledrent/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedClient(t *testing.T, db *DB) *models.Client {
	t.Helper()
	client := &models.Client{Name: "ООО Свет", Document: "7701234567"}
	require.NoError(t, db.CreateClient(context.Background(), client))
	return client
}

func seedEquipment(t *testing.T, db *DB, code string, total int64) *models.Equipment {
	t.Helper()
	eq := &models.Equipment{Code: code, Name: "Панель " + code, TotalQuantity: total, PricePerDay: 25, IsActive: true}
	require.NoError(t, db.CreateEquipment(context.Background(), eq))
	return eq
}

func mustCreateBooking(t *testing.T, db *DB, clientID, itemID int64, qty int64, start, end time.Time) *models.Booking {
	t.Helper()
	b := &models.Booking{
		ClientID:  clientID,
		StartDate: start,
		EndDate:   end,
		Items: []models.BookingItem{
			{ItemKind: models.KindEquipment, ItemID: itemID, Quantity: qty, UnitPrice: 25},
		},
	}
	require.NoError(t, db.CreateBookingWithItems(context.Background(), b))
	return b
}

func TestBookingAvailabilityAccounting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	client := seedClient(t, db)
	eq := seedEquipment(t, db, "P3-OUT", 10)

	day1 := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	day3 := day1.AddDate(0, 0, 2)
	day5 := day1.AddDate(0, 0, 4)

	// 6 единиц заняты на [day1, day3)
	mustCreateBooking(t, db, client.ID, eq.ID, 6, day1, day3)

	t.Run("OverlappingRequestOverCapacityFails", func(t *testing.T) {
		b := &models.Booking{
			ClientID:  client.ID,
			StartDate: day1.AddDate(0, 0, 1),
			EndDate:   day5,
			Items: []models.BookingItem{
				{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 5, UnitPrice: 25},
			},
		}
		err := db.CreateBookingWithItems(ctx, b)
		assert.ErrorIs(t, err, ErrNotAvailable)

		// Отказ не должен оставить частично вставленных строк
		reserved, rerr := db.GetReservedQuantity(ctx, models.KindEquipment, eq.ID, day1, day5)
		require.NoError(t, rerr)
		assert.Equal(t, int64(6), reserved)
	})

	t.Run("OverlappingRequestWithinCapacitySucceeds", func(t *testing.T) {
		mustCreateBooking(t, db, client.ID, eq.ID, 4, day1.AddDate(0, 0, 1), day5)

		avail, err := db.GetItemAvailability(ctx, models.KindEquipment, eq.ID, day1.AddDate(0, 0, 1), day3)
		require.NoError(t, err)
		assert.Equal(t, int64(10), avail.Total)
		assert.Equal(t, int64(10), avail.Reserved)
		assert.Equal(t, int64(0), avail.Available)
	})

	t.Run("BackToBackBookingsDoNotConflict", func(t *testing.T) {
		// Окно [day3, ...) начинается в момент конца первой брони
		reserved, err := db.GetReservedQuantity(ctx, models.KindEquipment, eq.ID, day3, day3.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Equal(t, int64(4), reserved, "only the second booking covers day3")

		b := mustCreateBooking(t, db, client.ID, eq.ID, 6, day3, day5)
		assert.NotZero(t, b.ID)
	})
}

func TestCreateBookingWithItems(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	client := seedClient(t, db)
	eq := seedEquipment(t, db, "NOVA", 4)

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 3)

	t.Run("RequiresItems", func(t *testing.T) {
		err := db.CreateBookingWithItems(ctx, &models.Booking{ClientID: client.ID, StartDate: start, EndDate: end})
		assert.Error(t, err)
	})

	t.Run("DefaultsAndSnapshot", func(t *testing.T) {
		b := mustCreateBooking(t, db, client.ID, eq.ID, 2, start, end)
		assert.Equal(t, models.StatusPending, b.Status)
		assert.Equal(t, models.PaymentUnpaid, b.PaymentStatus)
		assert.Equal(t, int64(1), b.Version)

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, client.Name, got.ClientName)
		require.Len(t, got.Items, 1)
		assert.Equal(t, eq.Name, got.Items[0].ItemName)
		assert.Equal(t, float64(25), got.Items[0].UnitPrice)
	})

	t.Run("SameBookingLinesShareCapacity", func(t *testing.T) {
		// 2 уже заняты; две строки по 1 каждая должны учитывать друг друга
		b := &models.Booking{
			ClientID:  client.ID,
			StartDate: start,
			EndDate:   end,
			Items: []models.BookingItem{
				{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 1, UnitPrice: 40},
				{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 2, UnitPrice: 40},
			},
		}
		err := db.CreateBookingWithItems(ctx, b)
		assert.ErrorIs(t, err, ErrNotAvailable)
	})

	t.Run("UnknownItemKind", func(t *testing.T) {
		b := &models.Booking{
			ClientID:  client.ID,
			StartDate: start,
			EndDate:   end,
			Items:     []models.BookingItem{{ItemKind: "vehicle", ItemID: 1, Quantity: 1}},
		}
		assert.Error(t, db.CreateBookingWithItems(ctx, b))
	})

	t.Run("MissingItem", func(t *testing.T) {
		b := &models.Booking{
			ClientID:  client.ID,
			StartDate: start,
			EndDate:   end,
			Items:     []models.BookingItem{{ItemKind: models.KindEquipment, ItemID: 9999, Quantity: 1}},
		}
		assert.ErrorIs(t, db.CreateBookingWithItems(ctx, b), ErrNotFound)
	})
}

func TestConcurrentBookingNoOverbooking(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	client := seedClient(t, db)
	eq := seedEquipment(t, db, "TRUSS", 5)

	start := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 2)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			b := &models.Booking{
				ClientID:  client.ID,
				StartDate: start,
				EndDate:   end,
				Items: []models.BookingItem{
					{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 1, UnitPrice: 8},
				},
			}
			errs[n] = db.CreateBookingWithItems(ctx, b)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	assert.Equal(t, 5, succeeded)

	reserved, err := db.GetReservedQuantity(ctx, models.KindEquipment, eq.ID, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(5), reserved, "reserved must never exceed total")
}

func TestUpdateBookingStatusWithVersion(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	client := seedClient(t, db)
	eq := seedEquipment(t, db, "P2-IN", 3)

	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	b := mustCreateBooking(t, db, client.ID, eq.ID, 1, start, start.AddDate(0, 0, 1))

	t.Run("HappyPath", func(t *testing.T) {
		require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusConfirmed))

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, got.Status)
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("StaleVersion", func(t *testing.T) {
		err := db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusCancelled)
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})

	t.Run("MissingBooking", func(t *testing.T) {
		err := db.UpdateBookingStatusWithVersion(ctx, 9999, 1, models.StatusConfirmed)
		assert.ErrorIs(t, err, ErrConcurrentModification)
	})
}

func TestListBookings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	client := seedClient(t, db)
	eq := seedEquipment(t, db, "LISTED", 50)

	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	first := mustCreateBooking(t, db, client.ID, eq.ID, 1, base, base.AddDate(0, 0, 2))
	second := mustCreateBooking(t, db, client.ID, eq.ID, 1, base.AddDate(0, 0, 5), base.AddDate(0, 0, 7))
	require.NoError(t, db.UpdateBookingStatusWithVersion(ctx, second.ID, 1, models.StatusConfirmed))

	t.Run("WindowFilter", func(t *testing.T) {
		got, err := db.ListBookings(ctx, base, base.AddDate(0, 0, 3), "", 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, first.ID, got[0].ID)
		require.Len(t, got[0].Items, 1)
	})

	t.Run("StatusFilter", func(t *testing.T) {
		got, err := db.ListBookings(ctx, base, base.AddDate(0, 0, 10), models.StatusConfirmed, 10, 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, second.ID, got[0].ID)
	})

	t.Run("Pagination", func(t *testing.T) {
		got, err := db.ListBookings(ctx, base, base.AddDate(0, 0, 10), "", 1, 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, second.ID, got[0].ID)
	})
}

func TestGetDailyAvailability(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	client := seedClient(t, db)
	eq := seedEquipment(t, db, "DAILY", 8)

	day1 := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	mustCreateBooking(t, db, client.ID, eq.ID, 3, day1, day1.AddDate(0, 0, 2))

	days, err := db.GetDailyAvailability(ctx, models.KindEquipment, eq.ID, day1, 3)
	require.NoError(t, err)
	require.Len(t, days, 3)

	assert.Equal(t, int64(3), days[0].Reserved)
	assert.Equal(t, int64(5), days[0].Available)
	assert.Equal(t, int64(3), days[1].Reserved)
	// День, в который бронь уже закончилась
	assert.Equal(t, int64(0), days[2].Reserved)
	assert.Equal(t, int64(8), days[2].Available)
}
