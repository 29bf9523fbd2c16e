package service

import (
	"context"
	"io"
	"testing"
	"time"

	"ledrent/internal/database"
	"ledrent/internal/events"
	"ledrent/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceDB(t *testing.T) (*database.DB, *events.EventBus, *zerolog.Logger) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, events.NewEventBus(), &logger
}

func seedBookingFixtures(t *testing.T, db *database.DB) (*models.Client, *models.Equipment) {
	t.Helper()
	ctx := context.Background()
	client := &models.Client{Name: "ООО Сцена", Document: "5001112223"}
	require.NoError(t, db.CreateClient(ctx, client))
	eq := &models.Equipment{Code: "PANEL", Name: "Панель", TotalQuantity: 10, PricePerDay: 20, IsActive: true}
	require.NoError(t, db.CreateEquipment(ctx, eq))
	return client, eq
}

func TestValidateBookingWindow(t *testing.T) {
	db, bus, logger := newServiceDB(t)
	svc := NewBookingService(db, bus, logger)

	future := time.Now().AddDate(0, 0, 7)

	t.Run("Valid", func(t *testing.T) {
		assert.NoError(t, svc.ValidateBookingWindow(future, future.AddDate(0, 0, 2)))
	})

	t.Run("EmptyWindow", func(t *testing.T) {
		err := svc.ValidateBookingWindow(future, future)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("InvertedWindow", func(t *testing.T) {
		assert.Error(t, svc.ValidateBookingWindow(future.AddDate(0, 0, 2), future))
	})

	t.Run("PastWindow", func(t *testing.T) {
		past := time.Now().AddDate(0, 0, -7)
		err := svc.ValidateBookingWindow(past, past.AddDate(0, 0, 2))
		assert.ErrorIs(t, err, database.ErrPastDate)
	})

	t.Run("PastStartFutureEnd", func(t *testing.T) {
		// Окно, начавшееся вчера, тоже в прошлом
		err := svc.ValidateBookingWindow(time.Now().AddDate(0, 0, -1), future)
		assert.ErrorIs(t, err, database.ErrPastDate)
	})
}

func TestBookingServiceCreate(t *testing.T) {
	db, bus, logger := newServiceDB(t)
	svc := NewBookingService(db, bus, logger)
	activity := NewActivityService(db, logger)
	activity.RegisterRecorder(bus)

	ctx := context.Background()
	client, eq := seedBookingFixtures(t, db)

	start := time.Now().AddDate(0, 0, 10).UTC().Truncate(24 * time.Hour)
	end := start.AddDate(0, 0, 3)

	booking := &models.Booking{
		ClientID:  client.ID,
		UserID:    1,
		StartDate: start,
		EndDate:   end,
		Items: []models.BookingItem{
			{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 4, UnitPrice: 20},
		},
	}
	require.NoError(t, svc.CreateBooking(ctx, booking))
	assert.NotZero(t, booking.ID)
	assert.Equal(t, models.StatusPending, booking.Status)

	t.Run("AuditRecorded", func(t *testing.T) {
		acts, err := db.ListEntityActivities(ctx, "booking", booking.ID)
		require.NoError(t, err)
		require.Len(t, acts, 1)
		assert.Equal(t, events.EventBookingCreated, acts[0].Action)
	})

	t.Run("RejectsOverCapacity", func(t *testing.T) {
		over := &models.Booking{
			ClientID:  client.ID,
			StartDate: start,
			EndDate:   end,
			Items: []models.BookingItem{
				{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 7, UnitPrice: 20},
			},
		}
		assert.ErrorIs(t, svc.CreateBooking(ctx, over), database.ErrNotAvailable)
	})

	t.Run("PriceSnapshot", func(t *testing.T) {
		// Цена не передана: строка получает текущую цену позиции
		b := &models.Booking{
			ClientID:  client.ID,
			StartDate: end.AddDate(0, 0, 1),
			EndDate:   end.AddDate(0, 0, 3),
			Items: []models.BookingItem{
				{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 2},
			},
		}
		require.NoError(t, svc.CreateBooking(ctx, b))

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		require.Len(t, got.Items, 1)
		assert.Equal(t, eq.PricePerDay, got.Items[0].UnitPrice)
		assert.Equal(t, float64(2)*eq.PricePerDay, got.TotalPrice())
	})

	t.Run("RejectsNonPositiveQuantity", func(t *testing.T) {
		for _, qty := range []int64{0, -100} {
			bad := &models.Booking{
				ClientID:  client.ID,
				StartDate: start,
				EndDate:   end,
				Items: []models.BookingItem{
					{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: qty},
				},
			}
			var ve *ValidationError
			assert.ErrorAs(t, svc.CreateBooking(ctx, bad), &ve)
		}

		// Отказ ничего не резервирует и не освобождает
		avail, err := db.GetItemAvailability(ctx, models.KindEquipment, eq.ID, start, end)
		require.NoError(t, err)
		assert.Equal(t, int64(4), avail.Reserved)
		assert.Equal(t, int64(6), avail.Available)
	})

	t.Run("RejectsUnknownKind", func(t *testing.T) {
		bad := &models.Booking{
			ClientID:  client.ID,
			StartDate: start,
			EndDate:   end,
			Items: []models.BookingItem{
				{ItemKind: "truck", ItemID: eq.ID, Quantity: 1},
			},
		}
		var ve *ValidationError
		assert.ErrorAs(t, svc.CreateBooking(ctx, bad), &ve)
	})

	t.Run("RejectsEmptyItems", func(t *testing.T) {
		bad := &models.Booking{ClientID: client.ID, StartDate: start, EndDate: end}
		var ve *ValidationError
		assert.ErrorAs(t, svc.CreateBooking(ctx, bad), &ve)
	})
}

func TestBookingServiceTransitions(t *testing.T) {
	db, bus, logger := newServiceDB(t)
	svc := NewBookingService(db, bus, logger)
	ctx := context.Background()
	client, eq := seedBookingFixtures(t, db)

	start := time.Now().AddDate(0, 0, 5)
	newBooking := func(t *testing.T) *models.Booking {
		b := &models.Booking{
			ClientID:  client.ID,
			StartDate: start,
			EndDate:   start.AddDate(0, 0, 1),
			Items: []models.BookingItem{
				{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 1, UnitPrice: 20},
			},
		}
		require.NoError(t, svc.CreateBooking(ctx, b))
		return b
	}

	t.Run("Lifecycle", func(t *testing.T) {
		b := newBooking(t)
		require.NoError(t, svc.TransitionBooking(ctx, b.ID, 1, models.StatusConfirmed, 1))
		require.NoError(t, svc.TransitionBooking(ctx, b.ID, 2, models.StatusInProgress, 1))
		require.NoError(t, svc.TransitionBooking(ctx, b.ID, 3, models.StatusCompleted, 1))

		got, err := svc.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, got.Status)
	})

	t.Run("IllegalTransition", func(t *testing.T) {
		b := newBooking(t)
		err := svc.TransitionBooking(ctx, b.ID, 1, models.StatusCompleted, 1)
		assert.ErrorIs(t, err, database.ErrInvalidTransition)
	})

	t.Run("CancelFromAnyActive", func(t *testing.T) {
		b := newBooking(t)
		require.NoError(t, svc.TransitionBooking(ctx, b.ID, 1, models.StatusCancelled, 1))

		// Из конечного статуса пути нет
		err := svc.TransitionBooking(ctx, b.ID, 2, models.StatusConfirmed, 1)
		assert.ErrorIs(t, err, database.ErrInvalidTransition)
	})

	t.Run("StaleVersion", func(t *testing.T) {
		b := newBooking(t)
		require.NoError(t, svc.TransitionBooking(ctx, b.ID, 1, models.StatusConfirmed, 1))
		err := svc.TransitionBooking(ctx, b.ID, 1, models.StatusHold, 1)
		assert.ErrorIs(t, err, database.ErrConcurrentModification)
	})

	t.Run("MissingBooking", func(t *testing.T) {
		err := svc.TransitionBooking(ctx, 9999, 1, models.StatusConfirmed, 1)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestSetPaymentStatus(t *testing.T) {
	db, bus, logger := newServiceDB(t)
	svc := NewBookingService(db, bus, logger)
	ctx := context.Background()
	client, eq := seedBookingFixtures(t, db)

	start := time.Now().AddDate(0, 0, 3)
	b := &models.Booking{
		ClientID:  client.ID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
		Items: []models.BookingItem{
			{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 1, UnitPrice: 20},
		},
	}
	require.NoError(t, svc.CreateBooking(ctx, b))

	require.NoError(t, svc.SetPaymentStatus(ctx, b.ID, models.PaymentPaid, 1))

	got, err := svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)

	t.Run("UnknownStatus", func(t *testing.T) {
		err := svc.SetPaymentStatus(ctx, b.ID, "refunded", 1)
		var ve *ValidationError
		assert.ErrorAs(t, err, &ve)
	})

	t.Run("MissingBooking", func(t *testing.T) {
		err := svc.SetPaymentStatus(ctx, 9999, models.PaymentPaid, 1)
		assert.ErrorIs(t, err, database.ErrNotFound)
	})
}

func TestRunMaintenance(t *testing.T) {
	db, bus, logger := newServiceDB(t)
	svc := NewBookingService(db, bus, logger)
	activity := NewActivityService(db, logger)
	activity.RegisterRecorder(bus)

	ctx := context.Background()
	client, eq := seedBookingFixtures(t, db)

	// Просроченную бронь приходится вставлять мимо сервиса:
	// CreateBooking отклоняет окна в прошлом.
	past := time.Now().AddDate(0, 0, -3)
	b := &models.Booking{
		ClientID:  client.ID,
		StartDate: past,
		EndDate:   past.AddDate(0, 0, 1),
		Items: []models.BookingItem{
			{ItemKind: models.KindEquipment, ItemID: eq.ID, Quantity: 2, UnitPrice: 20},
		},
	}
	require.NoError(t, db.CreateBookingWithItems(ctx, b))

	count, err := svc.RunMaintenance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := svc.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReturned, got.Status)

	t.Run("Idempotent", func(t *testing.T) {
		count, err := svc.RunMaintenance(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}
