package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatusSets(t *testing.T) {
	for _, s := range ActiveStatuses {
		assert.True(t, IsActiveStatus(s), s)
		assert.False(t, IsTerminalStatus(s), s)
	}
	for _, s := range TerminalStatuses {
		assert.True(t, IsTerminalStatus(s), s)
		assert.False(t, IsActiveStatus(s), s)
	}
}

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusHold, true},
		{StatusPending, StatusInProgress, false},
		{StatusConfirmed, StatusInProgress, true},
		{StatusConfirmed, StatusHold, true},
		{StatusHold, StatusConfirmed, true},
		{StatusHold, StatusInProgress, false},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusReturned, true},
		{StatusCompleted, StatusInProgress, false},

		// Отмена доступна из любого активного статуса
		{StatusPending, StatusCancelled, true},
		{StatusConfirmed, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		{StatusHold, StatusCancelled, true},

		// Из конечных статусов пути нет
		{StatusCancelled, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusReturned, StatusConfirmed, false},

		// Переход в себя не переход
		{StatusPending, StatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestBookingOverlaps(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 9, d, 0, 0, 0, 0, time.UTC)
	}
	b := &Booking{StartDate: day(5), EndDate: day(10)}

	assert.True(t, b.Overlaps(day(7), day(8)), "inside")
	assert.True(t, b.Overlaps(day(1), day(6)), "left overlap")
	assert.True(t, b.Overlaps(day(9), day(20)), "right overlap")
	assert.True(t, b.Overlaps(day(1), day(20)), "covering")

	// Полуоткрытые границы: встык не конфликтует
	assert.False(t, b.Overlaps(day(10), day(12)), "starts at end")
	assert.False(t, b.Overlaps(day(1), day(5)), "ends at start")
	assert.False(t, b.Overlaps(day(11), day(12)), "after")
}

func TestBookingTotalPrice(t *testing.T) {
	b := &Booking{
		Items: []BookingItem{
			{Quantity: 4, UnitPrice: 25},
			{Quantity: 100, UnitPrice: 0.5},
		},
	}
	assert.Equal(t, 150.0, b.TotalPrice())

	empty := &Booking{}
	assert.Zero(t, empty.TotalPrice())
}
