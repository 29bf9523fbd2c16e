package export

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ledrent/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBookingsReport(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.New(io.Discard)
	exporter := NewExporter(filepath.Join(dir, "exports"), &logger)

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 9, 8, 0, 0, 0, 0, time.UTC)

	bookings := []*models.Booking{
		{
			ID:            1,
			ClientName:    "ООО Свет",
			StartDate:     start,
			EndDate:       start.Add(72 * time.Hour),
			Status:        models.StatusConfirmed,
			PaymentStatus: models.PaymentPaid,
			Notes:         "монтаж с утра",
			Items: []models.BookingItem{
				{ItemName: "Панель P3", Quantity: 4, UnitPrice: 25},
				{ItemName: "Кабель", Quantity: 100, UnitPrice: 0.5},
			},
		},
		{
			ID:         2,
			ClientName: "ИП Орлов",
			StartDate:  start.Add(96 * time.Hour),
			EndDate:    end,
			Status:     models.StatusCancelled,
		},
	}

	path, err := exporter.BookingsReport(bookings, start, end)
	require.NoError(t, err)
	assert.Equal(t, "bookings_2026-09-01_to_2026-09-08.xlsx", filepath.Base(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Contains(t, f.GetSheetList(), "Бронирования")

	client, err := f.GetCellValue("Бронирования", "B3")
	require.NoError(t, err)
	assert.Equal(t, "ООО Свет", client)

	status, err := f.GetCellValue("Бронирования", "E3")
	require.NoError(t, err)
	assert.Equal(t, "Подтверждено", status)

	total, err := f.GetCellValue("Бронирования", "H3")
	require.NoError(t, err)
	assert.Equal(t, "150", total)

	items, err := f.GetCellValue("Бронирования", "G3")
	require.NoError(t, err)
	assert.Contains(t, items, "Панель P3 x4")
}

func TestBookingsReportEmpty(t *testing.T) {
	logger := zerolog.New(io.Discard)
	exporter := NewExporter(t.TempDir(), &logger)

	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	path, err := exporter.BookingsReport(nil, start, start.Add(24*time.Hour))
	require.NoError(t, err)
	assert.FileExists(t, path)
}
