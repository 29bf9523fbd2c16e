package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ledrent/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Exporter пишет xlsx-отчеты в заданную директорию.
type Exporter struct {
	dir    string
	logger *zerolog.Logger
}

func NewExporter(dir string, logger *zerolog.Logger) *Exporter {
	return &Exporter{dir: dir, logger: logger}
}

// BookingsReport создает Excel файл со списком бронирований за период
// и возвращает путь к сохраненному файлу.
func (e *Exporter) BookingsReport(bookings []*models.Booking, start, end time.Time) (string, error) {
	// Создаем папку для экспорта, если не существует
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Бронирования"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	// Заголовок периода
	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Период: %s - %s",
		start.Format("02.01.2006"), end.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "I1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{
		"ID", "Клиент", "Начало", "Конец", "Статус",
		"Оплата", "Позиции", "Сумма", "Комментарий",
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, booking := range bookings {
		row := i + 3
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), booking.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), booking.ClientName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), booking.StartDate.Format("02.01.2006 15:04"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), booking.EndDate.Format("02.01.2006 15:04"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), statusLabel(booking.Status))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), booking.PaymentStatus)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), itemsSummary(booking.Items))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), booking.TotalPrice())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), booking.Notes)

		if styleID, perr := e.rowStyle(f, booking.Status); perr == nil {
			firstCell := fmt.Sprintf("A%d", row)
			lastCell := fmt.Sprintf("I%d", row)
			_ = f.SetCellStyle(sheetName, firstCell, lastCell, styleID)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "D", 18)
	_ = f.SetColWidth(sheetName, "E", "F", 14)
	_ = f.SetColWidth(sheetName, "G", "G", 40)
	_ = f.SetColWidth(sheetName, "H", "H", 12)
	_ = f.SetColWidth(sheetName, "I", "I", 30)

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("bookings_%s_to_%s.xlsx",
		start.Format("2006-01-02"), end.Format("2006-01-02"))
	filePath := filepath.Join(e.dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("Excel file created")
	return filePath, nil
}

func itemsSummary(items []models.BookingItem) string {
	var out string
	for i, it := range items {
		if i > 0 {
			out += "\n"
		}
		out += fmt.Sprintf("%s x%d", it.ItemName, it.Quantity)
	}
	return out
}

func statusLabel(status string) string {
	switch status {
	case models.StatusPending:
		return "Ожидает"
	case models.StatusConfirmed:
		return "Подтверждено"
	case models.StatusInProgress:
		return "В работе"
	case models.StatusCompleted:
		return "Завершено"
	case models.StatusCancelled:
		return "Отменено"
	case models.StatusHold:
		return "Резерв"
	case models.StatusReturned:
		return "Возвращено"
	default:
		return status
	}
}

// rowStyle подбирает заливку строки по статусу брони.
func (e *Exporter) rowStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.StatusCancelled:
		color = "#FFC7CE"
	case models.StatusPending, models.StatusHold:
		color = "#FFEB9C"
	case models.StatusConfirmed, models.StatusInProgress:
		color = "#C6EFCE"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Vertical: "top",
			WrapText: true,
		},
	})
}
