package api

import (
	"fmt"
	"net/http"
	"path/filepath"
)

// handleExportBookings выгружает брони за период в xlsx и отдает файл.
func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	start, end, ok := queryWindow(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	bookings, err := s.bookings.ListBookings(r.Context(), start, end, "", exportListLimit, 0)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	filePath, err := s.exporter.BookingsReport(bookings, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("bookings export failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(filePath)))
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, filePath)
}

// exportListLimit ограничивает размер выгрузки.
const exportListLimit = 10000
