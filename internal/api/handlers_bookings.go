package api

import (
	"encoding/json"
	"net/http"
	"time"

	"ledrent/internal/models"
)

// parseDate принимает RFC3339 или короткую дату YYYY-MM-DD.
func parseDate(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// queryWindow читает обязательные параметры start и end.
func queryWindow(r *http.Request) (time.Time, time.Time, bool) {
	start, ok := parseDate(r.URL.Query().Get("start"))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	end, ok := parseDate(r.URL.Query().Get("end"))
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

type createBookingRequest struct {
	ClientID  int64     `json:"client_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Notes     string    `json:"notes"`
	Items     []struct {
		ItemKind string `json:"item_kind"`
		ItemID   int64  `json:"item_id"`
		Quantity int64  `json:"quantity"`
	} `json:"items"`
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	start, end, ok := queryWindow(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}
	status := r.URL.Query().Get("status")
	limit := queryInt(r, "limit", models.DefaultListLimit)
	offset := queryInt(r, "offset", 0)

	bookings, err := s.bookings.ListBookings(r.Context(), start, end, status, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Items) == 0 {
		writeError(w, http.StatusBadRequest, "at least one booking item is required")
		return
	}

	booking := &models.Booking{
		ClientID:  req.ClientID,
		UserID:    actorID(r),
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Notes:     req.Notes,
	}
	for _, it := range req.Items {
		booking.Items = append(booking.Items, models.BookingItem{
			ItemKind: it.ItemKind,
			ItemID:   it.ItemID,
			Quantity: it.Quantity,
		})
	}

	if err := s.bookings.CreateBooking(r.Context(), booking); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"booking": booking})
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func (s *HTTPServer) handleBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.bookings.TransitionBooking(r.Context(), id, req.Version, req.Status, actorID(r)); err != nil {
		writeDomainError(w, err)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func (s *HTTPServer) handleBookingPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var req struct {
		PaymentStatus string `json:"payment_status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.bookings.SetPaymentStatus(r.Context(), id, req.PaymentStatus, actorID(r)); err != nil {
		writeDomainError(w, err)
		return
	}

	booking, err := s.bookings.GetBooking(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"booking": booking})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != models.KindEquipment && kind != models.KindProduct {
		writeError(w, http.StatusBadRequest, "kind must be equipment or product")
		return
	}
	itemID := int64(queryInt(r, "item_id", 0))
	if itemID <= 0 {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	start, end, ok := queryWindow(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start and end query parameters are required")
		return
	}

	availability, err := s.bookings.GetItemAvailability(r.Context(), kind, itemID, start, end)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	body := map[string]any{"availability": availability}
	if qty := int64(queryInt(r, "qty", 0)); qty > 0 {
		ok, cerr := s.bookings.CheckAvailability(r.Context(), kind, itemID, qty, start, end)
		if cerr != nil {
			writeDomainError(w, cerr)
			return
		}
		body["sufficient"] = ok
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *HTTPServer) handleDailyAvailability(w http.ResponseWriter, r *http.Request) {
	kind := r.URL.Query().Get("kind")
	if kind != models.KindEquipment && kind != models.KindProduct {
		writeError(w, http.StatusBadRequest, "kind must be equipment or product")
		return
	}
	itemID := int64(queryInt(r, "item_id", 0))
	if itemID <= 0 {
		writeError(w, http.StatusBadRequest, "item_id is required")
		return
	}
	start, ok := parseDate(r.URL.Query().Get("start"))
	if !ok {
		writeError(w, http.StatusBadRequest, "start query parameter is required")
		return
	}
	days := queryInt(r, "days", 14)
	if days > 90 {
		days = 90
	}

	daily, err := s.bookings.GetDailyAvailability(r.Context(), kind, itemID, start, days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": daily})
}
