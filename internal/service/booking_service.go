package service

import (
	"context"
	"fmt"
	"time"

	"ledrent/internal/database"
	"ledrent/internal/domain"
	"ledrent/internal/events"
	"ledrent/internal/metrics"
	"ledrent/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ValidateBookingWindow требует непустое окно, начинающееся не в прошлом.
func (s *BookingService) ValidateBookingWindow(start, end time.Time) error {
	if !end.After(start) {
		return Invalid("booking end must be after start")
	}
	if start.Before(time.Now()) {
		return database.ErrPastDate
	}
	return nil
}

// validateItems отсекает строки с неположительным количеством и неизвестным
// видом позиции до любых проверок ёмкости: отрицательное количество иначе
// вычиталось бы из суммы резервов.
func validateItems(items []models.BookingItem) error {
	if len(items) == 0 {
		return Invalid("at least one line item is required")
	}
	for _, item := range items {
		if item.ItemKind != models.KindEquipment && item.ItemKind != models.KindProduct {
			return Invalid("unknown item kind: %s", item.ItemKind)
		}
		if item.Quantity <= 0 {
			return Invalid("item quantity must be positive")
		}
	}
	return nil
}

func (s *BookingService) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if err := s.ValidateBookingWindow(booking.StartDate, booking.EndDate); err != nil {
		return err
	}
	if err := validateItems(booking.Items); err != nil {
		return err
	}

	// Предварительная проверка до транзакции: быстрый отказ без записи.
	for _, item := range booking.Items {
		available, err := s.repo.CheckAvailability(ctx, item.ItemKind, item.ItemID, item.Quantity, booking.StartDate, booking.EndDate)
		if err != nil {
			return err
		}
		if !available {
			return database.ErrNotAvailable
		}
	}

	// Создание с перепроверкой внутри транзакции закрывает гонку
	// между конкурентными бронями одного окна.
	if err := s.repo.CreateBookingWithItems(ctx, booking); err != nil {
		return err
	}

	metrics.IncBookingCreated()
	s.publishAudit(events.EventBookingCreated, booking.UserID, "booking", booking.ID,
		fmt.Sprintf("status=%s items=%d", booking.Status, len(booking.Items)))
	return nil
}

// TransitionBooking переводит бронь в новый статус с проверкой таблицы
// переходов и оптимистической блокировкой.
func (s *BookingService) TransitionBooking(ctx context.Context, bookingID, version int64, status string, actorID int64) error {
	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}

	if !models.CanTransition(booking.Status, status) {
		return database.ErrInvalidTransition
	}

	if err := s.repo.UpdateBookingStatusWithVersion(ctx, bookingID, version, status); err != nil {
		return err
	}

	s.publishAudit(events.EventBookingStatus, actorID, "booking", bookingID,
		fmt.Sprintf("%s -> %s", booking.Status, status))
	return nil
}

func (s *BookingService) SetPaymentStatus(ctx context.Context, bookingID int64, paymentStatus string, actorID int64) error {
	switch paymentStatus {
	case models.PaymentUnpaid, models.PaymentPartial, models.PaymentPaid:
	default:
		return Invalid("unknown payment status: %s", paymentStatus)
	}

	if err := s.repo.UpdateBookingPaymentStatus(ctx, bookingID, paymentStatus); err != nil {
		return err
	}

	s.publishAudit(events.EventBookingStatus, actorID, "booking", bookingID, "payment="+paymentStatus)
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

func (s *BookingService) ListBookings(ctx context.Context, start, end time.Time, status string, limit, offset int) ([]*models.Booking, error) {
	return s.repo.ListBookings(ctx, start, end, status, limit, offset)
}

func (s *BookingService) CheckAvailability(ctx context.Context, kind string, itemID, quantity int64, start, end time.Time) (bool, error) {
	return s.repo.CheckAvailability(ctx, kind, itemID, quantity, start, end)
}

func (s *BookingService) GetItemAvailability(ctx context.Context, kind string, itemID int64, start, end time.Time) (*models.Availability, error) {
	return s.repo.GetItemAvailability(ctx, kind, itemID, start, end)
}

func (s *BookingService) GetDailyAvailability(ctx context.Context, kind string, itemID int64, startDate time.Time, days int) ([]*models.DailyAvailability, error) {
	return s.repo.GetDailyAvailability(ctx, kind, itemID, startDate, days)
}

// RunMaintenance переводит просроченные активные брони в returned.
// Ошибка означает, что ни одна бронь не была переведена.
func (s *BookingService) RunMaintenance(ctx context.Context) (int, error) {
	count, err := s.repo.ExpireOverdueBookings(ctx, time.Now())
	if err != nil {
		s.logger.Error().Err(err).Msg("maintenance pass failed")
		return 0, err
	}

	metrics.AddExpired(count)
	if count > 0 {
		s.logger.Info().Int("expired", count).Msg("maintenance pass completed")
		s.publishAudit(events.EventBookingExpired, 0, "booking", 0,
			fmt.Sprintf("expired=%d", count))
	}
	return count, nil
}

func (s *BookingService) publishAudit(eventType string, actorID int64, entity string, entityID int64, detail string) {
	if s.eventBus == nil {
		return
	}
	payload := events.AuditPayload{
		ActorID:  actorID,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("entity_id", entityID).Msg("publish event error")
	}
}
