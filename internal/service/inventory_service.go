package service

import (
	"context"
	"strings"

	"ledrent/internal/domain"
	"ledrent/internal/events"
	"ledrent/internal/models"

	"github.com/rs/zerolog"
)

type InventoryService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewInventoryService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *InventoryService {
	return &InventoryService{repo: repo, eventBus: eventBus, logger: logger}
}

func validateCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return Invalid("code is required")
	}
	if strings.ContainsAny(code, " \t\n") {
		return Invalid("code must not contain whitespace")
	}
	return nil
}

func (s *InventoryService) CreateEquipment(ctx context.Context, eq *models.Equipment, actorID int64) error {
	if err := validateCode(eq.Code); err != nil {
		return err
	}
	if eq.Name == "" {
		return Invalid("name is required")
	}
	if eq.TotalQuantity < 0 {
		return Invalid("total quantity must not be negative")
	}
	// Новая позиция сразу доступна для брони
	eq.IsActive = true

	if err := s.repo.CreateEquipment(ctx, eq); err != nil {
		return err
	}
	s.publishAudit(events.EventInventoryCreated, actorID, models.KindEquipment, eq.ID, eq.Code)
	return nil
}

func (s *InventoryService) UpdateEquipment(ctx context.Context, eq *models.Equipment, actorID int64) error {
	if err := validateCode(eq.Code); err != nil {
		return err
	}
	if eq.TotalQuantity < 0 {
		return Invalid("total quantity must not be negative")
	}

	if err := s.repo.UpdateEquipment(ctx, eq); err != nil {
		return err
	}
	s.publishAudit(events.EventInventoryUpdated, actorID, models.KindEquipment, eq.ID, eq.Code)
	return nil
}

func (s *InventoryService) DeleteEquipment(ctx context.Context, id, actorID int64) error {
	if err := s.repo.DeleteEquipment(ctx, id); err != nil {
		return err
	}
	s.publishAudit(events.EventInventoryDeleted, actorID, models.KindEquipment, id, "")
	return nil
}

func (s *InventoryService) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	return s.repo.GetEquipment(ctx, id)
}

func (s *InventoryService) ListEquipment(ctx context.Context, activeOnly bool) ([]*models.Equipment, error) {
	return s.repo.ListEquipment(ctx, activeOnly)
}

func (s *InventoryService) CreateProduct(ctx context.Context, p *models.Product, actorID int64) error {
	if err := validateCode(p.Code); err != nil {
		return err
	}
	if p.Name == "" {
		return Invalid("name is required")
	}
	if p.TotalLength < 0 {
		return Invalid("total length must not be negative")
	}
	p.IsActive = true

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return err
	}
	s.publishAudit(events.EventInventoryCreated, actorID, models.KindProduct, p.ID, p.Code)
	return nil
}

func (s *InventoryService) UpdateProduct(ctx context.Context, p *models.Product, actorID int64) error {
	if err := validateCode(p.Code); err != nil {
		return err
	}
	if p.TotalLength < 0 {
		return Invalid("total length must not be negative")
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		return err
	}
	s.publishAudit(events.EventInventoryUpdated, actorID, models.KindProduct, p.ID, p.Code)
	return nil
}

func (s *InventoryService) DeleteProduct(ctx context.Context, id, actorID int64) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.publishAudit(events.EventInventoryDeleted, actorID, models.KindProduct, id, "")
	return nil
}

func (s *InventoryService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetProduct(ctx, id)
}

func (s *InventoryService) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	return s.repo.ListProducts(ctx, activeOnly)
}

func (s *InventoryService) publishAudit(eventType string, actorID int64, entity string, entityID int64, detail string) {
	if s.eventBus == nil {
		return
	}
	payload := events.AuditPayload{ActorID: actorID, Entity: entity, EntityID: entityID, Detail: detail}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
