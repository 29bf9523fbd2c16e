package service

import (
	"context"
	"strings"

	"ledrent/internal/domain"
	"ledrent/internal/events"
	"ledrent/internal/models"

	"github.com/rs/zerolog"
)

type ClientService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewClientService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ClientService {
	return &ClientService{repo: repo, eventBus: eventBus, logger: logger}
}

func validateClient(c *models.Client) error {
	if strings.TrimSpace(c.Name) == "" {
		return Invalid("name is required")
	}
	if strings.TrimSpace(c.Document) == "" {
		return Invalid("document is required")
	}
	return nil
}

func (s *ClientService) CreateClient(ctx context.Context, client *models.Client, actorID int64) error {
	if err := validateClient(client); err != nil {
		return err
	}

	if err := s.repo.CreateClient(ctx, client); err != nil {
		return err
	}
	s.publishAudit(events.EventClientCreated, actorID, client.ID, client.Document)
	return nil
}

func (s *ClientService) UpdateClient(ctx context.Context, client *models.Client, actorID int64) error {
	if err := validateClient(client); err != nil {
		return err
	}

	if err := s.repo.UpdateClient(ctx, client); err != nil {
		return err
	}
	s.publishAudit(events.EventClientUpdated, actorID, client.ID, client.Document)
	return nil
}

func (s *ClientService) DeleteClient(ctx context.Context, id, actorID int64) error {
	if err := s.repo.DeleteClient(ctx, id); err != nil {
		return err
	}
	s.publishAudit(events.EventClientDeleted, actorID, id, "")
	return nil
}

func (s *ClientService) GetClient(ctx context.Context, id int64) (*models.Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *ClientService) ListClients(ctx context.Context, limit, offset int) ([]*models.Client, error) {
	if limit <= 0 {
		limit = models.DefaultListLimit
	}
	return s.repo.ListClients(ctx, limit, offset)
}

func (s *ClientService) publishAudit(eventType string, actorID, entityID int64, detail string) {
	if s.eventBus == nil {
		return
	}
	payload := events.AuditPayload{ActorID: actorID, Entity: "client", EntityID: entityID, Detail: detail}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
