package service

import (
	"context"
	"encoding/json"

	"ledrent/internal/domain"
	"ledrent/internal/events"
	"ledrent/internal/models"

	"github.com/rs/zerolog"
)

// ActivityService reads the audit log; the recorder half fills it by
// subscribing to the event bus.
type ActivityService struct {
	repo   domain.Repository
	logger *zerolog.Logger
}

func NewActivityService(repo domain.Repository, logger *zerolog.Logger) *ActivityService {
	return &ActivityService{repo: repo, logger: logger}
}

func (s *ActivityService) ListActivities(ctx context.Context, limit, offset int) ([]*models.Activity, error) {
	if limit <= 0 {
		limit = models.DefaultListLimit
	}
	return s.repo.ListActivities(ctx, limit, offset)
}

func (s *ActivityService) ListEntityActivities(ctx context.Context, entity string, entityID int64) ([]*models.Activity, error) {
	return s.repo.ListEntityActivities(ctx, entity, entityID)
}

// RegisterRecorder подписывает журнал действий на все события шины.
// Ошибка записи логируется и не прерывает публикацию.
func (s *ActivityService) RegisterRecorder(bus *events.EventBus) {
	bus.Subscribe("", func(event *events.Event) error {
		var payload events.AuditPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			s.logger.Warn().Err(err).Str("event_type", event.Type).Msg("skip malformed event payload")
			return nil
		}

		activity := &models.Activity{
			ActorID:  payload.ActorID,
			Action:   event.Type,
			Entity:   payload.Entity,
			EntityID: payload.EntityID,
			Detail:   payload.Detail,
		}
		if err := s.repo.CreateActivity(context.Background(), activity); err != nil {
			s.logger.Error().Err(err).Str("event_type", event.Type).Msg("record activity failed")
		}
		return nil
	})
}
