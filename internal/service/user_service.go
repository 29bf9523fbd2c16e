package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ledrent/internal/auth"
	"ledrent/internal/database"
	"ledrent/internal/domain"
	"ledrent/internal/events"
	"ledrent/internal/metrics"
	"ledrent/internal/models"

	"github.com/rs/zerolog"
)

// ErrInvalidCredentials скрывает, что именно не подошло: email или пароль.
var ErrInvalidCredentials = errors.New("invalid email or password")

type UserService struct {
	repo       domain.Repository
	eventBus   domain.EventPublisher
	bcryptCost int
	logger     *zerolog.Logger
}

func NewUserService(repo domain.Repository, eventBus domain.EventPublisher, bcryptCost int, logger *zerolog.Logger) *UserService {
	return &UserService{
		repo:       repo,
		eventBus:   eventBus,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func (s *UserService) CreateUser(ctx context.Context, name, email, password string, isAdmin bool, actorID int64) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, Invalid("valid email is required")
	}
	if len(password) < 8 {
		return nil, Invalid("password must be at least 8 characters")
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.publishAudit(events.EventUserCreated, actorID, user.ID, email)
	return user, nil
}

// Authenticate проверяет пару email/пароль; при успехе обновляет
// отметку последнего входа.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			metrics.IncLoginFailure()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		metrics.IncLoginFailure()
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.UpdateUserLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("user_id", user.ID).Msg("update last login failed")
	}

	s.publishAudit(events.EventUserLogin, user.ID, user.ID, "")
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// EnsureBootstrapUser создает первого администратора, если таблица пуста.
func (s *UserService) EnsureBootstrapUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := s.repo.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if _, err := s.CreateUser(ctx, "Administrator", email, password, true, 0); err != nil {
		return fmt.Errorf("bootstrap user: %w", err)
	}
	s.logger.Info().Str("email", email).Msg("bootstrap admin user created")
	return nil
}

func (s *UserService) publishAudit(eventType string, actorID, entityID int64, detail string) {
	if s.eventBus == nil {
		return
	}
	payload := events.AuditPayload{ActorID: actorID, Entity: "user", EntityID: entityID, Detail: detail}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
