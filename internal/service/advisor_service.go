package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AdvisorRepository хранилище консультантов
type AdvisorRepository interface {
	AdvisorStore
	Upsert(ctx context.Context, advisor *model.Advisor) error
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.Advisor, error)
	SetTelegramChatID(ctx context.Context, advisorID uuid.UUID, chatID *int64) error
}

// AdvisorService локальная копия консультантов из внешнего сервиса идентификации
type AdvisorService struct {
	advisors AdvisorRepository
	logger   *zap.Logger
}

func NewAdvisorService(advisors AdvisorRepository, logger *zap.Logger) *AdvisorService {
	return &AdvisorService{advisors: advisors, logger: logger}
}

// Ensure создаёт или обновляет консультанта по данным токена
func (s *AdvisorService) Ensure(ctx context.Context, id uuid.UUID, email, name string) (*model.Advisor, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return s.Get(ctx, id)
	}

	advisor := &model.Advisor{ID: id, Email: email, Name: strings.TrimSpace(name)}
	if err := s.advisors.Upsert(ctx, advisor); err != nil {
		return nil, fmt.Errorf("upsert advisor: %w", err)
	}
	return advisor, nil
}

// Get возвращает консультанта по ID
func (s *AdvisorService) Get(ctx context.Context, id uuid.UUID) (*model.Advisor, error) {
	advisor, err := s.advisors.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get advisor: %w", err)
	}
	if advisor == nil {
		return nil, ErrNotFound
	}
	return advisor, nil
}

// GetByTelegramChat возвращает консультанта, привязанного к чату
func (s *AdvisorService) GetByTelegramChat(ctx context.Context, chatID int64) (*model.Advisor, error) {
	advisor, err := s.advisors.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get advisor by telegram chat: %w", err)
	}
	if advisor == nil {
		return nil, ErrNotFound
	}
	return advisor, nil
}

// BindTelegram привязывает чат Telegram для уведомлений; nil отвязывает
func (s *AdvisorService) BindTelegram(ctx context.Context, advisorID uuid.UUID, chatID *int64) error {
	if _, err := s.Get(ctx, advisorID); err != nil {
		return err
	}
	if err := s.advisors.SetTelegramChatID(ctx, advisorID, chatID); err != nil {
		return fmt.Errorf("set telegram chat: %w", err)
	}

	s.logger.Info("Advisor telegram chat updated",
		zap.String("advisor_id", advisorID.String()),
		zap.Bool("bound", chatID != nil),
	)
	return nil
}
