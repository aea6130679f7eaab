package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WindowRepository хранилище окон расписания
type WindowRepository interface {
	Create(ctx context.Context, window *model.SchedulingWindow) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.SchedulingWindow, error)
	ListByAdvisor(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingWindow, error)
	Update(ctx context.Context, window *model.SchedulingWindow) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// WindowInput данные для создания и редактирования окна
type WindowInput struct {
	Name     string
	IsActive bool
	Slots    []model.WeeklySlot
}

func (in *WindowInput) validate() error {
	v := &ValidationError{}
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		v.Add("name", "is required")
	}
	for i, slot := range in.Slots {
		if err := slot.Validate(); err != nil {
			v.Add(fmt.Sprintf("timeSlots[%d]", i), err.Error())
		}
	}
	return v.OrNil()
}

// WindowService управление окнами расписания консультанта
type WindowService struct {
	windows WindowRepository
	logger  *zap.Logger
}

func NewWindowService(windows WindowRepository, logger *zap.Logger) *WindowService {
	return &WindowService{windows: windows, logger: logger}
}

// Create создаёт окно вместе с еженедельными слотами
func (s *WindowService) Create(ctx context.Context, advisorID uuid.UUID, in WindowInput) (*model.SchedulingWindow, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	window := &model.SchedulingWindow{
		AdvisorID: advisorID,
		Name:      in.Name,
		IsActive:  in.IsActive,
		Slots:     in.Slots,
	}

	if err := s.windows.Create(ctx, window); err != nil {
		return nil, fmt.Errorf("create window: %w", err)
	}

	s.logger.Info("Scheduling window created",
		zap.String("window_id", window.ID.String()),
		zap.String("advisor_id", advisorID.String()),
		zap.Int("slots", len(window.Slots)),
	)

	return window, nil
}

// List возвращает все окна консультанта
func (s *WindowService) List(ctx context.Context, advisorID uuid.UUID) ([]*model.SchedulingWindow, error) {
	return s.windows.ListByAdvisor(ctx, advisorID)
}

// Get возвращает окно консультанта
func (s *WindowService) Get(ctx context.Context, advisorID, windowID uuid.UUID) (*model.SchedulingWindow, error) {
	window, err := s.windows.GetByID(ctx, windowID)
	if err != nil {
		return nil, fmt.Errorf("get window: %w", err)
	}
	if window == nil || window.AdvisorID != advisorID {
		return nil, ErrNotFound
	}
	return window, nil
}

// Update заменяет имя, активность и набор слотов окна
func (s *WindowService) Update(ctx context.Context, advisorID, windowID uuid.UUID, in WindowInput) (*model.SchedulingWindow, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	window, err := s.Get(ctx, advisorID, windowID)
	if err != nil {
		return nil, err
	}

	window.Name = in.Name
	window.IsActive = in.IsActive
	window.Slots = in.Slots

	if err := s.windows.Update(ctx, window); err != nil {
		return nil, fmt.Errorf("update window: %w", err)
	}

	s.logger.Info("Scheduling window updated",
		zap.String("window_id", windowID.String()),
		zap.Bool("is_active", window.IsActive),
		zap.Int("slots", len(window.Slots)),
	)

	return window, nil
}

// Delete удаляет окно (слоты удаляются каскадом)
func (s *WindowService) Delete(ctx context.Context, advisorID, windowID uuid.UUID) error {
	if _, err := s.Get(ctx, advisorID, windowID); err != nil {
		return err
	}

	if err := s.windows.Delete(ctx, windowID); err != nil {
		return fmt.Errorf("delete window: %w", err)
	}

	s.logger.Info("Scheduling window deleted",
		zap.String("window_id", windowID.String()),
		zap.String("advisor_id", advisorID.String()),
	)

	return nil
}
