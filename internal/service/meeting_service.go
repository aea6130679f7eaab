package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	upcomingWindow = 7 * 24 * time.Hour
	pastLimit      = 100
)

// MeetingRepository хранилище встреч для кабинета консультанта
type MeetingRepository interface {
	ListByAdvisorBetween(ctx context.Context, advisorID uuid.UUID, from, to time.Time, status model.MeetingStatus) ([]*model.Meeting, error)
	ListPast(ctx context.Context, advisorID uuid.UUID, before time.Time, limit int) ([]*model.Meeting, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Meeting, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.MeetingStatus) (bool, error)
	CompleteEnded(ctx context.Context, now time.Time) (int64, error)
}

// MeetingService просмотр и смена статуса встреч
type MeetingService struct {
	meetings MeetingRepository
	clock    Clock
	logger   *zap.Logger
}

func NewMeetingService(meetings MeetingRepository, clock Clock, logger *zap.Logger) *MeetingService {
	return &MeetingService{meetings: meetings, clock: clock, logger: logger}
}

// Upcoming запланированные встречи на ближайшие 7 дней
func (s *MeetingService) Upcoming(ctx context.Context, advisorID uuid.UUID) ([]*model.Meeting, error) {
	now := s.clock.now()
	return s.meetings.ListByAdvisorBetween(ctx, advisorID, now, now.Add(upcomingWindow), model.MeetingStatusScheduled)
}

// Past прошедшие встречи, от новых к старым
func (s *MeetingService) Past(ctx context.Context, advisorID uuid.UUID) ([]*model.Meeting, error) {
	return s.meetings.ListPast(ctx, advisorID, s.clock.now(), pastLimit)
}

// Get встреча консультанта вместе с ответами
func (s *MeetingService) Get(ctx context.Context, advisorID, meetingID uuid.UUID) (*model.Meeting, error) {
	meeting, err := s.meetings.GetByID(ctx, meetingID)
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if meeting == nil || meeting.AdvisorID != advisorID {
		return nil, ErrNotFound
	}
	return meeting, nil
}

// Cancel отменяет запланированную встречу, интервал снова становится свободным
func (s *MeetingService) Cancel(ctx context.Context, advisorID, meetingID uuid.UUID) (*model.Meeting, error) {
	meeting, err := s.Get(ctx, advisorID, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.Status.CanTransitionTo(model.MeetingStatusCancelled) {
		return nil, ErrInvalidTransition
	}

	updated, err := s.meetings.UpdateStatus(ctx, meetingID, model.MeetingStatusScheduled, model.MeetingStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("update meeting status: %w", err)
	}
	if !updated {
		return nil, ErrInvalidTransition
	}

	meeting.Status = model.MeetingStatusCancelled

	s.logger.Info("Meeting cancelled",
		zap.String("meeting_id", meetingID.String()),
		zap.String("advisor_id", advisorID.String()),
	)

	return meeting, nil
}

// CompleteEnded переводит завершившиеся встречи в статус completed
func (s *MeetingService) CompleteEnded(ctx context.Context) (int64, error) {
	count, err := s.meetings.CompleteEnded(ctx, s.clock.now())
	if err != nil {
		return 0, fmt.Errorf("complete ended meetings: %w", err)
	}
	return count, nil
}
