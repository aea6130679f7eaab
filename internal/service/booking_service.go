package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AnswerInput ответ клиента на вопрос ссылки
type AnswerInput struct {
	QuestionID uuid.UUID
	Text       string
}

// BookingRequest запрос клиента на бронирование
type BookingRequest struct {
	Slug           string
	StartTime      time.Time
	ClientEmail    string
	ClientLinkedIn *string
	Answers        []AnswerInput
}

func (r *BookingRequest) validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(r.Slug) == "" {
		v.Add("slug", "is required")
	}
	if r.StartTime.IsZero() {
		v.Add("startTime", "is required")
	}
	r.ClientEmail = strings.TrimSpace(r.ClientEmail)
	if r.ClientEmail == "" {
		v.Add("clientEmail", "is required")
	} else if _, err := mail.ParseAddress(r.ClientEmail); err != nil {
		v.Add("clientEmail", "must be a valid email")
	}
	if r.ClientLinkedIn != nil && strings.TrimSpace(*r.ClientLinkedIn) == "" {
		r.ClientLinkedIn = nil
	}
	return v.OrNil()
}

// BookingService превращает выбор клиента в забронированную встречу
type BookingService struct {
	validator      *LinkValidator
	availability   *AvailabilityService
	store          BookingStore
	effects        *SideEffects
	clock          Clock
	sideEffectWait time.Duration
	logger         *zap.Logger
}

func NewBookingService(
	validator *LinkValidator,
	availability *AvailabilityService,
	store BookingStore,
	effects *SideEffects,
	clock Clock,
	sideEffectWait time.Duration,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		validator:      validator,
		availability:   availability,
		store:          store,
		effects:        effects,
		clock:          clock,
		sideEffectWait: sideEffectWait,
		logger:         logger,
	}
}

// Book бронирует встречу по ссылке.
//
// Проверка ссылки и доступности интервала повторяется внутри транзакции после
// блокировки строки ссылки и консультанта, поэтому из N конкурентных попыток на
// пересекающиеся интервалы проходит ровно одна, а usage_count не превышает лимит.
// Побочные эффекты запускаются после commit и не откатывают бронирование.
func (s *BookingService) Book(ctx context.Context, req BookingRequest) (*model.Meeting, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	verdict, err := s.validator.Validate(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		return nil, verdict.Err()
	}

	if err := s.precheck(ctx, verdict.Link, req.StartTime); err != nil {
		return nil, err
	}

	var (
		meeting *model.Meeting
		link    *model.SchedulingLink
	)

	err = s.store.InTx(ctx, func(ctx context.Context, tx BookingTx) error {
		locked, err := tx.LockLinkBySlug(ctx, req.Slug)
		if err != nil {
			return fmt.Errorf("lock link: %w", err)
		}
		if v := ValidateLink(locked, s.clock.now()); !v.Valid {
			return v.Err()
		}

		iv := model.NewInterval(req.StartTime, locked.Duration())

		if err := tx.LockAdvisor(ctx, locked.AdvisorID); err != nil {
			return fmt.Errorf("lock advisor: %w", err)
		}

		free, err := s.availability.IsSlotStillAvailable(ctx, locked.AdvisorID, iv.Start, iv.End)
		if err != nil {
			return err
		}
		if !free {
			return ErrSlotUnavailable
		}

		taken, err := tx.HasOverlappingMeeting(ctx, locked.AdvisorID, iv)
		if err != nil {
			return fmt.Errorf("check overlapping meetings: %w", err)
		}
		if taken {
			return ErrSlotUnavailable
		}

		m := &model.Meeting{
			AdvisorID:      locked.AdvisorID,
			LinkID:         locked.ID,
			StartTime:      iv.Start,
			EndTime:        iv.End,
			ClientEmail:    req.ClientEmail,
			ClientLinkedIn: req.ClientLinkedIn,
			Status:         model.MeetingStatusScheduled,
		}
		if err := tx.CreateMeeting(ctx, m); err != nil {
			return fmt.Errorf("create meeting: %w", err)
		}

		answers := collectAnswers(locked, m.ID, req.Answers)
		if len(answers) > 0 {
			if err := tx.CreateAnswers(ctx, answers); err != nil {
				return fmt.Errorf("create answers: %w", err)
			}
		}

		incremented, err := tx.IncrementUsage(ctx, locked.ID)
		if err != nil {
			return fmt.Errorf("increment usage: %w", err)
		}
		if !incremented {
			return &LinkInvalidError{Reason: model.LinkUsageLimitReached}
		}

		m.Answers = answers
		m.LinkName = locked.Name
		meeting = m
		link = locked
		return nil
	})
	if err != nil {
		s.logBookingFailure(req, err)
		return nil, err
	}

	s.logger.Info("Meeting booked",
		zap.String("meeting_id", meeting.ID.String()),
		zap.String("advisor_id", meeting.AdvisorID.String()),
		zap.String("link_id", link.ID.String()),
		zap.Time("start_time", meeting.StartTime),
		zap.Int("answers", len(meeting.Answers)),
	)

	if s.effects != nil {
		done := s.effects.Dispatch(ctx, meeting, link)
		s.awaitSideEffects(done)
	}

	return meeting, nil
}

// precheck быстрые проверки до транзакции: будущее время, горизонт записи, сетка окон
func (s *BookingService) precheck(ctx context.Context, link *model.SchedulingLink, start time.Time) error {
	now := s.clock.now()
	if !start.After(now) {
		return ErrSlotUnavailable
	}
	if start.After(now.AddDate(0, 0, link.MaxDaysInAdvance)) {
		return ErrSlotUnavailable
	}

	fits, err := s.availability.FitsRecurrence(ctx, link.AdvisorID, start, link.Duration(), link.WindowIDs)
	if err != nil {
		return err
	}
	if !fits {
		return ErrSlotUnavailable
	}
	return nil
}

func (s *BookingService) awaitSideEffects(done <-chan struct{}) {
	if s.sideEffectWait <= 0 {
		return
	}
	timer := time.NewTimer(s.sideEffectWait)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		s.logger.Debug("Side effects still running, responding without waiting")
	}
}

func (s *BookingService) logBookingFailure(req BookingRequest, err error) {
	fields := []zap.Field{
		zap.String("slug", req.Slug),
		zap.Time("start_time", req.StartTime),
		zap.Error(err),
	}

	var linkErr *LinkInvalidError
	switch {
	case errors.Is(err, ErrSlotUnavailable), errors.As(err, &linkErr):
		s.logger.Info("Booking rejected", fields...)
	default:
		s.logger.Error("Booking failed", fields...)
	}
}

// collectAnswers оставляет ответы только на вопросы этой ссылки, по одному на вопрос
func collectAnswers(link *model.SchedulingLink, meetingID uuid.UUID, inputs []AnswerInput) []model.Answer {
	seen := make(map[uuid.UUID]bool, len(inputs))
	answers := make([]model.Answer, 0, len(inputs))
	for _, in := range inputs {
		q, ok := link.HasQuestion(in.QuestionID)
		if !ok || seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		answers = append(answers, model.Answer{
			MeetingID:    meetingID,
			QuestionID:   q.ID,
			Text:         in.Text,
			QuestionText: q.Text,
		})
	}
	return answers
}
