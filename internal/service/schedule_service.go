package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
)

// AvailabilityResult свободные слоты и вопросы ссылки
type AvailabilityResult struct {
	Link      *model.SchedulingLink
	Slots     []model.Interval
	Questions []model.Question
}

// ScheduleService публичные операции по ссылке: список слотов и бронирование
type ScheduleService struct {
	validator    *LinkValidator
	availability *AvailabilityService
	booking      *BookingService
	clock        Clock
}

func NewScheduleService(validator *LinkValidator, availability *AvailabilityService, booking *BookingService, clock Clock) *ScheduleService {
	return &ScheduleService{
		validator:    validator,
		availability: availability,
		booking:      booking,
		clock:        clock,
	}
}

// Availability возвращает свободные слоты ссылки в диапазоне дат.
// Конец диапазона ограничивается горизонтом max_days_in_advance.
func (s *ScheduleService) Availability(ctx context.Context, slug string, rangeStart, rangeEnd time.Time) (*AvailabilityResult, error) {
	if rangeEnd.Before(rangeStart) {
		return nil, invalidField("endDate", "must not be before startDate")
	}

	verdict, err := s.validator.Validate(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !verdict.Valid {
		return nil, verdict.Err()
	}
	link := verdict.Link

	horizon := s.clock.now().AddDate(0, 0, link.MaxDaysInAdvance)
	if rangeEnd.After(horizon) {
		rangeEnd = horizon
	}

	result := &AvailabilityResult{
		Link:      link,
		Slots:     []model.Interval{},
		Questions: link.Questions,
	}
	if rangeEnd.Before(rangeStart) {
		return result, nil
	}

	slots, err := s.availability.GenerateSlots(ctx, link.AdvisorID, rangeStart, rangeEnd, link.Duration(), link.WindowIDs)
	if err != nil {
		return nil, err
	}
	for _, slot := range slots {
		if !slot.Start.After(horizon) {
			result.Slots = append(result.Slots, slot)
		}
	}

	return result, nil
}

// Book бронирует встречу по ссылке
func (s *ScheduleService) Book(ctx context.Context, req BookingRequest) (*model.Meeting, error) {
	return s.booking.Book(ctx, req)
}
