package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotStep шаг сетки кандидатов, не зависит от длительности встречи
const SlotStep = 30 * time.Minute

// AvailabilityService вычисляет свободные слоты консультанта
type AvailabilityService struct {
	advisors   AdvisorStore
	windows    WindowStore
	busy       BusyIntervalProvider
	meetings   MeetingReader
	defaultLoc *time.Location
	clock      Clock
	logger     *zap.Logger
}

func NewAvailabilityService(
	advisors AdvisorStore,
	windows WindowStore,
	busy BusyIntervalProvider,
	meetings MeetingReader,
	defaultLoc *time.Location,
	clock Clock,
	logger *zap.Logger,
) *AvailabilityService {
	if defaultLoc == nil {
		defaultLoc = time.UTC
	}
	return &AvailabilityService{
		advisors:   advisors,
		windows:    windows,
		busy:       busy,
		meetings:   meetings,
		defaultLoc: defaultLoc,
		clock:      clock,
		logger:     logger,
	}
}

// GenerateSlots возвращает упорядоченные по времени свободные слоты консультанта.
//
// Дни перебираются от дня rangeStart до дня rangeEnd включительно в часовом поясе
// консультанта. Кандидаты идут с шагом SlotStep от начала каждого еженедельного слота
// и должны целиком помещаться в него. Прошедшие кандидаты отбрасываются.
// Занятость запрашивается у провайдера один раз на весь диапазон.
func (s *AvailabilityService) GenerateSlots(
	ctx context.Context,
	advisorID uuid.UUID,
	rangeStart, rangeEnd time.Time,
	duration time.Duration,
	windowIDs []uuid.UUID,
) ([]model.Interval, error) {
	if duration <= 0 {
		return nil, invalidField("duration", "must be positive")
	}
	if rangeEnd.Before(rangeStart) {
		return nil, invalidField("endDate", "must not be before startDate")
	}

	advisor, err := s.advisors.GetByID(ctx, advisorID)
	if err != nil {
		return nil, fmt.Errorf("get advisor: %w", err)
	}
	if advisor == nil {
		return []model.Interval{}, nil
	}

	windows, err := s.windows.ListActiveWindows(ctx, advisorID, windowIDs)
	if err != nil {
		return nil, fmt.Errorf("list active windows: %w", err)
	}
	if len(windows) == 0 {
		return []model.Interval{}, nil
	}

	loc := advisor.Location(s.defaultLoc)
	now := s.clock.now()

	// Прошедшие дни не дают кандидатов, начало диапазона не раньше сегодняшнего дня
	if today := startOfDay(now, loc); rangeStart.Before(today) {
		rangeStart = today
	}
	if rangeEnd.Before(rangeStart) {
		return []model.Interval{}, nil
	}

	var candidates []model.Interval
	last := startOfDay(rangeEnd, loc)
	for day := startOfDay(rangeStart, loc); !day.After(last); day = nextDay(day) {
		for _, c := range candidatesOn(windows, day, duration) {
			if c.Start.After(now) {
				candidates = append(candidates, c)
			}
		}
	}
	candidates = dedupeSorted(candidates)
	if len(candidates) == 0 {
		return []model.Interval{}, nil
	}

	// Запрашиваем занятость на весь охват кандидатов, не меньше запрошенного диапазона
	queryStart := minTime(rangeStart, candidates[0].Start)
	queryEnd := maxTime(rangeEnd, candidates[len(candidates)-1].End)

	busy, err := s.busy.GetBusyIntervals(ctx, advisorID, queryStart, queryEnd)
	if err != nil {
		s.logger.Error("Failed to get busy intervals",
			zap.String("advisor_id", advisorID.String()),
			zap.Time("range_start", queryStart),
			zap.Time("range_end", queryEnd),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrBusyProvider, err)
	}

	committed, err := s.committedIntervals(ctx, advisorID, queryStart, queryEnd)
	if err != nil {
		return nil, err
	}
	busy = model.MergeIntervals(append(busy, committed...))

	slots := make([]model.Interval, 0, len(candidates))
	for _, c := range candidates {
		if !c.OverlapsAny(busy) {
			slots = append(slots, c)
		}
	}

	s.logger.Debug("Generated available slots",
		zap.String("advisor_id", advisorID.String()),
		zap.Int("windows", len(windows)),
		zap.Int("candidates", len(candidates)),
		zap.Int("available", len(slots)),
	)

	return slots, nil
}

// IsSlotStillAvailable повторно проверяет один интервал по свежим данным провайдера.
// Никогда не использует результаты массового расчёта.
func (s *AvailabilityService) IsSlotStillAvailable(ctx context.Context, advisorID uuid.UUID, start, end time.Time) (bool, error) {
	iv := model.Interval{Start: start, End: end}
	if !iv.Valid() {
		return false, invalidField("startTime", "interval must not be empty")
	}

	busy, err := s.busy.GetBusyIntervals(ctx, advisorID, start, end)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBusyProvider, err)
	}

	return !iv.OverlapsAny(busy), nil
}

// FitsRecurrence проверяет что интервал начинается на сетке одного из активных
// еженедельных слотов консультанта и целиком в него помещается
func (s *AvailabilityService) FitsRecurrence(ctx context.Context, advisorID uuid.UUID, start time.Time, duration time.Duration, windowIDs []uuid.UUID) (bool, error) {
	advisor, err := s.advisors.GetByID(ctx, advisorID)
	if err != nil {
		return false, fmt.Errorf("get advisor: %w", err)
	}
	if advisor == nil {
		return false, nil
	}

	windows, err := s.windows.ListActiveWindows(ctx, advisorID, windowIDs)
	if err != nil {
		return false, fmt.Errorf("list active windows: %w", err)
	}

	day := startOfDay(start, advisor.Location(s.defaultLoc))
	for _, c := range candidatesOn(windows, day, duration) {
		if c.Start.Equal(start) {
			return true, nil
		}
	}
	return false, nil
}

func (s *AvailabilityService) committedIntervals(ctx context.Context, advisorID uuid.UUID, from, to time.Time) ([]model.Interval, error) {
	if s.meetings == nil {
		return nil, nil
	}
	meetings, err := s.meetings.ListScheduledBetween(ctx, advisorID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list scheduled meetings: %w", err)
	}
	intervals := make([]model.Interval, 0, len(meetings))
	for _, m := range meetings {
		intervals = append(intervals, m.Interval())
	}
	return intervals, nil
}

// candidatesOn генерирует кандидатов на день по всем окнам
func candidatesOn(windows []*model.SchedulingWindow, day time.Time, duration time.Duration) []model.Interval {
	var out []model.Interval
	weekday := model.WeekdayOf(day)
	for _, w := range windows {
		for _, slot := range w.SlotsOn(weekday) {
			// в день перевода часов назад слот длиннее по абсолютному времени,
			// число кандидатов ограничено длиной слота по часам на стене
			wallMinutes := slot.EndTime.Minutes() - slot.StartTime.Minutes()
			if wallMinutes < int(duration/time.Minute) {
				continue
			}
			limit := (wallMinutes-int(duration/time.Minute))/int(SlotStep/time.Minute) + 1

			anchored := slot.Anchor(day)
			start := anchored.Start
			for i := 0; i < limit && !start.Add(duration).After(anchored.End); i++ {
				out = append(out, model.NewInterval(start, duration))
				start = start.Add(SlotStep)
			}
		}
	}
	return out
}

// dedupeSorted сортирует кандидатов по началу и убирает повторы одного момента
func dedupeSorted(candidates []model.Interval) []model.Interval {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start.Before(candidates[j].Start)
	})
	out := candidates[:0]
	for i, c := range candidates {
		if i > 0 && c.Start.Equal(out[len(out)-1].Start) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

func nextDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, day.Location())
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
