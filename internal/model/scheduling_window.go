package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Weekday день недели, 0 = Sunday, 6 = Saturday
type Weekday int

const (
	Sunday Weekday = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// ParseWeekday разбирает символьное имя дня недели ("Monday", "monday", "Mon")
func ParseWeekday(s string) (Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for d := Sunday; d <= Saturday; d++ {
		full := strings.ToLower(time.Weekday(d).String())
		if name == full || (len(name) == 3 && strings.HasPrefix(full, name)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown day of week %q", s)
}

// WeekdayOf возвращает день недели для даты
func WeekdayOf(t time.Time) Weekday {
	return Weekday(t.Weekday())
}

func (d Weekday) Valid() bool {
	return d >= Sunday && d <= Saturday
}

func (d Weekday) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Weekday(%d)", int(d))
	}
	return time.Weekday(d).String()
}

func (d Weekday) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid day of week %d", int(d))
	}
	return []byte(d.String()), nil
}

func (d *Weekday) UnmarshalText(text []byte) error {
	parsed, err := ParseWeekday(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// TimeOfDay время суток без даты
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay разбирает строку формата "HH:MM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// Minutes возвращает количество минут от полуночи
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Minutes() < other.Minutes()
}

// On привязывает время суток к календарной дате в её часовом поясе
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// WeeklySlot правило повторения: день недели и диапазон времени суток
type WeeklySlot struct {
	ID        uuid.UUID `json:"id"`
	WindowID  uuid.UUID `json:"window_id"`
	DayOfWeek Weekday   `json:"day_of_week"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
}

// Validate проверяет инвариант start < end
func (s WeeklySlot) Validate() error {
	if !s.DayOfWeek.Valid() {
		return fmt.Errorf("invalid day of week %d", int(s.DayOfWeek))
	}
	if !s.StartTime.Before(s.EndTime) {
		return fmt.Errorf("start time %s must be before end time %s", s.StartTime, s.EndTime)
	}
	return nil
}

// Anchor привязывает слот к конкретной дате
func (s WeeklySlot) Anchor(day time.Time) Interval {
	return Interval{Start: s.StartTime.On(day), End: s.EndTime.On(day)}
}

// SchedulingWindow именованный набор еженедельных диапазонов доступности
type SchedulingWindow struct {
	ID        uuid.UUID    `json:"id"`
	AdvisorID uuid.UUID    `json:"advisor_id"`
	Name      string       `json:"name"`
	IsActive  bool         `json:"is_active"`
	Slots     []WeeklySlot `json:"slots"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// SlotsOn возвращает слоты окна, совпадающие с днём недели
func (w *SchedulingWindow) SlotsOn(day Weekday) []WeeklySlot {
	var slots []WeeklySlot
	for _, s := range w.Slots {
		if s.DayOfWeek == day {
			slots = append(slots, s)
		}
	}
	return slots
}
