package model

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Interval полуоткрытый интервал времени [Start, End)
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval создаёт интервал длительностью duration начиная со start
func NewInterval(start time.Time, duration time.Duration) Interval {
	return Interval{Start: start, End: start.Add(duration)}
}

// Duration возвращает длительность интервала
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Valid сообщает что интервал непустой
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// Overlaps проверяет пересечение двух полуоткрытых интервалов.
// [a0,a1) и [b0,b1) пересекаются тогда и только тогда, когда a0 < b1 и b0 < a1.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Contains проверяет что other целиком лежит внутри i
func (i Interval) Contains(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// OverlapsAny проверяет пересечение хотя бы с одним интервалом из набора
func (i Interval) OverlapsAny(set []Interval) bool {
	for _, other := range set {
		if i.Overlaps(other) {
			return true
		}
	}
	return false
}

// MergeIntervals сортирует интервалы и склеивает пересекающиеся и смежные.
// Пустые интервалы отбрасываются.
func MergeIntervals(intervals []Interval) []Interval {
	valid := make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Valid() {
			valid = append(valid, iv)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	sort.Slice(valid, func(a, b int) bool {
		return valid[a].Start.Before(valid[b].Start)
	})

	merged := []Interval{valid[0]}
	for _, iv := range valid[1:] {
		last := &merged[len(merged)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}

	return merged
}

// BusyInterval занятость консультанта из внешнего календаря
type BusyInterval struct {
	AdvisorID uuid.UUID `json:"advisor_id"`
	Interval
}
