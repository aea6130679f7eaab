package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAvailability(store *memStore, busy *fakeBusy, now time.Time) *AvailabilityService {
	return NewAvailabilityService(store, store, busy, store, time.UTC, fixedClock(now), zap.NewNop())
}

func starts(slots []model.Interval) []time.Time {
	out := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Start.UTC())
	}
	return out
}

func TestGenerateSlotsMondayMorning(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 12, 0))

	busy := &fakeBusy{}
	svc := newAvailability(store, busy, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(monday, 9, 0), at(monday, 9, 30), at(monday, 10, 0),
		at(monday, 10, 30), at(monday, 11, 0), at(monday, 11, 30),
	}, starts(slots))
	for _, s := range slots {
		assert.Equal(t, 30*time.Minute, s.Duration())
	}
	assert.Equal(t, 1, busy.callCount())
}

func TestGenerateSlotsExcludesBusy(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 12, 0))

	busy := &fakeBusy{intervals: []model.Interval{{Start: at(monday, 10, 0), End: at(monday, 10, 30)}}}
	svc := newAvailability(store, busy, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Len(t, slots, 5)
	assert.NotContains(t, starts(slots), at(monday, 10, 0))

	// встреча 60 минут не может начаться в 09:30 и 10:00
	slots, err = svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), time.Hour, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(monday, 9, 0), at(monday, 10, 30), at(monday, 11, 0)}, starts(slots))
}

func TestGenerateSlotsSkipsPast(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 12, 0))

	svc := newAvailability(store, &fakeBusy{}, at(monday, 10, 15))

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(monday, 10, 30), at(monday, 11, 0), at(monday, 11, 30)}, starts(slots))
}

func TestGenerateSlotsFarPastRangeStart(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 12, 0))

	busy := &fakeBusy{}
	svc := newAvailability(store, busy, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Len(t, slots, 6)
	require.Equal(t, 1, busy.callCount())
	assert.Equal(t, at(sundayNoon, 0, 0), busy.lastStart)
	assert.Equal(t, at(monday, 23, 59), busy.lastEnd)

	// диапазон целиком в прошлом
	busy = &fakeBusy{}
	svc = newAvailability(store, busy, sundayNoon)
	slots, err = svc.GenerateSlots(context.Background(), advisor.ID, time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC), monday.AddDate(0, 0, -7), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Zero(t, busy.callCount())
}

func TestGenerateSlotsDedupesOverlappingWindows(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 12, 0))
	store.addWindow(advisor.ID, true, weekly(model.Monday, 10, 0, 11, 0), weekly(model.Monday, 9, 0, 12, 0))

	svc := newAvailability(store, &fakeBusy{}, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Len(t, slots, 6)
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Start.Before(slots[i].Start))
	}
}

func TestGenerateSlotsWindowFilterAndInactive(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 10, 0))
	afternoon := store.addWindow(advisor.ID, true, weekly(model.Monday, 14, 0, 15, 0))
	store.addWindow(advisor.ID, false, weekly(model.Monday, 16, 0, 17, 0))

	svc := newAvailability(store, &fakeBusy{}, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, []uuid.UUID{afternoon.ID})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(monday, 14, 0), at(monday, 14, 30)}, starts(slots))

	slots, err = svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Len(t, slots, 4)
}

func TestGenerateSlotsCountsCommittedMeetings(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 12, 0))
	store.addMeeting(&model.Meeting{
		AdvisorID: advisor.ID,
		StartTime: at(monday, 9, 0),
		EndTime:   at(monday, 9, 30),
		Status:    model.MeetingStatusScheduled,
	})
	store.addMeeting(&model.Meeting{
		AdvisorID: advisor.ID,
		StartTime: at(monday, 11, 0),
		EndTime:   at(monday, 11, 30),
		Status:    model.MeetingStatusCancelled,
	})

	svc := newAvailability(store, &fakeBusy{}, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Len(t, slots, 5)
	assert.NotContains(t, starts(slots), at(monday, 9, 0))
	assert.Contains(t, starts(slots), at(monday, 11, 0))
}

func TestGenerateSlotsAdvisorTimezone(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("America/New_York")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 10, 0))

	svc := newAvailability(store, &fakeBusy{}, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	// 3 марта в Нью-Йорке UTC-5
	assert.Equal(t, []time.Time{at(monday, 14, 0), at(monday, 14, 30)}, starts(slots))
}

func TestGenerateSlotsProviderFailure(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 12, 0))

	svc := newAvailability(store, &fakeBusy{err: errors.New("calendar timeout")}, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBusyProvider)
	assert.Nil(t, slots)
}

func TestGenerateSlotsEmptyCases(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	busy := &fakeBusy{}
	svc := newAvailability(store, busy, sundayNoon)

	slots, err := svc.GenerateSlots(context.Background(), uuid.New(), monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Empty(t, slots)

	slots, err = svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Empty(t, slots)

	store.addWindow(advisor.ID, true, weekly(model.Tuesday, 9, 0, 12, 0))
	slots, err = svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.Empty(t, slots)

	assert.Zero(t, busy.callCount())
}

func TestGenerateSlotsRejectsBadInput(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	svc := newAvailability(store, &fakeBusy{}, sundayNoon)

	var verr *ValidationError

	_, err := svc.GenerateSlots(context.Background(), advisor.ID, at(monday, 12, 0), monday, 30*time.Minute, nil)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "endDate")

	_, err = svc.GenerateSlots(context.Background(), advisor.ID, monday, at(monday, 12, 0), 0, nil)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "duration")
}

func TestIsSlotStillAvailable(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	busy := &fakeBusy{intervals: []model.Interval{{Start: at(monday, 10, 0), End: at(monday, 10, 30)}}}
	svc := newAvailability(store, busy, sundayNoon)

	free, err := svc.IsSlotStillAvailable(context.Background(), advisor.ID, at(monday, 9, 30), at(monday, 10, 0))
	require.NoError(t, err)
	assert.True(t, free)

	free, err = svc.IsSlotStillAvailable(context.Background(), advisor.ID, at(monday, 9, 45), at(monday, 10, 15))
	require.NoError(t, err)
	assert.False(t, free)

	busy.err = errors.New("boom")
	_, err = svc.IsSlotStillAvailable(context.Background(), advisor.ID, at(monday, 9, 30), at(monday, 10, 0))
	assert.ErrorIs(t, err, ErrBusyProvider)
}

func TestFitsRecurrence(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("")
	store.addWindow(advisor.ID, true, weekly(model.Monday, 9, 0, 12, 0))
	svc := newAvailability(store, &fakeBusy{}, sundayNoon)

	tests := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"on grid", at(monday, 9, 30), true},
		{"last fitting", at(monday, 11, 30), true},
		{"off grid", at(monday, 9, 15), false},
		{"past window end", at(monday, 12, 0), false},
		{"other day", at(monday.AddDate(0, 0, 1), 9, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.FitsRecurrence(context.Background(), advisor.ID, tt.start, 30*time.Minute, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateSlotsFallBackDay(t *testing.T) {
	store := newMemStore()
	advisor := store.addAdvisor("America/New_York")
	// 2 ноября 2025 в Нью-Йорке часы переводятся назад в 02:00
	store.addWindow(advisor.ID, true, weekly(model.Sunday, 1, 0, 2, 0))

	day := time.Date(2025, 11, 2, 0, 0, 0, 0, time.UTC)
	svc := newAvailability(store, &fakeBusy{}, day.AddDate(0, 0, -1))

	slots, err := svc.GenerateSlots(context.Background(), advisor.ID, day, at(day, 23, 59), 30*time.Minute, nil)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	for _, s := range slots {
		local := s.Start.In(mustLoadLocation(t, "America/New_York"))
		assert.Equal(t, 1, local.Hour())
	}

	ok, err := svc.FitsRecurrence(context.Background(), advisor.ID, slots[len(slots)-1].Start.Add(SlotStep), 30*time.Minute, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func mustLoadLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}
