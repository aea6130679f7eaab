package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
)

var (
	// понедельник, 3 марта 2025
	monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	// воскресенье накануне, полдень
	sundayNoon = time.Date(2025, 3, 2, 12, 0, 0, 0, time.UTC)
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func weekly(day model.Weekday, fromH, fromM, toH, toM int) model.WeeklySlot {
	return model.WeeklySlot{
		DayOfWeek: day,
		StartTime: model.TimeOfDay{Hour: fromH, Minute: fromM},
		EndTime:   model.TimeOfDay{Hour: toH, Minute: toM},
	}
}

// memStore хранилище в памяти; транзакции бронирования выполняются строго по одной
type memStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	advisors map[uuid.UUID]*model.Advisor
	windows  []*model.SchedulingWindow
	links    map[string]*model.SchedulingLink
	meetings []*model.Meeting
	answers  []model.Answer

	listErr error
}

func newMemStore() *memStore {
	return &memStore{
		advisors: make(map[uuid.UUID]*model.Advisor),
		links:    make(map[string]*model.SchedulingLink),
	}
}

func (s *memStore) addAdvisor(tz string) *model.Advisor {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := &model.Advisor{ID: uuid.New(), Email: "advisor@example.com", Name: "Anna", Timezone: tz}
	s.advisors[a.ID] = a
	return a
}

func (s *memStore) addWindow(advisorID uuid.UUID, active bool, slots ...model.WeeklySlot) *model.SchedulingWindow {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := &model.SchedulingWindow{ID: uuid.New(), AdvisorID: advisorID, Name: "window", IsActive: active, Slots: slots}
	s.windows = append(s.windows, w)
	return w
}

func (s *memStore) addLink(link *model.SchedulingLink) *model.SchedulingLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	if link.ID == uuid.Nil {
		link.ID = uuid.New()
	}
	for i := range link.Questions {
		if link.Questions[i].ID == uuid.Nil {
			link.Questions[i].ID = uuid.New()
		}
		link.Questions[i].LinkID = link.ID
	}
	s.links[link.Slug] = link
	return link
}

func (s *memStore) addMeeting(m *model.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	s.meetings = append(s.meetings, m)
}

func (s *memStore) usage(slug string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.links[slug].UsageCount
}

func (s *memStore) meetingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.meetings)
}

func (s *memStore) GetByID(_ context.Context, id uuid.UUID) (*model.Advisor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.advisors[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *memStore) ListActiveWindows(_ context.Context, advisorID uuid.UUID, windowIDs []uuid.UUID) ([]*model.SchedulingWindow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}

	wanted := make(map[uuid.UUID]bool, len(windowIDs))
	for _, id := range windowIDs {
		wanted[id] = true
	}

	var out []*model.SchedulingWindow
	for _, w := range s.windows {
		if w.AdvisorID != advisorID || !w.IsActive {
			continue
		}
		if len(wanted) > 0 && !wanted[w.ID] {
			continue
		}
		out = append(out, w)
	}
	return out, nil
}

func (s *memStore) ListScheduledBetween(_ context.Context, advisorID uuid.UUID, from, to time.Time) ([]*model.Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv := model.Interval{Start: from, End: to}
	var out []*model.Meeting
	for _, m := range s.meetings {
		if m.AdvisorID == advisorID && m.Status == model.MeetingStatusScheduled && m.Interval().Overlaps(iv) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) GetBySlug(_ context.Context, slug string) (*model.SchedulingLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLink(slug), nil
}

func (s *memStore) copyLink(slug string) *model.SchedulingLink {
	l, ok := s.links[slug]
	if !ok {
		return nil
	}
	cp := *l
	cp.Questions = append([]model.Question(nil), l.Questions...)
	cp.WindowIDs = append([]uuid.UUID(nil), l.WindowIDs...)
	return &cp
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	tx := &memTx{store: s, usage: make(map[uuid.UUID]int)}
	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings = append(s.meetings, tx.meetings...)
	s.answers = append(s.answers, tx.answers...)
	for _, l := range s.links {
		l.UsageCount += tx.usage[l.ID]
	}
	return nil
}

// memTx накапливает записи до commit
type memTx struct {
	store    *memStore
	meetings []*model.Meeting
	answers  []model.Answer
	usage    map[uuid.UUID]int
}

func (t *memTx) LockLinkBySlug(_ context.Context, slug string) (*model.SchedulingLink, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	return t.store.copyLink(slug), nil
}

func (t *memTx) LockAdvisor(context.Context, uuid.UUID) error {
	return nil
}

func (t *memTx) HasOverlappingMeeting(_ context.Context, advisorID uuid.UUID, iv model.Interval) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, m := range append(append([]*model.Meeting(nil), t.store.meetings...), t.meetings...) {
		if m.AdvisorID == advisorID && m.Status == model.MeetingStatusScheduled && m.Interval().Overlaps(iv) {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) CreateMeeting(_ context.Context, m *model.Meeting) error {
	m.ID = uuid.New()
	m.CreatedAt = time.Now()
	t.meetings = append(t.meetings, m)
	return nil
}

func (t *memTx) CreateAnswers(_ context.Context, answers []model.Answer) error {
	for i := range answers {
		answers[i].ID = uuid.New()
	}
	t.answers = append(t.answers, answers...)
	return nil
}

func (t *memTx) IncrementUsage(_ context.Context, linkID uuid.UUID) (bool, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, l := range t.store.links {
		if l.ID != linkID {
			continue
		}
		if l.UsageLimit != nil && l.UsageCount+t.usage[linkID] >= *l.UsageLimit {
			return false, nil
		}
		t.usage[linkID]++
		return true, nil
	}
	return false, errors.New("link not found")
}

// fakeBusy провайдер занятости с фиксированным набором интервалов
type fakeBusy struct {
	mu        sync.Mutex
	intervals []model.Interval
	err       error
	calls     int
	lastStart time.Time
	lastEnd   time.Time
}

func (b *fakeBusy) GetBusyIntervals(_ context.Context, _ uuid.UUID, rangeStart, rangeEnd time.Time) ([]model.Interval, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.lastStart, b.lastEnd = rangeStart, rangeEnd
	if b.err != nil {
		return nil, b.err
	}
	query := model.Interval{Start: rangeStart, End: rangeEnd}
	var out []model.Interval
	for _, iv := range b.intervals {
		if iv.Overlaps(query) {
			out = append(out, iv)
		}
	}
	return out, nil
}

func (b *fakeBusy) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// recordingNotifier запоминает адресатов уведомлений
type recordingNotifier struct {
	mu   sync.Mutex
	sent []Recipient
	data []NotificationData
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, to Recipient, data NotificationData) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, to)
	n.data = append(n.data, data)
	return n.err
}

type fakeEnricher struct {
	augmentErr error
	profileErr error
}

func (e *fakeEnricher) Augment(_ context.Context, question, answer, contextData string) (string, error) {
	if e.augmentErr != nil {
		return "", e.augmentErr
	}
	return "context for " + answer, nil
}

func (e *fakeEnricher) SummarizeProfile(context.Context, string, string) (string, error) {
	if e.profileErr != nil {
		return "", e.profileErr
	}
	return "Senior engineer", nil
}

type recordingEnrichment struct {
	mu      sync.Mutex
	summary map[uuid.UUID]string
	notes   map[uuid.UUID]string
}

func newRecordingEnrichment() *recordingEnrichment {
	return &recordingEnrichment{summary: map[uuid.UUID]string{}, notes: map[uuid.UUID]string{}}
}

func (r *recordingEnrichment) SetEnrichmentSummary(_ context.Context, meetingID uuid.UUID, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summary[meetingID] = summary
	return nil
}

func (r *recordingEnrichment) SetAugmentedNote(_ context.Context, answerID uuid.UUID, note string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes[answerID] = note
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []EventDetails
	err    error
}

func (f *fakeEvents) CreateEvent(_ context.Context, _ uuid.UUID, event EventDetails) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	if f.err != nil {
		return "", f.err
	}
	return "evt-1", nil
}
