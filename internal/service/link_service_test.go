package service

import (
	"context"
	"testing"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memWindowRepo struct {
	windows map[uuid.UUID]*model.SchedulingWindow
}

func newMemWindowRepo() *memWindowRepo {
	return &memWindowRepo{windows: make(map[uuid.UUID]*model.SchedulingWindow)}
}

func (r *memWindowRepo) Create(_ context.Context, w *model.SchedulingWindow) error {
	w.ID = uuid.New()
	r.windows[w.ID] = w
	return nil
}

func (r *memWindowRepo) GetByID(_ context.Context, id uuid.UUID) (*model.SchedulingWindow, error) {
	return r.windows[id], nil
}

func (r *memWindowRepo) ListByAdvisor(_ context.Context, advisorID uuid.UUID) ([]*model.SchedulingWindow, error) {
	var out []*model.SchedulingWindow
	for _, w := range r.windows {
		if w.AdvisorID == advisorID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (r *memWindowRepo) Update(_ context.Context, w *model.SchedulingWindow) error {
	r.windows[w.ID] = w
	return nil
}

func (r *memWindowRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.windows, id)
	return nil
}

type memLinkRepo struct {
	links    map[uuid.UUID]*model.SchedulingLink
	meetings map[uuid.UUID]int
	deleted  []uuid.UUID
}

func newMemLinkRepo() *memLinkRepo {
	return &memLinkRepo{links: make(map[uuid.UUID]*model.SchedulingLink), meetings: make(map[uuid.UUID]int)}
}

func (r *memLinkRepo) Create(_ context.Context, l *model.SchedulingLink) error {
	l.ID = uuid.New()
	for i := range l.Questions {
		l.Questions[i].ID = uuid.New()
		l.Questions[i].LinkID = l.ID
	}
	r.links[l.ID] = l
	return nil
}

func (r *memLinkRepo) GetByID(_ context.Context, id uuid.UUID) (*model.SchedulingLink, error) {
	l, ok := r.links[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	cp.Questions = append([]model.Question(nil), l.Questions...)
	return &cp, nil
}

func (r *memLinkRepo) ListByAdvisor(_ context.Context, advisorID uuid.UUID) ([]*model.SchedulingLink, error) {
	var out []*model.SchedulingLink
	for _, l := range r.links {
		if l.AdvisorID == advisorID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLinkRepo) Update(_ context.Context, l *model.SchedulingLink) error {
	for i := range l.Questions {
		if l.Questions[i].ID == uuid.Nil {
			l.Questions[i].ID = uuid.New()
		}
	}
	r.links[l.ID] = l
	return nil
}

func (r *memLinkRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.links, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *memLinkRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.links[id].IsActive = false
	return nil
}

func (r *memLinkRepo) CountMeetings(_ context.Context, id uuid.UUID) (int, error) {
	return r.meetings[id], nil
}

func (r *memLinkRepo) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	for _, l := range r.links {
		if l.Slug == slug && l.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func linkInput(slug string) LinkInput {
	return LinkInput{
		Name:             "Intro call",
		Slug:             slug,
		IsActive:         true,
		DurationMinutes:  30,
		MaxDaysInAdvance: 14,
		Questions:        []QuestionInput{{Text: "Goals?"}, {Text: "Budget?"}},
	}
}

func TestLinkServiceCreate(t *testing.T) {
	links := newMemLinkRepo()
	windows := newMemWindowRepo()
	svc := NewLinkService(links, windows, zap.NewNop())
	advisor := uuid.New()

	link, err := svc.Create(context.Background(), advisor, linkInput(" Intro-Call "))
	require.NoError(t, err)
	assert.Equal(t, "intro-call", link.Slug)
	assert.Equal(t, advisor, link.AdvisorID)
	require.Len(t, link.Questions, 2)
	assert.Equal(t, 0, link.Questions[0].DisplayOrder)
	assert.Equal(t, 1, link.Questions[1].DisplayOrder)

	_, err = svc.Create(context.Background(), uuid.New(), linkInput("intro-call"))
	assert.ErrorIs(t, err, ErrSlugTaken)
}

func TestLinkServiceCreateValidation(t *testing.T) {
	windows := newMemWindowRepo()
	svc := NewLinkService(newMemLinkRepo(), windows, zap.NewNop())
	advisor := uuid.New()

	in := linkInput("bad slug!")
	in.DurationMinutes = 0
	in.UsageLimit = intPtr(0)
	in.Questions = []QuestionInput{{Text: "  "}}

	_, err := svc.Create(context.Background(), advisor, in)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "slug")
	assert.Contains(t, verr.FieldErrors, "duration")
	assert.Contains(t, verr.FieldErrors, "usageLimit")
	assert.Contains(t, verr.FieldErrors, "questions[0]")

	foreign := &model.SchedulingWindow{AdvisorID: uuid.New(), Name: "theirs"}
	require.NoError(t, windows.Create(context.Background(), foreign))

	in = linkInput("intro")
	in.WindowIDs = []uuid.UUID{foreign.ID}
	_, err = svc.Create(context.Background(), advisor, in)
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "windowIds")
}

func TestLinkServiceUpdateQuestions(t *testing.T) {
	links := newMemLinkRepo()
	svc := NewLinkService(links, newMemWindowRepo(), zap.NewNop())
	advisor := uuid.New()

	link, err := svc.Create(context.Background(), advisor, linkInput("intro"))
	require.NoError(t, err)
	kept := link.Questions[1].ID
	stranger := uuid.New()

	in := linkInput("intro")
	in.Questions = []QuestionInput{
		{ID: &kept, Text: "Budget, roughly?"},
		{ID: &stranger, Text: "Timeline?"},
		{Text: "Anything else?"},
	}

	updated, err := svc.Update(context.Background(), advisor, link.ID, in)
	require.NoError(t, err)
	require.Len(t, updated.Questions, 3)
	assert.Equal(t, kept, updated.Questions[0].ID)
	assert.Equal(t, 0, updated.Questions[0].DisplayOrder)
	assert.NotEqual(t, stranger, updated.Questions[1].ID)
	assert.Equal(t, 2, updated.Questions[2].DisplayOrder)

	_, err = svc.Update(context.Background(), uuid.New(), link.ID, in)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLinkServiceUpdateSlugConflict(t *testing.T) {
	links := newMemLinkRepo()
	svc := NewLinkService(links, newMemWindowRepo(), zap.NewNop())
	advisor := uuid.New()

	_, err := svc.Create(context.Background(), advisor, linkInput("first"))
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), advisor, linkInput("second"))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), advisor, second.ID, linkInput("first"))
	assert.ErrorIs(t, err, ErrSlugTaken)

	// тот же slug у самой ссылки не конфликт
	_, err = svc.Update(context.Background(), advisor, second.ID, linkInput("second"))
	assert.NoError(t, err)
}

func TestLinkServiceDelete(t *testing.T) {
	links := newMemLinkRepo()
	svc := NewLinkService(links, newMemWindowRepo(), zap.NewNop())
	advisor := uuid.New()

	used, err := svc.Create(context.Background(), advisor, linkInput("used"))
	require.NoError(t, err)
	unused, err := svc.Create(context.Background(), advisor, linkInput("unused"))
	require.NoError(t, err)
	links.meetings[used.ID] = 2

	deactivated, err := svc.Delete(context.Background(), advisor, used.ID)
	require.NoError(t, err)
	assert.True(t, deactivated)
	assert.False(t, links.links[used.ID].IsActive)

	deactivated, err = svc.Delete(context.Background(), advisor, unused.ID)
	require.NoError(t, err)
	assert.False(t, deactivated)
	assert.Equal(t, []uuid.UUID{unused.ID}, links.deleted)

	_, err = svc.Delete(context.Background(), uuid.New(), used.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWindowService(t *testing.T) {
	windows := newMemWindowRepo()
	svc := NewWindowService(windows, zap.NewNop())
	advisor := uuid.New()

	_, err := svc.Create(context.Background(), advisor, WindowInput{
		Name:  "Broken",
		Slots: []model.WeeklySlot{weekly(model.Monday, 9, 0, 12, 0), weekly(model.Monday, 12, 0, 9, 0)},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldErrors, "timeSlots[1]")
	assert.NotContains(t, verr.FieldErrors, "timeSlots[0]")

	window, err := svc.Create(context.Background(), advisor, WindowInput{
		Name:     " Mornings ",
		IsActive: true,
		Slots:    []model.WeeklySlot{weekly(model.Monday, 9, 0, 12, 0)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mornings", window.Name)

	_, err = svc.Get(context.Background(), uuid.New(), window.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	updated, err := svc.Update(context.Background(), advisor, window.ID, WindowInput{
		Name:  "Afternoons",
		Slots: []model.WeeklySlot{weekly(model.Friday, 14, 0, 16, 0)},
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, model.Friday, updated.Slots[0].DayOfWeek)

	require.NoError(t, svc.Delete(context.Background(), advisor, window.ID))
	_, err = svc.Get(context.Background(), advisor, window.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
