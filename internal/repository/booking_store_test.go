package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository/migrations"
	"github.com/Freeeeeet/advisor_scheduler/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testPool подключается к DB_DSN и применяет миграции; без DB_DSN тест пропускается
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		t.Skip("DB_DSN not set, skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { db.Close() })
	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	require.NoError(t, err)
	_, err = provider.Up(ctx)
	require.NoError(t, err)

	return pool
}

type bookingFixture struct {
	pool    *pgxpool.Pool
	store   *BookingStore
	advisor *model.Advisor
	link    *model.SchedulingLink
}

func newBookingFixture(t *testing.T, usageLimit *int) *bookingFixture {
	t.Helper()
	pool := testPool(t)
	ctx := context.Background()

	advisor := &model.Advisor{ID: uuid.New(), Email: "advisor@example.com", Name: "Anna"}
	require.NoError(t, NewAdvisorRepository(pool).Upsert(ctx, advisor))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM advisors WHERE id = $1`, advisor.ID)
	})

	link := &model.SchedulingLink{
		AdvisorID:        advisor.ID,
		Name:             "Intro call",
		Slug:             "intro-" + uuid.NewString(),
		DurationMinutes:  30,
		MaxDaysInAdvance: 14,
		IsActive:         true,
		UsageLimit:       usageLimit,
	}
	require.NoError(t, NewLinkRepository(pool).Create(ctx, link))

	return &bookingFixture{
		pool:    pool,
		store:   NewBookingStore(pool, zap.NewNop()),
		advisor: advisor,
		link:    link,
	}
}

// book повторяет шаги транзакции бронирования
func (f *bookingFixture) book(ctx context.Context, start time.Time) error {
	return f.store.InTx(ctx, func(ctx context.Context, tx service.BookingTx) error {
		locked, err := tx.LockLinkBySlug(ctx, f.link.Slug)
		if err != nil {
			return err
		}
		if v := service.ValidateLink(locked, time.Now()); !v.Valid {
			return v.Err()
		}
		if err := tx.LockAdvisor(ctx, locked.AdvisorID); err != nil {
			return err
		}

		iv := model.NewInterval(start, locked.Duration())
		taken, err := tx.HasOverlappingMeeting(ctx, locked.AdvisorID, iv)
		if err != nil {
			return err
		}
		if taken {
			return service.ErrSlotUnavailable
		}

		m := &model.Meeting{
			AdvisorID:   locked.AdvisorID,
			LinkID:      locked.ID,
			StartTime:   iv.Start,
			EndTime:     iv.End,
			ClientEmail: "client@example.com",
			Status:      model.MeetingStatusScheduled,
		}
		if err := tx.CreateMeeting(ctx, m); err != nil {
			return err
		}

		ok, err := tx.IncrementUsage(ctx, locked.ID)
		if err != nil {
			return err
		}
		if !ok {
			return &service.LinkInvalidError{Reason: model.LinkUsageLimitReached}
		}
		return nil
	})
}

func (f *bookingFixture) counts(t *testing.T) (meetings, usage int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM meetings WHERE link_id = $1 AND status = 'scheduled'`, f.link.ID).Scan(&meetings))
	require.NoError(t, f.pool.QueryRow(ctx,
		`SELECT usage_count FROM scheduling_links WHERE id = $1`, f.link.ID).Scan(&usage))
	return meetings, usage
}

func nextMonday9() time.Time {
	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 9, 0, 0, 0, time.UTC)
	for day.Weekday() != time.Monday || !day.After(now) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

func TestBookingStoreConcurrentSameSlot(t *testing.T) {
	f := newBookingFixture(t, nil)
	start := nextMonday9()

	const attempts = 20
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		other   []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.book(context.Background(), start)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, service.ErrSlotUnavailable):
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, 1, success)

	meetings, usage := f.counts(t)
	assert.Equal(t, 1, meetings)
	assert.Equal(t, 1, usage)
}

func TestBookingStoreUsageLimit(t *testing.T) {
	limit := 3
	f := newBookingFixture(t, &limit)
	start := nextMonday9()

	const attempts = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		other   []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// у каждой попытки свой слот, конкурируют только за лимит
			err := f.book(context.Background(), start.Add(time.Duration(i)*time.Hour))
			mu.Lock()
			defer mu.Unlock()
			var linkErr *service.LinkInvalidError
			switch {
			case err == nil:
				success++
			case errors.As(err, &linkErr) && linkErr.Reason == model.LinkUsageLimitReached:
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Empty(t, other)
	assert.Equal(t, limit, success)

	meetings, usage := f.counts(t)
	assert.Equal(t, limit, meetings)
	assert.Equal(t, limit, usage)
}

func TestBookingStoreUniqueViolationIsSlotUnavailable(t *testing.T) {
	f := newBookingFixture(t, nil)
	start := nextMonday9()
	require.NoError(t, f.book(context.Background(), start))

	// вставка в обход блокировок и проверки пересечений упирается в уникальный индекс
	err := f.store.InTx(context.Background(), func(ctx context.Context, tx service.BookingTx) error {
		return tx.CreateMeeting(ctx, &model.Meeting{
			AdvisorID:   f.advisor.ID,
			LinkID:      f.link.ID,
			StartTime:   start,
			EndTime:     start.Add(time.Hour),
			ClientEmail: "other@example.com",
			Status:      model.MeetingStatusScheduled,
		})
	})
	assert.ErrorIs(t, err, service.ErrSlotUnavailable)

	meetings, _ := f.counts(t)
	assert.Equal(t, 1, meetings)
}

func TestStatsRepositoryCounts(t *testing.T) {
	f := newBookingFixture(t, nil)
	require.NoError(t, f.book(context.Background(), nextMonday9()))

	stats, err := NewStatsRepository(f.pool).GetDashboardStats(context.Background(), f.advisor.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalMeetings)
	assert.Equal(t, 1, stats.ActiveLinks)
	assert.Equal(t, 0, stats.ConnectedCalendars)
	assert.Equal(t, 0, stats.ActiveWindows)
}
