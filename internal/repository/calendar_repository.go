package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/advisor_scheduler/internal/model"
	"github.com/Freeeeeet/advisor_scheduler/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CalendarRepository подключённые календари консультанта и синхронизированные события
type CalendarRepository struct {
	*base.Repository
}

func NewCalendarRepository(pool *pgxpool.Pool) *CalendarRepository {
	return &CalendarRepository{Repository: base.NewRepository(pool)}
}

// ListAccounts календари консультанта в порядке подключения
func (r *CalendarRepository) ListAccounts(ctx context.Context, advisorID uuid.UUID) ([]*model.CalendarAccount, error) {
	query := `
		SELECT id, advisor_id, provider, calendar_id, access_token, expires_at
		FROM calendar_accounts
		WHERE advisor_id = $1
		ORDER BY created_at
	`

	rows, err := r.Query(ctx, query, advisorID)
	if err != nil {
		return nil, fmt.Errorf("query calendar accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*model.CalendarAccount
	for rows.Next() {
		var a model.CalendarAccount
		if err := rows.Scan(&a.ID, &a.AdvisorID, &a.Provider, &a.CalendarID, &a.AccessToken, &a.ExpiresAt); err != nil {
			return nil, fmt.Errorf("scan calendar account: %w", err)
		}
		accounts = append(accounts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar accounts: %w", err)
	}
	return accounts, nil
}

// GetBusyIntervals объединение событий всех календарей консультанта, пересекающих диапазон
func (r *CalendarRepository) GetBusyIntervals(ctx context.Context, advisorID uuid.UUID, rangeStart, rangeEnd time.Time) ([]model.Interval, error) {
	query := `
		SELECT e.start_time, e.end_time
		FROM calendar_events e
		JOIN calendar_accounts a ON a.id = e.calendar_account_id
		WHERE a.advisor_id = $1
		  AND e.start_time < $3
		  AND e.end_time > $2
		ORDER BY e.start_time
	`

	rows, err := r.Query(ctx, query, advisorID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("query calendar events: %w", err)
	}
	defer rows.Close()

	var busy []model.Interval
	for rows.Next() {
		var iv model.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("scan calendar event: %w", err)
		}
		busy = append(busy, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar events: %w", err)
	}

	return model.MergeIntervals(busy), nil
}

// SaveEvent сохраняет событие, созданное в календаре, чтобы оно сразу учитывалось как занятость
func (r *CalendarRepository) SaveEvent(ctx context.Context, accountID uuid.UUID, eventID, title string, start, end time.Time) error {
	query := `
		INSERT INTO calendar_events (calendar_account_id, event_id, title, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.ExecAffected(ctx, query, accountID, eventID, title, start, end); err != nil {
		return fmt.Errorf("save calendar event: %w", err)
	}
	return nil
}
